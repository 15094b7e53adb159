package bot

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/rustyeddy/autotrader/broker"
	"github.com/rustyeddy/autotrader/journal"
	"github.com/rustyeddy/autotrader/market"
	"github.com/rustyeddy/autotrader/pkg/id"
	"github.com/rustyeddy/autotrader/risk"
	"github.com/rustyeddy/autotrader/strategies"
)

// State tracks the control loop's lifecycle.
type State int

const (
	Connecting State = iota
	Running
	Halted
	ShuttingDown
	Terminated
)

func (s State) String() string {
	switch s {
	case Connecting:
		return "connecting"
	case Running:
		return "running"
	case Halted:
		return "halted"
	case ShuttingDown:
		return "shutting-down"
	case Terminated:
		return "terminated"
	default:
		return "unknown"
	}
}

// ErrTradingBlocked is returned when the account is restricted from trading
// at startup. There is no retry for this: a blocked account cannot safely
// trade.
var ErrTradingBlocked = errors.New("bot: account is restricted from trading")

// Bot is the heartbeat scheduler. Each cycle runs the risk gate first and,
// if trading may continue, scans the universe through the strategy. Cycles
// are strictly sequential; the only suspension points are blocking network
// calls and the sleeps between cycles.
type Bot struct {
	Broker   broker.Broker
	Bars     broker.BarSource
	Risk     *risk.Manager
	Strategy strategies.Strategy
	Universe []market.Instrument

	// Journal is optional; equity snapshots are recorded once per cycle.
	Journal journal.Journal

	Timeframe market.Timeframe
	BarLimit  int

	Heartbeat time.Duration // sleep after a clean cycle
	Backoff   time.Duration // sleep after a failed cycle

	// ShutdownTimeout bounds the best-effort order cancel on interrupt.
	ShutdownTimeout time.Duration

	state State
}

// State returns the current lifecycle state.
func (b *Bot) State() State {
	return b.state
}

// Run drives the loop until a drawdown halt, a fatal startup failure, or
// context cancellation. A canceled context is the shutdown path and returns
// nil; a halt returns risk.ErrHalted.
func (b *Bot) Run(ctx context.Context) error {
	if err := b.check(); err != nil {
		b.state = Terminated
		return err
	}

	b.state = Connecting
	acct, err := b.Broker.GetAccount(ctx)
	if err != nil {
		b.state = Terminated
		return fmt.Errorf("bot: connect: %w", err)
	}
	if acct.TradingBlocked {
		b.state = Terminated
		return ErrTradingBlocked
	}
	log.Info().Float64("cash", acct.Cash).Msg("connected, buying power available")

	b.state = Running
	for {
		if ctx.Err() != nil {
			return b.shutdown()
		}

		log.Info().Msg("heartbeat")
		err := b.cycle(ctx)
		switch {
		case errors.Is(err, risk.ErrHalted):
			b.state = Halted
			log.Error().Msg("risk gate halted trading, stopping bot")
			b.state = Terminated
			return risk.ErrHalted

		case err != nil && ctx.Err() != nil:
			// The failure was (or was overtaken by) cancellation.
			return b.shutdown()

		case err != nil:
			log.Error().Err(err).Dur("backoff", b.Backoff).Msg("cycle failed, retrying after backoff")
			if !b.sleep(ctx, b.Backoff) {
				return b.shutdown()
			}

		default:
			if !b.sleep(ctx, b.Heartbeat) {
				return b.shutdown()
			}
		}
	}
}

// cycle is one full heartbeat: risk gate, then the universe scan. Any error
// returned here is recoverable at the loop boundary, except the halt
// sentinel. Per-symbol failures are contained inside the scan.
func (b *Bot) cycle(ctx context.Context) error {
	acct, err := b.Broker.GetAccount(ctx)
	if err != nil {
		return fmt.Errorf("account snapshot: %w", err)
	}

	if verdict := b.Risk.CheckDrawdown(ctx, b.Broker, acct); verdict == risk.Halt {
		b.recordHalt()
		return risk.ErrHalted
	}
	b.recordEquity(acct)

	if err := b.Risk.ReconcileStops(ctx, b.Broker); err != nil {
		return err
	}

	positions, err := b.Broker.GetPositions(ctx)
	if err != nil {
		return fmt.Errorf("positions snapshot: %w", err)
	}

	for _, inst := range b.Universe {
		series, err := b.Bars.GetBars(ctx, inst, b.Timeframe, b.BarLimit)
		if err != nil {
			log.Warn().Err(err).Str("symbol", inst.Symbol).Msg("bar fetch failed, skipping symbol")
			continue
		}
		if len(series) == 0 {
			log.Warn().Str("symbol", inst.Symbol).Msg("no bar data, skipping symbol")
			continue
		}
		if err := b.Strategy.OnBars(ctx, b.Broker, inst, series, positions); err != nil {
			log.Error().Err(err).Str("symbol", inst.Symbol).Msg("strategy error, skipping symbol")
			continue
		}
	}
	return nil
}

// shutdown best-effort cancels open orders and terminates. The outcome is
// logged either way; shutdown always completes.
func (b *Bot) shutdown() error {
	b.state = ShuttingDown
	log.Info().Msg("shutting down")

	timeout := b.ShutdownTimeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	// The run context is already canceled; give the cancel call its own.
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	if err := b.Broker.CancelOrders(ctx); err != nil {
		log.Error().Err(err).Msg("error canceling orders during shutdown")
	} else {
		log.Info().Msg("all pending orders canceled")
	}

	b.state = Terminated
	return nil
}

// recordHalt journals the drawdown halt as a close-all entry so the order
// history explains why trading stopped.
func (b *Bot) recordHalt() {
	if b.Journal == nil {
		return
	}
	err := b.Journal.RecordOrder(journal.OrderRecord{
		ClientOrderID: id.New(),
		Side:          string(broker.Sell),
		Type:          "close_all",
		Status:        journal.StatusSubmitted,
		Reason:        "drawdown_halt",
		Time:          time.Now().UTC(),
	})
	if err != nil {
		log.Warn().Err(err).Msg("halt journal write failed")
	}
}

func (b *Bot) recordEquity(acct broker.Account) {
	if b.Journal == nil {
		return
	}
	err := b.Journal.RecordEquity(journal.EquitySnapshot{
		Time:           time.Now().UTC(),
		Cash:           acct.Cash,
		PortfolioValue: acct.PortfolioValue,
		LastEquity:     acct.LastEquity,
	})
	if err != nil {
		log.Warn().Err(err).Msg("equity journal write failed")
	}
}

// sleep waits d or until the context is canceled; it reports false on
// cancellation.
func (b *Bot) sleep(ctx context.Context, d time.Duration) bool {
	if d <= 0 {
		return ctx.Err() == nil
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}

func (b *Bot) check() error {
	switch {
	case b.Broker == nil:
		return errors.New("bot: broker is required")
	case b.Bars == nil:
		return errors.New("bot: bar source is required")
	case b.Risk == nil:
		return errors.New("bot: risk manager is required")
	case b.Strategy == nil:
		return errors.New("bot: strategy is required")
	case len(b.Universe) == 0:
		return errors.New("bot: universe is empty")
	}
	if b.BarLimit <= 0 {
		return errors.New("bot: bar limit must be positive")
	}
	if b.Heartbeat <= 0 || b.Backoff <= 0 {
		return errors.New("bot: heartbeat and backoff must be positive")
	}
	return nil
}
