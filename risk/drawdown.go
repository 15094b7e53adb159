package risk

import (
	"context"
	"errors"

	"github.com/rs/zerolog/log"

	"github.com/rustyeddy/autotrader/broker"
)

// Verdict is the drawdown gate's decision for one cycle.
type Verdict int

const (
	Continue Verdict = iota
	Halt
)

func (v Verdict) String() string {
	if v == Halt {
		return "halt"
	}
	return "continue"
}

// ErrHalted marks the deliberate, one-way trading halt. It is a policy
// outcome, not a failure; the control loop treats it as terminal.
var ErrHalted = errors.New("risk: drawdown limit breached, trading halted")

// Manager owns the process-lifetime risk state: the baseline portfolio
// value, set exactly once on the first successful evaluation, and the halt
// latch. A restart clears both.
//
// Manager is used from a single goroutine; it holds no locks because
// nothing else touches it.
type Manager struct {
	// DrawdownLimit is the negative fraction at which trading halts,
	// e.g. -0.05 for a 5% drop.
	DrawdownLimit float64

	// TrailPercent is the trailing-stop distance in percentage points,
	// e.g. 2.0 for a 2% trail.
	TrailPercent float64

	baseline    float64
	baselineSet bool
	halted      bool
}

func NewManager(drawdownLimit, trailPercent float64) *Manager {
	return &Manager{
		DrawdownLimit: drawdownLimit,
		TrailPercent:  trailPercent,
	}
}

// Baseline returns the baseline portfolio value and whether it has been set.
func (m *Manager) Baseline() (float64, bool) {
	return m.baseline, m.baselineSet
}

// CheckDrawdown compares the account's portfolio value against the baseline.
//
// On the first call the baseline is bootstrapped from LastEquity and no
// drawdown is judged. Once the limit is breached the verdict is Halt for the
// rest of the process lifetime; as a side effect all positions are
// liquidated and open orders canceled, best effort — a liquidation failure
// is logged but does not soften the verdict.
func (m *Manager) CheckDrawdown(ctx context.Context, b broker.Broker, acct broker.Account) Verdict {
	if m.halted {
		return Halt
	}

	if !m.baselineSet {
		m.baseline = acct.LastEquity
		m.baselineSet = true
		log.Info().Float64("baseline", m.baseline).Msg("initial portfolio value set")
		return Continue
	}

	changePct := (acct.PortfolioValue - m.baseline) / m.baseline
	if changePct > m.DrawdownLimit {
		return Continue
	}

	m.halted = true
	log.Error().
		Float64("baseline", m.baseline).
		Float64("portfolio_value", acct.PortfolioValue).
		Float64("change_pct", changePct).
		Float64("limit", m.DrawdownLimit).
		Msg("drawdown limit reached, halting all trading")

	if err := b.CloseAllPositions(ctx, true); err != nil {
		log.Error().Err(err).Msg("liquidation failed during halt")
	} else {
		log.Info().Msg("all positions liquidated and orders canceled")
	}
	return Halt
}
