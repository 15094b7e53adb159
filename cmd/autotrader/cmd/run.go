package cmd

import (
	"context"
	"errors"
	"fmt"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/rustyeddy/autotrader/alpaca"
	"github.com/rustyeddy/autotrader/bot"
	"github.com/rustyeddy/autotrader/broker"
	"github.com/rustyeddy/autotrader/broker/paper"
	"github.com/rustyeddy/autotrader/chart"
	"github.com/rustyeddy/autotrader/config"
	"github.com/rustyeddy/autotrader/journal"
	"github.com/rustyeddy/autotrader/market"
	"github.com/rustyeddy/autotrader/risk"
	"github.com/rustyeddy/autotrader/strategies"
	"github.com/rustyeddy/autotrader/universe"
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run the trading bot",
	Long: `Start the heartbeat control loop against the configured account.

The bot verifies the account is reachable and not blocked, resolves the
trading universe once, then cycles: risk checks first, strategy scan second.
An interrupt (Ctrl-C / SIGTERM) cancels open orders and shuts down cleanly.

Example:
  autotrader run --config configs/autotrader.yaml`,
	RunE: runRun,
}

var (
	runConfigPath string
	runDryRun     bool
)

func init() {
	rootCmd.AddCommand(runCmd)

	runCmd.Flags().StringVarP(&runConfigPath, "config", "f", "", "path to config file (required)")
	runCmd.Flags().BoolVar(&runDryRun, "dry-run", false, "route orders to an in-memory paper engine instead of the brokerage")
	runCmd.MarkFlagRequired("config")
}

func runRun(cmd *cobra.Command, args []string) error {
	cfg, err := config.LoadFromFile(runConfigPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	client := alpaca.NewClient(alpaca.Config{
		APIKey:    cfg.Alpaca.APIKey,
		APISecret: cfg.Alpaca.APISecret,
		Paper:     cfg.Alpaca.Paper,
	})

	var brk broker.Broker = client
	if runDryRun {
		log.Info().Msg("dry run: orders go to the in-memory paper engine")
		brk = paper.NewEngine(broker.Account{
			ID:             "PAPER",
			Currency:       "USD",
			Cash:           100_000,
			PortfolioValue: 100_000,
			LastEquity:     100_000,
		})
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	symbols := universe.Build(ctx, universe.Config{
		Symbols: cfg.Universe.Symbols,
		Dynamic: cfg.Universe.Dynamic,
		TopN:    cfg.Universe.TopN,
	}, client, brk)
	if len(symbols) == 0 {
		return fmt.Errorf("trading universe is empty")
	}

	j, err := openJournal(cfg.Journal)
	if err != nil {
		return fmt.Errorf("open journal: %w", err)
	}
	if j != nil {
		defer j.Close()
	}

	strat, err := strategies.ByName(cfg.Strategy.Name,
		cfg.Strategy.ShortWindow, cfg.Strategy.LongWindow,
		cfg.Strategy.PositionLimit, cfg.Strategy.NotionalUSD)
	if err != nil {
		return err
	}
	if sc, ok := strat.(*strategies.SMACross); ok {
		sc.Journal = j
		if cfg.Charts.Enabled {
			renderer, err := chart.NewRenderer(cfg.Charts.Dir)
			if err != nil {
				return err
			}
			sc.Charts = renderer
		}
	}

	tf, err := market.ParseTimeframe(cfg.Strategy.Timeframe)
	if err != nil {
		return err
	}

	b := &bot.Bot{
		Broker:    brk,
		Bars:      client,
		Risk:      risk.NewManager(cfg.Risk.DrawdownLimit, cfg.Risk.TrailPercent),
		Strategy:  strat,
		Universe:  symbols,
		Journal:   j,
		Timeframe: tf,
		// Enough history for the long SMA plus the bars behind the window.
		BarLimit:  cfg.Strategy.LongWindow + 5,
		Heartbeat: cfg.HeartbeatInterval(),
		Backoff:   cfg.BackoffInterval(),
	}

	log.Info().
		Int("universe", len(symbols)).
		Str("timeframe", string(tf)).
		Bool("paper", cfg.Alpaca.Paper).
		Msg("starting trading bot")

	err = b.Run(ctx)
	switch {
	case errors.Is(err, risk.ErrHalted):
		log.Error().Msg("bot stopped: drawdown halt")
		return err
	case err != nil:
		return err
	}
	log.Info().Msg("bot stopped")
	return nil
}

func openJournal(cfg config.JournalConfig) (journal.Journal, error) {
	switch cfg.Type {
	case "csv":
		return journal.NewCSV(cfg.OrdersFile, cfg.EquityFile)
	case "sqlite":
		return journal.NewSQLite(cfg.DBPath)
	default:
		return nil, nil
	}
}
