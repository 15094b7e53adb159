package cmd

import (
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "autotrader",
	Short: "An autonomous SMA-crossover trading bot for stocks and crypto",
	Long: `Autotrader is an autonomous trading bot built on the Alpaca API.

It runs a heartbeat control loop that:
  - Enforces a daily drawdown halt with full liquidation
  - Keeps every open position protected by a trailing stop
  - Scans a static + most-actives symbol universe
  - Trades simple moving average crossovers with notional market orders

Orders and equity are journaled to CSV or SQLite, and every fired signal
is saved as a candlestick chart artifact.`,
	PersistentPreRunE: setupLogging,
	SilenceUsage:      true,
}

var (
	logLevel string
	logFile  string
)

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "info", "log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().StringVar(&logFile, "log-file", "", "also append logs to this file")
}

func setupLogging(cmd *cobra.Command, args []string) error {
	level, err := zerolog.ParseLevel(strings.ToLower(logLevel))
	if err != nil {
		return fmt.Errorf("bad log level %q: %w", logLevel, err)
	}
	zerolog.SetGlobalLevel(level)

	console := zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: time.RFC3339}
	var w io.Writer = console
	if logFile != "" {
		f, err := os.OpenFile(logFile, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
		if err != nil {
			return fmt.Errorf("open log file: %w", err)
		}
		w = zerolog.MultiLevelWriter(console, f)
	}
	log.Logger = zerolog.New(w).With().Timestamp().Logger()
	return nil
}
