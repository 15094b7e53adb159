package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/rustyeddy/autotrader/alpaca"
	"github.com/rustyeddy/autotrader/config"
)

var screenerCmd = &cobra.Command{
	Use:   "screener",
	Short: "Print the most active stocks",
	Long: `Fetch and print the most active stocks from the screener, the same
list the bot merges into its trading universe at startup.

Example:
  autotrader screener --config configs/autotrader.yaml --top 20`,
	RunE: runScreener,
}

var (
	screenerConfigPath string
	screenerTop        int
)

func init() {
	rootCmd.AddCommand(screenerCmd)

	screenerCmd.Flags().StringVarP(&screenerConfigPath, "config", "f", "", "path to config file (required)")
	screenerCmd.Flags().IntVar(&screenerTop, "top", 20, "number of symbols to fetch")
	screenerCmd.MarkFlagRequired("config")
}

func runScreener(cmd *cobra.Command, args []string) error {
	cfg, err := config.LoadFromFile(screenerConfigPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	client := alpaca.NewClient(alpaca.Config{
		APIKey:    cfg.Alpaca.APIKey,
		APISecret: cfg.Alpaca.APISecret,
		Paper:     cfg.Alpaca.Paper,
	})

	symbols, err := client.MostActive(context.Background(), screenerTop)
	if err != nil {
		return fmt.Errorf("screener: %w", err)
	}

	for i, sym := range symbols {
		fmt.Printf("%2d  %s\n", i+1, sym)
	}
	return nil
}
