package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/rustyeddy/autotrader/config"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Generate or validate configuration files",
	Long: `Manage bot configuration files.

Subcommands:
  init     - Generate a default configuration file
  validate - Validate an existing configuration file

Examples:
  autotrader config init --output autotrader.yaml
  autotrader config validate --file autotrader.yaml`,
}

var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Generate a default configuration file",
	RunE:  runConfigInit,
}

var configValidateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Validate a configuration file",
	RunE:  runConfigValidate,
}

var (
	configInitOutput   string
	configValidatePath string
)

func init() {
	rootCmd.AddCommand(configCmd)
	configCmd.AddCommand(configInitCmd)
	configCmd.AddCommand(configValidateCmd)

	configInitCmd.Flags().StringVarP(&configInitOutput, "output", "o", "autotrader.yaml", "output config file path")
	configValidateCmd.Flags().StringVarP(&configValidatePath, "file", "f", "", "path to config file (required)")
	configValidateCmd.MarkFlagRequired("file")
}

func runConfigInit(cmd *cobra.Command, args []string) error {
	cfg := config.Default()
	if err := cfg.SaveToFile(configInitOutput); err != nil {
		return fmt.Errorf("save config: %w", err)
	}

	fmt.Printf("Created default configuration: %s\n", configInitOutput)
	fmt.Println("\nEdit the file and run with:")
	fmt.Printf("  autotrader run --config %s\n", configInitOutput)
	return nil
}

func runConfigValidate(cmd *cobra.Command, args []string) error {
	cfg, err := config.LoadFromFile(configValidatePath)
	if err != nil {
		return fmt.Errorf("validation failed: %w", err)
	}

	fmt.Printf("Configuration valid: %s\n", configValidatePath)
	fmt.Printf("  Strategy: %s SMA %d/%d on %s bars\n",
		cfg.Strategy.Name, cfg.Strategy.ShortWindow, cfg.Strategy.LongWindow, cfg.Strategy.Timeframe)
	fmt.Printf("  Risk: drawdown limit %.1f%%, trail %.1f%%\n",
		cfg.Risk.DrawdownLimit*100, cfg.Risk.TrailPercent)
	fmt.Printf("  Universe: %d static symbols, dynamic=%v\n",
		len(cfg.Universe.Symbols), cfg.Universe.Dynamic)
	fmt.Printf("  Journal: %s\n", cfg.Journal.Type)
	return nil
}
