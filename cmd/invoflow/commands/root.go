// Package commands implements the CLI commands for invoflow.
package commands

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var rootCmd = &cobra.Command{
	Use:   "invoflow",
	Short: "Invoice extraction and normalization engine",
	Long: `Invoflow ingests invoices in three surface formats (JSON payloads,
raw email text, freeform text) and normalizes them into one structured
record: invoice number, date, parties, line items, and totals.

A classifier picks the extractor; freeform text is delegated to an LLM,
everything else is deterministic pattern matching.

Examples:
  # Process an invoice, auto-detecting its format
  invoflow process invoice.txt

  # Declare the format instead of detecting it
  invoflow process --format email invoice.eml

  # Use a specific provider and model for freeform text
  invoflow process -p anthropic -m claude-sonnet-4-20250514 invoice.txt

  # Only classify, without extracting
  invoflow classify invoice.txt`,
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().String("config", "", "config file (default $HOME/.invoflow.yaml)")
	rootCmd.PersistentFlags().Bool("debug", false, "enable debug logging")
	rootCmd.PersistentFlags().BoolP("quiet", "q", false, "suppress progress output")

	_ = viper.BindPFlag("debug", rootCmd.PersistentFlags().Lookup("debug"))
	_ = viper.BindPFlag("quiet", rootCmd.PersistentFlags().Lookup("quiet"))
}

func initConfig() {
	if cfgFile := viper.GetString("config"); cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		home, err := os.UserHomeDir()
		if err == nil {
			viper.AddConfigPath(home)
		}
		viper.AddConfigPath(".")
		viper.SetConfigName(".invoflow")
		viper.SetConfigType("yaml")
	}

	viper.SetEnvPrefix("INVOFLOW")
	viper.AutomaticEnv()

	// Also check common API key env vars
	_ = viper.BindEnv("api_key", "ANTHROPIC_API_KEY", "OPENAI_API_KEY", "OPENROUTER_API_KEY")

	_ = viper.ReadInConfig()
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

// logError prints an error message to stderr.
func logError(format string, args ...any) {
	fmt.Fprintf(os.Stderr, "Error: "+format+"\n", args...)
}
