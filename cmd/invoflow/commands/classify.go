package commands

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/invoflow/invoflow/internal/classify"
	"github.com/invoflow/invoflow/internal/logger"
)

var classifyCmd = &cobra.Command{
	Use:   "classify [file]",
	Short: "Detect the surface format of a document",
	Long: `Classify a document as json, email, plain_invoice, or unknown
without running any extractor. Pass "-" to read from stdin.`,
	Args: cobra.ExactArgs(1),
	RunE: runClassify,
}

func init() {
	rootCmd.AddCommand(classifyCmd)
}

func runClassify(cmd *cobra.Command, args []string) error {
	logger.Init(logger.Options{
		Debug: viper.GetBool("debug"),
		Quiet: viper.GetBool("quiet"),
	})

	raw, err := readInput(args[0])
	if err != nil {
		logError("failed to read input: %v", err)
		return err
	}

	fmt.Fprintln(cmd.OutOrStdout(), classify.Detect(string(raw)))
	return nil
}
