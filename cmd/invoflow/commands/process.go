package commands

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/invoflow/invoflow/internal/classify"
	"github.com/invoflow/invoflow/internal/logger"
	"github.com/invoflow/invoflow/internal/oracle"
	"github.com/invoflow/invoflow/internal/output"
	"github.com/invoflow/invoflow/internal/pipeline"
	"github.com/invoflow/invoflow/internal/store"
)

var processCmd = &cobra.Command{
	Use:   "process [file]",
	Short: "Extract and normalize one invoice document",
	Long: `Process a single invoice document end to end: classify its format,
run the matching extractor, validate mandatory fields, and print the
structured result. Pass "-" to read from stdin.

Examples:
  # Auto-detect the format
  invoflow process invoice.txt

  # Pipe an email through stdin
  cat invoice.eml | invoflow process --format email -

  # Persist the interaction history
  invoflow process --store sqlite --store-path interactions.db invoice.json`,
	Args: cobra.ExactArgs(1),
	RunE: runProcess,
}

func init() {
	rootCmd.AddCommand(processCmd)

	flags := processCmd.Flags()

	// Input settings
	flags.String("format", "", "declared invoice format: json, email, plain (default: auto-detect)")
	flags.String("max-content-size", "1MB", "max input size (e.g., 100KB, 1MB, 0=unlimited)")

	// LLM settings, used only for freeform text
	flags.StringP("provider", "p", "", "LLM provider: anthropic, openai, openrouter, ollama (auto-detects from env vars)")
	flags.StringP("model", "m", "", "model name (provider-specific)")
	flags.StringP("api-key", "k", "", "API key (or use env var)")
	flags.String("base-url", "", "custom API base URL")
	flags.Duration("timeout", 60*time.Second, "oracle request timeout")
	flags.Int("max-retries", 3, "max oracle request retries")

	// Output settings
	flags.StringP("output", "o", "", "output file (default: stdout)")
	flags.String("output-format", "json", "output format: json, yaml")
	flags.Bool("dump-store", true, "append the full interaction-store dump to the output")

	// Interaction store settings
	flags.String("store", "memory", "interaction store backend: memory, sqlite")
	flags.String("store-path", "invoflow.db", "database path for the sqlite store")

	_ = viper.BindPFlag("provider", flags.Lookup("provider"))
	_ = viper.BindPFlag("model", flags.Lookup("model"))
	_ = viper.BindPFlag("api_key", flags.Lookup("api-key"))
	_ = viper.BindPFlag("base_url", flags.Lookup("base-url"))
}

func runProcess(cmd *cobra.Command, args []string) error {
	logger.Init(logger.Options{
		Debug: viper.GetBool("debug"),
		Quiet: viper.GetBool("quiet"),
	})

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	raw, err := readInput(args[0])
	if err != nil {
		logError("failed to read input: %v", err)
		return err
	}

	maxSizeStr, _ := cmd.Flags().GetString("max-content-size")
	if strings.TrimSpace(maxSizeStr) != "" && maxSizeStr != "0" {
		maxSize, err := humanize.ParseBytes(maxSizeStr)
		if err != nil {
			logError("invalid max-content-size %q: %v", maxSizeStr, err)
			return err
		}
		if uint64(len(raw)) > maxSize {
			err := fmt.Errorf("input is %s, exceeds max content size %s",
				humanize.Bytes(uint64(len(raw))), maxSizeStr)
			logError("%v", err)
			return err
		}
	}

	var declared classify.Format
	if formatStr, _ := cmd.Flags().GetString("format"); formatStr != "" {
		f, ok := classify.ParseFormat(formatStr)
		if !ok {
			err := fmt.Errorf("unknown format: %s (use json, email, or plain)", formatStr)
			logError("%v", err)
			return err
		}
		declared = f
	}

	provider, err := buildProvider(cmd)
	if err != nil {
		logError("failed to create oracle provider: %v", err)
		return err
	}

	st, err := buildStore(cmd)
	if err != nil {
		logError("failed to create interaction store: %v", err)
		return err
	}
	defer func() { _ = st.Close() }()

	writer, cleanup, err := buildWriter(cmd)
	if err != nil {
		logError("failed to create output writer: %v", err)
		return err
	}
	defer cleanup()

	outcome, perr := pipeline.New(st, provider).Process(ctx, string(raw), declared)
	if perr != nil {
		logError("processing failed: %v", perr)
	} else if err := writer.Write(outcome); err != nil {
		logError("failed to write result: %v", err)
		return err
	}

	// The store dump is printed even when processing failed; the artifacts
	// recorded so far are the main debugging aid.
	if dump, _ := cmd.Flags().GetBool("dump-store"); dump {
		contents, err := st.Dump(ctx)
		if err != nil {
			logError("failed to dump interaction store: %v", err)
			return err
		}
		if err := writer.Write(map[string]any{"interaction_store": contents}); err != nil {
			logError("failed to write store dump: %v", err)
			return err
		}
	}

	return perr
}

// readInput loads the document from a file path, or stdin for "-".
func readInput(path string) ([]byte, error) {
	if path == "-" {
		return io.ReadAll(os.Stdin)
	}
	return os.ReadFile(path) //#nosec G304 -- CLI tool reads a user-specified input file
}

// buildProvider resolves the oracle provider from flags, config, and
// environment, in that order.
func buildProvider(cmd *cobra.Command) (oracle.Provider, error) {
	name := viper.GetString("provider")
	apiKey := viper.GetString("api_key")
	if name == "" {
		detected, detectedKey := oracle.DetectProvider()
		name = detected
		if apiKey == "" {
			apiKey = detectedKey
		}
		logger.Debug("auto-detected oracle provider", "provider", name)
	}

	model := viper.GetString("model")
	if model == "" {
		model = oracle.GetDefaultModel(name)
	}

	timeout, _ := cmd.Flags().GetDuration("timeout")
	maxRetries, _ := cmd.Flags().GetInt("max-retries")

	return oracle.NewProvider(name, oracle.ProviderConfig{
		APIKey:     apiKey,
		BaseURL:    viper.GetString("base_url"),
		Model:      model,
		MaxRetries: maxRetries,
		Timeout:    timeout,
	})
}

func buildStore(cmd *cobra.Command) (store.Store, error) {
	backend, _ := cmd.Flags().GetString("store")
	switch backend {
	case "memory", "":
		return store.NewMemory(), nil
	case "sqlite":
		path, _ := cmd.Flags().GetString("store-path")
		return store.NewSQLite(path)
	default:
		return nil, fmt.Errorf("unknown store backend: %s (use memory or sqlite)", backend)
	}
}

func buildWriter(cmd *cobra.Command) (output.Writer, func(), error) {
	outFile := os.Stdout
	cleanup := func() {}
	if outPath, _ := cmd.Flags().GetString("output"); outPath != "" {
		f, err := os.Create(outPath) //#nosec G304 -- CLI tool writes to a user-specified output file
		if err != nil {
			return nil, nil, err
		}
		outFile = f
		cleanup = func() { _ = f.Close() }
	}

	formatStr, _ := cmd.Flags().GetString("output-format")
	format, err := output.ParseFormat(formatStr)
	if err != nil {
		cleanup()
		return nil, nil, err
	}
	writer, err := output.NewWriter(outFile, format)
	if err != nil {
		cleanup()
		return nil, nil, err
	}
	return writer, cleanup, nil
}
