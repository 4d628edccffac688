package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/MuskanShrestha58/FirecrawlDemo/config"
	"github.com/MuskanShrestha58/FirecrawlDemo/llm"
	"github.com/MuskanShrestha58/FirecrawlDemo/models"
	"github.com/MuskanShrestha58/FirecrawlDemo/pipeline"
	"github.com/MuskanShrestha58/FirecrawlDemo/scraper"
	"github.com/MuskanShrestha58/FirecrawlDemo/storage"
)

// defaultURL is scraped when no URL argument is given.
const defaultURL = "https://www.zillow.com/ca/"

var (
	fields     []string
	fieldsFile string
	outputDir  string
	envFile    string
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "firecrawl-demo [URL]",
		Short: "Scrape a page and extract listing fields into JSON and Excel",
		Long: `firecrawl-demo fetches a page as markdown through Firecrawl, asks an
OpenAI model to extract listing fields as JSON, and saves the raw markdown,
the JSON and an Excel sheet under the output directory.`,
		Example: `  # One pass over the default listing page
  firecrawl-demo

  # Custom page and fields
  firecrawl-demo https://www.zillow.com/homes/for_sale/ --fields Address,Price,Beds

  # Field list from YAML, results in ./results
  firecrawl-demo --fields-file fields.yaml -o results`,
		Args:          cobra.MaximumNArgs(1),
		RunE:          run,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.Flags().StringSliceVar(&fields, "fields", nil, "Fields to extract (default: the ten listing fields)")
	rootCmd.Flags().StringVar(&fieldsFile, "fields-file", "", "YAML file with the fields to extract")
	rootCmd.Flags().StringVarP(&outputDir, "output", "o", "", "Output directory (default: $OUTPUT_DIR or \"output\")")
	rootCmd.Flags().StringVar(&envFile, "env-file", ".env", "dotenv file with API keys")

	if err := rootCmd.Execute(); err != nil {
		fmt.Printf("An error occurred: %v\n", err)
		os.Exit(1)
	}
}

func run(cmd *cobra.Command, args []string) error {
	// ── 1. Load configuration ───────────────────────────────────────
	if err := config.LoadDotEnv(envFile); err != nil {
		return err
	}
	cfg := config.Load()
	if outputDir != "" {
		cfg.Output.Dir = outputDir
	}

	// ── 2. Initialise structured logging ────────────────────────────
	initLogger(cfg.Log)

	url := defaultURL
	if len(args) == 1 {
		url = args[0]
	}

	spec, err := resolveFields()
	if err != nil {
		return err
	}

	// ── 3. Wire the stages ──────────────────────────────────────────
	p := pipeline.New(
		scraper.NewFirecrawl(cfg.Firecrawl, nil),
		llm.NewClient(cfg.LLM),
		storage.New(cfg.Output.Dir, storage.WithUnwrapSingleKey(cfg.Output.UnwrapSingleKey)),
	)

	// ── 4. One pass ─────────────────────────────────────────────────
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	res, err := p.Run(ctx, url, spec)
	if err != nil {
		return err
	}

	printSummary(res)
	return nil
}

// resolveFields picks the field list: --fields-file, then --fields, then the
// defaults (nil).
func resolveFields() (models.FieldSpec, error) {
	if fieldsFile != "" {
		list, err := config.LoadFields(fieldsFile)
		if err != nil {
			return nil, err
		}
		return models.FieldSpec(list), nil
	}
	return models.FieldSpec(config.TrimFields(fields)), nil
}

func printSummary(res *pipeline.Result) {
	fmt.Println()
	fmt.Printf("Raw Data Saved to %s\n", res.RawPath)
	fmt.Printf("Formatted data saved to %s\n", res.JSONPath)
	fmt.Printf("Formatted data saved to Excel at %s\n", res.XLSXPath)
	fmt.Printf("Rows: %d  Columns: %d  Took: %s\n", res.Rows, res.Columns, res.Timing.Total.Round(time.Millisecond))
	if res.LLMUsage != nil {
		fmt.Printf("LLM tokens: %d prompt + %d completion = %d\n",
			res.LLMUsage.PromptTokens, res.LLMUsage.CompletionTokens, res.LLMUsage.TotalTokens)
	}
}

// initLogger configures slog based on the LogConfig.
func initLogger(cfg config.LogConfig) {
	var level slog.Level
	switch cfg.Level {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}

	opts := &slog.HandlerOptions{Level: level}

	var handler slog.Handler
	if cfg.Format == "json" {
		handler = slog.NewJSONHandler(os.Stdout, opts)
	} else {
		handler = slog.NewTextHandler(os.Stdout, opts)
	}

	slog.SetDefault(slog.New(handler))
}
