package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"github.com/insightdelivered/statement-ingest/internal/api"
	"github.com/insightdelivered/statement-ingest/internal/categorizer"
	"github.com/insightdelivered/statement-ingest/internal/config"
	"github.com/insightdelivered/statement-ingest/internal/logger"
	"github.com/insightdelivered/statement-ingest/internal/models"
	"github.com/insightdelivered/statement-ingest/internal/parser"
	"github.com/insightdelivered/statement-ingest/internal/store"
	"github.com/insightdelivered/statement-ingest/internal/writer"
)

type runOptions struct {
	opts     parser.Options
	csv      bool
	csvOut   string
	header   bool
	familyID string
}

func main() {
	cfg, err := config.FromEnv(os.Getenv)
	if err != nil {
		fatalf("Invalid environment: %v\n", err)
	}
	cfg.BindFlags(flag.CommandLine)

	// CLI flags
	formatFlag := flag.String("format", "", "Source format: pdf, csv (detected from the file if omitted)")
	bankFlag := flag.String("bank", "", "CSV layout: standard, minimal (auto-detected if omitted)")
	passwordFlag := flag.String("password", "", "Password for encrypted PDF statements")
	csvFlag := flag.Bool("csv", false, "Write a CSV next to each input file")
	csvOutFlag := flag.String("csv-out", "", "Output CSV file path (single input only)")
	headerFlag := flag.Bool("header", true, "Include statement metadata header rows in CSV")
	familyFlag := flag.String("family", "default", "Family id for --family-config and categorization")
	serveFlag := flag.Bool("serve", false, "Run the HTTP API instead of parsing files")
	versionFlag := flag.Bool("version", false, "Print version and exit")
	helpFlag := flag.Bool("help", false, "Show usage help")

	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, `Family expense statement ingestion

Turns bank statement exports (PDF or CSV) into de-duplicated expense
transactions, and categorizes them with family rules and merchant hints.

Usage:
  statement-ingest [flags] <statement.pdf|statement.csv> [more files ...]
  statement-ingest --serve [--addr=:8080]

Flags:
`)
		flag.PrintDefaults()
		fmt.Fprintf(os.Stderr, `
Examples:
  # Parse a password-protected PDF and print a summary
  statement-ingest --password=01012530 jan.pdf

  # Parse a CSV export and write the expenses to a CSV file
  statement-ingest --bank=standard --csv-out=jan-expenses.csv jan.csv

  # Categorize with a family's rules while converting several files
  statement-ingest --family-config=family.yaml --csv jan.csv feb.csv

  # Run the HTTP API
  statement-ingest --serve --log-format=json

Environment:
  %s, %s, %s, %s,
  %s, %s, %s
`, config.EnvAddr, config.EnvLogLevel, config.EnvLogFormat, config.EnvMaxUploadMB,
			config.EnvPatternsFile, config.EnvHintsFile, config.EnvFamilyFile)
	}

	flag.Parse()

	if *versionFlag {
		fmt.Printf("statement-ingest v%s\n", api.Version)
		os.Exit(0)
	}
	if *helpFlag || (!*serveFlag && flag.NArg() == 0) {
		flag.Usage()
		os.Exit(0)
	}
	if err := cfg.Validate(); err != nil {
		fatalf("Invalid configuration: %v\n", err)
	}

	log := logger.NewFromConfig(cfg.LogLevel, cfg.LogFormat)
	ctx := logger.WithContext(context.Background(), log)

	patterns, hints, st, err := loadData(cfg, *familyFlag)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load configuration data")
	}
	p := parser.New(patterns)

	if *serveFlag {
		if err := serve(ctx, cfg, api.NewHandler(p, st, hints, log)); err != nil {
			log.Fatal().Err(err).Msg("server stopped")
		}
		return
	}

	format, err := parser.ParseFormat(*formatFlag)
	if err != nil {
		fatalf("%v\n", err)
	}
	bank, err := parser.ParseBankFormat(*bankFlag)
	if err != nil {
		fatalf("%v\n", err)
	}
	if *csvOutFlag != "" && flag.NArg() > 1 {
		fatalf("--csv-out takes a single input file; use --csv for several\n")
	}

	ro := runOptions{
		opts:     parser.Options{Format: format, Bank: bank, Password: *passwordFlag},
		csv:      *csvFlag,
		csvOut:   *csvOutFlag,
		header:   *headerFlag,
		familyID: *familyFlag,
	}
	var engine *categorizer.Engine
	if cfg.FamilyFile != "" {
		engine = categorizer.NewEngine(st, hints)
	}

	failed := false
	for _, inputPath := range flag.Args() {
		if err := processFile(ctx, p, engine, inputPath, ro); err != nil {
			fmt.Fprintf(os.Stderr, "Error processing %s: %v\n", inputPath, err)
			failed = true
		}
	}
	if failed {
		os.Exit(1)
	}
}

// loadData reads the optional pattern, hint and family files.
func loadData(cfg config.Config, familyID string) (*parser.Patterns, *categorizer.Hints, *store.Memory, error) {
	var (
		patterns *parser.Patterns
		hints    *categorizer.Hints
		err      error
	)
	if cfg.PatternsFile != "" {
		if patterns, err = parser.LoadPatternsFile(cfg.PatternsFile); err != nil {
			return nil, nil, nil, err
		}
	}
	if cfg.HintsFile != "" {
		if hints, err = categorizer.LoadHintsFile(cfg.HintsFile); err != nil {
			return nil, nil, nil, err
		}
	}

	st := store.NewMemory()
	if cfg.FamilyFile != "" {
		fc, err := store.LoadFamilyConfigFile(cfg.FamilyFile)
		if err != nil {
			return nil, nil, nil, err
		}
		st.SetFamilyConfig(familyID, fc)
	}
	return patterns, hints, st, nil
}

func serve(ctx context.Context, cfg config.Config, h *api.Handler) error {
	app := api.NewApp(h, cfg.MaxUploadBytes())

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		h.Log.Info().Str("addr", cfg.Addr).Str("version", api.Version).Msg("listening")
		errCh <- app.Listen(cfg.Addr)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	h.Log.Info().Msg("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return app.ShutdownWithContext(shutdownCtx)
}

func processFile(ctx context.Context, p *parser.StatementParser, engine *categorizer.Engine, inputPath string, ro runOptions) error {
	data, err := os.ReadFile(inputPath)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("input file not found: %s", inputPath)
		}
		return err
	}

	opts := ro.opts
	if opts.Format == "" {
		if ext := strings.ToLower(filepath.Ext(inputPath)); ext == ".pdf" || ext == ".csv" {
			opts.Format, _ = parser.ParseFormat(ext)
		}
	}

	log := logger.FromContext(ctx).With().Str("file", inputPath).Logger()
	fmt.Printf("Processing: %s\n", inputPath)

	result := p.Parse(logger.WithContext(ctx, log), data, opts)
	if !result.Success {
		return fmt.Errorf("%s: %s", result.ErrorCode, result.ErrorMessage)
	}

	fmt.Printf("  Recognized %d row(s), %d inflow(s) skipped\n", result.RawRowCount, result.FilteredOutCount)
	fmt.Printf("  Found %d expense transaction(s)\n", len(result.Transactions))
	if result.StatementMonth != "" {
		fmt.Printf("  Statement month: %s\n", result.StatementMonth)
	}
	if result.AccountNumber != "" {
		fmt.Printf("  Account number: %s\n", result.AccountNumber)
	}

	var categories []models.CategorizeResult
	if engine != nil {
		ins := make([]categorizer.Input, len(result.Transactions))
		for i, t := range result.Transactions {
			ins[i] = categorizer.Input{Description: t.DescriptionRaw, Channel: t.Channel, ItemType: t.ItemType}
		}
		if categories, err = engine.CategorizeBatch(ctx, ro.familyID, ins); err != nil {
			return fmt.Errorf("categorization failed: %w", err)
		}
		printCategorySummary(log, categories)
	}

	outPath := ro.csvOut
	if outPath == "" && ro.csv {
		outPath = strings.TrimSuffix(inputPath, filepath.Ext(inputPath)) + ".expenses.csv"
	}
	if outPath != "" {
		w := &writer.CSVWriter{IncludeHeader: ro.header}
		if err := w.WriteToFile(outPath, writer.Statement{Result: result, Categories: categories}); err != nil {
			return fmt.Errorf("CSV write failed: %w", err)
		}
		fmt.Printf("  Output: %s\n", outPath)
	}

	fmt.Println("  Done.")
	return nil
}

func printCategorySummary(log zerolog.Logger, results []models.CategorizeResult) {
	counts := map[models.MatchSource]int{}
	for _, r := range results {
		counts[r.Source]++
	}
	fmt.Printf("  Categorized: %d by rule, %d by hint, %d uncategorized\n",
		counts[models.SourceRule], counts[models.SourceHint], counts[models.SourceNone])
	log.Debug().
		Int("rule", counts[models.SourceRule]).
		Int("hint", counts[models.SourceHint]).
		Int("none", counts[models.SourceNone]).
		Msg("categorized")
}

func fatalf(format string, args ...interface{}) {
	fmt.Fprintf(os.Stderr, format, args...)
	os.Exit(1)
}
