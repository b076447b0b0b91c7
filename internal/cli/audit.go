package cli

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/ppiankov/billaudit/internal/catalog"
	"github.com/ppiankov/billaudit/internal/llm"
	"github.com/ppiankov/billaudit/internal/model"
	"github.com/ppiankov/billaudit/internal/pipeline"
	"github.com/ppiankov/billaudit/internal/report"
	"github.com/ppiankov/billaudit/internal/worker"
)

var (
	outCSV       string
	outXLSX      string
	outJSON      string
	outNarrative string
	listFile     string
	auditTimeout time.Duration
	noCache      bool
	noProgress   bool
	llmEnabled   bool
)

// auditCmd represents the audit command
var auditCmd = &cobra.Command{
	Use:   "audit [files|dirs|globs...]",
	Short: "Audit billing statement PDFs for omitted companion services",
	Long: `Audit reads every statement, detects billed service concepts, extracts the
patient name and total charge, and evaluates the omission rules.

Directories expand to the PDFs they contain; glob patterns are expanded in
sorted order. Rows keep the order of the inputs. A statement that cannot be
read gets a row with "not identified"/"not found" and a note; the rest of the
batch is unaffected.

Without --csv, --xlsx or --json the CSV table is written to stdout.

Example:
  billaudit audit statements/
  billaudit audit 'march/*.pdf' --csv audit.csv --xlsx audit.xlsx
  billaudit audit --list paths.txt --json report.json --notes
  billaudit audit statements/ --llm --llm-out narrative.md`,
	RunE: runAudit,
}

func init() {
	rootCmd.AddCommand(auditCmd)

	// Output flags
	auditCmd.Flags().StringVar(&outCSV, "csv", "", "write the audit table as CSV to this path (\"-\" for stdout)")
	auditCmd.Flags().StringVar(&outXLSX, "xlsx", "", "write the audit table as an Excel workbook to this path")
	auditCmd.Flags().StringVar(&outJSON, "json", "", "write the full report as JSON to this path (\"-\" for stdout)")
	auditCmd.Flags().Bool("notes", false, "add a Note column with diagnostics for unreadable documents")

	// Input flags
	auditCmd.Flags().StringVar(&listFile, "list", "", "read document paths from a file (one per line, # comments)")

	// Processing flags
	auditCmd.Flags().Int("workers", 0, "number of concurrent workers (default: number of CPUs)")
	auditCmd.Flags().String("catalog", "", "concept/rule catalogue YAML (default: built-in)")
	auditCmd.Flags().String("backend", "", "text extraction backend: native, pdftotext")
	auditCmd.Flags().DurationVar(&auditTimeout, "timeout", 0, "total timeout for the batch (0 = none)")
	auditCmd.Flags().BoolVar(&noCache, "no-cache", false, "disable the extracted-text cache")
	auditCmd.Flags().BoolVar(&noProgress, "no-progress", false, "hide the progress bar")

	// LLM flags
	auditCmd.Flags().BoolVar(&llmEnabled, "llm", false, "write an LLM narrative of the batch (counts and file names only)")
	auditCmd.Flags().String("llm-provider", "", "LLM provider (openai, anthropic, ollama)")
	auditCmd.Flags().String("llm-model", "", "LLM model name")
	auditCmd.Flags().StringVar(&outNarrative, "llm-out", "billaudit-narrative.md", "path of the narrative markdown file")

	_ = viper.BindPFlag("output.include_notes", auditCmd.Flags().Lookup("notes"))
	_ = viper.BindPFlag("concurrency.workers", auditCmd.Flags().Lookup("workers"))
	_ = viper.BindPFlag("catalog.path", auditCmd.Flags().Lookup("catalog"))
	_ = viper.BindPFlag("extraction.backend", auditCmd.Flags().Lookup("backend"))
	_ = viper.BindPFlag("llm.provider", auditCmd.Flags().Lookup("llm-provider"))
	_ = viper.BindPFlag("llm.model", auditCmd.Flags().Lookup("llm-model"))
}

func runAudit(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if noCache {
		cfg.Cache.Enabled = false
	}
	if cfg.Concurrency.Workers <= 0 {
		cfg.Concurrency.Workers = model.DefaultConfig().Concurrency.Workers
	}

	// Configuration errors abort before any document is read
	cat, err := catalog.Load(cfg.Catalog.Path)
	if err != nil {
		return err
	}
	p, err := pipeline.NewPipeline(cfg, cat, pipeline.WithLogger(slog.Default()))
	if err != nil {
		return err
	}

	var summarizer *llm.Summarizer
	if llmEnabled || cfg.LLM.Provider != "" {
		if cfg.LLM.Provider == "" {
			cfg.LLM.Provider = "openai"
		}
		if cfg.LLM.Provider == "openai" && cfg.LLM.APIKey == "" {
			cfg.LLM.APIKey = os.Getenv("OPENAI_API_KEY")
			if cfg.LLM.APIKey == "" {
				return fmt.Errorf("OPENAI_API_KEY environment variable not set")
			}
		}
		summarizer, err = llm.NewSummarizer(llm.ConfigFromModel(cfg.LLM))
		if err != nil {
			return fmt.Errorf("configure LLM: %w", err)
		}
	}

	paths := append([]string{}, args...)
	if listFile != "" {
		listed, err := worker.ReadPathsFromFile(listFile)
		if err != nil {
			return fmt.Errorf("read list file: %w", err)
		}
		paths = append(paths, listed...)
	}
	if len(paths) == 0 {
		return fmt.Errorf("no documents given (pass files, directories or globs, or --list)")
	}

	docs, err := worker.ReadDocuments(paths)
	if err != nil {
		return err
	}
	if len(docs) == 0 {
		return fmt.Errorf("no PDF documents found in %v", paths)
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	if auditTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, auditTimeout)
		defer cancel()
	}

	slog.Debug("audit starting",
		"documents", len(docs),
		"workers", cfg.Concurrency.Workers,
		"backend", cfg.Extraction.Backend,
		"cache", cfg.Cache.Enabled,
	)

	processor := worker.NewBatchProcessor(p, cfg.Concurrency.Workers)
	if !noProgress && !cfg.Output.Verbose {
		bar := newProgressBar(len(docs))
		processor.OnProgress(func(done, total int) {
			_ = bar.Set(done)
		})
	}

	start := time.Now()
	batch, err := processor.Run(ctx, docs)
	if err != nil {
		return fmt.Errorf("audit aborted: %w", err)
	}
	slog.Debug("audit finished", "elapsed_ms", time.Since(start).Milliseconds())

	if err := report.RenderSummary(os.Stderr, batch, cat.Concepts); err != nil {
		return err
	}

	table := report.NewTable(batch, cat, report.TableOptions{IncludeNotes: cfg.Output.IncludeNotes})
	if err := writeExports(batch, table); err != nil {
		return err
	}

	if summarizer != nil {
		if err := writeNarrative(ctx, summarizer, batch); err != nil {
			return err
		}
	}

	return nil
}

func newProgressBar(total int) *progressbar.ProgressBar {
	return progressbar.NewOptions(total,
		progressbar.OptionSetWriter(os.Stderr),
		progressbar.OptionShowCount(),
		progressbar.OptionSetWidth(40),
		progressbar.OptionSetDescription("Auditing statements"),
		progressbar.OptionClearOnFinish(),
	)
}

// writeExports writes every requested export, or CSV to stdout when none is requested
func writeExports(batch *model.BatchReport, table *report.Table) error {
	if outCSV == "" && outXLSX == "" && outJSON == "" {
		return report.WriteCSV(os.Stdout, table)
	}

	if outCSV != "" {
		if err := writeOutput(outCSV, func(w io.Writer) error { return report.WriteCSV(w, table) }); err != nil {
			return err
		}
	}
	if outXLSX != "" {
		if err := writeOutput(outXLSX, func(w io.Writer) error { return report.WriteXLSX(w, table) }); err != nil {
			return err
		}
	}
	if outJSON != "" {
		if err := writeOutput(outJSON, func(w io.Writer) error { return report.WriteJSON(w, batch) }); err != nil {
			return err
		}
	}
	return nil
}

// writeOutput renders into memory, then writes path ("-" means stdout)
func writeOutput(path string, render func(io.Writer) error) error {
	var buf bytes.Buffer
	if err := render(&buf); err != nil {
		return err
	}

	if path == "-" {
		_, err := buf.WriteTo(os.Stdout)
		return err
	}

	if err := os.WriteFile(path, buf.Bytes(), 0644); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	fmt.Fprintf(os.Stderr, "✓ Wrote %s\n", path)
	return nil
}

func writeNarrative(ctx context.Context, s *llm.Summarizer, batch *model.BatchReport) error {
	summary, err := s.GenerateSummary(ctx, batch)
	if err != nil {
		return fmt.Errorf("generate narrative: %w", err)
	}
	if summary == nil {
		return nil
	}
	for _, w := range summary.Warnings {
		slog.Debug("llm", "note", w)
	}

	md := llm.RenderSeparateMarkdown(summary)
	if md == "" {
		fmt.Fprintf(os.Stderr, "⚠ LLM narrative skipped: %v\n", summary.Warnings)
		return nil
	}
	return writeOutput(outNarrative, func(w io.Writer) error {
		_, err := io.WriteString(w, md)
		return err
	})
}
