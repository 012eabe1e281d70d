package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/nao1215/dupscan/internal/boilerplate"
	"github.com/nao1215/dupscan/internal/config"
	"github.com/nao1215/dupscan/internal/database"
	"github.com/nao1215/dupscan/internal/engine"
	"github.com/nao1215/dupscan/internal/fingerprint"
	dslog "github.com/nao1215/dupscan/internal/log"
	"github.com/nao1215/dupscan/internal/model"
	"github.com/nao1215/dupscan/internal/pipeline"
	"github.com/nao1215/dupscan/internal/report"
	"github.com/nao1215/dupscan/internal/variant"
	"github.com/spf13/cobra"
)

// errSessionsFailed is returned when at least one export could not be analyzed.
var errSessionsFailed = errors.New("analysis failed")

// NewAnalyzeCmd creates the analyze command.
func NewAnalyzeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "analyze [export.json]...",
		Short: "Analyze crawl exports for duplicate content",
		Long: `Analyze imports one or more crawl exports and checks every page for:
- Exact duplicates: identical visible text under unrelated URLs
- Duplicates joined only by a temporary (302/303/307) redirect
- Near duplicates: SimHash distance below the threshold
- Domain/protocol variants that do not 301 to the canonical origin
- Top-level pages where boilerplate outweighs the main content

A crawl export is a JSON document:
  {
    "session_id": "crawl-2025-06-01",
    "pages": [{"url": "...", "fields": {"status_code": 200, "content_type": "text/html",
               "html": "...", "depth": 0, "base_url": "https://example.com"}}],
    "redirects": [{"source": "...", "target": "...", "status_code": 301, "position": 0}]
  }

Examples:
  # Analyze one export
  dupscan analyze crawl.json

  # Analyze several exports, two at a time
  dupscan analyze -b 2 shop.json blog.json docs.json

  # Skip the live variant probe (offline analysis)
  dupscan analyze --no-probe crawl.json

  # Write a Markdown report
  dupscan analyze -m -o report.md crawl.json`,
		Args: cobra.ArbitraryArgs,
		RunE: runAnalyzeCmd,
	}

	// Session flags
	cmd.Flags().StringP("session", "s", "",
		"Store the export under this session id instead of the one it records")
	cmd.Flags().IntP("concurrency", "n", config.DefaultConcurrency,
		"Number of pages analyzed at once")
	cmd.Flags().IntP("batch", "b", config.DefaultBatchSize,
		"Number of exports analyzed at once")
	cmd.Flags().Int("max-sessions", config.DefaultMaxSessions,
		"Maximum number of sessions held in memory")

	// Detection flags
	cmd.Flags().Int("near-threshold", config.DefaultNearThreshold,
		"SimHash distance in bits below which pages are near duplicates")
	cmd.Flags().Float64("boilerplate-ratio", config.DefaultBoilerplateRatio,
		"Main-content ratio below which a page is reported as boilerplate-heavy")
	cmd.Flags().Int("boilerplate-depth", config.DefaultBoilerplateDepth,
		"Deepest crawl depth checked for boilerplate")
	cmd.Flags().String("digest", string(fingerprint.SHA256),
		"Exact fingerprint digest (sha256 or sha3-256)")
	cmd.Flags().Bool("report-consolidated", false,
		"Report duplicates joined by a permanent redirect at INFO instead of hiding them")

	// Variant probe flags
	cmd.Flags().Bool("no-probe", false,
		"Do not probe http/https and www/non-www variants")
	cmd.Flags().DurationP("timeout", "t", config.DefaultTimeout,
		"Timeout for each variant probe request")
	cmd.Flags().String("proxy", "",
		"Send variant probes through a SOCKS5 proxy (host:port)")
	cmd.Flags().Float64("probe-rate", 0,
		"Maximum variant probe requests per second (0 means unlimited)")
	cmd.Flags().String("user-agent", config.DefaultUserAgent,
		"User-Agent for variant probes when neither page nor config sets one")

	// Storage and configuration
	cmd.Flags().StringP("config", "c", "",
		"Configuration file path (default: .dupscan in current or home directory)")
	cmd.Flags().String("db-dir", "",
		"Directory of the SQLite database (default: XDG data directory)")

	// Report flags
	cmd.Flags().BoolP("json", "j", false,
		"Output JSON report (mutually exclusive with --markdown)")
	cmd.Flags().BoolP("markdown", "m", false,
		"Output Markdown report (mutually exclusive with --json)")
	cmd.Flags().StringP("output", "o", "",
		"Write report to specified file path (creates directories if needed)")

	return cmd
}

func runAnalyzeCmd(cmd *cobra.Command, args []string) error {
	cfg, err := buildConfig(cmd, args)
	if err != nil {
		return err
	}

	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("configuration error: %w", err)
	}

	logger := dslog.NewSecureLogger(cmd.ErrOrStderr(), cfg.Verbose)
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	return runAnalyze(ctx, cmd.OutOrStdout(), cfg, logger)
}

// getVerboseFlag retrieves the verbose flag from the command or its parent.
func getVerboseFlag(cmd *cobra.Command) bool {
	verbose, err := cmd.Flags().GetBool("verbose")
	if err != nil {
		verbose, err = cmd.Root().PersistentFlags().GetBool("verbose")
		if err != nil {
			return false
		}
	}
	return verbose
}

// buildConfig creates a Config from cobra command flags.
func buildConfig(cmd *cobra.Command, args []string) (*config.Config, error) {
	cfg := config.NewConfig()
	flags := cmd.Flags()

	var err error
	if cfg.SessionID, err = flags.GetString("session"); err != nil {
		return nil, err
	}
	if cfg.Concurrency, err = flags.GetInt("concurrency"); err != nil {
		return nil, err
	}
	if cfg.BatchSize, err = flags.GetInt("batch"); err != nil {
		return nil, err
	}
	if cfg.MaxSessions, err = flags.GetInt("max-sessions"); err != nil {
		return nil, err
	}
	if cfg.NearThreshold, err = flags.GetInt("near-threshold"); err != nil {
		return nil, err
	}
	if cfg.BoilerplateRatio, err = flags.GetFloat64("boilerplate-ratio"); err != nil {
		return nil, err
	}
	if cfg.BoilerplateDepth, err = flags.GetInt("boilerplate-depth"); err != nil {
		return nil, err
	}
	if cfg.Digest, err = flags.GetString("digest"); err != nil {
		return nil, err
	}
	if cfg.ReportConsolidated, err = flags.GetBool("report-consolidated"); err != nil {
		return nil, err
	}

	noProbe, err := flags.GetBool("no-probe")
	if err != nil {
		return nil, err
	}
	cfg.Probe = !noProbe

	if cfg.Timeout, err = flags.GetDuration("timeout"); err != nil {
		return nil, err
	}
	if cfg.ProxyAddress, err = flags.GetString("proxy"); err != nil {
		return nil, err
	}
	if cfg.ProbeRate, err = flags.GetFloat64("probe-rate"); err != nil {
		return nil, err
	}
	if cfg.UserAgent, err = flags.GetString("user-agent"); err != nil {
		return nil, err
	}

	if cfg.ConfigFilePath, err = flags.GetString("config"); err != nil {
		return nil, err
	}
	if cfg.SiteConfigs, err = loadSiteConfigs(cfg.ConfigFilePath); err != nil {
		return nil, err
	}

	if cfg.DBDir, err = flags.GetString("db-dir"); err != nil {
		return nil, err
	}
	if cfg.DBDir == "" {
		cfg.DBDir = config.XDGDataDir()
	}

	if cfg.JSONReport, err = flags.GetBool("json"); err != nil {
		return nil, err
	}
	if cfg.MarkdownReport, err = flags.GetBool("markdown"); err != nil {
		return nil, err
	}
	if cfg.ReportFile, err = flags.GetString("output"); err != nil {
		return nil, err
	}

	cfg.Verbose = getVerboseFlag(cmd)
	cfg.Inputs = args

	return cfg, nil
}

// loadSiteConfigs loads the configuration file. An explicitly named file
// must exist; otherwise a missing file yields an empty configuration.
func loadSiteConfigs(explicitPath string) (*config.File, error) {
	path := config.FindConfigFile(explicitPath)
	if path == "" {
		if explicitPath != "" {
			return nil, fmt.Errorf("%w: %s", config.ErrConfigNotFound, explicitPath)
		}
		return &config.File{Sites: make(map[string]config.SiteConfig)}, nil
	}

	sites, err := config.LoadConfigFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to load config file %s: %w", path, err)
	}
	return sites, nil
}

// newEngine builds the duplicate detection engine described by cfg.
// Redirects are read from db.
func newEngine(cfg *config.Config, db *database.CrawlDB, logger *slog.Logger) (*engine.Engine, error) {
	hasher, err := fingerprint.NewHasher(fingerprint.Algorithm(cfg.Digest))
	if err != nil {
		return nil, err
	}

	opts := []engine.Option{
		engine.WithFeed(db),
		engine.WithHasher(hasher),
		engine.WithNearThreshold(cfg.NearThreshold),
		engine.WithReportConsolidated(cfg.ReportConsolidated),
		engine.WithMaxSessions(cfg.MaxSessions),
		engine.WithBoilerplate(boilerplate.NewAnalyzer(
			boilerplate.WithMinRatio(cfg.BoilerplateRatio),
			boilerplate.WithMaxDepth(cfg.BoilerplateDepth),
		)),
		engine.WithLogger(logger),
	}

	if cfg.Probe {
		client, err := variant.NewHTTPClient(variant.ClientOptions{
			Timeout:      cfg.Timeout,
			ProxyAddress: cfg.ProxyAddress,
		})
		if err != nil {
			return nil, fmt.Errorf("failed to create probe client: %w", err)
		}
		opts = append(opts, engine.WithProber(variant.NewProber(client,
			variant.WithTimeout(cfg.Timeout),
			variant.WithRateLimit(cfg.ProbeRate),
			variant.WithLogger(logger),
		)))
	}

	return engine.New(opts...)
}

// runAnalyze analyzes every input and writes the reports to out, or to
// cfg.ReportFile when set.
func runAnalyze(ctx context.Context, out io.Writer, cfg *config.Config, logger *slog.Logger) error {
	logger.Info("starting analysis",
		"inputs", cfg.Inputs,
		"batch", cfg.BatchSize,
		"concurrency", cfg.Concurrency,
		"probe", cfg.Probe,
	)

	// Exports sharing a recorded session id would be merged into one session.
	if cfg.SessionID == "" && len(cfg.Inputs) > 1 {
		if err := database.CheckDistinctSessions(cfg.Inputs); err != nil {
			return fmt.Errorf("invalid inputs: %w", err)
		}
	}

	db, err := database.Open(cfg.DBDir, database.DefaultOptions())
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer db.Close()
	logger.Info("database opened", "path", db.Path())

	eng, err := newEngine(cfg, db, logger)
	if err != nil {
		return err
	}

	pipelineOpts := []pipeline.Option{pipeline.WithLogger(logger)}
	configOpts := []pipeline.DefaultPipelineOption{
		pipeline.WithPipelineConcurrency(cfg.Concurrency),
		pipeline.WithPipelineSites(cfg.SiteConfigs),
		pipeline.WithPipelineUserAgent(cfg.UserAgent),
	}
	if cfg.SessionID != "" {
		configOpts = append(configOpts, pipeline.WithPipelineSessionID(cfg.SessionID))
	}

	bp := pipeline.NewBatchProcessor(
		func() *pipeline.Pipeline {
			return pipeline.DefaultPipeline(db, eng, pipelineOpts, configOpts...)
		},
		pipeline.WithConcurrency(cfg.BatchSize),
		pipeline.WithBatchLogger(logger),
	)

	start := time.Now()
	results, batchErr := bp.ProcessBatch(ctx, cfg.Inputs)

	reports := make([]*model.SessionReport, 0, len(results))
	failed := 0
	for _, r := range results {
		if r == nil {
			continue
		}
		if r.ErrorMessage != "" {
			failed++
		}
		reports = append(reports, r)
	}

	if err := outputReports(out, cfg, reports); err != nil {
		return err
	}

	logger.Info("analysis finished",
		"sessions", len(reports),
		"failed", failed,
		"elapsed", time.Since(start).Round(time.Millisecond),
	)

	if batchErr != nil {
		return batchErr
	}
	if failed > 0 {
		return fmt.Errorf("%w: %d of %d export(s)", errSessionsFailed, failed, len(cfg.Inputs))
	}
	return nil
}

// outputReports writes reports in the requested format.
func outputReports(stdout io.Writer, cfg *config.Config, reports []*model.SessionReport) error {
	output := stdout
	if cfg.ReportFile != "" {
		dir := filepath.Dir(cfg.ReportFile)
		if dir != "" && dir != "." {
			if err := os.MkdirAll(dir, 0750); err != nil {
				return fmt.Errorf("failed to create output directory: %w", err)
			}
		}

		f, err := os.OpenFile(cfg.ReportFile, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0600)
		if err != nil {
			return fmt.Errorf("failed to create output file: %w", err)
		}
		defer f.Close()
		output = f
	}

	var w report.Writer
	switch {
	case cfg.JSONReport:
		w = report.NewJSONWriter(output, report.WithPrettyPrint(), report.WithVersion(getVersion()))
	case cfg.MarkdownReport:
		w = report.NewMarkdownWriter(output)
	default:
		w = report.NewSimpleWriter(output, report.WithVerbose(cfg.Verbose))
	}

	if _, err := w.WriteAll(reports); err != nil {
		return fmt.Errorf("failed to write report: %w", err)
	}
	return nil
}
