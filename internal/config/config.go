package config

import (
	"path/filepath"
	"time"

	"github.com/adrg/xdg"

	"github.com/nao1215/dupscan/internal/fingerprint"
)

// Default configuration values.
const (
	// DefaultTimeout bounds each variant probe request. Variants are
	// expected to answer with a redirect immediately, so this is short.
	DefaultTimeout = 10 * time.Second

	// DefaultConcurrency is the number of pages fingerprinted at once.
	DefaultConcurrency = 8

	// DefaultBatchSize is the number of crawl exports analyzed at once.
	DefaultBatchSize = 2

	// DefaultNearThreshold is the SimHash distance below which two pages
	// are near-duplicates.
	DefaultNearThreshold = 3

	// DefaultBoilerplateRatio is the main-content ratio below which a page
	// is reported as boilerplate-heavy.
	DefaultBoilerplateRatio = 0.4

	// DefaultBoilerplateDepth is the deepest crawl depth checked for
	// boilerplate. Template problems show up on top-level pages.
	DefaultBoilerplateDepth = 2

	// DefaultMaxSessions caps the number of sessions held in memory.
	DefaultMaxSessions = 1024

	// AppName is the application name used for XDG directory paths.
	AppName = "dupscan"

	// DefaultUserAgent identifies DupScan in variant probe requests.
	DefaultUserAgent = "DupScan/1.0 (+https://github.com/nao1215/dupscan)"
)

// Config holds all configuration options for DupScan.
// This struct is populated from CLI flags and passed through the
// application rather than kept in global state.
//
// Design decision: We use a single flat struct instead of nested structs.
// The number of options is manageable and nesting would add complexity
// without significant benefit.
type Config struct {
	// Inputs is the list of crawl export files to analyze.
	Inputs []string

	// SessionID overrides the session id of the export. Only valid with
	// a single input.
	SessionID string

	// Concurrency is the number of pages processed at once.
	Concurrency int

	// BatchSize is the number of crawl exports analyzed at once.
	BatchSize int

	// Timeout bounds each variant probe request.
	Timeout time.Duration

	// NearThreshold is the SimHash distance, in bits, below which pages
	// are near-duplicates.
	NearThreshold int

	// BoilerplateRatio is the main-content ratio below which a page is
	// reported.
	BoilerplateRatio float64

	// BoilerplateDepth is the deepest crawl depth checked for boilerplate.
	BoilerplateDepth int

	// Probe enables the domain/protocol variant probe.
	Probe bool

	// ProxyAddress routes variant probes through a SOCKS5 proxy ("host:port").
	// Empty means direct connections.
	ProxyAddress string

	// ProbeRate limits variant probe requests per second. 0 means no limit.
	ProbeRate float64

	// Digest is the exact fingerprint digest ("sha256" or "sha3-256").
	Digest string

	// ReportConsolidated reports duplicates joined by a permanent redirect
	// at INFO instead of suppressing them.
	ReportConsolidated bool

	// MaxSessions caps the number of sessions held in memory.
	MaxSessions int

	// Verbose enables detailed log output using slog.LevelDebug.
	Verbose bool

	// ConfigFilePath is the path to the configuration file.
	// If empty, the tool searches for .dupscan in the current directory
	// and then in the user's home directory.
	ConfigFilePath string

	// SiteConfigs holds site-specific configurations loaded from the config file.
	SiteConfigs *File

	// JSONReport enables JSON report output. Mutually exclusive with
	// MarkdownReport.
	JSONReport bool

	// MarkdownReport enables Markdown report output. Mutually exclusive
	// with JSONReport.
	MarkdownReport bool

	// ReportFile is the output file path for the report.
	// When set, the report is written to this file instead of stdout.
	ReportFile string

	// DBDir is the directory path for storing the SQLite database.
	// Defaults to XDG data directory (~/.local/share/dupscan on Linux).
	DBDir string

	// UserAgent is the User-Agent sent with variant probes when neither
	// the page nor the site config provides one.
	UserAgent string
}

// NewConfig creates a new Config with default values.
//
// Design decision: We use a constructor function instead of relying on
// zero values because many defaults are non-zero. This also serves as
// documentation of what the defaults are.
func NewConfig() *Config {
	return &Config{
		Concurrency:      DefaultConcurrency,
		BatchSize:        DefaultBatchSize,
		Timeout:          DefaultTimeout,
		NearThreshold:    DefaultNearThreshold,
		BoilerplateRatio: DefaultBoilerplateRatio,
		BoilerplateDepth: DefaultBoilerplateDepth,
		Probe:            true,
		Digest:           string(fingerprint.SHA256),
		MaxSessions:      DefaultMaxSessions,
		UserAgent:        DefaultUserAgent,
	}
}

// XDGDataDir returns the XDG data directory for DupScan.
// On Linux: ~/.local/share/dupscan
// On macOS: ~/Library/Application Support/dupscan
// On Windows: %LOCALAPPDATA%\dupscan
func XDGDataDir() string {
	return filepath.Join(xdg.DataHome, AppName)
}

// XDGConfigDir returns the XDG config directory for DupScan.
func XDGConfigDir() string {
	return filepath.Join(xdg.ConfigHome, AppName)
}

// Validate checks if the configuration is valid.
// It returns the first problem found as a sentinel error.
func (c *Config) Validate() error {
	if len(c.Inputs) == 0 {
		return ErrNoInput
	}

	if c.SessionID != "" && len(c.Inputs) > 1 {
		return ErrSessionIDWithMultipleInputs
	}

	if c.Timeout <= 0 {
		return ErrInvalidTimeout
	}

	if c.Concurrency <= 0 {
		return ErrInvalidConcurrency
	}

	if c.BatchSize <= 0 {
		return ErrInvalidBatchSize
	}

	if c.NearThreshold < 1 || c.NearThreshold > 64 {
		return ErrInvalidThreshold
	}

	if c.BoilerplateRatio <= 0 || c.BoilerplateRatio > 1 {
		return ErrInvalidBoilerplateRatio
	}

	if c.JSONReport && c.MarkdownReport {
		return ErrConflictingReportFormats
	}

	if _, err := fingerprint.NewHasher(fingerprint.Algorithm(c.Digest)); err != nil {
		return ErrInvalidDigest
	}

	if c.MaxSessions <= 0 {
		return ErrInvalidMaxSessions
	}

	if c.ProbeRate < 0 {
		return ErrInvalidProbeRate
	}

	return nil
}
