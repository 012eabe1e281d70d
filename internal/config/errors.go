package config

import "errors"

// Configuration validation errors.
// These errors are returned by Config.Validate() and provide specific
// information about what is wrong with the configuration.
//
// Design decision: We use package-level sentinel errors rather than
// creating new error instances in Validate(). This allows callers to use
// errors.Is() for programmatic error handling while still providing
// human-readable messages.
var (
	// ErrNoInput is returned when no crawl export file is given.
	ErrNoInput = errors.New("no input specified: provide at least one crawl export file")

	// ErrSessionIDWithMultipleInputs is returned when a session id override
	// is combined with more than one crawl export.
	ErrSessionIDWithMultipleInputs = errors.New("session id override requires a single input")

	// ErrInvalidTimeout is returned when the probe timeout is not positive.
	ErrInvalidTimeout = errors.New("invalid timeout: must be positive")

	// ErrInvalidConcurrency is returned when the number of concurrent page
	// workers is not positive.
	ErrInvalidConcurrency = errors.New("invalid concurrency: must be positive")

	// ErrInvalidBatchSize is returned when the number of concurrently
	// analyzed exports is not positive.
	ErrInvalidBatchSize = errors.New("invalid batch size: must be positive")

	// ErrInvalidThreshold is returned when the near-duplicate threshold is
	// outside 1..64 bits.
	ErrInvalidThreshold = errors.New("invalid near-duplicate threshold: must be between 1 and 64")

	// ErrInvalidBoilerplateRatio is returned when the boilerplate ratio is
	// outside (0, 1].
	ErrInvalidBoilerplateRatio = errors.New("invalid boilerplate ratio: must be greater than 0 and at most 1")

	// ErrConflictingReportFormats is returned when both --json and --markdown
	// are specified. Only one output format can be used at a time.
	ErrConflictingReportFormats = errors.New("conflicting report formats: --json and --markdown cannot be used together")

	// ErrInvalidDigest is returned for an unsupported exact fingerprint digest.
	ErrInvalidDigest = errors.New("invalid digest: must be sha256 or sha3-256")

	// ErrInvalidMaxSessions is returned when the session cap is not positive.
	ErrInvalidMaxSessions = errors.New("invalid max sessions: must be positive")

	// ErrInvalidProbeRate is returned when the probe rate limit is negative.
	// Use 0 for no limit.
	ErrInvalidProbeRate = errors.New("invalid probe rate: must be non-negative")
)
