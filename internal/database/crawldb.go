package database

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite" // SQLite driver

	"github.com/nao1215/dupscan/internal/model"
)

// FileName is the database file created inside the database directory.
const FileName = "dupscan.db"

// CrawlDB provides SQLite-based storage for crawl sessions.
// Every row is keyed by session id so several sessions can share one file.
type CrawlDB struct {
	// db is the underlying SQL database connection.
	db *sql.DB

	// dbPath is the path to the SQLite database file.
	dbPath string
}

// Options configures CrawlDB behavior.
type Options struct {
	// CreateIfNotExists creates the database file if it doesn't exist.
	CreateIfNotExists bool

	// EnableWAL enables Write-Ahead Logging for better concurrent performance.
	EnableWAL bool
}

// DefaultOptions returns the default database options.
func DefaultOptions() Options {
	return Options{
		CreateIfNotExists: true,
		EnableWAL:         true,
	}
}

// Open opens or creates a CrawlDB in dbDir.
// If CreateIfNotExists is false and the database doesn't exist, an error is returned.
func Open(dbDir string, opts Options) (*CrawlDB, error) {
	dbPath := filepath.Join(dbDir, FileName)

	if !opts.CreateIfNotExists {
		if _, err := os.Stat(dbPath); os.IsNotExist(err) {
			return nil, fmt.Errorf("database not found at %s (use CreateIfNotExists option to create)", dbPath)
		} else if err != nil {
			return nil, fmt.Errorf("failed to check database path: %w", err)
		}
	} else {
		if err := os.MkdirAll(dbDir, 0750); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}

	// mode=rw refuses to create a missing file, mode=rwc allows it.
	dsn := dbPath + "?mode=rw"
	if opts.CreateIfNotExists {
		dsn = dbPath + "?mode=rwc"
	}

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	db.SetMaxOpenConns(1) // SQLite only supports one writer
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(time.Hour)

	cdb := &CrawlDB{
		db:     db,
		dbPath: dbPath,
	}

	if opts.EnableWAL {
		if _, err := db.ExecContext(context.Background(), "PRAGMA journal_mode=WAL"); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("failed to enable WAL mode: %w", err)
		}
	}

	if err := cdb.createTables(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to create tables: %w", err)
	}

	return cdb, nil
}

// Path returns the database file path.
func (cdb *CrawlDB) Path() string {
	return cdb.dbPath
}

// Close closes the database connection.
func (cdb *CrawlDB) Close() error {
	return cdb.db.Close()
}

// createTables creates the database schema if it doesn't exist.
func (cdb *CrawlDB) createTables() error {
	schema := `
	-- Pages store the crawled responses of a session
	CREATE TABLE IF NOT EXISTS pages (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		session_id TEXT NOT NULL,
		url TEXT NOT NULL,
		status_code INTEGER,
		content_type TEXT,
		depth INTEGER DEFAULT 0,
		base_url TEXT,
		client TEXT,
		html TEXT,
		headers TEXT,
		timestamp DATETIME DEFAULT CURRENT_TIMESTAMP,
		UNIQUE(session_id, url)
	);

	CREATE INDEX IF NOT EXISTS idx_pages_session ON pages(session_id);

	-- Redirects store every hop the crawler followed
	CREATE TABLE IF NOT EXISTS redirects (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		session_id TEXT NOT NULL,
		source_url TEXT NOT NULL,
		target_url TEXT NOT NULL,
		status_code INTEGER NOT NULL,
		position INTEGER DEFAULT 0
	);

	CREATE INDEX IF NOT EXISTS idx_redirects_session ON redirects(session_id, source_url, position);

	-- Findings store analysis results, one row per finding
	CREATE TABLE IF NOT EXISTS findings (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		session_id TEXT NOT NULL,
		url TEXT NOT NULL,
		type TEXT NOT NULL,
		severity INTEGER NOT NULL,
		finding_json TEXT NOT NULL,
		timestamp DATETIME DEFAULT CURRENT_TIMESTAMP
	);

	CREATE INDEX IF NOT EXISTS idx_findings_session ON findings(session_id);
	CREATE INDEX IF NOT EXISTS idx_findings_type ON findings(type);

	-- Sessions store the report summary of each analysis run
	CREATE TABLE IF NOT EXISTS sessions (
		session_id TEXT PRIMARY KEY,
		source TEXT,
		started_at DATETIME,
		finished_at DATETIME,
		report_json TEXT NOT NULL,
		risk_summary TEXT,
		timestamp DATETIME DEFAULT CURRENT_TIMESTAMP
	);
	`

	_, err := cdb.db.ExecContext(context.Background(), schema)
	return err
}

// InsertPage inserts or updates one page of a session.
// Uses UPSERT so re-importing a crawl replaces the stored response.
func (cdb *CrawlDB) InsertPage(ctx context.Context, sessionID string, page model.Page) error {
	return cdb.InsertPages(ctx, sessionID, []model.Page{page})
}

// InsertPages stores pages of a session in one transaction.
func (cdb *CrawlDB) InsertPages(ctx context.Context, sessionID string, pages []model.Page) error {
	return cdb.inTx(ctx, func(tx *sql.Tx) error {
		return insertPages(ctx, tx, sessionID, pages)
	})
}

func insertPages(ctx context.Context, tx *sql.Tx, sessionID string, pages []model.Page) error {
	query := `
	INSERT INTO pages (session_id, url, status_code, content_type, depth, base_url, client, html, headers)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	ON CONFLICT(session_id, url) DO UPDATE SET
		status_code = excluded.status_code,
		content_type = excluded.content_type,
		depth = excluded.depth,
		base_url = excluded.base_url,
		client = excluded.client,
		html = excluded.html,
		headers = excluded.headers,
		timestamp = CURRENT_TIMESTAMP
	`

	stmt, err := tx.PrepareContext(ctx, query)
	if err != nil {
		return fmt.Errorf("failed to prepare page insert: %w", err)
	}
	defer stmt.Close()

	for _, page := range pages {
		headersJSON, err := json.Marshal(page.Fields.Headers)
		if err != nil {
			return fmt.Errorf("failed to serialize headers: %w", err)
		}
		clientJSON, err := json.Marshal(page.Fields.Client)
		if err != nil {
			return fmt.Errorf("failed to serialize client identity: %w", err)
		}

		if _, err := stmt.ExecContext(ctx,
			sessionID,
			page.URL,
			page.Fields.StatusCode,
			page.Fields.ContentType,
			page.Fields.Depth,
			page.Fields.BaseURL,
			string(clientJSON),
			page.Fields.HTML,
			string(headersJSON),
		); err != nil {
			return fmt.Errorf("failed to insert page %s: %w", page.URL, err)
		}
	}
	return nil
}

// ListPages returns the pages of a session in insertion order.
func (cdb *CrawlDB) ListPages(ctx context.Context, sessionID string) ([]model.Page, error) {
	query := `
	SELECT url, status_code, content_type, depth, base_url, client, html, headers
	FROM pages
	WHERE session_id = ?
	ORDER BY id
	`

	rows, err := cdb.db.QueryContext(ctx, query, sessionID)
	if err != nil {
		return nil, fmt.Errorf("failed to query pages: %w", err)
	}
	defer rows.Close()

	var pages []model.Page
	for rows.Next() {
		var page model.Page
		var clientJSON, headersJSON sql.NullString

		if err := rows.Scan(
			&page.URL,
			&page.Fields.StatusCode,
			&page.Fields.ContentType,
			&page.Fields.Depth,
			&page.Fields.BaseURL,
			&clientJSON,
			&page.Fields.HTML,
			&headersJSON,
		); err != nil {
			return nil, fmt.Errorf("failed to scan page: %w", err)
		}

		if clientJSON.Valid && clientJSON.String != "" {
			if err := json.Unmarshal([]byte(clientJSON.String), &page.Fields.Client); err != nil {
				return nil, fmt.Errorf("failed to parse client identity: %w", err)
			}
		}
		if headersJSON.Valid && headersJSON.String != "" {
			if err := json.Unmarshal([]byte(headersJSON.String), &page.Fields.Headers); err != nil {
				return nil, fmt.Errorf("failed to parse headers: %w", err)
			}
		}
		pages = append(pages, page)
	}

	return pages, rows.Err()
}

// InsertRedirects stores redirect edges of a session in one transaction.
func (cdb *CrawlDB) InsertRedirects(ctx context.Context, sessionID string, edges []model.RedirectEdge) error {
	return cdb.inTx(ctx, func(tx *sql.Tx) error {
		return insertRedirects(ctx, tx, sessionID, edges)
	})
}

func insertRedirects(ctx context.Context, tx *sql.Tx, sessionID string, edges []model.RedirectEdge) error {
	query := `
	INSERT INTO redirects (session_id, source_url, target_url, status_code, position)
	VALUES (?, ?, ?, ?, ?)
	`

	stmt, err := tx.PrepareContext(ctx, query)
	if err != nil {
		return fmt.Errorf("failed to prepare redirect insert: %w", err)
	}
	defer stmt.Close()

	for _, e := range edges {
		if _, err := stmt.ExecContext(ctx, sessionID, e.Source, e.Target, e.StatusCode, e.Position); err != nil {
			return fmt.Errorf("failed to insert redirect %s -> %s: %w", e.Source, e.Target, err)
		}
	}
	return nil
}

// Redirects returns the redirect edges of a session ordered by source and
// position. It makes CrawlDB usable as a redirect feed.
func (cdb *CrawlDB) Redirects(ctx context.Context, sessionID string) ([]model.RedirectEdge, error) {
	query := `
	SELECT source_url, target_url, status_code, position
	FROM redirects
	WHERE session_id = ?
	ORDER BY source_url, position, id
	`

	rows, err := cdb.db.QueryContext(ctx, query, sessionID)
	if err != nil {
		return nil, fmt.Errorf("failed to query redirects: %w", err)
	}
	defer rows.Close()

	var edges []model.RedirectEdge
	for rows.Next() {
		var e model.RedirectEdge
		if err := rows.Scan(&e.Source, &e.Target, &e.StatusCode, &e.Position); err != nil {
			return nil, fmt.Errorf("failed to scan redirect: %w", err)
		}
		edges = append(edges, e)
	}

	return edges, rows.Err()
}

// SaveFindings stores the findings of a session, replacing the findings
// of any earlier analysis of the same session.
func (cdb *CrawlDB) SaveFindings(ctx context.Context, sessionID string, findings []model.Finding) error {
	query := `
	INSERT INTO findings (session_id, url, type, severity, finding_json)
	VALUES (?, ?, ?, ?, ?)
	`

	return cdb.inTx(ctx, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, "DELETE FROM findings WHERE session_id = ?", sessionID); err != nil {
			return fmt.Errorf("failed to clear findings: %w", err)
		}

		stmt, err := tx.PrepareContext(ctx, query)
		if err != nil {
			return fmt.Errorf("failed to prepare finding insert: %w", err)
		}
		defer stmt.Close()

		for _, f := range findings {
			findingJSON, err := json.Marshal(f)
			if err != nil {
				return fmt.Errorf("failed to serialize finding: %w", err)
			}
			if _, err := stmt.ExecContext(ctx, sessionID, f.URL, string(f.Type), int(f.Severity), string(findingJSON)); err != nil {
				return fmt.Errorf("failed to insert finding: %w", err)
			}
		}
		return nil
	})
}

// ListFindings returns the findings of a session, most severe first.
func (cdb *CrawlDB) ListFindings(ctx context.Context, sessionID string) ([]model.Finding, error) {
	query := `
	SELECT finding_json FROM findings
	WHERE session_id = ?
	ORDER BY severity DESC, url, id
	`

	rows, err := cdb.db.QueryContext(ctx, query, sessionID)
	if err != nil {
		return nil, fmt.Errorf("failed to query findings: %w", err)
	}
	defer rows.Close()

	var findings []model.Finding
	for rows.Next() {
		var findingJSON string
		if err := rows.Scan(&findingJSON); err != nil {
			return nil, fmt.Errorf("failed to scan finding: %w", err)
		}

		var f model.Finding
		if err := json.Unmarshal([]byte(findingJSON), &f); err != nil {
			return nil, fmt.Errorf("failed to parse finding: %w", err)
		}
		findings = append(findings, f)
	}

	return findings, rows.Err()
}

// SaveSessionReport stores the report of a session, replacing any earlier
// report for the same session.
func (cdb *CrawlDB) SaveSessionReport(ctx context.Context, report *model.SessionReport) error {
	reportJSON, err := json.Marshal(report)
	if err != nil {
		return fmt.Errorf("failed to serialize report: %w", err)
	}

	riskSummary := map[string]int{
		"critical": report.CriticalCount,
		"high":     report.HighCount,
		"medium":   report.MediumCount,
		"low":      report.LowCount,
		"info":     report.InfoCount,
	}
	riskJSON, _ := json.Marshal(riskSummary) //nolint:errcheck,errchkjson // riskSummary is a simple map; Marshal won't fail

	query := `
	INSERT INTO sessions (session_id, source, started_at, finished_at, report_json, risk_summary)
	VALUES (?, ?, ?, ?, ?, ?)
	ON CONFLICT(session_id) DO UPDATE SET
		source = excluded.source,
		started_at = excluded.started_at,
		finished_at = excluded.finished_at,
		report_json = excluded.report_json,
		risk_summary = excluded.risk_summary,
		timestamp = CURRENT_TIMESTAMP
	`

	_, err = cdb.db.ExecContext(ctx, query,
		report.SessionID,
		report.Source,
		report.StartedAt.UTC().Format(time.RFC3339Nano),
		report.FinishedAt.UTC().Format(time.RFC3339Nano),
		string(reportJSON),
		string(riskJSON),
	)
	if err != nil {
		return fmt.Errorf("failed to save session report: %w", err)
	}

	return nil
}

// GetSessionReport retrieves the stored report of a session.
// It returns nil without error if the session has no report.
func (cdb *CrawlDB) GetSessionReport(ctx context.Context, sessionID string) (*model.SessionReport, error) {
	query := `SELECT report_json FROM sessions WHERE session_id = ?`

	var reportJSON string
	err := cdb.db.QueryRowContext(ctx, query, sessionID).Scan(&reportJSON)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get session report: %w", err)
	}

	var report model.SessionReport
	if err := json.Unmarshal([]byte(reportJSON), &report); err != nil {
		return nil, fmt.Errorf("failed to parse report: %w", err)
	}

	return &report, nil
}

// SessionMetadata contains summary information about a stored session.
// This is used for listing sessions without loading the full report.
type SessionMetadata struct {
	// SessionID identifies the crawl session.
	SessionID string

	// Source is where the pages came from.
	Source string

	// StartedAt is when analysis started.
	StartedAt time.Time

	// RiskSummary contains counts of findings by severity level.
	RiskSummary map[string]int
}

// ListSessions returns metadata of every stored session, newest first.
func (cdb *CrawlDB) ListSessions(ctx context.Context) ([]SessionMetadata, error) {
	query := `
	SELECT session_id, source, started_at, risk_summary
	FROM sessions
	ORDER BY started_at DESC
	`

	rows, err := cdb.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list sessions: %w", err)
	}
	defer rows.Close()

	var results []SessionMetadata
	for rows.Next() {
		var meta SessionMetadata
		var source, startedAt, riskJSON sql.NullString

		if err := rows.Scan(&meta.SessionID, &source, &startedAt, &riskJSON); err != nil {
			return nil, fmt.Errorf("failed to scan session: %w", err)
		}

		meta.Source = source.String
		meta.StartedAt = parseTimestamp(startedAt.String)
		meta.RiskSummary = make(map[string]int)
		if riskJSON.Valid && riskJSON.String != "" {
			if err := json.Unmarshal([]byte(riskJSON.String), &meta.RiskSummary); err != nil {
				meta.RiskSummary = make(map[string]int)
			}
		}

		results = append(results, meta)
	}

	return results, rows.Err()
}

// DeleteSession removes every row of a session.
func (cdb *CrawlDB) DeleteSession(ctx context.Context, sessionID string) error {
	return cdb.inTx(ctx, func(tx *sql.Tx) error {
		for _, table := range []string{"pages", "redirects", "findings", "sessions"} {
			//nolint:gosec // table names come from the fixed list above
			if _, err := tx.ExecContext(ctx, "DELETE FROM "+table+" WHERE session_id = ?", sessionID); err != nil {
				return fmt.Errorf("failed to delete %s of session %s: %w", table, sessionID, err)
			}
		}
		return nil
	})
}

// inTx runs fn in a transaction, rolling back if it fails.
func (cdb *CrawlDB) inTx(ctx context.Context, fn func(tx *sql.Tx) error) error {
	tx, err := cdb.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	if err := fn(tx); err != nil {
		_ = tx.Rollback()
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// timestampFormats contains the timestamp formats that SQLite may return.
// The order matters: more specific formats should come first.
var timestampFormats = []string{
	"2006-01-02 15:04:05",     // SQLite default datetime format
	"2006-01-02T15:04:05Z",    // ISO 8601 with Z suffix
	"2006-01-02T15:04:05",     // ISO 8601 without timezone
	time.RFC3339,              // Full RFC3339 format
	time.RFC3339Nano,          // RFC3339 with nanoseconds
	"2006-01-02 15:04:05.999", // SQLite with milliseconds
}

// parseTimestamp attempts to parse a timestamp string using multiple formats.
// If parsing fails with all formats, returns zero time.
func parseTimestamp(s string) time.Time {
	for _, format := range timestampFormats {
		if t, err := time.Parse(format, s); err == nil {
			return t
		}
	}
	return time.Time{}
}
