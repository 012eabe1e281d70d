package database

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/nao1215/dupscan/internal/model"
)

var (
	// ErrMissingSessionID is returned when an export has no session id and
	// none is supplied by the caller.
	ErrMissingSessionID = errors.New("crawl export has no session_id")

	// ErrInvalidPage is returned for an exported page without a URL.
	ErrInvalidPage = errors.New("crawl export contains a page without url")

	// ErrDuplicateSessionID is returned when two exports analyzed together
	// record the same session id.
	ErrDuplicateSessionID = errors.New("crawl exports share a session_id")
)

// Export is a crawl handed over by a crawler:
//
//	{"session_id": "...", "pages": [{"url": "...", "fields": {...}}], "redirects": [...]}
type Export struct {
	SessionID string               `json:"session_id"`
	Pages     []model.Page         `json:"pages"`
	Redirects []model.RedirectEdge `json:"redirects,omitempty"`
}

// LoadExport reads a crawl export file.
func LoadExport(path string) (*Export, error) {
	f, err := os.Open(path) //nolint:gosec // User-provided export path is intentional
	if err != nil {
		return nil, fmt.Errorf("failed to open crawl export: %w", err)
	}
	defer f.Close()

	exp, err := ParseExport(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return exp, nil
}

// ParseExport decodes a crawl export and checks that every page has a URL.
func ParseExport(r io.Reader) (*Export, error) {
	var exp Export
	if err := json.NewDecoder(r).Decode(&exp); err != nil {
		return nil, fmt.Errorf("failed to decode crawl export: %w", err)
	}

	for i, p := range exp.Pages {
		if strings.TrimSpace(p.URL) == "" {
			return nil, fmt.Errorf("%w (index %d)", ErrInvalidPage, i)
		}
	}
	return &exp, nil
}

// ImportExport stores the pages and redirects of exp. sessionID overrides
// the export's own session id when non-empty. It returns the session id
// the data was stored under. Pages are upserted and the session's redirect
// edges are replaced in one transaction, so importing the same export
// twice is harmless and a failed import leaves the session untouched.
func (cdb *CrawlDB) ImportExport(ctx context.Context, exp *Export, sessionID string) (string, error) {
	if sessionID == "" {
		sessionID = exp.SessionID
	}
	if sessionID == "" {
		return "", ErrMissingSessionID
	}

	err := cdb.inTx(ctx, func(tx *sql.Tx) error {
		if err := insertPages(ctx, tx, sessionID, exp.Pages); err != nil {
			return err
		}
		if _, err := tx.ExecContext(ctx, "DELETE FROM redirects WHERE session_id = ?", sessionID); err != nil {
			return fmt.Errorf("failed to clear redirects of session %s: %w", sessionID, err)
		}
		return insertRedirects(ctx, tx, sessionID, exp.Redirects)
	})
	if err != nil {
		return "", err
	}
	return sessionID, nil
}

// CheckDistinctSessions reports ErrDuplicateSessionID when two of the
// export files record the same session id. Exports that cannot be read or
// carry no session id are left for the import to report.
func CheckDistinctSessions(paths []string) error {
	seen := make(map[string]string, len(paths))
	for _, path := range paths {
		id, err := readSessionID(path)
		if err != nil || id == "" {
			continue
		}
		if first, dup := seen[id]; dup {
			return fmt.Errorf("%w: %q is recorded by %s and %s", ErrDuplicateSessionID, id, first, path)
		}
		seen[id] = path
	}
	return nil
}

// readSessionID decodes only the session id of an export.
func readSessionID(path string) (string, error) {
	f, err := os.Open(path) //nolint:gosec // User-provided export path is intentional
	if err != nil {
		return "", err
	}
	defer f.Close()

	var head struct {
		SessionID string `json:"session_id"`
	}
	if err := json.NewDecoder(f).Decode(&head); err != nil {
		return "", err
	}
	return head.SessionID, nil
}
