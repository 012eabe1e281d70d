package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/nao1215/dupscan/internal/config"
	"github.com/nao1215/dupscan/internal/database"
	"github.com/nao1215/dupscan/internal/report"
	"github.com/spf13/cobra"
)

const noFindingsMessage = "No findings"

// errSessionNotFound is returned when a session has no stored report.
var errSessionNotFound = errors.New("session not found")

// NewSessionsCmd creates the sessions command.
// This command manages the sessions stored in the database.
func NewSessionsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "sessions [session-id]",
		Short: "List, show or delete analyzed sessions",
		Long: `Sessions manages the crawl sessions stored by 'dupscan analyze'.

Without arguments it lists every stored session with its finding counts.
With a session id it prints the stored report of that session again.

Examples:
  # List stored sessions
  dupscan sessions

  # Print the report of one session as Markdown
  dupscan sessions -m crawl-2025-06-01

  # Remove a stored session and its pages, redirects and findings
  dupscan sessions --delete crawl-2025-06-01`,
		Args: cobra.MaximumNArgs(1),
		RunE: runSessionsCmd,
	}

	cmd.Flags().String("delete", "",
		"Delete the stored data of a session")
	cmd.Flags().String("db-dir", "",
		"Directory of the SQLite database (default: XDG data directory)")
	cmd.Flags().BoolP("json", "j", false,
		"Print the session report in JSON format")
	cmd.Flags().BoolP("markdown", "m", false,
		"Print the session report in Markdown format")

	return cmd
}

func runSessionsCmd(cmd *cobra.Command, args []string) error {
	flags := cmd.Flags()

	deleteID, err := flags.GetString("delete")
	if err != nil {
		return err
	}
	cfg := config.NewConfig()
	if cfg.JSONReport, err = flags.GetBool("json"); err != nil {
		return err
	}
	if cfg.MarkdownReport, err = flags.GetBool("markdown"); err != nil {
		return err
	}
	if cfg.JSONReport && cfg.MarkdownReport {
		return config.ErrConflictingReportFormats
	}
	cfg.Verbose = getVerboseFlag(cmd)

	if cfg.DBDir, err = flags.GetString("db-dir"); err != nil {
		return err
	}
	if cfg.DBDir == "" {
		cfg.DBDir = config.XDGDataDir()
	}

	db, err := database.Open(cfg.DBDir, database.DefaultOptions())
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer db.Close()

	ctx := cmd.Context()
	out := cmd.OutOrStdout()

	switch {
	case deleteID != "":
		if err := db.DeleteSession(ctx, deleteID); err != nil {
			return err
		}
		fmt.Fprintf(out, "Deleted session %s\n", deleteID)
		return nil
	case len(args) == 1:
		return showSession(ctx, out, db, cfg, args[0])
	default:
		return listSessions(ctx, out, db)
	}
}

// showSession prints the stored report of sessionID.
func showSession(ctx context.Context, out io.Writer, db *database.CrawlDB, cfg *config.Config, sessionID string) error {
	r, err := db.GetSessionReport(ctx, sessionID)
	if err != nil {
		return err
	}
	if r == nil {
		return fmt.Errorf("%w: %s", errSessionNotFound, sessionID)
	}

	var w report.Writer
	switch {
	case cfg.JSONReport:
		w = report.NewJSONWriter(out, report.WithPrettyPrint())
	case cfg.MarkdownReport:
		w = report.NewMarkdownWriter(out)
	default:
		w = report.NewSimpleWriter(out, report.WithVerbose(cfg.Verbose))
	}
	_, err = w.Write(r)
	return err
}

// listSessions lists all sessions that have a stored report.
func listSessions(ctx context.Context, out io.Writer, db *database.CrawlDB) error {
	sessions, err := db.ListSessions(ctx)
	if err != nil {
		return fmt.Errorf("failed to list sessions: %w", err)
	}

	if len(sessions) == 0 {
		fmt.Fprintln(out, "No analyzed sessions found in the database.")
		fmt.Fprintln(out, "\nUse 'dupscan analyze <export.json>' to analyze a crawl.")
		return nil
	}

	fmt.Fprintf(out, "Analyzed sessions (%d):\n\n", len(sessions))
	fmt.Fprintf(out, "  %-28s  %-20s  %s\n", "Session", "Date", "Findings")
	fmt.Fprintln(out, "  "+strings.Repeat("-", 66))
	for _, meta := range sessions {
		fmt.Fprintf(out, "  %-28s  %-20s  %s\n",
			meta.SessionID,
			meta.StartedAt.Format("2006-01-02 15:04:05"),
			formatRiskSummary(meta.RiskSummary),
		)
	}
	fmt.Fprintln(out, "\nUse 'dupscan sessions <session-id>' to print a stored report.")

	return nil
}

// formatRiskSummary formats the risk summary map into a short string.
func formatRiskSummary(summary map[string]int) string {
	if summary == nil {
		return "N/A"
	}

	var parts []string
	for _, level := range []struct {
		key    string
		prefix string
	}{
		{"critical", "C"},
		{"high", "H"},
		{"medium", "M"},
		{"low", "L"},
		{"info", "I"},
	} {
		if v := summary[level.key]; v > 0 {
			parts = append(parts, fmt.Sprintf("%s:%d", level.prefix, v))
		}
	}

	if len(parts) == 0 {
		return noFindingsMessage
	}
	return strings.Join(parts, " ")
}
