// Package database provides SQLite-based storage for DupScan.
//
// This package implements the CrawlDB, which stores:
//   - Crawled pages of a session with their markup and client identity
//   - Redirect edges observed by the crawler, served back as a redirect feed
//   - Findings and session reports for later inspection
//
// It also reads JSON crawl exports, the format a crawler hands to
// "dupscan analyze".
//
// Design decision: We use SQLite (via modernc.org/sqlite) because:
// 1. No external dependencies - the database is a single file
// 2. CGO-free implementation allows easy cross-compilation
// 3. WAL mode provides good concurrent read performance
package database
