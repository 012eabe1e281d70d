// Package model defines the core data structures used throughout DupScan.
//
// This package contains the following main types:
//   - PageFields: What the crawler knows about one fetched page
//   - RedirectEdge: One redirect hop observed during the crawl
//   - Finding: A classified outcome with a typed detail payload
//   - SessionReport: All findings for one crawl session
//
// Design decision: We separate models into their own package to avoid circular
// dependencies. The engine, the database and the report writers all need
// these types, so centralizing them prevents import cycles.
//
// The models are designed to be serializable to JSON for report output and
// database storage.
package model
