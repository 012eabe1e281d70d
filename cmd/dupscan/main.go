// Package main provides the entry point for the DupScan CLI.
//
// DupScan finds duplicate content in crawled sites: pages that serve the
// same or nearly the same text under different URLs, host and scheme
// variants that are not consolidated with a permanent redirect, and pages
// dominated by template boilerplate.
//
// Usage:
//
//	dupscan analyze <export.json>...
//	dupscan sessions [session-id]
//
// See --help for all available options.
package main

func main() {
	Execute()
}
