// Package engine wires the fingerprinting and classification packages into
// the two operations a crawler calls: ProcessPage for every fetched page
// and Cleanup when a session ends.
//
// The engine starts no goroutines of its own. Callers run ProcessPage
// concurrently; detection is eventually consistent, so a duplicate pair is
// reported by whichever of the two pages is processed second.
package engine
