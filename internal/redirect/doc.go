// Package redirect resolves redirect relationships between pages of one
// crawl session.
//
// A Graph is an immutable index of redirect chains built from the edges a
// Feed reports. A Cache loads the Graph for one session at most once:
// concurrent callers share a single in-flight load, and once the graph is
// published every lookup is a lock-free read.
//
// Design decision: A feed that fails is treated as "no relationships
// known" rather than an error, because duplicate detection must keep
// working when redirect data is missing. The empty graph is sticky for
// the session. A load cut short by cancellation is not published, so a
// later caller loads again.
package redirect
