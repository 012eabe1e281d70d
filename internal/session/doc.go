// Package session owns all per-session state of the duplicate engine.
//
// A Scope bundles the fingerprint indexes, the redirect graph cache and
// the variant-probe claim of one crawl session. The Registry hands out
// scopes by session id, creating them on first use and releasing them on
// Cleanup or when the session limit evicts the least recently used one.
//
// Design decision: Session state is an explicit object passed to the
// classifiers instead of package-level maps keyed by session id, so tests
// get isolated state and teardown is a single call.
package session
