// Package log provides secure logging functionality with automatic sanitization
// of sensitive information, built on top of the standard slog package.
//
// Crawl data carries the crawler's client identity: cookies, authorization
// headers and signed URLs. The SecureHandler masks these before they reach
// log output:
//   - HTTP headers (Authorization, Cookie, Set-Cookie, X-Api-Key)
//   - Attribute keys that name credentials (password, token, secret)
//   - Values that look like bearer tokens, JWTs or private keys
//   - Credential query parameters and user info inside URL values
//
// Content fingerprints are hex digests and would look like API keys to the
// value patterns, so attributes named fingerprint, simhash or digest are
// passed through unchanged.
//
// # Usage
//
//	logger := log.NewSecureLogger(os.Stderr, verbose)
//	logger.Warn("variant probe skipped",
//	    "canonical", "https://example.com/?token=abc", // token=*** in output
//	    "cookie", "session=abc123",                    // masked
//	)
//	slog.SetDefault(logger)
package log
