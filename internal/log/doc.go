// Package log provides secure logging on top of the standard slog package.
//
// The SecureHandler masks before anything reaches the output:
//   - Attributes named after credentials (Cookie, Authorization, X-Api-Key,
//     anything containing "password", "token", "secret", ...)
//   - Values that look like bearer tokens, basic auth, JWTs or private keys
//   - Session and token query parameters, and user info passwords, inside
//     URL-valued attributes
//
// Per-host cookies and headers from the configuration are sent with every
// request, and university pages frequently carry session identifiers in
// links, so crawl logs are sanitized even in verbose mode.
//
// # Usage
//
//	logger := log.NewSecureLogger(os.Stderr, verbose)
//	logger.Debug("fetching", "url", "https://www.ics.uci.edu/cal?sid=abc")
//	// url=https://www.ics.uci.edu/cal?sid=REDACTED
//	slog.SetDefault(logger)
package log
