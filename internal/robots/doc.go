// Package robots answers whether a URL may be crawled according to the
// robots.txt of its origin.
//
// # Decisions
//
// Every lookup yields one of three decisions:
//   - Allow: the robots rules permit the URL
//   - Deny: the robots rules forbid the URL (or forbid the whole origin)
//   - Unavailable: the robots file could not be retrieved or parsed
//
// Callers treat Unavailable exactly like Deny. The distinction exists only
// so the failure can be logged; it is never surfaced as an error.
//
// # Caching
//
// Cache fetches each origin's robots.txt once per crawl session, including
// failed fetches, which are not retried. Concurrent lookups of the same
// origin share a single request.
package robots
