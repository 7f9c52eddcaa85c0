// Package scope decides whether a candidate URL belongs to the crawl.
//
// A Filter runs six checks and stops at the first one that fails:
//
//  1. scheme: only http and https
//  2. robots: the origin's robots.txt must allow the URL for the configured agent
//  3. domain: the host must contain one of the allowed domain strings
//  4. trap: no path segment may repeat three or more times
//  5. depth: the path may have at most ten segments
//  6. extension: the path must not end with a denied file extension
//
// The domain check is a substring match on the host, so a host such as
// "ics.uci.edu.evil.com" is in scope. Callers that need a strict suffix
// match should configure their own domains accordingly.
//
// Robots failures are treated as a deny and never returned as errors.
// A URL that cannot be parsed is the only error Evaluate returns.
//
// The trap and depth checks are also exported on their own, because the
// link extractor drops trapped links before they ever reach the full filter.
package scope
