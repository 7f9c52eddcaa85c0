// Package config provides configuration structures and utilities for
// scopecrawl. It defines the crawl scope, the crawl driver settings, the
// summary output and per-host request settings, and loads them from the
// .scopecrawl YAML file.
//
// Precedence is defaults, then the configuration file, then CLI flags.
package config
