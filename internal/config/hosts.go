package config

import (
	"net/http"
	"strings"
)

// HostConfig holds request settings for a single host.
// University sites occasionally put part of a department behind a login or
// a consent cookie; these settings let a crawl carry the same session.
type HostConfig struct {
	// Cookie is an HTTP cookie to send to this host.
	// Format: "name=value" or "name1=value1; name2=value2"
	Cookie string `yaml:"cookie,omitempty"`

	// Headers are custom HTTP headers to include in requests to this host.
	Headers map[string]string `yaml:"headers,omitempty"`
}

// GetHostConfig returns the configuration for a host.
// It merges the host-specific configuration with defaults. Host names are
// matched case-insensitively and without a port.
func (cf *File) GetHostConfig(host string) HostConfig {
	result := HostConfig{Cookie: cf.Defaults.Cookie}
	if len(cf.Defaults.Headers) > 0 {
		result.Headers = make(map[string]string, len(cf.Defaults.Headers))
		for k, v := range cf.Defaults.Headers {
			result.Headers[k] = v
		}
	}

	hc, ok := cf.lookupHost(host)
	if !ok {
		return result
	}
	if hc.Cookie != "" {
		result.Cookie = hc.Cookie
	}
	if len(hc.Headers) > 0 {
		if result.Headers == nil {
			result.Headers = make(map[string]string, len(hc.Headers))
		}
		for k, v := range hc.Headers {
			result.Headers[k] = v
		}
	}
	return result
}

func (cf *File) lookupHost(host string) (HostConfig, bool) {
	host = strings.ToLower(host)
	if h, _, found := strings.Cut(host, ":"); found && !strings.Contains(h, "[") {
		host = h
	}
	for name, hc := range cf.Hosts {
		if strings.ToLower(name) == host {
			return hc, true
		}
	}
	return HostConfig{}, false
}

// Header converts the host configuration to request headers.
// It returns nil when there is nothing to send.
func (hc HostConfig) Header() http.Header {
	if hc.Cookie == "" && len(hc.Headers) == 0 {
		return nil
	}
	h := make(http.Header, len(hc.Headers)+1)
	for k, v := range hc.Headers {
		h.Set(k, v)
	}
	if hc.Cookie != "" {
		h.Set("Cookie", hc.Cookie)
	}
	return h
}

// HeaderFor returns the request headers for a host. Its signature matches
// the header provider of the HTTP fetcher.
func (cf *File) HeaderFor(host string) http.Header {
	return cf.GetHostConfig(host).Header()
}
