package crawler

import (
	"errors"
	"net/url"
	"testing"
)

func mustURL(t *testing.T, raw string) *url.URL {
	t.Helper()
	u, err := url.Parse(raw)
	if err != nil {
		t.Fatalf("failed to parse %q: %v", raw, err)
	}
	return u
}

// TestNormalizeHref tests href normalization rules.
func TestNormalizeHref(t *testing.T) {
	t.Parallel()

	const root = "https://www.ics.uci.edu"

	tests := []struct {
		name      string
		requested string
		final     string
		href      string
		mode      RootRelativeMode
		want      string
		ok        bool
	}{
		{
			name:      "protocol-relative gets https",
			requested: root, final: root,
			href: "//www.cs.uci.edu/a/b?x=1",
			want: "https://www.cs.uci.edu/a/b?x=1", ok: true,
		},
		{
			name:      "protocol-relative ignores the page scheme",
			requested: "http://www.ics.uci.edu", final: "http://www.ics.uci.edu",
			href: "//www.stat.uci.edu/",
			want: "https://www.stat.uci.edu/", ok: true,
		},
		{
			name:      "single slash yields nothing",
			requested: root, final: root,
			href: "/",
		},
		{
			name:      "relative path yields nothing",
			requested: root, final: root,
			href: "about.html",
		},
		{
			name:      "fragment yields nothing",
			requested: root, final: root,
			href: "#top",
		},
		{
			name:      "mailto yields nothing",
			requested: root, final: root,
			href: "mailto:someone@ics.uci.edu",
		},
		{
			name:      "leading space yields nothing",
			requested: root, final: root,
			href: " /about",
		},
		{
			name:      "absolute URL is kept",
			requested: root, final: root,
			href: "http://www.informatics.uci.edu/research/",
			want: "http://www.informatics.uci.edu/research/", ok: true,
		},
		{
			name:      "fragment of absolute URL is kept",
			requested: root, final: root,
			href: "https://www.ics.uci.edu/p#sec",
			want: "https://www.ics.uci.edu/p#sec", ok: true,
		},
		{
			name:      "root-relative joins a bare host",
			requested: root, final: root,
			href: "/about",
			want: "https://www.ics.uci.edu/about", ok: true,
		},
		{
			name:      "root-relative concatenates onto the requested path",
			requested: root + "/dir/page", final: root + "/dir/page",
			href: "/about",
			want: "https://www.ics.uci.edu/dir/page/about", ok: true,
		},
		{
			name:      "root-relative concatenation uses the requested URL",
			requested: "https://old.ics.uci.edu", final: "https://new.ics.uci.edu/landing",
			href: "/about",
			want: "https://old.ics.uci.edu/about", ok: true,
		},
		{
			name:      "resolve mode lands at the final host root",
			requested: "https://old.ics.uci.edu/x", final: "https://new.ics.uci.edu/landing/page",
			href: "/about",
			mode: RootRelativeResolve,
			want: "https://new.ics.uci.edu/about", ok: true,
		},
		{
			name:      "unparsable candidate yields nothing",
			requested: root, final: root,
			href: "http://[::1",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			got, ok := NormalizeHref(tt.requested, mustURL(t, tt.final), tt.href, tt.mode)
			if ok != tt.ok {
				t.Fatalf("expected ok=%v, got %v (%q)", tt.ok, ok, got)
			}
			if got != tt.want {
				t.Errorf("expected %q, got %q", tt.want, got)
			}
		})
	}
}

// TestNormalizeHrefWithoutFinalURL tests that the requested URL is the fallback base.
func TestNormalizeHrefWithoutFinalURL(t *testing.T) {
	t.Parallel()

	got, ok := NormalizeHref("https://www.ics.uci.edu/a/b", nil, "/c", RootRelativeResolve)
	if !ok || got != "https://www.ics.uci.edu/c" {
		t.Errorf("unexpected result %q, %v", got, ok)
	}
}

// TestProtocolRelativeRemainderUntouched tests that only the scheme is added.
func TestProtocolRelativeRemainderUntouched(t *testing.T) {
	t.Parallel()

	final := mustURL(t, "http://www.ics.uci.edu/somewhere/else")
	for _, rest := range []string{
		"//www.ics.uci.edu",
		"//www.ics.uci.edu/",
		"//www.ics.uci.edu/a/b/c.html",
		"//www.cs.uci.edu:8080/x?y=z",
		"//ics.uci.edu/~user/",
	} {
		got, ok := NormalizeHref("http://www.ics.uci.edu", final, rest, RootRelativeConcat)
		if !ok {
			t.Errorf("%q: expected a link", rest)
			continue
		}
		if got != "https:"+rest {
			t.Errorf("%q: expected %q, got %q", rest, "https:"+rest, got)
		}
	}
}

// TestParseRootRelativeMode tests mode names.
func TestParseRootRelativeMode(t *testing.T) {
	t.Parallel()

	tests := map[string]RootRelativeMode{
		"":          RootRelativeConcat,
		"concat":    RootRelativeConcat,
		" Resolve ": RootRelativeResolve,
	}
	for name, want := range tests {
		got, err := ParseRootRelativeMode(name)
		if err != nil {
			t.Errorf("ParseRootRelativeMode(%q): unexpected error %v", name, err)
		}
		if got != want {
			t.Errorf("ParseRootRelativeMode(%q) = %s, want %s", name, got, want)
		}
	}

	if _, err := ParseRootRelativeMode("fix"); !errors.Is(err, ErrUnknownRootRelativeMode) {
		t.Errorf("expected ErrUnknownRootRelativeMode, got %v", err)
	}
	if got := RootRelativeMode(7).String(); got != "unknown" {
		t.Errorf("expected unknown, got %q", got)
	}
}
