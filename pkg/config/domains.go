package config

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/gobwas/glob"
)

// DomainMatcher decides whether a URL's host is allowed for navigation.
type DomainMatcher struct {
	patterns []glob.Glob
}

// NewDomainMatcher compiles host glob patterns. '.' is the separator, so
// "*.example.com" matches "docs.example.com" but not "a.b.example.com".
func NewDomainMatcher(patterns []string) (*DomainMatcher, error) {
	m := &DomainMatcher{}
	for _, p := range patterns {
		g, err := glob.Compile(strings.ToLower(p), '.')
		if err != nil {
			return nil, fmt.Errorf("invalid allowed domain pattern '%s': %w", p, err)
		}
		m.patterns = append(m.patterns, g)
	}
	return m, nil
}

// Allows reports whether rawURL may be opened. With no patterns every URL
// is allowed; non-network schemes such as about: and data: always are.
func (m *DomainMatcher) Allows(rawURL string) (bool, error) {
	if m == nil || len(m.patterns) == 0 {
		return true, nil
	}

	u, err := url.Parse(rawURL)
	if err != nil {
		return false, fmt.Errorf("invalid URL %q: %w", rawURL, err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return u.Scheme == "about" || u.Scheme == "data", nil
	}

	host := strings.ToLower(u.Hostname())
	for _, g := range m.patterns {
		if g.Match(host) {
			return true, nil
		}
	}
	return false, nil
}

// DomainMatcher returns the compiled allow-list. Validate has already
// rejected bad patterns, so the error is only possible on an unvalidated
// Config.
func (c *Config) DomainMatcher() (*DomainMatcher, error) {
	return NewDomainMatcher(c.AllowedDomains)
}
