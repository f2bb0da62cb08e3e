// Package auth resolves site names to API credentials. The client and
// operations layers depend on the Provider interface only, so the backing
// store (environment, sqlite registry, a real secrets manager) can be
// swapped without touching them.
package auth

import (
	"fmt"
	"os"
	"strings"
)

// Credential is everything needed to construct a client for one site
type Credential struct {
	URL    string
	APIKey string
}

// Provider resolves a site name to its credential. Resolve must fail
// explicitly when the site is unknown or the key is missing; it never
// returns partial data.
type Provider interface {
	Resolve(name string) (Credential, error)
}

// UnknownSiteError reports a lookup for a site the provider doesn't know
type UnknownSiteError struct {
	Name string
}

func (e *UnknownSiteError) Error() string {
	return fmt.Sprintf("unknown site: %s", e.Name)
}

// IsUnknownSite reports whether err is an unknown-site lookup failure
func IsUnknownSite(err error) bool {
	_, ok := err.(*UnknownSiteError)
	return ok
}

// EnvProvider resolves credentials from environment variables, typically
// populated by a .env file via godotenv:
//
//	WPFLEET_SITE_<NAME>_URL=https://example.com
//	WPFLEET_SITE_<NAME>_API_KEY=...
//
// where <NAME> is the site name uppercased with dashes and spaces folded
// to underscores.
type EnvProvider struct{}

func envName(site string) string {
	s := strings.ToUpper(strings.TrimSpace(site))
	s = strings.NewReplacer("-", "_", " ", "_", ".", "_").Replace(s)
	return s
}

// Resolve looks up the site's URL and API key in the environment
func (EnvProvider) Resolve(name string) (Credential, error) {
	key := envName(name)
	url := os.Getenv("WPFLEET_SITE_" + key + "_URL")
	apiKey := os.Getenv("WPFLEET_SITE_" + key + "_API_KEY")

	if url == "" {
		return Credential{}, &UnknownSiteError{Name: name}
	}
	if apiKey == "" {
		return Credential{}, fmt.Errorf("site %s: WPFLEET_SITE_%s_API_KEY not set", name, key)
	}

	return Credential{URL: url, APIKey: apiKey}, nil
}
