package ops

import (
	"github.com/charmbracelet/log"
	"github.com/thesavant42/wpfleet/internal/api"
	"github.com/thesavant42/wpfleet/internal/auth"
)

// Manager turns site names into ready-to-use clients and operation layers
// by resolving credentials through the configured provider.
type Manager struct {
	provider auth.Provider
	logger   *log.Logger
}

// NewManager creates a manager backed by the given credential provider
func NewManager(provider auth.Provider, logger *log.Logger) *Manager {
	return &Manager{provider: provider, logger: logger}
}

// Client builds an API client for the named site
func (m *Manager) Client(site string, opts ...api.Option) (*api.Client, error) {
	cred, err := m.provider.Resolve(site)
	if err != nil {
		return nil, err
	}

	base := []api.Option{}
	if m.logger != nil {
		base = append(base, api.WithLogger(m.logger))
	}
	return api.New(cred.URL, cred.APIKey, append(base, opts...)...), nil
}

// Content builds the content operations layer for the named site
func (m *Manager) Content(site string, opts ...api.Option) (*ContentOps, error) {
	client, err := m.Client(site, opts...)
	if err != nil {
		return nil, err
	}
	c := NewContentOps(client, m.logger)
	c.SiteName = site
	return c, nil
}

// Media builds the media operations layer for the named site
func (m *Manager) Media(site string, opts ...api.Option) (*MediaOps, error) {
	client, err := m.Client(site, opts...)
	if err != nil {
		return nil, err
	}
	return NewMediaOps(client, m.logger), nil
}
