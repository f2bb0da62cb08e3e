package ops

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/thesavant42/wpfleet/internal/auth"
	"github.com/thesavant42/wpfleet/internal/models"
)

type staticProvider map[string]auth.Credential

func (p staticProvider) Resolve(name string) (auth.Credential, error) {
	cred, ok := p[name]
	if !ok {
		return auth.Credential{}, &auth.UnknownSiteError{Name: name}
	}
	return cred, nil
}

func TestManagerClientFromProvider(t *testing.T) {
	site := &fakeSite{
		items: []models.ContentItem{{ID: 1, Type: "page", Title: "Home", Content: "x"}},
	}
	ts := site.serve(t)

	mgr := NewManager(staticProvider{
		"renowarriors": {URL: ts.URL, APIKey: "k"},
	}, nil)

	client, err := mgr.Client("renowarriors")
	require.NoError(t, err)

	items, err := client.GetContent(context.Background(), "page", "", 0)
	require.NoError(t, err)
	assert.Len(t, items, 1)
}

func TestManagerUnknownSite(t *testing.T) {
	mgr := NewManager(staticProvider{}, nil)

	_, err := mgr.Client("missing")
	require.Error(t, err)
	assert.True(t, auth.IsUnknownSite(err))

	_, err = mgr.Content("missing")
	assert.Error(t, err)

	_, err = mgr.Media("missing")
	assert.Error(t, err)
}

func TestManagerContentOpsLabeledWithSiteName(t *testing.T) {
	site := &fakeSite{}
	ts := site.serve(t)

	mgr := NewManager(staticProvider{"derekzar": {URL: ts.URL, APIKey: "k"}}, nil)

	ops, err := mgr.Content("derekzar")
	require.NoError(t, err)
	assert.Equal(t, "derekzar", ops.SiteName)
}
