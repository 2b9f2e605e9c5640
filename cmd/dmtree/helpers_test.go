package main

import (
	"testing"

	"github.com/kardianos/dmtree"
	"github.com/kardianos/dmtree/dmdef"
	"github.com/kardianos/dmtree/dmmock"
	"github.com/stretchr/testify/require"
)

// newTestProvider returns a provider backed by a fake API holding one
// connection labeled "prod".
func newTestProvider(t *testing.T) (*dmtree.Provider, *dmmock.API) {
	t.Helper()
	api := dmmock.NewAPI("ABC123")
	t.Cleanup(api.Close)

	p, err := dmtree.New(dmtree.Config{
		State:   dmmock.NewState(),
		Secrets: dmmock.NewSecrets(),
		BaseURL: api.URL(),
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = p.Close() })

	_, err = p.SetConnection("prod", "ABC123")
	require.NoError(t, err)

	api.SetDevices(
		dmdef.Device{ID: "dev-1", Name: "thermo", State: "registered"},
		dmdef.Device{ID: "dev-2"},
	)
	api.SetResources("dev-1",
		dmdef.Resource{URI: "/3/0/0"},
		dmdef.Resource{URI: "/3303/0/5700", ResourceType: "temperature"},
	)
	api.SetResources("dev-2")
	return p, api
}
