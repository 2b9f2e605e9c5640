package dmapi_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/kardianos/dmtree/dmapi"
	"github.com/kardianos/dmtree/dmdef"
	"github.com/kardianos/dmtree/dmmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newClient(t *testing.T, api *dmmock.API, key string) *dmapi.Client {
	t.Helper()
	c, err := dmapi.New(dmapi.Config{BaseURL: api.URL(), AccessKey: key})
	require.NoError(t, err)
	t.Cleanup(func() { _ = c.Close() })
	return c
}

func TestListDevicesKeepsServerOrder(t *testing.T) {
	api := dmmock.NewAPI("ABC123")
	defer api.Close()
	api.SetDevices(
		dmdef.Device{ID: "dev-3", Name: "gateway", State: "registered"},
		dmdef.Device{ID: "dev-1"},
		dmdef.Device{ID: "dev-2"},
	)

	devices, err := newClient(t, api, "ABC123").ListDevices(context.Background())
	require.NoError(t, err)

	ids := make([]string, 0, len(devices))
	for _, d := range devices {
		ids = append(ids, d.ID)
	}
	assert.Equal(t, []string{"dev-3", "dev-1", "dev-2"}, ids)
	assert.Equal(t, "gateway", devices[0].Name)
	assert.Equal(t, []string{"/v3/devices?order=DESC"}, api.Requests())
}

func TestListDevicesEmpty(t *testing.T) {
	api := dmmock.NewAPI("ABC123")
	defer api.Close()

	devices, err := newClient(t, api, "ABC123").ListDevices(context.Background())
	require.NoError(t, err)
	assert.NotNil(t, devices)
	assert.Empty(t, devices)
}

func TestListResources(t *testing.T) {
	api := dmmock.NewAPI("ABC123")
	defer api.Close()
	api.SetResources("dev-1",
		dmdef.Resource{URI: "/3/0/0", ResourceType: "manufacturer"},
		dmdef.Resource{URI: "/1/0/1", Observable: true},
	)

	res, err := newClient(t, api, "ABC123").ListResources(context.Background(), "dev-1")
	require.NoError(t, err)
	require.Len(t, res, 2)
	assert.Equal(t, "/3/0/0", res[0].URI)
	assert.Equal(t, "manufacturer", res[0].ResourceType)
	assert.True(t, res[1].Observable)
	assert.Equal(t, []string{"/v2/endpoints/dev-1"}, api.Requests())
}

func TestListResourcesRejectsEmptyID(t *testing.T) {
	c, err := dmapi.New(dmapi.Config{AccessKey: "k"})
	require.NoError(t, err)
	_, err = c.ListResources(context.Background(), "")
	assert.Error(t, err)
}

func TestAuthError(t *testing.T) {
	api := dmmock.NewAPI("ABC123")
	defer api.Close()

	_, err := newClient(t, api, "WRONG").ListDevices(context.Background())
	var ae *dmdef.AuthError
	require.ErrorAs(t, err, &ae)
	assert.Equal(t, http.StatusUnauthorized, ae.StatusCode)
	assert.Equal(t, "Invalid API key", ae.Message)
}

func TestMissingAccessKeyFailsWithoutRequest(t *testing.T) {
	api := dmmock.NewAPI("ABC123")
	defer api.Close()

	_, err := newClient(t, api, "").ListDevices(context.Background())
	var ae *dmdef.AuthError
	require.ErrorAs(t, err, &ae)
	assert.Zero(t, ae.StatusCode)
	assert.Empty(t, api.Requests())
}

func TestStatusError(t *testing.T) {
	api := dmmock.NewAPI("ABC123")
	defer api.Close()

	_, err := newClient(t, api, "ABC123").ListResources(context.Background(), "unknown")
	var se *dmdef.StatusError
	require.ErrorAs(t, err, &se)
	assert.Equal(t, http.StatusNotFound, se.StatusCode)

	api.FailWith(http.StatusForbidden)
	_, err = newClient(t, api, "ABC123").ListDevices(context.Background())
	var ae *dmdef.AuthError
	assert.ErrorAs(t, err, &ae)
}

func TestNetworkError(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	base := srv.URL
	srv.Close()

	c, err := dmapi.New(dmapi.Config{BaseURL: base, AccessKey: "k"})
	require.NoError(t, err)

	_, err = c.ListDevices(context.Background())
	var ne *dmdef.NetworkError
	require.ErrorAs(t, err, &ne)
	assert.Equal(t, http.MethodGet, ne.Op)
	assert.Contains(t, ne.URL, "/v3/devices?order=DESC")
}

func TestContextCanceled(t *testing.T) {
	api := dmmock.NewAPI("ABC123")
	defer api.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := newClient(t, api, "ABC123").ListDevices(ctx)
	assert.True(t, errors.Is(err, context.Canceled))
}

func TestDecodeError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("not json"))
	}))
	defer srv.Close()

	c, err := dmapi.New(dmapi.Config{BaseURL: srv.URL, AccessKey: "k"})
	require.NoError(t, err)
	_, err = c.ListDevices(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "decode")
}

func TestNewValidatesBaseURL(t *testing.T) {
	_, err := dmapi.New(dmapi.Config{BaseURL: "ftp://example.com"})
	assert.Error(t, err)

	c, err := dmapi.New(dmapi.Config{})
	require.NoError(t, err)
	assert.Equal(t, dmdef.DefaultBaseURL, c.BaseURL())

	c, err = dmapi.New(dmapi.Config{BaseURL: "https://example.com/api"})
	require.NoError(t, err)
	assert.Equal(t, "https://example.com/api/", c.BaseURL())
}

func TestHTTP3ClientCloses(t *testing.T) {
	c, err := dmapi.New(dmapi.Config{AccessKey: "k", HTTP3: true})
	require.NoError(t, err)
	assert.NoError(t, c.Close())
}
