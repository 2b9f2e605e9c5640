// Package dmmock provides in-memory stand-ins for the device management API,
// the host state store and the secret store.
package dmmock

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"

	"github.com/kardianos/dmtree/dmdef"
)

// API is a fake device management API served over httptest.
type API struct {
	srv       *httptest.Server
	accessKey string

	mu        sync.Mutex
	devices   []dmdef.Device
	resources map[string][]dmdef.Resource
	failCode  int
	requests  []string
}

// NewAPI starts a fake API that accepts only accessKey.
func NewAPI(accessKey string) *API {
	a := &API{
		accessKey: accessKey,
		resources: make(map[string][]dmdef.Resource),
	}
	mux := http.NewServeMux()
	mux.HandleFunc("GET /v3/devices", a.handleDevices)
	mux.HandleFunc("GET /v2/endpoints/{id}", a.handleEndpoints)
	a.srv = httptest.NewServer(a.authorize(mux))
	return a
}

// URL is the base URL to configure clients with.
func (a *API) URL() string {
	return a.srv.URL + "/"
}

// Close shuts the server down.
func (a *API) Close() {
	a.srv.Close()
}

// SetDevices replaces the device list, returned in the given order.
func (a *API) SetDevices(devices ...dmdef.Device) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.devices = devices
}

// SetResources replaces the resource list for one device.
func (a *API) SetResources(deviceID string, resources ...dmdef.Resource) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.resources[deviceID] = resources
}

// FailWith makes every request answer with code. Zero restores normal
// behaviour.
func (a *API) FailWith(code int) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.failCode = code
}

// Requests returns the request URIs seen so far.
func (a *API) Requests() []string {
	a.mu.Lock()
	defer a.mu.Unlock()
	return append([]string(nil), a.requests...)
}

func (a *API) authorize(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		a.mu.Lock()
		a.requests = append(a.requests, r.URL.RequestURI())
		fail := a.failCode
		a.mu.Unlock()

		if fail != 0 {
			writeError(w, fail, "injected failure")
			return
		}
		token, ok := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer ")
		if !ok || token != a.accessKey {
			writeError(w, http.StatusUnauthorized, "Invalid API key")
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (a *API) handleDevices(w http.ResponseWriter, r *http.Request) {
	if r.URL.Query().Get("order") != "DESC" {
		writeError(w, http.StatusBadRequest, "order must be DESC")
		return
	}
	a.mu.Lock()
	data := append([]dmdef.Device{}, a.devices...)
	a.mu.Unlock()

	writeJSON(w, map[string]any{"object": "list", "data": data})
}

func (a *API) handleEndpoints(w http.ResponseWriter, r *http.Request) {
	a.mu.Lock()
	res, ok := a.resources[r.PathValue("id")]
	a.mu.Unlock()

	if !ok {
		writeError(w, http.StatusNotFound, "endpoint not found")
		return
	}
	writeJSON(w, append([]dmdef.Resource{}, res...))
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, code int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(map[string]any{
		"object":  "error",
		"code":    code,
		"message": msg,
	})
}
