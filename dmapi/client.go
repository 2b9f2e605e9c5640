// Package dmapi is the client for the device management REST API. A Client
// is bound to one access key for its lifetime and is safe for concurrent use.
package dmapi

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/kardianos/dmtree/dmdef"
	"github.com/rs/zerolog"
)

// maxErrorBody bounds how much of a failed response is kept in errors.
const maxErrorBody = 4 << 10

// Config configures a Client.
type Config struct {
	// BaseURL is the API root. Defaults to dmdef.DefaultBaseURL.
	BaseURL string

	// AccessKey is sent as a bearer token on every request.
	AccessKey string

	// HTTP3 selects a QUIC transport instead of the default HTTP/1.1 and HTTP/2 one.
	// Ignored when HTTPClient is set.
	HTTP3 bool

	// HTTPClient overrides the HTTP client.
	HTTPClient *http.Client

	// UserAgent is sent when not empty.
	UserAgent string

	Logger zerolog.Logger
}

// Client performs authenticated requests against the API.
type Client struct {
	base      *url.URL
	accessKey string
	userAgent string
	hc        *http.Client
	closer    io.Closer
	log       zerolog.Logger
}

// New returns a client for cfg. No request is made.
func New(cfg Config) (*Client, error) {
	raw := cfg.BaseURL
	if raw == "" {
		raw = dmdef.DefaultBaseURL
	}
	base, err := url.Parse(raw)
	if err != nil {
		return nil, fmt.Errorf("parse base url: %w", err)
	}
	if base.Scheme != "http" && base.Scheme != "https" {
		return nil, fmt.Errorf("base url %q: scheme must be http or https", raw)
	}
	if !strings.HasSuffix(base.Path, "/") {
		base.Path += "/"
	}

	c := &Client{
		base:      base,
		accessKey: cfg.AccessKey,
		userAgent: cfg.UserAgent,
		hc:        cfg.HTTPClient,
		log:       cfg.Logger,
	}
	if c.hc == nil {
		if cfg.HTTP3 {
			t := newHTTP3Transport()
			c.hc = &http.Client{Transport: t}
			c.closer = t
		} else {
			c.hc = http.DefaultClient
		}
	}
	return c, nil
}

// Close releases transport resources owned by the client.
func (c *Client) Close() error {
	if c.closer == nil {
		return nil
	}
	return c.closer.Close()
}

// BaseURL returns the API root the client talks to.
func (c *Client) BaseURL() string {
	return c.base.String()
}

type deviceList struct {
	Data []dmdef.Device `json:"data"`
}

// ListDevices returns the account's devices, newest first as ordered by the
// server.
func (c *Client) ListDevices(ctx context.Context) ([]dmdef.Device, error) {
	var resp deviceList
	ref := &url.URL{Path: "v3/devices", RawQuery: url.Values{"order": {"DESC"}}.Encode()}
	if err := c.get(ctx, ref, &resp); err != nil {
		return nil, err
	}
	if resp.Data == nil {
		return []dmdef.Device{}, nil
	}
	return resp.Data, nil
}

// ListResources returns the resources registered by a device, in server order.
func (c *Client) ListResources(ctx context.Context, deviceID string) ([]dmdef.Resource, error) {
	if deviceID == "" {
		return nil, errors.New("dmapi: device id is empty")
	}
	ref := &url.URL{
		Path:    "v2/endpoints/" + deviceID,
		RawPath: "v2/endpoints/" + url.PathEscape(deviceID),
	}
	var resp []dmdef.Resource
	if err := c.get(ctx, ref, &resp); err != nil {
		return nil, err
	}
	if resp == nil {
		return []dmdef.Resource{}, nil
	}
	return resp, nil
}

func (c *Client) get(ctx context.Context, ref *url.URL, out any) error {
	u := c.base.ResolveReference(ref).String()
	if c.accessKey == "" {
		return &dmdef.AuthError{Message: "no access key"}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return fmt.Errorf("dmapi: build request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.accessKey)
	req.Header.Set("Accept", "application/json")
	if c.userAgent != "" {
		req.Header.Set("User-Agent", c.userAgent)
	}

	start := time.Now()
	res, err := c.hc.Do(req)
	if err != nil {
		c.log.Debug().Err(err).Str("url", u).Msg("request failed")
		return &dmdef.NetworkError{Op: http.MethodGet, URL: u, Err: err}
	}
	defer res.Body.Close()

	c.log.Debug().
		Str("url", u).
		Int("status", res.StatusCode).
		Dur("elapsed", time.Since(start)).
		Msg("api response")

	if res.StatusCode < 200 || res.StatusCode > 299 {
		body, _ := io.ReadAll(io.LimitReader(res.Body, maxErrorBody))
		if dmdef.IsAuthStatus(res.StatusCode) {
			return &dmdef.AuthError{StatusCode: res.StatusCode, Message: apiMessage(body)}
		}
		return &dmdef.StatusError{StatusCode: res.StatusCode, Body: strings.TrimSpace(string(body))}
	}

	if err := json.NewDecoder(res.Body).Decode(out); err != nil {
		return fmt.Errorf("dmapi: decode %s: %w", ref.Path, err)
	}
	return nil
}

// apiMessage extracts the "message" field of an API error body.
func apiMessage(body []byte) string {
	var e struct {
		Message string `json:"message"`
	}
	if json.Unmarshal(body, &e) == nil {
		return e.Message
	}
	return ""
}
