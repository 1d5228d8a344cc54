// Package adminapi is a client for the remote admin API that owns site
// settings and the service catalog.
package adminapi

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/go-faster/errors"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"

	"github.com/xenking/marine-storefront/internal/domain/catalog"
	"github.com/xenking/marine-storefront/internal/domain/settings"
)

var (
	_ settings.Fetcher = (*Client)(nil)
	_ catalog.Source   = (*Client)(nil)
)

// maxBodySize caps response bodies; full service records may embed media.
const maxBodySize = 64 << 20

// StatusError is returned for non-2xx responses.
type StatusError struct {
	Method string
	Path   string
	Code   int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("%s %s: unexpected status %d", e.Method, e.Path, e.Code)
}

// ClientConfig holds optional Client settings.
type ClientConfig struct {
	// HTTPClient is used as the base client. Its transport is wrapped with
	// OpenTelemetry instrumentation. Defaults to a client without timeout.
	HTTPClient     *http.Client
	TracerProvider trace.TracerProvider
	MeterProvider  metric.MeterProvider
	// Now returns the current time for cache-busting parameters.
	Now func() time.Time
}

// Client talks to the admin API over HTTP.
type Client struct {
	base *url.URL
	http *http.Client
	now  func() time.Time
}

// NewClient returns a Client for the API served at baseURL.
func NewClient(baseURL string, cfg ClientConfig) (*Client, error) {
	base, err := url.Parse(strings.TrimRight(baseURL, "/"))
	if err != nil {
		return nil, errors.Wrap(err, "parse base url")
	}
	if base.Scheme == "" || base.Host == "" {
		return nil, errors.Errorf("base url %q must be absolute", baseURL)
	}

	hc := &http.Client{}
	if cfg.HTTPClient != nil {
		c := *cfg.HTTPClient
		hc = &c
	}
	transport := hc.Transport
	if transport == nil {
		transport = http.DefaultTransport
	}
	var otelOpts []otelhttp.Option
	if cfg.TracerProvider != nil {
		otelOpts = append(otelOpts, otelhttp.WithTracerProvider(cfg.TracerProvider))
	}
	if cfg.MeterProvider != nil {
		otelOpts = append(otelOpts, otelhttp.WithMeterProvider(cfg.MeterProvider))
	}
	hc.Transport = otelhttp.NewTransport(transport, otelOpts...)

	now := cfg.Now
	if now == nil {
		now = time.Now
	}

	return &Client{base: base, http: hc, now: now}, nil
}

// FetchSettings loads the site settings. Every request carries a timestamp
// query parameter so intermediate caches never answer it.
func (c *Client) FetchSettings(ctx context.Context) (*settings.SiteSettings, error) {
	q := url.Values{}
	q.Set("t", strconv.FormatInt(c.now().UnixMilli(), 10))

	var s settings.SiteSettings
	if err := c.get(ctx, "/api/settings", q, &s); err != nil {
		return nil, errors.Wrap(err, "fetch settings")
	}
	return &s, nil
}

// ListServices returns the service summaries.
func (c *Client) ListServices(ctx context.Context) ([]catalog.Summary, error) {
	var list []catalog.Summary
	if err := c.get(ctx, "/api/admin/services", nil, &list); err != nil {
		return nil, errors.Wrap(err, "list services")
	}
	return list, nil
}

// GetService returns the full record of one service including media.
// It returns catalog.ErrNotFound when the API answers 404.
func (c *Client) GetService(ctx context.Context, id string) (*catalog.Service, error) {
	var s catalog.Service
	err := c.get(ctx, "/api/admin/services/"+url.PathEscape(id)+"/full", nil, &s)
	if err != nil {
		var se *StatusError
		if errors.As(err, &se) && se.Code == http.StatusNotFound {
			return nil, catalog.ErrNotFound
		}
		return nil, errors.Wrapf(err, "get service %q", id)
	}
	return &s, nil
}

func (c *Client) get(ctx context.Context, path string, query url.Values, dst any) error {
	u := c.base.JoinPath(path)
	if len(query) > 0 {
		u.RawQuery = query.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return errors.Wrap(err, "create request")
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Cache-Control", "no-cache")

	resp, err := c.http.Do(req)
	if err != nil {
		return errors.Wrap(err, "send request")
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		// Drain so the connection can be reused.
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 1<<16))
		return &StatusError{Method: http.MethodGet, Path: path, Code: resp.StatusCode}
	}

	if err := json.NewDecoder(io.LimitReader(resp.Body, maxBodySize)).Decode(dst); err != nil {
		return errors.Wrap(err, "decode response")
	}
	return nil
}
