// Package region looks up the regions rules are resolved for in a Geoserver
// WFS layer.
package region

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	impacts "github.com/pacificclimate/p2a-rule-engine"
)

// DefaultURL is the Geoserver endpoint used when none is configured.
const DefaultURL = "http://docker-dev01.pcic.uvic.ca:30123/geoserver/bc_regions/ows"

// Layer is the WFS feature type holding the region polygons.
const Layer = "bc_regions:bc-regions-polygon"

var (
	// ErrUnknownRegion is returned for a key missing from Names.
	ErrUnknownRegion = errors.New("unknown region")

	// ErrNotFound is returned when Geoserver has no feature for the region.
	ErrNotFound = errors.New("region not found")
)

// Client queries a Geoserver instance.
type Client struct {
	url        string
	http       *http.Client
	logger     *slog.Logger
	maxRetries int
	retryDelay time.Duration
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient sets the HTTP client. The default has a 30 second timeout.
func WithHTTPClient(c *http.Client) Option {
	return func(cl *Client) {
		if c != nil {
			cl.http = c
		}
	}
}

// WithLogger sets the logger. The default is slog.Default().
func WithLogger(l *slog.Logger) Option {
	return func(cl *Client) {
		if l != nil {
			cl.logger = l
		}
	}
}

// WithRetries sets how many times a failed request is retried, and the delay
// before the first retry. The delay doubles on every retry.
func WithRetries(n int, delay time.Duration) Option {
	return func(cl *Client) {
		cl.maxRetries = n
		cl.retryDelay = delay
	}
}

// NewClient returns a client for the Geoserver OWS endpoint at u.
func NewClient(u string, opts ...Option) *Client {
	if u == "" {
		u = DefaultURL
	}
	c := &Client{
		url:        u,
		http:       &http.Client{Timeout: 30 * time.Second},
		logger:     slog.Default(),
		maxRetries: 2,
		retryDelay: time.Second,
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

// Lookup returns the area for a key of Names.
func (c *Client) Lookup(ctx context.Context, key string) (impacts.Area, error) {
	name, ok := Names[key]
	if !ok {
		return impacts.Area{}, fmt.Errorf("%w: %q", ErrUnknownRegion, key)
	}

	body, err := c.fetch(ctx)
	if err != nil {
		return impacts.Area{}, fmt.Errorf("fetching regions: %w", err)
	}
	defer body.Close()

	area, err := findArea(body, name)
	if err != nil {
		return impacts.Area{}, fmt.Errorf("%s: %w", key, err)
	}
	c.logger.Debug("region found", "region", key, "coastal", area.Coastal)
	return area, nil
}

func (c *Client) featureURL() (string, error) {
	u, err := url.Parse(c.url)
	if err != nil {
		return "", err
	}
	q := u.Query()
	q.Set("service", "WFS")
	q.Set("version", "1.0.0")
	q.Set("request", "GetFeature")
	q.Set("typename", Layer)
	q.Set("maxFeatures", "100")
	q.Set("outputFormat", "csv")
	u.RawQuery = q.Encode()
	return u.String(), nil
}

// fetch requests the feature CSV, retrying transport errors and 5xx
// responses with exponential backoff.
func (c *Client) fetch(ctx context.Context) (io.ReadCloser, error) {
	u, err := c.featureURL()
	if err != nil {
		return nil, fmt.Errorf("invalid url: %w", err)
	}

	var lastErr error
	for attempt := 0; attempt <= c.maxRetries; attempt++ {
		if attempt > 0 {
			delay := c.retryDelay << (attempt - 1)
			c.logger.Debug("retrying region request", "attempt", attempt, "delay", delay, "error", lastErr)
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(delay):
			}
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
		if err != nil {
			return nil, fmt.Errorf("creating request: %w", err)
		}
		resp, err := c.http.Do(req)
		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			lastErr = err
			continue
		}
		if resp.StatusCode == http.StatusOK {
			return resp.Body, nil
		}

		io.Copy(io.Discard, resp.Body)
		resp.Body.Close()
		lastErr = fmt.Errorf("unexpected status %s", resp.Status)
		if resp.StatusCode < 500 {
			return nil, lastErr
		}
	}
	return nil, lastErr
}

// findArea scans the feature CSV for the row whose english_na column is name.
func findArea(r io.Reader, name string) (impacts.Area, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1

	header, err := cr.Read()
	if err == io.EOF {
		return impacts.Area{}, ErrNotFound
	}
	if err != nil {
		return impacts.Area{}, fmt.Errorf("reading header: %w", err)
	}
	col := map[string]int{}
	for i, h := range header {
		col[strings.TrimSpace(h)] = i
	}
	for _, required := range []string{"english_na", "coast_bool", "the_geom"} {
		if _, ok := col[required]; !ok {
			return impacts.Area{}, fmt.Errorf("missing column %q", required)
		}
	}

	for {
		row, err := cr.Read()
		if err == io.EOF {
			return impacts.Area{}, ErrNotFound
		}
		if err != nil {
			return impacts.Area{}, fmt.Errorf("reading features: %w", err)
		}
		if field(row, col["english_na"]) != name {
			continue
		}
		coastal, err := parseFlag(field(row, col["coast_bool"]))
		if err != nil {
			return impacts.Area{}, fmt.Errorf("coast_bool: %w", err)
		}
		return impacts.Area{
			Name:    name,
			Coastal: coastal,
			WKT:     field(row, col["the_geom"]),
		}, nil
	}
}

func field(row []string, i int) string {
	if i >= len(row) {
		return ""
	}
	return row[i]
}

// parseFlag accepts integer flags as well as booleans.
func parseFlag(s string) (bool, error) {
	s = strings.TrimSpace(s)
	if n, err := strconv.Atoi(s); err == nil {
		return n != 0, nil
	}
	return strconv.ParseBool(s)
}
