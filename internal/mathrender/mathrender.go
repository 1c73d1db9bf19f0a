// Package mathrender fetches PNG renderings of display TeX from a remote
// LaTeX-to-image service.
package mathrender

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/gabriel-vasile/mimetype"
	"github.com/patrickmn/go-cache"
	"go.uber.org/zap"
)

const (
	// DefaultEndpoint is the codecogs PNG renderer.
	DefaultEndpoint = "https://latex.codecogs.com/png.image?"
	// DefaultDPI is the resolution requested for every formula.
	DefaultDPI = 300
	// DefaultTimeout bounds one request. There is no retry.
	DefaultTimeout = 10 * time.Second

	maxImageBytes = 5 << 20
)

var (
	// ErrStatus is returned for any non-200 response.
	ErrStatus = errors.New("math renderer returned non-200 status")
	// ErrNotImage is returned when the response body is not a raster image.
	ErrNotImage = errors.New("math renderer returned non-image content")
	// ErrEmptyTeX is returned for blank input.
	ErrEmptyTeX = errors.New("empty TeX")
)

// Client renders TeX through an HTTP GET endpoint. Successful renders are
// memoized per TeX string for the lifetime of the client.
type Client struct {
	endpoint string
	dpi      int
	http     *http.Client
	cache    *cache.Cache
	logger   *zap.Logger
}

// Option configures a Client.
type Option func(*Client)

// WithEndpoint sets the URL prefix the escaped TeX is appended to.
func WithEndpoint(endpoint string) Option {
	return func(c *Client) { c.endpoint = endpoint }
}

// WithDPI sets the requested resolution.
func WithDPI(dpi int) Option {
	return func(c *Client) {
		if dpi > 0 {
			c.dpi = dpi
		}
	}
}

// WithHTTPClient replaces the default client, whose timeout is
// DefaultTimeout.
func WithHTTPClient(h *http.Client) Option {
	return func(c *Client) {
		if h != nil {
			c.http = h
		}
	}
}

// WithTimeout sets the per-request timeout of the default HTTP client.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.http = &http.Client{Timeout: d}
		}
	}
}

// WithLogger sets the logger for failed requests.
func WithLogger(l *zap.Logger) Option {
	return func(c *Client) {
		if l != nil {
			c.logger = l
		}
	}
}

// New creates a Client.
func New(opts ...Option) *Client {
	c := &Client{
		endpoint: DefaultEndpoint,
		dpi:      DefaultDPI,
		http:     &http.Client{Timeout: DefaultTimeout},
		cache:    cache.New(time.Hour, 10*time.Minute),
		logger:   zap.NewNop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// URL returns the request URL for tex. The query is escaped with spaces as
// %20 and slashes left as is, which the service expects.
func (c *Client) URL(tex string) string {
	q := url.QueryEscape(`\dpi{` + strconv.Itoa(c.dpi) + `} ` + tex)
	q = strings.ReplaceAll(q, "+", "%20")
	q = strings.ReplaceAll(q, "%2F", "/")
	return c.endpoint + q
}

// Render returns the PNG bytes for tex.
func (c *Client) Render(ctx context.Context, tex string) ([]byte, error) {
	tex = strings.TrimSpace(tex)
	if tex == "" {
		return nil, ErrEmptyTeX
	}
	if cached, ok := c.cache.Get(tex); ok {
		return cached.([]byte), nil
	}

	u := c.URL(tex)
	data, err := c.fetch(ctx, u)
	if err != nil {
		c.logger.Debug("math render failed", zap.String("url", u), zap.Error(err))
		return nil, err
	}
	c.cache.SetDefault(tex, data)
	return data, nil
}

func (c *Client) fetch(ctx context.Context, u string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, fmt.Errorf("creating math request: %w", err)
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("requesting math image: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: %d", ErrStatus, resp.StatusCode)
	}
	data, err := io.ReadAll(io.LimitReader(resp.Body, maxImageBytes))
	if err != nil {
		return nil, fmt.Errorf("reading math image: %w", err)
	}
	if mt := mimetype.Detect(data); !strings.HasPrefix(mt.String(), "image/") || mt.Is("image/svg+xml") {
		return nil, fmt.Errorf("%w: %s", ErrNotImage, mt.String())
	}
	return data, nil
}
