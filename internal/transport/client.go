// Package transport provides the HTTP client shared by the venue and rate
// source adapters.
package transport

import (
	"context"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/agentstation/venuemap/pkg/constants"
	"github.com/agentstation/venuemap/pkg/errors"
)

// DefaultHTTPTimeout is the default timeout for HTTP requests.
var DefaultHTTPTimeout = constants.DefaultHTTPTimeout

// DefaultUserAgent identifies the adapters to public APIs. The Overpass
// instances ask clients to send one.
const DefaultUserAgent = "venuemap/1.0 (+https://github.com/agentstation/venuemap)"

// Client provides HTTP client functionality with authentication.
type Client struct {
	source    string
	http      *http.Client
	auth      Authenticator
	apiKey    string
	userAgent string
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the underlying http.Client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc != nil {
			c.http = hc
		}
	}
}

// WithAuth applies auth with apiKey to every request. An empty key disables it.
func WithAuth(auth Authenticator, apiKey string) Option {
	return func(c *Client) {
		if auth != nil {
			c.auth = auth
		}
		c.apiKey = apiKey
	}
}

// WithUserAgent overrides the User-Agent header.
func WithUserAgent(ua string) Option {
	return func(c *Client) {
		c.userAgent = ua
	}
}

// New creates a transport client for a named source.
func New(source string, opts ...Option) *Client {
	c := &Client{
		source:    source,
		http:      &http.Client{Timeout: DefaultHTTPTimeout},
		auth:      &NoAuth{},
		userAgent: DefaultUserAgent,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Source returns the source name used in errors.
func (c *Client) Source() string {
	return c.source
}

// Do performs an HTTP request with authentication and common headers applied.
func (c *Client) Do(ctx context.Context, req *http.Request) (*http.Response, error) {
	req = req.WithContext(ctx)
	if c.apiKey != "" {
		c.auth.Apply(req, c.apiKey)
	}

	req.Header.Set("Accept", "application/json")
	if c.userAgent != "" {
		req.Header.Set("User-Agent", c.userAgent)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return nil, errors.Join(errors.ErrTimeout, err)
		}
		return nil, &errors.APIError{
			Source:   c.source,
			Message:  "request failed",
			Endpoint: redact(req.URL),
			Err:      err,
		}
	}
	return resp, nil
}

// Get performs a GET request.
func (c *Client) Get(ctx context.Context, rawURL string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, errors.WrapResource("create", "request", "GET "+rawURL, err)
	}
	return c.Do(ctx, req)
}

// PostForm performs a form-encoded POST request.
func (c *Client) PostForm(ctx context.Context, rawURL string, form url.Values) (*http.Response, error) {
	return c.post(ctx, rawURL, "application/x-www-form-urlencoded", strings.NewReader(form.Encode()))
}

// PostJSON performs a POST with a JSON body.
func (c *Client) PostJSON(ctx context.Context, rawURL string, body io.Reader) (*http.Response, error) {
	return c.post(ctx, rawURL, "application/json", body)
}

func (c *Client) post(ctx context.Context, rawURL, contentType string, body io.Reader) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, rawURL, body)
	if err != nil {
		return nil, errors.WrapResource("create", "request", "POST "+rawURL, err)
	}
	req.Header.Set("Content-Type", contentType)
	return c.Do(ctx, req)
}

// GetJSON performs a GET and decodes a JSON body into target.
func (c *Client) GetJSON(ctx context.Context, rawURL string, target any) error {
	resp, err := c.Get(ctx, rawURL)
	if err != nil {
		return err
	}
	return c.Decode(resp, target)
}

// Decode decodes resp into target, attributing failures to the client's source.
func (c *Client) Decode(resp *http.Response, target any) error {
	return DecodeResponse(resp, c.source, target)
}

// redact drops the query string, which can carry keys.
func redact(u *url.URL) string {
	if u == nil {
		return ""
	}
	out := *u
	out.RawQuery = ""
	return out.String()
}
