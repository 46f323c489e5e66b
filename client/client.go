// Package client is a typed client of the Darasa REST API.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sort"
	"strings"
	"time"

	"github.com/google/go-querystring/query"
	"github.com/pkg/errors"

	"github.com/trezcool/darasa/core"
)

const apiPrefix = "/api/v1"

// APIError is returned for every non-2xx response.
// Fields holds the per-field messages of validation errors.
type APIError struct {
	Status  int
	Message string
	Fields  map[string]string
}

func (e *APIError) Error() string {
	if len(e.Fields) == 0 {
		return fmt.Sprintf("%d: %s", e.Status, e.Message)
	}
	keys := make([]string, 0, len(e.Fields))
	for k := range e.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, k+": "+e.Fields[k])
	}
	return fmt.Sprintf("%d: %s", e.Status, strings.Join(parts, "; "))
}

// IsStatus reports whether err is an *APIError with the given status.
func IsStatus(err error, status int) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.Status == status
}

// List is the envelope of list endpoints.
type List[T any] struct {
	Data  []T `json:"data"`
	Count int `json:"count"`
}

// Page selects a window of a list.
type Page struct {
	Skip  int `url:"skip,omitempty"`
	Limit int `url:"limit,omitempty"`
}

// All pages through a list endpoint until every item has been read.
func All[T any](ctx context.Context, list func(ctx context.Context, page Page) (List[T], error)) ([]T, error) {
	return core.FetchAll(ctx, func(ctx context.Context, p core.Pagination) ([]T, int, error) {
		res, err := list(ctx, Page{Skip: p.Skip, Limit: p.Limit})
		return res.Data, res.Count, err
	})
}

type Message struct {
	Message string `json:"message"`
}

type Client struct {
	baseURL *url.URL
	http    *http.Client
	token   string
}

type Option func(*Client)

// WithHTTPClient replaces the default client, which times out after 30 seconds.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.http = hc }
}

// WithToken authenticates every request with the bearer token.
func WithToken(token string) Option {
	return func(c *Client) { c.token = token }
}

func New(baseURL string, opts ...Option) (*Client, error) {
	u, err := url.Parse(strings.TrimRight(baseURL, "/"))
	if err != nil {
		return nil, errors.Wrap(err, "parsing base URL")
	}
	if u.Scheme == "" || u.Host == "" {
		return nil, errors.Errorf("invalid base URL %q", baseURL)
	}
	c := &Client{baseURL: u, http: &http.Client{Timeout: 30 * time.Second}}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

func (c *Client) SetToken(token string) { c.token = token }
func (c *Client) Token() string         { return c.token }

// do sends the request and decodes a successful response into out (when not nil).
// q is encoded with go-querystring; body is sent as JSON.
func (c *Client) do(ctx context.Context, method, path string, q, body, out interface{}) error {
	u := *c.baseURL
	u.RawPath = c.baseURL.EscapedPath() + path
	p, err := url.PathUnescape(u.RawPath)
	if err != nil {
		return errors.Wrap(err, "building path")
	}
	u.Path = p
	if q != nil {
		vals, err := query.Values(q)
		if err != nil {
			return errors.Wrap(err, "encoding query")
		}
		u.RawQuery = vals.Encode()
	}

	var rdr io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return errors.Wrap(err, "encoding body")
		}
		rdr = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, u.String(), rdr)
	if err != nil {
		return errors.Wrap(err, "building request")
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return errors.Wrapf(err, "%s %s", method, path)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return errors.Wrap(err, "reading response")
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return newAPIError(resp.StatusCode, data)
	}
	if out == nil || len(data) == 0 {
		return nil
	}
	if err = json.Unmarshal(data, out); err != nil {
		return errors.Wrapf(err, "decoding %s %s", method, path)
	}
	return nil
}

// newAPIError reads `{"error": msg}` bodies, or field maps of validation errors.
func newAPIError(status int, data []byte) *APIError {
	apiErr := &APIError{Status: status, Message: http.StatusText(status)}

	var msg struct {
		Error string `json:"error"`
	}
	if json.Unmarshal(data, &msg) == nil && msg.Error != "" {
		apiErr.Message = msg.Error
		return apiErr
	}
	var fields map[string]string
	if json.Unmarshal(data, &fields) == nil && len(fields) > 0 {
		apiErr.Fields = fields
	}
	return apiErr
}

func (c *Client) get(ctx context.Context, path string, q, out interface{}) error {
	return c.do(ctx, http.MethodGet, path, q, nil, out)
}

func (c *Client) post(ctx context.Context, path string, body, out interface{}) error {
	return c.do(ctx, http.MethodPost, path, nil, body, out)
}

func (c *Client) put(ctx context.Context, path string, body, out interface{}) error {
	return c.do(ctx, http.MethodPut, path, nil, body, out)
}

func (c *Client) patch(ctx context.Context, path string, body, out interface{}) error {
	return c.do(ctx, http.MethodPatch, path, nil, body, out)
}

func (c *Client) delete(ctx context.Context, path string, q, out interface{}) error {
	return c.do(ctx, http.MethodDelete, path, q, nil, out)
}

func apiPath(parts ...string) string {
	escaped := make([]string, 0, len(parts))
	for _, p := range parts {
		escaped = append(escaped, url.PathEscape(p))
	}
	return apiPrefix + "/" + strings.Join(escaped, "/")
}

// Health reports whether the API and its database are up.
func (c *Client) Health(ctx context.Context) (map[string]string, error) {
	var status map[string]string
	err := c.get(ctx, "/health", nil, &status)
	return status, err
}
