// Package gateway is the client of the attendance API.
// Every call carries the bearer credential the client was bound to; callers never handle it.
package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"io/ioutil"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/pkg/errors"
)

const (
	mimeJSON     = "application/json"
	maxErrorBody = 1 << 16
)

type Client struct {
	baseURL   string
	http      *http.Client
	token     string
	userAgent string
}

type Option func(*Client)

func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.http = hc }
}

// WithTimeout bounds every call, including reading the response body.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		hc := *c.http
		hc.Timeout = d
		c.http = &hc
	}
}

func WithUserAgent(ua string) Option {
	return func(c *Client) { c.userAgent = ua }
}

func New(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL:   strings.TrimRight(baseURL, "/"),
		http:      &http.Client{Timeout: 30 * time.Second},
		userAgent: "attendance-web",
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// WithToken returns a copy of the client bound to a bearer credential.
func (c *Client) WithToken(token string) *Client {
	cp := *c
	cp.token = token
	return &cp
}

func (c *Client) BaseURL() string { return c.baseURL }

func (c *Client) newRequest(ctx context.Context, method, path string, query url.Values, body io.Reader) (*http.Request, error) {
	u := c.baseURL + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}
	req, err := http.NewRequestWithContext(ctx, method, u, body)
	if err != nil {
		return nil, errors.Wrap(err, "building request")
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}
	req.Header.Set("Accept", mimeJSON)
	if c.userAgent != "" {
		req.Header.Set("User-Agent", c.userAgent)
	}
	return req, nil
}

// do sends the request and turns non-2xx responses into *Error.
// The caller must close the body of the returned response.
func (c *Client) do(req *http.Request) (*http.Response, error) {
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, errors.Wrapf(err, "%s %s", req.Method, req.URL.Path)
	}
	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return resp, nil
	}
	defer resp.Body.Close()

	apiErr := &Error{Method: req.Method, Path: req.URL.Path, StatusCode: resp.StatusCode}
	data, _ := ioutil.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
	var env errorEnvelope
	if json.Unmarshal(data, &env) == nil {
		apiErr.Message = env.Error
	}
	return nil, apiErr
}

// doJSON sends `in` (if any) as JSON and decodes the response into `out` (if any).
func (c *Client) doJSON(ctx context.Context, method, path string, query url.Values, in, out interface{}) error {
	var body io.Reader
	if in != nil {
		data, err := json.Marshal(in)
		if err != nil {
			return errors.Wrap(err, "encoding request body")
		}
		body = bytes.NewReader(data)
	}
	req, err := c.newRequest(ctx, method, path, query, body)
	if err != nil {
		return err
	}
	if in != nil {
		req.Header.Set("Content-Type", mimeJSON)
	}
	return c.send(req, out)
}

func (c *Client) send(req *http.Request, out interface{}) error {
	resp, err := c.do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if out == nil {
		_, _ = io.Copy(ioutil.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return errors.Wrapf(err, "decoding %s %s response", req.Method, req.URL.Path)
	}
	return nil
}
