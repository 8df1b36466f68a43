// Package apiclient is the dashboard's access layer to the MedFlow API: one Request
// primitive and a QueryFn factory for cached reads.
package apiclient

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"strings"
	"time"
)

const (
	CSRFCookie = "XSRF-TOKEN"
	CSRFHeader = "X-CSRF-Token"

	// csrfProbe is any session route that answers GET; the CSRF cookie comes with
	// the response whatever its status.
	csrfProbe = "/api/auth/user"
)

type On401 int

const (
	// Throw returns 401 responses as *HTTPError.
	Throw On401 = iota
	// ReturnNull turns 401 responses into a nil payload and nil error.
	ReturnNull
)

type HTTPError struct {
	Status     int
	StatusText string
	Body       string
}

func (e *HTTPError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("%d: %s", e.Status, e.StatusText)
	}
	return fmt.Sprintf("%d: %s: %s", e.Status, e.StatusText, e.Body)
}

// IsStatus reports whether err is an *HTTPError with the given status.
func IsStatus(err error, status int) bool {
	var he *HTTPError
	return errors.As(err, &he) && he.Status == status
}

// Payload is a successful response body.
type Payload struct {
	ContentType string
	Raw         []byte
}

func (p *Payload) IsJSON() bool {
	mt, _, err := mime.ParseMediaType(p.ContentType)
	if err != nil {
		return false
	}
	return mt == "application/json" || strings.HasSuffix(mt, "+json")
}

// Decode unmarshals a JSON payload into v. Text payloads are an error.
func (p *Payload) Decode(v any) error {
	if !p.IsJSON() {
		return fmt.Errorf("decode payload: content type %q is not JSON", p.ContentType)
	}
	if err := json.Unmarshal(p.Raw, v); err != nil {
		return fmt.Errorf("decode payload: %w", err)
	}
	return nil
}

func (p *Payload) Text() string { return string(p.Raw) }

type Client struct {
	baseURL    *url.URL
	httpClient *http.Client
}

// New builds a client for the API at baseURL. Cookies (session and CSRF) persist in
// an in-memory jar for the life of the client.
func New(baseURL string) (*Client, error) {
	u, err := url.Parse(strings.TrimRight(baseURL, "/"))
	if err != nil {
		return nil, fmt.Errorf("parse base url: %w", err)
	}
	if u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("base url %q must be absolute", baseURL)
	}
	jar, err := cookiejar.New(nil)
	if err != nil {
		return nil, fmt.Errorf("create cookie jar: %w", err)
	}
	return &Client{
		baseURL: u,
		httpClient: &http.Client{
			Jar: jar,
			Transport: &http.Transport{
				Proxy:               http.ProxyFromEnvironment,
				MaxIdleConns:        100,
				MaxIdleConnsPerHost: 10,
				IdleConnTimeout:     90 * time.Second,
			},
			CheckRedirect: func(*http.Request, []*http.Request) error {
				return http.ErrUseLastResponse
			},
		},
	}, nil
}

func (c *Client) BaseURL() string { return c.baseURL.String() }

func (c *Client) cookie(name string) string {
	for _, ck := range c.httpClient.Jar.Cookies(c.baseURL) {
		if ck.Name == name {
			return ck.Value
		}
	}
	return ""
}

// HasSession reports whether the jar holds a session cookie. It says nothing about
// whether the server still honors it.
func (c *Client) HasSession() bool { return c.cookie("sid") != "" }

func unsafeMethod(method string) bool {
	switch method {
	case http.MethodGet, http.MethodHead, http.MethodOptions:
		return false
	}
	return true
}

// Request sends one call to endpoint. Bodies are sent as JSON. Any non-2xx status is
// an *HTTPError. There is no retry and no timeout beyond ctx.
func (c *Client) Request(ctx context.Context, method, endpoint string, body any) (*Payload, error) {
	if unsafeMethod(method) && c.cookie(CSRFCookie) == "" {
		// the probe's own status is irrelevant; only its cookie is wanted
		if _, err := c.do(ctx, http.MethodGet, csrfProbe, nil); err != nil && !isHTTPError(err) {
			return nil, err
		}
	}
	return c.do(ctx, method, endpoint, body)
}

func isHTTPError(err error) bool {
	var he *HTTPError
	return errors.As(err, &he)
}

func (c *Client) do(ctx context.Context, method, endpoint string, body any) (*Payload, error) {
	var rd io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("encode body: %w", err)
		}
		rd = bytes.NewReader(raw)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL.String()+endpoint, rd)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")
	if unsafeMethod(method) {
		req.Header.Set("Origin", c.baseURL.Scheme+"://"+c.baseURL.Host)
		if tok := c.cookie(CSRFCookie); tok != "" {
			req.Header.Set(CSRFHeader, tok)
		}
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("do request: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &HTTPError{
			Status:     resp.StatusCode,
			StatusText: http.StatusText(resp.StatusCode),
			Body:       strings.TrimSpace(string(raw)),
		}
	}
	return &Payload{ContentType: resp.Header.Get("Content-Type"), Raw: raw}, nil
}

type QueryOptions struct {
	On401 On401
}

// QueryFunc fetches the endpoint named by a query key.
type QueryFunc func(ctx context.Context, key ...string) (*Payload, error)

// Key joins query key segments into an endpoint path.
func Key(parts ...string) string { return strings.Join(parts, "/") }

// QueryFn returns a GET fetcher applying the 401 policy in opts.
func (c *Client) QueryFn(opts QueryOptions) QueryFunc {
	return func(ctx context.Context, key ...string) (*Payload, error) {
		p, err := c.Request(ctx, http.MethodGet, Key(key...), nil)
		if err != nil {
			if opts.On401 == ReturnNull && IsStatus(err, http.StatusUnauthorized) {
				return nil, nil
			}
			return nil, err
		}
		return p, nil
	}
}
