// Package backend is the HTTP client for the canteen API. Every call forwards
// the visitor's credential cookies; the API decides authorisation.
package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

// Cookie names issued by the API on login.
const (
	AuthTokenCookie    = "auth_token"
	RefreshTokenCookie = "refresh_token"
	UserGroupCookie    = "user_group"
)

const maxErrorBody = 64 << 10

// Credentials are the API cookies presented by the browser.
type Credentials struct {
	AuthToken    string
	RefreshToken string
	UserGroup    string
}

// CredentialsFromRequest collects the API cookies of an incoming request.
func CredentialsFromRequest(r *http.Request) Credentials {
	var creds Credentials
	if c, err := r.Cookie(AuthTokenCookie); err == nil {
		creds.AuthToken = c.Value
	}
	if c, err := r.Cookie(RefreshTokenCookie); err == nil {
		creds.RefreshToken = c.Value
	}
	if c, err := r.Cookie(UserGroupCookie); err == nil {
		creds.UserGroup = c.Value
	}
	return creds
}

// Empty reports whether no token is present at all.
func (c Credentials) Empty() bool {
	return c.AuthToken == "" && c.RefreshToken == ""
}

func (c Credentials) apply(req *http.Request) {
	if c.AuthToken != "" {
		req.AddCookie(&http.Cookie{Name: AuthTokenCookie, Value: c.AuthToken})
	}
	if c.RefreshToken != "" {
		req.AddCookie(&http.Cookie{Name: RefreshTokenCookie, Value: c.RefreshToken})
	}
	if c.UserGroup != "" {
		req.AddCookie(&http.Cookie{Name: UserGroupCookie, Value: c.UserGroup})
	}
}

// Client talks to the canteen API.
type Client struct {
	baseURL  *url.URL
	http     *http.Client
	duration *prometheus.HistogramVec
}

// Option customises a Client.
type Option func(*Client)

// WithHTTPClient replaces the underlying HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc != nil {
			c.http = hc
		}
	}
}

// WithTimeout sets the per-call timeout of the default HTTP client.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.http.Timeout = d
		}
	}
}

// WithRegisterer registers the upstream latency histogram.
func WithRegisterer(reg prometheus.Registerer) Option {
	return func(c *Client) {
		if reg == nil {
			return
		}
		hist := prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "kantine_api_request_duration_seconds",
			Help:    "Latency of canteen API calls by endpoint and status code.",
			Buckets: prometheus.DefBuckets,
		}, []string{"endpoint", "code"})
		if err := reg.Register(hist); err != nil {
			if already, ok := err.(prometheus.AlreadyRegisteredError); ok {
				hist = already.ExistingCollector.(*prometheus.HistogramVec)
			} else {
				return
			}
		}
		c.duration = hist
	}
}

// NewClient builds a Client for the API rooted at baseURL.
func NewClient(baseURL string, opts ...Option) (*Client, error) {
	u, err := url.Parse(strings.TrimRight(baseURL, "/"))
	if err != nil {
		return nil, fmt.Errorf("backend: parse base url: %w", err)
	}
	if u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("backend: base url %q must be absolute", baseURL)
	}
	c := &Client{
		baseURL: u,
		http: &http.Client{
			Timeout:   10 * time.Second,
			Transport: otelhttp.NewTransport(http.DefaultTransport),
		},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// BaseURL returns the configured API root.
func (c *Client) BaseURL() string {
	return c.baseURL.String()
}

type call struct {
	endpoint    string
	method      string
	path        string
	query       url.Values
	creds       Credentials
	body        io.Reader
	contentType string
	out         any
}

// do executes a call and decodes a JSON response into call.out. It returns
// the cookies the API set so callers can relay them to the browser.
func (c *Client) do(ctx context.Context, cl call) ([]*http.Cookie, error) {
	target := *c.baseURL
	target.Path = strings.TrimRight(target.Path, "/") + cl.path
	if len(cl.query) > 0 {
		target.RawQuery = cl.query.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, cl.method, target.String(), cl.body)
	if err != nil {
		return nil, fmt.Errorf("backend: build %s request: %w", cl.endpoint, err)
	}
	req.Header.Set("Accept", "application/json")
	if cl.contentType != "" {
		req.Header.Set("Content-Type", cl.contentType)
	}
	cl.creds.apply(req)

	start := time.Now()
	res, err := c.http.Do(req)
	if err != nil {
		c.observe(cl.endpoint, 0, start)
		return nil, fmt.Errorf("%w: %s: %v", ErrUnavailable, cl.endpoint, err)
	}
	defer res.Body.Close()
	c.observe(cl.endpoint, res.StatusCode, start)

	if res.StatusCode < 200 || res.StatusCode > 299 {
		body, _ := io.ReadAll(io.LimitReader(res.Body, maxErrorBody))
		return res.Cookies(), decodeAPIError(res, body)
	}
	if cl.out == nil || res.StatusCode == http.StatusNoContent {
		_, _ = io.Copy(io.Discard, res.Body)
		return res.Cookies(), nil
	}
	if err := json.NewDecoder(res.Body).Decode(cl.out); err != nil {
		return res.Cookies(), fmt.Errorf("backend: decode %s response: %w", cl.endpoint, err)
	}
	return res.Cookies(), nil
}

func (c *Client) observe(endpoint string, code int, start time.Time) {
	if c.duration == nil {
		return
	}
	c.duration.WithLabelValues(endpoint, strconv.Itoa(code)).Observe(time.Since(start).Seconds())
}

func jsonBody(v any) (io.Reader, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	return bytes.NewReader(data), nil
}

// Relay hands cookies set by the API on to the browser. The domain is
// dropped so the cookies bind to this application's host.
func Relay(w http.ResponseWriter, cookies []*http.Cookie) {
	for _, c := range cookies {
		out := *c
		out.Domain = ""
		if out.Path == "" {
			out.Path = "/"
		}
		http.SetCookie(w, &out)
	}
}
