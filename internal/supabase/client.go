// Package supabase is a thin HTTP client for a hosted Supabase project:
// PostgREST for tables and stored procedures, GoTrue for identities.
//
// Every request carries the project key in the apikey header. The bearer
// credential is either the same key (service mode, bypasses row-level
// policies) or a user's access token (user mode, the service scopes every
// read and write to that user).
package supabase

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/dmitrijs2005/cardkeeper/internal/common"
	"github.com/dmitrijs2005/cardkeeper/internal/logging"
)

const (
	DefaultTimeout = 10 * time.Second
	HealthTimeout  = 5 * time.Second

	restPrefix = "/rest/v1"
	authPrefix = "/auth/v1"
)

// Mode tells which credential signs the requests.
type Mode int

const (
	ModeService Mode = iota
	ModeUser
)

func (m Mode) String() string {
	if m == ModeUser {
		return "user"
	}
	return "service"
}

// Client talks to one Supabase project. It is safe for concurrent use.
type Client struct {
	baseURL *url.URL
	apiKey  string
	bearer  string
	mode    Mode
	timeout time.Duration
	http    *http.Client
	logger  logging.Logger
}

type Option func(*Client)

// WithHTTPClient replaces the default http.Client.
func WithHTTPClient(h *http.Client) Option {
	return func(c *Client) { c.http = h }
}

// WithTimeout sets the per-request timeout of data calls.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) { c.timeout = d }
}

func WithLogger(l logging.Logger) Option {
	return func(c *Client) { c.logger = l }
}

// ValidateURL checks that raw is an absolute http(s) URL with a host.
func ValidateURL(raw string) (*url.URL, error) {
	u, err := url.Parse(strings.TrimSpace(raw))
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return nil, &common.ConfigError{Key: "SUPABASE_URL", Message: fmt.Sprintf("%q is not an http(s) URL", raw)}
	}
	return u, nil
}

// New builds a service-mode client. Both the URL and the key are required.
func New(rawURL, apiKey string, opts ...Option) (*Client, error) {
	u, err := ValidateURL(rawURL)
	if err != nil {
		return nil, err
	}
	if apiKey == "" {
		return nil, &common.ConfigError{Key: "SUPABASE_KEY", Message: "must be set"}
	}
	u.Path = strings.TrimRight(u.Path, "/")

	c := &Client{
		baseURL: u,
		apiKey:  apiKey,
		bearer:  apiKey,
		mode:    ModeService,
		timeout: DefaultTimeout,
		http:    &http.Client{},
		logger:  logging.NewNopLogger(),
	}
	for _, opt := range opts {
		opt(c)
	}
	c.logger = c.logger.With("module", "supabase")
	return c, nil
}

// WithUserToken returns a copy of c that signs requests with a user's access
// token. The service then applies row-level authorization for that user.
func (c *Client) WithUserToken(token string) *Client {
	cp := *c
	cp.bearer = token
	cp.mode = ModeUser
	return &cp
}

func (c *Client) Mode() Mode {
	return c.mode
}

// Request describes one call. Path is relative to the project URL.
type Request struct {
	Method string
	Path   string
	Query  url.Values
	Body   any
	// Prefer is sent as the PostgREST Prefer header when set.
	Prefer string
	// Bearer overrides the client's credential for this call.
	Bearer  string
	Timeout time.Duration
}

// APIError is a non-2xx answer from the service.
type APIError struct {
	Status  int
	Code    string
	Message string
}

func (e *APIError) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("supabase: %d %s: %s", e.Status, e.Code, e.Message)
	}
	return fmt.Sprintf("supabase: %d: %s", e.Status, e.Message)
}

// Unwrap classifies the failure: credentials, reachability or anything else.
func (e *APIError) Unwrap() error {
	switch e.Status {
	case http.StatusUnauthorized, http.StatusForbidden:
		return common.ErrUnauthorized
	case http.StatusBadGateway, http.StatusServiceUnavailable, http.StatusGatewayTimeout:
		return common.ErrStorageUnavailable
	default:
		return common.ErrStorage
	}
}

// errorBody covers both PostgREST and GoTrue error payloads.
type errorBody struct {
	Code             any    `json:"code"`
	Message          string `json:"message"`
	Msg              string `json:"msg"`
	Error            string `json:"error"`
	ErrorDescription string `json:"error_description"`
	ErrorCode        string `json:"error_code"`
}

func parseAPIError(status int, raw []byte) *APIError {
	e := &APIError{Status: status}
	var b errorBody
	if json.Unmarshal(raw, &b) == nil {
		switch code := b.Code.(type) {
		case string:
			e.Code = code
		case float64:
			e.Code = fmt.Sprint(int(code))
		}
		if e.Code == "" {
			e.Code = b.ErrorCode
		}
		for _, m := range []string{b.Message, b.Msg, b.ErrorDescription, b.Error} {
			if m != "" {
				e.Message = m
				break
			}
		}
	}
	if e.Message == "" {
		e.Message = strings.TrimSpace(string(raw))
	}
	if e.Message == "" {
		e.Message = http.StatusText(status)
	}
	return e
}

// Do performs r and decodes a JSON answer into out (when out is non-nil and
// the body is not empty). Transport failures wrap common.ErrStorageUnavailable;
// non-2xx answers are *APIError.
func (c *Client) Do(ctx context.Context, r Request, out any) error {
	timeout := r.Timeout
	if timeout == 0 {
		timeout = c.timeout
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	u := *c.baseURL
	u.Path = c.baseURL.Path + r.Path
	if len(r.Query) > 0 {
		u.RawQuery = r.Query.Encode()
	}

	var body io.Reader
	if r.Body != nil {
		b, err := json.Marshal(r.Body)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		body = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, r.Method, u.String(), body)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}

	bearer := c.bearer
	if r.Bearer != "" {
		bearer = r.Bearer
	}
	req.Header.Set(common.APIKeyHeader, c.apiKey)
	req.Header.Set(common.AuthorizationHeader, common.BearerPrefix+bearer)
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if r.Prefer != "" {
		req.Header.Set("Prefer", r.Prefer)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		c.logger.Error(ctx, "request failed", "method", r.Method, "path", r.Path, "mode", c.mode.String(), "error", err)
		return fmt.Errorf("%s %s: %w: %v", r.Method, r.Path, common.ErrStorageUnavailable, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("%s %s: %w: read body: %v", r.Method, r.Path, common.ErrStorageUnavailable, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		apiErr := parseAPIError(resp.StatusCode, raw)
		c.logger.Warn(ctx, "request rejected", "method", r.Method, "path", r.Path, "status", resp.StatusCode, "code", apiErr.Code)
		return apiErr
	}

	if out == nil || len(bytes.TrimSpace(raw)) == 0 {
		return nil
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("%s %s: %w: decode response: %v", r.Method, r.Path, common.ErrStorage, err)
	}
	return nil
}

// Rest is a shorthand for a PostgREST table or rpc path.
func Rest(resource string) string {
	return restPrefix + "/" + strings.TrimLeft(resource, "/")
}

// Ping checks that the REST endpoint answers, using the short health timeout.
func (c *Client) Ping(ctx context.Context) error {
	err := c.Do(ctx, Request{Method: http.MethodGet, Path: restPrefix + "/", Timeout: HealthTimeout}, nil)
	var apiErr *APIError
	// PostgREST answers the root with the OpenAPI document or 404 depending on
	// exposure settings; both prove the service is up.
	if errors.As(err, &apiErr) && apiErr.Status == http.StatusNotFound {
		return nil
	}
	return err
}
