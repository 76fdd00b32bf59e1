// Package lookup checks card names against the public Pokemon TCG API.
//
// The lookup is advisory: callers only block on a definite "no such card"
// from a healthy service. Every other outcome is Unknown.
package lookup

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/dmitrijs2005/cardkeeper/internal/common"
	"github.com/dmitrijs2005/cardkeeper/internal/logging"
)

const (
	DefaultBaseURL = "https://api.pokemontcg.io/v2"
	DefaultTimeout = 10 * time.Second
	HealthTimeout  = 5 * time.Second

	apiKeyHeader = "X-Api-Key"
	healthProbe  = "Pikachu"
)

var (
	ErrDisabled    = errors.New("card lookup disabled")
	ErrUnavailable = errors.New("card lookup unavailable")
)

type Verdict int

const (
	Unknown Verdict = iota
	Valid
	Invalid
)

func (v Verdict) String() string {
	switch v {
	case Valid:
		return "valid"
	case Invalid:
		return "invalid"
	default:
		return "unknown"
	}
}

// Result is the outcome of Validate. Reason is set for Invalid and Unknown.
type Result struct {
	Verdict Verdict
	Reason  string
}

// CardInfo is the subset of the API's card object we expose.
type CardInfo struct {
	ID        string   `json:"id"`
	Name      string   `json:"name"`
	Supertype string   `json:"supertype"`
	Subtypes  []string `json:"subtypes,omitempty"`
	HP        string   `json:"hp,omitempty"`
	Number    string   `json:"number"`
	Rarity    string   `json:"rarity,omitempty"`
	Set       struct {
		ID     string `json:"id"`
		Name   string `json:"name"`
		Series string `json:"series"`
	} `json:"set"`
	Images struct {
		Small string `json:"small"`
		Large string `json:"large"`
	} `json:"images"`
}

type searchResponse struct {
	Data       []CardInfo `json:"data"`
	TotalCount int        `json:"totalCount"`
}

type Config struct {
	Enabled bool
	BaseURL string
	APIKey  string
	Timeout time.Duration
}

type Client struct {
	cfg    Config
	http   *http.Client
	logger logging.Logger
}

type Option func(*Client)

func WithHTTPClient(h *http.Client) Option {
	return func(c *Client) { c.http = h }
}

func WithLogger(l logging.Logger) Option {
	return func(c *Client) { c.logger = l }
}

func New(cfg Config, opts ...Option) *Client {
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	cfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}
	c := &Client{cfg: cfg, http: &http.Client{}, logger: logging.NewNopLogger()}
	for _, opt := range opts {
		opt(c)
	}
	c.logger = c.logger.With("module", "lookup")
	return c
}

func (c *Client) Enabled() bool {
	return c.cfg.Enabled
}

// search queries /cards for an exact name. Any transport, status or decoding
// failure is reported as ErrUnavailable.
func (c *Client) search(ctx context.Context, name string, pageSize int, timeout time.Duration) (*searchResponse, error) {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	q := url.Values{
		"q":        {fmt.Sprintf("name:%q", name)},
		"pageSize": {strconv.Itoa(pageSize)},
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.cfg.BaseURL+"/cards?"+q.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	req.Header.Set("Accept", "application/json")
	if c.cfg.APIKey != "" {
		req.Header.Set(apiKeyHeader, c.cfg.APIKey)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		c.logger.Warn(ctx, "lookup request failed", "name", name, "error", err)
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		c.logger.Warn(ctx, "lookup rejected", "name", name, "status", resp.StatusCode)
		return nil, fmt.Errorf("%w: status %d", ErrUnavailable, resp.StatusCode)
	}

	var out searchResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("%w: decode: %v", ErrUnavailable, err)
	}
	return &out, nil
}

// Validate reports whether name is a known card.
func (c *Client) Validate(ctx context.Context, name string) Result {
	if !c.cfg.Enabled {
		return Result{Verdict: Unknown, Reason: ErrDisabled.Error()}
	}
	name = strings.TrimSpace(name)
	if name == "" {
		return Result{Verdict: Invalid, Reason: "Card name cannot be empty"}
	}

	resp, err := c.search(ctx, name, 1, c.cfg.Timeout)
	if err != nil {
		return Result{Verdict: Unknown, Reason: err.Error()}
	}
	if len(resp.Data) == 0 {
		return Result{Verdict: Invalid, Reason: fmt.Sprintf("'%s' is not a valid Pokemon card", name)}
	}
	return Result{Verdict: Valid}
}

// Search returns up to limit cards named query.
func (c *Client) Search(ctx context.Context, query string, limit int) ([]CardInfo, error) {
	if !c.cfg.Enabled {
		return nil, ErrDisabled
	}
	query = strings.TrimSpace(query)
	if query == "" {
		return []CardInfo{}, nil
	}
	if limit <= 0 {
		limit = 10
	}
	resp, err := c.search(ctx, query, limit, c.cfg.Timeout)
	if err != nil {
		return nil, err
	}
	if resp.Data == nil {
		return []CardInfo{}, nil
	}
	return resp.Data, nil
}

// Details prefers a case-insensitive exact name match over the first hit.
func (c *Client) Details(ctx context.Context, name string) (*CardInfo, error) {
	found, err := c.Search(ctx, name, 10)
	if err != nil {
		return nil, err
	}
	for i := range found {
		if strings.EqualFold(found[i].Name, strings.TrimSpace(name)) {
			return &found[i], nil
		}
	}
	if len(found) > 0 {
		return &found[0], nil
	}
	return nil, &common.NotFoundError{Resource: "pokemon card", ID: name}
}

// HealthCheck probes the API with a short timeout.
func (c *Client) HealthCheck(ctx context.Context) (bool, string) {
	if !c.cfg.Enabled {
		return false, "API validation is disabled"
	}
	if _, err := c.search(ctx, healthProbe, 1, HealthTimeout); err != nil {
		return false, err.Error()
	}
	return true, "API is healthy"
}
