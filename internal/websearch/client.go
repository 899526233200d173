package websearch

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/go-resty/resty/v2"

	"github.com/hession/searxmate/internal/logger"
)

const (
	DefaultBaseURL   = "http://localhost:8080"
	DefaultTimeout   = 30 * time.Second
	DefaultCount     = 2
	DefaultUserAgent = "searxmate/0.1"

	searchPath = "/search"
)

// ClientConfig is the constructor-time configuration of a Client.
// Zero values fall back to the Default* constants.
type ClientConfig struct {
	BaseURL      string
	Timeout      time.Duration
	DefaultCount int
	UserAgent    string
	APIKey       string
	Language     string
	SafeSearch   *int
}

// Option customizes a Client.
type Option func(*clientOptions)

type clientOptions struct {
	httpClient *http.Client
	transport  http.RoundTripper
}

// WithHTTPClient makes the client send requests through hc.
func WithHTTPClient(hc *http.Client) Option {
	return func(o *clientOptions) {
		o.httpClient = hc
	}
}

// WithTransport replaces the underlying round tripper.
func WithTransport(rt http.RoundTripper) Option {
	return func(o *clientOptions) {
		o.transport = rt
	}
}

// Client talks to a SearXNG instance over its HTTP search API.
// It holds no mutable state and is safe for concurrent use.
type Client struct {
	baseURL   string
	searchURL string
	cfg       ClientConfig
	rest      *resty.Client
}

var _ Searcher = (*Client)(nil)

// NewClient validates cfg and builds a client.
func NewClient(cfg ClientConfig, opts ...Option) (*Client, error) {
	baseURL := strings.TrimSpace(cfg.BaseURL)
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	baseURL = strings.TrimRight(baseURL, "/")

	parsed, err := url.Parse(baseURL)
	if err != nil {
		return nil, invalidArgument("base_url", fmt.Sprintf("is not a valid URL: %v", err))
	}
	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return nil, invalidArgument("base_url", fmt.Sprintf("must use http or https, got %q", parsed.Scheme))
	}
	if parsed.Host == "" {
		return nil, invalidArgument("base_url", "must include a host")
	}

	if cfg.Timeout < 0 {
		return nil, invalidArgument("timeout", "must be a positive duration")
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = DefaultTimeout
	}
	if cfg.DefaultCount < 0 {
		return nil, invalidArgument("default_count", "must be greater than 0")
	}
	if cfg.DefaultCount == 0 {
		cfg.DefaultCount = DefaultCount
	}
	if strings.TrimSpace(cfg.UserAgent) == "" {
		cfg.UserAgent = DefaultUserAgent
	}
	if cfg.SafeSearch != nil && (*cfg.SafeSearch < 0 || *cfg.SafeSearch > 2) {
		return nil, invalidArgument("safesearch", "must be 0, 1 or 2")
	}
	cfg.BaseURL = baseURL
	cfg.APIKey = strings.TrimSpace(cfg.APIKey)

	var o clientOptions
	for _, opt := range opts {
		opt(&o)
	}

	var rest *resty.Client
	if o.httpClient != nil {
		rest = resty.NewWithClient(o.httpClient)
	} else {
		rest = resty.New()
	}
	if o.transport != nil {
		rest.SetTransport(o.transport)
	}
	rest.
		SetTimeout(cfg.Timeout).
		SetRetryCount(0).
		SetHeader("User-Agent", cfg.UserAgent).
		SetLogger(restyLogger{})

	searchURL := *parsed
	searchURL.Path = strings.TrimRight(searchURL.Path, "/") + searchPath

	return &Client{
		baseURL:   baseURL,
		searchURL: searchURL.String(),
		cfg:       cfg,
		rest:      rest,
	}, nil
}

// BaseURL returns the normalized instance URL.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// DefaultCount returns the result count used by Run.
func (c *Client) DefaultCount() int {
	return c.cfg.DefaultCount
}

// Page is the undecoded outcome of a single upstream request.
type Page struct {
	Format Format
	HTML   string       // set for FormatHTML
	Raw    *RawResponse // set for FormatJSON
}

// Fetch performs exactly one GET against /search. JSON pages are decoded,
// HTML pages are returned as the raw body.
func (c *Client) Fetch(ctx context.Context, q Query) (*Page, error) {
	if q.Format == "" {
		q.Format = FormatJSON
	}
	if err := q.Validate(); err != nil {
		return nil, err
	}

	start := time.Now()
	logger.Debug("searxng request: query=%q format=%s page=%d", q.Text, q.Format, q.Page)

	resp, err := c.rest.R().
		SetContext(ctx).
		SetQueryParams(c.params(q)).
		Get(c.searchURL)
	if err != nil {
		logger.Warn("searxng request to %s failed: %v", c.searchURL, err)
		return nil, &TransportError{Endpoint: c.searchURL, Err: err}
	}
	if !resp.IsSuccess() {
		logger.Warn("searxng request to %s returned status %d", c.searchURL, resp.StatusCode())
		return nil, &TransportError{
			Endpoint:   c.searchURL,
			StatusCode: resp.StatusCode(),
			Err:        bodyError(resp.Body()),
		}
	}

	page := &Page{Format: q.Format}
	if q.Format == FormatHTML {
		page.HTML = string(resp.Body())
	} else {
		raw, err := DecodeResponse(resp.Body())
		if err != nil {
			logger.Warn("searxng response from %s could not be decoded: %v", c.searchURL, err)
			return nil, &DecodeError{Endpoint: c.searchURL, Err: err}
		}
		page.Raw = raw
	}

	logger.Info("searxng search completed: query=%q format=%s elapsed=%s", q.Text, q.Format, time.Since(start).Round(time.Millisecond))
	return page, nil
}

// Search fetches q and shapes the response. HTML pages are parsed into
// results before shaping.
func (c *Client) Search(ctx context.Context, q Query) (*Shaped, error) {
	if q.Format == "" {
		q.Format = FormatJSON
	}
	if err := q.Validate(); err != nil {
		return nil, err
	}

	page, err := c.Fetch(ctx, q)
	if err != nil {
		return nil, err
	}

	raw := page.Raw
	if page.Format == FormatHTML {
		raw, err = ParseHTML(page.HTML)
		if err != nil {
			return nil, &DecodeError{Endpoint: c.searchURL, Err: err}
		}
	}

	shaped, err := Shape(raw, q.Count)
	if err != nil {
		return nil, err
	}
	shaped.Query = strings.TrimSpace(q.Text)
	return shaped, nil
}

// SearchJSON fetches q in JSON mode and returns the decoded payload.
func (c *Client) SearchJSON(ctx context.Context, q Query) (*RawResponse, error) {
	q.Format = FormatJSON
	page, err := c.Fetch(ctx, q)
	if err != nil {
		return nil, err
	}
	return page.Raw, nil
}

// SearchHTML fetches q without a format parameter and returns the HTML body.
func (c *Client) SearchHTML(ctx context.Context, q Query) (string, error) {
	q.Format = FormatHTML
	if q.Count == 0 {
		q.Count = c.cfg.DefaultCount
	}
	page, err := c.Fetch(ctx, q)
	if err != nil {
		return "", err
	}
	return page.HTML, nil
}

// Run returns a single summary string for text.
func (c *Client) Run(ctx context.Context, text string) (string, error) {
	shaped, err := c.Search(ctx, c.query(text, c.cfg.DefaultCount))
	if err != nil {
		return "", err
	}
	return shaped.Summary, nil
}

// Results returns up to count shaped entries for text in upstream order.
func (c *Client) Results(ctx context.Context, text string, count int) ([]Entry, error) {
	shaped, err := c.Search(ctx, c.query(text, count))
	if err != nil {
		return nil, err
	}
	return shaped.Entries, nil
}

func (c *Client) query(text string, count int) Query {
	return Query{
		Text:   text,
		Count:  count,
		Format: FormatJSON,
	}
}

func (c *Client) params(q Query) map[string]string {
	params := map[string]string{
		"q": strings.TrimSpace(q.Text),
	}
	if q.Format == FormatJSON {
		params["format"] = string(FormatJSON)
	}

	language := q.Language
	if language == "" {
		language = c.cfg.Language
	}
	if language != "" {
		params["language"] = language
	}
	if q.Page > 1 {
		params["pageno"] = strconv.Itoa(q.Page)
	}
	if q.Categories != "" {
		params["categories"] = q.Categories
	}
	if q.TimeRange != "" {
		params["time_range"] = q.TimeRange
	}

	safeSearch := q.SafeSearch
	if safeSearch == nil {
		safeSearch = c.cfg.SafeSearch
	}
	if safeSearch != nil {
		params["safesearch"] = strconv.Itoa(*safeSearch)
	}
	if c.cfg.APIKey != "" {
		params["apikey"] = c.cfg.APIKey
	}
	return params
}

func bodyError(body []byte) error {
	text := strings.TrimSpace(string(body))
	if text == "" {
		return nil
	}
	const max = 200
	if len(text) > max {
		cut := max
		for cut > 0 && !utf8.RuneStart(text[cut]) {
			cut--
		}
		text = text[:cut] + "..."
	}
	return errors.New(text)
}

// restyLogger routes resty's internal messages into the application log.
type restyLogger struct{}

func (restyLogger) Errorf(format string, v ...interface{}) {
	logger.Error("resty: "+format, v...)
}

func (restyLogger) Warnf(format string, v ...interface{}) {
	logger.Warn("resty: "+format, v...)
}

func (restyLogger) Debugf(format string, v ...interface{}) {
	logger.Debug("resty: "+format, v...)
}
