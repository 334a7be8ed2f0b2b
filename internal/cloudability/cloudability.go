// Package cloudability is the HTTP client for the Cloudability v3 cost
// report API. Results are paged; Fetch returns a cursor that requests the
// next page only once the current one is drained, so a run never holds more
// than one page of raw rows per view.
package cloudability

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	log "github.com/sirupsen/logrus"

	"cloudreport/internal/errs"
	"cloudreport/internal/model"
)

const (
	defaultBaseURL         = "https://api.cloudability.com/v3"
	defaultReportPath      = "/reports/cost"
	defaultPageSize        = 5000
	defaultTimeoutSeconds  = 30
	defaultRateLimitPerSec = 2
	defaultRateLimitBurst  = 2
	defaultUserAgent       = "cloudreport/0.1"
)

// EnvAPIKey is the environment variable holding the API key. No request is
// attempted without it.
const EnvAPIKey = "CLOUDABILITY_API_KEY"

// Config holds client settings. Zero fields fall back to defaults in
// NewWithConfig; APIKey is the only required field.
type Config struct {
	BaseURL         string
	ReportPath      string
	APIKey          string
	PageSize        int
	Timeout         time.Duration
	UserAgent       string
	RateLimitPerSec int
	RateLimitBurst  int
}

// ConfigFromEnv builds a Config from environment variables.
func ConfigFromEnv() Config {
	return Config{
		BaseURL:         getenv("CLOUDABILITY_BASE_URL", defaultBaseURL),
		ReportPath:      getenv("CLOUDABILITY_REPORT_PATH", defaultReportPath),
		APIKey:          strings.TrimSpace(os.Getenv(EnvAPIKey)),
		PageSize:        getenvInt("CLOUDABILITY_PAGE_SIZE", defaultPageSize),
		Timeout:         time.Duration(getenvInt("CLOUDABILITY_TIMEOUT_SECONDS", defaultTimeoutSeconds)) * time.Second,
		UserAgent:       getenv("CLOUDABILITY_USER_AGENT", defaultUserAgent),
		RateLimitPerSec: getenvInt("CLOUDABILITY_RATE_LIMIT_PER_SEC", defaultRateLimitPerSec),
		RateLimitBurst:  getenvInt("CLOUDABILITY_RATE_LIMIT_BURST", defaultRateLimitBurst),
	}
}

// Client issues authenticated report requests.
type Client struct {
	config  Config
	client  *http.Client
	limiter *rateLimiter
	logger  log.FieldLogger
}

// New builds a client from the environment.
func New(logger log.FieldLogger) (*Client, error) {
	return NewWithConfig(logger, ConfigFromEnv())
}

// NewWithConfig builds a client, applying defaults for unset fields. A
// missing API key fails here, before any request is made.
func NewWithConfig(logger log.FieldLogger, cfg Config) (*Client, error) {
	if strings.TrimSpace(cfg.APIKey) == "" {
		return nil, errs.ConfigInvalid(EnvAPIKey + " is required")
	}
	if strings.TrimSpace(cfg.BaseURL) == "" {
		cfg.BaseURL = defaultBaseURL
	}
	if strings.TrimSpace(cfg.ReportPath) == "" {
		cfg.ReportPath = defaultReportPath
	}
	if cfg.PageSize <= 0 {
		cfg.PageSize = defaultPageSize
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = defaultTimeoutSeconds * time.Second
	}
	if cfg.UserAgent == "" {
		cfg.UserAgent = defaultUserAgent
	}
	if cfg.RateLimitPerSec <= 0 {
		cfg.RateLimitPerSec = defaultRateLimitPerSec
	}
	if cfg.RateLimitBurst <= 0 {
		cfg.RateLimitBurst = defaultRateLimitBurst
	}

	return &Client{
		config:  cfg,
		client:  &http.Client{Timeout: cfg.Timeout},
		limiter: newRateLimiter(cfg.RateLimitPerSec, cfg.RateLimitBurst),
		logger:  logger,
	}, nil
}

// Fetch returns a cursor over the cost line items for one view and date
// range. No request happens until the first Next call.
func (c *Client) Fetch(view model.ViewSpec, dates model.DateRange) *Cursor {
	return &Cursor{client: c, view: view, dates: dates}
}

// Cursor walks a paged result set one row at a time.
type Cursor struct {
	client *Client
	view   model.ViewSpec
	dates  model.DateRange

	offset int
	buf    []model.RawRow
	pos    int
	done   bool
}

// Next returns the next row. The second return is false once the sequence
// is exhausted. A page fetch failure ends the cursor.
func (cur *Cursor) Next(ctx context.Context) (model.RawRow, bool, error) {
	if cur.pos < len(cur.buf) {
		row := cur.buf[cur.pos]
		cur.pos++
		return row, true, nil
	}
	if cur.done {
		return nil, false, nil
	}

	rows, err := cur.client.fetchPage(ctx, cur.view, cur.dates, cur.offset)
	if err != nil {
		cur.done = true
		return nil, false, err
	}
	cur.offset += len(rows)
	if len(rows) < cur.client.config.PageSize {
		cur.done = true
	}
	if len(rows) == 0 {
		return nil, false, nil
	}
	cur.buf = rows
	cur.pos = 1
	return rows[0], true, nil
}

func (c *Client) fetchPage(ctx context.Context, view model.ViewSpec, dates model.DateRange, offset int) ([]model.RawRow, error) {
	params := url.Values{}
	params.Set("start_date", dates.StartString())
	params.Set("end_date", dates.EndString())
	for _, dimension := range view.Dimensions {
		params.Add("dimensions", dimension)
	}
	for _, metric := range view.Metrics {
		params.Add("metrics", metric)
	}
	params.Set("limit", strconv.Itoa(c.config.PageSize))
	if offset > 0 {
		params.Set("offset", strconv.Itoa(offset))
	}

	c.logger.WithFields(log.Fields{
		"view":   view.Name,
		"offset": offset,
		"start":  dates.StartString(),
		"end":    dates.EndString(),
	}).Debug("fetching report page")

	body, err := c.doRequest(ctx, c.reportURL(), params)
	if err != nil {
		return nil, err
	}
	return parseRows(body)
}

func (c *Client) reportURL() string {
	return strings.TrimRight(c.config.BaseURL, "/") + "/" + strings.TrimLeft(c.config.ReportPath, "/")
}

func (c *Client) doRequest(ctx context.Context, endpoint string, params url.Values) ([]byte, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	uri := endpoint
	if len(params) > 0 {
		uri += "?" + params.Encode()
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, uri, nil)
	if err != nil {
		return nil, errs.WithCode(errs.CodeAPIError, err)
	}
	req.Header.Set("Authorization", "Bearer "+c.config.APIKey)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	if c.config.UserAgent != "" {
		req.Header.Set("User-Agent", c.config.UserAgent)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, errs.Newf(errs.CodeAPIError, "request failed: %v", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, errs.Newf(errs.CodeAPIError, "reading response body failed: %v", err)
	}
	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		return nil, errs.Newf(errs.CodeAPIError, "request failed (%s): %s", resp.Status, strings.TrimSpace(string(body)))
	}
	return body, nil
}

// parseRows unwraps the {"data": [...]} envelope.
func parseRows(body []byte) ([]model.RawRow, error) {
	var payload map[string]any
	if err := json.Unmarshal(body, &payload); err != nil {
		return nil, errs.Newf(errs.CodeAPIError, "response body is not valid JSON: %v", err)
	}
	items, ok := payload["data"].([]any)
	if !ok {
		return nil, errs.APIError("unexpected response shape: missing data array")
	}

	rows := make([]model.RawRow, 0, len(items))
	for _, item := range items {
		row, ok := item.(map[string]any)
		if !ok {
			return nil, errs.APIError("unexpected response shape: non-object row")
		}
		rows = append(rows, row)
	}
	return rows, nil
}

type rateLimiter struct {
	tokens chan struct{}
}

func newRateLimiter(ratePerSec, burst int) *rateLimiter {
	if ratePerSec <= 0 {
		return nil
	}
	if burst <= 0 {
		burst = 1
	}

	limiter := &rateLimiter{tokens: make(chan struct{}, burst)}
	for i := 0; i < burst; i++ {
		limiter.tokens <- struct{}{}
	}

	interval := time.Second / time.Duration(ratePerSec)
	if interval <= 0 {
		interval = time.Second
	}
	ticker := time.NewTicker(interval)
	go func() {
		for range ticker.C {
			select {
			case limiter.tokens <- struct{}{}:
			default:
			}
		}
	}()

	return limiter
}

func (l *rateLimiter) Wait(ctx context.Context) error {
	if l == nil {
		return nil
	}
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-l.tokens:
		return nil
	}
}

func getenv(key, fallback string) string {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return fallback
	}
	return value
}

func getenvInt(key string, fallback int) int {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		return fallback
	}
	return parsed
}
