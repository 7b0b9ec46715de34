// Package giphy is the search provider backed by the Giphy HTTP API.
package giphy

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/mmcdole/gifterm/internal/domain"
	"github.com/mmcdole/gifterm/internal/metrics"
)

const (
	DefaultBaseURL = "https://api.giphy.com/v1/gifs"
	defaultTimeout = 30 * time.Second
	userAgent      = "gifterm/1.0"
	maxErrorBody   = 512
)

// Config holds the provider settings
type Config struct {
	APIKey  string
	BaseURL string        // Defaults to DefaultBaseURL
	Rating  string        // Optional content rating filter
	Lang    string        // Optional language code
	Timeout time.Duration // Defaults to 30s
}

// Client implements domain.SearchClient for Giphy
type Client struct {
	baseURL    string
	apiKey     string
	rating     string
	lang       string
	httpClient *http.Client
	logger     *slog.Logger
	metrics    *metrics.Metrics
}

// NewClient creates a new Giphy API client. m may be nil.
func NewClient(cfg Config, logger *slog.Logger, m *metrics.Metrics) *Client {
	if logger == nil {
		logger = slog.Default()
	}
	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		apiKey:  cfg.APIKey,
		rating:  cfg.Rating,
		lang:    cfg.Lang,
		httpClient: &http.Client{
			Timeout: timeout,
		},
		logger:  logger,
		metrics: m,
	}
}

// Search returns one page of GIFs matching query, starting at offset
func (c *Client) Search(ctx context.Context, query string, offset, limit int) (*domain.SearchPage, error) {
	start := time.Now()
	page, err := c.search(ctx, query, offset, limit)
	c.metrics.ObserveProviderRequest(domain.ErrorKind(err), time.Since(start))
	return page, err
}

func (c *Client) search(ctx context.Context, query string, offset, limit int) (*domain.SearchPage, error) {
	if c.apiKey == "" {
		return nil, domain.NewProviderError(domain.ErrConfiguration, errors.New("giphy api key is empty"))
	}
	if query == "" {
		return nil, domain.NewProviderError(domain.ErrMalformedRequest, errors.New("query is empty"))
	}
	if offset < 0 || limit <= 0 {
		return nil, domain.NewProviderError(domain.ErrMalformedRequest,
			fmt.Errorf("invalid paging offset=%d limit=%d", offset, limit))
	}

	params := url.Values{}
	params.Set("api_key", c.apiKey)
	params.Set("q", query)
	params.Set("limit", strconv.Itoa(limit))
	params.Set("offset", strconv.Itoa(offset))
	if c.rating != "" {
		params.Set("rating", c.rating)
	}
	if c.lang != "" {
		params.Set("lang", c.lang)
	}

	body, err := c.doRequest(ctx, "/search", params)
	if err != nil {
		return nil, err
	}

	resp, err := c.parseResponse(body)
	if err != nil {
		return nil, err
	}

	page := MapSearchPage(resp)
	c.logger.Debug("giphy search complete",
		"query", query, "offset", offset, "count", len(page.Gifs),
		"total", page.TotalCount, "response_id", page.ResponseID)
	return page, nil
}

// doRequest performs a GET against the API and returns the raw body
func (c *Client) doRequest(ctx context.Context, path string, params url.Values) ([]byte, error) {
	endpoint, err := url.Parse(c.baseURL + path)
	if err != nil {
		return nil, domain.NewProviderError(domain.ErrMalformedRequest, err)
	}
	if endpoint.Scheme == "" || endpoint.Host == "" {
		return nil, domain.NewProviderError(domain.ErrMalformedRequest,
			fmt.Errorf("base url %q is not absolute", c.baseURL))
	}
	endpoint.RawQuery = params.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint.String(), nil)
	if err != nil {
		return nil, domain.NewProviderError(domain.ErrMalformedRequest, err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", userAgent)

	c.logger.Debug("giphy request", "url", redact(endpoint))

	resp, err := c.httpClient.Do(req)
	if err != nil {
		var urlErr *url.Error
		if errors.As(err, &urlErr) {
			urlErr.URL = redact(endpoint)
		}
		c.logger.Debug("giphy request failed", "error", err)
		return nil, domain.NewProviderError(domain.ErrTransport, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, domain.NewProviderError(domain.ErrTransport, fmt.Errorf("failed to read response: %w", err))
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		c.logger.Error("giphy request rejected", "status", resp.StatusCode, "body", truncate(body, maxErrorBody))
		return nil, &domain.ProviderError{
			Kind:       domain.ErrServerRejection,
			StatusCode: resp.StatusCode,
			Err:        fmt.Errorf("%s", truncate(body, maxErrorBody)),
		}
	}

	return body, nil
}

// parseResponse decodes and validates a search body
func (c *Client) parseResponse(body []byte) (*SearchResponse, error) {
	var resp SearchResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		c.logger.Error("giphy decode failed", "error", err, "bodyLen", len(body))
		return nil, domain.NewProviderError(domain.ErrSchemaViolation, err)
	}
	if err := resp.Validate(); err != nil {
		c.logger.Error("giphy response invalid", "error", err)
		return nil, domain.NewProviderError(domain.ErrSchemaViolation, err)
	}
	return &resp, nil
}

// redact hides the api key in a request URL
func redact(u *url.URL) string {
	clone := *u
	q := clone.Query()
	if q.Has("api_key") {
		q.Set("api_key", "REDACTED")
	}
	clone.RawQuery = q.Encode()
	return clone.String()
}

func truncate(body []byte, limit int) string {
	if len(body) <= limit {
		return string(body)
	}
	return string(body[:limit]) + "..."
}
