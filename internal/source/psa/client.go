// Package psa is the REST client for the PSA system of record. It issues
// authenticated, paginated GET requests and normalizes the loosely-typed
// remote payloads into model types.
package psa

import (
	"context"
	"encoding/base64"
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

	"github.com/cenkalti/backoff/v4"

	"github.com/nhle/engineer-metrics/internal/model"
	"github.com/nhle/engineer-metrics/internal/source"
)

// MaxPageSize is the largest page the remote API will return.
const MaxPageSize = 1000

// Client is a thin HTTP client for the PSA REST API. It attaches a
// pre-computed credential header to every request and retries rate-limited
// and transient gateway responses with exponential backoff.
type Client struct {
	baseURL    string
	authHeader string
	clientID   string
	httpClient *http.Client
	maxRetries int
	pageSize   int
	newBackOff func() backoff.BackOff
	logger     *slog.Logger
}

// ClientOption customizes a Client.
type ClientOption func(*Client)

// WithHTTPClient replaces the underlying HTTP client.
func WithHTTPClient(hc *http.Client) ClientOption {
	return func(c *Client) { c.httpClient = hc }
}

// WithBackOff replaces the retry schedule. The factory is called once per
// request because BackOff implementations are stateful.
func WithBackOff(newBackOff func() backoff.BackOff) ClientOption {
	return func(c *Client) { c.newBackOff = newBackOff }
}

// WithLogger sets the logger used for skipped records and retries.
func WithLogger(logger *slog.Logger) ClientOption {
	return func(c *Client) { c.logger = logger }
}

// NewClient creates a new PSA client from the connection settings.
func NewClient(cfg model.PSAConfig, opts ...ClientOption) *Client {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = model.DefaultHTTPTimeout
	}
	pageSize := cfg.PageSize
	if pageSize <= 0 || pageSize > MaxPageSize {
		pageSize = MaxPageSize
	}
	maxRetries := cfg.MaxRetries
	if maxRetries < 0 {
		maxRetries = 0
	}

	c := &Client{
		baseURL:    strings.TrimRight(cfg.BaseURL, "/"),
		authHeader: BasicAuthHeader(cfg.CompanyID, cfg.PublicKey, cfg.PrivateKey),
		clientID:   cfg.ClientID,
		httpClient: &http.Client{Timeout: timeout},
		maxRetries: maxRetries,
		pageSize:   pageSize,
		newBackOff: func() backoff.BackOff {
			bo := backoff.NewExponentialBackOff()
			bo.InitialInterval = time.Second
			bo.MaxInterval = 30 * time.Second
			return bo
		},
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// BasicAuthHeader computes the credential header value:
// "Basic base64(company+publicKey:privateKey)".
func BasicAuthHeader(companyID, publicKey, privateKey string) string {
	raw := companyID + "+" + publicKey + ":" + privateKey
	return "Basic " + base64.StdEncoding.EncodeToString([]byte(raw))
}

// PageSize returns the page size used by FetchAll.
func (c *Client) PageSize() int {
	return c.pageSize
}

// FetchPage retrieves one page of a resource collection as raw records.
func (c *Client) FetchPage(
	ctx context.Context,
	resource string,
	filters Filters,
	page int,
	pageSize int,
) ([]json.RawMessage, error) {
	if page < 1 {
		page = 1
	}
	if pageSize <= 0 || pageSize > MaxPageSize {
		pageSize = MaxPageSize
	}

	query := filters.values()
	query.Set("page", strconv.Itoa(page))
	query.Set("pageSize", strconv.Itoa(pageSize))

	var records []json.RawMessage
	if err := c.get(ctx, resource, query, &records); err != nil {
		return nil, err
	}
	return records, nil
}

// fetchAll pages through a resource until a short page is returned and
// decodes every record into T. Records that fail to decode are skipped.
func fetchAll[T any](
	ctx context.Context,
	c *Client,
	resource string,
	filters Filters,
) ([]T, error) {
	var out []T
	for page := 1; ; page++ {
		records, err := c.FetchPage(ctx, resource, filters, page, c.pageSize)
		if err != nil {
			return nil, fmt.Errorf("fetching %s page %d: %w", resource, page, err)
		}

		for i, raw := range records {
			var v T
			if err := json.Unmarshal(raw, &v); err != nil {
				c.logger.Warn("skipping undecodable record",
					"resource", resource, "page", page, "index", i, "error", err)
				continue
			}
			out = append(out, v)
		}

		if len(records) < c.pageSize {
			return out, nil
		}
	}
}

// get performs an HTTP GET and unmarshals the JSON response.
func (c *Client) get(
	ctx context.Context,
	path string,
	query url.Values,
	result interface{},
) error {
	reqURL := c.baseURL + "/" + strings.TrimLeft(path, "/")
	if len(query) > 0 {
		reqURL += "?" + query.Encode()
	}

	bo := backoff.WithContext(
		backoff.WithMaxRetries(c.newBackOff(), uint64(c.maxRetries)), ctx,
	)
	bo.Reset()

	for {
		retryAfter, err := c.attempt(ctx, reqURL, path, result)
		if err == nil {
			return nil
		}
		if !isTransient(err) || c.maxRetries == 0 {
			return err
		}

		wait := bo.NextBackOff()
		if wait == backoff.Stop {
			return err
		}
		if retryAfter > 0 {
			wait = retryAfter
		}

		c.logger.Debug("retrying request", "path", path, "wait", wait, "error", err)

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(wait):
		}
	}
}

// attempt sends a single request. It returns the server's Retry-After hint
// alongside any error.
func (c *Client) attempt(
	ctx context.Context,
	reqURL string,
	path string,
	result interface{},
) (time.Duration, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return 0, fmt.Errorf("creating request: %w", err)
	}

	req.Header.Set("Authorization", c.authHeader)
	req.Header.Set("clientId", c.clientID)
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return 0, fmt.Errorf("executing request GET %s: %w", path, err)
	}

	body, readErr := io.ReadAll(resp.Body)
	resp.Body.Close()
	if readErr != nil {
		return 0, fmt.Errorf("reading response body: %w", readErr)
	}

	switch {
	case resp.StatusCode == http.StatusUnauthorized ||
		resp.StatusCode == http.StatusForbidden:
		return 0, &source.AuthError{
			StatusCode: resp.StatusCode,
			Message: fmt.Sprintf(
				"request to %s rejected: check the PSA API keys and client id",
				path,
			),
		}
	case resp.StatusCode < 200 || resp.StatusCode >= 300:
		return retryAfterDuration(resp),
			source.NewAPIError(resp.StatusCode, http.MethodGet, path, body)
	}

	if result == nil || resp.StatusCode == http.StatusNoContent || len(body) == 0 {
		return 0, nil
	}

	if err := json.Unmarshal(body, result); err != nil {
		return 0, fmt.Errorf("unmarshaling response from GET %s: %w", path, err)
	}
	return 0, nil
}

// isTransient reports whether a failed attempt should be retried by the
// transport. Exhausted retries surface the error for classification.
func isTransient(err error) bool {
	var apiErr *source.APIError
	if !errors.As(err, &apiErr) {
		return false
	}
	switch apiErr.StatusCode {
	case http.StatusTooManyRequests,
		http.StatusBadGateway,
		http.StatusServiceUnavailable,
		http.StatusGatewayTimeout:
		return true
	}
	return false
}

// retryAfterDuration reads the Retry-After header in seconds.
func retryAfterDuration(resp *http.Response) time.Duration {
	header := resp.Header.Get("Retry-After")
	if header == "" {
		return 0
	}
	seconds, err := strconv.Atoi(header)
	if err != nil || seconds < 0 {
		return 0
	}
	return time.Duration(seconds) * time.Second
}
