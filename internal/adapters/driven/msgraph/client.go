package msgraph

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"sync"
	"time"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/clientcredentials"
	"golang.org/x/time/rate"

	"github.com/custodia-labs/sharewatch-cli/internal/logger"
)

const (
	// DefaultBaseURL is the Graph API v1.0 endpoint.
	DefaultBaseURL = "https://graph.microsoft.com/v1.0"

	// DefaultTimeout is the default HTTP request timeout.
	DefaultTimeout = 30 * time.Second

	// MaxRetries is the maximum number of attempts per request.
	MaxRetries = 4

	// DefaultRetryAfter is used when a throttling response carries no
	// Retry-After header.
	DefaultRetryAfter = 5 * time.Second
)

// Config describes the app-only Graph client.
type Config struct {
	TenantID     string
	ClientID     string
	ClientSecret string

	// Delay paces successive requests. Zero disables pacing.
	Delay time.Duration

	// BaseURL overrides the API endpoint, for tests.
	BaseURL string

	// HTTPClient overrides the HTTP client, for tests.
	HTTPClient *http.Client

	// TokenSource overrides client-credentials token acquisition,
	// for tests.
	TokenSource oauth2.TokenSource
}

// Client is an app-only Graph API client with pagination, throttling
// backoff, and token refresh.
type Client struct {
	baseURL string
	http    *http.Client
	limiter *rate.Limiter
	creds   *clientcredentials.Config

	mu     sync.Mutex
	tokens oauth2.TokenSource
}

// NewClient creates a Graph client authenticating with client
// credentials against the tenant.
func NewClient(cfg Config) *Client {
	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: DefaultTimeout}
	}

	limit := rate.Inf
	if cfg.Delay > 0 {
		limit = rate.Every(cfg.Delay)
	}

	c := &Client{
		baseURL: baseURL,
		http:    httpClient,
		limiter: rate.NewLimiter(limit, 1),
		tokens:  cfg.TokenSource,
	}
	if c.tokens == nil {
		c.creds = &clientcredentials.Config{
			ClientID:     cfg.ClientID,
			ClientSecret: cfg.ClientSecret,
			TokenURL:     fmt.Sprintf("https://login.microsoftonline.com/%s/oauth2/v2.0/token", cfg.TenantID),
			Scopes:       []string{"https://graph.microsoft.com/.default"},
		}
	}
	return c
}

// BaseURL returns the API endpoint the client talks to.
func (c *Client) BaseURL() string {
	return c.baseURL
}

func (c *Client) token(ctx context.Context) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.tokens == nil {
		c.tokens = c.creds.TokenSource(ctx)
	}
	tok, err := c.tokens.Token()
	if err != nil {
		return "", fmt.Errorf("acquire token: %w", err)
	}
	return tok.AccessToken, nil
}

// invalidateToken drops the cached token source so the next request
// authenticates afresh.
func (c *Client) invalidateToken() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.creds != nil {
		c.tokens = nil
	}
}

// get performs a GET with retry on throttling, server errors, and
// expired tokens.
func (c *Client) get(ctx context.Context, url string) ([]byte, error) {
	var lastErr error

	for attempt := 0; attempt < MaxRetries; attempt++ {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, err
		}

		token, err := c.token(ctx)
		if err != nil {
			return nil, err
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
		if err != nil {
			return nil, fmt.Errorf("build request: %w", err)
		}
		req.Header.Set("Authorization", "Bearer "+token)

		resp, err := c.http.Do(req)
		if err != nil {
			return nil, fmt.Errorf("request %s: %w", url, err)
		}
		body, readErr := io.ReadAll(resp.Body)
		resp.Body.Close()

		switch {
		case resp.StatusCode == http.StatusTooManyRequests:
			wait := retryAfter(resp, DefaultRetryAfter)
			logger.Warn("Rate limited. Waiting %s...", wait)
			lastErr = &RateLimitError{RetryAfter: wait}
			if err := sleepCtx(ctx, wait); err != nil {
				return nil, err
			}
			continue

		case resp.StatusCode == http.StatusUnauthorized:
			c.invalidateToken()
			lastErr = newAPIError(resp.StatusCode, body, url)
			continue

		case resp.StatusCode >= 500:
			lastErr = newAPIError(resp.StatusCode, body, url)
			if attempt < MaxRetries-1 {
				wait := time.Duration(1<<attempt) * time.Second
				logger.Warn("Server error %d. Retrying in %s...", resp.StatusCode, wait)
				if err := sleepCtx(ctx, wait); err != nil {
					return nil, err
				}
				continue
			}
			return nil, lastErr

		case resp.StatusCode >= 400:
			return nil, newAPIError(resp.StatusCode, body, url)
		}

		if readErr != nil {
			return nil, fmt.Errorf("read response %s: %w", url, readErr)
		}
		return body, nil
	}
	return nil, lastErr
}

// getJSON decodes a GET response into out.
func (c *Client) getJSON(ctx context.Context, url string, out any) error {
	body, err := c.get(ctx, url)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("decode response %s: %w", url, err)
	}
	return nil
}

// page is one response of a paged collection. Delta responses replace
// the next link with a delta link on the final page.
type page struct {
	Value     []json.RawMessage `json:"value"`
	NextLink  string            `json:"@odata.nextLink"`
	DeltaLink string            `json:"@odata.deltaLink"`
}

// getPaged follows @odata.nextLink pagination and returns all items
// plus the delta link of the final page, when present.
func (c *Client) getPaged(ctx context.Context, url string) ([]json.RawMessage, string, error) {
	var items []json.RawMessage
	for url != "" {
		var p page
		if err := c.getJSON(ctx, url, &p); err != nil {
			return nil, "", err
		}
		items = append(items, p.Value...)
		if p.NextLink == "" {
			return items, p.DeltaLink, nil
		}
		url = p.NextLink
	}
	return items, "", nil
}

// decodeItems unmarshals a raw item list into typed values.
func decodeItems[T any](raw []json.RawMessage) ([]T, error) {
	out := make([]T, 0, len(raw))
	for _, r := range raw {
		var v T
		if err := json.Unmarshal(r, &v); err != nil {
			return nil, fmt.Errorf("decode item: %w", err)
		}
		out = append(out, v)
	}
	return out, nil
}

func retryAfter(resp *http.Response, fallback time.Duration) time.Duration {
	header := resp.Header.Get("Retry-After")
	if header == "" {
		return fallback
	}
	seconds, err := strconv.Atoi(header)
	if err != nil || seconds <= 0 {
		return fallback
	}
	return time.Duration(seconds) * time.Second
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(d):
		return nil
	}
}
