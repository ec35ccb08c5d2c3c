package msgraph

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/custodia-labs/sharewatch-cli/internal/core/domain"
	"github.com/custodia-labs/sharewatch-cli/internal/core/ports/driven"
	"github.com/custodia-labs/sharewatch-cli/internal/logger"
)

// Remover mutates sharing state with a dashboard user's delegated
// token. It keeps no token state of its own; every call carries the
// caller's access token.
type Remover struct {
	baseURL string
	http    *http.Client
}

var _ driven.PermissionRemover = (*Remover)(nil)

// NewRemover creates a permission remover against the Graph API.
// baseURL and httpClient may be empty for the defaults.
func NewRemover(baseURL string, httpClient *http.Client) *Remover {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	if httpClient == nil {
		httpClient = &http.Client{Timeout: DefaultTimeout}
	}
	return &Remover{baseURL: baseURL, http: httpClient}
}

// ListItemPermissions returns an item's full permission set, inherited
// grants included.
func (r *Remover) ListItemPermissions(ctx context.Context, accessToken, driveID, itemID string) ([]domain.Permission, error) {
	u := fmt.Sprintf("%s/drives/%s/items/%s/permissions", r.baseURL, url.PathEscape(driveID), url.PathEscape(itemID))

	var perms []domain.Permission
	for u != "" {
		body, err := r.do(ctx, http.MethodGet, u, accessToken)
		if err != nil {
			return nil, toDomain(err)
		}
		var p struct {
			Value    []domain.Permission `json:"value"`
			NextLink string              `json:"@odata.nextLink"`
		}
		if err := json.Unmarshal(body, &p); err != nil {
			return nil, fmt.Errorf("decode response %s: %w", u, err)
		}
		perms = append(perms, p.Value...)
		u = p.NextLink
	}
	return perms, nil
}

// DeletePermission removes a single permission from an item.
func (r *Remover) DeletePermission(ctx context.Context, accessToken, driveID, itemID, permissionID string) error {
	u := fmt.Sprintf("%s/drives/%s/items/%s/permissions/%s",
		r.baseURL, url.PathEscape(driveID), url.PathEscape(itemID), url.PathEscape(permissionID))
	_, err := r.do(ctx, http.MethodDelete, u, accessToken)
	return toDomain(err)
}

// do performs one request with retry on throttling and server errors.
// 401s are not retried; the delegated token is the caller's problem.
func (r *Remover) do(ctx context.Context, method, url, accessToken string) ([]byte, error) {
	var lastErr error

	for attempt := 0; attempt < MaxRetries; attempt++ {
		req, err := http.NewRequestWithContext(ctx, method, url, nil)
		if err != nil {
			return nil, fmt.Errorf("build request: %w", err)
		}
		req.Header.Set("Authorization", "Bearer "+accessToken)

		resp, err := r.http.Do(req)
		if err != nil {
			return nil, fmt.Errorf("request %s: %w", url, err)
		}
		data, readErr := io.ReadAll(resp.Body)
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

		case resp.StatusCode >= 500:
			lastErr = newAPIError(resp.StatusCode, data, url)
			if attempt < MaxRetries-1 {
				if err := sleepCtx(ctx, time.Duration(1<<attempt)*time.Second); err != nil {
					return nil, err
				}
				continue
			}
			return nil, lastErr

		case resp.StatusCode >= 400:
			return nil, newAPIError(resp.StatusCode, data, url)
		}

		if readErr != nil {
			return nil, fmt.Errorf("read response %s: %w", url, readErr)
		}
		return data, nil
	}
	return nil, lastErr
}
