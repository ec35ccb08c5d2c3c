package msgraph

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/oauth2"
)

func newTestClient(t *testing.T, handler http.Handler) *Client {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	return NewClient(Config{
		BaseURL:     server.URL,
		HTTPClient:  server.Client(),
		TokenSource: oauth2.StaticTokenSource(&oauth2.Token{AccessToken: "test-token"}),
	})
}

func TestClientRetriesThrottling(t *testing.T) {
	var calls atomic.Int32
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) == 1 {
			w.Header().Set("Retry-After", "1")
			w.WriteHeader(http.StatusTooManyRequests)
			return
		}
		fmt.Fprint(w, `{"value":[]}`)
	}))

	_, err := client.get(context.Background(), client.BaseURL()+"/users")
	require.NoError(t, err)
	assert.Equal(t, int32(2), calls.Load())
}

func TestClientThrottlingExhaustsRetries(t *testing.T) {
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Retry-After", "1")
		w.WriteHeader(http.StatusTooManyRequests)
	}))

	_, err := client.get(context.Background(), client.BaseURL()+"/users")
	assert.True(t, IsRateLimited(err))
}

func TestClientRetriesUnauthorized(t *testing.T) {
	var calls atomic.Int32
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) == 1 {
			w.WriteHeader(http.StatusUnauthorized)
			fmt.Fprint(w, `{"error":{"code":"InvalidAuthenticationToken","message":"expired"}}`)
			return
		}
		fmt.Fprint(w, `{"value":[]}`)
	}))

	_, err := client.get(context.Background(), client.BaseURL()+"/users")
	require.NoError(t, err)
	assert.Equal(t, int32(2), calls.Load())
}

func TestClientRetriesServerError(t *testing.T) {
	var calls atomic.Int32
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) == 1 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		fmt.Fprint(w, `{"value":[]}`)
	}))

	_, err := client.get(context.Background(), client.BaseURL()+"/users")
	require.NoError(t, err)
	assert.Equal(t, int32(2), calls.Load())
}

func TestClientClientErrorIsNotRetried(t *testing.T) {
	var calls atomic.Int32
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusBadRequest)
		fmt.Fprint(w, `{"error":{"code":"invalidRequest","message":"bad filter"}}`)
	}))

	_, err := client.get(context.Background(), client.BaseURL()+"/users")
	require.Error(t, err)
	assert.Equal(t, int32(1), calls.Load())

	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusBadRequest, apiErr.StatusCode)
	assert.Equal(t, "bad filter", apiErr.Message)
}

func TestClientCancelledContext(t *testing.T) {
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"value":[]}`)
	}))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := client.get(ctx, client.BaseURL()+"/users")
	assert.ErrorIs(t, err, context.Canceled)
}
