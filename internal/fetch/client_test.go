package fetch_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jonesrussell/newscrawl/internal/fetch"
	"github.com/jonesrussell/newscrawl/internal/logger"
)

// fastConfig shrinks the retry intervals so tests run in milliseconds.
func fastConfig(proxyURL string) fetch.Config {
	return fetch.Config{
		BaseURL:         proxyURL,
		APIKey:          "test-key",
		MaxAttempts:     5,
		InitialInterval: time.Millisecond,
		MaxInterval:     2 * time.Millisecond,
	}
}

func TestFetchPassesProxyParams(t *testing.T) {
	t.Parallel()

	var gotQuery atomic.Value
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotQuery.Store(r.URL.Query())
		_, _ = w.Write([]byte("<html>ok</html>"))
	}))
	defer server.Close()

	client := fetch.New(fastConfig(server.URL), logger.NewNoOp())
	body, err := client.Fetch(context.Background(), "https://www.example.com/artikel", fetch.Params{
		"js_render":     "true",
		"proxy_country": "de",
	})
	require.NoError(t, err)
	assert.Equal(t, []byte("<html>ok</html>"), body)

	query := gotQuery.Load().(url.Values)
	assert.Equal(t, "https://www.example.com/artikel", query["url"][0])
	assert.Equal(t, "test-key", query["apikey"][0])
	assert.Equal(t, "true", query["js_render"][0])
	assert.Equal(t, "de", query["proxy_country"][0])
}

func TestFetchRetriesTransientFailures(t *testing.T) {
	t.Parallel()

	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) < 3 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		_, _ = w.Write([]byte("ok"))
	}))
	defer server.Close()

	client := fetch.New(fastConfig(server.URL), logger.NewNoOp())
	body, err := client.Fetch(context.Background(), "https://www.example.com", nil)
	require.NoError(t, err)
	assert.Equal(t, []byte("ok"), body)
	assert.Equal(t, int32(3), calls.Load())
}

func TestFetchExhaustsAttemptBudget(t *testing.T) {
	t.Parallel()

	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer server.Close()

	client := fetch.New(fastConfig(server.URL), logger.NewNoOp())
	_, err := client.Fetch(context.Background(), "https://www.example.com", nil)
	require.Error(t, err)
	assert.Equal(t, int32(5), calls.Load())

	var fetchErr *fetch.Error
	require.ErrorAs(t, err, &fetchErr)
	assert.Equal(t, 5, fetchErr.Attempts)
	assert.Equal(t, http.StatusTooManyRequests, fetchErr.StatusCode)
	assert.Equal(t, "https://www.example.com", fetchErr.URL)
}

func TestFetchCancelledContext(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer server.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	client := fetch.New(fastConfig(server.URL), logger.NewNoOp())
	_, err := client.Fetch(ctx, "https://www.example.com", nil)
	require.Error(t, err)
	assert.True(t, errors.Is(err, context.Canceled))
}

func TestNewFillsDefaults(t *testing.T) {
	t.Parallel()

	// Zero tuning fields fall back to the documented defaults; only endpoint
	// and key are mandatory.
	client := fetch.New(fetch.Config{BaseURL: "https://proxy.test/v1/", APIKey: "k"}, logger.NewNoOp())
	require.NotNil(t, client)
}
