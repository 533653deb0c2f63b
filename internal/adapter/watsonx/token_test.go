package watsonx

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/couchcryptid/county-risk-forecast/internal/observability"
)

const testAPIKey = "test-api-key"

func newIAMServer(t *testing.T, calls *atomic.Int32, expiresIn int64) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		n := calls.Add(1)
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "application/x-www-form-urlencoded", r.Header.Get("Content-Type"))
		require.NoError(t, r.ParseForm())
		assert.Equal(t, apiKeyGrantType, r.PostForm.Get("grant_type"))
		assert.Equal(t, testAPIKey, r.PostForm.Get("apikey"))

		w.Header().Set("Content-Type", "application/json")
		require.NoError(t, json.NewEncoder(w).Encode(map[string]any{
			"access_token": "tok-" + string(rune('0'+n)),
			"expires_in":   expiresIn,
		}))
	}))
}

func TestTokenSource_CachesUntilNearExpiry(t *testing.T) {
	var calls atomic.Int32
	srv := newIAMServer(t, &calls, 3600)
	defer srv.Close()

	clock := clockwork.NewFakeClockAt(time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC))
	metrics := observability.NewMetricsForTesting()
	ts := NewTokenSource(srv.URL, testAPIKey, 5*time.Second, clock, metrics)
	ctx := context.Background()

	tok, err := ts.Token(ctx)
	require.NoError(t, err)
	assert.Equal(t, "tok-1", tok)

	clock.Advance(58 * time.Minute)
	tok, err = ts.Token(ctx)
	require.NoError(t, err)
	assert.Equal(t, "tok-1", tok)
	assert.Equal(t, int32(1), calls.Load())

	// inside the refresh margin
	clock.Advance(90 * time.Second)
	tok, err = ts.Token(ctx)
	require.NoError(t, err)
	assert.Equal(t, "tok-2", tok)
	assert.Equal(t, int32(2), calls.Load())
	assert.InDelta(t, 2, testutil.ToFloat64(metrics.TokenRefreshes), 0)
}

func TestTokenSource_Invalidate(t *testing.T) {
	var calls atomic.Int32
	srv := newIAMServer(t, &calls, 3600)
	defer srv.Close()

	ts := NewTokenSource(srv.URL, testAPIKey, 5*time.Second, clockwork.NewFakeClock(), nil)

	_, err := ts.Token(context.Background())
	require.NoError(t, err)
	ts.Invalidate()
	tok, err := ts.Token(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "tok-2", tok)
}

func TestTokenSource_ConcurrentCallersShareToken(t *testing.T) {
	var calls atomic.Int32
	srv := newIAMServer(t, &calls, 3600)
	defer srv.Close()

	ts := NewTokenSource(srv.URL, testAPIKey, 5*time.Second, clockwork.NewFakeClock(), nil)

	var wg sync.WaitGroup
	for range 8 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := ts.Token(context.Background())
			assert.NoError(t, err)
		}()
	}
	wg.Wait()
	assert.Equal(t, int32(1), calls.Load())
}

func TestTokenSource_Errors(t *testing.T) {
	t.Run("status", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusBadRequest)
			_, _ = w.Write([]byte(`{"errorMessage":"Provided API key could not be found."}`))
		}))
		defer srv.Close()

		ts := NewTokenSource(srv.URL, "bad", 5*time.Second, clockwork.NewFakeClock(), nil)
		_, err := ts.Token(context.Background())
		require.Error(t, err)
		assert.Contains(t, err.Error(), "status 400")
	})

	t.Run("no access token", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			_, _ = w.Write([]byte(`{"expires_in":3600}`))
		}))
		defer srv.Close()

		ts := NewTokenSource(srv.URL, testAPIKey, 5*time.Second, clockwork.NewFakeClock(), nil)
		_, err := ts.Token(context.Background())
		require.Error(t, err)
	})
}
