package watsonx

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/couchcryptid/county-risk-forecast/internal/observability"
)

const (
	apiKeyGrantType = "urn:ibm:params:oauth:grant-type:apikey"

	// refreshMargin renews a token this long before it expires.
	refreshMargin = 60 * time.Second
)

// TokenSource exchanges an IBM Cloud API key for IAM bearer tokens and caches
// each token until shortly before it expires. It is safe for concurrent use.
type TokenSource struct {
	tokenURL   string
	apiKey     string
	httpClient *http.Client
	clock      clockwork.Clock
	metrics    *observability.Metrics

	mu     sync.Mutex
	token  string
	expiry time.Time
}

// NewTokenSource creates a TokenSource for the given IAM endpoint.
func NewTokenSource(tokenURL, apiKey string, timeout time.Duration, clock clockwork.Clock, metrics *observability.Metrics) *TokenSource {
	return &TokenSource{
		tokenURL:   tokenURL,
		apiKey:     apiKey,
		httpClient: &http.Client{Timeout: timeout},
		clock:      clock,
		metrics:    metrics,
	}
}

// Token returns a valid bearer token, fetching a new one when needed.
func (s *TokenSource) Token(ctx context.Context) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.token != "" && s.clock.Now().Before(s.expiry.Add(-refreshMargin)) {
		return s.token, nil
	}

	tok, expiry, err := s.fetch(ctx)
	if err != nil {
		return "", err
	}
	s.token, s.expiry = tok, expiry
	if s.metrics != nil {
		s.metrics.TokenRefreshes.Inc()
	}
	return tok, nil
}

// Invalidate drops the cached token so the next call fetches a new one.
func (s *TokenSource) Invalidate() {
	s.mu.Lock()
	s.token = ""
	s.mu.Unlock()
}

func (s *TokenSource) fetch(ctx context.Context) (string, time.Time, error) {
	form := url.Values{
		"grant_type": {apiKeyGrantType},
		"apikey":     {s.apiKey},
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.tokenURL, strings.NewReader(form.Encode()))
	if err != nil {
		return "", time.Time{}, fmt.Errorf("create token request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("Accept", "application/json")

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("iam token request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return "", time.Time{}, fmt.Errorf("iam token error: status %d: %s", resp.StatusCode, body)
	}

	var tr tokenResponse
	if err := json.NewDecoder(resp.Body).Decode(&tr); err != nil {
		return "", time.Time{}, fmt.Errorf("decode token response: %w", err)
	}
	if tr.AccessToken == "" {
		return "", time.Time{}, fmt.Errorf("iam token response has no access_token")
	}

	now := s.clock.Now()
	expiry := now.Add(time.Duration(tr.ExpiresIn) * time.Second)
	if tr.Expiration > 0 {
		expiry = time.Unix(tr.Expiration, 0)
	}
	if tr.ExpiresIn <= 0 && tr.Expiration <= 0 {
		// No lifetime given; reuse it briefly rather than per request.
		expiry = now.Add(refreshMargin + time.Minute)
	}
	return tr.AccessToken, expiry, nil
}

type tokenResponse struct {
	AccessToken string `json:"access_token"`
	ExpiresIn   int64  `json:"expires_in"`
	Expiration  int64  `json:"expiration"` // unix seconds
}
