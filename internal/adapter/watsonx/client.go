// Package watsonx calls the IBM watsonx.ai time-series forecast API.
package watsonx

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/couchcryptid/county-risk-forecast/internal/domain"
	"github.com/couchcryptid/county-risk-forecast/internal/observability"
)

// TokenProvider supplies bearer tokens for the forecast API.
type TokenProvider interface {
	Token(ctx context.Context) (string, error)
}

// Options configure a Client.
type Options struct {
	BaseURL    string
	ProjectID  string
	ModelID    string
	APIVersion string
	Timeout    time.Duration
}

// Client implements domain.Forecaster using the watsonx.ai time-series
// forecast endpoint.
type Client struct {
	baseURL    string
	projectID  string
	modelID    string
	version    string
	tokens     TokenProvider
	httpClient *http.Client
	clock      clockwork.Clock
	metrics    *observability.Metrics
	logger     *slog.Logger
}

// NewClient creates a forecast client. clock times requests for the duration
// histogram.
func NewClient(opts Options, tokens TokenProvider, clock clockwork.Clock, metrics *observability.Metrics, logger *slog.Logger) *Client {
	return &Client{
		baseURL:    strings.TrimRight(opts.BaseURL, "/"),
		projectID:  opts.ProjectID,
		modelID:    opts.ModelID,
		version:    opts.APIVersion,
		tokens:     tokens,
		httpClient: &http.Client{Timeout: opts.Timeout},
		clock:      clock,
		metrics:    metrics,
		logger:     logger,
	}
}

// Forecast submits one series and returns the first result table. An empty
// frame means the service answered with no results.
func (c *Client) Forecast(ctx context.Context, req domain.ForecastRequest) (domain.ForecastFrame, error) {
	body, err := c.buildRequest(req)
	if err != nil {
		return domain.ForecastFrame{}, err
	}

	token, err := c.tokens.Token(ctx)
	if err != nil {
		return domain.ForecastFrame{}, fmt.Errorf("get iam token: %w", err)
	}

	start := c.clock.Now()
	frame, err := c.doRequest(ctx, token, body)
	outcome := "success"
	if err != nil {
		outcome = "error"
	}
	if c.metrics != nil {
		c.metrics.ForecastAPIDuration.WithLabelValues(outcome).Observe(c.clock.Since(start).Seconds())
	}
	if err != nil {
		c.logger.Debug("forecast request failed", "county", req.Key.County, "state", req.Key.State, "error", err)
	}
	return frame, err
}

func (c *Client) buildRequest(req domain.ForecastRequest) ([]byte, error) {
	if len(req.Series) == 0 {
		return nil, errors.New("forecast request has an empty series")
	}
	freq, err := frequencyCode(req.Frequency)
	if err != nil {
		return nil, err
	}

	dates := make([]string, len(req.Series))
	values := make([]float64, len(req.Series))
	for i, p := range req.Series {
		if !domain.IsFinite(p.Value) {
			return nil, fmt.Errorf("forecast series has a non-finite value at %s", p.Date.Format(time.DateOnly))
		}
		dates[i] = p.Date.Format(time.DateOnly)
		values[i] = p.Value
	}

	payload := forecastRequest{
		ModelID:   c.modelID,
		ProjectID: c.projectID,
		Data: map[string]any{
			req.TimestampColumn: dates,
			req.TargetColumn:    values,
		},
		Schema: forecastSchema{
			TimestampColumn: req.TimestampColumn,
			Freq:            freq,
			TargetColumns:   []string{req.TargetColumn},
		},
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("encode forecast request: %w", err)
	}
	return body, nil
}

func (c *Client) doRequest(ctx context.Context, token string, body []byte) (domain.ForecastFrame, error) {
	u := c.baseURL + "/ml/v1/time_series/forecast?" + url.Values{"version": {c.version}}.Encode()
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, u, bytes.NewReader(body))
	if err != nil {
		return domain.ForecastFrame{}, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return domain.ForecastFrame{}, fmt.Errorf("forecast request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		if resp.StatusCode == http.StatusUnauthorized {
			if inv, ok := c.tokens.(interface{ Invalidate() }); ok {
				inv.Invalidate()
			}
		}
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return domain.ForecastFrame{}, fmt.Errorf("watsonx API error: status %d: %s", resp.StatusCode, msg)
	}

	var fr forecastResponse
	if err := json.NewDecoder(resp.Body).Decode(&fr); err != nil {
		return domain.ForecastFrame{}, fmt.Errorf("decode response: %w", err)
	}
	if len(fr.Results) == 0 {
		return domain.ForecastFrame{}, nil
	}
	frame, err := decodeFrame(fr.Results[0])
	if err != nil {
		return domain.ForecastFrame{}, fmt.Errorf("decode forecast result: %w", err)
	}
	return frame, nil
}

// frequencyCode maps a frequency name to the pandas-style code the API expects.
func frequencyCode(f string) (string, error) {
	switch strings.ToLower(f) {
	case "", domain.FrequencyMonthly, "m":
		return "M", nil
	case "daily", "d":
		return "D", nil
	case "weekly", "w":
		return "W", nil
	default:
		return "", fmt.Errorf("unsupported forecast frequency %q", f)
	}
}

// watsonx.ai API request and response types.

type forecastRequest struct {
	ModelID   string         `json:"model_id"`
	ProjectID string         `json:"project_id"`
	Data      map[string]any `json:"data"`
	Schema    forecastSchema `json:"schema"`
}

type forecastSchema struct {
	TimestampColumn string   `json:"timestamp_column"`
	Freq            string   `json:"freq"`
	TargetColumns   []string `json:"target_columns"`
}

type forecastResponse struct {
	ModelID string            `json:"model_id"`
	Results []json.RawMessage `json:"results"`
}
