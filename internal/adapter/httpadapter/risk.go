package httpadapter

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"os"

	"github.com/couchcryptid/county-risk-forecast/internal/adapter/csvfile"
	"github.com/couchcryptid/county-risk-forecast/internal/domain"
)

// NoDataMessage is shown by the heat layer when there is nothing to plot.
const NoDataMessage = "No risk data available. Run the forecasting pipeline to generate the regional risk file."

// RiskSource returns the latest per-county risk scores.
type RiskSource interface {
	LatestForecasts() ([]domain.ForecastRecord, error)
}

// FileSource reads risk scores from the pipeline's output file on every call.
type FileSource string

// LatestForecasts implements RiskSource.
func (f FileSource) LatestForecasts() ([]domain.ForecastRecord, error) {
	return csvfile.ReadForecasts(string(f))
}

type riskPoint struct {
	Region    string  `json:"region"`
	Lat       float64 `json:"lat"`
	Lon       float64 `json:"lon"`
	RiskScore float64 `json:"risk_score"`
}

type riskFallback struct {
	Lat     float64 `json:"lat"`
	Lon     float64 `json:"lon"`
	Message string  `json:"message"`
}

type riskResponse struct {
	Points   []riskPoint   `json:"points"`
	Fallback *riskFallback `json:"fallback,omitempty"`
}

// handleRisk serves the heat layer. A missing, empty, or unreadable output
// file still answers 200 with a fallback marker at the US centroid.
func handleRisk(src RiskSource, logger *slog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, _ *http.Request) {
		resp := riskResponse{Points: []riskPoint{}}

		var records []domain.ForecastRecord
		if src != nil {
			var err error
			records, err = src.LatestForecasts()
			if err != nil && !errors.Is(err, os.ErrNotExist) {
				logger.Warn("read risk scores failed", "error", err)
			}
		}
		for _, r := range records {
			resp.Points = append(resp.Points, riskPoint{Region: r.Region, Lat: r.Lat, Lon: r.Lon, RiskScore: r.RiskScore})
		}
		if len(resp.Points) == 0 {
			resp.Fallback = &riskFallback{
				Lat:     domain.USCentroid.Lat,
				Lon:     domain.USCentroid.Lon,
				Message: NoDataMessage,
			}
		}

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		json.NewEncoder(w).Encode(resp) //nolint:errcheck // best-effort response
	}
}
