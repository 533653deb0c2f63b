package kafka

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"math"
	"testing"
	"time"

	kafkago "github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/couchcryptid/county-risk-forecast/internal/domain"
)

type fakeWriter struct {
	msgs   []kafkago.Message
	err    error
	closed bool
}

func (f *fakeWriter) WriteMessages(_ context.Context, msgs ...kafkago.Message) error {
	if f.err != nil {
		return f.err
	}
	f.msgs = append(f.msgs, msgs...)
	return nil
}

func (f *fakeWriter) Close() error {
	f.closed = true
	return nil
}

func testRecord() domain.ForecastRecord {
	return domain.NewForecastRecord(domain.CountyKey{County: "autauga", State: "AL"}, 0.35, domain.Coordinate{Lat: 32.5, Lon: -86.6})
}

func TestSerializeToMessage(t *testing.T) {
	now := time.Date(2025, 4, 1, 6, 0, 0, 0, time.UTC)

	msg, err := serializeToMessage(testRecord(), "run-1", now)
	require.NoError(t, err)

	assert.Equal(t, []byte("Autauga, AL"), msg.Key)
	assert.JSONEq(t, `{"region":"Autauga, AL","county":"autauga","state":"AL","risk_score":0.35,"lat":32.5,"lon":-86.6}`, string(msg.Value))
	require.Len(t, msg.Headers, 2)
	assert.Equal(t, "run_id", msg.Headers[0].Key)
	assert.Equal(t, []byte("run-1"), msg.Headers[0].Value)
	assert.Equal(t, "generated_at", msg.Headers[1].Key)
	assert.Equal(t, []byte(now.Format(time.RFC3339)), msg.Headers[1].Value)
}

func TestSerializeToMessage_NonFinite(t *testing.T) {
	rec := testRecord()
	rec.RiskScore = math.NaN()
	_, err := serializeToMessage(rec, "run-1", time.Now())
	require.Error(t, err)
}

func TestPublishForecasts(t *testing.T) {
	fw := &fakeWriter{}
	w := &Writer{writer: fw, logger: slog.New(slog.NewTextHandler(io.Discard, nil))}

	require.NoError(t, w.PublishForecasts(context.Background(), "run-1", time.Now(), nil))
	assert.Empty(t, fw.msgs)

	recs := []domain.ForecastRecord{testRecord(), domain.NewForecastRecord(domain.CountyKey{County: "test", State: "ZZ"}, 0.1, domain.USCentroid)}
	require.NoError(t, w.PublishForecasts(context.Background(), "run-1", time.Now(), recs))
	require.Len(t, fw.msgs, 2)
	assert.Equal(t, []byte("Test, ZZ"), fw.msgs[1].Key)

	require.NoError(t, w.Close())
	assert.True(t, fw.closed)
}

func TestPublishForecasts_Error(t *testing.T) {
	boom := errors.New("broker unavailable")
	w := &Writer{writer: &fakeWriter{err: boom}, logger: slog.New(slog.NewTextHandler(io.Discard, nil))}

	err := w.PublishForecasts(context.Background(), "run-1", time.Now(), []domain.ForecastRecord{testRecord()})
	require.ErrorIs(t, err, boom)
}
