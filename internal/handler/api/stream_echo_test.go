package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"AccelStream/internal/domain/models"
	"AccelStream/internal/service/ratelimit"
	"AccelStream/internal/services/stream"
	"AccelStream/internal/usecase"
	xhttp "AccelStream/pkg/http"
	"AccelStream/pkg/logger"
)

type nopMetrics struct{}

func (nopMetrics) RecordSample(string, float64, bool) {}
func (nopMetrics) RecordError(string)                 {}
func (nopMetrics) RecordLatency(string, float64)      {}

type memStorage struct{ recs []models.ExportRecord }

func (s *memStorage) Init(context.Context) error { return nil }
func (s *memStorage) StoreBatch(_ context.Context, r []models.ExportRecord) error {
	s.recs = append(s.recs, r...)
	return nil
}
func (s *memStorage) Query(_ context.Context, stream string, from, to time.Time, limit int) ([]models.ExportRecord, error) {
	var out []models.ExportRecord
	for _, r := range s.recs {
		if r.Stream == stream && !r.Timestamp.Before(from) && !r.Timestamp.After(to) && len(out) < limit {
			out = append(out, r)
		}
	}
	return out, nil
}
func (s *memStorage) Health(context.Context) error { return nil }
func (s *memStorage) Close() error                 { return nil }

type recordingQueue struct{ types []string }

func (q *recordingQueue) PublishMessage(_ context.Context, t string, _ interface{}) error {
	q.types = append(q.types, t)
	return nil
}

type fixture struct {
	e       *echo.Echo
	handler *stream.Handler
	storage *memStorage
	queue   *recordingQueue
}

func newFixture(t *testing.T, withStorage bool) *fixture {
	t.Helper()
	clk := clock.NewMock()
	clk.Set(time.Unix(1700000000, 0))
	h, err := stream.NewHandler(stream.DefaultConfig(), stream.WithClock(clk))
	require.NoError(t, err)
	ing := usecase.NewSampleIngestor(h, nopMetrics{}, logger.Nop())

	f := &fixture{handler: h, queue: &recordingQueue{}}
	var storage *memStorage
	var export *usecase.ExportUseCase
	if withStorage {
		storage = &memStorage{}
		f.storage = storage
		export = usecase.NewExportUseCase(h, storage, nopMetrics{}, logger.Nop())
	} else {
		export = usecase.NewExportUseCase(h, nil, nopMetrics{}, logger.Nop())
	}

	api := NewStreamEchoHandler(logger.Nop(), h, ing, export,
		WithOpsQueue(f.queue),
		WithResetLimiter(ratelimit.NewWithClock(clk, 1, 1)),
	)
	api.now = func() time.Time { return time.Unix(1700000600, 0) }
	f.e = echo.New()
	api.RegisterRoutes(f.e)
	return f
}

func (f *fixture) do(t *testing.T, method, target, body string) (*httptest.ResponseRecorder, xhttp.APIResponse) {
	t.Helper()
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	} else {
		req = httptest.NewRequest(method, target, nil)
	}
	rec := httptest.NewRecorder()
	f.e.ServeHTTP(rec, req)
	var resp xhttp.APIResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp), rec.Body.String())
	return rec, resp
}

func TestStreamsAndStats(t *testing.T) {
	f := newFixture(t, false)
	rec, resp := f.do(t, http.MethodGet, "/api/streams", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	data := resp.Data.(map[string]interface{})
	assert.Equal(t, 3.0, data["total"])

	rec, resp = f.do(t, http.MethodGet, "/api/stats", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	stats := resp.Data.(map[string]interface{})
	assert.Equal(t, 0.0, stats["total_points"])
	assert.Contains(t, stats, "progress")
}

func TestIngestAndDisplay(t *testing.T) {
	f := newFixture(t, false)
	for i := 0; i < 5; i++ {
		rec, _ := f.do(t, http.MethodPost, "/api/ingest", `{"stream":"x_axis","value":1.5,"timestamp":"2023-11-14T22:13:20Z"}`)
		require.Equal(t, http.StatusCreated, rec.Code)
	}
	assert.Equal(t, 5, f.handler.Len("x_axis"))

	rec, resp := f.do(t, http.MethodGet, "/api/display?stream=x_axis", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	dd := resp.Data.(map[string]interface{})
	assert.Len(t, dd["raw_values"], 5)
}

func TestValidationErrors(t *testing.T) {
	f := newFixture(t, false)
	rec, _ := f.do(t, http.MethodGet, "/api/display", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec, _ = f.do(t, http.MethodPost, "/api/ingest", `{"stream":"x_axis"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestResetIsRateLimited(t *testing.T) {
	f := newFixture(t, false)
	f.handler.AddDataPointAt("x_axis", 1, time.Unix(1700000000, 0))

	rec, _ := f.do(t, http.MethodPost, "/api/reset", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 0, f.handler.Len("x_axis"))

	rec, _ = f.do(t, http.MethodPost, "/api/reset", "")
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
}

func TestExportFlow(t *testing.T) {
	f := newFixture(t, true)
	f.handler.AddDataPointAt("y_axis", 2, time.Unix(1700000000, 0))

	rec, resp := f.do(t, http.MethodGet, "/api/export", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 1.0, resp.Data.(map[string]interface{})["count"])

	rec, _ = f.do(t, http.MethodPost, "/api/export", "")
	assert.Equal(t, http.StatusCreated, rec.Code)
	assert.Len(t, f.storage.recs, 1)

	rec, resp = f.do(t, http.MethodGet, "/api/history?stream=y_axis", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 1.0, resp.Data.(map[string]interface{})["total"])

	rec, _ = f.do(t, http.MethodPost, "/api/export?async=true", "")
	assert.Equal(t, http.StatusAccepted, rec.Code)
	assert.Equal(t, []string{usecase.JobTypeExport}, f.queue.types)

	rec, _ = f.do(t, http.MethodPost, "/api/export?async=maybe", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Len(t, f.queue.types, 1)
}

func TestExportWithoutStorage(t *testing.T) {
	f := newFixture(t, false)
	rec, _ := f.do(t, http.MethodPost, "/api/export", "")
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	rec, _ = f.do(t, http.MethodGet, "/api/history?stream=x_axis", "")
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}
