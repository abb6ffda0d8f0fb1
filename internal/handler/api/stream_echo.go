package api

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"

	"AccelStream/internal/domain/models"
	dsvc "AccelStream/internal/domain/service"
	svcmetrics "AccelStream/internal/service/metrics"
	"AccelStream/internal/service/ratelimit"
	"AccelStream/internal/usecase"
	xhttp "AccelStream/pkg/http"
	xlogger "AccelStream/pkg/logger"
	"AccelStream/pkg/queue"
)

// historySpan is the lookback used when /api/history has no from.
const historySpan = time.Hour

// Ingestor is the part of the sample ingestor the API uses.
type Ingestor interface {
	IngestPoint(ctx context.Context, name string, value float64, ts time.Time) models.Sample
	Progress() models.CollectionProgress
}

// StreamEchoHandler serves the stream engine over HTTP.
type StreamEchoHandler struct {
	logger  *xlogger.Logger
	engine  dsvc.StreamEngine
	ingest  Ingestor
	export  *usecase.ExportUseCase
	ops     queue.Publisher
	limiter *ratelimit.Limiter
	now     func() time.Time
}

type HandlerOption func(*StreamEchoHandler)

// WithOpsQueue lets export requests with async=true run as queued jobs.
func WithOpsQueue(p queue.Publisher) HandlerOption {
	return func(h *StreamEchoHandler) { h.ops = p }
}

// WithResetLimiter limits POST /api/reset per client address.
func WithResetLimiter(l *ratelimit.Limiter) HandlerOption {
	return func(h *StreamEchoHandler) { h.limiter = l }
}

func NewStreamEchoHandler(logger *xlogger.Logger, engine dsvc.StreamEngine, ingest Ingestor, export *usecase.ExportUseCase, opts ...HandlerOption) *StreamEchoHandler {
	svcmetrics.Register()
	h := &StreamEchoHandler{logger: logger, engine: engine, ingest: ingest, export: export, now: time.Now}
	for _, o := range opts {
		o(h)
	}
	return h
}

func (h *StreamEchoHandler) RegisterRoutes(e *echo.Echo) {
	g := e.Group("/api")
	g.GET("/streams", h.timed("streams", h.Streams))
	g.GET("/display", h.timed("display", h.Display))
	g.GET("/stats", h.timed("stats", h.Stats))
	g.POST("/reset", h.timed("reset", h.Reset))
	g.POST("/ingest", h.timed("ingest", h.Ingest))
	g.GET("/export", h.timed("export", h.Export))
	g.POST("/export", h.timed("export_store", h.StoreExport))
	g.GET("/history", h.timed("history", h.History))
}

func (h *StreamEchoHandler) timed(endpoint string, next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		start := time.Now()
		err := next(c)
		svcmetrics.APILatency.WithLabelValues(endpoint).Observe(time.Since(start).Seconds())
		if err != nil || c.Response().Status >= http.StatusBadRequest {
			svcmetrics.APIErrors.WithLabelValues(endpoint).Inc()
		}
		return err
	}
}

func (h *StreamEchoHandler) Streams(c echo.Context) error {
	names := h.engine.Streams()
	return xhttp.ListResponse(c, names, int64(len(names)))
}

func (h *StreamEchoHandler) Display(c echo.Context) error {
	req := &models.DisplayRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}
	c.Response().Header().Set(echo.HeaderCacheControl, "no-store")
	return xhttp.SuccessResponse(c, h.engine.DisplayData(req.Stream))
}

func (h *StreamEchoHandler) Stats(c echo.Context) error {
	return xhttp.SuccessResponse(c, models.StatsResponse{
		PerformanceStats: h.engine.PerformanceStats(),
		Progress:         h.ingest.Progress(),
		Streams:          h.engine.Streams(),
	})
}

func (h *StreamEchoHandler) Reset(c echo.Context) error {
	if h.limiter != nil && !h.limiter.Allow(c.RealIP()) {
		return xhttp.AppErrorResponse(c, xhttp.TooManyRequestsError("reset rate limit exceeded"))
	}
	h.engine.Reset()
	h.logger.Info("streams reset", xlogger.String("remote", c.RealIP()))
	return xhttp.SuccessResponse(c, h.engine.PerformanceStats())
}

func (h *StreamEchoHandler) Ingest(c echo.Context) error {
	req := &models.IngestRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}
	var ts time.Time
	if req.Timestamp != nil {
		ts = *req.Timestamp
	}
	s := h.ingest.IngestPoint(c.Request().Context(), req.Stream, *req.Value, ts)
	return xhttp.CreatedResponse(c, s)
}

func (h *StreamEchoHandler) Export(c echo.Context) error {
	recs := h.export.Snapshot()
	return xhttp.SuccessResponse(c, models.ExportResponse{Count: len(recs), Records: recs})
}

// StoreExport persists the snapshot, or queues the export when async=true.
func (h *StreamEchoHandler) StoreExport(c echo.Context) error {
	ctx := c.Request().Context()
	async := false
	if v := c.QueryParam("async"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return xhttp.AppErrorResponse(c, xhttp.BadRequestErrorf("invalid async value %q", v))
		}
		async = b
	}
	if async {
		if h.ops == nil {
			return xhttp.AppErrorResponse(c, xhttp.UnavailableError("ops queue not configured"))
		}
		err := h.ops.PublishMessage(ctx, usecase.JobTypeExport, usecase.OpsPayload{Reason: "api", RequestedBy: c.RealIP()})
		if err != nil {
			h.logger.Error("enqueue export failed", xlogger.Error(err))
			return xhttp.AppErrorResponse(c, xhttp.InternalErrorf("enqueue export").WithError(err))
		}
		return xhttp.DataResponse(c, http.StatusAccepted, nil)
	}

	n, err := h.export.Store(ctx)
	if err != nil {
		return h.storageError(c, "store export", err)
	}
	return xhttp.CreatedResponse(c, models.ExportResponse{Count: n})
}

func (h *StreamEchoHandler) History(c echo.Context) error {
	req := &models.HistoryRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}
	from, to := xhttp.ParseRange(req.From, req.To, h.now(), historySpan)
	recs, err := h.export.History(c.Request().Context(), req.Stream, from, to, req.Limit)
	if err != nil {
		return h.storageError(c, "query history", err)
	}
	return xhttp.ListResponse(c, recs, int64(len(recs)))
}

func (h *StreamEchoHandler) storageError(c echo.Context, op string, err error) error {
	if errors.Is(err, usecase.ErrNoStorage) {
		return xhttp.AppErrorResponse(c, xhttp.UnavailableError(err.Error()))
	}
	h.logger.Error(op+" failed", xlogger.Error(err))
	return xhttp.AppErrorResponse(c, xhttp.InternalErrorf("%s failed", op).WithError(err))
}
