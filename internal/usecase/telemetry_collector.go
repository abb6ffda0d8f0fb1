package usecase

import (
	"context"
	"time"

	"AccelStream/internal/domain/models"
	drepo "AccelStream/internal/domain/repository"
	mid "AccelStream/internal/middleware"
	"AccelStream/pkg/logger"
)

// TelemetryCollector reads the device stream and pushes readings through the pipeline.
type TelemetryCollector struct {
	stream         drepo.TelemetryStream
	proc           *ReadingProcessor
	metrics        drepo.Metrics
	pipe           *mid.RealtimePipeline
	log            *logger.Logger
	reconnectDelay time.Duration
}

func NewTelemetryCollector(
	stream drepo.TelemetryStream,
	proc *ReadingProcessor,
	metrics drepo.Metrics,
	pipe *mid.RealtimePipeline,
	lgr *logger.Logger,
	reconnectDelay time.Duration,
) *TelemetryCollector {
	return &TelemetryCollector{
		stream:         stream,
		proc:           proc,
		metrics:        metrics,
		pipe:           pipe,
		log:            lgr,
		reconnectDelay: reconnectDelay,
	}
}

func (c *TelemetryCollector) IsConnected() bool { return c.stream.IsConnected() }

func (c *TelemetryCollector) Start(ctx context.Context) error {
	if err := c.stream.Connect(ctx); err != nil {
		return err
	}
	if err := c.stream.Subscribe(ctx); err != nil {
		return err
	}
	if c.pipe != nil {
		c.pipe.Start(ctx)
	}
	rCh, errCh := c.stream.Read(ctx)
	go c.consume(ctx, rCh, errCh)
	return nil
}

func (c *TelemetryCollector) consume(ctx context.Context, rCh <-chan *models.AxisReading, errCh <-chan error) {
	for {
		select {
		case <-ctx.Done():
			return
		case err, ok := <-errCh:
			if !ok {
				errCh = nil
				continue
			}
			if err == nil {
				continue
			}
			c.metrics.RecordError("stream")
			c.log.Warn("telemetry stream error, reconnecting", logger.Error(err))
			c.reconnect(ctx)
		case r, ok := <-rCh:
			if !ok {
				return
			}
			if r == nil {
				continue
			}
			var err error
			if c.pipe != nil {
				err = c.pipe.Process(ctx, r)
			} else {
				err = c.proc.Process(ctx, r)
			}
			if err != nil {
				c.log.Debug("reading not processed", logger.String("axis", string(r.Axis)), logger.Error(err))
			}
		}
	}
}

func (c *TelemetryCollector) reconnect(ctx context.Context) {
	for {
		err := c.stream.Reconnect(ctx)
		if err == nil {
			return
		}
		c.metrics.RecordError("reconnect")
		c.log.Error("telemetry reconnect failed", logger.Error(err))
		select {
		case <-ctx.Done():
			return
		case <-time.After(c.reconnectDelay):
		}
	}
}

// Processor returns the underlying ReadingProcessor for lifecycle management.
func (c *TelemetryCollector) Processor() *ReadingProcessor { return c.proc }

// Shutdown stops the pipeline and closes the stream.
func (c *TelemetryCollector) Shutdown(ctx context.Context) error {
	if c.pipe != nil {
		c.pipe.Stop()
	}
	return c.stream.Close()
}
