package usecase

import (
	"context"
	"sync"
	"time"

	"github.com/benbjohnson/clock"

	domrepo "AccelStream/internal/domain/repository"
	dsvc "AccelStream/internal/domain/service"
	"AccelStream/pkg/cache"
	"AccelStream/pkg/logger"
)

const (
	SnapshotStatsKey         = "snapshot:stats"
	snapshotDisplayKeyPrefix = "snapshot:display"
)

// SnapshotDisplayKey is the cache key of a stream's display view.
func SnapshotDisplayKey(stream string) string {
	return cache.Key(snapshotDisplayKeyPrefix, stream)
}

// SnapshotPublisher periodically copies stats and display views into a cache
// for dashboards that do not talk to the process directly.
type SnapshotPublisher struct {
	engine   dsvc.StreamEngine
	cache    cache.Service
	metrics  domrepo.Metrics
	log      *logger.Logger
	interval time.Duration
	ttl      time.Duration
	clock    clock.Clock

	mu     sync.Mutex
	cancel context.CancelFunc
	done   chan struct{}
}

type SnapshotOption func(*SnapshotPublisher)

func WithSnapshotClock(c clock.Clock) SnapshotOption {
	return func(p *SnapshotPublisher) { p.clock = c }
}

func NewSnapshotPublisher(engine dsvc.StreamEngine, c cache.Service, metrics domrepo.Metrics, lgr *logger.Logger, interval, ttl time.Duration, opts ...SnapshotOption) *SnapshotPublisher {
	p := &SnapshotPublisher{
		engine:   engine,
		cache:    c,
		metrics:  metrics,
		log:      lgr,
		interval: interval,
		ttl:      ttl,
		clock:    clock.New(),
	}
	if p.interval <= 0 {
		p.interval = 150 * time.Millisecond
	}
	for _, o := range opts {
		o(p)
	}
	return p
}

// Publish writes one snapshot.
func (p *SnapshotPublisher) Publish(ctx context.Context) error {
	values := map[string]interface{}{SnapshotStatsKey: p.engine.PerformanceStats()}
	for _, name := range p.engine.Streams() {
		values[SnapshotDisplayKey(name)] = p.engine.DisplayData(name)
	}
	if err := p.cache.MSet(ctx, values, p.ttl); err != nil {
		p.metrics.RecordError("snapshot_publish")
		return err
	}
	return nil
}

// Start runs Publish every interval until Stop or ctx is done.
func (p *SnapshotPublisher) Start(ctx context.Context) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.cancel != nil {
		return
	}
	ctx, p.cancel = context.WithCancel(ctx)
	p.done = make(chan struct{})
	go p.loop(ctx, p.done)
}

func (p *SnapshotPublisher) loop(ctx context.Context, done chan struct{}) {
	defer close(done)
	t := p.clock.Ticker(p.interval)
	defer t.Stop()
	failing := false
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			err := p.Publish(ctx)
			switch {
			case err != nil && !failing:
				p.log.Warn("snapshot publish failed", logger.Error(err))
				failing = true
			case err == nil && failing:
				p.log.Info("snapshot publish recovered")
				failing = false
			}
		}
	}
}

// Stop stops the loop and waits for it to exit.
func (p *SnapshotPublisher) Stop() {
	p.mu.Lock()
	cancel, done := p.cancel, p.done
	p.cancel, p.done = nil, nil
	p.mu.Unlock()
	if cancel == nil {
		return
	}
	cancel()
	<-done
}
