// Package monitor polls top headlines on an interval and publishes each
// new verdict once.
package monitor

import (
	"context"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/ppiankov/newsverdict/internal/logging"
	"github.com/ppiankov/newsverdict/internal/model"
	"github.com/ppiankov/newsverdict/internal/publish"
)

const (
	defaultInterval       = 60 * time.Second
	defaultSeenSize       = 1000
	defaultPublishTimeout = 10 * time.Second
)

// HeadlineChecker fetches and classifies top headlines
type HeadlineChecker interface {
	CheckHeadlines(ctx context.Context) (model.BatchResult, error)
}

// EventPublisher delivers verdict events
type EventPublisher interface {
	Publish(ctx context.Context, evt publish.Event) error
}

// Config holds monitor options
type Config struct {
	Interval       time.Duration
	SeenSize       int
	PublishTimeout time.Duration

	// OnResult is called for every new result, published or not
	OnResult func(model.CheckResult)
}

// ConfigFromModel converts model.MonitorConfig
func ConfigFromModel(c model.MonitorConfig) Config {
	return Config{Interval: c.Interval, SeenSize: c.SeenSize}
}

// PollStats summarizes one poll
type PollStats struct {
	Fetched   int
	New       int
	Published int
	Failed    int
	Upstream  bool
}

// Monitor is the periodic headline poller
type Monitor struct {
	checker   HeadlineChecker
	publisher EventPublisher
	cfg       Config
	seen      *seenSet
	tracer    trace.Tracer
	log       logging.Logger
}

// New creates a monitor; publisher may be nil to only log results
func New(checker HeadlineChecker, publisher EventPublisher, cfg Config, log logging.Logger) *Monitor {
	if cfg.Interval <= 0 {
		cfg.Interval = defaultInterval
	}
	if cfg.SeenSize <= 0 {
		cfg.SeenSize = defaultSeenSize
	}
	if cfg.PublishTimeout <= 0 {
		cfg.PublishTimeout = defaultPublishTimeout
	}

	return &Monitor{
		checker:   checker,
		publisher: publisher,
		cfg:       cfg,
		seen:      newSeenSet(cfg.SeenSize),
		tracer:    otel.Tracer("newsverdict/monitor"),
		log:       logging.OrNop(log),
	}
}

// Run polls immediately, then every interval until ctx is cancelled
func (m *Monitor) Run(ctx context.Context) error {
	m.log.Info("monitor started", logging.Duration("interval", m.cfg.Interval))

	ticker := time.NewTicker(m.cfg.Interval)
	defer ticker.Stop()

	m.pollAndLog(ctx)

	for {
		select {
		case <-ticker.C:
			m.pollAndLog(ctx)
		case <-ctx.Done():
			m.log.Info("monitor stopped")
			return nil
		}
	}
}

func (m *Monitor) pollAndLog(ctx context.Context) {
	stats, err := m.Poll(ctx)
	if err != nil {
		m.log.Error("monitor poll failed", logging.Err(err))
		return
	}
	m.log.Info("monitor poll finished",
		logging.Int("fetched", stats.Fetched),
		logging.Int("new", stats.New),
		logging.Int("published", stats.Published),
		logging.Int("failed", stats.Failed),
		logging.Bool("upstream_error", stats.Upstream))
}

// Poll runs one headline check and publishes unseen classified results.
// An upstream failure is reported in the stats, not as an error.
func (m *Monitor) Poll(ctx context.Context) (PollStats, error) {
	ctx, span := m.tracer.Start(ctx, "monitor.poll")
	defer span.End()

	var stats PollStats

	batch, err := m.checker.CheckHeadlines(ctx)
	if err != nil {
		return stats, err
	}
	if batch.Outcome == model.OutcomeUpstreamFetchError {
		stats.Upstream = true
		m.log.Warn("headline fetch failed", logging.String("error", batch.Error))
		return stats, nil
	}

	stats.Fetched = len(batch.Results)
	for _, r := range batch.Results {
		key := resultKey(r)
		if key == "" || !m.seen.add(key) {
			continue
		}
		stats.New++

		if m.cfg.OnResult != nil {
			m.cfg.OnResult(r)
		}
		if m.publisher == nil || !r.Classified() {
			continue
		}

		if err := m.publishOne(ctx, r); err != nil {
			stats.Failed++
			continue
		}
		stats.Published++
	}

	span.SetAttributes(
		attribute.Int("fetched", stats.Fetched),
		attribute.Int("published", stats.Published))
	return stats, nil
}

func (m *Monitor) publishOne(ctx context.Context, r model.CheckResult) error {
	ctx, cancel := context.WithTimeout(ctx, m.cfg.PublishTimeout)
	defer cancel()

	evt := publish.NewEvent(r)
	if err := m.publisher.Publish(ctx, evt); err != nil {
		m.log.Warn("verdict publish failed",
			logging.String("url", evt.URL),
			logging.Err(err))
		return err
	}
	return nil
}

// resultKey identifies an article across polls: URL, else title
func resultKey(r model.CheckResult) string {
	if u := r.URL(); u != "" {
		return u
	}
	return r.Title()
}

// seenSet is a FIFO-bounded set
type seenSet struct {
	max   int
	order []string
	keys  map[string]struct{}
}

func newSeenSet(max int) *seenSet {
	return &seenSet{max: max, keys: make(map[string]struct{}, max)}
}

// add inserts key and reports whether it was new
func (s *seenSet) add(key string) bool {
	if _, ok := s.keys[key]; ok {
		return false
	}
	if len(s.order) >= s.max {
		oldest := s.order[0]
		s.order = s.order[1:]
		delete(s.keys, oldest)
	}
	s.order = append(s.order, key)
	s.keys[key] = struct{}{}
	return true
}
