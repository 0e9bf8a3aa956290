package publish

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/ppiankov/newsverdict/internal/logging"
)

// Builder creates a Publisher from a config entry
type Builder func(ctx context.Context, cfg Config, log logging.Logger) (Publisher, error)

// Registry maps publisher types to builders
type Registry struct {
	mu       sync.RWMutex
	builders map[string]Builder
}

// NewRegistry returns a registry with the given builders
func NewRegistry(builders map[string]Builder) *Registry {
	r := &Registry{builders: make(map[string]Builder)}
	for typ, b := range builders {
		r.Register(typ, b)
	}
	return r
}

// DefaultRegistry knows every built-in publisher type
func DefaultRegistry() *Registry {
	return NewRegistry(map[string]Builder{
		TypeHTTP:  newHTTPPublisher,
		TypeRedis: newRedisPublisher,
		TypeQueue: newQueuePublisher,
	})
}

// Register associates a builder with a publisher type
func (r *Registry) Register(typ string, builder Builder) {
	if typ = strings.ToLower(strings.TrimSpace(typ)); typ == "" || builder == nil {
		return
	}
	r.mu.Lock()
	r.builders[typ] = builder
	r.mu.Unlock()
}

// PublisherFor builds the publisher for cfg
func (r *Registry) PublisherFor(ctx context.Context, cfg Config, log logging.Logger) (Publisher, error) {
	if cfg.Type == "" {
		return nil, fmt.Errorf("publisher %q has no type configured", cfg.ID)
	}

	r.mu.RLock()
	builder := r.builders[strings.ToLower(cfg.Type)]
	r.mu.RUnlock()

	if builder == nil {
		return nil, fmt.Errorf("no publisher registered for type %q", cfg.Type)
	}
	return builder(ctx, cfg, logging.OrNop(log))
}

// BuildAll builds every enabled publisher in cfgs
func (r *Registry) BuildAll(ctx context.Context, cfgs []Config, log logging.Logger) ([]Publisher, error) {
	var pubs []Publisher
	for _, cfg := range cfgs {
		if !cfg.EnabledValue() {
			continue
		}
		pub, err := r.PublisherFor(ctx, cfg, log)
		if err != nil {
			return nil, fmt.Errorf("build publisher %q: %w", cfg.ID, err)
		}
		pubs = append(pubs, filtered{Publisher: pub, cfg: cfg})
	}
	return pubs, nil
}

// filtered applies the entry's verdict filter
type filtered struct {
	Publisher
	cfg Config
}

func (f filtered) Publish(ctx context.Context, evt Event) error {
	if !f.cfg.Accepts(evt) {
		return nil
	}
	return f.Publisher.Publish(ctx, evt)
}
