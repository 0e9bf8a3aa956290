package publish

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/ppiankov/newsverdict/internal/logging"
)

const redisPingTimeout = 5 * time.Second

// redisClient is the subset of *redis.Client the publisher uses
type redisClient interface {
	XAdd(ctx context.Context, a *redis.XAddArgs) *redis.StringCmd
	LPush(ctx context.Context, key string, values ...any) *redis.IntCmd
}

type redisPublisher struct {
	id     string
	stream string
	list   string
	client redisClient
	log    logging.Logger
}

func newRedisPublisher(ctx context.Context, cfg Config, log logging.Logger) (Publisher, error) {
	if cfg.Redis == nil {
		return nil, fmt.Errorf("publisher %q missing redis configuration", cfg.ID)
	}

	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Address,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})

	pingCtx, cancel := context.WithTimeout(ctx, redisPingTimeout)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("redis ping failed: %w", err)
	}

	return &redisPublisher{
		id:     cfg.ID,
		stream: cfg.Redis.Stream,
		list:   cfg.Redis.List,
		client: client,
		log:    log,
	}, nil
}

func (p *redisPublisher) ID() string   { return p.id }
func (p *redisPublisher) Type() string { return TypeRedis }

// Publish appends the event to the stream, or LPUSHes it onto the list
func (p *redisPublisher) Publish(ctx context.Context, evt Event) error {
	payload, err := json.Marshal(evt)
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}

	if p.list != "" {
		if err := p.client.LPush(ctx, p.list, string(payload)).Err(); err != nil {
			return fmt.Errorf("push to list %s: %w", p.list, err)
		}
		return nil
	}

	values := map[string]any{"event": string(payload)}
	for k, v := range evt.attributes() {
		values[k] = v
	}
	id, err := p.client.XAdd(ctx, &redis.XAddArgs{Stream: p.stream, Values: values}).Result()
	if err != nil {
		return fmt.Errorf("publish to stream %s: %w", p.stream, err)
	}

	p.log.Debug("redis publisher delivered event",
		logging.String("publisher", p.id),
		logging.String("stream_id", id))
	return nil
}
