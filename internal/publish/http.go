package publish

import (
	"context"
	"fmt"
	"time"

	"github.com/go-resty/resty/v2"

	"github.com/ppiankov/newsverdict/internal/logging"
)

type httpPublisher struct {
	id     string
	method string
	url    string
	client *resty.Client
	log    logging.Logger
}

func newHTTPPublisher(ctx context.Context, cfg Config, log logging.Logger) (Publisher, error) {
	if cfg.HTTP == nil {
		return nil, fmt.Errorf("publisher %q missing http configuration", cfg.ID)
	}

	client := resty.New().
		SetTimeout(time.Duration(cfg.HTTP.TimeoutSeconds) * time.Second).
		SetHeader("Content-Type", "application/json").
		SetHeaders(cfg.HTTP.Headers)

	return &httpPublisher{
		id:     cfg.ID,
		method: cfg.HTTP.Method,
		url:    cfg.HTTP.URL,
		client: client,
		log:    log,
	}, nil
}

func (p *httpPublisher) ID() string   { return p.id }
func (p *httpPublisher) Type() string { return TypeHTTP }

// Publish sends the event as a JSON body; any non-2xx status is an error
func (p *httpPublisher) Publish(ctx context.Context, evt Event) error {
	resp, err := p.client.R().
		SetContext(ctx).
		SetBody(evt).
		Execute(p.method, p.url)
	if err != nil {
		return fmt.Errorf("http publisher %s: %w", p.id, err)
	}
	if !resp.IsSuccess() {
		return fmt.Errorf("http publisher %s: status %d", p.id, resp.StatusCode())
	}

	p.log.Debug("http publisher delivered event",
		logging.String("publisher", p.id),
		logging.String("event_id", evt.ID),
		logging.Int("status", resp.StatusCode()))
	return nil
}
