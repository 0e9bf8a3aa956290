package publish

import (
	"context"
	"errors"

	"github.com/ppiankov/newsverdict/internal/logging"
	"github.com/ppiankov/newsverdict/internal/telemetry"
)

// Dispatcher fans one event out to every publisher
type Dispatcher struct {
	publishers []Publisher
	telemetry  *telemetry.Provider
	log        logging.Logger
}

// NewDispatcher creates a dispatcher; tel may be nil
func NewDispatcher(pubs []Publisher, tel *telemetry.Provider, log logging.Logger) *Dispatcher {
	return &Dispatcher{publishers: pubs, telemetry: tel, log: logging.OrNop(log)}
}

// Len returns the number of publishers
func (d *Dispatcher) Len() int {
	return len(d.publishers)
}

// Publish sends evt to every publisher. A failing publisher does not stop
// the others; all failures are joined.
func (d *Dispatcher) Publish(ctx context.Context, evt Event) error {
	var errs []error
	for _, p := range d.publishers {
		err := p.Publish(ctx, evt)
		if d.telemetry != nil {
			d.telemetry.RecordPublish(ctx, p.ID(), err)
		}
		if err != nil {
			d.log.Warn("publish failed",
				logging.String("publisher", p.ID()),
				logging.String("type", p.Type()),
				logging.String("event_id", evt.ID),
				logging.Err(err))
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
