// Package publish delivers verdict events to webhooks, Redis and cloud queues.
package publish

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/ppiankov/newsverdict/internal/model"
)

// Event is the payload every publisher sends
type Event struct {
	ID        string        `json:"id"`
	Source    model.Source  `json:"source"`
	Title     string        `json:"title,omitempty"`
	URL       string        `json:"url,omitempty"`
	Verdict   model.Verdict `json:"verdict,omitempty"`
	Outcome   model.Outcome `json:"outcome"`
	Class     *int          `json:"class,omitempty"`
	CheckedAt time.Time     `json:"checked_at"`
	SentAt    time.Time     `json:"sent_at"`
}

// NewEvent builds an event from a finished check
func NewEvent(r model.CheckResult) Event {
	checked := r.CheckedAt
	if checked.IsZero() {
		checked = time.Now().UTC()
	}
	return Event{
		ID:        uuid.NewString(),
		Source:    r.Source,
		Title:     r.Title(),
		URL:       r.URL(),
		Verdict:   r.Verdict,
		Outcome:   r.Outcome,
		Class:     r.Class,
		CheckedAt: checked,
		SentAt:    time.Now().UTC(),
	}
}

// attributes are the routing attributes attached by queue publishers
func (e Event) attributes() map[string]string {
	return map[string]string{
		"source":  string(e.Source),
		"outcome": string(e.Outcome),
		"verdict": string(e.Verdict),
	}
}

// Publisher delivers events to one sink
type Publisher interface {
	ID() string
	Type() string
	Publish(ctx context.Context, evt Event) error
}
