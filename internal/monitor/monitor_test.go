package monitor

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/ppiankov/newsverdict/internal/model"
	"github.com/ppiankov/newsverdict/internal/publish"
)

type fakeChecker struct {
	mu      sync.Mutex
	batches []model.BatchResult
	err     error
	calls   int
}

func (f *fakeChecker) CheckHeadlines(ctx context.Context) (model.BatchResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	if f.err != nil {
		return model.BatchResult{}, f.err
	}
	b := f.batches[0]
	if len(f.batches) > 1 {
		f.batches = f.batches[1:]
	}
	return b, nil
}

func (f *fakeChecker) Calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

type fakePublisher struct {
	events []publish.Event
	err    error
}

func (f *fakePublisher) Publish(ctx context.Context, evt publish.Event) error {
	f.events = append(f.events, evt)
	return f.err
}

func headline(url string, outcome model.Outcome) model.CheckResult {
	r := model.CheckResult{
		Source:  model.SourceHeadline,
		Outcome: outcome,
		Article: &model.ArticleRecord{Title: "t " + url, URL: url},
	}
	if outcome == model.OutcomeClassified {
		r.Verdict = model.VerdictFake
	}
	return r
}

func batch(results ...model.CheckResult) model.BatchResult {
	return model.BatchResult{Source: model.SourceHeadline, Outcome: model.OutcomeClassified, Results: results}
}

func TestPoll_PublishesNewClassifiedOnce(t *testing.T) {
	checker := &fakeChecker{batches: []model.BatchResult{
		batch(headline("https://a", model.OutcomeClassified), headline("https://b", model.OutcomeNoContent)),
		batch(headline("https://a", model.OutcomeClassified), headline("https://c", model.OutcomeClassified)),
	}}
	pub := &fakePublisher{}
	var seen []string
	m := New(checker, pub, Config{OnResult: func(r model.CheckResult) { seen = append(seen, r.URL()) }}, nil)

	stats, err := m.Poll(context.Background())
	if err != nil {
		t.Fatalf("Poll() error = %v", err)
	}
	if stats.Fetched != 2 || stats.New != 2 || stats.Published != 1 {
		t.Errorf("first poll stats = %+v", stats)
	}

	stats, _ = m.Poll(context.Background())
	if stats.New != 1 || stats.Published != 1 {
		t.Errorf("second poll stats = %+v", stats)
	}

	if len(pub.events) != 2 || pub.events[0].URL != "https://a" || pub.events[1].URL != "https://c" {
		t.Errorf("published = %+v", pub.events)
	}
	if len(seen) != 3 {
		t.Errorf("OnResult saw %v", seen)
	}
}

func TestPoll_UpstreamError(t *testing.T) {
	checker := &fakeChecker{batches: []model.BatchResult{{Outcome: model.OutcomeUpstreamFetchError, Error: "status 429"}}}
	pub := &fakePublisher{}
	m := New(checker, pub, Config{}, nil)

	stats, err := m.Poll(context.Background())
	if err != nil {
		t.Fatalf("Poll() error = %v", err)
	}
	if !stats.Upstream || len(pub.events) != 0 {
		t.Errorf("stats = %+v events = %d", stats, len(pub.events))
	}
}

func TestPoll_CheckerError(t *testing.T) {
	m := New(&fakeChecker{err: errors.New("no provider")}, nil, Config{}, nil)
	if _, err := m.Poll(context.Background()); err == nil {
		t.Error("expected error")
	}
}

func TestPoll_PublishFailure(t *testing.T) {
	checker := &fakeChecker{batches: []model.BatchResult{batch(headline("https://a", model.OutcomeClassified))}}
	m := New(checker, &fakePublisher{err: errors.New("down")}, Config{}, nil)

	stats, err := m.Poll(context.Background())
	if err != nil {
		t.Fatalf("Poll() error = %v", err)
	}
	if stats.Failed != 1 || stats.Published != 0 {
		t.Errorf("stats = %+v", stats)
	}
}

func TestSeenSet_Bounded(t *testing.T) {
	s := newSeenSet(2)
	if !s.add("a") || !s.add("b") {
		t.Fatal("new keys should be added")
	}
	if s.add("a") {
		t.Error("duplicate key reported as new")
	}
	s.add("c") // evicts a
	if !s.add("a") {
		t.Error("evicted key should be new again")
	}
	if len(s.keys) != 2 || len(s.order) != 2 {
		t.Errorf("set grew past its bound: %d keys", len(s.keys))
	}
}

func TestRun_StopsOnCancel(t *testing.T) {
	checker := &fakeChecker{batches: []model.BatchResult{batch()}}
	m := New(checker, nil, Config{Interval: 10 * time.Millisecond}, nil)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- m.Run(ctx) }()

	deadline := time.After(2 * time.Second)
	for checker.Calls() < 2 {
		select {
		case <-deadline:
			t.Fatal("monitor did not poll repeatedly")
		case <-time.After(5 * time.Millisecond):
		}
	}
	cancel()

	select {
	case err := <-done:
		if err != nil {
			t.Errorf("Run() error = %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Run did not return after cancel")
	}
}
