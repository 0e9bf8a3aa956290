package worker

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"
	"time"

	"github.com/ppiankov/newsverdict/internal/model"
)

type mockChecker struct {
	fail map[string]bool
}

func (m *mockChecker) CheckURL(ctx context.Context, url string) (model.CheckResult, error) {
	// Longer URLs finish first to shuffle completion order
	time.Sleep(time.Duration(30-len(url)%30) * time.Millisecond)
	if m.fail[url] {
		return model.CheckResult{Source: model.SourceURL, Outcome: model.OutcomeClassificationError},
			errors.New("classifier broke")
	}
	return model.CheckResult{Source: model.SourceURL, Outcome: model.OutcomeClassified}, nil
}

func TestBatchProcessor_ProcessURLs(t *testing.T) {
	urls := []string{"http://a.com", "http://bbbbbbbbbb.com", "http://cc.com", "http://ddddd.com"}
	checker := &mockChecker{fail: map[string]bool{"http://cc.com": true}}

	results := NewBatchProcessor(checker, 3).ProcessURLs(context.Background(), urls)
	if len(results) != len(urls) {
		t.Fatalf("expected %d results, got %d", len(urls), len(results))
	}
	for i, res := range results {
		if res.URL != urls[i] {
			t.Errorf("result %d is for %s, want %s", i, res.URL, urls[i])
		}
	}
	if results[2].GetError() == nil {
		t.Error("expected error for failing URL")
	}
	if results[0].Check.Outcome != model.OutcomeClassified {
		t.Errorf("unexpected outcome %s", results[0].Check.Outcome)
	}
}

func TestBatchProcessor_ProcessURLs_Empty(t *testing.T) {
	results := NewBatchProcessor(&mockChecker{}, 2).ProcessURLs(context.Background(), nil)
	if len(results) != 0 {
		t.Errorf("expected 0 results, got %d", len(results))
	}
}

func TestBatchProcessor_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	results := NewBatchProcessor(&mockChecker{}, 1).ProcessURLs(ctx, []string{"http://a.com", "http://b.com"})
	if len(results) != 2 {
		t.Fatalf("expected a result per URL, got %d", len(results))
	}
	for _, r := range results {
		if r == nil || r.URL == "" {
			t.Fatal("expected every slot to be filled")
		}
	}
}

func writeTemp(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "urls.txt")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestReadURLsFromFile(t *testing.T) {
	path := writeTemp(t, "http://example.com\n# comment\nhttps://google.com\n   \nhttp://bing.com   \nhttp://example.com\n")

	urls, err := ReadURLsFromFile(path)
	if err != nil {
		t.Fatalf("ReadURLsFromFile failed: %v", err)
	}
	want := []string{"http://example.com", "https://google.com", "http://bing.com"}
	if !reflect.DeepEqual(urls, want) {
		t.Errorf("got %v, want %v", urls, want)
	}
}

func TestBatchProcessor_ProcessFile(t *testing.T) {
	path := writeTemp(t, strings.Join([]string{"http://a.com", "http://b.com"}, "\n"))

	results, err := NewBatchProcessor(&mockChecker{}, 2).ProcessFile(context.Background(), path)
	if err != nil {
		t.Fatalf("ProcessFile failed: %v", err)
	}
	if len(results) != 2 {
		t.Errorf("expected 2 results, got %d", len(results))
	}

	if _, err := NewBatchProcessor(&mockChecker{}, 2).ProcessFile(context.Background(), "no_such_file.txt"); err == nil {
		t.Error("expected error for missing file")
	}
}
