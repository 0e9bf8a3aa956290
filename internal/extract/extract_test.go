package extract

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/ppiankov/newsverdict/internal/cache"
	"github.com/ppiankov/newsverdict/internal/util"
	"github.com/ppiankov/newsverdict/internal/worker"
)

const articlePage = `<!doctype html><html><head><title>Storm hits coast</title></head>
<body><nav><p>Home | World</p></nav>
<article><p>A powerful storm made landfall on Tuesday.</p><p>Officials urged residents to stay indoors.</p></article>
</body></html>`

func newTestServer(t *testing.T, hits *int32) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/robots.txt":
			_, _ = w.Write([]byte("User-agent: *\nDisallow: /private\n"))
		case "/story":
			if hits != nil {
				atomic.AddInt32(hits, 1)
			}
			if ua := r.Header.Get("User-Agent"); ua != "newsverdict-test" {
				t.Errorf("unexpected User-Agent %q", ua)
			}
			w.Header().Set("Content-Type", "text/html; charset=utf-8")
			_, _ = w.Write([]byte(articlePage))
		case "/latin1":
			w.Header().Set("Content-Type", "text/html; charset=iso-8859-1")
			_, _ = w.Write([]byte("<html><body><p>Caf\xe9 owners protest</p></body></html>"))
		case "/empty":
			w.Header().Set("Content-Type", "text/html")
			_, _ = w.Write([]byte("<html><body><div>no paragraphs</div></body></html>"))
		case "/json":
			w.Header().Set("Content-Type", "application/json")
			_, _ = w.Write([]byte(`{"a":1}`))
		case "/private/story":
			w.Header().Set("Content-Type", "text/html")
			_, _ = w.Write([]byte(articlePage))
		default:
			http.NotFound(w, r)
		}
	}))
}

func newTestExtractor(server *httptest.Server, opts Options) *Extractor {
	return NewExtractor(NewFetcher(server.Client(), "newsverdict-test", 1<<20), opts)
}

func TestExtractor_Extract(t *testing.T) {
	server := newTestServer(t, nil)
	defer server.Close()

	e := newTestExtractor(server, Options{})
	art, err := e.Extract(context.Background(), server.URL+"/story")
	if err != nil {
		t.Fatalf("Extract: %v", err)
	}
	if art.Title != "Storm hits coast" {
		t.Errorf("unexpected title %q", art.Title)
	}
	want := "A powerful storm made landfall on Tuesday.\n\nOfficials urged residents to stay indoors."
	if art.Text != want {
		t.Errorf("unexpected text %q", art.Text)
	}
	if art.URL != server.URL+"/story" {
		t.Errorf("unexpected URL %q", art.URL)
	}
}

func TestExtractor_DecodesCharset(t *testing.T) {
	server := newTestServer(t, nil)
	defer server.Close()

	art, err := newTestExtractor(server, Options{}).Extract(context.Background(), server.URL+"/latin1")
	if err != nil {
		t.Fatalf("Extract: %v", err)
	}
	if art.Text != "Café owners protest" {
		t.Errorf("expected decoded text, got %q", art.Text)
	}
}

func TestExtractor_Failures(t *testing.T) {
	server := newTestServer(t, nil)
	defer server.Close()

	robots := util.NewRobotsChecker(server.Client(), "newsverdict-test", time.Second)
	e := newTestExtractor(server, Options{Robots: robots})

	tests := []struct {
		name  string
		url   string
		cause error
	}{
		{"empty", "", ErrInvalidURL},
		{"scheme", "ftp://example.com/file", ErrInvalidURL},
		{"no host", "http:///path", ErrInvalidURL},
		{"no text", server.URL + "/empty", ErrNoText},
		{"not html", server.URL + "/json", ErrNotHTML},
		{"robots", server.URL + "/private/story", ErrDisallowed},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			art, err := e.Extract(context.Background(), tt.url)
			if !errors.Is(err, ErrExtractionFailed) {
				t.Fatalf("expected ErrExtractionFailed, got %v", err)
			}
			if !errors.Is(err, tt.cause) {
				t.Errorf("expected cause %v, got %v", tt.cause, err)
			}
			if art.HasText() {
				t.Error("failed extraction must not carry text")
			}
		})
	}
}

func TestExtractor_StatusError(t *testing.T) {
	server := newTestServer(t, nil)
	defer server.Close()

	_, err := newTestExtractor(server, Options{}).Extract(context.Background(), server.URL+"/missing")
	var statusErr *StatusError
	if !errors.As(err, &statusErr) || statusErr.StatusCode != http.StatusNotFound {
		t.Fatalf("expected 404 StatusError, got %v", err)
	}
	if !errors.Is(err, ErrExtractionFailed) {
		t.Error("expected ErrExtractionFailed")
	}
}

func TestExtractor_NoRetry(t *testing.T) {
	var hits int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&hits, 1)
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer server.Close()

	_, err := newTestExtractor(server, Options{}).Extract(context.Background(), server.URL+"/flaky")
	if err == nil {
		t.Fatal("expected error")
	}
	if n := atomic.LoadInt32(&hits); n != 1 {
		t.Errorf("expected exactly one request, got %d", n)
	}
}

func TestExtractor_CachesByURL(t *testing.T) {
	var hits int32
	server := newTestServer(t, &hits)
	defer server.Close()

	e := newTestExtractor(server, Options{
		Cache:   cache.NewMemoryCache(time.Minute, time.Minute),
		Limiter: worker.NewLimiter(100, 5),
	})

	for i := 0; i < 3; i++ {
		if _, err := e.Extract(context.Background(), server.URL+"/story"); err != nil {
			t.Fatalf("Extract: %v", err)
		}
	}
	if n := atomic.LoadInt32(&hits); n != 1 {
		t.Errorf("expected one fetch, got %d", n)
	}
}

func TestFetcher_Truncates(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/plain")
		_, _ = w.Write([]byte(strings.Repeat("x", 100)))
	}))
	defer server.Close()

	res, err := NewFetcher(server.Client(), "ua", 10).Fetch(context.Background(), server.URL)
	if err != nil {
		t.Fatalf("Fetch: %v", err)
	}
	if !res.Truncated || len(res.Body) != 10 {
		t.Errorf("expected 10 byte truncated body, got %d (truncated=%v)", len(res.Body), res.Truncated)
	}
}

func TestIsHTML(t *testing.T) {
	tests := map[string]bool{
		"":                         true,
		"text/html":                true,
		"text/html; charset=utf-8": true,
		"application/xhtml+xml":    true,
		"application/json":         false,
		"image/png":                false,
	}
	for ct, want := range tests {
		if got := isHTML(ct); got != want {
			t.Errorf("isHTML(%q) = %v, want %v", ct, got, want)
		}
	}
}
