package util

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sync/atomic"
	"testing"
	"time"

	"github.com/ppiankov/newsverdict/internal/model"
)

func TestNewProxyFunc(t *testing.T) {
	proxy := NewProxyFunc("http://proxy.local:3128", "http://secure-proxy.local:3128", "internal.example")

	tests := []struct {
		target string
		want   string
	}{
		{"http://news.example.com/a", "http://proxy.local:3128"},
		{"https://news.example.com/a", "http://secure-proxy.local:3128"},
		{"https://internal.example/a", ""},
	}

	for _, tt := range tests {
		u, _ := url.Parse(tt.target)
		got, err := proxy(&http.Request{URL: u})
		if err != nil {
			t.Fatalf("proxy(%s): %v", tt.target, err)
		}
		if tt.want == "" {
			if got != nil {
				t.Errorf("proxy(%s) = %v, want direct", tt.target, got)
			}
			continue
		}
		if got == nil || got.String() != tt.want {
			t.Errorf("proxy(%s) = %v, want %s", tt.target, got, tt.want)
		}
	}
}

func TestNormalizeUserAgent(t *testing.T) {
	tests := map[string]string{
		"newsverdict/0.1 (+https://example.com)": "newsverdict",
		"curl":                                   "curl",
		"":                                       "",
	}
	for in, want := range tests {
		if got := NormalizeUserAgent(in); got != want {
			t.Errorf("NormalizeUserAgent(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestRobotsChecker(t *testing.T) {
	var hits int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/robots.txt" {
			http.NotFound(w, r)
			return
		}
		atomic.AddInt32(&hits, 1)
		_, _ = w.Write([]byte("User-agent: newsverdict\nDisallow: /private\nCrawl-delay: 2\n"))
	}))
	defer server.Close()

	rc := NewRobotsChecker(server.Client(), "newsverdict/0.1", time.Second)
	ctx := context.Background()

	allowed, delay, err := rc.CanFetch(ctx, server.URL+"/news/story")
	if err != nil {
		t.Fatalf("CanFetch: %v", err)
	}
	if !allowed {
		t.Error("expected public path to be allowed")
	}
	if delay != 2*time.Second {
		t.Errorf("expected 2s crawl delay, got %v", delay)
	}

	allowed, _, _ = rc.CanFetch(ctx, server.URL+"/private/page")
	if allowed {
		t.Error("expected private path to be disallowed")
	}

	if n := atomic.LoadInt32(&hits); n != 1 {
		t.Errorf("expected robots.txt to be fetched once, got %d", n)
	}

	rc.Clear()
	_, _, _ = rc.CanFetch(ctx, server.URL+"/")
	if n := atomic.LoadInt32(&hits); n != 2 {
		t.Errorf("expected refetch after Clear, got %d fetches", n)
	}
}

func TestRobotsChecker_MissingRobotsAllows(t *testing.T) {
	server := httptest.NewServer(http.NotFoundHandler())
	defer server.Close()

	rc := NewRobotsChecker(nil, "newsverdict", time.Second)
	allowed, _, err := rc.CanFetch(context.Background(), server.URL+"/anything")
	if err != nil || !allowed {
		t.Errorf("expected allowed with no error, got %v, %v", allowed, err)
	}
}

func TestRobotsChecker_InvalidURL(t *testing.T) {
	rc := NewRobotsChecker(nil, "newsverdict", time.Second)
	if _, _, err := rc.CanFetch(context.Background(), "::bad"); err == nil {
		t.Error("expected parse error")
	}
}

func TestNewHTTPClient_RedirectCap(t *testing.T) {
	var hops int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&hops, 1)
		http.Redirect(w, r, "/next", http.StatusFound)
	}))
	defer server.Close()

	client := NewHTTPClient(model.HTTPConfig{Timeout: time.Second})
	resp, err := client.Get(server.URL)
	if err == nil {
		_ = resp.Body.Close()
		t.Fatal("expected redirect loop to be stopped")
	}
	if n := atomic.LoadInt32(&hops); n != MaxRedirects+1 {
		t.Errorf("expected %d requests, got %d", MaxRedirects+1, n)
	}
}
