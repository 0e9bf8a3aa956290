package worker

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/ppiankov/newsverdict/internal/model"
)

// URLChecker checks a single article URL
type URLChecker interface {
	CheckURL(ctx context.Context, url string) (model.CheckResult, error)
}

// URLJob checks one URL
type URLJob struct {
	URL     string
	Checker URLChecker
}

// Execute runs the check
func (j *URLJob) Execute(ctx context.Context) Result {
	res, err := j.Checker.CheckURL(ctx, j.URL)
	return &URLResult{URL: j.URL, Check: res, Error: err}
}

// URLResult is the outcome of a URLJob
type URLResult struct {
	URL   string
	Check model.CheckResult
	Error error
}

// GetError returns the job error
func (r *URLResult) GetError() error {
	return r.Error
}

// BatchProcessor checks many URLs concurrently
type BatchProcessor struct {
	checker     URLChecker
	concurrency int
}

// NewBatchProcessor creates a batch processor
func NewBatchProcessor(checker URLChecker, concurrency int) *BatchProcessor {
	return &BatchProcessor{checker: checker, concurrency: concurrency}
}

// ProcessURLs checks every URL and returns results in input order
func (b *BatchProcessor) ProcessURLs(ctx context.Context, urls []string) []*URLResult {
	out := make([]*URLResult, len(urls))
	if len(urls) == 0 {
		return out
	}

	pool := NewPoolWithContext(ctx, b.concurrency)
	pool.Start()

	for _, u := range urls {
		if !pool.Submit(&URLJob{URL: u, Checker: b.checker}) {
			break
		}
	}

	results := pool.Wait()
	for i := range out {
		if i < len(results) && results[i] != nil {
			out[i] = results[i].(*URLResult)
			continue
		}
		err := ctx.Err()
		if err == nil {
			err = fmt.Errorf("check not executed")
		}
		out[i] = &URLResult{URL: urls[i], Error: err}
	}
	return out
}

// ProcessFile reads URLs from a file and checks them
func (b *BatchProcessor) ProcessFile(ctx context.Context, filePath string) ([]*URLResult, error) {
	urls, err := ReadURLsFromFile(filePath)
	if err != nil {
		return nil, fmt.Errorf("read URLs: %w", err)
	}
	return b.ProcessURLs(ctx, urls), nil
}

// ReadURLsFromFile reads one URL per line, skipping blanks, comments and duplicates
func ReadURLsFromFile(filePath string) ([]string, error) {
	file, err := os.Open(filePath)
	if err != nil {
		return nil, fmt.Errorf("open file: %w", err)
	}
	defer func() { _ = file.Close() }()

	var urls []string
	seen := make(map[string]bool)

	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		if !seen[line] {
			seen[line] = true
			urls = append(urls, line)
		}
	}

	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("scan file: %w", err)
	}
	return urls, nil
}
