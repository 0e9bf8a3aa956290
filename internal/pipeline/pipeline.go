// Package pipeline turns news articles, article URLs and free text into
// real/fake verdicts, and orchestrates the collaborators every surface shares.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"

	"github.com/ppiankov/newsverdict/internal/artifact"
	"github.com/ppiankov/newsverdict/internal/extract"
	"github.com/ppiankov/newsverdict/internal/llm"
	"github.com/ppiankov/newsverdict/internal/logging"
	"github.com/ppiankov/newsverdict/internal/model"
	"github.com/ppiankov/newsverdict/internal/news"
	"github.com/ppiankov/newsverdict/internal/telemetry"
)

// PreviewChars is how much extracted text a URL check shows
const PreviewChars = 500

// ErrEmptyURL is returned by CheckURL for a blank URL
var ErrEmptyURL = errors.New("please enter a URL")

// ErrEmptyText is the warning surfaces show for blank manual text
var ErrEmptyText = errors.New("please enter text to analyze")

// Extractor fetches the article behind a URL
type Extractor interface {
	Extract(ctx context.Context, rawURL string) (model.ExtractedArticle, error)
}

// Recorder stores finished checks
type Recorder interface {
	Record(ctx context.Context, result model.CheckResult) error
}

// Options are the optional collaborators of a Pipeline
type Options struct {
	News       news.Provider
	Extractor  Extractor
	Summarizer *llm.Summarizer
	History    Recorder
	Telemetry  *telemetry.Provider
	Logger     logging.Logger
}

// Pipeline orchestrates provider, extractor and evaluator for every surface
type Pipeline struct {
	evaluator  *Evaluator
	news       news.Provider
	extractor  Extractor
	summarizer *llm.Summarizer
	history    Recorder
	telemetry  *telemetry.Provider
	log        logging.Logger
}

// New creates a pipeline over loaded artifacts
func New(predictor artifact.Predictor, opts Options) *Pipeline {
	return &Pipeline{
		evaluator:  NewEvaluator(predictor),
		news:       opts.News,
		extractor:  opts.Extractor,
		summarizer: opts.Summarizer,
		history:    opts.History,
		telemetry:  opts.Telemetry,
		log:        logging.OrNop(opts.Logger),
	}
}

// Evaluator returns the underlying verdict pipeline
func (p *Pipeline) Evaluator() *Evaluator {
	return p.evaluator
}

// CheckHeadlines fetches top headlines and classifies each in provider order
func (p *Pipeline) CheckHeadlines(ctx context.Context) (model.BatchResult, error) {
	if p.news == nil {
		return model.BatchResult{}, fmt.Errorf("no news provider configured")
	}
	articles, err := p.news.TopHeadlines(ctx)
	return p.checkArticles(ctx, model.SourceHeadline, "", articles, err), nil
}

// CheckKeyword searches the provider and classifies each result in order.
// A blank keyword returns news.ErrEmptyQuery without any request.
func (p *Pipeline) CheckKeyword(ctx context.Context, query string) (model.BatchResult, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return model.BatchResult{}, news.ErrEmptyQuery
	}
	if p.news == nil {
		return model.BatchResult{}, fmt.Errorf("no news provider configured")
	}
	articles, err := p.news.Search(ctx, query)
	return p.checkArticles(ctx, model.SourceSearch, query, articles, err), nil
}

func (p *Pipeline) checkArticles(ctx context.Context, source model.Source, query string, articles []model.ArticleRecord, fetchErr error) model.BatchResult {
	batch := model.BatchResult{
		Source:  source,
		Query:   query,
		Results: []model.CheckResult{},
	}

	// 1. Upstream failure ends the whole batch
	if fetchErr != nil {
		batch.Outcome = model.OutcomeUpstreamFetchError
		batch.Error = fetchErr.Error()
		p.log.Warn("news fetch failed",
			logging.String("provider", p.news.Name()),
			logging.String("source", string(source)),
			logging.Err(fetchErr))
		if p.telemetry != nil {
			p.telemetry.RecordUpstreamFailure(ctx, p.news.Name())
			p.telemetry.RecordCheck(ctx, string(source), string(batch.Outcome))
		}
		return batch
	}

	// 2. Classify each article, preserving provider order
	batch.Outcome = model.OutcomeClassified
	for _, a := range articles {
		// Per-article classification errors stay in the result
		result, _ := p.evaluate(ctx, ArticleInput(source, a))
		p.finish(ctx, result)
		batch.Results = append(batch.Results, result)
	}
	return batch
}

// CheckURL extracts the article behind rawURL and classifies its text.
// Extraction failures end in OutcomeExtractionFailed; the pipeline is not run.
// A *ClassificationError is returned alongside its result.
func (p *Pipeline) CheckURL(ctx context.Context, rawURL string) (model.CheckResult, error) {
	rawURL = strings.TrimSpace(rawURL)
	if rawURL == "" {
		return model.CheckResult{}, ErrEmptyURL
	}
	if p.extractor == nil {
		return model.CheckResult{}, fmt.Errorf("no extractor configured")
	}

	ctx, span := p.startSpan(ctx, "pipeline.check_url", attribute.String("url", rawURL))
	defer span.End()

	// 1. Extract
	article, err := p.extractor.Extract(ctx, rawURL)
	if err != nil || !article.HasText() {
		result := model.CheckResult{
			Source:    model.SourceURL,
			Outcome:   model.OutcomeExtractionFailed,
			Extracted: &model.ExtractedArticle{URL: rawURL},
			Error:     extract.ErrExtractionFailed.Error(),
			CheckedAt: time.Now().UTC(),
		}
		if err != nil {
			p.log.Warn("extraction failed", logging.String("url", rawURL), logging.Err(err))
		}
		if p.telemetry != nil {
			p.telemetry.RecordExtractionFailure(ctx)
		}
		p.finish(ctx, result)
		return result, nil
	}
	if article.URL == "" {
		article.URL = rawURL
	}

	// 2. Classify
	result, err := p.evaluate(ctx, ExtractedInput(article))
	result.Preview = Preview(article.Text)
	if err != nil {
		p.finish(ctx, result)
		return result, err
	}

	// 3. Optional summary, after the verdict and independent of it
	if result.Classified() && p.summarizer.IsEnabled() {
		summary, err := p.summarizer.Summarize(ctx, article)
		if err != nil {
			p.log.Warn("summary generation failed",
				logging.String("provider", p.summarizer.ProviderName()),
				logging.Err(err))
		} else {
			result.Summary = summary
		}
	}

	p.finish(ctx, result)
	return result, nil
}

// CheckText classifies manually entered text.
// Blank text ends in OutcomeNoContent; short text carries an advisory.
func (p *Pipeline) CheckText(ctx context.Context, text string) (model.CheckResult, error) {
	result, err := p.evaluate(ctx, TextInput(text))
	p.finish(ctx, result)
	return result, err
}

// evaluate runs the evaluator and records the verdict metric
func (p *Pipeline) evaluate(ctx context.Context, in Input) (model.CheckResult, error) {
	start := time.Now()
	result, err := p.evaluator.Evaluate(ctx, in)
	if err != nil {
		p.log.Error("classification failed",
			logging.String("source", string(in.Source)),
			logging.Err(err))
	}
	if p.telemetry != nil && result.Classified() {
		p.telemetry.RecordVerdict(ctx, string(result.Source), string(result.Verdict), time.Since(start))
	}
	return result, err
}

// finish records a terminal result in metrics and history
func (p *Pipeline) finish(ctx context.Context, result model.CheckResult) {
	if p.telemetry != nil {
		p.telemetry.RecordCheck(ctx, string(result.Source), string(result.Outcome))
	}
	if p.history != nil {
		if err := p.history.Record(ctx, result); err != nil {
			p.log.Warn("history record failed", logging.Err(err))
		}
	}
}

//nolint:spancheck // Caller ends the span
func (p *Pipeline) startSpan(ctx context.Context, name string, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	if p.telemetry == nil {
		return noop.NewTracerProvider().Tracer("").Start(ctx, name)
	}
	return p.telemetry.StartSpan(ctx, name, attrs...)
}

// Preview returns the first PreviewChars characters of text, with "..."
// appended only when text was cut
func Preview(text string) string {
	runes := []rune(text)
	if len(runes) <= PreviewChars {
		return text
	}
	return string(runes[:PreviewChars]) + "..."
}
