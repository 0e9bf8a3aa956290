package pipeline

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/ppiankov/newsverdict/internal/artifact"
	"github.com/ppiankov/newsverdict/internal/model"
)

// ClassificationError means the vectorizer or classifier failed.
// It is never turned into a verdict.
type ClassificationError struct {
	Err error
}

func (e *ClassificationError) Error() string {
	return fmt.Sprintf("classification failed: %v", e.Err)
}

func (e *ClassificationError) Unwrap() error {
	return e.Err
}

// Input is one raw input to the verdict pipeline.
// Exactly one of Article, Extracted or Text is meaningful, chosen by Source.
type Input struct {
	Source    model.Source
	Article   *model.ArticleRecord
	Extracted *model.ExtractedArticle
	Text      string
}

// ArticleInput wraps a provider article
func ArticleInput(source model.Source, a model.ArticleRecord) Input {
	return Input{Source: source, Article: &a}
}

// ExtractedInput wraps an extracted page
func ExtractedInput(e model.ExtractedArticle) Input {
	return Input{Source: model.SourceURL, Extracted: &e}
}

// TextInput wraps manually entered text
func TextInput(text string) Input {
	return Input{Source: model.SourceText, Text: text}
}

// AnalysisText is the normalized text handed to the vectorizer.
// Invalid UTF-8 is replaced with U+FFFD rather than rejected.
func (in Input) AnalysisText() string {
	var text string
	switch {
	case in.Article != nil:
		text = in.Article.AnalysisInput()
	case in.Extracted != nil:
		text = in.Extracted.Text
	default:
		text = in.Text
	}
	return strings.ToValidUTF8(text, "\uFFFD")
}

// Evaluator runs the verdict pipeline against loaded artifacts.
// It holds no mutable state and is safe for concurrent use.
type Evaluator struct {
	predictor artifact.Predictor
	tracer    trace.Tracer
	now       func() time.Time
}

// NewEvaluator creates an evaluator over predictor
func NewEvaluator(predictor artifact.Predictor) *Evaluator {
	return &Evaluator{
		predictor: predictor,
		tracer:    otel.Tracer("newsverdict/pipeline"),
		now:       time.Now,
	}
}

// Evaluate turns one input into a CheckResult.
//
// The returned error is non-nil only for a *ClassificationError; the result
// then carries OutcomeClassificationError and no verdict. Degenerate inputs
// end in OutcomeNoContent and never reach the classifier.
func (e *Evaluator) Evaluate(ctx context.Context, in Input) (model.CheckResult, error) {
	ctx, span := e.tracer.Start(ctx, "pipeline.evaluate",
		trace.WithAttributes(attribute.String("source", string(in.Source))))
	defer span.End()

	result := model.CheckResult{
		Source:    in.Source,
		Article:   in.Article,
		Extracted: in.Extracted,
		CheckedAt: e.now().UTC(),
	}

	// 1. An extraction without text never reaches the pipeline
	if in.Extracted != nil && !in.Extracted.HasText() {
		result.Outcome = model.OutcomeExtractionFailed
		result.Error = "could not extract text from URL"
		span.SetAttributes(attribute.String("outcome", string(result.Outcome)))
		return result, nil
	}

	// 2. Normalize
	text := in.AnalysisText()

	// 3. Degenerate input
	if strings.TrimSpace(text) == "" {
		result.Outcome = model.OutcomeNoContent
		span.SetAttributes(attribute.String("outcome", string(result.Outcome)))
		return result, nil
	}

	// 4. Short manual text is flagged but still classified
	if in.Source == model.SourceText && model.TokenCount(text) < model.ShortTextTokenThreshold {
		result.Advisory = model.ShortTextAdvisory
	}

	// 5. Transform and classify; not cancellable once begun
	class, err := e.predictor.Predict(context.WithoutCancel(ctx), text)
	if err != nil {
		cerr := &ClassificationError{Err: err}
		result.Outcome = model.OutcomeClassificationError
		result.Error = cerr.Error()
		span.RecordError(err)
		span.SetStatus(codes.Error, "classification failed")
		return result, cerr
	}

	// 6. Label mapping
	result.Outcome = model.OutcomeClassified
	result.Class = &class
	result.Verdict = model.VerdictForClass(class)

	span.SetAttributes(
		attribute.String("outcome", string(result.Outcome)),
		attribute.String("verdict", string(result.Verdict)),
	)
	return result, nil
}
