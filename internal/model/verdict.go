package model

import "time"

// RealClassLabel is the classifier output that means "real news".
// This is a contract of the trained artifacts: every other label is fake.
const RealClassLabel = 1

// ShortTextTokenThreshold is the token count below which manual text
// gets an advisory. The advisory never blocks classification.
const ShortTextTokenThreshold = 20

// ShortTextAdvisory is shown for manual text under ShortTextTokenThreshold tokens
const ShortTextAdvisory = "The entered text is very short. Please enter the full content for better accuracy."

// Verdict is the binary label shown to the user
type Verdict string

const (
	VerdictReal Verdict = "real"
	VerdictFake Verdict = "fake"
)

// VerdictForClass maps a classifier label to a Verdict
func VerdictForClass(class int) Verdict {
	if class == RealClassLabel {
		return VerdictReal
	}
	return VerdictFake
}

// Label returns the human-readable label for the verdict
func (v Verdict) Label() string {
	switch v {
	case VerdictReal:
		return "Predicted as Real News"
	case VerdictFake:
		return "Predicted as Fake News"
	default:
		return ""
	}
}

// Outcome is the terminal state of a single check
type Outcome string

const (
	OutcomeClassified          Outcome = "classified"
	OutcomeNoContent           Outcome = "no_content"
	OutcomeExtractionFailed    Outcome = "extraction_failed"
	OutcomeUpstreamFetchError  Outcome = "upstream_fetch_error"
	OutcomeClassificationError Outcome = "classification_error"
)

// Source identifies which surface produced the input
type Source string

const (
	SourceHeadline Source = "headline"
	SourceSearch   Source = "search"
	SourceURL      Source = "url"
	SourceText     Source = "text"
)

// CheckResult is everything a surface needs to render one check
type CheckResult struct {
	Source   Source  `json:"source"`
	Outcome  Outcome `json:"outcome"`
	Verdict  Verdict `json:"verdict,omitempty"`
	Class    *int    `json:"class,omitempty"`
	Advisory string  `json:"advisory,omitempty"`
	Error    string  `json:"error,omitempty"`

	Article   *ArticleRecord    `json:"article,omitempty"`   // Headline and search results
	Extracted *ExtractedArticle `json:"extracted,omitempty"` // URL checks
	Preview   string            `json:"preview,omitempty"`   // Truncated body shown for URL checks
	Summary   string            `json:"summary,omitempty"`   // Optional LLM summary, never affects the verdict

	CheckedAt time.Time `json:"checked_at"`
}

// Classified reports whether the result carries a verdict
func (r CheckResult) Classified() bool {
	return r.Outcome == OutcomeClassified
}

// Title returns the best available title for display
func (r CheckResult) Title() string {
	if r.Article != nil && r.Article.Title != "" {
		return r.Article.Title
	}
	if r.Extracted != nil {
		return r.Extracted.Title
	}
	return ""
}

// URL returns the article URL, if any
func (r CheckResult) URL() string {
	if r.Article != nil && r.Article.URL != "" {
		return r.Article.URL
	}
	if r.Extracted != nil {
		return r.Extracted.URL
	}
	return ""
}

// BatchResult is the result of checking a list of provider articles
type BatchResult struct {
	Source  Source        `json:"source"`
	Query   string        `json:"query,omitempty"`
	Outcome Outcome       `json:"outcome"` // upstream_fetch_error for the whole batch, else classified
	Error   string        `json:"error,omitempty"`
	Results []CheckResult `json:"results"`
}
