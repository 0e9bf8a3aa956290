package artifact

import (
	"errors"
	"fmt"
	"math"
	"sort"
	"strings"
	"unicode"
)

// KindTFIDF is the only vectorizer kind currently understood
const KindTFIDF = "tfidf"

// ErrDimensionMismatch is returned when a feature vector does not fit a classifier
var ErrDimensionMismatch = errors.New("feature dimension mismatch")

// Vector is a sparse feature vector. Indices are strictly increasing.
type Vector struct {
	Dim     int
	Indices []int
	Values  []float64
}

// Vectorizer turns text into a TF-IDF feature vector.
// It is immutable after loading and safe for concurrent use.
type Vectorizer struct {
	Kind        string         `json:"kind"`
	Lowercase   bool           `json:"lowercase"`
	NgramRange  [2]int         `json:"ngram_range"`
	StopWords   []string       `json:"stop_words,omitempty"`
	Vocabulary  map[string]int `json:"vocabulary"`
	IDF         []float64      `json:"idf,omitempty"`
	SublinearTF bool           `json:"sublinear_tf,omitempty"`
	Norm        string         `json:"norm,omitempty"` // l2, l1 or empty

	stop map[string]struct{}
}

// Dimension returns the size of the feature space
func (v *Vectorizer) Dimension() int {
	return len(v.Vocabulary)
}

// Validate checks internal consistency and prepares lookup tables
func (v *Vectorizer) Validate() error {
	if v.Kind != "" && v.Kind != KindTFIDF {
		return fmt.Errorf("unsupported vectorizer kind %q", v.Kind)
	}
	if len(v.Vocabulary) == 0 {
		return fmt.Errorf("vectorizer vocabulary is empty")
	}

	if v.NgramRange == [2]int{} {
		v.NgramRange = [2]int{1, 1}
	}
	if v.NgramRange[0] < 1 || v.NgramRange[1] < v.NgramRange[0] {
		return fmt.Errorf("invalid ngram_range %v", v.NgramRange)
	}

	dim := len(v.Vocabulary)
	owner := make(map[int]string, dim)
	for term, idx := range v.Vocabulary {
		if idx < 0 || idx >= dim {
			return fmt.Errorf("vocabulary index %d for %q outside [0,%d)", idx, term, dim)
		}
		if prev, dup := owner[idx]; dup {
			return fmt.Errorf("vocabulary index %d shared by %q and %q", idx, prev, term)
		}
		owner[idx] = term
	}
	if len(v.IDF) != 0 && len(v.IDF) != dim {
		return fmt.Errorf("idf has %d entries, vocabulary has %d", len(v.IDF), dim)
	}

	switch v.Norm {
	case "", "l1", "l2":
	default:
		return fmt.Errorf("unsupported norm %q", v.Norm)
	}

	v.stop = make(map[string]struct{}, len(v.StopWords))
	for _, w := range v.StopWords {
		v.stop[w] = struct{}{}
	}
	return nil
}

// Transform converts text into a normalized sparse vector.
// Terms outside the vocabulary are ignored.
func (v *Vectorizer) Transform(text string) (Vector, error) {
	// Invalid bytes become U+FFFD, which never forms part of a token
	text = strings.ToValidUTF8(text, "\uFFFD")

	counts := make(map[int]float64)
	for _, term := range v.terms(text) {
		if idx, ok := v.Vocabulary[term]; ok {
			counts[idx]++
		}
	}

	vec := Vector{
		Dim:     v.Dimension(),
		Indices: make([]int, 0, len(counts)),
		Values:  make([]float64, 0, len(counts)),
	}
	for idx := range counts {
		vec.Indices = append(vec.Indices, idx)
	}
	sort.Ints(vec.Indices)

	for _, idx := range vec.Indices {
		tf := counts[idx]
		if v.SublinearTF {
			tf = 1 + math.Log(tf)
		}
		if len(v.IDF) > 0 {
			tf *= v.IDF[idx]
		}
		vec.Values = append(vec.Values, tf)
	}

	normalize(vec.Values, v.Norm)
	return vec, nil
}

// terms tokenizes text and expands word n-grams
func (v *Vectorizer) terms(text string) []string {
	if v.Lowercase {
		text = strings.ToLower(text)
	}

	tokens := tokenize(text)
	if len(v.stop) > 0 {
		kept := tokens[:0]
		for _, tok := range tokens {
			if _, skip := v.stop[tok]; !skip {
				kept = append(kept, tok)
			}
		}
		tokens = kept
	}

	minN, maxN := v.NgramRange[0], v.NgramRange[1]
	if minN == 0 {
		minN, maxN = 1, 1
	}
	if minN == 1 && maxN == 1 {
		return tokens
	}

	var out []string
	for n := minN; n <= maxN; n++ {
		for i := 0; i+n <= len(tokens); i++ {
			out = append(out, strings.Join(tokens[i:i+n], " "))
		}
	}
	return out
}

// tokenize returns runs of word characters at least two runes long
func tokenize(text string) []string {
	var tokens []string
	start := -1
	runes := 0

	flush := func(end int) {
		if start >= 0 && runes >= 2 {
			tokens = append(tokens, text[start:end])
		}
		start, runes = -1, 0
	}

	for i, r := range text {
		if isWordRune(r) {
			if start < 0 {
				start = i
			}
			runes++
			continue
		}
		flush(i)
	}
	flush(len(text))

	return tokens
}

func isWordRune(r rune) bool {
	return r == '_' || unicode.IsLetter(r) || unicode.IsNumber(r)
}

func normalize(values []float64, norm string) {
	var total float64
	switch norm {
	case "l2":
		for _, x := range values {
			total += x * x
		}
		total = math.Sqrt(total)
	case "l1":
		for _, x := range values {
			total += math.Abs(x)
		}
	default:
		return
	}

	if total == 0 {
		return
	}
	for i := range values {
		values[i] /= total
	}
}
