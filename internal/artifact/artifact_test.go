package artifact

import (
	"context"
	"encoding/json"
	"errors"
	"math"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"reflect"
	"testing"

	"github.com/ppiankov/newsverdict/internal/model"
)

// testVectorizer has a 4-term vocabulary: "storm" "coast" "aliens" "storm coast"
func testVectorizer() *Vectorizer {
	return &Vectorizer{
		Kind:       KindTFIDF,
		Lowercase:  true,
		NgramRange: [2]int{1, 2},
		StopWords:  []string{"the"},
		Vocabulary: map[string]int{"storm": 0, "coast": 1, "aliens": 2, "storm coast": 3},
		IDF:        []float64{1, 1, 2, 1},
		Norm:       "l2",
	}
}

// testClassifier says "real" when storm/coast dominate and "fake" when aliens do
func testClassifier() *Classifier {
	return &Classifier{
		Kind:      KindLinear,
		Classes:   []int{0, 1},
		Coef:      [][]float64{{1, 1, -3, 0.5}},
		Intercept: []float64{-0.1},
	}
}

func TestTokenize(t *testing.T) {
	got := tokenize("A storm, hits the coast! x_y 42 a é café")
	want := []string{"storm", "hits", "the", "coast", "x_y", "42", "café"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("tokenize = %v, want %v", got, want)
	}
}

func TestTokenize_NumericRunes(t *testing.T) {
	got := tokenize("x² ½½ Ⅻ 2nd")
	want := []string{"x²", "½½", "2nd"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("tokenize = %v, want %v", got, want)
	}
}

func TestVectorizer_Terms(t *testing.T) {
	v := testVectorizer()
	if err := v.Validate(); err != nil {
		t.Fatalf("Validate: %v", err)
	}

	got := v.terms("The STORM coast")
	want := []string{"storm", "coast", "storm coast"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("terms = %v, want %v", got, want)
	}
}

func TestVectorizer_Transform(t *testing.T) {
	v := testVectorizer()
	if err := v.Validate(); err != nil {
		t.Fatalf("Validate: %v", err)
	}

	vec, err := v.Transform("storm storm aliens")
	if err != nil {
		t.Fatalf("Transform: %v", err)
	}

	if vec.Dim != 4 {
		t.Errorf("expected dim 4, got %d", vec.Dim)
	}
	if !reflect.DeepEqual(vec.Indices, []int{0, 2}) {
		t.Fatalf("unexpected indices %v", vec.Indices)
	}

	// raw: storm=2*1, aliens=1*2 -> both 2, l2 norm sqrt(8)
	want := 2 / math.Sqrt(8)
	for i, val := range vec.Values {
		if math.Abs(val-want) > 1e-9 {
			t.Errorf("value[%d] = %f, want %f", i, val, want)
		}
	}
}

func TestVectorizer_TransformNoKnownTerms(t *testing.T) {
	v := testVectorizer()
	_ = v.Validate()

	vec, err := v.Transform("nothing we know")
	if err != nil {
		t.Fatalf("Transform: %v", err)
	}
	if len(vec.Indices) != 0 {
		t.Errorf("expected empty vector, got %v", vec.Indices)
	}
}

func TestVectorizer_TransformInvalidUTF8(t *testing.T) {
	v := testVectorizer()
	if err := v.Validate(); err != nil {
		t.Fatalf("Validate: %v", err)
	}

	vec, err := v.Transform("storm\xe9 coast aliens\xff")
	if err != nil {
		t.Fatalf("Transform: %v", err)
	}
	// Replacement characters split tokens but never join them
	if !reflect.DeepEqual(vec.Indices, []int{0, 1, 2, 3}) {
		t.Errorf("indices = %v, want [0 1 2 3]", vec.Indices)
	}
}

func TestVectorizer_SublinearTF(t *testing.T) {
	v := testVectorizer()
	v.SublinearTF = true
	v.Norm = ""
	_ = v.Validate()

	vec, _ := v.Transform("storm storm storm")
	want := 1 + math.Log(3)
	if len(vec.Values) != 1 || math.Abs(vec.Values[0]-want) > 1e-9 {
		t.Errorf("expected sublinear tf %f, got %v", want, vec.Values)
	}
}

func TestVectorizer_ValidateErrors(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(v *Vectorizer)
	}{
		{"unknown kind", func(v *Vectorizer) { v.Kind = "bow" }},
		{"empty vocabulary", func(v *Vectorizer) { v.Vocabulary = nil }},
		{"idf length", func(v *Vectorizer) { v.IDF = []float64{1} }},
		{"index out of range", func(v *Vectorizer) { v.Vocabulary["extra"] = 10 }},
		{"duplicate index", func(v *Vectorizer) { v.Vocabulary["coast"] = 0 }},
		{"bad ngram range", func(v *Vectorizer) { v.NgramRange = [2]int{2, 1} }},
		{"bad norm", func(v *Vectorizer) { v.Norm = "max" }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v := testVectorizer()
			tt.mutate(v)
			if err := v.Validate(); err == nil {
				t.Error("expected validation error")
			}
		})
	}
}

func TestClassifier_Predict(t *testing.T) {
	m, err := NewModel(testVectorizer(), testClassifier())
	if err != nil {
		t.Fatalf("NewModel: %v", err)
	}

	ctx := context.Background()
	real, err := m.Predict(ctx, "Storm hits the coast")
	if err != nil {
		t.Fatalf("Predict: %v", err)
	}
	if real != 1 {
		t.Errorf("expected class 1, got %d", real)
	}

	fake, err := m.Predict(ctx, "aliens aliens everywhere")
	if err != nil {
		t.Fatalf("Predict: %v", err)
	}
	if fake != 0 {
		t.Errorf("expected class 0, got %d", fake)
	}

	// Unknown words only: decision is the negative intercept
	none, _ := m.Predict(ctx, "unrelated words")
	if none != 0 {
		t.Errorf("expected class 0 for empty vector, got %d", none)
	}
}

func TestClassifier_Multiclass(t *testing.T) {
	clf := &Classifier{
		Classes:   []int{0, 1, 2},
		Coef:      [][]float64{{1, 0}, {0, 1}, {0.5, 0.5}},
		Intercept: []float64{0, 0, 0.2},
	}
	if err := clf.Validate(); err != nil {
		t.Fatalf("Validate: %v", err)
	}

	got, err := clf.Predict(Vector{Dim: 2, Indices: []int{1}, Values: []float64{1}})
	if err != nil {
		t.Fatalf("Predict: %v", err)
	}
	if got != 1 {
		t.Errorf("expected class 1, got %d", got)
	}
}

func TestClassifier_DimensionMismatch(t *testing.T) {
	clf := testClassifier()
	_, err := clf.Predict(Vector{Dim: 3})
	if !errors.Is(err, ErrDimensionMismatch) {
		t.Errorf("expected ErrDimensionMismatch, got %v", err)
	}

	_, err = NewModel(&Vectorizer{Vocabulary: map[string]int{"a": 0}}, testClassifier())
	if !errors.Is(err, ErrDimensionMismatch) {
		t.Errorf("expected ErrDimensionMismatch from NewModel, got %v", err)
	}
}

func TestClassifier_MalformedVector(t *testing.T) {
	clf := testClassifier()
	if _, err := clf.Predict(Vector{Dim: 4, Indices: []int{9}, Values: []float64{1}}); err == nil {
		t.Error("expected error for out-of-range index")
	}
	if _, err := clf.Predict(Vector{Dim: 4, Indices: []int{0}}); err == nil {
		t.Error("expected error for missing values")
	}
}

func TestClassifier_ValidateErrors(t *testing.T) {
	tests := []struct {
		name string
		clf  *Classifier
	}{
		{"one class", &Classifier{Classes: []int{1}, Coef: [][]float64{{1}}, Intercept: []float64{0}}},
		{"no coef", &Classifier{Classes: []int{0, 1}}},
		{"intercept mismatch", &Classifier{Classes: []int{0, 1}, Coef: [][]float64{{1}}, Intercept: []float64{0, 1}}},
		{"ragged coef", &Classifier{Classes: []int{0, 1, 2}, Coef: [][]float64{{1}, {1, 2}, {1}}, Intercept: []float64{0, 0, 0}}},
		{"kind", &Classifier{Kind: "tree", Classes: []int{0, 1}, Coef: [][]float64{{1}}, Intercept: []float64{0}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := tt.clf.Validate(); err == nil {
				t.Error("expected validation error")
			}
		})
	}
}

func writeArtifacts(t *testing.T, dir string) {
	t.Helper()
	for name, v := range map[string]any{
		"vectorizer.json": testVectorizer(),
		"classifier.json": testClassifier(),
	} {
		data, err := json.Marshal(v)
		if err != nil {
			t.Fatalf("marshal %s: %v", name, err)
		}
		if err := os.WriteFile(filepath.Join(dir, name), data, 0o644); err != nil {
			t.Fatalf("write %s: %v", name, err)
		}
	}
}

func TestLoadDir(t *testing.T) {
	dir := t.TempDir()
	writeArtifacts(t, dir)

	m, err := LoadDir(dir, Names{})
	if err != nil {
		t.Fatalf("LoadDir: %v", err)
	}
	class, err := m.Predict(context.Background(), "storm coast")
	if err != nil || class != 1 {
		t.Errorf("expected class 1, got %d (%v)", class, err)
	}
}

func TestLoadDir_Missing(t *testing.T) {
	if _, err := LoadDir(t.TempDir(), DefaultNames()); err == nil {
		t.Error("expected error for missing artifacts")
	}
}

func TestImportAndLoadBolt(t *testing.T) {
	dir := t.TempDir()
	writeArtifacts(t, dir)
	store := filepath.Join(t.TempDir(), "artifacts.db")

	if err := ImportDir(dir, store, DefaultNames()); err != nil {
		t.Fatalf("ImportDir: %v", err)
	}

	m, err := LoadBolt(store, DefaultNames())
	if err != nil {
		t.Fatalf("LoadBolt: %v", err)
	}
	class, err := m.Predict(context.Background(), "aliens")
	if err != nil || class != 0 {
		t.Errorf("expected class 0, got %d (%v)", class, err)
	}

	if _, err := LoadBolt(store, Names{Vectorizer: "other"}); err == nil {
		t.Error("expected error for missing blob name")
	}
}

func TestLoadBolt_MissingFile(t *testing.T) {
	if _, err := LoadBolt(filepath.Join(t.TempDir(), "nope.db"), DefaultNames()); err == nil {
		t.Error("expected error for missing store")
	}
}

func TestLoad_Backends(t *testing.T) {
	dir := t.TempDir()
	writeArtifacts(t, dir)

	p, err := Load(model.ModelConfig{Backend: "local", Dir: dir})
	if err != nil {
		t.Fatalf("Load local: %v", err)
	}
	if _, ok := p.(*Model); !ok {
		t.Errorf("expected *Model, got %T", p)
	}

	if _, err := Load(model.ModelConfig{Backend: "remote"}); err == nil {
		t.Error("expected error for remote backend without URL")
	}
	if _, err := Load(model.ModelConfig{Backend: "carrier-pigeon"}); err == nil {
		t.Error("expected error for unknown backend")
	}
	p, err = Load(model.ModelConfig{Backend: "local", Dir: t.TempDir()})
	if err == nil || p != nil {
		t.Errorf("expected nil predictor and error, got %v / %v", p, err)
	}
}

func TestRemoteModel_Predict(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/predict" || r.Method != http.MethodPost {
			t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
		}
		var req predictRequest
		_ = json.NewDecoder(r.Body).Decode(&req)
		label := 0
		if req.Text == "real text" {
			label = 1
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]int{"label": label})
	}))
	defer server.Close()

	m := NewRemoteModel(server.URL, 0)
	got, err := m.Predict(context.Background(), "real text")
	if err != nil {
		t.Fatalf("Predict: %v", err)
	}
	if got != 1 {
		t.Errorf("expected 1, got %d", got)
	}
}

func TestRemoteModel_Errors(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/predict":
			w.Header().Set("Content-Type", "application/json")
			_, _ = w.Write([]byte(`{}`))
		default:
			w.WriteHeader(http.StatusServiceUnavailable)
		}
	}))
	defer server.Close()

	m := NewRemoteModel(server.URL, 0)
	if _, err := m.Predict(context.Background(), "x"); err == nil {
		t.Error("expected error for missing label")
	}
	if err := m.Health(context.Background()); err == nil {
		t.Error("expected error for unhealthy sidecar")
	}

	server.Close()
	if _, err := m.Predict(context.Background(), "x"); !errors.Is(err, ErrUnavailable) {
		t.Errorf("expected ErrUnavailable, got %v", err)
	}
}
