// Package artifact loads the pre-trained vectorizer and classifier and runs them.
package artifact

import (
	"context"
	"fmt"
	"strings"

	"github.com/ppiankov/newsverdict/internal/model"
)

// Predictor maps analysis text to a class label
type Predictor interface {
	Predict(ctx context.Context, text string) (int, error)
}

// Model pairs a vectorizer with a classifier trained on its feature space
type Model struct {
	vectorizer *Vectorizer
	classifier *Classifier
}

// NewModel validates both artifacts and their compatibility
func NewModel(vec *Vectorizer, clf *Classifier) (*Model, error) {
	if err := vec.Validate(); err != nil {
		return nil, fmt.Errorf("vectorizer: %w", err)
	}
	if err := clf.Validate(); err != nil {
		return nil, fmt.Errorf("classifier: %w", err)
	}
	if vec.Dimension() != clf.Dimension() {
		return nil, fmt.Errorf("%w: vectorizer produces %d features, classifier expects %d",
			ErrDimensionMismatch, vec.Dimension(), clf.Dimension())
	}
	return &Model{vectorizer: vec, classifier: clf}, nil
}

// Predict runs the feature transform and the classifier
func (m *Model) Predict(ctx context.Context, text string) (int, error) {
	vec, err := m.vectorizer.Transform(text)
	if err != nil {
		return 0, fmt.Errorf("transform: %w", err)
	}
	class, err := m.classifier.Predict(vec)
	if err != nil {
		return 0, fmt.Errorf("classify: %w", err)
	}
	return class, nil
}

// Info describes the loaded artifacts
func (m *Model) Info() map[string]any {
	return map[string]any{
		"features":    m.vectorizer.Dimension(),
		"ngram_range": m.vectorizer.NgramRange,
		"norm":        m.vectorizer.Norm,
		"classes":     m.classifier.Classes,
	}
}

// Health always succeeds for in-process artifacts
func (m *Model) Health(ctx context.Context) error {
	return nil
}

// Load picks the artifact source from configuration
func Load(cfg model.ModelConfig) (Predictor, error) {
	names := Names{Vectorizer: cfg.VectorizerName, Classifier: cfg.ClassifierName}

	switch strings.ToLower(cfg.Backend) {
	case "", "local":
		var (
			m   *Model
			err error
		)
		if cfg.Store != "" {
			m, err = LoadBolt(cfg.Store, names)
		} else {
			m, err = LoadDir(cfg.Dir, names)
		}
		if err != nil {
			return nil, err
		}
		return m, nil

	case "remote":
		if cfg.RemoteURL == "" {
			return nil, fmt.Errorf("model.remote_url is required for the remote backend")
		}
		return NewRemoteModel(cfg.RemoteURL, cfg.RemoteTimeout), nil

	default:
		return nil, fmt.Errorf("unknown model backend: %s (supported: local, remote)", cfg.Backend)
	}
}
