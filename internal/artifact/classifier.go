package artifact

import (
	"fmt"
)

// KindLinear covers logistic regression and other linear decision models
const KindLinear = "linear"

// Classifier is a linear model over Vectorizer features.
// It is immutable after loading and safe for concurrent use.
type Classifier struct {
	Kind      string      `json:"kind"`
	Classes   []int       `json:"classes"`
	Coef      [][]float64 `json:"coef"`
	Intercept []float64   `json:"intercept"`
}

// Dimension returns the number of features the classifier expects
func (c *Classifier) Dimension() int {
	if len(c.Coef) == 0 {
		return 0
	}
	return len(c.Coef[0])
}

// Validate checks the shape of the model
func (c *Classifier) Validate() error {
	if c.Kind != "" && c.Kind != KindLinear {
		return fmt.Errorf("unsupported classifier kind %q", c.Kind)
	}
	if len(c.Classes) < 2 {
		return fmt.Errorf("classifier needs at least 2 classes, has %d", len(c.Classes))
	}
	if len(c.Coef) == 0 {
		return fmt.Errorf("classifier has no coefficients")
	}

	binary := len(c.Classes) == 2 && len(c.Coef) == 1
	if !binary && len(c.Coef) != len(c.Classes) {
		return fmt.Errorf("coef has %d rows for %d classes", len(c.Coef), len(c.Classes))
	}
	if len(c.Intercept) != len(c.Coef) {
		return fmt.Errorf("intercept has %d entries for %d coef rows", len(c.Intercept), len(c.Coef))
	}

	dim := len(c.Coef[0])
	for i, row := range c.Coef {
		if len(row) != dim {
			return fmt.Errorf("coef row %d has %d features, want %d", i, len(row), dim)
		}
	}
	return nil
}

// Predict returns the class label for the feature vector
func (c *Classifier) Predict(vec Vector) (int, error) {
	scores, err := c.Decision(vec)
	if err != nil {
		return 0, err
	}

	if len(scores) == 1 {
		if scores[0] > 0 {
			return c.Classes[1], nil
		}
		return c.Classes[0], nil
	}

	best := 0
	for i := 1; i < len(scores); i++ {
		if scores[i] > scores[best] {
			best = i
		}
	}
	return c.Classes[best], nil
}

// Decision returns the raw decision score per coef row
func (c *Classifier) Decision(vec Vector) ([]float64, error) {
	if vec.Dim != c.Dimension() {
		return nil, fmt.Errorf("%w: vector has %d features, classifier expects %d", ErrDimensionMismatch, vec.Dim, c.Dimension())
	}
	if len(vec.Indices) != len(vec.Values) {
		return nil, fmt.Errorf("malformed vector: %d indices, %d values", len(vec.Indices), len(vec.Values))
	}

	scores := make([]float64, len(c.Coef))
	for r, row := range c.Coef {
		s := c.Intercept[r]
		for i, idx := range vec.Indices {
			if idx < 0 || idx >= len(row) {
				return nil, fmt.Errorf("malformed vector: index %d outside [0,%d)", idx, len(row))
			}
			s += row[idx] * vec.Values[i]
		}
		scores[r] = s
	}
	return scores, nil
}
