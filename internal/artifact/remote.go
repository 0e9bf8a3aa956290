package artifact

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
)

// ErrUnavailable indicates the model sidecar is unreachable
var ErrUnavailable = errors.New("model service unavailable")

const defaultRemoteTimeout = 5 * time.Second

// RemoteModel delegates vectorization and classification to a model sidecar
// that serves the same artifacts over HTTP.
type RemoteModel struct {
	client *resty.Client
}

type predictRequest struct {
	Text string `json:"text"`
}

type predictResponse struct {
	Label *int `json:"label"`
}

// NewRemoteModel creates a client for the sidecar at baseURL
func NewRemoteModel(baseURL string, timeout time.Duration) *RemoteModel {
	if timeout <= 0 {
		timeout = defaultRemoteTimeout
	}
	client := resty.New().
		SetBaseURL(strings.TrimRight(baseURL, "/")).
		SetTimeout(timeout).
		SetHeader("Accept", "application/json")

	return &RemoteModel{client: client}
}

// Predict sends POST /predict and returns the label
func (r *RemoteModel) Predict(ctx context.Context, text string) (int, error) {
	var out predictResponse
	resp, err := r.client.R().
		SetContext(ctx).
		SetBody(predictRequest{Text: text}).
		SetResult(&out).
		Post("/predict")
	if err != nil {
		return 0, fmt.Errorf("%w: %w", ErrUnavailable, err)
	}
	if resp.StatusCode() != http.StatusOK {
		return 0, fmt.Errorf("model service returned %d", resp.StatusCode())
	}
	if out.Label == nil {
		return 0, fmt.Errorf("model service response has no label")
	}
	return *out.Label, nil
}

// Health calls GET /health
func (r *RemoteModel) Health(ctx context.Context) error {
	resp, err := r.client.R().SetContext(ctx).Get("/health")
	if err != nil {
		return fmt.Errorf("%w: %w", ErrUnavailable, err)
	}
	if resp.StatusCode() != http.StatusOK {
		return fmt.Errorf("unhealthy status: %d", resp.StatusCode())
	}
	return nil
}
