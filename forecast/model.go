package forecast

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// Model predicts the next price from a feature vector
type Model interface {
	Predict(ctx context.Context, features []float64) (float64, error)
}

type predictRequest struct {
	Features []float64 `json:"features"`
}

type predictResponse struct {
	Prediction *float64 `json:"prediction"`
}

// HTTPModel calls a remote model server
type HTTPModel struct {
	url    string
	client *http.Client
}

// NewHTTPModel creates a model client. The per-call deadline comes from ctx;
// timeout only bounds calls made without one.
func NewHTTPModel(url string, timeout time.Duration) *HTTPModel {
	return &HTTPModel{
		url:    url,
		client: &http.Client{Timeout: timeout},
	}
}

func (m *HTTPModel) Predict(ctx context.Context, features []float64) (float64, error) {
	body, err := json.Marshal(predictRequest{Features: features})
	if err != nil {
		return 0, fmt.Errorf("failed to encode features: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, m.url, bytes.NewReader(body))
	if err != nil {
		return 0, fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := m.client.Do(req)
	if err != nil {
		return 0, fmt.Errorf("failed to call model: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return 0, fmt.Errorf("model returned %d: %s", resp.StatusCode, bytes.TrimSpace(msg))
	}

	var out predictResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return 0, fmt.Errorf("failed to decode model response: %w", err)
	}
	if out.Prediction == nil {
		return 0, fmt.Errorf("model response has no prediction")
	}
	return *out.Prediction, nil
}

// DriftModel extrapolates the last price by the average move over the
// month window. Used when no model server is configured.
type DriftModel struct{}

func (DriftModel) Predict(_ context.Context, features []float64) (float64, error) {
	if len(features) != FeatureCount {
		return 0, fmt.Errorf("expected %d features, got %d", FeatureCount, len(features))
	}
	last := features[diffOffset-1]
	diffs := features[diffOffset : diffOffset+MonthWindow-1]
	return last + mean(diffs), nil
}
