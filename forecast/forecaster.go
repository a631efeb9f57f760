package forecast

import (
	"context"
	"fmt"
	"time"

	log "github.com/sirupsen/logrus"
)

// Forecaster turns recent price history into a single prediction
type Forecaster struct {
	model Model
}

// New wraps a model. Pass DriftModel{} when no model server is available.
func New(model Model) *Forecaster {
	return &Forecaster{model: model}
}

// NewFromURL picks the HTTP model when url is set and the drift model otherwise
func NewFromURL(url string, timeout time.Duration) *Forecaster {
	if url == "" {
		log.Info("No forecast URL configured, using drift model")
		return New(DriftModel{})
	}
	log.WithField("url", url).Info("Using remote forecast model")
	return New(NewHTTPModel(url, timeout))
}

// Forecast predicts the next price from prices ordered oldest first
func (f *Forecaster) Forecast(ctx context.Context, prices []float64) (float64, error) {
	features, err := ExtractFeatures(prices)
	if err != nil {
		return 0, err
	}

	start := time.Now()
	prediction, err := f.model.Predict(ctx, features)
	if err != nil {
		return 0, fmt.Errorf("failed to predict: %w", err)
	}

	log.WithFields(log.Fields{
		"points":     len(prices),
		"prediction": prediction,
		"duration":   time.Since(start),
	}).Debug("Forecast computed")
	return prediction, nil
}
