package chart

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"zhigulbot/models"

	log "github.com/sirupsen/logrus"
)

// Window is one of the charts regenerated after every cycle
type Window struct {
	Name  string
	Title string
	// Points is how many of the latest snapshots to plot; 0 plots everything
	Points int
}

var (
	WindowAll    = Window{Name: "all", Title: "ZHIGUL price, all time", Points: 0}
	WindowLast60 = Window{Name: "60", Title: "ZHIGUL price, last 60 cycles", Points: 60}
	WindowLast14 = Window{Name: "14", Title: "ZHIGUL price, last 14 cycles", Points: 14}

	// DefaultWindows are the charts served to players
	DefaultWindows = []Window{WindowAll, WindowLast60, WindowLast14}
)

// Filename returns the PNG name of the window
func (w Window) Filename() string {
	return fmt.Sprintf("chart_%s.png", w.Name)
}

// HistorySource provides price snapshots ordered oldest first. A limit of
// zero or less returns the full history.
type HistorySource interface {
	GetHistory(ctx context.Context, limit int) ([]*models.PriceSnapshot, error)
}

// Refresher regenerates chart files from the price history
type Refresher struct {
	source   HistorySource
	renderer *Renderer
	dir      string
	windows  []Window

	// mu serializes writers and lets readers see complete files
	mu sync.RWMutex
}

// NewRefresher creates a refresher writing DefaultWindows into dir
func NewRefresher(source HistorySource, dir string) *Refresher {
	return &Refresher{
		source:   source,
		renderer: NewRenderer(),
		dir:      dir,
		windows:  DefaultWindows,
	}
}

// Refresh renders every window from one history read
func (r *Refresher) Refresh(ctx context.Context) error {
	history, err := r.source.GetHistory(ctx, 0)
	if err != nil {
		return fmt.Errorf("failed to load price history: %w", err)
	}
	prices := make([]float64, len(history))
	for i, snapshot := range history {
		prices[i] = snapshot.CurrentPrice.InexactFloat64()
	}

	if err := os.MkdirAll(r.dir, 0o755); err != nil {
		return fmt.Errorf("failed to create chart directory: %w", err)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	var errs []error
	for _, w := range r.windows {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := r.renderWindow(w, prices); err != nil {
			errs = append(errs, fmt.Errorf("chart %s: %w", w.Name, err))
		}
	}

	log.WithFields(log.Fields{
		"points": len(prices),
		"dir":    r.dir,
	}).Debug("Charts refreshed")
	return errors.Join(errs...)
}

func (r *Refresher) renderWindow(w Window, prices []float64) error {
	if w.Points > 0 && len(prices) > w.Points {
		prices = prices[len(prices)-w.Points:]
	}

	png, err := r.renderer.Render(w.Title, prices)
	if err != nil {
		return err
	}

	// Write then rename so readers never see a half-written file
	path := r.Path(w)
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, png, 0o644); err != nil {
		return fmt.Errorf("failed to write chart: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		return fmt.Errorf("failed to replace chart: %w", err)
	}
	return nil
}

// Path returns where the window's PNG is written
func (r *Refresher) Path(w Window) string {
	return filepath.Join(r.dir, w.Filename())
}

// Read returns the latest rendered PNG for the window
func (r *Refresher) Read(w Window) ([]byte, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return os.ReadFile(r.Path(w))
}
