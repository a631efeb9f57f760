package chart

import (
	"bytes"
	"errors"
	"fmt"
	"time"

	"github.com/fogleman/gg"
	"github.com/golang/freetype/truetype"
	log "github.com/sirupsen/logrus"
	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/gobold"
	"golang.org/x/image/font/gofont/gomono"
)

// ErrNoData is returned when there is nothing to plot
var ErrNoData = errors.New("no price history to plot")

// Style defines the visual style of a chart
type Style struct {
	Width   int
	Height  int
	Padding float64
	// Plot area offsets for the title and the axis labels
	TitleHeight float64
	LabelWidth  float64

	Background [3]float64
	Grid       [4]float64
	Line       [3]float64
	Trend      [4]float64
}

// Renderer draws price line charts with a least-squares trend line
type Renderer struct {
	style Style
}

// NewRenderer creates a renderer with the default style
func NewRenderer() *Renderer {
	return &Renderer{
		style: Style{
			Width:       1000,
			Height:      360,
			Padding:     20,
			TitleHeight: 30,
			LabelWidth:  70,
			Background:  [3]float64{0.06, 0.07, 0.1},
			Grid:        [4]float64{0.6, 0.6, 0.7, 0.15},
			Line:        [3]float64{0.35, 0.75, 1.0},
			Trend:       [4]float64{1.0, 0.6, 0.2, 0.9},
		},
	}
}

// Render plots prices in order and returns a PNG
func (r *Renderer) Render(title string, prices []float64) ([]byte, error) {
	if len(prices) == 0 {
		return nil, ErrNoData
	}

	start := time.Now()
	defer func() {
		log.WithField("duration_ms", time.Since(start).Milliseconds()).
			WithField("points", len(prices)).
			Debug("Chart rendering completed")
	}()

	s := r.style
	dc := gg.NewContext(s.Width, s.Height)
	dc.SetRGB(s.Background[0], s.Background[1], s.Background[2])
	dc.Clear()

	titleFace, err := loadFont(gobold.TTF, 14)
	if err != nil {
		return nil, fmt.Errorf("failed to load font: %w", err)
	}
	labelFace, err := loadFont(gomono.TTF, 11)
	if err != nil {
		return nil, fmt.Errorf("failed to load font: %w", err)
	}

	dc.SetFontFace(titleFace)
	dc.SetRGB(1, 1, 1)
	dc.DrawStringAnchored(title, float64(s.Width)/2, s.Padding, 0.5, 0.5)

	left := s.Padding + s.LabelWidth
	top := s.Padding + s.TitleHeight
	width := float64(s.Width) - left - s.Padding
	height := float64(s.Height) - top - s.Padding

	lo, hi := bounds(prices)
	intercept, slope := LinearFit(prices)

	// Widen the range so the trend line stays inside the plot
	for _, x := range []float64{0, float64(len(prices) - 1)} {
		y := intercept + slope*x
		lo, hi = min(lo, y), max(hi, y)
	}
	if hi == lo {
		lo, hi = lo-1, hi+1
	}

	xAt := func(i float64) float64 {
		if len(prices) == 1 {
			return left + width/2
		}
		return left + width*i/float64(len(prices)-1)
	}
	yAt := func(v float64) float64 {
		return top + height*(hi-v)/(hi-lo)
	}

	// Horizontal grid with price labels
	const gridLines = 4
	dc.SetFontFace(labelFace)
	dc.SetLineWidth(1)
	for i := 0; i <= gridLines; i++ {
		v := lo + (hi-lo)*float64(i)/gridLines
		y := yAt(v)
		dc.SetRGBA(s.Grid[0], s.Grid[1], s.Grid[2], s.Grid[3])
		dc.DrawLine(left, y, left+width, y)
		dc.Stroke()
		dc.SetRGB(0.8, 0.8, 0.85)
		dc.DrawStringAnchored(fmt.Sprintf("%.2f", v), left-8, y, 1, 0.35)
	}

	// Price line
	dc.SetRGB(s.Line[0], s.Line[1], s.Line[2])
	dc.SetLineWidth(2)
	for i, p := range prices {
		if i == 0 {
			dc.MoveTo(xAt(0), yAt(p))
			continue
		}
		dc.LineTo(xAt(float64(i)), yAt(p))
	}
	if len(prices) == 1 {
		dc.DrawCircle(xAt(0), yAt(prices[0]), 3)
		dc.Fill()
	} else {
		dc.Stroke()
	}

	// Trend
	last := float64(len(prices) - 1)
	dc.SetRGBA(s.Trend[0], s.Trend[1], s.Trend[2], s.Trend[3])
	dc.SetLineWidth(1.5)
	dc.SetDash(6, 4)
	dc.DrawLine(xAt(0), yAt(intercept), xAt(last), yAt(intercept+slope*last))
	dc.Stroke()
	dc.SetDash()

	var buf bytes.Buffer
	if err := dc.EncodePNG(&buf); err != nil {
		return nil, fmt.Errorf("failed to encode PNG: %w", err)
	}
	return buf.Bytes(), nil
}

// LinearFit returns the least-squares line through (i, prices[i])
func LinearFit(prices []float64) (intercept, slope float64) {
	n := float64(len(prices))
	if n == 0 {
		return 0, 0
	}
	if n == 1 {
		return prices[0], 0
	}

	var sumX, sumY, sumXY, sumXX float64
	for i, y := range prices {
		x := float64(i)
		sumX += x
		sumY += y
		sumXY += x * y
		sumXX += x * x
	}
	slope = (n*sumXY - sumX*sumY) / (n*sumXX - sumX*sumX)
	intercept = (sumY - slope*sumX) / n
	return intercept, slope
}

func bounds(values []float64) (lo, hi float64) {
	lo, hi = values[0], values[0]
	for _, v := range values[1:] {
		lo, hi = min(lo, v), max(hi, v)
	}
	return lo, hi
}

// loadFont loads a TrueType font with the given size
func loadFont(fontData []byte, size float64) (font.Face, error) {
	f, err := truetype.Parse(fontData)
	if err != nil {
		return nil, err
	}
	return truetype.NewFace(f, &truetype.Options{
		Size:    size,
		DPI:     72,
		Hinting: font.HintingFull,
	}), nil
}
