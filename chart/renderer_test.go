package chart

import (
	"bytes"
	"image/png"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLinearFit(t *testing.T) {
	t.Run("exact line", func(t *testing.T) {
		intercept, slope := LinearFit([]float64{10, 12, 14, 16})
		assert.InDelta(t, 10.0, intercept, 1e-9)
		assert.InDelta(t, 2.0, slope, 1e-9)
	})

	t.Run("flat", func(t *testing.T) {
		intercept, slope := LinearFit([]float64{5, 5, 5})
		assert.InDelta(t, 5.0, intercept, 1e-9)
		assert.InDelta(t, 0.0, slope, 1e-9)
	})

	t.Run("single point", func(t *testing.T) {
		intercept, slope := LinearFit([]float64{7})
		assert.Equal(t, 7.0, intercept)
		assert.Equal(t, 0.0, slope)
	})

	t.Run("noisy", func(t *testing.T) {
		// least squares through (0,1) (1,3) (2,2): slope 0.5, intercept 1.5
		intercept, slope := LinearFit([]float64{1, 3, 2})
		assert.InDelta(t, 1.5, intercept, 1e-9)
		assert.InDelta(t, 0.5, slope, 1e-9)
	})
}

func TestRenderer_Render(t *testing.T) {
	r := NewRenderer()

	t.Run("produces a PNG of the configured size", func(t *testing.T) {
		data, err := r.Render("test", []float64{100, 101.5, 99.25, 103})
		require.NoError(t, err)

		img, err := png.Decode(bytes.NewReader(data))
		require.NoError(t, err)
		assert.Equal(t, r.style.Width, img.Bounds().Dx())
		assert.Equal(t, r.style.Height, img.Bounds().Dy())
	})

	t.Run("single point and flat series", func(t *testing.T) {
		_, err := r.Render("one", []float64{42})
		assert.NoError(t, err)

		_, err = r.Render("flat", []float64{42, 42, 42})
		assert.NoError(t, err)
	})

	t.Run("empty series", func(t *testing.T) {
		_, err := r.Render("empty", nil)
		assert.ErrorIs(t, err, ErrNoData)
	})
}
