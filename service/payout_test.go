package service

import (
	"testing"

	"zhigulbot/models"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func TestPayout(t *testing.T) {
	d := decimal.RequireFromString

	tests := []struct {
		name      string
		direction models.Direction
		current   string
		next      string
		expected  int64
	}{
		{"up on rise", models.DirectionUp, "100", "105", 10},
		{"down on rise", models.DirectionDown, "100", "105", -10},
		{"up on fall", models.DirectionUp, "100", "99.99", -10},
		{"down on fall", models.DirectionDown, "100", "99.99", 10},
		{"up on flat", models.DirectionUp, "100", "100", 0},
		{"down on flat", models.DirectionDown, "100", "100.000", 0},
		{"tiny rise is not a tie", models.DirectionUp, "100", "100.0000001", 10},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, Payout(tt.direction, 10, d(tt.current), d(tt.next)))
		})
	}
}

func TestPayout_OppositeDirectionsCancel(t *testing.T) {
	prices := []string{"90", "100", "110"}
	current := decimal.RequireFromString("100")
	for _, p := range prices {
		next := decimal.RequireFromString(p)
		up := Payout(models.DirectionUp, 25, current, next)
		down := Payout(models.DirectionDown, 25, current, next)
		assert.Zero(t, up+down, "next=%s", p)
	}
}
