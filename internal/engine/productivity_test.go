package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestProductivityUpdate(t *testing.T) {
	updater := NewProductivityUpdater()

	tests := []struct {
		name     string
		old      float64
		reward   float64
		expected float64
	}{
		{
			name:     "moves a tenth of the way toward the reward",
			old:      0.4,
			reward:   1.0,
			expected: 0.46,
		},
		{
			name:     "negative reward pulls the estimate down",
			old:      0.5,
			reward:   -1.0,
			expected: 0.35,
		},
		{
			name:     "clamped at zero",
			old:      0.05,
			reward:   -10,
			expected: 0,
		},
		{
			name:     "clamped at one",
			old:      0.98,
			reward:   10,
			expected: 1,
		},
		{
			name:     "reward equal to estimate is a fixed point",
			old:      0.7,
			reward:   0.7,
			expected: 0.7,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.expected, updater.Update(tt.old, tt.reward), 1e-9)
		})
	}
}

func TestInitialProductivity(t *testing.T) {
	tests := []struct {
		name             string
		experienceMonths int
		tenureMonths     int
		expected         float64
	}{
		{name: "fresh hire", experienceMonths: 0, tenureMonths: 0, expected: 0},
		{name: "fully ramped", experienceMonths: 120, tenureMonths: 60, expected: 1.0},
		{name: "experience caps at ten years", experienceMonths: 600, tenureMonths: 0, expected: 0.4},
		{name: "tenure caps at five years", experienceMonths: 0, tenureMonths: 600, expected: 0.6},
		{name: "mid career", experienceMonths: 60, tenureMonths: 30, expected: 0.5}, // 0.5*0.4 + 0.5*0.6
		{name: "negative inputs read as zero", experienceMonths: -5, tenureMonths: -5, expected: 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := InitialProductivity(tt.experienceMonths, tt.tenureMonths)
			assert.InDelta(t, tt.expected, got, 1e-9)
			assert.GreaterOrEqual(t, got, 0.0)
			assert.LessOrEqual(t, got, 1.0)
		})
	}
}
