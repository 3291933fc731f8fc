package simulator

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestWinProbabilitySymmetry(t *testing.T) {
	tests := []struct {
		name string
		home float64
		away float64
	}{
		{"equal ratings", 1500, 1500},
		{"moderate gap", 1600, 1500},
		{"large gap", 1800, 1200},
		{"reversed", 1350, 1725},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			forward := WinProbability(tt.home, tt.away, 0)
			backward := WinProbability(tt.away, tt.home, 0)
			assert.InDelta(t, 1.0, forward+backward, 1e-12)
			assert.Greater(t, forward, 0.0)
			assert.Less(t, forward, 1.0)
		})
	}
}

func TestWinProbabilityHomeFieldAdvantage(t *testing.T) {
	// 100-point favorite at home with the default 55-point bump.
	p := WinProbability(1600, 1500, 55)
	assert.InDelta(t, 0.7094, p, 0.001)

	// Home field alone should push an even matchup above 50%.
	assert.Greater(t, WinProbability(1500, 1500, DefaultHomeFieldAdvantage), 0.5)
}

func TestApplyResult(t *testing.T) {
	// A win over an even opponent moves the rating up by k/2.
	updated := ApplyResult(1500, 0.5, 1, DefaultKFactor)
	assert.InDelta(t, 1516, updated, 1e-9)

	// Losing as a heavy favorite costs more than winning gains.
	updated = ApplyResult(1700, 0.9, 0, DefaultKFactor)
	assert.InDelta(t, 1700-28.8, updated, 1e-9)

	// Expected result leaves the rating unchanged.
	updated = ApplyResult(1500, 1, 1, DefaultKFactor)
	assert.InDelta(t, 1500, updated, 1e-9)
}
