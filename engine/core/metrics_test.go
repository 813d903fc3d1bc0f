package core

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFrameMetricsAverage(t *testing.T) {
	m := NewFrameMetrics()

	// 30 frames at 16ms fill the averaging window exactly.
	for i := 0; i < 30; i++ {
		m.Update(0.016)
	}
	assert.InDelta(t, 16.0, m.FrameTime(), 0.001)
}

func TestFrameMetricsFPS(t *testing.T) {
	m := NewFrameMetrics()

	// 100 frames at 10ms cross the one second accumulator once.
	for i := 0; i < 101; i++ {
		m.Update(0.010)
	}
	assert.InDelta(t, 100.0, m.FPS(), 1.0)
}
