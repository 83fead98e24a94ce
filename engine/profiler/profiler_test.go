package profiler

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTickReportsPerInterval(t *testing.T) {
	p := NewProfiler(time.Second)
	start := p.lastTime

	for i := 1; i < 10; i++ {
		_, ok := p.tick(start.Add(time.Duration(i)*50*time.Millisecond), 2)
		assert.False(t, ok)
	}
	stats, ok := p.tick(start.Add(2*time.Second), 4)
	require.True(t, ok)
	assert.InDelta(t, 5.0, stats.FPS, 1e-9)
	assert.InDelta(t, 2.2, stats.DrawsPerFrame, 1e-9)

	_, ok = p.tick(start.Add(2*time.Second+time.Millisecond), 1)
	assert.False(t, ok)
}

func TestNewProfilerDefaultsInterval(t *testing.T) {
	assert.Equal(t, time.Second, NewProfiler(0).updateInterval)
}
