package timing

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestHandle_ElapsedIsNonNegativeAndMonotonic(t *testing.T) {
	h := Start()
	time.Sleep(time.Millisecond)
	first := h.Elapsed()
	time.Sleep(time.Millisecond)
	second := h.Elapsed()

	assert.GreaterOrEqual(t, int64(first), int64(0))
	assert.Greater(t, second, first)
}

func TestNewStopwatch_StartedAtIsWallClock(t *testing.T) {
	sw := NewStopwatch()

	assert.WithinDuration(t, time.Now(), sw.StartedAt, time.Second)
	assert.GreaterOrEqual(t, int64(sw.Elapsed()), int64(0))
}
