package aggregate

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/hubenschmidt/speechbench/internal/store"
)

func strPtr(s string) *string { return &s }

func TestServiceOf(t *testing.T) {
	tests := []struct {
		name string
		item store.RunItem
		want Service
	}{
		{"audio only is tts", store.RunItem{AudioLocator: strPtr("a.wav")}, ServiceTTS},
		{"transcript only is stt", store.RunItem{Transcript: strPtr("hello")}, ServiceSTT},
		{"both is e2e", store.RunItem{AudioLocator: strPtr("a.wav"), Transcript: strPtr("hello")}, ServiceE2E},
		{"neither falls back to stt", store.RunItem{}, ServiceSTT},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, serviceOf(tt.item))
		})
	}
}

func TestInterpolatedPercentile(t *testing.T) {
	values := []float64{10, 20, 30, 40, 50}

	assert.Equal(t, 30.0, interpolatedPercentile(values, 0.5))
	assert.Equal(t, 10.0, interpolatedPercentile(values, 0))
	assert.Equal(t, 50.0, interpolatedPercentile(values, 1))
	assert.InDelta(t, 46.0, interpolatedPercentile(values, 0.9), 0.001)
}

func TestInterpolatedPercentile_EdgeCases(t *testing.T) {
	assert.Equal(t, 0.0, interpolatedPercentile(nil, 0.5))
	assert.Equal(t, 7.0, interpolatedPercentile([]float64{7}, 0.5))
}

func TestNormalizeWindow_DefaultsToSevenDayLookback(t *testing.T) {
	from, to := normalizeWindow(time.Time{}, time.Time{})

	assert.False(t, to.IsZero())
	assert.WithinDuration(t, to.Add(-defaultLookback), from, time.Second)
}

func TestNormalizeWindow_PreservesExplicitBounds(t *testing.T) {
	explicitFrom := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	explicitTo := time.Date(2026, 1, 2, 0, 0, 0, 0, time.UTC)

	from, to := normalizeWindow(explicitFrom, explicitTo)

	assert.Equal(t, explicitFrom, from)
	assert.Equal(t, explicitTo, to)
}
