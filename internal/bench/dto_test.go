package bench

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/hubenschmidt/speechbench/internal/store"
)

func strPtr(s string) *string { return &s }

func TestFromStoreRun_BasicFields(t *testing.T) {
	now := time.Date(2026, 7, 30, 12, 0, 0, 0, time.UTC)
	run := store.Run{
		ID:        "run-1",
		CreatedAt: now,
		Mode:      store.ModeIsolated,
		Vendors:   []string{"piper"},
		Status:    store.StatusCompleted,
		StartedAt: &now,
	}
	items := []store.RunItem{
		{
			ID:             "item-1",
			VendorLabel:    "piper",
			Status:         store.ItemCompleted,
			InputText:      "hello",
			MetricsSummary: "tts_latency:1.0000",
			AudioLocator:   strPtr("/storage/audio/audio_item-1.wav"),
			Transcript:     strPtr("hello"),
			Sidecar:        `{"service_type":"tts"}`,
		},
	}

	view := FromStoreRun(run, items)

	assert.Equal(t, "run-1", view.ID)
	assert.Equal(t, "isolated", view.Mode)
	assert.Equal(t, "completed", view.Status)
	assert.NotEmpty(t, view.StartedAt)
	assert.Empty(t, view.FinishedAt)

	assert.Len(t, view.Items, 1)
	assert.Equal(t, "piper", view.Items[0].VendorLabel)
	assert.Equal(t, "hello", view.Items[0].Transcript)
	assert.Equal(t, "/storage/audio/audio_item-1.wav", view.Items[0].AudioPath)
}

func TestFromStoreRun_NilPointerFieldsOmitted(t *testing.T) {
	run := store.Run{ID: "run-2", Mode: store.ModeChained, Status: store.StatusPending}
	view := FromStoreRun(run, []store.RunItem{{ID: "item-1", VendorLabel: "piper→whisper-server"}})

	assert.Empty(t, view.Items[0].Transcript)
	assert.Empty(t, view.Items[0].AudioPath)
	assert.Empty(t, view.Items[0].FailureReason)
}
