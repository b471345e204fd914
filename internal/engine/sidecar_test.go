package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/tidwall/gjson"

	"github.com/hubenschmidt/speechbench/internal/store"
)

func TestBuildConfigSnapshot_Isolated(t *testing.T) {
	snapshot := buildConfigSnapshot(CreateRunInput{
		Mode:     store.ModeIsolated,
		Service:  "tts",
		VoiceID:  "voice-1",
		Language: "en",
		Models:   map[string]string{"piper": "en_US-lessac-medium"},
	})

	assert.Equal(t, "tts", gjson.Get(snapshot, "service").String())
	assert.Equal(t, "voice-1", gjson.Get(snapshot, "voice_id").String())
	assert.Equal(t, "en_US-lessac-medium", gjson.Get(snapshot, "models.piper").String())
	assert.False(t, gjson.Get(snapshot, "chain").Exists())
}

func TestBuildConfigSnapshot_Chained(t *testing.T) {
	snapshot := buildConfigSnapshot(CreateRunInput{
		Mode:           "chained",
		ChainTTSVendor: "piper",
		ChainSTTVendor: "whisper-server",
	})

	assert.Equal(t, "piper", gjson.Get(snapshot, "chain.tts_vendor").String())
	assert.Equal(t, "whisper-server", gjson.Get(snapshot, "chain.stt_vendor").String())
}

func TestBuildItemSidecar_OmitsBlankFields(t *testing.T) {
	sidecar := buildItemSidecar("tts", "", "", "")

	assert.Equal(t, "tts", gjson.Get(sidecar, "service_type").String())
	assert.False(t, gjson.Get(sidecar, "model_id").Exists())
	assert.False(t, gjson.Get(sidecar, "voice_id").Exists())
}

func TestBuildItemSidecar_IncludesPopulatedFields(t *testing.T) {
	sidecar := buildItemSidecar("stt", "whisper-1", "voice-9", "en")

	assert.Equal(t, "whisper-1", gjson.Get(sidecar, "model_id").String())
	assert.Equal(t, "voice-9", gjson.Get(sidecar, "voice_id").String())
	assert.Equal(t, "en", gjson.Get(sidecar, "language").String())
}

func TestSetSidecarEstimated(t *testing.T) {
	sidecar := buildItemSidecar("tts", "", "", "")
	out := setSidecarEstimated(sidecar, true)

	assert.True(t, gjson.Get(out, "audio_duration_estimated").Bool())
}

func TestSetSidecarRTFAnomalous(t *testing.T) {
	sidecar := buildItemSidecar("tts", "", "", "")
	out := setSidecarRTFAnomalous(sidecar, true)

	assert.True(t, gjson.Get(out, "rtf_anomalous").Bool())
}
