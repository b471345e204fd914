package engine

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hubenschmidt/speechbench/internal/artifact"
	"github.com/hubenschmidt/speechbench/internal/store"
	"github.com/hubenschmidt/speechbench/internal/vendor"
)

// fakeSynth is a Synthesizer test double that returns fixed audio bytes
// without making a network call.
type fakeSynth struct {
	audio   []byte
	latency time.Duration
	err     error
}

func (f *fakeSynth) Synthesize(ctx context.Context, text string, cfg vendor.SynthesizeConfig) (*vendor.SynthesizeResult, error) {
	if f.err != nil {
		return nil, f.err
	}
	return &vendor.SynthesizeResult{Audio: f.audio, ContentType: "audio/wav", Latency: f.latency}, nil
}

// fakeTranscriber is a Transcriber test double that echoes cfg.ReferenceText
// back verbatim, mirroring localstub's behavior for a deterministic WER of 0.
type fakeTranscriber struct {
	latency time.Duration
	err     error
}

func (f *fakeTranscriber) Transcribe(ctx context.Context, audio []byte, contentType string, cfg vendor.TranscribeConfig) (*vendor.TranscribeResult, error) {
	if f.err != nil {
		return nil, f.err
	}
	return &vendor.TranscribeResult{Transcript: cfg.ReferenceText, Latency: f.latency}, nil
}

func newTestEngine(t *testing.T, synth map[string]vendor.Synthesizer, transcribe map[string]vendor.Transcriber) *Engine {
	t.Helper()
	artifacts, err := artifact.New(t.TempDir())
	require.NoError(t, err)

	return New(Config{
		Synth:           vendor.NewRegistry(synth),
		Transcribe:      vendor.NewRegistry(transcribe),
		Artifacts:       artifacts,
		EvaluatorVendor: "evaluator",
		DefaultSynthVendor: "piper",
	})
}

func wavBytes() []byte {
	// RIFF/WAVE magic with no usable fmt or data chunk: audioprobe recognizes
	// it as WAV but cannot decode it, so Probe falls back to its size-based
	// estimate and the item still gets a (flagged) audio_duration.
	return []byte("RIFF\x24\x00\x00\x00WAVEfmt ")
}

func TestRunIsolated_TTS_CompletesWithAudioAndTranscript(t *testing.T) {
	e := newTestEngine(t,
		map[string]vendor.Synthesizer{"piper": &fakeSynth{audio: wavBytes(), latency: 100 * time.Millisecond}},
		map[string]vendor.Transcriber{"evaluator": &fakeTranscriber{latency: 50 * time.Millisecond}},
	)

	item := store.RunItem{
		ID:          "item-1",
		RunID:       "run-1",
		InputText:   "the quick brown fox",
		VendorLabel: "piper",
		Status:      store.ItemPending,
		Sidecar:     buildItemSidecar("tts", "", "voice-1", "en"),
	}

	result, err := e.runIsolated(context.Background(), item)

	require.NoError(t, err)
	assert.Equal(t, store.ItemCompleted, result.Status)
	require.NotNil(t, result.AudioLocator)
	require.NotNil(t, result.Transcript)
	assert.Equal(t, "the quick brown fox", *result.Transcript)
	assert.Len(t, result.Artifacts, 2)

	var sawWER bool
	for _, m := range result.Metrics {
		if m.Name == store.MetricWER {
			sawWER = true
			assert.Zero(t, m.Value)
		}
	}
	assert.True(t, sawWER)
}

func TestRunIsolated_STT_CompletesWithAudioAndTranscript(t *testing.T) {
	e := newTestEngine(t,
		map[string]vendor.Synthesizer{"piper": &fakeSynth{audio: wavBytes(), latency: 80 * time.Millisecond}},
		map[string]vendor.Transcriber{"whisper-server": &fakeTranscriber{latency: 60 * time.Millisecond}},
	)

	item := store.RunItem{
		ID:          "item-2",
		RunID:       "run-1",
		InputText:   "hello world",
		VendorLabel: "whisper-server",
		Status:      store.ItemPending,
		Sidecar:     buildItemSidecar("stt", "", "", "en"),
	}

	result, err := e.runIsolated(context.Background(), item)

	require.NoError(t, err)
	assert.Equal(t, store.ItemCompleted, result.Status)
	require.NotNil(t, result.Transcript)
	assert.Equal(t, "hello world", *result.Transcript)
}

func TestRunChained_CompletesWithBothArtifactsAndE2ELatency(t *testing.T) {
	e := newTestEngine(t,
		map[string]vendor.Synthesizer{"piper": &fakeSynth{audio: wavBytes(), latency: 100 * time.Millisecond}},
		map[string]vendor.Transcriber{"whisper-server": &fakeTranscriber{latency: 40 * time.Millisecond}},
	)

	item := store.RunItem{
		ID:          "item-3",
		RunID:       "run-1",
		InputText:   "chained test phrase",
		VendorLabel: "piper→whisper-server",
		Status:      store.ItemPending,
		Sidecar:     buildItemSidecar("", "", "", "en"),
	}

	result, err := e.runChained(context.Background(), item)

	require.NoError(t, err)
	assert.Equal(t, store.ItemCompleted, result.Status)
	require.NotNil(t, result.AudioLocator)
	require.NotNil(t, result.Transcript)
	assert.Equal(t, "chained test phrase", *result.Transcript)

	var e2e float64
	for _, m := range result.Metrics {
		if m.Name == store.MetricE2ELatency {
			e2e = m.Value
		}
	}
	assert.InDelta(t, 0.140, e2e, 0.001)
}

func TestRunChained_MalformedVendorLabelFails(t *testing.T) {
	e := newTestEngine(t, nil, nil)

	item := store.RunItem{ID: "item-4", VendorLabel: "piper-only-no-arrow"}
	_, err := e.runChained(context.Background(), item)

	var validationErr *vendor.ValidationError
	require.ErrorAs(t, err, &validationErr)
}

func TestRunIsolated_UnknownServiceTypeFails(t *testing.T) {
	e := newTestEngine(t, nil, nil)

	item := store.RunItem{ID: "item-5", Sidecar: buildItemSidecar("translate", "", "", "")}
	_, err := e.runIsolated(context.Background(), item)

	var validationErr *vendor.ValidationError
	require.ErrorAs(t, err, &validationErr)
}

func TestRunIsolated_SynthesizeFailurePropagates(t *testing.T) {
	e := newTestEngine(t,
		map[string]vendor.Synthesizer{"piper": &fakeSynth{err: &vendor.VendorError{Vendor: "piper", Retryable: false}}},
		map[string]vendor.Transcriber{"evaluator": &fakeTranscriber{}},
	)

	item := store.RunItem{ID: "item-6", VendorLabel: "piper", Sidecar: buildItemSidecar("tts", "", "", "")}
	_, err := e.runIsolated(context.Background(), item)

	var vendorErr *vendor.VendorError
	require.ErrorAs(t, err, &vendorErr)
}

func TestItemService_ChainedAndIsolated(t *testing.T) {
	assert.Equal(t, "chained", itemService(store.ModeChained, store.RunItem{}))
	assert.Equal(t, "tts", itemService(store.ModeIsolated, store.RunItem{Sidecar: buildItemSidecar("tts", "", "", "")}))
	assert.Equal(t, "unknown", itemService(store.ModeIsolated, store.RunItem{}))
}
