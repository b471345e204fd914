package engine

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hubenschmidt/speechbench/internal/store"
	"github.com/hubenschmidt/speechbench/internal/vendor"
)

func TestWithDefaults(t *testing.T) {
	cfg := (&Config{}).withDefaults()

	assert.Equal(t, 4, cfg.Concurrency)
	assert.NotZero(t, cfg.SynthesizeTimeout)
	assert.NotZero(t, cfg.TranscribeTimeout)
	assert.Equal(t, 2, cfg.MaxRetries)
	assert.NotNil(t, cfg.Logger)
}

func TestCreateRun_RejectsEmptyVendors(t *testing.T) {
	e := New(Config{})
	_, err := e.CreateRun(context.Background(), CreateRunInput{Inputs: []string{"hi"}, Mode: store.ModeIsolated, Service: "tts"})

	var validationErr *vendor.ValidationError
	require.ErrorAs(t, err, &validationErr)
}

func TestCreateRun_RejectsEmptyInputs(t *testing.T) {
	e := New(Config{})
	_, err := e.CreateRun(context.Background(), CreateRunInput{Vendors: []string{"piper"}, Mode: store.ModeIsolated, Service: "tts"})

	var validationErr *vendor.ValidationError
	require.ErrorAs(t, err, &validationErr)
}

func TestCreateRun_RejectsMissingServiceForIsolated(t *testing.T) {
	e := New(Config{})
	_, err := e.CreateRun(context.Background(), CreateRunInput{Vendors: []string{"piper"}, Inputs: []string{"hi"}, Mode: store.ModeIsolated})

	var validationErr *vendor.ValidationError
	require.ErrorAs(t, err, &validationErr)
}

func TestCreateRun_RejectsMissingChainVendors(t *testing.T) {
	e := New(Config{})
	_, err := e.CreateRun(context.Background(), CreateRunInput{Vendors: []string{"piper"}, Inputs: []string{"hi"}, Mode: store.ModeChained})

	var validationErr *vendor.ValidationError
	require.ErrorAs(t, err, &validationErr)
}

func TestHealthCheckVendors_Isolated(t *testing.T) {
	vendors := healthCheckVendors(CreateRunInput{Mode: store.ModeIsolated, Vendors: []string{"piper", "openai"}})
	assert.Equal(t, []string{"piper", "openai"}, vendors)
}

func TestHealthCheckVendors_Chained(t *testing.T) {
	vendors := healthCheckVendors(CreateRunInput{Mode: store.ModeChained, ChainTTSVendor: "piper", ChainSTTVendor: "whisper-server"})
	assert.Equal(t, []string{"piper", "whisper-server"}, vendors)
}

func TestExpandItems_IsolatedCrossProduct(t *testing.T) {
	items, err := expandItems("run-1", CreateRunInput{
		Mode:    store.ModeIsolated,
		Service: "tts",
		Vendors: []string{"piper", "openai"},
		Inputs:  []string{"hello", "world"},
	})
	require.NoError(t, err)
	assert.Len(t, items, 4)
	for _, item := range items {
		assert.Equal(t, "run-1", item.RunID)
		assert.Equal(t, store.ItemPending, item.Status)
	}
}

func TestExpandItems_ChainedOnePerInput(t *testing.T) {
	items, err := expandItems("run-1", CreateRunInput{
		Mode:           store.ModeChained,
		ChainTTSVendor: "piper",
		ChainSTTVendor: "whisper-server",
		Inputs:         []string{"hello", "world"},
	})
	require.NoError(t, err)
	require.Len(t, items, 2)
	assert.Equal(t, "piper→whisper-server", items[0].VendorLabel)
}

func TestExpandItems_UnknownModeErrors(t *testing.T) {
	_, err := expandItems("run-1", CreateRunInput{Mode: "bogus", Inputs: []string{"hi"}})
	assert.Error(t, err)
}
