// Package engine orchestrates benchmark runs: expanding inputs into run
// items, dispatching each to its vendor adapter(s) in isolated or chained
// mode, computing metrics, and writing results through the repository.
// Grounded on the teacher gateway's per-session pipeline shape
// (services/gateway/internal/ws/handler.go's HandlerConfig bundling
// shared backend clients) generalized from one WebSocket call to many
// concurrent run items.
package engine

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/hubenschmidt/speechbench/internal/artifact"
	"github.com/hubenschmidt/speechbench/internal/store"
	"github.com/hubenschmidt/speechbench/internal/vendor"
)

// Config bundles the shared backends and tuning an Engine dispatches
// through. Synth and Transcribe are keyed by vendor name.
type Config struct {
	Synth      *vendor.Registry[vendor.Synthesizer]
	Transcribe *vendor.Registry[vendor.Transcriber]
	Health     *vendor.HealthRegistry
	Repo       *store.Repository
	Artifacts  *artifact.Store
	Logger     *slog.Logger

	// Concurrency bounds how many items of a single run execute at once (default 4).
	Concurrency int
	// EvaluatorVendor is the transcriber used to score isolated TTS items.
	EvaluatorVendor string
	// DefaultSynthVendor is the synthesizer used to produce stimulus audio for isolated STT items.
	DefaultSynthVendor string

	SynthesizeTimeout time.Duration // default 60s
	TranscribeTimeout time.Duration // default 120s
	MaxRetries        int           // default 2 retries (3 attempts total)
}

func (c *Config) withDefaults() Config {
	out := *c
	if out.Concurrency <= 0 {
		out.Concurrency = 4
	}
	if out.SynthesizeTimeout <= 0 {
		out.SynthesizeTimeout = 60 * time.Second
	}
	if out.TranscribeTimeout <= 0 {
		out.TranscribeTimeout = 120 * time.Second
	}
	if out.MaxRetries <= 0 {
		out.MaxRetries = 2
	}
	if out.Logger == nil {
		out.Logger = slog.Default()
	}
	return out
}

// Engine executes runs against the configured vendor registries.
type Engine struct {
	cfg          Config
	cancelledSet *cancelledRuns
}

// New creates an Engine from cfg, filling in defaults for unset tuning fields.
func New(cfg Config) *Engine {
	return &Engine{cfg: cfg.withDefaults(), cancelledSet: newCancelledRuns()}
}

// CreateRunInput is the request to start a new benchmark run.
type CreateRunInput struct {
	Mode     store.RunMode
	Vendors  []string
	Inputs   []string
	Service  string // "tts" | "stt", required when Mode == isolated
	Models   map[string]string
	ChainTTSVendor string
	ChainSTTVendor string
	VoiceID  string
	Language string
}

// CreateRun validates cfg, expands run items, persists the run atomically
// with status=pending, and launches Execute asynchronously. It returns the
// run id immediately.
func (e *Engine) CreateRun(ctx context.Context, input CreateRunInput) (string, error) {
	if len(input.Vendors) == 0 {
		return "", &vendor.ValidationError{Reason: "vendors must be non-empty"}
	}
	if len(input.Inputs) == 0 {
		return "", &vendor.ValidationError{Reason: "inputs must be non-empty"}
	}
	if input.Mode == store.ModeIsolated && input.Service != "tts" && input.Service != "stt" {
		return "", &vendor.ValidationError{Reason: "service must be tts or stt for isolated mode"}
	}
	if input.Mode == store.ModeChained && (input.ChainTTSVendor == "" || input.ChainSTTVendor == "") {
		return "", &vendor.ValidationError{Reason: "chain.tts_vendor and chain.stt_vendor are required for chained mode"}
	}

	if e.cfg.Health != nil {
		for _, v := range healthCheckVendors(input) {
			if err := e.cfg.Health.Ping(ctx, v); err != nil {
				return "", err
			}
		}
	}

	runID := uuid.NewString()
	now := time.Now().UTC()
	configSnapshot := buildConfigSnapshot(input)

	run := store.Run{
		ID:        runID,
		CreatedAt: now,
		Mode:      input.Mode,
		Vendors:   input.Vendors,
		Config:    configSnapshot,
		Status:    store.StatusPending,
	}

	items, err := expandItems(runID, input)
	if err != nil {
		return "", err
	}

	if err = e.cfg.Repo.CreateRun(ctx, run, items); err != nil {
		return "", fmt.Errorf("engine: create run: %w", err)
	}

	go e.Execute(context.Background(), runID)

	return runID, nil
}

// healthCheckVendors returns the distinct vendor names a run will actually
// dispatch to, so CreateRun can fail fast on an unreachable one.
func healthCheckVendors(input CreateRunInput) []string {
	if input.Mode == store.ModeChained {
		return []string{input.ChainTTSVendor, input.ChainSTTVendor}
	}
	return input.Vendors
}

func expandItems(runID string, input CreateRunInput) ([]store.RunItem, error) {
	now := time.Now().UTC()
	var items []store.RunItem

	switch input.Mode {
	case store.ModeIsolated:
		for _, text := range input.Inputs {
			for _, v := range input.Vendors {
				sidecar := buildItemSidecar(input.Service, input.Models[v], input.VoiceID, input.Language)
				items = append(items, store.RunItem{
					ID:          uuid.NewString(),
					RunID:       runID,
					InputText:   text,
					VendorLabel: v,
					Status:      store.ItemPending,
					Sidecar:     sidecar,
					CreatedAt:   now,
				})
			}
		}
	case store.ModeChained:
		label := input.ChainTTSVendor + "→" + input.ChainSTTVendor
		for _, text := range input.Inputs {
			sidecar := buildItemSidecar("e2e", "", input.VoiceID, input.Language)
			items = append(items, store.RunItem{
				ID:          uuid.NewString(),
				RunID:       runID,
				InputText:   text,
				VendorLabel: label,
				Status:      store.ItemPending,
				Sidecar:     sidecar,
				CreatedAt:   now,
			})
		}
	default:
		return nil, &vendor.ValidationError{Reason: fmt.Sprintf("unknown mode %q", input.Mode)}
	}
	return items, nil
}
