package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/hubenschmidt/speechbench/internal/aggregate"
	"github.com/hubenschmidt/speechbench/internal/artifact"
	"github.com/hubenschmidt/speechbench/internal/bench"
	"github.com/hubenschmidt/speechbench/internal/config"
	"github.com/hubenschmidt/speechbench/internal/engine"
	"github.com/hubenschmidt/speechbench/internal/store"
	"github.com/hubenschmidt/speechbench/internal/vendor"
	"github.com/hubenschmidt/speechbench/internal/vendor/elevenlabsadapter"
	"github.com/hubenschmidt/speechbench/internal/vendor/localstub"
	"github.com/hubenschmidt/speechbench/internal/vendor/openaiadapter"
	"github.com/hubenschmidt/speechbench/internal/vendor/piperadapter"
	"github.com/hubenschmidt/speechbench/internal/vendor/whisperserveradapter"
)

func main() {
	slog.SetDefault(slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo})))

	cfg := config.Load()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	repo, err := store.Open(ctx, cfg.PostgresURL)
	cancel()
	if err != nil {
		slog.Error("store open failed", "error", err)
		os.Exit(1)
	}
	defer repo.Close()

	artifacts, err := artifact.New(cfg.ArtifactDir)
	if err != nil {
		slog.Error("artifact store init failed", "error", err)
		os.Exit(1)
	}

	synth, transcribe, health := buildRegistries(cfg)

	eng := engine.New(engine.Config{
		Synth:              synth,
		Transcribe:         transcribe,
		Health:             health,
		Repo:               repo,
		Artifacts:          artifacts,
		Logger:             slog.Default(),
		Concurrency:        cfg.Concurrency,
		EvaluatorVendor:    cfg.EvaluatorVendor,
		DefaultSynthVendor: cfg.DefaultSynthVendor,
		SynthesizeTimeout:  cfg.SynthesizeTimeout,
		TranscribeTimeout:  cfg.TranscribeTimeout,
		MaxRetries:         cfg.MaxRetries,
	})

	aggregator := aggregate.New(repo)

	server := &bench.Server{
		Engine:     eng,
		Repo:       repo,
		Artifacts:  artifacts,
		Aggregator: aggregator,
		Logger:     slog.Default(),
	}

	mux := http.NewServeMux()
	server.Routes(mux)
	mux.Handle("GET /metrics", promhttp.Handler())

	addr := ":" + cfg.Port
	srv := &http.Server{Addr: addr, Handler: mux}

	go awaitShutdown(srv)

	slog.Info("benchd starting", "addr", addr, "synth_vendors", synth.Names(), "transcribe_vendors", transcribe.Names())

	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		slog.Error("server failed", "error", err)
		os.Exit(1)
	}

	slog.Info("benchd stopped")
}

// buildRegistries wires every known vendor adapter into its capability
// registry and an accompanying health endpoint map. Vendors missing a
// required credential or URL are simply omitted, matching the teacher
// gateway's initASR/initTTS pattern of only registering configured backends.
func buildRegistries(cfg config.Config) (*vendor.Registry[vendor.Synthesizer], *vendor.Registry[vendor.Transcriber], *vendor.HealthRegistry) {
	synthBackends := map[string]vendor.Synthesizer{}
	transcribeBackends := map[string]vendor.Transcriber{}
	healthURLs := map[string]string{}

	if cfg.PiperURL != "" {
		synthBackends["piper"] = piperadapter.New(cfg.PiperURL, "en_US-lessac-medium", cfg.HTTPPoolSize)
		healthURLs["piper"] = cfg.PiperURL
	}
	if cfg.WhisperServerURL != "" {
		transcribeBackends["whisper-server"] = whisperserveradapter.New(cfg.WhisperServerURL, cfg.HTTPPoolSize)
		healthURLs["whisper-server"] = cfg.WhisperServerURL
	}
	if cfg.OpenAIAPIKey != "" {
		oai := openaiadapter.New(cfg.OpenAIAPIKey, cfg.OpenAIBaseURL)
		synthBackends["openai"] = oai
		transcribeBackends["openai"] = oai
	}
	if cfg.ElevenLabsAPIKey != "" {
		synthBackends["elevenlabs"] = elevenlabsadapter.New(cfg.ElevenLabsAPIKey, cfg.ElevenLabsOutputFmt)
	}

	stub := localstub.New(time.Duration(cfg.LocalStubLatencyMs) * time.Millisecond)
	synthBackends["local-stub"] = stub
	transcribeBackends["local-stub"] = stub

	return vendor.NewRegistry(synthBackends), vendor.NewRegistry(transcribeBackends), vendor.NewHealthRegistry(healthURLs)
}

// awaitShutdown blocks until SIGINT/SIGTERM, then drains the HTTP server.
// Unlike the teacher gateway, there are no local model processes to unload
// or stop: every vendor here is either a remote API or a long-running
// sidecar the operator manages independently.
func awaitShutdown(srv *http.Server) {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	sig := <-sigCh
	slog.Info("shutting down", "signal", sig)

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	srv.Shutdown(ctx)
}
