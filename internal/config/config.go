// Package config loads benchd's runtime configuration from environment
// variables, following the teacher gateway's envStr/envInt/envFloat
// fallback convention (cmd/gateway/config.go).
package config

import (
	"os"
	"strconv"
	"time"

	"github.com/hubenschmidt/speechbench/internal/env"
)

// Config holds every tunable the engine, vendor adapters, and repository need.
type Config struct {
	Port string

	PostgresURL string
	ArtifactDir string

	PiperURL            string
	WhisperServerURL    string
	OpenAIAPIKey        string
	OpenAIBaseURL       string
	ElevenLabsAPIKey    string
	ElevenLabsVoiceID   string
	ElevenLabsModelID   string
	ElevenLabsOutputFmt string
	LocalStubLatencyMs  int

	HTTPPoolSize int

	Concurrency        int
	EvaluatorVendor    string
	DefaultSynthVendor string
	SynthesizeTimeout  time.Duration
	TranscribeTimeout  time.Duration
	MaxRetries         int

	AggregationLookback time.Duration
}

// Load reads Config from the environment, applying the same defaults the
// teacher gateway used for pool sizes and timeouts.
func Load() Config {
	return Config{
		Port: env.Str("BENCHD_PORT", "8000"),

		PostgresURL: env.Str("POSTGRES_URL", "postgres://localhost:5432/speechbench?sslmode=disable"),
		ArtifactDir: env.Str("STORAGE_DIR", "./storage"),

		PiperURL:            env.Str("PIPER_URL", "http://localhost:5100"),
		WhisperServerURL:    env.Str("WHISPER_SERVER_URL", "http://localhost:9000"),
		OpenAIAPIKey:        env.Str("OPENAI_API_KEY", ""),
		OpenAIBaseURL:       env.Str("OPENAI_BASE_URL", ""),
		ElevenLabsAPIKey:    env.Str("ELEVENLABS_API_KEY", ""),
		ElevenLabsVoiceID:   env.Str("ELEVENLABS_VOICE_ID", "21m00Tcm4TlvDq8ikWAM"),
		ElevenLabsModelID:   env.Str("ELEVENLABS_MODEL_ID", "eleven_flash_v2_5"),
		ElevenLabsOutputFmt: env.Str("ELEVENLABS_OUTPUT_FORMAT", "pcm_16000"),
		LocalStubLatencyMs:  envInt("LOCAL_STUB_LATENCY_MS", 0),

		HTTPPoolSize: envInt("HTTP_POOL_SIZE", 50),

		Concurrency:        envInt("CONCURRENCY_W", 4),
		EvaluatorVendor:    env.Str("DEFAULT_EVALUATOR_VENDOR", "whisper-server"),
		DefaultSynthVendor: env.Str("DEFAULT_SYNTH_VENDOR", "piper"),
		SynthesizeTimeout:  envDuration("SYNTHESIZE_TIMEOUT", 60*time.Second),
		TranscribeTimeout:  envDuration("TRANSCRIBE_TIMEOUT", 120*time.Second),
		MaxRetries:         envInt("MAX_RETRIES", 2),

		AggregationLookback: time.Duration(envInt("LOOKBACK_DAYS", 7)) * 24 * time.Hour,
	}
}

func envInt(key string, fallback int) int {
	val := os.Getenv(key)
	if val == "" {
		return fallback
	}
	n, err := strconv.Atoi(val)
	if err != nil {
		return fallback
	}
	return n
}

func envDuration(key string, fallback time.Duration) time.Duration {
	val := os.Getenv(key)
	if val == "" {
		return fallback
	}
	d, err := time.ParseDuration(val)
	if err != nil {
		return fallback
	}
	return d
}
