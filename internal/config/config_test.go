package config

import (
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestLoad_Defaults(t *testing.T) {
	for _, key := range []string{
		"BENCHD_PORT", "POSTGRES_URL", "STORAGE_DIR", "CONCURRENCY_W",
		"DEFAULT_EVALUATOR_VENDOR", "DEFAULT_SYNTH_VENDOR", "SYNTHESIZE_TIMEOUT", "MAX_RETRIES",
		"LOOKBACK_DAYS",
	} {
		os.Unsetenv(key)
	}

	cfg := Load()

	assert.Equal(t, "8000", cfg.Port)
	assert.Equal(t, "./storage", cfg.ArtifactDir)
	assert.Equal(t, 4, cfg.Concurrency)
	assert.Equal(t, "whisper-server", cfg.EvaluatorVendor)
	assert.Equal(t, "piper", cfg.DefaultSynthVendor)
	assert.Equal(t, 60*time.Second, cfg.SynthesizeTimeout)
	assert.Equal(t, 2, cfg.MaxRetries)
	assert.Equal(t, 7*24*time.Hour, cfg.AggregationLookback)
}

func TestLoad_EnvOverrides(t *testing.T) {
	os.Setenv("BENCHD_PORT", "9001")
	os.Setenv("CONCURRENCY_W", "8")
	os.Setenv("SYNTHESIZE_TIMEOUT", "10s")
	os.Setenv("LOOKBACK_DAYS", "14")
	defer os.Unsetenv("BENCHD_PORT")
	defer os.Unsetenv("CONCURRENCY_W")
	defer os.Unsetenv("SYNTHESIZE_TIMEOUT")
	defer os.Unsetenv("LOOKBACK_DAYS")

	cfg := Load()

	assert.Equal(t, "9001", cfg.Port)
	assert.Equal(t, 8, cfg.Concurrency)
	assert.Equal(t, 10*time.Second, cfg.SynthesizeTimeout)
	assert.Equal(t, 14*24*time.Hour, cfg.AggregationLookback)
}

func TestEnvInt_InvalidFallsBack(t *testing.T) {
	os.Setenv("BENCH_TEST_INT", "not-a-number")
	defer os.Unsetenv("BENCH_TEST_INT")

	assert.Equal(t, 42, envInt("BENCH_TEST_INT", 42))
}

func TestEnvDuration_InvalidFallsBack(t *testing.T) {
	os.Setenv("BENCH_TEST_DURATION", "not-a-duration")
	defer os.Unsetenv("BENCH_TEST_DURATION")

	assert.Equal(t, 5*time.Second, envDuration("BENCH_TEST_DURATION", 5*time.Second))
}
