package engine

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/hubenschmidt/speechbench/internal/store"
)

func TestGjsonString(t *testing.T) {
	assert.Equal(t, "tts", gjsonString(`{"service_type":"tts"}`, "service_type"))
	assert.Equal(t, "", gjsonString(`{}`, "missing"))
}

func TestScoreTranscript_PerfectMatch(t *testing.T) {
	confidence := 0.92
	wer, accuracy, conf := scoreTranscript("the quick brown fox", "the quick brown fox", &confidence)

	assert.Equal(t, 0.0, wer)
	assert.Equal(t, 100.0, accuracy)
	assert.Equal(t, 0.92, conf)
}

func TestScoreTranscript_NilConfidence(t *testing.T) {
	_, _, conf := scoreTranscript("hello world", "hello world", nil)
	assert.Equal(t, 0.0, conf)
}

func TestMetricsRTF(t *testing.T) {
	ratio, ok, anomalous := metricsRTF(2*time.Second, 4*time.Second)
	assert.True(t, ok)
	assert.Equal(t, 0.5, ratio)
	assert.False(t, anomalous)
}

func TestMetricsRTF_AnomalousRatioFlagged(t *testing.T) {
	_, ok, anomalous := metricsRTF(500*time.Second, 1*time.Second)
	assert.True(t, ok)
	assert.True(t, anomalous)
}

func TestMetricsRTF_ZeroDuration(t *testing.T) {
	_, ok, _ := metricsRTF(2*time.Second, 0)
	assert.False(t, ok)
}

func TestSummarize(t *testing.T) {
	out := summarize([]store.Metric{
		{Name: store.MetricTTSLatency, Value: 1.23456},
		{Name: store.MetricWER, Value: 0.1},
	})
	assert.Equal(t, "tts_latency:1.2346|wer:0.1000", out)
}

func TestSummarize_Empty(t *testing.T) {
	assert.Equal(t, "", summarize(nil))
}
