package engine

import (
	"fmt"
	"strings"
	"time"

	"github.com/tidwall/gjson"

	"github.com/hubenschmidt/speechbench/internal/metrics"
	"github.com/hubenschmidt/speechbench/internal/store"
)

func gjsonString(sidecar, path string) string {
	return gjson.Get(sidecar, path).String()
}

func numericMetric(name store.MetricName, value float64, unit store.MetricUnit) store.Metric {
	return store.Metric{Name: name, Value: value, Unit: unit}
}

// scoreTranscript computes wer/accuracy/confidence for one run item's
// reference-vs-hypothesis pair and observes the WER into
// metrics.WERObserved. No anomaly is recorded for a high WER.
func scoreTranscript(reference, hypothesis string, rawConfidence *float64) (wer, accuracy, confidence float64) {
	wer = metrics.ComputeWER(reference, hypothesis)
	metrics.WERObserved.Observe(wer)
	accuracy = metrics.Accuracy(wer)
	confidence = metrics.NormalizeConfidence(rawConfidence)
	return wer, accuracy, confidence
}

// metricsRTF computes real-time factor and reports whether it falls
// outside the plausible range. Callers that get anomalous=true should
// record it on the item via setSidecarRTFAnomalous, in addition to the
// aggregate Prometheus counter this increments.
func metricsRTF(latency, duration time.Duration) (ratio float64, ok bool, anomalous bool) {
	ratio, ok = metrics.RTF(latency, duration)
	if !ok {
		return 0, false, false
	}
	anomalous = metrics.RTFAnomalous(ratio)
	if anomalous {
		metrics.AnomaliesTotal.WithLabelValues("rtf").Inc()
	}
	return ratio, true, anomalous
}

// summarize renders a metric set as pipe-separated name:value pairs for
// the run item's compact UI summary field; the Metric rows remain authoritative.
func summarize(metricSet []store.Metric) string {
	parts := make([]string, 0, len(metricSet))
	for _, m := range metricSet {
		parts = append(parts, fmt.Sprintf("%s:%.4f", m.Name, m.Value))
	}
	return strings.Join(parts, "|")
}
