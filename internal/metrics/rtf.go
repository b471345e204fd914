package metrics

import "time"

// RTF computes the real-time factor: processing latency divided by audio
// duration. ok is false when duration is not positive, per spec §4.3.3, in
// which case the caller must record the metric as absent rather than as 0.
func RTF(latency, duration time.Duration) (ratio float64, ok bool) {
	if duration <= 0 {
		return 0, false
	}
	return latency.Seconds() / duration.Seconds(), true
}

// RTFAnomalous reports whether a computed ratio falls outside the expected
// real-time-factor envelope (spec §4.3.3: < 0.01 or > 100). An anomalous
// ratio is still recorded — this only flags it for review.
func RTFAnomalous(ratio float64) bool {
	return ratio < 0.01 || ratio > 100
}
