// Package aggregate derives dashboard statistics from the repository over
// a lookback window: success rate, service mix, vendor usage, top
// chained-vendor pairings, and latency percentiles. Grounded on the
// teacher load-test's percentile() helper (services/loadtest/main.go),
// upgraded from nearest-rank to linear interpolation per the metric
// computations component.
package aggregate

import (
	"context"
	"fmt"
	"math"
	"sort"
	"strings"
	"time"

	"github.com/hubenschmidt/speechbench/internal/store"
)

const defaultLookback = 7 * 24 * time.Hour

// Service classifies a run item's service mix per spec §4.7: TTS has
// audio but no transcript, STT has transcript but no audio, E2E has both.
type Service string

const (
	ServiceTTS Service = "tts"
	ServiceSTT Service = "stt"
	ServiceE2E Service = "e2e"
)

// Dashboard is the top-level summary view.
type Dashboard struct {
	TotalRuns   int
	SuccessRate float64
	AvgLatency  float64 // seconds
}

// Pairing reports one (tts_vendor, stt_vendor) chained combination.
type Pairing struct {
	TTSVendor string
	STTVendor string
	Tests     int
	AvgWER    float64
}

// Percentile reports a single percentile value alongside its sample count.
type Percentile struct {
	P    float64 // e.g. 50, 90
	Value float64
	N     int
}

// Service derives which bucket a run item falls into from its stored
// artifact pointers.
func serviceOf(item store.RunItem) Service {
	hasAudio := item.AudioLocator != nil && *item.AudioLocator != ""
	hasTranscript := item.Transcript != nil && *item.Transcript != ""
	switch {
	case hasAudio && hasTranscript:
		return ServiceE2E
	case hasAudio:
		return ServiceTTS
	default:
		return ServiceSTT
	}
}

// Aggregator reads the repository to compute derived views.
type Aggregator struct {
	repo *store.Repository
}

// New creates an Aggregator over repo.
func New(repo *store.Repository) *Aggregator {
	return &Aggregator{repo: repo}
}

// DashboardStats computes total_runs, success_rate, and avg_latency over
// the given window (zero from/to defaults to the last 7 days).
func (a *Aggregator) DashboardStats(ctx context.Context, from, to time.Time) (Dashboard, error) {
	from, to = normalizeWindow(from, to)

	runs, err := a.repo.RunsInWindow(ctx, from, to)
	if err != nil {
		return Dashboard{}, fmt.Errorf("aggregate: dashboard stats: %w", err)
	}
	if len(runs) == 0 {
		return Dashboard{}, nil
	}

	var completed int
	for _, r := range runs {
		if r.Status == store.StatusCompleted {
			completed++
		}
	}

	avgLatency, err := a.avgLatency(ctx, from, to)
	if err != nil {
		return Dashboard{}, err
	}

	return Dashboard{
		TotalRuns:   len(runs),
		SuccessRate: float64(completed) / float64(len(runs)),
		AvgLatency:  avgLatency,
	}, nil
}

// avgLatency averages e2e_latency where present, falling back to
// tts_latency or stt_latency when a run item has neither populated.
func (a *Aggregator) avgLatency(ctx context.Context, from, to time.Time) (float64, error) {
	preference := []store.MetricName{store.MetricE2ELatency, store.MetricTTSLatency, store.MetricSTTLatency}

	seen := make(map[string]bool)
	var sum float64
	var n int

	for _, name := range preference {
		samples, err := a.repo.TimeWindowQuery(ctx, name, from, to)
		if err != nil {
			return 0, fmt.Errorf("aggregate: avg latency %s: %w", name, err)
		}
		for _, s := range samples {
			if seen[s.RunItemID] {
				continue
			}
			seen[s.RunItemID] = true
			sum += s.Value
			n++
		}
	}
	if n == 0 {
		return 0, nil
	}
	return sum / float64(n), nil
}

// ServiceMix counts run items by detected service over the window.
func (a *Aggregator) ServiceMix(ctx context.Context, from, to time.Time) (map[Service]int, error) {
	from, to = normalizeWindow(from, to)

	items, err := a.repo.ItemsInWindow(ctx, from, to)
	if err != nil {
		return nil, fmt.Errorf("aggregate: service mix: %w", err)
	}

	mix := map[Service]int{ServiceTTS: 0, ServiceSTT: 0, ServiceE2E: 0}
	for _, item := range items {
		if item.Status != store.ItemCompleted {
			continue
		}
		mix[serviceOf(item)]++
	}
	return mix, nil
}

// VendorUsage counts completed run items per vendor name. Chained labels
// ("tts_vendor→stt_vendor") contribute to both vendor names' counts.
func (a *Aggregator) VendorUsage(ctx context.Context, from, to time.Time) (map[string]int, error) {
	from, to = normalizeWindow(from, to)

	items, err := a.repo.ItemsInWindow(ctx, from, to)
	if err != nil {
		return nil, fmt.Errorf("aggregate: vendor usage: %w", err)
	}

	usage := make(map[string]int)
	for _, item := range items {
		if item.Status != store.ItemCompleted {
			continue
		}
		for _, v := range strings.Split(item.VendorLabel, "→") {
			usage[v]++
		}
	}
	return usage, nil
}

// VendorFailureRate reports how often a vendor's run items failed alongside
// how many it attempted, a supplemental breakdown beyond raw usage counts.
type VendorFailureRate struct {
	Vendor      string
	Attempts    int
	Failures    int
	FailureRate float64
}

// VendorFailureRates computes per-vendor attempt/failure counts over the
// window. Chained labels split across both named vendors, same as VendorUsage.
func (a *Aggregator) VendorFailureRates(ctx context.Context, from, to time.Time) ([]VendorFailureRate, error) {
	from, to = normalizeWindow(from, to)

	items, err := a.repo.ItemsInWindow(ctx, from, to)
	if err != nil {
		return nil, fmt.Errorf("aggregate: vendor failure rates: %w", err)
	}

	type accum struct {
		attempts int
		failures int
	}
	byVendor := make(map[string]*accum)

	for _, item := range items {
		for _, v := range strings.Split(item.VendorLabel, "→") {
			acc, ok := byVendor[v]
			if !ok {
				acc = &accum{}
				byVendor[v] = acc
			}
			acc.attempts++
			if item.Status == store.ItemFailed {
				acc.failures++
			}
		}
	}

	rates := make([]VendorFailureRate, 0, len(byVendor))
	for vendor, acc := range byVendor {
		rate := 0.0
		if acc.attempts > 0 {
			rate = float64(acc.failures) / float64(acc.attempts)
		}
		rates = append(rates, VendorFailureRate{Vendor: vendor, Attempts: acc.attempts, Failures: acc.failures, FailureRate: rate})
	}
	sort.Slice(rates, func(i, j int) bool { return rates[i].Attempts > rates[j].Attempts })
	return rates, nil
}

// TopPairings groups chained items by (tts_vendor, stt_vendor) and reports
// test counts and average WER, sorted by test count descending.
func (a *Aggregator) TopPairings(ctx context.Context, from, to time.Time) ([]Pairing, error) {
	from, to = normalizeWindow(from, to)

	items, err := a.repo.ItemsInWindow(ctx, from, to)
	if err != nil {
		return nil, fmt.Errorf("aggregate: top pairings: %w", err)
	}

	type accum struct {
		count  int
		werSum float64
		werN   int
	}
	byPair := make(map[string]*accum)

	for _, item := range items {
		if item.Status != store.ItemCompleted || !strings.Contains(item.VendorLabel, "→") {
			continue
		}
		acc, ok := byPair[item.VendorLabel]
		if !ok {
			acc = &accum{}
			byPair[item.VendorLabel] = acc
		}
		acc.count++

		metricSet, err := a.repo.MetricsByItem(ctx, item.ID)
		if err != nil {
			continue
		}
		for _, m := range metricSet {
			if m.Name == store.MetricWER {
				acc.werSum += m.Value
				acc.werN++
			}
		}
	}

	pairings := make([]Pairing, 0, len(byPair))
	for label, acc := range byPair {
		parts := strings.SplitN(label, "→", 2)
		if len(parts) != 2 {
			continue
		}
		avgWER := 0.0
		if acc.werN > 0 {
			avgWER = acc.werSum / float64(acc.werN)
		}
		pairings = append(pairings, Pairing{TTSVendor: parts[0], STTVendor: parts[1], Tests: acc.count, AvgWER: avgWER})
	}

	sort.Slice(pairings, func(i, j int) bool { return pairings[i].Tests > pairings[j].Tests })
	return pairings, nil
}

// Percentiles computes p50 and p90 (and any other requested fractions)
// for metricName over the window, via sorted-sample linear interpolation
// at fractional index (n-1)*k.
func (a *Aggregator) Percentiles(ctx context.Context, metricName store.MetricName, from, to time.Time, fractions []float64) ([]Percentile, error) {
	from, to = normalizeWindow(from, to)

	samples, err := a.repo.TimeWindowQuery(ctx, metricName, from, to)
	if err != nil {
		return nil, fmt.Errorf("aggregate: percentiles %s: %w", metricName, err)
	}

	values := make([]float64, len(samples))
	for i, s := range samples {
		values[i] = s.Value
	}
	sort.Float64s(values)

	results := make([]Percentile, 0, len(fractions))
	for _, frac := range fractions {
		results = append(results, Percentile{P: frac * 100, Value: interpolatedPercentile(values, frac), N: len(values)})
	}
	return results, nil
}

// interpolatedPercentile returns the k-th percentile of sorted values
// (k in [0,1]) by linear interpolation between the two nearest ranks.
func interpolatedPercentile(sorted []float64, k float64) float64 {
	n := len(sorted)
	if n == 0 {
		return 0
	}
	if n == 1 {
		return sorted[0]
	}

	idx := k * float64(n-1)
	lo := int(math.Floor(idx))
	hi := int(math.Ceil(idx))
	if lo == hi {
		return sorted[lo]
	}
	frac := idx - float64(lo)
	return sorted[lo]*(1-frac) + sorted[hi]*frac
}

func normalizeWindow(from, to time.Time) (time.Time, time.Time) {
	if to.IsZero() {
		to = time.Now().UTC()
	}
	if from.IsZero() {
		from = to.Add(-defaultLookback)
	}
	return from, to
}
