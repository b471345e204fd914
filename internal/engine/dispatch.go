package engine

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/hubenschmidt/speechbench/internal/audioprobe"
	"github.com/hubenschmidt/speechbench/internal/metrics"
	"github.com/hubenschmidt/speechbench/internal/store"
	"github.com/hubenschmidt/speechbench/internal/vendor"
)

// Execute transitions a pending run to running, dispatches its items with
// bounded concurrency, and sets the run's terminal status once every item
// has settled. Called asynchronously by CreateRun. Every item the run
// lists is dispatched, whatever status it already has in the repository.
func (e *Engine) Execute(ctx context.Context, runID string) {
	log := e.cfg.Logger.With("run_id", runID)

	run, err := e.cfg.Repo.GetRun(ctx, runID)
	if err != nil {
		log.Error("execute: load run", "error", err)
		return
	}

	now := time.Now().UTC()
	if err = e.cfg.Repo.SetRunStatus(ctx, runID, store.StatusRunning, &now, nil); err != nil {
		log.Error("execute: set running", "error", err)
		return
	}
	metrics.RunsActive.Inc()
	defer metrics.RunsActive.Dec()

	items, err := e.cfg.Repo.ListItemsByRun(ctx, runID)
	if err != nil {
		log.Error("execute: list items", "error", err)
		return
	}

	// Bounded per-run concurrency via a buffered channel semaphore, the
	// same pool-sizing idiom as NewPooledHTTPClient's tuned transport.
	sem := make(chan struct{}, e.cfg.Concurrency)
	var wg sync.WaitGroup
	var mu sync.Mutex
	var completed, failed int

	for _, item := range items {
		if e.cancelled(runID) {
			break
		}
		item := item
		wg.Add(1)
		sem <- struct{}{}
		go func() {
			defer wg.Done()
			defer func() { <-sem }()

			ok := e.runItem(ctx, run.Mode, item)
			mu.Lock()
			if ok {
				completed++
			} else {
				failed++
			}
			mu.Unlock()
		}()
	}
	wg.Wait()

	finished := time.Now().UTC()
	final := store.StatusPartial
	switch {
	case failed == 0:
		final = store.StatusCompleted
	case completed == 0:
		final = store.StatusFailed
	}
	if err = e.cfg.Repo.SetRunStatus(ctx, runID, final, nil, &finished); err != nil {
		log.Error("execute: set final status", "error", err)
	}
	e.cancelledSet.clear(runID)
}

// runItem dispatches one item per the run's mode and commits its result.
// Returns true if the item completed successfully.
func (e *Engine) runItem(ctx context.Context, mode store.RunMode, item store.RunItem) bool {
	log := e.cfg.Logger.With("item_id", item.ID, "vendor", item.VendorLabel)

	var result store.CommitItemResult
	var err error

	switch mode {
	case store.ModeIsolated:
		result, err = e.runIsolated(ctx, item)
	case store.ModeChained:
		result, err = e.runChained(ctx, item)
	default:
		err = &vendor.ValidationError{Reason: fmt.Sprintf("unknown mode %q", mode)}
	}

	if err != nil {
		reason := err.Error()
		result = store.CommitItemResult{
			ItemID:        item.ID,
			Status:        store.ItemFailed,
			FailureReason: &reason,
			Sidecar:       item.Sidecar,
		}
		log.Warn("item failed", "error", err)
	}

	if commitErr := e.cfg.Repo.CommitItem(ctx, result); commitErr != nil {
		log.Error("commit item", "error", commitErr)
		return false
	}

	metrics.ItemsTotal.WithLabelValues(itemService(mode, item), string(result.Status)).Inc()
	return err == nil
}

// itemService labels an item for metrics.ItemsTotal: the isolated service
// type it was dispatched as, or "chained" for a chained tts→stt item.
func itemService(mode store.RunMode, item store.RunItem) string {
	if mode == store.ModeChained {
		return "chained"
	}
	if s := gjsonString(item.Sidecar, "service_type"); s != "" {
		return s
	}
	return "unknown"
}

func (e *Engine) runIsolated(ctx context.Context, item store.RunItem) (store.CommitItemResult, error) {
	sidecarService := gjsonString(item.Sidecar, "service_type")
	switch sidecarService {
	case "tts":
		return e.runIsolatedTTS(ctx, item)
	case "stt":
		return e.runIsolatedSTT(ctx, item)
	default:
		return store.CommitItemResult{}, &vendor.ValidationError{Reason: fmt.Sprintf("unknown isolated service %q", sidecarService)}
	}
}

func (e *Engine) runIsolatedTTS(ctx context.Context, item store.RunItem) (store.CommitItemResult, error) {
	synth, err := e.cfg.Synth.Lookup(item.VendorLabel)
	if err != nil {
		return store.CommitItemResult{}, err
	}
	evaluator, err := e.cfg.Transcribe.Lookup(e.cfg.EvaluatorVendor)
	if err != nil {
		return store.CommitItemResult{}, fmt.Errorf("engine: evaluator transcriber: %w", err)
	}

	synthCtx, cancel := context.WithTimeout(ctx, e.cfg.SynthesizeTimeout)
	defer cancel()

	var synthResult *vendor.SynthesizeResult
	err = withRetry(synthCtx, e.cfg.MaxRetries, item.VendorLabel, "tts", func() error {
		var callErr error
		synthResult, callErr = synth.Synthesize(synthCtx, item.InputText, vendor.SynthesizeConfig{
			VoiceID:  gjsonString(item.Sidecar, "voice_id"),
			ModelID:  gjsonString(item.Sidecar, "model_id"),
			Language: gjsonString(item.Sidecar, "language"),
		})
		return callErr
	})
	if err != nil {
		return store.CommitItemResult{}, fmt.Errorf("synthesize: %w", err)
	}

	audioPath, err := e.cfg.Artifacts.SaveAudio(item.ID, synthResult.Audio, synthResult.ContentType)
	if err != nil {
		return store.CommitItemResult{}, err
	}

	dur, durOK := audioprobe.Probe(synthResult.Audio, synthResult.ContentType, synthResult.VendorDuration)
	sidecar := item.Sidecar
	if durOK {
		sidecar = setSidecarEstimated(sidecar, dur.Estimated)
	}

	transcribeCtx, cancel2 := context.WithTimeout(ctx, e.cfg.TranscribeTimeout)
	defer cancel2()

	var transcribeResult *vendor.TranscribeResult
	err = withRetry(transcribeCtx, e.cfg.MaxRetries, e.cfg.EvaluatorVendor, "stt", func() error {
		var callErr error
		transcribeResult, callErr = evaluator.Transcribe(transcribeCtx, synthResult.Audio, synthResult.ContentType, vendor.TranscribeConfig{ReferenceText: item.InputText})
		return callErr
	})
	if err != nil {
		return store.CommitItemResult{}, fmt.Errorf("evaluator transcribe: %w", err)
	}

	transcriptPath, err := e.cfg.Artifacts.SaveTranscript(item.ID, transcribeResult.Transcript)
	if err != nil {
		return store.CommitItemResult{}, err
	}

	wer, accuracy, confidence := scoreTranscript(item.InputText, transcribeResult.Transcript, transcribeResult.Confidence)

	metricSet := []store.Metric{
		numericMetric(store.MetricTTSLatency, synthResult.Latency.Seconds(), store.UnitSeconds),
		numericMetric(store.MetricWER, wer, store.UnitRatio),
		numericMetric(store.MetricAccuracy, accuracy, store.UnitPercent),
		numericMetric(store.MetricConfidence, confidence, store.UnitRatio),
	}
	if synthResult.TTFB != nil {
		metricSet = append(metricSet, numericMetric(store.MetricTTSTTFB, synthResult.TTFB.Seconds(), store.UnitSeconds))
	}
	if durOK {
		metricSet = append(metricSet, numericMetric(store.MetricAudioDur, dur.Duration.Seconds(), store.UnitSeconds))
		if rtf, ok, anomalous := metricsRTF(synthResult.Latency, dur.Duration); ok {
			metricSet = append(metricSet, numericMetric(store.MetricTTSRTF, rtf, store.UnitX))
			if anomalous {
				sidecar = setSidecarRTFAnomalous(sidecar, true)
			}
		}
	}

	return store.CommitItemResult{
		ItemID:         item.ID,
		Status:         store.ItemCompleted,
		MetricsSummary: summarize(metricSet),
		AudioLocator:   &audioPath,
		Transcript:     &transcribeResult.Transcript,
		Sidecar:        sidecar,
		Metrics:        metricSet,
		Artifacts: []store.Artifact{
			{RunItemID: item.ID, Kind: store.ArtifactAudio, ContentType: synthResult.ContentType, Locator: audioPath, ByteLength: int64(len(synthResult.Audio))},
			{RunItemID: item.ID, Kind: store.ArtifactTranscript, ContentType: "text/plain", Locator: transcriptPath, ByteLength: int64(len(transcribeResult.Transcript))},
		},
	}, nil
}

func (e *Engine) runIsolatedSTT(ctx context.Context, item store.RunItem) (store.CommitItemResult, error) {
	defaultSynth, err := e.cfg.Synth.Lookup(e.cfg.DefaultSynthVendor)
	if err != nil {
		return store.CommitItemResult{}, fmt.Errorf("engine: default synthesizer: %w", err)
	}
	transcriber, err := e.cfg.Transcribe.Lookup(item.VendorLabel)
	if err != nil {
		return store.CommitItemResult{}, err
	}

	synthCtx, cancel := context.WithTimeout(ctx, e.cfg.SynthesizeTimeout)
	defer cancel()

	var synthResult *vendor.SynthesizeResult
	err = withRetry(synthCtx, e.cfg.MaxRetries, e.cfg.DefaultSynthVendor, "tts", func() error {
		var callErr error
		synthResult, callErr = defaultSynth.Synthesize(synthCtx, item.InputText, vendor.SynthesizeConfig{
			VoiceID:  gjsonString(item.Sidecar, "voice_id"),
			Language: gjsonString(item.Sidecar, "language"),
		})
		return callErr
	})
	if err != nil {
		return store.CommitItemResult{}, fmt.Errorf("stimulus synthesize: %w", err)
	}

	audioPath, err := e.cfg.Artifacts.SaveAudio(item.ID, synthResult.Audio, synthResult.ContentType)
	if err != nil {
		return store.CommitItemResult{}, err
	}

	transcribeCtx, cancel2 := context.WithTimeout(ctx, e.cfg.TranscribeTimeout)
	defer cancel2()

	var transcribeResult *vendor.TranscribeResult
	err = withRetry(transcribeCtx, e.cfg.MaxRetries, item.VendorLabel, "stt", func() error {
		var callErr error
		transcribeResult, callErr = transcriber.Transcribe(transcribeCtx, synthResult.Audio, synthResult.ContentType, vendor.TranscribeConfig{
			ModelID:       gjsonString(item.Sidecar, "model_id"),
			Language:      gjsonString(item.Sidecar, "language"),
			ReferenceText: item.InputText,
		})
		return callErr
	})
	if err != nil {
		return store.CommitItemResult{}, fmt.Errorf("transcribe: %w", err)
	}

	transcriptPath, err := e.cfg.Artifacts.SaveTranscript(item.ID, transcribeResult.Transcript)
	if err != nil {
		return store.CommitItemResult{}, err
	}

	wer, accuracy, confidence := scoreTranscript(item.InputText, transcribeResult.Transcript, transcribeResult.Confidence)

	dur, durOK := audioprobe.Probe(synthResult.Audio, synthResult.ContentType, synthResult.VendorDuration)
	sidecar := item.Sidecar
	if durOK {
		sidecar = setSidecarEstimated(sidecar, dur.Estimated)
	}

	metricSet := []store.Metric{
		numericMetric(store.MetricSTTLatency, transcribeResult.Latency.Seconds(), store.UnitSeconds),
		numericMetric(store.MetricWER, wer, store.UnitRatio),
		numericMetric(store.MetricAccuracy, accuracy, store.UnitPercent),
		numericMetric(store.MetricConfidence, confidence, store.UnitRatio),
	}
	if durOK {
		metricSet = append(metricSet, numericMetric(store.MetricAudioDur, dur.Duration.Seconds(), store.UnitSeconds))
		if rtf, ok, anomalous := metricsRTF(transcribeResult.Latency, dur.Duration); ok {
			metricSet = append(metricSet, numericMetric(store.MetricSTTRTF, rtf, store.UnitX))
			if anomalous {
				sidecar = setSidecarRTFAnomalous(sidecar, true)
			}
		}
	}

	return store.CommitItemResult{
		ItemID:         item.ID,
		Status:         store.ItemCompleted,
		MetricsSummary: summarize(metricSet),
		AudioLocator:   &audioPath,
		Transcript:     &transcribeResult.Transcript,
		Sidecar:        sidecar,
		Metrics:        metricSet,
		Artifacts: []store.Artifact{
			{RunItemID: item.ID, Kind: store.ArtifactAudio, ContentType: synthResult.ContentType, Locator: audioPath, ByteLength: int64(len(synthResult.Audio))},
			{RunItemID: item.ID, Kind: store.ArtifactTranscript, ContentType: "text/plain", Locator: transcriptPath, ByteLength: int64(len(transcribeResult.Transcript))},
		},
	}, nil
}

func (e *Engine) runChained(ctx context.Context, item store.RunItem) (store.CommitItemResult, error) {
	parts := strings.SplitN(item.VendorLabel, "→", 2)
	if len(parts) != 2 {
		return store.CommitItemResult{}, &vendor.ValidationError{Reason: fmt.Sprintf("malformed chained vendor label %q", item.VendorLabel)}
	}
	ttsVendor, sttVendor := parts[0], parts[1]

	synth, err := e.cfg.Synth.Lookup(ttsVendor)
	if err != nil {
		return store.CommitItemResult{}, err
	}
	transcriber, err := e.cfg.Transcribe.Lookup(sttVendor)
	if err != nil {
		return store.CommitItemResult{}, err
	}

	synthCtx, cancel := context.WithTimeout(ctx, e.cfg.SynthesizeTimeout)
	defer cancel()

	var synthResult *vendor.SynthesizeResult
	err = withRetry(synthCtx, e.cfg.MaxRetries, ttsVendor, "tts", func() error {
		var callErr error
		synthResult, callErr = synth.Synthesize(synthCtx, item.InputText, vendor.SynthesizeConfig{
			VoiceID:  gjsonString(item.Sidecar, "voice_id"),
			Language: gjsonString(item.Sidecar, "language"),
		})
		return callErr
	})
	if err != nil {
		return store.CommitItemResult{}, fmt.Errorf("synthesize: %w", err)
	}

	audioPath, err := e.cfg.Artifacts.SaveAudio(item.ID, synthResult.Audio, synthResult.ContentType)
	if err != nil {
		return store.CommitItemResult{}, err
	}

	transcribeCtx, cancel2 := context.WithTimeout(ctx, e.cfg.TranscribeTimeout)
	defer cancel2()

	var transcribeResult *vendor.TranscribeResult
	err = withRetry(transcribeCtx, e.cfg.MaxRetries, sttVendor, "stt", func() error {
		var callErr error
		transcribeResult, callErr = transcriber.Transcribe(transcribeCtx, synthResult.Audio, synthResult.ContentType, vendor.TranscribeConfig{
			Language:      gjsonString(item.Sidecar, "language"),
			ReferenceText: item.InputText,
		})
		return callErr
	})
	if err != nil {
		return store.CommitItemResult{}, fmt.Errorf("transcribe: %w", err)
	}

	transcriptPath, err := e.cfg.Artifacts.SaveTranscript(item.ID, transcribeResult.Transcript)
	if err != nil {
		return store.CommitItemResult{}, err
	}

	wer, accuracy, confidence := scoreTranscript(item.InputText, transcribeResult.Transcript, transcribeResult.Confidence)
	e2e := synthResult.Latency + transcribeResult.Latency

	dur, durOK := audioprobe.Probe(synthResult.Audio, synthResult.ContentType, synthResult.VendorDuration)
	sidecar := item.Sidecar
	if durOK {
		sidecar = setSidecarEstimated(sidecar, dur.Estimated)
	}

	metricSet := []store.Metric{
		numericMetric(store.MetricTTSLatency, synthResult.Latency.Seconds(), store.UnitSeconds),
		numericMetric(store.MetricSTTLatency, transcribeResult.Latency.Seconds(), store.UnitSeconds),
		numericMetric(store.MetricE2ELatency, e2e.Seconds(), store.UnitSeconds),
		numericMetric(store.MetricWER, wer, store.UnitRatio),
		numericMetric(store.MetricAccuracy, accuracy, store.UnitPercent),
		numericMetric(store.MetricConfidence, confidence, store.UnitRatio),
	}
	if synthResult.TTFB != nil {
		metricSet = append(metricSet, numericMetric(store.MetricTTSTTFB, synthResult.TTFB.Seconds(), store.UnitSeconds))
	}
	if durOK {
		metricSet = append(metricSet, numericMetric(store.MetricAudioDur, dur.Duration.Seconds(), store.UnitSeconds))
		if rtf, ok, anomalous := metricsRTF(synthResult.Latency, dur.Duration); ok {
			metricSet = append(metricSet, numericMetric(store.MetricTTSRTF, rtf, store.UnitX))
			if anomalous {
				sidecar = setSidecarRTFAnomalous(sidecar, true)
			}
		}
		if rtf, ok, anomalous := metricsRTF(transcribeResult.Latency, dur.Duration); ok {
			metricSet = append(metricSet, numericMetric(store.MetricSTTRTF, rtf, store.UnitX))
			if anomalous {
				sidecar = setSidecarRTFAnomalous(sidecar, true)
			}
		}
	}

	return store.CommitItemResult{
		ItemID:         item.ID,
		Status:         store.ItemCompleted,
		MetricsSummary: summarize(metricSet),
		AudioLocator:   &audioPath,
		Transcript:     &transcribeResult.Transcript,
		Sidecar:        sidecar,
		Metrics:        metricSet,
		Artifacts: []store.Artifact{
			{RunItemID: item.ID, Kind: store.ArtifactAudio, ContentType: synthResult.ContentType, Locator: audioPath, ByteLength: int64(len(synthResult.Audio))},
			{RunItemID: item.ID, Kind: store.ArtifactTranscript, ContentType: "text/plain", Locator: transcriptPath, ByteLength: int64(len(transcribeResult.Transcript))},
		},
	}, nil
}
