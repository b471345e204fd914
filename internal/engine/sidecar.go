package engine

import "github.com/tidwall/sjson"

// buildConfigSnapshot serializes the options a run was created with into
// the free-form JSON the spec calls the run's "configuration snapshot".
func buildConfigSnapshot(input CreateRunInput) string {
	json := `{}`
	json, _ = sjson.Set(json, "service", input.Service)
	json, _ = sjson.Set(json, "voice_id", input.VoiceID)
	json, _ = sjson.Set(json, "language", input.Language)
	if input.Mode == "chained" {
		json, _ = sjson.Set(json, "chain.tts_vendor", input.ChainTTSVendor)
		json, _ = sjson.Set(json, "chain.stt_vendor", input.ChainSTTVendor)
	}
	for vendorName, model := range input.Models {
		json, _ = sjson.Set(json, "models."+vendorName, model)
	}
	return json
}

// buildItemSidecar builds a run item's free-form sidecar JSON
// (service_type, model identifiers, voice identifier, language).
func buildItemSidecar(serviceType, modelID, voiceID, language string) string {
	json := `{}`
	json, _ = sjson.Set(json, "service_type", serviceType)
	if modelID != "" {
		json, _ = sjson.Set(json, "model_id", modelID)
	}
	if voiceID != "" {
		json, _ = sjson.Set(json, "voice_id", voiceID)
	}
	if language != "" {
		json, _ = sjson.Set(json, "language", language)
	}
	return json
}

// setSidecarEstimated flags the audio_duration metric as size-estimated in
// the item's sidecar JSON (spec §4.4 strategy 3 requirement).
func setSidecarEstimated(sidecar string, estimated bool) string {
	out, err := sjson.Set(sidecar, "audio_duration_estimated", estimated)
	if err != nil {
		return sidecar
	}
	return out
}

// setSidecarRTFAnomalous records the AnomalyFlag (spec §7) on the item's
// sidecar JSON when its RTF fell outside the plausible range, alongside
// the aggregate Prometheus counter metricsRTF already increments.
func setSidecarRTFAnomalous(sidecar string, anomalous bool) string {
	out, err := sjson.Set(sidecar, "rtf_anomalous", anomalous)
	if err != nil {
		return sidecar
	}
	return out
}
