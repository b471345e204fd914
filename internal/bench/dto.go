// Package bench defines the request/response shapes for the Run API
// surface (spec.md §6) that cmd/benchd exposes over HTTP and cmd/bench
// consumes as a client. The HTTP transport itself is a thin wrapper; the
// core contract lives in the engine/store/aggregate packages this DTO
// layer adapts to and from JSON.
package bench

import "github.com/hubenschmidt/speechbench/internal/store"

// CreateRunRequest is the CreateRun input payload.
type CreateRunRequest struct {
	Mode           string            `json:"mode"`
	Vendors        []string          `json:"vendors"`
	Inputs         []string          `json:"inputs,omitempty"`
	ScriptID       string            `json:"script_id,omitempty"`
	Service        string            `json:"service,omitempty"`
	Models         map[string]string `json:"models,omitempty"`
	ChainTTSVendor string            `json:"chain_tts_vendor,omitempty"`
	ChainSTTVendor string            `json:"chain_stt_vendor,omitempty"`
	VoiceID        string            `json:"voice_id,omitempty"`
	Language       string            `json:"language,omitempty"`
}

// CreateRunResponse is returned immediately; work proceeds asynchronously.
type CreateRunResponse struct {
	RunID              string `json:"run_id"`
	AcceptedItemsCount int    `json:"accepted_items_count"`
}

// RunView is the GetRun/ListRuns item shape.
type RunView struct {
	ID         string       `json:"id"`
	Mode       string       `json:"mode"`
	Vendors    []string     `json:"vendors"`
	Status     string       `json:"status"`
	CreatedAt  string       `json:"created_at"`
	StartedAt  string       `json:"started_at,omitempty"`
	FinishedAt string       `json:"finished_at,omitempty"`
	Items      []ItemView   `json:"items,omitempty"`
}

// ItemView is one run item as rendered to API callers.
type ItemView struct {
	ID             string `json:"id"`
	VendorLabel    string `json:"vendor_label"`
	Status         string `json:"status"`
	InputText      string `json:"input_text"`
	Transcript     string `json:"transcript,omitempty"`
	AudioPath      string `json:"audio_path,omitempty"`
	MetricsSummary string `json:"metrics_summary"`
	Sidecar        string `json:"sidecar"`
	FailureReason  string `json:"failure_reason,omitempty"`
}

// FromStoreRun converts a store.Run (and optionally its items) to a RunView.
func FromStoreRun(run store.Run, items []store.RunItem) RunView {
	view := RunView{
		ID:        run.ID,
		Mode:      string(run.Mode),
		Vendors:   run.Vendors,
		Status:    string(run.Status),
		CreatedAt: run.CreatedAt.Format(timeLayout),
	}
	if run.StartedAt != nil {
		view.StartedAt = run.StartedAt.Format(timeLayout)
	}
	if run.FinishedAt != nil {
		view.FinishedAt = run.FinishedAt.Format(timeLayout)
	}
	for _, item := range items {
		view.Items = append(view.Items, fromStoreItem(item))
	}
	return view
}

func fromStoreItem(item store.RunItem) ItemView {
	v := ItemView{
		ID:             item.ID,
		VendorLabel:    item.VendorLabel,
		Status:         string(item.Status),
		InputText:      item.InputText,
		MetricsSummary: item.MetricsSummary,
		Sidecar:        item.Sidecar,
	}
	if item.Transcript != nil {
		v.Transcript = *item.Transcript
	}
	if item.AudioLocator != nil {
		v.AudioPath = *item.AudioLocator
	}
	if item.FailureReason != nil {
		v.FailureReason = *item.FailureReason
	}
	return v
}

const timeLayout = "2006-01-02T15:04:05.000Z07:00"

// DashboardView mirrors aggregate.Dashboard for JSON responses.
type DashboardView struct {
	TotalRuns   int     `json:"total_runs"`
	SuccessRate float64 `json:"success_rate"`
	AvgLatency  float64 `json:"avg_latency_seconds"`
}

// PercentileView mirrors aggregate.Percentile for JSON responses.
type PercentileView struct {
	P     float64 `json:"p"`
	Value float64 `json:"value"`
	N     int     `json:"n"`
}

// PairingView mirrors aggregate.Pairing for JSON responses.
type PairingView struct {
	TTSVendor string  `json:"tts_vendor"`
	STTVendor string  `json:"stt_vendor"`
	Tests     int     `json:"tests"`
	AvgWER    float64 `json:"avg_wer"`
}

// ScriptSummary is one entry of ListScripts.
type ScriptSummary struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	ItemCount int    `json:"item_count"`
}

// CreateScriptRequest registers a named, ordered corpus of reference
// strings that a later CreateRun can address by id instead of inlining
// its inputs directly.
type CreateScriptRequest struct {
	Name  string   `json:"name"`
	Items []string `json:"items"`
}
