// Package store persists the benchmark data model (runs, run items,
// metrics, artifacts, scripts) to PostgreSQL, adapted from the teacher
// gateway's internal/trace package (embedded-migration idiom, with a
// pgxpool connection pool in place of sql.Open("pgx", ...)), generalized
// from a fixed call-trace shape to the run/run-item/metric schema.
package store

import "time"

// RunMode selects how a run's inputs are dispatched to vendors.
type RunMode string

const (
	ModeIsolated RunMode = "isolated"
	ModeChained  RunMode = "chained"
)

// RunStatus tracks the monotone pending -> running -> {completed,failed,partial} lifecycle.
type RunStatus string

const (
	StatusPending   RunStatus = "pending"
	StatusRunning   RunStatus = "running"
	StatusCompleted RunStatus = "completed"
	StatusFailed    RunStatus = "failed"
	StatusPartial   RunStatus = "partial"
)

// ItemStatus tracks a run item's pending -> running -> {completed,failed} lifecycle.
type ItemStatus string

const (
	ItemPending   ItemStatus = "pending"
	ItemRunning   ItemStatus = "running"
	ItemCompleted ItemStatus = "completed"
	ItemFailed    ItemStatus = "failed"
)

// Run is a single user-initiated benchmark execution.
type Run struct {
	ID         string
	CreatedAt  time.Time
	Mode       RunMode
	Vendors    []string
	Config     string // JSON snapshot: models, voices, language, chain pairing
	Status     RunStatus
	StartedAt  *time.Time
	FinishedAt *time.Time
}

// RunItem is one (input, vendor-assignment) attempt within a run.
type RunItem struct {
	ID            string
	RunID         string
	InputText     string
	VendorLabel   string // vendor name, or "tts_vendor→stt_vendor" for chained
	Status        ItemStatus
	MetricsSummary string
	AudioLocator  *string
	Transcript    *string
	Sidecar       string // JSON: service_type, model ids, voice_id, language
	FailureReason *string
	CreatedAt     time.Time
}

// MetricName enumerates the closed vocabulary from the metric computations component.
type MetricName string

const (
	MetricTTSLatency  MetricName = "tts_latency"
	MetricTTSTTFB     MetricName = "tts_ttfb"
	MetricSTTLatency  MetricName = "stt_latency"
	MetricE2ELatency  MetricName = "e2e_latency"
	MetricAudioDur    MetricName = "audio_duration"
	MetricTTSRTF      MetricName = "tts_rtf"
	MetricSTTRTF      MetricName = "stt_rtf"
	MetricWER         MetricName = "wer"
	MetricAccuracy    MetricName = "accuracy"
	MetricConfidence  MetricName = "confidence"
)

// MetricUnit enumerates the unit vocabulary.
type MetricUnit string

const (
	UnitSeconds MetricUnit = "seconds"
	UnitRatio   MetricUnit = "ratio"
	UnitPercent MetricUnit = "percent"
	UnitX       MetricUnit = "x"
)

// Metric is a named numeric measurement attached to a run item.
type Metric struct {
	ID        int64
	RunItemID string
	Name      MetricName
	Value     float64
	Unit      MetricUnit
	CreatedAt time.Time
}

// ArtifactKind distinguishes the two blob kinds a run item may own.
type ArtifactKind string

const (
	ArtifactAudio      ArtifactKind = "audio"
	ArtifactTranscript ArtifactKind = "transcript"
)

// Artifact is a binary or text blob tied to a run item.
type Artifact struct {
	ID          int64
	RunItemID   string
	Kind        ArtifactKind
	ContentType string
	Locator     string
	ByteLength  int64
	CreatedAt   time.Time
}

// Script is an ordered list of benchmark inputs loaded for batch mode.
type Script struct {
	ID        string
	Name      string
	CreatedAt time.Time
}

// ScriptItem is one entry of a Script, in sequence order.
type ScriptItem struct {
	ID       string
	ScriptID string
	Seq      int
	Text     string
}
