package bench

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/google/uuid"

	"github.com/hubenschmidt/speechbench/internal/aggregate"
	"github.com/hubenschmidt/speechbench/internal/artifact"
	"github.com/hubenschmidt/speechbench/internal/engine"
	"github.com/hubenschmidt/speechbench/internal/store"
	"github.com/hubenschmidt/speechbench/internal/vendor"
)

// Server wires the engine, repository, artifact store, and aggregator into
// the HTTP surface spec.md §6 describes. Grounded on the teacher gateway's
// registerRoutes(mux, deps) shape (cmd/benchd's former main), narrowed here
// to the run/script/dashboard commands this system actually exposes.
type Server struct {
	Engine     *engine.Engine
	Repo       *store.Repository
	Artifacts  *artifact.Store
	Aggregator *aggregate.Aggregator
	Logger     *slog.Logger
}

// Routes registers every handler on mux.
func (s *Server) Routes(mux *http.ServeMux) {
	mux.HandleFunc("POST /runs", s.handleCreateRun)
	mux.HandleFunc("GET /runs", s.handleListRuns)
	mux.HandleFunc("GET /runs/{id}", s.handleGetRun)
	mux.HandleFunc("POST /runs/{id}/cancel", s.handleCancelRun)
	mux.HandleFunc("GET /runs/{id}/artifacts/{itemID}/{kind}", s.handleGetArtifact)
	mux.HandleFunc("POST /scripts", s.handleCreateScript)
	mux.HandleFunc("GET /scripts", s.handleListScripts)
	mux.HandleFunc("GET /dashboard", s.handleDashboard)
	mux.HandleFunc("GET /dashboard/percentiles", s.handlePercentiles)
	mux.HandleFunc("GET /dashboard/pairings", s.handlePairings)
	mux.HandleFunc("GET /dashboard/vendor-usage", s.handleVendorUsage)
}

func (s *Server) handleCreateRun(w http.ResponseWriter, r *http.Request) {
	var req CreateRunRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "bad request body")
		return
	}

	inputs := req.Inputs
	if req.ScriptID != "" {
		scriptItems, err := s.Repo.GetScriptItems(r.Context(), req.ScriptID)
		if err != nil {
			writeError(w, http.StatusInternalServerError, "failed to load script items")
			return
		}
		inputs = make([]string, len(scriptItems))
		for i, item := range scriptItems {
			inputs[i] = item.Text
		}
	}

	input := engine.CreateRunInput{
		Mode:           store.RunMode(req.Mode),
		Vendors:        req.Vendors,
		Inputs:         inputs,
		Service:        req.Service,
		Models:         req.Models,
		ChainTTSVendor: req.ChainTTSVendor,
		ChainSTTVendor: req.ChainSTTVendor,
		VoiceID:        req.VoiceID,
		Language:       req.Language,
	}

	runID, err := s.Engine.CreateRun(r.Context(), input)
	if err != nil {
		s.writeEngineError(w, err)
		return
	}

	accepted := len(inputs) * max(len(req.Vendors), 1)
	if input.Mode == store.ModeChained {
		accepted = len(inputs)
	}
	writeJSON(w, http.StatusAccepted, CreateRunResponse{RunID: runID, AcceptedItemsCount: accepted})
}

func (s *Server) handleGetRun(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")

	run, err := s.Repo.GetRun(r.Context(), id)
	if errors.Is(err, store.ErrNotFound) {
		writeError(w, http.StatusNotFound, "run not found")
		return
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to load run")
		return
	}

	items, err := s.Repo.ListItemsByRun(r.Context(), id)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to load run items")
		return
	}

	writeJSON(w, http.StatusOK, FromStoreRun(*run, items))
}

func (s *Server) handleListRuns(w http.ResponseWriter, r *http.Request) {
	limit := queryInt(r, "limit", 20)
	offset := queryInt(r, "offset", 0)
	filters := store.RunFilters{Status: store.RunStatus(r.URL.Query().Get("status"))}

	runs, total, err := s.Repo.ListRuns(r.Context(), limit, offset, filters)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to list runs")
		return
	}

	views := make([]RunView, 0, len(runs))
	for _, run := range runs {
		views = append(views, FromStoreRun(run, nil))
	}

	writeJSON(w, http.StatusOK, struct {
		Runs  []RunView `json:"runs"`
		Total int       `json:"total"`
	}{views, total})
}

func (s *Server) handleCancelRun(w http.ResponseWriter, r *http.Request) {
	s.Engine.Cancel(r.PathValue("id"))
	w.WriteHeader(http.StatusAccepted)
}

func (s *Server) handleGetArtifact(w http.ResponseWriter, r *http.Request) {
	itemID := r.PathValue("itemID")
	kind := r.PathValue("kind")

	item, err := s.Repo.GetItem(r.Context(), itemID)
	if errors.Is(err, store.ErrNotFound) {
		writeError(w, http.StatusNotFound, "run item not found")
		return
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to load run item")
		return
	}

	switch kind {
	case "audio":
		if item.AudioLocator == nil {
			writeError(w, http.StatusNotFound, "no audio artifact for this item")
			return
		}
		data, readErr := s.Artifacts.ReadAudio(*item.AudioLocator)
		if readErr != nil {
			writeError(w, http.StatusInternalServerError, "failed to read audio artifact")
			return
		}
		w.Header().Set("Content-Type", "application/octet-stream")
		w.Write(data)
	case "transcript":
		if item.Transcript == nil {
			writeError(w, http.StatusNotFound, "no transcript artifact for this item")
			return
		}
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		w.Write([]byte(*item.Transcript))
	default:
		writeError(w, http.StatusBadRequest, "kind must be audio or transcript")
	}
}

func (s *Server) handleCreateScript(w http.ResponseWriter, r *http.Request) {
	var req CreateScriptRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "bad request body")
		return
	}
	if req.Name == "" || len(req.Items) == 0 {
		writeError(w, http.StatusBadRequest, "name and items are required")
		return
	}

	script := store.Script{ID: uuid.NewString(), Name: req.Name, CreatedAt: time.Now().UTC()}
	items := make([]store.ScriptItem, len(req.Items))
	for i, text := range req.Items {
		items[i] = store.ScriptItem{ID: uuid.NewString(), ScriptID: script.ID, Seq: i, Text: text}
	}

	if err := s.Repo.CreateScript(r.Context(), script, items); err != nil {
		writeError(w, http.StatusInternalServerError, "failed to create script")
		return
	}

	writeJSON(w, http.StatusCreated, ScriptSummary{ID: script.ID, Name: script.Name, ItemCount: len(items)})
}

func (s *Server) handleListScripts(w http.ResponseWriter, r *http.Request) {
	scripts, counts, err := s.Repo.ListScripts(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to list scripts")
		return
	}

	summaries := make([]ScriptSummary, 0, len(scripts))
	for _, sc := range scripts {
		summaries = append(summaries, ScriptSummary{ID: sc.ID, Name: sc.Name, ItemCount: counts[sc.ID]})
	}
	writeJSON(w, http.StatusOK, summaries)
}

func (s *Server) handleDashboard(w http.ResponseWriter, r *http.Request) {
	from, to := parseWindow(r)

	stats, err := s.Aggregator.DashboardStats(r.Context(), from, to)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to compute dashboard stats")
		return
	}

	usage, err := s.Aggregator.VendorFailureRates(r.Context(), from, to)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to compute vendor failure rates")
		return
	}

	mix, err := s.Aggregator.ServiceMix(r.Context(), from, to)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to compute service mix")
		return
	}

	writeJSON(w, http.StatusOK, struct {
		DashboardView
		VendorFailureRates []aggregate.VendorFailureRate `json:"vendor_failure_rates"`
		ServiceMix         map[aggregate.Service]int      `json:"service_mix"`
	}{
		DashboardView:      DashboardView{TotalRuns: stats.TotalRuns, SuccessRate: stats.SuccessRate, AvgLatency: stats.AvgLatency},
		VendorFailureRates: usage,
		ServiceMix:         mix,
	})
}

func (s *Server) handlePercentiles(w http.ResponseWriter, r *http.Request) {
	from, to := parseWindow(r)
	metricName := store.MetricName(r.URL.Query().Get("metric"))
	if metricName == "" {
		metricName = store.MetricE2ELatency
	}

	percentiles, err := s.Aggregator.Percentiles(r.Context(), metricName, from, to, []float64{0.5, 0.9})
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to compute percentiles")
		return
	}

	views := make([]PercentileView, 0, len(percentiles))
	for _, p := range percentiles {
		views = append(views, PercentileView{P: p.P, Value: p.Value, N: p.N})
	}
	writeJSON(w, http.StatusOK, views)
}

func (s *Server) handlePairings(w http.ResponseWriter, r *http.Request) {
	from, to := parseWindow(r)

	pairings, err := s.Aggregator.TopPairings(r.Context(), from, to)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to compute top pairings")
		return
	}

	views := make([]PairingView, 0, len(pairings))
	for _, p := range pairings {
		views = append(views, PairingView{TTSVendor: p.TTSVendor, STTVendor: p.STTVendor, Tests: p.Tests, AvgWER: p.AvgWER})
	}
	writeJSON(w, http.StatusOK, views)
}

func (s *Server) handleVendorUsage(w http.ResponseWriter, r *http.Request) {
	from, to := parseWindow(r)

	usage, err := s.Aggregator.VendorUsage(r.Context(), from, to)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to compute vendor usage")
		return
	}
	writeJSON(w, http.StatusOK, usage)
}

func (s *Server) writeEngineError(w http.ResponseWriter, err error) {
	var validationErr *vendor.ValidationError
	if errors.As(err, &validationErr) {
		writeError(w, http.StatusBadRequest, validationErr.Error())
		return
	}
	var vendorErr *vendor.VendorError
	if errors.As(err, &vendorErr) {
		writeError(w, http.StatusBadGateway, vendorErr.Error())
		return
	}
	s.Logger.Error("create run failed", "error", err)
	writeError(w, http.StatusInternalServerError, "failed to create run")
}

func parseWindow(r *http.Request) (time.Time, time.Time) {
	q := r.URL.Query()
	var from, to time.Time
	if v := q.Get("from"); v != "" {
		from, _ = time.Parse(time.RFC3339, v)
	}
	if v := q.Get("to"); v != "" {
		to, _ = time.Parse(time.RFC3339, v)
	}
	return from, to
}

func queryInt(r *http.Request, key string, fallback int) int {
	v := r.URL.Query().Get(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fallback
	}
	return n
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(body)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, struct {
		Error string `json:"error"`
	}{message})
}

func max(a, b int) int {
	if a > b {
		return a
	}
	return b
}
