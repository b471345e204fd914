package store

import (
	"context"
	"embed"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

//go:embed migrations/*.sql
var migrationFS embed.FS

// ErrNotFound is returned by point-read operations when the id doesn't exist.
var ErrNotFound = errors.New("store: not found")

// Repository persists the benchmark data model to PostgreSQL via a pooled
// connection, following the teacher trace package's Open/migrate shape.
type Repository struct {
	pool *pgxpool.Pool
}

// Open connects to a PostgreSQL database at connStr and applies any
// migrations that haven't yet run.
func Open(ctx context.Context, connStr string) (*Repository, error) {
	pool, err := pgxpool.New(ctx, connStr)
	if err != nil {
		return nil, fmt.Errorf("store: open pool: %w", err)
	}
	if err = pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("store: ping: %w", err)
	}
	if err = migrate(ctx, pool); err != nil {
		pool.Close()
		return nil, fmt.Errorf("store: migrate: %w", err)
	}
	return &Repository{pool: pool}, nil
}

func migrate(ctx context.Context, pool *pgxpool.Pool) error {
	if _, err := pool.Exec(ctx, `CREATE TABLE IF NOT EXISTS schema_version (version INTEGER NOT NULL)`); err != nil {
		return err
	}

	var current int
	row := pool.QueryRow(ctx, `SELECT COALESCE(MAX(version), -1) FROM schema_version`)
	if err := row.Scan(&current); err != nil {
		return err
	}

	entries, err := migrationFS.ReadDir("migrations")
	if err != nil {
		return fmt.Errorf("read migrations dir: %w", err)
	}

	for i := current + 1; i < len(entries); i++ {
		data, readErr := migrationFS.ReadFile("migrations/" + entries[i].Name())
		if readErr != nil {
			return fmt.Errorf("read migration %d: %w", i, readErr)
		}
		if _, execErr := pool.Exec(ctx, string(data)); execErr != nil {
			return fmt.Errorf("migration %d: %w", i, execErr)
		}
		if _, execErr := pool.Exec(ctx, `INSERT INTO schema_version (version) VALUES ($1)`, i); execErr != nil {
			return fmt.Errorf("migration %d record: %w", i, execErr)
		}
	}
	return nil
}

// Close releases the connection pool.
func (r *Repository) Close() {
	r.pool.Close()
}

// CreateRun inserts a run with its expanded run items, all within one
// transaction so a run never appears with a partial item set.
func (r *Repository) CreateRun(ctx context.Context, run Run, items []RunItem) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("store: begin: %w", err)
	}
	defer tx.Rollback(ctx)

	_, err = tx.Exec(ctx,
		`INSERT INTO runs (id, created_at, mode, vendors, config, status, started_at, finished_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		run.ID, run.CreatedAt, run.Mode, strings.Join(run.Vendors, ","), run.Config, run.Status, run.StartedAt, run.FinishedAt,
	)
	if err != nil {
		return fmt.Errorf("store: insert run: %w", err)
	}

	for _, item := range items {
		if err = insertRunItem(ctx, tx, item); err != nil {
			return err
		}
	}

	return tx.Commit(ctx)
}

func insertRunItem(ctx context.Context, tx pgx.Tx, item RunItem) error {
	_, err := tx.Exec(ctx,
		`INSERT INTO run_items (id, run_id, input_text, vendor_label, status, metrics_summary, audio_locator, transcript, sidecar, failure_reason, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`,
		item.ID, item.RunID, item.InputText, item.VendorLabel, item.Status, item.MetricsSummary,
		item.AudioLocator, item.Transcript, item.Sidecar, item.FailureReason, item.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("store: insert run item: %w", err)
	}
	return nil
}

// AppendItems adds run items to an existing run; each insert is its own
// statement and the call is not transactional across items since items
// are independent rows.
func (r *Repository) AppendItems(ctx context.Context, items []RunItem) error {
	for _, item := range items {
		_, err := r.pool.Exec(ctx,
			`INSERT INTO run_items (id, run_id, input_text, vendor_label, status, metrics_summary, audio_locator, transcript, sidecar, failure_reason, created_at)
			 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`,
			item.ID, item.RunID, item.InputText, item.VendorLabel, item.Status, item.MetricsSummary,
			item.AudioLocator, item.Transcript, item.Sidecar, item.FailureReason, item.CreatedAt,
		)
		if err != nil {
			return fmt.Errorf("store: append item: %w", err)
		}
	}
	return nil
}

// SetRunStatus updates a run's status and start/finish timestamps.
func (r *Repository) SetRunStatus(ctx context.Context, runID string, status RunStatus, startedAt, finishedAt *time.Time) error {
	_, err := r.pool.Exec(ctx,
		`UPDATE runs SET status = $1, started_at = COALESCE($2, started_at), finished_at = COALESCE($3, finished_at) WHERE id = $4`,
		status, startedAt, finishedAt, runID,
	)
	if err != nil {
		return fmt.Errorf("store: set run status: %w", err)
	}
	return nil
}

// CommitItemResult is the single transactional write produced when an
// engine worker finishes a run item: status, failure reason, metrics
// summary, artifact pointers, and every recorded metric commit together,
// satisfying the "transactional per run-item" constraint.
type CommitItemResult struct {
	ItemID         string
	Status         ItemStatus
	FailureReason  *string
	MetricsSummary string
	AudioLocator   *string
	Transcript     *string
	Sidecar        string
	Metrics        []Metric
	Artifacts      []Artifact
}

// CommitItem writes a completed (or failed) run item's full result set in
// one transaction.
func (r *Repository) CommitItem(ctx context.Context, result CommitItemResult) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("store: begin: %w", err)
	}
	defer tx.Rollback(ctx)

	_, err = tx.Exec(ctx,
		`UPDATE run_items SET status = $1, failure_reason = $2, metrics_summary = $3, audio_locator = $4, transcript = $5, sidecar = $6 WHERE id = $7`,
		result.Status, result.FailureReason, result.MetricsSummary, result.AudioLocator, result.Transcript, result.Sidecar, result.ItemID,
	)
	if err != nil {
		return fmt.Errorf("store: update item: %w", err)
	}

	for _, m := range result.Metrics {
		_, err = tx.Exec(ctx,
			`INSERT INTO metrics (run_item_id, name, value, unit, created_at) VALUES ($1, $2, $3, $4, $5)
			 ON CONFLICT (run_item_id, name) DO UPDATE SET value = EXCLUDED.value, unit = EXCLUDED.unit`,
			result.ItemID, m.Name, m.Value, m.Unit, time.Now().UTC(),
		)
		if err != nil {
			return fmt.Errorf("store: insert metric %s: %w", m.Name, err)
		}
	}

	for _, a := range result.Artifacts {
		_, err = tx.Exec(ctx,
			`INSERT INTO artifacts (run_item_id, kind, content_type, locator, byte_length, created_at) VALUES ($1, $2, $3, $4, $5, $6)`,
			result.ItemID, a.Kind, a.ContentType, a.Locator, a.ByteLength, time.Now().UTC(),
		)
		if err != nil {
			return fmt.Errorf("store: insert artifact %s: %w", a.Kind, err)
		}
	}

	return tx.Commit(ctx)
}

// GetRun reads one run by id.
func (r *Repository) GetRun(ctx context.Context, id string) (*Run, error) {
	var run Run
	var vendors string
	err := r.pool.QueryRow(ctx,
		`SELECT id, created_at, mode, vendors, config, status, started_at, finished_at FROM runs WHERE id = $1`, id,
	).Scan(&run.ID, &run.CreatedAt, &run.Mode, &vendors, &run.Config, &run.Status, &run.StartedAt, &run.FinishedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("store: get run: %w", err)
	}
	run.Vendors = strings.Split(vendors, ",")
	return &run, nil
}

// RunFilters narrows ListRuns results.
type RunFilters struct {
	Status RunStatus // empty means any
}

// ListRuns returns runs newest first, paginated, optionally filtered by status.
func (r *Repository) ListRuns(ctx context.Context, limit, offset int, filters RunFilters) ([]Run, int, error) {
	where := ""
	args := []any{limit, offset}
	if filters.Status != "" {
		where = "WHERE status = $3"
		args = append(args, filters.Status)
	}

	countQuery := "SELECT COUNT(*) FROM runs"
	if filters.Status != "" {
		countQuery += " WHERE status = $1"
		var total int
		if err := r.pool.QueryRow(ctx, countQuery, filters.Status).Scan(&total); err != nil {
			return nil, 0, fmt.Errorf("store: count runs: %w", err)
		}
		rows, err := r.pool.Query(ctx,
			fmt.Sprintf(`SELECT id, created_at, mode, vendors, config, status, started_at, finished_at FROM runs %s ORDER BY created_at DESC LIMIT $1 OFFSET $2`, where),
			args...,
		)
		if err != nil {
			return nil, 0, fmt.Errorf("store: list runs: %w", err)
		}
		defer rows.Close()
		return scanRuns(rows, total)
	}

	var total int
	if err := r.pool.QueryRow(ctx, countQuery).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("store: count runs: %w", err)
	}
	rows, err := r.pool.Query(ctx,
		`SELECT id, created_at, mode, vendors, config, status, started_at, finished_at FROM runs ORDER BY created_at DESC LIMIT $1 OFFSET $2`,
		limit, offset,
	)
	if err != nil {
		return nil, 0, fmt.Errorf("store: list runs: %w", err)
	}
	defer rows.Close()
	return scanRuns(rows, total)
}

func scanRuns(rows pgx.Rows, total int) ([]Run, int, error) {
	var runs []Run
	for rows.Next() {
		var run Run
		var vendors string
		if err := rows.Scan(&run.ID, &run.CreatedAt, &run.Mode, &vendors, &run.Config, &run.Status, &run.StartedAt, &run.FinishedAt); err != nil {
			return nil, 0, fmt.Errorf("store: scan run: %w", err)
		}
		run.Vendors = strings.Split(vendors, ",")
		runs = append(runs, run)
	}
	return runs, total, rows.Err()
}

// GetItem reads one run item by id.
func (r *Repository) GetItem(ctx context.Context, id string) (*RunItem, error) {
	var item RunItem
	err := r.pool.QueryRow(ctx,
		`SELECT id, run_id, input_text, vendor_label, status, metrics_summary, audio_locator, transcript, sidecar, failure_reason, created_at
		 FROM run_items WHERE id = $1`, id,
	).Scan(&item.ID, &item.RunID, &item.InputText, &item.VendorLabel, &item.Status, &item.MetricsSummary,
		&item.AudioLocator, &item.Transcript, &item.Sidecar, &item.FailureReason, &item.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("store: get item: %w", err)
	}
	return &item, nil
}

// ListItemsByRun returns every run item belonging to runID, in creation order.
func (r *Repository) ListItemsByRun(ctx context.Context, runID string) ([]RunItem, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT id, run_id, input_text, vendor_label, status, metrics_summary, audio_locator, transcript, sidecar, failure_reason, created_at
		 FROM run_items WHERE run_id = $1 ORDER BY created_at ASC`, runID,
	)
	if err != nil {
		return nil, fmt.Errorf("store: list items: %w", err)
	}
	defer rows.Close()

	var items []RunItem
	for rows.Next() {
		var item RunItem
		if err = rows.Scan(&item.ID, &item.RunID, &item.InputText, &item.VendorLabel, &item.Status, &item.MetricsSummary,
			&item.AudioLocator, &item.Transcript, &item.Sidecar, &item.FailureReason, &item.CreatedAt); err != nil {
			return nil, fmt.Errorf("store: scan item: %w", err)
		}
		items = append(items, item)
	}
	return items, rows.Err()
}

// MetricsByItem returns every metric recorded against a run item.
func (r *Repository) MetricsByItem(ctx context.Context, itemID string) ([]Metric, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT id, run_item_id, name, value, unit, created_at FROM metrics WHERE run_item_id = $1`, itemID,
	)
	if err != nil {
		return nil, fmt.Errorf("store: list metrics: %w", err)
	}
	defer rows.Close()

	var metrics []Metric
	for rows.Next() {
		var m Metric
		if err = rows.Scan(&m.ID, &m.RunItemID, &m.Name, &m.Value, &m.Unit, &m.CreatedAt); err != nil {
			return nil, fmt.Errorf("store: scan metric: %w", err)
		}
		metrics = append(metrics, m)
	}
	return metrics, rows.Err()
}

// TimeWindowSample is a single (run item, value) pair used to compute
// percentiles and counts over a metric name within a time window.
type TimeWindowSample struct {
	RunItemID string
	Value     float64
}

// TimeWindowQuery returns every recorded value of metricName within [from, to].
func (r *Repository) TimeWindowQuery(ctx context.Context, metricName MetricName, from, to time.Time) ([]TimeWindowSample, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT run_item_id, value FROM metrics WHERE name = $1 AND created_at BETWEEN $2 AND $3 ORDER BY value ASC`,
		metricName, from, to,
	)
	if err != nil {
		return nil, fmt.Errorf("store: time window query: %w", err)
	}
	defer rows.Close()

	var samples []TimeWindowSample
	for rows.Next() {
		var s TimeWindowSample
		if err = rows.Scan(&s.RunItemID, &s.Value); err != nil {
			return nil, fmt.Errorf("store: scan sample: %w", err)
		}
		samples = append(samples, s)
	}
	return samples, rows.Err()
}

// RunsInWindow returns every run created within [from, to], for aggregation.
func (r *Repository) RunsInWindow(ctx context.Context, from, to time.Time) ([]Run, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT id, created_at, mode, vendors, config, status, started_at, finished_at FROM runs WHERE created_at BETWEEN $1 AND $2`,
		from, to,
	)
	if err != nil {
		return nil, fmt.Errorf("store: runs in window: %w", err)
	}
	defer rows.Close()
	runs, _, err := scanRuns(rows, 0)
	return runs, err
}

// ItemsInWindow returns every run item whose parent run was created within
// [from, to], for aggregation views keyed on items rather than runs.
func (r *Repository) ItemsInWindow(ctx context.Context, from, to time.Time) ([]RunItem, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT ri.id, ri.run_id, ri.input_text, ri.vendor_label, ri.status, ri.metrics_summary, ri.audio_locator, ri.transcript, ri.sidecar, ri.failure_reason, ri.created_at
		 FROM run_items ri JOIN runs r ON r.id = ri.run_id
		 WHERE r.created_at BETWEEN $1 AND $2`,
		from, to,
	)
	if err != nil {
		return nil, fmt.Errorf("store: items in window: %w", err)
	}
	defer rows.Close()

	var items []RunItem
	for rows.Next() {
		var item RunItem
		if err = rows.Scan(&item.ID, &item.RunID, &item.InputText, &item.VendorLabel, &item.Status, &item.MetricsSummary,
			&item.AudioLocator, &item.Transcript, &item.Sidecar, &item.FailureReason, &item.CreatedAt); err != nil {
			return nil, fmt.Errorf("store: scan item: %w", err)
		}
		items = append(items, item)
	}
	return items, rows.Err()
}

// CreateScript inserts a script and its items transactionally.
func (r *Repository) CreateScript(ctx context.Context, script Script, items []ScriptItem) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("store: begin: %w", err)
	}
	defer tx.Rollback(ctx)

	if _, err = tx.Exec(ctx, `INSERT INTO scripts (id, name, created_at) VALUES ($1, $2, $3)`, script.ID, script.Name, script.CreatedAt); err != nil {
		return fmt.Errorf("store: insert script: %w", err)
	}
	for _, item := range items {
		if _, err = tx.Exec(ctx, `INSERT INTO script_items (id, script_id, seq, text) VALUES ($1, $2, $3, $4)`, item.ID, item.ScriptID, item.Seq, item.Text); err != nil {
			return fmt.Errorf("store: insert script item: %w", err)
		}
	}
	return tx.Commit(ctx)
}

// ListScripts returns every stored script with its item count, newest first.
func (r *Repository) ListScripts(ctx context.Context) ([]Script, map[string]int, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT s.id, s.name, s.created_at, COUNT(si.id)
		 FROM scripts s LEFT JOIN script_items si ON si.script_id = s.id
		 GROUP BY s.id, s.name, s.created_at
		 ORDER BY s.created_at DESC`,
	)
	if err != nil {
		return nil, nil, fmt.Errorf("store: list scripts: %w", err)
	}
	defer rows.Close()

	var scripts []Script
	counts := make(map[string]int)
	for rows.Next() {
		var s Script
		var count int
		if err = rows.Scan(&s.ID, &s.Name, &s.CreatedAt, &count); err != nil {
			return nil, nil, fmt.Errorf("store: scan script: %w", err)
		}
		scripts = append(scripts, s)
		counts[s.ID] = count
	}
	return scripts, counts, rows.Err()
}

// GetScriptItems returns a script's items in sequence order.
func (r *Repository) GetScriptItems(ctx context.Context, scriptID string) ([]ScriptItem, error) {
	rows, err := r.pool.Query(ctx, `SELECT id, script_id, seq, text FROM script_items WHERE script_id = $1 ORDER BY seq ASC`, scriptID)
	if err != nil {
		return nil, fmt.Errorf("store: get script items: %w", err)
	}
	defer rows.Close()

	var items []ScriptItem
	for rows.Next() {
		var item ScriptItem
		if err = rows.Scan(&item.ID, &item.ScriptID, &item.Seq, &item.Text); err != nil {
			return nil, fmt.Errorf("store: scan script item: %w", err)
		}
		items = append(items, item)
	}
	return items, rows.Err()
}
