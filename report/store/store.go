// Package store persists experiment runs in SQLite so resampling results
// can be listed and compared after the process exits.
package store

import (
	"context"
	"database/sql"
	"math"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite"

	"github.com/YuminosukeSato/tuneflow/core/model"
	"github.com/YuminosukeSato/tuneflow/pkg/errors"
	ms "github.com/YuminosukeSato/tuneflow/sklearn/model_selection"
)

const schema = `
CREATE TABLE IF NOT EXISTS runs (
	id         TEXT PRIMARY KEY,
	name       TEXT NOT NULL,
	created_at TEXT NOT NULL,
	method     TEXT NOT NULL,
	number     INTEGER NOT NULL,
	repeats    INTEGER NOT NULL,
	summary    TEXT NOT NULL,
	seed       INTEGER NOT NULL
);
CREATE TABLE IF NOT EXISTS tuning (
	run_id   TEXT NOT NULL REFERENCES runs(id),
	model    TEXT NOT NULL,
	config   TEXT NOT NULL,
	position INTEGER NOT NULL,
	metric   TEXT NOT NULL,
	metric_order INTEGER NOT NULL,
	mean     REAL,
	sd       REAL,
	failed   INTEGER NOT NULL,
	selected INTEGER NOT NULL,
	optimised INTEGER NOT NULL
);
CREATE TABLE IF NOT EXISTS resamples (
	run_id    TEXT NOT NULL REFERENCES runs(id),
	model     TEXT NOT NULL,
	config    TEXT NOT NULL,
	rep       INTEGER NOT NULL,
	fold      INTEGER NOT NULL,
	bootstrap INTEGER NOT NULL,
	holdout   INTEGER NOT NULL,
	metric    TEXT NOT NULL,
	value     REAL
);
CREATE TABLE IF NOT EXISTS evaluations (
	run_id TEXT NOT NULL REFERENCES runs(id),
	model  TEXT NOT NULL,
	metric TEXT NOT NULL,
	value  REAL
);
CREATE INDEX IF NOT EXISTS resamples_run_model ON resamples(run_id, model);
`

// batchSize bounds the rows of one multi-row INSERT.
const batchSize = 200

// Store is a SQLite-backed run store.
type Store struct {
	db *sqlx.DB
}

// Open connects to dsn (a file path or ":memory:") and creates the schema.
func Open(ctx context.Context, dsn string) (*Store, error) {
	db, err := sqlx.ConnectContext(ctx, "sqlite", dsn)
	if err != nil {
		return nil, errors.Wrapf(err, "open store %s", dsn)
	}
	// SQLite は単一ライタ。:memory: も接続ごとに別 DB になる
	db.SetMaxOpenConns(1)
	if _, err := db.ExecContext(ctx, schema); err != nil {
		db.Close()
		return nil, errors.Wrap(err, "create schema")
	}
	return &Store{db: db}, nil
}

// Close closes the database.
func (s *Store) Close() error { return s.db.Close() }

// ModelRun is one trained model of a run.
type ModelRun struct {
	Result *ms.TuningResult
	// Evaluation holds test-set statistics by name.
	Evaluation map[string]float64
}

// Run is one experiment: a resampling policy and the models trained with it.
type Run struct {
	ID        uuid.UUID
	Name      string
	CreatedAt time.Time
	Control   ms.Control
	Models    []ModelRun
}

// RunInfo is a stored run as listed by Runs.
type RunInfo struct {
	ID        string    `db:"id"`
	Name      string    `db:"name"`
	CreatedAt time.Time `db:"-"`
	Created   string    `db:"created_at"`
	Method    string    `db:"method"`
	Number    int       `db:"number"`
	Repeats   int       `db:"repeats"`
	Summary   string    `db:"summary"`
	Seed      int64     `db:"seed"`
	Models    int       `db:"models"`
}

type tuningRow struct {
	RunID       string          `db:"run_id"`
	Model       string          `db:"model"`
	Config      string          `db:"config"`
	Position    int             `db:"position"`
	Metric      string          `db:"metric"`
	MetricOrder int             `db:"metric_order"`
	Mean        sql.NullFloat64 `db:"mean"`
	SD          sql.NullFloat64 `db:"sd"`
	Failed      bool            `db:"failed"`
	Selected    bool            `db:"selected"`
	Optimised   bool            `db:"optimised"`
}

type resampleRow struct {
	RunID     string          `db:"run_id"`
	Model     string          `db:"model"`
	Config    string          `db:"config"`
	Repeat    int             `db:"rep"`
	Fold      int             `db:"fold"`
	Bootstrap bool            `db:"bootstrap"`
	HoldOut   int             `db:"holdout"`
	Metric    string          `db:"metric"`
	Value     sql.NullFloat64 `db:"value"`
}

type evaluationRow struct {
	RunID  string          `db:"run_id"`
	Model  string          `db:"model"`
	Metric string          `db:"metric"`
	Value  sql.NullFloat64 `db:"value"`
}

func nullable(v float64) sql.NullFloat64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return sql.NullFloat64{}
	}
	return sql.NullFloat64{Float64: v, Valid: true}
}

func value(v sql.NullFloat64) float64 {
	if !v.Valid {
		return math.NaN()
	}
	return v.Float64
}

// SaveRun stores run in one transaction and returns its id, assigning a
// new UUID when run.ID is zero. Only the selected configuration's
// resamples are kept; the tuning table records every configuration.
func (s *Store) SaveRun(ctx context.Context, run *Run) (uuid.UUID, error) {
	if run.ID == uuid.Nil {
		run.ID = uuid.New()
	}
	if run.CreatedAt.IsZero() {
		run.CreatedAt = time.Now().UTC()
	}
	id := run.ID.String()

	var tuning []tuningRow
	var resamples []resampleRow
	var evals []evaluationRow
	for _, m := range run.Models {
		res := m.Result
		if res == nil {
			return uuid.Nil, errors.NewValueError("SaveRun", "model run without tuning result")
		}
		var metricNames []string
		for _, d := range res.Distributions {
			if d != nil {
				metricNames = d.Metrics
				break
			}
		}
		for pos, row := range res.Rows {
			for k, metric := range metricNames {
				tuning = append(tuning, tuningRow{
					RunID: id, Model: res.Model, Config: row.Config.Key(), Position: pos,
					Metric: metric, MetricOrder: k,
					Mean: nullable(row.Means[metric]), SD: nullable(row.SDs[metric]),
					Failed: row.Failed, Selected: pos == res.Best, Optimised: metric == res.Metric,
				})
			}
		}
		best := res.BestDistribution()
		for _, v := range best.Resamples {
			for _, metric := range best.Metrics {
				resamples = append(resamples, resampleRow{
					RunID: id, Model: res.Model, Config: best.Config.Key(),
					Repeat: v.Repeat, Fold: v.Fold, Bootstrap: v.Bootstrap, HoldOut: v.HoldOut,
					Metric: metric, Value: nullable(v.Metrics[metric]),
				})
			}
		}
		for metric, v := range m.Evaluation {
			evals = append(evals, evaluationRow{RunID: id, Model: res.Model, Metric: metric, Value: nullable(v)})
		}
	}

	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return uuid.Nil, errors.Wrap(err, "begin transaction")
	}
	defer tx.Rollback()

	c := run.Control
	_, err = tx.ExecContext(ctx,
		`INSERT INTO runs (id, name, created_at, method, number, repeats, summary, seed) VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		id, run.Name, run.CreatedAt.Format(time.RFC3339Nano), string(c.Method), c.Number, c.EffectiveRepeats(), string(c.Summary), int64(c.Seed))
	if err != nil {
		return uuid.Nil, errors.Wrap(err, "insert run")
	}
	if err := insertBatches(ctx, tx, `INSERT INTO tuning (run_id, model, config, position, metric, metric_order, mean, sd, failed, selected, optimised)
		VALUES (:run_id, :model, :config, :position, :metric, :metric_order, :mean, :sd, :failed, :selected, :optimised)`, tuning); err != nil {
		return uuid.Nil, errors.Wrap(err, "insert tuning")
	}
	if err := insertBatches(ctx, tx, `INSERT INTO resamples (run_id, model, config, rep, fold, bootstrap, holdout, metric, value)
		VALUES (:run_id, :model, :config, :rep, :fold, :bootstrap, :holdout, :metric, :value)`, resamples); err != nil {
		return uuid.Nil, errors.Wrap(err, "insert resamples")
	}
	if err := insertBatches(ctx, tx, `INSERT INTO evaluations (run_id, model, metric, value) VALUES (:run_id, :model, :metric, :value)`, evals); err != nil {
		return uuid.Nil, errors.Wrap(err, "insert evaluations")
	}
	if err := tx.Commit(); err != nil {
		return uuid.Nil, errors.Wrap(err, "commit run")
	}
	return run.ID, nil
}

func insertBatches[T any](ctx context.Context, tx *sqlx.Tx, query string, rows []T) error {
	for start := 0; start < len(rows); start += batchSize {
		end := min(start+batchSize, len(rows))
		if _, err := tx.NamedExecContext(ctx, query, rows[start:end]); err != nil {
			return err
		}
	}
	return nil
}

// Runs lists stored runs, oldest first.
func (s *Store) Runs(ctx context.Context) ([]RunInfo, error) {
	var runs []RunInfo
	err := s.db.SelectContext(ctx, &runs, `
		SELECT r.id, r.name, r.created_at, r.method, r.number, r.repeats, r.summary, r.seed,
		       COUNT(DISTINCT t.model) AS models
		FROM runs r LEFT JOIN tuning t ON t.run_id = r.id
		GROUP BY r.id
		ORDER BY r.created_at, r.id`)
	if err != nil {
		return nil, errors.Wrap(err, "list runs")
	}
	for i := range runs {
		runs[i].CreatedAt, _ = time.Parse(time.RFC3339Nano, runs[i].Created)
	}
	return runs, nil
}

// LoadResamples rebuilds the stored resample distribution of model in run.
func (s *Store) LoadResamples(ctx context.Context, runID uuid.UUID, modelName string) (*ms.ResampleDistribution, error) {
	var metrics []string
	err := s.db.SelectContext(ctx, &metrics, `
		SELECT metric FROM tuning
		WHERE run_id = ? AND model = ? AND selected = 1
		ORDER BY metric_order`, runID.String(), modelName)
	if err != nil {
		return nil, errors.Wrap(err, "load metrics")
	}
	if len(metrics) == 0 {
		return nil, errors.NewValidationError("model", "no stored results for model in run", modelName)
	}

	var rows []resampleRow
	err = s.db.SelectContext(ctx, &rows, `
		SELECT run_id, model, config, rep, fold, bootstrap, holdout, metric, value FROM resamples
		WHERE run_id = ? AND model = ?
		ORDER BY rep, fold`, runID.String(), modelName)
	if err != nil {
		return nil, errors.Wrap(err, "load resamples")
	}

	dist := &ms.ResampleDistribution{Model: modelName, Metrics: metrics}
	for _, r := range rows {
		if dist.Config == nil {
			cfg, err := model.ParseConfig(r.Config)
			if err != nil {
				return nil, err
			}
			dist.Config = cfg
		}
		n := len(dist.Resamples)
		if n == 0 || dist.Resamples[n-1].Repeat != r.Repeat || dist.Resamples[n-1].Fold != r.Fold {
			dist.Resamples = append(dist.Resamples, ms.ResampleValue{
				Repeat: r.Repeat, Fold: r.Fold, Bootstrap: r.Bootstrap, HoldOut: r.HoldOut,
				Metrics: make(map[string]float64, len(metrics)),
			})
			n++
		}
		dist.Resamples[n-1].Metrics[r.Metric] = value(r.Value)
	}
	return dist, nil
}

// Evaluations returns the stored test-set statistics of run by model.
func (s *Store) Evaluations(ctx context.Context, runID uuid.UUID) (map[string]map[string]float64, error) {
	var rows []evaluationRow
	if err := s.db.SelectContext(ctx, &rows, `SELECT run_id, model, metric, value FROM evaluations WHERE run_id = ?`, runID.String()); err != nil {
		return nil, errors.Wrap(err, "load evaluations")
	}
	out := make(map[string]map[string]float64)
	for _, r := range rows {
		if out[r.Model] == nil {
			out[r.Model] = make(map[string]float64)
		}
		out[r.Model][r.Metric] = value(r.Value)
	}
	return out, nil
}
