package storage

import (
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/pable/go-xg-metrics/internal/model"
)

// SeasonSource records what was read for one season of a run.
type SeasonSource struct {
	Season      int
	TotalEvents int
	Digest      string
}

// InsertRun stores the run header and its full report document. CreatedAt is
// filled in when empty. Uses INSERT OR REPLACE for idempotency.
func (db *DB) InsertRun(run *model.RunSummary, reportJSON []byte) error {
	if run.CreatedAt == "" {
		run.CreatedAt = time.Now().UTC().Format(time.RFC3339)
	}
	_, err := db.conn.Exec(`
		INSERT OR REPLACE INTO runs(run_id, kind, created_at, seasons, model_version, total_shots, actual_goals, report_json)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		run.RunID, run.Kind, run.CreatedAt, joinSeasons(run.Seasons),
		run.Version, run.Shots, run.Goals, string(reportJSON),
	)
	if err != nil {
		return fmt.Errorf("insert run %s: %w", run.RunID, err)
	}
	return nil
}

// InsertSeasonSources stores the per-season input digests of a run.
func (db *DB) InsertSeasonSources(runID string, sources []SeasonSource) error {
	tx, err := db.conn.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	stmt, err := tx.Prepare(`
		INSERT OR REPLACE INTO season_sources(run_id, season, total_events, digest)
		VALUES (?,?,?,?)`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for _, s := range sources {
		if _, err := stmt.Exec(runID, s.Season, s.TotalEvents, s.Digest); err != nil {
			return fmt.Errorf("insert season_sources for %d: %w", s.Season, err)
		}
	}
	return tx.Commit()
}

// InsertSeasonSummaries bulk-inserts one row per season and model version.
func (db *DB) InsertSeasonSummaries(runID string, sums []model.SeasonSummary) error {
	tx, err := db.conn.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	stmt, err := tx.Prepare(`
		INSERT OR REPLACE INTO season_summaries(
			run_id, season, model_version, total_shots, actual_goals, xg_total, diff, pct_diff
		) VALUES (?,?,?,?,?,?,?,?)`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for _, s := range sums {
		for _, v := range s.Versions {
			_, err = stmt.Exec(runID, s.Season, v.Version, s.Shots, s.Goals,
				v.PredictedGoals, v.Diff, v.PercentDiff.Ptr())
			if err != nil {
				return fmt.Errorf("insert season_summaries for %d v%d: %w", s.Season, v.Version, err)
			}
		}
	}
	return tx.Commit()
}

// InsertReport stores a report's buckets and slices in one transaction.
func (db *DB) InsertReport(runID string, rep model.CalibrationReport) error {
	tx, err := db.conn.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	bucketStmt, err := tx.Prepare(`
		INSERT OR REPLACE INTO calibration_buckets(
			run_id, model_version, bucket, lo, hi, n_shots, actual_goals,
			predicted_goals, predicted_rate, actual_rate, calibration_error
		) VALUES (?,?,?,?,?,?,?,?,?,?,?)`)
	if err != nil {
		return err
	}
	defer bucketStmt.Close()

	for _, b := range rep.Buckets {
		_, err = bucketStmt.Exec(runID, rep.Version, b.Index, b.Lo, b.Hi, b.Shots, b.Goals,
			b.PredictedGoals, b.MeanPredicted.Ptr(), b.MeanActual.Ptr(), b.Error.Ptr())
		if err != nil {
			return fmt.Errorf("insert calibration_buckets %d: %w", b.Index, err)
		}
	}

	sliceStmt, err := tx.Prepare(`
		INSERT OR REPLACE INTO slice_stats(
			run_id, model_version, slice, position, category,
			shots, goals, actual_rate, xg_mean, xg_total, diff
		) VALUES (?,?,?,?,?,?,?,?,?,?,?)`)
	if err != nil {
		return err
	}
	defer sliceStmt.Close()

	for name, rows := range rep.Slices {
		for i, s := range rows {
			_, err = sliceStmt.Exec(runID, rep.Version, name, i, s.Category,
				s.Shots, s.Goals, s.ActualRate, s.PredictedMean, s.PredictedTotal, s.Error)
			if err != nil {
				return fmt.Errorf("insert slice_stats %s/%s: %w", name, s.Category, err)
			}
		}
	}
	return tx.Commit()
}

const runColumns = `run_id, kind, created_at, seasons, model_version, total_shots, actual_goals`

func scanRun(sc interface{ Scan(...any) error }) (model.RunSummary, error) {
	var r model.RunSummary
	var seasons string
	if err := sc.Scan(&r.RunID, &r.Kind, &r.CreatedAt, &seasons, &r.Version, &r.Shots, &r.Goals); err != nil {
		return r, err
	}
	parsed, err := splitSeasons(seasons)
	if err != nil {
		return r, fmt.Errorf("run %s: %w", r.RunID, err)
	}
	r.Seasons = parsed
	return r, nil
}

// ListRuns returns every stored run, newest first.
func (db *DB) ListRuns() ([]model.RunSummary, error) {
	rows, err := db.conn.Query(`SELECT ` + runColumns + ` FROM runs ORDER BY created_at DESC, run_id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.RunSummary
	for rows.Next() {
		r, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

// GetRunByPrefix returns the newest run whose ID starts with prefix.
func (db *DB) GetRunByPrefix(prefix string) (*model.RunSummary, error) {
	row := db.conn.QueryRow(`
		SELECT `+runColumns+` FROM runs WHERE run_id LIKE ? ESCAPE '\'
		ORDER BY created_at DESC LIMIT 1`, escapeLike(prefix)+"%")
	r, err := scanRun(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %q", ErrRunNotFound, prefix)
	}
	if err != nil {
		return nil, err
	}
	return &r, nil
}

// QueryRaw runs an arbitrary read query and returns the column names and every
// row rendered as text. NULL becomes an empty string.
func (db *DB) QueryRaw(query string) ([]string, [][]string, error) {
	rows, err := db.conn.Query(query)
	if err != nil {
		return nil, nil, fmt.Errorf("query: %w", err)
	}
	defer rows.Close()

	cols, err := rows.Columns()
	if err != nil {
		return nil, nil, err
	}

	var out [][]string
	vals := make([]any, len(cols))
	ptrs := make([]any, len(cols))
	for i := range vals {
		ptrs[i] = &vals[i]
	}
	for rows.Next() {
		if err := rows.Scan(ptrs...); err != nil {
			return nil, nil, err
		}
		row := make([]string, len(cols))
		for i, v := range vals {
			row[i] = formatCell(v)
		}
		out = append(out, row)
	}
	return cols, out, rows.Err()
}

func formatCell(v any) string {
	switch x := v.(type) {
	case nil:
		return ""
	case []byte:
		return string(x)
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64)
	default:
		return fmt.Sprint(x)
	}
}

func joinSeasons(seasons []int) string {
	parts := make([]string, len(seasons))
	for i, s := range seasons {
		parts[i] = strconv.Itoa(s)
	}
	return strings.Join(parts, ",")
}

func splitSeasons(s string) ([]int, error) {
	if s == "" {
		return nil, nil
	}
	parts := strings.Split(s, ",")
	out := make([]int, len(parts))
	for i, p := range parts {
		n, err := strconv.Atoi(p)
		if err != nil {
			return nil, fmt.Errorf("parse seasons %q: %w", s, err)
		}
		out[i] = n
	}
	return out, nil
}

func escapeLike(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return r.Replace(s)
}
