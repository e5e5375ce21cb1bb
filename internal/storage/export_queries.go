package storage

import (
	"database/sql"
	"errors"
	"fmt"

	"github.com/pable/go-xg-metrics/internal/model"
)

// The queries below read a stored run back into the shapes used by reports
// and exported documents.

// GetReportJSON returns the document stored with the run.
func (db *DB) GetReportJSON(runID string) ([]byte, error) {
	var doc string
	err := db.conn.QueryRow(`SELECT report_json FROM runs WHERE run_id = ?`, runID).Scan(&doc)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %q", ErrRunNotFound, runID)
	}
	if err != nil {
		return nil, err
	}
	return []byte(doc), nil
}

// GetSeasonSources returns the input digests of a run, by season.
func (db *DB) GetSeasonSources(runID string) ([]SeasonSource, error) {
	rows, err := db.conn.Query(`
		SELECT season, total_events, digest FROM season_sources
		WHERE run_id = ? ORDER BY season`, runID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []SeasonSource
	for rows.Next() {
		var s SeasonSource
		if err := rows.Scan(&s.Season, &s.TotalEvents, &s.Digest); err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

// GetSeasonSummaries regroups the per-version rows of a run into one summary
// per season, ordered by season then version.
func (db *DB) GetSeasonSummaries(runID string) ([]model.SeasonSummary, error) {
	rows, err := db.conn.Query(`
		SELECT season, model_version, total_shots, actual_goals, xg_total, diff, pct_diff
		FROM season_summaries WHERE run_id = ?
		ORDER BY season, model_version`, runID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.SeasonSummary
	for rows.Next() {
		var (
			season, shots, goals int
			vt                   model.VersionTotals
			pct                  sql.NullFloat64
		)
		if err := rows.Scan(&season, &vt.Version, &shots, &goals, &vt.PredictedGoals, &vt.Diff, &pct); err != nil {
			return nil, err
		}
		vt.PercentDiff = nullRatio(pct)

		if n := len(out); n == 0 || out[n-1].Season != season {
			s := model.SeasonSummary{Season: season, Shots: shots, Goals: goals}
			if shots > 0 {
				s.ActualRate = model.Defined(float64(goals) / float64(shots))
			}
			out = append(out, s)
		}
		last := &out[len(out)-1]
		last.Versions = append(last.Versions, vt)
	}
	return out, rows.Err()
}

// GetBuckets returns the calibration buckets stored for one version of a run.
func (db *DB) GetBuckets(runID string, version int) ([]model.CalibrationBucket, error) {
	rows, err := db.conn.Query(`
		SELECT bucket, lo, hi, n_shots, actual_goals, predicted_goals,
		       predicted_rate, actual_rate, calibration_error
		FROM calibration_buckets WHERE run_id = ? AND model_version = ?
		ORDER BY bucket`, runID, version)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.CalibrationBucket
	for rows.Next() {
		var b model.CalibrationBucket
		var pred, act, calErr sql.NullFloat64
		if err := rows.Scan(&b.Index, &b.Lo, &b.Hi, &b.Shots, &b.Goals, &b.PredictedGoals,
			&pred, &act, &calErr); err != nil {
			return nil, err
		}
		b.MeanPredicted = nullRatio(pred)
		b.MeanActual = nullRatio(act)
		b.Error = nullRatio(calErr)
		out = append(out, b)
	}
	return out, rows.Err()
}

// GetSlices returns the slice tables stored for one version of a run.
func (db *DB) GetSlices(runID string, version int) (map[string][]model.SliceStats, error) {
	rows, err := db.conn.Query(`
		SELECT slice, category, shots, goals, actual_rate, xg_mean, xg_total, diff
		FROM slice_stats WHERE run_id = ? AND model_version = ?
		ORDER BY slice, position`, runID, version)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make(map[string][]model.SliceStats)
	for rows.Next() {
		var name string
		var s model.SliceStats
		if err := rows.Scan(&name, &s.Category, &s.Shots, &s.Goals,
			&s.ActualRate, &s.PredictedMean, &s.PredictedTotal, &s.Error); err != nil {
			return nil, err
		}
		out[name] = append(out[name], s)
	}
	return out, rows.Err()
}

func nullRatio(n sql.NullFloat64) model.Ratio {
	if !n.Valid {
		return model.Undefined()
	}
	return model.Defined(n.Float64)
}
