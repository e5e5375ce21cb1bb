package storage

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pable/go-xg-metrics/internal/model"
)

func openMemDB(t *testing.T) *DB {
	t.Helper()
	db, err := Open(":memory:")
	if err != nil {
		t.Fatalf("open in-memory db: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

func insertRun(t *testing.T, db *DB, id, createdAt string) model.RunSummary {
	t.Helper()
	run := model.RunSummary{
		RunID:     id,
		Kind:      "calibrate",
		CreatedAt: createdAt,
		Seasons:   []int{20222023, 20232024},
		Shots:     1000,
		Goals:     70,
	}
	require.NoError(t, db.InsertRun(&run, []byte(`{"run_id":"`+id+`"}`)))
	return run
}

func TestInsertRunAndLookup(t *testing.T) {
	db := openMemDB(t)
	want := insertRun(t, db, "abc123", "2026-01-01T00:00:00Z")

	got, err := db.GetRunByPrefix("abc")
	require.NoError(t, err)
	assert.Equal(t, want, *got)

	doc, err := db.GetReportJSON("abc123")
	require.NoError(t, err)
	assert.JSONEq(t, `{"run_id":"abc123"}`, string(doc))

	_, err = db.GetRunByPrefix("zzz")
	assert.ErrorIs(t, err, ErrRunNotFound)
	_, err = db.GetReportJSON("zzz")
	assert.ErrorIs(t, err, ErrRunNotFound)
}

func TestInsertRun_FillsCreatedAt(t *testing.T) {
	db := openMemDB(t)
	run := model.RunSummary{RunID: NewRunID(), Kind: "deep", Version: 3}
	require.NoError(t, db.InsertRun(&run, []byte("{}")))
	assert.NotEmpty(t, run.CreatedAt)

	got, err := db.GetRunByPrefix(run.RunID)
	require.NoError(t, err)
	assert.Empty(t, got.Seasons)
	assert.Equal(t, 3, got.Version)
}

// TestGetRunByPrefix_LiteralWildcards: % and _ in the prefix match only themselves.
func TestGetRunByPrefix_LiteralWildcards(t *testing.T) {
	db := openMemDB(t)
	insertRun(t, db, "abc", "2026-01-01T00:00:00Z")

	_, err := db.GetRunByPrefix("%")
	assert.ErrorIs(t, err, ErrRunNotFound)
	_, err = db.GetRunByPrefix("a_c")
	assert.ErrorIs(t, err, ErrRunNotFound)
}

func TestListRuns(t *testing.T) {
	db := openMemDB(t)
	insertRun(t, db, "old", "2026-01-01T00:00:00Z")
	insertRun(t, db, "new", "2026-02-01T00:00:00Z")

	runs, err := db.ListRuns()
	require.NoError(t, err)
	require.Len(t, runs, 2)
	assert.Equal(t, "new", runs[0].RunID, "newest first")
	assert.Equal(t, []int{20222023, 20232024}, runs[1].Seasons)
}

func TestSeasonSummariesRoundTrip(t *testing.T) {
	db := openMemDB(t)
	insertRun(t, db, "r1", "2026-01-01T00:00:00Z")

	sums := []model.SeasonSummary{
		{
			Season: 20222023, Shots: 100, Goals: 8, ActualRate: model.Defined(0.08),
			Versions: []model.VersionTotals{
				{Version: 1, PredictedGoals: 7.5, Diff: 0.5, PercentDiff: model.Defined(6.25)},
				{Version: 3, PredictedGoals: 8.2, Diff: -0.2, PercentDiff: model.Defined(-2.5)},
			},
		},
		{
			Season: 20232024, Shots: 10, Goals: 0, ActualRate: model.Defined(0),
			Versions: []model.VersionTotals{
				{Version: 1, PredictedGoals: 0.9, Diff: -0.9, PercentDiff: model.Undefined()},
			},
		},
	}
	require.NoError(t, db.InsertSeasonSummaries("r1", sums))

	got, err := db.GetSeasonSummaries("r1")
	require.NoError(t, err)
	assert.Equal(t, sums, got)
}

func TestSeasonSources(t *testing.T) {
	db := openMemDB(t)
	insertRun(t, db, "r1", "2026-01-01T00:00:00Z")

	src := []SeasonSource{
		{Season: 20232024, TotalEvents: 300, Digest: "bb"},
		{Season: 20222023, TotalEvents: 200, Digest: "aa"},
	}
	require.NoError(t, db.InsertSeasonSources("r1", src))

	got, err := db.GetSeasonSources("r1")
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, 20222023, got[0].Season)
	assert.Equal(t, "aa", got[0].Digest)
}

func TestReportRoundTrip(t *testing.T) {
	db := openMemDB(t)
	insertRun(t, db, "r1", "2026-01-01T00:00:00Z")

	rep := model.CalibrationReport{
		Version: 3,
		Buckets: []model.CalibrationBucket{
			{Index: 0, Lo: 0, Hi: 0.5, Shots: 4, Goals: 1, PredictedGoals: 0.8,
				MeanPredicted: model.Defined(0.2), MeanActual: model.Defined(0.25), Error: model.Defined(0.05)},
			{Index: 1, Lo: 0.5, Hi: 1},
		},
		Slices: map[string][]model.SliceStats{
			"by_rebound": {
				{Category: "non-rebound", Shots: 3, Goals: 0, PredictedMean: 0.1, PredictedTotal: 0.3, Error: -0.1},
				{Category: "rebound", Shots: 1, Goals: 1, ActualRate: 1, PredictedMean: 0.5, PredictedTotal: 0.5, Error: 0.5},
			},
		},
	}
	require.NoError(t, db.InsertReport("r1", rep))

	buckets, err := db.GetBuckets("r1", 3)
	require.NoError(t, err)
	assert.Equal(t, rep.Buckets, buckets)

	slices, err := db.GetSlices("r1", 3)
	require.NoError(t, err)
	assert.Equal(t, rep.Slices, slices)

	none, err := db.GetBuckets("r1", 1)
	require.NoError(t, err)
	assert.Empty(t, none)
}

func TestInsertReport_UnknownRun(t *testing.T) {
	db := openMemDB(t)
	err := db.InsertReport("ghost", model.CalibrationReport{
		Version: 1,
		Buckets: []model.CalibrationBucket{{Index: 0, Hi: 1}},
	})
	assert.Error(t, err, "foreign key on run_id")
}

func TestQueryRaw(t *testing.T) {
	db := openMemDB(t)
	insertRun(t, db, "r1", "2026-01-01T00:00:00Z")
	require.NoError(t, db.InsertSeasonSummaries("r1", []model.SeasonSummary{{
		Season: 1, Shots: 4, Goals: 0,
		Versions: []model.VersionTotals{{Version: 2, PredictedGoals: 0.5, Diff: -0.5}},
	}}))

	cols, rows, err := db.QueryRaw(`SELECT run_id, total_shots, xg_total, pct_diff FROM season_summaries`)
	require.NoError(t, err)
	assert.Equal(t, []string{"run_id", "total_shots", "xg_total", "pct_diff"}, cols)
	assert.Equal(t, [][]string{{"r1", "4", "0.5", ""}}, rows)

	_, _, err = db.QueryRaw(`SELECT * FROM nope`)
	assert.Error(t, err)
}

func TestOpenFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "runs.db")
	db, err := Open(path)
	require.NoError(t, err)
	insertRun(t, db, "persisted", "2026-01-01T00:00:00Z")
	require.NoError(t, db.Close())

	db, err = Open(path)
	require.NoError(t, err)
	defer db.Close()
	runs, err := db.ListRuns()
	require.NoError(t, err)
	assert.Len(t, runs, 1)
}
