package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pable/go-xg-metrics/internal/xg"
)

// isolate keeps the developer's own config files and environment out of the test.
func isolate(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	t.Setenv("HOME", dir)
	t.Chdir(dir)
	return dir
}

func testFlags() *pflag.FlagSet {
	fs := pflag.NewFlagSet("test", pflag.ContinueOnError)
	fs.String("db", "", "")
	fs.String("log-level", "", "")
	fs.Bool("log-json", false, "")
	fs.IntSlice("seasons", nil, "")
	fs.Int("buckets", 0, "")
	fs.Int("version", 0, "")
	return fs
}

func TestLoad_Defaults(t *testing.T) {
	home := isolate(t)
	cfg, err := Load("", nil)
	require.NoError(t, err)

	assert.Equal(t, DefaultSeasons, cfg.Seasons)
	assert.Equal(t, filepath.Join(home, ".xgmetrics", "runs.db"), cfg.DB)
	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, "text", cfg.Log.Format)
	assert.Equal(t, 10, cfg.Analysis.Buckets)
	assert.Equal(t, 50, cfg.Analysis.HistogramBins)
	assert.Equal(t, 4, cfg.Analysis.Workers)
	assert.Equal(t, 3, cfg.Analysis.Version)
	assert.Equal(t, 5*time.Minute, cfg.Dataset.Timeout)
	assert.Equal(t, 3, cfg.Dataset.Retries)
	assert.Contains(t, cfg.Dataset.BaseURL, "huggingface.co")
}

func TestLoad_FileEnvFlagPrecedence(t *testing.T) {
	dir := isolate(t)
	path := filepath.Join(dir, "cfg.yaml")
	yaml := `
seasons: [20212022]
db: /from/file.db
log:
  level: debug
analysis:
  buckets: 20
  workers: 2
dataset:
  timeout: 30s
`
	require.NoError(t, os.WriteFile(path, []byte(yaml), 0o644))

	t.Setenv("XGMETRICS_ANALYSIS_WORKERS", "8")
	t.Setenv("XGMETRICS_DB", "/from/env.db")

	fs := testFlags()
	require.NoError(t, fs.Parse([]string{"--db", "/from/flag.db", "--log-json"}))

	cfg, err := Load(path, fs)
	require.NoError(t, err)

	assert.Equal(t, []int{20212022}, cfg.Seasons, "file")
	assert.Equal(t, "debug", cfg.Log.Level, "file")
	assert.Equal(t, 20, cfg.Analysis.Buckets, "file")
	assert.Equal(t, 30*time.Second, cfg.Dataset.Timeout, "file")
	assert.Equal(t, 8, cfg.Analysis.Workers, "env beats file")
	assert.Equal(t, "/from/flag.db", cfg.DB, "flag beats env")
	assert.Equal(t, "json", cfg.Log.Format, "log-json switch")
}

func TestLoad_UnchangedFlagsDoNotOverride(t *testing.T) {
	isolate(t)
	t.Setenv("XGMETRICS_ANALYSIS_BUCKETS", "25")

	fs := testFlags()
	require.NoError(t, fs.Parse(nil))

	cfg, err := Load("", fs)
	require.NoError(t, err)
	assert.Equal(t, 25, cfg.Analysis.Buckets)
	assert.Equal(t, 3, cfg.Analysis.Version)
}

func TestLoad_SeasonsFromFlagAndEnv(t *testing.T) {
	isolate(t)
	t.Setenv("XGMETRICS_SEASONS", "20202021,20212022")

	cfg, err := Load("", nil)
	require.NoError(t, err)
	assert.Equal(t, []int{20202021, 20212022}, cfg.Seasons)

	fs := testFlags()
	require.NoError(t, fs.Parse([]string{"--seasons", "20232024"}))
	cfg, err = Load("", fs)
	require.NoError(t, err)
	assert.Equal(t, []int{20232024}, cfg.Seasons)
}

func TestLoad_DiscoversDotFile(t *testing.T) {
	dir := isolate(t)
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".xgmetrics.yaml"), []byte("analysis:\n  version: 1\n"), 0o644))

	cfg, err := Load("", nil)
	require.NoError(t, err)
	assert.Equal(t, 1, cfg.Analysis.Version)
}

func TestLoad_MissingExplicitFile(t *testing.T) {
	dir := isolate(t)
	_, err := Load(filepath.Join(dir, "nope.yaml"), nil)
	assert.Error(t, err)
}

func TestLoad_InvalidValues(t *testing.T) {
	isolate(t)
	fs := testFlags()
	require.NoError(t, fs.Parse([]string{"--buckets", "0", "--version", "7"}))

	_, err := Load("", fs)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "analysis.buckets")
	assert.ErrorIs(t, err, xg.ErrUnknownVersion)
}

func TestValidate(t *testing.T) {
	cfg := Config{
		Seasons:  []int{1},
		Analysis: AnalysisConfig{Buckets: 10, HistogramBins: 50, Workers: 1, Version: 2},
	}
	assert.NoError(t, cfg.Validate())

	cfg.Seasons = nil
	cfg.Analysis.HistogramBins = -1
	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no seasons")
	assert.Contains(t, err.Error(), "histogram_bins")
}
