package cmd

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/pable/go-xg-metrics/internal/report"
)

var sqlCmd = &cobra.Command{
	Use:   "sql <query>",
	Short: "Run a raw SQL query against the run database",
	Long: `Run an arbitrary SQL query against the run database and print results as a table.

Schema overview:
  runs(run_id, kind, created_at, seasons, model_version, total_shots, actual_goals, report_json)
  season_sources(run_id, season, total_events, digest)
  season_summaries(run_id, season, model_version, total_shots, actual_goals,
    xg_total, diff, pct_diff)
  calibration_buckets(run_id, model_version, bucket, lo, hi, n_shots, actual_goals,
    predicted_goals, predicted_rate, actual_rate, calibration_error)
  slice_stats(run_id, model_version, slice, position, category, shots, goals,
    actual_rate, xg_mean, xg_total, diff)

Note: seasons is a comma-separated list. Use LIKE: WHERE seasons LIKE '%20232024%'`,
	Args: cobra.MinimumNArgs(1),
	RunE: runSQL,
}

func runSQL(cmd *cobra.Command, args []string) error {
	query := strings.Join(args, " ")
	db, err := openDB()
	if err != nil {
		return err
	}
	defer db.Close()

	cols, rows, err := db.QueryRaw(query)
	if err != nil {
		return err
	}
	if len(rows) == 0 {
		fmt.Println("(no rows)")
		return nil
	}
	report.PrintQueryResult(os.Stdout, cols, rows)
	return nil
}
