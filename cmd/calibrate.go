package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/pable/go-xg-metrics/internal/aggregator"
	"github.com/pable/go-xg-metrics/internal/export"
	"github.com/pable/go-xg-metrics/internal/report"
	"github.com/pable/go-xg-metrics/internal/storage"
	"github.com/pable/go-xg-metrics/internal/xg"
)

var calibrateCmd = &cobra.Command{
	Use:   "calibrate",
	Short: "Compare xG totals of every model version with actual goals, per season",
	Args:  cobra.NoArgs,
	RunE:  runCalibrate,
}

func init() {
	addSeasonsFlag(calibrateCmd)
	calibrateCmd.Flags().String("out", "", "write the result document as JSON")
}

func runCalibrate(cmd *cobra.Command, _ []string) error {
	res, err := runSeasons(cmd.Context(), xg.Models())
	if err != nil {
		return err
	}

	sums := res.Summaries()
	total := aggregator.CombineSummaries(sums)
	report.PrintSeasonTable(os.Stdout, sums, total)

	run := newRun("calibrate", 0, res)
	doc := export.CalibrationDocument{
		RunID:             run.RunID,
		CalibrationStats:  sums,
		Totals:            total,
		FeatureImportance: xg.FeatureImportance(),
	}
	if cfg.Output.JSON != "" {
		if err := export.WriteJSON(cfg.Output.JSON, doc); err != nil {
			return err
		}
		fmt.Fprintf(os.Stdout, "\nWrote %s\n", cfg.Output.JSON)
	}

	saveRun(run, res, doc, func(db *storage.DB) error {
		return db.InsertSeasonSummaries(run.RunID, sums)
	})
	return nil
}
