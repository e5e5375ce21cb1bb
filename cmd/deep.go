package cmd

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/pable/go-xg-metrics/internal/aggregator"
	"github.com/pable/go-xg-metrics/internal/export"
	"github.com/pable/go-xg-metrics/internal/report"
	"github.com/pable/go-xg-metrics/internal/storage"
	"github.com/pable/go-xg-metrics/internal/xg"
)

var deepCmd = &cobra.Command{
	Use:   "deep",
	Short: "Full calibration analysis of one model version over combined seasons",
	Long: "Overall calibration, probability buckets, per-feature slices and the\n" +
		"distribution of predicted probabilities for one model version.",
	Args: cobra.NoArgs,
	RunE: runDeep,
}

func init() {
	addSeasonsFlag(deepCmd)
	deepCmd.Flags().Int("version", 3, "model version")
	deepCmd.Flags().Int("buckets", 10, "number of calibration buckets")
	deepCmd.Flags().String("out", "", "write the report as JSON")
	deepCmd.Flags().String("parquet", "", "write every scored shot to this Parquet file (buckets go to <name>_buckets.parquet)")
}

func runDeep(cmd *cobra.Command, _ []string) error {
	m, err := xg.Lookup(cfg.Analysis.Version)
	if err != nil {
		return err
	}
	res, err := runSeasons(cmd.Context(), []xg.Model{m})
	if err != nil {
		return err
	}

	rep := res.Report(m.Version, aggregator.Options{
		Buckets:       cfg.Analysis.Buckets,
		HistogramBins: cfg.Analysis.HistogramBins,
	})

	report.PrintTotals(os.Stdout, rep.Version, rep.Totals)
	report.PrintBucketTable(os.Stdout, rep.Buckets)
	report.PrintSliceTables(os.Stdout, rep.Slices, aggregator.SliceOrder)
	report.PrintDistribution(os.Stdout, rep.Distribution, aggregator.Percentiles)

	run := newRun("deep", m.Version, res)
	doc := export.DeepDocument{
		RunID:             run.RunID,
		Seasons:           run.Seasons,
		CalibrationReport: rep,
		FeatureImportance: xg.FeatureImportance(),
	}
	if cfg.Output.JSON != "" {
		if err := export.WriteJSON(cfg.Output.JSON, doc); err != nil {
			return err
		}
		fmt.Fprintf(os.Stdout, "\nWrote %s\n", cfg.Output.JSON)
	}
	if path := cfg.Output.Parquet; path != "" {
		if err := export.WriteShotsParquet(res.Records(), path); err != nil {
			return err
		}
		bucketsPath := strings.TrimSuffix(path, ".parquet") + "_buckets.parquet"
		if err := export.WriteBucketsParquet(rep.Version, rep.Buckets, bucketsPath); err != nil {
			return err
		}
		fmt.Fprintf(os.Stdout, "Wrote %s and %s\n", path, bucketsPath)
	}

	saveRun(run, res, doc, func(db *storage.DB) error {
		return db.InsertReport(run.RunID, rep)
	})
	return nil
}
