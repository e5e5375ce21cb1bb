package cmd

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/pable/go-xg-metrics/internal/aggregator"
	"github.com/pable/go-xg-metrics/internal/report"
	"github.com/pable/go-xg-metrics/internal/xg"
)

var binsCmd = &cobra.Command{
	Use:   "bins",
	Short: "Calibration bins for one model version across seasons",
	Args:  cobra.NoArgs,
	RunE:  runBins,
}

func init() {
	addSeasonsFlag(binsCmd)
	binsCmd.Flags().Int("version", 3, "model version")
	binsCmd.Flags().Int("bins", 10, "number of equal-width probability bins")
}

func runBins(cmd *cobra.Command, _ []string) error {
	m, err := xg.Lookup(cfg.Analysis.Version)
	if err != nil {
		return err
	}
	res, err := runSeasons(cmd.Context(), []xg.Model{m})
	if err != nil {
		return err
	}

	obs := aggregator.ObservationsFor(res.Records(), m.Version)
	report.PrintTotals(os.Stdout, m.Version, aggregator.Overall(obs))
	report.PrintBucketTable(os.Stdout, aggregator.Buckets(obs, cfg.Analysis.Buckets))
	return nil
}
