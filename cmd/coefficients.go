package cmd

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/pable/go-xg-metrics/internal/report"
	"github.com/pable/go-xg-metrics/internal/xg"
)

var coefficientsCmd = &cobra.Command{
	Use:   "coefficients",
	Short: "Print model coefficients and odds ratios",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ms := xg.Models()
		names := make([]string, len(ms))
		for i, m := range ms {
			names[i] = m.Name()
		}
		report.PrintImportance(os.Stdout, xg.FeatureImportance(), names)
		return nil
	},
}
