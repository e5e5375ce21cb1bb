package cmd

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/pable/go-xg-metrics/internal/aggregator"
	"github.com/pable/go-xg-metrics/internal/export"
	"github.com/pable/go-xg-metrics/internal/report"
	"github.com/pable/go-xg-metrics/internal/storage"
)

var showCmd = &cobra.Command{
	Use:   "show <run-prefix>",
	Short: "Show a stored run by ID prefix",
	Args:  cobra.ExactArgs(1),
	RunE:  runShow,
}

func runShow(cmd *cobra.Command, args []string) error {
	prefix := args[0]

	db, err := openDB()
	if err != nil {
		return err
	}
	defer db.Close()

	run, err := db.GetRunByPrefix(prefix)
	if errors.Is(err, storage.ErrRunNotFound) {
		fmt.Fprintf(os.Stderr, "No run found with ID prefix %q\n", prefix)
		return nil
	}
	if err != nil {
		return fmt.Errorf("query run: %w", err)
	}

	report.PrintRunHeader(os.Stdout, *run)

	sources, err := db.GetSeasonSources(run.RunID)
	if err != nil {
		return fmt.Errorf("get season sources: %w", err)
	}
	for _, s := range sources {
		fmt.Fprintf(os.Stdout, "  %d  %8d events  sha256 %.12s\n", s.Season, s.TotalEvents, s.Digest)
	}
	fmt.Fprintln(os.Stdout)

	switch run.Kind {
	case "deep":
		return showDeep(db, run.RunID, run.Version)
	default:
		sums, err := db.GetSeasonSummaries(run.RunID)
		if err != nil {
			return fmt.Errorf("get season summaries: %w", err)
		}
		report.PrintSeasonTable(os.Stdout, sums, aggregator.CombineSummaries(sums))
		return nil
	}
}

// showDeep prints a deep run: totals and distribution from the stored
// document, buckets and slices from their tables.
func showDeep(db *storage.DB, runID string, version int) error {
	body, err := db.GetReportJSON(runID)
	if err != nil {
		return fmt.Errorf("get report: %w", err)
	}
	var doc export.DeepDocument
	if err := json.Unmarshal(body, &doc); err != nil {
		return fmt.Errorf("decode report: %w", err)
	}

	buckets, err := db.GetBuckets(runID, version)
	if err != nil {
		return fmt.Errorf("get buckets: %w", err)
	}
	slices, err := db.GetSlices(runID, version)
	if err != nil {
		return fmt.Errorf("get slices: %w", err)
	}

	report.PrintTotals(os.Stdout, version, doc.Totals)
	report.PrintBucketTable(os.Stdout, buckets)
	report.PrintSliceTables(os.Stdout, slices, aggregator.SliceOrder)
	report.PrintDistribution(os.Stdout, doc.Distribution, aggregator.Percentiles)
	return nil
}
