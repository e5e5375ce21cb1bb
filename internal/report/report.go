package report

import (
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"

	"github.com/fatih/color"
	"github.com/olekukonko/tablewriter"
	"github.com/olekukonko/tablewriter/tw"

	"github.com/pable/go-xg-metrics/internal/model"
	"github.com/pable/go-xg-metrics/internal/xg"
)

// Calibration errors (actual rate - predicted rate) beyond these bounds are
// highlighted.
const (
	warnError = 0.02
	badError  = 0.05
)

var (
	cGood = color.New(color.FgGreen)
	cWarn = color.New(color.FgYellow)
	cBad  = color.New(color.FgRed, color.Bold)
)

func newTable(w io.Writer) *tablewriter.Table {
	return tablewriter.NewTable(w, tablewriter.WithConfig(tablewriter.Config{
		Row: tw.CellConfig{
			Alignment: tw.CellAlignment{Global: tw.AlignRight},
		},
		Header: tw.CellConfig{
			Alignment: tw.CellAlignment{Global: tw.AlignCenter},
		},
	}))
}

// fmtRatio renders r with format, or "—" when undefined.
func fmtRatio(r model.Ratio, format string) string {
	if !r.Valid {
		return "—"
	}
	return fmt.Sprintf(format, r.Value)
}

func fmtPct(r model.Ratio) string {
	if !r.Valid {
		return "—"
	}
	return fmt.Sprintf("%+.1f%%", r.Value)
}

// colorError renders a rate difference, coloured by magnitude.
func colorError(e float64) string {
	s := fmt.Sprintf("%+.4f", e)
	switch a := math.Abs(e); {
	case a >= badError:
		return cBad.Sprint(s)
	case a >= warnError:
		return cWarn.Sprint(s)
	default:
		return cGood.Sprint(s)
	}
}

// PrintSeasonTable prints one line per season with every version's xG total,
// followed by a TOTAL line.
func PrintSeasonTable(w io.Writer, seasons []model.SeasonSummary, total model.SeasonSummary) {
	var versions []int
	for _, vt := range total.Versions {
		versions = append(versions, vt.Version)
	}

	header := []any{"SEASON", "SHOTS", "GOALS", "RATE"}
	for _, v := range versions {
		header = append(header, fmt.Sprintf("XG_V%d", v), fmt.Sprintf("DIFF_V%d", v), fmt.Sprintf("PCT_V%d", v))
	}

	table := newTable(w)
	table.Header(header...)

	row := func(label string, s model.SeasonSummary) []any {
		out := []any{
			label,
			strconv.Itoa(s.Shots),
			strconv.Itoa(s.Goals),
			fmtRatio(s.ActualRate, "%.4f"),
		}
		for _, v := range versions {
			vt, ok := s.ForVersion(v)
			if !ok {
				out = append(out, "—", "—", "—")
				continue
			}
			out = append(out,
				fmt.Sprintf("%.1f", vt.PredictedGoals),
				fmt.Sprintf("%+.1f", vt.Diff),
				fmtPct(vt.PercentDiff),
			)
		}
		return out
	}

	for _, s := range seasons {
		table.Append(row(strconv.Itoa(s.Season), s)...)
	}
	table.Append(row("TOTAL", total)...)
	table.Render()
}

// PrintTotals prints the overall line of a single-version report.
func PrintTotals(w io.Writer, version int, t model.Totals) {
	fmt.Fprintf(w, "\nModel: v%d  |  Shots: %d  |  Goals: %d  |  Rate: %s  |  xG: %.1f  |  Diff: %+.1f (%s)\n\n",
		version, t.Shots, t.Goals, fmtRatio(t.ActualRate, "%.4f"), t.PredictedGoals, t.Error, fmtPct(t.PercentError))
}

// PrintBucketTable prints the calibration buckets. Empty buckets show "—" for
// their rates.
func PrintBucketTable(w io.Writer, buckets []model.CalibrationBucket) {
	table := newTable(w)
	table.Header("BUCKET", "SHOTS", "GOALS", "XG", "PRED_RATE", "ACTUAL_RATE", "ERROR")

	for _, b := range buckets {
		errStr := "—"
		if b.Error.Valid {
			errStr = colorError(b.Error.Value)
		}
		table.Append(
			b.Label(),
			strconv.Itoa(b.Shots),
			strconv.Itoa(b.Goals),
			fmt.Sprintf("%.1f", b.PredictedGoals),
			fmtRatio(b.MeanPredicted, "%.4f"),
			fmtRatio(b.MeanActual, "%.4f"),
			errStr,
		)
	}
	table.Render()
}

// PrintSliceTables prints one table per slice, in order. Slices absent from
// the map are skipped.
func PrintSliceTables(w io.Writer, slices map[string][]model.SliceStats, order []string) {
	for _, name := range order {
		rows, ok := slices[name]
		if !ok {
			continue
		}
		fmt.Fprintf(w, "\n%s\n", sliceTitle(name))
		PrintSliceTable(w, rows)
	}
}

// PrintSliceTable prints the categories of one slice.
func PrintSliceTable(w io.Writer, rows []model.SliceStats) {
	table := newTable(w)
	table.Header("CATEGORY", "SHOTS", "GOALS", "RATE", "XG_MEAN", "XG", "ERROR")
	for _, s := range rows {
		table.Append(
			s.Category,
			strconv.Itoa(s.Shots),
			strconv.Itoa(s.Goals),
			fmt.Sprintf("%.4f", s.ActualRate),
			fmt.Sprintf("%.4f", s.PredictedMean),
			fmt.Sprintf("%.1f", s.PredictedTotal),
			colorError(s.Error),
		)
	}
	table.Render()
}

// sliceTitle turns "by_shot_type" into "BY SHOT TYPE".
func sliceTitle(name string) string {
	return strings.ToUpper(strings.ReplaceAll(name, "_", " "))
}

// PrintDistribution prints the summary statistics of predicted probabilities.
func PrintDistribution(w io.Writer, d model.Distribution, percentiles []int) {
	fmt.Fprintf(w, "\nPredictions: %d  |  mean %.4f  |  median %.4f  |  std %.4f  |  min %.4f  |  max %.4f\n",
		d.Count, d.Mean, d.Median, d.Std, d.Min, d.Max)
	if d.Count == 0 {
		return
	}
	parts := make([]string, 0, len(percentiles))
	for _, p := range percentiles {
		key := strconv.Itoa(p)
		if v, ok := d.Percentiles[key]; ok {
			parts = append(parts, fmt.Sprintf("p%s %.4f", key, v))
		}
	}
	fmt.Fprintf(w, "Percentiles: %s\n", strings.Join(parts, "  "))
}

// PrintImportance prints the coefficient table for every version and the odds
// ratios of the latest.
func PrintImportance(w io.Writer, imp xg.Importance, versions []string) {
	header := []any{"FEATURE"}
	for _, v := range versions {
		header = append(header, strings.ToUpper(v))
	}

	table := newTable(w)
	table.Header(header...)
	for _, row := range imp.Coefficients {
		cells := []any{row.Label}
		for _, v := range versions {
			if wt := row.Weights[v]; wt != nil {
				cells = append(cells, fmt.Sprintf("%.4f", *wt))
			} else {
				cells = append(cells, "—")
			}
		}
		table.Append(cells...)
	}
	table.Render()

	fmt.Fprintf(w, "\nOdds ratios (v%d)\n", imp.OddsVersion)
	odds := newTable(w)
	odds.Header("FEATURE", "ODDS_RATIO")
	for _, o := range imp.OddsRatios {
		odds.Append(o.Label, fmt.Sprintf("%.3f", o.Ratio))
	}
	odds.Render()
}

// PrintRunHeader prints a one-line summary of a stored run.
func PrintRunHeader(w io.Writer, r model.RunSummary) {
	version := "all"
	if r.Version != 0 {
		version = fmt.Sprintf("v%d", r.Version)
	}
	fmt.Fprintf(w, "\nRun: %s  |  Kind: %s  |  Created: %s  |  Seasons: %s  |  Model: %s  |  Shots: %d  |  Goals: %d\n\n",
		r.RunID, r.Kind, r.CreatedAt, JoinSeasons(r.Seasons), version, r.Shots, r.Goals)
}

// PrintRunList prints stored runs, one per line.
func PrintRunList(w io.Writer, runs []model.RunSummary) {
	fmt.Fprintf(w, "%-12s  %-9s  %-20s  %-5s  %7s  %6s  %s\n",
		"RUN", "KIND", "CREATED", "MODEL", "SHOTS", "GOALS", "SEASONS")
	for _, r := range runs {
		version := "all"
		if r.Version != 0 {
			version = fmt.Sprintf("v%d", r.Version)
		}
		fmt.Fprintf(w, "%-12s  %-9s  %-20s  %-5s  %7d  %6d  %s\n",
			shortID(r.RunID), r.Kind, r.CreatedAt, version, r.Shots, r.Goals, JoinSeasons(r.Seasons))
	}
}

// PrintQueryResult prints an arbitrary query result and its row count.
func PrintQueryResult(w io.Writer, cols []string, rows [][]string) {
	table := newTable(w)
	header := make([]any, len(cols))
	for i, c := range cols {
		header[i] = c
	}
	table.Header(header...)
	for _, row := range rows {
		cells := make([]any, len(row))
		for i, v := range row {
			cells[i] = v
		}
		table.Append(cells...)
	}
	table.Render()
	fmt.Fprintf(w, "(%d rows)\n", len(rows))
}

// JoinSeasons renders season ids as "20222023,20232024".
func JoinSeasons(seasons []int) string {
	parts := make([]string, len(seasons))
	for i, s := range seasons {
		parts[i] = strconv.Itoa(s)
	}
	return strings.Join(parts, ",")
}

func shortID(id string) string {
	if len(id) > 12 {
		return id[:12]
	}
	return id
}
