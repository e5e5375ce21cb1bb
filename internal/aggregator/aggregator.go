// Package aggregator turns per-shot predictions into calibration reports.
package aggregator

import (
	"github.com/pable/go-xg-metrics/internal/model"
)

// Observation is one shot's predicted probability, its outcome, and the
// attributes used to slice the population.
type Observation struct {
	Predicted float64
	Goal      bool
	Strength  model.StrengthState
	EmptyNet  bool
	Rebound   bool
	Distance  float64
	Angle     float64
	ShotType  string // empty when unknown
}

// Options controls bucket and histogram resolution.
type Options struct {
	Buckets       int // calibration buckets over [0,1]
	HistogramBins int // distribution histogram bins over [0,1]
}

// Default resolutions.
const (
	DefaultBuckets       = 10
	DefaultHistogramBins = 50
)

// withDefaults fills non-positive fields.
func (o Options) withDefaults() Options {
	if o.Buckets <= 0 {
		o.Buckets = DefaultBuckets
	}
	if o.HistogramBins <= 0 {
		o.HistogramBins = DefaultHistogramBins
	}
	return o
}

// Aggregate builds the full calibration report for one model version.
func Aggregate(version int, obs []Observation, opts Options) model.CalibrationReport {
	opts = opts.withDefaults()

	preds := make([]float64, len(obs))
	for i, o := range obs {
		preds[i] = o.Predicted
	}

	return model.CalibrationReport{
		Version:      version,
		Totals:       Overall(obs),
		Buckets:      Buckets(obs, opts.Buckets),
		Slices:       Slices(obs),
		Distribution: Distribution(preds, opts.HistogramBins),
	}
}

// Overall computes the population totals. The percentage error is undefined
// when there are no goals.
func Overall(obs []Observation) model.Totals {
	var t model.Totals
	for _, o := range obs {
		t.Shots++
		if o.Goal {
			t.Goals++
		}
		t.PredictedGoals += o.Predicted
	}
	if t.Shots > 0 {
		t.ActualRate = model.Defined(float64(t.Goals) / float64(t.Shots))
	}
	t.Error = float64(t.Goals) - t.PredictedGoals
	if t.Goals > 0 {
		t.PercentError = model.Defined(t.Error / float64(t.Goals) * 100)
	}
	return t
}

// ObservationsFor projects shot records onto the observations for one version.
// Records without a prediction for that version are skipped.
func ObservationsFor(records []model.ShotRecord, version int) []Observation {
	out := make([]Observation, 0, len(records))
	for _, r := range records {
		p, ok := r.XG[version]
		if !ok {
			continue
		}
		fv := r.Features
		out = append(out, Observation{
			Predicted: p,
			Goal:      fv.IsGoal,
			Strength:  fv.Strength,
			EmptyNet:  fv.IsEmptyNetAgainst,
			Rebound:   fv.IsRebound,
			Distance:  fv.Distance,
			Angle:     fv.Angle,
			ShotType:  r.ShotType,
		})
	}
	return out
}

// SeasonSummary computes the multi-version totals line for one season's records.
func SeasonSummary(season int, records []model.ShotRecord, versions []int) model.SeasonSummary {
	s := model.SeasonSummary{Season: season, Shots: len(records)}
	sums := make(map[int]float64, len(versions))
	for _, r := range records {
		if r.Features.IsGoal {
			s.Goals++
		}
		for _, v := range versions {
			sums[v] += r.XG[v]
		}
	}
	if s.Shots > 0 {
		s.ActualRate = model.Defined(float64(s.Goals) / float64(s.Shots))
	}
	for _, v := range versions {
		s.Versions = append(s.Versions, versionTotals(v, s.Goals, sums[v]))
	}
	return s
}

// CombineSummaries sums per-season lines into a grand total (Season 0).
func CombineSummaries(seasons []model.SeasonSummary) model.SeasonSummary {
	var total model.SeasonSummary
	sums := make(map[int]float64)
	var order []int
	for _, s := range seasons {
		total.Shots += s.Shots
		total.Goals += s.Goals
		for _, vt := range s.Versions {
			if _, ok := sums[vt.Version]; !ok {
				order = append(order, vt.Version)
			}
			sums[vt.Version] += vt.PredictedGoals
		}
	}
	if total.Shots > 0 {
		total.ActualRate = model.Defined(float64(total.Goals) / float64(total.Shots))
	}
	for _, v := range order {
		total.Versions = append(total.Versions, versionTotals(v, total.Goals, sums[v]))
	}
	return total
}

func versionTotals(version, goals int, xg float64) model.VersionTotals {
	vt := model.VersionTotals{
		Version:        version,
		PredictedGoals: xg,
		Diff:           float64(goals) - xg,
	}
	if goals > 0 {
		vt.PercentDiff = model.Defined(vt.Diff / float64(goals) * 100)
	}
	return vt
}
