// Package pipeline loads season tables and scores every shot attempt with the
// requested model versions.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/pable/go-xg-metrics/internal/aggregator"
	"github.com/pable/go-xg-metrics/internal/features"
	"github.com/pable/go-xg-metrics/internal/hfdata"
	"github.com/pable/go-xg-metrics/internal/logger"
	"github.com/pable/go-xg-metrics/internal/metrics"
	"github.com/pable/go-xg-metrics/internal/model"
	"github.com/pable/go-xg-metrics/internal/parser"
	"github.com/pable/go-xg-metrics/internal/xg"
)

// ErrNoData is returned by Run when no requested season could be loaded.
var ErrNoData = errors.New("no season data loaded")

// Runner scores seasons from a Source.
type Runner struct {
	source  hfdata.Source
	models  []xg.Model
	workers int
	log     logrus.FieldLogger
	metrics *metrics.Metrics
}

// Option configures a Runner.
type Option func(*Runner)

// WithWorkers bounds both season and per-game concurrency.
func WithWorkers(n int) Option {
	return func(r *Runner) {
		if n > 0 {
			r.workers = n
		}
	}
}

// WithLogger sets the diagnostics logger.
func WithLogger(l logrus.FieldLogger) Option {
	return func(r *Runner) { r.log = l }
}

// WithMetrics records counters on m.
func WithMetrics(m *metrics.Metrics) Option {
	return func(r *Runner) { r.metrics = m }
}

// NewRunner returns a Runner evaluating models (all versions when empty).
func NewRunner(src hfdata.Source, models []xg.Model, opts ...Option) *Runner {
	if len(models) == 0 {
		models = xg.Models()
	}
	r := &Runner{
		source:  src,
		models:  models,
		workers: 4,
		log:     logger.Discard(),
		metrics: metrics.New(),
	}
	for _, o := range opts {
		o(r)
	}
	return r
}

// Metrics returns the registry the runner records to.
func (r *Runner) Metrics() *metrics.Metrics {
	return r.metrics
}

// Versions lists the model versions the runner evaluates.
func (r *Runner) Versions() []int {
	out := make([]int, len(r.models))
	for i, m := range r.models {
		out[i] = m.Version
	}
	return out
}

// SeasonData is one season's scored shots.
type SeasonData struct {
	Season      int
	TotalEvents int
	Digest      string
	Records     []model.ShotRecord
}

// SeasonFailure records why a season was skipped.
type SeasonFailure struct {
	Season int
	Err    error
}

// LoadSeason downloads, parses, filters and scores one season.
func (r *Runner) LoadSeason(ctx context.Context, season int) (*SeasonData, error) {
	rc, err := r.source.Season(ctx, season)
	if err != nil {
		return nil, fmt.Errorf("fetch season %d: %w", season, err)
	}
	defer rc.Close()

	table, err := parser.ParseShots(rc, season)
	if err != nil {
		return nil, fmt.Errorf("parse season %d: %w", season, err)
	}
	r.metrics.EventsParsed.Add(float64(table.TotalEvents))

	shots := parser.FilterShots(table.Shots)
	return &SeasonData{
		Season:      season,
		TotalEvents: table.TotalEvents,
		Digest:      table.Digest,
		Records:     r.Score(shots, table.Inputs),
	}, nil
}

// Score assembles features for one batch of shots and evaluates every model.
func (r *Runner) Score(shots []model.ShotEvent, in features.Inputs) []model.ShotRecord {
	asm := features.NewAssembler(shots, in, r.workers)
	records := make([]model.ShotRecord, len(shots))
	for i, s := range shots {
		fv := asm.Assemble(i, s)
		records[i] = model.ShotRecord{
			Season:   s.Season,
			GameID:   s.GameID,
			EventID:  s.EventID,
			ShotType: s.ShotType,
			Features: fv,
			XG:       xg.PredictAll(r.models, fv),
		}
	}
	for _, m := range r.models {
		r.metrics.AddShots(m.Version, len(records))
	}
	return records
}

// Result holds the seasons of one run, in the order they were requested.
type Result struct {
	Seasons  []SeasonData
	Failures []SeasonFailure
	Versions []int
}

// Run loads seasons concurrently. A season that fails is logged and skipped;
// ErrNoData is returned only when every season failed. Cancelling ctx aborts
// pending downloads and returns the context error.
func (r *Runner) Run(ctx context.Context, seasons []int) (*Result, error) {
	slots := make([]*SeasonData, len(seasons))
	var (
		mu       sync.Mutex
		failures []SeasonFailure
	)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(r.workers)
	for i, season := range seasons {
		g.Go(func() error {
			log := r.log.WithField("season", season)
			log.Info("loading season")
			start := time.Now()

			data, err := r.LoadSeason(gctx, season)
			r.metrics.SeasonLoadSeconds.Observe(time.Since(start).Seconds())
			if err != nil {
				if ctx.Err() != nil {
					return ctx.Err()
				}
				log.WithError(err).Warn("[skip] season failed")
				r.metrics.SeasonsFailed.Inc()
				mu.Lock()
				failures = append(failures, SeasonFailure{Season: season, Err: err})
				mu.Unlock()
				return nil
			}

			log.WithFields(logrus.Fields{
				"events": data.TotalEvents,
				"shots":  len(data.Records),
			}).Info("season scored")
			r.metrics.SeasonsLoaded.Inc()
			slots[i] = data
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	res := &Result{Failures: failures, Versions: r.Versions()}
	for _, d := range slots {
		if d != nil {
			res.Seasons = append(res.Seasons, *d)
		}
	}
	if len(res.Seasons) == 0 {
		return res, fmt.Errorf("run %d season(s): %w", len(seasons), ErrNoData)
	}
	return res, nil
}

// SeasonNumbers lists the loaded seasons.
func (res *Result) SeasonNumbers() []int {
	out := make([]int, len(res.Seasons))
	for i, s := range res.Seasons {
		out[i] = s.Season
	}
	return out
}

// Records concatenates the shots of every loaded season.
func (res *Result) Records() []model.ShotRecord {
	n := 0
	for _, s := range res.Seasons {
		n += len(s.Records)
	}
	out := make([]model.ShotRecord, 0, n)
	for _, s := range res.Seasons {
		out = append(out, s.Records...)
	}
	return out
}

// Summaries computes the per-season multi-version totals.
func (res *Result) Summaries() []model.SeasonSummary {
	out := make([]model.SeasonSummary, len(res.Seasons))
	for i, s := range res.Seasons {
		out[i] = aggregator.SeasonSummary(s.Season, s.Records, res.Versions)
	}
	return out
}

// Report aggregates all loaded seasons for one model version.
func (res *Result) Report(version int, opts aggregator.Options) model.CalibrationReport {
	obs := aggregator.ObservationsFor(res.Records(), version)
	return aggregator.Aggregate(version, obs, opts)
}
