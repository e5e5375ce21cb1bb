package cmd

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/pable/go-xg-metrics/internal/hfdata"
	"github.com/pable/go-xg-metrics/internal/metrics"
	"github.com/pable/go-xg-metrics/internal/model"
	"github.com/pable/go-xg-metrics/internal/pipeline"
	"github.com/pable/go-xg-metrics/internal/storage"
	"github.com/pable/go-xg-metrics/internal/xg"
)

// addSeasonsFlag registers --seasons on a command that loads data.
func addSeasonsFlag(c *cobra.Command) {
	c.Flags().IntSlice("seasons", nil, "seasons to analyse, e.g. 20232024,20242025")
}

// newSource picks local files when a data directory is configured.
func newSource() hfdata.Source {
	if cfg.Dataset.Dir != "" {
		log.WithField("dir", cfg.Dataset.Dir).Info("reading season tables from disk")
		return hfdata.DirSource{Dir: cfg.Dataset.Dir}
	}
	return hfdata.NewClient(cfg.Dataset.BaseURL, cfg.Dataset.Timeout, cfg.Dataset.Retries, log)
}

// runSeasons loads and scores the configured seasons with models. Metrics are
// flushed whether or not the run succeeds.
func runSeasons(ctx context.Context, models []xg.Model) (*pipeline.Result, error) {
	m := metrics.New()
	defer flushMetrics(m)

	runner := pipeline.NewRunner(newSource(), models,
		pipeline.WithWorkers(cfg.Analysis.Workers),
		pipeline.WithLogger(log),
		pipeline.WithMetrics(m),
	)
	res, err := runner.Run(ctx, cfg.Seasons)
	if err != nil {
		return nil, err
	}
	for _, f := range res.Failures {
		log.WithField("season", f.Season).WithError(f.Err).Warn("season left out of the results")
	}
	return res, nil
}

func flushMetrics(m *metrics.Metrics) {
	if cfg.Metrics.Textfile == "" {
		return
	}
	if err := m.WriteTextfile(cfg.Metrics.Textfile); err != nil {
		log.WithError(err).Warn("[skip] metrics textfile")
	}
}

// saveRun persists a run header, its input digests and whatever extra rows
// store adds. A storage failure is logged; the printed results stand.
func saveRun(run model.RunSummary, res *pipeline.Result, doc any, store func(db *storage.DB) error) {
	if err := persist(run, res, doc, store); err != nil {
		log.WithError(err).Warn("[skip] run not stored")
		return
	}
	log.WithField("run", run.RunID).Info("run stored")
}

func persist(run model.RunSummary, res *pipeline.Result, doc any, store func(db *storage.DB) error) error {
	body, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("encode run document: %w", err)
	}

	db, err := openDB()
	if err != nil {
		return err
	}
	defer db.Close()

	if err := db.InsertRun(&run, body); err != nil {
		return err
	}
	sources := make([]storage.SeasonSource, len(res.Seasons))
	for i, s := range res.Seasons {
		sources[i] = storage.SeasonSource{Season: s.Season, TotalEvents: s.TotalEvents, Digest: s.Digest}
	}
	if err := db.InsertSeasonSources(run.RunID, sources); err != nil {
		return err
	}
	if store != nil {
		return store(db)
	}
	return nil
}

// newRun fills the run header shared by calibrate and deep.
func newRun(kind string, version int, res *pipeline.Result) model.RunSummary {
	run := model.RunSummary{
		RunID:   storage.NewRunID(),
		Kind:    kind,
		Seasons: res.SeasonNumbers(),
		Version: version,
	}
	for _, s := range res.Seasons {
		run.Shots += len(s.Records)
		for _, r := range s.Records {
			if r.Features.IsGoal {
				run.Goals++
			}
		}
	}
	return run
}
