package export

import (
	"fmt"
	"os"

	"github.com/parquet-go/parquet-go"

	"github.com/pable/go-xg-metrics/internal/model"
)

// ShotRow is one scored shot. Predictions for versions that were not
// evaluated are null.
type ShotRow struct {
	Season           int32    `parquet:"season,snappy"`
	GameID           string   `parquet:"game_id,snappy"`
	EventID          int64    `parquet:"event_id,snappy"`
	ShotType         *string  `parquet:"shot_type,optional,snappy"`
	Distance         float64  `parquet:"distance,snappy"`
	Angle            float64  `parquet:"angle,snappy"`
	Strength         string   `parquet:"strength_state,snappy"`
	EmptyNet         bool     `parquet:"is_empty_net_against,snappy"`
	Rebound          bool     `parquet:"is_rebound,snappy"`
	Rush             bool     `parquet:"is_rush,snappy"`
	GoalDifferential int32    `parquet:"goal_differential,snappy"`
	IsGoal           bool     `parquet:"is_goal,snappy"`
	XGv1             *float64 `parquet:"xg_v1,optional,snappy"`
	XGv2             *float64 `parquet:"xg_v2,optional,snappy"`
	XGv3             *float64 `parquet:"xg_v3,optional,snappy"`
}

// BucketRow is one calibration bucket; the means are null for empty buckets.
type BucketRow struct {
	Version          int32    `parquet:"model_version,snappy"`
	Bucket           int32    `parquet:"bucket,snappy"`
	Lo               float64  `parquet:"lo,snappy"`
	Hi               float64  `parquet:"hi,snappy"`
	Shots            int32    `parquet:"n_shots,snappy"`
	Goals            int32    `parquet:"actual_goals,snappy"`
	PredictedGoals   float64  `parquet:"predicted_goals,snappy"`
	PredictedRate    *float64 `parquet:"predicted_rate,optional,snappy"`
	ActualRate       *float64 `parquet:"actual_rate,optional,snappy"`
	CalibrationError *float64 `parquet:"calibration_error,optional,snappy"`
}

// ShotRows converts records to Parquet rows.
func ShotRows(records []model.ShotRecord) []ShotRow {
	rows := make([]ShotRow, len(records))
	for i, r := range records {
		fv := r.Features
		row := ShotRow{
			Season:           int32(r.Season),
			GameID:           r.GameID,
			EventID:          r.EventID,
			Distance:         fv.Distance,
			Angle:            fv.Angle,
			Strength:         fv.Strength.String(),
			EmptyNet:         fv.IsEmptyNetAgainst,
			Rebound:          fv.IsRebound,
			Rush:             fv.IsRush,
			GoalDifferential: int32(fv.GoalDifferential),
			IsGoal:           fv.IsGoal,
			XGv1:             prediction(r.XG, 1),
			XGv2:             prediction(r.XG, 2),
			XGv3:             prediction(r.XG, 3),
		}
		if r.ShotType != "" {
			st := r.ShotType
			row.ShotType = &st
		}
		rows[i] = row
	}
	return rows
}

func prediction(xg map[int]float64, v int) *float64 {
	p, ok := xg[v]
	if !ok {
		return nil
	}
	return &p
}

// BucketRows converts a report's buckets to Parquet rows.
func BucketRows(version int, buckets []model.CalibrationBucket) []BucketRow {
	rows := make([]BucketRow, len(buckets))
	for i, b := range buckets {
		rows[i] = BucketRow{
			Version:          int32(version),
			Bucket:           int32(b.Index),
			Lo:               b.Lo,
			Hi:               b.Hi,
			Shots:            int32(b.Shots),
			Goals:            int32(b.Goals),
			PredictedGoals:   b.PredictedGoals,
			PredictedRate:    b.MeanPredicted.Ptr(),
			ActualRate:       b.MeanActual.Ptr(),
			CalibrationError: b.Error.Ptr(),
		}
	}
	return rows
}

// WriteShotsParquet writes one row per scored shot to outputPath.
func WriteShotsParquet(records []model.ShotRecord, outputPath string) error {
	return writeParquet(ShotRows(records), outputPath)
}

// WriteBucketsParquet writes a report's calibration buckets to outputPath.
func WriteBucketsParquet(version int, buckets []model.CalibrationBucket, outputPath string) error {
	return writeParquet(BucketRows(version, buckets), outputPath)
}

// writeParquet infers the schema from T's struct tags.
func writeParquet[T any](rows []T, outputPath string) error {
	file, err := os.Create(outputPath)
	if err != nil {
		return fmt.Errorf("create parquet file: %w", err)
	}
	defer func() { _ = file.Close() }()

	writer := parquet.NewGenericWriter[T](file)
	if _, err := writer.Write(rows); err != nil {
		_ = writer.Close()
		return fmt.Errorf("write parquet rows: %w", err)
	}
	if err := writer.Close(); err != nil {
		return fmt.Errorf("close parquet writer: %w", err)
	}
	return nil
}
