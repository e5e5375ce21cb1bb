// Package export writes result documents as JSON and shot-level data as Parquet.
package export

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/pable/go-xg-metrics/internal/model"
	"github.com/pable/go-xg-metrics/internal/xg"
)

// CalibrationDocument is the multi-version, per-season result.
type CalibrationDocument struct {
	RunID             string                `json:"run_id,omitempty"`
	CalibrationStats  []model.SeasonSummary `json:"calibration_stats"`
	Totals            model.SeasonSummary   `json:"totals"`
	FeatureImportance xg.Importance         `json:"feature_importance"`
}

// DeepDocument is the single-version analysis over combined seasons.
type DeepDocument struct {
	RunID   string `json:"run_id,omitempty"`
	Seasons []int  `json:"seasons"`
	model.CalibrationReport
	FeatureImportance xg.Importance `json:"feature_importance"`
}

// WriteJSON writes v to path as indented JSON.
func WriteJSON(path string, v any) error {
	b, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("encode json: %w", err)
	}
	if err := os.WriteFile(path, append(b, '\n'), 0o644); err != nil {
		return fmt.Errorf("write json: %w", err)
	}
	return nil
}
