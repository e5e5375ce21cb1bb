package model

import (
	"encoding/json"
	"fmt"
	"math"
)

// StrengthState is the shooting team's manpower relative to its opponent.
type StrengthState int

const (
	EvenStrength StrengthState = 0
	PowerPlay    StrengthState = 1
	PenaltyKill  StrengthState = 2
)

// StrengthStates lists every state in report order.
var StrengthStates = []StrengthState{EvenStrength, PowerPlay, PenaltyKill}

func (s StrengthState) String() string {
	switch s {
	case PowerPlay:
		return "power-play"
	case PenaltyKill:
		return "penalty-kill"
	default:
		return "even-strength"
	}
}

// MarshalText lets StrengthState serialise as its label (also as a map key).
func (s StrengthState) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// UnmarshalText parses a label produced by String.
func (s *StrengthState) UnmarshalText(b []byte) error {
	switch string(b) {
	case "even-strength":
		*s = EvenStrength
	case "power-play":
		*s = PowerPlay
	case "penalty-kill":
		*s = PenaltyKill
	default:
		return fmt.Errorf("unknown strength state %q", string(b))
	}
	return nil
}

// Shot attempt event types. Everything else in the play-by-play is dropped.
const (
	TypeGoal        = "goal"
	TypeShotOnGoal  = "shot-on-goal"
	TypeMissedShot  = "missed-shot"
	TypeBlockedShot = "blocked-shot"
)

// ---- Raw events emitted by the parser ----

// ShotEvent is one shot attempt row from the play-by-play table. Read-only.
type ShotEvent struct {
	GameID      string
	EventID     int64 // eventId column, or the row ordinal when the column is absent
	Season      int
	TypeDescKey string

	SituationCode    string // 4 digits when numeric: away goalie, away skaters, home skaters, home goalie
	EventOwnerTeamID string
	HomeTeamID       string

	HomeScore, AwayScore int
	HasScore             bool

	XCoord, YCoord float64
	HasX, HasY     bool

	SecondsElapsedInGame int
	HasTime              bool

	ShotType string // wrist, slap, snap, ... ; empty when unknown
}

// IsGoal reports whether the attempt was scored.
func (e ShotEvent) IsGoal() bool {
	return e.TypeDescKey == TypeGoal
}

// ---- Derived features ----

// FeatureVector is the model input derived from one ShotEvent.
type FeatureVector struct {
	Distance          float64       `json:"distance"`
	Angle             float64       `json:"angle"`
	Strength          StrengthState `json:"strength_state"`
	IsEmptyNetAgainst bool          `json:"is_empty_net_against"`
	IsRebound         bool          `json:"is_rebound"`
	IsRush            bool          `json:"is_rush"`
	GoalDifferential  int           `json:"goal_differential"`
	IsGoal            bool          `json:"is_goal"`
}

// ShotRecord is a retained shot with its features and per-version xG.
type ShotRecord struct {
	Season   int
	GameID   string
	EventID  int64
	ShotType string
	Features FeatureVector
	XG       map[int]float64 // model version -> probability
}

// ---- Aggregated metrics ----

// Ratio is a mean or percentage that is undefined when its denominator is zero.
type Ratio struct {
	Value float64
	Valid bool
}

// Defined wraps a computed value.
func Defined(v float64) Ratio { return Ratio{Value: v, Valid: true} }

// Undefined is the zero-denominator result.
func Undefined() Ratio { return Ratio{} }

// MarshalJSON writes null for undefined ratios.
func (r Ratio) MarshalJSON() ([]byte, error) {
	if !r.Valid {
		return []byte("null"), nil
	}
	return json.Marshal(r.Value)
}

// UnmarshalJSON accepts a number or null.
func (r *Ratio) UnmarshalJSON(b []byte) error {
	if string(b) == "null" {
		*r = Ratio{}
		return nil
	}
	var v float64
	if err := json.Unmarshal(b, &v); err != nil {
		return err
	}
	*r = Defined(v)
	return nil
}

// Ptr returns nil for undefined ratios; used by the SQL and Parquet writers.
func (r Ratio) Ptr() *float64 {
	if !r.Valid {
		return nil
	}
	v := r.Value
	return &v
}

// RatioFromPtr is the inverse of Ptr.
func RatioFromPtr(p *float64) Ratio {
	if p == nil {
		return Undefined()
	}
	return Defined(*p)
}

// CalibrationBucket aggregates the shots whose predicted probability falls in [Lo, Hi).
type CalibrationBucket struct {
	Index          int     `json:"bucket"`
	Lo             float64 `json:"lo"`
	Hi             float64 `json:"hi"`
	Shots          int     `json:"n_shots"`
	Goals          int     `json:"actual_goals"`
	PredictedGoals float64 `json:"predicted_goals"`
	MeanPredicted  Ratio   `json:"predicted_rate"`
	MeanActual     Ratio   `json:"actual_rate"`
	Error          Ratio   `json:"calibration_error"` // actual - predicted
}

// Label renders the bucket range as a percentage span, e.g. "10-20%".
func (b CalibrationBucket) Label() string {
	return fmt.Sprintf("%g-%g%%", percent(b.Lo), percent(b.Hi))
}

// percent rounds a fraction to a percentage with two decimals.
func percent(v float64) float64 {
	return math.Round(v*10000) / 100
}

// SliceStats holds calibration numbers for one category of a grouping attribute.
type SliceStats struct {
	Category       string  `json:"category"`
	Shots          int     `json:"shots"`
	Goals          int     `json:"goals"`
	ActualRate     float64 `json:"actual_rate"`
	PredictedMean  float64 `json:"xg_mean"`
	PredictedTotal float64 `json:"xg_total"`
	Error          float64 `json:"diff"` // actual rate - predicted mean
}

// Totals are the overall numbers for a population of shots.
type Totals struct {
	Shots          int     `json:"total_shots"`
	Goals          int     `json:"actual_goals"`
	ActualRate     Ratio   `json:"actual_rate"`
	PredictedGoals float64 `json:"xg_total"`
	Error          float64 `json:"diff"`     // goals - xG
	PercentError   Ratio   `json:"pct_diff"` // undefined when Goals == 0
}

// Histogram is a fixed-bin count over [0,1].
type Histogram struct {
	Counts  []int     `json:"counts"`
	Edges   []float64 `json:"bin_edges"`
	Centers []float64 `json:"bin_centers"`
}

// Distribution summarises the predicted-probability population.
type Distribution struct {
	Count       int                `json:"count"`
	Mean        float64            `json:"mean"`
	Median      float64            `json:"median"`
	Std         float64            `json:"std"`
	Min         float64            `json:"min"`
	Max         float64            `json:"max"`
	Percentiles map[string]float64 `json:"percentiles"`
	Histogram   Histogram          `json:"histogram"`
}

// CalibrationReport is built once per invocation; it holds no references to input rows.
type CalibrationReport struct {
	Version      int                     `json:"model_version"`
	Totals       Totals                  `json:"overall"`
	Buckets      []CalibrationBucket     `json:"calibration_buckets"`
	Slices       map[string][]SliceStats `json:"feature_analysis"`
	Distribution Distribution            `json:"probability_distribution"`
}

// VersionTotals is one model version's xG total for a season.
type VersionTotals struct {
	Version        int     `json:"version"`
	PredictedGoals float64 `json:"xg_total"`
	Diff           float64 `json:"diff"`
	PercentDiff    Ratio   `json:"pct_diff"`
}

// SeasonSummary is the per-season multi-version calibration line.
type SeasonSummary struct {
	Season     int             `json:"season"`
	Shots      int             `json:"total_shots"`
	Goals      int             `json:"actual_goals"`
	ActualRate Ratio           `json:"actual_rate"`
	Versions   []VersionTotals `json:"versions"`
}

// ForVersion returns the totals for v, if present.
func (s *SeasonSummary) ForVersion(v int) (VersionTotals, bool) {
	for _, vt := range s.Versions {
		if vt.Version == v {
			return vt, true
		}
	}
	return VersionTotals{}, false
}

// RunSummary is a lightweight record for list/show commands.
type RunSummary struct {
	RunID     string
	Kind      string // "calibrate" or "deep"
	CreatedAt string
	Seasons   []int
	Version   int // model version for deep runs; 0 for multi-version runs
	Shots     int
	Goals     int
}
