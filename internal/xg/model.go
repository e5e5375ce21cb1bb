// Package xg evaluates the versioned logistic expected-goals models.
package xg

import (
	"errors"
	"fmt"
	"math"

	"github.com/pable/go-xg-metrics/internal/model"
)

// ErrUnknownVersion is returned by Lookup for versions other than 1, 2 and 3.
var ErrUnknownVersion = errors.New("unknown model version")

// Feature names a model input. The values double as coefficient labels in
// reports and exported documents.
type Feature string

const (
	Distance         Feature = "distance"
	Angle            Feature = "angle"
	EmptyNet         Feature = "empty_net"
	PenaltyKill      Feature = "penalty_kill"
	PowerPlay        Feature = "power_play"
	Rebound          Feature = "rebound"
	Rush             Feature = "rush"
	GoalDifferential Feature = "goal_differential"
)

// Features lists every feature in coefficient-table order.
var Features = []Feature{Distance, Angle, EmptyNet, PenaltyKill, PowerPlay, Rebound, Rush, GoalDifferential}

// Value extracts the numeric input for f from fv. Indicators are 0 or 1.
func (f Feature) Value(fv model.FeatureVector) float64 {
	switch f {
	case Distance:
		return fv.Distance
	case Angle:
		return fv.Angle
	case EmptyNet:
		return indicator(fv.IsEmptyNetAgainst)
	case PenaltyKill:
		return indicator(fv.Strength == model.PenaltyKill)
	case PowerPlay:
		return indicator(fv.Strength == model.PowerPlay)
	case Rebound:
		return indicator(fv.IsRebound)
	case Rush:
		return indicator(fv.IsRush)
	case GoalDifferential:
		return float64(fv.GoalDifferential)
	}
	return 0
}

func indicator(b bool) float64 {
	if b {
		return 1
	}
	return 0
}

// Term is one weighted input of a model.
type Term struct {
	Feature Feature
	Weight  float64
}

// Model is a logistic model: P(goal) = sigmoid(Intercept + Σ w·x).
type Model struct {
	Version   int
	Intercept float64
	Terms     []Term
}

// Name is the short label used in tables, e.g. "v3".
func (m Model) Name() string {
	return fmt.Sprintf("v%d", m.Version)
}

// Weight returns the coefficient for f, and false when the model has no such term.
func (m Model) Weight(f Feature) (float64, bool) {
	for _, t := range m.Terms {
		if t.Feature == f {
			return t.Weight, true
		}
	}
	return 0, false
}

// LinearPredictor returns the log-odds for fv.
func (m Model) LinearPredictor(fv model.FeatureVector) float64 {
	z := m.Intercept
	for _, t := range m.Terms {
		z += t.Weight * t.Feature.Value(fv)
	}
	return z
}

// Bounds for Predict. The sigmoid saturates to exactly 0 or 1 in float64 for
// large |z|; a probability must stay strictly inside (0, 1).
var (
	minProb = math.SmallestNonzeroFloat64
	maxProb = math.Nextafter(1, 0)
)

// Predict returns the scoring probability for fv.
func (m Model) Predict(fv model.FeatureVector) float64 {
	p := sigmoid(m.LinearPredictor(fv))
	return math.Min(math.Max(p, minProb), maxProb)
}

func sigmoid(z float64) float64 {
	if z >= 0 {
		return 1 / (1 + math.Exp(-z))
	}
	e := math.Exp(z)
	return e / (1 + e)
}

// Lookup resolves a version number to its model.
func Lookup(version int) (Model, error) {
	for _, m := range Models() {
		if m.Version == version {
			return m, nil
		}
	}
	return Model{}, fmt.Errorf("lookup v%d: %w", version, ErrUnknownVersion)
}

// Models returns every model version in ascending order.
func Models() []Model {
	return []Model{V1, V2, V3}
}

// Versions returns the known version numbers in ascending order.
func Versions() []int {
	ms := Models()
	out := make([]int, len(ms))
	for i, m := range ms {
		out[i] = m.Version
	}
	return out
}

// PredictAll evaluates every model in ms and returns version -> probability.
func PredictAll(ms []Model, fv model.FeatureVector) map[int]float64 {
	out := make(map[int]float64, len(ms))
	for _, m := range ms {
		out[m.Version] = m.Predict(fv)
	}
	return out
}
