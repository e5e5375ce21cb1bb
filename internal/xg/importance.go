package xg

import "math"

// CoefficientRow is one feature's weight in every model version. Weights holds
// nil where a version has no such term.
type CoefficientRow struct {
	Feature Feature             `json:"feature"`
	Label   string              `json:"label"`
	Weights map[string]*float64 `json:"weights"` // "v1" -> weight
}

// OddsRatio is the multiplicative change in scoring odds for a unit step of a
// feature. Distance and angle are stepped by -10 (closer, straighter), the rest by +1.
type OddsRatio struct {
	Feature Feature `json:"feature"`
	Label   string  `json:"label"`
	Step    float64 `json:"step"`
	Ratio   float64 `json:"odds_ratio"`
}

// Importance is the feature-importance block of a result document.
type Importance struct {
	Coefficients []CoefficientRow `json:"coefficients"`
	OddsVersion  int              `json:"odds_version"`
	OddsRatios   []OddsRatio      `json:"odds_ratios"`
}

var featureLabels = map[Feature]string{
	Distance:         "Distance",
	Angle:            "Angle",
	EmptyNet:         "Empty Net",
	PenaltyKill:      "Penalty Kill",
	PowerPlay:        "Power Play",
	Rebound:          "Rebound",
	Rush:             "Rush",
	GoalDifferential: "Goal Differential",
}

// Label is the display name for f.
func (f Feature) Label() string {
	if l, ok := featureLabels[f]; ok {
		return l
	}
	return string(f)
}

// oddsStep is the unit change used for f's odds ratio.
func oddsStep(f Feature) float64 {
	switch f {
	case Distance, Angle:
		return -10
	default:
		return 1
	}
}

// CoefficientTable lays out every feature's weight across ms.
func CoefficientTable(ms []Model) []CoefficientRow {
	rows := make([]CoefficientRow, 0, len(Features))
	for _, f := range Features {
		row := CoefficientRow{Feature: f, Label: f.Label(), Weights: make(map[string]*float64, len(ms))}
		for _, m := range ms {
			if w, ok := m.Weight(f); ok {
				row.Weights[m.Name()] = &w
			} else {
				row.Weights[m.Name()] = nil
			}
		}
		rows = append(rows, row)
	}
	return rows
}

// OddsRatios returns exp(w·step) for every term of m, in term order.
func OddsRatios(m Model) []OddsRatio {
	out := make([]OddsRatio, 0, len(m.Terms))
	for _, t := range m.Terms {
		step := oddsStep(t.Feature)
		label := t.Feature.Label()
		switch t.Feature {
		case Distance, Angle:
			label += " (-10)"
		case GoalDifferential:
			label += " (+1)"
		}
		out = append(out, OddsRatio{
			Feature: t.Feature,
			Label:   label,
			Step:    step,
			Ratio:   math.Exp(t.Weight * step),
		})
	}
	return out
}

// FeatureImportance builds the coefficient table for every version plus the
// odds ratios of the latest one.
func FeatureImportance() Importance {
	ms := Models()
	latest := ms[len(ms)-1]
	return Importance{
		Coefficients: CoefficientTable(ms),
		OddsVersion:  latest.Version,
		OddsRatios:   OddsRatios(latest),
	}
}
