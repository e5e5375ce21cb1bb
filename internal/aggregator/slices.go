package aggregator

import (
	"sort"

	"github.com/pable/go-xg-metrics/internal/model"
)

// Slice names, used as keys in CalibrationReport.Slices.
const (
	ByStrength = "by_strength"
	ByEmptyNet = "by_empty_net"
	ByRebound  = "by_rebound"
	ByDistance = "by_distance"
	ByAngle    = "by_angle"
	ByShotType = "by_shot_type"
)

// SliceOrder lists the slice names in report order.
var SliceOrder = []string{ByStrength, ByEmptyNet, ByRebound, ByDistance, ByAngle, ByShotType}

// band is a half-open range (lo, hi] except the first band, which includes lo.
type band struct {
	label  string
	lo, hi float64
}

var distanceBands = []band{
	{"0-10ft", 0, 10},
	{"10-20ft", 10, 20},
	{"20-30ft", 20, 30},
	{"30-40ft", 30, 40},
	{"40-50ft", 40, 50},
	{"50+ft", 50, 100},
}

var angleBands = []band{
	{"0-15°", 0, 15},
	{"15-30°", 15, 30},
	{"30-45°", 30, 45},
	{"45-60°", 45, 60},
	{"60-90°", 60, 90},
}

// bandLabel returns the label of the band containing v, or "" when v lies
// outside every band.
func bandLabel(bands []band, v float64) string {
	for i, b := range bands {
		if v <= b.hi && (v > b.lo || (i == 0 && v >= b.lo)) {
			return b.label
		}
	}
	return ""
}

// sliceAccum collects one category's running totals.
type sliceAccum struct {
	shots, goals int
	xg           float64
}

func (a *sliceAccum) add(o Observation) {
	a.shots++
	a.xg += o.Predicted
	if o.Goal {
		a.goals++
	}
}

func (a *sliceAccum) stats(category string) model.SliceStats {
	n := float64(a.shots)
	actual := float64(a.goals) / n
	mean := a.xg / n
	return model.SliceStats{
		Category:       category,
		Shots:          a.shots,
		Goals:          a.goals,
		ActualRate:     actual,
		PredictedMean:  mean,
		PredictedTotal: a.xg,
		Error:          actual - mean,
	}
}

// grouping accumulates observations by category label in a fixed order.
type grouping struct {
	order []string
	accum map[string]*sliceAccum
}

func newGrouping(order ...string) *grouping {
	return &grouping{order: order, accum: make(map[string]*sliceAccum)}
}

func (g *grouping) add(category string, o Observation) {
	if category == "" {
		return
	}
	a, ok := g.accum[category]
	if !ok {
		a = &sliceAccum{}
		g.accum[category] = a
	}
	a.add(o)
}

// rows returns stats for the categories that were seen, in g.order.
func (g *grouping) rows() []model.SliceStats {
	var out []model.SliceStats
	for _, c := range g.order {
		if a, ok := g.accum[c]; ok {
			out = append(out, a.stats(c))
		}
	}
	return out
}

// Labels for the boolean slices.
const (
	labelGoalieIn   = "goalie-in"
	labelEmptyNet   = "empty-net"
	labelNonRebound = "non-rebound"
	labelRebound    = "rebound"
)

// Slices groups observations by each attribute. Categories with no shots are
// absent. The shot-type slice is present only when some shot carries a type.
func Slices(obs []Observation) map[string][]model.SliceStats {
	strengthOrder := make([]string, len(model.StrengthStates))
	for i, s := range model.StrengthStates {
		strengthOrder[i] = s.String()
	}

	strength := newGrouping(strengthOrder...)
	emptyNet := newGrouping(labelGoalieIn, labelEmptyNet)
	rebound := newGrouping(labelNonRebound, labelRebound)
	distance := newGrouping(labels(distanceBands)...)
	angle := newGrouping(labels(angleBands)...)
	shotType := newGrouping()

	for _, o := range obs {
		strength.add(o.Strength.String(), o)
		emptyNet.add(pick(o.EmptyNet, labelEmptyNet, labelGoalieIn), o)
		rebound.add(pick(o.Rebound, labelRebound, labelNonRebound), o)
		distance.add(bandLabel(distanceBands, o.Distance), o)
		angle.add(bandLabel(angleBands, o.Angle), o)
		shotType.add(o.ShotType, o)
	}

	out := map[string][]model.SliceStats{
		ByStrength: strength.rows(),
		ByEmptyNet: emptyNet.rows(),
		ByRebound:  rebound.rows(),
		ByDistance: distance.rows(),
		ByAngle:    angle.rows(),
	}

	// Shot types have no natural order: most frequent first, then by name.
	if len(shotType.accum) > 0 {
		for c := range shotType.accum {
			shotType.order = append(shotType.order, c)
		}
		sort.Slice(shotType.order, func(i, j int) bool {
			a, b := shotType.order[i], shotType.order[j]
			if na, nb := shotType.accum[a].shots, shotType.accum[b].shots; na != nb {
				return na > nb
			}
			return a < b
		})
		out[ByShotType] = shotType.rows()
	}
	return out
}

func labels(bands []band) []string {
	out := make([]string, len(bands))
	for i, b := range bands {
		out[i] = b.label
	}
	return out
}

func pick(cond bool, yes, no string) string {
	if cond {
		return yes
	}
	return no
}
