package features

import "github.com/pable/go-xg-metrics/internal/model"

// Inputs declares which optional columns the batch carries. It is decided once
// when the table is parsed and never re-checked per row.
type Inputs struct {
	Coords bool // xCoord and yCoord present
	Time   bool // secondsElapsedInGame present
	Score  bool // homeScore and awayScore present
}

// Assembler builds FeatureVectors for one batch of shots.
//
// Construction is the batch phase: rebound flags need every shot of a game in
// time order, so they are resolved for the whole batch up front. Assemble is the
// per-row phase and only reads those flags.
type Assembler struct {
	inputs   Inputs
	rebounds ReboundFlags
}

// NewAssembler runs the batch phase over shots.
func NewAssembler(shots []model.ShotEvent, in Inputs, workers int) *Assembler {
	return &Assembler{
		inputs:   in,
		rebounds: DetectRebounds(shots, in.Time, workers),
	}
}

// Rebounds exposes the flags computed in the batch phase.
func (a *Assembler) Rebounds() ReboundFlags {
	return a.rebounds
}

// Assemble derives the feature vector for the shot at position i of the batch
// the Assembler was built from.
func (a *Assembler) Assemble(i int, ev model.ShotEvent) model.FeatureVector {
	distance, angle := DefaultGeometry()
	if a.inputs.Coords {
		distance, angle = Geometry(ev.XCoord, ev.YCoord, ev.HasX, ev.HasY)
	}
	sit := ParseSituation(ev.SituationCode, ev.EventOwnerTeamID, ev.HomeTeamID)

	return model.FeatureVector{
		Distance:          distance,
		Angle:             angle,
		Strength:          sit.Strength,
		IsEmptyNetAgainst: sit.IsEmptyNetAgainst,
		IsRebound:         a.rebounds.IsRebound(i),
		IsRush:            IsRush(ev),
		GoalDifferential:  GoalDifferential(ev, a.inputs.Score),
		IsGoal:            ev.IsGoal(),
	}
}

// AssembleAll runs both phases and returns one vector per shot, in input order.
func AssembleAll(shots []model.ShotEvent, in Inputs, workers int) []model.FeatureVector {
	a := NewAssembler(shots, in, workers)
	out := make([]model.FeatureVector, len(shots))
	for i, s := range shots {
		out[i] = a.Assemble(i, s)
	}
	return out
}
