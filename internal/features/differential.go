package features

import "github.com/pable/go-xg-metrics/internal/model"

// GoalDifferential returns the score margin from the shooting team's side.
// When scores are not known for the batch or the row, the margin is 0.
func GoalDifferential(ev model.ShotEvent, scoresKnown bool) int {
	if !scoresKnown || !ev.HasScore {
		return 0
	}
	if ev.EventOwnerTeamID == ev.HomeTeamID {
		return ev.HomeScore - ev.AwayScore
	}
	return ev.AwayScore - ev.HomeScore
}
