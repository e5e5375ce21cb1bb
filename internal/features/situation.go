// Package features turns play-by-play shot events into model feature vectors.
package features

import "github.com/pable/go-xg-metrics/internal/model"

// Situation is the decoded context of one shot.
type Situation struct {
	Strength          model.StrengthState
	IsEmptyNetAgainst bool
}

// ParseSituation decodes a 4-digit situation code from the shooter's perspective.
// Digits are away goalie (0/1), away skaters, home skaters, home goalie (0/1).
// A malformed code yields even strength with the goalie in; it never fails.
func ParseSituation(code, shooterTeamID, homeTeamID string) Situation {
	digits, ok := situationDigits(code)
	if !ok {
		return Situation{Strength: model.EvenStrength}
	}
	awayGoalie, awaySkaters, homeSkaters, homeGoalie := digits[0], digits[1], digits[2], digits[3]

	isHome := shooterTeamID == homeTeamID
	teamSkaters, oppSkaters := awaySkaters, homeSkaters
	oppGoalie := homeGoalie
	if isHome {
		teamSkaters, oppSkaters = homeSkaters, awaySkaters
		oppGoalie = awayGoalie
	}

	s := Situation{IsEmptyNetAgainst: oppGoalie == 0}
	switch {
	case teamSkaters > oppSkaters:
		s.Strength = model.PowerPlay
	case teamSkaters < oppSkaters:
		s.Strength = model.PenaltyKill
	default:
		s.Strength = model.EvenStrength
	}
	return s
}

func situationDigits(code string) ([4]int, bool) {
	var d [4]int
	if len(code) != 4 {
		return d, false
	}
	for i := 0; i < 4; i++ {
		c := code[i]
		if c < '0' || c > '9' {
			return d, false
		}
		d[i] = int(c - '0')
	}
	return d, true
}
