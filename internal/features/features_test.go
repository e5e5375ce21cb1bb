package features

import (
	"fmt"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pable/go-xg-metrics/internal/model"
)

// IDs for test teams.
const (
	homeTeam = "10"
	awayTeam = "6"
)

// makeShot creates a minimal timed shot in the given game.
func makeShot(game string, eventID int64, t int) model.ShotEvent {
	return model.ShotEvent{
		GameID:               game,
		EventID:              eventID,
		TypeDescKey:          model.TypeShotOnGoal,
		SituationCode:        "1551",
		EventOwnerTeamID:     homeTeam,
		HomeTeamID:           homeTeam,
		SecondsElapsedInGame: t,
		HasTime:              true,
	}
}

// makeGame creates one shot per timestamp, event IDs 1..n.
func makeGame(game string, times ...int) []model.ShotEvent {
	shots := make([]model.ShotEvent, len(times))
	for i, t := range times {
		shots[i] = makeShot(game, int64(i+1), t)
	}
	return shots
}

func reboundFlags(shots []model.ShotEvent, f ReboundFlags) []bool {
	out := make([]bool, len(shots))
	for i := range shots {
		out[i] = f.IsRebound(i)
	}
	return out
}

// ---- Situation code ----

// TestParseSituation_EnumeratesAllCodes: every valid code maps to exactly one
// state, and even strength iff skater counts match.
func TestParseSituation_EnumeratesAllCodes(t *testing.T) {
	for ag := 0; ag <= 1; ag++ {
		for as := 0; as <= 9; as++ {
			for hs := 0; hs <= 9; hs++ {
				for hg := 0; hg <= 1; hg++ {
					code := fmt.Sprintf("%d%d%d%d", ag, as, hs, hg)
					for _, shooter := range []string{homeTeam, awayTeam} {
						got := ParseSituation(code, shooter, homeTeam)
						team, opp := as, hs
						if shooter == homeTeam {
							team, opp = hs, as
						}
						assert.Contains(t, model.StrengthStates, got.Strength, code)
						assert.Equal(t, team == opp, got.Strength == model.EvenStrength, code)
						if team > opp {
							assert.Equal(t, model.PowerPlay, got.Strength, code)
						}
						if team < opp {
							assert.Equal(t, model.PenaltyKill, got.Strength, code)
						}
					}
				}
			}
		}
	}
}

// TestParseSituation_HomeShooterShortHanded: "0651" home shooter is 5 vs 6 with the away net empty.
func TestParseSituation_HomeShooterShortHanded(t *testing.T) {
	got := ParseSituation("0651", homeTeam, homeTeam)
	assert.Equal(t, model.PenaltyKill, got.Strength)
	assert.True(t, got.IsEmptyNetAgainst)
}

// TestParseSituation_AwayShooterUsesHomeGoalie: the away shooter looks at the home goalie digit.
func TestParseSituation_AwayShooterUsesHomeGoalie(t *testing.T) {
	got := ParseSituation("0651", awayTeam, homeTeam)
	assert.Equal(t, model.PowerPlay, got.Strength)
	assert.False(t, got.IsEmptyNetAgainst, "home goalie is in")

	got = ParseSituation("1560", awayTeam, homeTeam)
	assert.Equal(t, model.PenaltyKill, got.Strength)
	assert.True(t, got.IsEmptyNetAgainst)
}

// TestParseSituation_MalformedDefaults: bad codes fall back to even strength, goalie in.
func TestParseSituation_MalformedDefaults(t *testing.T) {
	for _, code := range []string{"", "151", "15510", "1a51", "    ", "-551"} {
		got := ParseSituation(code, homeTeam, homeTeam)
		assert.Equal(t, model.EvenStrength, got.Strength, "code %q", code)
		assert.False(t, got.IsEmptyNetAgainst, "code %q", code)
	}
}

// ---- Geometry ----

func TestGeometry_Example(t *testing.T) {
	d, a := Geometry(80, 10, true, true)
	assert.InDelta(t, 13.4536, d, 1e-4)
	assert.InDelta(t, 48.0128, a, 1e-4)
}

// TestGeometry_MirrorsDefendingSide: x=-80 is the same shot as x=80.
func TestGeometry_MirrorsDefendingSide(t *testing.T) {
	d1, a1 := Geometry(80, -10, true, true)
	d2, a2 := Geometry(-80, 10, true, true)
	assert.Equal(t, d1, d2)
	assert.Equal(t, a1, a2)
}

func TestGeometry_MissingY(t *testing.T) {
	d, a := Geometry(59, 0, true, false)
	assert.InDelta(t, 30.0, d, 1e-9)
	assert.Equal(t, 0.0, a)
}

func TestGeometry_MissingXUsesDefaults(t *testing.T) {
	d, a := Geometry(0, 12, false, true)
	assert.Equal(t, DefaultDistance, d)
	assert.Equal(t, DefaultAngle, a)
}

// TestGeometry_AngleRange: shots from in front of the goal line stay within [0, 90].
func TestGeometry_AngleRange(t *testing.T) {
	for x := -89.0; x <= 89; x += 7 {
		for y := -42.0; y <= 42; y += 6 {
			d, a := Geometry(x, y, true, true)
			assert.GreaterOrEqual(t, d, 0.0)
			assert.GreaterOrEqual(t, a, 0.0)
			assert.LessOrEqual(t, a, 90.0)
		}
	}
}

// ---- Goal differential ----

func TestGoalDifferential(t *testing.T) {
	ev := model.ShotEvent{EventOwnerTeamID: homeTeam, HomeTeamID: homeTeam, HomeScore: 3, AwayScore: 1, HasScore: true}
	assert.Equal(t, 2, GoalDifferential(ev, true))

	ev.EventOwnerTeamID = awayTeam
	assert.Equal(t, -2, GoalDifferential(ev, true))

	assert.Equal(t, 0, GoalDifferential(ev, false), "no score columns")

	ev.HasScore = false
	assert.Equal(t, 0, GoalDifferential(ev, true), "blank score cell")
}

// TestGeometry_BehindGoalLine: past the goal line the angle opens beyond 90°.
func TestGeometry_BehindGoalLine(t *testing.T) {
	distance, angle := Geometry(-95, 6, true, true)
	assert.InDelta(t, math.Hypot(6, 6), distance, 1e-9)
	assert.InDelta(t, 135.0, angle, 1e-9)
}

// ---- Rebounds ----

// TestDetectRebounds_Window: t = {0,3,7,10} -> {F,T,F,T}; the 3s gap is inclusive.
func TestDetectRebounds_Window(t *testing.T) {
	shots := makeGame("g1", 0, 3, 7, 10)
	flags := DetectRebounds(shots, true, 1)
	assert.Equal(t, []bool{false, true, false, true}, reboundFlags(shots, flags))
}

// TestDetectRebounds_UnsortedInput: flags follow time order, not row order.
func TestDetectRebounds_UnsortedInput(t *testing.T) {
	shots := []model.ShotEvent{
		makeShot("g1", 1, 10),
		makeShot("g1", 2, 0),
		makeShot("g1", 3, 7),
		makeShot("g1", 4, 3),
	}
	flags := DetectRebounds(shots, true, 2)
	assert.Equal(t, []bool{true, false, false, true}, reboundFlags(shots, flags))
}

// TestDetectRebounds_EqualTimestamps: a tie counts as a rebound for the later row.
func TestDetectRebounds_EqualTimestamps(t *testing.T) {
	shots := makeGame("g1", 100, 100)
	flags := DetectRebounds(shots, true, 1)
	assert.Equal(t, []bool{false, true}, reboundFlags(shots, flags))
}

// TestDetectRebounds_DoesNotCrossGames: the first shot of a game is never a rebound.
func TestDetectRebounds_DoesNotCrossGames(t *testing.T) {
	shots := append(makeGame("g1", 50), makeGame("g2", 51)...)
	flags := DetectRebounds(shots, true, 4)
	assert.Equal(t, 0, flags.Len())
}

func TestDetectRebounds_NoTimeColumn(t *testing.T) {
	shots := makeGame("g1", 0, 1, 2)
	flags := DetectRebounds(shots, false, 1)
	assert.Equal(t, 0, flags.Len())
}

// TestDetectRebounds_SkipsUntimedRows: a row without a timestamp neither gets
// flagged nor breaks the sequence around it.
func TestDetectRebounds_SkipsUntimedRows(t *testing.T) {
	shots := makeGame("g1", 0, 99, 2)
	shots[1].HasTime = false
	flags := DetectRebounds(shots, true, 1)
	assert.Equal(t, []bool{false, false, true}, reboundFlags(shots, flags))
}

// TestDetectRebounds_ParallelMatchesSerial: the worker count does not change the result.
func TestDetectRebounds_ParallelMatchesSerial(t *testing.T) {
	var shots []model.ShotEvent
	for g := 0; g < 40; g++ {
		shots = append(shots, makeGame(fmt.Sprintf("g%d", g), 0, g%5, 9, 11, 30, 31+g%3)...)
	}
	serial := reboundFlags(shots, DetectRebounds(shots, true, 1))
	parallel := reboundFlags(shots, DetectRebounds(shots, true, 8))
	assert.Equal(t, serial, parallel)
}

// TestDetectRebounds_DuplicateEventIDs: shots sharing an event ID keep their
// own flags.
func TestDetectRebounds_DuplicateEventIDs(t *testing.T) {
	shots := []model.ShotEvent{
		makeShot("g1", 10, 100),
		makeShot("g1", 2, 102),
		makeShot("g1", 2, 500),
	}
	flags := DetectRebounds(shots, true, 1)
	assert.Equal(t, []bool{false, true, false}, reboundFlags(shots, flags))
	assert.Equal(t, 1, flags.Len())
	assert.False(t, flags.IsRebound(-1))
	assert.False(t, flags.IsRebound(3))
}

// ---- Assembler ----

func TestAssembleAll(t *testing.T) {
	shots := makeGame("g1", 0, 2)
	shots[0].XCoord, shots[0].YCoord, shots[0].HasX, shots[0].HasY = -80, 10, true, true
	shots[1].XCoord, shots[1].YCoord, shots[1].HasX, shots[1].HasY = 80, 10, true, true
	shots[1].TypeDescKey = model.TypeGoal
	shots[1].SituationCode = "0651"
	shots[1].HomeScore, shots[1].AwayScore, shots[1].HasScore = 1, 2, true

	fvs := AssembleAll(shots, Inputs{Coords: true, Time: true, Score: true}, 2)
	require.Len(t, fvs, 2)

	assert.False(t, fvs[0].IsRebound)
	assert.False(t, fvs[0].IsGoal)
	assert.Equal(t, model.EvenStrength, fvs[0].Strength)

	second := fvs[1]
	assert.InDelta(t, 13.45, second.Distance, 0.01)
	assert.InDelta(t, 48.0, second.Angle, 0.05)
	assert.Equal(t, model.PenaltyKill, second.Strength)
	assert.True(t, second.IsEmptyNetAgainst)
	assert.True(t, second.IsRebound)
	assert.False(t, second.IsRush)
	assert.Equal(t, -1, second.GoalDifferential)
	assert.True(t, second.IsGoal)
}

// TestAssemble_MissingOptionalColumns: every optional input falls back to its default.
func TestAssemble_MissingOptionalColumns(t *testing.T) {
	shots := makeGame("g1", 0, 1)
	shots[1].XCoord, shots[1].HasX = 80, true
	shots[1].HomeScore, shots[1].HasScore = 4, true

	a := NewAssembler(shots, Inputs{}, 1)
	fv := a.Assemble(1, shots[1])
	assert.Equal(t, DefaultDistance, fv.Distance)
	assert.Equal(t, DefaultAngle, fv.Angle)
	assert.False(t, fv.IsRebound)
	assert.Equal(t, 0, fv.GoalDifferential)
	assert.Equal(t, 0, a.Rebounds().Len())
}
