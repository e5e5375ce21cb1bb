package features

import (
	"runtime"
	"sort"

	"golang.org/x/sync/errgroup"

	"github.com/pable/go-xg-metrics/internal/model"
)

// ReboundWindowSeconds is the inclusive gap after a previous shot in the same
// game within which an attempt counts as a rebound.
const ReboundWindowSeconds = 3

// ReboundFlags is the immutable result of the rebound pass, indexed like the
// batch it was computed from. Event IDs are not unique enough to key on.
type ReboundFlags struct {
	flags []bool
	count int
}

// IsRebound reports whether the shot at position i of the batch was flagged.
func (f ReboundFlags) IsRebound(i int) bool {
	return i >= 0 && i < len(f.flags) && f.flags[i]
}

// Len returns the number of flagged shots.
func (f ReboundFlags) Len() int {
	return f.count
}

type timedShot struct {
	pos int // index in the batch
	t   int
}

// DetectRebounds flags every shot that follows the previous shot of the same
// game by at most ReboundWindowSeconds. Each game is sorted by elapsed time and
// scanned once; games are independent and run on up to workers goroutines.
// Without a time column nothing is flagged. Rows lacking a timestamp are left
// out of their game's sequence.
func DetectRebounds(shots []model.ShotEvent, hasTime bool, workers int) ReboundFlags {
	if !hasTime || len(shots) == 0 {
		return ReboundFlags{}
	}
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}

	// Group by game, keeping first-seen order so output is deterministic.
	byGame := make(map[string][]timedShot)
	var games []string
	for i, s := range shots {
		if !s.HasTime {
			continue
		}
		if _, ok := byGame[s.GameID]; !ok {
			games = append(games, s.GameID)
		}
		byGame[s.GameID] = append(byGame[s.GameID], timedShot{pos: i, t: s.SecondsElapsedInGame})
	}

	perGame := make([][]int, len(games))
	var g errgroup.Group
	g.SetLimit(workers)
	for i, id := range games {
		g.Go(func() error {
			perGame[i] = reboundsInGame(byGame[id])
			return nil
		})
	}
	_ = g.Wait()

	out := ReboundFlags{flags: make([]bool, len(shots))}
	for _, positions := range perGame {
		for _, pos := range positions {
			out.flags[pos] = true
			out.count++
		}
	}
	return out
}

// reboundsInGame sorts one game's shots by time (ties keep input order) and
// returns the batch positions of those within the window of their predecessor.
func reboundsInGame(shots []timedShot) []int {
	sort.SliceStable(shots, func(i, j int) bool {
		return shots[i].t < shots[j].t
	})
	var out []int
	for i := 1; i < len(shots); i++ {
		if shots[i].t-shots[i-1].t <= ReboundWindowSeconds {
			out = append(out, shots[i].pos)
		}
	}
	return out
}

// IsRush always reports false: zone entries are not tracked, but the model
// versions that carry a rush term still need the slot.
func IsRush(model.ShotEvent) bool {
	return false
}
