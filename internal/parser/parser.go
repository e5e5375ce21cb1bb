package parser

import (
	"crypto/sha256"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"strconv"
	"strings"

	"github.com/pable/go-xg-metrics/internal/features"
	"github.com/pable/go-xg-metrics/internal/model"
)

// ErrMissingColumn is returned when a required column is absent from the header.
var ErrMissingColumn = errors.New("missing required column")

// Column names in the play-by-play header.
const (
	colGameID    = "gameId"
	colEventID   = "eventId"
	colType      = "typeDescKey"
	colSituation = "situationCode"
	colOwnerTeam = "eventOwnerTeamId"
	colHomeTeam  = "homeTeamId"
	colX         = "xCoord"
	colY         = "yCoord"
	colSeconds   = "secondsElapsedInGame"
	colHomeScore = "homeScore"
	colAwayScore = "awayScore"
	colShotType  = "shotType"
)

// RequiredColumns must be present in every table.
var RequiredColumns = []string{colGameID, colType, colSituation, colOwnerTeam, colHomeTeam}

// ShotTypes are the event types kept as shot attempts.
var ShotTypes = map[string]bool{
	model.TypeGoal:        true,
	model.TypeShotOnGoal:  true,
	model.TypeMissedShot:  true,
	model.TypeBlockedShot: true,
}

// ExcludedSituations are shootout and penalty-shot codes.
var ExcludedSituations = map[string]bool{
	"0101": true,
	"1010": true,
}

// Table is the parsed shot-attempt subset of one play-by-play file.
type Table struct {
	Season      int
	Inputs      features.Inputs // optional columns present in the header
	HasShotType bool
	TotalEvents int               // data rows read, shots or not
	Shots       []model.ShotEvent // rows whose type is a shot attempt, in file order
	Digest      string            // sha256 of the raw (decompressed) bytes
}

// ParseFile opens path and parses it as an uncompressed CSV table.
func ParseFile(path string, season int) (*Table, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open table: %w", err)
	}
	defer f.Close()
	return ParseShots(f, season)
}

// ParseShots reads a CSV play-by-play table and keeps the shot-attempt rows.
// Cells that fail to parse are treated as blank.
func ParseShots(r io.Reader, season int) (*Table, error) {
	// Hash while reading so the digest covers exactly what was parsed.
	h := sha256.New()
	cr := csv.NewReader(io.TeeReader(r, h))
	cr.FieldsPerRecord = -1
	cr.LazyQuotes = true
	cr.ReuseRecord = true

	header, err := cr.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("read header: empty table")
		}
		return nil, fmt.Errorf("read header: %w", err)
	}
	idx := indexColumns(header)
	for _, c := range RequiredColumns {
		if _, ok := idx[c]; !ok {
			return nil, fmt.Errorf("parse header: %w: %s", ErrMissingColumn, c)
		}
	}

	t := &Table{
		Season: season,
		Inputs: features.Inputs{
			Coords: has(idx, colX) && has(idx, colY),
			Time:   has(idx, colSeconds),
			Score:  has(idx, colHomeScore) && has(idx, colAwayScore),
		},
		HasShotType: has(idx, colShotType),
	}
	_, hasEventID := idx[colEventID]

	for {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read row %d: %w", t.TotalEvents+2, err)
		}
		t.TotalEvents++

		cell := func(name string) string {
			i, ok := idx[name]
			if !ok || i >= len(rec) {
				return ""
			}
			return strings.TrimSpace(rec[i])
		}

		typ := cell(colType)
		if !ShotTypes[typ] {
			continue
		}

		ev := model.ShotEvent{
			GameID:           normalizeID(cell(colGameID)),
			Season:           season,
			TypeDescKey:      typ,
			SituationCode:    NormalizeSituation(cell(colSituation)),
			EventOwnerTeamID: normalizeID(cell(colOwnerTeam)),
			HomeTeamID:       normalizeID(cell(colHomeTeam)),
			ShotType:         cell(colShotType),
		}

		ev.EventID = int64(t.TotalEvents)
		if hasEventID {
			if id, ok := parseInt(cell(colEventID)); ok {
				ev.EventID = int64(id)
			}
		}
		if t.Inputs.Coords {
			ev.XCoord, ev.HasX = parseFloat(cell(colX))
			ev.YCoord, ev.HasY = parseFloat(cell(colY))
		}
		if t.Inputs.Time {
			ev.SecondsElapsedInGame, ev.HasTime = parseInt(cell(colSeconds))
		}
		if t.Inputs.Score {
			home, okH := parseInt(cell(colHomeScore))
			away, okA := parseInt(cell(colAwayScore))
			if okH && okA {
				ev.HomeScore, ev.AwayScore, ev.HasScore = home, away, true
			}
		}

		t.Shots = append(t.Shots, ev)
	}

	t.Digest = fmt.Sprintf("%x", h.Sum(nil))
	return t, nil
}

// FilterShots keeps shot attempts with a situation code that is not a
// shootout or penalty shot.
func FilterShots(shots []model.ShotEvent) []model.ShotEvent {
	out := make([]model.ShotEvent, 0, len(shots))
	for _, s := range shots {
		if !ShotTypes[s.TypeDescKey] {
			continue
		}
		if s.SituationCode == "" || ExcludedSituations[s.SituationCode] {
			continue
		}
		out = append(out, s)
	}
	return out
}

// NormalizeSituation zero-pads numeric codes to four digits ("651" -> "0651",
// "1551.0" -> "1551"). Non-numeric codes are returned unchanged and blank stays blank.
func NormalizeSituation(code string) string {
	if code == "" {
		return ""
	}
	n, ok := parseInt(code)
	if !ok || n < 0 {
		return code
	}
	return fmt.Sprintf("%04d", n)
}

func indexColumns(header []string) map[string]int {
	idx := make(map[string]int, len(header))
	for i, h := range header {
		h = strings.TrimSpace(strings.TrimPrefix(h, "\ufeff"))
		if _, dup := idx[h]; !dup {
			idx[h] = i
		}
	}
	return idx
}

func has(idx map[string]int, col string) bool {
	_, ok := idx[col]
	return ok
}

// normalizeID renders integral numeric IDs without a fraction ("10.0" -> "10").
func normalizeID(s string) string {
	if n, ok := parseInt(s); ok {
		return strconv.Itoa(n)
	}
	return s
}

func parseFloat(s string) (float64, bool) {
	if s == "" {
		return 0, false
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, false
	}
	return v, true
}

// parseInt accepts integers written as floats, as exported by dataframe tools.
func parseInt(s string) (int, bool) {
	if s == "" {
		return 0, false
	}
	if n, err := strconv.Atoi(s); err == nil {
		return n, true
	}
	v, ok := parseFloat(s)
	if !ok || v != math.Trunc(v) {
		return 0, false
	}
	return int(v), true
}
