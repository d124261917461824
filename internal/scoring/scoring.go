// Package scoring derives fallback energy and valence scores from
// free-text genre tags. The tables are domain calibration data: they are
// versioned constants, overridable through configuration, and a tag list
// that matches nothing scores the neutral default.
package scoring

import (
	"maps"
	"strings"
)

// NeutralScore is returned when no tag matches the table, and is the
// documented default for unscoreable artists.
const NeutralScore = 0.5

// Table maps a lowercase tag substring to a score in [0,1].
type Table map[string]float64

// EnergyTableV1 is the first calibrated tag-to-energy table.
var EnergyTableV1 = Table{
	"death":    1.0,
	"metal":    0.9,
	"punk":     0.9,
	"rock":     0.7,
	"pop":      0.6,
	"acoustic": 0.2,
}

// ValenceTableV1 is the first calibrated tag-to-valence table.
var ValenceTableV1 = Table{
	"happy": 0.9,
	"party": 0.9,
	"pop":   0.8,
	"sad":   0.2,
	"dark":  0.15,
	"doom":  0.1,
	"metal": 0.3,
}

// Scorer scores tag lists against an energy and a valence table.
type Scorer struct {
	energy  Table
	valence Table
}

// NewScorer builds a scorer from the given tables. Nil or empty tables
// select the built-in V1 tables, so configuration can override either
// table independently.
func NewScorer(energy, valence map[string]float64) *Scorer {
	s := &Scorer{
		energy:  EnergyTableV1,
		valence: ValenceTableV1,
	}
	if len(energy) > 0 {
		s.energy = normalizeTable(energy)
	}
	if len(valence) > 0 {
		s.valence = normalizeTable(valence)
	}
	return s
}

func normalizeTable(m map[string]float64) Table {
	t := make(Table, len(m))
	for k, v := range m {
		t[strings.ToLower(strings.TrimSpace(k))] = v
	}
	return t
}

// Energy averages energy-table matches across the tags.
func (s *Scorer) Energy(tags []string) float64 {
	return Score(tags, s.energy)
}

// Valence averages valence-table matches across the tags.
func (s *Scorer) Valence(tags []string) float64 {
	return Score(tags, s.valence)
}

// Score averages every table entry whose key occurs as a substring of
// any tag. Unmatched tags contribute nothing; no matches at all yields
// NeutralScore.
func Score(tags []string, table Table) float64 {
	var sum float64
	var hits int
	for key, value := range table {
		for _, tag := range tags {
			if strings.Contains(strings.ToLower(tag), key) {
				sum += value
				hits++
			}
		}
	}
	if hits == 0 {
		return NeutralScore
	}
	return sum / float64(hits)
}

// Tables returns copies of the active tables, for diagnostics.
func (s *Scorer) Tables() (energy, valence Table) {
	return maps.Clone(s.energy), maps.Clone(s.valence)
}
