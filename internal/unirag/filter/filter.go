// Package filter compiles structured query filters into a predicate tree
// and renders it for the vector backends.
package filter

import (
	"github.com/kart-io/unirag/internal/model"
)

// Metadata field names shared by every backend.
const (
	FieldCity        = "city"
	FieldCategory    = "category"
	FieldEntMinScore = "ent_min_score"
	FieldEntMaxScore = "ent_max_score"
)

// Predicate is a compiled filter. The set of implementations is closed.
type Predicate interface {
	// Match evaluates the predicate against chunk metadata.
	Match(m model.ChunkMetadata) bool
	predicate()
}

// CityEquals matches records located in City.
type CityEquals struct{ City string }

// CategoryEquals matches records of Category.
type CategoryEquals struct{ Category string }

// ScoreAtLeast matches records whose minimum ENT score does not exceed Score,
// i.e. an applicant with Score passes the lower bound.
type ScoreAtLeast struct{ Score int }

// ScoreAtMost matches records whose maximum ENT score is at least Score.
type ScoreAtMost struct{ Score int }

// And matches when all Terms match. It always holds two or more terms.
type And struct{ Terms []Predicate }

func (CityEquals) predicate()     {}
func (CategoryEquals) predicate() {}
func (ScoreAtLeast) predicate()   {}
func (ScoreAtMost) predicate()    {}
func (And) predicate()            {}

func (p CityEquals) Match(m model.ChunkMetadata) bool     { return m.City == p.City }
func (p CategoryEquals) Match(m model.ChunkMetadata) bool { return m.Category == p.Category }
func (p ScoreAtLeast) Match(m model.ChunkMetadata) bool   { return m.EntMinScore <= p.Score }
func (p ScoreAtMost) Match(m model.ChunkMetadata) bool    { return m.EntMaxScore >= p.Score }

func (p And) Match(m model.ChunkMetadata) bool {
	for _, t := range p.Terms {
		if !t.Match(m) {
			return false
		}
	}
	return true
}

// Compile turns filters into a predicate.
// It returns nil when no field is set, the bare term when exactly one is set,
// and an And node in the order city, category, min_score, max_score otherwise.
func Compile(f *model.Filters) Predicate {
	if f.IsZero() {
		return nil
	}

	terms := make([]Predicate, 0, 4)
	if f.City != "" {
		terms = append(terms, CityEquals{City: f.City})
	}
	if f.Category != "" {
		terms = append(terms, CategoryEquals{Category: f.Category})
	}
	if f.MinScore != 0 {
		terms = append(terms, ScoreAtLeast{Score: f.MinScore})
	}
	if f.MaxScore != 0 {
		terms = append(terms, ScoreAtMost{Score: f.MaxScore})
	}

	switch len(terms) {
	case 0:
		return nil
	case 1:
		return terms[0]
	default:
		return And{Terms: terms}
	}
}

// Leaves flattens p into its terms.
func Leaves(p Predicate) []Predicate {
	switch v := p.(type) {
	case nil:
		return nil
	case And:
		out := make([]Predicate, 0, len(v.Terms))
		for _, t := range v.Terms {
			out = append(out, Leaves(t)...)
		}
		return out
	default:
		return []Predicate{v}
	}
}
