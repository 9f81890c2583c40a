package model

import (
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/kart-io/unirag/pkg/utils/json"
)

// ErrUnknownFilter is returned when a filters object carries a key outside
// city, category, min_score and max_score.
var ErrUnknownFilter = errors.New("unknown filter")

var filterKeys = map[string]struct{}{
	"city":      {},
	"category":  {},
	"min_score": {},
	"max_score": {},
}

// Filters restricts a query to matching universities.
// Zero values mean the field is not set.
type Filters struct {
	City     string `json:"city,omitempty"`
	Category string `json:"category,omitempty"`
	MinScore int    `json:"min_score,omitempty" validate:"gte=0,lte=140"`
	MaxScore int    `json:"max_score,omitempty" validate:"gte=0,lte=140"`
}

// UnmarshalJSON rejects keys outside the filter vocabulary.
func (f *Filters) UnmarshalJSON(data []byte) error {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	unknown := make([]string, 0)
	for k := range raw {
		if _, ok := filterKeys[k]; !ok {
			unknown = append(unknown, k)
		}
	}
	if len(unknown) > 0 {
		sort.Strings(unknown)
		return fmt.Errorf("%w: %v", ErrUnknownFilter, unknown)
	}

	type plain Filters
	var p plain
	if err := json.UnmarshalStrict(data, &p); err != nil {
		return err
	}
	*f = Filters(p)
	return nil
}

// IsZero reports whether no filter field is set.
func (f *Filters) IsZero() bool {
	return f == nil || *f == Filters{}
}

// QueryRequest is the body of POST /query.
type QueryRequest struct {
	Question    string   `json:"question" validate:"required,trimmin=3,trimmax=1000"`
	Filters     *Filters `json:"filters,omitempty"`
	TopK        *int     `json:"top_k,omitempty" validate:"omitnil,min=1,max=10"`
	Temperature *float64 `json:"temperature,omitempty" validate:"omitnil,min=0,max=1"`
}

// ContactInfo of a cited university.
type ContactInfo struct {
	Phone   string `json:"phone"`
	Email   string `json:"email"`
	Address string `json:"address"`
}

// SourceCitation describes one university used to build an answer.
type SourceCitation struct {
	ID             int64       `json:"id"`
	Name           string      `json:"name"`
	City           string      `json:"city"`
	Category       string      `json:"category"`
	RelevanceScore float64     `json:"relevance_score"`
	Programs       string      `json:"programs"`
	EntScoreRange  string      `json:"ent_score_range"`
	ContactInfo    ContactInfo `json:"contact_info"`
}

// QueryResponse is the answer returned for a query.
type QueryResponse struct {
	Answer         string           `json:"answer"`
	Sources        []SourceCitation `json:"sources"`
	ProcessingTime float64          `json:"processing_time"`
	Cached         bool             `json:"cached"`
	Timestamp      time.Time        `json:"timestamp"`
	TokensUsed     *int             `json:"tokens_used,omitempty"`
}

// Clone returns a deep copy so cached values are never shared with callers.
func (r *QueryResponse) Clone() *QueryResponse {
	if r == nil {
		return nil
	}
	out := *r
	if r.Sources != nil {
		out.Sources = make([]SourceCitation, len(r.Sources))
		copy(out.Sources, r.Sources)
	}
	if r.TokensUsed != nil {
		n := *r.TokensUsed
		out.TokensUsed = &n
	}
	return &out
}
