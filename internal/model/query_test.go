package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kart-io/unirag/pkg/utils/json"
)

func TestFiltersRejectUnknownKeys(t *testing.T) {
	var req QueryRequest
	err := json.Unmarshal([]byte(`{"question":"IT в Алматы","filters":{"city":"Алматы","min_score":70}}`), &req)
	require.NoError(t, err)
	require.NotNil(t, req.Filters)
	assert.Equal(t, "Алматы", req.Filters.City)
	assert.Equal(t, 70, req.Filters.MinScore)

	err = json.Unmarshal([]byte(`{"question":"IT в Алматы","filters":{"country":"KZ"}}`), &req)
	assert.Error(t, err)

	var f Filters
	err = f.UnmarshalJSON([]byte(`{"city":"Алматы","region":"Юг","country":"KZ"}`))
	assert.ErrorIs(t, err, ErrUnknownFilter)
	assert.Contains(t, err.Error(), "[country region]")

	err = f.UnmarshalJSON([]byte(`{"min_score":"seventy"}`))
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrUnknownFilter)
}

func TestFiltersIsZero(t *testing.T) {
	var nilFilters *Filters
	assert.True(t, nilFilters.IsZero())
	assert.True(t, (&Filters{}).IsZero())
	assert.False(t, (&Filters{MaxScore: 90}).IsZero())
}

func TestQueryResponseClone(t *testing.T) {
	tokens := 42
	orig := &QueryResponse{
		Answer:     "ответ",
		Sources:    []SourceCitation{{ID: 1, Name: "КазНУ"}},
		TokensUsed: &tokens,
	}

	cp := orig.Clone()
	cp.Cached = true
	cp.Sources[0].Name = "changed"
	*cp.TokensUsed = 1

	assert.False(t, orig.Cached)
	assert.Equal(t, "КазНУ", orig.Sources[0].Name)
	assert.Equal(t, 42, *orig.TokensUsed)

	var nilResp *QueryResponse
	assert.Nil(t, nilResp.Clone())
}
