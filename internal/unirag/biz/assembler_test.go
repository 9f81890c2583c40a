package biz

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kart-io/unirag/internal/model"
)

func hit(id int64, name, text string, distance float64) model.SearchHit {
	return model.SearchHit{
		ChunkID: "uni_" + name,
		Text:    text,
		Metadata: model.ChunkMetadata{
			ID: id, Name: name, City: "Алматы", Category: "IT",
			EntMinScore: 70, EntMaxScore: 120, Phone: "123",
		},
		Distance: distance,
	}
}

func TestAssemble(t *testing.T) {
	a := NewAssembler(4000)
	text, sources := a.Assemble([]model.SearchHit{
		hit(1, "A", "первый", 0.1),
		hit(2, "B", "второй", 0.25),
	})

	assert.Equal(t, "[Университет 1]:\nпервый\n\n---\n\n[Университет 2]:\nвторой", text)
	require.Len(t, sources, 2)
	assert.Equal(t, "A", sources[0].Name)
	assert.Equal(t, 0.9, sources[0].RelevanceScore)
	assert.Equal(t, 0.75, sources[1].RelevanceScore)
	assert.Equal(t, "70-120", sources[0].EntScoreRange)
	assert.Equal(t, "123", sources[0].ContactInfo.Phone)
}

func TestAssembleTruncates(t *testing.T) {
	a := NewAssembler(10)
	long := strings.Repeat("я", 100)
	text, sources := a.Assemble([]model.SearchHit{hit(1, "A", long, 0.1), hit(2, "B", long, 0.2)})

	assert.True(t, strings.HasSuffix(text, truncatedMarker))
	assert.Equal(t, 10+len([]rune(truncatedMarker)), len([]rune(text)))
	assert.Len(t, sources, 2)
}

func TestAssembleEmpty(t *testing.T) {
	text, sources := NewAssembler(0).Assemble(nil)
	assert.Equal(t, "", text)
	assert.NotNil(t, sources)
	assert.Empty(t, sources)
}

func TestRelevance(t *testing.T) {
	assert.Equal(t, 1.0, Relevance(0))
	assert.Equal(t, 0.0, Relevance(1.5))
	assert.Equal(t, 1.0, Relevance(-0.2))
	assert.Equal(t, 0.877, Relevance(0.1234))
}
