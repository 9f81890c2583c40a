package rag

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDefaultsAreValid(t *testing.T) {
	o := NewOptions()
	assert.Empty(t, o.Validate())
	assert.Equal(t, 50, o.BatchSize)
	assert.Equal(t, 4000, o.MaxContextLength)
	assert.Equal(t, 15, o.MaxRequestsPerMinute)
}

func TestValidateRanges(t *testing.T) {
	o := NewOptions()
	o.TopK = 11
	o.Temperature = 1.5
	o.VectorStore = "faiss"
	assert.Len(t, o.Validate(), 3)
}
