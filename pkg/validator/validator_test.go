package validator

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type questionForm struct {
	Question string `json:"question" validate:"required,trimmin=3,trimmax=10"`
	TopK     int    `json:"top_k" validate:"omitempty,min=1,max=10"`
}

func TestTrimmedLength(t *testing.T) {
	v := New()

	assert.NoError(t, v.Validate(&questionForm{Question: "  abc  "}))
	assert.NoError(t, v.Validate(&questionForm{Question: "Алматы"}), "runes are counted, not bytes")
	assert.Error(t, v.Validate(&questionForm{Question: "  ab   "}))
	assert.Error(t, v.Validate(&questionForm{Question: strings.Repeat("я", 11)}))
}

func TestValidateWithLang(t *testing.T) {
	v := New()

	errs := v.ValidateWithLang(&questionForm{Question: "ab", TopK: 20}, "en")
	require.NotNil(t, errs)
	require.Len(t, errs.Errors, 2)
	assert.Equal(t, "question", errs.Errors[0].Field)
	assert.Equal(t, "question must be at least 3 characters long", errs.First())
	assert.Len(t, errs.ForField("top_k"), 1)

	ru := v.ValidateWithLang(&questionForm{Question: "ab"}, "ru-RU,ru;q=0.9")
	require.NotNil(t, ru)
	assert.Contains(t, ru.First(), "минимум 3")

	assert.Nil(t, v.ValidateWithLang(&questionForm{Question: "hello"}, "en"))
}

func TestValidateStructIgnoresNonStructs(t *testing.T) {
	v := New()
	assert.NoError(t, v.ValidateStruct(nil))
	assert.NoError(t, v.ValidateStruct([]int{1}))
	assert.Error(t, v.ValidateStruct(&questionForm{}))
}
