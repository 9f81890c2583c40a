package biz

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/kart-io/unirag/internal/model"
)

func strPtr(s string) *string { return &s }

func sampleUniversity() model.UniversityRecord {
	return model.UniversityRecord{
		ID:              7,
		Name:            "Казахский национальный университет",
		City:            "Алматы",
		Category:        "Классический",
		Direction:       "Естественные науки",
		Type:            "Государственный",
		Programs:        "Математика, Физика",
		EducationLevels: "Бакалавриат, Магистратура",
		ProfileSubjects: "Математика, Физика",
		EntMinScore:     80,
		EntMaxScore:     120,
		Phone:           strPtr("+7 727 377 33 33"),
		Email:           nil,
		Address:         strPtr(""),
	}
}

func TestPrepare(t *testing.T) {
	u := sampleUniversity()
	c := Prepare(u)

	assert.Equal(t, "uni_7", c.ID)
	assert.Contains(t, c.Text, "Университет: Казахский национальный университет\nГород: Алматы\n")
	assert.Contains(t, c.Text, "- Проходной балл ЕНТ: от 80 до 120")
	assert.Contains(t, c.Text, "- Телефон: +7 727 377 33 33")
	assert.Contains(t, c.Text, "- Email: не указан")
	assert.Contains(t, c.Text, "- Адрес: не указан")

	assert.Equal(t, int64(7), c.Metadata.ID)
	assert.Equal(t, "+7 727 377 33 33", c.Metadata.Phone)
	assert.Equal(t, "", c.Metadata.Email)
	assert.Equal(t, "", c.Metadata.Address)
	assert.Equal(t, 80, c.Metadata.EntMinScore)
	assert.Equal(t, 120, c.Metadata.EntMaxScore)
}

func TestPrepareIsDeterministic(t *testing.T) {
	u := sampleUniversity()
	assert.Equal(t, Prepare(u), Prepare(u))
}

func TestPrepareAllKeepsOrder(t *testing.T) {
	a, b := sampleUniversity(), sampleUniversity()
	b.ID = 3
	chunks := PrepareAll([]model.UniversityRecord{a, b})

	assert.Len(t, chunks, 2)
	assert.Equal(t, "uni_7", chunks[0].ID)
	assert.Equal(t, "uni_3", chunks[1].ID)
	assert.Empty(t, PrepareAll(nil))
}
