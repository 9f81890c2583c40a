package biz

import (
	"fmt"

	"github.com/kart-io/logger"

	"github.com/kart-io/unirag/internal/model"
)

const notSpecified = "не указан"

// Prepare 将大学记录转换为可索引的分块。结果只依赖输入，重复调用得到相同分块。
func Prepare(u model.UniversityRecord) model.IndexedChunk {
	return model.IndexedChunk{
		ID:   fmt.Sprintf("uni_%d", u.ID),
		Text: chunkText(u),
		Metadata: model.ChunkMetadata{
			ID:              u.ID,
			Name:            u.Name,
			City:            u.City,
			Category:        u.Category,
			Direction:       u.Direction,
			Type:            u.Type,
			Programs:        u.Programs,
			EducationLevels: u.EducationLevels,
			EntMinScore:     u.EntMinScore,
			EntMaxScore:     u.EntMaxScore,
			ProfileSubjects: u.ProfileSubjects,
			Email:           deref(u.Email),
			Phone:           deref(u.Phone),
			Address:         deref(u.Address),
		},
	}
}

// PrepareAll 按输入顺序准备全部记录。
func PrepareAll(unis []model.UniversityRecord) []model.IndexedChunk {
	chunks := make([]model.IndexedChunk, len(unis))
	for i, u := range unis {
		chunks[i] = Prepare(u)
	}
	logger.Infow("prepared chunks for indexing", "count", len(chunks))
	return chunks
}

func chunkText(u model.UniversityRecord) string {
	return fmt.Sprintf(`Университет: %s
Город: %s
Тип: %s
Категория: %s
Направление: %s

Образовательные программы: %s
Уровни образования: %s

Вступительные требования:
- Проходной балл ЕНТ: от %d до %d
- Профильные предметы: %s

Контактная информация:
- Телефон: %s
- Email: %s
- Адрес: %s`,
		u.Name, u.City, u.Type, u.Category, u.Direction,
		u.Programs, u.EducationLevels,
		u.EntMinScore, u.EntMaxScore, u.ProfileSubjects,
		orNotSpecified(u.Phone), orNotSpecified(u.Email), orNotSpecified(u.Address),
	)
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

func orNotSpecified(s *string) string {
	if s == nil || *s == "" {
		return notSpecified
	}
	return *s
}
