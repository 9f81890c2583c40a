// Package model holds the unirag domain types shared by the store, pipeline and handlers.
package model

// UniversityRecord is one university entry of the catalog file.
type UniversityRecord struct {
	ID              int64   `json:"id"`
	Name            string  `json:"name"`
	City            string  `json:"city"`
	Category        string  `json:"category"`
	Direction       string  `json:"direction"`
	Type            string  `json:"type"`
	Programs        string  `json:"programs"`
	EducationLevels string  `json:"education_levels"`
	ProfileSubjects string  `json:"profile_subjects"`
	EntMinScore     int     `json:"ent_min_score"`
	EntMaxScore     int     `json:"ent_max_score"`
	Phone           *string `json:"phone"`
	Email           *string `json:"email"`
	Address         *string `json:"address"`
}

// ChunkMetadata is the flat metadata stored next to every indexed chunk.
// All keys are always present; absent contacts are empty strings.
type ChunkMetadata struct {
	ID              int64  `json:"id"`
	Name            string `json:"name"`
	City            string `json:"city"`
	Category        string `json:"category"`
	Direction       string `json:"direction"`
	Type            string `json:"type"`
	Programs        string `json:"programs"`
	EducationLevels string `json:"education_levels"`
	EntMinScore     int    `json:"ent_min_score"`
	EntMaxScore     int    `json:"ent_max_score"`
	ProfileSubjects string `json:"profile_subjects"`
	Email           string `json:"email"`
	Phone           string `json:"phone"`
	Address         string `json:"address"`
}

// IndexedChunk is the unit stored in the vector index, one per university.
type IndexedChunk struct {
	ID       string        `json:"id"`
	Text     string        `json:"text"`
	Metadata ChunkMetadata `json:"metadata"`
}

// SearchHit is one ranked result of a similarity search.
// Distance is the cosine distance in [0,2], smaller is closer.
type SearchHit struct {
	ChunkID  string        `json:"chunk_id"`
	Text     string        `json:"text"`
	Metadata ChunkMetadata `json:"metadata"`
	Distance float64       `json:"distance"`
}

// Catalog is the on-disk layout of the university catalog file.
type Catalog struct {
	Universities []UniversityRecord `json:"universities"`
	Filters      *FilterOptions     `json:"filters,omitempty"`
}
