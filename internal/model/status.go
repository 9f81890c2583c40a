package model

// Health states.
const (
	HealthHealthy  = "healthy"
	HealthDegraded = "degraded"
)

// HealthStatus is the body of GET /health.
type HealthStatus struct {
	Status         string `json:"status"`
	VectorDBCount  int64  `json:"vector_db_count"`
	EmbeddingModel string `json:"embedding_model"`
	GeminiStatus   string `json:"gemini_status"`
	CacheEnabled   bool   `json:"cache_enabled"`
	Version        string `json:"version"`
}

// ScoreRange is an inclusive ENT score band.
type ScoreRange struct {
	Min int `json:"min"`
	Max int `json:"max"`
}

// FilterOptions lists the values a client may filter by.
type FilterOptions struct {
	Cities        []string   `json:"cities"`
	Categories    []string   `json:"categories"`
	EntScoreRange ScoreRange `json:"ent_score_range"`
}

// DefaultScoreRange is used when the catalog does not declare one.
var DefaultScoreRange = ScoreRange{Min: 50, Max: 100}

// Stats is the body of GET /stats.
type Stats struct {
	VectorDBCount int64          `json:"vector_db_count"`
	CacheSize     int            `json:"cache_size"`
	CacheEnabled  bool           `json:"cache_enabled"`
	CacheBackend  string         `json:"cache_backend"`
	VectorStore   string         `json:"vector_store"`
	EmbedProvider string         `json:"embed_provider"`
	ChatProvider  string         `json:"chat_provider"`
	Metrics       map[string]any `json:"metrics"`
}
