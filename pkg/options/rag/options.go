// Package rag provides retrieval pipeline configuration options.
package rag

import (
	"fmt"
	"time"

	"github.com/spf13/pflag"

	"github.com/kart-io/unirag/pkg/options"
)

var _ options.IOptions = (*Options)(nil)

// Vector store backends.
const (
	VectorStoreMilvus   = "milvus"
	VectorStorePGVector = "pgvector"
	VectorStoreMemory   = "memory"
)

// Options contains RAG-specific configuration.
type Options struct {
	// CatalogPath is the JSON file with universities and filter values.
	CatalogPath string `json:"catalog-path" mapstructure:"catalog-path"`

	// VectorStore selects the index backend (milvus, pgvector, memory).
	VectorStore string `json:"vector-store" mapstructure:"vector-store"`

	// EmbeddingDim is the dimension of embedding vectors.
	EmbeddingDim int `json:"embedding-dim" mapstructure:"embedding-dim"`

	// TopK is the default number of hits per query.
	TopK int `json:"top-k" mapstructure:"top-k"`

	// Temperature is the default generation temperature.
	Temperature float64 `json:"temperature" mapstructure:"temperature"`

	// BatchSize is the number of chunks embedded per request during a rebuild.
	BatchSize int `json:"batch-size" mapstructure:"batch-size"`

	// Workers bounds concurrent embedding batches during a rebuild.
	Workers int `json:"workers" mapstructure:"workers"`

	// MaxContextLength is the context budget in characters.
	MaxContextLength int `json:"max-context-length" mapstructure:"max-context-length"`

	// MaxRequestsPerMinute throttles generation calls.
	MaxRequestsPerMinute int `json:"max-requests-per-minute" mapstructure:"max-requests-per-minute"`

	EmbedTimeout    time.Duration `json:"embed-timeout" mapstructure:"embed-timeout"`
	SearchTimeout   time.Duration `json:"search-timeout" mapstructure:"search-timeout"`
	GenerateTimeout time.Duration `json:"generate-timeout" mapstructure:"generate-timeout"`

	// IndexOnStart builds the index at startup when the collection is empty.
	IndexOnStart bool `json:"index-on-start" mapstructure:"index-on-start"`
}

// NewOptions creates new Options with defaults.
func NewOptions() *Options {
	return &Options{
		CatalogPath:          "data/universities.json",
		VectorStore:          VectorStoreMilvus,
		EmbeddingDim:         768, // text-embedding-004
		TopK:                 5,
		Temperature:          0.7,
		BatchSize:            50,
		Workers:              4,
		MaxContextLength:     4000,
		MaxRequestsPerMinute: 15,
		EmbedTimeout:         30 * time.Second,
		SearchTimeout:        10 * time.Second,
		GenerateTimeout:      60 * time.Second,
	}
}

// AddFlags adds flags for RAG options to the specified FlagSet.
func (o *Options) AddFlags(fs *pflag.FlagSet, prefixes ...string) {
	p := options.Join(prefixes...) + "rag."
	fs.StringVar(&o.CatalogPath, p+"catalog-path", o.CatalogPath, "University catalog JSON file.")
	fs.StringVar(&o.VectorStore, p+"vector-store", o.VectorStore, "Vector store backend (milvus, pgvector, memory).")
	fs.IntVar(&o.EmbeddingDim, p+"embedding-dim", o.EmbeddingDim, "Embedding vector dimension.")
	fs.IntVar(&o.TopK, p+"top-k", o.TopK, "Default number of documents to retrieve (1-10).")
	fs.Float64Var(&o.Temperature, p+"temperature", o.Temperature, "Default generation temperature (0-1).")
	fs.IntVar(&o.BatchSize, p+"batch-size", o.BatchSize, "Chunks embedded per request during indexing.")
	fs.IntVar(&o.Workers, p+"workers", o.Workers, "Concurrent embedding batches during indexing.")
	fs.IntVar(&o.MaxContextLength, p+"max-context-length", o.MaxContextLength, "Context budget in characters.")
	fs.IntVar(&o.MaxRequestsPerMinute, p+"max-requests-per-minute", o.MaxRequestsPerMinute, "Generation calls allowed per minute.")
	fs.DurationVar(&o.EmbedTimeout, p+"embed-timeout", o.EmbedTimeout, "Timeout of a single embedding call.")
	fs.DurationVar(&o.SearchTimeout, p+"search-timeout", o.SearchTimeout, "Timeout of a single vector store call.")
	fs.DurationVar(&o.GenerateTimeout, p+"generate-timeout", o.GenerateTimeout, "Timeout of a single generation call.")
	fs.BoolVar(&o.IndexOnStart, p+"index-on-start", o.IndexOnStart, "Build the index at startup when it is empty.")
}

// Validate validates the RAG options.
func (o *Options) Validate() []error {
	if o == nil {
		return nil
	}

	var errs []error
	switch o.VectorStore {
	case VectorStoreMilvus, VectorStorePGVector, VectorStoreMemory:
	default:
		errs = append(errs, fmt.Errorf("rag.vector-store %q is not supported", o.VectorStore))
	}
	if o.EmbeddingDim <= 0 {
		errs = append(errs, fmt.Errorf("rag.embedding-dim must be positive"))
	}
	if o.TopK < 1 || o.TopK > 10 {
		errs = append(errs, fmt.Errorf("rag.top-k must be between 1 and 10"))
	}
	if o.Temperature < 0 || o.Temperature > 1 {
		errs = append(errs, fmt.Errorf("rag.temperature must be between 0 and 1"))
	}
	if o.BatchSize <= 0 {
		errs = append(errs, fmt.Errorf("rag.batch-size must be positive"))
	}
	if o.Workers <= 0 {
		errs = append(errs, fmt.Errorf("rag.workers must be positive"))
	}
	if o.MaxContextLength <= 0 {
		errs = append(errs, fmt.Errorf("rag.max-context-length must be positive"))
	}
	if o.MaxRequestsPerMinute <= 0 {
		errs = append(errs, fmt.Errorf("rag.max-requests-per-minute must be positive"))
	}
	if o.EmbedTimeout <= 0 || o.SearchTimeout <= 0 || o.GenerateTimeout <= 0 {
		errs = append(errs, fmt.Errorf("rag timeouts must be positive"))
	}
	return errs
}
