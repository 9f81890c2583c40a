// Package milvus wraps the Milvus v2 SDK client for string keyed,
// cosine indexed vector collections.
package milvus

import (
	"context"
	"fmt"
	"strconv"

	"github.com/milvus-io/milvus/client/v2/column"
	"github.com/milvus-io/milvus/client/v2/entity"
	"github.com/milvus-io/milvus/client/v2/index"
	"github.com/milvus-io/milvus/client/v2/milvusclient"

	milvusopts "github.com/kart-io/unirag/pkg/options/milvus"
)

const (
	// PrimaryField is the VarChar primary key of every collection.
	PrimaryField = "chunk_id"
	// VectorField holds the embedding.
	VectorField = "embedding"
)

// Client wraps the Milvus SDK client.
type Client struct {
	client *milvusclient.Client
	opts   *milvusopts.Options
}

// New creates a new Milvus client.
func New(ctx context.Context, opts *milvusopts.Options) (*Client, error) {
	if opts == nil {
		return nil, fmt.Errorf("milvus options is nil")
	}

	ctx, cancel := context.WithTimeout(ctx, opts.Timeout)
	defer cancel()

	c, err := milvusclient.New(ctx, &milvusclient.ClientConfig{
		Address:  opts.Address,
		Username: opts.Username,
		Password: opts.Password,
		DBName:   opts.Database,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to milvus at %s: %w", opts.Address, err)
	}

	return &Client{client: c, opts: opts}, nil
}

// Close closes the Milvus client connection.
func (c *Client) Close(ctx context.Context) error {
	return c.client.Close(ctx)
}

// CollectionSchema defines the schema for a vector collection.
type CollectionSchema struct {
	Name        string
	Description string
	Dimension   int
	MetaFields  []MetaField
}

// MetaField defines a scalar field in the collection.
type MetaField struct {
	Name     string
	DataType entity.FieldType
	MaxLen   int // VarChar only
}

// HasCollection reports whether the collection exists.
func (c *Client) HasCollection(ctx context.Context, name string) (bool, error) {
	ok, err := c.client.HasCollection(ctx, milvusclient.NewHasCollectionOption(name))
	if err != nil {
		return false, fmt.Errorf("failed to check collection existence: %w", err)
	}
	return ok, nil
}

// CreateCollection creates the collection with an HNSW/COSINE index on the
// vector field and loads it. Existing collections are left untouched.
func (c *Client) CreateCollection(ctx context.Context, schema *CollectionSchema) error {
	exists, err := c.HasCollection(ctx, schema.Name)
	if err != nil {
		return err
	}
	if exists {
		return nil
	}

	collSchema := entity.NewSchema().
		WithName(schema.Name).
		WithDescription(schema.Description).
		WithAutoID(false).
		WithField(entity.NewField().
			WithName(PrimaryField).
			WithDataType(entity.FieldTypeVarChar).
			WithMaxLength(64).
			WithIsPrimaryKey(true)).
		WithField(entity.NewField().
			WithName(VectorField).
			WithDataType(entity.FieldTypeFloatVector).
			WithDim(int64(schema.Dimension)))

	for _, f := range schema.MetaFields {
		field := entity.NewField().WithName(f.Name).WithDataType(f.DataType)
		if f.DataType == entity.FieldTypeVarChar {
			maxLen := f.MaxLen
			if maxLen <= 0 {
				maxLen = 1024
			}
			field.WithMaxLength(int64(maxLen))
		}
		collSchema.WithField(field)
	}

	if err := c.client.CreateCollection(ctx, milvusclient.NewCreateCollectionOption(schema.Name, collSchema)); err != nil {
		return fmt.Errorf("failed to create collection: %w", err)
	}

	idx := index.NewHNSWIndex(entity.COSINE, 16, 200)
	idxTask, err := c.client.CreateIndex(ctx, milvusclient.NewCreateIndexOption(schema.Name, VectorField, idx))
	if err != nil {
		return fmt.Errorf("failed to create index: %w", err)
	}
	if err := idxTask.Await(ctx); err != nil {
		return fmt.Errorf("failed to wait for index creation: %w", err)
	}

	loadTask, err := c.client.LoadCollection(ctx, milvusclient.NewLoadCollectionOption(schema.Name))
	if err != nil {
		return fmt.Errorf("failed to load collection: %w", err)
	}
	if err := loadTask.Await(ctx); err != nil {
		return fmt.Errorf("failed to wait for collection loading: %w", err)
	}
	return nil
}

// InsertData is a column oriented batch of rows.
type InsertData struct {
	IDs        []string
	Embeddings [][]float32
	VarChars   map[string][]string
	Int64s     map[string][]int64
}

// Insert inserts one batch and flushes so rows are immediately searchable.
func (c *Client) Insert(ctx context.Context, collection string, data *InsertData) error {
	if len(data.IDs) == 0 {
		return nil
	}
	if len(data.Embeddings) != len(data.IDs) {
		return fmt.Errorf("milvus insert: %d ids but %d embeddings", len(data.IDs), len(data.Embeddings))
	}

	columns := make([]column.Column, 0, 2+len(data.VarChars)+len(data.Int64s))
	columns = append(columns,
		column.NewColumnVarChar(PrimaryField, data.IDs),
		column.NewColumnFloatVector(VectorField, len(data.Embeddings[0]), data.Embeddings),
	)
	for name, values := range data.VarChars {
		columns = append(columns, column.NewColumnVarChar(name, values))
	}
	for name, values := range data.Int64s {
		columns = append(columns, column.NewColumnInt64(name, values))
	}

	if _, err := c.client.Insert(ctx, milvusclient.NewColumnBasedInsertOption(collection, columns...)); err != nil {
		return fmt.Errorf("failed to insert data: %w", err)
	}

	flushTask, err := c.client.Flush(ctx, milvusclient.NewFlushOption(collection))
	if err != nil {
		return fmt.Errorf("failed to flush collection: %w", err)
	}
	if err := flushTask.Await(ctx); err != nil {
		return fmt.Errorf("failed to wait for flush: %w", err)
	}
	return nil
}

// SearchResult represents a single search hit.
type SearchResult struct {
	ID     string
	Score  float32
	Fields map[string]any
}

// Search runs an ANN search restricted by the boolean expression filter
// (empty for none). With the COSINE metric a higher score is closer.
func (c *Client) Search(ctx context.Context, collection string, vector []float32, topK int, filter string, outputFields []string) ([]SearchResult, error) {
	opt := milvusclient.NewSearchOption(collection, topK, []entity.Vector{entity.FloatVector(vector)}).
		WithANNSField(VectorField).
		WithSearchParam("ef", strconv.Itoa(max(64, topK))).
		WithOutputFields(outputFields...)
	if filter != "" {
		opt = opt.WithFilter(filter)
	}

	results, err := c.client.Search(ctx, opt)
	if err != nil {
		return nil, fmt.Errorf("failed to search: %w", err)
	}
	if len(results) == 0 {
		return []SearchResult{}, nil
	}

	rs := results[0]
	hits := make([]SearchResult, 0, rs.ResultCount)
	for i := 0; i < rs.ResultCount; i++ {
		hit := SearchResult{
			Score:  rs.Scores[i],
			Fields: make(map[string]any, len(outputFields)),
		}
		if ids, ok := rs.IDs.(*column.ColumnVarChar); ok {
			hit.ID = ids.Data()[i]
		}
		for _, field := range rs.Fields {
			switch col := field.(type) {
			case *column.ColumnVarChar:
				hit.Fields[col.Name()] = col.Data()[i]
			case *column.ColumnInt64:
				hit.Fields[col.Name()] = col.Data()[i]
			}
		}
		hits = append(hits, hit)
	}
	return hits, nil
}

// DropCollection drops a collection.
func (c *Client) DropCollection(ctx context.Context, collection string) error {
	if err := c.client.DropCollection(ctx, milvusclient.NewDropCollectionOption(collection)); err != nil {
		return fmt.Errorf("failed to drop collection: %w", err)
	}
	return nil
}

// Count returns the number of rows in a collection, 0 when it does not exist.
func (c *Client) Count(ctx context.Context, collection string) (int64, error) {
	exists, err := c.HasCollection(ctx, collection)
	if err != nil || !exists {
		return 0, err
	}

	stats, err := c.client.GetCollectionStats(ctx, milvusclient.NewGetCollectionStatsOption(collection))
	if err != nil {
		return 0, fmt.Errorf("failed to get collection stats: %w", err)
	}
	if val, ok := stats["row_count"]; ok {
		return strconv.ParseInt(val, 10, 64)
	}
	return 0, nil
}
