package store

import (
	"context"
	"fmt"

	"github.com/milvus-io/milvus/client/v2/entity"

	"github.com/kart-io/unirag/internal/model"
	"github.com/kart-io/unirag/internal/unirag/filter"
	"github.com/kart-io/unirag/pkg/component/milvus"
)

const (
	fieldText      = "text"
	fieldUniID     = "uni_id"
	fieldName      = "name"
	fieldDirection = "direction"
	fieldType      = "type"
	fieldPrograms  = "programs"
	fieldLevels    = "education_levels"
	fieldSubjects  = "profile_subjects"
	fieldEmail     = "email"
	fieldPhone     = "phone"
	fieldAddress   = "address"
)

var milvusOutputFields = []string{
	fieldText, fieldUniID, fieldName, filter.FieldCity, filter.FieldCategory,
	fieldDirection, fieldType, fieldPrograms, fieldLevels, fieldSubjects,
	filter.FieldEntMinScore, filter.FieldEntMaxScore, fieldEmail, fieldPhone, fieldAddress,
}

// Milvus 基于 Milvus 集合的后端，HNSW/COSINE 索引。
type Milvus struct {
	client     *milvus.Client
	collection string
	dimension  int
}

var _ Backend = (*Milvus)(nil)

// NewMilvus 创建 Milvus 后端。
func NewMilvus(client *milvus.Client, collection string, dimension int) *Milvus {
	return &Milvus{client: client, collection: collection, dimension: dimension}
}

func (m *Milvus) Name() string { return "milvus" }

func (m *Milvus) schema() *milvus.CollectionSchema {
	varchar := func(name string, maxLen int) milvus.MetaField {
		return milvus.MetaField{Name: name, DataType: entity.FieldTypeVarChar, MaxLen: maxLen}
	}
	bigint := func(name string) milvus.MetaField {
		return milvus.MetaField{Name: name, DataType: entity.FieldTypeInt64}
	}

	return &milvus.CollectionSchema{
		Name:        m.collection,
		Description: "University catalog chunks",
		Dimension:   m.dimension,
		MetaFields: []milvus.MetaField{
			varchar(fieldText, 65535),
			bigint(fieldUniID),
			varchar(fieldName, 512),
			varchar(filter.FieldCity, 128),
			varchar(filter.FieldCategory, 128),
			varchar(fieldDirection, 512),
			varchar(fieldType, 128),
			varchar(fieldPrograms, 8192),
			varchar(fieldLevels, 512),
			varchar(fieldSubjects, 512),
			bigint(filter.FieldEntMinScore),
			bigint(filter.FieldEntMaxScore),
			varchar(fieldEmail, 256),
			varchar(fieldPhone, 256),
			varchar(fieldAddress, 1024),
		},
	}
}

func (m *Milvus) Ensure(ctx context.Context) error {
	return m.client.CreateCollection(ctx, m.schema())
}

func (m *Milvus) Reset(ctx context.Context) error {
	exists, err := m.client.HasCollection(ctx, m.collection)
	if err != nil {
		return err
	}
	if exists {
		if err := m.client.DropCollection(ctx, m.collection); err != nil {
			return err
		}
	}
	return m.client.CreateCollection(ctx, m.schema())
}

func (m *Milvus) Insert(ctx context.Context, chunks []model.IndexedChunk, vectors [][]float32) error {
	if len(chunks) != len(vectors) {
		return fmt.Errorf("milvus insert: %d chunks but %d vectors", len(chunks), len(vectors))
	}

	n := len(chunks)
	data := &milvus.InsertData{
		IDs:        make([]string, n),
		Embeddings: vectors,
		VarChars:   make(map[string][]string),
		Int64s:     make(map[string][]int64),
	}
	strCol := func(name string) []string {
		col, ok := data.VarChars[name]
		if !ok {
			col = make([]string, n)
			data.VarChars[name] = col
		}
		return col
	}
	intCol := func(name string) []int64 {
		col, ok := data.Int64s[name]
		if !ok {
			col = make([]int64, n)
			data.Int64s[name] = col
		}
		return col
	}

	for i, c := range chunks {
		md := c.Metadata
		data.IDs[i] = c.ID
		strCol(fieldText)[i] = c.Text
		intCol(fieldUniID)[i] = md.ID
		strCol(fieldName)[i] = md.Name
		strCol(filter.FieldCity)[i] = md.City
		strCol(filter.FieldCategory)[i] = md.Category
		strCol(fieldDirection)[i] = md.Direction
		strCol(fieldType)[i] = md.Type
		strCol(fieldPrograms)[i] = md.Programs
		strCol(fieldLevels)[i] = md.EducationLevels
		strCol(fieldSubjects)[i] = md.ProfileSubjects
		intCol(filter.FieldEntMinScore)[i] = int64(md.EntMinScore)
		intCol(filter.FieldEntMaxScore)[i] = int64(md.EntMaxScore)
		strCol(fieldEmail)[i] = md.Email
		strCol(fieldPhone)[i] = md.Phone
		strCol(fieldAddress)[i] = md.Address
	}

	return m.client.Insert(ctx, m.collection, data)
}

func (m *Milvus) Search(ctx context.Context, vector []float32, topK int, pred filter.Predicate) ([]model.SearchHit, error) {
	results, err := m.client.Search(ctx, m.collection, vector, topK, filter.MilvusExpr(pred), milvusOutputFields)
	if err != nil {
		return nil, err
	}

	hits := make([]model.SearchHit, 0, len(results))
	for _, r := range results {
		hits = append(hits, model.SearchHit{
			ChunkID:  r.ID,
			Text:     stringField(r.Fields, fieldText),
			Metadata: metadataFromFields(r.Fields),
			Distance: scoreToDistance(r.Score),
		})
	}
	return hits, nil
}

func (m *Milvus) Count(ctx context.Context) (int64, error) {
	return m.client.Count(ctx, m.collection)
}

func (m *Milvus) Close() error {
	return m.client.Close(context.Background())
}

// scoreToDistance 将 COSINE 相似度转换为距离。
func scoreToDistance(score float32) float64 {
	d := 1 - float64(score)
	if d < 0 {
		return 0
	}
	if d > 2 {
		return 2
	}
	return d
}

func metadataFromFields(f map[string]any) model.ChunkMetadata {
	return model.ChunkMetadata{
		ID:              int64Field(f, fieldUniID),
		Name:            stringField(f, fieldName),
		City:            stringField(f, filter.FieldCity),
		Category:        stringField(f, filter.FieldCategory),
		Direction:       stringField(f, fieldDirection),
		Type:            stringField(f, fieldType),
		Programs:        stringField(f, fieldPrograms),
		EducationLevels: stringField(f, fieldLevels),
		EntMinScore:     int(int64Field(f, filter.FieldEntMinScore)),
		EntMaxScore:     int(int64Field(f, filter.FieldEntMaxScore)),
		ProfileSubjects: stringField(f, fieldSubjects),
		Email:           stringField(f, fieldEmail),
		Phone:           stringField(f, fieldPhone),
		Address:         stringField(f, fieldAddress),
	}
}

func stringField(f map[string]any, name string) string {
	s, _ := f[name].(string)
	return s
}

func int64Field(f map[string]any, name string) int64 {
	n, _ := f[name].(int64)
	return n
}
