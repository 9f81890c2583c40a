package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/lib/pq"
	"github.com/pgvector/pgvector-go"

	"github.com/kart-io/unirag/internal/model"
	"github.com/kart-io/unirag/internal/unirag/filter"
	pgvectoropts "github.com/kart-io/unirag/pkg/options/pgvector"
)

var pgColumns = []string{
	"chunk_id", fieldText, fieldUniID, fieldName, filter.FieldCity, filter.FieldCategory,
	fieldDirection, fieldType, fieldPrograms, fieldLevels, fieldSubjects,
	filter.FieldEntMinScore, filter.FieldEntMaxScore, fieldEmail, fieldPhone, fieldAddress,
}

// PGVector 基于 PostgreSQL + pgvector 的后端，<=> 直接返回余弦距离。
type PGVector struct {
	db        *sql.DB
	table     string
	dimension int
}

var _ Backend = (*PGVector)(nil)

// OpenPGVector 连接 PostgreSQL 并返回后端。
func OpenPGVector(ctx context.Context, opts *pgvectoropts.Options, dimension int) (*PGVector, error) {
	db, err := sql.Open("postgres", opts.DSN())
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	db.SetMaxOpenConns(opts.MaxConns)
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}
	return NewPGVector(db, opts.Table, dimension), nil
}

// NewPGVector 使用已有连接创建后端。
func NewPGVector(db *sql.DB, table string, dimension int) *PGVector {
	return &PGVector{db: db, table: table, dimension: dimension}
}

func (p *PGVector) Name() string { return "pgvector" }

func (p *PGVector) ident() string { return pq.QuoteIdentifier(p.table) }

func (p *PGVector) createStatements() []string {
	t := p.ident()
	return []string{
		"CREATE EXTENSION IF NOT EXISTS vector",
		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
	chunk_id TEXT PRIMARY KEY,
	text TEXT NOT NULL,
	uni_id BIGINT NOT NULL,
	name TEXT NOT NULL,
	city TEXT NOT NULL,
	category TEXT NOT NULL,
	direction TEXT NOT NULL,
	type TEXT NOT NULL,
	programs TEXT NOT NULL,
	education_levels TEXT NOT NULL,
	profile_subjects TEXT NOT NULL,
	ent_min_score INTEGER NOT NULL,
	ent_max_score INTEGER NOT NULL,
	email TEXT NOT NULL,
	phone TEXT NOT NULL,
	address TEXT NOT NULL,
	embedding vector(%d) NOT NULL
)`, t, p.dimension),
		fmt.Sprintf("CREATE INDEX IF NOT EXISTS %s ON %s USING hnsw (embedding vector_cosine_ops)",
			pq.QuoteIdentifier(p.table+"_embedding_idx"), t),
	}
}

func (p *PGVector) Ensure(ctx context.Context) error {
	for _, stmt := range p.createStatements() {
		if _, err := p.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("pgvector ensure: %w", err)
		}
	}
	return nil
}

func (p *PGVector) Reset(ctx context.Context) error {
	if _, err := p.db.ExecContext(ctx, "DROP TABLE IF EXISTS "+p.ident()); err != nil {
		return fmt.Errorf("pgvector drop: %w", err)
	}
	return p.Ensure(ctx)
}

func (p *PGVector) insertSQL() string {
	params := make([]string, len(pgColumns)+1)
	for i := range params {
		params[i] = fmt.Sprintf("$%d", i+1)
	}
	return fmt.Sprintf("INSERT INTO %s (%s, embedding) VALUES (%s)",
		p.ident(), strings.Join(pgColumns, ", "), strings.Join(params, ", "))
}

func (p *PGVector) Insert(ctx context.Context, chunks []model.IndexedChunk, vectors [][]float32) (err error) {
	if len(chunks) != len(vectors) {
		return fmt.Errorf("pgvector insert: %d chunks but %d vectors", len(chunks), len(vectors))
	}

	tx, err := p.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("pgvector begin: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	stmt, err := tx.PrepareContext(ctx, p.insertSQL())
	if err != nil {
		return fmt.Errorf("pgvector prepare: %w", err)
	}
	defer stmt.Close()

	for i, c := range chunks {
		md := c.Metadata
		_, err = stmt.ExecContext(ctx,
			c.ID, c.Text, md.ID, md.Name, md.City, md.Category,
			md.Direction, md.Type, md.Programs, md.EducationLevels, md.ProfileSubjects,
			md.EntMinScore, md.EntMaxScore, md.Email, md.Phone, md.Address,
			pgvector.NewVector(vectors[i]),
		)
		if err != nil {
			return fmt.Errorf("pgvector insert %s: %w", c.ID, err)
		}
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("pgvector commit: %w", err)
	}
	return nil
}

// searchSQL 构造检索语句，$1 为查询向量，$2 为 topK，过滤参数从 $3 开始。
func (p *PGVector) searchSQL(pred filter.Predicate) (string, []any) {
	cond, args := filter.SQLWhere(pred, 3)
	query := fmt.Sprintf("SELECT %s, embedding <=> $1 AS distance FROM %s WHERE %s ORDER BY distance, chunk_id LIMIT $2",
		strings.Join(pgColumns, ", "), p.ident(), cond)
	return query, args
}

func (p *PGVector) Search(ctx context.Context, vector []float32, topK int, pred filter.Predicate) ([]model.SearchHit, error) {
	query, filterArgs := p.searchSQL(pred)
	args := append([]any{pgvector.NewVector(vector), topK}, filterArgs...)

	rows, err := p.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("pgvector search: %w", err)
	}
	defer rows.Close()

	var hits []model.SearchHit
	for rows.Next() {
		var (
			h  model.SearchHit
			md = &h.Metadata
		)
		if err := rows.Scan(
			&h.ChunkID, &h.Text, &md.ID, &md.Name, &md.City, &md.Category,
			&md.Direction, &md.Type, &md.Programs, &md.EducationLevels, &md.ProfileSubjects,
			&md.EntMinScore, &md.EntMaxScore, &md.Email, &md.Phone, &md.Address,
			&h.Distance,
		); err != nil {
			return nil, fmt.Errorf("pgvector scan: %w", err)
		}
		hits = append(hits, h)
	}
	return hits, rows.Err()
}

func (p *PGVector) Count(ctx context.Context) (int64, error) {
	var n int64
	err := p.db.QueryRowContext(ctx, "SELECT count(*) FROM "+p.ident()).Scan(&n)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == "42P01" {
			return 0, nil
		}
		return 0, fmt.Errorf("pgvector count: %w", err)
	}
	return n, nil
}

func (p *PGVector) Close() error { return p.db.Close() }
