package catalog

import (
	"context"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kart-io/unirag/internal/model"
)

const catalogWithFilters = `{
  "universities": [
    {"id": 1, "name": "КазНУ", "city": "Алматы", "category": "Многопрофильный", "ent_min_score": 70, "ent_max_score": 130, "phone": "+7 727 377 33 33", "email": null},
    {"id": 2, "name": "ЕНУ", "city": "Астана", "category": "Многопрофильный", "ent_min_score": 65, "ent_max_score": 125}
  ],
  "filters": {
    "cities": ["Алматы", "Астана"],
    "categories": ["Многопрофильный"],
    "ent_score_range": {"min": 50, "max": 140}
  }
}`

const catalogWithoutFilters = `{
  "universities": [
    {"id": 3, "name": "КБТУ", "city": "Алматы", "category": "IT"},
    {"id": 4, "name": "AITU", "city": "Астана", "category": "IT"},
    {"id": 5, "name": "МУА", "city": "Астана", "category": "Медицина"}
  ]
}`

func writeCatalog(t *testing.T, dir, content string) string {
	t.Helper()
	path := filepath.Join(dir, "universities.json")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoad(t *testing.T) {
	c, err := Load(writeCatalog(t, t.TempDir(), catalogWithFilters))
	require.NoError(t, err)

	unis := c.Universities()
	require.Len(t, unis, 2)
	assert.Equal(t, "КазНУ", unis[0].Name)
	require.NotNil(t, unis[0].Phone)
	assert.Nil(t, unis[0].Email)
	assert.Nil(t, unis[1].Phone)

	f := c.Filters()
	assert.Equal(t, []string{"Алматы", "Астана"}, f.Cities)
	assert.Equal(t, model.ScoreRange{Min: 50, Max: 140}, f.EntScoreRange)
}

func TestLoadDerivesFilters(t *testing.T) {
	c, err := Load(writeCatalog(t, t.TempDir(), catalogWithoutFilters))
	require.NoError(t, err)

	f := c.Filters()
	assert.Equal(t, []string{"Алматы", "Астана"}, f.Cities)
	assert.Equal(t, []string{"IT", "Медицина"}, f.Categories)
	assert.Equal(t, model.DefaultScoreRange, f.EntScoreRange)
}

func TestLoadDerivesScoreRange(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  model.ScoreRange
	}{
		{
			name: "min and max across records",
			input: `{"universities": [
				{"id": 1, "city": "Алматы", "ent_min_score": 70, "ent_max_score": 130},
				{"id": 2, "city": "Астана", "ent_min_score": 55, "ent_max_score": 110},
				{"id": 3, "city": "Шымкент"}
			]}`,
			want: model.ScoreRange{Min: 55, Max: 130},
		},
		{
			name:  "only minimum scores",
			input: `{"universities": [{"id": 1, "ent_min_score": 60}, {"id": 2, "ent_min_score": 75}]}`,
			want:  model.ScoreRange{Min: 60, Max: 100},
		},
		{
			name:  "no scores",
			input: catalogWithoutFilters,
			want:  model.DefaultScoreRange,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, err := Load(writeCatalog(t, t.TempDir(), tt.input))
			require.NoError(t, err)
			assert.Equal(t, tt.want, c.Filters().EntScoreRange)
		})
	}
}

func TestLoadErrors(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.json"))
	assert.Error(t, err)

	_, err = Load(writeCatalog(t, t.TempDir(), "{not json"))
	assert.Error(t, err)
}

func TestReturnedSlicesAreCopies(t *testing.T) {
	c, err := Load(writeCatalog(t, t.TempDir(), catalogWithFilters))
	require.NoError(t, err)

	unis := c.Universities()
	unis[0].Name = "changed"
	f := c.Filters()
	f.Cities[0] = "changed"

	assert.Equal(t, "КазНУ", c.Universities()[0].Name)
	assert.Equal(t, "Алматы", c.Filters().Cities[0])
}

func TestWatchReloadsFilters(t *testing.T) {
	dir := t.TempDir()
	path := writeCatalog(t, dir, catalogWithFilters)
	c, err := Load(path)
	require.NoError(t, err)

	var reloads atomic.Int32
	c.OnReload(func(*Catalog) { reloads.Add(1) })

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	require.NoError(t, c.Watch(ctx))

	writeCatalog(t, dir, catalogWithoutFilters)

	require.Eventually(t, func() bool {
		return len(c.Universities()) == 3
	}, 5*time.Second, 50*time.Millisecond)
	assert.Equal(t, []string{"IT", "Медицина"}, c.Filters().Categories)
	assert.Eventually(t, func() bool { return reloads.Load() >= 1 }, time.Second, 20*time.Millisecond)
}

func TestWatchKeepsContentOnBadWrite(t *testing.T) {
	dir := t.TempDir()
	path := writeCatalog(t, dir, catalogWithFilters)
	c, err := Load(path)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	require.NoError(t, c.Watch(ctx))

	writeCatalog(t, dir, "{broken")
	time.Sleep(400 * time.Millisecond)
	assert.Len(t, c.Universities(), 2)
}
