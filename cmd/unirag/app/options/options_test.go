package options

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	cacheopts "github.com/kart-io/unirag/pkg/options/cache"
	ragopts "github.com/kart-io/unirag/pkg/options/rag"
)

func offlineOptions() *ServerOptions {
	o := NewServerOptions()
	o.EmbeddingOptions.Provider = "offline"
	o.ChatOptions.Provider = "offline"
	o.RAGOptions.VectorStore = ragopts.VectorStoreMemory
	return o
}

func TestOfflineOptionsAreValid(t *testing.T) {
	o := offlineOptions()
	require.NoError(t, o.Complete())
	assert.NoError(t, o.Validate())
}

func TestValidateGeminiWithoutKey(t *testing.T) {
	t.Setenv("GEMINI_API_KEY", "")

	o := NewServerOptions()
	o.RAGOptions.VectorStore = ragopts.VectorStoreMemory
	require.NoError(t, o.Complete())

	err := o.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "embedding.api-key is required")
	assert.Contains(t, err.Error(), "chat.api-key is required")
}

func TestValidateOnlySelectedBackends(t *testing.T) {
	o := offlineOptions()
	o.MilvusOptions.Address = ""
	o.PGVectorOptions.Host = ""
	o.RedisOptions.Host = ""
	assert.NoError(t, o.Validate())

	o.RAGOptions.VectorStore = ragopts.VectorStorePGVector
	err := o.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "pgvector.host is required")

	o.RAGOptions.VectorStore = ragopts.VectorStoreMemory
	o.CacheOptions.Backend = cacheopts.BackendRedis
	err = o.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "redis.host is required")

	o.CacheOptions.Enabled = false
	assert.NoError(t, o.Validate())
}

func TestFlagsAndConfig(t *testing.T) {
	o := offlineOptions()
	fss := o.Flags()

	for _, name := range []string{"http", "log", "rag", "milvus", "pgvector", "embedding", "chat", "cache", "redis", "badger", "tracing"} {
		assert.Contains(t, fss.FlagSets, name)
	}
	assert.NotNil(t, fss.FlagSet("rag").Lookup("rag.index-on-start"))
	assert.NotNil(t, fss.FlagSet("chat").Lookup("chat.provider"))

	require.NoError(t, fss.FlagSet("rag").Set("rag.top-k", "7"))
	cfg, err := o.Config()
	require.NoError(t, err)
	assert.Equal(t, 7, cfg.RAGOptions.TopK)
	assert.Same(t, o.CacheOptions, cfg.CacheOptions)
}
