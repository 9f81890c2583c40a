package gemini

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kart-io/unirag/pkg/llm"
)

func TestNewProviderRequiresKey(t *testing.T) {
	_, err := NewProvider(map[string]any{})
	assert.ErrorContains(t, err, "api_key")

	p, err := llm.NewProvider(ProviderName, map[string]any{"api_key": "k", "embed_model": "emb"})
	require.NoError(t, err)
	assert.Equal(t, "emb", p.Model())
	assert.Equal(t, ProviderName, p.Name())
}

func TestEmbed(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/models/text-embedding-004:batchEmbedContents", r.URL.Path)
		assert.Equal(t, "secret", r.Header.Get("x-goog-api-key"))
		assert.Empty(t, r.URL.Query().Get("key"))
		_, _ = io.WriteString(w, `{"embeddings":[{"values":[0.1,0.2]},{"values":[0.3,0.4]}]}`)
	}))
	defer srv.Close()

	p, err := NewProvider(map[string]any{"api_key": "secret", "base_url": srv.URL + "/"})
	require.NoError(t, err)

	out, err := p.Embed(context.Background(), []string{"КазНУ", "ЕНУ"})
	require.NoError(t, err)
	require.Len(t, out, 2)
	assert.Equal(t, []float32{0.3, 0.4}, out[1])
}

func TestEmbedCountMismatch(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, `{"embeddings":[]}`)
	}))
	defer srv.Close()

	p, err := NewProvider(map[string]any{"api_key": "k", "base_url": srv.URL})
	require.NoError(t, err)

	_, err = p.EmbedSingle(context.Background(), "text")
	assert.Error(t, err)
}

func TestGenerate(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		assert.True(t, strings.HasSuffix(r.URL.Path, "gemini-1.5-flash:generateContent"))
		assert.Contains(t, string(body), `"systemInstruction"`)
		assert.Contains(t, string(body), `"temperature":0.2`)
		assert.Contains(t, string(body), `"topK":40`)
		_, _ = io.WriteString(w, `{
			"candidates":[{"content":{"role":"model","parts":[{"text":"Ответ "},{"text":"готов"}]}}],
			"usageMetadata":{"promptTokenCount":10,"candidatesTokenCount":5,"totalTokenCount":15}
		}`)
	}))
	defer srv.Close()

	p, err := NewProvider(map[string]any{"api_key": "k", "base_url": srv.URL})
	require.NoError(t, err)

	temp := 0.2
	resp, err := p.Generate(context.Background(), &llm.GenerateRequest{
		SystemPrompt: "Ты профориентолог",
		Prompt:       "Какой университет выбрать?",
		Temperature:  &temp,
	})
	require.NoError(t, err)
	assert.Equal(t, "Ответ готов", resp.Content)
	require.NotNil(t, resp.TokenUsage)
	assert.Equal(t, 15, resp.TokenUsage.TotalTokens)
}

func TestGenerateEmptyCandidates(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, `{"candidates":[]}`)
	}))
	defer srv.Close()

	p, err := NewProvider(map[string]any{"api_key": "k", "base_url": srv.URL})
	require.NoError(t, err)

	_, err = p.Generate(context.Background(), &llm.GenerateRequest{Prompt: "x"})
	assert.ErrorContains(t, err, "empty candidates")
}
