package ollama

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kart-io/unirag/pkg/llm"
)

func TestEmbedAndGenerate(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/api/embed":
			_, _ = io.WriteString(w, `{"embeddings":[[0.5,0.5]]}`)
		case "/api/generate":
			body, _ := io.ReadAll(r.Body)
			assert.Contains(t, string(body), `"stream":false`)
			_, _ = io.WriteString(w, `{"response":"Алматы","prompt_eval_count":3,"eval_count":2}`)
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	defer srv.Close()

	p, err := llm.NewProvider(ProviderName, map[string]any{"base_url": srv.URL})
	require.NoError(t, err)

	vec, err := p.EmbedSingle(context.Background(), "город")
	require.NoError(t, err)
	assert.Equal(t, []float32{0.5, 0.5}, vec)

	resp, err := p.Generate(context.Background(), &llm.GenerateRequest{Prompt: "Где?"})
	require.NoError(t, err)
	assert.Equal(t, "Алматы", resp.Content)
	assert.Equal(t, 5, resp.TokenUsage.TotalTokens)
}
