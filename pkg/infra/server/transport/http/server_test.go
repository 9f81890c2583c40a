package http

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apierrors "github.com/kart-io/unirag/pkg/errors"
	"github.com/kart-io/unirag/pkg/infra/middleware"
	options "github.com/kart-io/unirag/pkg/options/server/http"
)

func testOptions() *options.Options {
	o := options.NewOptions()
	o.Addr = "127.0.0.1:0"
	o.Mode = gin.TestMode
	return o
}

func TestNoRouteUsesErrorEnvelope(t *testing.T) {
	s := NewServer(testOptions(), nil)

	w := httptest.NewRecorder()
	s.Engine().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/missing", nil))

	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Contains(t, w.Body.String(), `"code":`)
	assert.Contains(t, w.Body.String(), apierrors.ErrNotFound.MessageEN)
	assert.NotEmpty(t, w.Header().Get(middleware.HeaderXRequestID))
}

func TestStartServeStop(t *testing.T) {
	s := NewServer(testOptions(), nil)
	s.Engine().GET("/ping", func(c *gin.Context) { c.String(http.StatusOK, "pong") })

	require.NoError(t, s.Start(context.Background()))
	defer func() { assert.NoError(t, s.Stop(context.Background())) }()

	resp, err := http.Get("http://" + s.Addr() + "/ping")
	require.NoError(t, err)
	defer resp.Body.Close()

	body, _ := io.ReadAll(resp.Body)
	assert.Equal(t, "pong", string(body))
}

func TestStartFailsOnBusyPort(t *testing.T) {
	first := NewServer(testOptions(), nil)
	require.NoError(t, first.Start(context.Background()))
	defer func() { _ = first.Stop(context.Background()) }()

	o := testOptions()
	o.Addr = first.Addr()
	assert.Error(t, NewServer(o, nil).Start(context.Background()))
}
