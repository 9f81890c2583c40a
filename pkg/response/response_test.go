package response

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kart-io/unirag/pkg/errors"
	"github.com/kart-io/unirag/pkg/utils/json"
	"github.com/kart-io/unirag/pkg/validator"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func newContext(lang string) (*gin.Context, *httptest.ResponseRecorder) {
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodGet, "/", nil)
	if lang != "" {
		c.Request.Header.Set("Accept-Language", lang)
	}
	return c, w
}

func TestOKWritesBareDocument(t *testing.T) {
	c, w := newContext("")
	OK(c, map[string]string{"status": "healthy"})

	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"status":"healthy"}`, w.Body.String())
}

func TestFailUsesLanguage(t *testing.T) {
	c, w := newContext("ru")
	Fail(c, errors.ErrRAGNotReady)

	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	assert.True(t, c.IsAborted())

	var body ErrorBody
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, errors.ErrRAGNotReady.Code, body.Code)
	assert.Equal(t, errors.ErrRAGNotReady.MessageRU, body.Message)
}

func TestFailWithErrorWrapsPlainErrors(t *testing.T) {
	c, w := newContext("")
	FailWithError(c, assert.AnError)

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Contains(t, w.Body.String(), "Internal server error")
}

func TestFailWithValidation(t *testing.T) {
	c, w := newContext("")
	verr := validator.NewValidationError("question", "required", "question is a required field")
	FailWithValidation(c, errors.ErrRAGInvalidRequest, verr)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	var body ErrorBody
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, "question is a required field", body.Message)
	assert.NotNil(t, body.Details)
}
