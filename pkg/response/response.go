// Package response writes JSON responses for gin handlers.
// Successful documents are written as they are; failures use the
// {code, message} envelope carrying an errno code.
package response

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/kart-io/unirag/pkg/errors"
	"github.com/kart-io/unirag/pkg/validator"
)

// ErrorBody is the error envelope.
type ErrorBody struct {
	Code      int         `json:"code"`
	Message   string      `json:"message"`
	Details   interface{} `json:"details,omitempty"`
	RequestID string      `json:"request_id,omitempty"`
}

// RequestIDGetter resolves the request id of c; set by the request id middleware.
var RequestIDGetter = func(c *gin.Context) string { return "" }

// Lang returns the preferred language of the request.
func Lang(c *gin.Context) string {
	return c.GetHeader("Accept-Language")
}

// OK writes data with status 200.
func OK(c *gin.Context, data interface{}) {
	c.JSON(http.StatusOK, data)
}

// Fail writes e with its HTTP status and aborts the chain.
func Fail(c *gin.Context, e *errors.Errno) {
	c.AbortWithStatusJSON(e.HTTPStatus(), ErrorBody{
		Code:      e.Code,
		Message:   e.Message(Lang(c)),
		RequestID: RequestIDGetter(c),
	})
}

// FailWithError converts err to an Errno and writes it.
func FailWithError(c *gin.Context, err error) {
	Fail(c, errors.FromError(err))
}

// FailWithValidation writes a 400 carrying every field error.
func FailWithValidation(c *gin.Context, e *errors.Errno, verr *validator.ValidationErrors) {
	c.AbortWithStatusJSON(http.StatusBadRequest, ErrorBody{
		Code:      e.Code,
		Message:   verr.First(),
		Details:   verr.Errors,
		RequestID: RequestIDGetter(c),
	})
}
