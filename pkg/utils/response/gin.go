package response

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/kart-io/medextract/pkg/utils/errors"
)

// RequestIDKey is the gin context key holding the request ID.
const RequestIDKey = "request_id"

// OK writes a 200 success envelope.
func OK(c *gin.Context, data any) {
	write(c, Success(data))
}

// Accepted writes a 202 success envelope with a custom message.
func Accepted(c *gin.Context, message string, data any) {
	r := SuccessWithMessage(message, data)
	r.HTTPCode = http.StatusAccepted
	write(c, r)
}

// Fail writes the envelope for err. Non-Errno errors become ErrInternal.
func Fail(c *gin.Context, err error) {
	write(c, Err(errors.FromError(err)))
}

// FailWithData writes the envelope for err with a payload attached.
func FailWithData(c *gin.Context, err error, data any) {
	write(c, ErrorWithData(errors.FromError(err), data))
}

func write(c *gin.Context, r *Response) {
	r.WithRequestID(c.GetString(RequestIDKey)).WithTimestamp(time.Now().UnixMilli())
	c.JSON(r.HTTPStatus(), r)
}
