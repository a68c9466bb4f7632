package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/pageza/pantrychef/backend/internal/apperr"
	"github.com/pageza/pantrychef/backend/internal/logging"
)

// StatusClientClosedRequest is answered when the caller's context ended
// before the work finished.
const StatusClientClosedRequest = 499

// ErrorResponse represents an error response
type ErrorResponse struct {
	Error string `json:"error"`
}

// Recovery turns a panic into a logged 500 with a JSON body.
func Recovery() gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			if r := recover(); r != nil {
				logging.Ctx(c.Request.Context()).Error().
					Interface("panic", r).
					Str("path", c.Request.URL.Path).
					Msg("recovered from panic")
				c.AbortWithStatusJSON(http.StatusInternalServerError, ErrorResponse{Error: "internal server error"})
			}
		}()
		c.Next()
	}
}

// RespondError writes err as {"error": ...} with the status its kind maps
// to. Internal errors are logged and their details withheld. A request whose
// context ended is logged at info level and answered with 499.
func RespondError(c *gin.Context, err error) {
	if apperr.IsCancelled(err) {
		logging.Ctx(c.Request.Context()).Info().
			Err(err).
			Str("path", c.FullPath()).
			Msg("request cancelled")
		c.AbortWithStatusJSON(StatusClientClosedRequest, ErrorResponse{Error: "request cancelled"})
		return
	}

	status := apperr.HTTPStatus(err)
	if status >= http.StatusInternalServerError {
		logging.Ctx(c.Request.Context()).Error().
			Err(err).
			Str("kind", apperr.KindOf(err).String()).
			Str("path", c.FullPath()).
			Msg("request failed")
	}
	c.AbortWithStatusJSON(status, ErrorResponse{Error: apperr.PublicMessage(err)})
}
