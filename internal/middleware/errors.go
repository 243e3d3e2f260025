package middleware

import (
	"taskdesk-api/internal/apperr"
	"taskdesk-api/internal/logging"

	"github.com/gin-gonic/gin"
)

// ErrorBody is the JSON shape of every failed response.
type ErrorBody struct {
	Success bool   `json:"success"`
	Error   string `json:"error"`
	Message string `json:"message"`
}

// AbortWithError records err on the request log and writes the error body.
// Untyped errors are reported as opaque server errors.
func AbortWithError(c *gin.Context, err error) {
	appErr := apperr.From(err)
	ctx := c.Request.Context()
	logging.AddError(ctx, appErr)
	if appErr.Stack != "" {
		logging.AddStack(ctx, appErr.Stack)
	}
	c.AbortWithStatusJSON(appErr.Code.HTTPCode(), ErrorBody{
		Success: false,
		Error:   appErr.Code.String(),
		Message: appErr.Msg,
	})
}
