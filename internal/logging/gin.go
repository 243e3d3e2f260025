package logging

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

type Level int

const (
	LevelDebug Level = iota + 1
	LevelInfo
	LevelWarn
	LevelError
)

func HTTPStatusToLevel(status int) Level {
	switch {
	case status >= 100 && status < 400:
		return LevelInfo
	case status == 499:
		return LevelInfo
	case status >= 400 && status < 500:
		return LevelWarn
	case status >= 500:
		return LevelError
	default:
		return LevelError
	}
}

// GinMiddleware logs every request except those rejected by skip (may be nil).
func GinMiddleware(skip func(c *gin.Context) bool) gin.HandlerFunc {
	return func(c *gin.Context) {
		startTime := time.Now()
		ctx := ContextWithAttributes(c.Request.Context())
		AddAttributes(ctx, map[string]any{
			"method": c.Request.Method,
			"path":   c.Request.URL.Path,
			"proto":  c.Request.Proto,
		})
		c.Request = c.Request.WithContext(ctx)

		c.Next()

		if skip != nil && skip(c) {
			return
		}
		status := c.Writer.Status()
		AddAttributes(ctx, map[string]any{
			"status":        status,
			"bytes_written": c.Writer.Size(),
			"duration":      time.Since(startTime),
		})
		msg := http.StatusText(status)
		switch HTTPStatusToLevel(status) {
		case LevelError:
			slog.ErrorContext(ctx, msg)
		case LevelWarn:
			slog.WarnContext(ctx, msg)
		case LevelInfo:
			slog.InfoContext(ctx, msg)
		case LevelDebug:
			slog.DebugContext(ctx, msg)
		}
	}
}
