// Package handlers adapts the services to gin. Handlers bind and validate the
// request, call exactly one service operation and write the JSON envelope.
package handlers

import (
	"net/http"
	"strconv"
	"strings"

	"taskdesk-api/internal/apperr"
	"taskdesk-api/internal/middleware"
	"taskdesk-api/internal/realtime"
	"taskdesk-api/internal/service"
	"taskdesk-api/internal/store"

	"github.com/gin-gonic/gin"
)

type Handler struct {
	users   *service.UserService
	tasks   *service.TaskService
	queries *service.QueryService
	hub     *realtime.Hub
}

func New(users *service.UserService, tasks *service.TaskService, queries *service.QueryService, hub *realtime.Hub) *Handler {
	return &Handler{users: users, tasks: tasks, queries: queries, hub: hub}
}

// Health handles GET /health
func Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

type successBody struct {
	Success bool   `json:"success"`
	Data    any    `json:"data,omitempty"`
	Message string `json:"message,omitempty"`
}

type listBody struct {
	Success bool  `json:"success"`
	Data    any   `json:"data"`
	Count   int   `json:"count"`
	Total   int64 `json:"total"`
	Page    int   `json:"page"`
	Pages   int   `json:"pages"`
}

func respond(c *gin.Context, status int, data any, message string) {
	c.JSON(status, successBody{Success: true, Data: data, Message: message})
}

func respondList[T any](c *gin.Context, p *service.Page[T]) {
	c.JSON(http.StatusOK, listBody{
		Success: true,
		Data:    p.Items,
		Count:   len(p.Items),
		Total:   p.Total,
		Page:    p.Page,
		Pages:   p.Pages(),
	})
}

func respondError(c *gin.Context, err error) {
	middleware.AbortWithError(c, err)
}

// bindJSON binds the body into req, turning binding failures into
// InvalidArgument errors.
func bindJSON(c *gin.Context, req any) error {
	if err := c.ShouldBindJSON(req); err != nil {
		return apperr.NewError(apperr.InvalidArgument, "Invalid request body", err)
	}
	return nil
}

// listParams reads the paging, sorting and search parameters shared by the
// list endpoints. Malformed numbers fall back to the defaults.
func listParams(c *gin.Context) (store.Page, store.Sort, string) {
	page, err := strconv.Atoi(c.DefaultQuery("page", "1"))
	if err != nil || page < 1 {
		page = 1
	}
	limit, err := strconv.Atoi(c.DefaultQuery("limit", strconv.Itoa(service.DefaultPageLimit)))
	if err != nil || limit < 1 {
		limit = service.DefaultPageLimit
	}
	return store.Page{Page: page, Limit: limit},
		store.ParseSort(c.Query("sortBy")),
		strings.TrimSpace(c.Query("search"))
}

// csvQuery splits a comma separated query parameter, dropping blanks.
func csvQuery[T ~string](c *gin.Context, key string) []T {
	raw := c.Query(key)
	if raw == "" {
		return nil
	}
	var out []T
	for _, part := range strings.Split(raw, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, T(part))
		}
	}
	return out
}
