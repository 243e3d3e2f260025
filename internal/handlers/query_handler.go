package handlers

import (
	"net/http"

	"taskdesk-api/internal/apperr"
	"taskdesk-api/internal/command"
	"taskdesk-api/internal/middleware"
	"taskdesk-api/internal/models"
	"taskdesk-api/internal/service"

	"github.com/gin-gonic/gin"
)

type CreateQueryRequest struct {
	Title       string               `json:"title" binding:"required"`
	Description string               `json:"description" binding:"required"`
	Priority    models.QueryPriority `json:"priority"`
	TaskID      string               `json:"taskId"`
}

type UpdateQueryRequest struct {
	Title       *string               `json:"title"`
	Description *string               `json:"description"`
	Priority    *models.QueryPriority `json:"priority"`
	Status      *models.QueryStatus   `json:"status"`
	AssignedTo  *string               `json:"assignedTo"`
}

func (r UpdateQueryRequest) toCommand() command.QueryUpdate {
	var u command.QueryUpdate
	edit := &command.QueryEdit{Title: r.Title, Description: r.Description, Priority: r.Priority}
	if !edit.Empty() {
		u.Edit = edit
	}
	if r.Status != nil {
		u.Status = &command.QueryStatusTransition{To: *r.Status}
	}
	if r.AssignedTo != nil {
		u.Assignment = &command.AssignmentChange{AssigneeID: *r.AssignedTo}
	}
	return u
}

type AddCommentRequest struct {
	Text string `json:"text" binding:"required"`
}

// ListQueries handles GET /api/queries
func (h *Handler) ListQueries(c *gin.Context) {
	page, sort, search := listParams(c)
	in := service.ListQueriesInput{
		Statuses: csvQuery[models.QueryStatus](c, "status"),
		TaskID:   c.Query("taskId"),
		Search:   search,
		Sort:     sort,
		Page:     page,
	}
	for _, s := range in.Statuses {
		if !s.Valid() {
			respondError(c, apperr.Invalid("Invalid query status filter"))
			return
		}
	}

	result, err := h.queries.List(c.Request.Context(), middleware.Principal(c), in)
	if err != nil {
		respondError(c, err)
		return
	}
	respondList(c, result)
}

// CreateQuery handles POST /api/queries
func (h *Handler) CreateQuery(c *gin.Context) {
	var req CreateQueryRequest
	if err := bindJSON(c, &req); err != nil {
		respondError(c, err)
		return
	}
	q, err := h.queries.Create(c.Request.Context(), middleware.Principal(c), service.CreateQueryInput{
		Title:       req.Title,
		Description: req.Description,
		Priority:    req.Priority,
		TaskID:      req.TaskID,
	})
	if err != nil {
		respondError(c, err)
		return
	}
	respond(c, http.StatusCreated, q, "Query created")
}

// GetQuery handles GET /api/queries/:id
func (h *Handler) GetQuery(c *gin.Context) {
	q, err := h.queries.Get(c.Request.Context(), middleware.Principal(c), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	respond(c, http.StatusOK, q, "")
}

// UpdateQuery handles PUT /api/queries/:id
func (h *Handler) UpdateQuery(c *gin.Context) {
	var req UpdateQueryRequest
	if err := bindJSON(c, &req); err != nil {
		respondError(c, err)
		return
	}
	q, err := h.queries.Update(c.Request.Context(), middleware.Principal(c), c.Param("id"), req.toCommand())
	if err != nil {
		respondError(c, err)
		return
	}
	respond(c, http.StatusOK, q, "Query updated")
}

// DeleteQuery handles DELETE /api/queries/:id
func (h *Handler) DeleteQuery(c *gin.Context) {
	if err := h.queries.Delete(c.Request.Context(), middleware.Principal(c), c.Param("id")); err != nil {
		respondError(c, err)
		return
	}
	respond(c, http.StatusOK, nil, "Query deleted")
}

// AddComment handles POST /api/queries/:id/comments
func (h *Handler) AddComment(c *gin.Context) {
	var req AddCommentRequest
	if err := bindJSON(c, &req); err != nil {
		respondError(c, apperr.Invalid("Comment text is required"))
		return
	}
	res, err := h.queries.AddComment(c.Request.Context(), middleware.Principal(c), c.Param("id"), req.Text)
	if err != nil {
		respondError(c, err)
		return
	}
	respond(c, http.StatusCreated, res, "Comment added")
}
