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

// CreateTaskRequest represents the request payload for creating a task
type CreateTaskRequest struct {
	Title       string              `json:"title" binding:"required"`
	Description string              `json:"description"`
	Tags        []string            `json:"tags"`
	Status      models.TaskStatus   `json:"status"`
	Priority    models.TaskPriority `json:"priority"`
	DueDate     *string             `json:"dueDate"`
	AssignedTo  string              `json:"assignedTo"`
}

// UpdateTaskRequest represents the request payload for updating a task.
// Absent fields are left unchanged; "dueDate": null clears the due date.
type UpdateTaskRequest struct {
	Title       *string              `json:"title"`
	Description *string              `json:"description"`
	Tags        *[]string            `json:"tags"`
	Priority    *models.TaskPriority `json:"priority"`
	DueDate     optionalDate         `json:"dueDate"`
	Status      *models.TaskStatus   `json:"status"`
	AssignedTo  *string              `json:"assignedTo"`
}

// toCommand splits the request into its field groups.
func (r UpdateTaskRequest) toCommand() (command.TaskUpdate, error) {
	var u command.TaskUpdate
	edit := &command.TaskEdit{
		Title:       r.Title,
		Description: r.Description,
		Tags:        r.Tags,
		Priority:    r.Priority,
	}
	if r.DueDate.Set {
		if r.DueDate.Null || r.DueDate.Value == "" {
			edit.ClearDueDate = true
		} else {
			due, err := parseDueDate(&r.DueDate.Value)
			if err != nil {
				return u, err
			}
			edit.DueDate = due
		}
	}
	if !edit.Empty() {
		u.Edit = edit
	}
	if r.Status != nil {
		u.Status = &command.TaskStatusTransition{To: *r.Status}
	}
	if r.AssignedTo != nil {
		u.Assignment = &command.AssignmentChange{AssigneeID: *r.AssignedTo}
	}
	return u, nil
}

type AssignTaskRequest struct {
	UserID string `json:"userId" binding:"required"`
}

// ListTasks handles GET /api/tasks
// Returns the tasks the requester may view, filtered, sorted and paginated.
func (h *Handler) ListTasks(c *gin.Context) {
	page, sort, search := listParams(c)
	in := service.ListTasksInput{
		Statuses:   csvQuery[models.TaskStatus](c, "status"),
		Priorities: csvQuery[models.TaskPriority](c, "priority"),
		AssignedTo: c.Query("assignedTo"),
		Search:     search,
		Sort:       sort,
		Page:       page,
	}
	for _, s := range in.Statuses {
		if !s.Valid() {
			respondError(c, apperr.Invalid("Invalid task status filter"))
			return
		}
	}
	for _, p := range in.Priorities {
		if !p.Valid() {
			respondError(c, apperr.Invalid("Invalid task priority filter"))
			return
		}
	}

	result, err := h.tasks.List(c.Request.Context(), middleware.Principal(c), in)
	if err != nil {
		respondError(c, err)
		return
	}
	respondList(c, result)
}

// CreateTask handles POST /api/tasks
func (h *Handler) CreateTask(c *gin.Context) {
	var req CreateTaskRequest
	if err := bindJSON(c, &req); err != nil {
		respondError(c, err)
		return
	}
	due, err := parseDueDate(req.DueDate)
	if err != nil {
		respondError(c, err)
		return
	}
	task, err := h.tasks.Create(c.Request.Context(), middleware.Principal(c), service.CreateTaskInput{
		Title:       req.Title,
		Description: req.Description,
		Tags:        req.Tags,
		Status:      req.Status,
		Priority:    req.Priority,
		DueDate:     due,
		AssignedTo:  req.AssignedTo,
	})
	if err != nil {
		respondError(c, err)
		return
	}
	respond(c, http.StatusCreated, task, "Task created")
}

// GetTask handles GET /api/tasks/:id
func (h *Handler) GetTask(c *gin.Context) {
	task, err := h.tasks.Get(c.Request.Context(), middleware.Principal(c), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	respond(c, http.StatusOK, task, "")
}

// UpdateTask handles PUT /api/tasks/:id
// Field groups the requester may not change are dropped and listed in
// ignoredFields.
func (h *Handler) UpdateTask(c *gin.Context) {
	var req UpdateTaskRequest
	if err := bindJSON(c, &req); err != nil {
		respondError(c, err)
		return
	}
	update, err := req.toCommand()
	if err != nil {
		respondError(c, err)
		return
	}
	task, err := h.tasks.Update(c.Request.Context(), middleware.Principal(c), c.Param("id"), update)
	if err != nil {
		respondError(c, err)
		return
	}
	respond(c, http.StatusOK, task, "Task updated")
}

// AssignTask handles POST /api/tasks/:id/assign
func (h *Handler) AssignTask(c *gin.Context) {
	var req AssignTaskRequest
	if err := bindJSON(c, &req); err != nil {
		respondError(c, err)
		return
	}
	task, err := h.tasks.Assign(c.Request.Context(), middleware.Principal(c), c.Param("id"), req.UserID)
	if err != nil {
		respondError(c, err)
		return
	}
	respond(c, http.StatusOK, task, "Task assigned")
}

// DeleteTask handles DELETE /api/tasks/:id
func (h *Handler) DeleteTask(c *gin.Context) {
	if err := h.tasks.Delete(c.Request.Context(), middleware.Principal(c), c.Param("id")); err != nil {
		respondError(c, err)
		return
	}
	respond(c, http.StatusOK, nil, "Task deleted")
}

// TaskStats handles GET /api/stats/:userid
func (h *Handler) TaskStats(c *gin.Context) {
	stats, err := h.tasks.Stats(c.Request.Context(), middleware.Principal(c), c.Param("userid"))
	if err != nil {
		respondError(c, err)
		return
	}
	respond(c, http.StatusOK, stats, "")
}
