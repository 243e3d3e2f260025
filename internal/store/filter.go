package store

import (
	"slices"
	"strings"

	"taskdesk-api/internal/models"
)

// TaskScope restricts a task listing to what a requester may view.
type TaskScope struct {
	All    bool
	UserID string
}

// Matches evaluates the scope against a single task. Store implementations
// translate the same predicate into their query language.
func (s TaskScope) Matches(t *models.Task) bool {
	if s.All {
		return true
	}
	return t.CreatedBy == s.UserID || t.IsAssignedTo(s.UserID)
}

// QueryScope restricts a query listing to what a requester may view. TaskIDs
// holds the tasks the requester created or is assigned to.
type QueryScope struct {
	All     bool
	UserID  string
	TaskIDs []string
}

func (s QueryScope) Matches(q *models.Query) bool {
	if s.All {
		return true
	}
	if q.CreatedBy == s.UserID || q.IsAssignedTo(s.UserID) {
		return true
	}
	return q.TaskID != nil && slices.Contains(s.TaskIDs, *q.TaskID)
}

// Sort is a whitelisted sort key.
type Sort struct {
	Field string
	Desc  bool
}

// Page selects a window of a listing. Page is 1-based.
type Page struct {
	Page  int
	Limit int
}

func (p Page) Offset() int {
	if p.Page < 1 {
		return 0
	}
	return (p.Page - 1) * p.Limit
}

type TaskFilter struct {
	Scope      TaskScope
	Statuses   []models.TaskStatus
	Priorities []models.TaskPriority
	AssignedTo string
	Search     string
	Sort       Sort
	Page       Page
}

type QueryFilter struct {
	Scope    QueryScope
	Statuses []models.QueryStatus
	TaskID   string
	Search   string
	Sort     Sort
	Page     Page
}

type UserFilter struct {
	Role      models.Role
	ExcludeID string
}

// SortFields maps API sort keys onto stored field names per backend.
var SortFields = map[string]struct{ Column, Document string }{
	"createdAt": {"created_at", "createdAt"},
	"updatedAt": {"updated_at", "updatedAt"},
	"dueDate":   {"due_date", "dueDate"},
	"priority":  {"priority", "priority"},
	"status":    {"status", "status"},
	"title":     {"title", "title"},
}

// ParseSort parses "field:asc|desc". Unknown fields fall back to newest first.
func ParseSort(raw string) Sort {
	field, dir, _ := strings.Cut(raw, ":")
	if _, ok := SortFields[field]; !ok {
		return Sort{Field: "createdAt", Desc: true}
	}
	return Sort{Field: field, Desc: dir == "desc"}
}
