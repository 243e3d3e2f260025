// Package command holds the tagged update commands a client may submit.
// Each field group maps onto exactly one authorization rule, so a request is
// split into groups before any of it is authorized or applied.
package command

import (
	"time"

	"taskdesk-api/internal/models"
)

// Group names a field group, as reported back in ignoredFields.
type Group string

const (
	GroupEdit       Group = "edit"
	GroupStatus     Group = "status"
	GroupAssignment Group = "assignedTo"
)

// TaskEdit carries the owner-editable fields of a task. Nil means unchanged.
type TaskEdit struct {
	Title       *string
	Description *string
	Tags        *[]string
	Priority    *models.TaskPriority
	DueDate     *time.Time
	// ClearDueDate removes the due date. It wins over DueDate.
	ClearDueDate bool
}

func (e *TaskEdit) Empty() bool {
	return e == nil || (e.Title == nil && e.Description == nil && e.Tags == nil &&
		e.Priority == nil && e.DueDate == nil && !e.ClearDueDate)
}

// Apply copies the set fields onto t.
func (e *TaskEdit) Apply(t *models.Task) {
	if e == nil {
		return
	}
	if e.Title != nil {
		t.Title = *e.Title
	}
	if e.Description != nil {
		t.Description = *e.Description
	}
	if e.Tags != nil {
		t.Tags = append([]string{}, (*e.Tags)...)
	}
	if e.Priority != nil {
		t.Priority = *e.Priority
	}
	if e.ClearDueDate {
		t.DueDate = nil
	} else if e.DueDate != nil {
		d := *e.DueDate
		t.DueDate = &d
	}
}

// QueryEdit carries the owner-editable fields of a query.
type QueryEdit struct {
	Title       *string
	Description *string
	Priority    *models.QueryPriority
}

func (e *QueryEdit) Empty() bool {
	return e == nil || (e.Title == nil && e.Description == nil && e.Priority == nil)
}

func (e *QueryEdit) Apply(q *models.Query) {
	if e == nil {
		return
	}
	if e.Title != nil {
		q.Title = *e.Title
	}
	if e.Description != nil {
		q.Description = *e.Description
	}
	if e.Priority != nil {
		q.Priority = *e.Priority
	}
}

type TaskStatusTransition struct {
	To models.TaskStatus
}

type QueryStatusTransition struct {
	To models.QueryStatus
}

// AssignmentChange sets the assignee. The target user must exist.
type AssignmentChange struct {
	AssigneeID string
}

type TaskUpdate struct {
	Edit       *TaskEdit
	Status     *TaskStatusTransition
	Assignment *AssignmentChange
}

// Groups lists the non-empty field groups of the update.
func (u TaskUpdate) Groups() []Group {
	var groups []Group
	if !u.Edit.Empty() {
		groups = append(groups, GroupEdit)
	}
	if u.Status != nil {
		groups = append(groups, GroupStatus)
	}
	if u.Assignment != nil {
		groups = append(groups, GroupAssignment)
	}
	return groups
}

type QueryUpdate struct {
	Edit       *QueryEdit
	Status     *QueryStatusTransition
	Assignment *AssignmentChange
}

func (u QueryUpdate) Groups() []Group {
	var groups []Group
	if !u.Edit.Empty() {
		groups = append(groups, GroupEdit)
	}
	if u.Status != nil {
		groups = append(groups, GroupStatus)
	}
	if u.Assignment != nil {
		groups = append(groups, GroupAssignment)
	}
	return groups
}
