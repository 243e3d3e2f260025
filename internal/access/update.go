package access

import (
	"taskdesk-api/internal/apperr"
	"taskdesk-api/internal/command"
	"taskdesk-api/internal/models"
)

// TaskChange is an update that passed authorization. It can only be built by
// AuthorizeTaskUpdate and AuthorizeTaskAssign, so every change a service
// applies has been checked field group by field group.
type TaskChange struct {
	edit       *command.TaskEdit
	status     *command.TaskStatusTransition
	assignment *command.AssignmentChange
	ignored    []command.Group
}

func (c TaskChange) Edit() *command.TaskEdit { return c.edit }
func (c TaskChange) Status() *command.TaskStatusTransition { return c.status }
func (c TaskChange) Assignment() *command.AssignmentChange { return c.assignment }
func (c TaskChange) Ignored() []command.Group { return c.ignored }
func (c TaskChange) Empty() bool { return c.edit == nil && c.status == nil && c.assignment == nil }

// QueryChange is the query counterpart of TaskChange.
type QueryChange struct {
	edit       *command.QueryEdit
	status     *command.QueryStatusTransition
	assignment *command.AssignmentChange
	ignored    []command.Group
}

func (c QueryChange) Edit() *command.QueryEdit { return c.edit }
func (c QueryChange) Status() *command.QueryStatusTransition { return c.status }
func (c QueryChange) Assignment() *command.AssignmentChange { return c.assignment }
func (c QueryChange) Ignored() []command.Group { return c.ignored }
func (c QueryChange) Empty() bool { return c.edit == nil && c.status == nil && c.assignment == nil }

// AuthorizeTaskUpdate checks the coarse edit permission and then filters u
// by field group. Groups the requester may not write are dropped and listed
// in Ignored; they never cause an error.
//
//	edit (title, description, tags, priority, due date): owner or admin
//	status: admin
//	assignedTo: admin
func AuthorizeTaskUpdate(p models.Principal, t *models.Task, u command.TaskUpdate) (TaskChange, error) {
	caps := ForTask(p, t)
	if !caps.CanView {
		return TaskChange{}, apperr.Forbidden("Not authorized to access this task")
	}
	if !caps.CanEdit {
		return TaskChange{}, apperr.Forbidden("Not authorized to update this task")
	}

	var change TaskChange
	if !u.Edit.Empty() {
		change.edit = u.Edit
	}
	if u.Status != nil {
		if p.IsAdmin() {
			change.status = u.Status
		} else {
			change.ignored = append(change.ignored, command.GroupStatus)
		}
	}
	if u.Assignment != nil {
		if caps.CanAssign {
			change.assignment = u.Assignment
		} else {
			change.ignored = append(change.ignored, command.GroupAssignment)
		}
	}
	return change, nil
}

// AuthorizeTaskAssign authorizes a bare assignment, as issued by the assign
// endpoint.
func AuthorizeTaskAssign(p models.Principal, t *models.Task, a command.AssignmentChange) (TaskChange, error) {
	if !ForTask(p, t).CanAssign {
		return TaskChange{}, apperr.Forbidden("Not authorized to assign this task")
	}
	return TaskChange{assignment: &a}, nil
}

// AuthorizeQueryUpdate applies the query field rules:
//
//	gate: owner, linked-task creator/assignee, or admin
//	edit (title, description, priority): owner or admin
//	status, assignedTo: admin
func AuthorizeQueryUpdate(p models.Principal, q *models.Query, linked *models.Task, u command.QueryUpdate) (QueryChange, error) {
	if !ForQuery(p, q, linked).CanView {
		return QueryChange{}, apperr.Forbidden("Not authorized to access this query")
	}
	if !CanEnterQueryUpdate(p, q, linked) {
		return QueryChange{}, apperr.Forbidden("Not authorized to update this query")
	}

	caps := ForQuery(p, q, linked)
	var change QueryChange
	if !u.Edit.Empty() {
		if caps.CanEdit {
			change.edit = u.Edit
		} else {
			change.ignored = append(change.ignored, command.GroupEdit)
		}
	}
	if u.Status != nil {
		if p.IsAdmin() {
			change.status = u.Status
		} else {
			change.ignored = append(change.ignored, command.GroupStatus)
		}
	}
	if u.Assignment != nil {
		if caps.CanAssign {
			change.assignment = u.Assignment
		} else {
			change.ignored = append(change.ignored, command.GroupAssignment)
		}
	}
	return change, nil
}

func RequireTaskView(p models.Principal, t *models.Task) error {
	if !ForTask(p, t).CanView {
		return apperr.Forbidden("Not authorized to access this task")
	}
	return nil
}

func RequireTaskDelete(p models.Principal, t *models.Task) error {
	if !ForTask(p, t).CanDelete {
		return apperr.Forbidden("Not authorized to delete this task")
	}
	return nil
}

func RequireQueryView(p models.Principal, q *models.Query, linked *models.Task) error {
	if !ForQuery(p, q, linked).CanView {
		return apperr.Forbidden("Not authorized to access this query")
	}
	return nil
}

func RequireQueryComment(p models.Principal, q *models.Query, linked *models.Task) error {
	if !ForQuery(p, q, linked).CanComment {
		return apperr.Forbidden("Not authorized to comment on this query")
	}
	return nil
}

func RequireQueryDelete(p models.Principal, q *models.Query, linked *models.Task) error {
	if !ForQuery(p, q, linked).CanDelete {
		return apperr.Forbidden("Not authorized to delete this query")
	}
	return nil
}
