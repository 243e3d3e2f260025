// Package access decides what a requester may do with a task or a query.
//
// Every function here is pure: the caller loads the resources (including the
// task a query is linked to) and passes them in. Nothing is cached; the
// permission envelope is recomputed for each response.
package access

import (
	"slices"

	"taskdesk-api/internal/models"
	"taskdesk-api/internal/store"
)

// Capabilities is the full capability set of a requester on one resource.
type Capabilities struct {
	CanView    bool
	CanEdit    bool
	CanDelete  bool
	CanAssign  bool
	CanComment bool
}

// Envelope is the permission block attached to every resource returned to
// clients. It is never persisted.
type Envelope struct {
	CanEdit    bool `json:"canEdit"`
	CanDelete  bool `json:"canDelete"`
	CanAssign  bool `json:"canAssign"`
	CanComment bool `json:"canComment"`
}

func (c Capabilities) Envelope() Envelope {
	return Envelope{
		CanEdit:    c.CanEdit,
		CanDelete:  c.CanDelete,
		CanAssign:  c.CanAssign,
		CanComment: c.CanComment,
	}
}

// HasTaskAccess reports whether p created or is assigned to t. A nil task
// grants nothing.
func HasTaskAccess(p models.Principal, t *models.Task) bool {
	if t == nil {
		return false
	}
	return t.CreatedBy == p.ID || t.IsAssignedTo(p.ID)
}

// ForTask computes the capabilities of p on t.
func ForTask(p models.Principal, t *models.Task) Capabilities {
	owner := t.CreatedBy == p.ID
	admin := p.IsAdmin()
	view := owner || t.IsAssignedTo(p.ID) || admin
	return Capabilities{
		CanView:    view,
		CanEdit:    owner || admin,
		CanDelete:  owner || admin,
		CanAssign:  admin,
		CanComment: view,
	}
}

// ForQuery computes the capabilities of p on q. linked is the task q refers
// to, or nil when q has no task or the task no longer exists.
func ForQuery(p models.Principal, q *models.Query, linked *models.Task) Capabilities {
	return forQuery(p, q, queryTaskAccess(p, q, linked))
}

// ForQueryInScope computes the capabilities of p on a query returned by a
// listing filtered with scope. Task access is read from scope.TaskIDs, so no
// linked task has to be loaded per item.
func ForQueryInScope(p models.Principal, q *models.Query, scope store.QueryScope) Capabilities {
	taskAccess := q.TaskID != nil && slices.Contains(scope.TaskIDs, *q.TaskID)
	return forQuery(p, q, taskAccess)
}

func forQuery(p models.Principal, q *models.Query, taskAccess bool) Capabilities {
	owner := q.CreatedBy == p.ID
	admin := p.IsAdmin()
	view := owner || q.IsAssignedTo(p.ID) || taskAccess || admin
	return Capabilities{
		CanView:    view,
		CanEdit:    owner || admin,
		CanDelete:  admin,
		CanAssign:  admin,
		CanComment: view,
	}
}

// CanEnterQueryUpdate is the coarse gate of the query update path. It is
// wider than Capabilities.CanEdit: users with access to the linked task pass
// it, even though the field rules then leave them nothing to change.
func CanEnterQueryUpdate(p models.Principal, q *models.Query, linked *models.Task) bool {
	return q.CreatedBy == p.ID || queryTaskAccess(p, q, linked) || p.IsAdmin()
}

// CanLinkQueryToTask reports whether p may open a query against t.
func CanLinkQueryToTask(p models.Principal, t *models.Task) bool {
	return HasTaskAccess(p, t) || p.IsAdmin()
}

// CanViewStats reports whether p may read the task statistics of userID.
func CanViewStats(p models.Principal, userID string) bool {
	return p.IsAdmin() || p.ID == userID
}

// InitialTaskAssignee picks the assignee of a new task. Only admins may
// choose one; everybody else's tasks are assigned to themselves.
func InitialTaskAssignee(p models.Principal, requested string) string {
	if p.IsAdmin() && requested != "" {
		return requested
	}
	return p.ID
}

func queryTaskAccess(p models.Principal, q *models.Query, linked *models.Task) bool {
	if q.TaskID == nil || linked == nil || linked.ID != *q.TaskID {
		return false
	}
	return HasTaskAccess(p, linked)
}
