// Package lifecycle computes status transitions and the timestamps derived
// from them. completedAt is set iff a task is completed; resolvedAt is set
// iff a query is resolved.
package lifecycle

import (
	"time"

	"taskdesk-api/internal/access"
	"taskdesk-api/internal/models"
	"taskdesk-api/internal/store"
)

// TransitionTask moves t to status to. Entering completed stamps
// completedAt with now, leaving it clears completedAt, and repeating the
// current status changes nothing. It reports whether the status changed.
func TransitionTask(t *models.Task, to models.TaskStatus, now time.Time) bool {
	if t.Status == to {
		normalizeTask(t, now)
		return false
	}
	t.Status = to
	if to == models.TaskCompleted {
		at := now
		t.CompletedAt = &at
	} else {
		t.CompletedAt = nil
	}
	return true
}

// TransitionQuery is the query counterpart of TransitionTask for resolvedAt.
func TransitionQuery(q *models.Query, to models.QueryStatus, now time.Time) bool {
	if q.Status == to {
		normalizeQuery(q, now)
		return false
	}
	q.Status = to
	if to == models.QueryResolved {
		at := now
		q.ResolvedAt = &at
	} else {
		q.ResolvedAt = nil
	}
	return true
}

// NewTask fills defaults and derived fields of a task about to be created.
func NewTask(t *models.Task, now time.Time) {
	if t.Status == "" {
		t.Status = models.TaskPending
	}
	if t.Priority == "" {
		t.Priority = models.TaskPriorityMedium
	}
	if t.Tags == nil {
		t.Tags = []string{}
	}
	t.CompletedAt = nil
	normalizeTask(t, now)
	t.CreatedAt = now
	t.UpdatedAt = now
}

// NewQuery fills defaults of a query about to be created. Queries always
// start open.
func NewQuery(q *models.Query, now time.Time) {
	q.Status = models.QueryOpen
	if q.Priority == "" {
		q.Priority = models.QueryPriorityMedium
	}
	q.Comments = []models.Comment{}
	q.ResolvedAt = nil
	q.CreatedAt = now
	q.UpdatedAt = now
}

// ApplyTaskChange applies an authorized change to t: edits first, then the
// assignment, then the status transition. It reports whether anything
// changed; UpdatedAt is bumped only in that case.
func ApplyTaskChange(t *models.Task, c access.TaskChange, now time.Time) bool {
	before := t.Clone()
	c.Edit().Apply(t)
	if a := c.Assignment(); a != nil {
		id := a.AssigneeID
		t.AssignedTo = &id
	}
	if s := c.Status(); s != nil {
		TransitionTask(t, s.To, now)
	}
	if taskEqual(before, t) {
		return false
	}
	t.UpdatedAt = now
	return true
}

// ApplyQueryChange is the query counterpart of ApplyTaskChange.
func ApplyQueryChange(q *models.Query, c access.QueryChange, now time.Time) bool {
	before := q.Clone()
	c.Edit().Apply(q)
	if a := c.Assignment(); a != nil {
		id := a.AssigneeID
		q.AssignedTo = &id
	}
	if s := c.Status(); s != nil {
		TransitionQuery(q, s.To, now)
	}
	if queryEqual(before, q) {
		return false
	}
	q.UpdatedAt = now
	return true
}

// CommentAdvance is the implicit transition fired by a comment from author:
// an open query moves to in-progress when someone other than its creator
// replies. It never touches resolvedAt.
func CommentAdvance(author string) store.StatusAdvance {
	return store.StatusAdvance{
		From:   models.QueryOpen,
		To:     models.QueryInProgress,
		Author: author,
	}
}

// AppendComment appends c to q and applies CommentAdvance. Comments are never
// deduplicated. It reports whether the status advanced.
func AppendComment(q *models.Query, c models.Comment) bool {
	q.Comments = append(q.Comments, c)
	q.UpdatedAt = c.CreatedAt
	adv := CommentAdvance(c.Author)
	if !adv.Applies(q) {
		return false
	}
	q.Status = adv.To
	return true
}

// normalizeTask repairs a record whose completedAt disagrees with its status.
func normalizeTask(t *models.Task, now time.Time) {
	switch {
	case t.Status == models.TaskCompleted && t.CompletedAt == nil:
		at := now
		t.CompletedAt = &at
	case t.Status != models.TaskCompleted && t.CompletedAt != nil:
		t.CompletedAt = nil
	}
}

func normalizeQuery(q *models.Query, now time.Time) {
	switch {
	case q.Status == models.QueryResolved && q.ResolvedAt == nil:
		at := now
		q.ResolvedAt = &at
	case q.Status != models.QueryResolved && q.ResolvedAt != nil:
		q.ResolvedAt = nil
	}
}
