package service

import (
	"context"

	"taskdesk-api/internal/access"
	"taskdesk-api/internal/apperr"
	"taskdesk-api/internal/command"
	"taskdesk-api/internal/models"
	"taskdesk-api/internal/store"
)

// TaskView is a task as returned to one requester: the stored fields, the
// permission envelope, and the populated creator and assignee.
type TaskView struct {
	models.Task
	access.Envelope
	Creator       *models.UserSummary `json:"creator,omitempty"`
	Assignee      *models.UserSummary `json:"assignee,omitempty"`
	IgnoredFields []command.Group     `json:"ignoredFields,omitempty"`
}

type CommentView struct {
	models.Comment
	AuthorInfo *models.UserSummary `json:"authorInfo,omitempty"`
}

// QueryView is the query counterpart of TaskView.
type QueryView struct {
	models.Query
	access.Envelope
	Comments      []CommentView       `json:"comments"`
	Creator       *models.UserSummary `json:"creator,omitempty"`
	Assignee      *models.UserSummary `json:"assignee,omitempty"`
	IgnoredFields []command.Group     `json:"ignoredFields,omitempty"`
}

// summaries resolves user ids to their public projection in one store call.
type summaries map[string]models.UserSummary

func loadSummaries(ctx context.Context, users store.UserStore, ids []string) (summaries, error) {
	seen := make(map[string]struct{}, len(ids))
	unique := make([]string, 0, len(ids))
	for _, id := range ids {
		if id == "" {
			continue
		}
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		unique = append(unique, id)
	}
	sums, err := users.Summaries(ctx, unique)
	if err != nil {
		return nil, apperr.WrapStoreError("User", err)
	}
	return sums, nil
}

func (s summaries) get(id string) *models.UserSummary {
	if id == "" {
		return nil
	}
	sum, ok := s[id]
	if !ok {
		return nil
	}
	return &sum
}

func taskUserIDs(tasks ...*models.Task) []string {
	ids := make([]string, 0, 2*len(tasks))
	for _, t := range tasks {
		ids = append(ids, t.CreatedBy, deref(t.AssignedTo))
	}
	return ids
}

func queryUserIDs(queries ...*models.Query) []string {
	var ids []string
	for _, q := range queries {
		ids = append(ids, q.CreatedBy, deref(q.AssignedTo))
		for _, c := range q.Comments {
			ids = append(ids, c.Author)
		}
	}
	return ids
}

func newTaskView(t *models.Task, caps access.Capabilities, sums summaries, ignored []command.Group) TaskView {
	return TaskView{
		Task:          *t,
		Envelope:      caps.Envelope(),
		Creator:       sums.get(t.CreatedBy),
		Assignee:      sums.get(deref(t.AssignedTo)),
		IgnoredFields: ignored,
	}
}

func newQueryView(q *models.Query, caps access.Capabilities, sums summaries, ignored []command.Group) QueryView {
	comments := make([]CommentView, 0, len(q.Comments))
	for _, c := range q.Comments {
		comments = append(comments, CommentView{Comment: c, AuthorInfo: sums.get(c.Author)})
	}
	return QueryView{
		Query:         *q,
		Envelope:      caps.Envelope(),
		Comments:      comments,
		Creator:       sums.get(q.CreatedBy),
		Assignee:      sums.get(deref(q.AssignedTo)),
		IgnoredFields: ignored,
	}
}
