package service

import (
	"context"
	"errors"
	"time"

	"taskdesk-api/internal/access"
	"taskdesk-api/internal/apperr"
	"taskdesk-api/internal/command"
	"taskdesk-api/internal/lifecycle"
	"taskdesk-api/internal/models"
	"taskdesk-api/internal/realtime"
	"taskdesk-api/internal/store"

	"github.com/oklog/ulid/v2"
)

type QueryService struct {
	queries  store.QueryStore
	tasks    store.TaskStore
	users    store.UserStore
	notifier Notifier
	now      func() time.Time
}

func NewQueryService(queries store.QueryStore, tasks store.TaskStore, users store.UserStore, notifier Notifier) *QueryService {
	return &QueryService{
		queries:  queries,
		tasks:    tasks,
		users:    users,
		notifier: orNop(notifier),
		now:      func() time.Time { return time.Now().UTC() },
	}
}

type CreateQueryInput struct {
	Title       string
	Description string
	Priority    models.QueryPriority
	TaskID      string
}

type ListQueriesInput struct {
	Statuses []models.QueryStatus
	TaskID   string
	Search   string
	Sort     store.Sort
	Page     store.Page
}

// CommentResult is the outcome of AddComment: the new comment and the query
// status after the implicit transition.
type CommentResult struct {
	Comment     CommentView        `json:"comment"`
	QueryStatus models.QueryStatus `json:"queryStatus"`
	Query       *QueryView         `json:"query"`
}

func (s *QueryService) Create(ctx context.Context, p models.Principal, in CreateQueryInput) (*QueryView, error) {
	title, err := requireText(in.Title, "Title")
	if err != nil {
		return nil, err
	}
	description, err := requireText(in.Description, "Description")
	if err != nil {
		return nil, err
	}
	if in.Priority != "" && !in.Priority.Valid() {
		return nil, apperr.Invalid("Invalid query priority")
	}

	q := &models.Query{
		ID:          ulid.Make().String(),
		Title:       title,
		Description: description,
		CreatedBy:   p.ID,
		Priority:    in.Priority,
	}
	var linked *models.Task
	if in.TaskID != "" {
		linked, err = s.loadTask(ctx, in.TaskID)
		if err != nil {
			return nil, err
		}
		if !access.CanLinkQueryToTask(p, linked) {
			return nil, apperr.Forbidden("Not authorized to create a query for this task")
		}
		q.TaskID = &linked.ID
	}

	now := s.now()
	lifecycle.NewQuery(q, now)
	if err := s.queries.Create(ctx, q); err != nil {
		return nil, apperr.WrapStoreError("Query", err)
	}
	s.notifyQuery(realtime.QueryCreated, q, linked, p, now)
	return s.view(ctx, p, q, linked, nil)
}

func (s *QueryService) Get(ctx context.Context, p models.Principal, id string) (*QueryView, error) {
	q, linked, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := access.RequireQueryView(p, q, linked); err != nil {
		return nil, err
	}
	return s.view(ctx, p, q, linked, nil)
}

func (s *QueryService) List(ctx context.Context, p models.Principal, in ListQueriesInput) (*Page[QueryView], error) {
	if in.TaskID != "" {
		t, err := s.loadTask(ctx, in.TaskID)
		if err != nil {
			return nil, err
		}
		if !access.CanLinkQueryToTask(p, t) {
			return nil, apperr.Forbidden("Not authorized to access this task")
		}
	}

	var taskIDs []string
	if !p.IsAdmin() {
		ids, err := s.tasks.IDsVisibleTo(ctx, p.ID)
		if err != nil {
			return nil, apperr.WrapStoreError("Task", err)
		}
		taskIDs = ids
	}
	f := store.QueryFilter{
		Scope:    access.QueryScopeFor(p, taskIDs),
		Statuses: in.Statuses,
		TaskID:   in.TaskID,
		Search:   in.Search,
		Sort:     in.Sort,
		Page:     normalizePage(in.Page),
	}

	queries, total, err := s.queries.List(ctx, f)
	if err != nil {
		return nil, apperr.WrapStoreError("Query", err)
	}
	ptrs := make([]*models.Query, len(queries))
	for i := range queries {
		ptrs[i] = &queries[i]
	}
	sums, err := loadSummaries(ctx, s.users, queryUserIDs(ptrs...))
	if err != nil {
		return nil, err
	}
	items := make([]QueryView, 0, len(queries))
	for _, q := range ptrs {
		items = append(items, newQueryView(q, access.ForQueryInScope(p, q, f.Scope), sums, nil))
	}
	return &Page[QueryView]{Items: items, Total: total, Page: f.Page.Page, Limit: f.Page.Limit}, nil
}

// Update applies the field groups of u that p may write; the rest are
// reported in IgnoredFields.
func (s *QueryService) Update(ctx context.Context, p models.Principal, id string, u command.QueryUpdate) (*QueryView, error) {
	if err := validateQueryUpdate(u); err != nil {
		return nil, err
	}
	for attempt := 0; attempt < maxAttempts; attempt++ {
		q, linked, err := s.load(ctx, id)
		if err != nil {
			return nil, err
		}
		change, err := access.AuthorizeQueryUpdate(p, q, linked, u)
		if err != nil {
			return nil, err
		}
		if a := change.Assignment(); a != nil {
			if err := ensureUser(ctx, s.users, a.AssigneeID); err != nil {
				return nil, err
			}
		}

		expect := q.Status
		next := q.Clone()
		now := s.now()
		if !lifecycle.ApplyQueryChange(next, change, now) {
			return s.view(ctx, p, q, linked, change.Ignored())
		}
		err = s.queries.Update(ctx, next, expect)
		if isConflict(err) {
			continue
		}
		if err != nil {
			return nil, apperr.WrapStoreError("Query", err)
		}

		s.notifyQuery(realtime.QueryUpdated, next, linked, p, now)
		return s.view(ctx, p, next, linked, change.Ignored())
	}
	return nil, aborted("Query")
}

// AddComment appends a comment from p. A reply by anyone other than the
// creator moves an open query to in-progress in the same write.
func (s *QueryService) AddComment(ctx context.Context, p models.Principal, id, text string) (*CommentResult, error) {
	text, err := requireText(text, "Comment text")
	if err != nil {
		return nil, err
	}
	q, linked, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := access.RequireQueryComment(p, q, linked); err != nil {
		return nil, err
	}

	c := models.Comment{
		ID:        ulid.Make().String(),
		QueryID:   q.ID,
		Author:    p.ID,
		Text:      text,
		CreatedAt: s.now(),
	}
	status, err := s.queries.AppendComment(ctx, q.ID, c, lifecycle.CommentAdvance(p.ID))
	if err != nil {
		return nil, apperr.WrapStoreError("Query", err)
	}

	// Mirror the write on the loaded copy; the stored status wins if another
	// request changed it meanwhile.
	lifecycle.AppendComment(q, c)
	q.Status = status

	s.notifyQuery(realtime.QueryCommented, q, linked, p, c.CreatedAt)
	view, err := s.view(ctx, p, q, linked, nil)
	if err != nil {
		return nil, err
	}
	return &CommentResult{
		Comment:     view.Comments[len(view.Comments)-1],
		QueryStatus: status,
		Query:       view,
	}, nil
}

func (s *QueryService) Delete(ctx context.Context, p models.Principal, id string) error {
	q, linked, err := s.load(ctx, id)
	if err != nil {
		return err
	}
	if err := access.RequireQueryDelete(p, q, linked); err != nil {
		return err
	}
	if err := s.queries.Delete(ctx, id); err != nil {
		return apperr.WrapStoreError("Query", err)
	}
	s.notifyQuery(realtime.QueryDeleted, q, linked, p, s.now())
	return nil
}

// load returns the query and the task it links to. A linked task that no
// longer exists is returned as nil and grants no access.
func (s *QueryService) load(ctx context.Context, id string) (*models.Query, *models.Task, error) {
	q, err := s.queries.Get(ctx, id)
	if err != nil {
		return nil, nil, apperr.WrapStoreError("Query", err)
	}
	if q.TaskID == nil {
		return q, nil, nil
	}
	t, err := s.tasks.Get(ctx, *q.TaskID)
	if errors.Is(err, store.ErrNotFound) {
		return q, nil, nil
	}
	if err != nil {
		return nil, nil, apperr.WrapStoreError("Task", err)
	}
	return q, t, nil
}

func (s *QueryService) loadTask(ctx context.Context, id string) (*models.Task, error) {
	t, err := s.tasks.Get(ctx, id)
	if err != nil {
		return nil, apperr.WrapStoreError("Task", err)
	}
	return t, nil
}

func (s *QueryService) view(ctx context.Context, p models.Principal, q *models.Query, linked *models.Task, ignored []command.Group) (*QueryView, error) {
	sums, err := loadSummaries(ctx, s.users, queryUserIDs(q))
	if err != nil {
		return nil, err
	}
	v := newQueryView(q, access.ForQuery(p, q, linked), sums, ignored)
	return &v, nil
}

// notifyQuery tells the query's creator and assignee, plus the people working
// on the linked task, who can all see the query.
func (s *QueryService) notifyQuery(typ realtime.EventType, q *models.Query, linked *models.Task, actor models.Principal, at time.Time) {
	ids := []string{q.CreatedBy, deref(q.AssignedTo)}
	if linked != nil {
		ids = append(ids, linked.CreatedBy, deref(linked.AssignedTo))
	}
	s.notifier.Notify(ids, event(typ, q.ID, actor.ID, at))
}

func validateQueryUpdate(u command.QueryUpdate) error {
	if e := u.Edit; e != nil {
		if e.Title != nil {
			title, err := requireText(*e.Title, "Title")
			if err != nil {
				return err
			}
			e.Title = &title
		}
		if e.Description != nil {
			description, err := requireText(*e.Description, "Description")
			if err != nil {
				return err
			}
			e.Description = &description
		}
		if e.Priority != nil && !e.Priority.Valid() {
			return apperr.Invalid("Invalid query priority")
		}
	}
	if u.Status != nil && !u.Status.To.Valid() {
		return apperr.Invalid("Invalid query status")
	}
	if u.Assignment != nil && u.Assignment.AssigneeID == "" {
		return apperr.Invalid("User id is required")
	}
	return nil
}
