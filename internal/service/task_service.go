package service

import (
	"context"
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

type TaskService struct {
	tasks    store.TaskStore
	users    store.UserStore
	notifier Notifier
	now      func() time.Time
}

func NewTaskService(tasks store.TaskStore, users store.UserStore, notifier Notifier) *TaskService {
	return &TaskService{
		tasks:    tasks,
		users:    users,
		notifier: orNop(notifier),
		now:      func() time.Time { return time.Now().UTC() },
	}
}

type CreateTaskInput struct {
	Title       string
	Description string
	Tags        []string
	Status      models.TaskStatus
	Priority    models.TaskPriority
	DueDate     *time.Time
	// AssignedTo is honored for admins only.
	AssignedTo string
}

type ListTasksInput struct {
	Statuses   []models.TaskStatus
	Priorities []models.TaskPriority
	// AssignedTo filters by assignee for admins; it is ignored for everyone else.
	AssignedTo string
	Search     string
	Sort       store.Sort
	Page       store.Page
}

// TaskStats counts the tasks assigned to a user per status.
type TaskStats struct {
	UserID   string                      `json:"userId"`
	Total    int64                       `json:"total"`
	ByStatus map[models.TaskStatus]int64 `json:"byStatus"`
}

func (s *TaskService) Create(ctx context.Context, p models.Principal, in CreateTaskInput) (*TaskView, error) {
	title, err := requireText(in.Title, "Title")
	if err != nil {
		return nil, err
	}
	if in.Status != "" && !in.Status.Valid() {
		return nil, apperr.Invalid("Invalid task status")
	}
	if in.Priority != "" && !in.Priority.Valid() {
		return nil, apperr.Invalid("Invalid task priority")
	}

	assignee := access.InitialTaskAssignee(p, in.AssignedTo)
	if assignee != p.ID {
		if err := ensureUser(ctx, s.users, assignee); err != nil {
			return nil, err
		}
	}

	t := &models.Task{
		ID:          ulid.Make().String(),
		Title:       title,
		Description: in.Description,
		Tags:        in.Tags,
		CreatedBy:   p.ID,
		AssignedTo:  &assignee,
		Status:      in.Status,
		Priority:    in.Priority,
		DueDate:     in.DueDate,
	}
	now := s.now()
	lifecycle.NewTask(t, now)
	if err := s.tasks.Create(ctx, t); err != nil {
		return nil, apperr.WrapStoreError("Task", err)
	}

	s.notifyTask(realtime.TaskCreated, t, p, now)
	return s.view(ctx, p, t, nil)
}

func (s *TaskService) Get(ctx context.Context, p models.Principal, id string) (*TaskView, error) {
	t, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := access.RequireTaskView(p, t); err != nil {
		return nil, err
	}
	return s.view(ctx, p, t, nil)
}

func (s *TaskService) List(ctx context.Context, p models.Principal, in ListTasksInput) (*Page[TaskView], error) {
	f := store.TaskFilter{
		Scope:      access.TaskScopeFor(p),
		Statuses:   in.Statuses,
		Priorities: in.Priorities,
		Search:     in.Search,
		Sort:       in.Sort,
		Page:       normalizePage(in.Page),
	}
	if p.IsAdmin() {
		f.AssignedTo = in.AssignedTo
	}

	tasks, total, err := s.tasks.List(ctx, f)
	if err != nil {
		return nil, apperr.WrapStoreError("Task", err)
	}

	ptrs := make([]*models.Task, len(tasks))
	for i := range tasks {
		ptrs[i] = &tasks[i]
	}
	sums, err := loadSummaries(ctx, s.users, taskUserIDs(ptrs...))
	if err != nil {
		return nil, err
	}
	items := make([]TaskView, 0, len(tasks))
	for _, t := range ptrs {
		items = append(items, newTaskView(t, access.ForTask(p, t), sums, nil))
	}
	return &Page[TaskView]{Items: items, Total: total, Page: f.Page.Page, Limit: f.Page.Limit}, nil
}

// Update applies the field groups of u that p may write. Groups p may not
// write are dropped and reported in the view's IgnoredFields.
func (s *TaskService) Update(ctx context.Context, p models.Principal, id string, u command.TaskUpdate) (*TaskView, error) {
	if err := validateTaskUpdate(u); err != nil {
		return nil, err
	}
	return s.mutate(ctx, p, id, func(t *models.Task) (access.TaskChange, error) {
		return access.AuthorizeTaskUpdate(p, t, u)
	})
}

// Assign sets the assignee of a task. Admin only.
func (s *TaskService) Assign(ctx context.Context, p models.Principal, id, userID string) (*TaskView, error) {
	if userID == "" {
		return nil, apperr.Invalid("User id is required")
	}
	return s.mutate(ctx, p, id, func(t *models.Task) (access.TaskChange, error) {
		return access.AuthorizeTaskAssign(p, t, command.AssignmentChange{AssigneeID: userID})
	})
}

func (s *TaskService) mutate(ctx context.Context, p models.Principal, id string, authorize func(*models.Task) (access.TaskChange, error)) (*TaskView, error) {
	for attempt := 0; attempt < maxAttempts; attempt++ {
		t, err := s.load(ctx, id)
		if err != nil {
			return nil, err
		}
		change, err := authorize(t)
		if err != nil {
			return nil, err
		}
		if a := change.Assignment(); a != nil {
			if err := ensureUser(ctx, s.users, a.AssigneeID); err != nil {
				return nil, err
			}
		}

		expect := t.Status
		next := t.Clone()
		now := s.now()
		if !lifecycle.ApplyTaskChange(next, change, now) {
			return s.view(ctx, p, t, change.Ignored())
		}
		err = s.tasks.Update(ctx, next, expect)
		if isConflict(err) {
			continue
		}
		if err != nil {
			return nil, apperr.WrapStoreError("Task", err)
		}

		s.notifyTask(realtime.TaskUpdated, next, p, now)
		// The previous assignee loses the task; tell them too.
		if prev := deref(t.AssignedTo); prev != "" && prev != deref(next.AssignedTo) {
			s.notifier.Notify([]string{prev}, event(realtime.TaskUpdated, t.ID, p.ID, now))
		}
		return s.view(ctx, p, next, change.Ignored())
	}
	return nil, aborted("Task")
}

func (s *TaskService) Delete(ctx context.Context, p models.Principal, id string) error {
	t, err := s.load(ctx, id)
	if err != nil {
		return err
	}
	if err := access.RequireTaskDelete(p, t); err != nil {
		return err
	}
	if err := s.tasks.Delete(ctx, id); err != nil {
		return apperr.WrapStoreError("Task", err)
	}
	s.notifyTask(realtime.TaskDeleted, t, p, s.now())
	return nil
}

// Stats counts the tasks assigned to userID. Users may read their own
// statistics; admins may read anyone's.
func (s *TaskService) Stats(ctx context.Context, p models.Principal, userID string) (*TaskStats, error) {
	if !access.CanViewStats(p, userID) {
		return nil, apperr.Forbidden("Not authorized to view these statistics")
	}
	if err := ensureUser(ctx, s.users, userID); err != nil {
		return nil, err
	}
	counts, err := s.tasks.CountByStatus(ctx, userID)
	if err != nil {
		return nil, apperr.WrapStoreError("Task", err)
	}
	stats := &TaskStats{UserID: userID, ByStatus: counts}
	for _, n := range counts {
		stats.Total += n
	}
	return stats, nil
}

func (s *TaskService) load(ctx context.Context, id string) (*models.Task, error) {
	t, err := s.tasks.Get(ctx, id)
	if err != nil {
		return nil, apperr.WrapStoreError("Task", err)
	}
	return t, nil
}

func (s *TaskService) view(ctx context.Context, p models.Principal, t *models.Task, ignored []command.Group) (*TaskView, error) {
	sums, err := loadSummaries(ctx, s.users, taskUserIDs(t))
	if err != nil {
		return nil, err
	}
	v := newTaskView(t, access.ForTask(p, t), sums, ignored)
	return &v, nil
}

func (s *TaskService) notifyTask(typ realtime.EventType, t *models.Task, actor models.Principal, at time.Time) {
	s.notifier.Notify([]string{t.CreatedBy, deref(t.AssignedTo)}, event(typ, t.ID, actor.ID, at))
}

func validateTaskUpdate(u command.TaskUpdate) error {
	if e := u.Edit; e != nil {
		if e.Title != nil {
			title, err := requireText(*e.Title, "Title")
			if err != nil {
				return err
			}
			e.Title = &title
		}
		if e.Priority != nil && !e.Priority.Valid() {
			return apperr.Invalid("Invalid task priority")
		}
	}
	if u.Status != nil && !u.Status.To.Valid() {
		return apperr.Invalid("Invalid task status")
	}
	if u.Assignment != nil && u.Assignment.AssigneeID == "" {
		return apperr.Invalid("User id is required")
	}
	return nil
}
