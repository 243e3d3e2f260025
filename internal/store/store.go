// Package store defines the persistence contracts used by the services.
// Implementations live in gormstore (SQLite) and mongostore (MongoDB).
package store

import (
	"context"
	"errors"

	"taskdesk-api/internal/models"
)

var (
	// ErrNotFound is returned when the requested record does not exist.
	ErrNotFound = errors.New("not found")
	// ErrConflict is returned by compare-and-set writes when the stored
	// status no longer matches the expected one.
	ErrConflict = errors.New("conflicting update")
	// ErrDuplicate is returned when a unique constraint is violated.
	ErrDuplicate = errors.New("duplicate key")
)

type UserStore interface {
	Create(ctx context.Context, u *models.User) error
	Get(ctx context.Context, id string) (*models.User, error)
	GetByEmail(ctx context.Context, email string) (*models.User, error)
	Exists(ctx context.Context, id string) (bool, error)
	List(ctx context.Context, f UserFilter) ([]models.User, error)
	// Summaries returns the public projection of every existing id in ids.
	Summaries(ctx context.Context, ids []string) (map[string]models.UserSummary, error)
	UpdateProfile(ctx context.Context, id, name, email string) error
	UpdatePassword(ctx context.Context, id, passwordHash string) error
	UpdateRole(ctx context.Context, id string, role models.Role) error
	TouchLastLogin(ctx context.Context, id string) error
}

type TaskStore interface {
	Create(ctx context.Context, t *models.Task) error
	Get(ctx context.Context, id string) (*models.Task, error)
	List(ctx context.Context, f TaskFilter) ([]models.Task, int64, error)
	// IDsVisibleTo returns the ids of tasks created by or assigned to userID.
	IDsVisibleTo(ctx context.Context, userID string) ([]string, error)
	// Update writes every mutable field of t, provided the stored status still
	// equals expectStatus. It returns ErrConflict otherwise.
	Update(ctx context.Context, t *models.Task, expectStatus models.TaskStatus) error
	Delete(ctx context.Context, id string) error
	CountByStatus(ctx context.Context, assigneeID string) (map[models.TaskStatus]int64, error)
}

type QueryStore interface {
	Create(ctx context.Context, q *models.Query) error
	// Get returns the query with its comments ordered oldest first.
	Get(ctx context.Context, id string) (*models.Query, error)
	List(ctx context.Context, f QueryFilter) ([]models.Query, int64, error)
	// Update writes the mutable fields of q (never comments), provided the
	// stored status still equals expectStatus.
	Update(ctx context.Context, q *models.Query, expectStatus models.QueryStatus) error
	// AppendComment appends c and applies advance in one atomic operation and
	// returns the resulting status.
	AppendComment(ctx context.Context, queryID string, c models.Comment, advance StatusAdvance) (models.QueryStatus, error)
	Delete(ctx context.Context, id string) error
}

// StatusAdvance describes a conditional status change applied together with a
// comment append: status becomes To when it currently equals From and Author
// is not the query's creator. The zero value never fires.
type StatusAdvance struct {
	From   models.QueryStatus
	To     models.QueryStatus
	Author string
}

// Applies reports whether the advance fires for q.
func (a StatusAdvance) Applies(q *models.Query) bool {
	return a.From != "" && q.Status == a.From && q.CreatedBy != a.Author
}
