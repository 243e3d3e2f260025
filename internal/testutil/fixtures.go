package testutil

import (
	"strings"
	"testing"
	"time"

	"taskdesk-api/internal/models"

	"github.com/oklog/ulid/v2"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

// SeedUser inserts an active user named name with the given role. The
// stored password is a placeholder; tests that log in hash their own.
func SeedUser(t testing.TB, db *gorm.DB, name string, role models.Role) *models.User {
	t.Helper()
	now := time.Now().UTC()
	u := &models.User{
		ID:        ulid.Make().String(),
		Name:      name,
		Email:     strings.ToLower(name) + "@example.com",
		Password:  "x",
		Role:      role,
		IsActive:  true,
		CreatedAt: now,
		UpdatedAt: now,
	}
	require.NoError(t, db.Create(u).Error)
	return u
}

// SeedTask inserts a task created by createdBy. assignedTo may be empty.
func SeedTask(t testing.TB, db *gorm.DB, title, createdBy, assignedTo string, status models.TaskStatus) *models.Task {
	t.Helper()
	now := time.Now().UTC()
	task := &models.Task{
		ID:        ulid.Make().String(),
		Title:     title,
		Tags:      []string{},
		CreatedBy: createdBy,
		Status:    status,
		Priority:  models.TaskPriorityMedium,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if assignedTo != "" {
		task.AssignedTo = &assignedTo
	}
	if status == models.TaskCompleted {
		task.CompletedAt = &now
	}
	require.NoError(t, db.Create(task).Error)
	return task
}

// SeedQuery inserts an open query created by createdBy, linked to taskID
// when it is not empty.
func SeedQuery(t testing.TB, db *gorm.DB, title, createdBy, taskID string) *models.Query {
	t.Helper()
	now := time.Now().UTC()
	q := &models.Query{
		ID:          ulid.Make().String(),
		Title:       title,
		Description: title,
		CreatedBy:   createdBy,
		Status:      models.QueryOpen,
		Priority:    models.QueryPriorityMedium,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if taskID != "" {
		q.TaskID = &taskID
	}
	require.NoError(t, db.Omit("Comments").Create(q).Error)
	return q
}
