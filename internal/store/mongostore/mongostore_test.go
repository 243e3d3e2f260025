package mongostore

import (
	"context"
	"os"
	"testing"
	"time"

	"taskdesk-api/internal/access"
	"taskdesk-api/internal/lifecycle"
	"taskdesk-api/internal/models"
	"taskdesk-api/internal/store"

	"github.com/oklog/ulid/v2"
	"github.com/stretchr/testify/require"
)

// newStores connects to the server named by TASKDESK_TEST_MONGO_URI and
// returns stores over a throwaway database.
func newStores(t *testing.T) *Stores {
	t.Helper()
	uri := os.Getenv("TASKDESK_TEST_MONGO_URI")
	if uri == "" {
		t.Skip("TASKDESK_TEST_MONGO_URI not set")
	}
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	client, err := Connect(ctx, uri)
	require.NoError(t, err)
	db := client.Database("taskdesk_test_" + ulid.Make().String())
	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_ = db.Drop(ctx)
		_ = client.Disconnect(ctx)
	})

	s, err := New(ctx, db)
	require.NoError(t, err)
	return s
}

func seedUser(t *testing.T, s *Stores, name string, role models.Role) *models.User {
	t.Helper()
	now := time.Now().UTC()
	u := &models.User{
		ID: ulid.Make().String(), Name: name, Email: name + "@example.com",
		Password: "x", Role: role, IsActive: true, CreatedAt: now, UpdatedAt: now,
	}
	require.NoError(t, s.Users.Create(context.Background(), u))
	return u
}

func seedTask(t *testing.T, s *Stores, createdBy, assignedTo string) *models.Task {
	t.Helper()
	task := &models.Task{ID: ulid.Make().String(), Title: "task", CreatedBy: createdBy}
	if assignedTo != "" {
		task.AssignedTo = &assignedTo
	}
	lifecycle.NewTask(task, time.Now().UTC())
	require.NoError(t, s.Tasks.Create(context.Background(), task))
	return task
}

func seedQuery(t *testing.T, s *Stores, createdBy, taskID string) *models.Query {
	t.Helper()
	q := &models.Query{ID: ulid.Make().String(), Title: "query", Description: "d", CreatedBy: createdBy}
	if taskID != "" {
		q.TaskID = &taskID
	}
	lifecycle.NewQuery(q, time.Now().UTC())
	require.NoError(t, s.Queries.Create(context.Background(), q))
	return q
}

func TestUserStore_UniqueEmail(t *testing.T) {
	s := newStores(t)
	alice := seedUser(t, s, "alice", models.RoleUser)

	dup := *alice
	dup.ID = ulid.Make().String()
	require.ErrorIs(t, s.Users.Create(context.Background(), &dup), store.ErrDuplicate)

	_, err := s.Users.Get(context.Background(), "missing")
	require.ErrorIs(t, err, store.ErrNotFound)
}

func TestTaskStore_CompareAndSet(t *testing.T) {
	s := newStores(t)
	ctx := context.Background()
	u := seedUser(t, s, "alice", models.RoleUser)
	task := seedTask(t, s, u.ID, "")

	next := task.Clone()
	lifecycle.TransitionTask(next, models.TaskCompleted, time.Now().UTC())
	require.NoError(t, s.Tasks.Update(ctx, next, models.TaskPending))
	require.ErrorIs(t, s.Tasks.Update(ctx, next, models.TaskPending), store.ErrConflict)

	got, err := s.Tasks.Get(ctx, task.ID)
	require.NoError(t, err)
	require.Equal(t, models.TaskCompleted, got.Status)
	require.NotNil(t, got.CompletedAt)
}

func TestQueryStore_AppendCommentPipeline(t *testing.T) {
	s := newStores(t)
	ctx := context.Background()
	a := seedUser(t, s, "alice", models.RoleUser)
	b := seedUser(t, s, "bob", models.RoleUser)
	q := seedQuery(t, s, a.ID, "")

	c := models.Comment{ID: ulid.Make().String(), Author: a.ID, Text: "bump", CreatedAt: time.Now().UTC()}
	status, err := s.Queries.AppendComment(ctx, q.ID, c, lifecycle.CommentAdvance(a.ID))
	require.NoError(t, err)
	require.Equal(t, models.QueryOpen, status)

	c = models.Comment{ID: ulid.Make().String(), Author: b.ID, Text: "on it", CreatedAt: time.Now().UTC()}
	status, err = s.Queries.AppendComment(ctx, q.ID, c, lifecycle.CommentAdvance(b.ID))
	require.NoError(t, err)
	require.Equal(t, models.QueryInProgress, status)

	got, err := s.Queries.Get(ctx, q.ID)
	require.NoError(t, err)
	require.Len(t, got.Comments, 2)
	require.Equal(t, "on it", got.Comments[1].Text)

	_, err = s.Queries.AppendComment(ctx, "missing", c, lifecycle.CommentAdvance(b.ID))
	require.ErrorIs(t, err, store.ErrNotFound)
}

func TestQueryStore_ListScopeMatchesCanView(t *testing.T) {
	s := newStores(t)
	ctx := context.Background()
	a := seedUser(t, s, "alice", models.RoleUser)
	b := seedUser(t, s, "bob", models.RoleUser)
	c := seedUser(t, s, "carol", models.RoleUser)
	users := []*models.User{a, b, c}

	tasks := map[string]*models.Task{}
	for _, creator := range users {
		task := seedTask(t, s, creator.ID, b.ID)
		tasks[task.ID] = task
	}
	var queries []*models.Query
	for _, creator := range users {
		queries = append(queries, seedQuery(t, s, creator.ID, ""))
		for id := range tasks {
			queries = append(queries, seedQuery(t, s, creator.ID, id))
		}
	}

	for _, u := range users {
		p := u.Principal()
		ids, err := s.Tasks.IDsVisibleTo(ctx, u.ID)
		require.NoError(t, err)
		listed, _, err := s.Queries.List(ctx, store.QueryFilter{Scope: access.QueryScopeFor(p, ids)})
		require.NoError(t, err)

		seen := map[string]bool{}
		for _, l := range listed {
			seen[l.ID] = true
		}
		for _, q := range queries {
			var linked *models.Task
			if q.TaskID != nil {
				linked = tasks[*q.TaskID]
			}
			require.Equal(t, access.ForQuery(p, q, linked).CanView, seen[q.ID])
		}
	}
}
