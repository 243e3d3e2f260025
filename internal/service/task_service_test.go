package service

import (
	"context"
	"testing"

	"taskdesk-api/internal/apperr"
	"taskdesk-api/internal/command"
	"taskdesk-api/internal/models"
	"taskdesk-api/internal/realtime"
	"taskdesk-api/internal/store"
	"taskdesk-api/internal/testutil"

	"github.com/stretchr/testify/require"
)

func TestTaskService_CreateSelfAssignsForUsers(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	alice := testutil.SeedUser(t, f.db, "alice", models.RoleUser)
	bob := testutil.SeedUser(t, f.db, "bob", models.RoleUser)

	v, err := f.tasks.Create(ctx, alice.Principal(), CreateTaskInput{Title: "  Write docs ", AssignedTo: bob.ID})
	require.NoError(t, err)
	require.Equal(t, "Write docs", v.Title)
	require.Equal(t, alice.ID, *v.AssignedTo)
	require.Equal(t, models.TaskPending, v.Status)
	require.Equal(t, models.TaskPriorityMedium, v.Priority)
	require.NotNil(t, v.Creator)
	require.Equal(t, "alice", v.Creator.Name)
	require.True(t, v.CanEdit)
	require.False(t, v.CanAssign)

	ev := f.notes.last(t)
	require.Equal(t, realtime.TaskCreated, ev.event.Type)
	require.Equal(t, v.ID, ev.event.ResourceID)
}

func TestTaskService_CreateCompletedStampsCompletedAt(t *testing.T) {
	f := newFixture(t)
	alice := testutil.SeedUser(t, f.db, "alice", models.RoleUser)

	v, err := f.tasks.Create(context.Background(), alice.Principal(), CreateTaskInput{Title: "done", Status: models.TaskCompleted})
	require.NoError(t, err)
	require.NotNil(t, v.CompletedAt)
}

func TestTaskService_CreateValidation(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	alice := testutil.SeedUser(t, f.db, "alice", models.RoleUser)

	_, err := f.tasks.Create(ctx, alice.Principal(), CreateTaskInput{Title: "   "})
	require.True(t, apperr.IsCode(err, apperr.InvalidArgument))

	_, err = f.tasks.Create(ctx, alice.Principal(), CreateTaskInput{Title: "x", Status: "finished"})
	require.True(t, apperr.IsCode(err, apperr.InvalidArgument))
}

func TestTaskService_AdminCreateWithUnknownAssignee(t *testing.T) {
	f := newFixture(t)
	admin := testutil.SeedUser(t, f.db, "root", models.RoleAdmin)

	_, err := f.tasks.Create(context.Background(), admin.Principal(), CreateTaskInput{Title: "x", AssignedTo: "nobody"})
	require.True(t, apperr.IsCode(err, apperr.NotFound))
	require.Contains(t, err.Error(), "User not found")
}

func TestTaskService_AssigneeCannotCompleteTask(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	u1 := testutil.SeedUser(t, f.db, "u1", models.RoleUser)
	u2 := testutil.SeedUser(t, f.db, "u2", models.RoleUser)
	task := testutil.SeedTask(t, f.db, "T", u1.ID, u2.ID, models.TaskPending)

	_, err := f.tasks.Update(ctx, u2.Principal(), task.ID, command.TaskUpdate{
		Status: &command.TaskStatusTransition{To: models.TaskCompleted},
	})
	require.True(t, apperr.IsCode(err, apperr.PermissionDenied))

	stored, err := f.stores.Tasks.Get(ctx, task.ID)
	require.NoError(t, err)
	require.Equal(t, models.TaskPending, stored.Status)
	require.Nil(t, stored.CompletedAt)
}

func TestTaskService_OwnerStatusChangeIsIgnored(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	u1 := testutil.SeedUser(t, f.db, "u1", models.RoleUser)
	task := testutil.SeedTask(t, f.db, "T", u1.ID, u1.ID, models.TaskPending)
	title := "Renamed"

	v, err := f.tasks.Update(ctx, u1.Principal(), task.ID, command.TaskUpdate{
		Edit:   &command.TaskEdit{Title: &title},
		Status: &command.TaskStatusTransition{To: models.TaskCompleted},
	})
	require.NoError(t, err)
	require.Equal(t, "Renamed", v.Title)
	require.Equal(t, models.TaskPending, v.Status)
	require.Nil(t, v.CompletedAt)
	require.Equal(t, []command.Group{command.GroupStatus}, v.IgnoredFields)
}

func TestTaskService_AdminCompleteIsIdempotent(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	u1 := testutil.SeedUser(t, f.db, "u1", models.RoleUser)
	admin := testutil.SeedUser(t, f.db, "root", models.RoleAdmin)
	task := testutil.SeedTask(t, f.db, "T", u1.ID, u1.ID, models.TaskPending)
	complete := command.TaskUpdate{Status: &command.TaskStatusTransition{To: models.TaskCompleted}}

	first, err := f.tasks.Update(ctx, admin.Principal(), task.ID, complete)
	require.NoError(t, err)
	require.NotNil(t, first.CompletedAt)

	second, err := f.tasks.Update(ctx, admin.Principal(), task.ID, complete)
	require.NoError(t, err)
	require.True(t, first.CompletedAt.Equal(*second.CompletedAt))

	reopened, err := f.tasks.Update(ctx, admin.Principal(), task.ID, command.TaskUpdate{
		Status: &command.TaskStatusTransition{To: models.TaskPending},
	})
	require.NoError(t, err)
	require.Nil(t, reopened.CompletedAt)
}

func TestTaskService_AssignUnknownUser(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	u1 := testutil.SeedUser(t, f.db, "u1", models.RoleUser)
	admin := testutil.SeedUser(t, f.db, "root", models.RoleAdmin)
	task := testutil.SeedTask(t, f.db, "T", u1.ID, u1.ID, models.TaskPending)

	_, err := f.tasks.Assign(ctx, admin.Principal(), task.ID, "ghost")
	require.True(t, apperr.IsCode(err, apperr.NotFound))
	require.Contains(t, err.Error(), "User not found")

	_, err = f.tasks.Assign(ctx, u1.Principal(), task.ID, u1.ID)
	require.True(t, apperr.IsCode(err, apperr.PermissionDenied))
}

func TestTaskService_AssignNotifiesPreviousAssignee(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	u1 := testutil.SeedUser(t, f.db, "u1", models.RoleUser)
	u2 := testutil.SeedUser(t, f.db, "u2", models.RoleUser)
	admin := testutil.SeedUser(t, f.db, "root", models.RoleAdmin)
	task := testutil.SeedTask(t, f.db, "T", u1.ID, u1.ID, models.TaskPending)

	v, err := f.tasks.Assign(ctx, admin.Principal(), task.ID, u2.ID)
	require.NoError(t, err)
	require.Equal(t, u2.ID, *v.AssignedTo)
	require.Equal(t, "u2", v.Assignee.Name)

	last := f.notes.last(t)
	require.Equal(t, []string{u1.ID}, last.userIDs)
	require.Equal(t, realtime.TaskUpdated, last.event.Type)
}

func TestTaskService_UpdateAbortsAfterRepeatedConflicts(t *testing.T) {
	f := newFixture(t)
	u1 := testutil.SeedUser(t, f.db, "u1", models.RoleUser)
	task := testutil.SeedTask(t, f.db, "T", u1.ID, u1.ID, models.TaskPending)
	conflicts := &conflictingTasks{TaskStore: f.stores.Tasks}
	svc := NewTaskService(conflicts, f.stores.Users, nil)
	title := "new"

	_, err := svc.Update(context.Background(), u1.Principal(), task.ID, command.TaskUpdate{
		Edit: &command.TaskEdit{Title: &title},
	})
	require.True(t, apperr.IsCode(err, apperr.Aborted))
	require.Equal(t, maxAttempts, conflicts.attempts)
}

func TestTaskService_ListScopesToViewer(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	u1 := testutil.SeedUser(t, f.db, "u1", models.RoleUser)
	u2 := testutil.SeedUser(t, f.db, "u2", models.RoleUser)
	u3 := testutil.SeedUser(t, f.db, "u3", models.RoleUser)
	admin := testutil.SeedUser(t, f.db, "root", models.RoleAdmin)
	testutil.SeedTask(t, f.db, "mine", u1.ID, u1.ID, models.TaskPending)
	testutil.SeedTask(t, f.db, "delegated", u3.ID, u1.ID, models.TaskPending)
	testutil.SeedTask(t, f.db, "other", u2.ID, u2.ID, models.TaskPending)

	page, err := f.tasks.List(ctx, u1.Principal(), ListTasksInput{AssignedTo: u2.ID})
	require.NoError(t, err)
	require.EqualValues(t, 2, page.Total)
	for _, v := range page.Items {
		require.NotEqual(t, "other", v.Title)
		require.True(t, v.CanComment)
	}

	page, err = f.tasks.List(ctx, admin.Principal(), ListTasksInput{AssignedTo: u2.ID})
	require.NoError(t, err)
	require.EqualValues(t, 1, page.Total)
	require.Equal(t, "other", page.Items[0].Title)
}

func TestTaskService_GetAndDeletePermissions(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	u1 := testutil.SeedUser(t, f.db, "u1", models.RoleUser)
	u2 := testutil.SeedUser(t, f.db, "u2", models.RoleUser)
	u3 := testutil.SeedUser(t, f.db, "u3", models.RoleUser)
	task := testutil.SeedTask(t, f.db, "T", u1.ID, u2.ID, models.TaskPending)

	v, err := f.tasks.Get(ctx, u2.Principal(), task.ID)
	require.NoError(t, err)
	require.False(t, v.CanEdit)
	require.True(t, v.CanComment)

	_, err = f.tasks.Get(ctx, u3.Principal(), task.ID)
	require.True(t, apperr.IsCode(err, apperr.PermissionDenied))

	require.True(t, apperr.IsCode(f.tasks.Delete(ctx, u2.Principal(), task.ID), apperr.PermissionDenied))
	require.NoError(t, f.tasks.Delete(ctx, u1.Principal(), task.ID))

	_, err = f.tasks.Get(ctx, u1.Principal(), task.ID)
	require.True(t, apperr.IsCode(err, apperr.NotFound))
}

func TestTaskService_Stats(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	u1 := testutil.SeedUser(t, f.db, "u1", models.RoleUser)
	u2 := testutil.SeedUser(t, f.db, "u2", models.RoleUser)
	admin := testutil.SeedUser(t, f.db, "root", models.RoleAdmin)
	testutil.SeedTask(t, f.db, "a", u1.ID, u1.ID, models.TaskPending)
	testutil.SeedTask(t, f.db, "b", u2.ID, u1.ID, models.TaskCompleted)

	stats, err := f.tasks.Stats(ctx, u1.Principal(), u1.ID)
	require.NoError(t, err)
	require.EqualValues(t, 2, stats.Total)
	require.EqualValues(t, 1, stats.ByStatus[models.TaskCompleted])
	require.EqualValues(t, 0, stats.ByStatus[models.TaskOnHold])

	_, err = f.tasks.Stats(ctx, u2.Principal(), u1.ID)
	require.True(t, apperr.IsCode(err, apperr.PermissionDenied))

	_, err = f.tasks.Stats(ctx, admin.Principal(), "ghost")
	require.True(t, apperr.IsCode(err, apperr.NotFound))
}

var _ store.TaskStore = (*conflictingTasks)(nil)
