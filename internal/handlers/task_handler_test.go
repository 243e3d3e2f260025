package handlers

import (
	"encoding/json"
	"testing"
	"time"

	"taskdesk-api/internal/apperr"
	"taskdesk-api/internal/command"
	"taskdesk-api/internal/models"

	"github.com/stretchr/testify/require"
)

func TestUpdateTaskRequest_ToCommand(t *testing.T) {
	var req UpdateTaskRequest
	require.NoError(t, json.Unmarshal([]byte(`{"title":"x","status":"completed","assignedTo":"u-2"}`), &req))

	u, err := req.toCommand()
	require.NoError(t, err)
	require.Equal(t, "x", *u.Edit.Title)
	require.False(t, u.Edit.ClearDueDate)
	require.Equal(t, models.TaskCompleted, u.Status.To)
	require.Equal(t, "u-2", u.Assignment.AssigneeID)
	require.Equal(t, []command.Group{command.GroupEdit, command.GroupStatus, command.GroupAssignment}, u.Groups())
}

func TestUpdateTaskRequest_DueDate(t *testing.T) {
	var absent UpdateTaskRequest
	require.NoError(t, json.Unmarshal([]byte(`{"status":"pending"}`), &absent))
	u, err := absent.toCommand()
	require.NoError(t, err)
	require.Nil(t, u.Edit)

	var cleared UpdateTaskRequest
	require.NoError(t, json.Unmarshal([]byte(`{"dueDate":null}`), &cleared))
	u, err = cleared.toCommand()
	require.NoError(t, err)
	require.True(t, u.Edit.ClearDueDate)

	var set UpdateTaskRequest
	require.NoError(t, json.Unmarshal([]byte(`{"dueDate":"2025-10-30"}`), &set))
	u, err = set.toCommand()
	require.NoError(t, err)
	require.Equal(t, time.Date(2025, 10, 30, 0, 0, 0, 0, time.UTC), *u.Edit.DueDate)

	var bad UpdateTaskRequest
	require.NoError(t, json.Unmarshal([]byte(`{"dueDate":"someday"}`), &bad))
	_, err = bad.toCommand()
	require.True(t, apperr.IsCode(err, apperr.InvalidArgument))
}

func TestParseDateFlexible(t *testing.T) {
	for _, in := range []string{"2025-10-30", "30 Oct 2025", "2025-10-30T00:00:00Z"} {
		got, ok := parseDateFlexible(in)
		require.True(t, ok, in)
		require.Equal(t, time.Date(2025, 10, 30, 0, 0, 0, 0, time.UTC), got)
	}
	_, ok := parseDateFlexible("")
	require.False(t, ok)
}

func TestUpdateQueryRequest_ToCommand(t *testing.T) {
	var req UpdateQueryRequest
	require.NoError(t, json.Unmarshal([]byte(`{"status":"resolved"}`), &req))
	u := req.toCommand()
	require.Nil(t, u.Edit)
	require.Nil(t, u.Assignment)
	require.Equal(t, models.QueryResolved, u.Status.To)
}
