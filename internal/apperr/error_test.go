package apperr

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"taskdesk-api/internal/store"

	"github.com/stretchr/testify/require"
)

func TestCode_HTTPCode(t *testing.T) {
	cases := map[Code]int{
		NotFound:         http.StatusNotFound,
		PermissionDenied: http.StatusForbidden,
		InvalidArgument:  http.StatusBadRequest,
		Unauthenticated:  http.StatusUnauthorized,
		AlreadyExists:    http.StatusConflict,
		Aborted:          http.StatusConflict,
		Internal:         http.StatusInternalServerError,
		Unknown:          http.StatusInternalServerError,
	}
	for code, want := range cases {
		require.Equal(t, want, code.HTTPCode(), code.String())
	}
}

func TestNewError_StackOnlyForServerErrors(t *testing.T) {
	require.Empty(t, Forbidden("no").Stack)
	require.NotEmpty(t, NewError(Internal, "boom", nil).Stack)
}

func TestWrapStoreError(t *testing.T) {
	err := WrapStoreError("Task", fmt.Errorf("get task: %w", store.ErrNotFound))
	require.True(t, IsCode(err, NotFound))
	require.Equal(t, "Task not found", From(err).Msg)

	err = WrapStoreError("User", store.ErrDuplicate)
	require.True(t, IsCode(err, AlreadyExists))

	err = WrapStoreError("Query", store.ErrConflict)
	require.True(t, IsCode(err, Aborted))

	raw := errors.New("disk full")
	err = WrapStoreError("Task", raw)
	require.True(t, IsCode(err, Internal))
	require.ErrorIs(t, err, raw)
	require.Equal(t, "server error", From(err).Msg)

	forbidden := Forbidden("nope")
	require.Same(t, forbidden, WrapStoreError("Task", forbidden))
	require.NoError(t, WrapStoreError("Task", nil))
}

func TestFrom_UntypedIsUnknown(t *testing.T) {
	err := From(errors.New("x"))
	require.Equal(t, Unknown, err.Code)
	require.Equal(t, http.StatusInternalServerError, err.Code.HTTPCode())
}
