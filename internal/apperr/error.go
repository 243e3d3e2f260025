package apperr

import (
	"errors"
	"fmt"
	"runtime"

	"taskdesk-api/internal/store"
)

type Error struct {
	Code  Code
	Msg   string // returned to the client together with Code
	Err   error  // logged only
	Stack string
}

func NewError(code Code, msg string, underlying error) *Error {
	err := &Error{
		Code: code,
		Msg:  msg,
		Err:  underlying,
	}
	if code.IsServerSide() {
		stackTrace := make([]byte, 2048)
		n := runtime.Stack(stackTrace, false)
		err.Stack = string(stackTrace[0:n])
	}
	return err
}

func (e *Error) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("[%s] %s", e.Code.String(), e.Msg)
	}
	return fmt.Sprintf("[%s] %s: %s", e.Code.String(), e.Msg, e.Err.Error())
}

func (e *Error) Unwrap() error {
	return e.Err
}

// NotFoundf builds a NotFound error naming the missing entity, e.g. "Task not found".
func NotFoundf(entity string) *Error {
	return NewError(NotFound, fmt.Sprintf("%s not found", entity), nil)
}

func Forbidden(msg string) *Error {
	return NewError(PermissionDenied, msg, nil)
}

func Invalid(msg string) *Error {
	return NewError(InvalidArgument, msg, nil)
}

// From converts any error into an *Error. Errors that are not already typed
// become opaque internal errors.
func From(err error) *Error {
	var appErr *Error
	if errors.As(err, &appErr) {
		return appErr
	}
	return NewError(Unknown, "server error", err)
}

func IsCode(err error, code Code) bool {
	var appErr *Error
	if errors.As(err, &appErr) {
		return appErr.Code == code
	}
	return false
}

// WrapStoreError maps persistence errors onto the taxonomy. target names the
// entity in the client-facing message.
func WrapStoreError(target string, err error) error {
	if err == nil {
		return nil
	}
	var appErr *Error
	if errors.As(err, &appErr) {
		return appErr
	}
	switch {
	case errors.Is(err, store.ErrNotFound):
		return NewError(NotFound, fmt.Sprintf("%s not found", target), err)
	case errors.Is(err, store.ErrDuplicate):
		return NewError(AlreadyExists, fmt.Sprintf("%s already exists", target), err)
	case errors.Is(err, store.ErrConflict):
		return NewError(Aborted, fmt.Sprintf("%s was modified concurrently, please retry", target), err)
	}
	return NewError(Internal, "server error", fmt.Errorf("%s store: %w", target, err))
}
