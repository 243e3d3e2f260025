package apperr

import (
	"net/http"
)

type Code int

const (
	OK               = Code(0)
	Unknown          = Code(1)
	InvalidArgument  = Code(2)
	NotFound         = Code(3)
	AlreadyExists    = Code(4)
	PermissionDenied = Code(5)
	Aborted          = Code(6)
	Internal         = Code(7)
	Unauthenticated  = Code(8)
)

var codeNames = map[Code]string{
	OK:               "ok",
	Unknown:          "unknown",
	InvalidArgument:  "invalid_argument",
	NotFound:         "not_found",
	AlreadyExists:    "already_exists",
	PermissionDenied: "permission_denied",
	Aborted:          "aborted",
	Internal:         "internal",
	Unauthenticated:  "unauthenticated",
}

func (c Code) String() string {
	if name, ok := codeNames[c]; ok {
		return name
	}
	return "unknown"
}

func (c Code) HTTPCode() int {
	switch c {
	case OK:
		return http.StatusOK
	case InvalidArgument:
		return http.StatusBadRequest
	case NotFound:
		return http.StatusNotFound
	case AlreadyExists, Aborted:
		return http.StatusConflict
	case PermissionDenied:
		return http.StatusForbidden
	case Unauthenticated:
		return http.StatusUnauthorized
	default:
		return http.StatusInternalServerError
	}
}

// IsServerSide reports whether errors with this code indicate a fault of the
// service rather than of the request.
func (c Code) IsServerSide() bool {
	return c.HTTPCode() >= http.StatusInternalServerError
}
