// Package service implements the resource handler protocol: load the
// resource and whatever it references, authorize, apply the lifecycle rules,
// persist with a compare-and-set write and return the resource enriched for
// the current requester.
package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"taskdesk-api/internal/apperr"
	"taskdesk-api/internal/realtime"
	"taskdesk-api/internal/store"
)

// maxAttempts bounds the load/authorize/write loop when compare-and-set
// writes keep losing against concurrent updates.
const maxAttempts = 3

const (
	DefaultPageLimit = 10
	MaxPageLimit     = 100
)

// Notifier receives change events. Delivery is best effort.
type Notifier interface {
	Notify(userIDs []string, ev realtime.Event)
}

type nopNotifier struct{}

func (nopNotifier) Notify([]string, realtime.Event) {}

func orNop(n Notifier) Notifier {
	if n == nil {
		return nopNotifier{}
	}
	return n
}

// Page is one window of a listing.
type Page[T any] struct {
	Items []T
	Total int64
	Page  int
	Limit int
}

// Pages is the number of pages needed to show Total items.
func (p Page[T]) Pages() int {
	if p.Limit <= 0 {
		return 1
	}
	return int((p.Total + int64(p.Limit) - 1) / int64(p.Limit))
}

// normalizePage clamps client supplied paging to sane bounds.
func normalizePage(p store.Page) store.Page {
	if p.Page < 1 {
		p.Page = 1
	}
	switch {
	case p.Limit <= 0:
		p.Limit = DefaultPageLimit
	case p.Limit > MaxPageLimit:
		p.Limit = MaxPageLimit
	}
	return p
}

func aborted(entity string) error {
	return apperr.NewError(apperr.Aborted, entity+" was modified concurrently, please retry", nil)
}

func isConflict(err error) bool {
	return errors.Is(err, store.ErrConflict)
}

func event(t realtime.EventType, resourceID, actorID string, at time.Time) realtime.Event {
	return realtime.Event{Type: t, ResourceID: resourceID, ActorID: actorID, At: at}
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

// ensureUser fails with NotFound "User" when id does not resolve.
func ensureUser(ctx context.Context, users store.UserStore, id string) error {
	ok, err := users.Exists(ctx, id)
	if err != nil {
		return apperr.WrapStoreError("User", err)
	}
	if !ok {
		return apperr.NotFoundf("User")
	}
	return nil
}

func requireText(value, field string) (string, error) {
	v := strings.TrimSpace(value)
	if v == "" {
		return "", apperr.Invalid(field + " is required")
	}
	return v, nil
}
