package lifecycle

import (
	"slices"
	"time"

	"taskdesk-api/internal/models"
)

func taskEqual(a, b *models.Task) bool {
	return a.Title == b.Title &&
		a.Description == b.Description &&
		slices.Equal(a.Tags, b.Tags) &&
		ptrEqual(a.AssignedTo, b.AssignedTo) &&
		a.Status == b.Status &&
		a.Priority == b.Priority &&
		timeEqual(a.DueDate, b.DueDate) &&
		timeEqual(a.CompletedAt, b.CompletedAt)
}

func queryEqual(a, b *models.Query) bool {
	return a.Title == b.Title &&
		a.Description == b.Description &&
		ptrEqual(a.AssignedTo, b.AssignedTo) &&
		a.Status == b.Status &&
		a.Priority == b.Priority &&
		timeEqual(a.ResolvedAt, b.ResolvedAt)
}

func ptrEqual(a, b *string) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}

func timeEqual(a, b *time.Time) bool {
	if a == nil || b == nil {
		return a == b
	}
	return a.Equal(*b)
}
