package access

import (
	"taskdesk-api/internal/models"
	"taskdesk-api/internal/store"
)

// TaskScopeFor returns the list filter matching exactly the tasks for which
// ForTask(p, t).CanView holds.
func TaskScopeFor(p models.Principal) store.TaskScope {
	if p.IsAdmin() {
		return store.TaskScope{All: true}
	}
	return store.TaskScope{UserID: p.ID}
}

// QueryScopeFor returns the list filter matching exactly the queries for
// which ForQuery(p, q, linked).CanView holds. accessibleTaskIDs must be the
// tasks p created or is assigned to; it is ignored for admins.
func QueryScopeFor(p models.Principal, accessibleTaskIDs []string) store.QueryScope {
	if p.IsAdmin() {
		return store.QueryScope{All: true}
	}
	return store.QueryScope{UserID: p.ID, TaskIDs: accessibleTaskIDs}
}
