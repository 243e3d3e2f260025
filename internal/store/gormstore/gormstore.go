// Package gormstore implements the store contracts on top of gorm. It is
// used with SQLite (glebarez/sqlite) in both the server and the tests.
package gormstore

import (
	"errors"
	"fmt"
	"strings"

	"taskdesk-api/internal/store"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Stores bundles the three stores sharing one connection.
type Stores struct {
	Users   *UserStore
	Tasks   *TaskStore
	Queries *QueryStore
}

func New(db *gorm.DB) *Stores {
	return &Stores{
		Users:   &UserStore{db: db},
		Tasks:   &TaskStore{db: db},
		Queries: &QueryStore{db: db},
	}
}

// translate maps gorm errors onto the store sentinels. what names the
// failing operation for the wrapped message.
func translate(what string, err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, gorm.ErrRecordNotFound):
		return store.ErrNotFound
	case errors.Is(err, gorm.ErrDuplicatedKey),
		strings.Contains(err.Error(), "UNIQUE constraint failed"):
		return fmt.Errorf("%s: %w", what, store.ErrDuplicate)
	}
	return fmt.Errorf("%s: %w", what, err)
}

func orderBy(s store.Sort) clause.OrderBy {
	field, ok := store.SortFields[s.Field]
	if !ok {
		field = store.SortFields["createdAt"]
	}
	return clause.OrderBy{Columns: []clause.OrderByColumn{
		{Column: clause.Column{Name: field.Column}, Desc: s.Desc},
		{Column: clause.Column{Name: "id"}, Desc: s.Desc},
	}}
}

func paginate(db *gorm.DB, p store.Page) *gorm.DB {
	if p.Limit <= 0 {
		return db
	}
	return db.Limit(p.Limit).Offset(p.Offset())
}

func likePattern(search string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return "%" + strings.ToLower(r.Replace(search)) + "%"
}
