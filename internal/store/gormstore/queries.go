package gormstore

import (
	"context"

	"taskdesk-api/internal/models"
	"taskdesk-api/internal/store"

	"gorm.io/gorm"
)

// queryMutableFields never include comments or the linked task.
var queryMutableFields = []string{
	"Title", "Description", "AssignedTo", "Status", "Priority", "ResolvedAt", "UpdatedAt",
}

type QueryStore struct {
	db *gorm.DB
}

var _ store.QueryStore = (*QueryStore)(nil)

func commentsOldestFirst(db *gorm.DB) *gorm.DB {
	return db.Order("created_at ASC, id ASC")
}

func (s *QueryStore) Create(ctx context.Context, q *models.Query) error {
	return translate("create query", s.db.WithContext(ctx).Omit("Comments").Create(q).Error)
}

func (s *QueryStore) Get(ctx context.Context, id string) (*models.Query, error) {
	var q models.Query
	err := s.db.WithContext(ctx).
		Preload("Comments", commentsOldestFirst).
		Take(&q, "id = ?", id).Error
	if err != nil {
		return nil, translate("get query", err)
	}
	if q.Comments == nil {
		q.Comments = []models.Comment{}
	}
	return &q, nil
}

func (s *QueryStore) List(ctx context.Context, f store.QueryFilter) ([]models.Query, int64, error) {
	q := s.db.WithContext(ctx).Model(&models.Query{})
	if !f.Scope.All {
		if len(f.Scope.TaskIDs) > 0 {
			q = q.Where("(created_by = ? OR assigned_to = ? OR task_id IN ?)", f.Scope.UserID, f.Scope.UserID, f.Scope.TaskIDs)
		} else {
			q = q.Where("(created_by = ? OR assigned_to = ?)", f.Scope.UserID, f.Scope.UserID)
		}
	}
	if len(f.Statuses) > 0 {
		q = q.Where("status IN ?", f.Statuses)
	}
	if f.TaskID != "" {
		q = q.Where("task_id = ?", f.TaskID)
	}
	if f.Search != "" {
		p := likePattern(f.Search)
		q = q.Where(`(LOWER(title) LIKE ? ESCAPE '\' OR LOWER(description) LIKE ? ESCAPE '\')`, p, p)
	}

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, translate("count queries", err)
	}

	var queries []models.Query
	err := paginate(q.Session(&gorm.Session{}), f.Page).
		Preload("Comments", commentsOldestFirst).
		Clauses(orderBy(f.Sort)).
		Find(&queries).Error
	if err != nil {
		return nil, 0, translate("list queries", err)
	}
	for i := range queries {
		if queries[i].Comments == nil {
			queries[i].Comments = []models.Comment{}
		}
	}
	return queries, total, nil
}

// Update writes q only while the stored status still equals expectStatus.
func (s *QueryStore) Update(ctx context.Context, q *models.Query, expectStatus models.QueryStatus) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&models.Query{}).
			Where("id = ? AND status = ?", q.ID, expectStatus).
			Select(queryMutableFields).
			Updates(q)
		if res.Error != nil {
			return translate("update query", res.Error)
		}
		if res.RowsAffected > 0 {
			return nil
		}
		return missingOrConflict(tx, &models.Query{}, q.ID)
	})
}

// AppendComment inserts c and applies advance inside one transaction, so the
// comment is never visible without the status change it triggers.
func (s *QueryStore) AppendComment(ctx context.Context, queryID string, c models.Comment, advance store.StatusAdvance) (models.QueryStatus, error) {
	var status models.QueryStatus
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		fields := map[string]any{"updated_at": c.CreatedAt}
		if advance.From != "" {
			fields["status"] = gorm.Expr(
				"CASE WHEN status = ? AND created_by <> ? THEN ? ELSE status END",
				advance.From, advance.Author, advance.To,
			)
		}
		res := tx.Model(&models.Query{}).Where("id = ?", queryID).Updates(fields)
		if res.Error != nil {
			return translate("advance query status", res.Error)
		}
		if res.RowsAffected == 0 {
			return store.ErrNotFound
		}

		c.QueryID = queryID
		if err := tx.Create(&c).Error; err != nil {
			return translate("insert comment", err)
		}
		var current models.Query
		if err := tx.Select("status").Take(&current, "id = ?", queryID).Error; err != nil {
			return translate("read query status", err)
		}
		status = current.Status
		return nil
	})
	return status, err
}

func (s *QueryStore) Delete(ctx context.Context, id string) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("query_id = ?", id).Delete(&models.Comment{}).Error; err != nil {
			return translate("delete comments", err)
		}
		res := tx.Delete(&models.Query{}, "id = ?", id)
		if res.Error != nil {
			return translate("delete query", res.Error)
		}
		if res.RowsAffected == 0 {
			return store.ErrNotFound
		}
		return nil
	})
}
