package gormstore

import (
	"context"

	"taskdesk-api/internal/models"
	"taskdesk-api/internal/store"

	"gorm.io/gorm"
)

// taskMutableFields are the columns written by Update. created_by and
// created_at never change after insert.
var taskMutableFields = []string{
	"Title", "Description", "Tags", "AssignedTo", "Status",
	"Priority", "DueDate", "CompletedAt", "UpdatedAt",
}

type TaskStore struct {
	db *gorm.DB
}

var _ store.TaskStore = (*TaskStore)(nil)

func (s *TaskStore) Create(ctx context.Context, t *models.Task) error {
	return translate("create task", s.db.WithContext(ctx).Create(t).Error)
}

func (s *TaskStore) Get(ctx context.Context, id string) (*models.Task, error) {
	var t models.Task
	if err := s.db.WithContext(ctx).Take(&t, "id = ?", id).Error; err != nil {
		return nil, translate("get task", err)
	}
	return &t, nil
}

func (s *TaskStore) List(ctx context.Context, f store.TaskFilter) ([]models.Task, int64, error) {
	q := s.db.WithContext(ctx).Model(&models.Task{})
	if !f.Scope.All {
		q = q.Where("(created_by = ? OR assigned_to = ?)", f.Scope.UserID, f.Scope.UserID)
	}
	if len(f.Statuses) > 0 {
		q = q.Where("status IN ?", f.Statuses)
	}
	if len(f.Priorities) > 0 {
		q = q.Where("priority IN ?", f.Priorities)
	}
	if f.AssignedTo != "" {
		q = q.Where("assigned_to = ?", f.AssignedTo)
	}
	if f.Search != "" {
		p := likePattern(f.Search)
		q = q.Where(`(LOWER(title) LIKE ? ESCAPE '\' OR LOWER(description) LIKE ? ESCAPE '\' OR LOWER(tags) LIKE ? ESCAPE '\')`, p, p, p)
	}

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, translate("count tasks", err)
	}

	var tasks []models.Task
	err := paginate(q.Session(&gorm.Session{}), f.Page).Clauses(orderBy(f.Sort)).Find(&tasks).Error
	if err != nil {
		return nil, 0, translate("list tasks", err)
	}
	return tasks, total, nil
}

func (s *TaskStore) IDsVisibleTo(ctx context.Context, userID string) ([]string, error) {
	var ids []string
	err := s.db.WithContext(ctx).Model(&models.Task{}).
		Where("created_by = ? OR assigned_to = ?", userID, userID).
		Pluck("id", &ids).Error
	if err != nil {
		return nil, translate("list visible task ids", err)
	}
	return ids, nil
}

// Update writes t only while the stored status still equals expectStatus.
func (s *TaskStore) Update(ctx context.Context, t *models.Task, expectStatus models.TaskStatus) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&models.Task{}).
			Where("id = ? AND status = ?", t.ID, expectStatus).
			Select(taskMutableFields).
			Updates(t)
		if res.Error != nil {
			return translate("update task", res.Error)
		}
		if res.RowsAffected > 0 {
			return nil
		}
		return missingOrConflict(tx, &models.Task{}, t.ID)
	})
}

func (s *TaskStore) Delete(ctx context.Context, id string) error {
	res := s.db.WithContext(ctx).Delete(&models.Task{}, "id = ?", id)
	if res.Error != nil {
		return translate("delete task", res.Error)
	}
	if res.RowsAffected == 0 {
		return store.ErrNotFound
	}
	return nil
}

func (s *TaskStore) CountByStatus(ctx context.Context, assigneeID string) (map[models.TaskStatus]int64, error) {
	var rows []struct {
		Status models.TaskStatus
		Count  int64
	}
	err := s.db.WithContext(ctx).Model(&models.Task{}).
		Select("status, COUNT(*) AS count").
		Where("assigned_to = ?", assigneeID).
		Group("status").
		Scan(&rows).Error
	if err != nil {
		return nil, translate("count tasks by status", err)
	}
	counts := make(map[models.TaskStatus]int64, len(models.TaskStatuses))
	for _, st := range models.TaskStatuses {
		counts[st] = 0
	}
	for _, r := range rows {
		counts[r.Status] = r.Count
	}
	return counts, nil
}

// missingOrConflict tells a vanished row from a lost compare-and-set.
func missingOrConflict(tx *gorm.DB, model any, id string) error {
	var count int64
	if err := tx.Model(model).Where("id = ?", id).Count(&count).Error; err != nil {
		return translate("check row", err)
	}
	if count == 0 {
		return store.ErrNotFound
	}
	return store.ErrConflict
}
