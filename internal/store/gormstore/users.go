package gormstore

import (
	"context"
	"time"

	"taskdesk-api/internal/models"
	"taskdesk-api/internal/store"

	"gorm.io/gorm"
)

type UserStore struct {
	db *gorm.DB
}

var _ store.UserStore = (*UserStore)(nil)

func (s *UserStore) Create(ctx context.Context, u *models.User) error {
	return translate("create user", s.db.WithContext(ctx).Create(u).Error)
}

func (s *UserStore) Get(ctx context.Context, id string) (*models.User, error) {
	var u models.User
	if err := s.db.WithContext(ctx).Take(&u, "id = ?", id).Error; err != nil {
		return nil, translate("get user", err)
	}
	return &u, nil
}

func (s *UserStore) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	var u models.User
	if err := s.db.WithContext(ctx).Take(&u, "email = ?", email).Error; err != nil {
		return nil, translate("get user by email", err)
	}
	return &u, nil
}

func (s *UserStore) Exists(ctx context.Context, id string) (bool, error) {
	var count int64
	if err := s.db.WithContext(ctx).Model(&models.User{}).Where("id = ?", id).Count(&count).Error; err != nil {
		return false, translate("count user", err)
	}
	return count > 0, nil
}

func (s *UserStore) List(ctx context.Context, f store.UserFilter) ([]models.User, error) {
	q := s.db.WithContext(ctx).Model(&models.User{})
	if f.Role != "" {
		q = q.Where("role = ?", f.Role)
	}
	if f.ExcludeID != "" {
		q = q.Where("id <> ?", f.ExcludeID)
	}
	var users []models.User
	if err := q.Order("name ASC").Find(&users).Error; err != nil {
		return nil, translate("list users", err)
	}
	return users, nil
}

func (s *UserStore) Summaries(ctx context.Context, ids []string) (map[string]models.UserSummary, error) {
	out := make(map[string]models.UserSummary, len(ids))
	if len(ids) == 0 {
		return out, nil
	}
	var users []models.User
	if err := s.db.WithContext(ctx).Where("id IN ?", ids).Find(&users).Error; err != nil {
		return nil, translate("load user summaries", err)
	}
	for i := range users {
		out[users[i].ID] = users[i].Summary()
	}
	return out, nil
}

func (s *UserStore) UpdateProfile(ctx context.Context, id, name, email string) error {
	return s.update(ctx, "update profile", id, map[string]any{"name": name, "email": email})
}

func (s *UserStore) UpdatePassword(ctx context.Context, id, passwordHash string) error {
	return s.update(ctx, "update password", id, map[string]any{"password": passwordHash})
}

func (s *UserStore) UpdateRole(ctx context.Context, id string, role models.Role) error {
	return s.update(ctx, "update role", id, map[string]any{"role": role})
}

func (s *UserStore) TouchLastLogin(ctx context.Context, id string) error {
	return s.update(ctx, "touch last login", id, map[string]any{"last_login": time.Now().UTC()})
}

func (s *UserStore) update(ctx context.Context, what, id string, fields map[string]any) error {
	res := s.db.WithContext(ctx).Model(&models.User{}).Where("id = ?", id).Updates(fields)
	if res.Error != nil {
		return translate(what, res.Error)
	}
	if res.RowsAffected == 0 {
		return store.ErrNotFound
	}
	return nil
}
