package mongostore

import (
	"context"
	"time"

	"taskdesk-api/internal/models"
	"taskdesk-api/internal/store"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type UserStore struct {
	coll *mongo.Collection
}

var _ store.UserStore = (*UserStore)(nil)

func (s *UserStore) Create(ctx context.Context, u *models.User) error {
	_, err := s.coll.InsertOne(ctx, u)
	return translate("create user", err)
}

func (s *UserStore) Get(ctx context.Context, id string) (*models.User, error) {
	return s.findOne(ctx, "get user", bson.M{"_id": id})
}

func (s *UserStore) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	return s.findOne(ctx, "get user by email", bson.M{"email": email})
}

func (s *UserStore) findOne(ctx context.Context, what string, filter bson.M) (*models.User, error) {
	var u models.User
	if err := s.coll.FindOne(ctx, filter).Decode(&u); err != nil {
		return nil, translate(what, err)
	}
	return &u, nil
}

func (s *UserStore) Exists(ctx context.Context, id string) (bool, error) {
	n, err := s.coll.CountDocuments(ctx, bson.M{"_id": id}, options.Count().SetLimit(1))
	if err != nil {
		return false, translate("count user", err)
	}
	return n > 0, nil
}

func (s *UserStore) List(ctx context.Context, f store.UserFilter) ([]models.User, error) {
	filter := bson.M{}
	if f.Role != "" {
		filter["role"] = f.Role
	}
	if f.ExcludeID != "" {
		filter["_id"] = bson.M{"$ne": f.ExcludeID}
	}
	cur, err := s.coll.Find(ctx, filter, options.Find().SetSort(bson.D{{Key: "name", Value: 1}}))
	if err != nil {
		return nil, translate("list users", err)
	}
	users := []models.User{}
	if err := cur.All(ctx, &users); err != nil {
		return nil, translate("decode users", err)
	}
	return users, nil
}

func (s *UserStore) Summaries(ctx context.Context, ids []string) (map[string]models.UserSummary, error) {
	out := make(map[string]models.UserSummary, len(ids))
	if len(ids) == 0 {
		return out, nil
	}
	cur, err := s.coll.Find(ctx, bson.M{"_id": bson.M{"$in": ids}})
	if err != nil {
		return nil, translate("load user summaries", err)
	}
	var users []models.User
	if err := cur.All(ctx, &users); err != nil {
		return nil, translate("decode users", err)
	}
	for i := range users {
		out[users[i].ID] = users[i].Summary()
	}
	return out, nil
}

func (s *UserStore) UpdateProfile(ctx context.Context, id, name, email string) error {
	return s.set(ctx, "update profile", id, bson.M{"name": name, "email": email})
}

func (s *UserStore) UpdatePassword(ctx context.Context, id, passwordHash string) error {
	return s.set(ctx, "update password", id, bson.M{"password": passwordHash})
}

func (s *UserStore) UpdateRole(ctx context.Context, id string, role models.Role) error {
	return s.set(ctx, "update role", id, bson.M{"role": role})
}

func (s *UserStore) TouchLastLogin(ctx context.Context, id string) error {
	return s.set(ctx, "touch last login", id, bson.M{"lastLogin": time.Now().UTC()})
}

func (s *UserStore) set(ctx context.Context, what, id string, fields bson.M) error {
	fields["updatedAt"] = time.Now().UTC()
	res, err := s.coll.UpdateOne(ctx, bson.M{"_id": id}, bson.M{"$set": fields})
	if err != nil {
		return translate(what, err)
	}
	if res.MatchedCount == 0 {
		return store.ErrNotFound
	}
	return nil
}
