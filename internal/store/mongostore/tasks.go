package mongostore

import (
	"context"

	"taskdesk-api/internal/models"
	"taskdesk-api/internal/store"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type TaskStore struct {
	coll *mongo.Collection
}

var _ store.TaskStore = (*TaskStore)(nil)

func (s *TaskStore) Create(ctx context.Context, t *models.Task) error {
	_, err := s.coll.InsertOne(ctx, t)
	return translate("create task", err)
}

func (s *TaskStore) Get(ctx context.Context, id string) (*models.Task, error) {
	var t models.Task
	if err := s.coll.FindOne(ctx, bson.M{"_id": id}).Decode(&t); err != nil {
		return nil, translate("get task", err)
	}
	return &t, nil
}

func taskScopeClause(scope store.TaskScope) bson.M {
	if scope.All {
		return nil
	}
	return bson.M{"$or": bson.A{
		bson.M{"createdBy": scope.UserID},
		bson.M{"assignedTo": scope.UserID},
	}}
}

func (s *TaskStore) List(ctx context.Context, f store.TaskFilter) ([]models.Task, int64, error) {
	clauses := []bson.M{taskScopeClause(f.Scope)}
	if len(f.Statuses) > 0 {
		clauses = append(clauses, bson.M{"status": bson.M{"$in": f.Statuses}})
	}
	if len(f.Priorities) > 0 {
		clauses = append(clauses, bson.M{"priority": bson.M{"$in": f.Priorities}})
	}
	if f.AssignedTo != "" {
		clauses = append(clauses, bson.M{"assignedTo": f.AssignedTo})
	}
	clauses = append(clauses, searchClause(f.Search, "title", "description", "tags"))
	filter := and(clauses...)

	total, err := s.coll.CountDocuments(ctx, filter)
	if err != nil {
		return nil, 0, translate("count tasks", err)
	}
	cur, err := s.coll.Find(ctx, filter, findOptions(f.Sort, f.Page))
	if err != nil {
		return nil, 0, translate("list tasks", err)
	}
	tasks := []models.Task{}
	if err := cur.All(ctx, &tasks); err != nil {
		return nil, 0, translate("decode tasks", err)
	}
	return tasks, total, nil
}

func (s *TaskStore) IDsVisibleTo(ctx context.Context, userID string) ([]string, error) {
	cur, err := s.coll.Find(ctx, taskScopeClause(store.TaskScope{UserID: userID}),
		options.Find().SetProjection(bson.M{"_id": 1}))
	if err != nil {
		return nil, translate("list visible task ids", err)
	}
	var rows []struct {
		ID string `bson:"_id"`
	}
	if err := cur.All(ctx, &rows); err != nil {
		return nil, translate("decode task ids", err)
	}
	ids := make([]string, 0, len(rows))
	for _, r := range rows {
		ids = append(ids, r.ID)
	}
	return ids, nil
}

// Update sets the mutable fields of t only while the stored status still
// equals expectStatus.
func (s *TaskStore) Update(ctx context.Context, t *models.Task, expectStatus models.TaskStatus) error {
	set := bson.M{
		"title":       t.Title,
		"description": t.Description,
		"tags":        t.Tags,
		"assignedTo":  t.AssignedTo,
		"status":      t.Status,
		"priority":    t.Priority,
		"dueDate":     t.DueDate,
		"completedAt": t.CompletedAt,
		"updatedAt":   t.UpdatedAt,
	}
	res, err := s.coll.UpdateOne(ctx, bson.M{"_id": t.ID, "status": expectStatus}, bson.M{"$set": set})
	if err != nil {
		return translate("update task", err)
	}
	if res.MatchedCount > 0 {
		return nil
	}
	return missingOrConflict(ctx, s.coll, t.ID)
}

func (s *TaskStore) Delete(ctx context.Context, id string) error {
	res, err := s.coll.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return translate("delete task", err)
	}
	if res.DeletedCount == 0 {
		return store.ErrNotFound
	}
	return nil
}

func (s *TaskStore) CountByStatus(ctx context.Context, assigneeID string) (map[models.TaskStatus]int64, error) {
	pipeline := mongo.Pipeline{
		{{Key: "$match", Value: bson.M{"assignedTo": assigneeID}}},
		{{Key: "$group", Value: bson.M{"_id": "$status", "count": bson.M{"$sum": 1}}}},
	}
	cur, err := s.coll.Aggregate(ctx, pipeline)
	if err != nil {
		return nil, translate("count tasks by status", err)
	}
	var rows []struct {
		Status models.TaskStatus `bson:"_id"`
		Count  int64             `bson:"count"`
	}
	if err := cur.All(ctx, &rows); err != nil {
		return nil, translate("decode task counts", err)
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
