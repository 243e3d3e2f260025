package mongostore

import (
	"context"

	"taskdesk-api/internal/models"
	"taskdesk-api/internal/store"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type QueryStore struct {
	coll *mongo.Collection
}

var _ store.QueryStore = (*QueryStore)(nil)

func (s *QueryStore) Create(ctx context.Context, q *models.Query) error {
	if q.Comments == nil {
		q.Comments = []models.Comment{}
	}
	_, err := s.coll.InsertOne(ctx, q)
	return translate("create query", err)
}

func (s *QueryStore) Get(ctx context.Context, id string) (*models.Query, error) {
	var q models.Query
	if err := s.coll.FindOne(ctx, bson.M{"_id": id}).Decode(&q); err != nil {
		return nil, translate("get query", err)
	}
	fillComments(&q)
	return &q, nil
}

// fillComments restores the fields a comment does not store inside its
// parent document.
func fillComments(q *models.Query) {
	if q.Comments == nil {
		q.Comments = []models.Comment{}
	}
	for i := range q.Comments {
		q.Comments[i].QueryID = q.ID
	}
}

func queryScopeClause(scope store.QueryScope) bson.M {
	if scope.All {
		return nil
	}
	or := bson.A{
		bson.M{"createdBy": scope.UserID},
		bson.M{"assignedTo": scope.UserID},
	}
	if len(scope.TaskIDs) > 0 {
		or = append(or, bson.M{"task": bson.M{"$in": scope.TaskIDs}})
	}
	return bson.M{"$or": or}
}

func (s *QueryStore) List(ctx context.Context, f store.QueryFilter) ([]models.Query, int64, error) {
	clauses := []bson.M{queryScopeClause(f.Scope)}
	if len(f.Statuses) > 0 {
		clauses = append(clauses, bson.M{"status": bson.M{"$in": f.Statuses}})
	}
	if f.TaskID != "" {
		clauses = append(clauses, bson.M{"task": f.TaskID})
	}
	clauses = append(clauses, searchClause(f.Search, "title", "description"))
	filter := and(clauses...)

	total, err := s.coll.CountDocuments(ctx, filter)
	if err != nil {
		return nil, 0, translate("count queries", err)
	}
	cur, err := s.coll.Find(ctx, filter, findOptions(f.Sort, f.Page))
	if err != nil {
		return nil, 0, translate("list queries", err)
	}
	queries := []models.Query{}
	if err := cur.All(ctx, &queries); err != nil {
		return nil, 0, translate("decode queries", err)
	}
	for i := range queries {
		fillComments(&queries[i])
	}
	return queries, total, nil
}

// Update sets the mutable fields of q, never its comments, while the stored
// status still equals expectStatus.
func (s *QueryStore) Update(ctx context.Context, q *models.Query, expectStatus models.QueryStatus) error {
	set := bson.M{
		"title":       q.Title,
		"description": q.Description,
		"assignedTo":  q.AssignedTo,
		"status":      q.Status,
		"priority":    q.Priority,
		"resolvedAt":  q.ResolvedAt,
		"updatedAt":   q.UpdatedAt,
	}
	res, err := s.coll.UpdateOne(ctx, bson.M{"_id": q.ID, "status": expectStatus}, bson.M{"$set": set})
	if err != nil {
		return translate("update query", err)
	}
	if res.MatchedCount > 0 {
		return nil
	}
	return missingOrConflict(ctx, s.coll, q.ID)
}

// AppendComment pushes c and evaluates advance against the same document
// version in one pipeline update.
func (s *QueryStore) AppendComment(ctx context.Context, queryID string, c models.Comment, advance store.StatusAdvance) (models.QueryStatus, error) {
	comment := bson.M{
		"id":        c.ID,
		"author":    c.Author,
		"text":      c.Text,
		"createdAt": c.CreatedAt,
	}
	set := bson.M{
		"comments": bson.M{"$concatArrays": bson.A{
			bson.M{"$ifNull": bson.A{"$comments", bson.A{}}},
			bson.A{bson.M{"$literal": comment}},
		}},
		"updatedAt": c.CreatedAt,
	}
	if advance.From != "" {
		set["status"] = bson.M{"$cond": bson.A{
			bson.M{"$and": bson.A{
				bson.M{"$eq": bson.A{"$status", string(advance.From)}},
				bson.M{"$ne": bson.A{"$createdBy", bson.M{"$literal": advance.Author}}},
			}},
			string(advance.To),
			"$status",
		}}
	}
	pipeline := mongo.Pipeline{{{Key: "$set", Value: set}}}

	opts := options.FindOneAndUpdate().
		SetReturnDocument(options.After).
		SetProjection(bson.M{"status": 1})
	var out struct {
		Status models.QueryStatus `bson:"status"`
	}
	err := s.coll.FindOneAndUpdate(ctx, bson.M{"_id": queryID}, pipeline, opts).Decode(&out)
	if err != nil {
		return "", translate("append comment", err)
	}
	return out.Status, nil
}

func (s *QueryStore) Delete(ctx context.Context, id string) error {
	res, err := s.coll.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return translate("delete query", err)
	}
	if res.DeletedCount == 0 {
		return store.ErrNotFound
	}
	return nil
}
