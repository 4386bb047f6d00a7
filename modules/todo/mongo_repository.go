package todo

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"time"

	domain "github.com/immeasurable-vikrant/taskFlow/domain/todo"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const todosCollection = "todos"

// MongoRepository handles todo persistence in a MongoDB collection.
type MongoRepository struct {
	coll *mongo.Collection
}

var _ Repository = (*MongoRepository)(nil)

// NewMongoRepository creates a repository over the todos collection of db.
func NewMongoRepository(db *mongo.Database) *MongoRepository {
	return &MongoRepository{coll: db.Collection(todosCollection)}
}

// Migrate ensures the owner/createdAt index exists.
func (r *MongoRepository) Migrate(ctx context.Context) error {
	_, err := r.coll.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "userId", Value: 1}, {Key: "createdAt", Value: -1}},
		Options: options.Index().SetName("idx_todos_owner_created"),
	})
	if err != nil {
		return fmt.Errorf("failed to create todos index: %w", err)
	}
	return nil
}

// Create inserts a todo.
func (r *MongoRepository) Create(ctx context.Context, todo *domain.Todo) error {
	_, err := r.coll.InsertOne(ctx, todo)
	return err
}

// FindByID returns the owner's todo with the given ID.
func (r *MongoRepository) FindByID(ctx context.Context, id, ownerID string) (*domain.Todo, error) {
	var todo domain.Todo
	if err := r.coll.FindOne(ctx, ownerFilter(id, ownerID)).Decode(&todo); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &todo, nil
}

// List returns one page of the owner's matching todos and the total match count.
func (r *MongoRepository) List(ctx context.Context, q domain.Query) ([]domain.Todo, int64, error) {
	filter := bson.M{"userId": q.OwnerID}
	if completed := q.CompletedFilter(); completed != nil {
		filter["completed"] = *completed
	}
	if q.Search != "" {
		pattern := bson.M{"$regex": regexp.QuoteMeta(q.Search), "$options": "i"}
		filter["$or"] = bson.A{
			bson.M{"title": pattern},
			bson.M{"description": pattern},
		}
	}

	total, err := r.coll.CountDocuments(ctx, filter)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to count todos: %w", err)
	}

	todos := make([]domain.Todo, 0, q.Limit)
	if total == 0 {
		return todos, 0, nil
	}

	dir := -1
	if q.SortOrder == domain.SortAsc {
		dir = 1
	}
	opts := options.Find().
		SetSort(bson.D{{Key: string(q.SortBy), Value: dir}, {Key: "_id", Value: dir}}).
		SetSkip(int64(q.Offset())).
		SetLimit(int64(q.Limit))

	cursor, err := r.coll.Find(ctx, filter, opts)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list todos: %w", err)
	}
	if err := cursor.All(ctx, &todos); err != nil {
		return nil, 0, fmt.Errorf("failed to decode todos: %w", err)
	}
	return todos, total, nil
}

// Update applies changes to the owner's todo and returns the stored result.
func (r *MongoRepository) Update(ctx context.Context, id, ownerID string, changes domain.Changes, now time.Time) (*domain.Todo, error) {
	set := bson.M{"updatedAt": now}
	if changes.Title != nil {
		set["title"] = *changes.Title
	}
	if changes.Description != nil {
		set["description"] = *changes.Description
	}
	if changes.Completed != nil {
		set["completed"] = *changes.Completed
	}

	var todo domain.Todo
	err := r.coll.FindOneAndUpdate(
		ctx,
		ownerFilter(id, ownerID),
		bson.M{"$set": set},
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	).Decode(&todo)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to update todo: %w", err)
	}
	return &todo, nil
}

// Delete removes the owner's todo.
func (r *MongoRepository) Delete(ctx context.Context, id, ownerID string) error {
	result, err := r.coll.DeleteOne(ctx, ownerFilter(id, ownerID))
	if err != nil {
		return fmt.Errorf("failed to delete todo: %w", err)
	}
	if result.DeletedCount == 0 {
		return ErrNotFound
	}
	return nil
}

func ownerFilter(id, ownerID string) bson.M {
	return bson.M{"_id": id, "userId": ownerID}
}
