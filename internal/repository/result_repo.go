package repository

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"hectoclash/internal/model"
)

// ResultRepo stores one record per user per finished session.
type ResultRepo interface {
	Create(ctx context.Context, record *model.GameRecord) error
	ListByUser(ctx context.Context, userID string, limit int64) ([]model.GameRecord, error)
}

type resultRepo struct {
	collection *mongo.Collection
}

func NewResultRepo(db *mongo.Database) ResultRepo {
	return &resultRepo{
		collection: db.Collection("game_results"),
	}
}

func (r *resultRepo) Create(ctx context.Context, record *model.GameRecord) error {
	if record.CreatedAt.IsZero() {
		record.CreatedAt = time.Now()
	}

	result, err := r.collection.InsertOne(ctx, record)
	if err != nil {
		return err
	}
	if oid, ok := result.InsertedID.(primitive.ObjectID); ok {
		record.ID = oid.Hex()
	}
	return nil
}

func (r *resultRepo) ListByUser(ctx context.Context, userID string, limit int64) ([]model.GameRecord, error) {
	opts := options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}})
	if limit > 0 {
		opts.SetLimit(limit)
	}

	cursor, err := r.collection.Find(ctx, bson.M{"userId": userID}, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	records := []model.GameRecord{}
	if err := cursor.All(ctx, &records); err != nil {
		return nil, err
	}
	return records, nil
}
