package repository

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"hectoclash/internal/model"
)

// UserRepo persists per-user game counters and rating. All writes upsert,
// so a user the identity provider knows about but this store has not seen
// yet starts from zero.
type UserRepo interface {
	IncrementGamesPlayed(ctx context.Context, userID string) error
	IncrementGamesWon(ctx context.Context, userID string) error
	AdjustRating(ctx context.Context, userID string, delta int) error
	SetUsername(ctx context.Context, userID, username string) error
	GetByID(ctx context.Context, userID string) (*model.UserStats, error)
	TopByRating(ctx context.Context, limit int64) ([]model.UserStats, error)
}

type userRepo struct {
	collection *mongo.Collection
	now        func() time.Time
}

func NewUserRepo(db *mongo.Database) UserRepo {
	return &userRepo{
		collection: db.Collection("users"),
		now:        time.Now,
	}
}

func (r *userRepo) IncrementGamesPlayed(ctx context.Context, userID string) error {
	return r.inc(ctx, userID, "gamesPlayed", 1)
}

func (r *userRepo) IncrementGamesWon(ctx context.Context, userID string) error {
	return r.inc(ctx, userID, "gamesWon", 1)
}

func (r *userRepo) AdjustRating(ctx context.Context, userID string, delta int) error {
	return r.inc(ctx, userID, "rating", delta)
}

func (r *userRepo) SetUsername(ctx context.Context, userID, username string) error {
	update := bson.M{"$set": bson.M{"username": username, "updatedAt": r.now()}}
	_, err := r.collection.UpdateOne(ctx, bson.M{"_id": userID}, update, options.Update().SetUpsert(true))
	return err
}

func (r *userRepo) inc(ctx context.Context, userID, field string, delta int) error {
	_, err := r.collection.UpdateOne(ctx, bson.M{"_id": userID}, incUpdate(field, delta, r.now()), options.Update().SetUpsert(true))
	return err
}

func incUpdate(field string, delta int, now time.Time) bson.M {
	return bson.M{
		"$inc": bson.M{field: delta},
		"$set": bson.M{"updatedAt": now},
	}
}

func (r *userRepo) GetByID(ctx context.Context, userID string) (*model.UserStats, error) {
	var user model.UserStats
	err := r.collection.FindOne(ctx, bson.M{"_id": userID}).Decode(&user)
	if err == mongo.ErrNoDocuments {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &user, nil
}

func (r *userRepo) TopByRating(ctx context.Context, limit int64) ([]model.UserStats, error) {
	cursor, err := r.collection.Find(ctx, bson.M{}, leaderboardOptions(limit))
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	users := []model.UserStats{}
	if err := cursor.All(ctx, &users); err != nil {
		return nil, err
	}
	return users, nil
}

func leaderboardOptions(limit int64) *options.FindOptions {
	opts := options.Find().SetSort(bson.D{{Key: "rating", Value: -1}, {Key: "gamesWon", Value: -1}})
	if limit > 0 {
		opts.SetLimit(limit)
	}
	return opts
}
