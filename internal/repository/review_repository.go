package repository

import (
	"context"
	"errors"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"

	"banknote-review-service/internal/model"
)

const reviewsCollection = "reviews"

// ReviewRepository stores one ReviewAggregate document per banknote, keyed by
// the banknote key. Writes are conditional on the aggregate version.
type ReviewRepository struct {
	coll *mongo.Collection
}

func NewReviewRepository(db *mongo.Database) *ReviewRepository {
	return &ReviewRepository{coll: db.Collection(reviewsCollection)}
}

// Find returns the aggregate stored under key, or ErrNotFound.
func (r *ReviewRepository) Find(ctx context.Context, key string) (*model.ReviewAggregate, error) {
	var agg model.ReviewAggregate
	err := r.coll.FindOne(ctx, bson.M{"_id": key}).Decode(&agg)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("ReviewRepository.Find: %w", err)
	}
	return &agg, nil
}

// Insert creates the first aggregate for a banknote. It reports ErrConflict
// when another writer created it first.
func (r *ReviewRepository) Insert(ctx context.Context, agg *model.ReviewAggregate) error {
	if _, err := r.coll.InsertOne(ctx, agg); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return ErrConflict
		}
		return fmt.Errorf("ReviewRepository.Insert: %w", err)
	}
	return nil
}

// Replace swaps the stored document for agg if the stored version still
// equals expectedVersion. It reports ErrConflict otherwise.
func (r *ReviewRepository) Replace(ctx context.Context, agg *model.ReviewAggregate, expectedVersion int64) error {
	res, err := r.coll.ReplaceOne(ctx, bson.M{"_id": agg.ID, "version": expectedVersion}, agg)
	if err != nil {
		return fmt.Errorf("ReviewRepository.Replace: %w", err)
	}
	if res.MatchedCount == 0 {
		return ErrConflict
	}
	return nil
}
