package store

import (
	"context"
	"fmt"

	"go-storefront/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

// MongoReviewStore keeps reviews in their own collection, each pointing
// back at its product.
type MongoReviewStore struct {
	Collection *mongo.Collection
}

func NewMongoReviewStore(db *mongo.Database) *MongoReviewStore {
	return &MongoReviewStore{Collection: db.Collection(ReviewsCollection)}
}

func (s *MongoReviewStore) Create(ctx context.Context, r *models.Review) error {
	if r.ID.IsZero() {
		r.ID = primitive.NewObjectID()
	}
	if _, err := s.Collection.InsertOne(ctx, r); err != nil {
		return fmt.Errorf("insert review: %w", err)
	}
	return nil
}

func (s *MongoReviewStore) Delete(ctx context.Context, id primitive.ObjectID) error {
	result, err := s.Collection.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return fmt.Errorf("delete review %s: %w", id.Hex(), err)
	}
	if result.DeletedCount == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *MongoReviewStore) DeleteByProduct(ctx context.Context, productID primitive.ObjectID) (int64, error) {
	result, err := s.Collection.DeleteMany(ctx, bson.M{"product_id": productID})
	if err != nil {
		return 0, fmt.Errorf("delete reviews of product %s: %w", productID.Hex(), err)
	}
	return result.DeletedCount, nil
}

func (s *MongoReviewStore) FindByIDs(ctx context.Context, ids []primitive.ObjectID) ([]models.Review, error) {
	reviews := []models.Review{}
	if len(ids) == 0 {
		return reviews, nil
	}
	cursor, err := s.Collection.Find(ctx, bson.M{"_id": bson.M{"$in": ids}})
	if err != nil {
		return nil, fmt.Errorf("find reviews: %w", err)
	}
	defer cursor.Close(ctx)

	for cursor.Next(ctx) {
		var review models.Review
		if err := cursor.Decode(&review); err != nil {
			return nil, fmt.Errorf("decode review: %w", err)
		}
		reviews = append(reviews, review)
	}
	if err := cursor.Err(); err != nil {
		return nil, fmt.Errorf("read reviews: %w", err)
	}
	return reviews, nil
}
