package store

import (
	"context"
	"errors"
	"fmt"

	"go-storefront/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// MongoProductStore is the Catalog Store backed by a MongoDB collection.
type MongoProductStore struct {
	Collection *mongo.Collection
}

// NewMongoProductStore uses the products collection of db.
func NewMongoProductStore(db *mongo.Database) *MongoProductStore {
	return &MongoProductStore{Collection: db.Collection(ProductsCollection)}
}

func (s *MongoProductStore) List(ctx context.Context, q ListingQuery) ([]models.Product, int64, error) {
	filter := q.Filter()
	count, err := s.Collection.CountDocuments(ctx, filter)
	if err != nil {
		return nil, 0, fmt.Errorf("count products: %w", err)
	}
	if q.Skip >= count {
		return []models.Product{}, count, nil
	}

	cursor, err := s.Collection.Find(ctx, filter, q.FindOptions())
	if err != nil {
		return nil, 0, fmt.Errorf("find products: %w", err)
	}
	defer cursor.Close(ctx)

	products := []models.Product{}
	for cursor.Next(ctx) {
		var product models.Product
		if err := cursor.Decode(&product); err != nil {
			return nil, 0, fmt.Errorf("decode product: %w", err)
		}
		products = append(products, normalize(product))
	}
	if err := cursor.Err(); err != nil {
		return nil, 0, fmt.Errorf("read products: %w", err)
	}
	return products, count, nil
}

func (s *MongoProductStore) Get(ctx context.Context, id primitive.ObjectID) (*models.Product, error) {
	var product models.Product
	err := s.Collection.FindOne(ctx, bson.M{"_id": id}).Decode(&product)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("find product %s: %w", id.Hex(), err)
	}
	product = normalize(product)
	return &product, nil
}

func (s *MongoProductStore) Categories(ctx context.Context) ([]string, error) {
	values, err := s.Collection.Distinct(ctx, "category", bson.D{})
	if err != nil {
		return nil, fmt.Errorf("distinct categories: %w", err)
	}
	categories := make([]string, 0, len(values))
	for _, v := range values {
		if c, ok := v.(string); ok {
			categories = append(categories, c)
		}
	}
	return categories, nil
}

func (s *MongoProductStore) Create(ctx context.Context, p *models.Product) error {
	if p.ID.IsZero() {
		p.ID = primitive.NewObjectID()
	}
	*p = normalize(*p)
	if _, err := s.Collection.InsertOne(ctx, p); err != nil {
		return fmt.Errorf("insert product: %w", err)
	}
	return nil
}

func (s *MongoProductStore) Update(ctx context.Context, id primitive.ObjectID, u models.ProductUpdate) (*models.Product, error) {
	if u.Empty() {
		return s.Get(ctx, id)
	}

	set := bson.D{}
	if u.Name != nil {
		set = append(set, bson.E{Key: "name", Value: *u.Name})
	}
	if u.Description != nil {
		set = append(set, bson.E{Key: "description", Value: *u.Description})
	}
	if u.Price != nil {
		set = append(set, bson.E{Key: "price", Value: *u.Price})
	}
	if u.Category != nil {
		set = append(set, bson.E{Key: "category", Value: *u.Category})
	}
	if u.Image != nil {
		set = append(set, bson.E{Key: "image", Value: *u.Image})
	}
	if u.Stock != nil {
		set = append(set, bson.E{Key: "stock", Value: *u.Stock})
	}

	var product models.Product
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	err := s.Collection.FindOneAndUpdate(ctx, bson.M{"_id": id}, bson.M{"$set": set}, opts).Decode(&product)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("update product %s: %w", id.Hex(), err)
	}
	product = normalize(product)
	return &product, nil
}

func (s *MongoProductStore) Delete(ctx context.Context, id primitive.ObjectID) error {
	result, err := s.Collection.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return fmt.Errorf("delete product %s: %w", id.Hex(), err)
	}
	if result.DeletedCount == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *MongoProductStore) AppendReview(ctx context.Context, productID, reviewID primitive.ObjectID) error {
	result, err := s.Collection.UpdateOne(ctx, bson.M{"_id": productID}, bson.M{
		"$push": bson.M{"reviews": reviewID},
	})
	if err != nil {
		return fmt.Errorf("append review to product %s: %w", productID.Hex(), err)
	}
	if result.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

// Ping checks that the server behind the collection answers.
func (s *MongoProductStore) Ping(ctx context.Context) error {
	return s.Collection.Database().Client().Ping(ctx, nil)
}

func normalize(p models.Product) models.Product {
	if p.ReviewIDs == nil {
		p.ReviewIDs = []primitive.ObjectID{}
	}
	if p.Reviews == nil {
		p.Reviews = []models.Review{}
	}
	return p
}
