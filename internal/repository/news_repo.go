package repository

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"manara/internal/model"
)

// NewsRepo handles MongoDB operations for the news feed
type NewsRepo interface {
	Create(ctx context.Context, item *model.NewsItem) error
	List(ctx context.Context, limit int) ([]*model.NewsItem, error)
	Delete(ctx context.Context, id string) error
}

type newsRepo struct {
	collection *mongo.Collection
}

// NewNewsRepo creates a new news repository
func NewNewsRepo(db *mongo.Database) NewsRepo {
	return &newsRepo{
		collection: db.Collection("news"),
	}
}

func (r *newsRepo) Create(ctx context.Context, item *model.NewsItem) error {
	if item.ID == "" {
		item.ID = primitive.NewObjectID().Hex()
	}
	item.CreatedAt = time.Now()
	_, err := r.collection.InsertOne(ctx, item)
	return err
}

// List returns feed entries newest first
func (r *newsRepo) List(ctx context.Context, limit int) ([]*model.NewsItem, error) {
	opts := options.Find().
		SetSort(bson.D{{Key: "createdAt", Value: -1}}).
		SetLimit(int64(limit))
	cursor, err := r.collection.Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var items []*model.NewsItem
	if err := cursor.All(ctx, &items); err != nil {
		return nil, err
	}
	return items, nil
}

func (r *newsRepo) Delete(ctx context.Context, id string) error {
	_, err := r.collection.DeleteOne(ctx, bson.M{"_id": id})
	return err
}
