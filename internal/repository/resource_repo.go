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

// ResourceRepo handles MongoDB operations for the resource library
type ResourceRepo interface {
	Create(ctx context.Context, res *model.Resource) error
	List(ctx context.Context, category string) ([]*model.Resource, error)
	Delete(ctx context.Context, id string) error
}

type resourceRepo struct {
	collection *mongo.Collection
}

// NewResourceRepo creates a new resource repository
func NewResourceRepo(db *mongo.Database) ResourceRepo {
	return &resourceRepo{
		collection: db.Collection("resources"),
	}
}

func (r *resourceRepo) Create(ctx context.Context, res *model.Resource) error {
	if res.ID == "" {
		res.ID = primitive.NewObjectID().Hex()
	}
	res.CreatedAt = time.Now()
	_, err := r.collection.InsertOne(ctx, res)
	return err
}

// List returns resources newest first, optionally filtered by category
func (r *resourceRepo) List(ctx context.Context, category string) ([]*model.Resource, error) {
	filter := bson.M{}
	if category != "" {
		filter["category"] = category
	}
	opts := options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}})
	cursor, err := r.collection.Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var resources []*model.Resource
	if err := cursor.All(ctx, &resources); err != nil {
		return nil, err
	}
	return resources, nil
}

func (r *resourceRepo) Delete(ctx context.Context, id string) error {
	_, err := r.collection.DeleteOne(ctx, bson.M{"_id": id})
	return err
}
