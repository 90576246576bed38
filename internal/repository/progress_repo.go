package repository

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"manara/internal/model"
	"manara/internal/quiz"
)

// ProgressRepo handles MongoDB operations for per-user challenge
// progress. Writes use merge semantics: only the fields carried by a
// patch are $set, never the whole document.
type ProgressRepo interface {
	Get(ctx context.Context, userID string) (*model.UserProgress, error)
	Merge(ctx context.Context, patch *quiz.Patch) error
	TopByScore(ctx context.Context, limit int) ([]*model.UserProgress, error)
}

type progressRepo struct {
	collection *mongo.Collection
}

// NewProgressRepo creates a new progress repository
func NewProgressRepo(db *mongo.Database) ProgressRepo {
	return &progressRepo{
		collection: db.Collection("progress"),
	}
}

func (r *progressRepo) Get(ctx context.Context, userID string) (*model.UserProgress, error) {
	var progress model.UserProgress
	err := r.collection.FindOne(ctx, bson.M{"_id": userID}).Decode(&progress)
	if err == mongo.ErrNoDocuments {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &progress, nil
}

func (r *progressRepo) Merge(ctx context.Context, patch *quiz.Patch) error {
	set := bson.M{
		"lastUpdated": time.Now().UTC().Format(time.RFC3339),
	}
	if patch.Score != nil {
		set["challengeScore"] = *patch.Score
	}
	if patch.Completed != nil {
		set["completedChallenges"] = patch.Completed
	}
	if patch.Repeats != nil {
		set["questionsRepeatCount"] = patch.Repeats
	}

	opts := options.Update().SetUpsert(true)
	_, err := r.collection.UpdateOne(ctx, bson.M{"_id": patch.UserID}, bson.M{"$set": set}, opts)
	return err
}

// TopByScore returns records with a defined challengeScore ordered
// descending. Ties keep the query's natural return order; no secondary
// sort key is applied.
func (r *progressRepo) TopByScore(ctx context.Context, limit int) ([]*model.UserProgress, error) {
	opts := options.Find().
		SetSort(bson.D{{Key: "challengeScore", Value: -1}}).
		SetLimit(int64(limit))

	cursor, err := r.collection.Find(ctx, bson.M{"challengeScore": bson.M{"$exists": true}}, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var records []*model.UserProgress
	if err := cursor.All(ctx, &records); err != nil {
		return nil, err
	}
	return records, nil
}
