package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/Clark-Hu/movie-budget-game/internal/domain"
)

const dailyCollection = "daily_movies"

// DailyMongo stores daily records as documents keyed by date.
type DailyMongo struct {
	coll *mongo.Collection
}

// The date is the document _id, so uniqueness needs no extra index.
type dailyDocument struct {
	Date      string                 `bson:"_id"`
	Movies    []domain.MovieSnapshot `bson:"movies"`
	CreatedAt time.Time              `bson:"created_at"`
}

// Get fetches the document for a date.
func (r *DailyMongo) Get(ctx context.Context, date string) (domain.DailyRecord, error) {
	var doc dailyDocument
	err := r.coll.FindOne(ctx, bson.M{"_id": date}).Decode(&doc)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return domain.DailyRecord{}, ErrNotFound
		}
		return domain.DailyRecord{}, err
	}
	return doc.toRecord(), nil
}

// InsertIfAbsent inserts the document and falls back to reading the existing
// one on a duplicate key error.
func (r *DailyMongo) InsertIfAbsent(ctx context.Context, rec domain.DailyRecord) (domain.DailyRecord, bool, error) {
	doc := dailyDocument{
		Date:      rec.Date,
		Movies:    rec.Movies,
		CreatedAt: time.Now().UTC().Truncate(time.Millisecond),
	}
	if doc.Movies == nil {
		doc.Movies = []domain.MovieSnapshot{}
	}

	_, err := r.coll.InsertOne(ctx, doc)
	if err == nil {
		return doc.toRecord(), true, nil
	}
	if !mongo.IsDuplicateKeyError(err) {
		return domain.DailyRecord{}, false, fmt.Errorf("insert daily challenge: %w", err)
	}

	existing, err := r.Get(ctx, rec.Date)
	if err != nil {
		return domain.DailyRecord{}, false, fmt.Errorf("reload daily challenge after conflict: %w", err)
	}
	return existing, false, nil
}

func (d dailyDocument) toRecord() domain.DailyRecord {
	return domain.DailyRecord{Date: d.Date, Movies: d.Movies, CreatedAt: d.CreatedAt.UTC()}
}
