package models

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

func (mdb *MongodbRepo) CreatePico(ctx context.Context, pico *Pico) error {
	col, err := mdb.GetCollection(PicosColName)
	if err != nil {
		return err
	}
	if _, err := col.InsertOne(ctx, pico); err != nil {
		return fmt.Errorf("failed to insert pico %s: %v", pico.ID, err)
	}
	return nil
}

func (mdb *MongodbRepo) GetPico(ctx context.Context, id string) (*Pico, error) {
	col, err := mdb.GetCollection(PicosColName)
	if err != nil {
		return nil, err
	}

	var pico Pico
	if err := col.FindOne(ctx, bson.M{"_id": id}).Decode(&pico); err != nil {
		return nil, notFound(err, "pico", id)
	}
	return &pico, nil
}

func (mdb *MongodbRepo) ListPicos(ctx context.Context) ([]*Pico, error) {
	col, err := mdb.GetCollection(PicosColName)
	if err != nil {
		return nil, err
	}

	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}})
	cursor, err := col.Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to list picos: %v", err)
	}
	defer cursor.Close(ctx)

	picos := []*Pico{}
	if err := cursor.All(ctx, &picos); err != nil {
		return nil, fmt.Errorf("failed to decode picos: %v", err)
	}
	return picos, nil
}

func (mdb *MongodbRepo) UpdatePico(ctx context.Context, id string, fields map[string]interface{}) error {
	if len(fields) == 0 {
		return fmt.Errorf("no fields to update")
	}
	set := bson.M{"updated_at": time.Now()}
	for k, v := range fields {
		set[k] = v
	}
	return mdb.setPicoFields(ctx, id, set)
}

// SetRating writes the derived rating fields; nothing else should touch them.
func (mdb *MongodbRepo) SetRating(ctx context.Context, id string, average float64, count int) error {
	return mdb.setPicoFields(ctx, id, bson.M{
		"average_rating": average,
		"rating_count":   count,
	})
}

func (mdb *MongodbRepo) setPicoFields(ctx context.Context, id string, set bson.M) error {
	col, err := mdb.GetCollection(PicosColName)
	if err != nil {
		return err
	}

	res, err := col.UpdateOne(ctx, bson.M{"_id": id}, bson.M{"$set": set})
	if err != nil {
		return fmt.Errorf("failed to update pico %s: %v", id, err)
	}
	if res.MatchedCount == 0 {
		return fmt.Errorf("pico %s: %w", id, ErrNotFound)
	}
	return nil
}

func (mdb *MongodbRepo) DeletePico(ctx context.Context, id string) error {
	col, err := mdb.GetCollection(PicosColName)
	if err != nil {
		return err
	}

	res, err := col.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return fmt.Errorf("failed to delete pico %s: %v", id, err)
	}
	if res.DeletedCount == 0 {
		return fmt.Errorf("pico %s: %w", id, ErrNotFound)
	}
	return nil
}

func (mdb *MongodbRepo) CreateReview(ctx context.Context, review *Review) error {
	col, err := mdb.GetCollection(ReviewsColName)
	if err != nil {
		return err
	}
	if _, err := col.InsertOne(ctx, review); err != nil {
		return fmt.Errorf("failed to insert review into database: %w", err)
	}
	return nil
}

func (mdb *MongodbRepo) ListReviews(ctx context.Context, picoID string) ([]*Review, error) {
	col, err := mdb.GetCollection(ReviewsColName)
	if err != nil {
		return nil, err
	}

	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}})
	cursor, err := col.Find(ctx, bson.M{"pico_id": picoID}, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to list reviews of pico %s: %v", picoID, err)
	}
	defer cursor.Close(ctx)

	reviews := []*Review{}
	if err := cursor.All(ctx, &reviews); err != nil {
		return nil, fmt.Errorf("failed to decode reviews: %v", err)
	}
	return reviews, nil
}

// FindUserReview returns ErrNotFound when the user has not reviewed the pico yet.
func (mdb *MongodbRepo) FindUserReview(ctx context.Context, picoID, userID string) (*Review, error) {
	col, err := mdb.GetCollection(ReviewsColName)
	if err != nil {
		return nil, err
	}

	var review Review
	if err := col.FindOne(ctx, bson.M{"pico_id": picoID, "user_id": userID}).Decode(&review); err != nil {
		return nil, notFound(err, "review by user "+userID+" on pico", picoID)
	}
	return &review, nil
}

func (mdb *MongodbRepo) DeleteReviews(ctx context.Context, picoID string) (int64, error) {
	col, err := mdb.GetCollection(ReviewsColName)
	if err != nil {
		return 0, err
	}

	res, err := col.DeleteMany(ctx, bson.M{"pico_id": picoID})
	if err != nil {
		return 0, fmt.Errorf("failed to delete reviews of pico %s: %v", picoID, err)
	}
	return res.DeletedCount, nil
}

// EnsureIndexes creates the indexes the feed, roster and review lookups rely on.
func (mdb *MongodbRepo) EnsureIndexes(ctx context.Context) error {
	indexes := map[string][]mongo.IndexModel{
		EventsColName: {
			// Feed order
			{
				Keys: bson.D{
					{Key: "event_date", Value: 1},
					{Key: "_id", Value: 1},
				},
				Options: options.Index().SetName("event_date_id_idx"),
			},
			{
				Keys: bson.D{
					{Key: "location.city", Value: 1},
					{Key: "event_date", Value: 1},
				},
				Options: options.Index().SetName("city_event_date_idx"),
			},
			{
				Keys:    bson.D{{Key: "creator_id", Value: 1}},
				Options: options.Index().SetName("creator_id_idx"),
			},
			{
				Keys:    bson.D{{Key: "participants", Value: 1}},
				Options: options.Index().SetName("participants_idx"),
			},
		},
		PicosColName: {
			{
				Keys:    bson.D{{Key: "created_at", Value: -1}},
				Options: options.Index().SetName("created_at_idx"),
			},
		},
		// Not unique: one review per user is checked before insert.
		ReviewsColName: {
			{
				Keys: bson.D{
					{Key: "pico_id", Value: 1},
					{Key: "user_id", Value: 1},
				},
				Options: options.Index().SetName("pico_user_idx"),
			},
			{
				Keys: bson.D{
					{Key: "pico_id", Value: 1},
					{Key: "created_at", Value: -1},
				},
				Options: options.Index().SetName("pico_created_at_idx"),
			},
		},
	}

	for colName, models := range indexes {
		col, err := mdb.GetCollection(colName)
		if err != nil {
			return fmt.Errorf("error getting collection: %v", err)
		}
		if _, err := col.Indexes().CreateMany(ctx, models); err != nil {
			return fmt.Errorf("error creating indexes on %s: %v", colName, err)
		}
	}
	return nil
}
