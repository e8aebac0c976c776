package models

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// FeedFilter builds the qualification filter shared by the feed, "load more" and search.
// Recurring events bypass the date range in every path.
func FeedFilter(q EventQuery) bson.M {
	clauses := bson.A{
		bson.M{"$or": bson.A{
			bson.M{"event_date": bson.M{"$gte": q.Since}},
			bson.M{"is_recurring": true},
		}},
	}
	if q.City != "" {
		clauses = append(clauses, bson.M{"location.city": q.City})
	}
	if q.After != nil {
		clauses = append(clauses, bson.M{"$or": bson.A{
			bson.M{"event_date": bson.M{"$gt": q.After.EventDate}},
			bson.M{"event_date": q.After.EventDate, "_id": bson.M{"$gt": q.After.ID}},
		}})
	}
	return bson.M{"$and": clauses}
}

func (mdb *MongodbRepo) CreateEvent(ctx context.Context, event *Event) error {
	col, err := mdb.GetCollection(EventsColName)
	if err != nil {
		return err
	}
	if _, err := col.InsertOne(ctx, event); err != nil {
		return fmt.Errorf("failed to insert event %s: %v", event.ID, err)
	}
	return nil
}

func (mdb *MongodbRepo) GetEvent(ctx context.Context, id string) (*Event, error) {
	col, err := mdb.GetCollection(EventsColName)
	if err != nil {
		return nil, err
	}

	var event Event
	if err := col.FindOne(ctx, bson.M{"_id": id}).Decode(&event); err != nil {
		return nil, notFound(err, "event", id)
	}
	return &event, nil
}

func (mdb *MongodbRepo) QueryEvents(ctx context.Context, q EventQuery) ([]*Event, error) {
	opts := options.Find().SetSort(bson.D{{Key: "event_date", Value: 1}, {Key: "_id", Value: 1}})
	if q.Limit > 0 {
		opts.SetLimit(int64(q.Limit))
	}
	return mdb.findEvents(ctx, FeedFilter(q), opts)
}

func (mdb *MongodbRepo) ListEventsByCreator(ctx context.Context, userID string) ([]*Event, error) {
	opts := options.Find().SetSort(bson.D{{Key: "event_date", Value: -1}})
	return mdb.findEvents(ctx, bson.M{"creator_id": userID}, opts)
}

func (mdb *MongodbRepo) ListEventsByParticipant(ctx context.Context, userID string) ([]*Event, error) {
	opts := options.Find().SetSort(bson.D{{Key: "event_date", Value: -1}})
	return mdb.findEvents(ctx, bson.M{"participants": userID}, opts)
}

func (mdb *MongodbRepo) findEvents(ctx context.Context, filter bson.M, opts *options.FindOptions) ([]*Event, error) {
	col, err := mdb.GetCollection(EventsColName)
	if err != nil {
		return nil, err
	}

	cursor, err := col.Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to query events: %v", err)
	}
	defer cursor.Close(ctx)

	events := []*Event{}
	if err := cursor.All(ctx, &events); err != nil {
		return nil, fmt.Errorf("failed to decode events: %v", err)
	}
	return events, nil
}

func (mdb *MongodbRepo) UpdateEvent(ctx context.Context, id string, fields map[string]interface{}) error {
	if len(fields) == 0 {
		return fmt.Errorf("no fields to update")
	}
	col, err := mdb.GetCollection(EventsColName)
	if err != nil {
		return err
	}

	set := bson.M{"updated_at": time.Now()}
	for k, v := range fields {
		set[k] = v
	}

	res, err := col.UpdateOne(ctx, bson.M{"_id": id}, bson.M{"$set": set})
	if err != nil {
		return fmt.Errorf("failed to update event %s: %v", id, err)
	}
	if res.MatchedCount == 0 {
		return fmt.Errorf("event %s: %w", id, ErrNotFound)
	}
	return nil
}

func (mdb *MongodbRepo) DeleteEvent(ctx context.Context, id string) error {
	col, err := mdb.GetCollection(EventsColName)
	if err != nil {
		return err
	}

	res, err := col.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return fmt.Errorf("failed to delete event %s: %v", id, err)
	}
	if res.DeletedCount == 0 {
		return fmt.Errorf("event %s: %w", id, ErrNotFound)
	}
	return nil
}

func (mdb *MongodbRepo) AddParticipant(ctx context.Context, eventID, userID string) error {
	return mdb.updateRoster(ctx, eventID, "$addToSet", userID)
}

func (mdb *MongodbRepo) RemoveParticipant(ctx context.Context, eventID, userID string) error {
	return mdb.updateRoster(ctx, eventID, "$pull", userID)
}

func (mdb *MongodbRepo) updateRoster(ctx context.Context, eventID, op, userID string) error {
	col, err := mdb.GetCollection(EventsColName)
	if err != nil {
		return err
	}

	res, err := col.UpdateOne(ctx, bson.M{"_id": eventID}, bson.M{
		op:     bson.M{"participants": userID},
		"$set": bson.M{"updated_at": time.Now()},
	})
	if err != nil {
		return fmt.Errorf("failed to update participants of event %s: %v", eventID, err)
	}
	if res.MatchedCount == 0 {
		return fmt.Errorf("event %s: %w", eventID, ErrNotFound)
	}
	return nil
}
