package models

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo/options"
)

func (mdb *MongodbRepo) CreateUser(ctx context.Context, user *User) error {
	col, err := mdb.GetCollection(UsersColName)
	if err != nil {
		return err
	}

	// $setOnInsert keeps an existing profile untouched on repeated sign-ins.
	_, err = col.UpdateOne(ctx,
		bson.M{"_id": user.ID},
		bson.M{"$setOnInsert": user},
		options.Update().SetUpsert(true),
	)
	if err != nil {
		return fmt.Errorf("failed to create user %s: %v", user.ID, err)
	}
	return nil
}

func (mdb *MongodbRepo) GetUser(ctx context.Context, id string) (*User, error) {
	col, err := mdb.GetCollection(UsersColName)
	if err != nil {
		return nil, err
	}

	var user User
	if err := col.FindOne(ctx, bson.M{"_id": id}).Decode(&user); err != nil {
		return nil, notFound(err, "user", id)
	}
	return &user, nil
}

func (mdb *MongodbRepo) UpdateUser(ctx context.Context, id string, fields map[string]interface{}) (*User, error) {
	if len(fields) == 0 {
		return nil, fmt.Errorf("no fields to update")
	}
	col, err := mdb.GetCollection(UsersColName)
	if err != nil {
		return nil, err
	}

	set := bson.M{"updated_at": time.Now()}
	for k, v := range fields {
		set[k] = v
	}

	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	var user User
	if err := col.FindOneAndUpdate(ctx, bson.M{"_id": id}, bson.M{"$set": set}, opts).Decode(&user); err != nil {
		return nil, notFound(err, "user", id)
	}
	return &user, nil
}

func (mdb *MongodbRepo) AddCreatedEvent(ctx context.Context, userID, eventID string) error {
	return mdb.updateUserList(ctx, userID, "$addToSet", "created_events", eventID)
}

func (mdb *MongodbRepo) RemoveCreatedEvent(ctx context.Context, userID, eventID string) error {
	return mdb.updateUserList(ctx, userID, "$pull", "created_events", eventID)
}

func (mdb *MongodbRepo) AddAttendingEvent(ctx context.Context, userID, eventID string) error {
	return mdb.updateUserList(ctx, userID, "$addToSet", "attending_events", eventID)
}

func (mdb *MongodbRepo) RemoveAttendingEvent(ctx context.Context, userID, eventID string) error {
	return mdb.updateUserList(ctx, userID, "$pull", "attending_events", eventID)
}

func (mdb *MongodbRepo) updateUserList(ctx context.Context, userID, op, field, eventID string) error {
	col, err := mdb.GetCollection(UsersColName)
	if err != nil {
		return err
	}

	res, err := col.UpdateOne(ctx, bson.M{"_id": userID}, bson.M{
		op:     bson.M{field: eventID},
		"$set": bson.M{"updated_at": time.Now()},
	})
	if err != nil {
		return fmt.Errorf("failed to update %s for user %s: %v", field, userID, err)
	}
	if res.MatchedCount == 0 {
		return fmt.Errorf("user %s: %w", userID, ErrNotFound)
	}
	return nil
}
