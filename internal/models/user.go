package models

import (
	"context"
	"time"
)

type Location struct {
	City  string `bson:"city" json:"city"`
	State string `bson:"state" json:"state"`
}

type User struct {
	ID              string    `bson:"_id" json:"id"`
	DisplayName     string    `bson:"display_name" json:"display_name"`
	Email           string    `bson:"email" json:"email" validate:"omitempty,email"`
	PhotoURL        string    `bson:"photo_url" json:"photo_url"`
	Bio             string    `bson:"bio" json:"bio" validate:"max=500"`
	Location        Location  `bson:"location" json:"location"`
	CreatedEvents   []string  `bson:"created_events" json:"created_events"`
	AttendingEvents []string  `bson:"attending_events" json:"attending_events"`
	CreatedAt       time.Time `bson:"created_at" json:"created_at"`
	UpdatedAt       time.Time `bson:"updated_at" json:"updated_at"`
}

// NewUser builds the profile document written on first sign-in or sign-up.
func NewUser(id, email, displayName, photoURL string) *User {
	now := time.Now()
	return &User{
		ID:              id,
		DisplayName:     displayName,
		Email:           email,
		PhotoURL:        photoURL,
		Location:        Location{},
		CreatedEvents:   []string{},
		AttendingEvents: []string{},
		CreatedAt:       now,
		UpdatedAt:       now,
	}
}

type UsersRepo interface {
	// CreateUser inserts the profile unless one already exists for the id.
	CreateUser(ctx context.Context, user *User) error
	GetUser(ctx context.Context, id string) (*User, error)
	UpdateUser(ctx context.Context, id string, fields map[string]interface{}) (*User, error)
	AddCreatedEvent(ctx context.Context, userID, eventID string) error
	RemoveCreatedEvent(ctx context.Context, userID, eventID string) error
	AddAttendingEvent(ctx context.Context, userID, eventID string) error
	RemoveAttendingEvent(ctx context.Context, userID, eventID string) error
}
