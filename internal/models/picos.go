package models

import (
	"context"
	"time"
)

// MinPicoPhotos is the number of photos a new pico must carry.
const MinPicoPhotos = 2

type Pico struct {
	ID            string      `bson:"_id" json:"id"`
	Name          string      `bson:"name" json:"name" validate:"required,min=3,max=100"`
	Description   string      `bson:"description" json:"description" validate:"required,max=2000"`
	Location      string      `bson:"location" json:"location" validate:"required"`
	Coordinates   Coordinates `bson:"coordinates" json:"coordinates"`
	CreatorID     string      `bson:"creator_id" json:"creator_id"`
	CreatorName   string      `bson:"creator_name" json:"creator_name"`
	Photos        []string    `bson:"photos" json:"photos" validate:"dive,url"`
	AverageRating float64     `bson:"average_rating" json:"average_rating"`
	RatingCount   int         `bson:"rating_count" json:"rating_count"`
	CreatedAt     time.Time   `bson:"created_at" json:"created_at"`
	UpdatedAt     time.Time   `bson:"updated_at" json:"updated_at"`
}

type Review struct {
	ID           string    `bson:"_id" json:"id"`
	PicoID       string    `bson:"pico_id" json:"pico_id"`
	UserID       string    `bson:"user_id" json:"user_id"`
	UserName     string    `bson:"user_name" json:"user_name"`
	UserPhotoURL string    `bson:"user_photo_url" json:"user_photo_url"`
	Rating       int       `bson:"rating" json:"rating" validate:"min=1,max=5"`
	Comment      string    `bson:"comment" json:"comment" validate:"required,max=1000"`
	Media        []string  `bson:"media,omitempty" json:"media,omitempty" validate:"dive,url"`
	CreatedAt    time.Time `bson:"created_at" json:"created_at"`
}

type PicosRepo interface {
	CreatePico(ctx context.Context, pico *Pico) error
	GetPico(ctx context.Context, id string) (*Pico, error)
	// ListPicos returns every pico, newest first.
	ListPicos(ctx context.Context) ([]*Pico, error)
	UpdatePico(ctx context.Context, id string, fields map[string]interface{}) error
	DeletePico(ctx context.Context, id string) error
	SetRating(ctx context.Context, id string, average float64, count int) error
}

type ReviewsRepo interface {
	CreateReview(ctx context.Context, review *Review) error
	// ListReviews returns the reviews of a pico, newest first.
	ListReviews(ctx context.Context, picoID string) ([]*Review, error)
	FindUserReview(ctx context.Context, picoID, userID string) (*Review, error)
	DeleteReviews(ctx context.Context, picoID string) (int64, error)
}
