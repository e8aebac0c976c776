package models

import (
	"context"
	"errors"
	"fmt"

	"github.com/go-playground/validator/v10"
	"github.com/supabase-community/supabase-go"
	"go.mongodb.org/mongo-driver/mongo"
)

var Validate = validator.New()

var (
	ErrNotFound        = errors.New("not found")
	ErrForbidden       = errors.New("forbidden")
	ErrAlreadyReviewed = errors.New("user already reviewed this pico")
	ErrInvalidInput    = errors.New("invalid input")
)

const (
	UsersColName   = "users"
	EventsColName  = "events"
	PicosColName   = "picos"
	ReviewsColName = "pico_reviews"
)

type SupabaseRepo struct {
	supabaseClient *supabase.Client
	url            string
	key            string
}

func SupabaseNewRepo(supabaseClient *supabase.Client, url, key string) *SupabaseRepo {
	return &SupabaseRepo{
		supabaseClient: supabaseClient,
		url:            url,
		key:            key,
	}
}

type MongodbRepo struct {
	mongodbClient *mongo.Client
	dbName        string
}

func MongodbNewRepo(mongodbClient *mongo.Client, dbName string) *MongodbRepo {
	return &MongodbRepo{
		mongodbClient: mongodbClient,
		dbName:        dbName,
	}
}

func (mdb *MongodbRepo) GetCollection(colName string) (*mongo.Collection, error) {
	if mdb.mongodbClient == nil {
		return nil, fmt.Errorf("mongodb client is not initialized")
	}
	return mdb.mongodbClient.Database(mdb.dbName).Collection(colName), nil
}

// notFound converts the driver's no-documents error into ErrNotFound.
func notFound(err error, what, id string) error {
	if errors.Is(err, mongo.ErrNoDocuments) {
		return fmt.Errorf("%s %s: %w", what, id, ErrNotFound)
	}
	return fmt.Errorf("failed to get %s %s: %v", what, id, err)
}

// ValidationMessage flattens validator errors into a single readable line.
func ValidationMessage(err error) string {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err.Error()
	}
	msg := ""
	for i, fe := range verrs {
		if i > 0 {
			msg += "; "
		}
		msg += fmt.Sprintf("%s failed on %s", fe.Field(), fe.Tag())
	}
	return msg
}

// ValidateStruct runs the struct tags and wraps failures in ErrInvalidInput.
func ValidateStruct(ctx context.Context, v any) error {
	if err := Validate.StructCtx(ctx, v); err != nil {
		return fmt.Errorf("%w: %s", ErrInvalidInput, ValidationMessage(err))
	}
	return nil
}
