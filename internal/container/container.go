package container

import (
	"log/slog"

	"github.com/cloudinary/cloudinary-go/v2"
	"github.com/joshua-takyi/rolecerto/internal/config"
	"github.com/joshua-takyi/rolecerto/internal/geocode"
	"github.com/joshua-takyi/rolecerto/internal/helpers"
	"github.com/joshua-takyi/rolecerto/internal/models"
	"github.com/joshua-takyi/rolecerto/internal/notify"
	"github.com/joshua-takyi/rolecerto/internal/services"
	"github.com/nats-io/nats.go"
	"github.com/supabase-community/supabase-go"
	"go.mongodb.org/mongo-driver/mongo"
)

// Container holds all application dependencies
type Container struct {
	Config *config.Config
	Logger *slog.Logger
	// Database clients
	SupabaseClient *supabase.Client
	MongoDBClient  *mongo.Client
	Mongo          *models.MongodbRepo

	Toaster   *notify.Toaster
	Tracker   *notify.Tracker
	Bridge    *notify.Bridge
	Geocoder  *geocode.Client
	Validator *helpers.TokenValidator

	UserService  *services.UserService
	EventService *services.EventService
	FeedService  *services.FeedService
	PicoService  *services.PicoService
	MediaService *services.MediaService
}

// NewContainer creates a new dependency injection container. natsConn may be nil.
func NewContainer(
	cfg *config.Config,
	logger *slog.Logger,
	cld *cloudinary.Cloudinary,
	supabaseClient *supabase.Client,
	mongoDBClient *mongo.Client,
	natsConn *nats.Conn,
) (*Container, error) {
	// Initialize repositories
	supa := models.SupabaseNewRepo(supabaseClient, cfg.SupabaseURL, cfg.SupabaseAnonKey)
	mongoRepo := models.MongodbNewRepo(mongoDBClient, cfg.MongoDBDatabase)

	validator, err := helpers.NewTokenValidator(cfg.SupabaseURL, cfg.SupabaseJWTSecret, logger)
	if err != nil {
		return nil, err
	}
	geocoder, err := geocode.NewClient(cfg.GeocoderURL, cfg.GeocoderUserAgent, cfg.GeocoderCacheSize)
	if err != nil {
		return nil, err
	}

	toaster := notify.NewToaster(cfg.ToastDuration)
	var bridge *notify.Bridge
	if natsConn != nil {
		bridge = notify.NewBridge(natsConn, toaster, logger)
	}

	loc := cfg.Location()
	return &Container{
		Config:         cfg,
		Logger:         logger,
		SupabaseClient: supabaseClient,
		MongoDBClient:  mongoDBClient,
		Mongo:          mongoRepo,
		Toaster:        toaster,
		Tracker:        notify.NewTracker(),
		Bridge:         bridge,
		Geocoder:       geocoder,
		Validator:      validator,
		UserService:    services.NewUserService(supa, mongoRepo, mongoRepo, logger),
		EventService:   services.NewEventService(mongoRepo, mongoRepo, logger, loc),
		FeedService:    services.NewFeedService(mongoRepo, toaster, cfg.FeedPageSize, loc),
		PicoService:    services.NewPicoService(mongoRepo, mongoRepo, logger),
		MediaService:   services.NewMediaService(helpers.NewCloudinaryUploader(cld)),
	}, nil
}

// Close releases the background resources owned by the container.
func (c *Container) Close() {
	if c.Bridge != nil {
		c.Bridge.Stop()
	}
	c.Validator.Close()
	c.Toaster.Clear()
}
