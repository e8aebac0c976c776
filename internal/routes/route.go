package routes

import (
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/joshua-takyi/rolecerto/internal/container"
	"github.com/joshua-takyi/rolecerto/internal/handlers"
	"github.com/joshua-takyi/rolecerto/internal/middleware"
)

// SetupRoutes configures all routes with the dependency container
func SetupRoutes(container *container.Container) *gin.Engine {
	cfg := container.Config
	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}
	secure := cfg.IsProduction()
	toaster := container.Toaster

	r := gin.New()
	r.Use(cors.New(cors.Config{
		AllowOrigins:     cfg.CorsOrigins,
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS", "PATCH"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization", "X-Request-ID"},
		ExposeHeaders:    []string{"Content-Length", "X-Request-ID"},
		AllowCredentials: true,
	}))

	// Add middleware
	r.Use(middleware.RequestID())
	r.Use(middleware.StructuredLogger(container.Logger))
	r.Use(middleware.ErrorHandler(container.Logger))
	r.Use(gin.Recovery())
	r.Use(middleware.TrackLoading(container.Tracker))

	// API version 1
	v1 := r.Group("/api/v1")
	{
		// Health check
		v1.GET("/health", func(c *gin.Context) {
			c.JSON(200, gin.H{
				"status":  "OK",
				"service": "rolecerto-api",
			})
		})
		v1.GET("/status", handlers.Status(container.Tracker))

		// public routes
		auth := v1.Group("/auth")
		auth.POST("/signup", handlers.SignUp(container.UserService, secure))
		auth.POST("/login", handlers.SignIn(container.UserService, secure))
		auth.POST("/logout", handlers.Logout(secure))
		auth.POST("/refresh", handlers.RefreshSession(container.UserService, secure))
		auth.POST("/reset-password", handlers.ResetPassword(container.UserService))
		auth.GET("/google", handlers.GoogleAuth(container.UserService, cfg.FrontendURL))
		auth.GET("/google/callback", handlers.GoogleAuthCallback(cfg.FrontendURL))
		auth.POST("/oauth/session", handlers.OAuthSession(container.UserService, container.Validator, secure))

		v1.GET("/picos", handlers.ListPicos(container.PicoService, toaster))
		v1.GET("/picos/:id", handlers.GetPico(container.PicoService, toaster))
		v1.GET("/picos/:id/reviews", handlers.ListReviews(container.PicoService, toaster))
		v1.GET("/geocode/search", handlers.SearchAddress(container.Geocoder, toaster))
		v1.GET("/geocode/reverse", handlers.ReverseGeocode(container.Geocoder, toaster))
		v1.POST("/wizard/event", handlers.EventWizardStep())
		v1.POST("/wizard/pico", handlers.PicoWizardStep())
	}

	protected := v1.Group("/")
	protected.Use(middleware.AuthMiddleware(container.Validator, container.UserService, secure, container.Logger))

	protected.GET("/notices", handlers.ListNotices(toaster))
	protected.DELETE("/notices/:id", handlers.DismissNotice(toaster))
	protected.GET("/notices/stream", handlers.NoticeStream(toaster, cfg.CorsOrigins, container.Logger))

	userRoutes := protected.Group("/users")
	{
		userRoutes.GET("/me", handlers.GetProfile(container.UserService, toaster))
		userRoutes.PATCH("/me", handlers.UpdateProfile(container.UserService, toaster))
		userRoutes.POST("/me/avatar", handlers.UploadAvatar(container.UserService, container.MediaService, toaster))
		userRoutes.GET("/:id", handlers.GetUser(container.UserService, toaster))
		userRoutes.GET("/:id/events", handlers.UserEvents(container.UserService, container.EventService, toaster))
	}

	eventRoutes := protected.Group("/events")
	{
		eventRoutes.GET("", handlers.Feed(container.FeedService, container.EventService, toaster))
		eventRoutes.GET("/more", handlers.FeedMore(container.FeedService, container.EventService, toaster))
		eventRoutes.GET("/search", handlers.SearchEvents(container.FeedService, container.EventService, toaster))
		eventRoutes.POST("", handlers.CreateEvent(container.EventService, container.UserService, toaster))
		eventRoutes.GET("/:id", handlers.GetEvent(container.EventService, toaster))
		eventRoutes.GET("/:id/edit", handlers.EditEventWizard(container.EventService, toaster))
		eventRoutes.PATCH("/:id", handlers.UpdateEvent(container.EventService, toaster))
		eventRoutes.DELETE("/:id", handlers.DeleteEvent(container.EventService, toaster))
		eventRoutes.POST("/:id/join", handlers.JoinEvent(container.EventService, toaster))
		eventRoutes.POST("/:id/leave", handlers.LeaveEvent(container.EventService, toaster))
	}

	picoRoutes := protected.Group("/picos")
	{
		picoRoutes.POST("", handlers.CreatePico(container.PicoService, container.UserService, toaster))
		picoRoutes.GET("/:id/edit", handlers.EditPicoWizard(container.PicoService, toaster))
		picoRoutes.PATCH("/:id", handlers.UpdatePico(container.PicoService, toaster))
		picoRoutes.DELETE("/:id", handlers.DeletePico(container.PicoService, toaster))
		picoRoutes.GET("/:id/reviews/me", handlers.MyReview(container.PicoService, toaster))
		picoRoutes.POST("/:id/reviews", handlers.AddReview(container.PicoService, container.UserService, toaster))
	}

	uploadRoutes := protected.Group("/uploads")
	{
		uploadRoutes.POST("", handlers.UploadImage(container.MediaService, toaster))
		uploadRoutes.DELETE("", handlers.DeleteImage(container.MediaService, toaster))
	}

	return r
}
