package middleware

import (
	"context"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/joshua-takyi/rolecerto/internal/helpers"
	"github.com/joshua-takyi/rolecerto/internal/models"
	"github.com/joshua-takyi/rolecerto/internal/notify"
)

// AuthRoute is where unauthenticated callers are sent.
const AuthRoute = "/auth"

// RequestID middleware adds a unique request ID to each request
func RequestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		requestID := c.GetHeader("X-Request-ID")
		if requestID == "" {
			requestID = uuid.New().String()
		}
		c.Set("request_id", requestID)
		c.Header("X-Request-ID", requestID)
		c.Next()
	}
}

// StructuredLogger provides structured logging middleware
func StructuredLogger(logger *slog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path
		raw := c.Request.URL.RawQuery

		c.Next()

		if raw != "" {
			path = path + "?" + raw
		}
		requestID, _ := c.Get("request_id")

		attrs := []any{
			"request_id", requestID,
			"method", c.Request.Method,
			"path", path,
			"status", c.Writer.Status(),
			"latency", time.Since(start),
			"client_ip", c.ClientIP(),
		}
		if user, ok := helpers.CurrentUser(c); ok {
			attrs = append(attrs, "user_id", user.UserID)
		}
		logger.Info("HTTP Request", attrs...)
	}
}

// ErrorHandler provides centralized error handling
func ErrorHandler(logger *slog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if len(c.Errors) > 0 {
			err := c.Errors.Last()
			requestID, _ := c.Get("request_id")

			logger.Error("Request error",
				"request_id", requestID,
				"error", err.Error(),
				"method", c.Request.Method,
				"path", c.Request.URL.Path,
			)

			if c.Writer.Written() {
				return
			}
			// Don't return error details in production
			c.JSON(http.StatusInternalServerError, gin.H{
				"success":    false,
				"error":      "Internal server error",
				"request_id": requestID,
			})
		}
	}
}

// TrackLoading marks the matched route as busy while the request runs.
func TrackLoading(tracker *notify.Tracker) gin.HandlerFunc {
	return func(c *gin.Context) {
		key := c.FullPath()
		if key == "" {
			c.Next()
			return
		}
		done := tracker.Track(c.Request.Method + " " + key)
		defer done()
		c.Next()
	}
}

// Refresher exchanges a refresh token for a new session.
type Refresher interface {
	RefreshToken(ctx context.Context, refreshToken string) (*models.AuthSession, error)
}

func bearerToken(c *gin.Context) string {
	if token, err := c.Cookie("access_token"); err == nil && token != "" {
		return token
	}
	header := c.GetHeader("Authorization")
	if strings.HasPrefix(header, "Bearer ") {
		return strings.TrimSpace(strings.TrimPrefix(header, "Bearer "))
	}
	return ""
}

func unauthorized(c *gin.Context, reason string) {
	c.AbortWithStatusJSON(http.StatusUnauthorized, helpers.RedirectResponse(reason, AuthRoute))
}

// AuthMiddleware is the route guard: requests without a valid session are refused
// with a redirect to the sign-in page. An expired access token is refreshed once.
func AuthMiddleware(verifier helpers.TokenVerifier, refresher Refresher, secureCookies bool, logger *slog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := bearerToken(c)

		var claims *helpers.CustomClaims
		var err error
		if token != "" {
			claims, err = verifier.Verify(token)
		}

		if token == "" || err != nil {
			refreshToken, refreshErr := c.Cookie("refresh_token")
			if refreshErr != nil || refreshToken == "" {
				unauthorized(c, "Sessão expirada. Faça login novamente.")
				return
			}

			session, refreshErr := refresher.RefreshToken(c.Request.Context(), refreshToken)
			if refreshErr != nil {
				logger.Warn("Token refresh failed", "error", refreshErr)
				helpers.ClearSessionCookies(c, secureCookies)
				unauthorized(c, "Sessão expirada. Faça login novamente.")
				return
			}

			helpers.SetSessionCookies(c, session, helpers.Remembered(c), secureCookies)
			logger.Info("Token refreshed successfully",
				"user_id", session.UserID,
				"expires_in", session.ExpiresIn,
			)

			claims, err = verifier.Verify(session.AccessToken)
			if err != nil {
				unauthorized(c, "Sessão inválida.")
				return
			}
		}

		c.Set(helpers.UserContextKey, helpers.NewUserClaims(claims))
		c.Next()
	}
}
