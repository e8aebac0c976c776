package helpers

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/MicahParks/keyfunc/v2"
	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
)

// UserContextKey is where the guard stores the caller's claims.
const UserContextKey = "user"

type CustomClaims struct {
	Role        string `json:"role"`
	Email       string `json:"email"`
	AppMetadata struct {
		Provider  string   `json:"provider"`
		Providers []string `json:"providers"`
	} `json:"app_metadata"`
	UserMetadata map[string]interface{} `json:"user_metadata"`
	jwt.RegisteredClaims
}

// UserClaims is the authenticated caller as seen by handlers.
type UserClaims struct {
	*CustomClaims
	UserID      string `json:"id"`
	Email       string `json:"email,omitempty"`
	DisplayName string `json:"display_name,omitempty"`
	PhotoURL    string `json:"photo_url,omitempty"`
}

func NewUserClaims(claims *CustomClaims) *UserClaims {
	uc := &UserClaims{
		CustomClaims: claims,
		UserID:       claims.Subject,
		Email:        claims.Email,
	}
	for _, key := range []string{"display_name", "full_name", "name"} {
		if v, ok := claims.UserMetadata[key].(string); ok && v != "" {
			uc.DisplayName = v
			break
		}
	}
	if v, ok := claims.UserMetadata["avatar_url"].(string); ok {
		uc.PhotoURL = v
	}
	return uc
}

func (uc *UserClaims) IsOwner(userID string) bool {
	return uc.UserID == userID
}

// CurrentUser returns the claims stored by the guard.
func CurrentUser(c *gin.Context) (*UserClaims, bool) {
	v, exists := c.Get(UserContextKey)
	if !exists {
		return nil, false
	}
	uc, ok := v.(*UserClaims)
	return uc, ok && uc != nil
}

// TokenVerifier checks access tokens.
type TokenVerifier interface {
	Verify(token string) (*CustomClaims, error)
}

// TokenValidator verifies Supabase access tokens against the project JWKS, with
// the project JWT secret for HMAC signed tokens.
type TokenValidator struct {
	jwks   *keyfunc.JWKS
	secret []byte
}

func NewTokenValidator(supabaseURL, jwtSecret string, logger *slog.Logger) (*TokenValidator, error) {
	v := &TokenValidator{}
	if jwtSecret != "" {
		v.secret = []byte(jwtSecret)
	}

	jwksURL := strings.TrimRight(supabaseURL, "/") + "/auth/v1/.well-known/jwks.json"
	jwks, err := keyfunc.Get(jwksURL, keyfunc.Options{
		Ctx:               context.Background(),
		RefreshInterval:   time.Hour,
		RefreshRateLimit:  5 * time.Minute,
		RefreshTimeout:    10 * time.Second,
		RefreshUnknownKID: true,
		RefreshErrorHandler: func(err error) {
			logger.Warn("JWKS refresh failed", "error", err)
		},
	})
	if err != nil {
		if v.secret == nil {
			return nil, fmt.Errorf("failed to load JWKS from %s: %v", jwksURL, err)
		}
		logger.Warn("JWKS unavailable, verifying with JWT secret only", "error", err)
		return v, nil
	}
	v.jwks = jwks
	return v, nil
}

// NewSecretValidator verifies HMAC signed tokens only.
func NewSecretValidator(secret string) *TokenValidator {
	return &TokenValidator{secret: []byte(secret)}
}

func (v *TokenValidator) keyFor(token *jwt.Token) (interface{}, error) {
	if _, ok := token.Method.(*jwt.SigningMethodHMAC); ok {
		if v.secret == nil {
			return nil, errors.New("HMAC tokens are not accepted")
		}
		return v.secret, nil
	}
	if v.jwks == nil {
		return nil, fmt.Errorf("no key for signing method %s", token.Method.Alg())
	}
	return v.jwks.Keyfunc(token)
}

func (v *TokenValidator) Verify(tokenStr string) (*CustomClaims, error) {
	token, err := jwt.ParseWithClaims(tokenStr, &CustomClaims{}, v.keyFor)
	if err != nil {
		return nil, fmt.Errorf("token validation failed: %w", err)
	}

	claims, ok := token.Claims.(*CustomClaims)
	if !ok || !token.Valid {
		return nil, errors.New("invalid or expired token")
	}
	if claims.Subject == "" {
		return nil, errors.New("token has no subject")
	}
	return claims, nil
}

func (v *TokenValidator) Close() {
	if v.jwks != nil {
		v.jwks.EndBackground()
	}
}
