package models

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"github.com/supabase-community/gotrue-go/types"
)

func sessionFromToken(res *types.TokenResponse) *AuthSession {
	s := &AuthSession{
		AccessToken:  res.AccessToken,
		RefreshToken: res.RefreshToken,
		ExpiresIn:    res.ExpiresIn,
		UserID:       res.User.ID.String(),
		Email:        res.User.Email,
	}
	if name, ok := res.User.UserMetadata["display_name"].(string); ok {
		s.DisplayName = name
	} else if name, ok := res.User.UserMetadata["full_name"].(string); ok {
		s.DisplayName = name
	}
	if photo, ok := res.User.UserMetadata["avatar_url"].(string); ok {
		s.PhotoURL = photo
	}
	return s
}

func (su *SupabaseRepo) SignUp(ctx context.Context, email, password, displayName string) (*AuthSession, error) {
	res, err := su.supabaseClient.Auth.Signup(types.SignupRequest{
		Email:    email,
		Password: password,
		Data:     map[string]interface{}{"display_name": displayName},
	})
	if err != nil {
		return nil, ClassifyAuthError(err)
	}

	return &AuthSession{
		AccessToken:  res.AccessToken,
		RefreshToken: res.RefreshToken,
		ExpiresIn:    res.ExpiresIn,
		UserID:       res.User.ID.String(),
		Email:        res.User.Email,
		DisplayName:  displayName,
	}, nil
}

func (su *SupabaseRepo) SignIn(ctx context.Context, email, password string) (*AuthSession, error) {
	res, err := su.supabaseClient.Auth.SignInWithEmailPassword(email, password)
	if err != nil {
		return nil, ClassifyAuthError(err)
	}
	return sessionFromToken(res), nil
}

func (su *SupabaseRepo) RefreshToken(ctx context.Context, refreshToken string) (*AuthSession, error) {
	res, err := su.supabaseClient.Auth.RefreshToken(refreshToken)
	if err != nil {
		return nil, fmt.Errorf("failed to refresh token: %w", ClassifyAuthError(err))
	}
	return sessionFromToken(res), nil
}

func (su *SupabaseRepo) SendPasswordReset(ctx context.Context, email string) error {
	if err := su.supabaseClient.Auth.Recover(types.RecoverRequest{Email: email}); err != nil {
		return ClassifyAuthError(err)
	}
	return nil
}

// OAuthURL builds the provider authorize URL; the provider redirects back with the
// tokens in the URL fragment, which only the browser can read.
func (su *SupabaseRepo) OAuthURL(provider, redirectTo string) (string, error) {
	if su.url == "" {
		return "", fmt.Errorf("supabase url is not configured")
	}
	q := url.Values{}
	q.Set("provider", provider)
	if redirectTo != "" {
		q.Set("redirect_to", redirectTo)
	}
	return strings.TrimRight(su.url, "/") + "/auth/v1/authorize?" + q.Encode(), nil
}
