package models

import (
	"context"
	"errors"
	"strings"
)

type AuthErrorCode string

const (
	AuthUserNotFound        AuthErrorCode = "user-not-found"
	AuthWrongPassword       AuthErrorCode = "wrong-password"
	AuthInvalidEmail        AuthErrorCode = "invalid-email"
	AuthUserDisabled        AuthErrorCode = "user-disabled"
	AuthTooManyRequests     AuthErrorCode = "too-many-requests"
	AuthEmailInUse          AuthErrorCode = "email-already-in-use"
	AuthWeakPassword        AuthErrorCode = "weak-password"
	AuthOperationNotAllowed AuthErrorCode = "operation-not-allowed"
	AuthUnknown             AuthErrorCode = "unknown"
)

var authMessages = map[AuthErrorCode]string{
	AuthUserNotFound:        "Usuário não encontrado.",
	AuthWrongPassword:       "Senha incorreta.",
	AuthInvalidEmail:        "Email inválido.",
	AuthUserDisabled:        "Conta desabilitada.",
	AuthTooManyRequests:     "Muitas tentativas. Tente novamente mais tarde.",
	AuthEmailInUse:          "Este email já está em uso.",
	AuthWeakPassword:        "A senha é muito fraca.",
	AuthOperationNotAllowed: "Operação não permitida.",
	AuthUnknown:             "Erro desconhecido. Tente novamente.",
}

// AuthError is an identity-provider failure reduced to a stable code.
type AuthError struct {
	Code AuthErrorCode
	Err  error
}

func (e *AuthError) Error() string {
	if e.Err == nil {
		return string(e.Code)
	}
	return string(e.Code) + ": " + e.Err.Error()
}

func (e *AuthError) Unwrap() error { return e.Err }

// Message is the localized text shown to the user.
func (e *AuthError) Message() string {
	if msg, ok := authMessages[e.Code]; ok {
		return msg
	}
	return authMessages[AuthUnknown]
}

// order matters: more specific markers come first
var authErrorMarkers = []struct {
	code    AuthErrorCode
	markers []string
}{
	{AuthEmailInUse, []string{"already registered", "user_already_exists", "email_exists", "email already in use"}},
	{AuthWeakPassword, []string{"weak_password", "password should be", "password is too weak"}},
	{AuthTooManyRequests, []string{"rate limit", "over_request_rate_limit", "over_email_send_rate_limit", "too many requests", "status code 429"}},
	{AuthOperationNotAllowed, []string{"signup_disabled", "signups not allowed", "provider is not enabled", "provider_disabled", "email_provider_disabled"}},
	{AuthUserDisabled, []string{"banned", "user_banned", "disabled"}},
	{AuthInvalidEmail, []string{"email_address_invalid", "unable to validate email", "invalid email", "invalid format"}},
	{AuthUserNotFound, []string{"user_not_found", "user not found"}},
	{AuthWrongPassword, []string{"invalid_credentials", "invalid login credentials", "invalid_grant"}},
}

// ClassifyAuthError maps a raw provider error onto an AuthError. Already classified
// errors are returned unchanged.
func ClassifyAuthError(err error) *AuthError {
	if err == nil {
		return nil
	}
	var ae *AuthError
	if errors.As(err, &ae) {
		return ae
	}
	msg := strings.ToLower(err.Error())
	for _, entry := range authErrorMarkers {
		for _, m := range entry.markers {
			if strings.Contains(msg, m) {
				return &AuthError{Code: entry.code, Err: err}
			}
		}
	}
	return &AuthError{Code: AuthUnknown, Err: err}
}

type AuthSession struct {
	AccessToken  string `json:"-"`
	RefreshToken string `json:"-"`
	ExpiresIn    int    `json:"expires_in"`
	UserID       string `json:"user_id"`
	Email        string `json:"email"`
	DisplayName  string `json:"display_name,omitempty"`
	PhotoURL     string `json:"photo_url,omitempty"`
}

type AuthRepo interface {
	SignUp(ctx context.Context, email, password, displayName string) (*AuthSession, error)
	SignIn(ctx context.Context, email, password string) (*AuthSession, error)
	RefreshToken(ctx context.Context, refreshToken string) (*AuthSession, error)
	SendPasswordReset(ctx context.Context, email string) error
	OAuthURL(provider, redirectTo string) (string, error)
}
