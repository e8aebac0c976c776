package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/joshua-takyi/rolecerto/internal/helpers"
	"github.com/joshua-takyi/rolecerto/internal/models"
)

// profileAttempts bounds the profile write that follows a sign-in.
const profileAttempts = 3

type UserService struct {
	authRepo   models.AuthRepo
	usersRepo  models.UsersRepo
	eventsRepo models.EventsRepo
	logger     *slog.Logger
	backoff    time.Duration
	sleep      func(ctx context.Context, d time.Duration) error
}

func NewUserService(authRepo models.AuthRepo, usersRepo models.UsersRepo, eventsRepo models.EventsRepo, logger *slog.Logger) *UserService {
	return &UserService{
		authRepo:   authRepo,
		usersRepo:  usersRepo,
		eventsRepo: eventsRepo,
		logger:     logger,
		backoff:    200 * time.Millisecond,
		sleep:      sleepContext,
	}
}

func sleepContext(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

func (us *UserService) SignUp(ctx context.Context, email, password, displayName string) (*models.AuthSession, error) {
	if err := models.Validate.Var(email, "required,email"); err != nil {
		return nil, &models.AuthError{Code: models.AuthInvalidEmail, Err: err}
	}
	if !helpers.IsPasswordStrong(password) {
		return nil, &models.AuthError{Code: models.AuthWeakPassword}
	}
	displayName = strings.TrimSpace(displayName)
	if displayName == "" {
		return nil, fmt.Errorf("%w: display name is required", models.ErrInvalidInput)
	}

	session, err := us.authRepo.SignUp(ctx, email, password, displayName)
	if err != nil {
		return nil, err
	}

	us.EnsureProfile(ctx, session)
	return session, nil
}

func (us *UserService) SignIn(ctx context.Context, email, password string) (*models.AuthSession, error) {
	if err := models.Validate.Var(email, "required,email"); err != nil {
		return nil, &models.AuthError{Code: models.AuthInvalidEmail, Err: err}
	}
	if password == "" {
		return nil, &models.AuthError{Code: models.AuthWrongPassword}
	}

	session, err := us.authRepo.SignIn(ctx, email, password)
	if err != nil {
		return nil, err
	}

	us.EnsureProfile(ctx, session)
	return session, nil
}

// EnsureProfile writes the profile document for a fresh session, retrying with
// exponential backoff. Failure is logged and never fails the sign-in.
func (us *UserService) EnsureProfile(ctx context.Context, session *models.AuthSession) bool {
	user := models.NewUser(session.UserID, session.Email, session.DisplayName, session.PhotoURL)
	delay := us.backoff

	for attempt := 1; attempt <= profileAttempts; attempt++ {
		err := us.usersRepo.CreateUser(ctx, user)
		if err == nil {
			return true
		}
		us.logger.Warn("Profile write failed",
			"user_id", session.UserID,
			"attempt", attempt,
			"error", err,
		)
		if attempt == profileAttempts {
			break
		}
		if err := us.sleep(ctx, delay); err != nil {
			break
		}
		delay *= 2
	}

	us.logger.Error("Proceeding without profile document", "user_id", session.UserID)
	return false
}

func (us *UserService) GoogleAuthURL(redirectTo string) (string, error) {
	return us.authRepo.OAuthURL("google", redirectTo)
}

func (us *UserService) RefreshToken(ctx context.Context, refreshToken string) (*models.AuthSession, error) {
	if refreshToken == "" {
		return nil, fmt.Errorf("refresh token is required")
	}
	session, err := us.authRepo.RefreshToken(ctx, refreshToken)
	if err != nil {
		return nil, fmt.Errorf("token refresh failed: %w", err)
	}
	return session, nil
}

func (us *UserService) ResetPassword(ctx context.Context, email string) error {
	if err := models.Validate.Var(email, "required,email"); err != nil {
		return &models.AuthError{Code: models.AuthInvalidEmail, Err: err}
	}
	return us.authRepo.SendPasswordReset(ctx, email)
}

func (us *UserService) GetUser(ctx context.Context, id string) (*models.User, error) {
	if strings.TrimSpace(id) == "" {
		return nil, fmt.Errorf("%w: user id is required", models.ErrInvalidInput)
	}
	return us.usersRepo.GetUser(ctx, id)
}

// ProfileUpdate carries the editable profile fields; nil means unchanged.
type ProfileUpdate struct {
	DisplayName *string `json:"display_name" validate:"omitempty,min=2,max=60"`
	Bio         *string `json:"bio" validate:"omitempty,max=500"`
	City        *string `json:"city" validate:"omitempty,max=100"`
	State       *string `json:"state" validate:"omitempty,max=100"`
	PhotoURL    *string `json:"photo_url" validate:"omitempty,url"`
}

func (p ProfileUpdate) fields() map[string]interface{} {
	fields := map[string]interface{}{}
	if p.DisplayName != nil {
		fields["display_name"] = strings.TrimSpace(*p.DisplayName)
	}
	if p.Bio != nil {
		fields["bio"] = strings.TrimSpace(*p.Bio)
	}
	if p.City != nil {
		fields["location.city"] = strings.TrimSpace(*p.City)
	}
	if p.State != nil {
		fields["location.state"] = strings.TrimSpace(*p.State)
	}
	if p.PhotoURL != nil {
		fields["photo_url"] = *p.PhotoURL
	}
	return fields
}

func (us *UserService) UpdateUser(ctx context.Context, id string, update ProfileUpdate) (*models.User, error) {
	if err := models.ValidateStruct(ctx, update); err != nil {
		return nil, err
	}
	fields := update.fields()
	if len(fields) == 0 {
		return nil, fmt.Errorf("%w: no fields to update", models.ErrInvalidInput)
	}

	user, err := us.usersRepo.UpdateUser(ctx, id, fields)
	if err != nil {
		return nil, fmt.Errorf("failed to update user: %w", err)
	}
	return user, nil
}

// UserEvents returns the events a user created and the ones they attend.
func (us *UserService) UserEvents(ctx context.Context, id string) (created, attending []*models.Event, err error) {
	created, err = us.eventsRepo.ListEventsByCreator(ctx, id)
	if err != nil {
		return nil, nil, err
	}
	attending, err = us.eventsRepo.ListEventsByParticipant(ctx, id)
	if err != nil {
		return nil, nil, err
	}
	return created, attending, nil
}

// AsAuthError exposes the typed provider error behind err, if any.
func AsAuthError(err error) (*models.AuthError, bool) {
	var ae *models.AuthError
	if errors.As(err, &ae) {
		return ae, true
	}
	return nil, false
}
