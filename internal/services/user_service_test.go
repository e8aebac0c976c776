package services

import (
	"context"
	"errors"
	"reflect"
	"testing"
	"time"

	"github.com/joshua-takyi/rolecerto/internal/models"
)

// flakyUsers fails the first failures profile writes.
type flakyUsers struct {
	*memStore
	failures int
	attempts int
}

func (f *flakyUsers) CreateUser(ctx context.Context, user *models.User) error {
	f.attempts++
	if f.attempts <= f.failures {
		return errInjected
	}
	return f.memStore.CreateUser(ctx, user)
}

func newTestUserService(auth models.AuthRepo, users models.UsersRepo, events models.EventsRepo) (*UserService, *[]time.Duration) {
	us := NewUserService(auth, users, events, discardLogger())
	var slept []time.Duration
	us.sleep = func(ctx context.Context, d time.Duration) error {
		slept = append(slept, d)
		return nil
	}
	return us, &slept
}

func testSession() *models.AuthSession {
	return &models.AuthSession{
		AccessToken:  "access",
		RefreshToken: "refresh",
		ExpiresIn:    3600,
		UserID:       "u1",
		Email:        "u1@example.com",
		DisplayName:  "Ana",
	}
}

func TestEnsureProfileRetriesWithBackoff(t *testing.T) {
	users := &flakyUsers{memStore: newMemStore(), failures: 2}
	us, slept := newTestUserService(&fakeAuth{}, users, users)

	if !us.EnsureProfile(context.Background(), testSession()) {
		t.Fatal("expected the third attempt to succeed")
	}
	if users.attempts != 3 {
		t.Errorf("attempts = %d", users.attempts)
	}
	if want := []time.Duration{200 * time.Millisecond, 400 * time.Millisecond}; !reflect.DeepEqual(*slept, want) {
		t.Errorf("backoff = %v, want %v", *slept, want)
	}
	if _, ok := users.users["u1"]; !ok {
		t.Error("profile not written")
	}
}

func TestEnsureProfileGivesUpAfterThreeAttempts(t *testing.T) {
	users := &flakyUsers{memStore: newMemStore(), failures: 10}
	us, slept := newTestUserService(&fakeAuth{}, users, users)

	if us.EnsureProfile(context.Background(), testSession()) {
		t.Fatal("expected failure")
	}
	if users.attempts != 3 || len(*slept) != 2 {
		t.Errorf("attempts = %d, sleeps = %d", users.attempts, len(*slept))
	}
}

func TestSignInProceedsWithoutProfile(t *testing.T) {
	users := &flakyUsers{memStore: newMemStore(), failures: 10}
	us, _ := newTestUserService(&fakeAuth{session: testSession()}, users, users)

	session, err := us.SignIn(context.Background(), "u1@example.com", "secret1")
	if err != nil {
		t.Fatalf("SignIn: %v", err)
	}
	if session.UserID != "u1" {
		t.Errorf("session = %+v", session)
	}
}

func TestSignInMapsProviderErrors(t *testing.T) {
	users := newMemStore()
	provider := &models.AuthError{Code: models.AuthWrongPassword}
	us, _ := newTestUserService(&fakeAuth{err: provider}, users, users)

	_, err := us.SignIn(context.Background(), "u1@example.com", "wrong")
	ae, ok := AsAuthError(err)
	if !ok || ae.Code != models.AuthWrongPassword {
		t.Fatalf("expected wrong password auth error, got %v", err)
	}
	if len(users.calls) != 0 {
		t.Errorf("no profile write expected, got %v", users.calls)
	}
}

func TestSignUpValidation(t *testing.T) {
	users := newMemStore()
	us, _ := newTestUserService(&fakeAuth{session: testSession()}, users, users)
	ctx := context.Background()

	tests := []struct {
		email, password, name string
		code                  models.AuthErrorCode
	}{
		{"not-an-email", "secret1", "Ana", models.AuthInvalidEmail},
		{"ana@example.com", "short", "Ana", models.AuthWeakPassword},
		{"ana@example.com", "lettersonly", "Ana", models.AuthWeakPassword},
	}
	for _, tt := range tests {
		_, err := us.SignUp(ctx, tt.email, tt.password, tt.name)
		ae, ok := AsAuthError(err)
		if !ok || ae.Code != tt.code {
			t.Errorf("SignUp(%q, %q): got %v, want %s", tt.email, tt.password, err, tt.code)
		}
	}

	if _, err := us.SignUp(ctx, "ana@example.com", "secret1", "  "); !errors.Is(err, models.ErrInvalidInput) {
		t.Errorf("blank name: expected ErrInvalidInput, got %v", err)
	}

	if _, err := us.SignUp(ctx, "ana@example.com", "secret1", "Ana"); err != nil {
		t.Fatalf("SignUp: %v", err)
	}
	if _, ok := users.users["u1"]; !ok {
		t.Error("profile not created on sign-up")
	}
}

func TestUpdateUser(t *testing.T) {
	users := newMemStore()
	seedUsers(users, "u1")
	us, _ := newTestUserService(&fakeAuth{}, users, users)
	ctx := context.Background()

	if _, err := us.UpdateUser(ctx, "u1", ProfileUpdate{}); !errors.Is(err, models.ErrInvalidInput) {
		t.Fatalf("empty update: expected ErrInvalidInput, got %v", err)
	}

	city, bio := "  Santos ", "Surf e samba"
	user, err := us.UpdateUser(ctx, "u1", ProfileUpdate{City: &city, Bio: &bio})
	if err != nil {
		t.Fatalf("UpdateUser: %v", err)
	}
	if user.Location.City != "Santos" || user.Bio != bio {
		t.Errorf("user = %+v", user)
	}
}

func TestUserEvents(t *testing.T) {
	store := newMemStore()
	seedRosterEvent(store)
	us, _ := newTestUserService(&fakeAuth{}, store, store)

	created, attending, err := us.UserEvents(context.Background(), "p1")
	if err != nil {
		t.Fatal(err)
	}
	if len(created) != 0 || len(attending) != 1 || attending[0].ID != "e1" {
		t.Fatalf("created=%d attending=%v", len(created), attending)
	}

	created, _, _ = us.UserEvents(context.Background(), "creator")
	if len(created) != 1 {
		t.Fatalf("creator events = %d", len(created))
	}
}
