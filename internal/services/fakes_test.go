package services

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/joshua-takyi/rolecerto/internal/models"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// memStore is an in-memory stand-in for the Mongo repositories.
type memStore struct {
	mu      sync.Mutex
	events  map[string]*models.Event
	users   map[string]*models.User
	picos   map[string]*models.Pico
	reviews []*models.Review
	calls   []string
	// failOn makes the named call return an error; the value is the key it fails on.
	failOn map[string]string
}

func newMemStore() *memStore {
	return &memStore{
		events: map[string]*models.Event{},
		users:  map[string]*models.User{},
		picos:  map[string]*models.Pico{},
		failOn: map[string]string{},
	}
}

var errInjected = errors.New("injected failure")

func (m *memStore) record(call, key string) error {
	m.calls = append(m.calls, call+":"+key)
	if k, ok := m.failOn[call]; ok && (k == "" || k == key) {
		return errInjected
	}
	return nil
}

func cloneEvent(e *models.Event) *models.Event {
	c := *e
	c.Participants = append([]string{}, e.Participants...)
	return &c
}

func (m *memStore) CreateEvent(ctx context.Context, event *models.Event) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.record("CreateEvent", event.ID); err != nil {
		return err
	}
	m.events[event.ID] = cloneEvent(event)
	return nil
}

func (m *memStore) GetEvent(ctx context.Context, id string) (*models.Event, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	e, ok := m.events[id]
	if !ok {
		return nil, fmt.Errorf("event %s: %w", id, models.ErrNotFound)
	}
	return cloneEvent(e), nil
}

func (m *memStore) QueryEvents(ctx context.Context, q models.EventQuery) ([]*models.Event, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.record("QueryEvents", q.City); err != nil {
		return nil, err
	}

	var out []*models.Event
	for _, e := range m.events {
		if !e.Qualifies(q.Since) {
			continue
		}
		if q.City != "" && e.Location.City != q.City {
			continue
		}
		if q.After != nil && !q.After.After(e) {
			continue
		}
		out = append(out, cloneEvent(e))
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].EventDate.Equal(out[j].EventDate) {
			return out[i].ID < out[j].ID
		}
		return out[i].EventDate.Before(out[j].EventDate)
	})
	if q.Limit > 0 && len(out) > q.Limit {
		out = out[:q.Limit]
	}
	return out, nil
}

func (m *memStore) UpdateEvent(ctx context.Context, id string, fields map[string]interface{}) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	e, ok := m.events[id]
	if !ok {
		return models.ErrNotFound
	}
	for k, v := range fields {
		switch k {
		case "name":
			e.Name = v.(string)
		case "location.address":
			e.Location.Address = v.(string)
		case "location.city":
			e.Location.City = v.(string)
		case "location.state":
			e.Location.State = v.(string)
		case "coordinates":
			c := v.(models.Coordinates)
			e.Coordinates = &c
		case "event_date":
			e.EventDate = v.(time.Time)
		case "event_time":
			e.EventTime = v.(string)
		case "min_age":
			e.MinAge = v.(int)
		case "max_participants":
			e.MaxParticipants = v.(int)
		case "privacy":
			e.Privacy = v.(models.Privacy)
		case "details":
			e.Details = v.(string)
		case "whatsapp_link":
			e.WhatsappLink = v.(string)
		case "image_url":
			e.ImageURL = v.(string)
		case "is_recurring":
			e.IsRecurring = v.(bool)
		case "recurrence_type":
			e.RecurrenceType = v.(models.RecurrenceType)
		case "weekly_days":
			e.WeeklyDays = v.([]string)
		case "monthly_days":
			e.MonthlyDays = v.([]int)
		default:
			return fmt.Errorf("unknown event field %q", k)
		}
	}
	return nil
}

func (m *memStore) DeleteEvent(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.record("DeleteEvent", id); err != nil {
		return err
	}
	if _, ok := m.events[id]; !ok {
		return models.ErrNotFound
	}
	delete(m.events, id)
	return nil
}

func addUnique(list []string, v string) []string {
	for _, s := range list {
		if s == v {
			return list
		}
	}
	return append(list, v)
}

func removeValue(list []string, v string) []string {
	out := []string{}
	for _, s := range list {
		if s != v {
			out = append(out, s)
		}
	}
	return out
}

func (m *memStore) AddParticipant(ctx context.Context, eventID, userID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.record("AddParticipant", userID); err != nil {
		return err
	}
	e, ok := m.events[eventID]
	if !ok {
		return models.ErrNotFound
	}
	e.Participants = addUnique(e.Participants, userID)
	return nil
}

func (m *memStore) RemoveParticipant(ctx context.Context, eventID, userID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	e, ok := m.events[eventID]
	if !ok {
		return models.ErrNotFound
	}
	e.Participants = removeValue(e.Participants, userID)
	return nil
}

func (m *memStore) ListEventsByCreator(ctx context.Context, userID string) ([]*models.Event, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*models.Event
	for _, e := range m.events {
		if e.CreatorID == userID {
			out = append(out, cloneEvent(e))
		}
	}
	return out, nil
}

func (m *memStore) ListEventsByParticipant(ctx context.Context, userID string) ([]*models.Event, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*models.Event
	for _, e := range m.events {
		if e.IsParticipant(userID) {
			out = append(out, cloneEvent(e))
		}
	}
	return out, nil
}

func (m *memStore) CreateUser(ctx context.Context, user *models.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.record("CreateUser", user.ID); err != nil {
		return err
	}
	if _, ok := m.users[user.ID]; !ok {
		u := *user
		m.users[user.ID] = &u
	}
	return nil
}

func (m *memStore) GetUser(ctx context.Context, id string) (*models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[id]
	if !ok {
		return nil, fmt.Errorf("user %s: %w", id, models.ErrNotFound)
	}
	c := *u
	return &c, nil
}

func (m *memStore) UpdateUser(ctx context.Context, id string, fields map[string]interface{}) (*models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[id]
	if !ok {
		return nil, models.ErrNotFound
	}
	for k, v := range fields {
		switch k {
		case "display_name":
			u.DisplayName = v.(string)
		case "bio":
			u.Bio = v.(string)
		case "location.city":
			u.Location.City = v.(string)
		case "location.state":
			u.Location.State = v.(string)
		case "photo_url":
			u.PhotoURL = v.(string)
		}
	}
	c := *u
	return &c, nil
}

func (m *memStore) userList(userID, call, eventID string, update func(*models.User)) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.record(call, userID); err != nil {
		return err
	}
	u, ok := m.users[userID]
	if !ok {
		return models.ErrNotFound
	}
	update(u)
	return nil
}

func (m *memStore) AddCreatedEvent(ctx context.Context, userID, eventID string) error {
	return m.userList(userID, "AddCreatedEvent", eventID, func(u *models.User) {
		u.CreatedEvents = addUnique(u.CreatedEvents, eventID)
	})
}

func (m *memStore) RemoveCreatedEvent(ctx context.Context, userID, eventID string) error {
	return m.userList(userID, "RemoveCreatedEvent", eventID, func(u *models.User) {
		u.CreatedEvents = removeValue(u.CreatedEvents, eventID)
	})
}

func (m *memStore) AddAttendingEvent(ctx context.Context, userID, eventID string) error {
	return m.userList(userID, "AddAttendingEvent", eventID, func(u *models.User) {
		u.AttendingEvents = addUnique(u.AttendingEvents, eventID)
	})
}

func (m *memStore) RemoveAttendingEvent(ctx context.Context, userID, eventID string) error {
	return m.userList(userID, "RemoveAttendingEvent", eventID, func(u *models.User) {
		u.AttendingEvents = removeValue(u.AttendingEvents, eventID)
	})
}

func (m *memStore) CreatePico(ctx context.Context, pico *models.Pico) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	p := *pico
	m.picos[pico.ID] = &p
	return nil
}

func (m *memStore) GetPico(ctx context.Context, id string) (*models.Pico, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.picos[id]
	if !ok {
		return nil, fmt.Errorf("pico %s: %w", id, models.ErrNotFound)
	}
	c := *p
	return &c, nil
}

func (m *memStore) ListPicos(ctx context.Context) ([]*models.Pico, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*models.Pico
	for _, p := range m.picos {
		c := *p
		out = append(out, &c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (m *memStore) UpdatePico(ctx context.Context, id string, fields map[string]interface{}) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.picos[id]
	if !ok {
		return models.ErrNotFound
	}
	if v, ok := fields["name"].(string); ok {
		p.Name = v
	}
	return nil
}

func (m *memStore) DeletePico(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.record("DeletePico", id); err != nil {
		return err
	}
	delete(m.picos, id)
	return nil
}

func (m *memStore) SetRating(ctx context.Context, id string, average float64, count int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.picos[id]
	if !ok {
		return models.ErrNotFound
	}
	p.AverageRating = average
	p.RatingCount = count
	return nil
}

func (m *memStore) CreateReview(ctx context.Context, review *models.Review) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	r := *review
	m.reviews = append(m.reviews, &r)
	return nil
}

func (m *memStore) ListReviews(ctx context.Context, picoID string) ([]*models.Review, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*models.Review
	for i := len(m.reviews) - 1; i >= 0; i-- {
		if m.reviews[i].PicoID == picoID {
			out = append(out, m.reviews[i])
		}
	}
	return out, nil
}

func (m *memStore) FindUserReview(ctx context.Context, picoID, userID string) (*models.Review, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, r := range m.reviews {
		if r.PicoID == picoID && r.UserID == userID {
			return r, nil
		}
	}
	return nil, models.ErrNotFound
}

func (m *memStore) DeleteReviews(ctx context.Context, picoID string) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.record("DeleteReviews", picoID); err != nil {
		return 0, err
	}
	kept := m.reviews[:0]
	var n int64
	for _, r := range m.reviews {
		if r.PicoID == picoID {
			n++
			continue
		}
		kept = append(kept, r)
	}
	m.reviews = kept
	return n, nil
}

// fakeAuth is a scripted identity provider.
type fakeAuth struct {
	session *models.AuthSession
	err     error
}

func (f *fakeAuth) SignUp(ctx context.Context, email, password, displayName string) (*models.AuthSession, error) {
	return f.session, f.err
}

func (f *fakeAuth) SignIn(ctx context.Context, email, password string) (*models.AuthSession, error) {
	return f.session, f.err
}

func (f *fakeAuth) RefreshToken(ctx context.Context, refreshToken string) (*models.AuthSession, error) {
	return f.session, f.err
}

func (f *fakeAuth) SendPasswordReset(ctx context.Context, email string) error {
	return f.err
}

func (f *fakeAuth) OAuthURL(provider, redirectTo string) (string, error) {
	return "https://auth.example.com/authorize?provider=" + provider, nil
}
