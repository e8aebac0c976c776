package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/joshua-takyi/rolecerto/internal/models"
	"github.com/joshua-takyi/rolecerto/internal/wizard"
)

// Join refusals, checked before the roster write.
var (
	ErrEventFull      = errors.New("event is full")
	ErrEventPast      = errors.New("event already happened")
	ErrAlreadyJoined  = errors.New("already participating")
	ErrNotParticipant = errors.New("not participating")
)

type EventService struct {
	eventsRepo models.EventsRepo
	usersRepo  models.UsersRepo
	logger     *slog.Logger
	loc        *time.Location
	now        func() time.Time
}

func NewEventService(eventsRepo models.EventsRepo, usersRepo models.UsersRepo, logger *slog.Logger, loc *time.Location) *EventService {
	return &EventService{
		eventsRepo: eventsRepo,
		usersRepo:  usersRepo,
		logger:     logger,
		loc:        loc,
		now:        time.Now,
	}
}

func (es *EventService) Now() time.Time {
	return es.now().In(es.loc)
}

func (es *EventService) Location() *time.Location {
	return es.loc
}

// CreateEvent stamps identity and an empty roster, stores the event, then records it
// in the creator's list. The second write is not rolled back into the first.
func (es *EventService) CreateEvent(ctx context.Context, event *models.Event, creator *models.User) (*models.Event, error) {
	if event.MaxParticipants < 1 {
		return nil, fmt.Errorf("%w: max participants must be at least 1", models.ErrInvalidInput)
	}

	now := time.Now()
	event.ID = uuid.New().String()
	event.CreatorID = creator.ID
	event.CreatorName = creator.DisplayName
	event.CreatorPhotoURL = creator.PhotoURL
	event.Participants = []string{}
	event.CreatedAt = now
	event.UpdatedAt = now

	if err := es.eventsRepo.CreateEvent(ctx, event); err != nil {
		return nil, err
	}

	if err := es.usersRepo.AddCreatedEvent(ctx, creator.ID, event.ID); err != nil {
		es.logger.Error("Event created but creator list not updated",
			"event_id", event.ID,
			"user_id", creator.ID,
			"error", err,
		)
		return event, fmt.Errorf("failed to link event to creator: %w", err)
	}
	return event, nil
}

func (es *EventService) GetEvent(ctx context.Context, id string) (*models.Event, error) {
	if strings.TrimSpace(id) == "" {
		return nil, fmt.Errorf("%w: event id is required", models.ErrInvalidInput)
	}
	return es.eventsRepo.GetEvent(ctx, id)
}

// EventUpdate is a partial event edit; nil fields are left untouched.
type EventUpdate struct {
	Name            *string             `json:"name" validate:"omitempty,min=3,max=100"`
	Address         *string             `json:"address"`
	City            *string             `json:"city"`
	State           *string             `json:"state"`
	Coordinates     *models.Coordinates `json:"coordinates"`
	Date            *string             `json:"event_date" validate:"omitempty,datetime=2006-01-02"`
	Time            *string             `json:"event_time" validate:"omitempty,datetime=15:04"`
	MinAge          *int                `json:"min_age" validate:"omitempty,min=0,max=99"`
	MaxParticipants *int                `json:"max_participants" validate:"omitempty,min=1"`
	Privacy         *models.Privacy     `json:"privacy" validate:"omitempty,oneof=aberta fechada"`
	Details         *string             `json:"details"`
	WhatsappLink    *string             `json:"whatsapp_link"`
	ImageURL        *string             `json:"image_url" validate:"omitempty,url"`
	Recurrence      *models.Recurrence  `json:"recurrence"`
}

// Fields maps the update onto document fields. The combined event date is only
// recomputed when both a date and a time are supplied.
func (u EventUpdate) Fields(loc *time.Location) (map[string]interface{}, error) {
	fields := map[string]interface{}{}
	setString := func(key string, v *string) {
		if v != nil {
			fields[key] = strings.TrimSpace(*v)
		}
	}
	setString("name", u.Name)
	setString("location.address", u.Address)
	setString("location.city", u.City)
	setString("location.state", u.State)
	setString("details", u.Details)
	setString("whatsapp_link", u.WhatsappLink)
	setString("image_url", u.ImageURL)
	setString("event_time", u.Time)

	if u.Coordinates != nil {
		fields["coordinates"] = *u.Coordinates
	}
	if u.MinAge != nil {
		fields["min_age"] = *u.MinAge
	}
	if u.MaxParticipants != nil {
		fields["max_participants"] = *u.MaxParticipants
	}
	if u.Privacy != nil {
		fields["privacy"] = *u.Privacy
	}
	if u.Recurrence != nil {
		r := *u.Recurrence
		if !r.IsRecurring {
			r = models.Recurrence{}
		}
		fields["is_recurring"] = r.IsRecurring
		fields["recurrence_type"] = r.RecurrenceType
		fields["weekly_days"] = r.WeeklyDays
		fields["monthly_days"] = r.MonthlyDays
	}
	if u.Date != nil && u.Time != nil {
		d, err := models.CombineDateTime(*u.Date, *u.Time, loc)
		if err != nil {
			return nil, err
		}
		fields["event_date"] = d
	}
	return fields, nil
}

// applyTo merges the update into the edit form of the stored event.
func (u EventUpdate) applyTo(w *wizard.EventWizard, wasRecurring bool) {
	d := &w.Draft
	set := func(dst *string, v *string) {
		if v != nil {
			*dst = *v
		}
	}
	set(&d.Name, u.Name)
	set(&d.Address, u.Address)
	set(&d.City, u.City)
	set(&d.State, u.State)
	set(&d.Date, u.Date)
	set(&d.Time, u.Time)
	set(&d.Details, u.Details)
	set(&d.WhatsappLink, u.WhatsappLink)
	set(&d.ImageURL, u.ImageURL)

	if u.Coordinates != nil {
		w.SetCoordinates(*u.Coordinates)
	}
	if u.MinAge != nil {
		d.MinAge = *u.MinAge
	}
	if u.MaxParticipants != nil {
		d.MaxParticipants = *u.MaxParticipants
	}
	if u.Privacy != nil {
		d.Privacy = *u.Privacy
	}

	if u.Recurrence == nil {
		return
	}
	w.SetRecurring(u.Recurrence.IsRecurring)
	if u.Recurrence.IsRecurring {
		d.WeeklyDays = u.Recurrence.WeeklyDays
		d.MonthlyDays = joinDays(u.Recurrence.MonthlyDays)
		w.SetRecurrenceType(u.Recurrence.RecurrenceType)
		return
	}
	// The anchor date of a recurring event is not a real date: a one-off event
	// needs both date and time again.
	if wasRecurring && u.Time == nil {
		d.Time = ""
	}
}

func joinDays(days []int) string {
	parts := make([]string, len(days))
	for i, day := range days {
		parts[i] = strconv.Itoa(day)
	}
	return strings.Join(parts, ",")
}

// UpdateEvent applies a partial edit. Only the creator may edit. The edited event
// must pass the same form rules as a new one.
func (es *EventService) UpdateEvent(ctx context.Context, id, userID string, update EventUpdate) (*models.Event, error) {
	if err := models.ValidateStruct(ctx, update); err != nil {
		return nil, err
	}

	event, err := es.eventsRepo.GetEvent(ctx, id)
	if err != nil {
		return nil, err
	}
	if event.CreatorID != userID {
		return nil, fmt.Errorf("only the creator can edit event %s: %w", id, models.ErrForbidden)
	}

	w := wizard.EditEventWizard(event, es.loc)
	update.applyTo(w, event.IsRecurring)
	if !w.Submit() {
		if err := w.Err(); err != nil {
			return nil, err
		}
		return nil, fmt.Errorf("%w: event location is required", models.ErrInvalidInput)
	}
	if update.Recurrence != nil {
		recurrence, err := w.Draft.Recurrence()
		if err != nil {
			return nil, err
		}
		update.Recurrence = &recurrence
	}

	fields, err := update.Fields(es.loc)
	if err != nil {
		return nil, err
	}
	if len(fields) == 0 {
		return event, nil
	}
	if capacity, ok := fields["max_participants"].(int); ok && capacity < len(event.Participants) {
		return nil, fmt.Errorf("%w: capacity below current participant count", models.ErrInvalidInput)
	}

	if err := es.eventsRepo.UpdateEvent(ctx, id, fields); err != nil {
		return nil, err
	}
	return es.eventsRepo.GetEvent(ctx, id)
}

// DeleteEvent removes the event from the creator's list, from every participant's
// list, then deletes the document. A failure midway stops the sequence and leaves
// the remaining references in place.
func (es *EventService) DeleteEvent(ctx context.Context, id, userID string) error {
	event, err := es.eventsRepo.GetEvent(ctx, id)
	if err != nil {
		return err
	}
	if event.CreatorID != userID {
		return fmt.Errorf("only the creator can delete event %s: %w", id, models.ErrForbidden)
	}

	if err := es.usersRepo.RemoveCreatedEvent(ctx, event.CreatorID, id); err != nil {
		es.logger.Error("Failed to unlink event from creator", "event_id", id, "user_id", event.CreatorID, "error", err)
		return err
	}

	for i, participant := range event.Participants {
		if err := es.usersRepo.RemoveAttendingEvent(ctx, participant, id); err != nil {
			es.logger.Error("Failed to unlink event from participant",
				"event_id", id,
				"user_id", participant,
				"dangling", event.Participants[i:],
				"error", err,
			)
			return err
		}
	}

	return es.eventsRepo.DeleteEvent(ctx, id)
}

// CanJoin is the gate applied before JoinEvent.
func CanJoin(event *models.Event, userID string, now time.Time) error {
	switch {
	case event.IsParticipant(userID):
		return ErrAlreadyJoined
	case event.IsPast(now):
		return ErrEventPast
	case event.IsFull():
		return ErrEventFull
	}
	return nil
}

// CanLeave is the gate applied before LeaveEvent.
func CanLeave(event *models.Event, userID string) error {
	if !event.IsParticipant(userID) {
		return ErrNotParticipant
	}
	return nil
}

// JoinEvent adds the user to the roster and mirrors the event into their attending
// list. Capacity is not checked here.
func (es *EventService) JoinEvent(ctx context.Context, eventID, userID string) error {
	if err := es.eventsRepo.AddParticipant(ctx, eventID, userID); err != nil {
		return err
	}
	if err := es.usersRepo.AddAttendingEvent(ctx, userID, eventID); err != nil {
		es.logger.Error("Joined event but attending list not updated", "event_id", eventID, "user_id", userID, "error", err)
		return err
	}
	return nil
}

func (es *EventService) LeaveEvent(ctx context.Context, eventID, userID string) error {
	if err := es.eventsRepo.RemoveParticipant(ctx, eventID, userID); err != nil {
		return err
	}
	if err := es.usersRepo.RemoveAttendingEvent(ctx, userID, eventID); err != nil {
		es.logger.Error("Left event but attending list not updated", "event_id", eventID, "user_id", userID, "error", err)
		return err
	}
	return nil
}
