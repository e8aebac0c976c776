package models

import (
	"context"
	"fmt"
	"math"
	"time"
)

const (
	DateLayout = "2006-01-02"
	TimeLayout = "15:04"
)

type RecurrenceType string

const (
	RecurrenceNone    RecurrenceType = ""
	RecurrenceWeekly  RecurrenceType = "weekly"
	RecurrenceMonthly RecurrenceType = "monthly"
)

type Privacy string

const (
	PrivacyOpen   Privacy = "aberta"
	PrivacyClosed Privacy = "fechada"
)

// Weekdays lists the accepted weekly recurrence days in display order.
var Weekdays = []string{"monday", "tuesday", "wednesday", "thursday", "friday", "saturday", "sunday"}

// Coordinates is a WGS84 point.
type Coordinates struct {
	Latitude  float64 `bson:"lat" json:"lat" validate:"latitude"`
	Longitude float64 `bson:"lng" json:"lng" validate:"longitude"`
}

// Recurrence describes a repeating event. Recurring events never age out of the feed.
type Recurrence struct {
	IsRecurring    bool           `bson:"is_recurring" json:"is_recurring"`
	RecurrenceType RecurrenceType `bson:"recurrence_type,omitempty" json:"recurrence_type,omitempty"`
	WeeklyDays     []string       `bson:"weekly_days,omitempty" json:"weekly_days,omitempty"`
	MonthlyDays    []int          `bson:"monthly_days,omitempty" json:"monthly_days,omitempty"`
}

type EventLocation struct {
	Address string `bson:"address" json:"address"`
	City    string `bson:"city" json:"city"`
	State   string `bson:"state" json:"state"`
}

type Event struct {
	ID              string        `bson:"_id" json:"id"`
	Name            string        `bson:"name" json:"name"`
	Location        EventLocation `bson:"location" json:"location"`
	Coordinates     *Coordinates  `bson:"coordinates,omitempty" json:"coordinates,omitempty"`
	EventDate       time.Time     `bson:"event_date" json:"event_date"`
	EventTime       string        `bson:"event_time" json:"event_time"`
	MinAge          int           `bson:"min_age" json:"min_age"`
	MaxParticipants int           `bson:"max_participants" json:"max_participants"`
	Participants    []string      `bson:"participants" json:"participants"`
	Privacy         Privacy       `bson:"privacy" json:"privacy"`
	Details         string        `bson:"details" json:"details"`
	WhatsappLink    string        `bson:"whatsapp_link" json:"whatsapp_link"`
	ImageURL        string        `bson:"image_url,omitempty" json:"image_url,omitempty"`
	CreatorID       string        `bson:"creator_id" json:"creator_id"`
	CreatorName     string        `bson:"creator_name" json:"creator_name"`
	CreatorPhotoURL string        `bson:"creator_photo_url" json:"creator_photo_url"`
	Recurrence      `bson:",inline"`
	CreatedAt       time.Time `bson:"created_at" json:"created_at"`
	UpdatedAt       time.Time `bson:"updated_at" json:"updated_at"`
}

func (e *Event) SpotsAvailable() int {
	n := e.MaxParticipants - len(e.Participants)
	if n < 0 {
		return 0
	}
	return n
}

func (e *Event) IsFull() bool {
	return e.SpotsAvailable() == 0
}

func (e *Event) IsParticipant(userID string) bool {
	for _, p := range e.Participants {
		if p == userID {
			return true
		}
	}
	return false
}

// IsPast reports whether a one-off event already happened. Recurring events never expire.
func (e *Event) IsPast(now time.Time) bool {
	if e.IsRecurring {
		return false
	}
	return e.EventDate.Before(now)
}

// Qualifies is the feed rule: scheduled today or later, or recurring.
func (e *Event) Qualifies(startOfToday time.Time) bool {
	return e.IsRecurring || !e.EventDate.Before(startOfToday)
}

// DaysUntil rounds up to whole days; recurring events report -1.
func (e *Event) DaysUntil(now time.Time) int {
	if e.IsRecurring {
		return -1
	}
	return int(math.Ceil(e.EventDate.Sub(now).Hours() / 24))
}

type EventStatus string

const (
	StatusPast      EventStatus = "past"
	StatusFull      EventStatus = "full"
	StatusRecurring EventStatus = "recurring"
	StatusToday     EventStatus = "today"
	StatusTomorrow  EventStatus = "tomorrow"
	StatusUpcoming  EventStatus = "upcoming"
)

func (e *Event) Status(now time.Time) EventStatus {
	switch {
	case e.IsPast(now):
		return StatusPast
	case e.IsFull():
		return StatusFull
	case e.IsRecurring:
		return StatusRecurring
	}
	switch e.DaysUntil(now) {
	case 0:
		return StatusToday
	case 1:
		return StatusTomorrow
	}
	return StatusUpcoming
}

// EventView is an event plus the values derived for the caller.
type EventView struct {
	*Event
	SpotsAvailable  int         `json:"spots_available"`
	IsFull          bool        `json:"is_full"`
	IsPast          bool        `json:"is_past"`
	IsParticipating bool        `json:"is_participating"`
	IsCreator       bool        `json:"is_creator"`
	DaysUntil       int         `json:"days_until"`
	Status          EventStatus `json:"status"`
}

func (e *Event) View(userID string, now time.Time) EventView {
	return EventView{
		Event:           e,
		SpotsAvailable:  e.SpotsAvailable(),
		IsFull:          e.IsFull(),
		IsPast:          e.IsPast(now),
		IsParticipating: e.IsParticipant(userID),
		IsCreator:       e.CreatorID == userID,
		DaysUntil:       e.DaysUntil(now),
		Status:          e.Status(now),
	}
}

// CombineDateTime joins a YYYY-MM-DD date and an HH:MM time in loc.
func CombineDateTime(date, clock string, loc *time.Location) (time.Time, error) {
	t, err := time.ParseInLocation(DateLayout+" "+TimeLayout, date+" "+clock, loc)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: invalid date or time %q %q", ErrInvalidInput, date, clock)
	}
	return t, nil
}

// StartOfDay is midnight of t's day in loc.
func StartOfDay(t time.Time, loc *time.Location) time.Time {
	t = t.In(loc)
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, loc)
}

// FeedCursor is the sort key of the last event returned by a feed page.
type FeedCursor struct {
	EventDate time.Time `json:"d"`
	ID        string    `json:"id"`
}

func CursorOf(e *Event) *FeedCursor {
	return &FeedCursor{EventDate: e.EventDate, ID: e.ID}
}

// After reports whether e sorts strictly after the cursor in (event_date, id) order.
func (c *FeedCursor) After(e *Event) bool {
	if e.EventDate.Equal(c.EventDate) {
		return e.ID > c.ID
	}
	return e.EventDate.After(c.EventDate)
}

// EventQuery selects qualifying events ordered by (event_date, id) ascending.
type EventQuery struct {
	City  string
	Since time.Time
	After *FeedCursor
	// Limit of zero means no limit.
	Limit int
}

type EventsRepo interface {
	CreateEvent(ctx context.Context, event *Event) error
	GetEvent(ctx context.Context, id string) (*Event, error)
	QueryEvents(ctx context.Context, q EventQuery) ([]*Event, error)
	UpdateEvent(ctx context.Context, id string, fields map[string]interface{}) error
	DeleteEvent(ctx context.Context, id string) error
	AddParticipant(ctx context.Context, eventID, userID string) error
	RemoveParticipant(ctx context.Context, eventID, userID string) error
	ListEventsByCreator(ctx context.Context, userID string) ([]*Event, error)
	ListEventsByParticipant(ctx context.Context, userID string) ([]*Event, error)
}
