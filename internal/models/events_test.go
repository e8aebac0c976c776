package models

import (
	"errors"
	"testing"
	"time"

	"go.mongodb.org/mongo-driver/bson"
)

func TestSpotsAndCapacity(t *testing.T) {
	e := &Event{MaxParticipants: 2, Participants: []string{}}
	if e.SpotsAvailable() != 2 || e.IsFull() {
		t.Fatalf("empty event: spots=%d full=%v", e.SpotsAvailable(), e.IsFull())
	}

	e.Participants = []string{"a", "b"}
	if e.SpotsAvailable() != 0 || !e.IsFull() {
		t.Fatalf("full event: spots=%d full=%v", e.SpotsAvailable(), e.IsFull())
	}

	// over capacity after a lost race never goes negative
	e.Participants = append(e.Participants, "c")
	if e.SpotsAvailable() != 0 {
		t.Errorf("Expected 0 spots, got %d", e.SpotsAvailable())
	}
	if !e.IsParticipant("c") || e.IsParticipant("z") {
		t.Error("IsParticipant mismatch")
	}
}

func TestRecurringEventsNeverExpire(t *testing.T) {
	now := time.Date(2025, 6, 10, 12, 0, 0, 0, time.UTC)
	startOfToday := time.Date(2025, 6, 10, 0, 0, 0, 0, time.UTC)
	lastYear := now.AddDate(-1, 0, 0)

	recurring := &Event{EventDate: lastYear, Recurrence: Recurrence{IsRecurring: true, RecurrenceType: RecurrenceWeekly}}
	oneOff := &Event{EventDate: lastYear}

	if recurring.IsPast(now) {
		t.Error("recurring event reported as past")
	}
	if !recurring.Qualifies(startOfToday) {
		t.Error("recurring event with past date should qualify")
	}
	if !oneOff.IsPast(now) {
		t.Error("past one-off event not reported as past")
	}
	if oneOff.Qualifies(startOfToday) {
		t.Error("past one-off event should not qualify")
	}

	earlierToday := &Event{EventDate: startOfToday.Add(time.Hour)}
	if !earlierToday.Qualifies(startOfToday) {
		t.Error("event earlier today should still qualify")
	}
}

func TestEventStatus(t *testing.T) {
	now := time.Date(2025, 6, 10, 12, 0, 0, 0, time.UTC)

	tests := []struct {
		name  string
		event Event
		want  EventStatus
	}{
		{"past", Event{EventDate: now.Add(-time.Hour), MaxParticipants: 5}, StatusPast},
		{"full", Event{EventDate: now.Add(48 * time.Hour), MaxParticipants: 1, Participants: []string{"a"}}, StatusFull},
		{"recurring", Event{EventDate: now.Add(-time.Hour), MaxParticipants: 5, Recurrence: Recurrence{IsRecurring: true}}, StatusRecurring},
		{"today", Event{EventDate: now, MaxParticipants: 5}, StatusToday},
		{"tomorrow", Event{EventDate: now.Add(20 * time.Hour), MaxParticipants: 5}, StatusTomorrow},
		{"upcoming", Event{EventDate: now.Add(72 * time.Hour), MaxParticipants: 5}, StatusUpcoming},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.event.Status(now); got != tt.want {
				t.Errorf("Status() = %s, want %s", got, tt.want)
			}
		})
	}
}

func TestEventView(t *testing.T) {
	now := time.Date(2025, 6, 10, 12, 0, 0, 0, time.UTC)
	e := &Event{
		CreatorID:       "creator",
		EventDate:       now.Add(72 * time.Hour),
		MaxParticipants: 1,
		Participants:    []string{"a"},
	}

	v := e.View("a", now)
	if !v.IsParticipating || v.IsCreator || !v.IsFull || v.SpotsAvailable != 0 || v.DaysUntil != 3 {
		t.Errorf("unexpected view: %+v", v)
	}
	if !e.View("creator", now).IsCreator {
		t.Error("creator not flagged")
	}
}

func TestCursorAfter(t *testing.T) {
	d := time.Date(2025, 6, 10, 20, 0, 0, 0, time.UTC)
	c := &FeedCursor{EventDate: d, ID: "m"}

	if !c.After(&Event{EventDate: d, ID: "n"}) {
		t.Error("same date, greater id should sort after")
	}
	if c.After(&Event{EventDate: d, ID: "m"}) {
		t.Error("the cursor event itself must not sort after")
	}
	if c.After(&Event{EventDate: d.Add(-time.Minute), ID: "z"}) {
		t.Error("earlier date should not sort after")
	}
	if !c.After(&Event{EventDate: d.Add(time.Minute), ID: "a"}) {
		t.Error("later date should sort after")
	}
}

func TestFeedFilter(t *testing.T) {
	since := time.Date(2025, 6, 10, 0, 0, 0, 0, time.UTC)

	t.Run("unscoped", func(t *testing.T) {
		f := FeedFilter(EventQuery{Since: since})
		clauses := f["$and"].(bson.A)
		if len(clauses) != 1 {
			t.Fatalf("Expected only the qualification clause, got %d", len(clauses))
		}
		or := clauses[0].(bson.M)["$or"].(bson.A)
		if or[1].(bson.M)["is_recurring"] != true {
			t.Error("recurring exemption missing")
		}
		if or[0].(bson.M)["event_date"].(bson.M)["$gte"] != since {
			t.Error("date lower bound missing")
		}
	})

	t.Run("city and cursor", func(t *testing.T) {
		after := &FeedCursor{EventDate: since.Add(time.Hour), ID: "abc"}
		f := FeedFilter(EventQuery{City: "Recife", Since: since, After: after})
		clauses := f["$and"].(bson.A)
		if len(clauses) != 3 {
			t.Fatalf("Expected 3 clauses, got %d", len(clauses))
		}
		if clauses[1].(bson.M)["location.city"] != "Recife" {
			t.Error("city clause missing")
		}
		tie := clauses[2].(bson.M)["$or"].(bson.A)[1].(bson.M)
		if tie["_id"].(bson.M)["$gt"] != "abc" {
			t.Error("id tiebreak missing")
		}
	})
}

func TestClassifyAuthError(t *testing.T) {
	tests := []struct {
		raw  string
		want AuthErrorCode
	}{
		{"response status code 400: {\"error_code\":\"invalid_credentials\"}", AuthWrongPassword},
		{"User already registered", AuthEmailInUse},
		{"Password should be at least 6 characters", AuthWeakPassword},
		{"email rate limit exceeded", AuthTooManyRequests},
		{"Signups not allowed for this instance", AuthOperationNotAllowed},
		{"Unsupported provider: provider is not enabled", AuthOperationNotAllowed},
		{"User is banned", AuthUserDisabled},
		{"Unable to validate email address: invalid format", AuthInvalidEmail},
		{"user_not_found", AuthUserNotFound},
		{"connection refused", AuthUnknown},
	}

	for _, tt := range tests {
		got := ClassifyAuthError(errors.New(tt.raw))
		if got.Code != tt.want {
			t.Errorf("ClassifyAuthError(%q) = %s, want %s", tt.raw, got.Code, tt.want)
		}
		if got.Message() == "" {
			t.Errorf("no message for %s", got.Code)
		}
	}

	if ClassifyAuthError(nil) != nil {
		t.Error("nil error should classify to nil")
	}
	classified := &AuthError{Code: AuthWeakPassword}
	if ClassifyAuthError(classified) != classified {
		t.Error("already classified errors should pass through")
	}
}
