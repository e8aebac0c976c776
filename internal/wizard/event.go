package wizard

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/joshua-takyi/rolecerto/internal/geocode"
	"github.com/joshua-takyi/rolecerto/internal/models"
)

const (
	StepBasics   = 1
	StepLocation = 2
	StepDetails  = 3
)

// EventDraft is the event form as the client fills it in.
type EventDraft struct {
	Name            string                `json:"name"`
	Date            string                `json:"event_date"`
	Time            string                `json:"event_time"`
	IsRecurring     bool                  `json:"is_recurring"`
	RecurrenceType  models.RecurrenceType `json:"recurrence_type"`
	WeeklyDays      []string              `json:"weekly_days"`
	MonthlyDays     string                `json:"monthly_days"`
	Address         string                `json:"address"`
	City            string                `json:"city"`
	State           string                `json:"state"`
	Coordinates     *models.Coordinates   `json:"coordinates"`
	MaxParticipants int                   `json:"max_participants"`
	MinAge          int                   `json:"min_age"`
	Privacy         models.Privacy        `json:"privacy"`
	Details         string                `json:"details"`
	WhatsappLink    string                `json:"whatsapp_link"`
	ImageURL        string                `json:"image_url"`
}

func recurring(d *EventDraft) bool { return d.IsRecurring }

var eventRules = map[int][]rule[*EventDraft]{
	StepBasics: {
		{field: "name", tag: "required,min=3,max=100", value: func(d *EventDraft) interface{} { return strings.TrimSpace(d.Name) }},
		{field: "event_time", tag: "required,clock", value: func(d *EventDraft) interface{} { return d.Time }},
		{field: "event_date", tag: "required,datetime=2006-01-02", value: func(d *EventDraft) interface{} { return d.Date },
			when: func(d *EventDraft) bool { return !d.IsRecurring }},
		{field: "recurrence_type", tag: "required,oneof=weekly monthly", value: func(d *EventDraft) interface{} { return string(d.RecurrenceType) },
			when: recurring},
		{field: "weekly_days", tag: "min=1,dive,weekday", value: func(d *EventDraft) interface{} { return d.WeeklyDays },
			when: func(d *EventDraft) bool { return d.IsRecurring && d.RecurrenceType == models.RecurrenceWeekly }},
		{field: "monthly_days", tag: "required,monthdays", value: func(d *EventDraft) interface{} { return d.MonthlyDays },
			when: func(d *EventDraft) bool { return d.IsRecurring && d.RecurrenceType == models.RecurrenceMonthly }},
	},
	StepLocation: append([]rule[*EventDraft]{
		{field: "address", tag: "required", value: func(d *EventDraft) interface{} { return strings.TrimSpace(d.Address) }},
		{field: "city", tag: "required", value: func(d *EventDraft) interface{} { return strings.TrimSpace(d.City) }},
		{field: "state", tag: "required", value: func(d *EventDraft) interface{} { return strings.TrimSpace(d.State) }},
	}, coordinateRules(func(d *EventDraft) *models.Coordinates { return d.Coordinates })...),
	StepDetails: {
		{field: "max_participants", tag: "min=1", value: func(d *EventDraft) interface{} { return d.MaxParticipants }},
		{field: "min_age", tag: "min=0,max=99", value: func(d *EventDraft) interface{} { return d.MinAge }},
		{field: "privacy", tag: "omitempty,oneof=aberta fechada", value: func(d *EventDraft) interface{} { return string(d.Privacy) }},
		{field: "whatsapp_link", tag: "required,whatsapp", value: func(d *EventDraft) interface{} { return strings.TrimSpace(d.WhatsappLink) }},
		{field: "image_url", tag: "omitempty,httpurl", value: func(d *EventDraft) interface{} { return d.ImageURL }},
	},
}

// EventWizard drives the three step event form.
type EventWizard struct {
	Step          int          `json:"step"`
	Draft         EventDraft   `json:"draft"`
	SubmitBlocked bool         `json:"submit_blocked"`
	Errors        []FieldError `json:"errors,omitempty"`
}

func NewEventWizard() *EventWizard {
	return &EventWizard{Step: StepBasics}
}

// EditEventWizard starts the wizard prefilled from an existing event.
func EditEventWizard(e *models.Event, loc *time.Location) *EventWizard {
	local := e.EventDate.In(loc)
	d := EventDraft{
		Name:            e.Name,
		Time:            e.EventTime,
		IsRecurring:     e.IsRecurring,
		RecurrenceType:  e.RecurrenceType,
		WeeklyDays:      append([]string(nil), e.WeeklyDays...),
		Address:         e.Location.Address,
		City:            e.Location.City,
		State:           e.Location.State,
		Coordinates:     e.Coordinates,
		MaxParticipants: e.MaxParticipants,
		MinAge:          e.MinAge,
		Privacy:         e.Privacy,
		Details:         e.Details,
		WhatsappLink:    e.WhatsappLink,
		ImageURL:        e.ImageURL,
	}
	if !e.IsRecurring {
		d.Date = local.Format(models.DateLayout)
	}
	if len(e.MonthlyDays) > 0 {
		parts := make([]string, len(e.MonthlyDays))
		for i, day := range e.MonthlyDays {
			parts[i] = strconv.Itoa(day)
		}
		d.MonthlyDays = strings.Join(parts, ", ")
	}
	return &EventWizard{Step: StepBasics, Draft: d}
}

// SetRecurring toggles the recurring flag. Turning it off drops the recurrence
// fields and makes the date required again.
func (w *EventWizard) SetRecurring(on bool) {
	w.Draft.IsRecurring = on
	if !on {
		w.Draft.RecurrenceType = models.RecurrenceNone
		w.Draft.WeeklyDays = nil
		w.Draft.MonthlyDays = ""
	}
}

// SetRecurrenceType clears the sub-fields that no longer apply.
func (w *EventWizard) SetRecurrenceType(t models.RecurrenceType) {
	w.Draft.RecurrenceType = t
	if t != models.RecurrenceWeekly {
		w.Draft.WeeklyDays = nil
	}
	if t != models.RecurrenceMonthly {
		w.Draft.MonthlyDays = ""
	}
}

func (w *EventWizard) SetCoordinates(c models.Coordinates) {
	w.Draft.Coordinates = &c
	w.SubmitBlocked = false
}

// ApplyPlace copies a geocoding result into the location step.
func (w *EventWizard) ApplyPlace(p geocode.Place) {
	if p.Street != "" {
		w.Draft.Address = p.Street
	}
	if p.City != "" {
		w.Draft.City = p.City
	}
	if p.State != "" {
		w.Draft.State = p.State
	}
	w.SetCoordinates(p.Coordinates)
}

func (w *EventWizard) ValidateStep(step int) []FieldError {
	errs := check(&w.Draft, eventRules[step])
	if step == StepLocation {
		w.SubmitBlocked = w.Draft.Coordinates == nil
		if w.SubmitBlocked {
			errs = append(errs, coordinatesError)
		}
	}
	return errs
}

// Next advances one step when the current one validates.
func (w *EventWizard) Next() bool {
	w.Step = clampStep(w.Step, StepDetails)
	w.Errors = w.ValidateStep(w.Step)
	if len(w.Errors) > 0 {
		return false
	}
	if w.Step < StepDetails {
		w.Step++
	}
	return true
}

func (w *EventWizard) Prev() bool {
	w.Errors = nil
	if w.Step <= StepBasics {
		w.Step = StepBasics
		return false
	}
	w.Step = clampStep(w.Step-1, StepDetails)
	return true
}

// Submit validates every step regardless of the current one.
func (w *EventWizard) Submit() bool {
	var errs []FieldError
	for step := StepBasics; step <= StepDetails; step++ {
		errs = append(errs, w.ValidateStep(step)...)
	}
	w.Errors = errs
	return len(errs) == 0 && !w.SubmitBlocked
}

// Err returns the errors of the last validation, nil when there were none.
func (w *EventWizard) Err() error {
	if len(w.Errors) == 0 {
		return nil
	}
	return &ValidationError{Fields: w.Errors}
}

// Event builds the document for a validated draft. A recurring event without a date
// is anchored to today at its time.
func (d *EventDraft) Event(now time.Time, loc *time.Location) (*models.Event, error) {
	date := d.Date
	if d.IsRecurring && date == "" {
		date = now.In(loc).Format(models.DateLayout)
	}
	eventDate, err := models.CombineDateTime(date, d.Time, loc)
	if err != nil {
		return nil, err
	}

	privacy := d.Privacy
	if privacy == "" {
		privacy = models.PrivacyOpen
	}

	e := &models.Event{
		Name: strings.TrimSpace(d.Name),
		Location: models.EventLocation{
			Address: strings.TrimSpace(d.Address),
			City:    strings.TrimSpace(d.City),
			State:   strings.TrimSpace(d.State),
		},
		Coordinates:     d.Coordinates,
		EventDate:       eventDate,
		EventTime:       d.Time,
		MinAge:          d.MinAge,
		MaxParticipants: d.MaxParticipants,
		Privacy:         privacy,
		Details:         strings.TrimSpace(d.Details),
		WhatsappLink:    strings.TrimSpace(d.WhatsappLink),
		ImageURL:        d.ImageURL,
	}

	recurrence, err := d.Recurrence()
	if err != nil {
		return nil, err
	}
	e.Recurrence = recurrence
	return e, nil
}

// Recurrence converts the recurrence fields, keeping only those of the chosen type.
func (d *EventDraft) Recurrence() (models.Recurrence, error) {
	if !d.IsRecurring {
		return models.Recurrence{}, nil
	}
	r := models.Recurrence{IsRecurring: true, RecurrenceType: d.RecurrenceType}
	switch d.RecurrenceType {
	case models.RecurrenceWeekly:
		r.WeeklyDays = d.WeeklyDays
	case models.RecurrenceMonthly:
		days, err := ParseMonthDays(d.MonthlyDays)
		if err != nil {
			return models.Recurrence{}, fmt.Errorf("%w: %v", models.ErrInvalidInput, err)
		}
		r.MonthlyDays = days
	}
	return r, nil
}
