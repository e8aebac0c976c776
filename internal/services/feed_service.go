package services

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/joshua-takyi/rolecerto/internal/models"
	"github.com/joshua-takyi/rolecerto/internal/notify"
)

// Notice shown when a city has no events and the feed falls back to every city.
const (
	FallbackTitle = "Nenhum evento encontrado na sua cidade"
	FallbackBody  = "Mostrando eventos de outras localidades"
)

// MaxPageSize bounds the page size a client may ask for.
const MaxPageSize = 50

// Paginator walks the qualifying events in (event_date, id) order, one page at a time.
type Paginator struct {
	repo     models.EventsRepo
	pageSize int
	city     string
	cursor   *models.FeedCursor
	since    func() time.Time
}

func NewPaginator(repo models.EventsRepo, pageSize int, since func() time.Time) *Paginator {
	return &Paginator{repo: repo, pageSize: pageSize, since: since}
}

// Reset drops the cursor.
func (p *Paginator) Reset() {
	p.cursor = nil
}

func (p *Paginator) City() string {
	return p.city
}

// Load fetches the first page for city. An empty city means every city.
func (p *Paginator) Load(ctx context.Context, city string) ([]*models.Event, error) {
	p.Reset()
	p.city = strings.TrimSpace(city)
	return p.fetch(ctx)
}

// LoadMore fetches the page after the cursor; without a cursor it returns nothing.
func (p *Paginator) LoadMore(ctx context.Context) ([]*models.Event, error) {
	if p.cursor == nil {
		return []*models.Event{}, nil
	}
	return p.fetch(ctx)
}

func (p *Paginator) fetch(ctx context.Context) ([]*models.Event, error) {
	events, err := p.repo.QueryEvents(ctx, models.EventQuery{
		City:  p.city,
		Since: p.since(),
		After: p.cursor,
		Limit: p.pageSize,
	})
	if err != nil {
		return nil, err
	}
	if len(events) > 0 {
		p.cursor = models.CursorOf(events[len(events)-1])
	}
	return events, nil
}

// HasMore reports whether the last page was full.
func (p *Paginator) HasMore(page []*models.Event) bool {
	return len(page) == p.pageSize && p.cursor != nil
}

type pageToken struct {
	City   string             `json:"c,omitempty"`
	Size   int                `json:"n,omitempty"`
	Cursor *models.FeedCursor `json:"k"`
}

// Token serializes the paginator position; empty when no cursor is set.
func (p *Paginator) Token() string {
	if p.cursor == nil {
		return ""
	}
	raw, err := json.Marshal(pageToken{City: p.city, Size: p.pageSize, Cursor: p.cursor})
	if err != nil {
		return ""
	}
	return base64.RawURLEncoding.EncodeToString(raw)
}

// Resume restores a position produced by Token, page size included. An empty
// token leaves no cursor.
func (p *Paginator) Resume(token string) error {
	p.Reset()
	p.city = ""
	if token == "" {
		return nil
	}
	raw, err := base64.RawURLEncoding.DecodeString(token)
	if err != nil {
		return fmt.Errorf("%w: malformed cursor", models.ErrInvalidInput)
	}
	var t pageToken
	if err := json.Unmarshal(raw, &t); err != nil || t.Cursor == nil || t.Cursor.ID == "" {
		return fmt.Errorf("%w: malformed cursor", models.ErrInvalidInput)
	}
	if t.Size < 0 || t.Size > MaxPageSize {
		return fmt.Errorf("%w: cursor page size out of range", models.ErrInvalidInput)
	}
	if t.Size > 0 {
		p.pageSize = t.Size
	}
	p.city = t.City
	p.cursor = t.Cursor
	return nil
}

// FeedPage is one page of the event feed.
type FeedPage struct {
	Events   []*models.Event
	Cursor   string
	HasMore  bool
	City     string
	Fallback bool
}

type FeedService struct {
	eventsRepo models.EventsRepo
	toaster    *notify.Toaster
	pageSize   int
	loc        *time.Location
	now        func() time.Time
}

func NewFeedService(eventsRepo models.EventsRepo, toaster *notify.Toaster, pageSize int, loc *time.Location) *FeedService {
	if pageSize > MaxPageSize {
		pageSize = MaxPageSize
	}
	return &FeedService{
		eventsRepo: eventsRepo,
		toaster:    toaster,
		pageSize:   pageSize,
		loc:        loc,
		now:        time.Now,
	}
}

func (fs *FeedService) startOfToday() time.Time {
	return models.StartOfDay(fs.now(), fs.loc)
}

// paginator pages by limit, or by the configured size when limit is zero.
func (fs *FeedService) paginator(limit int) *Paginator {
	if limit <= 0 {
		limit = fs.pageSize
	}
	if limit > MaxPageSize {
		limit = MaxPageSize
	}
	return NewPaginator(fs.eventsRepo, limit, fs.startOfToday)
}

func (fs *FeedService) page(p *Paginator, events []*models.Event) *FeedPage {
	return &FeedPage{
		Events:  events,
		Cursor:  p.Token(),
		HasMore: p.HasMore(events),
		City:    p.City(),
	}
}

// Load returns the first feed page of up to limit events; the cursor keeps that
// size for later pages. A city with no events falls back to the unscoped feed and
// notifies userID.
func (fs *FeedService) Load(ctx context.Context, city, userID string, limit int) (*FeedPage, error) {
	if limit < 0 {
		return nil, fmt.Errorf("%w: negative page size", models.ErrInvalidInput)
	}
	p := fs.paginator(limit)
	events, err := p.Load(ctx, city)
	if err != nil {
		return nil, err
	}
	if len(events) > 0 || p.City() == "" {
		return fs.page(p, events), nil
	}

	events, err = p.Load(ctx, "")
	if err != nil {
		return nil, err
	}
	if fs.toaster != nil {
		fs.toaster.Info(userID, FallbackTitle, FallbackBody)
	}
	page := fs.page(p, events)
	page.Fallback = true
	return page, nil
}

// LoadMore continues from a cursor token. Without a token it returns an empty page.
func (fs *FeedService) LoadMore(ctx context.Context, token string) (*FeedPage, error) {
	p := fs.paginator(0)
	if err := p.Resume(token); err != nil {
		return nil, err
	}
	events, err := p.LoadMore(ctx)
	if err != nil {
		return nil, err
	}
	return fs.page(p, events), nil
}

// Search matches term against name, city and state over the whole qualifying set.
func (fs *FeedService) Search(ctx context.Context, term string) ([]*models.Event, error) {
	events, err := fs.eventsRepo.QueryEvents(ctx, models.EventQuery{Since: fs.startOfToday()})
	if err != nil {
		return nil, err
	}

	term = strings.ToLower(strings.TrimSpace(term))
	if term == "" {
		return events, nil
	}

	matches := []*models.Event{}
	for _, e := range events {
		if strings.Contains(strings.ToLower(e.Name), term) ||
			strings.Contains(strings.ToLower(e.Location.City), term) ||
			strings.Contains(strings.ToLower(e.Location.State), term) {
			matches = append(matches, e)
		}
	}
	return matches, nil
}
