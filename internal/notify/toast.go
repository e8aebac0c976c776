package notify

import (
	"sync"
	"time"

	"github.com/google/uuid"
)

type Severity string

const (
	SeveritySuccess Severity = "success"
	SeverityError   Severity = "error"
	SeverityWarning Severity = "warning"
	SeverityInfo    Severity = "info"
)

// Toast is a transient user-facing message. An empty UserID addresses every user.
type Toast struct {
	ID        string        `json:"id"`
	UserID    string        `json:"user_id,omitempty"`
	Severity  Severity      `json:"type"`
	Title     string        `json:"title"`
	Body      string        `json:"message,omitempty"`
	Duration  time.Duration `json:"duration"`
	CreatedAt time.Time     `json:"created_at"`
	Origin    string        `json:"origin,omitempty"`
}

// Visible reports whether the toast is addressed to userID.
func (t Toast) Visible(userID string) bool {
	return t.UserID == "" || t.UserID == userID
}

type ToastEvent struct {
	Toast   Toast `json:"toast"`
	Removed bool  `json:"removed"`
	// Relayed marks a removal that arrived from another instance.
	Relayed bool `json:"-"`
}

// Toaster is an append-only list of timed messages. Each toast removes itself after
// its duration elapses; it can also be dismissed earlier with Remove.
type Toaster struct {
	mu              sync.Mutex
	toasts          []Toast
	timers          map[string]*time.Timer
	subscribers     map[int]func(ToastEvent)
	nextSub         int
	defaultDuration time.Duration
	origin          string
	afterFunc       func(time.Duration, func()) *time.Timer
}

func NewToaster(defaultDuration time.Duration) *Toaster {
	return &Toaster{
		timers:          make(map[string]*time.Timer),
		subscribers:     make(map[int]func(ToastEvent)),
		defaultDuration: defaultDuration,
		origin:          uuid.New().String(),
		afterFunc:       time.AfterFunc,
	}
}

// Origin identifies this process when toasts are relayed between instances.
func (t *Toaster) Origin() string {
	return t.origin
}

func (t *Toaster) Success(userID, title, body string) Toast {
	return t.Show(userID, SeveritySuccess, title, body, 0)
}

func (t *Toaster) Error(userID, title, body string) Toast {
	return t.Show(userID, SeverityError, title, body, 0)
}

func (t *Toaster) Warning(userID, title, body string) Toast {
	return t.Show(userID, SeverityWarning, title, body, 0)
}

func (t *Toaster) Info(userID, title, body string) Toast {
	return t.Show(userID, SeverityInfo, title, body, 0)
}

// Show queues a toast. A zero duration uses the toaster default; a negative one keeps
// the toast until it is removed explicitly.
func (t *Toaster) Show(userID string, severity Severity, title, body string, duration time.Duration) Toast {
	if duration == 0 {
		duration = t.defaultDuration
	}
	toast := Toast{
		ID:        uuid.New().String(),
		UserID:    userID,
		Severity:  severity,
		Title:     title,
		Body:      body,
		Duration:  duration,
		CreatedAt: time.Now(),
		Origin:    t.origin,
	}
	t.Deliver(toast)
	return toast
}

// Deliver adds an already built toast, e.g. one relayed from another instance.
func (t *Toaster) Deliver(toast Toast) {
	t.mu.Lock()
	for _, existing := range t.toasts {
		if existing.ID == toast.ID {
			t.mu.Unlock()
			return
		}
	}
	t.toasts = append(t.toasts, toast)
	if toast.Duration > 0 {
		id := toast.ID
		t.timers[id] = t.afterFunc(toast.Duration, func() { t.Remove(id) })
	}
	subs := t.snapshotSubscribers()
	t.mu.Unlock()

	for _, fn := range subs {
		fn(ToastEvent{Toast: toast})
	}
}

// Remove dismisses a toast. Removing an unknown id is a no-op.
func (t *Toaster) Remove(id string) bool {
	return t.remove(id, false)
}

// RemoveRelayed applies a removal received from another instance.
func (t *Toaster) RemoveRelayed(id string) bool {
	return t.remove(id, true)
}

func (t *Toaster) remove(id string, relayed bool) bool {
	t.mu.Lock()
	idx := -1
	for i, toast := range t.toasts {
		if toast.ID == id {
			idx = i
			break
		}
	}
	if idx < 0 {
		t.mu.Unlock()
		return false
	}
	removed := t.toasts[idx]
	t.toasts = append(t.toasts[:idx:idx], t.toasts[idx+1:]...)
	if timer, ok := t.timers[id]; ok {
		timer.Stop()
		delete(t.timers, id)
	}
	subs := t.snapshotSubscribers()
	t.mu.Unlock()

	for _, fn := range subs {
		fn(ToastEvent{Toast: removed, Removed: true, Relayed: relayed})
	}
	return true
}

func (t *Toaster) Clear() {
	t.mu.Lock()
	for id, timer := range t.timers {
		timer.Stop()
		delete(t.timers, id)
	}
	t.toasts = nil
	t.mu.Unlock()
}

// List returns the active toasts visible to userID, oldest first.
func (t *Toaster) List(userID string) []Toast {
	t.mu.Lock()
	defer t.mu.Unlock()

	out := make([]Toast, 0, len(t.toasts))
	for _, toast := range t.toasts {
		if toast.Visible(userID) {
			out = append(out, toast)
		}
	}
	return out
}

// Subscribe registers fn for every add/remove. The returned func cancels the subscription.
func (t *Toaster) Subscribe(fn func(ToastEvent)) (cancel func()) {
	t.mu.Lock()
	id := t.nextSub
	t.nextSub++
	t.subscribers[id] = fn
	t.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			t.mu.Lock()
			delete(t.subscribers, id)
			t.mu.Unlock()
		})
	}
}

func (t *Toaster) snapshotSubscribers() []func(ToastEvent) {
	subs := make([]func(ToastEvent), 0, len(t.subscribers))
	for _, fn := range t.subscribers {
		subs = append(subs, fn)
	}
	return subs
}
