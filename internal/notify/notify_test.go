package notify

import (
	"io"
	"log/slog"
	"testing"
	"time"
)

// manualClock captures scheduled removals so tests can fire them on demand.
type manualClock struct {
	pending []func()
}

func (m *manualClock) afterFunc(d time.Duration, fn func()) *time.Timer {
	m.pending = append(m.pending, fn)
	return time.NewTimer(time.Hour)
}

func (m *manualClock) fireAll() {
	fns := m.pending
	m.pending = nil
	for _, fn := range fns {
		fn()
	}
}

func TestToastExpiresAfterDuration(t *testing.T) {
	clock := &manualClock{}
	toaster := NewToaster(5 * time.Second)
	toaster.afterFunc = clock.afterFunc

	toaster.Success("u1", "Evento criado com sucesso!", "")
	if got := len(toaster.List("u1")); got != 1 {
		t.Fatalf("expected 1 toast, got %d", got)
	}

	clock.fireAll()
	if got := len(toaster.List("u1")); got != 0 {
		t.Fatalf("expected toast to expire, still have %d", got)
	}
}

func TestToastRemoveOnDemand(t *testing.T) {
	toaster := NewToaster(time.Hour)
	a := toaster.Info("u1", "a", "")
	b := toaster.Info("u1", "b", "")

	if !toaster.Remove(a.ID) {
		t.Fatal("expected remove to succeed")
	}
	if toaster.Remove(a.ID) {
		t.Fatal("second remove of the same id should be a no-op")
	}
	list := toaster.List("u1")
	if len(list) != 1 || list[0].ID != b.ID {
		t.Fatalf("unexpected toasts after remove: %+v", list)
	}
	toaster.Clear()
}

func TestToastVisibility(t *testing.T) {
	toaster := NewToaster(time.Hour)
	defer toaster.Clear()

	toaster.Info("", "broadcast", "")
	toaster.Info("u1", "private", "")

	if got := len(toaster.List("u1")); got != 2 {
		t.Errorf("u1 should see 2 toasts, got %d", got)
	}
	if got := len(toaster.List("u2")); got != 1 {
		t.Errorf("u2 should see only the broadcast, got %d", got)
	}
}

func TestToastNegativeDurationIsSticky(t *testing.T) {
	clock := &manualClock{}
	toaster := NewToaster(time.Second)
	toaster.afterFunc = clock.afterFunc

	toaster.Show("u1", SeverityWarning, "sticky", "", -1)
	if len(clock.pending) != 0 {
		t.Fatal("sticky toast must not schedule a removal")
	}
}

func TestToastSubscribeAndCancel(t *testing.T) {
	toaster := NewToaster(time.Hour)
	defer toaster.Clear()

	var events []ToastEvent
	cancel := toaster.Subscribe(func(ev ToastEvent) { events = append(events, ev) })

	toast := toaster.Error("u1", "Erro ao carregar eventos", "")
	toaster.Remove(toast.ID)
	cancel()
	cancel()
	toaster.Info("u1", "ignored", "")

	if len(events) != 2 {
		t.Fatalf("expected 2 events, got %d", len(events))
	}
	if events[0].Removed || !events[1].Removed {
		t.Errorf("unexpected event order: %+v", events)
	}
}

func TestDeliverIgnoresDuplicates(t *testing.T) {
	toaster := NewToaster(time.Hour)
	defer toaster.Clear()

	toast := Toast{ID: "relay-1", Title: "remote", Duration: -1}
	toaster.Deliver(toast)
	toaster.Deliver(toast)

	if got := len(toaster.List("anyone")); got != 1 {
		t.Fatalf("expected 1 toast, got %d", got)
	}
}

// subject stands in for the NATS subject: every published message reaches every
// bridge, the publisher included.
type subject struct {
	bridges   []*Bridge
	queue     [][]byte
	published int
}

func (s *subject) join(toaster *Toaster) {
	b := &Bridge{toaster: toaster, logger: slog.New(slog.NewTextHandler(io.Discard, nil))}
	s.bridges = append(s.bridges, b)
	toaster.Subscribe(func(ev ToastEvent) {
		if data, ok := b.encode(ev); ok {
			s.queue = append(s.queue, data)
			s.published++
		}
	})
}

func (s *subject) flush() {
	for len(s.queue) > 0 {
		data := s.queue[0]
		s.queue = s.queue[1:]
		for _, b := range s.bridges {
			b.receive(data)
		}
	}
}

func TestBridgeRelaysAddsAndRemovals(t *testing.T) {
	a, b := NewToaster(time.Hour), NewToaster(time.Hour)
	defer a.Clear()
	defer b.Clear()
	bus := &subject{}
	bus.join(a)
	bus.join(b)

	toast := a.Info("u1", "Evento atualizado!", "")
	bus.flush()
	if len(a.List("u1")) != 1 || len(b.List("u1")) != 1 {
		t.Fatalf("after add: a=%d b=%d", len(a.List("u1")), len(b.List("u1")))
	}
	if bus.published != 1 {
		t.Errorf("relayed add was published again: %d messages", bus.published)
	}

	b.Remove(toast.ID)
	bus.flush()
	if len(a.List("u1")) != 0 || len(b.List("u1")) != 0 {
		t.Fatalf("dismissal not relayed: a=%v b=%v", a.List("u1"), b.List("u1"))
	}
	if bus.published != 2 {
		t.Errorf("relayed removal was published again: %d messages", bus.published)
	}
}

func TestBridgeDropsMalformedEvents(t *testing.T) {
	toaster := NewToaster(time.Hour)
	defer toaster.Clear()
	b := &Bridge{toaster: toaster, logger: slog.New(slog.NewTextHandler(io.Discard, nil))}

	b.receive([]byte("not json"))
	b.receive([]byte(`{"toast":{"title":"sem id"}}`))
	if got := len(toaster.List("")); got != 0 {
		t.Fatalf("malformed events delivered %d toasts", got)
	}
}

func TestTrackerReferenceCounting(t *testing.T) {
	tracker := NewTracker()

	tracker.Show("home-events")
	tracker.Show("home-events")
	tracker.Show("login")
	if !tracker.Loading() {
		t.Fatal("expected loading")
	}

	tracker.Hide("home-events")
	if !tracker.IsLoading("home-events") {
		t.Fatal("one reference should remain for home-events")
	}
	tracker.Hide("home-events")
	tracker.Hide("home-events")
	if tracker.IsLoading("home-events") {
		t.Fatal("home-events should be released")
	}

	keys := tracker.Keys()
	if len(keys) != 1 || keys[0] != "login" {
		t.Fatalf("keys = %v", keys)
	}

	tracker.Hide("login")
	if tracker.Loading() {
		t.Fatal("expected idle tracker")
	}
}

func TestTrackerTrack(t *testing.T) {
	tracker := NewTracker()
	done := tracker.Track("")
	if !tracker.IsLoading(GlobalKey) {
		t.Fatal("empty key should map to the global key")
	}
	done()
	done()
	if tracker.Loading() {
		t.Fatal("expected idle tracker after release")
	}
}
