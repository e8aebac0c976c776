package notify

import (
	"sort"
	"sync"
)

const GlobalKey = "global"

// Tracker is a reference-counted busy flag keyed by operation name.
type Tracker struct {
	mu     sync.Mutex
	counts map[string]int
}

func NewTracker() *Tracker {
	return &Tracker{counts: make(map[string]int)}
}

func (t *Tracker) Show(key string) {
	if key == "" {
		key = GlobalKey
	}
	t.mu.Lock()
	t.counts[key]++
	t.mu.Unlock()
}

// Hide releases one reference. Extra hides for a key are ignored.
func (t *Tracker) Hide(key string) {
	if key == "" {
		key = GlobalKey
	}
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.counts[key] <= 1 {
		delete(t.counts, key)
		return
	}
	t.counts[key]--
}

// Track shows key and returns the matching hide, meant for defer.
func (t *Tracker) Track(key string) func() {
	t.Show(key)
	var once sync.Once
	return func() { once.Do(func() { t.Hide(key) }) }
}

// Loading reports whether anything is in flight.
func (t *Tracker) Loading() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.counts) > 0
}

func (t *Tracker) IsLoading(key string) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.counts[key] > 0
}

func (t *Tracker) Keys() []string {
	t.mu.Lock()
	keys := make([]string, 0, len(t.counts))
	for k := range t.counts {
		keys = append(keys, k)
	}
	t.mu.Unlock()
	sort.Strings(keys)
	return keys
}
