package report

import "sync"

// Tracker holds the percentage progress of the current lookup and fans
// updates out to subscribers. Values are clamped to 0..100.
type Tracker struct {
	mu    sync.Mutex
	value int
	subs  map[chan int]struct{}
}

// NewTracker returns a tracker at 0%.
func NewTracker() *Tracker {
	return &Tracker{subs: make(map[chan int]struct{})}
}

// Set publishes a new progress value. Subscribers with a full channel miss
// the intermediate value and catch up on the next one.
func (t *Tracker) Set(value int) {
	if value < 0 {
		value = 0
	}
	if value > 100 {
		value = 100
	}

	t.mu.Lock()
	defer t.mu.Unlock()
	t.value = value
	for ch := range t.subs {
		select {
		case ch <- value:
		default:
		}
	}
}

// Get returns the current progress value.
func (t *Tracker) Get() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.value
}

// Subscribe registers a channel receiving progress updates. The returned
// cancel function must be called when the subscriber goes away.
func (t *Tracker) Subscribe() (<-chan int, func()) {
	ch := make(chan int, 8)

	t.mu.Lock()
	t.subs[ch] = struct{}{}
	t.mu.Unlock()

	cancel := func() {
		t.mu.Lock()
		delete(t.subs, ch)
		t.mu.Unlock()
	}
	return ch, cancel
}
