// Package notify provides an in-process store of transient user-facing
// notifications with synchronous pub/sub fan-out and per-message auto-expiry.
// The bus knows nothing of HTTP, sessions, or domain errors; callers pick a
// kind, title, and message.
package notify

import (
	"sync"
	"time"

	"github.com/voxform/voxform-go/clock"
)

// Kind classifies a notification for presentation.
type Kind string

const (
	KindSuccess Kind = "success"
	KindError   Kind = "error"
	KindWarning Kind = "warning"
	KindInfo    Kind = "info"
	KindLoading Kind = "loading"
)

const (
	defaultDuration = 5 * time.Second
	errorDuration   = 8 * time.Second
)

// Notification is one entry in the live set. A zero Duration means no
// automatic expiry; dismissal must be explicit.
type Notification struct {
	ID          int64         `json:"id"`
	Kind        Kind          `json:"kind"`
	Title       string        `json:"title"`
	Message     string        `json:"message"`
	CreatedAt   time.Time     `json:"created_at"`
	Duration    time.Duration `json:"duration"`
	Dismissible bool          `json:"dismissible"`
}

// Options override the kind-specific defaults for one notification.
type Options struct {
	Duration    *time.Duration
	Dismissible *bool
}

// Listener receives the full current list on every change.
type Listener func([]Notification)

// Bus is the notification store. Create one per process (or per test) with
// New; there is no implicit package-level instance.
type Bus struct {
	clock clock.Clock

	mu         sync.Mutex
	nextID     int64
	items      []Notification
	listeners  map[int64]Listener
	order      []int64
	nextListen int64
}

// New creates an empty bus whose auto-dismiss timers run on c.
func New(c clock.Clock) *Bus {
	if c == nil {
		c = clock.System()
	}
	return &Bus{
		clock:     c,
		listeners: make(map[int64]Listener),
	}
}

// Subscribe registers fn and immediately returns an unsubscribe function.
// Unsubscribing twice is a no-op.
func (b *Bus) Subscribe(fn Listener) func() {
	b.mu.Lock()
	id := b.nextListen
	b.nextListen++
	b.listeners[id] = fn
	b.order = append(b.order, id)
	b.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			b.mu.Lock()
			delete(b.listeners, id)
			for i, v := range b.order {
				if v == id {
					b.order = append(b.order[:i], b.order[i+1:]...)
					break
				}
			}
			b.mu.Unlock()
		})
	}
}

// Create appends a notification, fans out synchronously, and schedules
// automatic dismissal when the effective duration is positive. IDs are
// monotonically increasing and never reused.
func (b *Bus) Create(kind Kind, title, message string, opts *Options) Notification {
	b.mu.Lock()
	b.nextID++
	n := Notification{
		ID:          b.nextID,
		Kind:        kind,
		Title:       title,
		Message:     message,
		CreatedAt:   b.clock.Now(),
		Duration:    defaultDurationFor(kind),
		Dismissible: kind != KindLoading,
	}
	if opts != nil {
		if opts.Duration != nil {
			n.Duration = *opts.Duration
		}
		if opts.Dismissible != nil {
			n.Dismissible = *opts.Dismissible
		}
	}
	b.items = append(b.items, n)
	snapshot, listeners := b.snapshotLocked()
	b.mu.Unlock()

	fanOut(listeners, snapshot)

	if n.Duration > 0 {
		id := n.ID
		b.clock.AfterFunc(n.Duration, func() {
			// Safe even if the notification was dismissed manually in
			// the meantime; Dismiss is idempotent.
			b.Dismiss(id)
		})
	}
	return n
}

// Dismiss removes the notification with the given id if present and fans
// out; otherwise it is a no-op.
func (b *Bus) Dismiss(id int64) {
	b.mu.Lock()
	found := false
	for i, n := range b.items {
		if n.ID == id {
			b.items = append(b.items[:i], b.items[i+1:]...)
			found = true
			break
		}
	}
	if !found {
		b.mu.Unlock()
		return
	}
	snapshot, listeners := b.snapshotLocked()
	b.mu.Unlock()

	fanOut(listeners, snapshot)
}

// ClearAll empties the live set with a single fan-out.
func (b *Bus) ClearAll() {
	b.mu.Lock()
	b.items = nil
	snapshot, listeners := b.snapshotLocked()
	b.mu.Unlock()

	fanOut(listeners, snapshot)
}

// Items returns a copy of the live set in creation order.
func (b *Bus) Items() []Notification {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := make([]Notification, len(b.items))
	copy(out, b.items)
	return out
}

// Reset empties the live set and drops all listeners, for test isolation.
// ID assignment is not reset; IDs stay unique for the bus lifetime.
func (b *Bus) Reset() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.items = nil
	b.listeners = make(map[int64]Listener)
	b.order = nil
}

// snapshotLocked copies the live set and listener list. Callers must hold
// b.mu; fan-out happens after release so listeners can call back into the
// bus.
func (b *Bus) snapshotLocked() ([]Notification, []Listener) {
	snapshot := make([]Notification, len(b.items))
	copy(snapshot, b.items)
	listeners := make([]Listener, 0, len(b.order))
	for _, id := range b.order {
		if fn, ok := b.listeners[id]; ok {
			listeners = append(listeners, fn)
		}
	}
	return snapshot, listeners
}

func fanOut(listeners []Listener, snapshot []Notification) {
	for _, fn := range listeners {
		fn(snapshot)
	}
}

func defaultDurationFor(kind Kind) time.Duration {
	switch kind {
	case KindError:
		return errorDuration
	case KindLoading:
		return 0
	default:
		return defaultDuration
	}
}
