// Package trail keeps the recent location history of each operation member.
//
// A Buffer is keyed by user id. Appends and reads may run concurrently: the
// top-level map is guarded by one RWMutex, each member's trail by its own mutex.
// Old points are trimmed lazily on every append; there is no background sweeper.
package trail

import (
	"sort"
	"sync"
	"time"
)

// DefaultWindow is how far back a trail reaches.
const DefaultWindow = 10 * time.Minute

// Point is one location sample.
type Point struct {
	ID          string
	UserID      string
	OperationID string
	Timestamp   time.Time
	Lat         float64
	Lng         float64
	Accuracy    float64
	Speed       *float64
	Heading     *float64
}

type memberTrail struct {
	mu     sync.Mutex
	points []Point
	ids    map[string]struct{}
}

// Buffer holds per-member trails.
type Buffer struct {
	mu     sync.RWMutex
	trails map[string]*memberTrail
	window time.Duration
	now    func() time.Time
}

// Option configures a Buffer.
type Option func(*Buffer)

// WithWindow overrides the retention window.
func WithWindow(d time.Duration) Option {
	return func(b *Buffer) {
		if d > 0 {
			b.window = d
		}
	}
}

// WithClock overrides the clock used by opportunistic eviction.
func WithClock(now func() time.Time) Option {
	return func(b *Buffer) {
		if now != nil {
			b.now = now
		}
	}
}

// NewBuffer creates an empty Buffer.
func NewBuffer(opts ...Option) *Buffer {
	b := &Buffer{
		trails: make(map[string]*memberTrail),
		window: DefaultWindow,
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Append pushes p onto its member's trail and then evicts stale points.
// A point whose id is already in the trail is ignored; it reports whether p was added.
func (b *Buffer) Append(p Point) bool {
	added := b.push(p)
	b.Evict(b.now())
	return added
}

func (b *Buffer) push(p Point) bool {
	b.mu.RLock()
	t, ok := b.trails[p.UserID]
	if ok {
		added := t.add(p)
		b.mu.RUnlock()
		return added
	}
	b.mu.RUnlock()

	b.mu.Lock()
	defer b.mu.Unlock()
	t, ok = b.trails[p.UserID]
	if !ok {
		t = &memberTrail{ids: make(map[string]struct{})}
		b.trails[p.UserID] = t
	}
	return t.add(p)
}

func (t *memberTrail) add(p Point) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	if p.ID != "" {
		if _, dup := t.ids[p.ID]; dup {
			return false
		}
		t.ids[p.ID] = struct{}{}
	}
	t.points = append(t.points, p)
	return true
}

// trimBefore drops points older than cutoff and reports how many remain.
func (t *memberTrail) trimBefore(cutoff time.Time) int {
	t.mu.Lock()
	defer t.mu.Unlock()
	kept := t.points[:0]
	for _, p := range t.points {
		if p.Timestamp.Before(cutoff) {
			delete(t.ids, p.ID)
			continue
		}
		kept = append(kept, p)
	}
	for i := len(kept); i < len(t.points); i++ {
		t.points[i] = Point{}
	}
	t.points = kept
	return len(kept)
}

// Evict drops every point with timestamp < now − window. Members left with
// no points are removed from the key set.
func (b *Buffer) Evict(now time.Time) {
	cutoff := now.Add(-b.window)

	var empty []string
	b.mu.RLock()
	for userID, t := range b.trails {
		if t.trimBefore(cutoff) == 0 {
			empty = append(empty, userID)
		}
	}
	b.mu.RUnlock()

	if len(empty) == 0 {
		return
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	for _, userID := range empty {
		t, ok := b.trails[userID]
		if !ok {
			continue
		}
		// An append may have landed between the two locks.
		t.mu.Lock()
		n := len(t.points)
		t.mu.Unlock()
		if n == 0 {
			delete(b.trails, userID)
		}
	}
}

// Trail returns a copy of one member's points in append order.
func (b *Buffer) Trail(userID string) []Point {
	b.mu.RLock()
	t, ok := b.trails[userID]
	b.mu.RUnlock()
	if !ok {
		return nil
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	out := make([]Point, len(t.points))
	copy(out, t.points)
	return out
}

// Latest returns the most recently appended point of a member.
func (b *Buffer) Latest(userID string) (Point, bool) {
	b.mu.RLock()
	t, ok := b.trails[userID]
	b.mu.RUnlock()
	if !ok {
		return Point{}, false
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	if len(t.points) == 0 {
		return Point{}, false
	}
	return t.points[len(t.points)-1], true
}

// Members returns the user ids that currently have a trail, sorted.
func (b *Buffer) Members() []string {
	b.mu.RLock()
	defer b.mu.RUnlock()
	out := make([]string, 0, len(b.trails))
	for userID := range b.trails {
		out = append(out, userID)
	}
	sort.Strings(out)
	return out
}

// Snapshot copies every trail.
func (b *Buffer) Snapshot() map[string][]Point {
	out := make(map[string][]Point)
	for _, userID := range b.Members() {
		if pts := b.Trail(userID); len(pts) > 0 {
			out[userID] = pts
		}
	}
	return out
}
