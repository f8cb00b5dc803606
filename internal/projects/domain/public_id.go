package domain

import (
	"strconv"
	"sync"
	"time"
)

// IDGenerator hands out project ids.
type IDGenerator interface {
	NewID() string
}

// ClockIDs produces decimal millisecond timestamps, e.g. "1735689600123".
// When two ids are requested within the same millisecond (or the clock steps
// backwards) the previous value is bumped by one, so ids issued by one
// generator are strictly increasing.
type ClockIDs struct {
	mu   sync.Mutex
	now  func() time.Time
	last int64
}

func NewClockIDs(now func() time.Time) *ClockIDs {
	if now == nil {
		now = time.Now
	}
	return &ClockIDs{now: now}
}

func (g *ClockIDs) NewID() string {
	g.mu.Lock()
	defer g.mu.Unlock()

	ms := g.now().UnixMilli()
	if ms <= g.last {
		ms = g.last + 1
	}
	g.last = ms
	return strconv.FormatInt(ms, 10)
}

// Observe advances the generator past an id that already exists, so that ids
// loaded from storage are never handed out again.
func (g *ClockIDs) Observe(id string) {
	n, err := strconv.ParseInt(id, 10, 64)
	if err != nil {
		return
	}
	g.mu.Lock()
	if n > g.last {
		g.last = n
	}
	g.mu.Unlock()
}
