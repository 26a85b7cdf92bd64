package guard

import (
	"sync"
	"time"
)

// Clock schedules deferred work. It exists so tests can control time.
type Clock interface {
	AfterFunc(d time.Duration, f func())
}

type realClock struct{}

func (realClock) AfterFunc(d time.Duration, f func()) { time.AfterFunc(d, f) }

// SystemClock is the wall clock
var SystemClock Clock = realClock{}

// Guard keeps one logical action from running twice at once. A holder
// calls Release when its work settles; the guard only opens again after
// the cooldown, which swallows trigger events that re-fire right away.
type Guard struct {
	mu         sync.Mutex
	locked     bool
	generation uint64
	clock      Clock
	onChange   func(busy bool)
	notifyMu   sync.Mutex
}

// New creates an open guard. onChange, if set, is called with the new busy
// state whenever it flips.
func New(clock Clock, onChange func(busy bool)) *Guard {
	if clock == nil {
		clock = SystemClock
	}
	return &Guard{clock: clock, onChange: onChange}
}

// TryAcquire takes the guard. It returns false, changing nothing, when the
// guard is already held or cooling down.
func (g *Guard) TryAcquire() bool {
	g.mu.Lock()
	if g.locked {
		g.mu.Unlock()
		return false
	}
	g.locked = true
	g.generation++
	g.mu.Unlock()

	g.notify()
	return true
}

// Release opens the guard once cooldown has elapsed
func (g *Guard) Release(cooldown time.Duration) {
	g.mu.Lock()
	if !g.locked {
		g.mu.Unlock()
		return
	}
	generation := g.generation
	g.mu.Unlock()

	if cooldown <= 0 {
		g.unlock(generation)
		return
	}
	g.clock.AfterFunc(cooldown, func() { g.unlock(generation) })
}

// IsBusy reports whether the guard is held or cooling down
func (g *Guard) IsBusy() bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.locked
}

// unlock opens the guard only if it is still held by the same acquisition
func (g *Guard) unlock(generation uint64) {
	g.mu.Lock()
	if !g.locked || g.generation != generation {
		g.mu.Unlock()
		return
	}
	g.locked = false
	g.mu.Unlock()

	g.notify()
}

// notify publishes the busy state as it is when the notification runs, so
// a late notification from a cooldown timer cannot overwrite a newer hold.
func (g *Guard) notify() {
	if g.onChange == nil {
		return
	}
	g.notifyMu.Lock()
	defer g.notifyMu.Unlock()

	g.mu.Lock()
	busy := g.locked
	g.mu.Unlock()
	g.onChange(busy)
}
