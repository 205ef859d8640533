// Package state owns the canonical application state tree. Everything that
// leaves the container is a deep copy; the only way in is Apply.
package state

import (
	"errors"
	"log"
	"sync"
	"sync/atomic"
	"time"

	"github.com/idilsaglam/taskdeck/internal/model"
)

var (
	ErrReentrantUpdate = errors.New("state: reentrant update rejected")
	ErrNothingToUndo   = errors.New("state: nothing to undo")
	ErrNilUpdate       = errors.New("state: nil update")
)

// DefaultHistoryDepth bounds the undo history.
const DefaultHistoryDepth = 50

// Update is a tagged variant: either a field patch applied to a copy of the
// current state, or a whole-state transform. Exactly one arm is set.
type Update struct {
	patch     func(*model.AppState)
	transform func(model.AppState) model.AppState
}

// Patch applies fn to a private copy of the current state.
func Patch(fn func(*model.AppState)) Update { return Update{patch: fn} }

// Transform replaces the state with fn's result.
func Transform(fn func(model.AppState) model.AppState) Update { return Update{transform: fn} }

// Subscriber receives every committed state change, synchronously and in
// subscription order.
type Subscriber interface {
	OnStateChanged(next, prev model.AppState, source string)
}

// SubscriberFunc adapts a plain function to the Subscriber interface.
type SubscriberFunc func(next, prev model.AppState, source string)

func (f SubscriberFunc) OnStateChanged(next, prev model.AppState, source string) {
	f(next, prev, source)
}

type subscription struct {
	id  int64
	sub Subscriber
}

// Container is the single owner of the canonical AppState. Callers run on
// one logical thread of control; the notifying flag rejects updates issued
// from inside a subscriber callback instead of deadlocking or recursing.
type Container struct {
	mu        sync.Mutex
	state     model.AppState
	history   []model.AppState
	depth     int
	subs      []subscription
	nextSubID int64
	notifying atomic.Bool

	logger *log.Logger
	now    func() time.Time
}

// Option tunes a Container at construction.
type Option func(*Container)

// WithHistoryDepth overrides the undo history bound.
func WithHistoryDepth(n int) Option {
	return func(c *Container) {
		if n > 0 {
			c.depth = n
		}
	}
}

// WithClock overrides the time source (tests use a fixed one).
func WithClock(now func() time.Time) Option {
	return func(c *Container) { c.now = now }
}

// New builds a container around an initial state. A nil logger discards.
func New(initial model.AppState, logger *log.Logger, opts ...Option) *Container {
	if logger == nil {
		logger = log.New(discard{}, "", 0)
	}
	c := &Container{
		state:  initial.Clone(),
		depth:  DefaultHistoryDepth,
		logger: logger,
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	c.state.Recount(c.now())
	return c
}

type discard struct{}

func (discard) Write(p []byte) (int, error) { return len(p), nil }

// State returns a deep, independent copy of the current state.
func (c *Container) State() model.AppState {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state.Clone()
}

// Apply commits an update and fans it out to subscribers. The previous state
// goes onto the bounded history; derived stats are recomputed on the new one.
// Reentrant calls from subscriber callbacks are logged and rejected.
func (c *Container) Apply(u Update, source string) error {
	if c.notifying.Load() {
		c.logger.Printf("state: dropped reentrant update from %q", source)
		return ErrReentrantUpdate
	}
	if u.patch == nil && u.transform == nil {
		return ErrNilUpdate
	}

	c.mu.Lock()
	prev := c.state
	next := prev.Clone()
	if u.patch != nil {
		u.patch(&next)
	} else {
		next = u.transform(next)
	}
	next.Recount(c.now())

	c.pushHistoryLocked(prev)
	c.state = next

	newCopy := next.Clone()
	prevCopy := prev.Clone() // subscribers get copies, never history's backing
	subs := make([]subscription, len(c.subs))
	copy(subs, c.subs)
	c.mu.Unlock()

	c.notify(subs, newCopy, prevCopy, source)
	return nil
}

// Subscribe registers sub and returns its unsubscribe func.
func (c *Container) Subscribe(sub Subscriber) (unsubscribe func()) {
	c.mu.Lock()
	c.nextSubID++
	id := c.nextSubID
	c.subs = append(c.subs, subscription{id: id, sub: sub})
	c.mu.Unlock()

	return func() {
		c.mu.Lock()
		defer c.mu.Unlock()
		for i, s := range c.subs {
			if s.id == id {
				c.subs = append(c.subs[:i], c.subs[i+1:]...)
				return
			}
		}
	}
}

// Undo restores the most recent history entry as the current state and
// notifies subscribers with source "undo".
func (c *Container) Undo() error {
	if c.notifying.Load() {
		c.logger.Printf("state: dropped reentrant undo")
		return ErrReentrantUpdate
	}

	c.mu.Lock()
	if len(c.history) == 0 {
		c.mu.Unlock()
		return ErrNothingToUndo
	}
	prev := c.state
	restored := c.history[len(c.history)-1]
	c.history = c.history[:len(c.history)-1]
	restored.Recount(c.now())
	c.state = restored

	newCopy := restored.Clone()
	prevCopy := prev.Clone()
	subs := make([]subscription, len(c.subs))
	copy(subs, c.subs)
	c.mu.Unlock()

	c.notify(subs, newCopy, prevCopy, "undo")
	return nil
}

// HistoryLen reports how many undo steps are available.
func (c *Container) HistoryLen() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.history)
}

func (c *Container) pushHistoryLocked(prev model.AppState) {
	c.history = append(c.history, prev)
	if len(c.history) > c.depth {
		// evict oldest
		c.history = c.history[len(c.history)-c.depth:]
	}
}

// notify runs the fan-out with the reentrancy guard up. A panicking
// subscriber is logged and must not stop the rest.
func (c *Container) notify(subs []subscription, next, prev model.AppState, source string) {
	c.notifying.Store(true)
	defer c.notifying.Store(false)

	for _, s := range subs {
		func() {
			defer func() {
				if r := recover(); r != nil {
					c.logger.Printf("state: subscriber panic on %q: %v", source, r)
				}
			}()
			s.sub.OnStateChanged(next, prev, source)
		}()
	}
}
