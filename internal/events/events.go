// Package events fans tick-change notifications out to registered listeners
// and then to the widget refresher.
package events

import (
	"fmt"
	"reflect"
	"sync"

	"github.com/julianstephens/strive/internal/logger"
)

// Listener is notified after every successful tick mutation. Calls arrive on
// the goroutine that performed the write.
type Listener interface {
	OnTicksChanged()
}

// ListenerFunc adapts a function to Listener. Function listeners are never
// deduplicated; keep the returned Subscription to remove one.
type ListenerFunc func()

func (f ListenerFunc) OnTicksChanged() { f() }

// Refresher redraws every home-screen widget.
type Refresher interface {
	RefreshAll() error
}

// Subscription is the handle returned by Registry.Add.
type Subscription struct {
	registry *Registry
	id       uint64
	once     sync.Once
}

// Cancel removes the listener. Calling it more than once is harmless.
func (s *Subscription) Cancel() {
	if s == nil {
		return
	}
	s.once.Do(func() {
		s.registry.removeID(s.id)
	})
}

type entry struct {
	id       uint64
	listener Listener
	sub      *Subscription
}

// Registry holds listeners in registration order. The zero value is not usable; call NewRegistry.
type Registry struct {
	mu        sync.Mutex
	nextID    uint64
	entries   []entry
	refresher Refresher
}

func NewRegistry(refresher Refresher) *Registry {
	return &Registry{refresher: refresher}
}

// SetRefresher replaces the widget refresher. nil disables refreshing.
func (r *Registry) SetRefresher(refresher Refresher) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.refresher = refresher
}

// isComparable checks the dynamic value, so a struct holding a slice behind an
// interface field is reported as not comparable.
func isComparable(l Listener) bool {
	return reflect.ValueOf(l).Comparable()
}

// Add registers l. Registering the same listener again returns its existing subscription.
func (r *Registry) Add(l Listener) *Subscription {
	if l == nil {
		return nil
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if isComparable(l) {
		for _, e := range r.entries {
			if isComparable(e.listener) && e.listener == l {
				return e.sub
			}
		}
	}

	r.nextID++
	sub := &Subscription{registry: r, id: r.nextID}
	r.entries = append(r.entries, entry{id: r.nextID, listener: l, sub: sub})
	return sub
}

// Remove deregisters l. Unknown listeners are ignored.
func (r *Registry) Remove(l Listener) {
	if l == nil || !isComparable(l) {
		return
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	for i, e := range r.entries {
		if isComparable(e.listener) && e.listener == l {
			r.entries = append(r.entries[:i:i], r.entries[i+1:]...)
			return
		}
	}
}

func (r *Registry) removeID(id uint64) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i, e := range r.entries {
		if e.id == id {
			r.entries = append(r.entries[:i:i], r.entries[i+1:]...)
			return
		}
	}
}

// Len reports the number of registered listeners.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.entries)
}

// Notify delivers one tick-changed event to every listener registered at the
// time of the call, then refreshes widgets. Failures are logged, never returned.
func (r *Registry) Notify() {
	r.mu.Lock()
	listeners := make([]Listener, len(r.entries))
	for i, e := range r.entries {
		listeners[i] = e.listener
	}
	refresher := r.refresher
	r.mu.Unlock()

	for _, l := range listeners {
		deliver(l)
	}

	if refresher != nil {
		if err := refresh(refresher); err != nil {
			logger.Warn("Widget refresh failed", "error", err)
		}
	}
}

// Refresh runs the widget refresher without notifying listeners. Used after
// writes that change what the widget shows without touching ticks.
func (r *Registry) Refresh() {
	r.mu.Lock()
	refresher := r.refresher
	r.mu.Unlock()

	if refresher == nil {
		return
	}
	if err := refresh(refresher); err != nil {
		logger.Warn("Widget refresh failed", "error", err)
	}
}

func deliver(l Listener) {
	defer func() {
		if p := recover(); p != nil {
			logger.Error("Tick listener panicked", "listener", fmt.Sprintf("%T", l), "panic", p)
		}
	}()
	l.OnTicksChanged()
}

func refresh(refresher Refresher) (err error) {
	defer func() {
		if p := recover(); p != nil {
			err = fmt.Errorf("refresher panicked: %v", p)
		}
	}()
	return refresher.RefreshAll()
}
