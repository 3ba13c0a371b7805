package catalog

import (
	"sync"

	"github.com/lodgeline/booking-engine/pkg/logger"
)

// Listener receives the currently selected property id. Zero means no selection.
type Listener func(propertyID int64)

// Hub broadcasts the selected property to dependent form inputs so their
// option lists can be filtered without direct coupling. Listeners are notified
// synchronously, in subscription order, and replayed the current value on
// subscribe. Instances are injectable; there is no package-level hub.
type Hub struct {
	mu        sync.Mutex
	current   int64
	nextID    int
	listeners []subscription
}

type subscription struct {
	id int
	fn Listener
}

func NewHub() *Hub {
	return &Hub{}
}

func (h *Hub) SetSelection(propertyID int64) {
	h.mu.Lock()
	h.current = propertyID
	subs := make([]subscription, len(h.listeners))
	copy(subs, h.listeners)
	h.mu.Unlock()

	for _, sub := range subs {
		notify(sub.fn, propertyID)
	}
}

// Subscribe registers a listener and immediately replays the current
// selection to it. The returned function removes the listener.
func (h *Hub) Subscribe(fn Listener) func() {
	h.mu.Lock()
	id := h.nextID
	h.nextID++
	h.listeners = append(h.listeners, subscription{id: id, fn: fn})
	current := h.current
	h.mu.Unlock()

	notify(fn, current)

	return func() {
		h.mu.Lock()
		defer h.mu.Unlock()
		for i, sub := range h.listeners {
			if sub.id == id {
				h.listeners = append(h.listeners[:i], h.listeners[i+1:]...)
				return
			}
		}
	}
}

func (h *Hub) Current() int64 {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.current
}

// notify shields the hub from a panicking listener so the remaining listeners
// still run.
func notify(fn Listener, propertyID int64) {
	defer func() {
		if err := recover(); err != nil {
			logger.Error("selection listener panicked", "error", err, "property_id", propertyID)
		}
	}()
	fn(propertyID)
}

// DependentField holds a selected option id plus the per-property option lists
// loaded so far. When the property selection changes, the field clears its
// value only if options for that property are already loaded and the value is
// not among them; an unloaded list leaves the value untouched so a selection
// still being loaded is not clobbered.
type DependentField struct {
	mu                sync.Mutex
	selected          int64
	optionsByProperty map[int64][]int64
}

func NewDependentField() *DependentField {
	return &DependentField{
		optionsByProperty: make(map[int64][]int64),
	}
}

func (f *DependentField) SetOptions(propertyID int64, optionIDs []int64) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.optionsByProperty[propertyID] = optionIDs
}

func (f *DependentField) Select(optionID int64) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.selected = optionID
}

func (f *DependentField) Selected() int64 {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.selected
}

// Bind subscribes the field to a hub and returns the unsubscribe function.
func (f *DependentField) Bind(h *Hub) func() {
	return h.Subscribe(func(propertyID int64) {
		f.mu.Lock()
		defer f.mu.Unlock()

		if f.selected == 0 {
			return
		}
		options, loaded := f.optionsByProperty[propertyID]
		if !loaded {
			return
		}
		for _, id := range options {
			if id == f.selected {
				return
			}
		}
		f.selected = 0
	})
}
