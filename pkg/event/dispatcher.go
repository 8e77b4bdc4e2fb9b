package event

import (
	"log/slog"
	"sync"
)

// Handler receives a published event.
type Handler func(Event)

// Subscription identifies a registered handler. The zero value is not a
// valid subscription.
type Subscription struct {
	id       int
	category Category
}

// Category returns the category the subscription listens to.
func (s Subscription) Category() Category { return s.category }

// Valid reports whether s was returned by Subscribe.
func (s Subscription) Valid() bool { return s.id != 0 }

type registration struct {
	id      int
	handler Handler
}

// Dispatcher delivers events to subscribed handlers synchronously.
//
// Handlers may subscribe, unsubscribe or publish from inside a handler; the
// set of handlers called for one Publish is fixed when Publish starts.
type Dispatcher struct {
	mu       sync.Mutex
	handlers map[Category][]registration
	nextID   int
	log      *slog.Logger
}

// NewDispatcher creates an empty dispatcher.
func NewDispatcher(log *slog.Logger) *Dispatcher {
	if log == nil {
		log = slog.Default()
	}
	return &Dispatcher{
		handlers: make(map[Category][]registration),
		nextID:   1,
		log:      log,
	}
}

// Subscribe registers h for events of category c.
func (d *Dispatcher) Subscribe(c Category, h Handler) Subscription {
	if h == nil {
		return Subscription{}
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	id := d.nextID
	d.nextID++
	d.handlers[c] = append(d.handlers[c], registration{id: id, handler: h})
	return Subscription{id: id, category: c}
}

// Unsubscribe removes a handler. Unknown subscriptions are ignored.
func (d *Dispatcher) Unsubscribe(s Subscription) {
	if !s.Valid() {
		return
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	regs := d.handlers[s.category]
	for i, r := range regs {
		if r.id == s.id {
			// 反復中のスナップショットを壊さないよう新しいスライスを作る
			next := make([]registration, 0, len(regs)-1)
			next = append(next, regs[:i]...)
			next = append(next, regs[i+1:]...)
			d.handlers[s.category] = next
			return
		}
	}
}

// Publish delivers ev to every handler subscribed to its category.
func (d *Dispatcher) Publish(ev Event) {
	if ev == nil {
		return
	}
	d.mu.Lock()
	regs := d.handlers[ev.Category()]
	d.mu.Unlock()

	if len(regs) == 0 {
		return
	}
	d.log.Debug("Publishing event", "category", ev.Category(), "handlers", len(regs))
	for _, r := range regs {
		r.handler(ev)
	}
}

// Count returns the number of handlers subscribed to c.
func (d *Dispatcher) Count(c Category) int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.handlers[c])
}
