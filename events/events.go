package events

import (
	"context"
	"sync"

	log "github.com/sirupsen/logrus"
)

// EventType represents different types of events in the system
type EventType string

const (
	EventTypeUserChanged  EventType = "user_changed"
	EventTypeBillChanged  EventType = "bill_changed"
	EventTypeBillsSettled EventType = "bills_settled"
	EventTypeReminderSent EventType = "reminder_sent"
)

// Event is the base interface for all events
type Event interface {
	Type() EventType
}

// UserChangedEvent fires when a user record is created, edited or deleted
type UserChangedEvent struct {
	UserID  string
	Deleted bool
}

func (e UserChangedEvent) Type() EventType {
	return EventTypeUserChanged
}

// BillChangedEvent fires when a bill (with its items) is upserted or deleted
type BillChangedEvent struct {
	BillID  string
	OwnerID string
	Deleted bool
}

func (e BillChangedEvent) Type() EventType {
	return EventTypeBillChanged
}

// BillsSettledEvent fires after a bulk settle-all marked a user's unpaid bills paid
type BillsSettledEvent struct {
	UserID        string
	BillsMarked   int
	AmountCleared int64
}

func (e BillsSettledEvent) Type() EventType {
	return EventTypeBillsSettled
}

// ReminderSentEvent fires after a debt reminder was posted to ChatOps
type ReminderSentEvent struct {
	UserID     string
	PostID     string
	DebtAmount int64
	NewThread  bool
}

func (e ReminderSentEvent) Type() EventType {
	return EventTypeReminderSent
}

// Handler is a function that handles events
type Handler func(ctx context.Context, event Event)

// Bus manages event subscriptions and dispatching. The web layer subscribes
// to forward changes to clients for cache invalidation; reconciliation
// logic never depends on delivery.
type Bus struct {
	mu       sync.RWMutex
	handlers map[EventType][]Handler
}

// NewBus creates a new event bus
func NewBus() *Bus {
	return &Bus{
		handlers: make(map[EventType][]Handler),
	}
}

// Subscribe adds a handler for a specific event type
func (b *Bus) Subscribe(eventType EventType, handler Handler) {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.handlers[eventType] = append(b.handlers[eventType], handler)

	log.WithFields(log.Fields{
		"eventType":    eventType,
		"handlerCount": len(b.handlers[eventType]),
	}).Debug("Subscribed handler to event type")
}

// Emit publishes an event to all registered handlers
func (b *Bus) Emit(ctx context.Context, event Event) {
	b.mu.RLock()
	handlers := make([]Handler, len(b.handlers[event.Type()]))
	copy(handlers, b.handlers[event.Type()])
	b.mu.RUnlock()

	// Call handlers asynchronously to avoid blocking
	for i, handler := range handlers {
		go func(h Handler, handlerIndex int) {
			defer func() {
				if r := recover(); r != nil {
					log.WithFields(log.Fields{
						"eventType":    event.Type(),
						"handlerIndex": handlerIndex,
						"panic":        r,
					}).Error("Event handler panicked")
				}
			}()
			h(ctx, event)
		}(handler, i)
	}
}

// A transactional event bus for holding pending events coupled to the Unit of Work.
// Flushes to the underlying event bus.
type TransactionalBus struct {
	real    *Bus
	pending []Event // stashed until Flush
}

func NewTransactionalBus(real *Bus) *TransactionalBus {
	return &TransactionalBus{real: real}
}

func (b *TransactionalBus) Publish(e Event) {
	b.pending = append(b.pending, e)
}

// called after successful DB commit
func (b *TransactionalBus) Flush(ctx context.Context) {
	// Emit on a background context: events outlive the transaction context
	eventCtx := context.Background()

	for _, ev := range b.pending {
		b.real.Emit(eventCtx, ev)
	}
	b.pending = nil
}

// called after db rollback or to clear state.
func (b *TransactionalBus) Discard() {
	b.pending = nil
}
