package events

import (
	"context"
	"sync"

	log "github.com/sirupsen/logrus"
)

// EventType represents different types of events in the system
type EventType string

const (
	EventTypeScoreChange   EventType = "score_change"
	EventTypeBiddingChange EventType = "bidding_change"
	EventTypeBidPlaced     EventType = "bid_placed"
	EventTypeCommand       EventType = "command_handled"
	EventTypeMessageSent   EventType = "message_sent"
)

// Event is the base interface for all events
type Event interface {
	Type() EventType
}

// ScoreChangeKind describes what caused a score change
type ScoreChangeKind string

const (
	ScoreChangeCredit ScoreChangeKind = "credit"
	ScoreChangeSet    ScoreChangeKind = "set"
)

// ScoreChangeEvent represents a ledger score mutation
type ScoreChangeEvent struct {
	UserID   string
	Tag      string
	OldScore int64
	NewScore int64
	Kind     ScoreChangeKind
}

func (e ScoreChangeEvent) Type() EventType {
	return EventTypeScoreChange
}

// BiddingStateChangeEvent represents a bidding round transition
type BiddingStateChangeEvent struct {
	OldState string
	NewState string
	WinnerID string
	Amount   int64
}

func (e BiddingStateChangeEvent) Type() EventType {
	return EventTypeBiddingChange
}

// BidPlacedEvent represents a bid being placed or raised
type BidPlacedEvent struct {
	UserID string
	Amount int64
}

func (e BidPlacedEvent) Type() EventType {
	return EventTypeBidPlaced
}

// CommandHandledEvent is emitted after the dispatcher handles a command
type CommandHandledEvent struct {
	Command string
	Tier    string
	Outcome string
}

func (e CommandHandledEvent) Type() EventType {
	return EventTypeCommand
}

// MessageSentEvent is emitted after an outbound message attempt
type MessageSentEvent struct {
	ChannelID string
	Failed    bool
}

func (e MessageSentEvent) Type() EventType {
	return EventTypeMessageSent
}

// Handler is a function that handles events
type Handler func(ctx context.Context, event Event)

// Bus manages event subscriptions and dispatching
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

// Emit publishes an event to all registered handlers.
// Handlers run on their own goroutines and must not touch loop-owned state.
func (b *Bus) Emit(ctx context.Context, event Event) {
	b.mu.RLock()
	handlers := make([]Handler, len(b.handlers[event.Type()]))
	copy(handlers, b.handlers[event.Type()])
	b.mu.RUnlock()

	if len(handlers) == 0 {
		return
	}

	log.WithFields(log.Fields{
		"eventType":    event.Type(),
		"handlerCount": len(handlers),
	}).Debug("Emitting event to handlers")

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
