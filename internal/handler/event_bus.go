// internal/handler/event_bus.go
package handler

import (
	"encoding/hex"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"escpos-emulator/internal/escpos"
	"escpos-emulator/internal/model"
)

// EventBus fans session.Observer calls out to per-session subscriber
// channels, the way the teacher's EventBus fanned device/operation events
// out to WebSocket clients, keyed by session ID instead of event type.
type EventBus struct {
	subscribers map[string][]chan Event
	events      chan Event
	mutex       sync.RWMutex
	logger      *zap.Logger
}

// Event represents one session-scoped event delivered to subscribers.
type Event struct {
	Type      model.EventType `json:"type"`
	SessionID string          `json:"session_id"`
	Data      interface{}     `json:"data"`
	Timestamp time.Time       `json:"timestamp"`
}

// NewEventBus creates a new event bus
func NewEventBus(logger *zap.Logger) *EventBus {
	return &EventBus{
		subscribers: make(map[string][]chan Event),
		events:      make(chan Event, 1000),
		logger:      logger,
	}
}

// Start runs the event bus's distribution loop; callers start it once in
// a goroutine, mirroring the teacher's `go eventBus.Start()` wiring.
func (eb *EventBus) Start() {
	for event := range eb.events {
		eb.distributeEvent(event)
	}
}

// Publish publishes an event to every subscriber of its session.
func (eb *EventBus) Publish(event Event) {
	select {
	case eb.events <- event:
	default:
		eb.logger.Warn("event bus full, dropping event",
			zap.String("event_type", string(event.Type)),
			zap.String("session_id", event.SessionID),
		)
	}
}

// Subscribe subscribes to every event published for a given session.
func (eb *EventBus) Subscribe(sessionID string) <-chan Event {
	eb.mutex.Lock()
	defer eb.mutex.Unlock()

	subscriber := make(chan Event, 100)
	eb.subscribers[sessionID] = append(eb.subscribers[sessionID], subscriber)
	return subscriber
}

func (eb *EventBus) distributeEvent(event Event) {
	eb.mutex.RLock()
	subscribers := eb.subscribers[event.SessionID]
	eb.mutex.RUnlock()

	for _, subscriber := range subscribers {
		select {
		case subscriber <- event:
		default:
		}
	}
}

// OnCommand implements session.Observer: every decoded command is
// published as an EventCommandDecoded event on its session's topic.
func (eb *EventBus) OnCommand(sessionID uuid.UUID, record escpos.CommandRecord) {
	eb.Publish(Event{
		Type:      model.EventCommandDecoded,
		SessionID: sessionID.String(),
		Data: model.CommandDecodedEventData{
			Mnemonic: record.Mnemonic,
			Name:     record.Name,
			Params:   record.Params,
			RawHex:   hex.EncodeToString(record.Raw),
		},
		Timestamp: time.Now().UTC(),
	})
}

// OnReply implements session.Observer: every produced reply is published
// as an EventReplyProduced event on its session's topic.
func (eb *EventBus) OnReply(sessionID uuid.UUID, reply []byte) {
	eb.Publish(Event{
		Type:      model.EventReplyProduced,
		SessionID: sessionID.String(),
		Data: model.ReplyProducedEventData{
			RawHex: hex.EncodeToString(reply),
		},
		Timestamp: time.Now().UTC(),
	})
}
