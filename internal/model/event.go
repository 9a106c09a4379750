// internal/model/event.go
package model

import (
	"time"

	"github.com/google/uuid"
)

// EventType represents the type of event broadcast over a session's
// WebSocket feed.
type EventType string

const (
	EventSessionOpened  EventType = "SESSION_OPENED"
	EventSessionClosed  EventType = "SESSION_CLOSED"
	EventCommandDecoded EventType = "COMMAND_DECODED"
	EventReplyProduced  EventType = "REPLY_PRODUCED"
	EventTransportError EventType = "TRANSPORT_ERROR"
)

// SessionEvent represents one event in a session's lifecycle.
type SessionEvent struct {
	ID        uuid.UUID  `json:"id"`
	EventType EventType  `json:"event_type"`
	SessionID uuid.UUID  `json:"session_id"`
	Data      JSONObject `json:"data"`
	Timestamp time.Time  `json:"timestamp"`
	Severity  string     `json:"severity"` // INFO, WARNING, ERROR
}

// SessionOpenedEventData is carried by EventSessionOpened
type SessionOpenedEventData struct {
	TransportType TransportType `json:"transport_type"`
	Model         string        `json:"model"`
	Firmware      string        `json:"firmware"`
}

// SessionClosedEventData is carried by EventSessionClosed
type SessionClosedEventData struct {
	Reason      string `json:"reason"`
	CommandsSeen int   `json:"commands_seen"`
}

// CommandDecodedEventData is carried by EventCommandDecoded, one per
// emitted escpos.CommandRecord.
type CommandDecodedEventData struct {
	Mnemonic string `json:"mnemonic"`
	Name     string `json:"name"`
	Params   string `json:"params"`
	RawHex   string `json:"raw_hex"`
}

// ReplyProducedEventData is carried by EventReplyProduced, whenever a
// decoded command causes the emulator to write a status reply back.
type ReplyProducedEventData struct {
	RawHex string `json:"raw_hex"`
}

// TransportErrorEventData is carried by EventTransportError
type TransportErrorEventData struct {
	ErrorMessage string    `json:"error_message"`
	ErrorTime    time.Time `json:"error_time"`
}
