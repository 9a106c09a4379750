// internal/model/session.go
package model

import (
	"database/sql/driver"
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// TransportType identifies which byte source a session is bound to.
type TransportType string

const (
	TransportSerial TransportType = "SERIAL"
	TransportUSB    TransportType = "USB"
	TransportTCP    TransportType = "TCP"
)

// SessionStatus represents the current lifecycle state of a session.
type SessionStatus string

const (
	SessionStatusActive SessionStatus = "ACTIVE"
	SessionStatusClosed SessionStatus = "CLOSED"
	SessionStatusError  SessionStatus = "ERROR"
)

// JSONObject type for PostgreSQL JSONB objects
type JSONObject map[string]interface{}

func (j *JSONObject) Scan(value interface{}) error {
	if value == nil {
		*j = nil
		return nil
	}
	bytes, ok := value.([]byte)
	if !ok {
		return nil
	}
	return json.Unmarshal(bytes, j)
}

func (j JSONObject) Value() (driver.Value, error) {
	if j == nil {
		return nil, nil
	}
	return json.Marshal(j)
}

// Session represents one emulated-printer session bound to a byte source.
type Session struct {
	ID              uuid.UUID     `json:"id" db:"id"`
	TransportType   TransportType `json:"transport_type" db:"transport_type"`
	TransportConfig JSONObject    `json:"transport_config" db:"transport_config"`
	Status          SessionStatus `json:"status" db:"status"`
	Model           string        `json:"model" db:"model"`
	Firmware        string        `json:"firmware" db:"firmware"`
	ASBEnabled      byte          `json:"asb_enabled" db:"asb_enabled"`
	CreatedAt       time.Time     `json:"created_at" db:"created_at"`
	UpdatedAt       time.Time     `json:"updated_at" db:"updated_at"`
	LastActivityAt  *time.Time    `json:"last_activity_at" db:"last_activity_at"`
}

// IsActive reports whether the session can still accept Feed calls.
func (s *Session) IsActive() bool {
	return s.Status == SessionStatusActive
}

// LogEntryKind distinguishes a decoded command row from a reply row in the
// command-history store; both flow through the same table (spec.md §3.3),
// differing only in which of mnemonic/name/params is populated.
type LogEntryKind string

const (
	LogEntryKindCommand LogEntryKind = "COMMAND"
	LogEntryKindReply   LogEntryKind = "REPLY"
)

// CommandLogEntry is one persisted row of a session's command/reply
// history, used for audit and replay.
type CommandLogEntry struct {
	ID         uuid.UUID    `json:"id" db:"id"`
	SessionID  uuid.UUID    `json:"session_id" db:"session_id"`
	Kind       LogEntryKind `json:"kind" db:"kind"`
	Mnemonic   string       `json:"mnemonic" db:"mnemonic"`
	Name       string       `json:"name" db:"name"`
	Params     string       `json:"params" db:"params"`
	RawHex     string       `json:"raw_hex" db:"raw_hex"`
	RecordedAt time.Time    `json:"recorded_at" db:"recorded_at"`
}
