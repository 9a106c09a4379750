// internal/session/session.go
package session

import (
	"sync"
	"time"

	"github.com/google/uuid"

	"escpos-emulator/internal/escpos"
	"escpos-emulator/internal/model"
	"escpos-emulator/internal/utils"
)

// Observer receives every command record and reply a Session produces, in
// emission order. Implementations persist history (repository), tally
// billing (billing.Estimator) or fan events out to WebSocket subscribers
// (handler.EventBus); a Session holds a single Observer (usually an
// Observers fan-out) rather than knowing about any single consumer.
type Observer interface {
	OnCommand(sessionID uuid.UUID, record escpos.CommandRecord)
	OnReply(sessionID uuid.UUID, reply []byte)
}

// Observers fans OnCommand/OnReply out to every observer in the slice, so
// a Registry can be constructed with one composite Observer instead of
// threading a list through Session itself.
type Observers []Observer

func (o Observers) OnCommand(sessionID uuid.UUID, record escpos.CommandRecord) {
	for _, obs := range o {
		obs.OnCommand(sessionID, record)
	}
}

func (o Observers) OnReply(sessionID uuid.UUID, reply []byte) {
	for _, obs := range o {
		obs.OnReply(sessionID, reply)
	}
}

// Session is one emulated-printer session bound to a byte source. It owns
// the escpos.Decoder driving that stream plus the session-scoped logger
// and accumulated history, mirroring the teacher's EPSONDriver/Registry
// pairing: one decoder instance per stream (spec.md §5), never shared.
type Session struct {
	mu sync.Mutex

	ID       uuid.UUID
	Meta     model.Session
	decoder  *escpos.Decoder
	logger   *utils.DecoderLogger
	history  []escpos.CommandRecord
	observer Observer
}

// Feed drives chunk through the session's decoder, stamping each emitted
// record with the current wall-clock time (the decoder itself never reads
// the clock, per spec.md design note 9), appending it to history, and
// notifying the session's observer of every record and reply produced.
// It returns the same (records, replies) Decoder.Feed would, for callers
// that want them directly (e.g. the synchronous HTTP feed endpoint).
func (s *Session) Feed(chunk []byte) ([]escpos.CommandRecord, [][]byte) {
	s.mu.Lock()
	defer s.mu.Unlock()

	records, replies := s.decoder.Feed(chunk)

	now := time.Now().UTC().Format(time.RFC3339Nano)
	for i := range records {
		records[i].Timestamp = now
		s.history = append(s.history, records[i])
		if s.logger != nil {
			s.logger.LogCommand(records[i])
		}
		if s.observer != nil {
			s.observer.OnCommand(s.ID, records[i])
		}
	}

	for _, reply := range replies {
		if s.logger != nil {
			s.logger.LogReply(reply)
		}
		if s.observer != nil {
			s.observer.OnReply(s.ID, reply)
		}
	}

	s.Meta.UpdatedAt = time.Now().UTC()
	s.Meta.LastActivityAt = &s.Meta.UpdatedAt

	return records, replies
}

// History returns a copy of every command record decoded so far.
func (s *Session) History() []escpos.CommandRecord {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]escpos.CommandRecord, len(s.history))
	copy(out, s.history)
	return out
}

// RecordTransportFault appends a synthetic CommandRecord describing a
// transport-level failure (a dropped serial port, a reset TCP connection, a
// stalled USB endpoint) to the session's history and notifies its observer
// chain exactly as a decoded command would, so the fault shows up in
// persisted history and WebSocket fan-out next to the commands the session
// actually decoded, without being mistaken for bytes the device itself
// sent. context names where the fault happened ("open", "read", "write").
func (s *Session) RecordTransportFault(context string, cause error) escpos.CommandRecord {
	s.mu.Lock()
	defer s.mu.Unlock()

	record := escpos.CommandRecord{
		Timestamp: time.Now().UTC().Format(time.RFC3339Nano),
		Mnemonic:  "TRANSPORT FAULT",
		Name:      context,
		Params:    cause.Error(),
	}

	s.history = append(s.history, record)
	if s.logger != nil {
		s.logger.LogCommand(record)
	}
	if s.observer != nil {
		s.observer.OnCommand(s.ID, record)
	}

	return record
}

// Close marks the session closed. The bound transport, if any, is closed
// by the caller that owns it (internal/transport.ByteSource); Session
// itself is transport-agnostic so it can also back a pure HTTP feed loop
// with no live transport at all.
func (s *Session) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Meta.Status = model.SessionStatusClosed
	s.Meta.UpdatedAt = time.Now().UTC()
}
