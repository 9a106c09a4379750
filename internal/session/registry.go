// internal/session/registry.go
package session

import (
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"escpos-emulator/internal/escpos"
	"escpos-emulator/internal/model"
	"escpos-emulator/internal/utils"
)

// Registry holds every live Session keyed by ID, guarded by a single
// RWMutex the same way the teacher's driver registry guards its
// brand-keyed device map.
type Registry struct {
	mu       sync.RWMutex
	sessions map[uuid.UUID]*Session
	logger   *zap.Logger
	observer Observer
}

// NewRegistry creates an empty session registry. observer may be nil.
func NewRegistry(logger *zap.Logger, observer Observer) *Registry {
	return &Registry{
		sessions: make(map[uuid.UUID]*Session),
		logger:   logger,
		observer: observer,
	}
}

// Open creates a new Session bound to the given transport type/identity
// and registers it. It does not itself open any transport connection;
// callers pair the returned session with an internal/transport.ByteSource
// and start reading from it, or drive it directly via the HTTP feed
// endpoint.
func (r *Registry) Open(transportType model.TransportType, transportConfig model.JSONObject, identity escpos.Identity, asbEnable byte) *Session {
	id := uuid.New()

	dec := escpos.NewWithIdentity(identity)

	sess := &Session{
		ID:      id,
		decoder: dec,
		logger:  utils.NewDecoderLogger(r.logger, id.String(), string(transportType)),
		Meta: model.Session{
			ID:              id,
			TransportType:   transportType,
			TransportConfig: transportConfig,
			Status:          model.SessionStatusActive,
			Model:           identity.Model,
			Firmware:        identity.Firmware,
			ASBEnabled:      asbEnable,
			CreatedAt:       time.Now().UTC(),
			UpdatedAt:       time.Now().UTC(),
		},
		observer: r.observer,
	}

	r.mu.Lock()
	r.sessions[id] = sess
	r.mu.Unlock()

	r.logger.Info("session opened",
		zap.String("session_id", id.String()),
		zap.String("transport_type", string(transportType)),
	)

	return sess
}

// Get returns the session for id, or false if no such session is live.
func (r *Registry) Get(id uuid.UUID) (*Session, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	sess, ok := r.sessions[id]
	return sess, ok
}

// Close closes and unregisters the session for id.
func (r *Registry) Close(id uuid.UUID) error {
	r.mu.Lock()
	sess, ok := r.sessions[id]
	if ok {
		delete(r.sessions, id)
	}
	r.mu.Unlock()

	if !ok {
		return fmt.Errorf("session not found: %s", id)
	}

	sess.Close()
	r.logger.Info("session closed", zap.String("session_id", id.String()))
	return nil
}

// List returns a snapshot of every live session's metadata.
func (r *Registry) List() []model.Session {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]model.Session, 0, len(r.sessions))
	for _, sess := range r.sessions {
		sess.mu.Lock()
		out = append(out, sess.Meta)
		sess.mu.Unlock()
	}
	return out
}

// Count returns the number of live sessions.
func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.sessions)
}
