// internal/repository/interfaces.go
package repository

import (
	"context"
	"time"

	"github.com/google/uuid"

	"escpos-emulator/internal/model"
)

// SessionRepository defines session data access operations
type SessionRepository interface {
	Create(ctx context.Context, session *model.Session) error
	GetByID(ctx context.Context, id uuid.UUID) (*model.Session, error)
	UpdateStatus(ctx context.Context, id uuid.UUID, status model.SessionStatus) error
	Touch(ctx context.Context, id uuid.UUID, at time.Time) error
	List(ctx context.Context, filter *SessionFilter) ([]*model.Session, int, error)
}

// CommandHistoryRepository defines command/reply audit log access
type CommandHistoryRepository interface {
	Append(ctx context.Context, entry *model.CommandLogEntry) error
	AppendBatch(ctx context.Context, entries []*model.CommandLogEntry) error
	ListBySession(ctx context.Context, sessionID uuid.UUID, filter *CommandLogFilter) ([]*model.CommandLogEntry, int, error)
	DeleteOlderThan(ctx context.Context, olderThan time.Time) (int64, error)
}

// SessionFilter represents session listing filters
type SessionFilter struct {
	TransportType *model.TransportType `json:"transport_type,omitempty"`
	Status        *model.SessionStatus `json:"status,omitempty"`
	Page          int                  `json:"page"`
	PerPage       int                  `json:"per_page"`
}

// CommandLogFilter represents command-log listing filters
type CommandLogFilter struct {
	Kind      *model.LogEntryKind `json:"kind,omitempty"`
	StartDate *time.Time          `json:"start_date,omitempty"`
	EndDate   *time.Time          `json:"end_date,omitempty"`
	Page      int                 `json:"page"`
	PerPage   int                 `json:"per_page"`
}
