// internal/repository/history_observer.go
package repository

import (
	"context"
	"encoding/hex"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"escpos-emulator/internal/escpos"
	"escpos-emulator/internal/model"
)

// HistoryObserver persists every decoded command and reply into a
// CommandHistoryRepository, implementing session.Observer without
// internal/session needing to import this package.
type HistoryObserver struct {
	repo   CommandHistoryRepository
	logger *zap.Logger
}

// NewHistoryObserver creates an observer backed by repo.
func NewHistoryObserver(repo CommandHistoryRepository, logger *zap.Logger) *HistoryObserver {
	return &HistoryObserver{repo: repo, logger: logger}
}

// OnCommand persists one decoded command as a COMMAND row.
func (h *HistoryObserver) OnCommand(sessionID uuid.UUID, record escpos.CommandRecord) {
	entry := &model.CommandLogEntry{
		ID:        uuid.New(),
		SessionID: sessionID,
		Kind:      model.LogEntryKindCommand,
		Mnemonic:  record.Mnemonic,
		Name:      record.Name,
		Params:    record.Params,
		RawHex:    hex.EncodeToString(record.Raw),
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := h.repo.Append(ctx, entry); err != nil {
		h.logger.Error("failed to persist command log entry", zap.Error(err), zap.String("session_id", sessionID.String()))
	}
}

// OnReply persists one produced reply as a REPLY row.
func (h *HistoryObserver) OnReply(sessionID uuid.UUID, reply []byte) {
	entry := &model.CommandLogEntry{
		ID:        uuid.New(),
		SessionID: sessionID,
		Kind:      model.LogEntryKindReply,
		RawHex:    hex.EncodeToString(reply),
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := h.repo.Append(ctx, entry); err != nil {
		h.logger.Error("failed to persist reply log entry", zap.Error(err), zap.String("session_id", sessionID.String()))
	}
}
