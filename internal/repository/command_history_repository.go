// internal/repository/command_history_repository.go
package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"escpos-emulator/internal/database"
	"escpos-emulator/internal/model"
)

// commandHistoryRepository implements CommandHistoryRepository
type commandHistoryRepository struct {
	db     *database.DB
	logger *zap.Logger
}

// NewCommandHistoryRepository creates a new command-history repository
func NewCommandHistoryRepository(db *database.DB, logger *zap.Logger) CommandHistoryRepository {
	return &commandHistoryRepository{db: db, logger: logger}
}

// Append persists one decoded command or reply row.
func (r *commandHistoryRepository) Append(ctx context.Context, entry *model.CommandLogEntry) error {
	query := `
		INSERT INTO command_log (
			id, session_id, kind, mnemonic, name, params, raw_hex
		) VALUES ($1, $2, $3, $4, $5, $6, $7)
	`

	_, err := r.db.ExecContext(ctx, query,
		entry.ID, entry.SessionID, entry.Kind, entry.Mnemonic, entry.Name,
		entry.Params, entry.RawHex,
	)

	if err != nil {
		r.logger.Error("failed to append command log entry", zap.Error(err), zap.String("session_id", entry.SessionID.String()))
		return fmt.Errorf("failed to append command log entry: %w", err)
	}

	return nil
}

// AppendBatch persists several rows in a single transaction. Nothing in
// the service calls it at present: HistoryObserver persists each command
// and reply with its own Append call.
func (r *commandHistoryRepository) AppendBatch(ctx context.Context, entries []*model.CommandLogEntry) error {
	if len(entries) == 0 {
		return nil
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO command_log (id, session_id, kind, mnemonic, name, params, raw_hex)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`)
	if err != nil {
		return fmt.Errorf("failed to prepare statement: %w", err)
	}
	defer stmt.Close()

	for _, entry := range entries {
		if _, err := stmt.ExecContext(ctx,
			entry.ID, entry.SessionID, entry.Kind, entry.Mnemonic, entry.Name,
			entry.Params, entry.RawHex,
		); err != nil {
			return fmt.Errorf("failed to append command log entry: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	r.logger.Debug("appended command log batch", zap.Int("count", len(entries)))
	return nil
}

// ListBySession retrieves a session's command/reply history, newest first.
func (r *commandHistoryRepository) ListBySession(ctx context.Context, sessionID uuid.UUID, filter *CommandLogFilter) ([]*model.CommandLogEntry, int, error) {
	whereConditions := []string{"session_id = $1"}
	args := []interface{}{sessionID}
	argIndex := 2

	if filter.Kind != nil {
		whereConditions = append(whereConditions, fmt.Sprintf("kind = $%d", argIndex))
		args = append(args, *filter.Kind)
		argIndex++
	}
	if filter.StartDate != nil {
		whereConditions = append(whereConditions, fmt.Sprintf("recorded_at >= $%d", argIndex))
		args = append(args, *filter.StartDate)
		argIndex++
	}
	if filter.EndDate != nil {
		whereConditions = append(whereConditions, fmt.Sprintf("recorded_at <= $%d", argIndex))
		args = append(args, *filter.EndDate)
		argIndex++
	}

	whereClause := "WHERE " + joinAnd(whereConditions)

	countQuery := fmt.Sprintf("SELECT COUNT(*) FROM command_log %s", whereClause)
	var total int
	if err := r.db.QueryRowContext(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("failed to count command log entries: %w", err)
	}

	page, perPage := filter.Page, filter.PerPage
	if page < 1 {
		page = 1
	}
	if perPage < 1 {
		perPage = 50
	}
	offset := (page - 1) * perPage

	query := fmt.Sprintf(`
		SELECT id, session_id, kind, mnemonic, name, params, raw_hex, recorded_at
		FROM command_log %s
		ORDER BY recorded_at DESC
		LIMIT $%d OFFSET $%d
	`, whereClause, argIndex, argIndex+1)
	args = append(args, perPage, offset)

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		r.logger.Error("failed to list command log entries", zap.Error(err))
		return nil, 0, fmt.Errorf("failed to list command log entries: %w", err)
	}
	defer rows.Close()

	entries := []*model.CommandLogEntry{}
	for rows.Next() {
		e := &model.CommandLogEntry{}
		if err := rows.Scan(&e.ID, &e.SessionID, &e.Kind, &e.Mnemonic, &e.Name, &e.Params, &e.RawHex, &e.RecordedAt); err != nil {
			r.logger.Error("failed to scan command log row", zap.Error(err))
			continue
		}
		entries = append(entries, e)
	}

	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("failed to iterate command log rows: %w", err)
	}

	return entries, total, nil
}

// DeleteOlderThan removes command log rows recorded before the given time.
func (r *commandHistoryRepository) DeleteOlderThan(ctx context.Context, olderThan time.Time) (int64, error) {
	result, err := r.db.ExecContext(ctx, `DELETE FROM command_log WHERE recorded_at < $1`, olderThan)
	if err != nil {
		return 0, fmt.Errorf("failed to delete old command log entries: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to get rows affected: %w", err)
	}

	return rowsAffected, nil
}
