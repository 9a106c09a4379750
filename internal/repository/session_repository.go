// internal/repository/session_repository.go
package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"escpos-emulator/internal/database"
	"escpos-emulator/internal/model"
)

// sessionRepository implements SessionRepository
type sessionRepository struct {
	db     *database.DB
	logger *zap.Logger
}

// NewSessionRepository creates a new session repository
func NewSessionRepository(db *database.DB, logger *zap.Logger) SessionRepository {
	return &sessionRepository{db: db, logger: logger}
}

// Create persists a newly opened session
func (r *sessionRepository) Create(ctx context.Context, session *model.Session) error {
	query := `
		INSERT INTO sessions (
			id, transport_type, transport_config, status, model, firmware,
			asb_enabled
		) VALUES ($1, $2, $3, $4, $5, $6, $7)
	`

	_, err := r.db.ExecContext(ctx, query,
		session.ID, session.TransportType, session.TransportConfig,
		session.Status, session.Model, session.Firmware, session.ASBEnabled,
	)

	if err != nil {
		r.logger.Error("failed to create session", zap.Error(err), zap.String("session_id", session.ID.String()))
		return fmt.Errorf("failed to create session: %w", err)
	}

	return nil
}

// GetByID retrieves a session by its UUID
func (r *sessionRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.Session, error) {
	query := `
		SELECT id, transport_type, transport_config, status, model, firmware,
			   asb_enabled, created_at, updated_at, last_activity_at
		FROM sessions WHERE id = $1
	`

	session := &model.Session{}
	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&session.ID, &session.TransportType, &session.TransportConfig,
		&session.Status, &session.Model, &session.Firmware, &session.ASBEnabled,
		&session.CreatedAt, &session.UpdatedAt, &session.LastActivityAt,
	)

	if err != nil {
		if err == sql.ErrNoRows {
			return nil, fmt.Errorf("session not found with id: %s", id)
		}
		r.logger.Error("failed to get session by id", zap.Error(err), zap.String("id", id.String()))
		return nil, fmt.Errorf("failed to get session: %w", err)
	}

	return session, nil
}

// UpdateStatus updates a session's status
func (r *sessionRepository) UpdateStatus(ctx context.Context, id uuid.UUID, status model.SessionStatus) error {
	query := `UPDATE sessions SET status = $2, updated_at = CURRENT_TIMESTAMP WHERE id = $1`

	result, err := r.db.ExecContext(ctx, query, id, status)
	if err != nil {
		r.logger.Error("failed to update session status", zap.Error(err), zap.String("id", id.String()))
		return fmt.Errorf("failed to update session status: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return fmt.Errorf("session not found with id: %s", id)
	}

	return nil
}

// Touch bumps a session's last_activity_at timestamp
func (r *sessionRepository) Touch(ctx context.Context, id uuid.UUID, at time.Time) error {
	query := `UPDATE sessions SET last_activity_at = $2, updated_at = CURRENT_TIMESTAMP WHERE id = $1`

	_, err := r.db.ExecContext(ctx, query, id, at)
	if err != nil {
		r.logger.Error("failed to touch session", zap.Error(err))
		return fmt.Errorf("failed to touch session: %w", err)
	}

	return nil
}

// List retrieves sessions with filtering and pagination
func (r *sessionRepository) List(ctx context.Context, filter *SessionFilter) ([]*model.Session, int, error) {
	whereConditions := []string{}
	args := []interface{}{}
	argIndex := 1

	if filter.TransportType != nil {
		whereConditions = append(whereConditions, fmt.Sprintf("transport_type = $%d", argIndex))
		args = append(args, *filter.TransportType)
		argIndex++
	}

	if filter.Status != nil {
		whereConditions = append(whereConditions, fmt.Sprintf("status = $%d", argIndex))
		args = append(args, *filter.Status)
		argIndex++
	}

	whereClause := ""
	if len(whereConditions) > 0 {
		whereClause = "WHERE " + joinAnd(whereConditions)
	}

	countQuery := fmt.Sprintf("SELECT COUNT(*) FROM sessions %s", whereClause)
	var total int
	if err := r.db.QueryRowContext(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("failed to count sessions: %w", err)
	}

	page, perPage := filter.Page, filter.PerPage
	if page < 1 {
		page = 1
	}
	if perPage < 1 {
		perPage = 20
	}
	offset := (page - 1) * perPage

	query := fmt.Sprintf(`
		SELECT id, transport_type, transport_config, status, model, firmware,
			   asb_enabled, created_at, updated_at, last_activity_at
		FROM sessions %s
		ORDER BY created_at DESC
		LIMIT $%d OFFSET $%d
	`, whereClause, argIndex, argIndex+1)
	args = append(args, perPage, offset)

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		r.logger.Error("failed to list sessions", zap.Error(err))
		return nil, 0, fmt.Errorf("failed to list sessions: %w", err)
	}
	defer rows.Close()

	sessions := []*model.Session{}
	for rows.Next() {
		s := &model.Session{}
		if err := rows.Scan(
			&s.ID, &s.TransportType, &s.TransportConfig, &s.Status, &s.Model,
			&s.Firmware, &s.ASBEnabled, &s.CreatedAt, &s.UpdatedAt, &s.LastActivityAt,
		); err != nil {
			r.logger.Error("failed to scan session row", zap.Error(err))
			continue
		}
		sessions = append(sessions, s)
	}

	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("failed to iterate session rows: %w", err)
	}

	return sessions, total, nil
}

func joinAnd(conditions []string) string {
	out := conditions[0]
	for _, c := range conditions[1:] {
		out += " AND " + c
	}
	return out
}
