package postgres

import (
	"context"
	"errors"
	"log/slog"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/wahaops/gateway/internal/gateway_service/domain"
)

const uniqueViolationCode = "23505"

// PgSessionRepository persists WhatsApp session records.
type PgSessionRepository struct {
	db     *pgxpool.Pool
	logger *slog.Logger
}

func NewPgSessionRepository(db *pgxpool.Pool, logger *slog.Logger) *PgSessionRepository {
	return &PgSessionRepository{db: db, logger: logger}
}

func (r *PgSessionRepository) GetByName(ctx context.Context, sessionName string) (*domain.WaSession, error) {
	sess := &domain.WaSession{}
	err := r.db.QueryRow(ctx,
		`SELECT id, session_name, node_id, created_at FROM wa_sessions WHERE session_name = $1`,
		sessionName,
	).Scan(&sess.ID, &sess.SessionName, &sess.NodeID, &sess.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		r.logger.ErrorContext(ctx, "Error getting session by name", "error", err, "session_name", sessionName)
		return nil, err
	}
	return sess, nil
}

func (r *PgSessionRepository) Create(ctx context.Context, session *domain.WaSession) error {
	_, err := r.db.Exec(ctx,
		`INSERT INTO wa_sessions (id, session_name, node_id, created_at) VALUES ($1, $2, $3, $4)`,
		session.ID, session.SessionName, session.NodeID, session.CreatedAt,
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolationCode {
			r.logger.WarnContext(ctx, "Duplicate session name", "session_name", session.SessionName)
			return domain.ErrDuplicateEntry
		}
		r.logger.ErrorContext(ctx, "Error creating session", "error", err, "session_name", session.SessionName)
		return err
	}
	r.logger.InfoContext(ctx, "Session record created", "session_name", session.SessionName, "node_id", session.NodeID)
	return nil
}

func (r *PgSessionRepository) Count(ctx context.Context) (int, error) {
	var count int
	if err := r.db.QueryRow(ctx, `SELECT COUNT(*) FROM wa_sessions`).Scan(&count); err != nil {
		r.logger.ErrorContext(ctx, "Error counting sessions", "error", err)
		return 0, err
	}
	return count, nil
}
