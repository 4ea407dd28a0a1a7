package postgres

import (
	"context"
	"errors"
	"log/slog"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/wahaops/gateway/internal/gateway_service/domain"
)

// PgAssignmentRepository persists contact-to-container assignments. Rows
// are insert-only; the UNIQUE (contact_id, container_number) constraint is
// what makes concurrent resolution of the same contact safe.
type PgAssignmentRepository struct {
	db     *pgxpool.Pool
	logger *slog.Logger
}

func NewPgAssignmentRepository(db *pgxpool.Pool, logger *slog.Logger) *PgAssignmentRepository {
	return &PgAssignmentRepository{db: db, logger: logger}
}

func (r *PgAssignmentRepository) ListByContactID(ctx context.Context, contactID string) ([]*domain.ContactAssignment, error) {
	rows, err := r.db.Query(ctx, `
		SELECT id, contact_id, container_number, node_id, resolved_phone, created_at
		FROM contact_assignments
		WHERE contact_id = $1
		ORDER BY container_number ASC`,
		contactID,
	)
	if err != nil {
		r.logger.ErrorContext(ctx, "Error listing assignments", "error", err, "contact_id", contactID)
		return nil, err
	}
	defer rows.Close()

	var assignments []*domain.ContactAssignment
	for rows.Next() {
		a := &domain.ContactAssignment{}
		if err := rows.Scan(&a.ID, &a.ContactID, &a.ContainerNumber, &a.NodeID, &a.ResolvedPhone, &a.CreatedAt); err != nil {
			return nil, err
		}
		assignments = append(assignments, a)
	}
	return assignments, rows.Err()
}

func (r *PgAssignmentRepository) FindResolvedPhone(ctx context.Context, contactID string) (string, error) {
	var phone string
	err := r.db.QueryRow(ctx, `
		SELECT resolved_phone
		FROM contact_assignments
		WHERE contact_id = $1
		ORDER BY container_number ASC
		LIMIT 1`,
		contactID,
	).Scan(&phone)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return "", domain.ErrNotFound
		}
		r.logger.ErrorContext(ctx, "Error finding resolved phone", "error", err, "contact_id", contactID)
		return "", err
	}
	return phone, nil
}

// CreateBatch inserts all assignments of one resolution pass in a single
// transaction. ON CONFLICT DO NOTHING turns the losing side of a
// duplicate-insert race into a no-op instead of an error.
func (r *PgAssignmentRepository) CreateBatch(ctx context.Context, assignments []*domain.ContactAssignment) error {
	if len(assignments) == 0 {
		return nil
	}
	return pgx.BeginFunc(ctx, r.db, func(tx pgx.Tx) error {
		for _, a := range assignments {
			tag, err := tx.Exec(ctx, `
				INSERT INTO contact_assignments (id, contact_id, container_number, node_id, resolved_phone, created_at)
				VALUES ($1, $2, $3, $4, $5, $6)
				ON CONFLICT (contact_id, container_number) DO NOTHING`,
				a.ID, a.ContactID, a.ContainerNumber, a.NodeID, a.ResolvedPhone, a.CreatedAt,
			)
			if err != nil {
				r.logger.ErrorContext(ctx, "Error inserting assignment", "error", err,
					"contact_id", a.ContactID, "container", a.ContainerNumber)
				return err
			}
			if tag.RowsAffected() == 0 {
				r.logger.InfoContext(ctx, "Assignment already present, skipped",
					"contact_id", a.ContactID, "container", a.ContainerNumber)
			}
		}
		return nil
	})
}
