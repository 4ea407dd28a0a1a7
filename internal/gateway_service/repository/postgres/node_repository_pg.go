package postgres

import (
	"context"
	"errors"
	"log/slog"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/wahaops/gateway/internal/gateway_service/domain"
)

// PgNodeRepository persists the WAHA node catalog.
type PgNodeRepository struct {
	db     *pgxpool.Pool
	logger *slog.Logger
}

func NewPgNodeRepository(db *pgxpool.Pool, logger *slog.Logger) *PgNodeRepository {
	return &PgNodeRepository{db: db, logger: logger}
}

// EnsureProvisioned seeds the catalog from configuration when the table is
// empty. Node ids are assigned in catalog order starting at 1, which is
// what establishes the node-identity-to-container convention.
func (r *PgNodeRepository) EnsureProvisioned(ctx context.Context, nodes []*domain.WahaNode) error {
	var count int
	if err := r.db.QueryRow(ctx, `SELECT COUNT(*) FROM waha_nodes`).Scan(&count); err != nil {
		return err
	}
	if count > 0 {
		r.logger.InfoContext(ctx, "Found existing WAHA nodes", "count", count)
		return nil
	}

	r.logger.InfoContext(ctx, "Initializing WAHA nodes", "count", len(nodes))
	return pgx.BeginFunc(ctx, r.db, func(tx pgx.Tx) error {
		for _, node := range nodes {
			_, err := tx.Exec(ctx,
				`INSERT INTO waha_nodes (id, url, api_key, max_sessions, active_sessions) VALUES ($1, $2, $3, $4, 0)`,
				node.ID, node.URL, node.APIKey, node.MaxSessions,
			)
			if err != nil {
				return err
			}
		}
		return nil
	})
}

func (r *PgNodeRepository) List(ctx context.Context) ([]*domain.WahaNode, error) {
	rows, err := r.db.Query(ctx,
		`SELECT id, url, api_key, max_sessions, active_sessions FROM waha_nodes ORDER BY id`)
	if err != nil {
		r.logger.ErrorContext(ctx, "Error listing nodes", "error", err)
		return nil, err
	}
	defer rows.Close()

	var nodes []*domain.WahaNode
	for rows.Next() {
		node := &domain.WahaNode{}
		if err := rows.Scan(&node.ID, &node.URL, &node.APIKey, &node.MaxSessions, &node.ActiveSessions); err != nil {
			return nil, err
		}
		nodes = append(nodes, node)
	}
	return nodes, rows.Err()
}

func (r *PgNodeRepository) GetByContainer(ctx context.Context, containerNumber int) (*domain.WahaNode, error) {
	node := &domain.WahaNode{}
	err := r.db.QueryRow(ctx,
		`SELECT id, url, api_key, max_sessions, active_sessions FROM waha_nodes WHERE id = $1`,
		containerNumber,
	).Scan(&node.ID, &node.URL, &node.APIKey, &node.MaxSessions, &node.ActiveSessions)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		r.logger.ErrorContext(ctx, "Error getting node by container", "error", err, "container", containerNumber)
		return nil, err
	}
	return node, nil
}

// PickLeastLoaded mirrors the allocator's load policy in SQL: the node with
// the fewest active sessions among those below their soft limit, ties
// broken by id (registry order).
func (r *PgNodeRepository) PickLeastLoaded(ctx context.Context) (*domain.WahaNode, error) {
	node := &domain.WahaNode{}
	err := r.db.QueryRow(ctx, `
		SELECT id, url, api_key, max_sessions, active_sessions
		FROM waha_nodes
		WHERE active_sessions < max_sessions
		ORDER BY active_sessions ASC, id ASC
		LIMIT 1`,
	).Scan(&node.ID, &node.URL, &node.APIKey, &node.MaxSessions, &node.ActiveSessions)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		r.logger.ErrorContext(ctx, "Error picking least loaded node", "error", err)
		return nil, err
	}
	return node, nil
}

func (r *PgNodeRepository) IncrementActiveSessions(ctx context.Context, nodeID int) error {
	tag, err := r.db.Exec(ctx,
		`UPDATE waha_nodes SET active_sessions = active_sessions + 1 WHERE id = $1`, nodeID)
	if err != nil {
		r.logger.ErrorContext(ctx, "Error incrementing node session counter", "error", err, "node_id", nodeID)
		return err
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}
