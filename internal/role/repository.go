package role

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"
)

// PGRepository implements Repository using PostgreSQL.
type PGRepository struct {
	db  *pgxpool.Pool
	log zerolog.Logger
}

// NewPGRepository creates a new PostgreSQL-backed role repository.
func NewPGRepository(db *pgxpool.Pool, logger zerolog.Logger) *PGRepository {
	return &PGRepository{db: db, log: logger}
}

// List returns all roles ordered by position.
func (r *PGRepository) List(ctx context.Context) ([]Role, error) {
	rows, err := r.db.Query(ctx,
		"SELECT id, name, position, created_at, updated_at FROM roles ORDER BY position",
	)
	if err != nil {
		return nil, fmt.Errorf("query roles: %w", err)
	}
	defer rows.Close()

	var roles []Role
	for rows.Next() {
		var role Role
		if err := rows.Scan(&role.ID, &role.Name, &role.Position, &role.CreatedAt, &role.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan role: %w", err)
		}
		roles = append(roles, role)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate roles: %w", err)
	}
	return roles, nil
}

// Memberships returns every (role, user) assignment grouped by role ID. Roles without members do not appear in the
// result; SeedMembership fills those in from List.
func (r *PGRepository) Memberships(ctx context.Context) (map[uuid.UUID][]uuid.UUID, error) {
	rows, err := r.db.Query(ctx, "SELECT role_id, user_id FROM member_roles")
	if err != nil {
		return nil, fmt.Errorf("query member roles: %w", err)
	}
	defer rows.Close()

	membership := make(map[uuid.UUID][]uuid.UUID)
	for rows.Next() {
		var roleID, userID uuid.UUID
		if err := rows.Scan(&roleID, &userID); err != nil {
			return nil, fmt.Errorf("scan member role: %w", err)
		}
		membership[roleID] = append(membership[roleID], userID)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate member roles: %w", err)
	}
	return membership, nil
}
