// Package role reads role definitions and member assignments from PostgreSQL. The gateway only needs the membership
// map at startup to seed its in-memory role index; all writes happen through the REST API, which notifies the gateway
// via its index hooks.
package role

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
)

// ErrNotFound is returned when a role does not exist.
var ErrNotFound = errors.New("role not found")

// Role holds the fields read from the database.
type Role struct {
	ID        uuid.UUID
	Name      string
	Position  int
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Repository defines the data-access contract for role operations.
type Repository interface {
	List(ctx context.Context) ([]Role, error)
	Memberships(ctx context.Context) (map[uuid.UUID][]uuid.UUID, error)
}

// SeedMembership combines the role list with the membership pairs so that every role appears as a key, including
// roles with no members. Publishing to a memberless role must resolve to zero recipients, not to a missing entry.
func SeedMembership(ctx context.Context, repo Repository) (map[uuid.UUID][]uuid.UUID, error) {
	roles, err := repo.List(ctx)
	if err != nil {
		return nil, err
	}

	membership, err := repo.Memberships(ctx)
	if err != nil {
		return nil, err
	}

	seed := make(map[uuid.UUID][]uuid.UUID, len(roles))
	for _, r := range roles {
		seed[r.ID] = membership[r.ID]
	}
	return seed, nil
}
