package gateway

import (
	"sync"

	"github.com/google/uuid"
)

// RoleUserIndex maps role IDs to the set of users holding each role. It is seeded once from persistent storage at
// startup and thereafter maintained exclusively through the REST-side hooks below; the dispatcher reads it under
// short read locks when resolving bulk targets.
//
// Invariant: every role known to the persistence layer has an entry, possibly empty, so that publishing to a role
// with no members is a clean no-op rather than a miss.
type RoleUserIndex struct {
	mu    sync.RWMutex
	roles map[uuid.UUID]map[uuid.UUID]struct{}
}

// NewRoleUserIndex returns an empty index.
func NewRoleUserIndex() *RoleUserIndex {
	return &RoleUserIndex{roles: make(map[uuid.UUID]map[uuid.UUID]struct{})}
}

// Seed loads the role membership read from the database at startup. Roles with no members must still appear as keys
// with empty slices.
func (idx *RoleUserIndex) Seed(membership map[uuid.UUID][]uuid.UUID) {
	idx.mu.Lock()
	defer idx.mu.Unlock()
	for roleID, userIDs := range membership {
		set := make(map[uuid.UUID]struct{}, len(userIDs))
		for _, userID := range userIDs {
			set[userID] = struct{}{}
		}
		idx.roles[roleID] = set
	}
}

// RoleAdded registers a newly created role with no members.
func (idx *RoleUserIndex) RoleAdded(roleID uuid.UUID) {
	idx.mu.Lock()
	defer idx.mu.Unlock()
	if _, ok := idx.roles[roleID]; !ok {
		idx.roles[roleID] = make(map[uuid.UUID]struct{})
	}
}

// RoleDeleted removes a role and its member set.
func (idx *RoleUserIndex) RoleDeleted(roleID uuid.UUID) {
	idx.mu.Lock()
	defer idx.mu.Unlock()
	delete(idx.roles, roleID)
}

// MemberRoleAdded records that a user gained a role. The role entry is created if the REST side races ahead of a
// RoleAdded call.
func (idx *RoleUserIndex) MemberRoleAdded(userID, roleID uuid.UUID) {
	idx.mu.Lock()
	defer idx.mu.Unlock()
	set, ok := idx.roles[roleID]
	if !ok {
		set = make(map[uuid.UUID]struct{})
		idx.roles[roleID] = set
	}
	set[userID] = struct{}{}
}

// MemberRoleRemoved records that a user lost a role.
func (idx *RoleUserIndex) MemberRoleRemoved(userID, roleID uuid.UUID) {
	idx.mu.Lock()
	defer idx.mu.Unlock()
	if set, ok := idx.roles[roleID]; ok {
		delete(set, userID)
	}
}

// UserDeleted removes a user from every role's member set.
func (idx *RoleUserIndex) UserDeleted(userID uuid.UUID) {
	idx.mu.Lock()
	defer idx.mu.Unlock()
	for _, set := range idx.roles {
		delete(set, userID)
	}
}

// Members returns the users holding the given role. Unknown roles yield an empty slice.
func (idx *RoleUserIndex) Members(roleID uuid.UUID) []uuid.UUID {
	idx.mu.RLock()
	defer idx.mu.RUnlock()
	set := idx.roles[roleID]
	members := make([]uuid.UUID, 0, len(set))
	for userID := range set {
		members = append(members, userID)
	}
	return members
}

// RoleCount returns the number of indexed roles.
func (idx *RoleUserIndex) RoleCount() int {
	idx.mu.RLock()
	defer idx.mu.RUnlock()
	return len(idx.roles)
}
