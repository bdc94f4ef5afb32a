package role

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
)

type fakeRepository struct {
	roles       []Role
	membership  map[uuid.UUID][]uuid.UUID
	listErr     error
	memberErr   error
	listCalls   int
	memberCalls int
}

func (f *fakeRepository) List(context.Context) ([]Role, error) {
	f.listCalls++
	return f.roles, f.listErr
}

func (f *fakeRepository) Memberships(context.Context) (map[uuid.UUID][]uuid.UUID, error) {
	f.memberCalls++
	return f.membership, f.memberErr
}

func TestSeedMembershipIncludesEmptyRoles(t *testing.T) {
	t.Parallel()

	admins := uuid.New()
	moderators := uuid.New()
	alice := uuid.New()
	bob := uuid.New()

	repo := &fakeRepository{
		roles: []Role{
			{ID: admins, Name: "admins"},
			{ID: moderators, Name: "moderators"},
		},
		membership: map[uuid.UUID][]uuid.UUID{
			admins: {alice, bob},
		},
	}

	seed, err := SeedMembership(context.Background(), repo)
	if err != nil {
		t.Fatalf("SeedMembership() error = %v", err)
	}

	if len(seed) != 2 {
		t.Fatalf("seed has %d roles, want 2", len(seed))
	}
	if got := seed[admins]; len(got) != 2 {
		t.Errorf("admins has %d members, want 2", len(got))
	}
	members, ok := seed[moderators]
	if !ok {
		t.Fatal("memberless role missing from seed")
	}
	if len(members) != 0 {
		t.Errorf("moderators has %d members, want 0", len(members))
	}
}

func TestSeedMembershipPropagatesErrors(t *testing.T) {
	t.Parallel()

	listErr := errors.New("list failed")
	repo := &fakeRepository{listErr: listErr}

	if _, err := SeedMembership(context.Background(), repo); !errors.Is(err, listErr) {
		t.Errorf("SeedMembership() error = %v, want %v", err, listErr)
	}
	if repo.memberCalls != 0 {
		t.Error("Memberships called after List failed")
	}

	memberErr := errors.New("memberships failed")
	repo = &fakeRepository{roles: []Role{{ID: uuid.New()}}, memberErr: memberErr}

	if _, err := SeedMembership(context.Background(), repo); !errors.Is(err, memberErr) {
		t.Errorf("SeedMembership() error = %v, want %v", err, memberErr)
	}
}
