package notify

import (
	"context"
	"testing"
	"time"

	"github.com/carecircle/carecircle_api/internal/availability"
	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

type fakeStore struct {
	members []Member
	admin   Member
	adminOK bool
	days    map[uuid.UUID][]availability.DaySlots
}

func (f *fakeStore) GetCircleMembersWithTokens(_ context.Context, _ uuid.UUID) ([]Member, error) {
	return f.members, nil
}

func (f *fakeStore) GetCircleAdmin(_ context.Context, _ uuid.UUID) (Member, error) {
	if !f.adminOK {
		return Member{}, errors.New("no admin")
	}
	return f.admin, nil
}

func (f *fakeStore) GetAvailability(_ context.Context, memberID, _ uuid.UUID) ([]availability.DaySlots, error) {
	return f.days[memberID], nil
}

func quietLogger() *logrus.Logger {
	l := logrus.New()
	l.SetLevel(logrus.PanicLevel)
	return l
}

func TestResolveDedupesAdminAndExcludesSender(t *testing.T) {
	alice := Member{ID: uuid.New(), Name: "Alice", Tokens: []string{"tok-a"}}
	bob := Member{ID: uuid.New(), Name: "Bob", Tokens: []string{"tok-b"}}

	store := &fakeStore{
		members: []Member{alice, bob},
		admin:   alice, // admin also a regular member row
		adminOK: true,
	}
	r := NewResolver(store, quietLogger())

	got, err := r.Resolve(context.Background(), uuid.New(), bob.ID, "", nil)
	if err != nil {
		t.Fatalf("Resolve returned error: %v", err)
	}
	if len(got) != 1 {
		t.Fatalf("got %d members, want 1 (alice once, bob excluded)", len(got))
	}
	if got[0].ID != alice.ID {
		t.Errorf("resolved member = %v, want alice", got[0].ID)
	}
}

func TestResolveAdminOnlyPath(t *testing.T) {
	admin := Member{ID: uuid.New(), Name: "Admin", Tokens: []string{"tok-adm"}}
	store := &fakeStore{members: nil, admin: admin, adminOK: true}
	r := NewResolver(store, quietLogger())

	got, err := r.Resolve(context.Background(), uuid.New(), uuid.New(), "", nil)
	if err != nil {
		t.Fatalf("Resolve returned error: %v", err)
	}
	if len(got) != 1 || got[0].ID != admin.ID {
		t.Fatalf("admin reachable only via creator path should be resolved, got %v", got)
	}
}

func TestResolveSkillFilterCaseInsensitive(t *testing.T) {
	gardener := Member{ID: uuid.New(), Tokens: []string{"t1"}, Skills: []string{"Jardinage"}}
	cook := Member{ID: uuid.New(), Tokens: []string{"t2"}, Skills: []string{"Cuisine", "Lecture"}}

	store := &fakeStore{members: []Member{gardener, cook}}
	r := NewResolver(store, quietLogger())

	got, err := r.Resolve(context.Background(), uuid.New(), uuid.New(), "cuisine", nil)
	if err != nil {
		t.Fatalf("Resolve returned error: %v", err)
	}
	if len(got) != 1 || got[0].ID != cook.ID {
		t.Fatalf("skill filter should keep only the cook, got %v", got)
	}
}

func TestResolveAvailabilityFilter(t *testing.T) {
	// 2026-01-05 is a Monday.
	due := time.Date(2026, 1, 5, 14, 0, 0, 0, time.UTC)

	onDuty := Member{ID: uuid.New(), Tokens: []string{"t1"}}
	offDuty := Member{ID: uuid.New(), Tokens: []string{"t2"}}

	store := &fakeStore{
		members: []Member{onDuty, offDuty},
		days: map[uuid.UUID][]availability.DaySlots{
			onDuty.ID: {{Day: time.Monday, Slots: []availability.Slot{{Start: "12:00", End: "18:00"}}}},
			// offDuty declared nothing for Monday
			offDuty.ID: {{Day: time.Sunday, Slots: []availability.Slot{{Start: "09:00", End: "17:00"}}}},
		},
	}
	r := NewResolver(store, quietLogger())

	got, err := r.Resolve(context.Background(), uuid.New(), uuid.New(), "", &due)
	if err != nil {
		t.Fatalf("Resolve returned error: %v", err)
	}
	if len(got) != 1 || got[0].ID != onDuty.ID {
		t.Fatalf("availability filter should keep only the on-duty member, got %v", got)
	}
}

func TestResolveEmptyIsNotAnError(t *testing.T) {
	store := &fakeStore{}
	r := NewResolver(store, quietLogger())

	got, err := r.Resolve(context.Background(), uuid.New(), uuid.New(), "Médical", nil)
	if err != nil {
		t.Fatalf("empty resolution must not be an error, got %v", err)
	}
	if len(got) != 0 {
		t.Fatalf("expected empty set, got %v", got)
	}
}

func TestResolveSkipsTokenlessMembers(t *testing.T) {
	tokenless := Member{ID: uuid.New(), Name: "NoPhone"}
	store := &fakeStore{members: []Member{tokenless}}
	r := NewResolver(store, quietLogger())

	got, err := r.Resolve(context.Background(), uuid.New(), uuid.New(), "", nil)
	if err != nil {
		t.Fatalf("Resolve returned error: %v", err)
	}
	if len(got) != 0 {
		t.Fatalf("member without tokens should not be notifiable, got %v", got)
	}
}

func TestTokensDedup(t *testing.T) {
	a := Member{ID: uuid.New(), Tokens: []string{"shared", "only-a"}}
	b := Member{ID: uuid.New(), Tokens: []string{"shared", ""}}

	tokens := Tokens([]Member{a, b})
	if len(tokens) != 2 {
		t.Fatalf("Tokens = %v, want [shared only-a]", tokens)
	}
	seen := map[string]bool{}
	for _, tok := range tokens {
		if seen[tok] {
			t.Fatalf("duplicate token %q in %v", tok, tokens)
		}
		seen[tok] = true
	}
}
