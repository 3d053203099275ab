package notify

import (
	"context"
	"strings"
	"time"

	"github.com/carecircle/carecircle_api/internal/availability"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// Member is a notifiable circle member as seen by the targeting logic.
type Member struct {
	ID     uuid.UUID
	Name   string
	Tokens []string
	Skills []string
}

// Store is the narrow read surface the resolver needs.
type Store interface {
	GetCircleMembersWithTokens(ctx context.Context, circleID uuid.UUID) ([]Member, error)
	GetCircleAdmin(ctx context.Context, circleID uuid.UUID) (Member, error)
	GetAvailability(ctx context.Context, memberID, circleID uuid.UUID) ([]availability.DaySlots, error)
}

// Resolver computes the set of members a notification should reach. Chat
// notifications call Resolve with no skill and no due time (whole circle minus
// the author); task and reminder notifications pass the task's constraints.
type Resolver struct {
	store  Store
	logger *logrus.Logger
}

func NewResolver(store Store, logger *logrus.Logger) *Resolver {
	return &Resolver{store: store, logger: logger}
}

// Resolve merges circle members with the circle admin, drops the excluded
// member, dedupes by member id, then applies the optional skill and
// availability filters. An empty result is a valid outcome, not an error.
func (r *Resolver) Resolve(ctx context.Context, circleID, exclude uuid.UUID, requiredSkill string, dueAt *time.Time) ([]Member, error) {
	members, err := r.store.GetCircleMembersWithTokens(ctx, circleID)
	if err != nil {
		return nil, err
	}

	// The creator/admin may not appear as a regular member row; merge it in.
	// A missing admin is tolerated, membership rows alone still resolve.
	if admin, err := r.store.GetCircleAdmin(ctx, circleID); err != nil {
		r.logger.WithError(err).WithField("circle_id", circleID).Debug("no circle admin row")
	} else {
		members = append(members, admin)
	}

	seen := make(map[uuid.UUID]bool, len(members))
	out := make([]Member, 0, len(members))

	for _, m := range members {
		if m.ID == exclude || seen[m.ID] {
			continue
		}
		seen[m.ID] = true

		if len(m.Tokens) == 0 {
			continue
		}
		if requiredSkill != "" && !hasSkill(m.Skills, requiredSkill) {
			continue
		}
		if dueAt != nil {
			days, err := r.store.GetAvailability(ctx, m.ID, circleID)
			if err != nil {
				// Treat a failed lookup as unavailable rather than failing
				// the whole resolution.
				r.logger.WithError(err).WithFields(logrus.Fields{
					"circle_id": circleID,
					"member_id": m.ID,
				}).Warn("availability lookup failed")
				continue
			}
			if !availability.IsAvailableAt(days, *dueAt) {
				continue
			}
		}

		out = append(out, m)
	}

	return out, nil
}

func hasSkill(skills []string, want string) bool {
	for _, s := range skills {
		if strings.EqualFold(strings.TrimSpace(s), strings.TrimSpace(want)) {
			return true
		}
	}
	return false
}

// Tokens flattens a resolved member set into a deduplicated token list. Two
// members sharing a token (one of them stale) yield a single delivery.
func Tokens(members []Member) []string {
	seen := make(map[string]bool)
	var out []string
	for _, m := range members {
		for _, t := range m.Tokens {
			if t == "" || seen[t] {
				continue
			}
			seen[t] = true
			out = append(out, t)
		}
	}
	return out
}
