package staff

import "context"

// ══════════════════════════════════════════════════════════════════════════════
// PORTS
// The accrual engine depends on these small interfaces; infrastructure
// provides the implementations and tests substitute fixtures.
// ══════════════════════════════════════════════════════════════════════════════

// Store loads and saves the full set of records as one flat document.
//
// Load fails softly: a missing or malformed backing resource yields an empty
// map and a logged warning, never a startup failure. Save overwrites the
// whole document atomically from a reader's perspective and is idempotent.
type Store interface {
	Load(ctx context.Context) (map[UserID]*Record, error)
	Save(ctx context.Context, records map[UserID]*Record) error
}

// EligibilityChecker answers whether an actor currently holds a privileged
// designation. The engine does not own role membership; it is an external
// capability query injected at construction.
type EligibilityChecker interface {
	IsEligible(id UserID) bool
}

// EligibilityFunc adapts a predicate function to EligibilityChecker.
type EligibilityFunc func(id UserID) bool

// IsEligible implements EligibilityChecker.
func (f EligibilityFunc) IsEligible(id UserID) bool {
	return f(id)
}

// Roster is a fixed-set EligibilityChecker backed by a list of user IDs.
type Roster struct {
	ids map[UserID]struct{}
}

// NewRoster builds a roster from a list of eligible user IDs.
func NewRoster(ids []UserID) *Roster {
	r := &Roster{ids: make(map[UserID]struct{}, len(ids))}
	for _, id := range ids {
		if id.IsValid() {
			r.ids[id] = struct{}{}
		}
	}
	return r
}

// IsEligible implements EligibilityChecker.
func (r *Roster) IsEligible(id UserID) bool {
	_, ok := r.ids[id]
	return ok
}

// Len returns the roster size.
func (r *Roster) Len() int {
	return len(r.ids)
}

// Presence is one (user, voice room) pair reported by the platform.
type Presence struct {
	User UserID
	Room RoomID
}

// PresenceProvider lists everyone currently present in voice rooms. The
// periodic voice ticker polls this instead of trusting event-driven session
// state, so a user present across a process restart keeps earning from the
// next tick onward.
type PresenceProvider interface {
	ListPresent(ctx context.Context) ([]Presence, error)
}

// PresenceFunc adapts a function to PresenceProvider.
type PresenceFunc func(ctx context.Context) ([]Presence, error)

// ListPresent implements PresenceProvider.
func (f PresenceFunc) ListPresent(ctx context.Context) ([]Presence, error) {
	return f(ctx)
}
