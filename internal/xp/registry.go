package xp

import (
	"github.com/gca-hub/gca-staff-hub/internal/domain/staff"
)

// registry is the in-memory mapping from user identity to a record. It owns
// get-or-create semantics and preserves insertion order so leaderboard ties
// break in a stable way within one process lifetime.
//
// The registry is not safe for concurrent use on its own; the engine's mutex
// is the single serialization point for all mutations.
type registry struct {
	records map[staff.UserID]*staff.Record
	order   []staff.UserID
}

func newRegistry(initial map[staff.UserID]*staff.Record) *registry {
	r := &registry{
		records: make(map[staff.UserID]*staff.Record, len(initial)),
		order:   make([]staff.UserID, 0, len(initial)),
	}
	for id, rec := range initial {
		if !id.IsValid() || rec == nil {
			continue
		}
		r.records[id] = rec
		r.order = append(r.order, id)
	}
	return r
}

// getOrCreate returns the mutable record for a user, creating a fresh zero
// record on first touch.
func (r *registry) getOrCreate(id staff.UserID) *staff.Record {
	if rec, ok := r.records[id]; ok {
		return rec
	}
	rec := staff.NewRecord()
	r.records[id] = rec
	r.order = append(r.order, id)
	return rec
}

// get returns the record if present.
func (r *registry) get(id staff.UserID) (*staff.Record, bool) {
	rec, ok := r.records[id]
	return rec, ok
}

// reset removes a single record. Returns true if one existed.
func (r *registry) reset(id staff.UserID) bool {
	if _, ok := r.records[id]; !ok {
		return false
	}
	delete(r.records, id)
	for i, other := range r.order {
		if other == id {
			r.order = append(r.order[:i], r.order[i+1:]...)
			break
		}
	}
	return true
}

// resetAll clears the mapping and returns how many records were dropped.
func (r *registry) resetAll() int {
	n := len(r.records)
	r.records = make(map[staff.UserID]*staff.Record)
	r.order = r.order[:0]
	return n
}

// list returns (id, record) pairs in insertion order.
func (r *registry) list() []entry {
	out := make([]entry, 0, len(r.order))
	for _, id := range r.order {
		if rec, ok := r.records[id]; ok {
			out = append(out, entry{id: id, record: rec})
		}
	}
	return out
}

// snapshot returns a deep copy of the mapping for persistence outside the
// engine lock.
func (r *registry) snapshot() map[staff.UserID]*staff.Record {
	out := make(map[staff.UserID]*staff.Record, len(r.records))
	for id, rec := range r.records {
		out[id] = rec.Clone()
	}
	return out
}

// size returns the number of records.
func (r *registry) size() int {
	return len(r.records)
}

// entry is an (id, record) pair used internally by list().
type entry struct {
	id     staff.UserID
	record *staff.Record
}
