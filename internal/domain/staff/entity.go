// Package staff contains the domain model for staff experience accrual.
// This is the core of the business logic - there are no external
// dependencies here beyond the shared domain package.
package staff

import (
	"time"

	"github.com/gca-hub/gca-staff-hub/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// VALUE OBJECTS
// ══════════════════════════════════════════════════════════════════════════════

// UserID is the stable platform identity of a staff member.
type UserID string

// IsValid checks that the user ID is non-empty.
func (u UserID) IsValid() bool {
	return u != ""
}

// String returns the string representation of the user ID.
func (u UserID) String() string {
	return string(u)
}

// RoomID identifies a text or voice room on the platform.
type RoomID string

// IsValid checks that the room ID is non-empty.
func (r RoomID) IsValid() bool {
	return r != ""
}

// String returns the string representation of the room ID.
func (r RoomID) String() string {
	return string(r)
}

// ══════════════════════════════════════════════════════════════════════════════
// RECORD ENTITY
// ══════════════════════════════════════════════════════════════════════════════

// Record holds the running accrual totals for a single staff member.
//
// The JSON field names are the persisted wire contract and must not change:
// the durable store round-trips these records as one flat document keyed by
// user ID. Timestamps are epoch milliseconds; zero means "never".
type Record struct {
	// XP is the accumulated experience. Voice accrual adds fractional
	// per-minute amounts, so XP is a real number.
	XP float64 `json:"xp"`

	// VoiceTime is the accumulated qualifying voice presence in milliseconds.
	VoiceTime int64 `json:"voiceTime"`

	// TicketsClosed counts completed support workflows.
	TicketsClosed int `json:"ticketsClosed"`

	// LastXPTime is when the last message-triggered grant happened.
	LastXPTime int64 `json:"lastXPTime,omitempty"`

	// LastVoiceXPTime is when the periodic voice ticker last granted XP.
	LastVoiceXPTime int64 `json:"lastVoiceXPTime,omitempty"`
}

// NewRecord returns a fresh zero record.
func NewRecord() *Record {
	return &Record{}
}

// Clone returns an independent copy of the record.
func (r *Record) Clone() *Record {
	c := *r
	return &c
}

// AddXP adds a grant delta to the running total.
func (r *Record) AddXP(delta float64) {
	r.XP += delta
}

// AddVoiceTime adds a presence interval to the voice total.
func (r *Record) AddVoiceTime(d time.Duration) {
	if d <= 0 {
		return
	}
	r.VoiceTime += d.Milliseconds()
}

// MarkMessageGrant records the timestamp of a message-XP grant. The caller
// must pair this with the XP mutation under the same critical section:
// a grant without the timestamp update would bypass future cooldowns.
func (r *Record) MarkMessageGrant(now time.Time) {
	r.LastXPTime = now.UnixMilli()
}

// MarkVoiceGrant records the timestamp of a periodic voice grant.
func (r *Record) MarkVoiceGrant(now time.Time) {
	r.LastVoiceXPTime = now.UnixMilli()
}

// LastMessageGrantAt returns the last message-grant time, or the zero time
// if no grant has ever happened.
func (r *Record) LastMessageGrantAt() time.Time {
	if r.LastXPTime == 0 {
		return time.Time{}
	}
	return time.UnixMilli(r.LastXPTime)
}

// LastVoiceGrantAt returns the last periodic voice grant time, or the zero
// time if no grant has ever happened.
func (r *Record) LastVoiceGrantAt() time.Time {
	if r.LastVoiceXPTime == 0 {
		return time.Time{}
	}
	return time.UnixMilli(r.LastVoiceXPTime)
}

// VoiceDuration returns the accumulated voice time as a duration.
func (r *Record) VoiceDuration() time.Duration {
	return time.Duration(r.VoiceTime) * time.Millisecond
}

// Validate checks the record invariants: no counter may be negative.
func (r *Record) Validate() error {
	if r.XP < 0 || r.VoiceTime < 0 || r.TicketsClosed < 0 {
		return shared.ErrRecordCorrupted
	}
	return nil
}

// ══════════════════════════════════════════════════════════════════════════════
// VOICE SESSION
// ══════════════════════════════════════════════════════════════════════════════

// VoiceSession is the ephemeral per-user state of an ongoing voice presence.
// Sessions are never persisted: a restart loses them, and the periodic voice
// ticker is the compensating mechanism for users who remain present.
//
// CreditedAt marks the point up to which the session's elapsed time has
// already been added to the record's voice total (either by a switch or by a
// periodic grant). Leave and switch transitions credit only the span since
// CreditedAt, so ticker and event bookkeeping never count the same interval
// twice.
type VoiceSession struct {
	Room       RoomID
	JoinedAt   time.Time
	CreditedAt time.Time
}

// NewVoiceSession opens a session at the given instant.
func NewVoiceSession(room RoomID, now time.Time) *VoiceSession {
	return &VoiceSession{
		Room:       room,
		JoinedAt:   now,
		CreditedAt: now,
	}
}

// Uncredited returns the presence time not yet added to the voice total.
func (s *VoiceSession) Uncredited(now time.Time) time.Duration {
	d := now.Sub(s.CreditedAt)
	if d < 0 {
		return 0
	}
	return d
}

// AdvanceCredit moves the credited marker forward by the given span, capped
// at now so a long grant interval cannot credit future time.
func (s *VoiceSession) AdvanceCredit(span time.Duration, now time.Time) {
	next := s.CreditedAt.Add(span)
	if next.After(now) {
		next = now
	}
	s.CreditedAt = next
}

// Elapsed returns the total time since the session was opened.
func (s *VoiceSession) Elapsed(now time.Time) time.Duration {
	d := now.Sub(s.JoinedAt)
	if d < 0 {
		return 0
	}
	return d
}
