package xp

import (
	"time"

	"github.com/gca-hub/gca-staff-hub/internal/domain/staff"
)

// tracker owns the ephemeral voice sessions. One session per user, states
// Absent / Present(room, joinedAt, creditedAt). Like the registry it relies
// on the engine's mutex for serialization.
type tracker struct {
	sessions map[staff.UserID]*staff.VoiceSession
}

func newTracker() *tracker {
	return &tracker{sessions: make(map[staff.UserID]*staff.VoiceSession)}
}

// join opens a session. No time is credited at this transition: the elapsed
// duration is zero by definition. Joining while already present replaces the
// session and forfeits any un-credited span (the platform should have sent a
// switch or leave first; trusting the newest event keeps the tracker
// self-healing).
func (t *tracker) join(user staff.UserID, room staff.RoomID, now time.Time) {
	t.sessions[user] = staff.NewVoiceSession(room, now)
}

// leave closes the session and returns the room and the un-credited span to
// add to the record's voice total. A leave with no open session is a no-op
// (lost join across a restart); the second return is false.
func (t *tracker) leave(user staff.UserID, now time.Time) (staff.RoomID, time.Duration, bool) {
	sess, ok := t.sessions[user]
	if !ok {
		return "", 0, false
	}
	delete(t.sessions, user)
	return sess.Room, sess.Uncredited(now), true
}

// switchRoom rolls the session over to a new room: the un-credited span in
// the old room is returned for crediting and the session reopens at now.
// With no open session the switch degrades to a join (the prior room was
// never observed), returning credited=false.
func (t *tracker) switchRoom(user staff.UserID, room staff.RoomID, now time.Time) (staff.RoomID, time.Duration, bool) {
	sess, ok := t.sessions[user]
	if !ok {
		t.join(user, room, now)
		return "", 0, false
	}
	prevRoom := sess.Room
	credited := sess.Uncredited(now)
	t.sessions[user] = staff.NewVoiceSession(room, now)
	return prevRoom, credited, true
}

// session returns the open session for a user, if any.
func (t *tracker) session(user staff.UserID) (*staff.VoiceSession, bool) {
	sess, ok := t.sessions[user]
	return sess, ok
}

// size returns the number of open sessions.
func (t *tracker) size() int {
	return len(t.sessions)
}

// listPresent reports the tracker's own sessions as platform presence. This
// is the fallback PresenceProvider when no live platform scan is wired; a
// real platform adapter should replace it, since event-derived sessions do
// not survive restarts.
func (t *tracker) listPresent() []staff.Presence {
	out := make([]staff.Presence, 0, len(t.sessions))
	for user, sess := range t.sessions {
		out = append(out, staff.Presence{User: user, Room: sess.Room})
	}
	return out
}
