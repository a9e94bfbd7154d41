package staff

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRecord_WireFieldNames(t *testing.T) {
	rec := &Record{
		XP:              61.5,
		VoiceTime:       150_000,
		TicketsClosed:   2,
		LastXPTime:      1_700_000_090_000,
		LastVoiceXPTime: 1_700_000_120_000,
	}

	data, err := json.Marshal(rec)
	require.NoError(t, err)

	var doc map[string]any
	require.NoError(t, json.Unmarshal(data, &doc))
	assert.Contains(t, doc, "xp")
	assert.Contains(t, doc, "voiceTime")
	assert.Contains(t, doc, "ticketsClosed")
	assert.Contains(t, doc, "lastXPTime")
	assert.Contains(t, doc, "lastVoiceXPTime")
}

func TestRecord_ZeroTimestampsOmitted(t *testing.T) {
	data, err := json.Marshal(NewRecord())
	require.NoError(t, err)

	var doc map[string]any
	require.NoError(t, json.Unmarshal(data, &doc))
	assert.NotContains(t, doc, "lastXPTime")
	assert.NotContains(t, doc, "lastVoiceXPTime")
}

func TestRecord_LastGrantAt_ZeroMeansNever(t *testing.T) {
	rec := NewRecord()
	assert.True(t, rec.LastMessageGrantAt().IsZero())
	assert.True(t, rec.LastVoiceGrantAt().IsZero())

	now := time.UnixMilli(1_700_000_000_000)
	rec.MarkMessageGrant(now)
	assert.Equal(t, now.UnixMilli(), rec.LastMessageGrantAt().UnixMilli())
}

func TestRecord_AddVoiceTime_IgnoresNonPositive(t *testing.T) {
	rec := NewRecord()
	rec.AddVoiceTime(-time.Second)
	rec.AddVoiceTime(0)
	assert.Zero(t, rec.VoiceTime)

	rec.AddVoiceTime(90 * time.Second)
	assert.Equal(t, int64(90_000), rec.VoiceTime)
}

func TestRecord_Validate(t *testing.T) {
	assert.NoError(t, (&Record{}).Validate())
	assert.Error(t, (&Record{XP: -1}).Validate())
	assert.Error(t, (&Record{VoiceTime: -1}).Validate())
	assert.Error(t, (&Record{TicketsClosed: -1}).Validate())
}

func TestCooldownAllows(t *testing.T) {
	base := time.UnixMilli(1_700_000_000_000)
	rec := NewRecord()

	assert.True(t, CooldownAllows(base, rec, time.Minute), "never granted always allows")

	rec.MarkMessageGrant(base)
	assert.False(t, CooldownAllows(base.Add(59*time.Second), rec, time.Minute))
	assert.True(t, CooldownAllows(base.Add(60*time.Second), rec, time.Minute),
		"elapsed == cooldown allows")
	assert.True(t, CooldownAllows(base.Add(61*time.Second), rec, time.Minute))
}

func TestVoiceGrantDue(t *testing.T) {
	base := time.UnixMilli(1_700_000_000_000)
	rec := NewRecord()

	assert.True(t, VoiceGrantDue(base, rec, time.Minute), "never granted counts as due")

	rec.MarkVoiceGrant(base)
	assert.False(t, VoiceGrantDue(base.Add(30*time.Second), rec, time.Minute))
	assert.True(t, VoiceGrantDue(base.Add(time.Minute), rec, time.Minute))
}

func TestVoiceSession_CreditBookkeeping(t *testing.T) {
	base := time.UnixMilli(1_700_000_000_000)
	sess := NewVoiceSession("room-1", base)

	assert.Zero(t, sess.Uncredited(base))
	assert.Equal(t, 90*time.Second, sess.Uncredited(base.Add(90*time.Second)))

	// A tick credits one interval; only the tail remains un-credited.
	sess.AdvanceCredit(time.Minute, base.Add(90*time.Second))
	assert.Equal(t, 30*time.Second, sess.Uncredited(base.Add(90*time.Second)))

	// Elapsed tracks the full session regardless of crediting.
	assert.Equal(t, 90*time.Second, sess.Elapsed(base.Add(90*time.Second)))
}

func TestVoiceSession_AdvanceCreditCappedAtNow(t *testing.T) {
	base := time.UnixMilli(1_700_000_000_000)
	sess := NewVoiceSession("room-1", base)

	now := base.Add(30 * time.Second)
	sess.AdvanceCredit(time.Minute, now)
	assert.Zero(t, sess.Uncredited(now), "credit never extends into the future")
	assert.Equal(t, now, sess.CreditedAt)
}

func TestRoomMap_PartitionStaysDisjoint(t *testing.T) {
	rooms := NewRoomMap("afk")
	rooms.Assign(GroupSupport, "r1", "r2")
	rooms.Assign(GroupInterview, "r1")

	assert.Equal(t, GroupInterview, rooms.GroupOf("r1"), "reassignment moves the room")
	assert.Equal(t, GroupSupport, rooms.GroupOf("r2"))
	assert.Equal(t, GroupNone, rooms.GroupOf("unknown"))
	assert.True(t, rooms.IsAFK("afk"))
	assert.False(t, rooms.IsAFK("r1"))
}

func TestAwards_Deltas(t *testing.T) {
	a := DefaultAwards()

	assert.Equal(t, 1.0, a.MessageDelta(GroupNone))
	assert.Equal(t, 31.0, a.MessageDelta(GroupSupport))
	assert.Equal(t, 31.0, a.MessageDelta(GroupInterview))

	assert.Equal(t, 0.5, a.VoiceTickDelta(GroupNone))
	assert.Equal(t, 1.0, a.VoiceTickDelta(GroupSupport))
	assert.Equal(t, 0.75, a.VoiceTickDelta(GroupActiveStaff),
		"hourly bonus spreads to 1/60 per minute grant")
}

func TestRoster(t *testing.T) {
	r := NewRoster([]UserID{"a", "b", ""})
	assert.Equal(t, 2, r.Len(), "empty IDs are dropped")
	assert.True(t, r.IsEligible("a"))
	assert.False(t, r.IsEligible("c"))
}
