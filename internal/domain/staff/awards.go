package staff

import "time"

// ══════════════════════════════════════════════════════════════════════════════
// ROOM CLASSIFICATION
// ══════════════════════════════════════════════════════════════════════════════

// RoomGroup names a class of monitored rooms. Rooms are partitioned into
// disjoint groups; a room belongs to at most one group or none.
type RoomGroup string

const (
	// GroupNone marks an unclassified room (base awards only).
	GroupNone RoomGroup = ""

	// GroupInterview covers interview rooms.
	GroupInterview RoomGroup = "interview"

	// GroupSupport covers support rooms.
	GroupSupport RoomGroup = "support"

	// GroupActiveStaff covers the active-staff voice rooms.
	GroupActiveStaff RoomGroup = "active-staff"
)

// IsValid checks if the room group is a known classification.
func (g RoomGroup) IsValid() bool {
	switch g {
	case GroupNone, GroupInterview, GroupSupport, GroupActiveStaff:
		return true
	default:
		return false
	}
}

// RoomMap holds the room-to-group partition plus the designated AFK room.
// The AFK room never earns voice XP.
type RoomMap struct {
	groups map[RoomID]RoomGroup
	afk    RoomID
}

// NewRoomMap creates an empty room map with the given AFK room (may be "").
func NewRoomMap(afk RoomID) *RoomMap {
	return &RoomMap{
		groups: make(map[RoomID]RoomGroup),
		afk:    afk,
	}
}

// Assign places rooms into a group. Assigning a room again moves it: the
// partition stays disjoint.
func (m *RoomMap) Assign(group RoomGroup, rooms ...RoomID) {
	for _, r := range rooms {
		if !r.IsValid() {
			continue
		}
		m.groups[r] = group
	}
}

// GroupOf returns the group of a room, or GroupNone for unclassified rooms.
func (m *RoomMap) GroupOf(room RoomID) RoomGroup {
	return m.groups[room]
}

// IsAFK reports whether the room is the designated away/parked room.
func (m *RoomMap) IsAFK(room RoomID) bool {
	return m.afk != "" && room == m.afk
}

// ══════════════════════════════════════════════════════════════════════════════
// AWARD TABLE
// ══════════════════════════════════════════════════════════════════════════════

// GrantReason labels why XP was added, for events and logs.
type GrantReason string

const (
	ReasonMessage       GrantReason = "message"
	ReasonVoice         GrantReason = "voice"
	ReasonTicketClose   GrantReason = "ticket_close"
	ReasonStoryApproved GrantReason = "story_approved"
	ReasonStoryRejected GrantReason = "story_rejected"
	ReasonCallResponse  GrantReason = "call_response"
	ReasonWorkflow      GrantReason = "workflow"
)

// Awards is the tunable constant set of the accrual engine. Message and
// voice bonuses for the same room group are independent knobs: voice bonuses
// are hourly figures spread over per-minute ticks, message bonuses are flat.
type Awards struct {
	// MessageXP is the base unit for a qualifying message.
	MessageXP float64

	// VoiceXPPerMinute is the base voice accrual per ticker grant.
	VoiceXPPerMinute float64

	// TicketCloseXP is the flat bonus for closing a ticket.
	TicketCloseXP float64

	// StoryReviewXP is the flat bonus for approving or rejecting a story.
	// The signal rewarded is "a staff member acted", not the verdict, so
	// both outcomes pay the same.
	StoryReviewXP float64

	// CallResponseXP is the flat bonus for answering a staff call.
	CallResponseXP float64

	// MessageBonus is the flat extra message XP per room group.
	MessageBonus map[RoomGroup]float64

	// VoiceHourlyBonus is the extra voice XP per hour of presence per room
	// group. Each ticker grant pays 1/60 of it.
	VoiceHourlyBonus map[RoomGroup]float64

	// MessageCooldown is the minimum spacing between message grants.
	MessageCooldown time.Duration

	// VoiceTickInterval is the period of the voice accrual ticker and the
	// presence time credited per grant.
	VoiceTickInterval time.Duration
}

// DefaultAwards returns the production award table.
func DefaultAwards() Awards {
	return Awards{
		MessageXP:        1,
		VoiceXPPerMinute: 0.5,
		TicketCloseXP:    20,
		StoryReviewXP:    30,
		CallResponseXP:   30,
		MessageBonus: map[RoomGroup]float64{
			GroupInterview: 30,
			GroupSupport:   30,
		},
		VoiceHourlyBonus: map[RoomGroup]float64{
			GroupInterview:   30,
			GroupSupport:     30,
			GroupActiveStaff: 15,
		},
		MessageCooldown:   time.Minute,
		VoiceTickInterval: time.Minute,
	}
}

// MessageDelta returns the XP for one qualifying message in a room group.
func (a Awards) MessageDelta(group RoomGroup) float64 {
	return a.MessageXP + a.MessageBonus[group]
}

// VoiceTickDelta returns the XP for one periodic voice grant in a room group.
func (a Awards) VoiceTickDelta(group RoomGroup) float64 {
	return a.VoiceXPPerMinute + a.VoiceHourlyBonus[group]/60
}

// ══════════════════════════════════════════════════════════════════════════════
// COOLDOWN GATE
// ══════════════════════════════════════════════════════════════════════════════

// CooldownAllows decides whether a message-triggered grant is currently
// allowed. Allow holds when the cooldown has fully elapsed since the last
// grant; a never-granted record (zero timestamp) always allows.
func CooldownAllows(now time.Time, r *Record, cooldown time.Duration) bool {
	if r.LastXPTime == 0 {
		return true
	}
	return now.Sub(r.LastMessageGrantAt()) >= cooldown
}

// VoiceGrantDue decides whether the periodic ticker owes this record a voice
// grant. An absent last-grant timestamp counts as "interval elapsed".
func VoiceGrantDue(now time.Time, r *Record, interval time.Duration) bool {
	if r.LastVoiceXPTime == 0 {
		return true
	}
	return now.Sub(r.LastVoiceGrantAt()) >= interval
}
