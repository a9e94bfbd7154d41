package xp

import (
	"context"
	"errors"
	"io"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gca-hub/gca-staff-hub/internal/domain/shared"
	"github.com/gca-hub/gca-staff-hub/internal/domain/staff"
	"github.com/gca-hub/gca-staff-hub/pkg/logger"
)

// ──────────────────────────────────────────────────────────────────────────────
// FIXTURES
// ──────────────────────────────────────────────────────────────────────────────

type memStore struct {
	mu      sync.Mutex
	initial map[staff.UserID]*staff.Record
	saved   map[staff.UserID]*staff.Record
	saves   int
	saveErr error
}

func (s *memStore) Load(context.Context) (map[staff.UserID]*staff.Record, error) {
	if s.initial == nil {
		return make(map[staff.UserID]*staff.Record), nil
	}
	return s.initial, nil
}

func (s *memStore) Save(_ context.Context, records map[staff.UserID]*staff.Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.saveErr != nil {
		return s.saveErr
	}
	s.saved = records
	s.saves++
	return nil
}

func (s *memStore) lastSaved() map[staff.UserID]*staff.Record {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.saved
}

type captureBus struct {
	mu     sync.Mutex
	events []shared.Event
}

func (b *captureBus) Publish(ev shared.Event) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.events = append(b.events, ev)
	return nil
}

func (b *captureBus) ofType(t shared.EventType) []shared.Event {
	b.mu.Lock()
	defer b.mu.Unlock()
	var out []shared.Event
	for _, ev := range b.events {
		if ev.EventType() == t {
			out = append(out, ev)
		}
	}
	return out
}

type fakeClock struct {
	mu sync.Mutex
	t  time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{t: time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *fakeClock) advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.t = c.t.Add(d)
}

const (
	roomGeneral   = staff.RoomID("room-general")
	roomSupport   = staff.RoomID("room-support")
	roomInterview = staff.RoomID("room-interview")
	roomAFK       = staff.RoomID("room-afk")
)

func testRooms() *staff.RoomMap {
	rooms := staff.NewRoomMap(roomAFK)
	rooms.Assign(staff.GroupSupport, roomSupport)
	rooms.Assign(staff.GroupInterview, roomInterview)
	return rooms
}

type testEnv struct {
	engine  *Engine
	store   *memStore
	bus     *captureBus
	clock   *fakeClock
	present []staff.Presence
}

// newTestEnv wires a presence scanner backed by env.present. newTrackerEnv
// wires no scanner at all, so ticks fall back to event-tracked sessions.
func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	env := &testEnv{}
	scanner := staff.PresenceFunc(func(context.Context) ([]staff.Presence, error) {
		return env.present, nil
	})
	buildEngine(t, env, scanner)
	return env
}

func newTrackerEnv(t *testing.T) *testEnv {
	t.Helper()
	env := &testEnv{}
	buildEngine(t, env, nil)
	return env
}

func buildEngine(t *testing.T, env *testEnv, scanner staff.PresenceProvider) {
	t.Helper()
	env.store = &memStore{}
	env.bus = &captureBus{}
	env.clock = newFakeClock()
	roster := staff.NewRoster([]staff.UserID{"mod-1", "mod-2", "mod-3"})
	log := logger.New(logger.Options{Output: io.Discard, Level: logger.LevelFatal})
	env.engine = New(env.store, roster, scanner, env.bus, log, Config{
		Awards: staff.DefaultAwards(),
		Rooms:  testRooms(),
		Clock:  env.clock.now,
	})
	t.Cleanup(func() { _ = env.engine.Close(context.Background()) })
}

// ──────────────────────────────────────────────────────────────────────────────
// MESSAGE GRANTS
// ──────────────────────────────────────────────────────────────────────────────

func TestOnMessage_CooldownSuppression(t *testing.T) {
	env := newTestEnv(t)

	// Messages at t=0s, 30s, 90s with a 60s cooldown: grants at 0s and 90s,
	// the 30s message is suppressed.
	assert.Equal(t, 1.0, env.engine.OnMessage("mod-1", roomGeneral))
	env.clock.advance(30 * time.Second)
	assert.Equal(t, 0.0, env.engine.OnMessage("mod-1", roomGeneral))
	env.clock.advance(60 * time.Second)
	assert.Equal(t, 1.0, env.engine.OnMessage("mod-1", roomGeneral))

	assert.Equal(t, 2.0, env.engine.Stats("mod-1").XP)
}

func TestOnMessage_ExactCooldownBoundaryAllows(t *testing.T) {
	env := newTestEnv(t)

	env.engine.OnMessage("mod-1", roomGeneral)
	env.clock.advance(60 * time.Second)
	assert.Equal(t, 1.0, env.engine.OnMessage("mod-1", roomGeneral),
		"elapsed == cooldown must allow")
}

func TestOnMessage_ClassifiedRoomBonus(t *testing.T) {
	env := newTestEnv(t)

	assert.Equal(t, 31.0, env.engine.OnMessage("mod-1", roomSupport))
	env.clock.advance(time.Minute)
	assert.Equal(t, 31.0, env.engine.OnMessage("mod-1", roomInterview))

	assert.Equal(t, 62.0, env.engine.Stats("mod-1").XP)
}

func TestOnMessage_IneligibleActorIgnored(t *testing.T) {
	env := newTestEnv(t)

	assert.Zero(t, env.engine.OnMessage("outsider", roomSupport))
	assert.Zero(t, env.engine.Stats("outsider").XP)
}

func TestOnMessage_UpdatesCooldownTimestampWithGrant(t *testing.T) {
	env := newTestEnv(t)

	env.engine.OnMessage("mod-1", roomGeneral)
	rec := env.engine.Stats("mod-1")
	assert.Equal(t, env.clock.now().UnixMilli(), rec.LastXPTime)

	// A suppressed message must not move the timestamp.
	env.clock.advance(10 * time.Second)
	env.engine.OnMessage("mod-1", roomGeneral)
	assert.Equal(t, rec.LastXPTime, env.engine.Stats("mod-1").LastXPTime)
}

// ──────────────────────────────────────────────────────────────────────────────
// WORKFLOW GRANTS
// ──────────────────────────────────────────────────────────────────────────────

func TestOnTicketClosed_CountsAndPays(t *testing.T) {
	env := newTestEnv(t)

	env.engine.OnTicketClosed("mod-1")
	env.engine.OnTicketClosed("mod-1")

	rec := env.engine.Stats("mod-1")
	assert.Equal(t, 2, rec.TicketsClosed)
	assert.Equal(t, 40.0, rec.XP, "xp increases by exactly two ticket bonuses")
}

func TestWorkflowGrants_SameMagnitudeEitherVerdict(t *testing.T) {
	env := newTestEnv(t)

	approved := env.engine.OnStoryApproved("mod-1")
	rejected := env.engine.OnStoryRejected("mod-1")
	assert.Equal(t, approved, rejected)

	env.engine.OnCallAnswered("mod-1")
	assert.Equal(t, 90.0, env.engine.Stats("mod-1").XP)
}

func TestWorkflowGrants_NotCooldownGated(t *testing.T) {
	env := newTestEnv(t)

	// Three discrete events back to back all pay, unlike messages.
	env.engine.OnTicketClosed("mod-1")
	env.engine.OnTicketClosed("mod-1")
	env.engine.OnStoryApproved("mod-1")
	assert.Equal(t, 70.0, env.engine.Stats("mod-1").XP)
}

// ──────────────────────────────────────────────────────────────────────────────
// QUERIES AND RESETS
// ──────────────────────────────────────────────────────────────────────────────

func TestStats_UnknownUserIsFreshZeroRecord(t *testing.T) {
	env := newTestEnv(t)

	rec := env.engine.Stats("mod-2")
	require.NotNil(t, rec)
	assert.Zero(t, rec.XP)
	assert.Zero(t, rec.VoiceTime)
	assert.Zero(t, rec.TicketsClosed)
}

func TestStats_ReturnsSnapshotNotHandle(t *testing.T) {
	env := newTestEnv(t)

	env.engine.OnTicketClosed("mod-1")
	snap := env.engine.Stats("mod-1")
	snap.XP = 9999

	assert.Equal(t, 20.0, env.engine.Stats("mod-1").XP)
}

func TestLeaderboard_SortedByXPDescending(t *testing.T) {
	env := newTestEnv(t)

	env.engine.OnTicketClosed("mod-1")                  // 20
	env.engine.OnStoryApproved("mod-2")                 // 30
	env.engine.OnMessage("mod-3", roomGeneral)          // 1

	board := env.engine.Leaderboard()
	require.Len(t, board, 3)
	assert.Equal(t, staff.UserID("mod-2"), board[0].User)
	assert.Equal(t, 1, board[0].Rank)
	assert.Equal(t, staff.UserID("mod-1"), board[1].User)
	assert.Equal(t, staff.UserID("mod-3"), board[2].User)
	assert.Equal(t, 3, board[2].Rank)
}

func TestResetOne_RemovesOnlyThatRecord(t *testing.T) {
	env := newTestEnv(t)

	env.engine.OnTicketClosed("mod-1")
	env.engine.OnTicketClosed("mod-2")

	env.engine.ResetOne("mod-1")

	assert.Zero(t, env.engine.Stats("mod-1").XP, "reset user starts fresh")
	assert.Equal(t, 20.0, env.engine.Stats("mod-2").XP, "other records untouched")
}

func TestResetAll_EmptiesLeaderboard(t *testing.T) {
	env := newTestEnv(t)

	env.engine.OnTicketClosed("mod-1")
	env.engine.OnStoryApproved("mod-2")

	env.engine.ResetAll()
	assert.Empty(t, env.engine.Leaderboard())
}

// ──────────────────────────────────────────────────────────────────────────────
// PERSISTENCE
// ──────────────────────────────────────────────────────────────────────────────

func TestClose_FlushesFinalState(t *testing.T) {
	env := newTestEnv(t)

	env.engine.OnTicketClosed("mod-1")
	require.NoError(t, env.engine.Close(context.Background()))

	saved := env.store.lastSaved()
	require.Contains(t, saved, staff.UserID("mod-1"))
	assert.Equal(t, 20.0, saved["mod-1"].XP)
}

func TestFlush_SaveFailureNeverRollsBack(t *testing.T) {
	env := newTestEnv(t)
	env.store.mu.Lock()
	env.store.saveErr = errors.New("disk full")
	env.store.mu.Unlock()

	env.engine.OnTicketClosed("mod-1")
	err := env.engine.Flush(context.Background())
	assert.Error(t, err)
	assert.True(t, shared.IsSaveFailure(err))

	// In-memory grant survives; the next flush retries.
	assert.Equal(t, 20.0, env.engine.Stats("mod-1").XP)
	env.store.mu.Lock()
	env.store.saveErr = nil
	env.store.mu.Unlock()
	assert.NoError(t, env.engine.Flush(context.Background()))
}

func TestNew_LoadsExistingRecords(t *testing.T) {
	store := &memStore{initial: map[staff.UserID]*staff.Record{
		"mod-1": {XP: 55.5, VoiceTime: 120_000, TicketsClosed: 3},
	}}
	log := logger.New(logger.Options{Output: io.Discard, Level: logger.LevelFatal})
	e := New(store, staff.NewRoster([]staff.UserID{"mod-1"}), nil, nil, log, Config{
		Awards: staff.DefaultAwards(),
		Rooms:  testRooms(),
	})
	t.Cleanup(func() { _ = e.Close(context.Background()) })

	rec := e.Stats("mod-1")
	assert.Equal(t, 55.5, rec.XP)
	assert.Equal(t, int64(120_000), rec.VoiceTime)
	assert.Equal(t, 3, rec.TicketsClosed)
}

// ──────────────────────────────────────────────────────────────────────────────
// EVENTS
// ──────────────────────────────────────────────────────────────────────────────

func TestGrants_PublishXPGrantedEvents(t *testing.T) {
	env := newTestEnv(t)

	env.engine.OnMessage("mod-1", roomSupport)
	env.engine.OnTicketClosed("mod-1")

	granted := env.bus.ofType(shared.EventXPGranted)
	require.Len(t, granted, 2)
	first, ok := granted[0].(shared.XPGrantedEvent)
	require.True(t, ok)
	assert.Equal(t, "mod-1", first.UserID)
	assert.Equal(t, 31.0, first.Amount)
	assert.Equal(t, string(staff.ReasonMessage), first.Reason)
}
