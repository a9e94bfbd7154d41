// Package xp implements the staff experience accrual engine: the single
// component that decides whether, how much, and how often XP is added for
// each activity signal, keeps the running totals, and reconstructs voice
// presence from discrete join/leave/switch events.
//
// The engine is the only entry point external collaborators use. All
// registry and tracker mutations are serialized behind one mutex; the
// periodic voice ticker and the persistence flusher call through the same
// facade, so scheduled work never races event handlers on shared state.
package xp

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/gca-hub/gca-staff-hub/internal/domain/shared"
	"github.com/gca-hub/gca-staff-hub/internal/domain/staff"
	"github.com/gca-hub/gca-staff-hub/pkg/logger"
)

// ══════════════════════════════════════════════════════════════════════════════
// ENGINE
// ══════════════════════════════════════════════════════════════════════════════

// Config contains the tunables of the engine.
type Config struct {
	// Awards is the award table (defaults via staff.DefaultAwards).
	Awards staff.Awards

	// Rooms is the room classification map.
	Rooms *staff.RoomMap

	// Clock overrides the time source (tests). Defaults to time.Now.
	Clock func() time.Time
}

// Engine composes the record registry, cooldown gate, voice presence
// tracker, and periodic voice accrual behind one mutex.
type Engine struct {
	mu      sync.Mutex
	reg     *registry
	voice   *tracker
	awards  staff.Awards
	rooms   *staff.RoomMap
	roster  staff.EligibilityChecker
	scanner staff.PresenceProvider
	store   staff.Store
	bus     shared.EventPublisher
	log     *logger.Logger
	now     func() time.Time

	dirty  chan struct{}
	quit   chan struct{}
	closed bool
	wg     sync.WaitGroup
}

// New creates the engine, loads the durable document, and starts the
// asynchronous flusher. A load failure is recovered by starting from an
// empty record set; it never fails startup.
//
// scanner may be nil, in which case the ticker falls back to the engine's
// own event-tracked sessions (a live platform scan is strictly better: it
// survives restarts).
func New(
	store staff.Store,
	roster staff.EligibilityChecker,
	scanner staff.PresenceProvider,
	bus shared.EventPublisher,
	log *logger.Logger,
	cfg Config,
) *Engine {
	if cfg.Awards.VoiceTickInterval == 0 {
		cfg.Awards = staff.DefaultAwards()
	}
	if cfg.Rooms == nil {
		cfg.Rooms = staff.NewRoomMap("")
	}
	if cfg.Clock == nil {
		cfg.Clock = time.Now
	}
	if bus == nil {
		bus = shared.NopPublisher{}
	}
	if log == nil {
		log = logger.Default()
	}

	initial, err := store.Load(context.Background())
	if err != nil {
		// Recoverable by contract: substitute an empty mapping.
		log.Warn("record load failed, starting empty", logger.Err(err))
		initial = make(map[staff.UserID]*staff.Record)
	}

	e := &Engine{
		reg:     newRegistry(initial),
		voice:   newTracker(),
		awards:  cfg.Awards,
		rooms:   cfg.Rooms,
		roster:  roster,
		scanner: scanner,
		store:   store,
		bus:     bus,
		log:     log.With(logger.Component("xp_engine")),
		now:     cfg.Clock,
		dirty:   make(chan struct{}, 1),
		quit:    make(chan struct{}),
	}

	e.wg.Add(1)
	go e.flushLoop()

	e.log.Info("engine started", logger.Int("records", e.reg.size()))
	return e
}

// ──────────────────────────────────────────────────────────────────────────────
// GRANT OPERATIONS
// ──────────────────────────────────────────────────────────────────────────────

// OnMessage handles a qualifying text message. The grant is cooldown-gated:
// within the cooldown window the message earns nothing. Returns the amount
// granted (0 when suppressed or ineligible).
func (e *Engine) OnMessage(user staff.UserID, room staff.RoomID) float64 {
	if !user.IsValid() || !e.roster.IsEligible(user) {
		return 0
	}
	now := e.now()

	e.mu.Lock()
	rec := e.reg.getOrCreate(user)
	if !staff.CooldownAllows(now, rec, e.awards.MessageCooldown) {
		e.mu.Unlock()
		return 0
	}
	delta := e.awards.MessageDelta(e.rooms.GroupOf(room))
	// The XP mutation and the timestamp update are one atomic pairing:
	// a grant without the timestamp would bypass future cooldowns.
	rec.AddXP(delta)
	rec.MarkMessageGrant(now)
	total := rec.XP
	e.mu.Unlock()

	e.publish(shared.NewXPGrantedEvent(user.String(), delta, string(staff.ReasonMessage), room.String(), total, now))
	e.markDirty()
	return delta
}

// OnTicketClosed handles a completed support workflow. Ungated: fires once
// per invocation.
func (e *Engine) OnTicketClosed(user staff.UserID) float64 {
	if !user.IsValid() || !e.roster.IsEligible(user) {
		return 0
	}
	now := e.now()

	e.mu.Lock()
	rec := e.reg.getOrCreate(user)
	rec.AddXP(e.awards.TicketCloseXP)
	rec.TicketsClosed++
	total := rec.XP
	e.mu.Unlock()

	e.publish(shared.NewXPGrantedEvent(user.String(), e.awards.TicketCloseXP, string(staff.ReasonTicketClose), "", total, now))
	e.markDirty()
	return e.awards.TicketCloseXP
}

// OnStoryApproved grants the story review bonus for an approval.
func (e *Engine) OnStoryApproved(user staff.UserID) float64 {
	return e.grantFlat(user, e.awards.StoryReviewXP, staff.ReasonStoryApproved)
}

// OnStoryRejected grants the story review bonus for a rejection. Approvals
// and rejections pay the same: the reward is for acting on the queue.
func (e *Engine) OnStoryRejected(user staff.UserID) float64 {
	return e.grantFlat(user, e.awards.StoryReviewXP, staff.ReasonStoryRejected)
}

// OnCallAnswered grants the call response bonus.
func (e *Engine) OnCallAnswered(user staff.UserID) float64 {
	return e.grantFlat(user, e.awards.CallResponseXP, staff.ReasonCallResponse)
}

// OnWorkflowCompleted grants the generic moderation workflow bonus. The
// named operations above are the usual entry points; this one exists for
// collaborators with workflow kinds of their own.
func (e *Engine) OnWorkflowCompleted(user staff.UserID) float64 {
	return e.grantFlat(user, e.awards.StoryReviewXP, staff.ReasonWorkflow)
}

// grantFlat is the shared path for ungated flat-bonus grants.
func (e *Engine) grantFlat(user staff.UserID, amount float64, reason staff.GrantReason) float64 {
	if !user.IsValid() || !e.roster.IsEligible(user) || amount <= 0 {
		return 0
	}
	now := e.now()

	e.mu.Lock()
	rec := e.reg.getOrCreate(user)
	rec.AddXP(amount)
	total := rec.XP
	e.mu.Unlock()

	e.publish(shared.NewXPGrantedEvent(user.String(), amount, string(reason), "", total, now))
	e.markDirty()
	return amount
}

// ──────────────────────────────────────────────────────────────────────────────
// VOICE PRESENCE
// ──────────────────────────────────────────────────────────────────────────────

// OnVoiceJoin handles a voice room join. Opens a session; no XP and no time
// is granted at this transition.
func (e *Engine) OnVoiceJoin(user staff.UserID, room staff.RoomID) {
	if !user.IsValid() || !room.IsValid() || !e.roster.IsEligible(user) {
		return
	}
	now := e.now()

	e.mu.Lock()
	e.voice.join(user, room, now)
	e.mu.Unlock()
}

// OnVoiceLeave handles a voice room leave: the un-credited presence span is
// added to the record's voice total and the session is dropped. Voice XP is
// never granted here; the periodic ticker is the sole source of voice XP.
func (e *Engine) OnVoiceLeave(user staff.UserID) {
	if !user.IsValid() || !e.roster.IsEligible(user) {
		return
	}
	now := e.now()

	e.mu.Lock()
	room, span, ok := e.voice.leave(user, now)
	if ok && span > 0 {
		e.reg.getOrCreate(user).AddVoiceTime(span)
	}
	e.mu.Unlock()

	if ok {
		e.publish(shared.NewVoiceSessionClosedEvent(user.String(), room.String(), span.Milliseconds(), false, now))
		e.markDirty()
	}
}

// OnVoiceSwitch handles a room-to-room move: the un-credited span in the old
// room is added to the voice total and the session reopens in the new room.
// A switch with no open session behaves like a join.
func (e *Engine) OnVoiceSwitch(user staff.UserID, room staff.RoomID) {
	if !user.IsValid() || !room.IsValid() || !e.roster.IsEligible(user) {
		return
	}
	now := e.now()

	e.mu.Lock()
	prev, span, credited := e.voice.switchRoom(user, room, now)
	if credited && span > 0 {
		e.reg.getOrCreate(user).AddVoiceTime(span)
	}
	e.mu.Unlock()

	if credited {
		e.publish(shared.NewVoiceSessionClosedEvent(user.String(), prev.String(), span.Milliseconds(), true, now))
		e.markDirty()
	}
}

// ──────────────────────────────────────────────────────────────────────────────
// PERIODIC VOICE ACCRUAL
// ──────────────────────────────────────────────────────────────────────────────

// TickVoice runs one pass of the periodic voice accrual: every eligible user
// currently present in a qualifying room (AFK excluded) whose last voice
// grant is at least one interval old earns the per-tick voice XP and one
// interval of voice time. Presence comes from the injected provider, so a
// user present across a restart keeps earning from the next tick onward.
//
// Returns the number of grants made.
func (e *Engine) TickVoice(ctx context.Context) (int, error) {
	now := e.now()

	var present []staff.Presence
	if e.scanner != nil {
		var err error
		present, err = e.scanner.ListPresent(ctx)
		if err != nil {
			e.log.Warn("presence scan failed, skipping tick", logger.Err(err))
			return 0, err
		}
	} else {
		e.mu.Lock()
		present = e.voice.listPresent()
		e.mu.Unlock()
	}

	interval := e.awards.VoiceTickInterval
	var events []shared.Event

	e.mu.Lock()
	granted := 0
	for _, p := range present {
		if !p.User.IsValid() || !e.roster.IsEligible(p.User) {
			continue
		}
		if e.rooms.IsAFK(p.Room) {
			continue
		}
		rec := e.reg.getOrCreate(p.User)
		if !staff.VoiceGrantDue(now, rec, interval) {
			continue
		}
		delta := e.awards.VoiceTickDelta(e.rooms.GroupOf(p.Room))
		rec.AddXP(delta)
		rec.AddVoiceTime(interval)
		rec.MarkVoiceGrant(now)

		// Keep event-driven bookkeeping in sync: the interval just added
		// to the voice total is marked credited on the open session, so a
		// later leave or switch only credits the remaining tail.
		if sess, ok := e.voice.session(p.User); ok {
			sess.AdvanceCredit(interval, now)
		}

		granted++
		events = append(events, shared.NewXPGrantedEvent(
			p.User.String(), delta, string(staff.ReasonVoice), p.Room.String(), rec.XP, now))
	}
	e.mu.Unlock()

	for _, ev := range events {
		e.publish(ev)
	}
	if granted > 0 {
		e.markDirty()
		e.log.Debug("voice tick complete",
			logger.Int("present", len(present)),
			logger.Int("granted", granted))
	}
	return granted, nil
}

// ──────────────────────────────────────────────────────────────────────────────
// QUERIES
// ──────────────────────────────────────────────────────────────────────────────

// LeaderboardEntry is one row of the ranking.
type LeaderboardEntry struct {
	Rank          int
	User          staff.UserID
	XP            float64
	VoiceTime     int64
	TicketsClosed int
}

// Stats returns a snapshot of a user's record. Unknown users get a fresh
// zero record - absence is never an error, and like any first touch it
// creates the record.
func (e *Engine) Stats(user staff.UserID) *staff.Record {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.reg.getOrCreate(user).Clone()
}

// Leaderboard returns all records ranked by XP descending. Ties keep the
// records' insertion order, which is stable within one process lifetime.
func (e *Engine) Leaderboard() []LeaderboardEntry {
	e.mu.Lock()
	pairs := e.reg.list()
	out := make([]LeaderboardEntry, 0, len(pairs))
	for _, p := range pairs {
		out = append(out, LeaderboardEntry{
			User:          p.id,
			XP:            p.record.XP,
			VoiceTime:     p.record.VoiceTime,
			TicketsClosed: p.record.TicketsClosed,
		})
	}
	e.mu.Unlock()

	sort.SliceStable(out, func(i, j int) bool { return out[i].XP > out[j].XP })
	for i := range out {
		out[i].Rank = i + 1
	}
	return out
}

// Snapshot returns a deep copy of the full record set, for archival and
// presentation layers that need more than the ranking.
func (e *Engine) Snapshot() map[staff.UserID]*staff.Record {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.reg.snapshot()
}

// OpenSessions returns the number of voice sessions currently tracked.
func (e *Engine) OpenSessions() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.voice.size()
}

// ──────────────────────────────────────────────────────────────────────────────
// RESETS
// ──────────────────────────────────────────────────────────────────────────────

// ResetOne removes a single user's record. History of other users is
// untouched; the next access recreates a fresh zero record.
func (e *Engine) ResetOne(user staff.UserID) {
	now := e.now()

	e.mu.Lock()
	existed := e.reg.reset(user)
	e.mu.Unlock()

	if existed {
		e.publish(shared.NewRecordResetEvent(user.String(), now))
		e.markDirty()
		e.log.Info("record reset", logger.StaffID(user.String()))
	}
}

// ResetAll clears every record.
func (e *Engine) ResetAll() {
	now := e.now()

	e.mu.Lock()
	n := e.reg.resetAll()
	e.mu.Unlock()

	e.publish(shared.NewRecordsResetEvent(n, now))
	e.markDirty()
	e.log.Info("all records reset", logger.Int("dropped", n))
}

// ──────────────────────────────────────────────────────────────────────────────
// PERSISTENCE
// ──────────────────────────────────────────────────────────────────────────────

// Flush writes the current record set to the durable store. A save failure
// is logged and swallowed: in-memory grants are never rolled back, and the
// next flush retries.
func (e *Engine) Flush(ctx context.Context) error {
	e.mu.Lock()
	snap := e.reg.snapshot()
	e.mu.Unlock()

	if err := e.store.Save(ctx, snap); err != nil {
		e.log.Error("record flush failed", logger.Err(err), logger.Int("records", len(snap)))
		return shared.WrapError("store", "Flush", shared.ErrSaveFailure, "flush failed", err)
	}
	return nil
}

// Close stops the flusher and performs one final synchronous save so a clean
// shutdown loses no data.
func (e *Engine) Close(ctx context.Context) error {
	e.mu.Lock()
	if e.closed {
		e.mu.Unlock()
		return nil
	}
	e.closed = true
	e.mu.Unlock()

	close(e.quit)
	e.wg.Wait()
	return e.Flush(ctx)
}

// markDirty signals the flusher. The cap-1 channel coalesces bursts: many
// grants between two flushes cost one save.
func (e *Engine) markDirty() {
	select {
	case e.dirty <- struct{}{}:
	default:
	}
}

// flushLoop is the single goroutine that performs fire-and-forget saves. It
// snapshots under the lock and writes outside it, so grant operations never
// block on disk.
func (e *Engine) flushLoop() {
	defer e.wg.Done()
	for {
		select {
		case <-e.quit:
			return
		case <-e.dirty:
			_ = e.Flush(context.Background())
		}
	}
}

// publish sends a domain event. Best-effort: subscriber failures are logged,
// never propagated into grant paths.
func (e *Engine) publish(ev shared.Event) {
	if err := e.bus.Publish(ev); err != nil {
		e.log.Warn("event publish failed",
			logger.String("event", string(ev.EventType())), logger.Err(err))
	}
}
