package redis

import (
	"context"
	"log/slog"
	"time"

	"github.com/gca-hub/gca-staff-hub/internal/domain/shared"
	"github.com/gca-hub/gca-staff-hub/internal/domain/staff"
)

// StatsSource is the slice of the engine the mirror handler reads from.
type StatsSource interface {
	Stats(user staff.UserID) *staff.Record
}

// MirrorEventHandler keeps the leaderboard mirror incrementally fresh from
// domain events and announces grants on pub/sub. Mirror failures are logged
// and swallowed: the periodic rebuild job reconciles any drift.
type MirrorEventHandler struct {
	mirror  *LeaderboardMirror
	source  StatsSource
	logger  *slog.Logger
	timeout time.Duration
}

// NewMirrorEventHandler creates the handler.
func NewMirrorEventHandler(mirror *LeaderboardMirror, source StatsSource, logger *slog.Logger) *MirrorEventHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &MirrorEventHandler{
		mirror:  mirror,
		source:  source,
		logger:  logger,
		timeout: 3 * time.Second,
	}
}

// Handle implements shared.EventHandler.
func (h *MirrorEventHandler) Handle(event shared.Event) error {
	ctx, cancel := context.WithTimeout(context.Background(), h.timeout)
	defer cancel()

	switch ev := event.(type) {
	case shared.XPGrantedEvent:
		rec := h.source.Stats(staff.UserID(ev.UserID))
		if err := h.mirror.UpdateEntry(ctx, MirrorEntry{
			UserID:        ev.UserID,
			XP:            rec.XP,
			VoiceTimeMs:   rec.VoiceTime,
			TicketsClosed: rec.TicketsClosed,
		}); err != nil {
			h.logger.Warn("mirror update failed", "user_id", ev.UserID, "error", err)
		}
		if err := h.mirror.PublishGrant(ctx, GrantNotification{
			UserID:     ev.UserID,
			Amount:     ev.Amount,
			Reason:     ev.Reason,
			Total:      ev.Total,
			OccurredAt: ev.OccurredAt(),
		}); err != nil {
			h.logger.Warn("grant publish failed", "user_id", ev.UserID, "error", err)
		}

	case shared.RecordResetEvent:
		if err := h.mirror.Remove(ctx, ev.UserID); err != nil {
			h.logger.Warn("mirror remove failed", "user_id", ev.UserID, "error", err)
		}

	case shared.RecordsResetEvent:
		if err := h.mirror.Clear(ctx); err != nil {
			h.logger.Warn("mirror clear failed", "error", err)
		}
	}
	return nil
}
