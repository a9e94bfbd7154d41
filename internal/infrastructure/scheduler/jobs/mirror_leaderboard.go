package jobs

import (
	"context"
	"fmt"

	redisinfra "github.com/gca-hub/gca-staff-hub/internal/infrastructure/persistence/redis"
	"github.com/gca-hub/gca-staff-hub/internal/xp"
)

// LeaderboardSource is the slice of the engine the mirror job needs.
type LeaderboardSource interface {
	Leaderboard() []xp.LeaderboardEntry
}

// MirrorLeaderboardJob rebuilds the Redis leaderboard mirror from engine
// state. Incremental updates flow through the grant event handler; this job
// reconciles drift (missed events, resets, restarts) with a full rebuild.
type MirrorLeaderboardJob struct {
	source LeaderboardSource
	mirror *redisinfra.LeaderboardMirror
}

// NewMirrorLeaderboardJob creates the job.
func NewMirrorLeaderboardJob(source LeaderboardSource, mirror *redisinfra.LeaderboardMirror) *MirrorLeaderboardJob {
	return &MirrorLeaderboardJob{source: source, mirror: mirror}
}

// Name implements scheduler.Job.
func (j *MirrorLeaderboardJob) Name() string {
	return "mirror_leaderboard"
}

// Description implements scheduler.Job.
func (j *MirrorLeaderboardJob) Description() string {
	return "Rebuilds the Redis leaderboard read model from engine state"
}

// Run implements scheduler.Job.
func (j *MirrorLeaderboardJob) Run(ctx context.Context) error {
	board := j.source.Leaderboard()
	entries := make([]redisinfra.MirrorEntry, 0, len(board))
	for _, row := range board {
		entries = append(entries, redisinfra.MirrorEntry{
			UserID:        row.User.String(),
			XP:            row.XP,
			VoiceTimeMs:   row.VoiceTime,
			TicketsClosed: row.TicketsClosed,
			Rank:          row.Rank,
		})
	}
	if err := j.mirror.Rebuild(ctx, entries); err != nil {
		return fmt.Errorf("mirror leaderboard: %w", err)
	}
	return nil
}
