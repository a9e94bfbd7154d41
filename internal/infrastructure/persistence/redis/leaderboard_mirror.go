package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// Key layout of the mirror:
//   - Sorted set "staffhub:lb:xp" maps user ID -> XP for rank queries
//   - Hash "staffhub:lb:info" maps user ID -> MirrorEntry JSON
//   - Channel "staffhub:events:xp" carries grant notifications
const (
	keyLeaderboardXP   = "staffhub:lb:xp"
	keyLeaderboardInfo = "staffhub:lb:info"
	channelXPEvents    = "staffhub:events:xp"
)

// MirrorEntry is one mirrored leaderboard row.
type MirrorEntry struct {
	UserID        string  `json:"user_id"`
	XP            float64 `json:"xp"`
	VoiceTimeMs   int64   `json:"voice_time_ms"`
	TicketsClosed int     `json:"tickets_closed"`
	Rank          int     `json:"rank,omitempty"`
}

// LeaderboardMirror maintains the Redis read model of the staff ranking.
// Every write is best-effort from the caller's perspective: a mirror failure
// must never affect accrual, so callers log the error and move on.
type LeaderboardMirror struct {
	client *Client
}

// NewLeaderboardMirror creates a mirror on the given client.
func NewLeaderboardMirror(client *Client) *LeaderboardMirror {
	return &LeaderboardMirror{client: client}
}

// UpdateEntry upserts a single row. O(log N) on the sorted set.
func (m *LeaderboardMirror) UpdateEntry(ctx context.Context, entry MirrorEntry) error {
	data, err := json.Marshal(entry)
	if err != nil {
		return fmt.Errorf("marshal mirror entry: %w", err)
	}

	pipe := m.client.rdb.Pipeline()
	pipe.ZAdd(ctx, keyLeaderboardXP, redis.Z{Score: entry.XP, Member: entry.UserID})
	pipe.HSet(ctx, keyLeaderboardInfo, entry.UserID, data)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("update mirror entry: %w", err)
	}
	return nil
}

// Rebuild replaces the whole mirror with the given rows in one pipeline.
// Removes rows that no longer exist (after resets).
func (m *LeaderboardMirror) Rebuild(ctx context.Context, entries []MirrorEntry) error {
	pipe := m.client.rdb.Pipeline()
	pipe.Del(ctx, keyLeaderboardXP, keyLeaderboardInfo)
	for _, entry := range entries {
		data, err := json.Marshal(entry)
		if err != nil {
			return fmt.Errorf("marshal mirror entry %s: %w", entry.UserID, err)
		}
		pipe.ZAdd(ctx, keyLeaderboardXP, redis.Z{Score: entry.XP, Member: entry.UserID})
		pipe.HSet(ctx, keyLeaderboardInfo, entry.UserID, data)
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("rebuild mirror: %w", err)
	}
	return nil
}

// Top returns the highest-ranked rows, best first.
func (m *LeaderboardMirror) Top(ctx context.Context, limit int) ([]MirrorEntry, error) {
	if limit <= 0 {
		limit = 10
	}

	ids, err := m.client.rdb.ZRevRange(ctx, keyLeaderboardXP, 0, int64(limit-1)).Result()
	if err != nil {
		return nil, fmt.Errorf("mirror top: %w", err)
	}
	if len(ids) == 0 {
		return nil, nil
	}

	raw, err := m.client.rdb.HMGet(ctx, keyLeaderboardInfo, ids...).Result()
	if err != nil {
		return nil, fmt.Errorf("mirror info: %w", err)
	}

	out := make([]MirrorEntry, 0, len(ids))
	for i, v := range raw {
		s, ok := v.(string)
		if !ok {
			continue
		}
		var entry MirrorEntry
		if err := json.Unmarshal([]byte(s), &entry); err != nil {
			continue
		}
		entry.Rank = i + 1
		out = append(out, entry)
	}
	return out, nil
}

// Rank returns a user's 1-based position, or ErrNotMirrored.
func (m *LeaderboardMirror) Rank(ctx context.Context, userID string) (int64, error) {
	rank, err := m.client.rdb.ZRevRank(ctx, keyLeaderboardXP, userID).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return 0, ErrNotMirrored
		}
		return 0, fmt.Errorf("mirror rank: %w", err)
	}
	return rank + 1, nil
}

// Remove drops a single row (after a per-user reset).
func (m *LeaderboardMirror) Remove(ctx context.Context, userID string) error {
	pipe := m.client.rdb.Pipeline()
	pipe.ZRem(ctx, keyLeaderboardXP, userID)
	pipe.HDel(ctx, keyLeaderboardInfo, userID)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("remove mirror entry: %w", err)
	}
	return nil
}

// Clear empties the mirror (after a global reset).
func (m *LeaderboardMirror) Clear(ctx context.Context) error {
	if err := m.client.rdb.Del(ctx, keyLeaderboardXP, keyLeaderboardInfo).Err(); err != nil {
		return fmt.Errorf("clear mirror: %w", err)
	}
	return nil
}

// GrantNotification is the pub/sub payload for one grant.
type GrantNotification struct {
	UserID     string    `json:"user_id"`
	Amount     float64   `json:"amount"`
	Reason     string    `json:"reason"`
	Total      float64   `json:"total"`
	OccurredAt time.Time `json:"occurred_at"`
}

// PublishGrant announces a grant on the pub/sub channel so sibling services
// can react without polling the mirror.
func (m *LeaderboardMirror) PublishGrant(ctx context.Context, n GrantNotification) error {
	data, err := json.Marshal(n)
	if err != nil {
		return fmt.Errorf("marshal grant notification: %w", err)
	}
	if err := m.client.rdb.Publish(ctx, channelXPEvents, data).Err(); err != nil {
		return fmt.Errorf("publish grant: %w", err)
	}
	return nil
}
