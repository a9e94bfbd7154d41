package presenter

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gca-hub/gca-staff-hub/internal/domain/staff"
	"github.com/gca-hub/gca-staff-hub/internal/xp"
)

func TestFormatLeaderboard(t *testing.T) {
	p := NewLeaderboardPresenter()
	board := []xp.LeaderboardEntry{
		{Rank: 1, User: "u1", XP: 61.9, VoiceTime: 150_000, TicketsClosed: 2},
		{Rank: 2, User: "u2", XP: 20, TicketsClosed: 1},
	}

	view := p.FormatLeaderboard(board, map[string]string{"u1": "Aida"})
	require.NotNil(t, view)
	assert.Equal(t, "HTML", view.ParseMode)
	assert.Contains(t, view.Text, "🥇")
	assert.Contains(t, view.Text, "Aida")
	assert.Contains(t, view.Text, "61 XP", "fractional xp displays floored")
	assert.Contains(t, view.Text, "u2", "missing display names fall back to the ID")
}

func TestFormatLeaderboard_Empty(t *testing.T) {
	view := NewLeaderboardPresenter().FormatLeaderboard(nil, nil)
	assert.Contains(t, view.Text, "Nobody has earned XP yet")
}

func TestFormatLeaderboard_Truncates(t *testing.T) {
	p := NewLeaderboardPresenter()
	p.MaxEntries = 2

	board := []xp.LeaderboardEntry{
		{Rank: 1, User: "u1", XP: 3},
		{Rank: 2, User: "u2", XP: 2},
		{Rank: 3, User: "u3", XP: 1},
	}
	view := p.FormatLeaderboard(board, nil)
	assert.NotContains(t, view.Text, "u3")
	assert.Contains(t, view.Text, "and 1 more")
}

func TestFormatCard(t *testing.T) {
	now := time.UnixMilli(1_700_000_300_000)
	rec := &staff.Record{
		XP:            61.9,
		VoiceTime:     3*3_600_000 + 12*60_000,
		TicketsClosed: 2,
		LastXPTime:    1_700_000_000_000,
	}

	view := NewStaffCardPresenter().FormatCard("Aida <3", "u1", rec, now)
	assert.Contains(t, view.Text, "Aida &lt;3", "display names are escaped")
	assert.Contains(t, view.Text, "61", "fractional xp displays floored")
	assert.Contains(t, view.Text, "3h 12m")
	assert.Contains(t, view.Text, "5m ago")
	assert.Contains(t, view.Text, "never", "no voice grant yet")
}
