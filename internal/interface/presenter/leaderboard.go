package presenter

import (
	"fmt"
	"math"
	"strings"

	"github.com/gca-hub/gca-staff-hub/internal/xp"
	"github.com/gca-hub/gca-staff-hub/pkg/timeutil"
)

// LeaderboardPresenter formats the staff ranking.
type LeaderboardPresenter struct {
	// MaxEntries bounds the rendered rows; 0 means all.
	MaxEntries int
}

// NewLeaderboardPresenter creates the presenter.
func NewLeaderboardPresenter() *LeaderboardPresenter {
	return &LeaderboardPresenter{MaxEntries: 10}
}

// FormatLeaderboard renders the ranking, best first.
func (p *LeaderboardPresenter) FormatLeaderboard(board []xp.LeaderboardEntry, names map[string]string) *View {
	var sb strings.Builder

	sb.WriteString("🏆 <b>Staff Leaderboard</b>\n\n")

	if len(board) == 0 {
		sb.WriteString("📭 <i>Nobody has earned XP yet</i>\n")
		return &View{Text: sb.String(), ParseMode: "HTML"}
	}

	limit := len(board)
	if p.MaxEntries > 0 && limit > p.MaxEntries {
		limit = p.MaxEntries
	}

	for _, entry := range board[:limit] {
		name := names[entry.User.String()]
		if name == "" {
			name = entry.User.String()
		}
		sb.WriteString(fmt.Sprintf("%s %s • <code>%d XP</code> • %s • 🎟 %d\n",
			rankBadge(entry.Rank),
			escapeHTML(name),
			int64(math.Floor(entry.XP)),
			timeutil.FormatVoiceTime(entry.VoiceTime),
			entry.TicketsClosed,
		))
	}

	if len(board) > limit {
		sb.WriteString(fmt.Sprintf("\n<i>…and %d more</i>\n", len(board)-limit))
	}

	return &View{Text: sb.String(), ParseMode: "HTML"}
}

// rankBadge renders medal emoji for the podium and plain numbers below it.
func rankBadge(rank int) string {
	switch rank {
	case 1:
		return "🥇"
	case 2:
		return "🥈"
	case 3:
		return "🥉"
	default:
		return fmt.Sprintf("%d.", rank)
	}
}
