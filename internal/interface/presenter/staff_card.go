// Package presenter formats engine data for chat display. Presenters handle
// the conversion from domain objects to user-facing messages with lightweight
// HTML markup; the transport adapter decides where the text ends up.
package presenter

import (
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/gca-hub/gca-staff-hub/internal/domain/staff"
	"github.com/gca-hub/gca-staff-hub/pkg/timeutil"
)

// View is a formatted message ready for a chat transport.
type View struct {
	// Text is the message body (with HTML markup).
	Text string

	// ParseMode is the markup mode.
	ParseMode string
}

// StaffCardPresenter formats a single member's accrual card.
type StaffCardPresenter struct{}

// NewStaffCardPresenter creates the presenter.
func NewStaffCardPresenter() *StaffCardPresenter {
	return &StaffCardPresenter{}
}

// FormatCard renders one member's stats. XP is shown as a whole number even
// though voice accrual makes it fractional internally.
func (p *StaffCardPresenter) FormatCard(name string, user staff.UserID, rec *staff.Record, now time.Time) *View {
	var sb strings.Builder

	sb.WriteString(fmt.Sprintf("📊 <b>%s</b>\n\n", escapeHTML(name)))
	sb.WriteString(fmt.Sprintf("⭐ XP: <code>%d</code>\n", int64(math.Floor(rec.XP))))
	sb.WriteString(fmt.Sprintf("🎧 Voice time: <code>%s</code>\n", timeutil.FormatVoiceTime(rec.VoiceTime)))
	sb.WriteString(fmt.Sprintf("🎟 Tickets closed: <code>%d</code>\n", rec.TicketsClosed))

	sb.WriteString(fmt.Sprintf("\n💬 Last message XP: %s",
		timeutil.FormatRelative(rec.LastMessageGrantAt(), now)))
	sb.WriteString(fmt.Sprintf("\n🔊 Last voice XP: %s",
		timeutil.FormatRelative(rec.LastVoiceGrantAt(), now)))

	return &View{Text: sb.String(), ParseMode: "HTML"}
}

// escapeHTML escapes the characters with meaning in chat HTML markup.
func escapeHTML(s string) string {
	s = strings.ReplaceAll(s, "&", "&amp;")
	s = strings.ReplaceAll(s, "<", "&lt;")
	s = strings.ReplaceAll(s, ">", "&gt;")
	return s
}
