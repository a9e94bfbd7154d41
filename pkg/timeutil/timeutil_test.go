package timeutil

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestFormatVoiceTime(t *testing.T) {
	cases := []struct {
		ms   int64
		want string
	}{
		{0, "0m"},
		{59_000, "0m"},
		{60_000, "1m"},
		{42 * 60_000, "42m"},
		{3*3_600_000 + 12*60_000, "3h 12m"},
		{26 * 3_600_000, "1d 2h"},
		{2*24*3_600_000 + 5*3_600_000, "2d 5h"},
		{-500, "0m"},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, FormatVoiceTime(tc.ms), "ms=%d", tc.ms)
	}
}

func TestMillisRoundTrip(t *testing.T) {
	assert.Zero(t, Millis(time.Time{}))
	assert.True(t, FromMillis(0).IsZero())

	now := time.UnixMilli(1_700_000_000_123)
	assert.Equal(t, now.UnixMilli(), Millis(now))
	assert.Equal(t, now.UnixMilli(), FromMillis(Millis(now)).UnixMilli())
}

func TestFormatRelative(t *testing.T) {
	now := time.UnixMilli(1_700_000_000_000)

	assert.Equal(t, "never", FormatRelative(time.Time{}, now))
	assert.Equal(t, "just now", FormatRelative(now.Add(-30*time.Second), now))
	assert.Equal(t, "5m ago", FormatRelative(now.Add(-5*time.Minute), now))
	assert.Equal(t, "3h ago", FormatRelative(now.Add(-3*time.Hour), now))
	assert.Equal(t, "2d ago", FormatRelative(now.Add(-48*time.Hour), now))
}
