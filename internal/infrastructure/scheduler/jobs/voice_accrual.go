// Package jobs contains the scheduled job implementations wired into the
// scheduler by the composition root.
package jobs

import (
	"context"
	"fmt"
)

// VoiceTicker is the slice of the engine the accrual job needs.
type VoiceTicker interface {
	TickVoice(ctx context.Context) (int, error)
}

// VoiceAccrualJob drives the periodic voice grant pass. This job is the only
// source of voice XP in the system: presence transitions record time, ticks
// pay for it.
type VoiceAccrualJob struct {
	ticker VoiceTicker
}

// NewVoiceAccrualJob creates the job.
func NewVoiceAccrualJob(ticker VoiceTicker) *VoiceAccrualJob {
	return &VoiceAccrualJob{ticker: ticker}
}

// Name implements scheduler.Job.
func (j *VoiceAccrualJob) Name() string {
	return "voice_accrual"
}

// Description implements scheduler.Job.
func (j *VoiceAccrualJob) Description() string {
	return "Grants per-minute XP and presence time to staff in voice rooms"
}

// Run implements scheduler.Job.
func (j *VoiceAccrualJob) Run(ctx context.Context) error {
	if _, err := j.ticker.TickVoice(ctx); err != nil {
		return fmt.Errorf("voice tick: %w", err)
	}
	return nil
}
