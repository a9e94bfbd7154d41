package jobs

import (
	"context"
	"fmt"
)

// Flusher is the slice of the engine the flush job needs.
type Flusher interface {
	Flush(ctx context.Context) error
}

// FlushRecordsJob periodically persists the in-memory record set. The engine
// also flushes opportunistically after grants; this job is the safety net
// that bounds data loss to one interval even if the dirty signal is lost.
type FlushRecordsJob struct {
	flusher Flusher
}

// NewFlushRecordsJob creates the job.
func NewFlushRecordsJob(flusher Flusher) *FlushRecordsJob {
	return &FlushRecordsJob{flusher: flusher}
}

// Name implements scheduler.Job.
func (j *FlushRecordsJob) Name() string {
	return "flush_records"
}

// Description implements scheduler.Job.
func (j *FlushRecordsJob) Description() string {
	return "Persists the staff record set to the durable store"
}

// Run implements scheduler.Job.
func (j *FlushRecordsJob) Run(ctx context.Context) error {
	if err := j.flusher.Flush(ctx); err != nil {
		return fmt.Errorf("flush records: %w", err)
	}
	return nil
}
