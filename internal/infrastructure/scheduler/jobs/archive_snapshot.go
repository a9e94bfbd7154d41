package jobs

import (
	"context"
	"fmt"
	"time"

	"github.com/gca-hub/gca-staff-hub/internal/domain/staff"
	"github.com/gca-hub/gca-staff-hub/internal/infrastructure/persistence/postgres"
)

// RecordSource is the slice of the engine the archive job needs.
type RecordSource interface {
	Snapshot() map[staff.UserID]*staff.Record
}

// ArchiveSnapshotJob copies the full record set into the PostgreSQL archive
// and prunes old snapshots past the retention limit.
type ArchiveSnapshotJob struct {
	source    RecordSource
	repo      *postgres.SnapshotRepository
	retention int
}

// NewArchiveSnapshotJob creates the job.
func NewArchiveSnapshotJob(source RecordSource, repo *postgres.SnapshotRepository, retention int) *ArchiveSnapshotJob {
	return &ArchiveSnapshotJob{source: source, repo: repo, retention: retention}
}

// Name implements scheduler.Job.
func (j *ArchiveSnapshotJob) Name() string {
	return "archive_snapshot"
}

// Description implements scheduler.Job.
func (j *ArchiveSnapshotJob) Description() string {
	return "Archives a point-in-time copy of the record set to PostgreSQL"
}

// Run implements scheduler.Job.
func (j *ArchiveSnapshotJob) Run(ctx context.Context) error {
	records := j.source.Snapshot()
	if len(records) == 0 {
		return nil
	}

	if _, err := j.repo.Save(ctx, time.Now(), records); err != nil {
		return fmt.Errorf("archive snapshot: %w", err)
	}
	if _, err := j.repo.Prune(ctx, j.retention); err != nil {
		return fmt.Errorf("prune snapshots: %w", err)
	}
	return nil
}
