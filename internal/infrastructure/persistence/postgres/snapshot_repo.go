package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/gca-hub/gca-staff-hub/internal/domain/staff"
)

// Snapshot is one archived point-in-time copy of the record set.
type Snapshot struct {
	ID      string
	TakenAt time.Time
	Records map[staff.UserID]*staff.Record
}

// SnapshotRepository archives record-set snapshots.
type SnapshotRepository struct {
	db *DB
}

// NewSnapshotRepository creates the repository.
func NewSnapshotRepository(db *DB) *SnapshotRepository {
	return &SnapshotRepository{db: db}
}

// Save archives one snapshot atomically: header row plus one entry per
// record, batched in a single transaction. Returns the snapshot ID.
func (r *SnapshotRepository) Save(ctx context.Context, takenAt time.Time, records map[staff.UserID]*staff.Record) (string, error) {
	id := uuid.NewString()

	tx, err := r.db.pool.Begin(ctx)
	if err != nil {
		return "", fmt.Errorf("begin snapshot tx: %w", err)
	}
	defer tx.Rollback(ctx)

	_, err = tx.Exec(ctx,
		`INSERT INTO xp_snapshots (id, taken_at, record_cnt) VALUES ($1, $2, $3)`,
		id, takenAt, len(records))
	if err != nil {
		return "", fmt.Errorf("insert snapshot header: %w", err)
	}

	batch := &pgx.Batch{}
	for userID, rec := range records {
		batch.Queue(
			`INSERT INTO xp_snapshot_entries (snapshot_id, user_id, xp, voice_time_ms, tickets_closed)
			 VALUES ($1, $2, $3, $4, $5)`,
			id, userID.String(), rec.XP, rec.VoiceTime, rec.TicketsClosed)
	}
	if err := tx.SendBatch(ctx, batch).Close(); err != nil {
		return "", fmt.Errorf("insert snapshot entries: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return "", fmt.Errorf("commit snapshot: %w", err)
	}
	return id, nil
}

// Latest returns the most recent snapshot, or ErrNoSnapshots.
func (r *SnapshotRepository) Latest(ctx context.Context) (*Snapshot, error) {
	var snap Snapshot
	err := r.db.pool.QueryRow(ctx,
		`SELECT id, taken_at FROM xp_snapshots ORDER BY taken_at DESC LIMIT 1`,
	).Scan(&snap.ID, &snap.TakenAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNoSnapshots
		}
		return nil, fmt.Errorf("query latest snapshot: %w", err)
	}

	rows, err := r.db.pool.Query(ctx,
		`SELECT user_id, xp, voice_time_ms, tickets_closed
		 FROM xp_snapshot_entries WHERE snapshot_id = $1`, snap.ID)
	if err != nil {
		return nil, fmt.Errorf("query snapshot entries: %w", err)
	}
	defer rows.Close()

	snap.Records = make(map[staff.UserID]*staff.Record)
	for rows.Next() {
		var userID string
		rec := &staff.Record{}
		if err := rows.Scan(&userID, &rec.XP, &rec.VoiceTime, &rec.TicketsClosed); err != nil {
			return nil, fmt.Errorf("scan snapshot entry: %w", err)
		}
		snap.Records[staff.UserID(userID)] = rec
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate snapshot entries: %w", err)
	}
	return &snap, nil
}

// Prune keeps only the newest `keep` snapshots; cascade drops their entries.
func (r *SnapshotRepository) Prune(ctx context.Context, keep int) (int64, error) {
	if keep <= 0 {
		keep = 1
	}
	tag, err := r.db.pool.Exec(ctx,
		`DELETE FROM xp_snapshots WHERE id NOT IN (
			SELECT id FROM xp_snapshots ORDER BY taken_at DESC LIMIT $1
		)`, keep)
	if err != nil {
		return 0, fmt.Errorf("prune snapshots: %w", err)
	}
	return tag.RowsAffected(), nil
}
