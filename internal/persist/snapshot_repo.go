package persist

import (
	"context"
	"fmt"
)

// SnapshotRow is one entity at one tick.
type SnapshotRow struct {
	Tick     uint64
	EntityID uint64
	Kind     string
	X, Y     float64
	W, H     int32
	PathLen  int
}

type SnapshotRepo struct {
	db *DB
}

func NewSnapshotRepo(db *DB) *SnapshotRepo {
	return &SnapshotRepo{db: db}
}

// SaveBatch writes all rows of a snapshot in one transaction.
func (r *SnapshotRepo) SaveBatch(ctx context.Context, runID int64, rows []SnapshotRow) error {
	if len(rows) == 0 {
		return nil
	}
	tx, err := r.db.Pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("snapshot begin: %w", err)
	}
	defer tx.Rollback(ctx)

	for _, row := range rows {
		if _, err := tx.Exec(ctx,
			`INSERT INTO entity_snapshots (run_id, tick, entity_id, kind, x, y, w, h, path_len)
			 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
			 ON CONFLICT (run_id, tick, entity_id) DO NOTHING`,
			runID, int64(row.Tick), int64(row.EntityID), row.Kind, row.X, row.Y, row.W, row.H, row.PathLen,
		); err != nil {
			return fmt.Errorf("snapshot insert: %w", err)
		}
	}
	return tx.Commit(ctx)
}
