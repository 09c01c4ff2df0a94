package persist

import (
	"context"
	"fmt"
)

// EventRow is one recorded simulation event.
type EventRow struct {
	Tick     uint64
	EntityID uint64
	Kind     string // "spawned", "removed", "path_found", "path_failed", "goal_reached", "move_rejected", "overlap"
	X, Y     float64
	Expanded int
	Detail   string
}

type EventRepo struct {
	db *DB
}

func NewEventRepo(db *DB) *EventRepo {
	return &EventRepo{db: db}
}

// WriteBatch appends a batch of events in a single transaction.
func (r *EventRepo) WriteBatch(ctx context.Context, runID int64, rows []EventRow) error {
	if len(rows) == 0 {
		return nil
	}
	tx, err := r.db.Pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("events begin: %w", err)
	}
	defer tx.Rollback(ctx)

	for _, e := range rows {
		if _, err := tx.Exec(ctx,
			`INSERT INTO path_events (run_id, tick, entity_id, kind, x, y, expanded, detail)
			 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
			runID, int64(e.Tick), int64(e.EntityID), e.Kind, e.X, e.Y, e.Expanded, e.Detail,
		); err != nil {
			return fmt.Errorf("events insert: %w", err)
		}
	}
	return tx.Commit(ctx)
}
