package persist

import (
	"context"
	"fmt"
)

// RunRow describes one simulation run.
type RunRow struct {
	Name    string
	Seed    int64
	OriginX int32
	OriginY int32
	Width   int32
	Height  int32
}

type RunRepo struct {
	db *DB
}

func NewRunRepo(db *DB) *RunRepo {
	return &RunRepo{db: db}
}

// Start records a new run and returns its id.
func (r *RunRepo) Start(ctx context.Context, run RunRow) (int64, error) {
	var id int64
	err := r.db.Pool.QueryRow(ctx,
		`INSERT INTO sim_runs (name, seed, origin_x, origin_y, width, height)
		 VALUES ($1, $2, $3, $4, $5, $6) RETURNING id`,
		run.Name, run.Seed, run.OriginX, run.OriginY, run.Width, run.Height,
	).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("start run: %w", err)
	}
	return id, nil
}

// Finish stamps the run with its final tick count.
func (r *RunRepo) Finish(ctx context.Context, id int64, ticks uint64) error {
	_, err := r.db.Pool.Exec(ctx,
		`UPDATE sim_runs SET finished_at = now(), ticks = $2 WHERE id = $1`,
		id, int64(ticks),
	)
	if err != nil {
		return fmt.Errorf("finish run %d: %w", id, err)
	}
	return nil
}
