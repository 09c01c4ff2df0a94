package world

import (
	"github.com/dorfsim/server/internal/core/ecs"
	"github.com/dorfsim/server/internal/geom"
	"github.com/dorfsim/server/internal/movement"
)

// Kind separates the two entity roles.
type Kind uint8

const (
	KindObstacle Kind = iota + 1 // immobile, written into the occupancy cache
	KindMover                    // checked against the cache, never written
)

func (k Kind) String() string {
	switch k {
	case KindObstacle:
		return "obstacle"
	case KindMover:
		return "mover"
	default:
		return "unknown"
	}
}

// Entity is one row of the entity table.
// Accessed only from the game loop goroutine. No locks.
type Entity struct {
	ID    ecs.EntityID
	Kind  Kind
	Pos   geom.Vec2
	Scale geom.IVec2 // footprint size in tiles, >= 1 on both axes
	Speed float64    // tiles per second, movers only

	Goal *geom.Vec2     // pending goal, consumed by the pathing phase
	Path *movement.Path // current route, nil when none

	Dirty     bool // footprint changed since the last occupancy refresh
	NeedsGoal bool // path exhausted or rejected; goal source asked next pathing phase
	Failures  int  // consecutive failed path attempts

	SpawnTick uint64
}

// Footprint returns the tiles the entity covers at its current position.
func (e *Entity) Footprint() geom.Rect {
	return geom.FootprintAt(e.Pos, e.Scale)
}

// SetGoal replaces any pending goal and drops the current path.
func (e *Entity) SetGoal(goal geom.Vec2) {
	e.Goal = &goal
	e.Path = nil
	e.NeedsGoal = false
}

// TakeGoal returns and clears the pending goal.
func (e *Entity) TakeGoal() (geom.Vec2, bool) {
	if e.Goal == nil {
		return geom.Vec2{}, false
	}
	g := *e.Goal
	e.Goal = nil
	return g, true
}
