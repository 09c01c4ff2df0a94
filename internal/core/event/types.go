package event

import (
	"github.com/dorfsim/server/internal/core/ecs"
	"github.com/dorfsim/server/internal/geom"
)

type EntitySpawned struct {
	Entity ecs.EntityID
	Kind   string
	Pos    geom.Vec2
	Tick   uint64
}

type EntityRemoved struct {
	Entity ecs.EntityID
	Kind   string
	Tick   uint64
}

// PathFound is emitted when a search succeeds and the mover takes the path.
type PathFound struct {
	Entity   ecs.EntityID
	From     geom.Vec2
	Goal     geom.Vec2
	Steps    int
	Expanded int
	Tick     uint64
}

// PathFailed is emitted for every failed search, including the retries.
type PathFailed struct {
	Entity   ecs.EntityID
	Goal     geom.Vec2
	Reason   string
	Expanded int
	Attempt  int
	Tick     uint64
}

type GoalReached struct {
	Entity ecs.EntityID
	Pos    geom.Vec2
	Tick   uint64
}

// MoveRejected means the next position along a path would have overlapped
// an obstacle, so the mover stopped short and asked for a new goal.
type MoveRejected struct {
	Entity ecs.EntityID
	Pos    geom.Vec2
	Target geom.Vec2
	Tick   uint64
}

// OverlapDetected means an obstacle was placed or moved onto a mover.
type OverlapDetected struct {
	Mover    ecs.EntityID
	Obstacle ecs.EntityID
	Tick     uint64
}
