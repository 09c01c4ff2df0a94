package system

import (
	"time"

	"github.com/dorfsim/server/internal/core/event"
	coresys "github.com/dorfsim/server/internal/core/system"
	"github.com/dorfsim/server/internal/geom"
	"github.com/dorfsim/server/internal/movement"
	"github.com/dorfsim/server/internal/occupancy"
	"github.com/dorfsim/server/internal/world"
)

// MovementSystem advances movers along their paths with a budget of
// speed * dt. Every new position is checked against the cache before it is
// taken. Phase 3 (Movement).
type MovementSystem struct {
	state *world.State
	cache *occupancy.Cache
	bus   *event.Bus
}

func NewMovementSystem(ws *world.State, cache *occupancy.Cache, bus *event.Bus) *MovementSystem {
	return &MovementSystem{state: ws, cache: cache, bus: bus}
}

func (s *MovementSystem) Phase() coresys.Phase { return coresys.PhaseMovement }

func (s *MovementSystem) Update(dt time.Duration) {
	secs := dt.Seconds()
	s.state.EachKind(world.KindMover, func(e *world.Entity) {
		if e.Path == nil || s.state.Queued(e.ID) {
			return
		}
		fp := e.Footprint()
		var target geom.Vec2
		valid := func(p geom.Vec2) bool {
			target = p
			return !s.cache.Blocked(fp, geom.Floor(p))
		}

		res := movement.Advance(&e.Pos, e.Path, e.Speed*secs, valid)
		switch res.Outcome {
		case movement.OutcomeExhausted:
			e.Path = nil
			e.NeedsGoal = true
			event.Emit(s.bus, event.GoalReached{Entity: e.ID, Pos: e.Pos, Tick: s.state.Tick})
		case movement.OutcomeRejected:
			e.Path = nil
			e.NeedsGoal = true
			event.Emit(s.bus, event.MoveRejected{Entity: e.ID, Pos: e.Pos, Target: target, Tick: s.state.Tick})
		}
	})
}
