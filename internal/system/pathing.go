package system

import (
	"time"

	"github.com/dorfsim/server/internal/core/event"
	coresys "github.com/dorfsim/server/internal/core/system"
	"github.com/dorfsim/server/internal/occupancy"
	"github.com/dorfsim/server/internal/pathing"
	"github.com/dorfsim/server/internal/world"
	"go.uber.org/zap"
)

// PathingSystem runs a search for every mover holding a goal. A failed
// search replaces the goal with a fresh one from the goal source and tries
// again, up to maxAttempts per mover per tick; whatever goal is left pending
// carries over to the next tick. Phase 2 (Pathing).
type PathingSystem struct {
	state       *world.State
	cache       *occupancy.Cache
	goals       GoalSource
	bus         *event.Bus
	opts        pathing.Options
	maxAttempts int
	log         *zap.Logger
}

func NewPathingSystem(ws *world.State, cache *occupancy.Cache, goals GoalSource, bus *event.Bus, opts pathing.Options, maxAttempts int, log *zap.Logger) *PathingSystem {
	return &PathingSystem{
		state:       ws,
		cache:       cache,
		goals:       goals,
		bus:         bus,
		opts:        opts,
		maxAttempts: max(maxAttempts, 1),
		log:         log,
	}
}

func (s *PathingSystem) Phase() coresys.Phase { return coresys.PhasePathing }

func (s *PathingSystem) Update(_ time.Duration) {
	s.state.EachKind(world.KindMover, func(e *world.Entity) {
		if s.state.Queued(e.ID) {
			return
		}
		if e.NeedsGoal && e.Goal == nil {
			e.SetGoal(s.goals.NextGoal(e, s.state.Tick))
		}
		for attempt := 1; attempt <= s.maxAttempts; attempt++ {
			goal, ok := e.TakeGoal()
			if !ok {
				return
			}
			path, stats, err := pathing.FindPath(s.cache, e.Footprint(), goal, s.opts)
			if err == nil {
				e.Path = path
				e.Failures = 0
				event.Emit(s.bus, event.PathFound{
					Entity:   e.ID,
					From:     e.Pos,
					Goal:     goal,
					Steps:    path.Len(),
					Expanded: stats.Expanded,
					Tick:     s.state.Tick,
				})
				return
			}

			e.Failures++
			event.Emit(s.bus, event.PathFailed{
				Entity:   e.ID,
				Goal:     goal,
				Reason:   err.Error(),
				Expanded: stats.Expanded,
				Attempt:  attempt,
				Tick:     s.state.Tick,
			})
			e.SetGoal(s.goals.NextGoal(e, s.state.Tick))
		}
	})
}
