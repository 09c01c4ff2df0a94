package system

import (
	"errors"
	"fmt"
	"time"

	"github.com/dorfsim/server/internal/config"
	"github.com/dorfsim/server/internal/core/event"
	coresys "github.com/dorfsim/server/internal/core/system"
	"github.com/dorfsim/server/internal/occupancy"
	"github.com/dorfsim/server/internal/world"
	"go.uber.org/zap"
)

// ErrOverlap stops the loop under the "halt" overlap policy.
var ErrOverlap = errors.New("obstacle overlaps mover")

// OccupancySystem writes changed obstacle footprints into the cache, then
// checks movers against it when anything changed. Phase 1 (Occupancy).
type OccupancySystem struct {
	state  *world.State
	cache  *occupancy.Cache
	bus    *event.Bus
	policy string
	dump   bool
	log    *zap.Logger
	err    error
}

func NewOccupancySystem(ws *world.State, cache *occupancy.Cache, bus *event.Bus, policy string, dump bool, log *zap.Logger) *OccupancySystem {
	return &OccupancySystem{
		state:  ws,
		cache:  cache,
		bus:    bus,
		policy: policy,
		dump:   dump,
		log:    log,
	}
}

func (s *OccupancySystem) Phase() coresys.Phase { return coresys.PhaseOccupancy }

// Err is set once an overlap is found under the "halt" policy.
func (s *OccupancySystem) Err() error { return s.err }

func (s *OccupancySystem) Update(_ time.Duration) {
	changed := 0
	s.state.EachKind(world.KindObstacle, func(e *world.Entity) {
		if !e.Dirty {
			return
		}
		s.cache.MoveEntity(e.Footprint(), e.ID)
		e.Dirty = false
		changed++
	})
	if changed == 0 {
		return
	}
	if s.dump && s.log.Core().Enabled(zap.DebugLevel) {
		s.log.Debug("occupancy cache refreshed", zap.Int("changed", changed))
		s.log.Debug("\n" + s.cache.Dump())
	}
	s.audit()
}

// audit finds movers an obstacle was just placed on.
func (s *OccupancySystem) audit() {
	s.state.EachKind(world.KindMover, func(e *world.Entity) {
		if s.state.Queued(e.ID) {
			return
		}
		hit, err := s.cache.TransformCollidesWith(e.Footprint(), e.ID)
		if err != nil || hit.IsZero() {
			return
		}
		event.Emit(s.bus, event.OverlapDetected{Mover: e.ID, Obstacle: hit, Tick: s.state.Tick})
		switch s.policy {
		case config.OverlapHalt:
			if s.err == nil {
				s.err = fmt.Errorf("%w: mover %s, obstacle %s", ErrOverlap, e.ID, hit)
			}
		default:
			s.state.MarkForDestruction(e.ID)
		}
	})
}
