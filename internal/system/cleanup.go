package system

import (
	"time"

	"github.com/dorfsim/server/internal/core/event"
	coresys "github.com/dorfsim/server/internal/core/system"
	"github.com/dorfsim/server/internal/occupancy"
	"github.com/dorfsim/server/internal/world"
)

// CleanupSystem flushes the deferred entity destruction queue at tick end
// and drops removed obstacles from the cache. Phase 6 (Cleanup).
type CleanupSystem struct {
	state *world.State
	cache *occupancy.Cache
	bus   *event.Bus
}

func NewCleanupSystem(ws *world.State, cache *occupancy.Cache, bus *event.Bus) *CleanupSystem {
	return &CleanupSystem{state: ws, cache: cache, bus: bus}
}

func (s *CleanupSystem) Phase() coresys.Phase { return coresys.PhaseCleanup }

func (s *CleanupSystem) Update(_ time.Duration) {
	for _, e := range s.state.FlushDestroyQueue() {
		if e.Kind == world.KindObstacle {
			s.cache.RemoveEntity(e.ID)
		}
		event.Emit(s.bus, event.EntityRemoved{Entity: e.ID, Kind: e.Kind.String(), Tick: s.state.Tick})
	}
}
