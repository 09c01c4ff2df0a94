package system

import (
	"time"

	"github.com/dorfsim/server/internal/config"
	"github.com/dorfsim/server/internal/core/event"
	coresys "github.com/dorfsim/server/internal/core/system"
	"github.com/dorfsim/server/internal/geom"
	"github.com/dorfsim/server/internal/occupancy"
	"github.com/dorfsim/server/internal/world"
	"go.uber.org/zap"
)

// SpawnerSystem adds one mover every interval ticks until the cap is
// reached. A blocked spawn tile skips the spawn. Phase 3 (Movement), after
// MovementSystem.
type SpawnerSystem struct {
	state     *world.State
	cache     *occupancy.Cache
	bus       *event.Bus
	cfg       config.SpawnerConfig
	log       *zap.Logger
	tickCount int
}

func NewSpawnerSystem(ws *world.State, cache *occupancy.Cache, bus *event.Bus, cfg config.SpawnerConfig, log *zap.Logger) *SpawnerSystem {
	return &SpawnerSystem{state: ws, cache: cache, bus: bus, cfg: cfg, log: log}
}

func (s *SpawnerSystem) Phase() coresys.Phase { return coresys.PhaseMovement }

func (s *SpawnerSystem) Update(_ time.Duration) {
	s.tickCount++
	if s.tickCount < s.cfg.IntervalTicks {
		return
	}
	s.tickCount = 0
	if s.state.Count(world.KindMover) >= s.cfg.MaxMovers {
		return
	}

	pos := geom.V(s.cfg.SpawnX, s.cfg.SpawnY)
	scale := geom.IV(1, 1)
	if s.cache.Blocked(geom.FootprintAt(pos, scale), geom.Floor(pos)) {
		s.log.Debug("spawn point blocked", zap.Stringer("pos", pos))
		return
	}
	goal := geom.V(s.cfg.GoalX, s.cfg.GoalY)
	e := s.state.SpawnMover(pos, scale, s.cfg.Speed, &goal)
	event.Emit(s.bus, event.EntitySpawned{Entity: e.ID, Kind: e.Kind.String(), Pos: e.Pos, Tick: s.state.Tick})
}
