package system

import (
	"time"

	"github.com/dorfsim/server/internal/core/event"
	coresys "github.com/dorfsim/server/internal/core/system"
	"go.uber.org/zap"
)

// EventDispatchSystem swaps the event bus and delivers last tick's events.
// Registered first in Phase 0 (Input).
type EventDispatchSystem struct {
	bus *event.Bus
}

func NewEventDispatchSystem(bus *event.Bus) *EventDispatchSystem {
	return &EventDispatchSystem{bus: bus}
}

func (s *EventDispatchSystem) Phase() coresys.Phase { return coresys.PhaseInput }

func (s *EventDispatchSystem) Update(_ time.Duration) {
	s.bus.SwapBuffers()
	s.bus.DispatchAll()
}

// SubscribeEventLog logs simulation events at debug level.
func SubscribeEventLog(bus *event.Bus, log *zap.Logger) {
	event.Subscribe(bus, func(e event.EntitySpawned) {
		log.Debug("entity spawned", zap.Stringer("entity", e.Entity), zap.String("kind", e.Kind), zap.Stringer("pos", e.Pos))
	})
	event.Subscribe(bus, func(e event.EntityRemoved) {
		log.Debug("entity removed", zap.Stringer("entity", e.Entity), zap.String("kind", e.Kind))
	})
	event.Subscribe(bus, func(e event.PathFound) {
		log.Debug("path found",
			zap.Stringer("entity", e.Entity),
			zap.Stringer("goal", e.Goal),
			zap.Int("steps", e.Steps),
			zap.Int("expanded", e.Expanded),
		)
	})
	event.Subscribe(bus, func(e event.PathFailed) {
		log.Debug("path failed",
			zap.Stringer("entity", e.Entity),
			zap.Stringer("goal", e.Goal),
			zap.String("reason", e.Reason),
			zap.Int("attempt", e.Attempt),
		)
	})
	event.Subscribe(bus, func(e event.MoveRejected) {
		log.Debug("move rejected", zap.Stringer("entity", e.Entity), zap.Stringer("pos", e.Pos), zap.Stringer("target", e.Target))
	})
	event.Subscribe(bus, func(e event.OverlapDetected) {
		log.Warn("obstacle overlaps mover", zap.Stringer("mover", e.Mover), zap.Stringer("obstacle", e.Obstacle))
	})
}
