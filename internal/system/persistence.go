package system

import (
	"context"
	"time"

	"github.com/dorfsim/server/internal/core/event"
	coresys "github.com/dorfsim/server/internal/core/system"
	"github.com/dorfsim/server/internal/persist"
	"github.com/dorfsim/server/internal/world"
	"go.uber.org/zap"
)

// SnapshotSaver stores entity snapshots. Satisfied by *persist.SnapshotRepo.
type SnapshotSaver interface {
	SaveBatch(ctx context.Context, runID int64, rows []persist.SnapshotRow) error
}

// EventWriter stores simulation events. Satisfied by *persist.EventRepo.
type EventWriter interface {
	WriteBatch(ctx context.Context, runID int64, rows []persist.EventRow) error
}

// PersistenceSystem records the run: simulation events are buffered as they
// are dispatched and written in batches, and every live entity is
// snapshotted at a fixed interval. Phase 5 (Persist).
type PersistenceSystem struct {
	world     *world.State
	snapshots SnapshotSaver
	events    EventWriter
	runID     int64
	log       *zap.Logger

	pending       []persist.EventRow
	flushEvery    int
	snapshotEvery int
	flushCount    int
	snapshotCount int
}

func NewPersistenceSystem(ws *world.State, bus *event.Bus, snapshots SnapshotSaver, events EventWriter, runID int64, flushEvery, snapshotEvery int, log *zap.Logger) *PersistenceSystem {
	s := &PersistenceSystem{
		world:         ws,
		snapshots:     snapshots,
		events:        events,
		runID:         runID,
		log:           log,
		flushEvery:    flushEvery,
		snapshotEvery: snapshotEvery,
	}
	s.subscribe(bus)
	return s
}

func (s *PersistenceSystem) subscribe(bus *event.Bus) {
	event.Subscribe(bus, func(e event.EntitySpawned) {
		s.record(persist.EventRow{Tick: e.Tick, EntityID: uint64(e.Entity), Kind: "spawned", X: e.Pos.X, Y: e.Pos.Y, Detail: e.Kind})
	})
	event.Subscribe(bus, func(e event.EntityRemoved) {
		s.record(persist.EventRow{Tick: e.Tick, EntityID: uint64(e.Entity), Kind: "removed", Detail: e.Kind})
	})
	event.Subscribe(bus, func(e event.PathFound) {
		s.record(persist.EventRow{Tick: e.Tick, EntityID: uint64(e.Entity), Kind: "path_found", X: e.Goal.X, Y: e.Goal.Y, Expanded: e.Expanded})
	})
	event.Subscribe(bus, func(e event.PathFailed) {
		s.record(persist.EventRow{Tick: e.Tick, EntityID: uint64(e.Entity), Kind: "path_failed", X: e.Goal.X, Y: e.Goal.Y, Expanded: e.Expanded, Detail: e.Reason})
	})
	event.Subscribe(bus, func(e event.GoalReached) {
		s.record(persist.EventRow{Tick: e.Tick, EntityID: uint64(e.Entity), Kind: "goal_reached", X: e.Pos.X, Y: e.Pos.Y})
	})
	event.Subscribe(bus, func(e event.MoveRejected) {
		s.record(persist.EventRow{Tick: e.Tick, EntityID: uint64(e.Entity), Kind: "move_rejected", X: e.Target.X, Y: e.Target.Y})
	})
	event.Subscribe(bus, func(e event.OverlapDetected) {
		s.record(persist.EventRow{Tick: e.Tick, EntityID: uint64(e.Mover), Kind: "overlap", Detail: e.Obstacle.String()})
	})
}

func (s *PersistenceSystem) record(row persist.EventRow) {
	s.pending = append(s.pending, row)
}

func (s *PersistenceSystem) Phase() coresys.Phase { return coresys.PhasePersist }

func (s *PersistenceSystem) Update(_ time.Duration) {
	s.flushCount++
	if s.flushCount >= s.flushEvery {
		s.flushCount = 0
		s.flushEvents()
	}
	s.snapshotCount++
	if s.snapshotCount >= s.snapshotEvery {
		s.snapshotCount = 0
		s.saveSnapshot()
	}
}

// Flush writes buffered events and a final snapshot immediately.
// Called for graceful shutdown.
func (s *PersistenceSystem) Flush() {
	s.flushEvents()
	s.saveSnapshot()
}

// Pending returns the number of buffered events.
func (s *PersistenceSystem) Pending() int { return len(s.pending) }

func (s *PersistenceSystem) flushEvents() {
	if len(s.pending) == 0 {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := s.events.WriteBatch(ctx, s.runID, s.pending); err != nil {
		// Kept for the next flush.
		s.log.Error("event batch write failed", zap.Int("events", len(s.pending)), zap.Error(err))
		return
	}
	s.pending = s.pending[:0]
}

func (s *PersistenceSystem) saveSnapshot() {
	rows := make([]persist.SnapshotRow, 0, s.world.Len())
	s.world.Each(func(e *world.Entity) {
		rows = append(rows, persist.SnapshotRow{
			Tick:     s.world.Tick,
			EntityID: uint64(e.ID),
			Kind:     e.Kind.String(),
			X:        e.Pos.X,
			Y:        e.Pos.Y,
			W:        e.Scale.X,
			H:        e.Scale.Y,
			PathLen:  e.Path.Len(),
		})
	})
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := s.snapshots.SaveBatch(ctx, s.runID, rows); err != nil {
		s.log.Error("snapshot save failed", zap.Uint64("tick", s.world.Tick), zap.Error(err))
		return
	}
	s.log.Debug("snapshot saved", zap.Uint64("tick", s.world.Tick), zap.Int("entities", len(rows)))
}
