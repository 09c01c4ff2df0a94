package world

import (
	"errors"

	"github.com/dorfsim/server/internal/core/ecs"
	"github.com/dorfsim/server/internal/geom"
)

var (
	ErrUnknownEntity = errors.New("unknown entity")
	ErrWrongKind     = errors.New("wrong entity kind")
)

// State is the entity table: a slice arena indexed by EntityID.Index() with
// generational IDs handed out by an ecs.EntityPool. Removal is deferred to
// FlushDestroyQueue at tick end so IDs seen during a tick stay valid for the
// whole tick.
//
// Accessed only from the game loop goroutine. No locks.
type State struct {
	Tick uint64

	pool         *ecs.EntityPool
	slots        []*Entity
	destroyQueue []ecs.EntityID
	counts       [KindMover + 1]int
}

func NewState() *State {
	return &State{
		pool:         ecs.NewEntityPool(),
		slots:        make([]*Entity, 1, 256),
		destroyQueue: make([]ecs.EntityID, 0, 16),
	}
}

func normScale(s geom.IVec2) geom.IVec2 {
	return s.Max(geom.IV(1, 1))
}

func (s *State) add(e *Entity) *Entity {
	e.ID = s.pool.Create()
	e.SpawnTick = s.Tick
	idx := int(e.ID.Index())
	for len(s.slots) <= idx {
		s.slots = append(s.slots, nil)
	}
	s.slots[idx] = e
	s.counts[e.Kind]++
	return e
}

// SpawnObstacle adds an immobile obstacle. It is written into the occupancy
// cache on the next refresh.
func (s *State) SpawnObstacle(pos geom.Vec2, scale geom.IVec2) *Entity {
	return s.add(&Entity{
		Kind:  KindObstacle,
		Pos:   pos,
		Scale: normScale(scale),
		Dirty: true,
	})
}

// SpawnMover adds a mover. A nil goal leaves it waiting for the goal source.
func (s *State) SpawnMover(pos geom.Vec2, scale geom.IVec2, speed float64, goal *geom.Vec2) *Entity {
	e := s.add(&Entity{
		Kind:      KindMover,
		Pos:       pos,
		Scale:     normScale(scale),
		Speed:     speed,
		NeedsGoal: goal == nil,
	})
	if goal != nil {
		e.SetGoal(*goal)
	}
	return e
}

// Get returns the live entity for id, or nil.
func (s *State) Get(id ecs.EntityID) *Entity {
	if !s.pool.Alive(id) {
		return nil
	}
	idx := int(id.Index())
	if idx >= len(s.slots) {
		return nil
	}
	return s.slots[idx]
}

func (s *State) getKind(id ecs.EntityID, k Kind) (*Entity, error) {
	e := s.Get(id)
	if e == nil {
		return nil, ErrUnknownEntity
	}
	if e.Kind != k {
		return nil, ErrWrongKind
	}
	return e, nil
}

// MoveObstacle relocates an obstacle and marks it for the next refresh.
func (s *State) MoveObstacle(id ecs.EntityID, pos geom.Vec2) error {
	e, err := s.getKind(id, KindObstacle)
	if err != nil {
		return err
	}
	e.Pos = pos
	e.Dirty = true
	return nil
}

// SetGoal hands a mover a new goal, replacing its current route.
func (s *State) SetGoal(id ecs.EntityID, goal geom.Vec2) error {
	e, err := s.getKind(id, KindMover)
	if err != nil {
		return err
	}
	e.SetGoal(goal)
	e.Failures = 0
	return nil
}

// MarkForDestruction queues an entity for end-of-tick cleanup. Unknown and
// already queued IDs are ignored.
func (s *State) MarkForDestruction(id ecs.EntityID) bool {
	if s.Get(id) == nil {
		return false
	}
	for _, q := range s.destroyQueue {
		if q == id {
			return false
		}
	}
	s.destroyQueue = append(s.destroyQueue, id)
	return true
}

// Queued reports whether id is waiting for destruction.
func (s *State) Queued(id ecs.EntityID) bool {
	for _, q := range s.destroyQueue {
		if q == id {
			return true
		}
	}
	return false
}

// FlushDestroyQueue destroys all queued entities and returns them in queue
// order. Called by CleanupSystem at the end of each tick.
func (s *State) FlushDestroyQueue() []*Entity {
	if len(s.destroyQueue) == 0 {
		return nil
	}
	removed := make([]*Entity, 0, len(s.destroyQueue))
	for _, id := range s.destroyQueue {
		e := s.Get(id)
		if e == nil {
			continue
		}
		s.slots[id.Index()] = nil
		s.counts[e.Kind]--
		s.pool.Destroy(id)
		removed = append(removed, e)
	}
	s.destroyQueue = s.destroyQueue[:0]
	return removed
}

// Each visits every live entity in ascending slot order.
func (s *State) Each(fn func(*Entity)) {
	for _, e := range s.slots {
		if e != nil {
			fn(e)
		}
	}
}

// EachKind visits live entities of one kind in ascending slot order.
func (s *State) EachKind(k Kind, fn func(*Entity)) {
	for _, e := range s.slots {
		if e != nil && e.Kind == k {
			fn(e)
		}
	}
}

// Count returns the number of live entities of kind k.
func (s *State) Count(k Kind) int {
	if int(k) >= len(s.counts) {
		return 0
	}
	return s.counts[k]
}

// Len returns the number of live entities.
func (s *State) Len() int { return s.pool.Len() }
