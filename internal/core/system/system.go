package system

import "time"

// Phase defines execution ordering within a single tick.
type Phase int

const (
	PhaseInput     Phase = iota // 0: dispatch last tick's events, drain session queues
	PhaseOccupancy              // 1: refresh the occupancy cache, audit overlaps
	PhasePathing                // 2: run searches for movers holding a goal
	PhaseMovement               // 3: advance movers along their paths, spawn
	PhaseOutput                 // 4: build + send snapshots
	PhasePersist                // 5: batch save
	PhaseCleanup                // 6: destroy queued entities
)

func (p Phase) String() string {
	switch p {
	case PhaseInput:
		return "input"
	case PhaseOccupancy:
		return "occupancy"
	case PhasePathing:
		return "pathing"
	case PhaseMovement:
		return "movement"
	case PhaseOutput:
		return "output"
	case PhasePersist:
		return "persist"
	case PhaseCleanup:
		return "cleanup"
	default:
		return "unknown"
	}
}

// System is the interface every simulation system implements.
type System interface {
	Phase() Phase
	Update(dt time.Duration)
}
