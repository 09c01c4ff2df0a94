package handler

import (
	"fmt"
	"math"

	"github.com/dorfsim/server/internal/core/ecs"
	"github.com/dorfsim/server/internal/core/event"
	"github.com/dorfsim/server/internal/geom"
	"github.com/dorfsim/server/internal/net"
	"github.com/dorfsim/server/internal/net/packet"
	"github.com/dorfsim/server/internal/world"
	"go.uber.org/zap"
)

// All world changes from the network land here during Phase 0 and take
// effect through the normal tick phases: obstacles on the next occupancy
// refresh, goals on the next pathing pass, removals at cleanup.

func finite(vs ...float64) bool {
	for _, v := range vs {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	return true
}

// HandleSetGoal processes C_SET_GOAL.
// Format: [opcode][Q entity][F x][F y]
func HandleSetGoal(sess *net.Session, r *packet.Reader, deps *Deps) {
	id := ecs.EntityID(r.ReadQ())
	goal := geom.V(r.ReadF(), r.ReadF())
	if err := r.Err(); err != nil {
		sendResult(sess, packet.C_SET_GOAL, false, uint64(id), err.Error())
		return
	}
	if !finite(goal.X, goal.Y) {
		sendResult(sess, packet.C_SET_GOAL, false, uint64(id), "non-finite goal")
		return
	}
	if err := deps.World.SetGoal(id, goal); err != nil {
		sendResult(sess, packet.C_SET_GOAL, false, uint64(id), err.Error())
		return
	}
	// Goals outside the map are accepted; the search fails and the mover
	// falls back to the goal source.
	sendResult(sess, packet.C_SET_GOAL, true, uint64(id), "")
}

// HandlePlaceObstacle processes C_PLACE_OBSTACLE.
// Format: [opcode][D x][D y][D w][D h]
func HandlePlaceObstacle(sess *net.Session, r *packet.Reader, deps *Deps) {
	origin := geom.IV(r.ReadD(), r.ReadD())
	scale := geom.IV(r.ReadD(), r.ReadD())
	if err := r.Err(); err != nil {
		sendResult(sess, packet.C_PLACE_OBSTACLE, false, 0, err.Error())
		return
	}
	if scale.X < 1 || scale.Y < 1 {
		sendResult(sess, packet.C_PLACE_OBSTACLE, false, 0, fmt.Sprintf("bad scale %s", scale))
		return
	}
	fp := geom.RectFromOriginSize(origin, scale)
	if !deps.Cache.Rect().ContainsRect(fp) {
		sendResult(sess, packet.C_PLACE_OBSTACLE, false, 0, "outside map")
		return
	}
	e := deps.World.SpawnObstacle(origin.Vec2(), scale)
	event.Emit(deps.Bus, event.EntitySpawned{Entity: e.ID, Kind: e.Kind.String(), Pos: e.Pos, Tick: deps.World.Tick})
	deps.Log.Debug("obstacle placed", zap.Stringer("entity", e.ID), zap.Stringer("at", origin))
	sendResult(sess, packet.C_PLACE_OBSTACLE, true, uint64(e.ID), "")
}

// HandleMoveObstacle processes C_MOVE_OBSTACLE.
// Format: [opcode][Q entity][D x][D y]
func HandleMoveObstacle(sess *net.Session, r *packet.Reader, deps *Deps) {
	id := ecs.EntityID(r.ReadQ())
	origin := geom.IV(r.ReadD(), r.ReadD())
	if err := r.Err(); err != nil {
		sendResult(sess, packet.C_MOVE_OBSTACLE, false, uint64(id), err.Error())
		return
	}
	if e := deps.World.Get(id); e != nil {
		if !deps.Cache.Rect().ContainsRect(e.Footprint().MoveTo(origin)) {
			sendResult(sess, packet.C_MOVE_OBSTACLE, false, uint64(id), "outside map")
			return
		}
	}
	if err := deps.World.MoveObstacle(id, origin.Vec2()); err != nil {
		sendResult(sess, packet.C_MOVE_OBSTACLE, false, uint64(id), err.Error())
		return
	}
	sendResult(sess, packet.C_MOVE_OBSTACLE, true, uint64(id), "")
}

// HandleRemoveEntity processes C_REMOVE_ENTITY.
// Format: [opcode][Q entity]
func HandleRemoveEntity(sess *net.Session, r *packet.Reader, deps *Deps) {
	id := ecs.EntityID(r.ReadQ())
	if err := r.Err(); err != nil {
		sendResult(sess, packet.C_REMOVE_ENTITY, false, uint64(id), err.Error())
		return
	}
	if !deps.World.MarkForDestruction(id) {
		sendResult(sess, packet.C_REMOVE_ENTITY, false, uint64(id), world.ErrUnknownEntity.Error())
		return
	}
	sendResult(sess, packet.C_REMOVE_ENTITY, true, uint64(id), "")
}

// HandleSpawnMover processes C_SPAWN_MOVER. The mover starts without a goal
// and asks the goal source on the next pathing pass.
// Format: [opcode][F x][F y][D w][D h][F speed]
func HandleSpawnMover(sess *net.Session, r *packet.Reader, deps *Deps) {
	pos := geom.V(r.ReadF(), r.ReadF())
	scale := geom.IV(r.ReadD(), r.ReadD())
	speed := r.ReadF()
	if err := r.Err(); err != nil {
		sendResult(sess, packet.C_SPAWN_MOVER, false, 0, err.Error())
		return
	}
	if !finite(pos.X, pos.Y, speed) {
		sendResult(sess, packet.C_SPAWN_MOVER, false, 0, "non-finite position or speed")
		return
	}
	if scale.X < 1 || scale.Y < 1 || speed <= 0 {
		sendResult(sess, packet.C_SPAWN_MOVER, false, 0, "bad scale or speed")
		return
	}
	fp := geom.FootprintAt(pos, scale)
	if deps.Cache.Blocked(fp, fp.Min) {
		sendResult(sess, packet.C_SPAWN_MOVER, false, 0, "position blocked")
		return
	}
	e := deps.World.SpawnMover(pos, scale, speed, nil)
	event.Emit(deps.Bus, event.EntitySpawned{Entity: e.ID, Kind: e.Kind.String(), Pos: e.Pos, Tick: deps.World.Tick})
	sendResult(sess, packet.C_SPAWN_MOVER, true, uint64(e.ID), "")
}
