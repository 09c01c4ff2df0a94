package handler

import (
	"github.com/dorfsim/server/internal/core/event"
	"github.com/dorfsim/server/internal/net"
	"github.com/dorfsim/server/internal/net/packet"
	"github.com/dorfsim/server/internal/occupancy"
	"github.com/dorfsim/server/internal/world"
	"go.uber.org/zap"
)

// Deps holds shared dependencies injected into all packet handlers.
type Deps struct {
	Log          *zap.Logger
	World        *world.State
	Cache        *occupancy.Cache
	Bus          *event.Bus
	PasswordHash []byte // bcrypt hash; empty disables control
}

// RegisterAll registers all packet handlers into the registry.
func RegisterAll(reg *packet.Registry, deps *Deps) {
	reg.Register(packet.C_HELLO, packet.Observers,
		func(sess any, r *packet.Reader) {
			HandleHello(sess.(*net.Session), r, deps)
		},
	)

	reg.Register(packet.C_SET_GOAL, packet.Controllers,
		func(sess any, r *packet.Reader) {
			HandleSetGoal(sess.(*net.Session), r, deps)
		},
	)
	reg.Register(packet.C_PLACE_OBSTACLE, packet.Controllers,
		func(sess any, r *packet.Reader) {
			HandlePlaceObstacle(sess.(*net.Session), r, deps)
		},
	)
	reg.Register(packet.C_MOVE_OBSTACLE, packet.Controllers,
		func(sess any, r *packet.Reader) {
			HandleMoveObstacle(sess.(*net.Session), r, deps)
		},
	)
	reg.Register(packet.C_REMOVE_ENTITY, packet.Controllers,
		func(sess any, r *packet.Reader) {
			HandleRemoveEntity(sess.(*net.Session), r, deps)
		},
	)
	reg.Register(packet.C_SPAWN_MOVER, packet.Controllers,
		func(sess any, r *packet.Reader) {
			HandleSpawnMover(sess.(*net.Session), r, deps)
		},
	)
}
