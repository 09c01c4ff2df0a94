package system

import (
	"time"

	coresys "github.com/dorfsim/server/internal/core/system"
	"github.com/dorfsim/server/internal/handler"
	"github.com/dorfsim/server/internal/net"
	"github.com/dorfsim/server/internal/world"
	"go.uber.org/zap"
)

// OutputSystem broadcasts a paged world snapshot every N ticks and flushes all
// session output buffers. Phase 4 (Output).
type OutputSystem struct {
	world     *world.State
	store     *net.SessionStore
	every     int
	tickCount int
	log       *zap.Logger
}

func NewOutputSystem(ws *world.State, store *net.SessionStore, every int, log *zap.Logger) *OutputSystem {
	return &OutputSystem{world: ws, store: store, every: every, log: log}
}

func (s *OutputSystem) Phase() coresys.Phase { return coresys.PhaseOutput }

func (s *OutputSystem) Update(_ time.Duration) {
	s.tickCount++
	if s.tickCount >= s.every && s.store.Count() > 0 {
		s.tickCount = 0
		pages, err := handler.EncodeSnapshot(handler.BuildSnapshot(s.world))
		if err != nil {
			s.log.Error("snapshot encode failed", zap.Error(err))
		}
		for _, data := range pages {
			s.store.Broadcast(data)
		}
	}
	s.store.ForEach(func(sess *net.Session) {
		sess.FlushOutput()
	})
}
