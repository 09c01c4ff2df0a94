package system

import (
	"time"

	coresys "github.com/dorfsim/server/internal/core/system"
	"github.com/dorfsim/server/internal/scripting"
	"go.uber.org/zap"
)

// ScriptReloadSystem rebuilds the Lua VM when the watcher saw script changes.
// Phase 0 (Input), so a reload never lands mid-tick.
type ScriptReloadSystem struct {
	engine  *scripting.Engine
	watcher *scripting.Watcher
	log     *zap.Logger
}

func NewScriptReloadSystem(engine *scripting.Engine, watcher *scripting.Watcher, log *zap.Logger) *ScriptReloadSystem {
	return &ScriptReloadSystem{engine: engine, watcher: watcher, log: log}
}

func (s *ScriptReloadSystem) Phase() coresys.Phase { return coresys.PhaseInput }

func (s *ScriptReloadSystem) Update(_ time.Duration) {
	select {
	case err := <-s.watcher.Errors:
		s.log.Warn("script watcher error", zap.Error(err))
	default:
	}
	changed := s.watcher.Drain()
	if len(changed) == 0 {
		return
	}
	if err := s.engine.Reload(); err != nil {
		s.log.Error("script reload failed, keeping previous scripts", zap.Strings("changed", changed), zap.Error(err))
		return
	}
	s.log.Info("scripts reloaded", zap.Strings("changed", changed))
}
