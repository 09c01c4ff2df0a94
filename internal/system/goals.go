package system

import (
	"math/rand"

	"github.com/dorfsim/server/internal/geom"
	"github.com/dorfsim/server/internal/scripting"
	"github.com/dorfsim/server/internal/world"
)

// GoalSource hands out new goals to movers that finished, were rejected, or
// failed to find a path.
type GoalSource interface {
	NextGoal(e *world.Entity, tick uint64) geom.Vec2
}

// GoalPicker asks the Lua goal policy first and falls back to a uniformly
// random tile where the mover's footprint fits inside bounds.
type GoalPicker struct {
	engine *scripting.Engine // nil = random only
	bounds geom.Rect
	rng    *rand.Rand
}

func NewGoalPicker(engine *scripting.Engine, bounds geom.Rect, seed int64) *GoalPicker {
	return &GoalPicker{
		engine: engine,
		bounds: bounds,
		rng:    rand.New(rand.NewSource(seed)),
	}
}

func (p *GoalPicker) NextGoal(e *world.Entity, tick uint64) geom.Vec2 {
	if p.engine != nil {
		g, ok := p.engine.ChooseGoal(scripting.GoalContext{
			ID:       uint64(e.ID),
			Pos:      e.Pos,
			Scale:    e.Scale,
			Bounds:   p.bounds,
			Tick:     tick,
			Failures: e.Failures,
		})
		if ok {
			return g
		}
	}
	return p.RandomGoal(e.Scale)
}

// RandomGoal picks a tile uniformly from those where a footprint of the
// given scale lies fully inside bounds.
func (p *GoalPicker) RandomGoal(scale geom.IVec2) geom.Vec2 {
	w := max(p.bounds.Width()-scale.X+1, 1)
	h := max(p.bounds.Height()-scale.Y+1, 1)
	x := p.bounds.Min.X + p.rng.Int31n(w)
	y := p.bounds.Min.Y + p.rng.Int31n(h)
	return geom.IV(x, y).Vec2()
}
