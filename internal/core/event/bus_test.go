package event

import (
	"testing"

	"github.com/dorfsim/server/internal/core/ecs"
	"github.com/stretchr/testify/assert"
)

func TestBusDeliversNextTick(t *testing.T) {
	b := NewBus()
	var reached []GoalReached
	var failed int
	Subscribe(b, func(e GoalReached) { reached = append(reached, e) })
	Subscribe(b, func(PathFailed) { failed++ })

	Emit(b, GoalReached{Entity: ecs.NewEntityID(1, 0), Tick: 1})
	Emit(b, PathFailed{Reason: "no path"})
	b.DispatchAll()
	assert.Empty(t, reached, "not visible before the swap")

	b.SwapBuffers()
	b.DispatchAll()
	assert.Len(t, reached, 1)
	assert.Equal(t, 1, failed)

	// The previous front buffer is recycled as the new back buffer.
	b.SwapBuffers()
	b.DispatchAll()
	assert.Len(t, reached, 1)
	assert.Equal(t, 1, failed)
}

func TestBusEventsWithoutHandlers(t *testing.T) {
	b := NewBus()
	Emit(b, EntityRemoved{Kind: "mover"})
	b.SwapBuffers()
	assert.NotPanics(t, b.DispatchAll)
	assert.Equal(t, 1, b.Pending())
}
