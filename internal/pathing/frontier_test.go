package pathing

import (
	"testing"

	"github.com/dorfsim/server/internal/geom"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func drain(h *frontier) []geom.IVec2 {
	var out []geom.IVec2
	for {
		item, ok := h.pop()
		if !ok {
			return out
		}
		out = append(out, item.tile)
	}
}

func TestFrontierEqualCostPopsByXThenY(t *testing.T) {
	want := []geom.IVec2{
		geom.IV(0, 5), geom.IV(1, 0), geom.IV(1, 3), geom.IV(4, 1), // f = 2
		geom.IV(-3, 9), geom.IV(2, 2), // f = 3
	}
	pushes := [][]int{{3, 0, 2, 1}, {1, 2, 0, 3}, {2, 3, 1, 0}}
	for _, order := range pushes {
		var h frontier
		h.push(frontierItem{f: 3, tile: want[5]})
		for _, i := range order {
			h.push(frontierItem{f: 2, tile: want[i]})
		}
		h.push(frontierItem{f: 3, tile: want[4]})
		assert.Equal(t, want, drain(&h), "push order %v", order)
	}
}

func TestFrontierEmpty(t *testing.T) {
	var h frontier
	_, ok := h.pop()
	assert.False(t, ok)

	h.push(frontierItem{f: 1, tile: geom.IV(1, 1)})
	h.push(frontierItem{f: 0.5, tile: geom.IV(9, 9)})
	require.Equal(t, 2, h.Len())
	assert.Equal(t, []geom.IVec2{geom.IV(9, 9), geom.IV(1, 1)}, drain(&h))
}
