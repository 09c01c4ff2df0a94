package pathing

import (
	"container/heap"

	"github.com/dorfsim/server/internal/geom"
)

type frontierItem struct {
	f    float64
	tile geom.IVec2
}

// frontier is a min-heap on f. Equal f breaks on tile X then Y so the order
// of expansion never depends on push order.
type frontier []frontierItem

func (h frontier) Len() int { return len(h) }

func (h frontier) Less(i, j int) bool {
	a, b := h[i], h[j]
	if a.f != b.f {
		return a.f < b.f
	}
	if a.tile.X != b.tile.X {
		return a.tile.X < b.tile.X
	}
	return a.tile.Y < b.tile.Y
}

func (h frontier) Swap(i, j int) { h[i], h[j] = h[j], h[i] }

func (h *frontier) Push(x any) { *h = append(*h, x.(frontierItem)) }

func (h *frontier) Pop() any {
	old := *h
	n := len(old)
	item := old[n-1]
	*h = old[:n-1]
	return item
}

func (h *frontier) push(item frontierItem) { heap.Push(h, item) }

func (h *frontier) pop() (frontierItem, bool) {
	if h.Len() == 0 {
		return frontierItem{}, false
	}
	return heap.Pop(h).(frontierItem), true
}
