package grid

import (
	"errors"

	"github.com/dorfsim/server/internal/geom"
)

// ErrOutOfBounds is returned for any coordinate outside a grid's rect. Near
// world edges this is an expected answer, not a fault.
var ErrOutOfBounds = errors.New("out of bounds")

// Grid is a dense rectangular array of cells addressed by tile coordinate.
// The covered region need not start at the origin.
// Accessed only from the game loop goroutine. No locks.
type Grid[T any] struct {
	data []T
	rect geom.Rect
}

// New allocates a grid covering [origin, origin+size) with every cell set to
// fill. Non-positive sizes give an empty grid on which every access fails.
func New[T any](origin, size geom.IVec2, fill T) *Grid[T] {
	size = size.Max(geom.IVec2{})
	g := &Grid[T]{
		data: make([]T, int(size.X)*int(size.Y)),
		rect: geom.RectFromOriginSize(origin, size),
	}
	g.Fill(fill)
	return g
}

// Rect returns the world region the grid covers.
func (g *Grid[T]) Rect() geom.Rect { return g.rect }

// Len returns the number of cells.
func (g *Grid[T]) Len() int { return len(g.data) }

// Index maps p to its storage index.
func (g *Grid[T]) Index(p geom.IVec2) (int, error) {
	idx, ok := g.rect.IndexForPoint(p)
	if !ok {
		return 0, ErrOutOfBounds
	}
	return idx, nil
}

func (g *Grid[T]) Get(p geom.IVec2) (T, error) {
	idx, ok := g.rect.IndexForPoint(p)
	if !ok {
		var zero T
		return zero, ErrOutOfBounds
	}
	return g.data[idx], nil
}

func (g *Grid[T]) Set(p geom.IVec2, v T) error {
	idx, ok := g.rect.IndexForPoint(p)
	if !ok {
		return ErrOutOfBounds
	}
	g.data[idx] = v
	return nil
}

// Ptr returns a pointer to the cell at p for in-place updates.
func (g *Grid[T]) Ptr(p geom.IVec2) (*T, error) {
	idx, ok := g.rect.IndexForPoint(p)
	if !ok {
		return nil, ErrOutOfBounds
	}
	return &g.data[idx], nil
}

// Fill sets every cell to v.
func (g *Grid[T]) Fill(v T) {
	for i := range g.data {
		g.data[i] = v
	}
}

// Each visits every cell in row-major order.
func (g *Grid[T]) Each(fn func(geom.IVec2, T)) {
	for i, v := range g.data {
		p, _ := g.rect.PointForIndex(i)
		fn(p, v)
	}
}
