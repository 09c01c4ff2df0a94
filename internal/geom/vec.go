package geom

import (
	"fmt"
	"math"
)

// IVec2 is a tile coordinate. One unit is one grid cell.
type IVec2 struct {
	X int32
	Y int32
}

// Vec2 is a continuous world position measured in tiles.
type Vec2 struct {
	X float64
	Y float64
}

func IV(x, y int32) IVec2 { return IVec2{X: x, Y: y} }
func V(x, y float64) Vec2 { return Vec2{X: x, Y: y} }
func (a IVec2) String() string { return fmt.Sprintf("(%d,%d)", a.X, a.Y) }
func (a Vec2) String() string { return fmt.Sprintf("(%.3f,%.3f)", a.X, a.Y) }

func (a IVec2) Add(b IVec2) IVec2 { return IVec2{X: a.X + b.X, Y: a.Y + b.Y} }
func (a IVec2) Sub(b IVec2) IVec2 { return IVec2{X: a.X - b.X, Y: a.Y - b.Y} }

// Min returns the componentwise minimum.
func (a IVec2) Min(b IVec2) IVec2 {
	return IVec2{X: min(a.X, b.X), Y: min(a.Y, b.Y)}
}

// Max returns the componentwise maximum.
func (a IVec2) Max(b IVec2) IVec2 {
	return IVec2{X: max(a.X, b.X), Y: max(a.Y, b.Y)}
}

// Vec2 converts a tile coordinate to the continuous position of its lower-left corner.
func (a IVec2) Vec2() Vec2 { return Vec2{X: float64(a.X), Y: float64(a.Y)} }

func (a Vec2) Add(b Vec2) Vec2 { return Vec2{X: a.X + b.X, Y: a.Y + b.Y} }
func (a Vec2) Sub(b Vec2) Vec2 { return Vec2{X: a.X - b.X, Y: a.Y - b.Y} }
func (a Vec2) Scale(s float64) Vec2 { return Vec2{X: a.X * s, Y: a.Y * s} }
func (a Vec2) Len() float64 { return math.Hypot(a.X, a.Y) }
func (a Vec2) Distance(b Vec2) float64 { return math.Hypot(b.X-a.X, b.Y-a.Y) }

// Normalize returns the unit vector in the direction of a, or the zero vector
// when a has no length.
func (a Vec2) Normalize() Vec2 {
	l := a.Len()
	if l == 0 {
		return Vec2{}
	}
	return Vec2{X: a.X / l, Y: a.Y / l}
}

// Floor maps a continuous position to the tile that covers it. Both axes are
// floored, so (2.9, -0.1) lands on (2, -1). Every continuous-to-tile
// conversion in the simulation goes through here.
func Floor(p Vec2) IVec2 {
	return IVec2{X: int32(math.Floor(p.X)), Y: int32(math.Floor(p.Y))}
}
