package geom

// Rect is an axis-aligned integer rectangle given by its minimum and maximum
// corners. As a set of tiles it is half-open: tile t belongs to the rect when
// Min <= t < Max on both axes. A footprint of scale (1,1) at tile (3,0) is
// therefore Rect{Min: (3,0), Max: (4,1)}.
//
// Min <= Max must hold componentwise. The constructors enforce it; callers
// assigning fields directly are responsible for it.
type Rect struct {
	Min IVec2
	Max IVec2
}

// NewRect builds a rect from two opposite corners given as coordinates.
func NewRect(x0, y0, x1, y1 int32) Rect {
	return RectFromCorners(IV(x0, y0), IV(x1, y1))
}

// RectFromCorners builds a rect from any two opposite corners.
func RectFromCorners(p0, p1 IVec2) Rect {
	return Rect{Min: p0.Min(p1), Max: p0.Max(p1)}
}

// RectFromOriginSize builds the rect covering [origin, origin+size).
func RectFromOriginSize(origin, size IVec2) Rect {
	return RectFromCorners(origin, origin.Add(size))
}

// FootprintAt returns the tiles covered by a body at continuous position pos
// with the given integer scale. The position is floored to its tile and the
// scale extends from there; scale components below one are raised to one so a
// footprint always spans at least one tile.
func FootprintAt(pos Vec2, scale IVec2) Rect {
	scale = scale.Max(IV(1, 1))
	p0 := Floor(pos)
	return Rect{Min: p0, Max: p0.Add(scale)}
}

// IsEmpty reports whether the rect covers no tiles.
func (r Rect) IsEmpty() bool {
	return r.Min.X >= r.Max.X || r.Min.Y >= r.Max.Y
}

func (r Rect) Width() int32  { return r.Max.X - r.Min.X }
func (r Rect) Height() int32 { return r.Max.Y - r.Min.Y }
func (r Rect) Size() IVec2   { return r.Max.Sub(r.Min) }

// Area is the number of tiles covered.
func (r Rect) Area() int {
	return int(r.Width()) * int(r.Height())
}

func (r Rect) Center() Vec2 {
	return Vec2{
		X: (float64(r.Min.X) + float64(r.Max.X)) / 2,
		Y: (float64(r.Min.Y) + float64(r.Max.Y)) / 2,
	}
}

// Contains reports whether p lies inside the rect, including its max edge.
func (r Rect) Contains(p Vec2) bool {
	return p.X >= float64(r.Min.X) && p.Y >= float64(r.Min.Y) &&
		p.X <= float64(r.Max.X) && p.Y <= float64(r.Max.Y)
}

// ContainsExclusiveMax reports whether p lies inside the rect, excluding its
// max edge.
func (r Rect) ContainsExclusiveMax(p Vec2) bool {
	return p.X >= float64(r.Min.X) && p.Y >= float64(r.Min.Y) &&
		p.X < float64(r.Max.X) && p.Y < float64(r.Max.Y)
}

// ContainsTile reports whether tile t is one of the rect's tiles.
func (r Rect) ContainsTile(t IVec2) bool {
	return t.X >= r.Min.X && t.Y >= r.Min.Y && t.X < r.Max.X && t.Y < r.Max.Y
}

// ContainsRect reports whether every tile of o is a tile of r.
func (r Rect) ContainsRect(o Rect) bool {
	return o.Min.X >= r.Min.X && o.Min.Y >= r.Min.Y &&
		o.Max.X <= r.Max.X && o.Max.Y <= r.Max.Y
}

// Union returns the smallest rect enclosing both rects.
func (r Rect) Union(o Rect) Rect {
	return Rect{Min: r.Min.Min(o.Min), Max: r.Max.Max(o.Max)}
}

// UnionPoint returns the smallest rect enclosing r and p.
func (r Rect) UnionPoint(p IVec2) Rect {
	return Rect{Min: r.Min.Min(p), Max: r.Max.Max(p)}
}

// Intersect returns the largest rect enclosed by both. Disjoint rects give a
// collapsed rect rather than an error, so check IsEmpty before using it.
func (r Rect) Intersect(o Rect) Rect {
	out := Rect{Min: r.Min.Max(o.Min), Max: r.Max.Min(o.Max)}
	out.Min = out.Min.Min(out.Max)
	return out
}

// Overlaps reports whether r and o share at least one tile.
func (r Rect) Overlaps(o Rect) bool {
	return !r.Intersect(o).IsEmpty()
}

// Inset grows the rect by n on every side; negative n shrinks it, collapsing
// to an empty rect once it passes the half size.
func (r Rect) Inset(n int32) Rect {
	out := Rect{
		Min: IVec2{X: r.Min.X - n, Y: r.Min.Y - n},
		Max: IVec2{X: r.Max.X + n, Y: r.Max.Y + n},
	}
	out.Min = out.Min.Min(out.Max)
	return out
}

// Translate shifts the rect by d.
func (r Rect) Translate(d IVec2) Rect {
	return Rect{Min: r.Min.Add(d), Max: r.Max.Add(d)}
}

// MoveTo relocates the rect so its Min corner sits on origin, keeping its size.
func (r Rect) MoveTo(origin IVec2) Rect {
	return r.Translate(origin.Sub(r.Min))
}

// IndexForPoint maps tile p to its row-major index inside the rect:
// (y - Min.Y) * width + (x - Min.X). ok is false when p is outside.
func (r Rect) IndexForPoint(p IVec2) (int, bool) {
	if !r.ContainsTile(p) {
		return 0, false
	}
	return int(p.Y-r.Min.Y)*int(r.Width()) + int(p.X-r.Min.X), true
}

// PointForIndex is the inverse of IndexForPoint.
func (r Rect) PointForIndex(idx int) (IVec2, bool) {
	w := int(r.Width())
	if w <= 0 || idx < 0 || idx >= r.Area() {
		return IVec2{}, false
	}
	return IVec2{X: r.Min.X + int32(idx%w), Y: r.Min.Y + int32(idx/w)}, true
}

// EachTile calls fn for every tile in row-major order (y outer, x inner) and
// stops early when fn returns false. It reports whether the walk completed.
func (r Rect) EachTile(fn func(IVec2) bool) bool {
	for y := r.Min.Y; y < r.Max.Y; y++ {
		for x := r.Min.X; x < r.Max.X; x++ {
			if !fn(IVec2{X: x, Y: y}) {
				return false
			}
		}
	}
	return true
}
