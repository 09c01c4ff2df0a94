package occupancy

import (
	"fmt"
	"slices"
	"strings"

	"github.com/dorfsim/server/internal/core/ecs"
	"github.com/dorfsim/server/internal/geom"
	"github.com/dorfsim/server/internal/grid"
)

// Cache tracks which entity occupies each tile of the world and answers
// collision queries for the path search and the movement integrator.
//
// Writes are first-writer-wins: a tile that already holds another entity is
// left alone when a new footprint is written over it. The overlap itself is
// reported by TransformCollidesWith, never resolved by overwriting.
//
// Accessed only from the game loop goroutine. No locks.
type Cache struct {
	grid     *grid.Grid[ecs.EntityID]
	entities map[ecs.EntityID]geom.Rect
}

// New allocates a cache covering [origin, origin+size) with every tile free.
func New(origin, size geom.IVec2) *Cache {
	return &Cache{
		grid:     grid.New(origin, size, ecs.NoEntity),
		entities: make(map[ecs.EntityID]geom.Rect, 64),
	}
}

// Rect returns the world region the cache covers.
func (c *Cache) Rect() geom.Rect { return c.grid.Rect() }

// Len returns the number of entities with a recorded footprint.
func (c *Cache) Len() int { return len(c.entities) }

// Footprint returns the last footprint recorded for id.
func (c *Cache) Footprint(id ecs.EntityID) (geom.Rect, bool) {
	r, ok := c.entities[id]
	return r, ok
}

// Occupant returns the entity holding tile, or ecs.NoEntity.
func (c *Cache) Occupant(tile geom.IVec2) (ecs.EntityID, error) {
	return c.grid.Get(tile)
}

// MoveEntity clears the tiles of id's previous footprint and writes the new
// one. Tiles outside the cache are skipped on both passes.
func (c *Cache) MoveEntity(footprint geom.Rect, id ecs.EntityID) {
	if id.IsZero() {
		return
	}
	if old, ok := c.entities[id]; ok {
		c.clear(old, id)
	}
	c.entities[id] = footprint
	c.claim(footprint, id)
}

// RemoveEntity clears id's footprint and forgets it.
func (c *Cache) RemoveEntity(id ecs.EntityID) {
	old, ok := c.entities[id]
	if !ok {
		return
	}
	c.clear(old, id)
	delete(c.entities, id)
}

// clear frees the tiles of r held by id. A freed tile that also lies in
// another recorded footprint is handed to that entity (lowest ID first), so
// every recorded footprint keeps covering its tiles.
func (c *Cache) clear(r geom.Rect, id ecs.EntityID) {
	var waiting []ecs.EntityID
	for other, fp := range c.entities {
		if other != id && fp.Overlaps(r) {
			waiting = append(waiting, other)
		}
	}
	slices.Sort(waiting)

	r.EachTile(func(p geom.IVec2) bool {
		cell, err := c.grid.Ptr(p)
		if err != nil || *cell != id {
			return true
		}
		*cell = ecs.NoEntity
		for _, other := range waiting {
			if c.entities[other].ContainsTile(p) {
				*cell = other
				break
			}
		}
		return true
	})
}

func (c *Cache) claim(r geom.Rect, id ecs.EntityID) {
	r.EachTile(func(p geom.IVec2) bool {
		if cell, err := c.grid.Ptr(p); err == nil && cell.IsZero() {
			*cell = id
		}
		return true
	})
}

// Collides reports whether any entity occupies tile.
func (c *Cache) Collides(tile geom.IVec2) (bool, error) {
	occ, err := c.grid.Get(tile)
	if err != nil {
		return false, err
	}
	return !occ.IsZero(), nil
}

// TransformCollidesWith scans footprint row-major and returns the first
// occupant that is not id. It returns ecs.NoEntity when the footprint is free
// or only held by id, and grid.ErrOutOfBounds as soon as the scan reaches a
// tile outside the cache.
func (c *Cache) TransformCollidesWith(footprint geom.Rect, id ecs.EntityID) (ecs.EntityID, error) {
	hit := ecs.NoEntity
	var err error
	footprint.EachTile(func(p geom.IVec2) bool {
		var occ ecs.EntityID
		occ, err = c.grid.Get(p)
		if err != nil {
			return false
		}
		if !occ.IsZero() && occ != id {
			hit = occ
			return false
		}
		return true
	})
	if err != nil {
		return ecs.NoEntity, err
	}
	return hit, nil
}

// WouldCollideIfMoved reports whether footprint, relocated so its min corner
// sits on origin, would touch any occupied tile. The cache is not modified.
// A relocated tile outside the cache yields grid.ErrOutOfBounds; callers that
// need a yes/no answer treat that as a collision.
func (c *Cache) WouldCollideIfMoved(footprint geom.Rect, origin geom.IVec2) (bool, error) {
	moved := footprint.MoveTo(origin)
	collides := false
	var err error
	moved.EachTile(func(p geom.IVec2) bool {
		collides, err = c.Collides(p)
		return err == nil && !collides
	})
	if err != nil {
		return false, err
	}
	return collides, nil
}

// Blocked is WouldCollideIfMoved with out-of-bounds folded into true.
func (c *Cache) Blocked(footprint geom.Rect, origin geom.IVec2) bool {
	hit, err := c.WouldCollideIfMoved(footprint, origin)
	return err != nil || hit
}

// Dump renders the cache as rows of 'x' (occupied) and '.' (free), highest y
// first, with a column ruler. Meant for debug logging.
func (c *Cache) Dump() string {
	r := c.grid.Rect()
	var sb strings.Builder
	sb.WriteString("     ")
	for x := r.Min.X; x < r.Max.X; x++ {
		fmt.Fprintf(&sb, "%d", abs32(x)%10)
	}
	for y := r.Max.Y - 1; y >= r.Min.Y; y-- {
		fmt.Fprintf(&sb, "\n%04d ", y)
		for x := r.Min.X; x < r.Max.X; x++ {
			occ, _ := c.grid.Get(geom.IV(x, y))
			if occ.IsZero() {
				sb.WriteByte('.')
			} else {
				sb.WriteByte('x')
			}
		}
	}
	return sb.String()
}

func abs32(v int32) int32 {
	if v < 0 {
		return -v
	}
	return v
}
