package pathing

import (
	"errors"
	"fmt"
	"math"
	"strings"

	"github.com/dorfsim/server/internal/geom"
	"github.com/dorfsim/server/internal/grid"
	"github.com/dorfsim/server/internal/movement"
	"github.com/dorfsim/server/internal/occupancy"
)

// Search failures. None of them are fatal; callers pick a new goal and retry.
var (
	ErrNoPath          = errors.New("no path to goal")
	ErrStartBlocked    = errors.New("start footprint is blocked")
	ErrGoalOutOfBounds = errors.New("goal outside the occupancy cache")
	ErrSearchExhausted = errors.New("search expansion budget exhausted")
)

const (
	costOrthogonal = 1.0
	costDiagonal   = math.Sqrt2
)

type neighbor struct {
	offset geom.IVec2
	cost   float64
}

// neighbors is the one movement scheme used by both expansion and path
// reconstruction.
var neighbors = [8]neighbor{
	{geom.IV(-1, -1), costDiagonal},
	{geom.IV(0, -1), costOrthogonal},
	{geom.IV(1, -1), costDiagonal},
	{geom.IV(-1, 0), costOrthogonal},
	{geom.IV(1, 0), costOrthogonal},
	{geom.IV(-1, 1), costDiagonal},
	{geom.IV(0, 1), costOrthogonal},
	{geom.IV(1, 1), costDiagonal},
}

type nodeState uint8

const (
	nodeUnseen nodeState = iota
	nodeOpen
	nodeClosed
)

type node struct {
	g     float64
	state nodeState
}

// Options tunes a single search.
type Options struct {
	// MaxExpansions caps the number of nodes expanded. Zero means no cap.
	MaxExpansions int
}

// Stats counts the work a search did.
type Stats struct {
	Expanded int
	Pushed   int
}

// Search is one A* request: a body with a fixed footprint looking for a route
// across the occupancy cache. The cache must not change while a Search is in
// use.
//
// Tiles here are the min corner of the body's footprint; a tile is passable
// when the footprint moved there would not collide and lies fully inside the
// cache.
type Search struct {
	cache     *occupancy.Cache
	footprint geom.Rect
	start     geom.IVec2
	nodes     *grid.Grid[node]
	open      frontier
	opts      Options
	stats     Stats
}

// NewSearch seeds a search at the footprint's min corner with cost 0.
func NewSearch(cache *occupancy.Cache, start geom.Rect, opts Options) *Search {
	r := cache.Rect()
	s := &Search{
		cache:     cache,
		footprint: start,
		start:     start.Min,
		nodes:     grid.New(r.Min, r.Size(), node{}),
		open:      make(frontier, 0, 64),
		opts:      opts,
	}
	if n, err := s.nodes.Ptr(s.start); err == nil {
		n.g = 0
		n.state = nodeOpen
		s.open.push(frontierItem{tile: s.start})
		s.stats.Pushed++
	}
	return s
}

// Stats returns the counters so far.
func (s *Search) Stats() Stats { return s.stats }

// Cost returns the best known cost to reach tile, if it was ever reached.
func (s *Search) Cost(tile geom.IVec2) (float64, bool) {
	n, err := s.nodes.Get(tile)
	if err != nil || n.state == nodeUnseen {
		return 0, false
	}
	return n.g, true
}

func (s *Search) blocked(tile geom.IVec2) bool {
	return s.cache.Blocked(s.footprint, tile)
}

// canStep reports whether the body can move one step from 'from' by off.
// Diagonal steps also need both orthogonal tiles they pass between.
func (s *Search) canStep(from geom.IVec2, off geom.IVec2) bool {
	if s.blocked(from.Add(off)) {
		return false
	}
	if off.X != 0 && off.Y != 0 {
		if s.blocked(geom.IV(from.X+off.X, from.Y)) || s.blocked(geom.IV(from.X, from.Y+off.Y)) {
			return false
		}
	}
	return true
}

func heuristic(tile, goal geom.IVec2) float64 {
	return tile.Vec2().Distance(goal.Vec2())
}

// ExploreNeighbors pushes every passable, not yet finalized neighbour of
// current whose cost through current beats its best known cost.
func (s *Search) ExploreNeighbors(current geom.IVec2, goal geom.Vec2, g float64) {
	s.stats.Expanded++
	goalTile := geom.Floor(goal)
	for _, nb := range neighbors {
		next := current.Add(nb.offset)
		n, err := s.nodes.Ptr(next)
		if err != nil || n.state == nodeClosed {
			continue
		}
		if !s.canStep(current, nb.offset) {
			continue
		}
		ng := g + nb.cost
		if n.state == nodeOpen && ng >= n.g {
			continue
		}
		n.g = ng
		n.state = nodeOpen
		s.open.push(frontierItem{f: ng + heuristic(next, goalTile), tile: next})
		s.stats.Pushed++
	}
}

// SelectNextNode pops the cheapest open node, finalizes it and returns its
// cost and tile. ok is false once the frontier is empty.
func (s *Search) SelectNextNode() (g float64, tile geom.IVec2, ok bool) {
	for {
		item, more := s.open.pop()
		if !more {
			return 0, geom.IVec2{}, false
		}
		n, err := s.nodes.Ptr(item.tile)
		if err != nil || n.state == nodeClosed {
			continue // superseded by a cheaper push
		}
		n.state = nodeClosed
		return n.g, item.tile, true
	}
}

// Run searches until the goal tile is finalized.
func (s *Search) Run(goal geom.Vec2) error {
	goalTile := geom.Floor(goal)
	if !s.cache.Rect().ContainsTile(goalTile) {
		return ErrGoalOutOfBounds
	}
	if s.blocked(s.start) {
		return ErrStartBlocked
	}
	for {
		g, current, ok := s.SelectNextNode()
		if !ok {
			return ErrNoPath
		}
		if current == goalTile {
			return nil
		}
		if s.opts.MaxExpansions > 0 && s.stats.Expanded >= s.opts.MaxExpansions {
			return ErrSearchExhausted
		}
		s.ExploreNeighbors(current, goal, g)
	}
}

// Path walks the cost table back from the goal tile to the start, each time
// stepping to the neighbour that reaches the current tile cheapest. The
// result runs goal first, start last. Run must have succeeded first.
func (s *Search) Path(goal geom.Vec2) ([]geom.Vec2, error) {
	current := geom.Floor(goal)
	if _, ok := s.Cost(current); !ok {
		return nil, ErrNoPath
	}
	steps := []geom.Vec2{current.Vec2()}
	for limit := s.nodes.Len(); current != s.start; limit-- {
		if limit == 0 {
			return nil, fmt.Errorf("reconstruct path: %w", ErrNoPath)
		}
		best, bestCost, found := geom.IVec2{}, math.Inf(1), false
		for _, nb := range neighbors {
			prev := current.Sub(nb.offset)
			g, ok := s.Cost(prev)
			if !ok || g+nb.cost >= bestCost {
				continue
			}
			if !s.canStep(prev, nb.offset) {
				continue
			}
			best, bestCost, found = prev, g+nb.cost, true
		}
		if !found {
			return nil, fmt.Errorf("reconstruct path: %w", ErrNoPath)
		}
		current = best
		steps = append(steps, current.Vec2())
	}
	return steps, nil
}

// Dump renders the cost table, highest y first. Unreached tiles print as
// dashes. Meant for debug logging of small grids.
func (s *Search) Dump() string {
	r := s.nodes.Rect()
	var sb strings.Builder
	for y := r.Max.Y - 1; y >= r.Min.Y; y-- {
		fmt.Fprintf(&sb, "%04d", y)
		for x := r.Min.X; x < r.Max.X; x++ {
			n, _ := s.nodes.Get(geom.IV(x, y))
			if n.state == nodeUnseen {
				sb.WriteString("    -")
			} else {
				fmt.Fprintf(&sb, " %4.1f", n.g)
			}
		}
		if y > r.Min.Y {
			sb.WriteByte('\n')
		}
	}
	return sb.String()
}

// FindPath runs a full search for a body with the given footprint and
// returns the resulting movement path.
func FindPath(cache *occupancy.Cache, start geom.Rect, goal geom.Vec2, opts Options) (*movement.Path, Stats, error) {
	s := NewSearch(cache, start, opts)
	if err := s.Run(goal); err != nil {
		return nil, s.Stats(), err
	}
	steps, err := s.Path(goal)
	if err != nil {
		return nil, s.Stats(), err
	}
	return movement.NewPath(steps), s.Stats(), nil
}
