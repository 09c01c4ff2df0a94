package data

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/dorfsim/server/internal/geom"
	"github.com/dorfsim/server/internal/world"
	"gopkg.in/yaml.v3"
)

// Cell is an integer pair in layout files.
type Cell struct {
	X int32 `yaml:"x"`
	Y int32 `yaml:"y"`
}

// Point is a continuous position in layout files.
type Point struct {
	X float64 `yaml:"x"`
	Y float64 `yaml:"y"`
}

// ObstacleSpec places one immobile obstacle with its min corner at (X,Y).
type ObstacleSpec struct {
	X int32 `yaml:"x"`
	Y int32 `yaml:"y"`
	W int32 `yaml:"w"`
	H int32 `yaml:"h"`
}

// MoverSpec places one mover. Goal is optional; movers without one ask the
// goal source on the first tick.
type MoverSpec struct {
	X     float64 `yaml:"x"`
	Y     float64 `yaml:"y"`
	W     int32   `yaml:"w"`
	H     int32   `yaml:"h"`
	Speed float64 `yaml:"speed"`
	Goal  *Point  `yaml:"goal,omitempty"`
}

// Layout is the initial world: map bounds, obstacles and movers.
type Layout struct {
	Name      string         `yaml:"name"`
	Origin    Cell           `yaml:"origin"`
	Size      Cell           `yaml:"size"`
	Obstacles []ObstacleSpec `yaml:"obstacles"`
	Movers    []MoverSpec    `yaml:"movers"`
	// Tiles is an optional ASCII picture, first line = highest row.
	// '#' is a wall tile; anything else is floor.
	Tiles string `yaml:"tiles,omitempty"`
}

// LoadLayout reads and validates a layout YAML file.
func LoadLayout(path string) (*Layout, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read layout %s: %w", path, err)
	}
	l, err := ParseLayout(raw)
	if err != nil {
		return nil, fmt.Errorf("layout %s: %w", path, err)
	}
	return l, nil
}

// ParseLayout decodes a layout and folds its tile picture into Obstacles.
func ParseLayout(raw []byte) (*Layout, error) {
	var l Layout
	if err := yaml.Unmarshal(raw, &l); err != nil {
		return nil, fmt.Errorf("parse layout: %w", err)
	}
	if err := l.Validate(); err != nil {
		return nil, err
	}
	if l.Tiles != "" {
		rows := splitRows(l.Tiles)
		if int32(len(rows)) > l.Size.Y {
			return nil, fmt.Errorf("tiles: %d rows exceed height %d", len(rows), l.Size.Y)
		}
		for _, r := range rows {
			if int32(len(r)) > l.Size.X {
				return nil, fmt.Errorf("tiles: row %q exceeds width %d", r, l.Size.X)
			}
		}
		l.Obstacles = append(l.Obstacles, TileObstacles(rows, l.Origin)...)
		l.Tiles = ""
	}
	return &l, nil
}

// Validate checks sizes and scales.
func (l *Layout) Validate() error {
	if l.Size.X <= 0 || l.Size.Y <= 0 {
		return fmt.Errorf("size must be positive, got %dx%d", l.Size.X, l.Size.Y)
	}
	for i, o := range l.Obstacles {
		if o.W < 1 || o.H < 1 {
			return fmt.Errorf("obstacle %d: scale must be >= 1, got %dx%d", i, o.W, o.H)
		}
	}
	for i, m := range l.Movers {
		if m.W < 1 || m.H < 1 {
			return fmt.Errorf("mover %d: scale must be >= 1, got %dx%d", i, m.W, m.H)
		}
		if m.Speed <= 0 {
			return fmt.Errorf("mover %d: speed must be positive, got %g", i, m.Speed)
		}
	}
	return nil
}

// Rect returns the map bounds.
func (l *Layout) Rect() geom.Rect {
	return geom.RectFromOriginSize(geom.IV(l.Origin.X, l.Origin.Y), geom.IV(l.Size.X, l.Size.Y))
}

// Populate spawns the layout's obstacles and movers into s.
func (l *Layout) Populate(s *world.State) (obstacles, movers int) {
	for _, o := range l.Obstacles {
		s.SpawnObstacle(geom.V(float64(o.X), float64(o.Y)), geom.IV(o.W, o.H))
		obstacles++
	}
	for _, m := range l.Movers {
		var goal *geom.Vec2
		if m.Goal != nil {
			g := geom.V(m.Goal.X, m.Goal.Y)
			goal = &g
		}
		s.SpawnMover(geom.V(m.X, m.Y), geom.IV(m.W, m.H), m.Speed, goal)
		movers++
	}
	return obstacles, movers
}

// Marshal encodes the layout back to YAML.
func (l *Layout) Marshal() ([]byte, error) {
	return yaml.Marshal(l)
}

var errNoRows = errors.New("no tile rows")

func splitRows(s string) []string {
	lines := strings.Split(strings.TrimRight(s, "\n"), "\n")
	for i, ln := range lines {
		lines[i] = strings.TrimRight(ln, "\r")
	}
	return lines
}

// ParseTileRows splits an ASCII map into rows and returns its size.
func ParseTileRows(s string) ([]string, Cell, error) {
	rows := splitRows(s)
	if len(rows) == 0 || (len(rows) == 1 && rows[0] == "") {
		return nil, Cell{}, errNoRows
	}
	var width int
	for _, r := range rows {
		width = max(width, len(r))
	}
	return rows, Cell{X: int32(width), Y: int32(len(rows))}, nil
}

// TileObstacles turns an ASCII picture into obstacles, merging horizontal
// runs of '#' into one obstacle each. rows[0] is the highest row.
func TileObstacles(rows []string, origin Cell) []ObstacleSpec {
	var out []ObstacleSpec
	for i, r := range rows {
		y := origin.Y + int32(len(rows)-1-i)
		for x := 0; x < len(r); {
			if r[x] != '#' {
				x++
				continue
			}
			start := x
			for x < len(r) && r[x] == '#' {
				x++
			}
			out = append(out, ObstacleSpec{
				X: origin.X + int32(start),
				Y: y,
				W: int32(x - start),
				H: 1,
			})
		}
	}
	return out
}
