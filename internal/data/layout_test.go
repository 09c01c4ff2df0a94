package data

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/dorfsim/server/internal/geom"
	"github.com/dorfsim/server/internal/world"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaultLayout(t *testing.T) {
	l, err := LoadLayout(filepath.Join("..", "..", "data", "layouts", "default.yaml"))
	require.NoError(t, err)
	assert.Equal(t, "default", l.Name)
	assert.Equal(t, geom.NewRect(0, 0, 10, 50), l.Rect())
	require.Len(t, l.Obstacles, 1)
	assert.Equal(t, ObstacleSpec{X: 3, Y: 0, W: 1, H: 5}, l.Obstacles[0])
	assert.Empty(t, l.Movers)
}

func TestParseLayoutTiles(t *testing.T) {
	l, err := ParseLayout([]byte(`
name: maze
origin: {x: -1, y: 0}
size: {x: 5, y: 3}
movers:
  - {x: 0, y: 0, w: 1, h: 1, speed: 2, goal: {x: 3, y: 2}}
tiles: |
  ##...
  .....
  ..###
`))
	require.NoError(t, err)
	assert.Empty(t, l.Tiles)
	assert.Equal(t, []ObstacleSpec{
		{X: -1, Y: 2, W: 2, H: 1},
		{X: 1, Y: 0, W: 3, H: 1},
	}, l.Obstacles)

	s := world.NewState()
	obstacles, movers := l.Populate(s)
	assert.Equal(t, 2, obstacles)
	assert.Equal(t, 1, movers)

	var mover *world.Entity
	s.EachKind(world.KindMover, func(e *world.Entity) { mover = e })
	require.NotNil(t, mover)
	require.NotNil(t, mover.Goal)
	assert.Equal(t, geom.V(3, 2), *mover.Goal)
	assert.Equal(t, 2.0, mover.Speed)
}

func TestParseLayoutErrors(t *testing.T) {
	cases := map[string]string{
		"size":        "size: {x: 0, y: 4}\n",
		"obstacle":    "size: {x: 4, y: 4}\nobstacles: [{x: 0, y: 0, w: 0, h: 1}]\n",
		"mover speed": "size: {x: 4, y: 4}\nmovers: [{x: 0, y: 0, w: 1, h: 1, speed: 0}]\n",
		"tiles tall":  "size: {x: 2, y: 1}\ntiles: |\n  ..\n  ..\n",
		"tiles wide":  "size: {x: 2, y: 2}\ntiles: |\n  ...\n",
		"yaml":        "size: [",
	}
	for name, body := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := ParseLayout([]byte(body))
			assert.Error(t, err)
		})
	}
}

func TestLayoutRoundTripThroughFile(t *testing.T) {
	l := &Layout{
		Name:      "tiny",
		Size:      Cell{X: 3, Y: 3},
		Obstacles: []ObstacleSpec{{X: 1, Y: 1, W: 1, H: 1}},
	}
	raw, err := l.Marshal()
	require.NoError(t, err)
	path := filepath.Join(t.TempDir(), "tiny.yaml")
	require.NoError(t, os.WriteFile(path, raw, 0o644))

	got, err := LoadLayout(path)
	require.NoError(t, err)
	assert.Equal(t, l.Obstacles, got.Obstacles)
}

func TestParseTileRows(t *testing.T) {
	rows, size, err := ParseTileRows("#..\n.#\r\n")
	require.NoError(t, err)
	assert.Equal(t, []string{"#..", ".#"}, rows)
	assert.Equal(t, Cell{X: 3, Y: 2}, size)

	_, _, err = ParseTileRows("")
	assert.Error(t, err)
}
