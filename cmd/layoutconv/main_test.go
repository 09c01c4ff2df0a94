package main

import (
	"testing"

	"github.com/dorfsim/server/internal/data"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConvert(t *testing.T) {
	layout, err := convert("tiny", "..M\n.##\n#..\n")
	require.NoError(t, err)

	assert.Equal(t, data.Cell{X: 3, Y: 3}, layout.Size)
	assert.Equal(t, []data.ObstacleSpec{
		{X: 1, Y: 1, W: 2, H: 1},
		{X: 0, Y: 0, W: 1, H: 1},
	}, layout.Obstacles)
	require.Len(t, layout.Movers, 1)
	assert.Equal(t, 2.0, layout.Movers[0].X)
	assert.Equal(t, 2.0, layout.Movers[0].Y)

	out, err := layout.Marshal()
	require.NoError(t, err)
	back, err := data.ParseLayout(out)
	require.NoError(t, err)
	assert.Equal(t, layout.Obstacles, back.Obstacles)
}

func TestConvertEmpty(t *testing.T) {
	_, err := convert("empty", "")
	assert.Error(t, err)
}
