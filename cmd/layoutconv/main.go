// layoutconv converts a plain ASCII map to a layout YAML.
//
// '#' is a wall tile and 'M' a 1x1 mover without a goal; anything else is
// floor. The first line of the map is the highest row.
package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/dorfsim/server/internal/data"
)

const moverSpeed = 5

func main() {
	if len(os.Args) < 3 {
		fmt.Fprintln(os.Stderr, "Usage: layoutconv <map.txt> <output.yaml> [name]")
		os.Exit(1)
	}

	raw, err := os.ReadFile(os.Args[1])
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	name := strings.TrimSuffix(filepath.Base(os.Args[1]), filepath.Ext(os.Args[1]))
	if len(os.Args) > 3 {
		name = os.Args[3]
	}

	layout, err := convert(name, string(raw))
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	out, err := layout.Marshal()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	header := fmt.Sprintf("# Layout %s, generated from %s (%d obstacles, %d movers)\n",
		name, filepath.Base(os.Args[1]), len(layout.Obstacles), len(layout.Movers))
	if err := os.WriteFile(os.Args[2], append([]byte(header), out...), 0o644); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	fmt.Printf("Wrote %dx%d layout to %s\n", layout.Size.X, layout.Size.Y, os.Args[2])
}

func convert(name, ascii string) (*data.Layout, error) {
	rows, size, err := data.ParseTileRows(ascii)
	if err != nil {
		return nil, err
	}
	layout := &data.Layout{
		Name:      name,
		Size:      size,
		Obstacles: data.TileObstacles(rows, data.Cell{}),
	}
	for i, r := range rows {
		y := float64(len(rows) - 1 - i)
		for x, c := range []byte(r) {
			if c == 'M' {
				layout.Movers = append(layout.Movers, data.MoverSpec{
					X: float64(x), Y: y, W: 1, H: 1, Speed: moverSpeed,
				})
			}
		}
	}
	if err := layout.Validate(); err != nil {
		return nil, err
	}
	return layout, nil
}
