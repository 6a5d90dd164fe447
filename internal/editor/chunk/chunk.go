package chunk

import (
	"fmt"

	"tileforge.dev/internal/editor/coord"
)

// Fixed chunk geometry. The whole editor assumes these; they are not tunable.
const (
	Width         = 32
	Height        = 32
	Layers        = 8
	CellsPerLayer = Width * Height
)

// Index flattens a tile position to its row-major layer index.
func Index(x, y int) int { return x + y*Width }

// InBounds reports whether (x, y) addresses a tile inside one chunk.
func InBounds(x, y int) bool {
	return x >= 0 && x < Width && y >= 0 && y < Height
}

// Layer holds the tile ids of one chunk layer, row-major. Id 0 means empty.
type Layer struct {
	ID []uint32 `json:"id"`
}

// Data is the persisted form of one chunk: its coordinate plus 8 tile layers.
type Data struct {
	X     int32   `json:"x"`
	Y     int32   `json:"y"`
	Group uint64  `json:"group"`
	Tile  []Layer `json:"tile"`
}

// New returns the default all-empty chunk for a coordinate.
func New(c coord.Coord) *Data {
	d := &Data{X: c.X, Y: c.Y, Group: c.Group, Tile: make([]Layer, Layers)}
	for i := range d.Tile {
		d.Tile[i].ID = make([]uint32, CellsPerLayer)
	}
	return d
}

func (d *Data) Coord() coord.Coord {
	return coord.Coord{X: d.X, Y: d.Y, Group: d.Group}
}

func (d *Data) Key() string { return d.Coord().Key() }

// Validate checks the on-disk shape: exactly 8 layers of exactly 1024 ids.
func (d *Data) Validate() error {
	if len(d.Tile) != Layers {
		return fmt.Errorf("chunk %s: layer count mismatch: got %d want %d", d.Key(), len(d.Tile), Layers)
	}
	for i, l := range d.Tile {
		if len(l.ID) != CellsPerLayer {
			return fmt.Errorf("chunk %s: layer %d length mismatch: got %d want %d", d.Key(), i, len(l.ID), CellsPerLayer)
		}
	}
	return nil
}

// FilledCells counts non-empty tiles across all layers.
func (d *Data) FilledCells() int {
	n := 0
	for _, l := range d.Tile {
		for _, id := range l.ID {
			if id != 0 {
				n++
			}
		}
	}
	return n
}
