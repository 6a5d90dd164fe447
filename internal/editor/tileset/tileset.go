// Package tileset presents a source atlas as a fixed 2D grid of tile ids and
// tracks the rectangular selection used for painting. Atlas geometry comes
// from a YAML catalog; the rendering collaborator owns the pixels.
package tileset

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"tileforge.dev/internal/editor/chunk"
)

// Display grid dimensions in tiles.
const (
	MaxTilesX = 10
	MaxTilesY = 20
)

// AtlasTile places one tile id at a pixel position inside its source image.
type AtlasTile struct {
	ID uint32 `yaml:"id"`
	X  uint32 `yaml:"x"`
	Y  uint32 `yaml:"y"`
}

type Atlas struct {
	Name  string      `yaml:"name"`
	Tiles []AtlasTile `yaml:"tiles"`
}

type Catalog struct {
	Tilesets []Atlas `yaml:"tilesets"`
}

// LoadCatalog reads the tileset catalog file.
func LoadCatalog(path string) (Catalog, error) {
	var c Catalog
	raw, err := os.ReadFile(path)
	if err != nil {
		return c, err
	}
	if err := yaml.Unmarshal(raw, &c); err != nil {
		return c, fmt.Errorf("tilesets.yaml: %w", err)
	}
	if len(c.Tilesets) == 0 {
		return c, fmt.Errorf("tilesets.yaml: no tilesets defined")
	}
	return c, nil
}

// DefaultCatalog is the fallback when no catalog file exists: one atlas with
// sequential ids laid out row by row from the top of the image.
func DefaultCatalog(tilePx int) Catalog {
	a := Atlas{Name: "default"}
	id := uint32(1)
	for row := 0; row < MaxTilesY; row++ {
		for col := 0; col < MaxTilesX; col++ {
			a.Tiles = append(a.Tiles, AtlasTile{
				ID: id,
				X:  uint32(col * tilePx),
				Y:  uint32(row * tilePx),
			})
			id++
		}
	}
	return Catalog{Tilesets: []Atlas{a}}
}

// Tileset is the picker grid plus the current selection rectangle.
type Tileset struct {
	catalog Catalog
	tilePx  int
	source  int

	cells [MaxTilesX * MaxTilesY]chunk.Cell

	SelStart [2]int
	SelSize  [2]int
}

// New builds the grid for the catalog's first atlas. A catalog without
// tilesets falls back to the generated default so the picker always has a
// source to show.
func New(cat Catalog, tilePx int) *Tileset {
	if len(cat.Tilesets) == 0 {
		cat = DefaultCatalog(tilePx)
	}
	t := &Tileset{
		catalog:  cat,
		tilePx:   tilePx,
		SelStart: [2]int{0, MaxTilesY - 1},
		SelSize:  [2]int{1, 1},
	}
	t.place(cat.Tilesets[0])
	return t
}

func (t *Tileset) Source() string { return t.catalog.Tilesets[t.source].Name }

// place lays every non-empty atlas tile onto the grid by its pixel position.
// The atlas's vertical axis is flipped: image row 0 ends up at the bottom.
func (t *Tileset) place(a Atlas) {
	for _, tile := range a.Tiles {
		if tile.ID == 0 {
			continue
		}
		x := int(tile.X) / t.tilePx
		y := MaxTilesY - int(tile.Y)/t.tilePx - 1
		if x < 0 || x >= MaxTilesX || y < 0 || y >= MaxTilesY {
			continue
		}
		t.cells[x+y*MaxTilesX] = chunk.Cell{TextureID: tile.ID, Color: chunk.White}
	}
}

// SwitchSource selects another atlas by index: a no-op when it is already
// active, otherwise the grid is cleared and rebuilt.
func (t *Tileset) SwitchSource(index int) error {
	if index < 0 || index >= len(t.catalog.Tilesets) {
		return fmt.Errorf("tileset index %d out of range", index)
	}
	if index == t.source {
		return nil
	}
	t.source = index
	for i := range t.cells {
		t.cells[i] = chunk.Cell{}
	}
	t.place(t.catalog.Tilesets[index])
	return nil
}

// Cell implements the paint source. Only layer 0 holds tiles.
func (t *Tileset) Cell(x, y, layer int) chunk.Cell {
	if layer != 0 || x < 0 || x >= MaxTilesX || y < 0 || y >= MaxTilesY {
		return chunk.Cell{}
	}
	return t.cells[x+y*MaxTilesX]
}

// Select normalizes two corner picks into (start, size) with start at the
// component-wise minimum and an inclusive size of at least 1x1. Returns the
// size for the caller to hand to PaintGroup.
func (t *Tileset) Select(start, end [2]int) [2]int {
	sx, ex := minMax(start[0], end[0])
	sy, ey := minMax(start[1], end[1])
	t.SelStart = [2]int{sx, sy}
	t.SelSize = [2]int{ex - sx + 1, ey - sy + 1}
	return t.SelSize
}

func minMax(a, b int) (int, int) {
	if a > b {
		return b, a
	}
	return a, b
}
