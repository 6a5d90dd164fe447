// Package view projects the session's authoritative chunk data into the
// nine-slot render neighborhood: the active chunk in full plus the border
// bands of its eight compass neighbors, and applies paint actions to the
// center slot. It never touches persistence.
package view

import (
	"errors"

	"tileforge.dev/internal/editor/chunk"
	"tileforge.dev/internal/editor/coord"
	"tileforge.dev/internal/editor/session"
)

// Slot indices. Slot 0 is the active chunk; 1-8 are the neighbor previews.
const (
	SlotCenter = 0
	SlotCount  = 9
)

// band describes what one neighbor slot shows: which neighbor, and the strip
// of its tiles that sits against the center chunk. The strip is copied into
// the slot starting at (0, 0).
type band struct {
	dir    coord.Direction
	origin [2]int // strip origin inside the neighbor chunk
	size   [2]int // strip size in tiles (w, h)
}

// One entry per neighbor slot, index = slot - 1.
var bands = [SlotCount - 1]band{
	{coord.NorthWest, [2]int{30, 0}, [2]int{2, 2}},
	{coord.North, [2]int{0, 0}, [2]int{32, 2}},
	{coord.NorthEast, [2]int{0, 0}, [2]int{2, 2}},
	{coord.West, [2]int{30, 0}, [2]int{2, 32}},
	{coord.East, [2]int{0, 0}, [2]int{2, 32}},
	{coord.SouthWest, [2]int{30, 30}, [2]int{2, 2}},
	{coord.South, [2]int{0, 30}, [2]int{32, 2}},
	{coord.SouthEast, [2]int{0, 30}, [2]int{2, 2}},
}

// CellSource supplies tile cells for painting; the tileset implements it.
type CellSource interface {
	Cell(x, y, layer int) chunk.Cell
}

// Overlay is the hover highlight over one neighbor slot, in screen pixels.
type Overlay struct {
	X, Y, W, H float64
	Hovered    bool
	Changed    bool
}

// Preview is the cursor-following selection rectangle over the center slot.
type Preview struct {
	Pos     [2]int // tiles
	Size    [2]int // requested size in tiles
	Clamped [2]int // size after clamping against the chunk edge
	Changed bool
}

// MapView is the nine-slot render neighborhood.
type MapView struct {
	Slots [SlotCount]chunk.Grid

	tilePx      float64
	slotOrigins [SlotCount][2]float64

	Overlays [SlotCount - 1]Overlay
	Preview  Preview
}

// Default slot origins in screen pixels, indexed like Slots.
var defaultSlotOrigins = [SlotCount][2]float64{
	{257, 77},  // center
	{215, 719}, // top left
	{257, 719}, // top
	{899, 719}, // top right
	{215, 77},  // left
	{899, 77},  // right
	{215, 35},  // bottom left
	{257, 35},  // bottom
	{899, 35},  // bottom right
}

func New(tilePx int) *MapView {
	v := &MapView{
		tilePx:      float64(tilePx),
		slotOrigins: defaultSlotOrigins,
	}
	for i, b := range bands {
		o := v.slotOrigins[i+1]
		v.Overlays[i] = Overlay{
			X: o[0], Y: o[1],
			W: float64(b.size[0]) * v.tilePx,
			H: float64(b.size[1]) * v.tilePx,
		}
	}
	v.Preview.Size = [2]int{1, 1}
	v.Preview.Clamped = [2]int{1, 1}
	return v
}

// Rebuild repopulates all nine slots from the session. The center is copied
// verbatim; each neighbor slot gets its border band only if that neighbor
// already exists, so previewing never creates chunks on disk.
func (v *MapView) Rebuild(s *session.Session) error {
	v.Slots[SlotCenter].LoadData(s.Active())

	for i, b := range bands {
		slot := &v.Slots[i+1]
		slot.Clear()

		nc, err := s.Center().Offset(b.dir)
		if err != nil {
			if errors.Is(err, coord.ErrOutOfRange) {
				continue
			}
			return err
		}
		d, ok, err := s.Peek(nc)
		if err != nil {
			return err
		}
		if !ok {
			continue
		}
		for layer := 0; layer < chunk.Layers; layer++ {
			for by := 0; by < b.size[1]; by++ {
				for bx := 0; bx < b.size[0]; bx++ {
					id := d.Tile[layer].ID[chunk.Index(b.origin[0]+bx, b.origin[1]+by)]
					if id != 0 {
						slot.SetCell(bx, by, layer, chunk.Cell{TextureID: id, Color: chunk.White})
					}
				}
			}
		}
	}
	return nil
}

// PaintGroup stamps a rectangular block from src onto the center slot at dst
// on one layer. The source is always read at layer 0 (the tileset grid keeps
// its tiles there) while layer picks the destination. Empty source cells
// never overwrite and destinations outside the chunk are dropped. Returns the
// number of cells written; the caller marks the session dirty when it is
// nonzero.
func (v *MapView) PaintGroup(dst [2]int, layer int, src CellSource, srcOrigin, size [2]int) int {
	written := 0
	for x := 0; x < size[0]; x++ {
		for y := 0; y < size[1]; y++ {
			cell := src.Cell(srcOrigin[0]+x, srcOrigin[1]+y, 0)
			if cell.TextureID == 0 {
				continue
			}
			tx, ty := dst[0]+x, dst[1]+y
			if !chunk.InBounds(tx, ty) {
				continue
			}
			v.Slots[SlotCenter].SetCell(tx, ty, layer, cell)
			written++
		}
	}
	return written
}

// HoverPreview moves the selection preview to a tile position. Positions at
// or past the chunk edge are ignored; an unchanged position is a no-op so
// the renderer only re-uploads when something moved.
func (v *MapView) HoverPreview(pos [2]int) {
	if pos == v.Preview.Pos || pos[0] < 0 || pos[1] < 0 || pos[0] >= chunk.Width || pos[1] >= chunk.Height {
		return
	}
	v.Preview.Pos = pos
	v.clampPreview()
	v.Preview.Changed = true
}

// SetPreviewSize resizes the selection preview (after a tileset selection).
func (v *MapView) SetPreviewSize(size [2]int) {
	if size[0] < 1 {
		size[0] = 1
	}
	if size[1] < 1 {
		size[1] = 1
	}
	v.Preview.Size = size
	v.clampPreview()
	v.Preview.Changed = true
}

// clampPreview keeps pos+size inside the 32x32 chunk without moving pos.
func (v *MapView) clampPreview() {
	cw := v.Preview.Pos[0] + v.Preview.Size[0]
	ch := v.Preview.Pos[1] + v.Preview.Size[1]
	if cw > chunk.Width {
		cw = chunk.Width
	}
	if ch > chunk.Height {
		ch = chunk.Height
	}
	v.Preview.Clamped = [2]int{cw - v.Preview.Pos[0], ch - v.Preview.Pos[1]}
}

// PreviewScreenRect returns the preview rectangle in screen pixels.
func (v *MapView) PreviewScreenRect() (x, y, w, h float64) {
	o := v.slotOrigins[SlotCenter]
	x = o[0] + float64(v.Preview.Pos[0])*v.tilePx
	y = o[1] + float64(v.Preview.Pos[1])*v.tilePx
	w = float64(v.Preview.Clamped[0]) * v.tilePx
	h = float64(v.Preview.Clamped[1]) * v.tilePx
	return x, y, w, h
}

// HoverLinkedSelection hit-tests a screen point against the eight neighbor
// overlays and toggles their hover state. Pure geometry; tile data plays no
// part. Overlays flag Changed only on transitions.
func (v *MapView) HoverLinkedSelection(px, py float64) {
	for i := range v.Overlays {
		o := &v.Overlays[i]
		inside := px >= o.X && px <= o.X+o.W && py >= o.Y && py <= o.Y+o.H
		if inside != o.Hovered {
			o.Hovered = inside
			o.Changed = true
		}
	}
}

// SlotDirection maps a neighbor slot index (1-8) to its compass direction.
func SlotDirection(slot int) (coord.Direction, bool) {
	if slot < 1 || slot >= SlotCount {
		return 0, false
	}
	return bands[slot-1].dir, true
}
