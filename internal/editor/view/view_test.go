package view

import (
	"io"
	"log"
	"testing"

	"tileforge.dev/internal/editor/chunk"
	"tileforge.dev/internal/editor/coord"
	"tileforge.dev/internal/editor/session"
	"tileforge.dev/internal/persistence/mapfile"
)

type gridSource struct {
	g chunk.Grid
}

func (s *gridSource) Cell(x, y, layer int) chunk.Cell { return s.g.Cell(x, y, layer) }

func newTestSession(t *testing.T) (*session.Session, *mapfile.Store) {
	t.Helper()
	store := mapfile.NewStore(t.TempDir(), log.New(io.Discard, "", 0))
	if err := store.Init(); err != nil {
		t.Fatalf("init store: %v", err)
	}
	s, err := session.New(store, coord.Coord{})
	if err != nil {
		t.Fatalf("session: %v", err)
	}
	return s, store
}

func TestRebuildCopiesCenterVerbatim(t *testing.T) {
	s, _ := newTestSession(t)
	s.Active().Tile[2].ID[chunk.Index(10, 20)] = 55

	v := New(20)
	if err := v.Rebuild(s); err != nil {
		t.Fatalf("rebuild: %v", err)
	}
	got := v.Slots[SlotCenter].Cell(10, 20, 2)
	if got.TextureID != 55 || got.Color != chunk.White {
		t.Fatalf("center cell: %+v", got)
	}
}

func TestRebuildLeavesMissingNeighborsEmpty(t *testing.T) {
	s, store := newTestSession(t)
	v := New(20)
	if err := v.Rebuild(s); err != nil {
		t.Fatalf("rebuild: %v", err)
	}
	for slot := 1; slot < SlotCount; slot++ {
		for l := 0; l < chunk.Layers; l++ {
			for i := 0; i < chunk.CellsPerLayer; i++ {
				if v.Slots[slot].Cells[l][i].TextureID != 0 {
					t.Fatalf("slot %d should be empty", slot)
				}
			}
		}
	}
	// Preview access must not have created neighbor files.
	for _, d := range []coord.Direction{coord.North, coord.South, coord.East, coord.West} {
		nc, _ := (coord.Coord{}).Offset(d)
		if store.Exists(nc) {
			t.Fatalf("rebuild created neighbor file %s", nc.Key())
		}
	}
}

func TestRebuildCopiesNeighborBands(t *testing.T) {
	s, store := newTestSession(t)

	// East neighbor: mark its west edge column x=0 and an interior cell.
	east := chunk.New(coord.Coord{X: 1, Y: 0})
	east.Tile[0].ID[chunk.Index(0, 7)] = 21
	east.Tile[0].ID[chunk.Index(1, 7)] = 22
	east.Tile[0].ID[chunk.Index(5, 7)] = 23 // outside the 2-wide band
	if err := store.Save(east); err != nil {
		t.Fatalf("seed east: %v", err)
	}

	// North neighbor: mark its south edge row y=0.
	north := chunk.New(coord.Coord{X: 0, Y: 1})
	north.Tile[3].ID[chunk.Index(12, 0)] = 31
	north.Tile[3].ID[chunk.Index(12, 1)] = 32
	north.Tile[3].ID[chunk.Index(12, 2)] = 33 // outside the band
	if err := store.Save(north); err != nil {
		t.Fatalf("seed north: %v", err)
	}

	// NorthEast corner: the 2x2 band reads from origin (0, 0).
	ne := chunk.New(coord.Coord{X: 1, Y: 1})
	ne.Tile[1].ID[chunk.Index(1, 1)] = 41
	ne.Tile[1].ID[chunk.Index(2, 2)] = 42 // outside the corner band
	if err := store.Save(ne); err != nil {
		t.Fatalf("seed ne: %v", err)
	}

	// West neighbor: band reads columns 30-31.
	west := chunk.New(coord.Coord{X: -1, Y: 0})
	west.Tile[0].ID[chunk.Index(31, 4)] = 51
	if err := store.Save(west); err != nil {
		t.Fatalf("seed west: %v", err)
	}

	v := New(20)
	if err := v.Rebuild(s); err != nil {
		t.Fatalf("rebuild: %v", err)
	}

	eastSlot, northSlot, neSlot, westSlot := 5, 2, 3, 4
	if got := v.Slots[eastSlot].Cell(0, 7, 0).TextureID; got != 21 {
		t.Fatalf("east band (0,7): got %d want 21", got)
	}
	if got := v.Slots[eastSlot].Cell(1, 7, 0).TextureID; got != 22 {
		t.Fatalf("east band (1,7): got %d want 22", got)
	}
	for x := 2; x < chunk.Width; x++ {
		if got := v.Slots[eastSlot].Cell(x, 7, 0).TextureID; got != 0 {
			t.Fatalf("east slot should only hold the 2-wide band, found %d at x=%d", got, x)
		}
	}
	if got := v.Slots[northSlot].Cell(12, 0, 3).TextureID; got != 31 {
		t.Fatalf("north band (12,0): got %d want 31", got)
	}
	if got := v.Slots[northSlot].Cell(12, 1, 3).TextureID; got != 32 {
		t.Fatalf("north band (12,1): got %d want 32", got)
	}
	if got := v.Slots[northSlot].Cell(12, 2, 3).TextureID; got != 0 {
		t.Fatalf("north band height must be 2, found %d", got)
	}
	if got := v.Slots[neSlot].Cell(1, 1, 1).TextureID; got != 41 {
		t.Fatalf("ne corner (1,1): got %d want 41", got)
	}
	if got := v.Slots[neSlot].Cell(2, 2, 1).TextureID; got != 0 {
		t.Fatalf("ne corner band is 2x2, found %d", got)
	}
	// West band origin is column 30, so chunk column 31 lands at slot x=1.
	if got := v.Slots[westSlot].Cell(1, 4, 0).TextureID; got != 51 {
		t.Fatalf("west band: got %d want 51", got)
	}

	// Neighbor loads for preview must be cached clean.
	if s.IsDirty(coord.Coord{X: 1, Y: 0}) {
		t.Fatalf("neighbor preview load dirtied the neighbor")
	}
}

func TestPaintGroupSkipsEmptyAndOutOfBounds(t *testing.T) {
	s, _ := newTestSession(t)
	v := New(20)
	if err := v.Rebuild(s); err != nil {
		t.Fatalf("rebuild: %v", err)
	}

	src := &gridSource{}
	src.g.SetCell(0, 0, 0, chunk.Cell{TextureID: 5, Color: chunk.White})
	src.g.SetCell(1, 1, 0, chunk.Cell{TextureID: 6, Color: chunk.White})
	// (1, 0) and (0, 1) stay empty.

	written := v.PaintGroup([2]int{30, 30}, 0, src, [2]int{0, 0}, [2]int{2, 2})
	if written != 2 {
		t.Fatalf("written: got %d want 2", written)
	}
	if got := v.Slots[SlotCenter].Cell(30, 30, 0).TextureID; got != 5 {
		t.Fatalf("dst (30,30): got %d", got)
	}
	if got := v.Slots[SlotCenter].Cell(31, 31, 0).TextureID; got != 6 {
		t.Fatalf("dst (31,31): got %d", got)
	}
	if got := v.Slots[SlotCenter].Cell(31, 30, 0).TextureID; got != 0 {
		t.Fatalf("empty source cell must not overwrite, got %d", got)
	}

	// Entirely off the edge: everything dropped, nothing written.
	written = v.PaintGroup([2]int{31, 31}, 0, src, [2]int{1, 1}, [2]int{1, 1})
	if written != 1 {
		t.Fatalf("corner paint: got %d want 1", written)
	}
	written = v.PaintGroup([2]int{32, 32}, 0, src, [2]int{0, 0}, [2]int{2, 2})
	if written != 0 {
		t.Fatalf("fully out-of-bounds paint wrote %d cells", written)
	}
}

func TestPaintGroupTargetsUpperLayers(t *testing.T) {
	s, _ := newTestSession(t)
	v := New(20)
	if err := v.Rebuild(s); err != nil {
		t.Fatalf("rebuild: %v", err)
	}

	// The tileset keeps its tiles at layer 0 only; the stamp must still land
	// on whichever destination layer was asked for.
	src := &gridSource{}
	src.g.SetCell(2, 3, 0, chunk.Cell{TextureID: 9, Color: chunk.White})

	for layer := 0; layer < chunk.Layers; layer++ {
		written := v.PaintGroup([2]int{10 + layer, 10}, layer, src, [2]int{2, 3}, [2]int{1, 1})
		if written != 1 {
			t.Fatalf("layer %d: written %d want 1", layer, written)
		}
		if got := v.Slots[SlotCenter].Cell(10+layer, 10, layer).TextureID; got != 9 {
			t.Fatalf("layer %d: got %d want 9", layer, got)
		}
	}
	if got := v.Slots[SlotCenter].Cell(11, 10, 0).TextureID; got != 0 {
		t.Fatalf("layer 1 paint leaked onto layer 0: got %d", got)
	}
}

func TestPaintGroupAllEmptySourceWritesNothing(t *testing.T) {
	s, _ := newTestSession(t)
	v := New(20)
	if err := v.Rebuild(s); err != nil {
		t.Fatalf("rebuild: %v", err)
	}
	src := &gridSource{}
	if written := v.PaintGroup([2]int{5, 5}, 0, src, [2]int{0, 0}, [2]int{4, 4}); written != 0 {
		t.Fatalf("empty source painted %d cells", written)
	}
}

func TestHoverPreviewClamping(t *testing.T) {
	v := New(20)
	v.SetPreviewSize([2]int{4, 6})
	v.HoverPreview([2]int{30, 28})
	if v.Preview.Clamped != [2]int{2, 4} {
		t.Fatalf("clamped: got %v want {2 4}", v.Preview.Clamped)
	}

	v.Preview.Changed = false
	v.HoverPreview([2]int{30, 28})
	if v.Preview.Changed {
		t.Fatalf("same position should be a no-op")
	}
	v.HoverPreview([2]int{32, 0})
	if v.Preview.Changed {
		t.Fatalf("positions past the edge are ignored")
	}

	x, y, w, h := v.PreviewScreenRect()
	if x != 257+30*20 || y != 77+28*20 || w != 2*20 || h != 4*20 {
		t.Fatalf("screen rect: got (%v,%v,%v,%v)", x, y, w, h)
	}
}

func TestHoverLinkedSelectionTogglesOnTransition(t *testing.T) {
	v := New(20)
	o := v.Overlays[0]
	v.HoverLinkedSelection(o.X+1, o.Y+1)
	if !v.Overlays[0].Hovered || !v.Overlays[0].Changed {
		t.Fatalf("overlay 0 should be hovered and changed")
	}
	v.Overlays[0].Changed = false
	v.HoverLinkedSelection(o.X+2, o.Y+2)
	if v.Overlays[0].Changed {
		t.Fatalf("staying inside must not flag a change")
	}
	v.HoverLinkedSelection(-100, -100)
	if v.Overlays[0].Hovered || !v.Overlays[0].Changed {
		t.Fatalf("leaving should clear hover and flag a change")
	}
}

func TestSlotDirection(t *testing.T) {
	d, ok := SlotDirection(5)
	if !ok || d != coord.East {
		t.Fatalf("slot 5: got %v", d)
	}
	if _, ok := SlotDirection(0); ok {
		t.Fatalf("center slot has no direction")
	}
}
