package engine

import (
	"io"
	"log"
	"path/filepath"
	"testing"

	"tileforge.dev/internal/editor/chunk"
	"tileforge.dev/internal/editor/coord"
	"tileforge.dev/internal/editor/session"
	"tileforge.dev/internal/editor/tileset"
	"tileforge.dev/internal/persistence/indexdb"
	"tileforge.dev/internal/persistence/mapfile"
	"tileforge.dev/internal/protocol"
)

func newTestEngine(t *testing.T) (*Engine, *mapfile.Store, *indexdb.SQLiteIndex) {
	t.Helper()
	dataDir := t.TempDir()
	logger := log.New(io.Discard, "", 0)
	store := mapfile.NewStore(dataDir, logger)
	if err := store.Init(); err != nil {
		t.Fatalf("init: %v", err)
	}
	s, err := session.New(store, coord.Coord{})
	if err != nil {
		t.Fatalf("session: %v", err)
	}
	idx, err := indexdb.Open(filepath.Join(dataDir, "index.db"))
	if err != nil {
		t.Fatalf("index: %v", err)
	}
	t.Cleanup(func() { _ = idx.Close() })
	ts := tileset.New(tileset.DefaultCatalog(20), 20)
	e, err := New(s, ts, 20, logger, Options{Index: idx})
	if err != nil {
		t.Fatalf("engine: %v", err)
	}
	return e, store, idx
}

func act(cmd string) protocol.ActMsg {
	return protocol.ActMsg{Type: protocol.TypeAct, ProtocolVersion: protocol.Version, Cmd: cmd}
}

func TestPaintMarksDirtyAndSavePersists(t *testing.T) {
	e, store, _ := newTestEngine(t)

	// Move east, paint, save: the basic editing loop.
	m := act(protocol.CmdMove)
	m.Move = &protocol.MoveArgs{Dir: "east"}
	if ack := e.HandleAct(m); !ack.OK {
		t.Fatalf("move: %+v", ack)
	}
	if got := e.Params().Center; got != "1_0_0" {
		t.Fatalf("center: %q", got)
	}

	p := act(protocol.CmdPaint)
	p.Paint = &protocol.PaintArgs{X: 5, Y: 5, Layer: 0}
	if ack := e.HandleAct(p); !ack.OK {
		t.Fatalf("paint: %+v", ack)
	}
	dirty := e.DirtySnapshot()
	if !dirty.Unsaved || len(dirty.Keys) != 1 || dirty.Keys[0] != "1_0_0" {
		t.Fatalf("dirty: %+v", dirty)
	}

	if ack := e.HandleAct(act(protocol.CmdSave)); !ack.OK {
		t.Fatalf("save: %+v", ack)
	}
	if e.HasUnsavedChanges() {
		t.Fatalf("dirty flag should clear after save")
	}

	d, err := store.Load(coord.Coord{X: 1, Y: 0})
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if d.Tile[0].ID[165] == 0 {
		t.Fatalf("flattened index 165 should be painted")
	}
}

func TestPaintWithEmptySelectionIsNoop(t *testing.T) {
	e, _, _ := newTestEngine(t)

	// Select an empty region of the tileset: default catalog has no gaps,
	// so point the selection at a hole by switching to a sparse atlas.
	cat := tileset.Catalog{Tilesets: []tileset.Atlas{{Name: "sparse", Tiles: []tileset.AtlasTile{{ID: 1, X: 0, Y: 0}}}}}
	ts := tileset.New(cat, 20)
	e.tiles = ts
	ts.Select([2]int{5, 5}, [2]int{6, 6}) // nothing placed there

	p := act(protocol.CmdPaint)
	p.Paint = &protocol.PaintArgs{X: 0, Y: 0, Layer: 0}
	if ack := e.HandleAct(p); !ack.OK {
		t.Fatalf("paint: %+v", ack)
	}
	if e.HasUnsavedChanges() {
		t.Fatalf("empty paint must not dirty the chunk")
	}
}

func TestMoveOutOfRangeIsRejected(t *testing.T) {
	e, _, _ := newTestEngine(t)

	// Jump to the eastern edge, then try to move further east.
	j := act(protocol.CmdJump)
	j.Jump = &protocol.JumpArgs{X: 2147483647, Y: 0}
	if ack := e.HandleAct(j); !ack.OK {
		t.Fatalf("jump: %+v", ack)
	}
	m := act(protocol.CmdMove)
	m.Move = &protocol.MoveArgs{Dir: "east"}
	ack := e.HandleAct(m)
	if ack.OK || ack.Code != protocol.ErrOutOfRange {
		t.Fatalf("expected out-of-range, got %+v", ack)
	}
	if got := e.Params().Center; got != "2147483647_0_0" {
		t.Fatalf("center should not move, got %q", got)
	}
}

func TestSaveAllRecordsIndex(t *testing.T) {
	e, _, idx := newTestEngine(t)

	p := act(protocol.CmdPaint)
	p.Paint = &protocol.PaintArgs{X: 0, Y: 0, Layer: 0}
	if ack := e.HandleAct(p); !ack.OK {
		t.Fatalf("paint: %+v", ack)
	}
	if ack := e.HandleAct(act(protocol.CmdSaveAll)); !ack.OK {
		t.Fatalf("save all: %+v", ack)
	}

	rows, err := idx.Chunks(0)
	if err != nil {
		t.Fatalf("index query: %v", err)
	}
	if len(rows) != 1 || rows[0].Key != "0_0_0" || rows[0].Filled == 0 {
		t.Fatalf("index rows: %+v", rows)
	}
}

func TestViewSnapshotIsSparse(t *testing.T) {
	e, _, _ := newTestEngine(t)

	p := act(protocol.CmdPaint)
	p.Paint = &protocol.PaintArgs{X: 3, Y: 4, Layer: 1}
	if ack := e.HandleAct(p); !ack.OK {
		t.Fatalf("paint: %+v", ack)
	}

	v := e.ViewSnapshot()
	if v.Center != "0_0_0" || len(v.Slots) != 9 {
		t.Fatalf("view header: %+v", v)
	}
	var center protocol.SlotCells
	for _, s := range v.Slots {
		if s.Slot == 0 {
			center = s
		}
	}
	if len(center.Cells) != 1 {
		t.Fatalf("center cells: %+v", center.Cells)
	}
	c := center.Cells[0]
	if c.X != 3 || c.Y != 4 || c.Layer != 1 || c.ID == 0 {
		t.Fatalf("cell: %+v", c)
	}
}

func TestSelectUpdatesPreviewAndPaintSize(t *testing.T) {
	e, _, _ := newTestEngine(t)

	sel := act(protocol.CmdSelect)
	sel.Select = &protocol.SelectArgs{StartX: 2, StartY: 3, EndX: 1, EndY: 1}
	if ack := e.HandleAct(sel); !ack.OK {
		t.Fatalf("select: %+v", ack)
	}
	if e.tiles.SelStart != [2]int{1, 1} || e.tiles.SelSize != [2]int{2, 3} {
		t.Fatalf("selection: start=%v size=%v", e.tiles.SelStart, e.tiles.SelSize)
	}

	p := act(protocol.CmdPaint)
	p.Paint = &protocol.PaintArgs{X: 10, Y: 10, Layer: 0}
	if ack := e.HandleAct(p); !ack.OK {
		t.Fatalf("paint: %+v", ack)
	}
	v := e.ViewSnapshot()
	var center protocol.SlotCells
	for _, s := range v.Slots {
		if s.Slot == 0 {
			center = s
		}
	}
	if len(center.Cells) != 6 {
		t.Fatalf("expected 2x3 stamp, got %d cells", len(center.Cells))
	}
}

func TestDirtyChunkSurvivesMoveAndSaveAll(t *testing.T) {
	e, store, _ := newTestEngine(t)

	p := act(protocol.CmdPaint)
	p.Paint = &protocol.PaintArgs{X: 7, Y: 7, Layer: 0}
	if ack := e.HandleAct(p); !ack.OK {
		t.Fatalf("paint: %+v", ack)
	}
	m := act(protocol.CmdMove)
	m.Move = &protocol.MoveArgs{Dir: "north"}
	if ack := e.HandleAct(m); !ack.OK {
		t.Fatalf("move: %+v", ack)
	}

	dirty := e.DirtySnapshot()
	if len(dirty.Keys) != 1 || dirty.Keys[0] != "0_0_0" {
		t.Fatalf("displaced dirty chunk lost: %+v", dirty)
	}

	if ack := e.HandleAct(act(protocol.CmdSaveAll)); !ack.OK {
		t.Fatalf("save all: %+v", ack)
	}
	d, err := store.Load(coord.Coord{})
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if d.Tile[0].ID[chunk.Index(7, 7)] == 0 {
		t.Fatalf("edits from before the move were lost")
	}
}

func TestUnknownCommand(t *testing.T) {
	e, _, _ := newTestEngine(t)
	ack := e.HandleAct(act("explode"))
	if ack.OK || ack.Code != protocol.ErrUnknownCommand {
		t.Fatalf("ack: %+v", ack)
	}
	if !protocol.IsKnownCode(ack.Code) {
		t.Fatalf("unknown error code %q", ack.Code)
	}
}
