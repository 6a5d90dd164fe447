// Package engine drives the editor core: it owns the session, the nine-slot
// view and the tileset, dispatches protocol commands against them, and keeps
// the edit trail and chunk index up to date. All operations run under one
// mutex; the core is single-threaded by design.
package engine

import (
	"errors"
	"log"
	"sync"

	"tileforge.dev/internal/editor/chunk"
	"tileforge.dev/internal/editor/coord"
	"tileforge.dev/internal/editor/session"
	"tileforge.dev/internal/editor/tileset"
	"tileforge.dev/internal/editor/view"
	"tileforge.dev/internal/persistence/editlog"
	"tileforge.dev/internal/persistence/indexdb"
	"tileforge.dev/internal/protocol"
)

type Engine struct {
	mu sync.Mutex

	session *session.Session
	view    *view.MapView
	tiles   *tileset.Tileset

	trail *editlog.Logger
	index *indexdb.SQLiteIndex
	log   *log.Logger

	tilePx int
}

// Options carries the optional collaborators; nil members are skipped.
type Options struct {
	Trail *editlog.Logger
	Index *indexdb.SQLiteIndex
}

func New(s *session.Session, ts *tileset.Tileset, tilePx int, logger *log.Logger, opts Options) (*Engine, error) {
	e := &Engine{
		session: s,
		view:    view.New(tilePx),
		tiles:   ts,
		trail:   opts.Trail,
		index:   opts.Index,
		log:     logger,
		tilePx:  tilePx,
	}
	if err := e.view.Rebuild(s); err != nil {
		return nil, err
	}
	return e, nil
}

// Params describes the session for the WELCOME handshake.
func (e *Engine) Params() protocol.EditorParams {
	e.mu.Lock()
	defer e.mu.Unlock()
	return protocol.EditorParams{
		ChunkWidth:  chunk.Width,
		ChunkHeight: chunk.Height,
		Layers:      chunk.Layers,
		TilePx:      e.tilePx,
		Center:      e.session.ActiveKey(),
		Group:       e.session.Center().Group,
	}
}

// HandleAct runs one validated command and answers with an ACK. Commands
// that change the neighborhood or dirty state are followed by View/Dirty
// snapshots pushed by the transport.
func (e *Engine) HandleAct(act protocol.ActMsg) protocol.AckMsg {
	e.mu.Lock()
	defer e.mu.Unlock()

	ack := protocol.AckMsg{Type: protocol.TypeAck, ID: act.ID, OK: true}
	fail := func(code, msg string) protocol.AckMsg {
		ack.OK = false
		ack.Code = code
		ack.Message = msg
		return ack
	}

	switch act.Cmd {
	case protocol.CmdPaint:
		if act.Paint == nil {
			return fail(protocol.ErrBadRequest, "paint args missing")
		}
		e.paint(act.Paint.X, act.Paint.Y, act.Paint.Layer)

	case protocol.CmdMove:
		if act.Move == nil {
			return fail(protocol.ErrBadRequest, "move args missing")
		}
		dir, ok := coord.ParseDirection(act.Move.Dir)
		if !ok {
			return fail(protocol.ErrBadRequest, "unknown direction "+act.Move.Dir)
		}
		if err := e.move(dir); err != nil {
			if errors.Is(err, coord.ErrOutOfRange) {
				return fail(protocol.ErrOutOfRange, err.Error())
			}
			return fail(protocol.ErrInternal, err.Error())
		}

	case protocol.CmdJump:
		if act.Jump == nil {
			return fail(protocol.ErrBadRequest, "jump args missing")
		}
		if err := e.jump(coord.Coord{X: act.Jump.X, Y: act.Jump.Y, Group: act.Jump.Group}); err != nil {
			return fail(protocol.ErrInternal, err.Error())
		}

	case protocol.CmdSave:
		if err := e.saveActive(); err != nil {
			return fail(protocol.ErrSaveFailed, err.Error())
		}

	case protocol.CmdSaveAll:
		if err := e.saveAll(); err != nil {
			return fail(protocol.ErrSaveFailed, err.Error())
		}

	case protocol.CmdSelect:
		if act.Select == nil {
			return fail(protocol.ErrBadRequest, "select args missing")
		}
		size := e.tiles.Select(
			[2]int{act.Select.StartX, act.Select.StartY},
			[2]int{act.Select.EndX, act.Select.EndY},
		)
		e.view.SetPreviewSize(size)

	case protocol.CmdSwitchSource:
		if act.Source == nil {
			return fail(protocol.ErrBadRequest, "source args missing")
		}
		if err := e.tiles.SwitchSource(act.Source.Index); err != nil {
			return fail(protocol.ErrBadRequest, err.Error())
		}

	case protocol.CmdHover:
		if act.Hover == nil {
			return fail(protocol.ErrBadRequest, "hover args missing")
		}
		e.view.HoverPreview([2]int{act.Hover.X, act.Hover.Y})

	default:
		return fail(protocol.ErrUnknownCommand, "unknown command "+act.Cmd)
	}
	return ack
}

// paint stamps the current tileset selection at (x, y) on one layer.
func (e *Engine) paint(x, y, layer int) {
	written := e.view.PaintGroup([2]int{x, y}, layer, e.tiles, e.tiles.SelStart, e.tiles.SelSize)
	if written == 0 {
		return
	}
	e.session.MarkDirty()
	if e.trail != nil {
		if err := e.trail.Paint(e.session.ActiveKey(), layer, x, y, written); err != nil {
			e.log.Printf("edit trail: %v", err)
		}
	}
}

// move shifts the center. A dirty displaced chunk gets the live grid edits
// committed into it before the grid is rebuilt for the new center.
func (e *Engine) move(dir coord.Direction) error {
	displaced, err := e.session.MoveCenter(dir)
	if err != nil {
		return err
	}
	if displaced != "" {
		e.session.CommitTo(displaced, &e.view.Slots[view.SlotCenter])
	}
	if err := e.view.Rebuild(e.session); err != nil {
		return err
	}
	if e.trail != nil {
		if err := e.trail.Move(dir.String(), e.session.ActiveKey()); err != nil {
			e.log.Printf("edit trail: %v", err)
		}
	}
	return nil
}

func (e *Engine) jump(c coord.Coord) error {
	// Random jumps keep the previous chunk cached; only directional moves
	// carry the eviction policy.
	prev := e.session.ActiveKey()
	if pc, err := coord.ParseKey(prev); err == nil && e.session.IsDirty(pc) {
		e.session.CommitTo(prev, &e.view.Slots[view.SlotCenter])
	}
	if err := e.session.Activate(c); err != nil {
		return err
	}
	return e.view.Rebuild(e.session)
}

func (e *Engine) saveActive() error {
	if err := e.session.SaveActive(&e.view.Slots[view.SlotCenter]); err != nil {
		return err
	}
	if err := e.index.RecordChunk(e.session.Active()); err != nil {
		e.log.Printf("chunk index: %v", err)
	}
	if e.trail != nil {
		if err := e.trail.Save(e.session.ActiveKey()); err != nil {
			e.log.Printf("edit trail: %v", err)
		}
	}
	return nil
}

func (e *Engine) saveAll() error {
	e.session.CommitActive(&e.view.Slots[view.SlotCenter])
	saved, err := e.session.SaveAll()
	for _, key := range saved {
		if d, ok := e.session.Cached(key); ok {
			if ierr := e.index.RecordChunk(d); ierr != nil {
				e.log.Printf("chunk index: %v", ierr)
			}
		}
	}
	if e.trail != nil {
		if terr := e.trail.SaveAll(len(saved)); terr != nil {
			e.log.Printf("edit trail: %v", terr)
		}
	}
	return err
}

// ViewSnapshot renders the neighborhood as a sparse VIEW message.
func (e *Engine) ViewSnapshot() protocol.ViewMsg {
	e.mu.Lock()
	defer e.mu.Unlock()

	msg := protocol.ViewMsg{Type: protocol.TypeView, Center: e.session.ActiveKey()}
	for slot := 0; slot < view.SlotCount; slot++ {
		sc := protocol.SlotCells{Slot: slot}
		g := &e.view.Slots[slot]
		for layer := 0; layer < chunk.Layers; layer++ {
			for y := 0; y < chunk.Height; y++ {
				for x := 0; x < chunk.Width; x++ {
					if c := g.Cell(x, y, layer); c.TextureID != 0 {
						sc.Cells = append(sc.Cells, protocol.CellRef{X: x, Y: y, Layer: layer, ID: c.TextureID})
					}
				}
			}
		}
		msg.Slots = append(msg.Slots, sc)
	}
	return msg
}

// DirtySnapshot reports the unsaved chunk keys.
func (e *Engine) DirtySnapshot() protocol.DirtyMsg {
	e.mu.Lock()
	defer e.mu.Unlock()
	keys := e.session.DirtyKeys()
	return protocol.DirtyMsg{Type: protocol.TypeDirty, Unsaved: len(keys) > 0, Keys: keys}
}

// HasUnsavedChanges answers the exit-confirmation query.
func (e *Engine) HasUnsavedChanges() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.session.HasUnsavedChanges()
}

