// Package session maintains the working set of in-memory chunks for one
// editing session: at most one canonical copy per coordinate, per-chunk dirty
// tracking, and eviction of clean chunks as the center moves away from them.
package session

import (
	"fmt"

	"tileforge.dev/internal/editor/chunk"
	"tileforge.dev/internal/editor/coord"
	"tileforge.dev/internal/persistence/mapfile"
)

// Session owns the chunk cache. It assumes a single editing thread and
// exclusive access to the store's data directory.
type Session struct {
	store *mapfile.Store

	center    coord.Coord
	activeKey string

	// chunks and dirty are kept in lock-step; order preserves insertion for
	// deterministic bulk-save iteration.
	chunks map[string]*chunk.Data
	dirty  map[string]bool
	order  []string
}

// New starts a session centered on start, loading (or creating) its chunk.
func New(store *mapfile.Store, start coord.Coord) (*Session, error) {
	s := &Session{
		store:  store,
		chunks: map[string]*chunk.Data{},
		dirty:  map[string]bool{},
	}
	if err := s.Activate(start); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *Session) Center() coord.Coord { return s.center }
func (s *Session) ActiveKey() string   { return s.activeKey }

// Active returns the center chunk's data. The active key always has an entry.
func (s *Session) Active() *chunk.Data { return s.chunks[s.activeKey] }

func (s *Session) insert(key string, d *chunk.Data) {
	s.chunks[key] = d
	s.dirty[key] = false
	s.order = append(s.order, key)
}

func (s *Session) evict(key string) {
	delete(s.chunks, key)
	delete(s.dirty, key)
	for i, k := range s.order {
		if k == key {
			s.order = append(s.order[:i], s.order[i+1:]...)
			break
		}
	}
}

// Activate makes c the center, loading its chunk on a cache miss. Nothing is
// evicted; this is the entry point for session start and random jumps.
func (s *Session) Activate(c coord.Coord) error {
	key := c.Key()
	if _, ok := s.chunks[key]; !ok {
		d, err := s.store.Load(c)
		if err != nil {
			return err
		}
		s.insert(key, d)
	}
	s.center = c
	s.activeKey = key
	return nil
}

// MoveCenter shifts the center one chunk in a direction. The previous center
// is evicted if clean; if dirty it stays cached and its key is returned so
// the caller can commit pending grid edits into it and remember it for
// saving. A step outside the coordinate space or a failed load of the next
// chunk fails and changes nothing, so the previous center stays active and
// cached for a retry.
func (s *Session) MoveCenter(d coord.Direction) (displaced string, err error) {
	next, err := s.center.Offset(d)
	if err != nil {
		return "", err
	}

	prev := s.activeKey
	if err := s.Activate(next); err != nil {
		return "", err
	}

	if isDirty, ok := s.dirty[prev]; ok {
		if isDirty {
			displaced = prev
		} else {
			s.evict(prev)
		}
	}
	return displaced, nil
}

// MarkDirty flags the active chunk as having unsaved edits.
func (s *Session) MarkDirty() {
	s.dirty[s.activeKey] = true
}

// CommitActive copies every tile id from the center render grid into the
// active chunk data. Persistence is the caller's concern.
func (s *Session) CommitActive(g *chunk.Grid) {
	s.CommitTo(s.activeKey, g)
}

// CommitTo copies grid contents into a specific cached chunk. Used when a
// dirty chunk was displaced by navigation: its grid edits still need to land
// in the authoritative data before the grid is rebuilt for the new center.
func (s *Session) CommitTo(key string, g *chunk.Grid) {
	d, ok := s.chunks[key]
	if !ok {
		return
	}
	for layer := 0; layer < chunk.Layers; layer++ {
		for y := 0; y < chunk.Height; y++ {
			for x := 0; x < chunk.Width; x++ {
				d.Tile[layer].ID[chunk.Index(x, y)] = g.Cell(x, y, layer).TextureID
			}
		}
	}
}

// SaveActive commits the grid and persists the active chunk, clearing its
// dirty flag on success. On failure the flag stays set for a retry.
func (s *Session) SaveActive(g *chunk.Grid) error {
	s.CommitActive(g)
	if err := s.store.Save(s.Active()); err != nil {
		return err
	}
	s.dirty[s.activeKey] = false
	return nil
}

// SaveAll persists every dirty cached chunk in insertion order, clearing each
// flag on success. Clean chunks are not rewritten. Returns the saved keys.
func (s *Session) SaveAll() ([]string, error) {
	var saved []string
	for _, key := range s.order {
		if !s.dirty[key] {
			continue
		}
		if err := s.store.Save(s.chunks[key]); err != nil {
			return saved, fmt.Errorf("save %s: %w", key, err)
		}
		s.dirty[key] = false
		saved = append(saved, key)
	}
	return saved, nil
}

// HasUnsavedChanges reports whether any cached chunk is dirty. The exit
// confirmation dialog is driven off this; the session only answers.
func (s *Session) HasUnsavedChanges() bool {
	for _, d := range s.dirty {
		if d {
			return true
		}
	}
	return false
}

// IsDirty reports a specific coordinate's flag. Uncached coordinates have no
// known unsaved change and answer false.
func (s *Session) IsDirty(c coord.Coord) bool {
	return s.dirty[c.Key()]
}

// DirtyKeys lists dirty chunk keys in insertion order.
func (s *Session) DirtyKeys() []string {
	var keys []string
	for _, key := range s.order {
		if s.dirty[key] {
			keys = append(keys, key)
		}
	}
	return keys
}

// Cached returns a chunk already in the working set.
func (s *Session) Cached(key string) (*chunk.Data, bool) {
	d, ok := s.chunks[key]
	return d, ok
}

// Peek returns a chunk for preview purposes without creating anything on
// disk: cached chunks are returned as-is, chunks with a backing file are
// loaded and cached clean, and nonexistent chunks answer (nil, false).
func (s *Session) Peek(c coord.Coord) (*chunk.Data, bool, error) {
	key := c.Key()
	if d, ok := s.chunks[key]; ok {
		return d, true, nil
	}
	if !s.store.Exists(c) {
		return nil, false, nil
	}
	d, err := s.store.Load(c)
	if err != nil {
		return nil, false, err
	}
	s.insert(key, d)
	return d, true, nil
}

// CachedCount reports the working-set size.
func (s *Session) CachedCount() int { return len(s.chunks) }
