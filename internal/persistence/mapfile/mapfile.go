// Package mapfile owns the on-disk form of chunks: one JSON file per
// coordinate under <data>/maps. The read path is deliberately lenient:
// a file that fails to parse or validate is logged and replaced in memory
// by a default chunk, while the bad file stays on disk untouched.
package mapfile

import (
	"encoding/json"
	"fmt"
	"log"
	"os"
	"path/filepath"

	"tileforge.dev/internal/editor/chunk"
	"tileforge.dev/internal/editor/coord"
)

type Store struct {
	dir string
	log *log.Logger
}

// NewStore returns a store rooted at <dataDir>/maps.
func NewStore(dataDir string, logger *log.Logger) *Store {
	return &Store{dir: filepath.Join(dataDir, "maps"), log: logger}
}

// Init creates the maps directory. A failure here is fatal for the session:
// nothing can be persisted without a writable data directory.
func (s *Store) Init() error {
	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return fmt.Errorf("create maps dir: %w", err)
	}
	return nil
}

func (s *Store) Dir() string { return s.dir }

// Path derives the canonical file location for a coordinate. Distinct
// coordinates never collide because the key itself is injective.
func (s *Store) Path(c coord.Coord) string {
	return filepath.Join(s.dir, c.Key()+".json")
}

// Exists reports whether a chunk file is present. No side effects.
func (s *Store) Exists(c coord.Coord) bool {
	_, err := os.Stat(s.Path(c))
	return err == nil
}

// Load returns the chunk for a coordinate. A missing file is materialized as
// a default chunk and written through immediately; that first write failing
// is the only fatal load error. Malformed content downgrades to a default
// chunk in memory.
func (s *Store) Load(c coord.Coord) (*chunk.Data, error) {
	if !s.Exists(c) {
		d := chunk.New(c)
		if err := s.Save(d); err != nil {
			return nil, fmt.Errorf("create default chunk %s: %w", c.Key(), err)
		}
		return d, nil
	}

	raw, err := os.ReadFile(s.Path(c))
	if err != nil {
		return nil, fmt.Errorf("read chunk %s: %w", c.Key(), err)
	}

	d, err := decode(raw, c)
	if err != nil {
		// Leave the corrupt file alone; start fresh in memory only.
		s.log.Printf("chunk %s unreadable, using empty chunk: %v", c.Key(), err)
		return chunk.New(c), nil
	}
	return d, nil
}

func decode(raw []byte, c coord.Coord) (*chunk.Data, error) {
	var any interface{}
	if err := json.Unmarshal(raw, &any); err != nil {
		return nil, fmt.Errorf("parse: %w", err)
	}
	if err := chunkSchema.Validate(any); err != nil {
		return nil, fmt.Errorf("schema: %w", err)
	}
	var d chunk.Data
	if err := json.Unmarshal(raw, &d); err != nil {
		return nil, fmt.Errorf("decode: %w", err)
	}
	if err := d.Validate(); err != nil {
		return nil, err
	}
	if got := d.Coord(); got != c {
		return nil, fmt.Errorf("coordinate mismatch: file says %s want %s", got.Key(), c.Key())
	}
	return &d, nil
}

// Save serializes the full chunk over its canonical file. The write truncates
// in place rather than going through a temp file; the session is the sole
// writer of its data directory.
func (s *Store) Save(d *chunk.Data) error {
	if err := d.Validate(); err != nil {
		return err
	}
	b, err := json.MarshalIndent(d, "", "  ")
	if err != nil {
		return fmt.Errorf("encode chunk %s: %w", d.Key(), err)
	}
	f, err := os.OpenFile(s.Path(d.Coord()), os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o644)
	if err != nil {
		return fmt.Errorf("open chunk %s: %w", d.Key(), err)
	}
	defer f.Close()
	if _, err := f.Write(b); err != nil {
		return fmt.Errorf("write chunk %s: %w", d.Key(), err)
	}
	return nil
}
