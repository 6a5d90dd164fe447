// Package editlog appends the editing session's mutations (paints, moves,
// saves) to compressed JSONL files for post-session review.
package editlog

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/klauspost/compress/zstd"
)

type JSONLZstdWriter struct {
	baseDir string
	prefix  string

	mu     sync.Mutex
	curDay string
	f      *os.File
	enc    *zstd.Encoder
	w      *bufio.Writer
}

func NewJSONLZstdWriter(baseDir, prefix string) *JSONLZstdWriter {
	return &JSONLZstdWriter{
		baseDir: baseDir,
		prefix:  prefix,
	}
}

func (w *JSONLZstdWriter) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.closeLocked()
}

func (w *JSONLZstdWriter) Write(v any) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	day := time.Now().UTC().Format("2006-01-02")
	if day != w.curDay {
		if err := w.rotateLocked(day); err != nil {
			return err
		}
	}

	b, err := json.Marshal(v)
	if err != nil {
		return err
	}
	if _, err := w.w.Write(b); err != nil {
		return err
	}
	if err := w.w.WriteByte('\n'); err != nil {
		return err
	}
	return w.w.Flush()
}

func (w *JSONLZstdWriter) rotateLocked(day string) error {
	if err := w.closeLocked(); err != nil {
		return err
	}
	path := w.pathForDay(day)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return err
	}
	enc, err := zstd.NewWriter(f, zstd.WithEncoderLevel(zstd.SpeedFastest))
	if err != nil {
		_ = f.Close()
		return err
	}
	w.f = f
	w.enc = enc
	w.w = bufio.NewWriterSize(enc, 64*1024)
	w.curDay = day
	return nil
}

func (w *JSONLZstdWriter) closeLocked() error {
	var err1 error
	if w.w != nil {
		_ = w.w.Flush()
	}
	if w.enc != nil {
		err1 = w.enc.Close()
		w.enc = nil
	}
	if w.f != nil {
		_ = w.f.Close()
		w.f = nil
	}
	w.w = nil
	return err1
}

func (w *JSONLZstdWriter) pathForDay(day string) string {
	return filepath.Join(w.baseDir, fmt.Sprintf("%s-%s.jsonl.zst", w.prefix, day))
}

// Entry is one recorded editor mutation.
type Entry struct {
	Time  string `json:"time"`
	Op    string `json:"op"`
	Chunk string `json:"chunk,omitempty"`
	Layer int    `json:"layer,omitempty"`
	X     int    `json:"x,omitempty"`
	Y     int    `json:"y,omitempty"`
	Cells int    `json:"cells,omitempty"`
	Dir   string `json:"dir,omitempty"`
	Saved int    `json:"saved,omitempty"`
}

// Logger writes the edit trail under <dataDir>/editlog.
type Logger struct{ w *JSONLZstdWriter }

func NewLogger(dataDir string) *Logger {
	return &Logger{w: NewJSONLZstdWriter(filepath.Join(dataDir, "editlog"), "edits")}
}

func (l *Logger) Close() error { return l.w.Close() }

func (l *Logger) record(e Entry) error {
	e.Time = time.Now().UTC().Format(time.RFC3339Nano)
	return l.w.Write(e)
}

func (l *Logger) Paint(chunkKey string, layer, x, y, cells int) error {
	return l.record(Entry{Op: "paint", Chunk: chunkKey, Layer: layer, X: x, Y: y, Cells: cells})
}

func (l *Logger) Move(dir, newChunkKey string) error {
	return l.record(Entry{Op: "move", Dir: dir, Chunk: newChunkKey})
}

func (l *Logger) Save(chunkKey string) error {
	return l.record(Entry{Op: "save", Chunk: chunkKey})
}

func (l *Logger) SaveAll(saved int) error {
	return l.record(Entry{Op: "save_all", Saved: saved})
}
