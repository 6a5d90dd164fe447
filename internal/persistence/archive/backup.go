// Package archive packs a world's chunk files into a single compressed
// backup that can be restored later. Backups live under <data>/archives.
package archive

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/klauspost/compress/zstd"
)

type Meta struct {
	CreatedAt string `json:"created_at"`
	Chunks    int    `json:"chunks"`
	Source    string `json:"source"`
	Archive   string `json:"archive"`
}

// Entry is one archived chunk file: its base name and raw JSON content.
type Entry struct {
	Name string          `json:"name"`
	Data json.RawMessage `json:"data"`
}

// BackupMaps packs every chunk file under <dataDir>/maps into one zstd JSONL
// archive with a meta.json sidecar, returning the archive path.
func BackupMaps(dataDir string) (string, error) {
	mapsDir := filepath.Join(dataDir, "maps")
	dirents, err := os.ReadDir(mapsDir)
	if err != nil {
		return "", fmt.Errorf("read maps dir: %w", err)
	}
	var names []string
	for _, de := range dirents {
		if !de.IsDir() && strings.HasSuffix(de.Name(), ".json") {
			names = append(names, de.Name())
		}
	}
	sort.Strings(names)

	stamp := time.Now().UTC().Format("20060102-150405")
	archiveDir := filepath.Join(dataDir, "archives", "backup_"+stamp)
	if err := os.MkdirAll(archiveDir, 0o755); err != nil {
		return "", err
	}
	archivePath := filepath.Join(archiveDir, "maps.jsonl.zst")

	f, err := os.OpenFile(archivePath, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o644)
	if err != nil {
		return "", err
	}
	enc, err := zstd.NewWriter(f, zstd.WithEncoderLevel(zstd.SpeedDefault))
	if err != nil {
		_ = f.Close()
		return "", err
	}
	bw := bufio.NewWriterSize(enc, 128*1024)

	// Close everything on the failure paths; the success path finalizes
	// explicitly below so a truncated stream cannot report success.
	fail := func(err error) (string, error) {
		_ = enc.Close()
		_ = f.Close()
		return "", err
	}

	for _, name := range names {
		raw, err := os.ReadFile(filepath.Join(mapsDir, name))
		if err != nil {
			return fail(fmt.Errorf("read %s: %w", name, err))
		}
		line, err := json.Marshal(Entry{Name: name, Data: raw})
		if err != nil {
			return fail(fmt.Errorf("encode %s: %w", name, err))
		}
		if _, err := bw.Write(line); err != nil {
			return fail(err)
		}
		if err := bw.WriteByte('\n'); err != nil {
			return fail(err)
		}
	}

	if err := bw.Flush(); err != nil {
		return fail(fmt.Errorf("flush archive: %w", err))
	}
	if err := enc.Close(); err != nil {
		_ = f.Close()
		return "", fmt.Errorf("finalize archive: %w", err)
	}
	if err := f.Close(); err != nil {
		return "", fmt.Errorf("close archive: %w", err)
	}

	meta := Meta{
		CreatedAt: time.Now().UTC().Format(time.RFC3339Nano),
		Chunks:    len(names),
		Source:    mapsDir,
		Archive:   filepath.Base(archivePath),
	}
	if b, err := json.MarshalIndent(meta, "", "  "); err == nil {
		_ = os.WriteFile(filepath.Join(archiveDir, "meta.json"), b, 0o644)
	}

	return archivePath, nil
}

// ReadBackup returns the entries of an archive in stored order.
func ReadBackup(path string) ([]Entry, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	dec, err := zstd.NewReader(f)
	if err != nil {
		return nil, err
	}
	defer dec.Close()

	var out []Entry
	sc := bufio.NewScanner(dec)
	sc.Buffer(make([]byte, 0, 1024*1024), 16*1024*1024)
	for sc.Scan() {
		var e Entry
		if err := json.Unmarshal(sc.Bytes(), &e); err != nil {
			return nil, fmt.Errorf("archive line: %w", err)
		}
		out = append(out, e)
	}
	return out, sc.Err()
}

// RestoreMaps writes an archive's chunk files back into <dataDir>/maps,
// overwriting files that already exist.
func RestoreMaps(path, dataDir string) (int, error) {
	entries, err := ReadBackup(path)
	if err != nil {
		return 0, err
	}
	mapsDir := filepath.Join(dataDir, "maps")
	if err := os.MkdirAll(mapsDir, 0o755); err != nil {
		return 0, err
	}
	for i, e := range entries {
		// Names come from the archive; never let them escape the maps dir.
		if e.Name != filepath.Base(e.Name) || strings.Contains(e.Name, "..") {
			return i, fmt.Errorf("archive entry %d: bad name %q", i, e.Name)
		}
		if err := os.WriteFile(filepath.Join(mapsDir, e.Name), e.Data, 0o644); err != nil {
			return i, fmt.Errorf("restore %s: %w", e.Name, err)
		}
	}
	return len(entries), nil
}
