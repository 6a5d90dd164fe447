// mapinspect prints chunk file summaries from an editor data directory.
//
//	mapinspect -data ./data -key 3_-2_0
//	mapinspect -data ./data -list
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"tileforge.dev/internal/editor/chunk"
	"tileforge.dev/internal/editor/coord"
)

func main() {
	var (
		dataDir = flag.String("data", "./data", "editor data directory")
		key     = flag.String("key", "", "chunk key (x_y_group)")
		file    = flag.String("file", "", "chunk file path (alternative to -key)")
		list    = flag.Bool("list", false, "list all chunk files with fill counts")
	)
	flag.Parse()

	mapsDir := filepath.Join(*dataDir, "maps")

	if *list {
		listChunks(mapsDir)
		return
	}

	path := *file
	if path == "" {
		if *key == "" {
			fmt.Fprintln(os.Stderr, "missing -key or -file")
			os.Exit(2)
		}
		if _, err := coord.ParseKey(*key); err != nil {
			fmt.Fprintln(os.Stderr, err)
			os.Exit(2)
		}
		path = filepath.Join(mapsDir, *key+".json")
	}

	d, err := readChunk(path)
	if err != nil {
		fmt.Fprintln(os.Stderr, "read chunk:", err)
		os.Exit(1)
	}

	fmt.Printf("chunk %s (%dx%d, %d layers) file=%s\n",
		d.Key(), chunk.Width, chunk.Height, chunk.Layers, filepath.Base(path))
	total := 0
	for i, layer := range d.Tile {
		n := 0
		for _, id := range layer.ID {
			if id != 0 {
				n++
			}
		}
		total += n
		fmt.Printf("  layer %d: %4d/%d filled\n", i, n, chunk.CellsPerLayer)
	}
	fmt.Printf("  total: %d cells\n", total)
}

func listChunks(mapsDir string) {
	entries, err := os.ReadDir(mapsDir)
	if err != nil {
		fmt.Fprintln(os.Stderr, "read:", err)
		os.Exit(1)
	}
	names := make([]string, 0, len(entries))
	for _, e := range entries {
		if !e.IsDir() && strings.HasSuffix(e.Name(), ".json") {
			names = append(names, e.Name())
		}
	}
	sort.Strings(names)
	for _, name := range names {
		d, err := readChunk(filepath.Join(mapsDir, name))
		if err != nil {
			fmt.Printf("%s\tunreadable: %v\n", name, err)
			continue
		}
		fmt.Printf("%s\t%d cells\n", name, d.FilledCells())
	}
}

func readChunk(path string) (*chunk.Data, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var d chunk.Data
	if err := json.Unmarshal(raw, &d); err != nil {
		return nil, err
	}
	if err := d.Validate(); err != nil {
		return nil, err
	}
	return &d, nil
}
