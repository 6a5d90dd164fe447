package main

import (
	"context"
	"errors"
	"flag"
	"log"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"tileforge.dev/internal/editor/config"
	"tileforge.dev/internal/editor/coord"
	"tileforge.dev/internal/editor/engine"
	"tileforge.dev/internal/editor/session"
	"tileforge.dev/internal/editor/tileset"
	"tileforge.dev/internal/persistence/archive"
	"tileforge.dev/internal/persistence/editlog"
	"tileforge.dev/internal/persistence/indexdb"
	"tileforge.dev/internal/persistence/mapfile"
	"tileforge.dev/internal/transport/ws"
)

func main() {
	var (
		addr       = flag.String("addr", ":8080", "http listen address")
		dataDir    = flag.String("data", "", "runtime data directory (overrides config)")
		configDir  = flag.String("configs", "", "config directory (overrides config)")
		configPath = flag.String("config", "./configs/editor.yaml", "editor config path")
		startX     = flag.Int("x", 0, "starting chunk x (overrides config)")
		startY     = flag.Int("y", 0, "starting chunk y (overrides config)")
		startGroup = flag.Uint64("group", 0, "chunk group (overrides config)")
		backup     = flag.Bool("backup", false, "archive the map directory before serving")
		disableDB  = flag.Bool("disable_db", false, "disable the chunk index db")
	)
	flag.Parse()

	logger := log.New(os.Stdout, "[editor] ", log.LstdFlags|log.Lmicroseconds)

	cfg, err := config.Load(*configPath)
	if err != nil {
		if !os.IsNotExist(err) {
			logger.Fatalf("load config: %v", err)
		}
		logger.Printf("config not found (%s); using defaults", *configPath)
		cfg = config.Defaults()
	}
	applyFlags(&cfg, *dataDir, *configDir, *startX, *startY, *startGroup, *backup, *disableDB)

	if cfg.BackupOnStart {
		path, err := archive.BackupMaps(cfg.DataDir)
		switch {
		case errors.Is(err, os.ErrNotExist):
			logger.Printf("no maps to archive yet")
		case err != nil:
			logger.Fatalf("backup maps: %v", err)
		default:
			logger.Printf("maps archived to %s", path)
		}
	}

	store := mapfile.NewStore(cfg.DataDir, logger)
	if err := store.Init(); err != nil {
		logger.Fatalf("init map store: %v", err)
	}

	start := coord.Coord{X: cfg.StartX, Y: cfg.StartY, Group: cfg.StartGroup}
	sess, err := session.New(store, start)
	if err != nil {
		logger.Fatalf("open session at %s: %v", start, err)
	}

	catPath := filepath.Join(cfg.ConfigDir, "tilesets.yaml")
	cat, err := tileset.LoadCatalog(catPath)
	if err != nil {
		if !os.IsNotExist(err) {
			logger.Fatalf("load tileset catalog: %v", err)
		}
		logger.Printf("tileset catalog not found (%s); using generated default", catPath)
		cat = tileset.DefaultCatalog(cfg.TilePx)
	}
	tiles := tileset.New(cat, cfg.TilePx)

	var opts engine.Options
	if !cfg.DisableIndex {
		idx, err := indexdb.Open(filepath.Join(cfg.DataDir, "index", "chunks.db"))
		if err != nil {
			logger.Fatalf("open chunk index: %v", err)
		}
		defer idx.Close()
		opts.Index = idx
	}
	trail := editlog.NewLogger(cfg.DataDir)
	defer trail.Close()
	opts.Trail = trail

	eng, err := engine.New(sess, tiles, cfg.TilePx, logger, opts)
	if err != nil {
		logger.Fatalf("engine: %v", err)
	}

	ctx, cancel := signalContext()
	defer cancel()

	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", func(rw http.ResponseWriter, r *http.Request) {
		rw.WriteHeader(200)
		_, _ = rw.Write([]byte("ok"))
	})
	mux.HandleFunc("/v1/ws", ws.NewServer(eng, logger).Handler())

	srv := &http.Server{
		Addr:              *addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		<-ctx.Done()
		ctx2, cancel2 := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel2()
		_ = srv.Shutdown(ctx2)
	}()

	logger.Printf("serving chunk %s, listening on %s", start, *addr)
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.Fatalf("ListenAndServe: %v", err)
	}

	if eng.HasUnsavedChanges() {
		keys := eng.DirtySnapshot().Keys
		logger.Printf("exiting with unsaved chunks: %s", strings.Join(keys, ", "))
	}
}

// applyFlags overlays explicitly set command-line flags onto the file config.
func applyFlags(cfg *config.Config, dataDir, configDir string, x, y int, group uint64, backup, disableDB bool) {
	set := map[string]bool{}
	flag.Visit(func(f *flag.Flag) { set[f.Name] = true })

	if set["data"] && dataDir != "" {
		cfg.DataDir = dataDir
	}
	if set["configs"] && configDir != "" {
		cfg.ConfigDir = configDir
	}
	if set["x"] {
		cfg.StartX = int32(x)
	}
	if set["y"] {
		cfg.StartY = int32(y)
	}
	if set["group"] {
		cfg.StartGroup = group
	}
	if set["backup"] {
		cfg.BackupOnStart = backup
	}
	if set["disable_db"] {
		cfg.DisableIndex = disableDB
	}
}

func signalContext() (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(context.Background())
	ch := make(chan os.Signal, 2)
	signal.Notify(ch, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-ch
		cancel()
	}()
	return ctx, cancel
}
