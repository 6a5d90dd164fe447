// Package config loads the editor's runtime settings from editor.yaml.
package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

type Config struct {
	DataDir   string `yaml:"data_dir"`
	ConfigDir string `yaml:"config_dir"`

	TilePx int     `yaml:"tile_px"`
	Zoom   float64 `yaml:"zoom"`

	StartX     int32  `yaml:"start_x"`
	StartY     int32  `yaml:"start_y"`
	StartGroup uint64 `yaml:"start_group"`

	// BackupOnStart packs the maps directory into an archive before the
	// session opens any chunk for writing.
	BackupOnStart bool `yaml:"backup_on_start"`

	// DisableIndex turns off the sqlite chunk index.
	DisableIndex bool `yaml:"disable_index"`
}

func Defaults() Config {
	return Config{
		DataDir:   "./data",
		ConfigDir: "./configs",
		TilePx:    20,
		Zoom:      1.0,
	}
}

// Load reads a config file, filling unset fields from Defaults. The caller
// decides whether a missing file is acceptable (os.IsNotExist on the error).
func Load(path string) (Config, error) {
	c := Defaults()
	raw, err := os.ReadFile(path)
	if err != nil {
		return c, err
	}
	if err := yaml.Unmarshal(raw, &c); err != nil {
		return c, fmt.Errorf("editor.yaml: %w", err)
	}
	if c.TilePx <= 0 {
		c.TilePx = Defaults().TilePx
	}
	if c.Zoom <= 0 {
		c.Zoom = Defaults().Zoom
	}
	if c.DataDir == "" {
		c.DataDir = Defaults().DataDir
	}
	if c.ConfigDir == "" {
		c.ConfigDir = Defaults().ConfigDir
	}
	return c, nil
}
