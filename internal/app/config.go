package app

import (
	"errors"
	"fmt"
)

// Config holds all the necessary configuration for an App instance to run.
type Config struct {
	PlacementPath   string // hcl file or directory
	CheckReportPath string // existing report to verify instead of generating
	OutPath         string // report destination; empty means the app's output writer

	// Mesh overrides; zero keeps the value from the placement input.
	MeshWidth  int
	MeshHeight int

	// Strict turns a deadlock verdict into ErrDeadlock.
	Strict bool

	LogFormat string
	LogLevel  string
}

// NewConfig validates cfg and returns a copy of it.
func NewConfig(cfg Config) (*Config, error) {
	switch {
	case cfg.PlacementPath == "" && cfg.CheckReportPath == "":
		return nil, errors.New("a placement path or a report to check is required")
	case cfg.PlacementPath != "" && cfg.CheckReportPath != "":
		return nil, errors.New("a placement path and a report to check are mutually exclusive")
	}

	if cfg.MeshWidth < 0 || cfg.MeshHeight < 0 {
		return nil, fmt.Errorf("mesh overrides must not be negative, got %dx%d", cfg.MeshWidth, cfg.MeshHeight)
	}
	if cfg.CheckReportPath != "" && (cfg.MeshWidth != 0 || cfg.MeshHeight != 0) {
		return nil, errors.New("mesh overrides apply to placement input only")
	}
	if cfg.CheckReportPath != "" && cfg.OutPath != "" {
		return nil, errors.New("an output path cannot be used when checking a report")
	}

	return &cfg, nil
}
