package main

import (
	"fmt"
	"os"

	"github.com/rs/zerolog"

	"github.com/deixis/secmcp/internal/catalog"
	"github.com/deixis/secmcp/internal/config"
	"github.com/deixis/secmcp/internal/observability"
	"github.com/deixis/secmcp/internal/runner"
)

// app holds the dependencies shared by subcommands.
type app struct {
	cfg      *config.Config
	cfgPath  string
	logger   zerolog.Logger
	registry *catalog.Registry
}

func loadApp(opts *rootOptions) (*app, error) {
	wd, err := os.Getwd()
	if err != nil {
		return nil, fmt.Errorf("determining working directory: %w", err)
	}

	loaded, err := config.Resolve(opts.configPath, wd)
	if err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}
	cfg := loaded.Config

	level := cfg.LogLevel()
	if opts.logLevel != "" {
		level = opts.logLevel
	}
	logger, err := observability.InitLogger("secmcp", level, cfg.Log.Format)
	if err != nil {
		return nil, usageError{err}
	}

	registry, err := catalog.NewRegistry(catalog.Builtin(), cfg)
	if err != nil {
		return nil, fmt.Errorf("building tool registry: %w", err)
	}

	if loaded.Path != "" {
		logger.Debug().Str("path", loaded.Path).Msg("config loaded")
	}
	return &app{cfg: cfg, cfgPath: loaded.Path, logger: logger, registry: registry}, nil
}

func (a *app) newRunner() *runner.Runner {
	return &runner.Runner{
		Timeout:   a.cfg.Timeout(),
		MaxOutput: a.cfg.MaxOutputBytes(),
	}
}

func (a *app) newPool() (*runner.Pool, error) {
	return runner.NewPool(a.newRunner(), a.cfg.MaxConcurrent())
}
