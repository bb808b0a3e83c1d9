package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/veldt/hashedit/internal/config"
	"github.com/veldt/hashedit/internal/journal"
	"github.com/veldt/hashedit/internal/mcp"
	"github.com/veldt/hashedit/internal/mcptools"
)

func main() {
	configPath := flag.String("config", "", "path to config file (default ~/.config/hashedit/config.toml)")
	flag.Parse()

	if err := run(*configPath); err != nil {
		fmt.Fprintf(os.Stderr, "hashedit: %v\n", err)
		os.Exit(1)
	}
}

func run(configPath string) error {
	// Stdout is the protocol channel, so all logging goes to stderr.
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})

	if configPath == "" {
		if dir, err := config.DataDir(); err == nil {
			if candidate := filepath.Join(dir, "config.toml"); fileExists(candidate) {
				configPath = candidate
			}
		}
	}
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}

	level, err := zerolog.ParseLevel(cfg.Log.LevelOrDefault())
	if err != nil {
		return fmt.Errorf("invalid log level %q: %w", cfg.Log.Level, err)
	}
	zerolog.SetGlobalLevel(level)

	var jnl *journal.Journal
	if !cfg.Journal.Disabled {
		dbPath := cfg.Journal.Path
		if dbPath == "" {
			dataDir, err := config.EnsureDataDir()
			if err != nil {
				return err
			}
			dbPath = filepath.Join(dataDir, "journal.db")
		}
		jnl, err = journal.Open(dbPath, uuid.NewString())
		if err != nil {
			return fmt.Errorf("open journal: %w", err)
		}
		defer jnl.Close()
	}

	tracker := mcptools.NewFileReadTracker()
	readHandler := mcptools.NewReadHandler(tracker, cfg.Limits)
	editHandler := mcptools.NewEditHandler(tracker, jnl, cfg)

	registry := mcp.NewRegistry()
	registry.RegisterTool(mcptools.NewReadTool(), readHandler.Handle)
	registry.RegisterTool(mcptools.NewEditTool(), editHandler.Handle)
	registry.RegisterTool(mcptools.NewCopyTool(), mcptools.NewCopyHandler().Handle)
	registry.RegisterTool(mcptools.NewUndoTool(), mcptools.NewUndoHandler(jnl, tracker).Handle)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	server := mcp.NewServer(registry, mcp.ServerInfo{Name: "hashedit", Version: "0.1.0"})
	log.Info().Msg("serving on stdio")
	return server.Serve(ctx, os.Stdin, os.Stdout)
}

func fileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}
