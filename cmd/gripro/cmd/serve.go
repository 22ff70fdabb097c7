package cmd

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/cobra"

	"github.com/hugo-lorenzo-mato/gripro/internal/api"
	"github.com/hugo-lorenzo-mato/gripro/internal/directory"
	"github.com/hugo-lorenzo-mato/gripro/internal/engine"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP control surface",
	Long: `Start the REST API server. All orchestrator operations are exposed
under /api/v1: task execution, workflow runs, agent messaging, the agent
directory, provider routing, and project state.

With roster.watch enabled, changes to the roster file are picked up and
re-registered without a restart.

Examples:
  # Start on the configured address (default 127.0.0.1:8400)
  gripro serve

  # Bind a different address
  gripro serve --addr 0.0.0.0:9000`,
	RunE: runServe,
}

var (
	serveAddr string
)

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().StringVar(&serveAddr, "addr", "",
		"Listen address (overrides server.addr)")
}

func runServe(_ *cobra.Command, _ []string) error {
	ctx, cancel := signalContext(context.Background())
	defer cancel()

	eng, cfg, err := initEngine(ctx)
	if err != nil {
		return err
	}
	defer teardownEngine(eng)

	if cfg.Roster.Watch && cfg.Roster.Path != "" {
		stop, err := watchRoster(eng, cfg.Roster.Path)
		if err != nil {
			logger.Warn("roster watch unavailable", "error", err)
		} else {
			defer stop()
		}
	}

	addr := serveAddr
	if addr == "" {
		addr = cfg.Server.Addr
	}

	server := api.NewServer(eng, api.WithLogger(logger))
	if err := server.ListenAndServe(ctx, addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("server: %w", err)
	}

	logger.Info("server stopped")
	return nil
}

// watchRoster reloads the roster file into the directory when it changes.
// The parent directory is watched because editors typically replace the
// file on save rather than writing it in place.
func watchRoster(eng *engine.Engine, path string) (func(), error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, err
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	if err := watcher.Add(filepath.Dir(abs)); err != nil {
		watcher.Close()
		return nil, err
	}

	done := make(chan struct{})
	go func() {
		var reload *time.Timer
		for {
			select {
			case <-done:
				return
			case event, ok := <-watcher.Events:
				if !ok {
					return
				}
				if filepath.Clean(event.Name) != abs {
					continue
				}
				if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 {
					continue
				}

				// Editors emit several events per save; debounce them.
				if reload != nil {
					reload.Stop()
				}
				reload = time.AfterFunc(200*time.Millisecond, func() {
					n, err := directory.LoadInto(eng.Directory(), abs)
					if err != nil {
						logger.Warn("roster reload failed", "path", abs, "error", err)
						return
					}
					logger.Info("roster reloaded", "path", abs, "agents", n)
				})
			case _, ok := <-watcher.Errors:
				if !ok {
					return
				}
			}
		}
	}()

	logger.Info("watching roster", "path", abs)
	return func() {
		close(done)
		watcher.Close()
	}, nil
}
