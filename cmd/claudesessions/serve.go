package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"github.com/wesm/claudesessions/internal/config"
	"github.com/wesm/claudesessions/internal/server"
	"github.com/wesm/claudesessions/internal/store"
	"github.com/wesm/claudesessions/internal/watch"
)

const shutdownTimeout = 5 * time.Second

func newServeCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the API server (default command)",
		Args:  cobra.NoArgs,
		RunE:  runServe,
	}
}

func runServe(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	port := server.FindAvailablePort(cfg.Host, cfg.Port)
	if port != cfg.Port {
		fmt.Printf("Port %d in use, using %d\n", cfg.Port, port)
	}
	cfg.Port = port

	srv := server.New(cfg, store.New(cfg),
		server.WithVersion(server.VersionInfo{
			Version:   version,
			Commit:    commit,
			BuildDate: buildDate,
		}),
	)

	stopWatcher := startWatcher(cfg, srv.Publish)
	defer stopWatcher()

	ctx, stop := signal.NotifyContext(
		cmd.Context(), os.Interrupt, syscall.SIGTERM,
	)
	defer stop()

	fmt.Printf("claudesessions %s reading %s\n", version, cfg.ConfigDir)

	errCh := make(chan error, 1)
	go func() { errCh <- srv.ListenAndServe() }()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("server error: %w", err)
	case <-ctx.Done():
	}

	log.Println("shutting down")
	stopWatcher()
	shutdownCtx, cancel := context.WithTimeout(
		context.Background(), shutdownTimeout,
	)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return nil
}

// startWatcher watches the projects root and forwards change
// events to publish. It returns a stop function that is safe to
// call more than once. A missing projects root disables watching.
func startWatcher(
	cfg config.Config, publish func([]watch.Event),
) func() {
	noop := func() {}
	if _, err := os.Stat(cfg.ProjectsDir); err != nil {
		log.Printf("watcher: not watching %s: %v", cfg.ProjectsDir, err)
		return noop
	}

	w, err := watch.NewWatcher(cfg.ProjectsDir, cfg.WatchDebounce, publish)
	if err != nil {
		log.Printf("warning: file watcher unavailable: %v", err)
		return noop
	}
	watched, unwatched, err := w.WatchRecursive()
	if err != nil {
		log.Printf("warning: watching %s: %v", cfg.ProjectsDir, err)
	}
	if unwatched > 0 {
		log.Printf(
			"watcher: %d director(ies) could not be watched", unwatched,
		)
	}
	log.Printf("watcher: watching %d director(ies)", watched)
	w.Start()
	return w.Stop
}
