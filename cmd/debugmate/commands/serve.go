package commands

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/debugmate-ai/debugmate/internal/archive"
	"github.com/debugmate-ai/debugmate/internal/client"
	"github.com/debugmate-ai/debugmate/internal/config"
	"github.com/debugmate-ai/debugmate/internal/event"
	"github.com/debugmate-ai/debugmate/internal/logging"
	"github.com/debugmate-ai/debugmate/internal/router"
	"github.com/debugmate-ai/debugmate/internal/server"
	"github.com/debugmate-ai/debugmate/internal/session"
	"github.com/debugmate-ai/debugmate/internal/watch"
	"github.com/debugmate-ai/debugmate/pkg/types"
)

var (
	servePort int
	serveHost string
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP bridge",
	Long: `Serve starts the local HTTP bridge: editor integrations post tagged
session messages to it and follow results on its SSE event stream.`,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().IntVarP(&servePort, "port", "p", 0, "Port to listen on (default from config)")
	serveCmd.Flags().StringVar(&serveHost, "host", "", "Host to listen on (default from config)")
}

func runServe(cmd *cobra.Command, args []string) error {
	_, cfg, err := setup()
	if err != nil {
		return err
	}
	if servePort > 0 {
		cfg.Server.Port = servePort
	}
	if serveHost != "" {
		cfg.Server.Host = serveHost
	}

	paths := config.GetPaths()
	if err := paths.EnsurePaths(); err != nil {
		return err
	}

	bus := event.NewBus()
	defer bus.Close()

	var store *archive.Store
	if cfg.Archive != nil && cfg.Archive.Enabled {
		dir := cfg.Archive.Dir
		if dir == "" {
			dir = paths.ArchivePath()
		}
		store = archive.New(dir)
	}

	sess := session.New(bus, store)
	backend := client.New(cfg.Backend)

	surfaceLog := logging.Component("surface")
	surface := router.SurfaceFunc(func(msg types.Outbound) {
		// The SSE stream is the real surface; this sink just traces.
		surfaceLog.Debug().Str("tag", msg.Tag()).Msg("outbound message")
	})

	rtr := router.New(sess, backend, server.HeadlessHost{}, surface, cfg)

	if cfg.Watcher != nil && cfg.Watcher.Enabled {
		watcher, err := watch.New(bus, cfg.Watcher)
		if err != nil {
			logging.Warn().Err(err).Msg("file watcher disabled")
		} else {
			watcher.Start()
			defer watcher.Stop()
		}
	}

	srv := server.New(cfg, bus, sess, rtr, backend)

	errCh := make(chan error, 1)
	go func() {
		if err := srv.Start(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errCh:
		return err
	case <-quit:
	}

	logging.Info().Msg("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logging.Error().Err(err).Msg("shutdown error")
	}
	rtr.Wait()
	sess.Close()

	return nil
}
