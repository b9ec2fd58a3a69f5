package main

import (
	"context"
	"fmt"
	"time"

	prof "github.com/go-while/go-cpu-mem-profiler"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/go-while/go-yelpcamp/internal/config"
	"github.com/go-while/go-yelpcamp/internal/web"
)

const shutdownTimeout = 10 * time.Second

func newServeCmd(a *app) *cobra.Command {
	var (
		port      int
		pprofAddr string
	)
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the web server",
		RunE: func(cmd *cobra.Command, args []string) error {
			if port > 0 {
				a.cfg.Web.ListenPort = port
				if err := a.cfg.Validate(); err != nil {
					return err
				}
			}
			return runServe(cmd.Context(), a, pprofAddr)
		},
	}
	cmd.Flags().IntVarP(&port, "port", "p", 0, fmt.Sprintf("listen port (default %d)", config.DefaultListenPort))
	cmd.Flags().StringVar(&pprofAddr, "pprof", "", "serve pprof on this address, e.g. 127.0.0.1:51111")
	return cmd
}

func runServe(ctx context.Context, a *app, pprofAddr string) error {
	a.log.Info("Starting go-yelpcamp", zap.String("version", config.AppVersion))

	if pprofAddr != "" {
		profiler := prof.NewProf()
		go profiler.PprofWeb(pprofAddr)
		startMemProfile(profiler, a.log)
		a.log.Info("pprof enabled", zap.String("addr", pprofAddr))
	}

	db, err := a.openDB()
	if err != nil {
		return err
	}
	defer func() {
		if err := db.Shutdown(); err != nil {
			a.log.Error("Database shutdown failed", zap.Error(err))
		}
	}()

	server, err := web.NewServer(db, a.cfg, a.log)
	if err != nil {
		return err
	}

	cleanupCtx, stopCleanup := context.WithCancel(ctx)
	defer stopCleanup()
	cleanupDone := server.StartSessionCleanup(cleanupCtx, a.cfg.Session.CleanupInterval)

	errCh := make(chan error, 1)
	go func() {
		errCh <- server.Start()
	}()

	select {
	case err := <-errCh:
		stopCleanup()
		<-cleanupDone
		return err
	case <-ctx.Done():
	}

	a.log.Info("Shutting down web server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		a.log.Error("Web server shutdown failed", zap.Error(err))
	}
	stopCleanup()
	<-cleanupDone

	if err := <-errCh; err != nil {
		return err
	}
	a.log.Info("Shutdown complete")
	return nil
}

// startMemProfile captures one heap profile after the warm-up; a refusal is
// logged and serving goes on
func startMemProfile(p *prof.Profiler, logger *zap.Logger) bool {
	if err := p.StartMemProfile(5*time.Minute, 30*time.Second); err != nil {
		logger.Warn("Memory profiling not started", zap.Error(err))
		return false
	}
	return true
}
