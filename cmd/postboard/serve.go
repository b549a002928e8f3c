package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/hungpv1995/postboard/internal/handlers"
	"github.com/hungpv1995/postboard/internal/navigation"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the board over HTTP",
	Long: `Loads the board from the stored snapshot (or the remote service on first
run) and serves it over HTTP. A failed load leaves the server up so that
POST /retry can recover it.`,
	RunE: runServe,
}

func runServe(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := openApp(ctx, navigation.NewRedirector("/"))
	if err != nil {
		return err
	}
	defer a.Close()

	if err := a.board.Initialize(ctx); err != nil {
		logger.Warn("Board failed to load, POST /retry to try again", zap.Error(err))
	}

	var searcher handlers.Searcher
	if a.search != nil {
		searcher = a.search
	}
	h := handlers.NewPostHandler(a.board, searcher, logger)

	srv := &http.Server{
		Addr:              ":" + cfg.Server.Port,
		Handler:           h.Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info("Server starting", zap.String("port", cfg.Server.Port))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server failed: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		logger.Info("Shutting down server")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout())
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("failed to shut down server: %w", err)
		}
		return nil
	})

	return g.Wait()
}
