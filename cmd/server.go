package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/mdobak/go-xerrors"
	"github.com/siahsang/yatube/internal/cache"
)

const cacheSweepInterval = time.Minute

func (app *application) serve() error {
	server := &http.Server{
		Addr:         app.config.Server.Addr,
		Handler:      app.routes(),
		ReadTimeout:  app.config.Server.ReadTimeout,
		WriteTimeout: app.config.Server.WriteTimeout,
		IdleTimeout:  app.config.Server.IdleTimeout,
		ErrorLog:     slog.NewLogLogger(app.logger.Handler(), slog.LevelError),
	}

	ctx, stop := context.WithCancel(context.Background())
	defer stop()
	app.sweepCache(ctx)

	shutdownError := make(chan error)
	go func() {
		quit := make(chan os.Signal, 1)
		signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
		s := <-quit

		app.logger.Info("shutting down server", slog.String("signal", s.String()))

		shutdownCtx, cancel := context.WithTimeout(context.Background(), app.config.Server.ShutdownTimeout)
		defer cancel()

		if err := server.Shutdown(shutdownCtx); err != nil {
			shutdownError <- err
			return
		}

		stop()
		app.logger.Info("completing background tasks")
		app.wg.Wait()
		shutdownError <- nil
	}()

	app.logger.Info("starting server", slog.String("addr", server.Addr))

	err := server.ListenAndServe()
	if !errors.Is(err, http.ErrServerClosed) {
		return xerrors.New(err)
	}

	if err := <-shutdownError; err != nil {
		return xerrors.New(err)
	}

	app.logger.Info("stopped server", slog.String("addr", server.Addr))
	return nil
}

// sweepCache drops expired page cache entries until ctx is done.
func (app *application) sweepCache(ctx context.Context) {
	memory, ok := app.cache.(*cache.Memory)
	if !ok {
		return
	}

	app.doInBackground(func() {
		ticker := time.NewTicker(cacheSweepInterval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				left := memory.Sweep()
				app.logger.Debug("page cache swept", slog.Int("entries", left))
			}
		}
	})
}
