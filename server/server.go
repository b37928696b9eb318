package server

import (
	"context"
	"errors"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/ebogdum/kvtable/config"
	"github.com/ebogdum/kvtable/core"
)

// shutdownTimeout bounds the graceful shutdown of in-flight requests
const shutdownTimeout = 30 * time.Second

// Run serves the router until ctx is done, then shuts the server down
func Run(ctx context.Context, engine *core.Engine, serverConfig *config.ServerConfig, logger *zap.Logger) error {
	srv := &http.Server{
		Addr:         serverConfig.ListenAddr,
		Handler:      NewRouter(engine, serverConfig, logger),
		ReadTimeout:  serverConfig.ReadTimeout,
		WriteTimeout: serverConfig.WriteTimeout,
		IdleTimeout:  120 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("Starting HTTP server", zap.String("addr", serverConfig.ListenAddr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	logger.Info("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("Server forced to shutdown", zap.Error(err))
		return err
	}

	logger.Info("Server exited gracefully")
	return nil
}
