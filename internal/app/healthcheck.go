package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/specialistvlad/lazygrid/internal/ctxlog"
)

const healthcheckShutdownTimeout = 5 * time.Second

// healthHandler reports that the process is alive.
func (a *App) healthHandler(w http.ResponseWriter, r *http.Request) {
	a.logger.Debug("Health check endpoint hit.", "remote_addr", r.RemoteAddr, "path", r.URL.Path)
	w.WriteHeader(http.StatusOK)
	fmt.Fprintln(w, "OK")
}

func (a *App) healthMux() *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("/health", a.healthHandler)
	return mux
}

// startHealthcheckServer runs the health check HTTP server in the background.
func (a *App) startHealthcheckServer(ctx context.Context, port int) {
	logger := ctxlog.FromContext(ctx)
	addr := fmt.Sprintf(":%d", port)
	a.httpServer = &http.Server{
		Addr:              addr,
		Handler:           a.healthMux(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	srv := a.httpServer
	go func() {
		logger.Info("🩺 Health check server starting", "address", fmt.Sprintf("http://localhost%s/health", addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("Health check server failed unexpectedly", "error", err)
		}
	}()
}

func (a *App) closeHealthcheckServer(ctx context.Context) error {
	logger := ctxlog.FromContext(ctx)
	if a.httpServer == nil {
		logger.Debug("Health check server was not running.")
		return nil
	}

	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), healthcheckShutdownTimeout)
	defer cancel()

	logger.Info("🩺 Shutting down health check server...")
	if err := a.httpServer.Shutdown(ctx); err != nil {
		logger.Error("Health check server shutdown failed", "error", err)
		return err
	}
	a.httpServer = nil
	return nil
}
