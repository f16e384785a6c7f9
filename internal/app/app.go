package app

import (
	"context"
	"io"
	"log/slog"
	"net/http"

	"github.com/specialistvlad/lazygrid/internal/cluster"
	"github.com/specialistvlad/lazygrid/internal/ops"
	"github.com/specialistvlad/lazygrid/internal/registry"
	"github.com/specialistvlad/lazygrid/internal/remote"
	"github.com/specialistvlad/lazygrid/modules/env_vars"
	"github.com/specialistvlad/lazygrid/modules/http_client"

	prnt "github.com/specialistvlad/lazygrid/modules/print"
)

// coreModules is the definitive list of operation modules compiled into the
// lazygrid binary.
var coreModules = []registry.Module{
	ops.Module{},
	&env_vars.Module{},
	&prnt.Module{},
	&http_client.Module{},
}

// remoteCluster is a cluster connection that must be released after use.
type remoteCluster interface {
	cluster.Cluster
	Close() error
}

type dialFunc func(ctx context.Context, cfg remote.Config) (remoteCluster, error)

func dialRemote(ctx context.Context, cfg remote.Config) (remoteCluster, error) {
	return remote.Dial(ctx, cfg)
}

// App encapsulates the application's dependencies, configuration, and lifecycle.
type App struct {
	outW     io.Writer
	logger   *slog.Logger
	config   *Config
	registry *registry.Registry
	dial     dialFunc

	httpServer *http.Server
}

// NewApp is the constructor for the main application. Results are written to
// outW and logs to logW. When no modules are given the core modules are
// registered.
func NewApp(outW, logW io.Writer, cfg *Config, modules ...registry.Module) *App {
	logger := newLogger(cfg.LogLevel, cfg.LogFormat, logW)
	logger.Debug("Logger configured successfully.")

	if len(modules) == 0 {
		modules = coreModules
	}
	reg := registry.New(modules...)
	logger.Debug("All operation modules registered.", "modules", len(modules), "ops", len(reg.Names()))

	return &App{
		outW:     outW,
		logger:   logger,
		config:   cfg,
		registry: reg,
		dial:     dialRemote,
	}
}

// Registry returns the application's operation registry.
func (a *App) Registry() *registry.Registry {
	return a.registry
}
