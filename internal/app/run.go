package app

import (
	"context"
	"fmt"

	"github.com/specialistvlad/lazygrid/internal/builder"
	"github.com/specialistvlad/lazygrid/internal/ctxlog"
	"github.com/specialistvlad/lazygrid/internal/executor"
	"github.com/specialistvlad/lazygrid/internal/graph"
	"github.com/specialistvlad/lazygrid/internal/hclgraph"
	"github.com/specialistvlad/lazygrid/internal/node"
)

// Run loads the grid, resolves the configured targets and either describes
// or executes them.
func (a *App) Run(ctx context.Context) error {
	ctx = ctxlog.WithLogger(ctx, a.logger)
	a.logger.Debug("App.Run method started.")

	if a.config.HealthcheckPort > 0 {
		a.startHealthcheckServer(ctx, a.config.HealthcheckPort)
		defer a.closeHealthcheckServer(ctx)
	}

	grid, err := hclgraph.NewLoader(a.registry).Load(ctx, a.config.GridPath)
	if err != nil {
		return fmt.Errorf("failed to load grid: %w", err)
	}
	a.logger.Info("Grid loaded successfully.", "tasks_found", len(grid.Tasks()))

	names, values, err := grid.Targets(a.config.Targets...)
	if err != nil {
		return fmt.Errorf("failed to resolve targets: %w", err)
	}
	if len(values) == 0 {
		a.logger.Warn("No tasks found in grid, execution not required.")
		return nil
	}
	roots := builder.Nodes(values...)

	if a.config.Describe {
		return a.describe(roots)
	}
	return a.execute(ctx, names, roots)
}

func (a *App) describe(roots []*node.Node) error {
	g, err := graph.Collect(roots...)
	if err != nil {
		return fmt.Errorf("failed to build dependency graph: %w", err)
	}
	return g.Describe().WriteJSON(a.outW)
}

func (a *App) execute(ctx context.Context, names []string, roots []*node.Node) error {
	opts := []executor.Option{
		executor.WithParallelism(a.config.WorkerCount),
		executor.WithContinueOnFailure(a.config.ContinueOnFailure),
	}
	if a.config.Cluster.URL != "" {
		c, err := a.dial(ctx, a.config.Cluster)
		if err != nil {
			return fmt.Errorf("failed to connect to cluster: %w", err)
		}
		defer c.Close()
		opts = append(opts, executor.WithCluster(c))
	}

	exec := executor.New(opts...)
	a.logger.Info("🚀 Starting concurrent execution...", "targets", names, "workers", exec.Parallelism())
	report, err := exec.Run(ctx, roots...)
	if report == nil {
		return fmt.Errorf("execution failed: %w", err)
	}
	a.logger.Info("🏁 Execution finished.",
		"executed", report.Executed,
		"failed", report.Count(node.Failed),
		"skipped", report.Count(node.Skipped),
		"aborted", report.Count(node.Aborted),
	)
	for _, f := range report.Failures {
		a.logger.Error("Task failed.", "task", f.NodeID.Name(), "op", f.Op, "error", f.Err)
	}

	for i, name := range names {
		state := report.States[roots[i].ID()]
		if state != node.Done {
			fmt.Fprintf(a.outW, "%s = <%s>\n", name, state)
			continue
		}
		fmt.Fprintf(a.outW, "%s = %s\n", name, formatValue(report.Values[i]))
	}

	if err != nil {
		return fmt.Errorf("execution failed: %w", err)
	}
	return nil
}
