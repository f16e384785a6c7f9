package hclgraph

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/hashicorp/hcl/v2/hclparse"
	"github.com/hashicorp/hcl/v2/hclsyntax"
	"github.com/specialistvlad/lazygrid/internal/builder"
	"github.com/specialistvlad/lazygrid/internal/ctxlog"
	"github.com/specialistvlad/lazygrid/internal/fsutil"
	"github.com/specialistvlad/lazygrid/internal/registry"
)

// fileRoot is used to decode the top-level blocks of a graph file.
type fileRoot struct {
	Tasks  []*taskBlock `hcl:"task,block"`
	Remain hcl.Body     `hcl:",remain"`
}

// taskBlock is the raw form of a task block.
type taskBlock struct {
	Name        string         `hcl:"name,label"`
	Op          string         `hcl:"op"`
	Args        hcl.Expression `hcl:"args,optional"`
	Description string         `hcl:"description,optional"`
}

// Loader reads graph files against a registry of operations.
type Loader struct {
	registry *registry.Registry
}

// NewLoader creates a loader resolving op names through r.
func NewLoader(r *registry.Registry) *Loader {
	return &Loader{registry: r}
}

// Load parses every .hcl file found under paths (files or directories) into
// one grid and validates its references.
func (l *Loader) Load(ctx context.Context, paths ...string) (*Grid, error) {
	logger := ctxlog.FromContext(ctx)
	logger.Debug("HCL loader started.", "path_count", len(paths))

	files, err := findAllHCLFiles(paths)
	if err != nil {
		return nil, err
	}
	if len(files) == 0 {
		return nil, fmt.Errorf("no .hcl files found in %s", strings.Join(paths, ", "))
	}
	logger.Debug("Discovered HCL files.", "count", len(files))

	grid := newGrid()
	parser := hclparse.NewParser()

	for _, file := range files {
		hclFile, diags := parser.ParseHCLFile(file)
		if diags.HasErrors() {
			return nil, fmt.Errorf("failed to parse HCL file %s: %w", file, diags)
		}

		var root fileRoot
		diags = gohcl.DecodeBody(hclFile.Body, nil, &root)
		if diags.HasErrors() {
			return nil, fmt.Errorf("failed to decode HCL file %s: %w", file, diags)
		}

		for _, blk := range root.Tasks {
			if err := l.addTask(ctx, grid, blk, file); err != nil {
				return nil, err
			}
		}
	}

	if err := grid.Graph.Validate(); err != nil {
		return nil, fmt.Errorf("invalid task graph: %w", err)
	}

	logger.Debug("HCL loading complete.", "tasks", len(grid.order))
	return grid, nil
}

func (l *Loader) addTask(ctx context.Context, grid *Grid, blk *taskBlock, file string) error {
	logger := ctxlog.FromContext(ctx).With("task", blk.Name, "op", blk.Op)

	if prev, exists := grid.tasks[blk.Name]; exists {
		return fmt.Errorf("%s: %w %q (first declared in %s)", file, builder.ErrDuplicateKey, blk.Name, prev.File)
	}

	c := &compiler{task: blk.Name, graph: grid.Graph, registry: l.registry}
	args, diags := c.args(blk.Args)
	if diags.HasErrors() {
		return fmt.Errorf("task %q in %s: %w", blk.Name, file, diags)
	}

	d, err := lookup(l.registry, blk.Op, len(args))
	if err != nil {
		return fmt.Errorf("task %q in %s: %w", blk.Name, file, err)
	}
	if err := grid.Graph.Define(blk.Name, d, args...); err != nil {
		return fmt.Errorf("task %q in %s: %w", blk.Name, file, err)
	}

	grid.tasks[blk.Name] = &Task{
		Name:        blk.Name,
		Op:          blk.Op,
		Description: blk.Description,
		File:        file,
		Args:        len(args),
	}
	grid.order = append(grid.order, blk.Name)
	logger.Debug("Task defined.", "args", len(args))
	return nil
}

// args converts the args attribute, which must be a list, into one
// argument per element.
func (c *compiler) args(expr hcl.Expression) ([]any, hcl.Diagnostics) {
	if expr == nil {
		return nil, nil
	}
	if tuple, ok := expr.(*hclsyntax.TupleConsExpr); ok {
		out := make([]any, 0, len(tuple.Exprs))
		var diags hcl.Diagnostics
		for _, item := range tuple.Exprs {
			v, itemDiags := c.arg(item)
			diags = append(diags, itemDiags...)
			out = append(out, v)
		}
		return out, diags
	}

	if len(expr.Variables()) == 0 {
		v, diags := c.static(expr)
		if diags.HasErrors() {
			return nil, diags
		}
		if v == nil {
			return nil, nil
		}
		if list, ok := v.([]any); ok {
			return list, nil
		}
	}
	return nil, hcl.Diagnostics{{
		Severity: hcl.DiagError,
		Summary:  "Invalid args",
		Detail:   "The args attribute must be a list, e.g. args = [task.x, 1].",
		Subject:  expr.Range().Ptr(),
	}}
}

// findAllHCLFiles expands paths into a deduplicated list of .hcl files.
func findAllHCLFiles(paths []string) ([]string, error) {
	var all []string
	seen := make(map[string]struct{})
	for _, path := range paths {
		files, err := fsutil.FindFilesByExtension(path, ".hcl")
		if err != nil {
			return nil, err
		}
		for _, f := range files {
			if _, ok := seen[f]; !ok {
				seen[f] = struct{}{}
				all = append(all, f)
			}
		}
	}
	return all, nil
}

// Task describes a task block as it was declared.
type Task struct {
	Name        string
	Op          string
	Description string
	File        string
	Args        int
}

// Grid is a loaded set of tasks.
type Grid struct {
	// Graph holds the task definitions, plus helper definitions for
	// computed arguments.
	Graph *builder.Keyed
	tasks map[string]*Task
	order []string
}

func newGrid() *Grid {
	return &Grid{Graph: builder.NewKeyed(), tasks: make(map[string]*Task)}
}

// Tasks returns the declared tasks in declaration order.
func (g *Grid) Tasks() []*Task {
	out := make([]*Task, 0, len(g.order))
	for _, name := range g.order {
		out = append(out, g.tasks[name])
	}
	return out
}

// Task returns the declared task called name.
func (g *Grid) Task(name string) (*Task, bool) {
	t, ok := g.tasks[name]
	return t, ok
}

// Sinks returns the names of declared tasks that no other task references,
// sorted by name.
func (g *Grid) Sinks() []string {
	var sinks []string
	for _, key := range g.Graph.Sinks() {
		if _, ok := g.tasks[key]; ok {
			sinks = append(sinks, key)
		}
	}
	sort.Strings(sinks)
	return sinks
}

// Targets materializes the named tasks, or every sink when names is empty.
func (g *Grid) Targets(names ...string) ([]string, []*builder.Value, error) {
	if len(names) == 0 {
		names = g.Sinks()
	}
	values := make([]*builder.Value, 0, len(names))
	for _, name := range names {
		if _, ok := g.tasks[name]; !ok {
			return nil, nil, fmt.Errorf("%w %q", builder.ErrUnknownKey, name)
		}
		v, err := g.Graph.Value(name)
		if err != nil {
			return nil, nil, err
		}
		values = append(values, v)
	}
	return names, values, nil
}
