// Package print provides a pass-through operation that reports the values
// flowing through a graph.
package print

import (
	"context"
	"fmt"
	"io"

	"github.com/specialistvlad/lazygrid/internal/ctxlog"
	"github.com/specialistvlad/lazygrid/internal/registry"
)

// Module implements the registry.Module interface for this package.
type Module struct {
	// Out receives one line per printed value. Nil logs only.
	Out io.Writer
}

// Register registers the print operation.
func (m *Module) Register(r *registry.Registry) {
	r.RegisterOp("print", &registry.RegisteredOp{
		Fn:      m.onRunPrint,
		MinArgs: 1,
		MaxArgs: registry.Variadic,
		Doc:     "reports its arguments and returns the first one",
	})
}

func (m *Module) onRunPrint(ctx context.Context, args []any) (any, error) {
	logger := ctxlog.FromContext(ctx)
	for i, v := range args {
		logger.Info("Printing input", "index", i, "value", v)
		if m.Out == nil {
			continue
		}
		if v == nil {
			fmt.Fprintln(m.Out, "      (null)")
			continue
		}
		fmt.Fprintf(m.Out, "      %v\n", v)
	}
	return args[0], nil
}
