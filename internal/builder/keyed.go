package builder

import (
	"errors"
	"fmt"
	"reflect"
	"sort"
	"sync"

	"github.com/specialistvlad/lazygrid/internal/graph"
	"github.com/specialistvlad/lazygrid/internal/node"
	"github.com/specialistvlad/lazygrid/internal/nodeid"
)

var (
	// ErrUnknownKey is returned when a definition references a key that was
	// never defined.
	ErrUnknownKey = errors.New("unknown key")
	// ErrDuplicateKey is returned when a key is defined twice.
	ErrDuplicateKey = errors.New("duplicate key")
)

// KeyRef refers to the result of a keyed definition, optionally followed by
// an access path.
type KeyRef struct {
	key  string
	path []step
}

type step struct {
	index any
	attr  string
	isKey bool
}

// Key refers to the definition called k.
func Key(k string) KeyRef {
	return KeyRef{key: k}
}

// Index extends the reference with an element access.
func (r KeyRef) Index(i any) KeyRef {
	return r.with(step{index: i, isKey: true})
}

// Attr extends the reference with a field access.
func (r KeyRef) Attr(name string) KeyRef {
	return r.with(step{attr: name})
}

func (r KeyRef) with(s step) KeyRef {
	path := make([]step, len(r.path), len(r.path)+1)
	copy(path, r.path)
	return KeyRef{key: r.key, path: append(path, s)}
}

// Name returns the referenced key.
func (r KeyRef) Name() string {
	return r.key
}

// String implements fmt.Stringer.
func (r KeyRef) String() string {
	s := r.key
	for _, st := range r.path {
		if st.isKey {
			s += fmt.Sprintf("[%v]", st.index)
		} else {
			s += "." + st.attr
		}
	}
	return s
}

type definition struct {
	key  string
	fn   *Deferred
	args []any
	deps []string
}

// Keyed is a graph whose definitions are named and may reference each other
// in any order. It is safe for concurrent use.
type Keyed struct {
	mu    sync.Mutex
	defs  map[string]*definition
	order []string
	built map[string]*Value
}

// NewKeyed creates an empty keyed graph.
func NewKeyed() *Keyed {
	return &Keyed{
		defs:  make(map[string]*definition),
		built: make(map[string]*Value),
	}
}

// Define adds a definition. fn is a *Deferred or a function accepted by
// Defer. args may contain KeyRefs (at any depth of slices and string-keyed
// maps), *Values and plain values.
func (g *Keyed) Define(key string, fn any, args ...any) error {
	if _, err := nodeid.Key(key); err != nil {
		return err
	}
	d, ok := fn.(*Deferred)
	if !ok {
		sig, err := inspect(key, fn)
		if err != nil {
			return err
		}
		minArgs, maxArgs := sig.arity()
		d = &Deferred{name: key, op: node.NewOp(key, sig.call), minArgs: minArgs, maxArgs: maxArgs}
	}
	if err := d.checkArity(len(args)); err != nil {
		return fmt.Errorf("definition %q: %w", key, err)
	}

	g.mu.Lock()
	defer g.mu.Unlock()
	if _, exists := g.defs[key]; exists {
		return fmt.Errorf("%w %q", ErrDuplicateKey, key)
	}
	def := &definition{key: key, fn: d, args: args}
	seen := make(map[string]bool)
	for _, ref := range keyRefs(args) {
		if !seen[ref.key] {
			seen[ref.key] = true
			def.deps = append(def.deps, ref.key)
		}
	}
	sort.Strings(def.deps)
	g.defs[key] = def
	g.order = append(g.order, key)
	return nil
}

// Keys returns the defined keys in definition order.
func (g *Keyed) Keys() []string {
	g.mu.Lock()
	defer g.mu.Unlock()
	return append([]string(nil), g.order...)
}

// Dependencies returns the keys that key references directly.
func (g *Keyed) Dependencies(key string) ([]string, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	def, ok := g.defs[key]
	if !ok {
		return nil, fmt.Errorf("%w %q", ErrUnknownKey, key)
	}
	return append([]string(nil), def.deps...), nil
}

// Sinks returns, in definition order, the keys no other definition
// references.
func (g *Keyed) Sinks() []string {
	g.mu.Lock()
	defer g.mu.Unlock()
	referenced := make(map[string]bool)
	for _, def := range g.defs {
		for _, dep := range def.deps {
			referenced[dep] = true
		}
	}
	var sinks []string
	for _, key := range g.order {
		if !referenced[key] {
			sinks = append(sinks, key)
		}
	}
	return sinks
}

// Validate checks every definition for unknown references and cycles.
func (g *Keyed) Validate() error {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.check(g.order)
}

// Value materializes the node for key together with every definition it
// references. Repeated calls return the same value. Unknown references fail
// with ErrUnknownKey and reference cycles with *graph.CycleError, before any
// node is recorded.
func (g *Keyed) Value(key string) (*Value, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if _, ok := g.defs[key]; !ok {
		return nil, fmt.Errorf("%w %q", ErrUnknownKey, key)
	}
	if err := g.check([]string{key}); err != nil {
		return nil, err
	}
	return g.build(key)
}

// Node is Value returning the node itself.
func (g *Keyed) Node(key string) (*node.Node, error) {
	v, err := g.Value(key)
	if err != nil {
		return nil, err
	}
	return v.Node(), nil
}

// check validates the definitions reachable from keys. Callers hold g.mu.
func (g *Keyed) check(keys []string) error {
	deps := make(map[nodeid.ID][]nodeid.ID)
	var visit func(key string) error
	visit = func(key string) error {
		if _, done := deps[nodeid.ID(key)]; done {
			return nil
		}
		def := g.defs[key]
		ids := make([]nodeid.ID, 0, len(def.deps))
		for _, dep := range def.deps {
			if _, ok := g.defs[dep]; !ok {
				return fmt.Errorf("%w %q referenced by %q", ErrUnknownKey, dep, key)
			}
			ids = append(ids, nodeid.ID(dep))
		}
		deps[nodeid.ID(key)] = ids
		for _, dep := range def.deps {
			if err := visit(dep); err != nil {
				return err
			}
		}
		return nil
	}
	for _, key := range keys {
		if err := visit(key); err != nil {
			return err
		}
	}
	return graph.DetectCycles(deps)
}

// build records the node for key. The reference graph below key has been
// checked, so the recursion terminates. Callers hold g.mu.
func (g *Keyed) build(key string) (*Value, error) {
	if v, ok := g.built[key]; ok {
		return v, nil
	}
	def := g.defs[key]

	args := make([]any, len(def.args))
	for i, a := range def.args {
		resolved, err := g.substitute(a)
		if err != nil {
			return nil, fmt.Errorf("definition %q, argument %d: %w", key, i, err)
		}
		args[i] = resolved
	}

	// Keys are unique only within g. The node id is generated and carries
	// the key as its Name.
	v := def.fn.record(nodeid.New(key), args)
	g.built[key] = v
	return v, nil
}

// substitute replaces every KeyRef inside a with the built *Value of the
// referenced key, applying its access path.
func (g *Keyed) substitute(a any) (any, error) {
	if ref, ok := a.(KeyRef); ok {
		v, err := g.build(ref.key)
		if err != nil {
			return nil, err
		}
		for _, st := range ref.path {
			if st.isKey {
				idx, err := g.substitute(st.index)
				if err != nil {
					return nil, err
				}
				v = v.Index(idx)
			} else {
				v = v.Attr(st.attr)
			}
		}
		return v, nil
	}

	rv := reflect.ValueOf(a)
	if !holdsKeyRef(rv) {
		return a, nil
	}
	switch rv.Kind() {
	case reflect.Slice, reflect.Array:
		out := make([]any, rv.Len())
		for i := range out {
			item, err := g.substitute(rv.Index(i).Interface())
			if err != nil {
				return nil, err
			}
			out[i] = item
		}
		return out, nil
	case reflect.Map:
		out := make(map[string]any, rv.Len())
		iter := rv.MapRange()
		for iter.Next() {
			item, err := g.substitute(iter.Value().Interface())
			if err != nil {
				return nil, err
			}
			out[iter.Key().String()] = item
		}
		return out, nil
	}
	return a, nil
}

var keyRefType = reflect.TypeOf(KeyRef{})

// keyRefs returns every KeyRef inside args, including those used as indices
// in access paths.
func keyRefs(args []any) []KeyRef {
	var out []KeyRef
	var walk func(rv reflect.Value)
	walk = func(rv reflect.Value) {
		if !rv.IsValid() {
			return
		}
		if rv.Kind() == reflect.Interface {
			if rv.IsNil() {
				return
			}
			rv = rv.Elem()
		}
		if rv.Type() == keyRefType {
			ref := rv.Interface().(KeyRef)
			out = append(out, ref)
			for _, st := range ref.path {
				if st.isKey {
					walk(reflect.ValueOf(st.index))
				}
			}
			return
		}
		switch rv.Kind() {
		case reflect.Slice, reflect.Array:
			for i := 0; i < rv.Len(); i++ {
				walk(rv.Index(i))
			}
		case reflect.Map:
			if rv.Type().Key().Kind() != reflect.String {
				return
			}
			iter := rv.MapRange()
			for iter.Next() {
				walk(iter.Value())
			}
		}
	}
	for _, a := range args {
		walk(reflect.ValueOf(a))
	}
	return out
}

func holdsKeyRef(rv reflect.Value) bool {
	if !rv.IsValid() {
		return false
	}
	if rv.Kind() == reflect.Interface {
		if rv.IsNil() {
			return false
		}
		rv = rv.Elem()
	}
	if rv.Type() == keyRefType {
		return true
	}
	switch rv.Kind() {
	case reflect.Slice, reflect.Array:
		for i := 0; i < rv.Len(); i++ {
			if holdsKeyRef(rv.Index(i)) {
				return true
			}
		}
	case reflect.Map:
		if rv.Type().Key().Kind() != reflect.String {
			return false
		}
		iter := rv.MapRange()
		for iter.Next() {
			if holdsKeyRef(iter.Value()) {
				return true
			}
		}
	}
	return false
}
