// Package exec drives execution of a loaded QIR module: it owns the
// interpreter engine, installs the trampoline bindings for every symbol
// the module references, and runs the entry point under a scoped active
// interface binding.
package exec

import (
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/llir/llvm/ir"

	"qirvm/internal/backend"
	"qirvm/internal/binder"
	"qirvm/internal/interp"
	"qirvm/internal/loader"
	"qirvm/internal/memory"
	"qirvm/internal/qir"
	"qirvm/internal/trace"
)

// ErrBuildEngine indicates that the engine could not be constructed from
// the module.
var ErrBuildEngine = errors.New("exec: engine construction failed")

// ErrUnknownSymbol is raised on the first call to a __quantum__ name
// outside the trampoline table.
var ErrUnknownSymbol = interp.ErrUnknownSymbol

// Options configures executor construction.
type Options struct {
	Tracer trace.Tracer
}

// Executor owns the engine built from one module. It holds no interface
// references between calls; backends are borrowed for the duration of a
// single Run.
type Executor struct {
	engine    *interp.Engine
	mem       *memory.Manager
	env       *runEnv
	entry     *ir.Func
	entryName string
	attrs     qir.EntryPointAttrs
	flags     qir.ModuleFlags
	tracer    trace.Tracer
}

// New consumes mod and builds the execution engine: globals are
// materialized, and every external declaration whose name is in the
// trampoline table is bound. Unknown names are left for the lazy resolver,
// which faults on first use; the engine never searches host symbols.
func New(mod *loader.Module, opts Options) (*Executor, error) {
	tr := opts.Tracer
	if tr == nil {
		tr = trace.Nop
	}
	irMod, entry, err := mod.Detach()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrBuildEngine, err)
	}

	mem := memory.NewManager()
	env := &runEnv{mem: mem}
	resolve := func(name string) (interp.Extern, error) {
		fn, ok := binder.Lookup(name)
		if !ok {
			return nil, fmt.Errorf("%w: %s", ErrUnknownSymbol, name)
		}
		return func(args []uint64) (uint64, error) {
			return fn.Invoke(env, args)
		}, nil
	}

	engine, err := interp.New(irMod, mem, interp.Options{Tracer: tr, Resolve: resolve})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrBuildEngine, err)
	}

	x := &Executor{
		engine:    engine,
		mem:       mem,
		env:       env,
		entry:     entry,
		entryName: mod.EntryName,
		attrs:     mod.Attrs.Clone(),
		flags:     mod.Flags,
		tracer:    tr,
	}
	x.bindDeclarations()
	return x, nil
}

// bindDeclarations walks the module's external declarations and installs
// the trampoline for every name the table knows. Names outside the table
// stay unbound and fault at first call.
func (x *Executor) bindDeclarations() {
	for _, name := range x.engine.Declarations() {
		fn, ok := binder.Lookup(name)
		if !ok {
			continue
		}
		x.engine.Bind(name, func(args []uint64) (uint64, error) {
			return fn.Invoke(x.env, args)
		})
		if x.tracer.Enabled(trace.LevelDetail) {
			x.tracer.Emit(trace.Event{Kind: trace.KindPoint, Level: trace.LevelDetail,
				Name: "bind", Detail: name})
		}
	}
}

// Attrs returns the entry point's attribute snapshot.
func (x *Executor) Attrs() qir.EntryPointAttrs { return x.attrs.Clone() }

// Flags returns the module's qir_* flags.
func (x *Executor) Flags() qir.ModuleFlags { return x.flags }

// EntryName returns the chosen entry point's symbol name.
func (x *Executor) EntryName() string { return x.entryName }

// Memory exposes the executor's memory space, for runtimes that reuse the
// default refcounted records.
func (x *Executor) Memory() *memory.Manager { return x.mem }

// Run executes the entry point once, dispatching every quantum call to q
// and rt. The interfaces are bound in the process-wide active slots for
// the duration of the call; a concurrent Run fails with ErrReentrant
// without touching either interface. TearDown and slot clearing happen on
// every exit path.
func (x *Executor) Run(q backend.Quantum, rt backend.Runtime) (err error) {
	if q == nil || rt == nil {
		return errors.New("exec: nil backend interface")
	}
	if !beginRun(q, rt) {
		return ErrReentrant
	}

	runID := uuid.NewString()
	g := newGuard(func() {
		terr := q.TearDown()
		endRun()
		if x.tracer.Enabled(trace.LevelPhase) {
			x.tracer.Emit(trace.Event{Kind: trace.KindEnd, Level: trace.LevelPhase,
				Name: "run", RunID: runID})
		}
		if terr != nil && err == nil {
			err = fmt.Errorf("exec: tear_down: %w", terr)
		}
	})
	defer g.Run()

	if x.tracer.Enabled(trace.LevelPhase) {
		x.tracer.Emit(trace.Event{Kind: trace.KindBegin, Level: trace.LevelPhase,
			Name: "run", Detail: x.entryName, RunID: runID})
	}

	if serr := q.SetUp(x.attrs.Clone()); serr != nil {
		return fmt.Errorf("exec: set_up: %w", serr)
	}

	// QIR entry points are void-typed in the base profile; any returned
	// value is discarded.
	if _, cerr := x.engine.Call(x.entry); cerr != nil {
		return cerr
	}
	return nil
}
