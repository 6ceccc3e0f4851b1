package interp

import (
	"errors"
	"strings"

	"github.com/llir/llvm/ir"
	"github.com/llir/llvm/ir/types"
	"github.com/llir/llvm/ir/value"

	"qirvm/internal/memory"
	"qirvm/internal/qir"
	"qirvm/internal/trace"
)

// Extern is the native implementation bound to an external symbol. It
// receives the call's arguments as raw 64-bit ABI words (doubles as their
// binary64 bit patterns) and returns the result word for value-returning
// symbols.
type Extern func(args []uint64) (uint64, error)

// Options configures engine construction.
type Options struct {
	Tracer trace.Tracer

	// Resolve maps an external symbol name to its implementation. It is
	// consulted lazily, once per name, at the symbol's first call; an
	// error makes that call fault. The engine never consults the host
	// process's own symbols.
	Resolve func(name string) (Extern, error)
}

// Engine interprets one LLVM module. Globals are materialized into the
// memory manager at construction; the call stack and extern cache are
// reused across entry-point invocations.
type Engine struct {
	mod     *ir.Module
	mem     *memory.Manager
	tracer  trace.Tracer
	resolve func(name string) (Extern, error)

	externs map[string]Extern
	globals map[*ir.Global]qir.Pointer
	stack   []*Frame
}

// New builds an engine for mod over the given memory manager.
func New(mod *ir.Module, mem *memory.Manager, opts Options) (*Engine, error) {
	tr := opts.Tracer
	if tr == nil {
		tr = trace.Nop
	}
	e := &Engine{
		mod:     mod,
		mem:     mem,
		tracer:  tr,
		resolve: opts.Resolve,
		externs: make(map[string]Extern),
		globals: make(map[*ir.Global]qir.Pointer, len(mod.Globals)),
	}
	if err := e.materializeGlobals(); err != nil {
		return nil, err
	}
	return e, nil
}

// Mem exposes the engine's memory space (for decoding string arguments in
// trampolines).
func (e *Engine) Mem() *memory.Manager { return e.mem }

// Bind installs the implementation for an external symbol ahead of its
// first call, bypassing the lazy resolver.
func (e *Engine) Bind(name string, impl Extern) {
	e.externs[name] = impl
}

// Func returns the defined function with the given name, or nil.
func (e *Engine) Func(name string) *ir.Func {
	for _, f := range e.mod.Funcs {
		if f.Name() == name && len(f.Blocks) > 0 {
			return f
		}
	}
	return nil
}

// Declarations returns the names of all external (bodyless) functions the
// module references.
func (e *Engine) Declarations() []string {
	var out []string
	for _, f := range e.mod.Funcs {
		if len(f.Blocks) == 0 {
			out = append(out, f.Name())
		}
	}
	return out
}

// Call interprets fn with no arguments and runs it to completion.
func (e *Engine) Call(fn *ir.Func) (Value, error) {
	if fn == nil || len(fn.Blocks) == 0 {
		return Value{}, e.fault(CodeNoFunction, "entry point has no body")
	}
	base := len(e.stack)
	e.stack = append(e.stack, NewFrame(fn))

	var final Value
	for len(e.stack) > base {
		f := e.stack[len(e.stack)-1]
		if f.IP < len(f.Block.Insts) {
			child, err := e.execInst(f, f.Block.Insts[f.IP])
			if err != nil {
				e.unwind(base)
				return Value{}, err
			}
			if child != nil {
				e.stack = append(e.stack, child)
			} else {
				f.IP++
			}
			continue
		}
		ret, returned, err := e.execTerm(f)
		if err != nil {
			e.unwind(base)
			return Value{}, err
		}
		if !returned {
			continue
		}
		e.popFrame()
		if f.Caller != nil {
			if f.CallInst != nil && ret.Kind != KNothing {
				f.Caller.define(f.CallInst, ret)
			}
			f.Caller.IP++
		} else {
			final = ret
		}
	}
	return final, nil
}

// popFrame releases the top frame's stack allocations.
func (e *Engine) popFrame() {
	f := e.stack[len(e.stack)-1]
	e.stack = e.stack[:len(e.stack)-1]
	for _, p := range f.Allocas {
		_ = e.mem.Free(p)
	}
}

// unwind pops frames down to base after a fault.
func (e *Engine) unwind(base int) {
	for len(e.stack) > base {
		e.popFrame()
	}
}

// callExtern dispatches a call to a bodyless declaration. llvm.* intrinsic
// declarations are ignored; everything else goes through the resolver.
func (e *Engine) callExtern(name string, args []uint64) (uint64, error) {
	if strings.HasPrefix(name, "llvm.") {
		return 0, nil
	}
	impl, ok := e.externs[name]
	if !ok {
		if e.resolve == nil {
			return 0, e.faultWrap(CodeUnknownSymbol, name, ErrUnknownSymbol)
		}
		var err error
		impl, err = e.resolve(name)
		if err != nil {
			if errors.Is(err, ErrUnknownSymbol) {
				return 0, e.faultWrap(CodeUnknownSymbol, err.Error(), err)
			}
			return 0, e.faultWrap(CodeBackend, err.Error(), err)
		}
		e.externs[name] = impl
	}
	if e.tracer.Enabled(trace.LevelDebug) {
		e.tracer.Emit(trace.Event{Kind: trace.KindPoint, Level: trace.LevelDebug, Name: name})
	}
	ret, err := impl(args)
	if err != nil {
		var ee *Error
		if errors.As(err, &ee) {
			return 0, err
		}
		return 0, e.faultWrap(CodeBackend, err.Error(), err)
	}
	return ret, nil
}

// wordToValue types an extern's result word by the call site's type.
func (e *Engine) wordToValue(word uint64, t types.Type) Value {
	switch tt := t.(type) {
	case *types.VoidType:
		return Nothing()
	case *types.IntType:
		return IntV(maskWidth(word, tt.BitSize))
	case *types.FloatType:
		return Value{Kind: KFloat, Bits: word}
	default:
		return PtrV(word)
	}
}

// blockOf resolves a branch target operand to its block.
func blockOf(v value.Value) *ir.Block {
	b, _ := v.(*ir.Block)
	return b
}
