package interp

import (
	"fmt"

	"github.com/llir/llvm/ir/constant"

	"qirvm/internal/qir"
)

// materializeGlobals lays every module global out in engine memory so that
// constant GEPs over string tags and lookup tables resolve to loadable
// addresses.
func (e *Engine) materializeGlobals() error {
	for _, g := range e.mod.Globals {
		size, err := e.sizeOf(g.ContentType)
		if err != nil {
			return fmt.Errorf("global %s: %w", g.Name(), err)
		}
		addr := e.mem.Alloc(size)
		e.globals[g] = addr
	}
	// Initializers may reference other globals; write after all addresses
	// are assigned.
	for _, g := range e.mod.Globals {
		if g.Init == nil {
			continue
		}
		if err := e.writeConst(uint64(e.globals[g]), g.Init); err != nil {
			return fmt.Errorf("global %s: %w", g.Name(), err)
		}
	}
	return nil
}

// writeConst serializes a constant initializer at addr.
func (e *Engine) writeConst(addr uint64, c constant.Constant) error {
	switch cc := c.(type) {
	case *constant.CharArray:
		for i, b := range cc.X {
			if err := e.mem.WriteUint(qir.Pointer(addr+uint64(i)), 1, uint64(b)); err != nil {
				return err
			}
		}
		return nil

	case *constant.Int:
		width := intByteSize(64)
		if cc.Typ != nil {
			width = intByteSize(cc.Typ.BitSize)
		}
		v, err := e.evalValue(nil, cc)
		if err != nil {
			return err
		}
		return e.mem.WriteUint(qir.Pointer(addr), width, v.Bits)

	case *constant.Float:
		v, err := e.evalValue(nil, cc)
		if err != nil {
			return err
		}
		return e.mem.WriteUint(qir.Pointer(addr), 8, v.Bits)

	case *constant.Null:
		return e.mem.WriteUint(qir.Pointer(addr), ptrSize, 0)

	case *constant.ZeroInitializer, *constant.Undef:
		// Fresh allocations are already zeroed.
		return nil

	case *constant.Array:
		var off uint64
		for _, elem := range cc.Elems {
			size, err := e.sizeOf(elem.Type())
			if err != nil {
				return err
			}
			stride, err := e.strideOf(elem.Type(), size)
			if err != nil {
				return err
			}
			if werr := e.writeConst(addr+off, elem); werr != nil {
				return werr
			}
			off += stride
		}
		return nil

	case *constant.Struct:
		st := cc.Typ
		if st == nil {
			return fmt.Errorf("struct constant with type %v", cc.Typ)
		}
		_, offsets, err := e.structLayout(st)
		if err != nil {
			return err
		}
		for i, field := range cc.Fields {
			if werr := e.writeConst(addr+offsets[i], field); werr != nil {
				return werr
			}
		}
		return nil

	default:
		v, err := e.evalValue(nil, c)
		if err != nil {
			return fmt.Errorf("unsupported initializer %T", c)
		}
		return e.mem.WriteUint(qir.Pointer(addr), ptrSize, v.Bits)
	}
}
