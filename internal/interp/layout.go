package interp

import (
	"github.com/llir/llvm/ir/types"
)

// The engine models the standard 64-bit layout: 8-byte pointers, natural
// alignment, unpacked structs aligned per field. QIR tuples such as
// { double, %Qubit* } land on offsets 0 and 8 exactly as compiled IR
// expects.
const ptrSize = 8

// sizeOf returns the byte size of an IR type. Opaque types have no size.
func (e *Engine) sizeOf(t types.Type) (uint64, *Error) {
	switch tt := t.(type) {
	case *types.IntType:
		return intByteSize(tt.BitSize), nil
	case *types.FloatType:
		return floatByteSize(tt), nil
	case *types.PointerType:
		return ptrSize, nil
	case *types.ArrayType:
		elem, err := e.sizeOf(tt.ElemType)
		if err != nil {
			return 0, err
		}
		stride, err2 := e.strideOf(tt.ElemType, elem)
		if err2 != nil {
			return 0, err2
		}
		return stride * tt.Len, nil
	case *types.StructType:
		if tt.Opaque {
			return 0, e.faultf(CodeUnsupported, "size of opaque type %s", tt.Name())
		}
		size, _, err := e.structLayout(tt)
		return size, err
	default:
		return 0, e.faultf(CodeUnsupported, "size of type %v", t)
	}
}

func intByteSize(bits uint64) uint64 {
	switch {
	case bits <= 8:
		return 1
	case bits <= 16:
		return 2
	case bits <= 32:
		return 4
	default:
		return 8
	}
}

func floatByteSize(t *types.FloatType) uint64 {
	switch t.Kind {
	case types.FloatKindHalf:
		return 2
	case types.FloatKindFloat:
		return 4
	default:
		return 8
	}
}

// alignOf returns the natural alignment of an IR type.
func (e *Engine) alignOf(t types.Type) (uint64, *Error) {
	switch tt := t.(type) {
	case *types.IntType:
		return intByteSize(tt.BitSize), nil
	case *types.FloatType:
		return floatByteSize(tt), nil
	case *types.PointerType:
		return ptrSize, nil
	case *types.ArrayType:
		return e.alignOf(tt.ElemType)
	case *types.StructType:
		if tt.Packed {
			return 1, nil
		}
		var max uint64 = 1
		for _, f := range tt.Fields {
			a, err := e.alignOf(f)
			if err != nil {
				return 0, err
			}
			if a > max {
				max = a
			}
		}
		return max, nil
	default:
		return 0, e.faultf(CodeUnsupported, "alignment of type %v", t)
	}
}

func (e *Engine) strideOf(t types.Type, size uint64) (uint64, *Error) {
	align, err := e.alignOf(t)
	if err != nil {
		return 0, err
	}
	return alignUp(size, align), nil
}

// structLayout returns the total size and per-field offsets.
func (e *Engine) structLayout(t *types.StructType) (uint64, []uint64, *Error) {
	offsets := make([]uint64, len(t.Fields))
	var off uint64
	var maxAlign uint64 = 1
	for i, f := range t.Fields {
		size, err := e.sizeOf(f)
		if err != nil {
			return 0, nil, err
		}
		align := uint64(1)
		if !t.Packed {
			if align, err = e.alignOf(f); err != nil {
				return 0, nil, err
			}
		}
		if align > maxAlign {
			maxAlign = align
		}
		off = alignUp(off, align)
		offsets[i] = off
		off += size
	}
	if !t.Packed {
		off = alignUp(off, maxAlign)
	}
	return off, offsets, nil
}

func alignUp(n, align uint64) uint64 {
	if align <= 1 {
		return n
	}
	if rem := n % align; rem != 0 {
		return n + align - rem
	}
	return n
}
