package interp

import (
	"math"

	"fortio.org/safecast"
	"github.com/llir/llvm/ir"
	"github.com/llir/llvm/ir/constant"
	"github.com/llir/llvm/ir/types"
	"github.com/llir/llvm/ir/value"
)

// evalValue resolves an operand: a constant, a global, or an SSA register
// of the current frame.
func (e *Engine) evalValue(f *Frame, v value.Value) (Value, *Error) {
	switch c := v.(type) {
	case *constant.Int:
		width := uint64(64)
		if c.Typ != nil {
			width = c.Typ.BitSize
		}
		if c.X.Sign() < 0 {
			return IntV(maskWidth(uint64(c.X.Int64()), width)), nil
		}
		return IntV(maskWidth(c.X.Uint64(), width)), nil

	case *constant.Float:
		if c.NaN {
			return FloatV(math.NaN()), nil
		}
		fv, _ := c.X.Float64()
		return FloatV(fv), nil

	case *constant.Null:
		return PtrV(0), nil

	case *constant.Undef:
		return IntV(0), nil

	case *constant.ZeroInitializer:
		return IntV(0), nil

	case *constant.ExprIntToPtr:
		from, err := e.evalValue(f, c.From)
		if err != nil {
			return Value{}, err
		}
		return PtrV(from.Bits), nil

	case *constant.ExprPtrToInt:
		from, err := e.evalValue(f, c.From)
		if err != nil {
			return Value{}, err
		}
		return IntV(from.Bits), nil

	case *constant.ExprBitCast:
		from, err := e.evalValue(f, c.From)
		if err != nil {
			return Value{}, err
		}
		return retype(from, c.To), nil

	case *constant.Index:
		// GEP expression indices arrive wrapped.
		return e.evalValue(f, c.Constant)

	case *constant.ExprGetElementPtr:
		indices := make([]value.Value, len(c.Indices))
		for i, idx := range c.Indices {
			indices[i] = idx
		}
		addr, err := e.evalGEP(f, c.Src, c.ElemType, indices)
		if err != nil {
			return Value{}, err
		}
		return PtrV(addr), nil

	case *ir.Global:
		addr, ok := e.globals[c]
		if !ok {
			return Value{}, e.faultf(CodeBadOperand, "global %s not materialized", c.Name())
		}
		return PtrV(uint64(addr)), nil

	case value.Named:
		if rv, ok := f.Regs[c]; ok {
			return rv, nil
		}
		return Value{}, e.faultf(CodeBadOperand, "use of undefined value %%%s", c.Name())

	default:
		return Value{}, e.faultf(CodeUnsupported, "operand %T", v)
	}
}

// evalGEP computes getelementptr address arithmetic. The first index
// scales by the pointee size; subsequent indices walk aggregate types.
func (e *Engine) evalGEP(f *Frame, src value.Value, elemType types.Type, indices []value.Value) (uint64, *Error) {
	base, err := e.evalValue(f, src)
	if err != nil {
		return 0, err
	}
	addr := base.Bits
	if len(indices) == 0 {
		return addr, nil
	}

	idx0, err := e.evalValue(f, indices[0])
	if err != nil {
		return 0, err
	}
	size, err := e.sizeOf(elemType)
	if err != nil {
		return 0, err
	}
	stride, err := e.strideOf(elemType, size)
	if err != nil {
		return 0, err
	}
	addr += uint64(int64(idx0.Bits)) * stride

	cur := elemType
	for _, rawIdx := range indices[1:] {
		iv, err := e.evalValue(f, rawIdx)
		if err != nil {
			return 0, err
		}
		switch tt := cur.(type) {
		case *types.ArrayType:
			esize, err := e.sizeOf(tt.ElemType)
			if err != nil {
				return 0, err
			}
			estride, err := e.strideOf(tt.ElemType, esize)
			if err != nil {
				return 0, err
			}
			addr += uint64(int64(iv.Bits)) * estride
			cur = tt.ElemType
		case *types.StructType:
			fi, cerr := safecast.Conv[int](iv.Bits)
			if cerr != nil || fi >= len(tt.Fields) {
				return 0, e.faultf(CodeBadOperand, "struct index %d out of range", iv.Bits)
			}
			_, offsets, err := e.structLayout(tt)
			if err != nil {
				return 0, err
			}
			addr += offsets[fi]
			cur = tt.Fields[fi]
		default:
			return 0, e.faultf(CodeUnsupported, "getelementptr through %v", cur)
		}
	}
	return addr, nil
}

// unwrapCallee strips constant casts off a call target.
func unwrapCallee(v value.Value) value.Value {
	for {
		switch c := v.(type) {
		case *constant.ExprBitCast:
			v = c.From
		default:
			return v
		}
	}
}
