package interp

import (
	"math"

	"github.com/llir/llvm/ir"
	"github.com/llir/llvm/ir/enum"
	"github.com/llir/llvm/ir/types"
	"github.com/llir/llvm/ir/value"
)

func (e *Engine) intWidth(v value.Value) uint64 {
	if it, ok := v.Type().(*types.IntType); ok {
		return it.BitSize
	}
	return 64
}

// execIntBinop evaluates the integer arithmetic, bitwise, and shift
// instructions. Results are truncated to the operand width; division by
// zero faults rather than trapping.
func (e *Engine) execIntBinop(f *Frame, inst ir.Instruction) *Error {
	var x, y value.Value
	var named value.Named
	op := ""
	switch in := inst.(type) {
	case *ir.InstAdd:
		x, y, named, op = in.X, in.Y, in, "add"
	case *ir.InstSub:
		x, y, named, op = in.X, in.Y, in, "sub"
	case *ir.InstMul:
		x, y, named, op = in.X, in.Y, in, "mul"
	case *ir.InstUDiv:
		x, y, named, op = in.X, in.Y, in, "udiv"
	case *ir.InstSDiv:
		x, y, named, op = in.X, in.Y, in, "sdiv"
	case *ir.InstURem:
		x, y, named, op = in.X, in.Y, in, "urem"
	case *ir.InstSRem:
		x, y, named, op = in.X, in.Y, in, "srem"
	case *ir.InstAnd:
		x, y, named, op = in.X, in.Y, in, "and"
	case *ir.InstOr:
		x, y, named, op = in.X, in.Y, in, "or"
	case *ir.InstXor:
		x, y, named, op = in.X, in.Y, in, "xor"
	case *ir.InstShl:
		x, y, named, op = in.X, in.Y, in, "shl"
	case *ir.InstLShr:
		x, y, named, op = in.X, in.Y, in, "lshr"
	case *ir.InstAShr:
		x, y, named, op = in.X, in.Y, in, "ashr"
	default:
		return e.faultf(CodeUnsupported, "int binop %T", inst)
	}

	xv, err := e.evalValue(f, x)
	if err != nil {
		return err
	}
	yv, err := e.evalValue(f, y)
	if err != nil {
		return err
	}
	width := e.intWidth(x)
	a, b := xv.Bits, yv.Bits

	var r uint64
	switch op {
	case "add":
		r = a + b
	case "sub":
		r = a - b
	case "mul":
		r = a * b
	case "udiv":
		if b == 0 {
			return e.fault(CodeBadOperand, "division by zero")
		}
		r = a / b
	case "sdiv":
		if b == 0 {
			return e.fault(CodeBadOperand, "division by zero")
		}
		r = uint64(signExtend(a, width) / signExtend(b, width))
	case "urem":
		if b == 0 {
			return e.fault(CodeBadOperand, "division by zero")
		}
		r = a % b
	case "srem":
		if b == 0 {
			return e.fault(CodeBadOperand, "division by zero")
		}
		r = uint64(signExtend(a, width) % signExtend(b, width))
	case "and":
		r = a & b
	case "or":
		r = a | b
	case "xor":
		r = a ^ b
	case "shl":
		r = a << (b & 63)
	case "lshr":
		r = a >> (b & 63)
	case "ashr":
		r = uint64(signExtend(a, width) >> (b & 63))
	}
	f.define(named, IntV(maskWidth(r, width)))
	return nil
}

func (e *Engine) execFloatBinop(f *Frame, inst ir.Instruction) *Error {
	var x, y value.Value
	var named value.Named
	op := ""
	switch in := inst.(type) {
	case *ir.InstFAdd:
		x, y, named, op = in.X, in.Y, in, "fadd"
	case *ir.InstFSub:
		x, y, named, op = in.X, in.Y, in, "fsub"
	case *ir.InstFMul:
		x, y, named, op = in.X, in.Y, in, "fmul"
	case *ir.InstFDiv:
		x, y, named, op = in.X, in.Y, in, "fdiv"
	case *ir.InstFRem:
		x, y, named, op = in.X, in.Y, in, "frem"
	default:
		return e.faultf(CodeUnsupported, "float binop %T", inst)
	}

	xv, err := e.evalValue(f, x)
	if err != nil {
		return err
	}
	yv, err := e.evalValue(f, y)
	if err != nil {
		return err
	}
	a, b := xv.Float(), yv.Float()

	var r float64
	switch op {
	case "fadd":
		r = a + b
	case "fsub":
		r = a - b
	case "fmul":
		r = a * b
	case "fdiv":
		r = a / b
	case "frem":
		r = math.Mod(a, b)
	}
	f.define(named, FloatV(r))
	return nil
}

func (e *Engine) execICmp(f *Frame, in *ir.InstICmp) *Error {
	xv, err := e.evalValue(f, in.X)
	if err != nil {
		return err
	}
	yv, err := e.evalValue(f, in.Y)
	if err != nil {
		return err
	}
	width := e.intWidth(in.X)
	a, b := maskWidth(xv.Bits, width), maskWidth(yv.Bits, width)
	sa, sb := signExtend(a, width), signExtend(b, width)

	var r bool
	switch in.Pred {
	case enum.IPredEQ:
		r = a == b
	case enum.IPredNE:
		r = a != b
	case enum.IPredUGT:
		r = a > b
	case enum.IPredUGE:
		r = a >= b
	case enum.IPredULT:
		r = a < b
	case enum.IPredULE:
		r = a <= b
	case enum.IPredSGT:
		r = sa > sb
	case enum.IPredSGE:
		r = sa >= sb
	case enum.IPredSLT:
		r = sa < sb
	case enum.IPredSLE:
		r = sa <= sb
	default:
		return e.faultf(CodeUnsupported, "icmp predicate %v", in.Pred)
	}
	f.define(in, boolValue(r))
	return nil
}

func (e *Engine) execFCmp(f *Frame, in *ir.InstFCmp) *Error {
	xv, err := e.evalValue(f, in.X)
	if err != nil {
		return err
	}
	yv, err := e.evalValue(f, in.Y)
	if err != nil {
		return err
	}
	a, b := xv.Float(), yv.Float()
	unordered := math.IsNaN(a) || math.IsNaN(b)

	var r bool
	switch in.Pred {
	case enum.FPredFalse:
		r = false
	case enum.FPredTrue:
		r = true
	case enum.FPredORD:
		r = !unordered
	case enum.FPredUNO:
		r = unordered
	case enum.FPredOEQ:
		r = !unordered && a == b
	case enum.FPredOGT:
		r = !unordered && a > b
	case enum.FPredOGE:
		r = !unordered && a >= b
	case enum.FPredOLT:
		r = !unordered && a < b
	case enum.FPredOLE:
		r = !unordered && a <= b
	case enum.FPredONE:
		r = !unordered && a != b
	case enum.FPredUEQ:
		r = unordered || a == b
	case enum.FPredUGT:
		r = unordered || a > b
	case enum.FPredUGE:
		r = unordered || a >= b
	case enum.FPredULT:
		r = unordered || a < b
	case enum.FPredULE:
		r = unordered || a <= b
	case enum.FPredUNE:
		r = unordered || a != b
	default:
		return e.faultf(CodeUnsupported, "fcmp predicate %v", in.Pred)
	}
	f.define(in, boolValue(r))
	return nil
}

func boolValue(b bool) Value {
	if b {
		return IntV(1)
	}
	return IntV(0)
}

// execCast evaluates the conversion instructions. Pointer-sized casts are
// bit-pattern moves; QIR's inttoptr/ptrtoint round-trips for qubit and
// result indices stay byte-exact.
func (e *Engine) execCast(f *Frame, inst ir.Instruction) *Error {
	var from value.Value
	var to types.Type
	var named value.Named
	op := ""
	switch in := inst.(type) {
	case *ir.InstZExt:
		from, to, named, op = in.From, in.To, in, "zext"
	case *ir.InstSExt:
		from, to, named, op = in.From, in.To, in, "sext"
	case *ir.InstTrunc:
		from, to, named, op = in.From, in.To, in, "trunc"
	case *ir.InstBitCast:
		from, to, named, op = in.From, in.To, in, "bitcast"
	case *ir.InstIntToPtr:
		from, to, named, op = in.From, in.To, in, "inttoptr"
	case *ir.InstPtrToInt:
		from, to, named, op = in.From, in.To, in, "ptrtoint"
	case *ir.InstSIToFP:
		from, to, named, op = in.From, in.To, in, "sitofp"
	case *ir.InstUIToFP:
		from, to, named, op = in.From, in.To, in, "uitofp"
	case *ir.InstFPToSI:
		from, to, named, op = in.From, in.To, in, "fptosi"
	case *ir.InstFPToUI:
		from, to, named, op = in.From, in.To, in, "fptoui"
	case *ir.InstFPExt:
		from, to, named, op = in.From, in.To, in, "fpext"
	case *ir.InstFPTrunc:
		from, to, named, op = in.From, in.To, in, "fptrunc"
	default:
		return e.faultf(CodeUnsupported, "cast %T", inst)
	}

	v, err := e.evalValue(f, from)
	if err != nil {
		return err
	}

	var out Value
	switch op {
	case "zext", "bitcast":
		out = retype(v, to)
	case "inttoptr":
		out = PtrV(v.Bits)
	case "ptrtoint":
		if it, ok := to.(*types.IntType); ok {
			out = IntV(maskWidth(v.Bits, it.BitSize))
		} else {
			out = IntV(v.Bits)
		}
	case "sext":
		width := e.intWidth(from)
		if it, ok := to.(*types.IntType); ok {
			out = IntV(maskWidth(uint64(signExtend(v.Bits, width)), it.BitSize))
		} else {
			out = IntV(uint64(signExtend(v.Bits, width)))
		}
	case "trunc":
		if it, ok := to.(*types.IntType); ok {
			out = IntV(maskWidth(v.Bits, it.BitSize))
		} else {
			out = v
		}
	case "sitofp":
		out = FloatV(float64(signExtend(v.Bits, e.intWidth(from))))
	case "uitofp":
		out = FloatV(float64(v.Bits))
	case "fptosi":
		width := uint64(64)
		if it, ok := to.(*types.IntType); ok {
			width = it.BitSize
		}
		out = IntV(maskWidth(uint64(int64(v.Float())), width))
	case "fptoui":
		width := uint64(64)
		if it, ok := to.(*types.IntType); ok {
			width = it.BitSize
		}
		out = IntV(maskWidth(uint64(v.Float()), width))
	case "fpext", "fptrunc":
		out = FloatV(v.Float())
	}
	f.define(named, out)
	return nil
}

// retype preserves the bit pattern while following the destination type's
// kind.
func retype(v Value, to types.Type) Value {
	switch to.(type) {
	case *types.PointerType:
		return PtrV(v.Bits)
	case *types.FloatType:
		return Value{Kind: KFloat, Bits: v.Bits}
	case *types.IntType:
		return Value{Kind: KInt, Bits: v.Bits}
	default:
		return v
	}
}
