package interp

import (
	"github.com/llir/llvm/ir"
	"github.com/llir/llvm/ir/types"

	"qirvm/internal/qir"
)

// execInst executes a single instruction. A non-nil frame return means a
// call pushed a new activation; the caller's IP advances when it returns.
func (e *Engine) execInst(f *Frame, inst ir.Instruction) (*Frame, *Error) {
	switch in := inst.(type) {
	case *ir.InstCall:
		return e.execCall(f, in)

	case *ir.InstAlloca:
		return nil, e.execAlloca(f, in)

	case *ir.InstLoad:
		return nil, e.execLoad(f, in)

	case *ir.InstStore:
		return nil, e.execStore(f, in)

	case *ir.InstGetElementPtr:
		addr, err := e.evalGEP(f, in.Src, in.ElemType, in.Indices)
		if err != nil {
			return nil, err
		}
		f.define(in, PtrV(addr))
		return nil, nil

	case *ir.InstSelect:
		cond, err := e.evalValue(f, in.Cond)
		if err != nil {
			return nil, err
		}
		pick := in.ValueFalse
		if cond.Bool() {
			pick = in.ValueTrue
		}
		v, err := e.evalValue(f, pick)
		if err != nil {
			return nil, err
		}
		f.define(in, v)
		return nil, nil

	case *ir.InstPhi:
		// Phis are resolved in batch on block entry; reaching one here
		// means the entry block starts with a phi, which has no
		// predecessor edge.
		return nil, e.fault(CodeUnsupported, "phi in entry block")

	case *ir.InstICmp:
		return nil, e.execICmp(f, in)
	case *ir.InstFCmp:
		return nil, e.execFCmp(f, in)

	case *ir.InstAdd, *ir.InstSub, *ir.InstMul, *ir.InstUDiv, *ir.InstSDiv,
		*ir.InstURem, *ir.InstSRem, *ir.InstAnd, *ir.InstOr, *ir.InstXor,
		*ir.InstShl, *ir.InstLShr, *ir.InstAShr:
		return nil, e.execIntBinop(f, inst)

	case *ir.InstFAdd, *ir.InstFSub, *ir.InstFMul, *ir.InstFDiv, *ir.InstFRem:
		return nil, e.execFloatBinop(f, inst)

	case *ir.InstFNeg:
		v, err := e.evalValue(f, in.X)
		if err != nil {
			return nil, err
		}
		f.define(in, FloatV(-v.Float()))
		return nil, nil

	case *ir.InstZExt, *ir.InstSExt, *ir.InstTrunc, *ir.InstBitCast,
		*ir.InstIntToPtr, *ir.InstPtrToInt, *ir.InstSIToFP, *ir.InstUIToFP,
		*ir.InstFPToSI, *ir.InstFPToUI, *ir.InstFPExt, *ir.InstFPTrunc:
		return nil, e.execCast(f, inst)

	default:
		return nil, e.faultf(CodeUnsupported, "instruction %T", inst)
	}
}

func (e *Engine) execCall(f *Frame, in *ir.InstCall) (*Frame, *Error) {
	callee := unwrapCallee(in.Callee)
	fn, ok := callee.(*ir.Func)
	if !ok {
		return nil, e.faultf(CodeNoFunction, "unsupported call target %T", in.Callee)
	}

	args := make([]Value, len(in.Args))
	for i, a := range in.Args {
		v, err := e.evalValue(f, a)
		if err != nil {
			return nil, err
		}
		args[i] = v
	}

	if len(fn.Blocks) > 0 {
		if len(args) != len(fn.Params) {
			return nil, e.faultf(CodeNoFunction, "call to %s with %d args, want %d",
				fn.Name(), len(args), len(fn.Params))
		}
		child := NewFrame(fn)
		for i, p := range fn.Params {
			child.define(p, args[i])
		}
		child.Caller = f
		child.CallInst = in
		return child, nil
	}

	words := make([]uint64, len(args))
	for i, a := range args {
		words[i] = a.Bits
	}
	ret, err := e.callExtern(fn.Name(), words)
	if err != nil {
		if ee, ok := err.(*Error); ok {
			return nil, ee
		}
		return nil, e.faultWrap(CodeBackend, err.Error(), err)
	}
	if v := e.wordToValue(ret, in.Type()); v.Kind != KNothing {
		f.define(in, v)
	}
	return nil, nil
}

func (e *Engine) execAlloca(f *Frame, in *ir.InstAlloca) *Error {
	size, err := e.sizeOf(in.ElemType)
	if err != nil {
		return err
	}
	n := uint64(1)
	if in.NElems != nil {
		v, err2 := e.evalValue(f, in.NElems)
		if err2 != nil {
			return err2
		}
		n = v.Bits
	}
	addr := e.mem.Alloc(size * n)
	f.Allocas = append(f.Allocas, addr)
	f.define(in, PtrV(uint64(addr)))
	return nil
}

func (e *Engine) execLoad(f *Frame, in *ir.InstLoad) *Error {
	src, err := e.evalValue(f, in.Src)
	if err != nil {
		return err
	}
	width, err := e.sizeOf(in.ElemType)
	if err != nil {
		return err
	}
	bits, merr := e.mem.ReadUint(qir.Pointer(src.Bits), width)
	if merr != nil {
		return e.faultWrap(CodeMemory, merr.Error(), merr)
	}
	switch tt := in.ElemType.(type) {
	case *types.FloatType:
		f.define(in, Value{Kind: KFloat, Bits: bits})
	case *types.PointerType:
		f.define(in, PtrV(bits))
	case *types.IntType:
		f.define(in, IntV(maskWidth(bits, tt.BitSize)))
	default:
		return e.faultf(CodeUnsupported, "load of type %v", in.ElemType)
	}
	return nil
}

func (e *Engine) execStore(f *Frame, in *ir.InstStore) *Error {
	src, err := e.evalValue(f, in.Src)
	if err != nil {
		return err
	}
	dst, err := e.evalValue(f, in.Dst)
	if err != nil {
		return err
	}
	width, err := e.sizeOf(in.Src.Type())
	if err != nil {
		return err
	}
	if merr := e.mem.WriteUint(qir.Pointer(dst.Bits), width, src.Bits); merr != nil {
		return e.faultWrap(CodeMemory, merr.Error(), merr)
	}
	return nil
}
