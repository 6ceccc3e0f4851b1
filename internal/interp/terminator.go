package interp

import (
	"github.com/llir/llvm/ir"
)

// execTerm executes the current block's terminator. returned is true when
// the frame completed with ret.
func (e *Engine) execTerm(f *Frame) (ret Value, returned bool, err *Error) {
	switch term := f.Block.Term.(type) {
	case *ir.TermRet:
		if term.X == nil {
			return Nothing(), true, nil
		}
		v, verr := e.evalValue(f, term.X)
		if verr != nil {
			return Value{}, false, verr
		}
		return v, true, nil

	case *ir.TermBr:
		return Value{}, false, e.enterBlock(f, blockOf(term.Target))

	case *ir.TermCondBr:
		cond, verr := e.evalValue(f, term.Cond)
		if verr != nil {
			return Value{}, false, verr
		}
		target := blockOf(term.TargetFalse)
		if cond.Bool() {
			target = blockOf(term.TargetTrue)
		}
		return Value{}, false, e.enterBlock(f, target)

	case *ir.TermSwitch:
		x, verr := e.evalValue(f, term.X)
		if verr != nil {
			return Value{}, false, verr
		}
		target := blockOf(term.TargetDefault)
		for _, cs := range term.Cases {
			cv, verr := e.evalValue(f, cs.X)
			if verr != nil {
				return Value{}, false, verr
			}
			if cv.Bits == x.Bits {
				target = blockOf(cs.Target)
				break
			}
		}
		return Value{}, false, e.enterBlock(f, target)

	case *ir.TermUnreachable:
		return Value{}, false, e.fault(CodeUnsupported, "unreachable code executed")

	default:
		return Value{}, false, e.faultf(CodeUnsupported, "terminator %T", f.Block.Term)
	}
}

// enterBlock branches to target, resolving its phi nodes against the edge
// taken. Phis are evaluated as a batch before any is committed, so phis
// reading each other observe predecessor values.
func (e *Engine) enterBlock(f *Frame, target *ir.Block) *Error {
	if target == nil {
		return e.fault(CodeBadOperand, "branch to non-block target")
	}
	prev := f.Block

	type phiWrite struct {
		inst *ir.InstPhi
		val  Value
	}
	var writes []phiWrite
	for _, inst := range target.Insts {
		phi, ok := inst.(*ir.InstPhi)
		if !ok {
			break
		}
		resolved := false
		for _, inc := range phi.Incs {
			if blockOf(inc.Pred) != prev {
				continue
			}
			v, err := e.evalValue(f, inc.X)
			if err != nil {
				return err
			}
			writes = append(writes, phiWrite{inst: phi, val: v})
			resolved = true
			break
		}
		if !resolved {
			return e.faultf(CodeBadOperand, "phi in %%%s has no incoming from %%%s",
				target.Name(), prev.Name())
		}
	}
	for _, w := range writes {
		f.define(w.inst, w.val)
	}

	f.Prev = prev
	f.Block = target
	f.IP = len(writes)
	return nil
}
