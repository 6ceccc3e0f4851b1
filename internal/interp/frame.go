package interp

import (
	"github.com/llir/llvm/ir"
	"github.com/llir/llvm/ir/value"

	"qirvm/internal/qir"
)

// Frame represents a function activation record on the call stack.
type Frame struct {
	Fn    *ir.Func
	Block *ir.Block
	Prev  *ir.Block // predecessor block, for phi resolution
	IP    int       // instruction index within Block.Insts

	// Regs maps every SSA definition (params and instructions) executed so
	// far to its runtime value.
	Regs map[value.Named]Value

	// Caller linkage: when this frame returns, the value lands in the
	// caller's register for CallInst.
	Caller   *Frame
	CallInst *ir.InstCall

	// Allocas are stack blocks released when the frame pops.
	Allocas []qir.Pointer
}

// NewFrame creates a frame positioned at the function's entry block.
func NewFrame(fn *ir.Func) *Frame {
	return &Frame{
		Fn:    fn,
		Block: fn.Blocks[0],
		Regs:  make(map[value.Named]Value, 16),
	}
}

// define records an SSA definition.
func (f *Frame) define(n value.Named, v Value) {
	f.Regs[n] = v
}
