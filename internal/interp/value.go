// Package interp is a direct LLVM IR interpreter for QIR programs. It
// executes the classical subset of the IR and forwards calls to external
// __quantum__ symbols through a resolver installed by the executor.
package interp

import (
	"fmt"
	"math"
)

// Kind identifies the runtime type of a Value.
type Kind uint8

const (
	// KInvalid represents an invalid value.
	KInvalid Kind = iota
	// KInt represents an integer of any IR width, held canonically in 64
	// bits.
	KInt
	// KFloat represents a floating-point value held as IEEE-754 binary64
	// bits.
	KFloat
	// KPtr represents an address in the engine's memory space. Qubit and
	// result "pointers" are KPtr values whose bits are opaque indices.
	KPtr
	// KNothing represents the absence of a value (void).
	KNothing
)

// String returns a human-readable name for the kind.
func (k Kind) String() string {
	switch k {
	case KInvalid:
		return "invalid"
	case KInt:
		return "int"
	case KFloat:
		return "float"
	case KPtr:
		return "ptr"
	case KNothing:
		return "nothing"
	default:
		return fmt.Sprintf("Kind(%d)", uint8(k))
	}
}

// Value is a runtime value. Bits carries the payload for every kind: the
// integer, the float's binary64 bit pattern, or the address. That keeps
// extern dispatch a straight copy of 64-bit ABI words.
type Value struct {
	Kind Kind
	Bits uint64
}

// IntV builds an integer value.
func IntV(bits uint64) Value { return Value{Kind: KInt, Bits: bits} }

// FloatV builds a float value.
func FloatV(f float64) Value { return Value{Kind: KFloat, Bits: math.Float64bits(f)} }

// PtrV builds a pointer value.
func PtrV(addr uint64) Value { return Value{Kind: KPtr, Bits: addr} }

// Nothing is the void value.
func Nothing() Value { return Value{Kind: KNothing} }

// Float reinterprets the payload as a float64.
func (v Value) Float() float64 { return math.Float64frombits(v.Bits) }

// Bool reports whether the payload is nonzero.
func (v Value) Bool() bool { return v.Bits != 0 }

// maskWidth truncates bits to an integer width in bits.
func maskWidth(bits uint64, width uint64) uint64 {
	if width >= 64 {
		return bits
	}
	return bits & ((1 << width) - 1)
}

// signExtend interprets bits as a width-bit two's complement integer.
func signExtend(bits uint64, width uint64) int64 {
	if width == 0 || width >= 64 {
		return int64(bits)
	}
	shift := 64 - width
	return int64(bits<<shift) >> shift
}
