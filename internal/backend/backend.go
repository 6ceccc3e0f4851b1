// Package backend defines the two contracts a quantum backend supplies to
// the execution engine, plus reference implementations: an instruction
// recorder and two statistics-printing runtimes.
//
// The engine forwards every dispatched QIR call to the Quantum and Runtime
// instances bound for the current run. Methods report failure by returning
// an error; the engine never interprets backend errors beyond letting them
// unwind out of the run.
package backend

import "qirvm/internal/qir"

// Quantum enumerates every quantum instruction the engine can forward.
// Controlled (ctl) variants receive the control array and the packed
// argument tuple exactly as the IR passed them; decoding the tuple layout
// is backend policy.
type Quantum interface {
	// SetUp is called once at the start of a run with the entry point's
	// attributes. TearDown is called on every exit path of the run.
	SetUp(attrs qir.EntryPointAttrs) error
	TearDown() error

	// Single-qubit gates.
	H(q qir.Qubit) error
	X(q qir.Qubit) error
	Y(q qir.Qubit) error
	Z(q qir.Qubit) error
	S(q qir.Qubit) error
	SAdj(q qir.Qubit) error
	T(q qir.Qubit) error
	TAdj(q qir.Qubit) error
	Reset(q qir.Qubit) error

	// Single-qubit rotations and their controlled variants.
	Rx(theta float64, q qir.Qubit) error
	Ry(theta float64, q qir.Qubit) error
	Rz(theta float64, q qir.Qubit) error
	RxCtl(ctls qir.Array, arg qir.Tuple) error
	RyCtl(ctls qir.Array, arg qir.Tuple) error
	RzCtl(ctls qir.Array, arg qir.Tuple) error

	// Generic Pauli rotation.
	R(pauli qir.Pauli, theta float64, q qir.Qubit) error
	RAdj(pauli qir.Pauli, theta float64, q qir.Qubit) error

	// Two- and three-qubit gates.
	CNOT(control, target qir.Qubit) error
	CX(control, target qir.Qubit) error
	CY(control, target qir.Qubit) error
	CZ(control, target qir.Qubit) error
	Swap(a, b qir.Qubit) error
	CCX(a, b, target qir.Qubit) error
	Rxx(theta float64, a, b qir.Qubit) error
	Ryy(theta float64, a, b qir.Qubit) error
	Rzz(theta float64, a, b qir.Qubit) error

	// Generalized exponential of a Pauli product.
	Exp(paulis qir.Array, theta float64, qubits qir.Array) error
	ExpAdj(paulis qir.Array, theta float64, qubits qir.Array) error

	// Measurements. Mz and MResetZ write into a result slot; ReadResult
	// reads a previously stored bit. The semantic distinction between
	// measuring and reading is backend responsibility.
	M(q qir.Qubit, r qir.Result) error
	Measure(paulis qir.Array, qubits qir.Array, r qir.Result) error
	Mz(q qir.Qubit, r qir.Result) error
	MResetZ(q qir.Qubit, r qir.Result) error
	ReadResult(r qir.Result) (bool, error)

	// Assertion hooks.
	AssertMeasurementProbability(bases, qubits qir.Array, r qir.Result,
		prob float64, msg qir.OptionalCString, tol float64) error
	AssertMeasurementProbabilityCtl(ctls qir.Array, arg qir.Tuple) error
}

// Runtime enumerates the rt namespace: environment initialization, the
// record-output operations, and the six memory functions. The memory
// functions have a default implementation in the memory package; concrete
// runtimes may reuse or override it.
type Runtime interface {
	Initialize(env qir.OptionalCString) error

	ArrayRecordOutput(n uint64, tag qir.OptionalCString) error
	TupleRecordOutput(n uint64, tag qir.OptionalCString) error
	ResultRecordOutput(r qir.Result, tag qir.OptionalCString) error

	ArrayCreate1D(elemSize uint32, length uint64) (qir.Array, error)
	ArrayUpdateReferenceCount(a qir.Array, delta int32) error
	ArrayGetElementPtr1D(a qir.Array, index uint64) (qir.Pointer, error)
	ArrayGetSize1D(a qir.Array) (uint64, error)
	TupleCreate(numBytes uint64) (qir.Tuple, error)
	TupleUpdateReferenceCount(t qir.Tuple, delta int32) error
}

// MeasureSource yields stored measurement outcomes per result slot, keyed
// by shot. Runtimes consume it to aggregate statistics without knowing the
// quantum side's implementation.
type MeasureSource interface {
	// Outcome returns the measured bit for a result slot in the current
	// shot, and whether the slot has been written.
	Outcome(r qir.Result) (bool, bool)
	// QubitFor maps a result slot back to the measured qubit, if known.
	QubitFor(r qir.Result) (qir.Qubit, bool)
}
