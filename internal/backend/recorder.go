package backend

import (
	"math"
	"math/rand"

	"qirvm/internal/qir"
)

// Op is one recorded quantum instruction.
type Op struct {
	Name     string
	Qubits   []qir.Qubit
	Results  []qir.Result
	Angle    float64
	HasAngle bool
	Pauli    qir.Pauli
	HasPauli bool
}

// Recorder is a Quantum implementation that records every dispatched
// instruction in program order and synthesizes measurement outcomes.
// Without a Rand source every measurement reads 0, which keeps test
// traces deterministic; with one, each measured bit is drawn fresh.
type Recorder struct {
	// LowerST rewrites S/T and their adjoints into Rz rotations by the
	// quarter/eighth turn, for backends without native phase gates.
	LowerST bool
	// Rand drives synthesized measurement outcomes. Nil means all zeros.
	Rand *rand.Rand

	Ops           []Op
	Attrs         qir.EntryPointAttrs
	SetUpCalls    int
	TearDownCalls int

	bits     map[qir.Result]bool
	measured map[qir.Result]qir.Qubit
}

var _ Quantum = (*Recorder)(nil)
var _ MeasureSource = (*Recorder)(nil)

func (rec *Recorder) record(op Op) error {
	rec.Ops = append(rec.Ops, op)
	return nil
}

func (rec *Recorder) gate(name string, qs ...qir.Qubit) error {
	return rec.record(Op{Name: name, Qubits: qs})
}

func (rec *Recorder) rotation(name string, theta float64, qs ...qir.Qubit) error {
	return rec.record(Op{Name: name, Qubits: qs, Angle: theta, HasAngle: true})
}

// SetUp resets per-run state and keeps the attribute snapshot.
func (rec *Recorder) SetUp(attrs qir.EntryPointAttrs) error {
	rec.SetUpCalls++
	rec.Attrs = attrs.Clone()
	rec.bits = make(map[qir.Result]bool)
	rec.measured = make(map[qir.Result]qir.Qubit)
	return nil
}

// TearDown only counts; recorded instructions survive for inspection.
func (rec *Recorder) TearDown() error {
	rec.TearDownCalls++
	return nil
}

func (rec *Recorder) H(q qir.Qubit) error { return rec.gate("H", q) }
func (rec *Recorder) X(q qir.Qubit) error { return rec.gate("X", q) }
func (rec *Recorder) Y(q qir.Qubit) error { return rec.gate("Y", q) }
func (rec *Recorder) Z(q qir.Qubit) error { return rec.gate("Z", q) }

func (rec *Recorder) S(q qir.Qubit) error {
	if rec.LowerST {
		return rec.rotation("Rz", math.Pi/2, q)
	}
	return rec.gate("S", q)
}

func (rec *Recorder) SAdj(q qir.Qubit) error {
	if rec.LowerST {
		return rec.rotation("Rz", -math.Pi/2, q)
	}
	return rec.gate("Sdg", q)
}

func (rec *Recorder) T(q qir.Qubit) error {
	if rec.LowerST {
		return rec.rotation("Rz", math.Pi/4, q)
	}
	return rec.gate("T", q)
}

func (rec *Recorder) TAdj(q qir.Qubit) error {
	if rec.LowerST {
		return rec.rotation("Rz", -math.Pi/4, q)
	}
	return rec.gate("Tdg", q)
}

func (rec *Recorder) Reset(q qir.Qubit) error { return rec.gate("Reset", q) }

func (rec *Recorder) Rx(theta float64, q qir.Qubit) error { return rec.rotation("Rx", theta, q) }
func (rec *Recorder) Ry(theta float64, q qir.Qubit) error { return rec.rotation("Ry", theta, q) }
func (rec *Recorder) Rz(theta float64, q qir.Qubit) error { return rec.rotation("Rz", theta, q) }

func (rec *Recorder) RxCtl(ctls qir.Array, arg qir.Tuple) error {
	return rec.record(Op{Name: "Rx.ctl"})
}
func (rec *Recorder) RyCtl(ctls qir.Array, arg qir.Tuple) error {
	return rec.record(Op{Name: "Ry.ctl"})
}
func (rec *Recorder) RzCtl(ctls qir.Array, arg qir.Tuple) error {
	return rec.record(Op{Name: "Rz.ctl"})
}

func (rec *Recorder) R(pauli qir.Pauli, theta float64, q qir.Qubit) error {
	return rec.record(Op{Name: "R", Qubits: []qir.Qubit{q}, Angle: theta, HasAngle: true, Pauli: pauli, HasPauli: true})
}

func (rec *Recorder) RAdj(pauli qir.Pauli, theta float64, q qir.Qubit) error {
	return rec.record(Op{Name: "Rdg", Qubits: []qir.Qubit{q}, Angle: theta, HasAngle: true, Pauli: pauli, HasPauli: true})
}

func (rec *Recorder) CNOT(control, target qir.Qubit) error { return rec.gate("CNOT", control, target) }
func (rec *Recorder) CX(control, target qir.Qubit) error   { return rec.gate("CX", control, target) }
func (rec *Recorder) CY(control, target qir.Qubit) error   { return rec.gate("CY", control, target) }
func (rec *Recorder) CZ(control, target qir.Qubit) error   { return rec.gate("CZ", control, target) }
func (rec *Recorder) Swap(a, b qir.Qubit) error            { return rec.gate("SWAP", a, b) }
func (rec *Recorder) CCX(a, b, target qir.Qubit) error     { return rec.gate("CCX", a, b, target) }

func (rec *Recorder) Rxx(theta float64, a, b qir.Qubit) error {
	return rec.rotation("RXX", theta, a, b)
}
func (rec *Recorder) Ryy(theta float64, a, b qir.Qubit) error {
	return rec.rotation("RYY", theta, a, b)
}
func (rec *Recorder) Rzz(theta float64, a, b qir.Qubit) error {
	return rec.rotation("RZZ", theta, a, b)
}

func (rec *Recorder) Exp(paulis qir.Array, theta float64, qubits qir.Array) error {
	return rec.record(Op{Name: "Exp", Angle: theta, HasAngle: true})
}

func (rec *Recorder) ExpAdj(paulis qir.Array, theta float64, qubits qir.Array) error {
	return rec.record(Op{Name: "Expdg", Angle: theta, HasAngle: true})
}

func (rec *Recorder) measureInto(name string, q qir.Qubit, r qir.Result) error {
	bit := false
	if rec.Rand != nil {
		bit = rec.Rand.Intn(2) == 1
	}
	if rec.bits == nil {
		rec.bits = make(map[qir.Result]bool)
		rec.measured = make(map[qir.Result]qir.Qubit)
	}
	rec.bits[r] = bit
	rec.measured[r] = q
	return rec.record(Op{Name: name, Qubits: []qir.Qubit{q}, Results: []qir.Result{r}})
}

func (rec *Recorder) M(q qir.Qubit, r qir.Result) error  { return rec.measureInto("M", q, r) }
func (rec *Recorder) Mz(q qir.Qubit, r qir.Result) error { return rec.measureInto("Mz", q, r) }

func (rec *Recorder) MResetZ(q qir.Qubit, r qir.Result) error {
	return rec.measureInto("MResetZ", q, r)
}

func (rec *Recorder) Measure(paulis qir.Array, qubits qir.Array, r qir.Result) error {
	bit := false
	if rec.Rand != nil {
		bit = rec.Rand.Intn(2) == 1
	}
	if rec.bits == nil {
		rec.bits = make(map[qir.Result]bool)
		rec.measured = make(map[qir.Result]qir.Qubit)
	}
	rec.bits[r] = bit
	return rec.record(Op{Name: "Measure", Results: []qir.Result{r}})
}

func (rec *Recorder) ReadResult(r qir.Result) (bool, error) {
	return rec.bits[r], nil
}

func (rec *Recorder) AssertMeasurementProbability(bases, qubits qir.Array, r qir.Result,
	prob float64, msg qir.OptionalCString, tol float64) error {
	return rec.record(Op{Name: "AssertMeasurementProbability", Results: []qir.Result{r}, Angle: prob, HasAngle: true})
}

func (rec *Recorder) AssertMeasurementProbabilityCtl(ctls qir.Array, arg qir.Tuple) error {
	return rec.record(Op{Name: "AssertMeasurementProbability.ctl"})
}

// Outcome implements MeasureSource.
func (rec *Recorder) Outcome(r qir.Result) (bool, bool) {
	bit, ok := rec.bits[r]
	return bit, ok
}

// QubitFor implements MeasureSource.
func (rec *Recorder) QubitFor(r qir.Result) (qir.Qubit, bool) {
	q, ok := rec.measured[r]
	return q, ok
}
