package binder

import (
	"qirvm/internal/backend"
	"qirvm/internal/qir"
)

// The canonical symbol table. One entry per QIR symbol, grouped the way
// the instruction set enumerates them: single-qubit gates, rotations,
// multi-qubit gates, exponentials, measurements, assertions, then the rt
// namespace. Lookup is by full symbol name; arity is checked at dispatch.

var table = make(map[string]Func, 64)

func register(name string, arity int, returns bool, call func(env Env, args []uint64) (uint64, error)) {
	if _, dup := table[name]; dup {
		panic("binder: duplicate symbol " + name)
	}
	table[name] = Func{Name: name, Arity: arity, Returns: returns, call: call}
}

func quantum1(name string, fwd func(q backend.Quantum, a qir.Qubit) error) {
	register(name, 1, false, func(env Env, args []uint64) (uint64, error) {
		q, err := env.Quantum()
		if err != nil {
			return 0, err
		}
		return 0, fwd(q, asQubit(args[0]))
	})
}

func quantum2(name string, fwd func(q backend.Quantum, a, b qir.Qubit) error) {
	register(name, 2, false, func(env Env, args []uint64) (uint64, error) {
		q, err := env.Quantum()
		if err != nil {
			return 0, err
		}
		return 0, fwd(q, asQubit(args[0]), asQubit(args[1]))
	})
}

func quantum3(name string, fwd func(q backend.Quantum, a, b, c qir.Qubit) error) {
	register(name, 3, false, func(env Env, args []uint64) (uint64, error) {
		q, err := env.Quantum()
		if err != nil {
			return 0, err
		}
		return 0, fwd(q, asQubit(args[0]), asQubit(args[1]), asQubit(args[2]))
	})
}

func rotation1(name string, fwd func(q backend.Quantum, theta float64, a qir.Qubit) error) {
	register(name, 2, false, func(env Env, args []uint64) (uint64, error) {
		q, err := env.Quantum()
		if err != nil {
			return 0, err
		}
		return 0, fwd(q, asDouble(args[0]), asQubit(args[1]))
	})
}

func rotation2(name string, fwd func(q backend.Quantum, theta float64, a, b qir.Qubit) error) {
	register(name, 3, false, func(env Env, args []uint64) (uint64, error) {
		q, err := env.Quantum()
		if err != nil {
			return 0, err
		}
		return 0, fwd(q, asDouble(args[0]), asQubit(args[1]), asQubit(args[2]))
	})
}

func controlled(name string, fwd func(q backend.Quantum, ctls qir.Array, arg qir.Tuple) error) {
	register(name, 2, false, func(env Env, args []uint64) (uint64, error) {
		q, err := env.Quantum()
		if err != nil {
			return 0, err
		}
		return 0, fwd(q, asArray(args[0]), asTuple(args[1]))
	})
}

func measure(name string, fwd func(q backend.Quantum, a qir.Qubit, r qir.Result) error) {
	register(name, 2, false, func(env Env, args []uint64) (uint64, error) {
		q, err := env.Quantum()
		if err != nil {
			return 0, err
		}
		return 0, fwd(q, asQubit(args[0]), asResult(args[1]))
	})
}

func pauliRotation(name string, fwd func(q backend.Quantum, p qir.Pauli, theta float64, a qir.Qubit) error) {
	register(name, 3, false, func(env Env, args []uint64) (uint64, error) {
		q, err := env.Quantum()
		if err != nil {
			return 0, err
		}
		return 0, fwd(q, asPauli(args[0]), asDouble(args[1]), asQubit(args[2]))
	})
}

func exponential(name string, fwd func(q backend.Quantum, paulis qir.Array, theta float64, qubits qir.Array) error) {
	register(name, 3, false, func(env Env, args []uint64) (uint64, error) {
		q, err := env.Quantum()
		if err != nil {
			return 0, err
		}
		return 0, fwd(q, asArray(args[0]), asDouble(args[1]), asArray(args[2]))
	})
}

func init() {
	// Single-qubit gates.
	quantum1("__quantum__qis__h__body", backend.Quantum.H)
	quantum1("__quantum__qis__x__body", backend.Quantum.X)
	quantum1("__quantum__qis__y__body", backend.Quantum.Y)
	quantum1("__quantum__qis__z__body", backend.Quantum.Z)
	quantum1("__quantum__qis__s__body", backend.Quantum.S)
	quantum1("__quantum__qis__s__adj", backend.Quantum.SAdj)
	quantum1("__quantum__qis__t__body", backend.Quantum.T)
	quantum1("__quantum__qis__t__adj", backend.Quantum.TAdj)
	quantum1("__quantum__qis__reset__body", backend.Quantum.Reset)

	// Single-qubit rotations.
	rotation1("__quantum__qis__rx__body", backend.Quantum.Rx)
	rotation1("__quantum__qis__ry__body", backend.Quantum.Ry)
	rotation1("__quantum__qis__rz__body", backend.Quantum.Rz)
	controlled("__quantum__qis__rx__ctl", backend.Quantum.RxCtl)
	controlled("__quantum__qis__ry__ctl", backend.Quantum.RyCtl)
	controlled("__quantum__qis__rz__ctl", backend.Quantum.RzCtl)
	pauliRotation("__quantum__qis__r__body", backend.Quantum.R)
	pauliRotation("__quantum__qis__r__adj", backend.Quantum.RAdj)

	// Multi-qubit gates.
	quantum2("__quantum__qis__cnot__body", backend.Quantum.CNOT)
	quantum2("__quantum__qis__cx__body", backend.Quantum.CX)
	quantum2("__quantum__qis__cy__body", backend.Quantum.CY)
	quantum2("__quantum__qis__cz__body", backend.Quantum.CZ)
	quantum2("__quantum__qis__swap__body", backend.Quantum.Swap)
	quantum3("__quantum__qis__ccx__body", backend.Quantum.CCX)
	quantum3("__quantum__qis__ccnot__body", backend.Quantum.CCX)
	rotation2("__quantum__qis__rxx__body", backend.Quantum.Rxx)
	rotation2("__quantum__qis__ryy__body", backend.Quantum.Ryy)
	rotation2("__quantum__qis__rzz__body", backend.Quantum.Rzz)

	// Exponentials of Pauli products.
	exponential("__quantum__qis__exp__body", backend.Quantum.Exp)
	exponential("__quantum__qis__exp__adj", backend.Quantum.ExpAdj)

	// Measurements.
	measure("__quantum__qis__m__body", backend.Quantum.M)
	measure("__quantum__qis__mz__body", backend.Quantum.Mz)
	measure("__quantum__qis__mresetz__body", backend.Quantum.MResetZ)
	register("__quantum__qis__measure__body", 3, false, func(env Env, args []uint64) (uint64, error) {
		q, err := env.Quantum()
		if err != nil {
			return 0, err
		}
		return 0, q.Measure(asArray(args[0]), asArray(args[1]), asResult(args[2]))
	})
	register("__quantum__qis__read_result__body", 1, true, func(env Env, args []uint64) (uint64, error) {
		q, err := env.Quantum()
		if err != nil {
			return 0, err
		}
		bit, err := q.ReadResult(asResult(args[0]))
		return boolWord(bit), err
	})

	// Assertions.
	register("__quantum__qis__assertmeasurementprobability__body", 6, false, func(env Env, args []uint64) (uint64, error) {
		q, err := env.Quantum()
		if err != nil {
			return 0, err
		}
		msg, err := env.CString(args[4])
		if err != nil {
			return 0, err
		}
		return 0, q.AssertMeasurementProbability(asArray(args[0]), asArray(args[1]),
			asResult(args[2]), asDouble(args[3]), msg, asDouble(args[5]))
	})
	controlled("__quantum__qis__assertmeasurementprobability__ctl",
		backend.Quantum.AssertMeasurementProbabilityCtl)

	// Runtime namespace.
	register("__quantum__rt__initialize", 1, false, func(env Env, args []uint64) (uint64, error) {
		rt, err := env.Runtime()
		if err != nil {
			return 0, err
		}
		envStr, err := env.CString(args[0])
		if err != nil {
			return 0, err
		}
		return 0, rt.Initialize(envStr)
	})
	register("__quantum__rt__array_record_output", 2, false, func(env Env, args []uint64) (uint64, error) {
		rt, err := env.Runtime()
		if err != nil {
			return 0, err
		}
		tag, err := env.CString(args[1])
		if err != nil {
			return 0, err
		}
		return 0, rt.ArrayRecordOutput(args[0], tag)
	})
	register("__quantum__rt__tuple_record_output", 2, false, func(env Env, args []uint64) (uint64, error) {
		rt, err := env.Runtime()
		if err != nil {
			return 0, err
		}
		tag, err := env.CString(args[1])
		if err != nil {
			return 0, err
		}
		return 0, rt.TupleRecordOutput(args[0], tag)
	})
	register("__quantum__rt__result_record_output", 2, false, func(env Env, args []uint64) (uint64, error) {
		rt, err := env.Runtime()
		if err != nil {
			return 0, err
		}
		tag, err := env.CString(args[1])
		if err != nil {
			return 0, err
		}
		return 0, rt.ResultRecordOutput(asResult(args[0]), tag)
	})

	// Runtime memory management.
	register("__quantum__rt__array_create_1d", 2, true, func(env Env, args []uint64) (uint64, error) {
		rt, err := env.Runtime()
		if err != nil {
			return 0, err
		}
		a, err := rt.ArrayCreate1D(asElemSize(args[0]), args[1])
		return uint64(a), err
	})
	register("__quantum__rt__array_update_reference_count", 2, false, func(env Env, args []uint64) (uint64, error) {
		rt, err := env.Runtime()
		if err != nil {
			return 0, err
		}
		return 0, rt.ArrayUpdateReferenceCount(asArray(args[0]), asDelta(args[1]))
	})
	register("__quantum__rt__array_get_element_ptr_1d", 2, true, func(env Env, args []uint64) (uint64, error) {
		rt, err := env.Runtime()
		if err != nil {
			return 0, err
		}
		p, err := rt.ArrayGetElementPtr1D(asArray(args[0]), args[1])
		return uint64(p), err
	})
	register("__quantum__rt__array_get_size_1d", 1, true, func(env Env, args []uint64) (uint64, error) {
		rt, err := env.Runtime()
		if err != nil {
			return 0, err
		}
		return rt.ArrayGetSize1D(asArray(args[0]))
	})
	register("__quantum__rt__tuple_create", 1, true, func(env Env, args []uint64) (uint64, error) {
		rt, err := env.Runtime()
		if err != nil {
			return 0, err
		}
		t, err := rt.TupleCreate(args[0])
		return uint64(t), err
	})
	register("__quantum__rt__tuple_update_reference_count", 2, false, func(env Env, args []uint64) (uint64, error) {
		rt, err := env.Runtime()
		if err != nil {
			return 0, err
		}
		return 0, rt.TupleUpdateReferenceCount(asTuple(args[0]), asDelta(args[1]))
	})
}
