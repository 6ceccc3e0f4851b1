package binder

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"qirvm/internal/backend"
	"qirvm/internal/qir"
)

// testEnv binds a recorder and a string table without an engine.
type testEnv struct {
	quantum backend.Quantum
	runtime backend.Runtime
	strings map[uint64]string
}

func (e *testEnv) Quantum() (backend.Quantum, error) { return e.quantum, nil }
func (e *testEnv) Runtime() (backend.Runtime, error) { return e.runtime, nil }

func (e *testEnv) CString(addr uint64) (qir.OptionalCString, error) {
	if addr == 0 {
		return qir.OptionalCString{}, nil
	}
	return qir.SomeCString(e.strings[addr]), nil
}

func newTestEnv() (*testEnv, *backend.Recorder) {
	rec := &backend.Recorder{}
	return &testEnv{quantum: rec, strings: map[uint64]string{}}, rec
}

func TestTableCoversInstructionSet(t *testing.T) {
	for _, name := range []string{
		"__quantum__qis__h__body",
		"__quantum__qis__s__adj",
		"__quantum__qis__rz__body",
		"__quantum__qis__rz__ctl",
		"__quantum__qis__ccx__body",
		"__quantum__qis__exp__adj",
		"__quantum__qis__mresetz__body",
		"__quantum__qis__read_result__body",
		"__quantum__qis__assertmeasurementprobability__body",
		"__quantum__rt__initialize",
		"__quantum__rt__array_create_1d",
		"__quantum__rt__tuple_update_reference_count",
	} {
		if _, ok := Lookup(name); !ok {
			t.Errorf("table is missing %s", name)
		}
	}

	if _, ok := Lookup("__quantum__qis__zzzz__body"); ok {
		t.Error("table should not resolve unknown names")
	}
	assert.True(t, IsQuantumSymbol("__quantum__qis__zzzz__body"))
	assert.False(t, IsQuantumSymbol("memcpy"))
}

func TestArityMismatch(t *testing.T) {
	env, _ := newTestEnv()
	fn, ok := Lookup("__quantum__qis__h__body")
	require.True(t, ok)

	_, err := fn.Invoke(env, []uint64{1, 2})
	assert.Error(t, err)
}

func TestQubitWidthPassThrough(t *testing.T) {
	env, rec := newTestEnv()
	require.NoError(t, rec.SetUp(nil))

	fn, _ := Lookup("__quantum__qis__h__body")
	const idx = uint64(0xfedcba9876543210)
	_, err := fn.Invoke(env, []uint64{idx})
	require.NoError(t, err)

	require.Len(t, rec.Ops, 1)
	assert.Equal(t, qir.Qubit(idx), rec.Ops[0].Qubits[0], "the full 64-bit pattern must survive")
}

func TestPauliNarrowing(t *testing.T) {
	env, rec := newTestEnv()
	require.NoError(t, rec.SetUp(nil))

	fn, _ := Lookup("__quantum__qis__r__body")
	want := []qir.Pauli{qir.PauliI, qir.PauliX, qir.PauliY, qir.PauliZ}
	for i, p := range want {
		_, err := fn.Invoke(env, []uint64{uint64(p), math.Float64bits(0.5), uint64(i)})
		require.NoError(t, err)
	}

	require.Len(t, rec.Ops, len(want))
	for i, op := range rec.Ops {
		assert.Equal(t, "R", op.Name)
		assert.Equal(t, want[i], op.Pauli)
		assert.Equal(t, 0.5, op.Angle)
	}
}

func TestRotationDoubleDecoding(t *testing.T) {
	env, rec := newTestEnv()
	require.NoError(t, rec.SetUp(nil))

	fn, _ := Lookup("__quantum__qis__rx__body")
	theta := math.Pi / 8
	_, err := fn.Invoke(env, []uint64{math.Float64bits(theta), 3})
	require.NoError(t, err)

	require.Len(t, rec.Ops, 1)
	assert.Equal(t, theta, rec.Ops[0].Angle)
	assert.Equal(t, qir.Qubit(3), rec.Ops[0].Qubits[0])
}

func TestReadResultReturnsWord(t *testing.T) {
	env, rec := newTestEnv()
	require.NoError(t, rec.SetUp(nil))

	mz, _ := Lookup("__quantum__qis__mz__body")
	_, err := mz.Invoke(env, []uint64{0, 7})
	require.NoError(t, err)

	read, _ := Lookup("__quantum__qis__read_result__body")
	require.True(t, read.Returns)
	word, err := read.Invoke(env, []uint64{7})
	require.NoError(t, err)
	assert.Equal(t, uint64(0), word, "recorder without a seed measures zero")
}

func TestRecordOutputTagDecoding(t *testing.T) {
	env, rec := newTestEnv()
	env.strings[0x100] = "ret"
	sink := &recordingRuntime{}
	env.runtime = sink
	require.NoError(t, rec.SetUp(nil))

	fn, _ := Lookup("__quantum__rt__array_record_output")
	_, err := fn.Invoke(env, []uint64{2, 0x100})
	require.NoError(t, err)
	_, err = fn.Invoke(env, []uint64{1, 0})
	require.NoError(t, err)

	require.Len(t, sink.arrayTags, 2)
	assert.Equal(t, qir.SomeCString("ret"), sink.arrayTags[0])
	assert.False(t, sink.arrayTags[1].Valid)
}

// recordingRuntime captures record-output calls.
type recordingRuntime struct {
	arrayTags []qir.OptionalCString
}

func (r *recordingRuntime) Initialize(qir.OptionalCString) error { return nil }

func (r *recordingRuntime) ArrayRecordOutput(n uint64, tag qir.OptionalCString) error {
	r.arrayTags = append(r.arrayTags, tag)
	return nil
}

func (r *recordingRuntime) TupleRecordOutput(uint64, qir.OptionalCString) error      { return nil }
func (r *recordingRuntime) ResultRecordOutput(qir.Result, qir.OptionalCString) error { return nil }

func (r *recordingRuntime) ArrayCreate1D(uint32, uint64) (qir.Array, error)  { return 0, nil }
func (r *recordingRuntime) ArrayUpdateReferenceCount(qir.Array, int32) error { return nil }
func (r *recordingRuntime) ArrayGetElementPtr1D(qir.Array, uint64) (qir.Pointer, error) {
	return 0, nil
}
func (r *recordingRuntime) ArrayGetSize1D(qir.Array) (uint64, error)         { return 0, nil }
func (r *recordingRuntime) TupleCreate(uint64) (qir.Tuple, error)            { return 0, nil }
func (r *recordingRuntime) TupleUpdateReferenceCount(qir.Tuple, int32) error { return nil }
