package backend

import (
	"fmt"
	"io"

	"qirvm/internal/memory"
	"qirvm/internal/qir"
)

// memRuntime supplies the six rt memory functions by delegating to the
// engine's memory manager. Runtime implementations embed it; backends with
// their own allocator override the methods instead.
type memRuntime struct {
	mem *memory.Manager
}

func (m memRuntime) ArrayCreate1D(elemSize uint32, length uint64) (qir.Array, error) {
	return m.mem.ArrayCreate1D(elemSize, length), nil
}

func (m memRuntime) ArrayUpdateReferenceCount(a qir.Array, delta int32) error {
	return m.mem.ArrayUpdateRefCount(a, delta)
}

func (m memRuntime) ArrayGetElementPtr1D(a qir.Array, index uint64) (qir.Pointer, error) {
	return m.mem.ArrayElementPtr(a, index)
}

func (m memRuntime) ArrayGetSize1D(a qir.Array) (uint64, error) {
	return m.mem.ArraySize(a)
}

func (m memRuntime) TupleCreate(numBytes uint64) (qir.Tuple, error) {
	return m.mem.TupleCreate(numBytes), nil
}

func (m memRuntime) TupleUpdateReferenceCount(t qir.Tuple, delta int32) error {
	return m.mem.TupleUpdateRefCount(t, delta)
}

type qubitStat struct {
	qubit  qir.Qubit
	tag    qir.OptionalCString
	counts [2]uint64
}

// StatsRuntime prints per-qubit measurement statistics accumulated across
// shots.
//
// Example output after Flush:
//
//	tuple ret length 2
//	qubit 0 experiment <null>: {0: 509, 1: 515}
//	qubit 1 experiment <null>: {0: 509, 1: 515}
type StatsRuntime struct {
	memRuntime
	out io.Writer
	src MeasureSource

	headers []string
	seen    map[string]bool
	stats   []*qubitStat
	byQubit map[qir.Qubit]*qubitStat
}

var _ Runtime = (*StatsRuntime)(nil)

// NewStatsRuntime builds a per-qubit statistics runtime over the engine's
// memory manager. src is consulted for each recorded result's outcome.
func NewStatsRuntime(out io.Writer, mem *memory.Manager, src MeasureSource) *StatsRuntime {
	return &StatsRuntime{
		memRuntime: memRuntime{mem: mem},
		out:        out,
		src:        src,
		seen:       make(map[string]bool),
		byQubit:    make(map[qir.Qubit]*qubitStat),
	}
}

// Initialize implements Runtime. The environment string carries no meaning
// for local statistics.
func (rt *StatsRuntime) Initialize(env qir.OptionalCString) error { return nil }

func (rt *StatsRuntime) header(kind string, n uint64, tag qir.OptionalCString) error {
	h := fmt.Sprintf("%s %s length %d", kind, tag, n)
	if !rt.seen[h] {
		rt.seen[h] = true
		rt.headers = append(rt.headers, h)
	}
	return nil
}

// ArrayRecordOutput implements Runtime.
func (rt *StatsRuntime) ArrayRecordOutput(n uint64, tag qir.OptionalCString) error {
	return rt.header("array", n, tag)
}

// TupleRecordOutput implements Runtime.
func (rt *StatsRuntime) TupleRecordOutput(n uint64, tag qir.OptionalCString) error {
	return rt.header("tuple", n, tag)
}

// ResultRecordOutput implements Runtime. The result's bit for the current
// shot is folded into the per-qubit tally.
func (rt *StatsRuntime) ResultRecordOutput(r qir.Result, tag qir.OptionalCString) error {
	q, ok := rt.src.QubitFor(r)
	if !ok {
		// Static result slots map one-to-one when the backend does not
		// track the measured qubit.
		q = qir.Qubit(r)
	}
	st, ok := rt.byQubit[q]
	if !ok {
		st = &qubitStat{qubit: q, tag: tag}
		rt.byQubit[q] = st
		rt.stats = append(rt.stats, st)
	}
	bit, _ := rt.src.Outcome(r)
	if bit {
		st.counts[1]++
	} else {
		st.counts[0]++
	}
	return nil
}

// Flush writes the accumulated statistics and resets the tallies.
func (rt *StatsRuntime) Flush() error {
	for _, h := range rt.headers {
		if _, err := fmt.Fprintln(rt.out, h); err != nil {
			return err
		}
	}
	for _, st := range rt.stats {
		_, err := fmt.Fprintf(rt.out, "qubit %d experiment %s: {0: %d, 1: %d}\n",
			uint64(st.qubit), st.tag, st.counts[0], st.counts[1])
		if err != nil {
			return err
		}
	}
	rt.headers = rt.headers[:0]
	rt.seen = make(map[string]bool)
	rt.stats = rt.stats[:0]
	rt.byQubit = make(map[qir.Qubit]*qubitStat)
	return nil
}
