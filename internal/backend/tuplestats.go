package backend

import (
	"fmt"
	"io"
	"sort"

	"qirvm/internal/memory"
	"qirvm/internal/qir"
)

type groupKind uint8

const (
	groupTuple groupKind = iota + 1
	groupArray
)

func (k groupKind) String() string {
	if k == groupArray {
		return "array"
	}
	return "tuple"
}

type tupleGroup struct {
	kind   groupKind
	tag    qir.OptionalCString
	length uint64
	counts map[string]uint64
	order  []string
	shots  uint64
}

// TupleRuntime groups recorded results into the tuple or array announced by
// the preceding record-output call and tallies distinct bitstrings across
// shots.
//
// Example output after Flush:
//
//	tuple ret length 2 distinct results 2
//	tuple ret result 00 count 512
//	tuple ret result 11 count 512
type TupleRuntime struct {
	memRuntime
	out io.Writer
	src MeasureSource

	groups  []*tupleGroup
	byKey   map[string]*tupleGroup
	current *tupleGroup
	pending []byte
}

var _ Runtime = (*TupleRuntime)(nil)

// NewTupleRuntime builds a per-tuple statistics runtime over the engine's
// memory manager.
func NewTupleRuntime(out io.Writer, mem *memory.Manager, src MeasureSource) *TupleRuntime {
	return &TupleRuntime{
		memRuntime: memRuntime{mem: mem},
		out:        out,
		src:        src,
		byKey:      make(map[string]*tupleGroup),
	}
}

// Initialize implements Runtime.
func (rt *TupleRuntime) Initialize(env qir.OptionalCString) error { return nil }

func (rt *TupleRuntime) startTracking(kind groupKind, n uint64, tag qir.OptionalCString) error {
	if err := rt.finishGroup(); err != nil {
		return err
	}
	key := fmt.Sprintf("%s/%s/%d", kind, tag, n)
	g, ok := rt.byKey[key]
	if !ok {
		g = &tupleGroup{kind: kind, tag: tag, length: n, counts: make(map[string]uint64)}
		rt.byKey[key] = g
		rt.groups = append(rt.groups, g)
	}
	rt.current = g
	rt.pending = rt.pending[:0]
	return nil
}

// ArrayRecordOutput implements Runtime: the next n results belong to one
// array-valued output.
func (rt *TupleRuntime) ArrayRecordOutput(n uint64, tag qir.OptionalCString) error {
	return rt.startTracking(groupArray, n, tag)
}

// TupleRecordOutput implements Runtime.
func (rt *TupleRuntime) TupleRecordOutput(n uint64, tag qir.OptionalCString) error {
	return rt.startTracking(groupTuple, n, tag)
}

// ResultRecordOutput implements Runtime. A result outside any announced
// group forms a singleton group of its own.
func (rt *TupleRuntime) ResultRecordOutput(r qir.Result, tag qir.OptionalCString) error {
	if rt.current == nil {
		if err := rt.startTracking(groupTuple, 1, tag); err != nil {
			return err
		}
	}
	bit, _ := rt.src.Outcome(r)
	if bit {
		rt.pending = append(rt.pending, '1')
	} else {
		rt.pending = append(rt.pending, '0')
	}
	if uint64(len(rt.pending)) >= rt.current.length {
		return rt.finishGroup()
	}
	return nil
}

func (rt *TupleRuntime) finishGroup() error {
	if rt.current == nil {
		return nil
	}
	g := rt.current
	rt.current = nil
	if len(rt.pending) == 0 {
		return nil
	}
	bits := string(rt.pending)
	rt.pending = rt.pending[:0]
	if _, ok := g.counts[bits]; !ok {
		g.order = append(g.order, bits)
	}
	g.counts[bits]++
	g.shots++
	return nil
}

// Flush writes the accumulated groupings and resets the tallies.
func (rt *TupleRuntime) Flush() error {
	if err := rt.finishGroup(); err != nil {
		return err
	}
	for _, g := range rt.groups {
		_, err := fmt.Fprintf(rt.out, "%s %s length %d distinct results %d\n",
			g.kind, g.tag, g.length, len(g.counts))
		if err != nil {
			return err
		}
		keys := append([]string(nil), g.order...)
		sort.Strings(keys)
		for _, bits := range keys {
			_, err := fmt.Fprintf(rt.out, "%s %s result %s count %d\n",
				g.kind, g.tag, bits, g.counts[bits])
			if err != nil {
				return err
			}
		}
	}
	rt.groups = rt.groups[:0]
	rt.byKey = make(map[string]*tupleGroup)
	return nil
}
