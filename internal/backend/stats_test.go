package backend

import (
	"bytes"
	"testing"

	"github.com/sebdah/goldie/v2"

	"qirvm/internal/memory"
	"qirvm/internal/qir"
)

// scriptedSource replays fixed measurement outcomes per shot.
type scriptedSource struct {
	shots [][]bool // shots[shot][result]
	shot  int
}

func (s *scriptedSource) Outcome(r qir.Result) (bool, bool) {
	row := s.shots[s.shot]
	if int(r) >= len(row) {
		return false, false
	}
	return row[r], true
}

func (s *scriptedSource) QubitFor(r qir.Result) (qir.Qubit, bool) {
	return qir.Qubit(r), true
}

// bellShots alternates the two correlated outcomes.
func bellShots(n int) [][]bool {
	shots := make([][]bool, n)
	for i := range shots {
		one := i%2 == 1
		shots[i] = []bool{one, one}
	}
	return shots
}

func TestStatsRuntimeGolden(t *testing.T) {
	var out bytes.Buffer
	src := &scriptedSource{shots: bellShots(4)}
	rt := NewStatsRuntime(&out, memory.NewManager(), src)

	for shot := 0; shot < 4; shot++ {
		src.shot = shot
		if err := rt.ArrayRecordOutput(2, qir.SomeCString("ret")); err != nil {
			t.Fatal(err)
		}
		if err := rt.ResultRecordOutput(0, qir.OptionalCString{}); err != nil {
			t.Fatal(err)
		}
		if err := rt.ResultRecordOutput(1, qir.OptionalCString{}); err != nil {
			t.Fatal(err)
		}
	}
	if err := rt.Flush(); err != nil {
		t.Fatal(err)
	}

	g := goldie.New(t)
	g.Assert(t, "stats", out.Bytes())
}

func TestTupleRuntimeGolden(t *testing.T) {
	var out bytes.Buffer
	src := &scriptedSource{shots: bellShots(4)}
	rt := NewTupleRuntime(&out, memory.NewManager(), src)

	for shot := 0; shot < 4; shot++ {
		src.shot = shot
		if err := rt.TupleRecordOutput(2, qir.SomeCString("ret")); err != nil {
			t.Fatal(err)
		}
		if err := rt.ResultRecordOutput(0, qir.OptionalCString{}); err != nil {
			t.Fatal(err)
		}
		if err := rt.ResultRecordOutput(1, qir.OptionalCString{}); err != nil {
			t.Fatal(err)
		}
	}
	if err := rt.Flush(); err != nil {
		t.Fatal(err)
	}

	g := goldie.New(t)
	g.Assert(t, "tuple", out.Bytes())
}

func TestStatsRuntimeResetsAfterFlush(t *testing.T) {
	var out bytes.Buffer
	src := &scriptedSource{shots: bellShots(1)}
	rt := NewStatsRuntime(&out, memory.NewManager(), src)

	if err := rt.ResultRecordOutput(0, qir.OptionalCString{}); err != nil {
		t.Fatal(err)
	}
	if err := rt.Flush(); err != nil {
		t.Fatal(err)
	}
	out.Reset()
	if err := rt.Flush(); err != nil {
		t.Fatal(err)
	}
	if out.Len() != 0 {
		t.Fatalf("second flush wrote %q, want nothing", out.String())
	}
}

func TestTupleRuntimeSingletonResult(t *testing.T) {
	var out bytes.Buffer
	src := &scriptedSource{shots: [][]bool{{true}}}
	rt := NewTupleRuntime(&out, memory.NewManager(), src)

	// A result recorded outside any announced group forms its own.
	if err := rt.ResultRecordOutput(0, qir.SomeCString("solo")); err != nil {
		t.Fatal(err)
	}
	if err := rt.Flush(); err != nil {
		t.Fatal(err)
	}

	want := "tuple solo length 1 distinct results 1\ntuple solo result 1 count 1\n"
	if out.String() != want {
		t.Fatalf("output = %q, want %q", out.String(), want)
	}
}

func TestMemRuntimeDelegation(t *testing.T) {
	mem := memory.NewManager()
	rt := NewStatsRuntime(&bytes.Buffer{}, mem, &scriptedSource{shots: bellShots(1)})

	a, err := rt.ArrayCreate1D(8, 4)
	if err != nil {
		t.Fatal(err)
	}
	size, err := rt.ArrayGetSize1D(a)
	if err != nil || size != 4 {
		t.Fatalf("size = (%d, %v), want (4, nil)", size, err)
	}
	p, err := rt.ArrayGetElementPtr1D(a, 3)
	if err != nil || uint64(p) != uint64(a)+24 {
		t.Fatalf("elem ptr = (%#x, %v), want payload+24", uint64(p), err)
	}
	if err := rt.ArrayUpdateReferenceCount(a, -1); err != nil {
		t.Fatal(err)
	}
	if live := mem.Live(); live != 0 {
		t.Fatalf("live = %d, want 0", live)
	}
}
