package backend

import (
	"math"
	"math/rand"
	"testing"

	"qirvm/internal/qir"
)

func TestRecorderLowersST(t *testing.T) {
	rec := &Recorder{LowerST: true}
	if err := rec.SetUp(nil); err != nil {
		t.Fatal(err)
	}

	if err := rec.T(0); err != nil {
		t.Fatal(err)
	}
	if err := rec.TAdj(0); err != nil {
		t.Fatal(err)
	}
	if err := rec.S(1); err != nil {
		t.Fatal(err)
	}
	if err := rec.SAdj(1); err != nil {
		t.Fatal(err)
	}

	want := []struct {
		name  string
		angle float64
	}{
		{"Rz", math.Pi / 4},
		{"Rz", -math.Pi / 4},
		{"Rz", math.Pi / 2},
		{"Rz", -math.Pi / 2},
	}
	if len(rec.Ops) != len(want) {
		t.Fatalf("ops = %d, want %d", len(rec.Ops), len(want))
	}
	for i, w := range want {
		op := rec.Ops[i]
		if op.Name != w.name || op.Angle != w.angle {
			t.Errorf("op[%d] = %s(%v), want %s(%v)", i, op.Name, op.Angle, w.name, w.angle)
		}
	}
}

func TestRecorderKeepsPhaseGatesWithoutLowering(t *testing.T) {
	rec := &Recorder{}
	if err := rec.SetUp(nil); err != nil {
		t.Fatal(err)
	}
	if err := rec.T(0); err != nil {
		t.Fatal(err)
	}
	if err := rec.SAdj(0); err != nil {
		t.Fatal(err)
	}
	if rec.Ops[0].Name != "T" || rec.Ops[1].Name != "Sdg" {
		t.Fatalf("ops = %v, want [T Sdg]", rec.Ops)
	}
}

func TestRecorderMeasurementRoundTrip(t *testing.T) {
	rec := &Recorder{}
	if err := rec.SetUp(nil); err != nil {
		t.Fatal(err)
	}

	if err := rec.Mz(3, 5); err != nil {
		t.Fatal(err)
	}
	bit, err := rec.ReadResult(5)
	if err != nil || bit {
		t.Fatalf("unseeded measurement = (%v, %v), want (false, nil)", bit, err)
	}

	q, ok := rec.QubitFor(5)
	if !ok || q != 3 {
		t.Fatalf("QubitFor(5) = (%d, %v), want (3, true)", q, ok)
	}
	if _, ok := rec.Outcome(9); ok {
		t.Fatal("unmeasured slot should report absence")
	}
}

func TestRecorderSeededMeasurements(t *testing.T) {
	rec := &Recorder{Rand: rand.New(rand.NewSource(7))}
	if err := rec.SetUp(nil); err != nil {
		t.Fatal(err)
	}

	sawOne := false
	for i := 0; i < 64; i++ {
		if err := rec.Mz(qir.Qubit(0), qir.Result(i)); err != nil {
			t.Fatal(err)
		}
		if bit, _ := rec.Outcome(qir.Result(i)); bit {
			sawOne = true
		}
	}
	if !sawOne {
		t.Fatal("seeded recorder should produce nonzero outcomes")
	}
}

func TestRecorderSetUpResetsBits(t *testing.T) {
	rec := &Recorder{Rand: rand.New(rand.NewSource(1))}
	if err := rec.SetUp(nil); err != nil {
		t.Fatal(err)
	}
	for i := 0; i < 8; i++ {
		if err := rec.Mz(0, qir.Result(i)); err != nil {
			t.Fatal(err)
		}
	}
	if err := rec.SetUp(nil); err != nil {
		t.Fatal(err)
	}
	if _, ok := rec.Outcome(0); ok {
		t.Fatal("set_up must clear stored measurement bits")
	}
}
