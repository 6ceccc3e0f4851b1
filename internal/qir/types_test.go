package qir

import "testing"

func TestPauliString(t *testing.T) {
	cases := []struct {
		p    Pauli
		want string
	}{
		{PauliI, "I"},
		{PauliX, "X"},
		{PauliY, "Y"},
		{PauliZ, "Z"},
		{Pauli(7), "Pauli(7)"},
	}
	for _, tc := range cases {
		if got := tc.p.String(); got != tc.want {
			t.Errorf("Pauli(%d).String() = %q, want %q", uint8(tc.p), got, tc.want)
		}
	}
	if Pauli(4).Valid() {
		t.Error("Pauli(4) should not be valid")
	}
	if !PauliZ.Valid() {
		t.Error("PauliZ should be valid")
	}
}

func TestEntryPointAttrsUint(t *testing.T) {
	attrs := EntryPointAttrs{
		AttrRequiredNumQubits:  "5",
		AttrRequiredNumResults: "five",
	}

	n, ok, err := attrs.RequiredNumQubits()
	if err != nil || !ok || n != 5 {
		t.Fatalf("RequiredNumQubits() = (%d, %v, %v), want (5, true, nil)", n, ok, err)
	}

	_, ok, err = attrs.RequiredNumResults()
	if !ok || err == nil {
		t.Fatalf("RequiredNumResults() should fail on %q", attrs[AttrRequiredNumResults])
	}

	_, ok, err = attrs.Uint("absent")
	if ok || err != nil {
		t.Fatalf("Uint(absent) = (_, %v, %v), want (false, nil)", ok, err)
	}
}

func TestEntryPointAttrsClone(t *testing.T) {
	attrs := EntryPointAttrs{AttrEntryPoint: ""}
	clone := attrs.Clone()
	clone["extra"] = "1"
	if _, ok := attrs["extra"]; ok {
		t.Error("Clone should be independent of the original")
	}
}

func TestOptionalCString(t *testing.T) {
	if got := (OptionalCString{}).String(); got != "<null>" {
		t.Errorf("absent tag renders %q, want <null>", got)
	}
	if got := SomeCString("ret").String(); got != "ret" {
		t.Errorf("present tag renders %q, want ret", got)
	}
}

func TestModuleFlagsQIRVersion(t *testing.T) {
	flags := ModuleFlags{
		FlagQIRMajorVersion: FlagValue{Int: 1, IsInt: true},
		FlagQIRMinorVersion: FlagValue{Int: 0, IsInt: true},
	}
	major, minor, ok := flags.QIRVersion()
	if !ok || major != 1 || minor != 0 {
		t.Fatalf("QIRVersion() = (%d, %d, %v), want (1, 0, true)", major, minor, ok)
	}

	if _, _, ok := (ModuleFlags{}).QIRVersion(); ok {
		t.Error("QIRVersion() should report absence on empty flags")
	}
}
