package qir

import (
	"fmt"
	"strconv"
)

// Attribute keys recognized on a QIR entry-point function. Keys not listed
// here are preserved verbatim but carry no engine semantics.
const (
	AttrEntryPoint           = "entry_point"
	AttrRequiredNumQubits    = "required_num_qubits"
	AttrRequiredNumResults   = "required_num_results"
	AttrOutputLabelingSchema = "output_labeling_schema"
)

// Module flag names recognized in !llvm.module.flags.
const (
	FlagQIRMajorVersion         = "qir_major_version"
	FlagQIRMinorVersion         = "qir_minor_version"
	FlagDynamicQubitManagement  = "dynamic_qubit_management"
	FlagDynamicResultManagement = "dynamic_result_management"
)

// EntryPointAttrs holds the string attributes attached to the entry-point
// function. Missing keys are absent, not defaulted.
type EntryPointAttrs map[string]string

// Lookup returns the raw value for key and whether it is present.
func (a EntryPointAttrs) Lookup(key string) (string, bool) {
	v, ok := a[key]
	return v, ok
}

// Uint returns the decimal unsigned value of key. The second return is
// false when the key is absent; a present but unparseable value is an
// error.
func (a EntryPointAttrs) Uint(key string) (uint64, bool, error) {
	raw, ok := a[key]
	if !ok {
		return 0, false, nil
	}
	n, err := strconv.ParseUint(raw, 10, 64)
	if err != nil {
		return 0, true, fmt.Errorf("attribute %q: invalid unsigned decimal %q", key, raw)
	}
	return n, true, nil
}

// RequiredNumQubits reads the required_num_qubits attribute.
func (a EntryPointAttrs) RequiredNumQubits() (uint64, bool, error) {
	return a.Uint(AttrRequiredNumQubits)
}

// RequiredNumResults reads the required_num_results attribute.
func (a EntryPointAttrs) RequiredNumResults() (uint64, bool, error) {
	return a.Uint(AttrRequiredNumResults)
}

// Clone returns an independent copy of the attribute set.
func (a EntryPointAttrs) Clone() EntryPointAttrs {
	if a == nil {
		return nil
	}
	out := make(EntryPointAttrs, len(a))
	for k, v := range a {
		out[k] = v
	}
	return out
}

// FlagValue is one !llvm.module.flags entry: integer-valued or
// string-valued.
type FlagValue struct {
	Int   int64
	Str   string
	IsInt bool
}

// String renders the flag value for diagnostics.
func (v FlagValue) String() string {
	if v.IsInt {
		return strconv.FormatInt(v.Int, 10)
	}
	return v.Str
}

// ModuleFlags maps flag names to values for the qir_* module flags.
type ModuleFlags map[string]FlagValue

// Int returns the integer value of name, if present and integer-valued.
func (f ModuleFlags) Int(name string) (int64, bool) {
	v, ok := f[name]
	if !ok || !v.IsInt {
		return 0, false
	}
	return v.Int, true
}

// QIRVersion returns the declared qir_major_version/qir_minor_version pair;
// ok is false when the major version is absent.
func (f ModuleFlags) QIRVersion() (major, minor int64, ok bool) {
	major, ok = f.Int(FlagQIRMajorVersion)
	if !ok {
		return 0, 0, false
	}
	minor, _ = f.Int(FlagQIRMinorVersion)
	return major, minor, true
}
