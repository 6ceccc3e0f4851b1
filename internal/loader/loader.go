// Package loader parses a QIR program (LLVM IR) into an in-memory module
// and extracts the entry point, its attributes, and the qir_* module flags.
package loader

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"os/exec"

	"github.com/llir/llvm/asm"
	"github.com/llir/llvm/ir"

	"qirvm/internal/qir"
)

var (
	// ErrParse indicates syntactically invalid IR.
	ErrParse = errors.New("loader: malformed IR")
	// ErrNoEntryPoint indicates that no function carries the entry-point
	// marker and none is named main.
	ErrNoEntryPoint = errors.New("loader: no entry point")
	// ErrAttrInvalid indicates a recognized attribute with a value that
	// does not parse.
	ErrAttrInvalid = errors.New("loader: invalid attribute value")
)

// bitcode wrapper magic: 'B' 'C' 0xC0 0xDE.
var bitcodeMagic = []byte{0x42, 0x43, 0xC0, 0xDE}

// Module holds a parsed QIR program. It is single-owner: the executor
// consumes it via Detach, after which the module is empty.
type Module struct {
	Path string
	// Attrs is the entry point's string attribute set.
	Attrs qir.EntryPointAttrs
	// Flags holds the recognized !llvm.module.flags entries.
	Flags qir.ModuleFlags
	// EntryName is the chosen entry point's symbol name.
	EntryName string
	// Candidates counts functions that carried the entry_point attribute;
	// with more than one, the first in module order wins.
	Candidates int
	// Declarations lists the external (bodyless) functions the module
	// references, in module order.
	Declarations []string

	mod   *ir.Module
	entry *ir.Func
}

// Load reads and parses the file at path.
func Load(path string) (*Module, error) {
	src, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("loader: %w", err)
	}
	return LoadBytes(path, src)
}

// LoadBytes parses an IR module from src. Textual IR is parsed directly;
// bitcode is disassembled through llvm-dis when the tool is available.
func LoadBytes(path string, src []byte) (*Module, error) {
	if bytes.HasPrefix(src, bitcodeMagic) {
		text, err := disassemble(src)
		if err != nil {
			return nil, fmt.Errorf("%w: %s: %v", ErrParse, path, err)
		}
		src = text
	}
	mod, err := asm.ParseBytes(path, src)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrParse, err)
	}
	entry, candidates := findEntryPoint(mod)
	if entry == nil {
		return nil, fmt.Errorf("%w: %s", ErrNoEntryPoint, path)
	}
	attrs, err := entryAttrs(entry)
	if err != nil {
		return nil, err
	}
	var decls []string
	for _, f := range mod.Funcs {
		if len(f.Blocks) == 0 {
			decls = append(decls, f.Name())
		}
	}
	m := &Module{
		Path:         path,
		Attrs:        attrs,
		Flags:        moduleFlags(mod),
		EntryName:    entry.Name(),
		Candidates:   candidates,
		Declarations: decls,
		mod:          mod,
		entry:        entry,
	}
	return m, nil
}

// disassemble pipes bitcode through llvm-dis.
func disassemble(src []byte) ([]byte, error) {
	dis, err := exec.LookPath("llvm-dis")
	if err != nil {
		return nil, errors.New("bitcode input requires llvm-dis on PATH")
	}
	cmd := exec.Command(dis, "-o", "-")
	cmd.Stdin = bytes.NewReader(src)
	var out, stderr bytes.Buffer
	cmd.Stdout = &out
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		return nil, fmt.Errorf("llvm-dis: %v: %s", err, bytes.TrimSpace(stderr.Bytes()))
	}
	return out.Bytes(), nil
}

// findEntryPoint picks the first function bearing the entry_point string
// attribute, falling back to a defined function named main.
func findEntryPoint(mod *ir.Module) (*ir.Func, int) {
	var first *ir.Func
	candidates := 0
	for _, f := range mod.Funcs {
		if hasEntryAttr(f) {
			candidates++
			if first == nil {
				first = f
			}
		}
	}
	if first != nil {
		return first, candidates
	}
	for _, f := range mod.Funcs {
		if f.Name() == "main" && len(f.Blocks) > 0 {
			return f, 0
		}
	}
	return nil, 0
}

func hasEntryAttr(f *ir.Func) bool {
	_, ok := collectAttrs(f)[qir.AttrEntryPoint]
	return ok
}

// collectAttrs flattens the function's string attributes, looking through
// attribute groups.
func collectAttrs(f *ir.Func) map[string]string {
	out := make(map[string]string)
	var walk func(attrs []ir.FuncAttribute)
	walk = func(attrs []ir.FuncAttribute) {
		for _, fa := range attrs {
			switch a := fa.(type) {
			case ir.AttrString:
				out[string(a)] = ""
			case ir.AttrPair:
				out[a.Key] = a.Value
			case *ir.AttrGroupDef:
				walk(a.FuncAttrs)
			}
		}
	}
	walk(f.FuncAttrs)
	return out
}

// entryAttrs snapshots the entry point's attribute set and validates the
// integer-valued keys.
func entryAttrs(f *ir.Func) (qir.EntryPointAttrs, error) {
	attrs := qir.EntryPointAttrs(collectAttrs(f))
	for _, key := range []string{qir.AttrRequiredNumQubits, qir.AttrRequiredNumResults} {
		if _, _, err := attrs.Uint(key); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrAttrInvalid, err)
		}
	}
	return attrs, nil
}

// Detach transfers ownership of the parsed IR to the caller. The Module is
// empty afterwards and a second Detach fails.
func (m *Module) Detach() (*ir.Module, *ir.Func, error) {
	if m.mod == nil {
		return nil, nil, errors.New("loader: module already consumed")
	}
	mod, entry := m.mod, m.entry
	m.mod, m.entry = nil, nil
	return mod, entry, nil
}

// Consumed reports whether the module has been transferred to an executor.
func (m *Module) Consumed() bool { return m.mod == nil }
