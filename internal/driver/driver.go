// Package driver ties loading together for the CLI: it parses modules,
// snapshots their metadata, and keeps a content-addressed disk cache so
// repeated inspection of unchanged programs skips the parse.
package driver

import (
	"crypto/sha256"
	"os"

	"qirvm/internal/binder"
	"qirvm/internal/loader"
)

// Digest is a SHA-256 content hash.
type Digest [sha256.Size]byte

// ModuleInfo is the cacheable metadata snapshot of a QIR program.
type ModuleInfo struct {
	Schema     uint16
	Path       string
	EntryName  string
	Candidates int
	Attrs      map[string]string
	FlagInts   map[string]int64
	FlagStrs   map[string]string
	// Quantum declarations referenced by the module, and the subset the
	// trampoline table cannot serve.
	Declarations []string
	Unbound      []string
	ContentHash  Digest
}

// Load parses the program at path for execution. Runs never go through the
// cache; only metadata does.
func Load(path string) (*loader.Module, error) {
	return loader.Load(path)
}

// Describe returns the metadata snapshot for path, consulting cache when
// non-nil. Cache failures fall back to a fresh parse.
func Describe(path string, cache *DiskCache) (*ModuleInfo, error) {
	src, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	key := Digest(sha256.Sum256(src))

	if cache != nil {
		var info ModuleInfo
		if ok, err := cache.Get(key, &info); err == nil && ok && info.Schema == diskCacheSchemaVersion {
			info.Path = path
			return &info, nil
		}
	}

	mod, err := loader.LoadBytes(path, src)
	if err != nil {
		return nil, err
	}
	info := snapshot(mod, key)
	if cache != nil {
		// Best effort; a full or read-only cache dir never fails the
		// inspection.
		_ = cache.Put(key, info)
	}
	return info, nil
}

func snapshot(mod *loader.Module, key Digest) *ModuleInfo {
	info := &ModuleInfo{
		Schema:       diskCacheSchemaVersion,
		Path:         mod.Path,
		EntryName:    mod.EntryName,
		Candidates:   mod.Candidates,
		Attrs:        map[string]string(mod.Attrs),
		FlagInts:     make(map[string]int64),
		FlagStrs:     make(map[string]string),
		Declarations: mod.Declarations,
		ContentHash:  key,
	}
	for name, v := range mod.Flags {
		if v.IsInt {
			info.FlagInts[name] = v.Int
		} else {
			info.FlagStrs[name] = v.Str
		}
	}
	for _, name := range mod.Declarations {
		if !binder.IsQuantumSymbol(name) {
			continue
		}
		if _, ok := binder.Lookup(name); !ok {
			info.Unbound = append(info.Unbound, name)
		}
	}
	return info
}
