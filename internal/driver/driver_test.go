package driver

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const bellSrc = `
%Qubit = type opaque

declare void @__quantum__qis__h__body(%Qubit*)
declare void @__quantum__qis__zzzz__body(%Qubit*)

define void @main() #0 {
entry:
  call void @__quantum__qis__h__body(%Qubit* null)
  ret void
}

attributes #0 = { "entry_point" "required_num_qubits"="1" }

!llvm.module.flags = !{!0}

!0 = !{i32 1, !"qir_major_version", i32 1}
`

func writeProgram(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "prog.ll")
	require.NoError(t, os.WriteFile(path, []byte(bellSrc), 0o644))
	return path
}

func TestDescribe(t *testing.T) {
	info, err := Describe(writeProgram(t), nil)
	require.NoError(t, err)

	assert.Equal(t, "main", info.EntryName)
	assert.Equal(t, 1, info.Candidates)
	assert.Equal(t, "1", info.Attrs["required_num_qubits"])
	assert.Equal(t, int64(1), info.FlagInts["qir_major_version"])
	assert.Contains(t, info.Declarations, "__quantum__qis__h__body")
	assert.Equal(t, []string{"__quantum__qis__zzzz__body"}, info.Unbound)
}

func TestDescribeUsesCache(t *testing.T) {
	cache, err := OpenDiskCacheAt(filepath.Join(t.TempDir(), "cache"))
	require.NoError(t, err)
	path := writeProgram(t)

	first, err := Describe(path, cache)
	require.NoError(t, err)

	// A second description of identical content is served from cache.
	second, err := Describe(path, cache)
	require.NoError(t, err)
	assert.Equal(t, first.EntryName, second.EntryName)
	assert.Equal(t, first.ContentHash, second.ContentHash)
	assert.Equal(t, first.Unbound, second.Unbound)
}

func TestCacheRoundTrip(t *testing.T) {
	cache, err := OpenDiskCacheAt(filepath.Join(t.TempDir(), "cache"))
	require.NoError(t, err)

	key := Digest{1, 2, 3}
	in := &ModuleInfo{
		Schema:    diskCacheSchemaVersion,
		EntryName: "main",
		Attrs:     map[string]string{"entry_point": ""},
		FlagInts:  map[string]int64{"qir_major_version": 1},
	}
	require.NoError(t, cache.Put(key, in))

	var out ModuleInfo
	ok, err := cache.Get(key, &out)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, in.EntryName, out.EntryName)
	assert.Equal(t, in.FlagInts, out.FlagInts)

	ok, err = cache.Get(Digest{9}, &out)
	require.NoError(t, err)
	assert.False(t, ok, "unknown key must miss")
}
