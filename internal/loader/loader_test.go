package loader

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"qirvm/internal/qir"
)

func load(t *testing.T, name string) *Module {
	t.Helper()
	mod, err := Load(filepath.Join("testdata", name))
	require.NoError(t, err)
	return mod
}

func TestLoadBell(t *testing.T) {
	mod := load(t, "bell.ll")

	assert.Equal(t, "main", mod.EntryName)
	assert.Equal(t, 1, mod.Candidates)

	n, ok, err := mod.Attrs.RequiredNumQubits()
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, uint64(2), n)

	n, ok, err = mod.Attrs.RequiredNumResults()
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, uint64(2), n)

	schema, ok := mod.Attrs.Lookup(qir.AttrOutputLabelingSchema)
	require.True(t, ok)
	assert.Equal(t, "schema_id", schema)

	major, minor, ok := mod.Flags.QIRVersion()
	require.True(t, ok)
	assert.Equal(t, int64(1), major)
	assert.Equal(t, int64(0), minor)

	dyn, ok := mod.Flags.Int(qir.FlagDynamicQubitManagement)
	require.True(t, ok)
	assert.Equal(t, int64(0), dyn)

	assert.Contains(t, mod.Declarations, "__quantum__qis__h__body")
	assert.Contains(t, mod.Declarations, "__quantum__rt__result_record_output")
}

func TestLoadNoEntryPoint(t *testing.T) {
	_, err := Load(filepath.Join("testdata", "noentry.ll"))
	assert.ErrorIs(t, err, ErrNoEntryPoint)
}

func TestLoadMainFallback(t *testing.T) {
	mod := load(t, "fallback.ll")
	assert.Equal(t, "main", mod.EntryName)
	assert.Equal(t, 0, mod.Candidates)
}

func TestLoadMultipleCandidates(t *testing.T) {
	mod := load(t, "multi.ll")
	assert.Equal(t, "first", mod.EntryName, "first candidate in module order wins")
	assert.Equal(t, 2, mod.Candidates)
}

func TestLoadBadAttr(t *testing.T) {
	_, err := Load(filepath.Join("testdata", "badattr.ll"))
	assert.ErrorIs(t, err, ErrAttrInvalid)
}

func TestLoadParseError(t *testing.T) {
	_, err := LoadBytes("broken.ll", []byte("define nonsense {"))
	assert.ErrorIs(t, err, ErrParse)
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join("testdata", "does-not-exist.ll"))
	assert.Error(t, err)
}

func TestDetachConsumes(t *testing.T) {
	mod := load(t, "bell.ll")
	require.False(t, mod.Consumed())

	irMod, entry, err := mod.Detach()
	require.NoError(t, err)
	assert.NotNil(t, irMod)
	assert.NotNil(t, entry)
	assert.True(t, mod.Consumed())

	_, _, err = mod.Detach()
	assert.Error(t, err, "second detach must fail")
}
