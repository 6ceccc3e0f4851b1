package memory

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"qirvm/internal/qir"
)

func TestArrayCreateAndIndex(t *testing.T) {
	m := NewManager()

	a := m.ArrayCreate1D(4, 3)
	size, err := m.ArraySize(a)
	require.NoError(t, err)
	assert.Equal(t, uint64(3), size)

	elemSize, err := m.ArrayElemSize(a)
	require.NoError(t, err)
	assert.Equal(t, uint32(4), elemSize)

	// Element pointers are pure displacement from the payload handle.
	for i := uint64(0); i < 3; i++ {
		p, err := m.ArrayElementPtr(a, i)
		require.NoError(t, err)
		assert.Equal(t, qir.Pointer(uint64(a)+4*i), p)
	}

	// Payload is zeroed and element-addressable.
	p, err := m.ArrayElementPtr(a, 2)
	require.NoError(t, err)
	v, err := m.ReadUint(p, 4)
	require.NoError(t, err)
	assert.Zero(t, v)
	require.NoError(t, m.WriteUint(p, 4, 0xdeadbeef))
	v, err = m.ReadUint(p, 4)
	require.NoError(t, err)
	assert.Equal(t, uint64(0xdeadbeef), v)
}

func TestArrayRefcountCycle(t *testing.T) {
	m := NewManager()

	a := m.ArrayCreate1D(4, 3)
	require.NoError(t, m.ArrayUpdateRefCount(a, 1))
	require.NoError(t, m.ArrayUpdateRefCount(a, -1))
	require.Equal(t, uint64(1), m.Live(), "allocation stays live until the last drop")

	require.NoError(t, m.ArrayUpdateRefCount(a, -1))
	assert.Equal(t, uint64(0), m.Live())

	// Any access after the final drop is a use-after-free.
	_, err := m.ArraySize(a)
	assert.ErrorIs(t, err, ErrUseAfterFree)
	assert.ErrorIs(t, m.ArrayUpdateRefCount(a, 1), ErrUseAfterFree)
}

func TestArrayBulkDrop(t *testing.T) {
	m := NewManager()

	a := m.ArrayCreate1D(8, 2)
	require.NoError(t, m.ArrayUpdateRefCount(a, 4))
	require.NoError(t, m.ArrayUpdateRefCount(a, -5))
	assert.Equal(t, uint64(0), m.Live())
}

func TestTupleLifecycle(t *testing.T) {
	m := NewManager()

	tup := m.TupleCreate(16)
	require.NoError(t, m.WriteUint(qir.Pointer(tup), 8, 0x1122334455667788))
	require.NoError(t, m.WriteUint(qir.Pointer(uint64(tup)+8), 8, 42))

	v, err := m.ReadUint(qir.Pointer(tup), 8)
	require.NoError(t, err)
	assert.Equal(t, uint64(0x1122334455667788), v)

	require.NoError(t, m.TupleUpdateRefCount(tup, -1))
	assert.Equal(t, uint64(0), m.Live())
	assert.ErrorIs(t, m.TupleUpdateRefCount(tup, -1), ErrUseAfterFree)
}

func TestCString(t *testing.T) {
	m := NewManager()

	p := m.Alloc(4)
	buf, err := m.Bytes(p, 4)
	require.NoError(t, err)
	copy(buf, "ret\x00")

	s, err := m.CString(p)
	require.NoError(t, err)
	assert.True(t, s.Valid)
	assert.Equal(t, "ret", s.Value)

	// Null pointer decodes to the absent tag.
	s, err = m.CString(0)
	require.NoError(t, err)
	assert.False(t, s.Valid)
}

func TestInteriorResolution(t *testing.T) {
	m := NewManager()

	first := m.Alloc(32)
	second := m.Alloc(32)

	// Interior addresses resolve into their own block.
	require.NoError(t, m.WriteUint(qir.Pointer(uint64(second)+8), 8, 7))
	v, err := m.ReadUint(qir.Pointer(uint64(second)+8), 8)
	require.NoError(t, err)
	assert.Equal(t, uint64(7), v)

	// Reads past the end of a block do not bleed into the next one.
	_, err = m.ReadUint(qir.Pointer(uint64(first)+30), 8)
	assert.Error(t, err)

	// Addresses below the heap base resolve to nothing.
	_, err = m.ReadUint(qir.Pointer(1), 1)
	assert.ErrorIs(t, err, ErrBadAddress)
}

func TestDoubleFree(t *testing.T) {
	m := NewManager()
	p := m.Alloc(8)
	require.NoError(t, m.Free(p))
	assert.ErrorIs(t, m.Free(p), ErrDoubleFree)
}
