package mmapio

import (
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSegmentRead(t *testing.T) {
	path := tmpFile(t, "seg.bin")
	data := make([]byte, 512)
	copy(data[100:], "segment payload")
	require.NoError(t, os.WriteFile(path, data, 0o644))

	ro, err := OpenRO(path)
	require.NoError(t, err)
	defer ro.Close()

	seg, err := NewSegment(ro, 100, 15)
	require.NoError(t, err)
	assert.Equal(t, uint64(100), seg.Offset())
	assert.Equal(t, uint64(15), seg.Len())
	assert.False(t, seg.IsEmpty())
	assert.Same(t, ro, seg.Parent())

	got, err := seg.AsSlice()
	require.NoError(t, err)
	assert.Equal(t, []byte("segment payload"), got)

	buf := make([]byte, 7)
	require.NoError(t, seg.ReadInto(buf))
	assert.Equal(t, []byte("segment"), buf)
}

func TestSegmentBoundsAtConstruction(t *testing.T) {
	path := tmpFile(t, "segb.bin")
	require.NoError(t, os.WriteFile(path, make([]byte, 100), 0o644))

	ro, err := OpenRO(path)
	require.NoError(t, err)
	defer ro.Close()

	_, err = NewSegment(ro, 90, 20)
	require.ErrorIs(t, err, ErrOutOfBounds)

	_, err = NewSegmentMut(ro, 101, 0)
	require.ErrorIs(t, err, ErrOutOfBounds)
}

func TestSegmentMutWrite(t *testing.T) {
	path := tmpFile(t, "segw.bin")
	f, err := Create(path, 256)
	require.NoError(t, err)

	seg, err := NewSegmentMut(f, 32, 16)
	require.NoError(t, err)

	require.NoError(t, seg.Write([]byte("through segment")))
	require.NoError(t, f.Flush())
	require.NoError(t, f.Close())

	onDisk, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, []byte("through segment"), onDisk[32:47])
}

func TestSegmentMutGuard(t *testing.T) {
	f, err := Create(tmpFile(t, "segg.bin"), 128)
	require.NoError(t, err)
	defer f.Close()

	seg, err := NewSegmentMut(f, 64, 8)
	require.NoError(t, err)

	g, err := seg.AsSliceMut()
	require.NoError(t, err)
	assert.Len(t, g.Bytes(), 8)
	copy(g.Bytes(), "GUARDSEG")
	g.Release()

	buf := make([]byte, 8)
	require.NoError(t, f.ReadInto(64, buf))
	assert.Equal(t, []byte("GUARDSEG"), buf)
}

func TestSegmentMutRespectsParentMode(t *testing.T) {
	path := tmpFile(t, "segro.bin")
	require.NoError(t, os.WriteFile(path, make([]byte, 64), 0o644))

	ro, err := OpenRO(path)
	require.NoError(t, err)
	defer ro.Close()

	seg, err := NewSegmentMut(ro, 0, 8)
	require.NoError(t, err)
	require.ErrorIs(t, seg.Write([]byte("nope")), ErrInvalidMode)
}
