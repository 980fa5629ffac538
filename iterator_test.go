package mmapio

import (
	"bytes"
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestChunkIterator(t *testing.T) {
	f, err := Create(tmpFile(t, "chunks.bin"), 10240)
	require.NoError(t, err)
	defer f.Close()

	for i := 0; i < 10; i++ {
		require.NoError(t, f.UpdateRegion(uint64(i)*1024, bytes.Repeat([]byte{byte(i)}, 1024)))
	}

	it := f.Chunks(1024)
	assert.Equal(t, 10, it.Remaining())

	var sizes []int
	i := 0
	for it.Next() {
		assert.Equal(t, uint64(i)*1024, it.Offset())
		assert.True(t, bytes.Equal(it.Bytes(), bytes.Repeat([]byte{byte(i)}, 1024)))
		sizes = append(sizes, len(it.Bytes()))
		i++
	}
	require.NoError(t, it.Err())
	assert.Equal(t, 10, i)

	// Non-aligned chunk size: 3000, 3000, 3000, 1240
	it = f.Chunks(3000)
	assert.Equal(t, 4, it.Remaining())
	sizes = sizes[:0]
	for it.Next() {
		sizes = append(sizes, len(it.Bytes()))
	}
	require.NoError(t, it.Err())
	if diff := cmp.Diff([]int{3000, 3000, 3000, 1240}, sizes); diff != "" {
		t.Errorf("chunk sizes mismatch (-want +got):\n%s", diff)
	}
}

func TestPageIterator(t *testing.T) {
	ps := uint64(PageSize())
	f, err := Create(tmpFile(t, "pages.bin"), 3*ps+100)
	require.NoError(t, err)
	defer f.Close()

	var sizes []uint64
	it := f.Pages()
	for it.Next() {
		sizes = append(sizes, uint64(len(it.Bytes())))
	}
	require.NoError(t, it.Err())
	assert.Equal(t, []uint64{ps, ps, ps, 100}, sizes)
}

func TestChunkIteratorSinglePass(t *testing.T) {
	f, err := Create(tmpFile(t, "single.bin"), 100)
	require.NoError(t, err)
	defer f.Close()

	it := f.Chunks(1024)
	require.True(t, it.Next())
	assert.Len(t, it.Bytes(), 100)
	require.False(t, it.Next())
	require.False(t, it.Next())
	require.NoError(t, it.Err())
	assert.Zero(t, it.Remaining())
}

func TestChunksMutForEach(t *testing.T) {
	f, err := Create(tmpFile(t, "mutchunks.bin"), 4096)
	require.NoError(t, err)
	defer f.Close()

	err = f.ChunksMut(1024).ForEach(func(offset uint64, chunk []byte) error {
		v := byte(offset / 1024)
		for i := range chunk {
			chunk[i] = v
		}
		return nil
	})
	require.NoError(t, err)
	require.NoError(t, f.Flush())

	buf := make([]byte, 1024)
	for i := 0; i < 4; i++ {
		require.NoError(t, f.ReadInto(uint64(i)*1024, buf))
		assert.True(t, bytes.Equal(buf, bytes.Repeat([]byte{byte(i)}, 1024)), "chunk %d", i)
	}
}

func TestChunksMutStopsOnError(t *testing.T) {
	f, err := Create(tmpFile(t, "muterr.bin"), 4096)
	require.NoError(t, err)
	defer f.Close()

	boom := errors.New("boom")
	visited := 0
	err = f.ChunksMut(1024).ForEach(func(offset uint64, chunk []byte) error {
		visited++
		if offset >= 1024 {
			return boom
		}
		return nil
	})
	require.ErrorIs(t, err, boom)
	assert.Equal(t, 2, visited)
}

func TestChunksMutInvalidMode(t *testing.T) {
	path := tmpFile(t, "mutro.bin")
	f, err := Create(path, 64)
	require.NoError(t, err)
	require.NoError(t, f.Close())

	ro, err := OpenRO(path)
	require.NoError(t, err)
	defer ro.Close()

	err = ro.ChunksMut(16).ForEach(func(uint64, []byte) error { return nil })
	require.ErrorIs(t, err, ErrInvalidMode)
}
