package mmapio

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/sync/errgroup"
)

func TestLoadModes(t *testing.T) {
	path := tmpFile(t, "load.bin")
	f, err := Create(path, 128)
	require.NoError(t, err)
	require.NoError(t, f.UpdateRegion(0, []byte("managed")))
	require.NoError(t, f.Flush())
	require.NoError(t, f.Close())

	for _, mode := range []Mode{ReadOnly, ReadWrite, CopyOnWrite} {
		m, err := Load(path, mode)
		require.NoError(t, err, mode)
		assert.Equal(t, mode, m.Mode())
		buf := make([]byte, 7)
		require.NoError(t, m.ReadInto(0, buf))
		assert.Equal(t, []byte("managed"), buf)
		require.NoError(t, m.Close())
	}

	_, err = Load(path, Mode(42))
	require.ErrorIs(t, err, ErrInvalidMode)
}

func TestWriteAt(t *testing.T) {
	path := tmpFile(t, "writeat.bin")
	f, err := Create(path, 256)
	require.NoError(t, err)
	require.NoError(t, f.Close())

	require.NoError(t, WriteAt(path, 10, []byte("one-shot")))

	onDisk, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, []byte("one-shot"), onDisk[10:18])

	// Out of bounds propagates
	require.ErrorIs(t, WriteAt(path, 250, []byte("too much")), ErrOutOfBounds)
}

func TestCopy(t *testing.T) {
	src := tmpFile(t, "src.bin")
	dst := tmpFile(t, "dst.bin")

	f, err := Create(src, 512)
	require.NoError(t, err)
	require.NoError(t, f.UpdateRegion(0, []byte("copied contents")))
	require.NoError(t, f.Flush())
	require.NoError(t, f.Close())

	require.NoError(t, Copy(src, dst))

	a, err := os.ReadFile(src)
	require.NoError(t, err)
	b, err := os.ReadFile(dst)
	require.NoError(t, err)
	assert.Equal(t, a, b)

	// Copying a missing source fails with an I/O error
	var e *Error
	require.ErrorAs(t, Copy(tmpFile(t, "missing.bin"), dst), &e)
}

func TestDelete(t *testing.T) {
	path := tmpFile(t, "del.bin")
	f, err := Create(path, 64)
	require.NoError(t, err)
	require.NoError(t, f.Close())

	require.NoError(t, Delete(path))
	_, err = os.Stat(path)
	require.True(t, os.IsNotExist(err))

	var e *Error
	require.ErrorAs(t, Delete(path), &e)
}

func TestCreateAsync(t *testing.T) {
	path := tmpFile(t, "async.bin")
	f, err := CreateAsync(context.Background(), path, 4096)
	require.NoError(t, err)
	assert.Equal(t, uint64(4096), f.Len())
	require.NoError(t, f.Close())
}

func TestUpdateRegionAsyncDurability(t *testing.T) {
	path := tmpFile(t, "asyncdur.bin")
	f, err := Create(path, 1024)
	require.NoError(t, err)

	// A completed async mutation must be visible to a fresh read-only open
	// with no explicit flush in between.
	require.NoError(t, UpdateRegionAsync(context.Background(), f, 64, []byte("durable")))
	require.NoError(t, f.Close())

	ro, err := OpenRO(path)
	require.NoError(t, err)
	defer ro.Close()
	got, err := ro.AsSlice(64, 7)
	require.NoError(t, err)
	assert.Equal(t, []byte("durable"), got)
}

func TestCopyDeleteAsync(t *testing.T) {
	ctx := context.Background()
	src := tmpFile(t, "asrc.bin")
	dst := tmpFile(t, "adst.bin")

	f, err := Create(src, 256)
	require.NoError(t, err)
	require.NoError(t, f.UpdateRegion(0, []byte("async copy")))
	require.NoError(t, f.Flush())
	require.NoError(t, f.Close())

	require.NoError(t, CopyAsync(ctx, src, dst))
	b, err := os.ReadFile(dst)
	require.NoError(t, err)
	assert.Equal(t, []byte("async copy"), b[:10])

	require.NoError(t, DeleteAsync(ctx, dst))
	_, err = os.Stat(dst)
	require.True(t, os.IsNotExist(err))
}

func TestFlushAsync(t *testing.T) {
	path := tmpFile(t, "aflush.bin")
	f, err := Create(path, 128)
	require.NoError(t, err)
	defer f.Close()

	require.NoError(t, f.UpdateRegion(0, []byte("flush me")))
	require.NoError(t, FlushAsync(context.Background(), f))
	assert.Zero(t, f.bytesSinceFlush)
}

func TestAsyncCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := CreateAsync(ctx, tmpFile(t, "cancelled.bin"), 64)
	require.ErrorIs(t, err, context.Canceled)
}

func TestAsyncConcurrentMutations(t *testing.T) {
	path := tmpFile(t, "aconc.bin")
	f, err := Create(path, 64*16)
	require.NoError(t, err)

	g, ctx := errgroup.WithContext(context.Background())
	for i := 0; i < 16; i++ {
		off := uint64(i) * 64
		g.Go(func() error {
			return UpdateRegionAsync(ctx, f, off, []byte("slot"))
		})
	}
	require.NoError(t, g.Wait())
	require.NoError(t, f.Close())

	ro, err := OpenRO(path)
	require.NoError(t, err)
	defer ro.Close()
	for i := 0; i < 16; i++ {
		got, err := ro.AsSlice(uint64(i)*64, 4)
		require.NoError(t, err)
		assert.Equal(t, []byte("slot"), got)
	}
}

func TestAsyncRespectsDeadline(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), time.Nanosecond)
	defer cancel()
	time.Sleep(time.Millisecond)

	err := DeleteAsync(ctx, tmpFile(t, "deadline.bin"))
	require.ErrorIs(t, err, context.DeadlineExceeded)
}
