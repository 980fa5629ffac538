package mmapio

import (
	"context"
	"runtime"

	"golang.org/x/sync/semaphore"
)

// Asynchronous counterparts of the manager operations. Each runs the
// blocking filesystem work on a background goroutine bounded by a shared
// worker semaphore, so a burst of async calls cannot monopolize the
// scheduler, and returns as soon as the work or the context finishes.
//
// Cancellation is cooperative: a context that expires mid-operation makes
// the call return early with the context error while the underlying
// filesystem work runs to completion in the background. A cancelled mutation
// may therefore leave the file sized but unflushed; the MappedFile
// invariants are unaffected because the exclusion is released on every exit
// path.

var asyncWorkers = semaphore.NewWeighted(int64(runtime.GOMAXPROCS(0)))

func runAsync[T any](ctx context.Context, op func() (T, error)) (T, error) {
	var zero T
	if err := asyncWorkers.Acquire(ctx, 1); err != nil {
		return zero, opError("async", err)
	}
	type result struct {
		v   T
		err error
	}
	done := make(chan result, 1)
	go func() {
		defer asyncWorkers.Release(1)
		v, err := op()
		done <- result{v, err}
	}()
	select {
	case r := <-done:
		return r.v, r.err
	case <-ctx.Done():
		return zero, opError("async", ctx.Err())
	}
}

// CreateAsync creates and maps a new read-write file of the given size
// without blocking the caller on filesystem latency.
func CreateAsync(ctx context.Context, path string, size uint64) (*MappedFile, error) {
	return runAsync(ctx, func() (*MappedFile, error) {
		return Create(path, size)
	})
}

// CopyAsync duplicates the file at src to dst.
func CopyAsync(ctx context.Context, src, dst string) error {
	_, err := runAsync(ctx, func() (struct{}, error) {
		return struct{}{}, Copy(src, dst)
	})
	return err
}

// DeleteAsync removes the backing file at path.
func DeleteAsync(ctx context.Context, path string) error {
	_, err := runAsync(ctx, func() (struct{}, error) {
		return struct{}{}, Delete(path)
	})
	return err
}

// UpdateRegionAsync copies data into the mapping at offset and flushes
// before returning, regardless of the mapping's flush policy. A completed
// call guarantees that a fresh read-only open observes the written bytes.
func UpdateRegionAsync(ctx context.Context, f *MappedFile, offset uint64, data []byte) error {
	_, err := runAsync(ctx, func() (struct{}, error) {
		if err := f.UpdateRegion(offset, data); err != nil {
			return struct{}{}, err
		}
		return struct{}{}, f.Flush()
	})
	return err
}

// FlushAsync synchronizes the mapping with the backing file.
func FlushAsync(ctx context.Context, f *MappedFile) error {
	_, err := runAsync(ctx, func() (struct{}, error) {
		return struct{}{}, f.Flush()
	})
	return err
}
