package mmapio

import (
	"sync/atomic"
	"unsafe"
)

// Atomic views overlay sync/atomic cells directly on the mapping bytes.
// They bypass the reader/writer exclusion: ordering between atomic accesses
// is whatever the Go memory model grants the operations the caller performs.
//
// A view stays valid until the mapping is remapped or closed; Resize
// invalidates previously returned views.

const (
	atomicAlign32 = 4
	atomicAlign64 = 8
)

// AtomicUint64 returns an atomic view of the 8 bytes at offset. The offset
// must be 8-byte aligned and in bounds.
//
// Storing through a view of a read-only mapping faults; treat such views as
// load-only.
func (f *MappedFile) AtomicUint64(offset uint64) (*atomic.Uint64, error) {
	p, err := f.atomicPtr(offset, atomicAlign64, atomicAlign64)
	if err != nil {
		return nil, err
	}
	return (*atomic.Uint64)(p), nil
}

// AtomicUint32 returns an atomic view of the 4 bytes at offset. The offset
// must be 4-byte aligned and in bounds.
func (f *MappedFile) AtomicUint32(offset uint64) (*atomic.Uint32, error) {
	p, err := f.atomicPtr(offset, atomicAlign32, atomicAlign32)
	if err != nil {
		return nil, err
	}
	return (*atomic.Uint32)(p), nil
}

// AtomicUint64Slice returns count consecutive atomic views starting at
// offset. The offset must be 8-byte aligned and the whole run in bounds.
func (f *MappedFile) AtomicUint64Slice(offset uint64, count int) ([]atomic.Uint64, error) {
	p, err := f.atomicPtr(offset, atomicAlign64, atomicAlign64*uint64(count))
	if err != nil {
		return nil, err
	}
	return unsafe.Slice((*atomic.Uint64)(p), count), nil
}

// AtomicUint32Slice returns count consecutive atomic views starting at
// offset. The offset must be 4-byte aligned and the whole run in bounds.
func (f *MappedFile) AtomicUint32Slice(offset uint64, count int) ([]atomic.Uint32, error) {
	p, err := f.atomicPtr(offset, atomicAlign32, atomicAlign32*uint64(count))
	if err != nil {
		return nil, err
	}
	return unsafe.Slice((*atomic.Uint32)(p), count), nil
}

// atomicPtr validates alignment and bounds for size bytes at offset and
// returns the address of the first byte.
func (f *MappedFile) atomicPtr(offset, align, size uint64) (unsafe.Pointer, error) {
	if offset%align != 0 {
		return nil, &AlignmentError{Required: align, Offset: offset}
	}
	f.mu.RLock()
	defer f.mu.RUnlock()
	if err := f.usableLocked(); err != nil {
		return nil, err
	}
	if err := EnsureInBounds(offset, size, f.cachedLen); err != nil {
		return nil, err
	}
	return unsafe.Pointer(&f.m.Data()[offset]), nil
}
