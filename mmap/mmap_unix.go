//go:build unix

package mmap

import (
	"os"

	"golang.org/x/sys/unix"
)

// New creates a new memory mapping for the given file descriptor.
// The offset must be page-aligned.
func New(fd int, offset int64, length int, opts Options) (*Map, error) {
	if length <= 0 {
		return nil, ErrInvalidSize
	}

	prot := unix.PROT_READ
	if opts.Writable || opts.Private {
		prot |= unix.PROT_WRITE
	}

	flags := unix.MAP_SHARED
	if opts.Private {
		flags = unix.MAP_PRIVATE
	}

	data, err := mapWithFallback(fd, offset, length, prot, flags, opts.HugePages)
	if err != nil {
		return nil, &Error{Op: "mmap", Err: err}
	}

	return &Map{
		data:     data,
		fd:       fd,
		size:     int64(length),
		writable: opts.Writable,
		private:  opts.Private,
	}, nil
}

// mapWithFallback maps the region, retrying without the huge-page flag when
// the kernel rejects large-page backing (no hugetlbfs pool, bad alignment).
func mapWithFallback(fd int, offset int64, length, prot, flags int, huge bool) ([]byte, error) {
	if huge {
		if hf := hugePageFlags(); hf != 0 {
			data, err := unix.Mmap(fd, offset, length, prot, flags|hf)
			if err == nil {
				return data, nil
			}
		}
	}
	return unix.Mmap(fd, offset, length, prot, flags)
}

// MapFile opens a file and creates a memory mapping.
func MapFile(path string, opts Options) (*Map, error) {
	flag := os.O_RDONLY
	if opts.Writable {
		flag = os.O_RDWR
	}

	f, err := os.OpenFile(path, flag, 0)
	if err != nil {
		return nil, err
	}

	fi, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, err
	}

	size := fi.Size()
	if size == 0 {
		f.Close()
		return nil, ErrEmptyFile
	}

	m, err := New(int(f.Fd()), 0, int(size), opts)
	if err != nil {
		f.Close()
		return nil, err
	}

	return m, nil
}

// Sync flushes changes to disk synchronously.
func (m *Map) Sync() error {
	if m.data == nil {
		return ErrNotMapped
	}
	return unix.Msync(m.data, unix.MS_SYNC)
}

// SyncAsync flushes changes to disk asynchronously.
func (m *Map) SyncAsync() error {
	if m.data == nil {
		return ErrNotMapped
	}
	return unix.Msync(m.data, unix.MS_ASYNC)
}

// SyncRange flushes a specific range to disk.
// The range is widened to page boundaries as msync requires an aligned base.
func (m *Map) SyncRange(offset, length int64) error {
	if err := m.checkRange(offset, length); err != nil {
		return err
	}
	start, end := alignRange(offset, length, m.size)
	return unix.Msync(m.data[start:end], unix.MS_SYNC)
}

// Close releases the memory mapping.
func (m *Map) Close() error {
	if m.data == nil {
		return nil
	}

	err := unix.Munmap(m.data)
	m.data = nil
	m.size = 0
	return err
}

// Remap changes the size of the mapping.
// Uses mremap where available, otherwise unmaps and maps again.
func (m *Map) Remap(newSize int64) error {
	if m.data == nil {
		return ErrNotMapped
	}

	if newSize <= 0 {
		return ErrInvalidSize
	}

	if newSize == m.size {
		return nil
	}

	// Try mremap on Linux
	newData, err := m.tryMremap(int(newSize))
	if err == nil {
		m.data = newData
		m.size = newSize
		return nil
	}

	// Fallback: unmap and remap
	prot := unix.PROT_READ
	if m.writable || m.private {
		prot |= unix.PROT_WRITE
	}
	flags := unix.MAP_SHARED
	if m.private {
		flags = unix.MAP_PRIVATE
	}

	if err := unix.Munmap(m.data); err != nil {
		return &Error{Op: "munmap for remap", Err: err}
	}

	newData, err = unix.Mmap(m.fd, 0, int(newSize), prot, flags)
	if err != nil {
		m.data = nil
		m.size = 0
		return &Error{Op: "mmap for remap", Err: err}
	}

	m.data = newData
	m.size = newSize
	return nil
}

// Lock pins the pages backing [offset, offset+length) in physical memory.
func (m *Map) Lock(offset, length int64) error {
	if err := m.checkRange(offset, length); err != nil {
		return err
	}
	return unix.Mlock(m.data[offset : offset+length])
}

// Unlock releases previously pinned pages in [offset, offset+length).
func (m *Map) Unlock(offset, length int64) error {
	if err := m.checkRange(offset, length); err != nil {
		return err
	}
	return unix.Munlock(m.data[offset : offset+length])
}

// Advise provides a hint to the kernel about the expected access pattern for
// [offset, offset+length). The range is widened to page boundaries because
// madvise requires a page-aligned base address.
func (m *Map) Advise(offset, length int64, advice Advice) error {
	if err := m.checkRange(offset, length); err != nil {
		return err
	}

	var flag int
	switch advice {
	case AdviceRandom:
		flag = unix.MADV_RANDOM
	case AdviceSequential:
		flag = unix.MADV_SEQUENTIAL
	case AdviceWillNeed:
		flag = unix.MADV_WILLNEED
	case AdviceDontNeed:
		flag = unix.MADV_DONTNEED
	default:
		flag = unix.MADV_NORMAL
	}

	start, end := alignRange(offset, length, m.size)
	return unix.Madvise(m.data[start:end], flag)
}

// alignRange widens [offset, offset+length) so the start falls on a page
// boundary, clamping the end to the mapped size.
func alignRange(offset, length, size int64) (int64, int64) {
	page := int64(os.Getpagesize())
	start := offset &^ (page - 1)
	end := offset + length
	if end > size {
		end = size
	}
	return start, end
}
