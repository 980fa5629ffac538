//go:build windows

package mmap

import (
	"os"
	"unsafe"

	"golang.org/x/sys/windows"
)

// protAccess computes the page protection and view access for the options.
func protAccess(opts Options) (uint32, uint32) {
	switch {
	case opts.Private:
		return windows.PAGE_WRITECOPY, windows.FILE_MAP_COPY
	case opts.Writable:
		return windows.PAGE_READWRITE, windows.FILE_MAP_WRITE
	default:
		return windows.PAGE_READONLY, windows.FILE_MAP_READ
	}
}

// New creates a new memory mapping for the given file descriptor.
func New(fd int, offset int64, length int, opts Options) (*Map, error) {
	if length <= 0 {
		return nil, ErrInvalidSize
	}

	handle := windows.Handle(fd)

	prot, access := protAccess(opts)

	maxSizeHigh := uint32(uint64(length) >> 32)
	maxSizeLow := uint32(length)

	// SEC_LARGE_PAGES requires the SeLockMemoryPrivilege and an exact
	// large-page-multiple size; retry without it on failure.
	mapping, err := windows.CreateFileMapping(handle, nil, prot|secLargePagesFlag(opts.HugePages), maxSizeHigh, maxSizeLow, nil)
	if err != nil && opts.HugePages {
		mapping, err = windows.CreateFileMapping(handle, nil, prot, maxSizeHigh, maxSizeLow, nil)
	}
	if err != nil {
		return nil, &Error{Op: "CreateFileMapping", Err: err}
	}

	// Map view of file
	offsetHigh := uint32(uint64(offset) >> 32)
	offsetLow := uint32(offset)

	addr, err := windows.MapViewOfFile(mapping, access, offsetHigh, offsetLow, uintptr(length))
	if err != nil {
		windows.CloseHandle(mapping)
		return nil, &Error{Op: "MapViewOfFile", Err: err}
	}

	return &Map{
		data:     unsafe.Slice((*byte)(unsafe.Pointer(addr)), length),
		fd:       fd,
		size:     int64(length),
		writable: opts.Writable,
		private:  opts.Private,
		handle:   uintptr(handle),
		mapping:  uintptr(mapping),
	}, nil
}

func secLargePagesFlag(huge bool) uint32 {
	if !huge {
		return 0
	}
	const SEC_LARGE_PAGES = 0x80000000
	return SEC_LARGE_PAGES
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

// Sync flushes changes to disk.
func (m *Map) Sync() error {
	if m.data == nil {
		return ErrNotMapped
	}
	return windows.FlushViewOfFile(uintptr(unsafe.Pointer(&m.data[0])), uintptr(m.size))
}

// SyncAsync flushes changes to disk asynchronously (same as sync on Windows).
func (m *Map) SyncAsync() error {
	return m.Sync()
}

// SyncRange flushes a specific range to disk.
func (m *Map) SyncRange(offset, length int64) error {
	if err := m.checkRange(offset, length); err != nil {
		return err
	}
	return windows.FlushViewOfFile(uintptr(unsafe.Pointer(&m.data[offset])), uintptr(length))
}

// Close releases the memory mapping.
func (m *Map) Close() error {
	if m.data == nil {
		return nil
	}

	addr := uintptr(unsafe.Pointer(&m.data[0]))

	if err := windows.UnmapViewOfFile(addr); err != nil {
		return &Error{Op: "UnmapViewOfFile", Err: err}
	}

	if m.mapping != 0 {
		windows.CloseHandle(windows.Handle(m.mapping))
		m.mapping = 0
	}

	m.data = nil
	m.size = 0
	return nil
}

// Remap changes the size of the mapping.
// Windows doesn't support mremap, so we always unmap and remap.
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

	// Unmap current view
	addr := uintptr(unsafe.Pointer(&m.data[0]))
	if err := windows.UnmapViewOfFile(addr); err != nil {
		return &Error{Op: "UnmapViewOfFile for remap", Err: err}
	}

	if m.mapping != 0 {
		windows.CloseHandle(windows.Handle(m.mapping))
	}

	// Create new mapping
	prot, access := protAccess(Options{Writable: m.writable, Private: m.private})

	maxSizeHigh := uint32(uint64(newSize) >> 32)
	maxSizeLow := uint32(newSize)

	mapping, err := windows.CreateFileMapping(windows.Handle(m.handle), nil, prot, maxSizeHigh, maxSizeLow, nil)
	if err != nil {
		m.data = nil
		m.size = 0
		m.mapping = 0
		return &Error{Op: "CreateFileMapping for remap", Err: err}
	}

	newAddr, err := windows.MapViewOfFile(mapping, access, 0, 0, uintptr(newSize))
	if err != nil {
		windows.CloseHandle(mapping)
		m.data = nil
		m.size = 0
		m.mapping = 0
		return &Error{Op: "MapViewOfFile for remap", Err: err}
	}

	m.data = unsafe.Slice((*byte)(unsafe.Pointer(newAddr)), newSize)
	m.size = newSize
	m.mapping = uintptr(mapping)
	return nil
}

// Lock pins the pages backing [offset, offset+length) in physical memory.
func (m *Map) Lock(offset, length int64) error {
	if err := m.checkRange(offset, length); err != nil {
		return err
	}
	return windows.VirtualLock(uintptr(unsafe.Pointer(&m.data[offset])), uintptr(length))
}

// Unlock releases previously pinned pages in [offset, offset+length).
func (m *Map) Unlock(offset, length int64) error {
	if err := m.checkRange(offset, length); err != nil {
		return err
	}
	err := windows.VirtualUnlock(uintptr(unsafe.Pointer(&m.data[offset])), uintptr(length))
	if err == windows.ERROR_NOT_LOCKED {
		// Unlocking a range that was never locked is not an error.
		return nil
	}
	return err
}

// Advise provides hints to the kernel about memory usage patterns.
// Windows has no madvise equivalent, so hints are accepted and ignored.
func (m *Map) Advise(offset, length int64, advice Advice) error {
	return m.checkRange(offset, length)
}
