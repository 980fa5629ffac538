package mmapio

import (
	"fmt"
	"os"
	"sync"

	"github.com/dmellum/mmapio/mmap"
)

// Mode is the access mode of a memory-mapped file.
type Mode int

const (
	// ReadOnly maps the file for reading; mutation is rejected.
	ReadOnly Mode = iota
	// ReadWrite maps the file shared for reading and writing.
	ReadWrite
	// CopyOnWrite maps the file privately. Writes are visible only within
	// this process and never reach the backing file, even on flush.
	CopyOnWrite
)

func (m Mode) String() string {
	switch m {
	case ReadOnly:
		return "read-only"
	case ReadWrite:
		return "read-write"
	case CopyOnWrite:
		return "copy-on-write"
	default:
		return fmt.Sprintf("Mode(%d)", int(m))
	}
}

// MappedFile is a memory-mapped file with bounds-checked, concurrency-safe
// region access.
//
// A MappedFile may be shared freely between goroutines. Reads take a shared
// acquisition; mutation, resize and flush take an exclusive one. The length
// recorded at map time is authoritative for all bounds checks until the next
// Resize.
//
// Callers must not call Flush, FlushRange or Resize while holding a MutRegion
// guard on the same MappedFile; doing so self-blocks. This contract is
// documented, not detected at runtime.
type MappedFile struct {
	path   string
	mode   Mode
	policy FlushPolicy

	// mu is the reader/writer exclusion over the mapping: many concurrent
	// readers or one exclusive writer. It also guards cachedLen, the flush
	// accumulators, and the failed/closed flags.
	mu   sync.RWMutex
	file *os.File
	m    *mmap.Map

	cachedLen        uint64
	bytesSinceFlush  uint64
	writesSinceFlush uint64

	failed bool // remap lost mid-resize; all operations fail until Close
	closed bool
}

// Create creates (or truncates) the file at path, sizes it to size bytes and
// maps it read-write. The flush policy defaults to manual.
func Create(path string, size uint64) (*MappedFile, error) {
	return createFile(path, size, FlushManual(), false)
}

func createFile(path string, size uint64, policy FlushPolicy, hugePages bool) (*MappedFile, error) {
	if size == 0 {
		return nil, kindError(ErrResizeFailed, fmt.Errorf("size must be greater than zero"))
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_RDWR|os.O_TRUNC, 0o644)
	if err != nil {
		return nil, opError("create", err)
	}
	if err := f.Truncate(int64(size)); err != nil {
		f.Close()
		return nil, opError("truncate", err)
	}
	m, err := mmap.New(int(f.Fd()), 0, int(size), mmap.Options{Writable: true, HugePages: hugePages})
	if err != nil {
		f.Close()
		return nil, opError("map", err)
	}
	return &MappedFile{
		path:      path,
		mode:      ReadWrite,
		policy:    policy,
		file:      f,
		m:         m,
		cachedLen: size,
	}, nil
}

// OpenRO opens an existing file and maps it read-only.
func OpenRO(path string) (*MappedFile, error) {
	return openFile(path, ReadOnly, FlushManual(), false)
}

// OpenRW opens an existing file and maps it read-write. Zero-length files are
// rejected: a zero-length mapping is not representable.
func OpenRW(path string) (*MappedFile, error) {
	return openFile(path, ReadWrite, FlushManual(), false)
}

// OpenCOW opens an existing file read-only on disk and maps it privately.
// Writes through the mapping stay local to this process.
func OpenCOW(path string) (*MappedFile, error) {
	return openFile(path, CopyOnWrite, FlushManual(), false)
}

func openFile(path string, mode Mode, policy FlushPolicy, hugePages bool) (*MappedFile, error) {
	flag := os.O_RDONLY
	if mode == ReadWrite {
		flag = os.O_RDWR
	}
	f, err := os.OpenFile(path, flag, 0)
	if err != nil {
		return nil, opError("open", err)
	}
	fi, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, opError("stat", err)
	}
	size := fi.Size()
	if size == 0 {
		f.Close()
		// A zero-length mapping is not representable on any supported
		// platform, in any mode.
		return nil, kindError(ErrResizeFailed, fmt.Errorf("cannot map zero-length file"))
	}
	m, err := mmap.New(int(f.Fd()), 0, int(size), mmap.Options{
		Writable:  mode == ReadWrite,
		Private:   mode == CopyOnWrite,
		HugePages: hugePages,
	})
	if err != nil {
		f.Close()
		return nil, opError("map", err)
	}
	return &MappedFile{
		path:      path,
		mode:      mode,
		policy:    policy,
		file:      f,
		m:         m,
		cachedLen: uint64(size),
	}, nil
}

// Path returns the path of the backing file.
func (f *MappedFile) Path() string {
	return f.path
}

// Mode returns the access mode of the mapping.
func (f *MappedFile) Mode() Mode {
	return f.mode
}

// Len returns the cached length of the mapped file in bytes.
func (f *MappedFile) Len() uint64 {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return f.cachedLen
}

// IsEmpty reports whether the mapped file has zero length.
func (f *MappedFile) IsEmpty() bool {
	return f.Len() == 0
}

// usableLocked verifies the mapping is still live. Callers hold mu.
func (f *MappedFile) usableLocked() error {
	if f.closed {
		return opError("mapping closed", nil)
	}
	if f.failed {
		return opError("mapping unusable after failed resize", nil)
	}
	return nil
}

// AsSlice returns a zero-copy read-only view of [offset, offset+length).
//
// Only read-only and copy-on-write mappings support it: those mappings never
// resize, so the returned slice stays valid for the life of the MappedFile.
// Read-write mappings are rejected in favor of ReadInto, because a long-lived
// borrow would block every writer and resize under the exclusion.
func (f *MappedFile) AsSlice(offset, length uint64) ([]byte, error) {
	f.mu.RLock()
	defer f.mu.RUnlock()
	if err := f.usableLocked(); err != nil {
		return nil, err
	}
	if err := EnsureInBounds(offset, length, f.cachedLen); err != nil {
		return nil, err
	}
	if f.mode == ReadWrite {
		return nil, &ModeError{Reason: "use ReadInto for read-write mappings"}
	}
	start, end, err := sliceRange(offset, length, f.cachedLen)
	if err != nil {
		return nil, err
	}
	return f.m.Data()[start:end], nil
}

// ReadInto copies len(buf) bytes starting at offset into buf. Valid in any
// mode; takes a shared acquisition so concurrent readers never observe a
// partial UpdateRegion.
func (f *MappedFile) ReadInto(offset uint64, buf []byte) error {
	f.mu.RLock()
	defer f.mu.RUnlock()
	if err := f.usableLocked(); err != nil {
		return err
	}
	start, end, err := sliceRange(offset, uint64(len(buf)), f.cachedLen)
	if err != nil {
		return err
	}
	copy(buf, f.m.Data()[start:end])
	return nil
}

// UpdateRegion copies data into the mapping at offset under an exclusive
// acquisition, then consults the flush policy.
//
// Requires ReadWrite mode, or CopyOnWrite where private writes stay local to
// the process and are never persisted.
func (f *MappedFile) UpdateRegion(offset uint64, data []byte) error {
	if len(data) == 0 {
		return nil
	}
	if f.mode == ReadOnly {
		return &ModeError{Reason: "cannot write to read-only mapping"}
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.usableLocked(); err != nil {
		return err
	}
	start, end, err := sliceRange(offset, uint64(len(data)), f.cachedLen)
	if err != nil {
		return err
	}
	copy(f.m.Data()[start:end], data)
	if f.mode != ReadWrite {
		// Private writes never reach disk; the flush policy has nothing
		// to account for.
		return nil
	}
	f.bytesSinceFlush += uint64(len(data))
	f.writesSinceFlush++
	if f.policy.due(f.bytesSinceFlush, f.writesSinceFlush) {
		return f.flushLocked()
	}
	return nil
}

// MutRegion is a scoped exclusive view over a byte range of a read-write
// mapping. It holds the writer side of the exclusion until Release: all other
// mutating and flushing operations block while the guard is alive.
type MutRegion struct {
	f        *MappedFile
	data     []byte
	released bool
}

// Bytes returns the mutable byte view. The slice is valid until Release.
func (r *MutRegion) Bytes() []byte {
	return r.data
}

// Release drops the exclusive acquisition. Safe to call more than once.
func (r *MutRegion) Release() {
	if r.released {
		return
	}
	r.released = true
	r.data = nil
	r.f.mu.Unlock()
}

// AsSliceMut returns an exclusive mutable view of [offset, offset+length).
// Only available in ReadWrite mode.
//
// The guard must be released before calling Flush, FlushRange or Resize on
// the same MappedFile; otherwise the caller deadlocks against itself.
func (f *MappedFile) AsSliceMut(offset, length uint64) (*MutRegion, error) {
	if f.mode != ReadWrite {
		return nil, &ModeError{Reason: "mutable access requires read-write mapping"}
	}
	f.mu.Lock()
	if err := f.usableLocked(); err != nil {
		f.mu.Unlock()
		return nil, err
	}
	start, end, err := sliceRange(offset, length, f.cachedLen)
	if err != nil {
		f.mu.Unlock()
		return nil, err
	}
	return &MutRegion{f: f, data: f.m.Data()[start:end]}, nil
}

// Flush synchronizes the mapping with the backing file and resets the flush
// accumulators. A no-op for read-only and copy-on-write mappings.
func (f *MappedFile) Flush() error {
	if f.mode != ReadWrite {
		return nil
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.usableLocked(); err != nil {
		return err
	}
	return f.flushLocked()
}

// flushLocked synchronizes and resets the accumulators. Callers hold mu.
func (f *MappedFile) flushLocked() error {
	if err := f.m.Sync(); err != nil {
		return kindError(ErrFlushFailed, err)
	}
	f.bytesSinceFlush = 0
	f.writesSinceFlush = 0
	return nil
}

// FlushRange synchronizes [offset, offset+length) with the backing file.
// Zero-length ranges are a no-op; read-only and copy-on-write mappings accept
// in-bounds ranges and do nothing.
func (f *MappedFile) FlushRange(offset, length uint64) error {
	if length == 0 {
		return nil
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.usableLocked(); err != nil {
		return err
	}
	if err := EnsureInBounds(offset, length, f.cachedLen); err != nil {
		return err
	}
	if f.mode != ReadWrite {
		return nil
	}
	if err := f.m.SyncRange(int64(offset), int64(length)); err != nil {
		return kindError(ErrFlushFailed, err)
	}
	return nil
}

// Resize grows or shrinks the mapped file. ReadWrite only; the new size must
// be non-zero. Under the exclusive acquisition the file is truncated, the
// region remapped, and the cached length republished. Outstanding segments
// remain valid because they re-check bounds on every access.
//
// If the remap itself fails the MappedFile is marked unusable and every
// subsequent operation fails until Close.
func (f *MappedFile) Resize(newSize uint64) error {
	if f.mode != ReadWrite {
		return &ModeError{Reason: "resize requires read-write mapping"}
	}
	if newSize == 0 {
		return kindError(ErrResizeFailed, fmt.Errorf("new size must be greater than zero"))
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.usableLocked(); err != nil {
		return err
	}
	if newSize == f.cachedLen {
		return nil
	}
	if !canShrinkMapped && newSize < f.cachedLen {
		// Windows refuses to truncate a file with a user-mapped section
		// open. Shrink virtually: only the cached length moves, and every
		// bounds check follows it.
		f.cachedLen = newSize
		return nil
	}
	if err := f.file.Truncate(int64(newSize)); err != nil {
		return kindError(ErrResizeFailed, err)
	}
	if err := f.m.Remap(int64(newSize)); err != nil {
		f.failed = true
		return kindError(ErrResizeFailed, err)
	}
	f.cachedLen = newSize
	return nil
}

// Close releases the mapping and then the file handle, in that order.
// Segments and views derived from this MappedFile must not be used after
// Close.
func (f *MappedFile) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.closed {
		return nil
	}
	f.closed = true
	mapErr := f.m.Close()
	fileErr := f.file.Close()
	if mapErr != nil {
		return opError("unmap", mapErr)
	}
	if fileErr != nil {
		return opError("close", fileErr)
	}
	return nil
}
