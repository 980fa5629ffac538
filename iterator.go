package mmapio

// ChunkIterator walks a mapped file in fixed-size fragments, the last of
// which may be shorter. It is finite, single-pass and non-restartable, and
// follows the scanner idiom:
//
//	it := f.Chunks(4096)
//	for it.Next() {
//		process(it.Offset(), it.Bytes())
//	}
//	if err := it.Err(); err != nil {
//		return err
//	}
//
// Each fragment is copied out through ReadInto under a shared acquisition, so
// iteration works in every mode and never observes a torn write. The slice
// returned by Bytes is reused between calls to Next.
type ChunkIterator struct {
	f         *MappedFile
	chunkSize uint64
	offset    uint64 // offset of the fragment in buf
	next      uint64 // offset of the next fragment to read
	total     uint64
	buf       []byte
	err       error
}

// Chunks returns an iterator over chunkSize-byte fragments of the file. The
// total length is captured once at creation; a concurrent shrinking resize
// surfaces as an out-of-bounds error from Err.
func (f *MappedFile) Chunks(chunkSize uint64) *ChunkIterator {
	if chunkSize == 0 {
		chunkSize = uint64(PageSize())
	}
	return &ChunkIterator{
		f:         f,
		chunkSize: chunkSize,
		total:     f.Len(),
		buf:       make([]byte, 0, chunkSize),
	}
}

// Pages returns an iterator over page-size fragments of the file.
func (f *MappedFile) Pages() *ChunkIterator {
	return f.Chunks(uint64(PageSize()))
}

// Next advances to the next fragment. It returns false when the file is
// exhausted or an error occurred; check Err after the loop.
func (it *ChunkIterator) Next() bool {
	if it.err != nil || it.next >= it.total {
		return false
	}
	n := it.total - it.next
	if n > it.chunkSize {
		n = it.chunkSize
	}
	it.buf = it.buf[:n]
	if err := it.f.ReadInto(it.next, it.buf); err != nil {
		it.err = err
		return false
	}
	it.offset = it.next
	it.next += n
	return true
}

// Bytes returns the current fragment. Valid until the next call to Next.
func (it *ChunkIterator) Bytes() []byte {
	return it.buf
}

// Offset returns the file offset of the current fragment.
func (it *ChunkIterator) Offset() uint64 {
	return it.offset
}

// Err returns the first error encountered during iteration.
func (it *ChunkIterator) Err() error {
	return it.err
}

// Remaining returns the number of fragments left to emit.
func (it *ChunkIterator) Remaining() int {
	if it.err != nil || it.next >= it.total {
		return 0
	}
	left := it.total - it.next
	return int((left + it.chunkSize - 1) / it.chunkSize)
}

// ChunkIteratorMut applies a caller-supplied function to successive mutable
// fragments of a read-write mapping.
type ChunkIteratorMut struct {
	f         *MappedFile
	chunkSize uint64
}

// ChunksMut returns a mutable chunk iterator. Only meaningful for read-write
// mappings; the mode is enforced when a fragment guard is taken.
func (f *MappedFile) ChunksMut(chunkSize uint64) *ChunkIteratorMut {
	if chunkSize == 0 {
		chunkSize = uint64(PageSize())
	}
	return &ChunkIteratorMut{f: f, chunkSize: chunkSize}
}

// ForEach invokes fn for each fragment in order, passing the fragment's file
// offset and a mutable view of its bytes. Each fragment is visited under its
// own exclusive acquisition, so readers may interleave between fragments but
// never observe a half-applied one. Iteration stops at the first error.
func (it *ChunkIteratorMut) ForEach(fn func(offset uint64, chunk []byte) error) error {
	total := it.f.Len()
	for off := uint64(0); off < total; {
		n := total - off
		if n > it.chunkSize {
			n = it.chunkSize
		}
		g, err := it.f.AsSliceMut(off, n)
		if err != nil {
			return err
		}
		err = fn(off, g.Bytes())
		g.Release()
		if err != nil {
			return err
		}
		off += n
	}
	return nil
}
