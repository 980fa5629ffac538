// Package mmapio provides cross-platform memory-mapped file I/O with
// bounds-checked, concurrency-safe region access.
//
// mmapio is a building block for databases, caches, columnar stores and
// asset loaders that need zero-copy access to on-disk data. The central type
// is MappedFile; segments, chunk iterators and atomic views derive from it.
//
// Key features:
//   - Zero-copy reads and writes through the OS mapping
//   - Many concurrent readers or one exclusive writer per file
//   - Bounds re-validated against the cached length on every access
//   - Configurable flush policies (manual, always, every N bytes/writes)
//   - Access-pattern hints, page pinning, change watching, huge pages
//   - Copy-on-write mappings with process-private writes
//
// Basic usage:
//
//	f, err := mmapio.Create("data.bin", 4096)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer f.Close()
//
//	if err := f.UpdateRegion(100, []byte("Hello, mmap!")); err != nil {
//	    log.Fatal(err)
//	}
//	if err := f.Flush(); err != nil {
//	    log.Fatal(err)
//	}
//
//	ro, err := mmapio.OpenRO("data.bin")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer ro.Close()
//
//	data, err := ro.AsSlice(100, 12)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	fmt.Printf("%s\n", data)
//
// Read-write mappings hand out copies through ReadInto rather than long-lived
// read borrows, so resize and mutation are never blocked by a forgotten
// slice. Use AsSliceMut for a scoped exclusive window, and release it before
// flushing or resizing the same file.
package mmapio
