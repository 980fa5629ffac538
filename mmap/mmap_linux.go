//go:build linux

package mmap

import (
	"golang.org/x/sys/unix"
)

// hugePageFlags returns the mmap flag requesting large-page backing.
func hugePageFlags() int {
	return unix.MAP_HUGETLB
}

// tryMremap attempts to use Linux mremap syscall for efficient remapping.
// It goes through unix.Mremap so the new region stays registered with the
// bookkeeping that unix.Munmap consults in Close.
func (m *Map) tryMremap(newSize int) ([]byte, error) {
	const MREMAP_MAYMOVE = 1

	return unix.Mremap(m.data, newSize, MREMAP_MAYMOVE)
}
