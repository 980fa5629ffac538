//go:build darwin

package mmap

import "errors"

// hugePageFlags returns 0: superpages on macOS are requested through
// mach VM flags, not mmap flags, so the request falls back to normal pages.
func hugePageFlags() int {
	return 0
}

// tryMremap is not available on macOS, always returns error to trigger fallback.
func (m *Map) tryMremap(newSize int) ([]byte, error) {
	return nil, errors.New("mremap not available on darwin")
}
