//go:build windows

package mmapio

// canShrinkMapped is false on Windows: truncating a file with an active
// user-mapped section fails, so shrinking only moves the cached length.
const canShrinkMapped = false
