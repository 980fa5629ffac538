//go:build !windows

package mmapio

// canShrinkMapped is true where the OS permits truncating a file that still
// has live mappings.
const canShrinkMapped = true
