package mmapio

import "github.com/dmellum/mmapio/mmap"

// Advice is an access-pattern hint forwarded to the OS.
type Advice = mmap.Advice

const (
	// AdviceNormal resets the region to the default access pattern.
	AdviceNormal = mmap.AdviceNormal
	// AdviceRandom hints that pages will be accessed in random order.
	AdviceRandom = mmap.AdviceRandom
	// AdviceSequential hints that pages will be accessed sequentially.
	AdviceSequential = mmap.AdviceSequential
	// AdviceWillNeed hints that pages will be needed soon.
	AdviceWillNeed = mmap.AdviceWillNeed
	// AdviceDontNeed hints that pages won't be needed soon.
	AdviceDontNeed = mmap.AdviceDontNeed
)

// Advise hints the OS about the expected access pattern for
// [offset, offset+length). Hints are advisory: the OS may ignore them, and a
// rejected hint surfaces as ErrAdviceFailed without corrupting any state.
// Zero-length ranges are a no-op.
func (f *MappedFile) Advise(offset, length uint64, advice Advice) error {
	if length == 0 {
		return nil
	}
	f.mu.RLock()
	defer f.mu.RUnlock()
	if err := f.usableLocked(); err != nil {
		return err
	}
	if err := EnsureInBounds(offset, length, f.cachedLen); err != nil {
		return err
	}
	if err := f.m.Advise(int64(offset), int64(length), advice); err != nil {
		return kindError(ErrAdviceFailed, err)
	}
	return nil
}
