package mmapio

// Lock pins the pages backing [offset, offset+length) into physical memory
// so they cannot be swapped out. Pinning typically requires elevated
// privileges; failures surface as ErrLockFailed and leave no state behind.
// Zero-length ranges are a no-op.
func (f *MappedFile) Lock(offset, length uint64) error {
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
	if err := f.m.Lock(int64(offset), int64(length)); err != nil {
		return kindError(ErrLockFailed, err)
	}
	return nil
}

// Unlock releases pages previously pinned with Lock. Zero-length ranges are
// a no-op.
func (f *MappedFile) Unlock(offset, length uint64) error {
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
	if err := f.m.Unlock(int64(offset), int64(length)); err != nil {
		return kindError(ErrUnlockFailed, err)
	}
	return nil
}

// LockAll pins every page of the mapping.
func (f *MappedFile) LockAll() error {
	return f.Lock(0, f.Len())
}

// UnlockAll releases every page of the mapping.
func (f *MappedFile) UnlockAll() error {
	return f.Unlock(0, f.Len())
}
