package mmapio

// Builder configures and constructs a MappedFile. It puts the two entry
// points, creating a new sized file and opening an existing one, behind a
// single fluent surface:
//
//	f, err := mmapio.NewBuilder("data.bin").
//		Size(1 << 20).
//		FlushPolicy(mmapio.FlushEveryBytes(64 << 10)).
//		Open()
//
// Defaults: opening maps read-only, creating maps read-write, the flush
// policy is manual, and huge pages are off.
type Builder struct {
	path      string
	mode      Mode
	modeSet   bool
	size      uint64
	policy    FlushPolicy
	hugePages bool
}

// NewBuilder starts a builder for the file at path.
func NewBuilder(path string) *Builder {
	return &Builder{path: path}
}

// Mode sets the access mode for opening an existing file.
func (b *Builder) Mode(m Mode) *Builder {
	b.mode = m
	b.modeSet = true
	return b
}

// Size requests creation: the file is created (or truncated) to n bytes and
// mapped read-write.
func (b *Builder) Size(n uint64) *Builder {
	b.size = n
	return b
}

// FlushPolicy sets the persistence policy consulted after each mutation.
func (b *Builder) FlushPolicy(p FlushPolicy) *Builder {
	b.policy = p
	return b
}

// HugePages requests large-page backing for the mapping. If the system
// rejects the request the mapping silently falls back to normal pages.
func (b *Builder) HugePages(on bool) *Builder {
	b.hugePages = on
	return b
}

// Open constructs the MappedFile. With a size set it creates and maps a new
// read-write file; otherwise it opens the existing file in the configured
// mode (read-only by default).
func (b *Builder) Open() (*MappedFile, error) {
	if b.size > 0 {
		if b.modeSet && b.mode != ReadWrite {
			return nil, &ModeError{Reason: "creation always maps read-write"}
		}
		return createFile(b.path, b.size, b.policy, b.hugePages)
	}
	mode := ReadOnly
	if b.modeSet {
		mode = b.mode
	}
	return openFile(b.path, mode, b.policy, b.hugePages)
}
