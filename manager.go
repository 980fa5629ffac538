package mmapio

import (
	"os"

	natomic "github.com/natefinch/atomic"
)

// High-level convenience operations composing MappedFile with filesystem
// calls. They add no new semantics: each is a thin orchestration of the
// primitives above.

// Load opens an existing file in the requested mode.
func Load(path string, mode Mode) (*MappedFile, error) {
	switch mode {
	case ReadOnly:
		return OpenRO(path)
	case ReadWrite:
		return OpenRW(path)
	case CopyOnWrite:
		return OpenCOW(path)
	default:
		return nil, &ModeError{Reason: "unknown mode"}
	}
}

// WriteAt opens the file at path read-write, copies data into the mapping at
// offset, flushes the written range and closes the mapping again. A one-shot
// convenience for callers that do not hold a MappedFile open.
func WriteAt(path string, offset uint64, data []byte) error {
	f, err := OpenRW(path)
	if err != nil {
		return err
	}
	defer f.Close()
	if err := f.UpdateRegion(offset, data); err != nil {
		return err
	}
	return f.FlushRange(offset, uint64(len(data)))
}

// Copy duplicates the backing file at src to dst byte for byte. Mapping
// state is not copied; dst is an independent file that materializes
// atomically (written to a temporary name, then renamed into place).
func Copy(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return opError("copy open", err)
	}
	defer in.Close()
	if err := natomic.WriteFile(dst, in); err != nil {
		return opError("copy write", err)
	}
	return nil
}

// Delete removes the backing file at path. Callers must drop any live
// mapping first: on POSIX systems the data survives until the last handle
// closes, on Windows the removal fails outright.
func Delete(path string) error {
	if err := os.Remove(path); err != nil {
		return opError("delete", err)
	}
	return nil
}
