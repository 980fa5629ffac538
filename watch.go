package mmapio

import (
	"os"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

// watchPollInterval is the stat cadence of the polling fallback.
const watchPollInterval = 100 * time.Millisecond

// ChangeKind is the type of change detected on a watched file.
type ChangeKind int

const (
	// ChangeModified means file content was modified.
	ChangeModified ChangeKind = iota
	// ChangeMetadata means permissions or timestamps changed.
	ChangeMetadata
	// ChangeRemoved means the file was removed.
	ChangeRemoved
)

func (k ChangeKind) String() string {
	switch k {
	case ChangeModified:
		return "modified"
	case ChangeMetadata:
		return "metadata"
	case ChangeRemoved:
		return "removed"
	default:
		return "unknown"
	}
}

// ChangeEvent describes a change to a watched mapped file. Offset and Len are
// meaningful only when HasRange is set; no current platform watcher reports
// byte ranges, so events usually carry just a kind.
type ChangeEvent struct {
	Offset   uint64
	Len      uint64
	HasRange bool
	Kind     ChangeKind
}

// WatchHandle controls a running watch. Closing it stops event delivery.
type WatchHandle struct {
	stop    func()
	done    chan struct{}
	once    sync.Once
	polling bool
}

// Close stops the watch and waits for the delivery goroutine to exit. Safe to
// call more than once.
func (h *WatchHandle) Close() error {
	h.once.Do(h.stop)
	<-h.done
	return nil
}

// Polling reports whether the watch runs on the stat-polling fallback rather
// than a native notification primitive.
func (h *WatchHandle) Polling() bool {
	return h.polling
}

// Watch invokes callback for changes to the backing file until the returned
// handle is closed. Delivery is best-effort and events may coalesce.
//
// The native notification primitive (inotify, FSEvents, kqueue,
// ReadDirectoryChangesW via fsnotify) is used where available; otherwise the
// watch falls back to polling the file's metadata. The callback runs on the
// watch goroutine and must not block for long.
func (f *MappedFile) Watch(callback func(ChangeEvent)) (*WatchHandle, error) {
	if callback == nil {
		return nil, kindError(ErrWatchFailed, os.ErrInvalid)
	}
	w, err := fsnotify.NewWatcher()
	if err == nil {
		if err = w.Add(f.path); err != nil {
			w.Close()
		}
	}
	if err != nil {
		// No native watcher for this path; poll.
		return f.pollWatch(callback), nil
	}

	quit := make(chan struct{})
	done := make(chan struct{})
	go func() {
		defer close(done)
		defer w.Close()
		for {
			select {
			case <-quit:
				return
			case ev, ok := <-w.Events:
				if !ok {
					return
				}
				switch {
				case ev.Op.Has(fsnotify.Remove) || ev.Op.Has(fsnotify.Rename):
					callback(ChangeEvent{Kind: ChangeRemoved})
					return
				case ev.Op.Has(fsnotify.Write) || ev.Op.Has(fsnotify.Create):
					callback(ChangeEvent{Kind: ChangeModified})
				case ev.Op.Has(fsnotify.Chmod):
					callback(ChangeEvent{Kind: ChangeMetadata})
				}
			case _, ok := <-w.Errors:
				if !ok {
					return
				}
				// Delivery is best-effort; watcher errors are not fatal
				// to the mapping and are dropped.
			}
		}
	}()
	return &WatchHandle{stop: func() { close(quit) }, done: done}, nil
}

// pollWatch is the portable fallback: compare size and mtime on a timer.
func (f *MappedFile) pollWatch(callback func(ChangeEvent)) *WatchHandle {
	quit := make(chan struct{})
	done := make(chan struct{})
	path := f.path
	go func() {
		defer close(done)
		var lastLen int64
		var lastMod time.Time
		if fi, err := os.Stat(path); err == nil {
			lastLen = fi.Size()
			lastMod = fi.ModTime()
		}
		ticker := time.NewTicker(watchPollInterval)
		defer ticker.Stop()
		for {
			select {
			case <-quit:
				return
			case <-ticker.C:
			}
			fi, err := os.Stat(path)
			if err != nil {
				callback(ChangeEvent{Kind: ChangeRemoved})
				return
			}
			size, mod := fi.Size(), fi.ModTime()
			if size != lastLen {
				callback(ChangeEvent{Kind: ChangeModified})
			} else if !mod.Equal(lastMod) {
				// Same length but a newer stamp: content or metadata; the
				// poller cannot tell, report the stronger kind.
				callback(ChangeEvent{Kind: ChangeModified})
			}
			lastLen, lastMod = size, mod
		}
	}()
	return &WatchHandle{stop: func() { close(quit) }, done: done, polling: true}
}
