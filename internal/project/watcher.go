// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// watcher.go - Detects out-of-band edits to a project's files directory.
//
// Users drop files straight into <project>/files with their file
// manager; the watcher flags the manifest as stale so the next prompt
// can suggest a sync instead of silently sending outdated context.

package project

import (
	"sync"

	"github.com/fsnotify/fsnotify"
)

// Watcher observes a project's files directory for external changes.
type Watcher struct {
	fsw *fsnotify.Watcher

	mu    sync.Mutex
	dirty bool
	done  chan struct{}
}

// Watch starts watching the project's files directory. Call Close when
// the project is closed or the watch is no longer needed.
func Watch(p *Project) (*Watcher, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	if err := fsw.Add(p.FilesDir()); err != nil {
		fsw.Close()
		return nil, err
	}

	w := &Watcher{fsw: fsw, done: make(chan struct{})}
	go w.loop()
	return w, nil
}

func (w *Watcher) loop() {
	for {
		select {
		case event, ok := <-w.fsw.Events:
			if !ok {
				return
			}
			if event.Op&(fsnotify.Create|fsnotify.Remove|fsnotify.Rename|fsnotify.Write) != 0 {
				w.mu.Lock()
				w.dirty = true
				w.mu.Unlock()
			}
		case _, ok := <-w.fsw.Errors:
			if !ok {
				return
			}
			// Watch errors are non-fatal; sync still works on demand.
		case <-w.done:
			return
		}
	}
}

// Dirty reports whether the files directory changed since the last
// ClearDirty call.
func (w *Watcher) Dirty() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.dirty
}

// ClearDirty resets the change flag, typically after a Sync.
func (w *Watcher) ClearDirty() {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.dirty = false
}

// Close stops the watcher.
func (w *Watcher) Close() error {
	close(w.done)
	return w.fsw.Close()
}
