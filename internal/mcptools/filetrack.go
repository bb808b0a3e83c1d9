package mcptools

import "sync"

// FileReadTracker tracks which files have been read via Read.
// Edit checks this before allowing modifications: without a prior Read the
// caller has no line hashes to anchor with.
type FileReadTracker struct {
	mu   sync.RWMutex
	read map[string]struct{} // absolute paths that have been read
}

// NewFileReadTracker creates a new tracker.
func NewFileReadTracker() *FileReadTracker {
	return &FileReadTracker{read: make(map[string]struct{})}
}

// MarkRead records that a file was read.
func (t *FileReadTracker) MarkRead(absPath string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.read[absPath] = struct{}{}
}

// Forget drops a file's read state, forcing a fresh Read before the next
// edit. Used after Undo rewrites a file under the caller's feet.
func (t *FileReadTracker) Forget(absPath string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	delete(t.read, absPath)
}

// WasRead returns true if the file was previously read.
func (t *FileReadTracker) WasRead(absPath string) bool {
	t.mu.RLock()
	defer t.mu.RUnlock()
	_, ok := t.read[absPath]
	return ok
}
