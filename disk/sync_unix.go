//go:build !windows && !plan9

package disk

import "golang.org/x/sys/unix"

// Sync flushes the underlying file's data to stable storage via
// fdatasync, cheaper than a full fsync since it skips metadata the
// buffer pool doesn't rely on for correctness.
func (m *FileManager) Sync() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return unix.Fdatasync(int(m.file.Fd()))
}
