//go:build windows || plan9

package disk

// Sync flushes the underlying file to stable storage. Platforms
// without fdatasync fall back to a full sync.
func (m *FileManager) Sync() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.file.Sync()
}
