// Package disk is the external collaborator the buffer pool consumes:
// a synchronous, page-sized disk manager. Its design — and the query
// executor and catalog above it — is intentionally out of scope for
// this repository; only the interface the buffer pool depends on, and
// two reference implementations, live here.
package disk

import "pagestore"

// Manager reads and writes whole pages and allocates/deallocates page
// ids. Every method is synchronous; callers (the buffer pool) hold
// their own mutex around calls, so Manager implementations need not be
// independently safe for concurrent use unless documented otherwise.
type Manager interface {
	ReadPage(id pagestore.PageID, buf *pagestore.Page) error
	WritePage(id pagestore.PageID, buf *pagestore.Page) error
	AllocatePage() (pagestore.PageID, error)
	DeallocatePage(id pagestore.PageID) error
}
