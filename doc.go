// Package pagestore is the storage substrate of a teaching relational
// database: a fixed-size buffer pool, an LRU-K replacement policy, an
// extendible hash directory mapping resident pages to frames, and a
// concurrent B+ tree index built on latch-crabbing.
//
// Disk I/O, the query executor, the transaction/lock manager, and the
// catalog are external collaborators named only by the interfaces
// this package consumes (see the disk subpackage).
package pagestore
