package buffer

import "pagestore"

// Options configures a PoolManager.
type Options struct {
	replacerK  int
	bucketSize int
	logger     pagestore.Logger
}

func defaultOptions() Options {
	return Options{
		replacerK:  2,
		bucketSize: 4,
		logger:     pagestore.DiscardLogger{},
	}
}

// Option configures a PoolManager using the functional options pattern.
type Option func(*Options)

// WithReplacerK sets the k used by the pool's LRU-K replacer. Default 2.
func WithReplacerK(k int) Option {
	return func(o *Options) {
		o.replacerK = k
	}
}

// WithBucketSize sets the bucket capacity of the page table's
// extendible hash table before it must split. Default 4.
func WithBucketSize(size int) Option {
	return func(o *Options) {
		o.bucketSize = size
	}
}

// WithLogger installs a structured logger for eviction and I/O warnings.
func WithLogger(l pagestore.Logger) Option {
	return func(o *Options) {
		o.logger = l
	}
}
