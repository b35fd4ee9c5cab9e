package bptree

import "pagestore"

// Options configures a Tree.
type Options struct {
	logger pagestore.Logger
}

func defaultOptions() Options {
	return Options{
		logger: pagestore.DiscardLogger{},
	}
}

// Option configures a Tree using the functional options pattern.
type Option func(*Options)

// WithLogger installs a structured logger for split, coalesce, and
// redistribute events.
func WithLogger(l pagestore.Logger) Option {
	return func(o *Options) {
		o.logger = l
	}
}
