package cafs

import (
	"github.com/oneconcern/cairn/pkg/storage"
	"go.uber.org/zap"
)

// Option to configure content addressable FS components
type Option func(*defaultFs)

// Prefix sets a prefix on keys
func Prefix(prefix string) Option {
	return func(w *defaultFs) {
		w.prefix = prefix
	}
}

// Backend specifies the backend store
func Backend(store storage.Store) Option {
	return func(w *defaultFs) {
		if store != nil {
			w.backend = store
		}
	}
}

// Mirror adds a store receiving a copy of every written block.
//
// Writes to mirrors are allowed to fail.
func Mirror(store storage.Store) Option {
	return func(w *defaultFs) {
		if store != nil {
			w.mirrors = append(w.mirrors, store)
		}
	}
}

// Logger sets a logger for this store
func Logger(l *zap.Logger) Option {
	return func(w *defaultFs) {
		if l != nil {
			w.l = l
		}
	}
}

// CacheSize sets the target size of the LRU block cache in bytes. A negative size disables the cache.
func CacheSize(size int) Option {
	return func(w *defaultFs) {
		if size == 0 {
			size = DefaultCacheSize
		}
		w.cacheSize = size
	}
}

// VerifyHash enables hash verification on blocks read from the backend
func VerifyHash(enabled bool) Option {
	return func(w *defaultFs) {
		w.withVerifyHash = enabled
	}
}
