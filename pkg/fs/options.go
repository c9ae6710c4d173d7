package fs

import (
	"context"

	"github.com/oneconcern/cairn/pkg/cafs"
	"github.com/oneconcern/cairn/pkg/fs/identifiers"
	"github.com/oneconcern/cairn/pkg/keystore"
	"github.com/oneconcern/cairn/pkg/model"
	"go.uber.org/zap"
)

// PublishHook is called with the new root every time a file system is published
type PublishHook func(context.Context, cafs.Key)

// Option to configure a file system
type Option func(*settings)

type settings struct {
	blocks      cafs.Fs
	keys        keystore.KeyStore
	cache       identifiers.Cache
	l           *zap.Logger
	permissions *model.Permissions
	rootKey     string
	hooks       []PublishHook
}

// Blocks sets the block store. Defaults to an in-memory store.
func Blocks(blocks cafs.Fs) Option {
	return func(s *settings) {
		s.blocks = blocks
	}
}

// Keys sets the key store holding the keys of private paths
func Keys(keys keystore.KeyStore) Option {
	return func(s *settings) {
		s.keys = keys
	}
}

// Cache sets the local cache of bare name filters
func Cache(cache identifiers.Cache) Option {
	return func(s *settings) {
		s.cache = cache
	}
}

// Logger for the file system
func Logger(l *zap.Logger) Option {
	return func(s *settings) {
		if l != nil {
			s.l = l
		}
	}
}

// Permissions restricts the private paths loaded from an existing file system.
//
// Without permissions, the whole private branch is loaded when its root key is known.
func Permissions(perms model.Permissions) Option {
	return func(s *settings) {
		s.permissions = &perms
	}
}

// RootKey sets the key of the private root of a new file system. Defaults to a fresh key.
func RootKey(key string) Option {
	return func(s *settings) {
		s.rootKey = key
	}
}

// OnPublish registers a hook called after each publish
func OnPublish(hook PublishHook) Option {
	return func(s *settings) {
		if hook != nil {
			s.hooks = append(s.hooks, hook)
		}
	}
}
