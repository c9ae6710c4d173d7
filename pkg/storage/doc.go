// Copyright © 2018 One Concern

// Package storage provides interface to handle backend storage objects.
//
// This package supports the following backends:
//   - local file system, or any afero.Fs (package localfs)
//   - badger embedded key value store (package bdgr)
//
// Blocks handled by the content-addressed layer are stored here under their hex key.
package storage
