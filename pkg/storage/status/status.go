// Copyright © 2018 One Concern

// Package status declares error constants returned by
// implementations of the Store interface.
//
// NOTE: such constants are located in a separate package to avoid
// creating undue cyclical dependencies between pkg/storage and one
// of its implementions.
package status

import "github.com/oneconcern/cairn/pkg/errors"

var (
	// Sentinel errors returned by implementations of the interface defined by storage

	// ErrNotFound indicates that the fetched object does not exist on storage
	ErrNotFound = errors.New("not found")

	// ErrExists indicates that the resource already exists and cannot be overridden
	ErrExists = errors.New("exists already")

	// ErrObjectTooBig indicates that the object is too big to be read into memory
	ErrObjectTooBig = errors.New("object too big to be read into memory")

	// ErrInvalidResource indicates that the storage resource has an invalid name
	ErrInvalidResource = errors.New("invalid storage resource name")

	// ErrStorageAPI indicates any other backend error
	ErrStorageAPI = errors.New("storage API error")
)
