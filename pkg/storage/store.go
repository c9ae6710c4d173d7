// Copyright © 2018 One Concern

package storage

import (
	"bytes"
	"context"
	"io"
	"io/ioutil"

	"github.com/oneconcern/cairn/pkg/storage/status"
)

const (
	// OverWrite an existing object on Put
	OverWrite = false

	// NoOverWrite fails a Put when the object already exists
	NoOverWrite = true
)

// MaxObjectSizeInMemory is the largest object ReadAll accepts
const MaxObjectSizeInMemory = 256 * 1024 * 1024

// Store implementations know how to write entries to a K/V model.
//
// Typically this is something file system-like or an embedded key value database.
// Implementations of this interface are assumed to be fairly simple: they know nothing
// about content addressing, which is layered on top by package cafs.
type Store interface {
	String() string
	Has(context.Context, string) (bool, error)
	Get(context.Context, string) (io.ReadCloser, error)
	Put(context.Context, string, io.Reader, bool) error
	Delete(context.Context, string) error
	Keys(context.Context) ([]string, error)
	Clear(context.Context) error
}

// ReadAll fetches a whole object from a store.
func ReadAll(ctx context.Context, store Store, key string) ([]byte, error) {
	rdr, err := store.Get(ctx, key)
	if err != nil {
		return nil, err
	}

	b, err := ioutil.ReadAll(io.LimitReader(rdr, MaxObjectSizeInMemory+1))
	if err != nil {
		_ = rdr.Close()
		return nil, err
	}
	if err = rdr.Close(); err != nil {
		return nil, err
	}
	if len(b) > MaxObjectSizeInMemory {
		return nil, status.ErrObjectTooBig
	}
	return b, nil
}

// PutBytes writes a buffer as an object.
func PutBytes(ctx context.Context, store Store, key string, buffer []byte, exclusive bool) error {
	return store.Put(ctx, key, bytes.NewReader(buffer), exclusive)
}

// PipeIO copies a reader into a writer, preferring WriterTo when available.
func PipeIO(writer io.Writer, reader io.Reader) (int64, error) {
	if wt, ok := reader.(io.WriterTo); ok {
		return wt.WriteTo(writer)
	}
	return io.Copy(writer, reader)
}
