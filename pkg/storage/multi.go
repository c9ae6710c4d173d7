// Copyright © 2018 One Concern

package storage

import (
	"bytes"
	"context"
	"sync"

	"go.uber.org/multierr"
)

// MultiStoreUnit is used to specify multiple operations, some of which are tolerated to fail
type MultiStoreUnit struct {
	// Store is the backend to be accessed
	Store Store

	// TolerateFailure to false breaks multi-store operations whenever an error is encountered.
	TolerateFailure bool
}

// MultiPut duplicates write operations to an array of stores, under the same name.
//
// All writes are issued concurrently. Errors from units that do not tolerate failures
// are combined and returned once every write has completed.
func MultiPut(ctx context.Context, stores []MultiStoreUnit, name string, buffer []byte, exclusive bool) error {
	var (
		wg   sync.WaitGroup
		mx   sync.Mutex
		errs error
	)

	for _, w := range stores {
		wg.Add(1)
		go func(w MultiStoreUnit) {
			defer wg.Done()

			err := w.Store.Put(ctx, name, bytes.NewReader(buffer), exclusive)
			if err == nil || w.TolerateFailure {
				return
			}
			mx.Lock()
			errs = multierr.Append(errs, err)
			mx.Unlock()
		}(w)
	}
	wg.Wait()

	return errs
}
