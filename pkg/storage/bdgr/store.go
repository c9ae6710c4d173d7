// Package bdgr implements storage.Store on top of an embedded badger database.
package bdgr

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"io/ioutil"
	"sync"

	badger "github.com/dgraph-io/badger/v4"
	"github.com/oneconcern/cairn/pkg/errors"
	"github.com/oneconcern/cairn/pkg/storage"
	"github.com/oneconcern/cairn/pkg/storage/status"
)

// Store is a storage.Store that must be closed after use
type Store interface {
	storage.Store
	io.Closer
}

var _ Store = &badgerStore{}

// New opens (or creates) a badger database in dir.
//
// An empty dir opens a purely in-memory database.
func New(dir string) (Store, error) {
	opts := badger.DefaultOptions(dir).WithLogger(nil)
	if dir == "" {
		opts = opts.WithInMemory(true)
	}
	db, err := badger.Open(opts)
	if err != nil {
		return nil, status.ErrStorageAPI.Wrap(err)
	}
	return &badgerStore{db: db, dir: dir}, nil
}

type badgerStore struct {
	db    *badger.DB
	dir   string
	close sync.Once
}

func rewriteError(key string, err error) error {
	switch err {
	case nil:
		return nil
	case badger.ErrKeyNotFound:
		return status.ErrNotFound.WrapMessage(key)
	case badger.ErrEmptyKey:
		return status.ErrInvalidResource.WrapMessage(key)
	default:
		return status.ErrStorageAPI.Wrap(err)
	}
}

func (b *badgerStore) Has(ctx context.Context, key string) (bool, error) {
	var found bool
	err := b.db.View(func(txn *badger.Txn) error {
		_, err := txn.Get([]byte(key))
		if err == badger.ErrKeyNotFound {
			return nil
		}
		if err != nil {
			return err
		}
		found = true
		return nil
	})
	return found, rewriteError(key, err)
}

func (b *badgerStore) Get(ctx context.Context, key string) (io.ReadCloser, error) {
	var value []byte
	err := b.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(key))
		if err != nil {
			return err
		}
		value, err = item.ValueCopy(nil)
		return err
	})
	if err != nil {
		return nil, rewriteError(key, err)
	}
	return ioutil.NopCloser(bytes.NewReader(value)), nil
}

func (b *badgerStore) Put(ctx context.Context, key string, source io.Reader, exclusive bool) error {
	value, err := ioutil.ReadAll(source)
	if err != nil {
		return fmt.Errorf("read record for %q: %v", key, err)
	}
	err = b.db.Update(func(txn *badger.Txn) error {
		if exclusive {
			_, err := txn.Get([]byte(key))
			if err == nil {
				return status.ErrExists.WrapMessage(key)
			}
			if err != badger.ErrKeyNotFound {
				return err
			}
		}
		return txn.Set([]byte(key), value)
	})
	if errors.Is(err, status.ErrExists) {
		return err
	}
	return rewriteError(key, err)
}

func (b *badgerStore) Delete(ctx context.Context, key string) error {
	err := b.db.Update(func(txn *badger.Txn) error {
		return txn.Delete([]byte(key))
	})
	return rewriteError(key, err)
}

func (b *badgerStore) Keys(ctx context.Context) ([]string, error) {
	var keys []string
	err := b.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.PrefetchValues = false
		it := txn.NewIterator(opts)
		defer it.Close()
		for it.Rewind(); it.Valid(); it.Next() {
			keys = append(keys, string(it.Item().KeyCopy(nil)))
		}
		return nil
	})
	return keys, rewriteError("", err)
}

func (b *badgerStore) Clear(ctx context.Context) error {
	return rewriteError("", b.db.DropAll())
}

func (b *badgerStore) Close() error {
	var err error
	b.close.Do(func() {
		err = b.db.Close()
	})
	return err
}

func (b *badgerStore) String() string {
	if b.dir == "" {
		return "badger@memory"
	}
	return "badger@" + b.dir
}
