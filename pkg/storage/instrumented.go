// Copyright © 2018 One Concern

package storage

import (
	"context"
	"io"
	"time"

	"go.uber.org/zap"
)

// Instrument decorates a store with debug logging of every call and its latency
func Instrument(l *zap.Logger, store Store) Store {
	return &instrumentedStore{
		store: store,
		l:     l.With(zap.String("store", store.String())),
	}
}

type instrumentedStore struct {
	store Store
	l     *zap.Logger
}

func (i *instrumentedStore) done(op, key string) func(error) {
	t0 := time.Now()
	return func(err error) {
		i.l.Debug("storage "+op,
			zap.String("key", key),
			zap.Duration("elapsed", time.Since(t0)),
			zap.Error(err),
		)
	}
}

func (i *instrumentedStore) Has(ctx context.Context, key string) (bool, error) {
	has, err := i.store.Has(ctx, key)
	i.done("has", key)(err)
	return has, err
}

func (i *instrumentedStore) Get(ctx context.Context, key string) (io.ReadCloser, error) {
	rdr, err := i.store.Get(ctx, key)
	i.done("get", key)(err)
	return rdr, err
}

func (i *instrumentedStore) Put(ctx context.Context, key string, rdr io.Reader, exclusive bool) error {
	err := i.store.Put(ctx, key, rdr, exclusive)
	i.done("put", key)(err)
	return err
}

func (i *instrumentedStore) Delete(ctx context.Context, key string) error {
	err := i.store.Delete(ctx, key)
	i.done("delete", key)(err)
	return err
}

func (i *instrumentedStore) Keys(ctx context.Context) ([]string, error) {
	keys, err := i.store.Keys(ctx)
	i.done("keys", "")(err)
	return keys, err
}

func (i *instrumentedStore) Clear(ctx context.Context) error {
	err := i.store.Clear(ctx)
	i.done("clear", "")(err)
	return err
}

func (i *instrumentedStore) String() string {
	return i.store.String()
}
