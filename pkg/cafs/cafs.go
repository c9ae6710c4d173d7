package cafs

import (
	"context"
	"fmt"
	"time"

	"github.com/docker/go-units"
	lru "github.com/hashicorp/golang-lru"
	"github.com/oneconcern/cairn/pkg/dlogger"
	"github.com/oneconcern/cairn/pkg/storage"
	"github.com/oneconcern/cairn/pkg/storage/localfs"
	"go.uber.org/zap"
)

const (
	// DefaultCacheSize sets the default target LRU block cache in bytes.
	DefaultCacheSize = 16 * units.MiB

	// AverageBlockSize is used to convert the cache size in bytes into a number of cached blocks
	AverageBlockSize = 4 * units.KiB
)

// PutRes holds the result from a Put operation
type PutRes struct {
	Key    Key    // the key of the written block
	Size   uint64 // the size of the block, including the cumulative size of linked children
	IsFile bool   // the block holds file content
	Found  bool   // the block was already existing
}

// Fs implementations provide a content-addressable block store.
//
// Blocks are immutable: putting the same bytes twice yields the same key and
// never rewrites the stored object.
type Fs interface {
	PutBytes(context.Context, []byte) (PutRes, error)
	GetBytes(context.Context, Key) ([]byte, error)

	PutLinks(context.Context, Links) (PutRes, error)
	GetLinks(context.Context, Key) (Links, error)

	PutLinkedList(context.Context, []Link) (PutRes, error)
	GetLinkedList(context.Context, Key) ([]Link, error)

	Has(context.Context, Key) (bool, error)
	Size(context.Context, Key) (uint64, error)
	String() string
}

var _ Fs = &defaultFs{}

func defaultsForFs() *defaultFs {
	return &defaultFs{
		backend:        localfs.New(nil),
		cacheSize:      DefaultCacheSize,
		l:              dlogger.MustGetLogger(dlogger.LogLevelNone),
		withVerifyHash: true,
	}
}

// New creates a new instance of a content-addressable block store
func New(opts ...Option) (Fs, error) {
	f := defaultsForFs()
	for _, apply := range opts {
		apply(f)
	}

	if f.cacheSize > 0 {
		var err error
		f.cache, err = lru.New(BytesToBlocks(f.cacheSize))
		if err != nil {
			return nil, err
		}
	}

	f.pather = func(k Key) string { return k.StringWithPrefix(f.prefix) }

	return f, nil
}

// BytesToBlocks converts a cache size in bytes into a number of cached blocks
func BytesToBlocks(size int) int {
	blocks := size / AverageBlockSize
	if blocks < 1 {
		return 1
	}
	return blocks
}

type defaultFs struct {
	backend storage.Store   // CAFS backing store
	mirrors []storage.Store // stores receiving a copy of every block, failures tolerated
	l       *zap.Logger

	// prefix determines a namespace for keys
	prefix string
	pather func(Key) string

	// block cache
	cache     *lru.Cache
	cacheSize int

	withVerifyHash bool
}

func (d *defaultFs) String() string {
	return "cafs@" + d.backend.String()
}

func (d *defaultFs) PutBytes(ctx context.Context, data []byte) (PutRes, error) {
	res, err := d.put(ctx, data)
	if err != nil {
		return PutRes{}, err
	}
	res.Size = uint64(len(data))
	res.IsFile = true
	return res, nil
}

func (d *defaultFs) GetBytes(ctx context.Context, key Key) ([]byte, error) {
	return d.get(ctx, key)
}

func (d *defaultFs) PutLinks(ctx context.Context, links Links) (PutRes, error) {
	data, err := encodeLinks(links.Sorted())
	if err != nil {
		return PutRes{}, err
	}
	res, err := d.put(ctx, data)
	if err != nil {
		return PutRes{}, err
	}
	res.Size = uint64(len(data)) + links.CumulativeSize()
	return res, nil
}

func (d *defaultFs) GetLinks(ctx context.Context, key Key) (Links, error) {
	data, err := d.get(ctx, key)
	if err != nil {
		return nil, err
	}
	list, err := decodeLinks(data)
	if err != nil {
		return nil, fmt.Errorf("links at %v: %w", key, err)
	}
	links := make(Links, len(list))
	for _, link := range list {
		links.Add(link)
	}
	return links, nil
}

func (d *defaultFs) PutLinkedList(ctx context.Context, list []Link) (PutRes, error) {
	ordered := make([]Link, len(list))
	copy(ordered, list)
	sortByIndex(ordered)

	data, err := encodeLinks(ordered)
	if err != nil {
		return PutRes{}, err
	}
	res, err := d.put(ctx, data)
	if err != nil {
		return PutRes{}, err
	}
	res.Size = uint64(len(data))
	for _, link := range ordered {
		res.Size += link.Size
	}
	return res, nil
}

func (d *defaultFs) GetLinkedList(ctx context.Context, key Key) ([]Link, error) {
	data, err := d.get(ctx, key)
	if err != nil {
		return nil, err
	}
	list, err := decodeLinks(data)
	if err != nil {
		return nil, fmt.Errorf("linked list at %v: %w", key, err)
	}
	sortByIndex(list)
	return list, nil
}

func (d *defaultFs) Has(ctx context.Context, key Key) (bool, error) {
	if d.cache != nil && d.cache.Contains(key) {
		return true, nil
	}
	return d.backend.Has(ctx, d.pather(key))
}

// Size of a stored block, not including linked children
func (d *defaultFs) Size(ctx context.Context, key Key) (uint64, error) {
	data, err := d.get(ctx, key)
	if err != nil {
		return 0, err
	}
	return uint64(len(data)), nil
}

func (d *defaultFs) put(ctx context.Context, data []byte) (PutRes, error) {
	key := Sum(data)
	lg := d.l.With(zap.Stringer("key", key))

	defer func(t0 time.Time) {
		lg.Debug("cafs put", zap.Int("size", len(data)), zap.Duration("elapsed", time.Since(t0)))
	}(time.Now())

	found, err := d.Has(ctx, key)
	if err != nil {
		return PutRes{}, err
	}

	if !found {
		destinations := make([]storage.MultiStoreUnit, 0, 1+len(d.mirrors))
		destinations = append(destinations, storage.MultiStoreUnit{Store: d.backend})
		for _, mirror := range d.mirrors {
			destinations = append(destinations, storage.MultiStoreUnit{Store: mirror, TolerateFailure: true})
		}
		if err = storage.MultiPut(ctx, destinations, d.pather(key), data, storage.OverWrite); err != nil {
			return PutRes{}, err
		}
	}

	if d.cache != nil {
		d.cache.Add(key, cloneBytes(data))
	}

	return PutRes{Key: key, Found: found}, nil
}

func (d *defaultFs) get(ctx context.Context, key Key) ([]byte, error) {
	if d.cache != nil {
		if b, ok := d.cache.Get(key); ok {
			return cloneBytes(b.([]byte)), nil
		}
	}

	lg := d.l.With(zap.Stringer("key", key))
	lg.Debug("cafs get from backend")

	data, err := storage.ReadAll(ctx, d.backend, d.pather(key))
	if err != nil {
		return nil, err
	}

	if d.withVerifyHash {
		if actual := Sum(data); actual != key {
			lg.Warn("cafs block verification failed", zap.Stringer("actual", actual))
			return nil, ErrHashMismatch.WrapMessage(key.String())
		}
	}

	if d.cache != nil {
		d.cache.Add(key, cloneBytes(data))
	}
	return data, nil
}

// cloneBytes copies blocks in and out of the cache, so that cached blocks always match their key
func cloneBytes(data []byte) []byte {
	return append([]byte(nil), data...)
}
