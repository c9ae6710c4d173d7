// Copyright © 2018 One Concern

package localfs

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/oneconcern/cairn/pkg/storage"
	"github.com/oneconcern/cairn/pkg/storage/status"
	"github.com/spf13/afero"
)

// DefaultDir is where objects go when no file system is provided
var DefaultDir = filepath.Join(".cairn", "blocks")

// New creates a new local file system backed storage model
func New(fs afero.Fs) storage.Store {
	if fs == nil {
		fs = afero.NewBasePathFs(afero.NewOsFs(), DefaultDir)
	}
	return &localFS{
		fs: fs,
	}
}

type localFS struct {
	fs afero.Fs
}

func (l *localFS) Has(ctx context.Context, key string) (bool, error) {
	if err := maybeInvalidKey(key); err != nil {
		return false, err
	}
	fi, err := l.fs.Stat(key)
	if err != nil {
		if os.IsNotExist(err) {
			return false, nil
		}
		return false, err
	}

	return !fi.IsDir(), nil
}

func (l *localFS) Get(ctx context.Context, key string) (io.ReadCloser, error) {
	has, err := l.Has(ctx, key)
	if err != nil {
		return nil, err
	}
	if !has {
		return nil, status.ErrNotFound.WrapMessage(key)
	}
	return l.fs.Open(key)
}

func (l *localFS) Put(ctx context.Context, key string, source io.Reader, exclusive bool) error {
	if err := maybeInvalidKey(key); err != nil {
		return err
	}
	dir := filepath.Dir(key)
	if dir != "" {
		if err := l.fs.MkdirAll(dir, 0700); err != nil {
			return fmt.Errorf("ensuring directories for %q: %v", key, err)
		}
	}
	flag := os.O_CREATE | os.O_WRONLY | os.O_TRUNC
	if exclusive {
		flag |= os.O_EXCL
	}
	target, err := l.fs.OpenFile(key, flag, 0600)
	if err != nil {
		if os.IsExist(err) {
			return status.ErrExists.WrapMessage(key)
		}
		return fmt.Errorf("create record for %q: %v", key, err)
	}

	if _, err = storage.PipeIO(target, source); err != nil {
		_ = target.Close()
		return fmt.Errorf("write record for %q: %v", key, err)
	}

	return target.Close()
}

func (l *localFS) Delete(ctx context.Context, key string) error {
	if err := l.fs.Remove(key); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("removing %q: %v", key, err)
	}
	return nil
}

func (l *localFS) Keys(ctx context.Context) ([]string, error) {
	const root = "."
	var res []string
	e := afero.Walk(l.fs, root, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if path == root || info.IsDir() {
			return nil
		}
		res = append(res, filepath.ToSlash(path))
		return nil
	})
	if e != nil {
		return nil, e
	}
	return res, nil
}

func (l *localFS) Clear(ctx context.Context) error {
	entries, err := afero.ReadDir(l.fs, ".")
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}
	for _, entry := range entries {
		if err := l.fs.RemoveAll(entry.Name()); err != nil {
			return err
		}
	}
	return nil
}

func (l *localFS) String() string {
	const localfs = "localfs"
	switch fs := l.fs.(type) {
	case *afero.BasePathFs:
		pp, err := fs.RealPath("")
		if err != nil {
			return localfs
		}
		return localfs + "@" + pp
	default:
		return localfs
	}
}

func maybeInvalidKey(key string) error {
	if key == "" || strings.HasPrefix(key, "..") || strings.Contains(key, "/../") {
		return status.ErrInvalidResource.WrapMessage(key)
	}
	return nil
}
