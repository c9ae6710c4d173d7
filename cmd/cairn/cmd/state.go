package cmd

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/oneconcern/cairn/pkg/cafs"
	"github.com/oneconcern/cairn/pkg/dlogger"
	"github.com/oneconcern/cairn/pkg/errors"
	"github.com/oneconcern/cairn/pkg/fs"
	"github.com/oneconcern/cairn/pkg/fs/identifiers"
	"github.com/oneconcern/cairn/pkg/keystore"
	"github.com/oneconcern/cairn/pkg/storage"
	"github.com/oneconcern/cairn/pkg/storage/bdgr"
	"github.com/oneconcern/cairn/pkg/storage/localfs"
	"github.com/spf13/afero"
	"go.uber.org/multierr"
	"go.uber.org/zap"
)

const (
	headFile  = "HEAD"
	rootsFile = "ROOTS"

	blocksDir = "blocks"
	keysDir   = "keys"
	cacheDir  = "cache"
)

var errNoHead = errors.New("no file system on this device: run 'cairn init' first")

// deviceState holds everything a device keeps locally: blocks, keys, cached filters,
// and the history of published roots.
type deviceState struct {
	fs      afero.Fs
	blocks  cafs.Fs
	keys    keystore.KeyStore
	cache   identifiers.Cache
	l       *zap.Logger
	closers []io.Closer
}

func openState(ctx context.Context, cfg *CLIConfig, flags flagsT) (*deviceState, error) {
	l, err := dlogger.GetLoggerWithEncoding(flags.root.logLevel, dlogger.EncodingConsole)
	if err != nil {
		return nil, err
	}
	return openStateFs(ctx, cfg, afero.NewBasePathFs(afero.NewOsFs(), flags.root.state), flags.root.state, l)
}

func openStateFs(ctx context.Context, cfg *CLIConfig, base afero.Fs, dir string, l *zap.Logger) (*deviceState, error) {
	for _, sub := range []string{blocksDir, keysDir, cacheDir} {
		if err := base.MkdirAll(sub, 0700); err != nil {
			return nil, err
		}
	}

	s := &deviceState{fs: base, l: l}

	var backend storage.Store
	switch cfg.Backend {
	case backendBadger:
		db, err := bdgr.New(filepath.Join(dir, blocksDir))
		if err != nil {
			return nil, err
		}
		s.closers = append(s.closers, db)
		backend = db
	default:
		backend = localfs.New(afero.NewBasePathFs(base, blocksDir))
	}

	cacheSize, err := cfg.CacheBytes()
	if err != nil {
		return nil, err
	}
	opts := []cafs.Option{
		cafs.Backend(storage.Instrument(l, backend)),
		cafs.CacheSize(cacheSize),
		cafs.Logger(l),
	}
	if cfg.Mirror != "" {
		opts = append(opts, cafs.Mirror(storage.Instrument(l, localfs.New(afero.NewBasePathFs(afero.NewOsFs(), cfg.Mirror)))))
	}
	if s.blocks, err = cafs.New(opts...); err != nil {
		return nil, multierr.Append(err, s.Close())
	}

	keyOpts := []keystore.Option{
		keystore.Backend(localfs.New(afero.NewBasePathFs(base, keysDir))),
		keystore.Logger(l),
	}
	if cfg.Passphrase != "" {
		keyOpts = append(keyOpts, keystore.Passphrase([]byte(cfg.Passphrase)))
	}
	if s.keys, err = keystore.New(ctx, keyOpts...); err != nil {
		return nil, multierr.Append(err, s.Close())
	}

	s.cache = identifiers.NewCache(localfs.New(afero.NewBasePathFs(base, cacheDir)))
	return s, nil
}

// Close releases the backend store. Closing twice is a no-op.
func (s *deviceState) Close() error {
	var err error
	for _, c := range s.closers {
		err = multierr.Append(err, c.Close())
	}
	s.closers = nil
	return err
}

// fatal releases the device state before exiting: deferred calls do not run on exit
func (s *deviceState) fatal(msg string, err error) {
	if closeErr := s.Close(); closeErr != nil {
		infoLogger.Printf("could not close device state: %v", closeErr)
	}
	wrapFatalln(msg, err)
}

func (s *deviceState) options(extra ...fs.Option) []fs.Option {
	opts := []fs.Option{
		fs.Blocks(s.blocks),
		fs.Keys(s.keys),
		fs.Cache(s.cache),
		fs.Logger(s.l),
		fs.OnPublish(func(_ context.Context, id cafs.Key) {
			if err := s.setHead(id); err != nil {
				s.l.Error("could not record published root", zap.Stringer("root", id), zap.Error(err))
			}
		}),
	}
	return append(opts, extra...)
}

// head is the last root published by this device
func (s *deviceState) head() (cafs.Key, bool, error) {
	data, err := afero.ReadFile(s.fs, headFile)
	if os.IsNotExist(err) {
		return cafs.NilKey, false, nil
	}
	if err != nil {
		return cafs.NilKey, false, err
	}
	id, err := cafs.KeyFromString(strings.TrimSpace(string(data)))
	if err != nil {
		return cafs.NilKey, false, err
	}
	return id, true, nil
}

func (s *deviceState) setHead(id cafs.Key) error {
	if err := afero.WriteFile(s.fs, headFile, []byte(id.String()+"\n"), 0600); err != nil {
		return err
	}
	f, err := s.fs.OpenFile(rootsFile, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0600)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(f, id.String())
	return multierr.Append(err, f.Close())
}

// roots lists the roots published by this device, newest first
func (s *deviceState) roots() ([]cafs.Key, error) {
	f, err := s.fs.Open(rootsFile)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var roots []cafs.Key
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		id, err := cafs.KeyFromString(line)
		if err != nil {
			return nil, err
		}
		roots = append(roots, id)
	}
	if err = scanner.Err(); err != nil {
		return nil, err
	}
	for i, j := 0, len(roots)-1; i < j; i, j = i+1, j-1 {
		roots[i], roots[j] = roots[j], roots[i]
	}
	return roots, nil
}

// load the file system at the head of this device
func (s *deviceState) load(ctx context.Context, flags flagsT) (*fs.FileSystem, error) {
	id, ok, err := s.head()
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, errNoHead
	}

	var extra []fs.Option
	if perms, restricted := flags.permissions(); restricted {
		extra = append(extra, fs.Permissions(perms))
	}
	return fs.FromCID(ctx, id, s.options(extra...)...)
}

// withFileSystem runs an action against the file system at the head of this device
func withFileSystem(action func(context.Context, *fs.FileSystem) error) {
	ctx := context.Background()
	state, err := openState(ctx, config, cairnFlags)
	if err != nil {
		wrapFatalln("could not open device state", err)
		return
	}
	defer func() {
		_ = state.Close()
	}()

	f, err := state.load(ctx, cairnFlags)
	if err != nil {
		state.fatal("could not load file system", err)
		return
	}
	if err = action(ctx, f); err != nil {
		state.fatal("failed", err)
	}
}
