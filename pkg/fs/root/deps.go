package root

import (
	"context"

	"github.com/oneconcern/cairn/pkg/cafs"
	"github.com/oneconcern/cairn/pkg/dlogger"
	"github.com/oneconcern/cairn/pkg/fs/identifiers"
	"github.com/oneconcern/cairn/pkg/keystore"
	"github.com/oneconcern/cairn/pkg/storage/localfs"
	"github.com/spf13/afero"
	"go.uber.org/zap"
)

// Deps are the services a root tree relies upon.
//
// Only the block store is mandatory: keys and cached filters are otherwise kept in memory.
type Deps struct {
	Fs     cafs.Fs
	Keys   keystore.KeyStore
	Cache  identifiers.Cache
	Logger *zap.Logger
}

func (d Deps) withDefaults(ctx context.Context) (Deps, error) {
	if d.Logger == nil {
		d.Logger = dlogger.MustGetLogger(dlogger.LogLevelNone)
	}
	if d.Cache == nil {
		d.Cache = identifiers.NewCache(localfs.New(afero.NewMemMapFs()))
	}
	if d.Keys == nil {
		keys, err := keystore.New(ctx, keystore.Logger(d.Logger))
		if err != nil {
			return d, err
		}
		d.Keys = keys
	}
	return d, nil
}
