package keystore

import (
	"context"
	"crypto/ed25519"
	"crypto/rand"
	"encoding/base64"
	"strings"
	"sync"

	"github.com/oneconcern/cairn/pkg/dlogger"
	"github.com/oneconcern/cairn/pkg/errors"
	"github.com/oneconcern/cairn/pkg/storage"
	"github.com/oneconcern/cairn/pkg/storage/status"
	"go.uber.org/zap"
)

const (
	symmPrefix    = "symm/"
	signingObject = "signing"
	saltObject    = "salt"
)

// KeyStore knows how to hold named symmetric keys and sign on behalf of the owner
type KeyStore interface {
	ImportSymmKey(ctx context.Context, name, key string) error
	ExportSymmKey(ctx context.Context, name string) (string, error)
	KeyExists(ctx context.Context, name string) (bool, error)
	Clear(ctx context.Context) error

	Sign(msg []byte) []byte
	Verify(pub ed25519.PublicKey, msg, sig []byte) bool
	PublicKey() ed25519.PublicKey
}

// Option for the key store
type Option func(*keyStore)

// Backend persists keys on a storage backend. Keys are otherwise kept in memory only.
func Backend(store storage.Store) Option {
	return func(k *keyStore) {
		k.backend = store
	}
}

// Passphrase seals persisted keys with a key derived from the passphrase
func Passphrase(passphrase []byte) Option {
	return func(k *keyStore) {
		k.passphrase = passphrase
	}
}

// Logger for the key store
func Logger(l *zap.Logger) Option {
	return func(k *keyStore) {
		if l != nil {
			k.l = l
		}
	}
}

var _ KeyStore = &keyStore{}

type keyStore struct {
	mx      sync.RWMutex
	symm    map[string]string
	signing ed25519.PrivateKey

	backend    storage.Store
	passphrase []byte
	kek        string
	l          *zap.Logger
}

// New builds a key store. When a backend is configured, the owner's signing key is
// loaded from it, or generated then persisted on first use.
func New(ctx context.Context, opts ...Option) (KeyStore, error) {
	k := &keyStore{
		symm: make(map[string]string),
		l:    dlogger.MustGetLogger(dlogger.LogLevelNone),
	}
	for _, apply := range opts {
		apply(k)
	}

	if k.backend != nil && len(k.passphrase) > 0 {
		if err := k.deriveKEK(ctx); err != nil {
			return nil, err
		}
	}

	if err := k.loadSigningKey(ctx); err != nil {
		return nil, err
	}
	return k, nil
}

func (k *keyStore) deriveKEK(ctx context.Context) error {
	salt, err := storage.ReadAll(ctx, k.backend, saltObject)
	switch {
	case errors.Is(err, status.ErrNotFound):
		params, erp := DefaultKDF()
		if erp != nil {
			return erp
		}
		if erp = storage.PutBytes(ctx, k.backend, saltObject, params.Salt, storage.NoOverWrite); erp != nil {
			return erp
		}
		salt = params.Salt
	case err != nil:
		return err
	}

	params, _ := DefaultKDF()
	params.Salt = salt
	k.kek = DeriveKey(k.passphrase, params)
	return nil
}

func (k *keyStore) loadSigningKey(ctx context.Context) error {
	if k.backend != nil {
		seed, err := k.readObject(ctx, signingObject)
		switch {
		case err == nil:
			raw, erd := base64.StdEncoding.DecodeString(seed)
			if erd != nil || len(raw) != ed25519.SeedSize {
				return ErrInvalidKey.WrapMessage("stored signing key is corrupted")
			}
			k.signing = ed25519.NewKeyFromSeed(raw)
			return nil
		case !errors.Is(err, status.ErrNotFound):
			return err
		}
	}

	_, priv, err := ed25519.GenerateKey(rand.Reader)
	if err != nil {
		return err
	}
	k.signing = priv

	if k.backend == nil {
		return nil
	}
	k.l.Debug("generated new signing key")
	return k.writeObject(ctx, signingObject, base64.StdEncoding.EncodeToString(priv.Seed()))
}

func (k *keyStore) readObject(ctx context.Context, name string) (string, error) {
	data, err := storage.ReadAll(ctx, k.backend, name)
	if err != nil {
		return "", err
	}
	if k.kek == "" {
		return string(data), nil
	}
	plain, err := Decrypt(k.kek, data)
	if err != nil {
		return "", err
	}
	return string(plain), nil
}

func (k *keyStore) writeObject(ctx context.Context, name, value string) error {
	data := []byte(value)
	if k.kek != "" {
		sealed, err := Encrypt(k.kek, data)
		if err != nil {
			return err
		}
		data = sealed
	}
	return storage.PutBytes(ctx, k.backend, name, data, storage.OverWrite)
}

func (k *keyStore) ImportSymmKey(ctx context.Context, name, key string) error {
	if _, err := DecodeKey(key); err != nil {
		return err
	}

	k.mx.Lock()
	defer k.mx.Unlock()

	if k.backend != nil {
		if err := k.writeObject(ctx, symmPrefix+name, key); err != nil {
			return err
		}
	}
	k.symm[name] = key
	return nil
}

func (k *keyStore) ExportSymmKey(ctx context.Context, name string) (string, error) {
	k.mx.RLock()
	key, ok := k.symm[name]
	k.mx.RUnlock()
	if ok {
		return key, nil
	}

	if k.backend == nil {
		return "", ErrKeyNotFound.WrapMessage(name)
	}

	key, err := k.readObject(ctx, symmPrefix+name)
	if err != nil {
		if errors.Is(err, status.ErrNotFound) {
			return "", ErrKeyNotFound.WrapMessage(name)
		}
		return "", err
	}

	k.mx.Lock()
	k.symm[name] = key
	k.mx.Unlock()
	return key, nil
}

func (k *keyStore) KeyExists(ctx context.Context, name string) (bool, error) {
	k.mx.RLock()
	_, ok := k.symm[name]
	k.mx.RUnlock()
	if ok || k.backend == nil {
		return ok, nil
	}
	return k.backend.Has(ctx, symmPrefix+name)
}

// Clear removes all symmetric keys. The signing key is retained.
func (k *keyStore) Clear(ctx context.Context) error {
	k.mx.Lock()
	defer k.mx.Unlock()

	k.symm = make(map[string]string)
	if k.backend == nil {
		return nil
	}

	keys, err := k.backend.Keys(ctx)
	if err != nil {
		return err
	}
	for _, name := range keys {
		if !strings.HasPrefix(name, symmPrefix) {
			continue
		}
		if err := k.backend.Delete(ctx, name); err != nil {
			return err
		}
	}
	return nil
}

func (k *keyStore) Sign(msg []byte) []byte {
	return ed25519.Sign(k.signing, msg)
}

func (k *keyStore) Verify(pub ed25519.PublicKey, msg, sig []byte) bool {
	if len(pub) != ed25519.PublicKeySize {
		return false
	}
	return ed25519.Verify(pub, msg, sig)
}

func (k *keyStore) PublicKey() ed25519.PublicKey {
	return k.signing.Public().(ed25519.PublicKey)
}
