package keystore

import "github.com/oneconcern/cairn/pkg/errors"

var (
	// ErrInvalidKey indicates that some key material could not be decoded or has the wrong size
	ErrInvalidKey = errors.New("invalid key")

	// ErrKeyNotFound indicates that no key is stored under the requested name
	ErrKeyNotFound = errors.New("key not found")

	// ErrDecrypt indicates that a ciphertext could not be opened with the given key
	ErrDecrypt = errors.New("cannot decrypt")
)
