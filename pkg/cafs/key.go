package cafs

import (
	"encoding/hex"
	"fmt"

	blake2b "github.com/minio/blake2b-simd"
)

const (
	// KeySize for blake2b algo
	KeySize = 64

	// KeySizeHex for hex representation of a key
	KeySizeHex = 2 * KeySize
)

// Key type for CAFS keys, i.e. content ids
type Key [KeySize]byte

// NilKey is the zero key, never produced by hashing
var NilKey Key

// Sum computes the key of a block of data
func Sum(data []byte) Key {
	return Key(blake2b.Sum512(data))
}

// NewKey creates a new key from data
func NewKey(data []byte) (Key, error) {
	var k Key
	n := copy(k[:], data)
	if n != KeySize {
		return Key{}, &BadKeySize{Key: data}
	}
	return k, nil
}

// MustNewKey creates a new key from data but panics if there is an error
func MustNewKey(data []byte) Key {
	k, e := NewKey(data)
	if e != nil {
		panic(e.Error())
	}
	return k
}

// KeyFromString parses the hex representation of a key
func KeyFromString(s string) (Key, error) {
	if len(s) != KeySizeHex {
		return Key{}, &BadKeySize{Key: []byte(s)}
	}
	data, err := hex.DecodeString(s)
	if err != nil {
		return Key{}, fmt.Errorf("invalid key %q: %v", s, err)
	}
	return NewKey(data)
}

func (k Key) String() string {
	return hex.EncodeToString(k[:])
}

// IsNil tells if this is the zero key
func (k Key) IsNil() bool {
	return k == NilKey
}

// StringWithPrefix renders the storage path for this key: blocks are sharded by their first byte
func (k Key) StringWithPrefix(prefix string) string {
	s := k.String()
	return prefix + s[:2] + "/" + s
}

// MarshalText renders keys as hex in json documents
func (k Key) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

// UnmarshalText parses hex keys from json documents
func (k *Key) UnmarshalText(data []byte) error {
	parsed, err := KeyFromString(string(data))
	if err != nil {
		return err
	}
	*k = parsed
	return nil
}

// MarshalYAML renders keys as hex in yaml documents
func (k Key) MarshalYAML() (interface{}, error) {
	return k.String(), nil
}

// UnmarshalYAML parses hex keys from yaml documents
func (k *Key) UnmarshalYAML(unmarshal func(interface{}) error) error {
	var s string
	if err := unmarshal(&s); err != nil {
		return err
	}
	return k.UnmarshalText([]byte(s))
}

// BadKeySize is an error that's returned when the key to create has an invalid size.
type BadKeySize struct {
	Key []byte
}

func (b *BadKeySize) Error() string {
	return fmt.Sprintf("%x has invalid size of %d, expected %d", b.Key, len(b.Key), KeySize)
}
