package keystore

import (
	"crypto/rand"
	"encoding/base64"

	xchacha "golang.org/x/crypto/chacha20poly1305"
	"golang.org/x/crypto/argon2"
)

// KeySize is the size in bytes of symmetric keys
const KeySize = xchacha.KeySize

// KDFParams tune the argon2id derivation of keys from passphrases
type KDFParams struct {
	M    uint32
	T    uint32
	P    uint8
	Salt []byte
}

// DefaultKDF yields derivation parameters with a fresh random salt
func DefaultKDF() (KDFParams, error) {
	salt := make([]byte, 32)
	if _, err := rand.Read(salt); err != nil {
		return KDFParams{}, err
	}
	return KDFParams{M: 64 * 1024, T: 3, P: 4, Salt: salt}, nil
}

// GenerateKey returns a new random symmetric key, base64 encoded
func GenerateKey() (string, error) {
	key := make([]byte, KeySize)
	if _, err := rand.Read(key); err != nil {
		return "", err
	}
	return base64.StdEncoding.EncodeToString(key), nil
}

// MustGenerateKey returns a new random symmetric key or panics
func MustGenerateKey() string {
	key, err := GenerateKey()
	if err != nil {
		panic(err)
	}
	return key
}

// DeriveKey derives a symmetric key from a passphrase, base64 encoded
func DeriveKey(passphrase []byte, p KDFParams) string {
	key := argon2.IDKey(passphrase, p.Salt, p.T, p.M, p.P, KeySize)
	defer zero(key)
	return base64.StdEncoding.EncodeToString(key)
}

// DecodeKey decodes a base64 symmetric key
func DecodeKey(key string) ([]byte, error) {
	raw, err := base64.StdEncoding.DecodeString(key)
	if err != nil {
		return nil, ErrInvalidKey.Wrap(err)
	}
	if len(raw) != KeySize {
		return nil, ErrInvalidKey.WrapMessage("symmetric keys must be 32 bytes long")
	}
	return raw, nil
}

// Encrypt seals some plaintext with a base64 symmetric key
func Encrypt(key string, plaintext []byte) ([]byte, error) {
	raw, err := DecodeKey(key)
	if err != nil {
		return nil, err
	}
	defer zero(raw)

	aead, err := xchacha.NewX(raw)
	if err != nil {
		return nil, ErrInvalidKey.Wrap(err)
	}
	nonce := make([]byte, xchacha.NonceSizeX, xchacha.NonceSizeX+len(plaintext)+aead.Overhead())
	if _, err := rand.Read(nonce); err != nil {
		return nil, err
	}
	return aead.Seal(nonce, nonce, plaintext, nil), nil
}

// Decrypt opens a ciphertext sealed by Encrypt
func Decrypt(key string, ciphertext []byte) ([]byte, error) {
	raw, err := DecodeKey(key)
	if err != nil {
		return nil, err
	}
	defer zero(raw)

	aead, err := xchacha.NewX(raw)
	if err != nil {
		return nil, ErrInvalidKey.Wrap(err)
	}
	if len(ciphertext) < xchacha.NonceSizeX+aead.Overhead() {
		return nil, ErrDecrypt.WrapMessage("ciphertext too short")
	}
	plaintext, err := aead.Open(nil, ciphertext[:xchacha.NonceSizeX], ciphertext[xchacha.NonceSizeX:], nil)
	if err != nil {
		return nil, ErrDecrypt.Wrap(err)
	}
	return plaintext, nil
}

func zero(b []byte) {
	for i := range b {
		b[i] = 0
	}
}
