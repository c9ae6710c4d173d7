package keystore

import (
	"testing"

	"github.com/oneconcern/cairn/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEncryptDecrypt(t *testing.T) {
	key := MustGenerateKey()
	plaintext := []byte("private content")

	sealed, err := Encrypt(key, plaintext)
	require.NoError(t, err)
	assert.NotContains(t, string(sealed), "private content")

	again, err := Encrypt(key, plaintext)
	require.NoError(t, err)
	assert.NotEqual(t, sealed, again, "nonces must be random")

	opened, err := Decrypt(key, sealed)
	require.NoError(t, err)
	assert.Equal(t, plaintext, opened)
}

func TestDecrypt_WrongKey(t *testing.T) {
	sealed, err := Encrypt(MustGenerateKey(), []byte("secret"))
	require.NoError(t, err)

	_, err = Decrypt(MustGenerateKey(), sealed)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrDecrypt))

	_, err = Decrypt(MustGenerateKey(), sealed[:10])
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrDecrypt))
}

func TestDecodeKey(t *testing.T) {
	_, err := DecodeKey("not base64!")
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrInvalidKey))

	_, err = DecodeKey("c2hvcnQ=")
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrInvalidKey))

	raw, err := DecodeKey(MustGenerateKey())
	require.NoError(t, err)
	assert.Len(t, raw, KeySize)
}

func TestDeriveKey(t *testing.T) {
	params, err := DefaultKDF()
	require.NoError(t, err)
	params.M = 1024

	a := DeriveKey([]byte("correct horse"), params)
	b := DeriveKey([]byte("correct horse"), params)
	c := DeriveKey([]byte("battery staple"), params)
	assert.Equal(t, a, b)
	assert.NotEqual(t, a, c)

	_, err = DecodeKey(a)
	require.NoError(t, err)
}
