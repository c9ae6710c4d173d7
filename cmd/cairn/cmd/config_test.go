package cmd

import (
	"bytes"
	"testing"

	"github.com/oneconcern/cairn/pkg/cafs"
	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func parseConfig(t testing.TB, doc string) (*CLIConfig, error) {
	v := viper.New()
	setConfigDefaults(v)
	v.SetConfigType("yaml")
	v.SetEnvPrefix("cairn")
	v.AutomaticEnv()
	require.NoError(t, v.ReadConfig(bytes.NewBufferString(doc)))
	return newConfig(v)
}

func TestConfig_Defaults(t *testing.T) {
	cfg, err := parseConfig(t, "")
	require.NoError(t, err)

	assert.Equal(t, backendLocalFS, cfg.Backend)
	assert.NotEmpty(t, cfg.State)
	size, err := cfg.CacheBytes()
	require.NoError(t, err)
	assert.Equal(t, cafs.DefaultCacheSize, size)
}

func TestConfig_File(t *testing.T) {
	cfg, err := parseConfig(t, `
state: /var/lib/cairn
backend: badger
mirror: /mnt/backup
cachesize: 64MiB
loglevel: debug
`)
	require.NoError(t, err)

	assert.Equal(t, "/var/lib/cairn", cfg.State)
	assert.Equal(t, backendBadger, cfg.Backend)
	assert.Equal(t, "/mnt/backup", cfg.Mirror)
	assert.Equal(t, "debug", cfg.Loglevel)
	size, err := cfg.CacheBytes()
	require.NoError(t, err)
	assert.Equal(t, 64*1024*1024, size)
}

func TestConfig_DisabledCache(t *testing.T) {
	cfg, err := parseConfig(t, "cachesize: 0\n")
	require.NoError(t, err)
	size, err := cfg.CacheBytes()
	require.NoError(t, err)
	assert.Equal(t, -1, size)
}

func TestConfig_Env(t *testing.T) {
	t.Setenv("CAIRN_BACKEND", backendBadger)
	t.Setenv("CAIRN_PASSPHRASE", "correct horse")

	cfg, err := parseConfig(t, "backend: localfs\n")
	require.NoError(t, err)
	assert.Equal(t, backendBadger, cfg.Backend)
	assert.Equal(t, "correct horse", cfg.Passphrase)
}

func TestConfig_Invalid(t *testing.T) {
	for _, doc := range []string{
		"backend: s3\n",
		"cachesize: lots\n",
		"loglevel: verbose\n",
	} {
		_, err := parseConfig(t, doc)
		assert.Error(t, err, doc)
	}
}

func TestConfig_Marshal(t *testing.T) {
	cfg := CLIConfig{State: "/tmp/cairn", Backend: backendBadger, Cachesize: "1GiB", Loglevel: "info"}
	doc, err := cfg.MarshalConfig()
	require.NoError(t, err)

	parsed, err := parseConfig(t, string(doc))
	require.NoError(t, err)
	assert.Equal(t, cfg, *parsed)
}
