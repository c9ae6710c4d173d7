package cmd

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/docker/go-units"
	"github.com/oneconcern/cairn/pkg/cafs"
	"github.com/oneconcern/cairn/pkg/dlogger"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v2"
)

const (
	backendLocalFS = "localfs"
	backendBadger  = "badger"
)

// CLIConfig describes the CLI configuration.
type CLIConfig struct {
	// keep the names of fields the same as the serialized names, for viper to unmarshal them
	State      string `json:"state" yaml:"state"`           // state directory of this device
	Backend    string `json:"backend" yaml:"backend"`       // block store backend: localfs or badger
	Mirror     string `json:"mirror" yaml:"mirror"`         // optional directory receiving a copy of every block
	Cachesize  string `json:"cachesize" yaml:"cachesize"`   // size of the block cache, e.g. "64MiB"
	Loglevel   string `json:"loglevel" yaml:"loglevel"`     // none, info or debug
	Passphrase string `json:"passphrase" yaml:"passphrase"` // seals the key store at rest
}

func setConfigDefaults(v *viper.Viper) {
	v.SetDefault("state", defaultStateDir())
	v.SetDefault("backend", backendLocalFS)
	v.SetDefault("mirror", "")
	v.SetDefault("cachesize", units.BytesSize(float64(cafs.DefaultCacheSize)))
	v.SetDefault("loglevel", dlogger.LogLevelNone)
	v.SetDefault("passphrase", "")
}

func defaultStateDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".cairn"
	}
	return filepath.Join(home, ".cairn", "state")
}

func newConfig(v *viper.Viper) (*CLIConfig, error) {
	var config CLIConfig
	if err := v.Unmarshal(&config); err != nil {
		return nil, err
	}
	if err := config.validate(); err != nil {
		return nil, err
	}
	return &config, nil
}

func (c *CLIConfig) validate() error {
	switch c.Backend {
	case backendLocalFS, backendBadger:
	default:
		return fmt.Errorf("unsupported backend %q: expected %q or %q", c.Backend, backendLocalFS, backendBadger)
	}
	if _, err := c.CacheBytes(); err != nil {
		return fmt.Errorf("invalid cache size %q: %w", c.Cachesize, err)
	}
	switch c.Loglevel {
	case dlogger.LogLevelNone, dlogger.LogLevelInfo, dlogger.LogLevelDebug:
	default:
		return fmt.Errorf("unsupported log level %q", c.Loglevel)
	}
	return nil
}

// CacheBytes is the size of the block cache in bytes. A zero size disables the cache.
func (c *CLIConfig) CacheBytes() (int, error) {
	if c.Cachesize == "" {
		return cafs.DefaultCacheSize, nil
	}
	size, err := units.RAMInBytes(c.Cachesize)
	if err != nil {
		return 0, err
	}
	if size == 0 {
		return -1, nil
	}
	return int(size), nil
}

// MarshalConfig renders the configuration as a yaml document
func (c *CLIConfig) MarshalConfig() ([]byte, error) {
	return yaml.Marshal(c)
}

// setCairnParams fills flags left unset from the configuration
func (c *CLIConfig) setCairnParams(flags *flagsT) {
	if flags.root.state == "" {
		flags.root.state = c.State
	}
	if flags.root.logLevel == "" {
		flags.root.logLevel = c.Loglevel
	}
}

func configFileLocation(expand bool) string {
	if location := os.Getenv(envConfigLocation); location != "" {
		return location
	}
	if !expand {
		return filepath.Join("$HOME", ".cairn", "cairn.yaml")
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "cairn.yaml"
	}
	return filepath.Join(home, ".cairn", "cairn.yaml")
}

// configCmd represents the config related commands
var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Commands to manage a config",
	Long: `Commands to manage the cairn CLI config.

Configuration for cairn is the common set of flags that are needed for most commands and do not change across runs,
analogous to "git config ...". `,
}

func init() {
	rootCmd.AddCommand(configCmd)
}
