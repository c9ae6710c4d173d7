package cmd

import (
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
)

var configSet = &cobra.Command{
	Aliases: []string{"create"},
	Use:     "set",
	Short:   "Create a local config file",
	Long: `Creates a local config file holding flags that do not change, like the state directory or the block store backend.

By default, this configuration file will be placed in ` + configFileLocation(false) + `.

Use the ` + envConfigLocation + ` environment variable to change this default target.
`,
	Example: `# Keep blocks in an embedded badger database
% cairn config set --backend badger
config file created in /home/me/.cairn/cairn.yaml

# Use a larger block cache, and copy every block to a second disk
% cairn config set --cache-size 256MiB --mirror /mnt/backup/cairn
config file created in /home/me/.cairn/cairn.yaml
`,
	Run: func(cmd *cobra.Command, args []string) {
		localConfig := *config
		localConfig.State = cairnFlags.root.state
		localConfig.Loglevel = cairnFlags.root.logLevel
		if cmd.Flags().Changed(backendFlag) {
			localConfig.Backend = cairnFlags.config.backend
		}
		if cmd.Flags().Changed(mirrorFlag) {
			localConfig.Mirror = cairnFlags.config.mirror
		}
		if cmd.Flags().Changed(cacheSizeFlag) {
			localConfig.Cachesize = cairnFlags.config.cacheSize
		}
		// never persist the passphrase
		localConfig.Passphrase = ""

		if err := localConfig.validate(); err != nil {
			wrapFatalln("invalid configuration", err)
			return
		}

		file := configFileLocation(true)
		if ext := filepath.Ext(file); ext != ".yaml" {
			infoLogger.Printf("warning: the generated config file will contain a yaml document, but the file extension is %q", ext)
		}
		o, err := localConfig.MarshalConfig()
		if err != nil {
			wrapFatalln("could not serialize config to yaml", err)
			return
		}

		if err = os.MkdirAll(filepath.Dir(file), 0700); err != nil {
			wrapFatalln("could not create directory to hold config "+filepath.Dir(file), err)
			return
		}
		if err = os.WriteFile(file, o, 0600); err != nil {
			wrapFatalln("error writing config file "+file, err)
			return
		}

		infoLogger.Printf("config file created in %s", file)
	},
}

func init() {
	addBackendFlag(configSet)
	addMirrorFlag(configSet)
	addCacheSizeFlag(configSet)
	configCmd.AddCommand(configSet)
}
