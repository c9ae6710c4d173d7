package cmd

import (
	"github.com/oneconcern/cairn/pkg/model"
	"github.com/spf13/cobra"
)

type flagsT struct {
	root struct {
		state    string
		logLevel string
		grants   []string
	}
	config struct {
		backend   string
		mirror    string
		cacheSize string
	}
	init struct {
		sample bool
		force  bool
	}
	log struct {
		private bool
	}
}

var cairnFlags = flagsT{}

const (
	backendFlag   = "backend"
	mirrorFlag    = "mirror"
	cacheSizeFlag = "cache-size"
)

func addStateFlag(cmd *cobra.Command) string {
	state := "state"
	cmd.PersistentFlags().StringVar(&cairnFlags.root.state, state, "", "The state directory of this device. Defaults to $HOME/.cairn/state")
	return state
}

func addLogLevelFlag(cmd *cobra.Command) string {
	logLevel := "loglevel"
	cmd.PersistentFlags().StringVar(&cairnFlags.root.logLevel, logLevel, "", "The logging level: none, info or debug")
	return logLevel
}

func addGrantFlag(cmd *cobra.Command) string {
	grant := "grant"
	cmd.PersistentFlags().StringSliceVar(&cairnFlags.root.grants, grant, nil,
		"Restrict the private paths loaded, relative to private/. A trailing slash denotes a directory. Defaults to the whole private branch")
	return grant
}

func addBackendFlag(cmd *cobra.Command) string {
	cmd.Flags().StringVar(&cairnFlags.config.backend, backendFlag, backendLocalFS, "The block store backend: localfs or badger")
	return backendFlag
}

func addMirrorFlag(cmd *cobra.Command) string {
	cmd.Flags().StringVar(&cairnFlags.config.mirror, mirrorFlag, "", "A directory receiving a copy of every block")
	return mirrorFlag
}

func addCacheSizeFlag(cmd *cobra.Command) string {
	cmd.Flags().StringVar(&cairnFlags.config.cacheSize, cacheSizeFlag, "", "The size of the block cache, e.g. 64MiB. Zero disables the cache")
	return cacheSizeFlag
}

func addSampleFlag(cmd *cobra.Command) string {
	sample := "sample"
	cmd.Flags().BoolVar(&cairnFlags.init.sample, sample, false, "Create the sample private directories")
	return sample
}

func addForceFlag(cmd *cobra.Command) string {
	force := "force"
	cmd.Flags().BoolVar(&cairnFlags.init.force, force, false, "Replace the current root of this device")
	return force
}

func addPrivateLogFlag(cmd *cobra.Command) string {
	private := "private"
	cmd.Flags().BoolVar(&cairnFlags.log.private, private, false, "Print the hashes of the private log instead of the published roots")
	return private
}

// permissions built from the grant flags, if any
func (f flagsT) permissions() (model.Permissions, bool) {
	if len(f.root.grants) == 0 {
		return model.Permissions{}, false
	}
	return model.Permissions{Public: []string{""}, Private: f.root.grants}, true
}
