package cmd

import (
	"context"

	"github.com/oneconcern/cairn/pkg/cafs"
	"github.com/oneconcern/cairn/pkg/fs"
	"github.com/spf13/cobra"
)

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Create a new file system on this device",
	Long: `Creates a new, empty file system and publishes its first root.

The key of the private branch is generated and kept in the key store of this device.
Use CAIRN_PASSPHRASE to seal the key store at rest.`,
	Example: `% cairn init --sample
ab01...`,
	Run: func(cmd *cobra.Command, args []string) {
		ctx := context.Background()
		state, err := openState(ctx, config, cairnFlags)
		if err != nil {
			wrapFatalln("could not open device state", err)
			return
		}
		defer func() {
			_ = state.Close()
		}()

		_, exists, err := state.head()
		if err != nil {
			state.fatal("could not read the current root", err)
			return
		}
		if exists && !cairnFlags.init.force {
			state.fatal("a file system already exists on this device, use --force to replace it", nil)
			return
		}

		f, err := fs.Empty(ctx, state.options()...)
		if err != nil {
			state.fatal("could not create file system", err)
			return
		}

		var id cafs.Key
		if cairnFlags.init.sample {
			id, err = fs.AddSampleData(ctx, f)
		} else {
			id, err = f.Publish(ctx)
		}
		if err != nil {
			state.fatal("could not publish file system", err)
			return
		}
		logStdOut("%s\n", id)
	},
}

func init() {
	addSampleFlag(initCmd)
	addForceFlag(initCmd)
	rootCmd.AddCommand(initCmd)
}
