package cmd

import (
	"context"

	"github.com/oneconcern/cairn/pkg/fs"
	"github.com/spf13/cobra"
)

var logCmd = &cobra.Command{
	Use:   "log",
	Short: "Print the history of this device",
	Long: `Prints the roots published by this device, newest first.

With --private, prints the private log of the current root instead: the hashes of all
versions of the private index, oldest first.`,
	Run: func(cmd *cobra.Command, args []string) {
		if cairnFlags.log.private {
			withFileSystem(func(ctx context.Context, f *fs.FileSystem) error {
				entries, err := f.Root().PrivateLogEntries(ctx)
				if err != nil {
					return err
				}
				for _, entry := range entries {
					logStdOut("%s\n", entry)
				}
				return nil
			})
			return
		}

		state, err := openState(context.Background(), config, cairnFlags)
		if err != nil {
			wrapFatalln("could not open device state", err)
			return
		}
		defer func() {
			_ = state.Close()
		}()

		roots, err := state.roots()
		if err != nil {
			state.fatal("could not read published roots", err)
			return
		}
		for _, id := range roots {
			logStdOut("%s\n", id)
		}
	},
}

func init() {
	addPrivateLogFlag(logCmd)
	rootCmd.AddCommand(logCmd)
}
