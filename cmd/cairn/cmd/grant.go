package cmd

import (
	"context"

	"github.com/oneconcern/cairn/pkg/fs"
	"github.com/spf13/cobra"
)

var grantCmd = &cobra.Command{
	Use:   "grant <private path>",
	Short: "Keep the key of a private path on this device",
	Long: `Stores the key of a private file or directory in the key store of this device.

Later commands run with --grant restricted to this path may then read and write below it,
without access to the rest of the private branch.`,
	Example: `% cairn grant private/Documents/
% cairn --grant Documents/ cat private/Documents/todo.md`,
	Args: cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		withFileSystem(func(ctx context.Context, f *fs.FileSystem) error {
			return f.Grant(ctx, args[0])
		})
	},
}

func init() {
	rootCmd.AddCommand(grantCmd)
}
