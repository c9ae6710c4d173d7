package cmd

import (
	"context"

	"github.com/fatih/color"
	"github.com/oneconcern/cairn/pkg/cafs"
	"github.com/oneconcern/cairn/pkg/fs"
	"github.com/oneconcern/cairn/pkg/fs/reconcile"
	"github.com/spf13/cobra"
)

var relationColors = map[reconcile.Relation]*color.Color{
	reconcile.UpToDate:    color.New(color.FgGreen),
	reconcile.FastForward: color.New(color.FgCyan),
	reconcile.Push:        color.New(color.FgYellow),
	reconcile.Diverged:    color.New(color.FgRed, color.Bold),
}

var reconcileCmd = &cobra.Command{
	Use:   "reconcile <remote root>",
	Short: "Compare the public history of this device with another root",
	Long: `Finds the last public version shared by the current root of this device and another root,
then tells how they relate:
	* up-to-date: both roots share the same public tree
	* fast-forward: the other root is ahead of this device
	* push: this device is ahead of the other root
	* diverged: both have changes the other lacks
`,
	Args: cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		remote, err := cafs.KeyFromString(args[0])
		if err != nil {
			wrapFatalln("invalid root", err)
			return
		}

		withFileSystem(func(ctx context.Context, f *fs.FileSystem) error {
			point, err := f.DivergencePoint(ctx, remote)
			if err != nil {
				return err
			}
			relation := point.Relation()
			logStdOut("%s\n", relationColors[relation].Sprint(relation.String()))
			logStdOut("common:  %s\n", point.Common.ID())
			logStdOut("local:   %d version(s) ahead\n", len(point.FutureLocal))
			logStdOut("remote:  %d version(s) ahead\n", len(point.FutureRemote))
			return nil
		})
	},
}

func init() {
	rootCmd.AddCommand(reconcileCmd)
}
