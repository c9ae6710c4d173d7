package cmd

import (
	"context"
	"io"
	"os"

	"github.com/docker/go-units"
	"github.com/oneconcern/cairn/pkg/fs"
	"github.com/spf13/cobra"
)

var writeCmd = &cobra.Command{
	Use:   "write <path> [<local file>]",
	Short: "Write a file, then publish",
	Long: `Writes a file to public/ or private/, creating its missing parent directories, then publishes a new root.

The content is read from the local file, or from stdin when no local file is given.`,
	Example: `% cairn write public/index.html ./index.html
% echo "remember the milk" | cairn write private/notes/todo.md`,
	Args: cobra.RangeArgs(1, 2),
	Run: func(cmd *cobra.Command, args []string) {
		var (
			content []byte
			err     error
		)
		if len(args) > 1 {
			content, err = os.ReadFile(args[1])
		} else {
			content, err = io.ReadAll(os.Stdin)
		}
		if err != nil {
			wrapFatalln("could not read content", err)
			return
		}

		withFileSystem(func(ctx context.Context, f *fs.FileSystem) error {
			if err := f.Write(ctx, args[0], content); err != nil {
				return err
			}
			return publish(ctx, f)
		})
	},
}

var catCmd = &cobra.Command{
	Use:   "cat <path>",
	Short: "Print the content of a file",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		withFileSystem(func(ctx context.Context, f *fs.FileSystem) error {
			content, err := f.Read(ctx, args[0])
			if err != nil {
				return err
			}
			_, err = os.Stdout.Write(content)
			return err
		})
	},
}

var lsCmd = &cobra.Command{
	Use:   "ls [<path>]",
	Short: "List a directory",
	Long:  `Lists a directory of public/, pretty/ or private/. Defaults to public/.`,
	Args:  cobra.MaximumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		dir := "public/"
		if len(args) > 0 {
			dir = args[0]
		}
		withFileSystem(func(ctx context.Context, f *fs.FileSystem) error {
			entries, err := f.Ls(ctx, dir)
			if err != nil {
				return err
			}
			for _, entry := range entries {
				name := entry.Name
				if !entry.IsFile {
					name += "/"
				}
				logStdOut("%-10s %s\n", units.HumanSize(float64(entry.Size)), name)
			}
			return nil
		})
	},
}

var mkdirCmd = &cobra.Command{
	Use:   "mkdir <path>",
	Short: "Create a directory and its missing parents, then publish",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		withFileSystem(func(ctx context.Context, f *fs.FileSystem) error {
			if err := f.Mkdir(ctx, args[0]); err != nil {
				return err
			}
			return publish(ctx, f)
		})
	},
}

var rmCmd = &cobra.Command{
	Use:   "rm <path>",
	Short: "Remove a file or a directory, then publish",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		withFileSystem(func(ctx context.Context, f *fs.FileSystem) error {
			if err := f.Rm(ctx, args[0]); err != nil {
				return err
			}
			return publish(ctx, f)
		})
	},
}

func publish(ctx context.Context, f *fs.FileSystem) error {
	id, err := f.Publish(ctx)
	if err != nil {
		return err
	}
	infoLogger.Println("published", id)
	return nil
}

func init() {
	rootCmd.AddCommand(writeCmd)
	rootCmd.AddCommand(catCmd)
	rootCmd.AddCommand(lsCmd)
	rootCmd.AddCommand(mkdirCmd)
	rootCmd.AddCommand(rmCmd)
}
