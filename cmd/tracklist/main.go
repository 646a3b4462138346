package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/five82/tracklist/internal/app"
	"github.com/five82/tracklist/internal/backup"
)

func main() {
	os.Exit(run())
}

func run() int {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if err := newRootCmd(os.Stdin, os.Stdout).ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "tracklist: %v\n", err)
		return 1
	}
	return 0
}

func newRootCmd(in io.Reader, out io.Writer) *cobra.Command {
	var opts app.Options

	root := &cobra.Command{
		Use:           "tracklist",
		Short:         "Grocery and task lists in the terminal",
		Long:          "tracklist keeps a grocery list with purchase history and a task list with due dates,\nbacked by the list service API.",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return app.Run(cmd.Context(), opts)
		},
	}
	root.SetIn(in)
	root.SetOut(out)

	flags := root.PersistentFlags()
	flags.StringVar(&opts.ConfigPath, "config", "", "config file path (default ~/.config/tracklist/config.toml)")
	flags.StringVar(&opts.PrefsPath, "prefs", "", "preferences file path (default ~/.config/tracklist/prefs.toml)")
	flags.StringVar(&opts.Page, "page", "", "page to open: home, groceries or tasks (default: last page)")

	root.AddCommand(newExportCmd(&opts), newImportCmd(&opts))
	return root
}

func newExportCmd(opts *app.Options) *cobra.Command {
	return &cobra.Command{
		Use:   "export [file]",
		Short: "Write groceries and tasks to a JSON backup",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var path string
			if len(args) == 1 {
				path = args[0]
			}
			written, err := app.Export(cmd.Context(), *opts, path)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Data exported to %s\n", written)
			return nil
		},
	}
}

func newImportCmd(opts *app.Options) *cobra.Command {
	var yes bool
	cmd := &cobra.Command{
		Use:   "import <file>",
		Short: "Replace groceries and tasks with a JSON backup",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			confirm := promptConfirm(cmd.InOrStdin(), cmd.OutOrStdout())
			if yes {
				confirm = nil
			}
			err := app.Import(cmd.Context(), *opts, args[0], confirm)
			if errors.Is(err, app.ErrImportCancelled) {
				fmt.Fprintln(cmd.OutOrStdout(), "Import cancelled")
				return nil
			}
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Data imported successfully!")
			return nil
		},
	}
	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "skip the confirmation prompt")
	return cmd
}

func promptConfirm(in io.Reader, out io.Writer) func(backup.Snapshot) (bool, error) {
	return func(s backup.Snapshot) (bool, error) {
		fmt.Fprintf(out, "This will replace all current data with %d groceries and %d tasks. Continue? [y/N] ",
			len(s.Groceries), len(s.Tasks))
		line, err := bufio.NewReader(in).ReadString('\n')
		if err != nil && !errors.Is(err, io.EOF) {
			return false, fmt.Errorf("read confirmation: %w", err)
		}
		answer := strings.ToLower(strings.TrimSpace(line))
		return answer == "y" || answer == "yes", nil
	}
}
