package main

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"gallery/internal/archive"
)

func newExportCmd(a *app) *cobra.Command {
	var (
		all    bool
		output string
	)

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Write assets to a zip archive",
		Long: `Write assets to a zip archive. Hidden assets go under hidden/.

Examples:
  gallery export -o backup.zip
  gallery export --all > backup.zip`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			assets, err := a.svc.List(cmd.Context(), all)
			if err != nil {
				return err
			}

			var (
				w io.Writer = cmd.OutOrStdout()
				f *os.File
			)
			if output != "" {
				f, err = os.Create(output)
				if err != nil {
					return fmt.Errorf("failed to create %s: %w", output, err)
				}
				w = f
			}

			stats, err := archive.WriteZip(cmd.Context(), w, a.store, assets)
			if f != nil {
				if cerr := f.Close(); err == nil && cerr != nil {
					err = fmt.Errorf("failed to close %s: %w", output, cerr)
				}
			}
			if err != nil {
				return err
			}
			if output != "" {
				fmt.Fprintf(cmd.OutOrStdout(), "exported %d assets (%d bytes) to %s\n", stats.Files, stats.Bytes, output)
			}
			return nil
		},
	}

	cmd.Flags().BoolVarP(&all, "all", "a", false, "Include hidden assets")
	cmd.Flags().StringVarP(&output, "output", "o", "", "Archive path (defaults to stdout)")
	return cmd
}
