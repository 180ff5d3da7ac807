package main

import (
	"fmt"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"
)

func newListCmd(a *app) *cobra.Command {
	var all bool

	cmd := &cobra.Command{
		Use:     "list",
		Short:   "List assets, newest first",
		Aliases: []string{"ls"},
		Long: `List assets in a table, newest first.

Examples:
  gallery list
  gallery list --all`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			assets, err := a.svc.List(cmd.Context(), all)
			if err != nil {
				return err
			}

			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "NAME\tTYPE\tSIZE\tCREATED\tVISIBILITY")
			for _, asset := range assets {
				fmt.Fprintf(w, "%s\t%s\t%d\t%s\t%s\n",
					asset.Name,
					asset.Kind,
					asset.Size,
					asset.CreatedAt.Format(time.RFC3339),
					asset.Visibility,
				)
			}
			return w.Flush()
		},
	}

	cmd.Flags().BoolVarP(&all, "all", "a", false, "Include hidden assets")
	return cmd
}
