package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

// newVisibilityCmd builds "hide" when hide is set and "unhide" otherwise.
func newVisibilityCmd(a *app, hide bool) *cobra.Command {
	use, short := "unhide <name>...", "Move hidden assets back into the gallery"
	if hide {
		use, short = "hide <name>...", "Move assets out of the public gallery"
	}

	return &cobra.Command{
		Use:   use,
		Short: short,
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			for _, name := range args {
				v, err := a.svc.SetHidden(cmd.Context(), name, hide)
				if err != nil {
					return fmt.Errorf("%s: %w", name, err)
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%s is now %s\n", name, v)
			}
			return nil
		},
	}
}
