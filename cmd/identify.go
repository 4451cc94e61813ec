package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newIdentifyCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "identify <file>",
		Short: "Print the pixel size and orientation of an image",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := newApplication(cmd.Context())
			if err != nil {
				return err
			}
			defer app.close()

			d, err := app.magick.Identify(cmd.Context(), args[0])
			if err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "%s %s\n", d, d.Orientation())
			return nil
		},
	}
}
