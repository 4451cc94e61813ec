package cmd

import (
	"github.com/spf13/cobra"

	"squeeze/api/model"
	"squeeze/converter"
)

func newCompressCmd() *cobra.Command {
	var profile string

	cmd := &cobra.Command{
		Use:   "compress <src.pdf> <dst.pdf>",
		Short: "Rewrite a PDF with a Ghostscript quality profile",
		Long: `Profiles:
  screen    72 dpi, smallest output
  ebook     150 dpi (default)
  prepress  300 dpi, colour preserving
  printer   300 dpi
  default   general purpose, possibly larger output`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runJob(cmd, model.Job{
				Source:      args[0],
				Destination: args[1],
				Type:        converter.PDF.String(),
				Profile:     profile,
				NoResize:    true,
			})
		},
	}

	cmd.Flags().StringVarP(&profile, "profile", "p", "", "Distiller profile (default DEFAULT_PROFILE)")

	return cmd
}
