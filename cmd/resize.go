package cmd

import (
	"github.com/spf13/cobra"

	"squeeze/api/model"
)

func newResizeCmd() *cobra.Command {
	var (
		res     string
		quality int
		typ     string
	)

	cmd := &cobra.Command{
		Use:   "resize <src> <dst>",
		Short: "Shrink an image to a resolution that follows its orientation",
		Long: `Resizes src into dst without upscaling, stripping metadata and writing a
progressive file. With WIDTHxHEIGHT the source is inspected first and the
pair is swapped for portrait images or collapsed to HEIGHTxHEIGHT for
square ones. A bare WIDTH is passed through unchanged.`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runJob(cmd, model.Job{
				Source:      args[0],
				Destination: args[1],
				Resolution:  res,
				Quality:     quality,
				Type:        typ,
			})
		},
	}

	cmd.Flags().StringVarP(&res, "resolution", "r", "", "Target resolution, WIDTHxHEIGHT or WIDTH (default DEFAULT_RESOLUTION)")
	cmd.Flags().IntVarP(&quality, "quality", "q", 0, "Output quality 1-100 (default DEFAULT_QUALITY)")
	cmd.Flags().StringVarP(&typ, "type", "t", "", "Output type (default: from dst extension)")

	return cmd
}

func newConvertCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "convert <src> <dst>",
		Short: "Convert between formats without resizing",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runJob(cmd, model.Job{
				Source:      args[0],
				Destination: args[1],
				NoResize:    true,
			})
		},
	}
}

func runJob(cmd *cobra.Command, job model.Job) error {
	app, err := newApplication(cmd.Context())
	if err != nil {
		return err
	}
	defer app.close()

	res, err := app.service.Process(cmd.Context(), job)
	if err != nil {
		return err
	}

	printResult(cmd.OutOrStdout(), res)
	return resultError(res)
}
