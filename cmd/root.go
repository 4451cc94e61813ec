// Package cmd implements the squeeze command line using Cobra.
package cmd

import (
	"errors"
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

// exitCodeError carries the exit status of a failed external tool so the
// process can exit with the same code.
type exitCodeError struct {
	code int
	err  error
}

func (e *exitCodeError) Error() string {
	return e.err.Error()
}

func (e *exitCodeError) Unwrap() error {
	return e.err
}

func newRootCmd() *cobra.Command {
	var envFile string

	root := &cobra.Command{
		Use:   "squeeze",
		Short: "Resize, convert and compress images and PDFs",
		Long: `squeeze drives ImageMagick and Ghostscript to shrink images and PDFs.

Resize targets follow the source orientation: a 1920x1080 request becomes
1080x1920 for portrait images and 1080x1080 for square ones.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			if err := godotenv.Load(envFile); err != nil && !errors.Is(err, os.ErrNotExist) {
				return fmt.Errorf("load %s: %w", envFile, err)
			}
			return nil
		},
	}
	root.PersistentFlags().StringVar(&envFile, "env-file", ".env", "Environment file to load")

	root.AddCommand(
		newIdentifyCmd(),
		newResizeCmd(),
		newConvertCmd(),
		newCompressCmd(),
		newProcessCmd(),
		newServeCmd(),
	)

	return root
}

// Execute runs the root command.
func Execute() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)

		var exitErr *exitCodeError
		if errors.As(err, &exitErr) && exitErr.code > 0 {
			os.Exit(exitErr.code)
		}
		os.Exit(1)
	}
}
