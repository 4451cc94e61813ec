package cmd

import (
	"fmt"
	"io"
	"strings"

	"github.com/dustin/go-humanize"

	"squeeze/api/model"
	"squeeze/service"
)

func printResult(w io.Writer, res *model.Result) {
	if res.Err != nil {
		fmt.Fprintf(w, "✗ %s: %v\n", res.Source, res.Err)
		return
	}
	if !res.Success() {
		fmt.Fprintf(w, "✗ %s → %s: %s exited with code %d\n", res.Source, res.Destination, res.Tool, res.ExitCode)
		if msg := strings.TrimSpace(res.Stderr); msg != "" {
			fmt.Fprintf(w, "  %s\n", msg)
		}
		return
	}

	saved := fmt.Sprintf("saved %s, %.1f%%", humanize.Bytes(uint64(max(res.SavedSpace, 0))), res.CompressionRatio)
	if res.SavedSpace <= 0 {
		saved = "no reduction"
	}
	fmt.Fprintf(w, "✓ %s → %s: %s → %s (%s) in %s\n",
		res.Source, res.Destination,
		humanize.Bytes(uint64(res.OriginalSize)), humanize.Bytes(uint64(res.OutputSize)),
		saved, res.Duration.Round(1e6),
	)
}

// resultError turns an unsuccessful result into the command's error,
// keeping the tool's exit code.
func resultError(res *model.Result) error {
	err := service.ExitError(res)
	if err == nil {
		return nil
	}
	return &exitCodeError{code: res.ExitCode, err: err}
}
