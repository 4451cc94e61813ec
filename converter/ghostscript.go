package converter

import (
	"context"

	"squeeze/shared/runner"
)

// Ghostscript rewrites PDFs through the pdfwrite device.
type Ghostscript struct {
	runner runner.Runner
	bin    string
}

func MustGhostscript(r runner.Runner, bin string) *Ghostscript {
	return &Ghostscript{runner: r, bin: bin}
}

func (g *Ghostscript) Compress(ctx context.Context, src, dst string, profile Profile) (*runner.Result, error) {
	return g.runner.Run(ctx, g.bin, compressArgs(src, dst, profile)...)
}

func compressArgs(src, dst string, profile Profile) []string {
	if profile == (Profile{}) {
		profile = Ebook
	}

	return []string{
		"-sDEVICE=pdfwrite",
		"-dCompatibilityLevel=1.4",
		"-dPDFSETTINGS=/" + profile.String(),
		"-dNOPAUSE",
		"-dQUIET",
		"-dBATCH",
		"-dDetectDuplicateImages=true",
		"-dConvertCMYKImagesToRGB=true",
		"-sOutputFile=" + dst,
		src,
	}
}
