package converter

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/gabriel-vasile/mimetype"
	"go.uber.org/zap"

	"squeeze/converter/resolution"
	"squeeze/shared/log"
	"squeeze/shared/runner"
)

type Kind struct {
	s string
}

var (
	KindImage = Kind{"image"}
	KindPDF   = Kind{"pdf"}
)

func (k Kind) String() string {
	return k.s
}

// Options select what Apply does with a file. A zero Resolution converts
// without resizing.
type Options struct {
	Type       Type
	Resolution resolution.Resolution
	Quality    int
	Profile    Profile
}

type Strategy struct {
	magick *Magick
	gs     *Ghostscript

	tempDir string
	logger  *zap.Logger
}

func MustStrategy(magick *Magick, gs *Ghostscript, tempDir string, logger *zap.Logger) *Strategy {
	return &Strategy{magick: magick, gs: gs, tempDir: tempDir, logger: logger}
}

// Detect sniffs the file content, ignoring its extension.
func Detect(path string) (Kind, error) {
	mt, err := mimetype.DetectFile(path)
	if err != nil {
		return Kind{}, err
	}

	switch {
	case mt.Is("application/pdf"):
		return KindPDF, nil
	case strings.HasPrefix(mt.String(), "image/"):
		return KindImage, nil
	}

	return Kind{}, fmt.Errorf("%w: %s is %s", ErrUnsupported, filepath.Base(path), mt.String())
}

// Apply runs the pipeline for src and writes dst. Steps run one after
// another; the first unsuccessful result is returned as is.
func (s *Strategy) Apply(ctx context.Context, src, dst string, opts Options) (*runner.Result, error) {
	logger := log.LoggerWithTrace(ctx, s.logger)

	kind, err := Detect(src)
	if err != nil {
		return nil, err
	}

	target := opts.Type
	if target == (Type{}) {
		if target, err = FromPath(dst); err != nil {
			return nil, err
		}
	}

	logger.Debug("Applying strategy",
		zap.String("src", src),
		zap.String("kind", kind.String()),
		zap.String("target", target.String()),
	)

	switch {
	case kind == KindPDF && target == PDF:
		return s.gs.Compress(ctx, src, dst, opts.Profile)
	case kind == KindPDF:
		return nil, fmt.Errorf("%w: pdf to %s", ErrUnsupported, target)
	case target == PDF:
		return s.imageToPDF(ctx, src, dst, opts)
	default:
		return s.image(ctx, src, dst, opts)
	}
}

func (s *Strategy) image(ctx context.Context, src, dst string, opts Options) (*runner.Result, error) {
	if opts.Resolution.Width == 0 {
		return s.magick.Convert(ctx, src, dst)
	}
	return s.magick.Resize(ctx, src, dst, opts.Resolution, opts.Quality)
}

// imageToPDF goes through an intermediate JPEG so the PDF embeds a
// recompressed, resized image.
func (s *Strategy) imageToPDF(ctx context.Context, src, dst string, opts Options) (*runner.Result, error) {
	if err := os.MkdirAll(s.tempDir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create temp directory: %w", err)
	}
	dir, err := os.MkdirTemp(s.tempDir, "squeeze-*")
	if err != nil {
		return nil, fmt.Errorf("failed to create temp directory: %w", err)
	}
	defer os.RemoveAll(dir)

	intermediate := filepath.Join(dir, "page"+JPEG.Extension())
	res, err := s.image(ctx, src, intermediate, opts)
	if err != nil || !res.Success() {
		return res, err
	}

	return s.magick.Convert(ctx, intermediate, dst)
}
