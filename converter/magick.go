package converter

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"go.uber.org/zap"

	"squeeze/converter/resolution"
	"squeeze/shared/log"
	"squeeze/shared/runner"
)

var ErrInvalidQuality = errors.New("quality must be between 1 and 100")

// Magick drives the ImageMagick command line tools.
type Magick struct {
	runner   runner.Runner
	identify string
	convert  string

	logger *zap.Logger
}

func MustMagick(r runner.Runner, identifyBin, convertBin string, logger *zap.Logger) *Magick {
	return &Magick{runner: r, identify: identifyBin, convert: convertBin, logger: logger}
}

// Identify reads the pixel size of the first frame of path.
func (m *Magick) Identify(ctx context.Context, path string) (resolution.Dimensions, error) {
	res, err := m.runner.Run(ctx, m.identify, "-ping", "-format", "%wx%h|", path)
	if err != nil {
		return resolution.Dimensions{}, err
	}
	if err := res.Err(); err != nil {
		return resolution.Dimensions{}, err
	}

	return resolution.ParseIdentify(res.Stdout)
}

func (m *Magick) Convert(ctx context.Context, src, dst string) (*runner.Result, error) {
	return m.runner.Run(ctx, m.convert, src, dst)
}

// Resize shrinks src into dst, never upscaling. When the requested
// resolution carries a height the source is inspected first so that
// portrait and square images keep their orientation.
func (m *Magick) Resize(ctx context.Context, src, dst string, requested resolution.Resolution, quality int) (*runner.Result, error) {
	logger := log.LoggerWithTrace(ctx, m.logger)

	if quality < 1 || quality > 100 {
		return nil, fmt.Errorf("%w: got %d", ErrInvalidQuality, quality)
	}

	effective := requested
	if requested.HasHeight() {
		source, err := m.Identify(ctx, src)
		if err != nil {
			logger.Error("Error identifying image", zap.String("path", src), zap.Error(err))
			return nil, fmt.Errorf("identify %s: %w", src, err)
		}
		effective = resolution.Resolve(requested, source)

		logger.Debug("Resolved resolution",
			zap.String("source", source.String()),
			zap.String("orientation", source.Orientation().String()),
			zap.String("requested", requested.String()),
			zap.String("effective", effective.String()),
		)
	}

	return m.runner.Run(ctx, m.convert,
		"-resize", effective.Geometry(),
		"-strip",
		"-interlace", "Plane",
		"-quality", strconv.Itoa(quality)+"%",
		src,
		dst,
	)
}
