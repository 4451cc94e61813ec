package cmd

import (
	"context"

	"go.uber.org/zap"

	"squeeze/config"
	"squeeze/converter"
	"squeeze/service"
	"squeeze/shared/log"
	"squeeze/shared/runner"
)

// application holds the wired dependencies shared by all commands.
type application struct {
	cfg    *config.Config
	logger *zap.Logger

	magick  *converter.Magick
	service *service.ImageService
}

func newApplication(ctx context.Context) (*application, error) {
	cfg, err := config.New()
	if err != nil {
		return nil, err
	}

	logger := log.InitLogger(ctx, cfg.LogLevel, cfg.OtelEnabled)

	r := runner.New(logger)
	magick := converter.MustMagick(r, cfg.IdentifyBin, cfg.ConvertBin, logger)
	gs := converter.MustGhostscript(r, cfg.GhostscriptBin)
	strategy := converter.MustStrategy(magick, gs, cfg.TempDir, logger)

	var store service.ObjectStore
	if cfg.S3Enabled() {
		s3Store, err := service.NewS3Store(cfg)
		if err != nil {
			return nil, err
		}
		store = s3Store
	}

	svc, err := service.NewImageService(store, cfg, strategy, logger)
	if err != nil {
		return nil, err
	}

	return &application{cfg: cfg, logger: logger, magick: magick, service: svc}, nil
}

func (a *application) close() {
	_ = a.logger.Sync()
}
