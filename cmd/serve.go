package cmd

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/contrib/fiberzap/v2"
	"github.com/gofiber/contrib/otelfiber/v2"
	"github.com/gofiber/contrib/swagger"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/compress"
	"github.com/gofiber/fiber/v2/middleware/etag"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/hyperdxio/otel-config-go/otelconfig"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"squeeze/api/rest"
	"squeeze/shared/runner"
	"squeeze/shared/trace"
)

const shutdownTimeout = 10 * time.Second

func newServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Serve the conversion API over HTTP",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, cancel := signal.NotifyContext(cmd.Context(), syscall.SIGTERM, syscall.SIGINT)
			defer cancel()

			app, err := newApplication(ctx)
			if err != nil {
				return err
			}
			defer app.close()
			logger := app.logger

			if app.cfg.TraceStdout {
				tp, err := trace.InitTrace()
				if err != nil {
					return err
				}
				defer func() {
					if err := tp.Shutdown(context.Background()); err != nil {
						logger.Error("Error shutting down tracer provider", zap.Error(err))
					}
				}()
			}

			if app.cfg.OtelEnabled {
				otelShutdown, err := otelconfig.ConfigureOpenTelemetry()
				if err != nil {
					logger.Error("Error configuring OpenTelemetry", zap.Error(err))
				} else {
					defer otelShutdown()
				}
			}

			if err := runner.LookPath(app.cfg.IdentifyBin, app.cfg.ConvertBin, app.cfg.GhostscriptBin); err != nil {
				logger.Warn("External tool missing, requests using it will fail", zap.Error(err))
			}

			server := fiber.New(fiber.Config{
				AppName:               app.cfg.AppName,
				BodyLimit:             app.cfg.MaxUploadSize,
				DisableStartupMessage: true,
			})
			server.Use(
				recover.New(),
				otelfiber.Middleware(),
				fiberzap.New(fiberzap.Config{Logger: logger}),
				compress.New(compress.Config{Level: compress.LevelBestSpeed}),
				etag.New(),
				limiter.New(limiter.Config{
					Next: func(c *fiber.Ctx) bool {
						return c.IP() == "127.0.0.1"
					},
					Max:        app.cfg.RateLimitMaxRequests,
					Expiration: app.cfg.RateLimitDuration(),
				}),
			)
			if _, err := os.Stat("./docs/swagger.json"); err == nil {
				server.Use(swagger.New(swagger.Config{
					BasePath: "/",
					FilePath: "./docs/swagger.json",
					Path:     "docs",
					Title:    "squeeze",
				}))
			}

			rest.NewImageController(server, app.cfg, app.service, logger)

			g, ctx := errgroup.WithContext(ctx)
			g.Go(func() error {
				logger.Info("Server listening", zap.String("port", app.cfg.Port))
				return server.Listen(":" + app.cfg.Port)
			})
			g.Go(func() error {
				<-ctx.Done()
				logger.Info("Shutting down server...")

				shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), shutdownTimeout)
				defer shutdownCancel()
				return server.ShutdownWithContext(shutdownCtx)
			})

			if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
				return err
			}
			logger.Info("Server exited")
			return nil
		},
	}
}
