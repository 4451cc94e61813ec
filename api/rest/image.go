package rest

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"squeeze/api/model"
	"squeeze/config"
	"squeeze/converter"
	"squeeze/converter/resolution"
	"squeeze/service"
	"squeeze/shared/log"
	"squeeze/shared/runner"
)

type ImageController struct {
	cfg     *config.Config
	service *service.ImageService
	logger  *zap.Logger
}

func NewImageController(app *fiber.App, cfg *config.Config, service *service.ImageService, logger *zap.Logger) *ImageController {
	i := &ImageController{service: service, cfg: cfg, logger: logger}

	app.Get("/health", i.Health)
	app.Get("/images/:key/:resolution/:quality/:type", i.Process)
	app.Post("/images/resize", i.Resize)
	app.Post("/pdf/compress", i.Compress)

	return i
}

// Health reports whether the external tools can be started
//
//	@Summary	Check tool availability
//	@Tags		health
//	@Produce	json
//	@Success	200	{object}	map[string]string
//	@Failure	503	{object}	map[string]string
//	@Router		/health [get]
func (i *ImageController) Health(c *fiber.Ctx) error {
	if err := runner.LookPath(i.cfg.IdentifyBin, i.cfg.ConvertBin, i.cfg.GhostscriptBin); err != nil {
		return c.Status(http.StatusServiceUnavailable).JSON(fiber.Map{"status": "unhealthy", "error": err.Error()})
	}
	return c.JSON(fiber.Map{"status": "healthy", "service": i.cfg.AppName})
}

// Process stored image
//
//	@Summary		Render a stored object
//	@Description	Fetches an object from the bucket, resizes it to the orientation-adjusted resolution and re-encodes it.
//	@Tags			image
//	@Produce		image/jpeg,image/png,image/webp,image/tiff,image/bmp,application/pdf
//	@Param			key			path	string	true	"Object key, URL encoded"
//	@Param			resolution	path	string	true	"Resolution, WIDTHxHEIGHT or WIDTH"
//	@Param			quality		path	int		true	"Quality 1-100"
//	@Param			type		path	string	true	"Output type"
//	@Success		200			{file}	file	"Returns the processed image"
//	@Router			/images/{key}/{resolution}/{quality}/{type} [get]
func (i *ImageController) Process(c *fiber.Ctx) error {
	ctx, cancel := i.timeout(c)
	defer cancel()
	logger := log.LoggerWithTrace(ctx, i.logger)

	params := &model.ImageRequest{}
	if err := c.ParamsParser(params); err != nil {
		logger.Error("Error parsing params", zap.Error(err))
		return c.Status(http.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}
	key, err := url.PathUnescape(params.Key)
	if err != nil {
		return c.Status(http.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}
	params.Key = key

	logger.Debug(fmt.Sprintf("Processing image with params: %+v", params))

	image, err := i.service.ProcessObject(ctx, *params)
	if err != nil {
		logger.Error("Error processing image", zap.Error(err))
		return i.fail(c, err)
	}

	c.Set(fiber.HeaderContentType, image.Type)
	c.Set(fiber.HeaderContentLength, strconv.Itoa(int(image.ContentLength)))
	c.Set(fiber.HeaderContentDisposition, image.ContentDisposition)

	return c.SendStream(image.Body, int(image.ContentLength))
}

// Resize uploaded image
//
//	@Summary	Resize an uploaded image
//	@Tags		image
//	@Accept		multipart/form-data
//	@Param		file		formData	file	true	"Image"
//	@Param		resolution	formData	string	false	"Resolution, defaults to DEFAULT_RESOLUTION"
//	@Param		quality		formData	int		false	"Quality 1-100"
//	@Param		type		formData	string	false	"Output type, defaults to the upload's type"
//	@Success	200			{file}		file	"Returns the resized image"
//	@Failure	422			{object}	map[string]interface{}
//	@Router		/images/resize [post]
func (i *ImageController) Resize(c *fiber.Ctx) error {
	quality := 0
	if q := c.FormValue("quality"); q != "" {
		v, err := strconv.Atoi(q)
		if err != nil {
			return i.fail(c, fmt.Errorf("%w: quality %q", converter.ErrInvalidQuality, q))
		}
		quality = v
	}

	return i.upload(c, model.Job{
		Resolution: c.FormValue("resolution"),
		Quality:    quality,
		Type:       c.FormValue("type"),
	})
}

// Compress uploaded PDF
//
//	@Summary	Rewrite an uploaded PDF with a Ghostscript profile
//	@Tags		pdf
//	@Accept		multipart/form-data
//	@Produce	application/pdf
//	@Param		file	formData	file	true	"PDF"
//	@Param		profile	formData	string	false	"screen, ebook, prepress, printer or default"
//	@Success	200		{file}		file	"Returns the compressed PDF"
//	@Failure	422		{object}	map[string]interface{}
//	@Router		/pdf/compress [post]
func (i *ImageController) Compress(c *fiber.Ctx) error {
	return i.upload(c, model.Job{
		Type:     converter.PDF.String(),
		Profile:  c.FormValue("profile"),
		NoResize: true,
	})
}

func (i *ImageController) upload(c *fiber.Ctx, job model.Job) error {
	ctx, cancel := i.timeout(c)
	defer cancel()
	logger := log.LoggerWithTrace(ctx, i.logger)

	file, err := c.FormFile("file")
	if err != nil {
		return c.Status(http.StatusBadRequest).JSON(fiber.Map{"error": "No file uploaded"})
	}

	target := converter.JPEG
	if job.Type != "" {
		if target, err = converter.MakeFromString(job.Type); err != nil {
			return i.fail(c, err)
		}
	} else if t, err := converter.FromPath(file.Filename); err == nil {
		target = t
	}
	job.Type = target.String()

	dir, err := i.service.WorkDir()
	if err != nil {
		logger.Error("Error creating work directory", zap.Error(err))
		return c.Status(http.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to save file"})
	}
	defer os.RemoveAll(dir)

	job.Source = filepath.Join(dir, "input"+strings.ToLower(filepath.Ext(filepath.Base(file.Filename))))
	job.Destination = filepath.Join(dir, "output"+target.Extension())

	if err := c.SaveFile(file, job.Source); err != nil {
		logger.Error("Error saving upload", zap.Error(err))
		return c.Status(http.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to save file"})
	}

	result, err := i.service.Process(ctx, job)
	if err != nil {
		return i.fail(c, err)
	}
	if !result.Success() {
		return i.fail(c, service.ExitError(result))
	}

	body, err := os.ReadFile(job.Destination)
	if err != nil {
		logger.Error("Error reading output", zap.Error(err))
		return c.Status(http.StatusInternalServerError).JSON(fiber.Map{"error": "Operation did not produce output file"})
	}

	name := strings.TrimSuffix(filepath.Base(file.Filename), filepath.Ext(file.Filename)) + target.Extension()
	c.Set(fiber.HeaderContentType, target.MimeType())
	c.Set(fiber.HeaderContentDisposition, fmt.Sprintf("attachment; filename=%q", name))
	c.Set("X-Original-Size", strconv.FormatInt(result.OriginalSize, 10))
	c.Set("X-Output-Size", strconv.FormatInt(result.OutputSize, 10))

	return c.Send(body)
}

func (i *ImageController) timeout(c *fiber.Ctx) (context.Context, context.CancelFunc) {
	d := i.cfg.ToolTimeout
	if d <= 0 {
		d = 5 * time.Minute
	}
	return context.WithTimeout(c.UserContext(), d)
}

func (i *ImageController) fail(c *fiber.Ctx, err error) error {
	var (
		exitErr   *runner.ExitError
		launchErr *runner.LaunchError
	)

	switch {
	case errors.As(err, &exitErr):
		return c.Status(http.StatusUnprocessableEntity).JSON(fiber.Map{
			"error":     err.Error(),
			"tool":      exitErr.Result.Name,
			"exit_code": exitErr.Result.ExitCode,
			"stderr":    exitErr.Result.Stderr,
		})
	case errors.As(err, &launchErr):
		return c.Status(http.StatusServiceUnavailable).JSON(fiber.Map{"error": err.Error()})
	case errors.Is(err, resolution.ErrMalformed),
		errors.Is(err, converter.ErrInvalidQuality),
		errors.Is(err, converter.ErrUnsupported):
		return c.Status(http.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	case errors.Is(err, service.ErrStorageDisabled):
		return c.Status(http.StatusNotImplemented).JSON(fiber.Map{"error": err.Error()})
	case errors.Is(err, context.DeadlineExceeded):
		return c.Status(http.StatusGatewayTimeout).JSON(fiber.Map{"error": err.Error()})
	}

	return c.Status(http.StatusInternalServerError).JSON(fiber.Map{"error": err.Error()})
}
