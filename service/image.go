package service

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"path"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	lru "github.com/hashicorp/golang-lru"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"squeeze/api/model"
	"squeeze/config"
	"squeeze/converter"
	"squeeze/converter/resolution"
	"squeeze/shared/log"
	"squeeze/shared/runner"
)

var ErrStorageDisabled = errors.New("object storage is not configured")

// Processor turns one local file into another.
type Processor interface {
	Apply(ctx context.Context, src, dst string, opts converter.Options) (*runner.Result, error)
}

type ImageService struct {
	config *config.Config

	processor Processor
	store     ObjectStore
	cache     *lru.Cache

	logger *zap.Logger
}

// NewImageService accepts a nil store; object operations then fail with
// ErrStorageDisabled.
func NewImageService(store ObjectStore, c *config.Config, processor Processor, logger *zap.Logger) (*ImageService, error) {
	size := c.CacheSize
	if size <= 0 {
		size = 1
	}
	cache, err := lru.New(size)
	if err != nil {
		return nil, err
	}

	return &ImageService{config: c, processor: processor, store: store, cache: cache, logger: logger}, nil
}

// Options fills the blanks of job with configured defaults and validates
// everything before any tool is started.
func (i *ImageService) Options(job model.Job) (converter.Options, error) {
	opts := converter.Options{Quality: job.Quality}

	if !job.NoResize {
		requested := job.Resolution
		if requested == "" {
			requested = i.config.DefaultResolution
		}
		r, err := resolution.ParseResolution(requested)
		if err != nil {
			return opts, err
		}
		opts.Resolution = r
	}

	if opts.Quality == 0 {
		opts.Quality = i.config.DefaultQuality
	}
	if opts.Quality < 1 || opts.Quality > 100 {
		return opts, fmt.Errorf("%w: got %d", converter.ErrInvalidQuality, opts.Quality)
	}

	profile := job.Profile
	if profile == "" {
		profile = i.config.DefaultProfile
	}
	p, err := converter.MakeProfileFromString(profile)
	if err != nil {
		return opts, err
	}
	opts.Profile = p

	if job.Type != "" {
		t, err := converter.MakeFromString(job.Type)
		if err != nil {
			return opts, err
		}
		opts.Type = t
	}

	return opts, nil
}

// Process runs a single job. Errors cover everything that stopped a tool
// from running; a tool that ran and failed is reported in the result.
func (i *ImageService) Process(ctx context.Context, job model.Job) (*model.Result, error) {
	logger := log.LoggerWithTrace(ctx, i.logger)

	opts, err := i.Options(job)
	if err != nil {
		return nil, err
	}

	if i.config.ToolTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, i.config.ToolTimeout)
		defer cancel()
	}

	result := &model.Result{Source: job.Source, Destination: job.Destination}
	if info, err := os.Stat(job.Source); err == nil {
		result.OriginalSize = info.Size()
	}

	start := time.Now()
	res, err := i.processor.Apply(ctx, job.Source, job.Destination, opts)
	if err != nil {
		logger.Error("Error processing file", zap.String("src", job.Source), zap.Error(err))
		return nil, err
	}
	result.Duration = time.Since(start)

	result.Tool = res.Name
	result.Status = res.Status()
	result.ExitCode = res.ExitCode
	result.Signal = res.Signal
	result.Stdout = res.Stdout
	result.Stderr = res.Stderr

	if res.Success() {
		if info, err := os.Stat(job.Destination); err == nil {
			result.OutputSize = info.Size()
		}
		result.CalculateCompressionRatio()
	}

	logger.Info("Processed file",
		zap.String("src", job.Source),
		zap.String("dst", job.Destination),
		zap.String("status", result.Status),
		zap.Int("exit_code", result.ExitCode),
		zap.Int64("saved", result.SavedSpace),
		zap.Duration("duration", result.Duration),
	)

	return result, nil
}

// ProcessBatch runs independent jobs with at most parallel in flight. A
// failing job does not stop the others. Results keep the order of jobs.
func (i *ImageService) ProcessBatch(ctx context.Context, jobs []model.Job, parallel int) []*model.Result {
	if parallel < 1 {
		parallel = 1
	}

	results := make([]*model.Result, len(jobs))
	g := &errgroup.Group{}
	g.SetLimit(parallel)

	for idx, job := range jobs {
		idx, job := idx, job
		g.Go(func() error {
			res, err := i.Process(ctx, job)
			if err != nil {
				res = &model.Result{
					Source:      job.Source,
					Destination: job.Destination,
					Status:      runner.StatusError,
					Err:         err,
				}
			}
			results[idx] = res
			return nil
		})
	}
	_ = g.Wait()

	return results
}

// ProcessObject renders a stored object. Rendered bytes are kept in an
// LRU cache keyed by the full request.
func (i *ImageService) ProcessObject(ctx context.Context, params model.ImageRequest) (*model.ImageResponse, error) {
	logger := log.LoggerWithTrace(ctx, i.logger)

	if i.store == nil {
		return nil, ErrStorageDisabled
	}

	t, err := converter.MakeFromString(params.Type)
	if err != nil {
		return nil, err
	}
	quality, err := strconv.Atoi(params.Quality)
	if err != nil {
		return nil, fmt.Errorf("%w: quality %q", converter.ErrInvalidQuality, params.Quality)
	}

	cacheKey := strings.Join([]string{params.Key, params.Resolution, params.Quality, t.String()}, "|")
	fileName := strings.TrimSuffix(path.Base(params.Key), path.Ext(params.Key)) + t.Extension()

	if cached, ok := i.cache.Get(cacheKey); ok {
		logger.Debug("Serving cached image", zap.String("key", params.Key))
		return newImageResponse(t, fileName, cached.([]byte)), nil
	}

	dir, err := i.WorkDir()
	if err != nil {
		return nil, err
	}
	defer os.RemoveAll(dir)

	src := filepath.Join(dir, "source")
	dst := filepath.Join(dir, "output"+t.Extension())

	if err := i.store.Download(ctx, params.Key, src); err != nil {
		logger.Error("Error downloading object", zap.String("key", params.Key), zap.Error(err))
		return nil, err
	}

	result, err := i.Process(ctx, model.Job{
		Source:      src,
		Destination: dst,
		Resolution:  params.Resolution,
		Quality:     quality,
		Type:        t.String(),
	})
	if err != nil {
		return nil, err
	}
	if !result.Success() {
		return nil, ExitError(result)
	}

	body, err := os.ReadFile(dst)
	if err != nil {
		return nil, err
	}
	i.cache.Add(cacheKey, body)

	return newImageResponse(t, fileName, body), nil
}

// Publish uploads a processed file under key.
func (i *ImageService) Publish(ctx context.Context, key, src string) error {
	if i.store == nil {
		return ErrStorageDisabled
	}

	t, err := converter.FromPath(src)
	contentType := "application/octet-stream"
	if err == nil {
		contentType = t.MimeType()
	}

	return i.store.Upload(ctx, key, src, contentType)
}

// WorkDir creates a fresh directory under the configured temp dir. The
// caller removes it.
func (i *ImageService) WorkDir() (string, error) {
	if err := os.MkdirAll(i.config.TempDir, 0o755); err != nil {
		return "", fmt.Errorf("failed to create temp directory: %w", err)
	}
	dir := filepath.Join(i.config.TempDir, uuid.NewString())
	if err := os.Mkdir(dir, 0o755); err != nil {
		return "", fmt.Errorf("failed to create work directory: %w", err)
	}
	return dir, nil
}

func newImageResponse(t converter.Type, fileName string, body []byte) *model.ImageResponse {
	return &model.ImageResponse{
		Type:               t.MimeType(),
		ContentLength:      int64(len(body)),
		ContentDisposition: fmt.Sprintf("inline; filename=%q", fileName),
		Body:               bytes.NewReader(body),
	}
}

// ExitError converts an unsuccessful result back into the runner's error.
func ExitError(result *model.Result) error {
	if result.Err != nil || result.Success() {
		return result.Err
	}
	return &runner.ExitError{Result: &runner.Result{
		Name:     result.Tool,
		ExitCode: result.ExitCode,
		Signal:   result.Signal,
		Stdout:   result.Stdout,
		Stderr:   result.Stderr,
	}}
}
