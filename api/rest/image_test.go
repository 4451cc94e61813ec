package rest

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"squeeze/config"
	"squeeze/converter"
	"squeeze/service"
	"squeeze/shared/runner"
)

type stubProcessor struct {
	opts   converter.Options
	result *runner.Result
	err    error
}

func (s *stubProcessor) Apply(_ context.Context, _, dst string, opts converter.Options) (*runner.Result, error) {
	s.opts = opts
	if s.err != nil {
		return nil, s.err
	}
	if s.result.Success() {
		if err := os.WriteFile(dst, []byte("processed"), 0o644); err != nil {
			return nil, err
		}
	}
	return s.result, nil
}

func newApp(t *testing.T, p *stubProcessor) *fiber.App {
	cfg := &config.Config{
		AppName:           "squeeze",
		DefaultResolution: "1920x1080",
		DefaultQuality:    85,
		DefaultProfile:    "ebook",
		ToolTimeout:       time.Minute,
		CacheSize:         4,
		TempDir:           t.TempDir(),
		IdentifyBin:       "squeeze-no-such-identify",
		ConvertBin:        "squeeze-no-such-convert",
		GhostscriptBin:    "squeeze-no-such-gs",
	}
	svc, err := service.NewImageService(nil, cfg, p, zap.NewNop())
	require.NoError(t, err)

	app := fiber.New()
	NewImageController(app, cfg, svc, zap.NewNop())
	return app
}

func uploadRequest(t *testing.T, target, filename string, fields map[string]string) *http.Request {
	t.Helper()
	body := &bytes.Buffer{}
	w := multipart.NewWriter(body)
	part, err := w.CreateFormFile("file", filename)
	require.NoError(t, err)
	_, err = part.Write([]byte("\x89PNG\r\n\x1a\n"))
	require.NoError(t, err)
	for k, v := range fields {
		require.NoError(t, w.WriteField(k, v))
	}
	require.NoError(t, w.Close())

	req := httptest.NewRequest(http.MethodPost, target, body)
	req.Header.Set("Content-Type", w.FormDataContentType())
	return req
}

func decode(t *testing.T, resp *http.Response) map[string]interface{} {
	t.Helper()
	out := map[string]interface{}{}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	return out
}

func TestResize_Success(t *testing.T) {
	p := &stubProcessor{result: &runner.Result{Name: "convert"}}
	app := newApp(t, p)

	resp, err := app.Test(uploadRequest(t, "/images/resize", "holiday.png", map[string]string{
		"resolution": "1280x720",
		"quality":    "70",
		"type":       "jpeg",
	}), -1)
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "image/jpeg", resp.Header.Get("Content-Type"))
	assert.Equal(t, `attachment; filename="holiday.jpg"`, resp.Header.Get("Content-Disposition"))
	body, _ := io.ReadAll(resp.Body)
	assert.Equal(t, "processed", string(body))

	assert.Equal(t, 1280, p.opts.Resolution.Width)
	assert.Equal(t, 720, p.opts.Resolution.Height)
	assert.Equal(t, 70, p.opts.Quality)
	assert.Equal(t, converter.JPEG, p.opts.Type)
}

func TestResize_MalformedResolution(t *testing.T) {
	app := newApp(t, &stubProcessor{result: &runner.Result{}})

	resp, err := app.Test(uploadRequest(t, "/images/resize", "a.png", map[string]string{"resolution": "x660"}), -1)
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestResize_ToolExitMapsTo422(t *testing.T) {
	app := newApp(t, &stubProcessor{result: &runner.Result{Name: "convert", ExitCode: 1, Stderr: "corrupt image"}})

	resp, err := app.Test(uploadRequest(t, "/images/resize", "a.png", nil), -1)
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)
	out := decode(t, resp)
	assert.Equal(t, "convert", out["tool"])
	assert.Equal(t, float64(1), out["exit_code"])
	assert.Equal(t, "corrupt image", out["stderr"])
}

func TestResize_LaunchErrorMapsTo503(t *testing.T) {
	app := newApp(t, &stubProcessor{err: &runner.LaunchError{Name: "convert", Err: os.ErrNotExist}})

	resp, err := app.Test(uploadRequest(t, "/images/resize", "a.png", nil), -1)
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)
}

func TestResize_MissingFile(t *testing.T) {
	app := newApp(t, &stubProcessor{result: &runner.Result{}})

	req := httptest.NewRequest(http.MethodPost, "/images/resize", nil)
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestCompress_UsesProfile(t *testing.T) {
	p := &stubProcessor{result: &runner.Result{Name: "gs"}}
	app := newApp(t, p)

	resp, err := app.Test(uploadRequest(t, "/pdf/compress", "report.pdf", map[string]string{"profile": "screen"}), -1)
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "application/pdf", resp.Header.Get("Content-Type"))
	assert.Equal(t, converter.Screen, p.opts.Profile)
	assert.Equal(t, converter.PDF, p.opts.Type)
	assert.Zero(t, p.opts.Resolution.Width)
}

func TestCompress_UnknownProfile(t *testing.T) {
	app := newApp(t, &stubProcessor{result: &runner.Result{}})

	resp, err := app.Test(uploadRequest(t, "/pdf/compress", "report.pdf", map[string]string{"profile": "poster"}), -1)
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestProcess_StorageDisabled(t *testing.T) {
	app := newApp(t, &stubProcessor{result: &runner.Result{}})

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/images/posters%2F1.png/640x480/80/webp", nil), -1)
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusNotImplemented, resp.StatusCode)
}

func TestHealth_MissingTools(t *testing.T) {
	app := newApp(t, &stubProcessor{result: &runner.Result{}})

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/health", nil), -1)
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)
	assert.Equal(t, "unhealthy", decode(t, resp)["status"])
}
