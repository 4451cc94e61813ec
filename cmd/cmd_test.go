package cmd

import (
	"bytes"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"squeeze/api/model"
	"squeeze/converter"
	"squeeze/shared/runner"
)

func TestBuildJobs(t *testing.T) {
	jobs, err := buildJobs([]string{"scans/a.png", "docs/report.pdf", "b.jpeg"}, &processFlags{
		outDir:  "out",
		typ:     "webp",
		res:     "1280x720",
		quality: 70,
		profile: "screen",
	})
	require.NoError(t, err)
	require.Len(t, jobs, 3)

	assert.Equal(t, model.Job{
		Source:      "scans/a.png",
		Destination: filepath.Join("out", "a.webp"),
		Resolution:  "1280x720",
		Quality:     70,
		Type:        "webp",
		Profile:     "screen",
	}, jobs[0])
	assert.Equal(t, filepath.Join("out", "report.pdf"), jobs[1].Destination)
	assert.Equal(t, "pdf", jobs[1].Type)
	assert.Equal(t, filepath.Join("out", "b.webp"), jobs[2].Destination)
}

func TestBuildJobs_KeepsSourceType(t *testing.T) {
	jobs, err := buildJobs([]string{"a.PNG", "b.tif"}, &processFlags{outDir: "out"})
	require.NoError(t, err)

	assert.Equal(t, filepath.Join("out", "a.png"), jobs[0].Destination)
	assert.Equal(t, filepath.Join("out", "b.tiff"), jobs[1].Destination)
}

func TestBuildJobs_Errors(t *testing.T) {
	_, err := buildJobs([]string{"a.png"}, &processFlags{})
	assert.Error(t, err)

	_, err = buildJobs([]string{"a.gif"}, &processFlags{outDir: "out"})
	assert.ErrorIs(t, err, converter.ErrUnsupported)

	_, err = buildJobs([]string{"x/a.png", "y/a.png"}, &processFlags{outDir: "out"})
	assert.ErrorContains(t, err, "both write")

	_, err = buildJobs([]string{"a.png"}, &processFlags{outDir: "out", typ: "svg"})
	assert.ErrorIs(t, err, converter.ErrUnsupported)
}

func TestPrintResult(t *testing.T) {
	var buf bytes.Buffer

	printResult(&buf, &model.Result{
		Source: "a.jpg", Destination: "b.jpg",
		OriginalSize: 2000000, OutputSize: 500000, SavedSpace: 1500000, CompressionRatio: 75,
		Duration: 1500 * time.Millisecond,
	})
	assert.Equal(t, "✓ a.jpg → b.jpg: 2.0 MB → 500 kB (saved 1.5 MB, 75.0%) in 1.5s\n", buf.String())

	buf.Reset()
	printResult(&buf, &model.Result{Source: "a.jpg", Destination: "b.jpg", Tool: "convert", ExitCode: 1, Stderr: "bad image\n"})
	assert.Equal(t, "✗ a.jpg → b.jpg: convert exited with code 1\n  bad image\n", buf.String())

	buf.Reset()
	printResult(&buf, &model.Result{Source: "a.jpg", Err: errors.New("boom")})
	assert.Equal(t, "✗ a.jpg: boom\n", buf.String())
}

func TestResultError(t *testing.T) {
	assert.NoError(t, resultError(&model.Result{}))

	err := resultError(&model.Result{Tool: "gs", ExitCode: 3})
	var exitErr *exitCodeError
	require.ErrorAs(t, err, &exitErr)
	assert.Equal(t, 3, exitErr.code)

	var toolErr *runner.ExitError
	assert.ErrorAs(t, err, &toolErr)
}

func TestIdentify_LaunchError(t *testing.T) {
	t.Setenv("IDENTIFY_BIN", "squeeze-no-such-identify")
	t.Setenv("LOG_LEVEL", "fatal")

	root := newRootCmd()
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetArgs([]string{"--env-file", filepath.Join(t.TempDir(), "missing.env"), "identify", "/does/not/exist.png"})

	err := root.Execute()
	var launchErr *runner.LaunchError
	require.ErrorAs(t, err, &launchErr)
	assert.Equal(t, "squeeze-no-such-identify", launchErr.Name)
	assert.Empty(t, out.String())
}

func TestResize_MalformedResolution(t *testing.T) {
	t.Setenv("LOG_LEVEL", "fatal")

	root := newRootCmd()
	root.SetArgs([]string{"--env-file", filepath.Join(t.TempDir(), "missing.env"), "resize", "a.png", "b.png", "-r", "1920xwide"})

	assert.ErrorContains(t, root.Execute(), "malformed")
}

func TestRoot_Help(t *testing.T) {
	root := newRootCmd()
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetArgs([]string{"--help"})

	require.NoError(t, root.Execute())
	assert.Equal(t, "Resize, convert and compress images and PDFs", root.Short)
	for _, name := range []string{"identify", "resize", "convert", "compress", "process", "serve"} {
		assert.Contains(t, out.String(), name)
	}
}
