package runner

import (
	"context"
	"errors"
	"os/exec"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func requireShell(t *testing.T) {
	t.Helper()
	if _, err := exec.LookPath("sh"); err != nil {
		t.Skip("sh not available")
	}
}

func TestExec_Success(t *testing.T) {
	requireShell(t)

	res, err := New(zap.NewNop()).Run(context.Background(), "sh", "-c", "printf out; printf err >&2")
	require.NoError(t, err)

	assert.Equal(t, 0, res.ExitCode)
	assert.Equal(t, "out", res.Stdout)
	assert.Equal(t, "err", res.Stderr)
	assert.Equal(t, StatusSuccess, res.Status())
	assert.NoError(t, res.Err())
	assert.Equal(t, "sh", res.Name)
}

func TestExec_NonZeroExitIsResult(t *testing.T) {
	requireShell(t)

	res, err := New(zap.NewNop()).Run(context.Background(), "sh", "-c", "echo broken >&2; exit 3")
	require.NoError(t, err)

	assert.Equal(t, 3, res.ExitCode)
	assert.Equal(t, StatusError, res.Status())
	assert.Equal(t, "broken\n", res.Stderr)

	var exitErr *ExitError
	require.ErrorAs(t, res.Err(), &exitErr)
	assert.Equal(t, "sh exited with code 3: broken", exitErr.Error())
}

func TestExec_Signal(t *testing.T) {
	requireShell(t)

	res, err := New(zap.NewNop()).Run(context.Background(), "sh", "-c", "kill -9 $$")
	require.NoError(t, err)

	assert.Equal(t, -1, res.ExitCode)
	assert.Equal(t, "killed", res.Signal)
	assert.False(t, res.Success())
}

func TestExec_LaunchError(t *testing.T) {
	res, err := New(zap.NewNop()).Run(context.Background(), "squeeze-no-such-binary", "/does/not/exist.jpg")
	assert.Nil(t, res)

	var launchErr *LaunchError
	require.ErrorAs(t, err, &launchErr)
	assert.Equal(t, "squeeze-no-such-binary", launchErr.Name)
	assert.True(t, errors.Is(err, exec.ErrNotFound))
}

func TestExec_ContextDeadline(t *testing.T) {
	requireShell(t)

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	res, err := New(zap.NewNop()).Run(ctx, "sh", "-c", "sleep 5")
	assert.Nil(t, res)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestExec_ContextDeadlineKillsChildren(t *testing.T) {
	requireShell(t)

	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()

	start := time.Now()
	res, err := New(zap.NewNop()).Run(ctx, "sh", "-c", "sleep 3; true")
	elapsed := time.Since(start)

	assert.Nil(t, res)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Less(t, elapsed, 2*time.Second)
}

func TestExec_ChildHoldingOutput(t *testing.T) {
	requireShell(t)

	e := New(zap.NewNop())
	e.waitDelay = 200 * time.Millisecond

	start := time.Now()
	res, err := e.Run(context.Background(), "sh", "-c", "sleep 3 & printf done")
	elapsed := time.Since(start)

	require.NoError(t, err)
	assert.Equal(t, 0, res.ExitCode)
	assert.Equal(t, "done", res.Stdout)
	assert.Less(t, elapsed, 2*time.Second)
}

func TestExitError_SignalWithoutStderr(t *testing.T) {
	err := &ExitError{Result: &Result{Name: "sh", ExitCode: -1, Signal: "killed"}}
	assert.Equal(t, "sh killed by killed", err.Error())

	err.Result.Stderr = "out of memory\n"
	assert.Equal(t, "sh killed by killed: out of memory", err.Error())
}

func TestLookPath(t *testing.T) {
	requireShell(t)

	assert.NoError(t, LookPath("sh"))

	var launchErr *LaunchError
	require.ErrorAs(t, LookPath("sh", "squeeze-no-such-binary"), &launchErr)
	assert.Equal(t, "squeeze-no-such-binary", launchErr.Name)
}
