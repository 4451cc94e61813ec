// Package runner starts external programs and collects what they print.
package runner

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strings"
	"syscall"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"squeeze/shared/log"
)

const (
	StatusSuccess = "success"
	StatusError   = "error"
)

// Runner runs one external program to completion.
type Runner interface {
	Run(ctx context.Context, name string, args ...string) (*Result, error)
}

// Result describes a program that started and exited. A non-zero exit is
// reported here rather than as an error.
type Result struct {
	Name     string
	Args     []string
	ExitCode int
	Signal   string
	Stdout   string
	Stderr   string
	Duration time.Duration
}

func (r *Result) Success() bool {
	return r.ExitCode == 0 && r.Signal == ""
}

func (r *Result) Status() string {
	if r.Success() {
		return StatusSuccess
	}
	return StatusError
}

// Err returns an *ExitError for an unsuccessful result and nil otherwise.
func (r *Result) Err() error {
	if r.Success() {
		return nil
	}
	return &ExitError{Result: r}
}

// LaunchError means the program never ran: missing binary, no permission.
type LaunchError struct {
	Name string
	Err  error
}

func (e *LaunchError) Error() string {
	return fmt.Sprintf("start %s: %v", e.Name, e.Err)
}

func (e *LaunchError) Unwrap() error {
	return e.Err
}

// ExitError wraps a finished run that did not succeed.
type ExitError struct {
	Result *Result
}

func (e *ExitError) Error() string {
	msg := strings.TrimSpace(e.Result.Stderr)
	if e.Result.Signal != "" {
		if msg == "" {
			return fmt.Sprintf("%s killed by %s", e.Result.Name, e.Result.Signal)
		}
		return fmt.Sprintf("%s killed by %s: %s", e.Result.Name, e.Result.Signal, msg)
	}
	if msg == "" {
		return fmt.Sprintf("%s exited with code %d", e.Result.Name, e.Result.ExitCode)
	}
	return fmt.Sprintf("%s exited with code %d: %s", e.Result.Name, e.Result.ExitCode, msg)
}

// DefaultWaitDelay bounds how long Run keeps reading output after the tool
// exited or was cancelled.
const DefaultWaitDelay = 2 * time.Second

type Exec struct {
	logger    *zap.Logger
	tracer    trace.Tracer
	waitDelay time.Duration
}

func New(logger *zap.Logger) *Exec {
	return &Exec{logger: logger, tracer: otel.Tracer("squeeze/runner"), waitDelay: DefaultWaitDelay}
}

func (e *Exec) Run(ctx context.Context, name string, args ...string) (*Result, error) {
	ctx, span := e.tracer.Start(ctx, "runner.run", trace.WithAttributes(
		attribute.String("tool.name", name),
		attribute.StringSlice("tool.args", args),
	))
	defer span.End()
	logger := log.LoggerWithTrace(ctx, e.logger)

	var stdout, stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	cmd.WaitDelay = e.waitDelay
	killGroup(cmd)

	start := time.Now()
	if err := cmd.Start(); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "launch failed")
		logger.Error("Error starting tool", zap.String("tool", name), zap.Error(err))
		return nil, &LaunchError{Name: name, Err: err}
	}

	waitErr := cmd.Wait()
	res := &Result{
		Name:     name,
		Args:     args,
		Stdout:   stdout.String(),
		Stderr:   stderr.String(),
		Duration: time.Since(start),
	}

	if ctx.Err() != nil {
		span.SetStatus(codes.Error, ctx.Err().Error())
		return nil, fmt.Errorf("%s: %w", name, ctx.Err())
	}

	var exitErr *exec.ExitError
	switch {
	case waitErr == nil:
	case errors.Is(waitErr, exec.ErrWaitDelay):
		// the tool exited but left a child holding its output open
		res.ExitCode = cmd.ProcessState.ExitCode()
		logger.Warn("Tool left output open after exit", zap.String("tool", name))
	case errors.As(waitErr, &exitErr):
		res.ExitCode = exitErr.ExitCode()
		if ws, ok := exitErr.Sys().(syscall.WaitStatus); ok && ws.Signaled() {
			res.Signal = ws.Signal().String()
		}
	default:
		span.RecordError(waitErr)
		span.SetStatus(codes.Error, "wait failed")
		return nil, fmt.Errorf("wait %s: %w", name, waitErr)
	}

	span.SetAttributes(attribute.Int("tool.exit_code", res.ExitCode))
	if !res.Success() {
		span.SetStatus(codes.Error, res.Status())
	}

	logger.Debug("Tool finished",
		zap.String("tool", name),
		zap.Int("exit_code", res.ExitCode),
		zap.String("status", res.Status()),
		zap.Duration("duration", res.Duration),
	)

	return res, nil
}

// LookPath reports the first binary in names that cannot be found.
func LookPath(names ...string) error {
	for _, name := range names {
		if _, err := exec.LookPath(name); err != nil {
			return &LaunchError{Name: name, Err: err}
		}
	}
	return nil
}
