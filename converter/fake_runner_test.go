package converter

import (
	"context"
	"sync"

	"squeeze/shared/runner"
)

type call struct {
	name string
	args []string
}

type fakeRunner struct {
	mu      sync.Mutex
	calls   []call
	respond func(name string, args []string) (*runner.Result, error)
}

func (f *fakeRunner) Run(_ context.Context, name string, args ...string) (*runner.Result, error) {
	f.mu.Lock()
	f.calls = append(f.calls, call{name: name, args: args})
	f.mu.Unlock()

	if f.respond == nil {
		return &runner.Result{Name: name, Args: args}, nil
	}
	return f.respond(name, args)
}

func identifyAs(out string) func(string, []string) (*runner.Result, error) {
	return func(name string, args []string) (*runner.Result, error) {
		if name == "identify" {
			return &runner.Result{Name: name, Args: args, Stdout: out}, nil
		}
		return &runner.Result{Name: name, Args: args}, nil
	}
}
