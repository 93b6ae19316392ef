package shell

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"mvdan.cc/sh/v3/expand"
	"mvdan.cc/sh/v3/interp"
	"mvdan.cc/sh/v3/syntax"
)

// syntaxErrorStatus mirrors the status POSIX shells use for a parse error.
const syntaxErrorStatus = 2

// InterpRunner interprets commands with an in-process POSIX shell, so no
// system shell is required.
type InterpRunner struct {
	Options
}

// NewInterpRunner creates an in-process runner.
func NewInterpRunner(opts Options) *InterpRunner {
	return &InterpRunner{Options: opts}
}

// Run parses and interprets command.
func (r *InterpRunner) Run(ctx context.Context, command string) (Result, error) {
	if strings.TrimSpace(command) == "" {
		return Result{}, nil
	}
	if err := r.ensureDir(); err != nil {
		return Result{}, err
	}

	file, err := syntax.NewParser().Parse(strings.NewReader(command), "snippet")
	if err != nil {
		return Result{ExitCode: syntaxErrorStatus, Stderr: err.Error() + "\n"}, nil
	}

	var stdout, stderr bytes.Buffer
	opts := []interp.RunnerOption{
		interp.StdIO(nil, &stdout, &stderr),
		interp.Env(expand.ListEnviron(mergeEnv(os.Environ(), r.Env)...)),
	}
	if r.Dir != "" {
		opts = append(opts, interp.Dir(r.Dir))
	}
	runner, err := interp.New(opts...)
	if err != nil {
		return Result{}, fmt.Errorf("shell: interp: %w", err)
	}

	timeout := r.timeout()
	slog.Info("shell: interpreting", "dir", r.Dir, "timeout", timeout)

	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	exitCode := 0
	if err := runner.Run(ctx, file); err != nil {
		if ctx.Err() != nil {
			return Result{}, fmt.Errorf("shell: %w", ctx.Err())
		}
		var status interp.ExitStatus
		if !errors.As(err, &status) {
			return Result{}, fmt.Errorf("shell: interp: %w", err)
		}
		exitCode = int(status)
	}

	return Result{
		ExitCode: exitCode,
		Stdout:   stdout.String(),
		Stderr:   stderr.String(),
	}, nil
}

var _ Executor = (*InterpRunner)(nil)
