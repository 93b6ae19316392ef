package shell

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"strings"
	"time"
)

// waitDelay caps how long output pipes are drained after the shell is killed.
const waitDelay = time.Second

// ExecRunner runs commands through an external shell (`sh -c`).
type ExecRunner struct {
	Shell string
	Options
}

// NewExecRunner creates a runner using shell ("sh" when empty).
func NewExecRunner(shell string, opts Options) *ExecRunner {
	if shell == "" {
		shell = "sh"
	}
	return &ExecRunner{Shell: shell, Options: opts}
}

// Run executes command and captures its output.
func (r *ExecRunner) Run(ctx context.Context, command string) (Result, error) {
	if strings.TrimSpace(command) == "" {
		return Result{}, nil
	}
	if err := r.ensureDir(); err != nil {
		return Result{}, err
	}

	timeout := r.timeout()
	slog.Info("shell: executing", "shell", r.Shell, "dir", r.Dir, "timeout", timeout)

	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	cmd := exec.CommandContext(ctx, r.Shell, "-c", command)
	cmd.Dir = r.Dir
	cmd.WaitDelay = waitDelay
	if len(r.Env) > 0 {
		cmd.Env = mergeEnv(os.Environ(), r.Env)
	}

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	exitCode := 0
	if err := cmd.Run(); err != nil {
		if ctx.Err() != nil {
			return Result{}, fmt.Errorf("shell: %w", ctx.Err())
		}
		var exitErr *exec.ExitError
		if !errors.As(err, &exitErr) {
			return Result{}, fmt.Errorf("shell: exec: %w", err)
		}
		exitCode = exitErr.ExitCode()
	}

	return Result{
		ExitCode: exitCode,
		Stdout:   stdout.String(),
		Stderr:   stderr.String(),
	}, nil
}

var _ Executor = (*ExecRunner)(nil)
