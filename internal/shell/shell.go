// Package shell runs code snippets as shell commands.
package shell

import (
	"context"
	"fmt"
	"os"
	"time"
)

// DefaultTimeout bounds a single command.
const DefaultTimeout = 120 * time.Second

// Result is the outcome of a finished command.
type Result struct {
	ExitCode int    `json:"exit_code"`
	Stdout   string `json:"stdout"`
	Stderr   string `json:"stderr"`
}

// OK reports whether the command exited with status zero.
func (r Result) OK() bool {
	return r.ExitCode == 0
}

// Executor runs a command synchronously. A non-zero exit is a Result, not an
// error; errors mean the command could not be run at all. A blank command
// does nothing and exits 0, like `sh -c ""`.
type Executor interface {
	Run(ctx context.Context, command string) (Result, error)
}

// Options are shared by the executors.
type Options struct {
	// Dir is the working directory; empty means the process directory. It is
	// created on first use.
	Dir string
	// Timeout bounds each command; zero means DefaultTimeout.
	Timeout time.Duration
	// Env is appended to the inherited environment.
	Env map[string]string
}

func (o Options) timeout() time.Duration {
	if o.Timeout > 0 {
		return o.Timeout
	}
	return DefaultTimeout
}

// ensureDir creates Dir so a fresh home directory does not fail the first
// command run in it.
func (o Options) ensureDir() error {
	if o.Dir == "" {
		return nil
	}
	if err := os.MkdirAll(o.Dir, 0o755); err != nil {
		return fmt.Errorf("shell: working dir: %w", err)
	}
	return nil
}

// mergeEnv returns a copy of base with extra key=value pairs appended.
func mergeEnv(base []string, extra map[string]string) []string {
	env := make([]string, len(base), len(base)+len(extra))
	copy(env, base)
	for k, v := range extra {
		env = append(env, k+"="+v)
	}
	return env
}
