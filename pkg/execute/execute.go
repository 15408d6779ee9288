// pkg/execute/execute.go

// Package execute runs external commands with structured logging, timeouts,
// and retries. Shell execution is refused: callers pass argv explicitly so
// no installer input is ever interpreted by a shell.
package execute

import (
	"bytes"
	"context"
	"os"
	"os/exec"
	"strings"
	"time"

	cerr "github.com/cockroachdb/errors"
	"go.uber.org/zap"
)

// Options describes a single command invocation.
type Options struct {
	Command string
	Args    []string
	Dir     string
	Env     []string // appended to the inherited environment
	Capture bool     // return combined output to the caller
	Timeout time.Duration
	Retries int
	Delay   time.Duration
	DryRun  bool
	Logger  *zap.Logger
}

// DefaultTimeout bounds commands that do not set their own; package
// installs override it upward.
const DefaultTimeout = 3 * time.Minute

// Run executes a command, capturing combined output. The returned string is
// empty unless Capture is set.
func Run(ctx context.Context, opts Options) (string, error) {
	log := opts.Logger
	if log == nil {
		log = zap.L()
	}
	if ctx == nil {
		ctx = context.Background()
	}

	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	runCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	cmdStr := opts.Command + " " + strings.Join(opts.Args, " ")

	if opts.DryRun {
		log.Info("Dry run - command not executed", zap.String("command", cmdStr))
		return "", nil
	}

	attempts := opts.Retries
	if attempts < 1 {
		attempts = 1
	}

	var output string
	var err error
	for i := 1; i <= attempts; i++ {
		cmd := exec.CommandContext(runCtx, opts.Command, opts.Args...)
		if opts.Dir != "" {
			cmd.Dir = opts.Dir
		}
		if len(opts.Env) > 0 {
			cmd.Env = append(os.Environ(), opts.Env...)
		}

		var buf bytes.Buffer
		cmd.Stdout = &buf
		cmd.Stderr = &buf

		log.Debug("Executing command",
			zap.String("command", cmdStr), zap.Int("attempt", i))

		err = cmd.Run()
		output = buf.String()

		if err == nil {
			break
		}
		if runCtx.Err() != nil {
			err = cerr.Wrapf(runCtx.Err(), "command timed out: %s", cmdStr)
			break
		}

		log.Warn("Command failed",
			zap.String("command", cmdStr),
			zap.Int("attempt", i),
			zap.String("output", tail(output, 4)),
			zap.Error(err),
		)
		if i < attempts && opts.Delay > 0 {
			select {
			case <-time.After(opts.Delay):
			case <-runCtx.Done():
			}
		}
	}

	if err != nil {
		return output, cerr.Wrapf(err, "command failed: %s", cmdStr)
	}
	if opts.Capture {
		return output, nil
	}
	return "", nil
}

// RunSimple executes a command with default options, discarding output.
func RunSimple(ctx context.Context, command string, args ...string) error {
	_, err := Run(ctx, Options{Command: command, Args: args})
	return err
}

// tail returns the last n non-empty lines of s, for log summaries.
func tail(s string, n int) string {
	lines := strings.Split(strings.TrimSpace(s), "\n")
	var kept []string
	for _, l := range lines {
		if strings.TrimSpace(l) != "" {
			kept = append(kept, l)
		}
	}
	if len(kept) > n {
		kept = kept[len(kept)-n:]
	}
	return strings.Join(kept, "\n")
}
