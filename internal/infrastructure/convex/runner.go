package convex

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"strings"
	"time"

	"envsync/internal/domain/envvar"
)

// DefaultCommand invokes the project-local Convex CLI
const DefaultCommand = "npx convex"

// Result captures one CLI invocation
type Result struct {
	ExitCode int
	Stdout   string
	Stderr   string
	TimedOut bool
}

// Runner executes the Convex CLI with extra arguments and environment
type Runner interface {
	Run(ctx context.Context, args []string, env []string) (Result, error)
}

// ExecRunner runs the CLI as a child process
type ExecRunner struct {
	launchPath string
	baseArgs   []string
	dir        string
	timeout    time.Duration
}

// NewExecRunner resolves command (split on whitespace) against PATH.
func NewExecRunner(command, dir string, timeout time.Duration) (*ExecRunner, error) {
	fields := strings.Fields(command)
	if len(fields) == 0 {
		fields = strings.Fields(DefaultCommand)
	}

	path, err := exec.LookPath(fields[0])
	if err != nil {
		return nil, envvar.ErrConfiguration(
			fmt.Sprintf("%s not found on PATH", fields[0]),
			"install Node.js or set convex_command in envsync.toml",
		)
	}
	if timeout <= 0 {
		timeout = 120 * time.Second
	}

	return &ExecRunner{
		launchPath: path,
		baseArgs:   fields[1:],
		dir:        dir,
		timeout:    timeout,
	}, nil
}

// Run executes the CLI and captures its output. A non-zero exit code is
// reported through Result, not as an error; the error is reserved for
// failures to start the process.
func (r *ExecRunner) Run(ctx context.Context, args []string, env []string) (Result, error) {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	cmd := exec.CommandContext(ctx, r.launchPath, append(append([]string{}, r.baseArgs...), args...)...)
	if strings.TrimSpace(r.dir) != "" {
		cmd.Dir = r.dir
	}
	cmd.Env = append(os.Environ(), env...)
	// grandchildren may keep the pipes open after the CLI itself was killed
	cmd.WaitDelay = 2 * time.Second

	var outBuf bytes.Buffer
	var errBuf bytes.Buffer
	cmd.Stdout = &outBuf
	cmd.Stderr = &errBuf

	if err := cmd.Start(); err != nil {
		return Result{ExitCode: -1}, fmt.Errorf("failed to start %s: %w", r.launchPath, err)
	}
	waitErr := cmd.Wait()

	res := Result{
		Stdout:   outBuf.String(),
		Stderr:   errBuf.String(),
		TimedOut: errors.Is(ctx.Err(), context.DeadlineExceeded),
	}

	switch {
	case res.TimedOut:
		// 124 matches the coreutils timeout convention
		res.ExitCode = 124
	case waitErr != nil:
		var ee *exec.ExitError
		if errors.As(waitErr, &ee) && ee.ProcessState != nil {
			res.ExitCode = ee.ProcessState.ExitCode()
		} else {
			res.ExitCode = 1
		}
	case cmd.ProcessState != nil:
		res.ExitCode = cmd.ProcessState.ExitCode()
	}

	return res, nil
}
