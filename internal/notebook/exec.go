package notebook

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os/exec"
	"time"

	"github.com/chris-collard/fidle/internal/ctxlog"
)

// ErrExecution marks a notebook that ran but raised inside a cell. The
// runner treats it as a per-notebook failure and carries on with the rest of
// the profile.
var ErrExecution = errors.New("notebook execution failed")

// DefaultTimeout bounds one notebook execution. Generous, some course
// trainings legitimately run for over an hour.
const DefaultTimeout = 6000 * time.Second

// Executor runs a notebook in a working directory and returns the executed
// document.
type Executor interface {
	Execute(ctx context.Context, dir, src string) (*Notebook, error)
}

// JupyterExecutor executes notebooks by shelling out to
// `jupyter nbconvert --to notebook --execute`, reading the executed document
// from stdout. Cell errors surface as a non-zero exit status.
type JupyterExecutor struct {
	// Command is the jupyter binary, "jupyter" when empty.
	Command string
	// Kernel is the kernel name, "python3" when empty.
	Kernel string
	// Timeout bounds a single notebook execution, DefaultTimeout when zero.
	Timeout time.Duration
}

// Execute implements Executor.
func (e *JupyterExecutor) Execute(ctx context.Context, dir, src string) (*Notebook, error) {
	logger := ctxlog.FromContext(ctx)

	command := e.Command
	if command == "" {
		command = "jupyter"
	}
	kernel := e.Kernel
	if kernel == "" {
		kernel = "python3"
	}
	timeout := e.Timeout
	if timeout == 0 {
		timeout = DefaultTimeout
	}

	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	args := []string{
		"nbconvert",
		"--to", "notebook",
		"--execute",
		"--stdout",
		fmt.Sprintf("--ExecutePreprocessor.timeout=%d", int(timeout.Seconds())),
		fmt.Sprintf("--ExecutePreprocessor.kernel_name=%s", kernel),
		src,
	}
	logger.Debug("Executing notebook.", "dir", dir, "src", src, "kernel", kernel)

	var stdout, stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, command, args...)
	cmd.Dir = dir
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, fmt.Errorf("%w: %s: %v", ErrExecution, src, ctxErr)
		}
		return nil, fmt.Errorf("%w: %s: %v: %s", ErrExecution, src, err, lastLines(stderr.String(), 5))
	}

	var nb Notebook
	if err := json.Unmarshal(stdout.Bytes(), &nb); err != nil {
		return nil, fmt.Errorf("parsing executed notebook %s: %w", src, err)
	}
	return &nb, nil
}

// lastLines keeps the tail of a command's stderr for error messages.
func lastLines(s string, n int) string {
	lines := bytes.Split(bytes.TrimSpace([]byte(s)), []byte("\n"))
	if len(lines) > n {
		lines = lines[len(lines)-n:]
	}
	return string(bytes.Join(lines, []byte("\n")))
}
