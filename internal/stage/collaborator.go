package stage

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
)

// Collaborator is an external process. Its whole contract with the sweep is
// the pair of resolved paths.
type Collaborator interface {
	Invoke(ctx context.Context, in, out string) error
}

// CollaboratorFunc adapts a function to Collaborator.
type CollaboratorFunc func(ctx context.Context, in, out string) error

func (f CollaboratorFunc) Invoke(ctx context.Context, in, out string) error {
	return f(ctx, in, out)
}

// Command runs Argv with the input and output paths appended. Stdout and
// stderr are captured to <out>/<stage>.out.log and <out>/<stage>.err.log.
type Command struct {
	Stage string
	Argv  []string
	// Dir is the working directory of the process.
	Dir string
}

func (c *Command) Invoke(ctx context.Context, in, out string) error {
	if len(c.Argv) == 0 {
		return fmt.Errorf("stage %s: empty command", c.Stage)
	}
	args := append(append([]string(nil), c.Argv[1:]...), in, out)

	stdout, err := os.Create(filepath.Join(out, c.Stage+".out.log"))
	if err != nil {
		return err
	}
	defer stdout.Close()
	stderr, err := os.Create(filepath.Join(out, c.Stage+".err.log"))
	if err != nil {
		return err
	}
	defer stderr.Close()

	cmd := exec.CommandContext(ctx, c.Argv[0], args...)
	cmd.Dir = c.Dir
	cmd.Stdout = stdout
	cmd.Stderr = stderr

	if err := cmd.Run(); err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			return &ExitError{Stage: c.Stage, Code: exitErr.ExitCode(), Err: err}
		}
		return fmt.Errorf("stage %s: %w", c.Stage, err)
	}
	return nil
}

// ExitError reports a collaborator that exited non-zero.
type ExitError struct {
	Stage string
	Code  int
	Err   error
}

func (e *ExitError) Error() string {
	return fmt.Sprintf("stage %s exited with status %d", e.Stage, e.Code)
}

func (e *ExitError) Unwrap() error {
	return e.Err
}
