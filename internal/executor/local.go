package executor

import (
	"bytes"
	"context"
	"errors"
	"io"
	"os"
	"os/exec"
)

// LocalRunner runs forge on the host. Output is captured per stream and, when
// Stdout/Stderr are set, echoed to the operator while forge runs.
type LocalRunner struct {
	Dir    string
	Stdout io.Writer
	Stderr io.Writer
}

func NewLocalRunner(dir string) *LocalRunner {
	return &LocalRunner{Dir: dir, Stdout: os.Stdout, Stderr: os.Stderr}
}

func (r *LocalRunner) Run(ctx context.Context, inv Invocation) (Outcome, error) {
	var stdout, stderr bytes.Buffer

	cmd := exec.CommandContext(ctx, inv.Binary, inv.Args...)
	cmd.Dir = r.Dir
	cmd.Env = append(os.Environ(), inv.Env...)
	cmd.Stdout = tee(&stdout, r.Stdout)
	cmd.Stderr = tee(&stderr, r.Stderr)

	err := cmd.Run()
	outcome := Outcome{Stdout: stdout.String(), Stderr: stderr.String()}
	if err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			outcome.ExitCode = exitErr.ExitCode()
			return outcome, nil
		}
		return outcome, err
	}

	return outcome, nil
}

func tee(buf *bytes.Buffer, echo io.Writer) io.Writer {
	if echo == nil {
		return buf
	}
	return io.MultiWriter(buf, echo)
}
