package docker

import (
	"bytes"
	"context"
	"fmt"
	"io"

	"github.com/docker/docker/api/types/container"
	"github.com/docker/docker/pkg/stdcopy"
)

type RunOptions struct {
	Image      string
	Entrypoint []string
	Cmd        []string
	Env        []string
	Volumes    map[string]string // host:container
	WorkDir    string
	User       string
	// Stdout and Stderr, when set, receive the container output as it is produced.
	Stdout io.Writer
	Stderr io.Writer
}

// RunResult holds what a finished container produced.
type RunResult struct {
	ExitCode int
	Stdout   string
	Stderr   string
}

// Run runs a Docker container to completion and captures its output. A non-zero
// exit code is reported in the result, not as an error.
func (c *Client) Run(ctx context.Context, opts RunOptions) (RunResult, error) {
	config := &container.Config{
		Image:      opts.Image,
		Entrypoint: opts.Entrypoint,
		Cmd:        opts.Cmd,
		Env:        opts.Env,
		WorkingDir: opts.WorkDir,
		User:       opts.User,
	}

	hostConfig := &container.HostConfig{AutoRemove: true}
	if len(opts.Volumes) > 0 {
		binds := make([]string, 0, len(opts.Volumes))
		for host, containerPath := range opts.Volumes {
			binds = append(binds, fmt.Sprintf("%s:%s", host, containerPath))
		}
		hostConfig.Binds = binds
	}

	resp, err := c.cli.ContainerCreate(ctx, config, hostConfig, nil, nil, "")
	if err != nil {
		return RunResult{}, fmt.Errorf("failed to create container: %w", err)
	}
	containerID := resp.ID
	log := c.logger.With("container_id", containerID, "image", opts.Image)

	// Attach before starting, AutoRemove containers are gone once they exit.
	attachResp, err := c.cli.ContainerAttach(ctx, containerID, container.AttachOptions{
		Stream: true,
		Stdout: true,
		Stderr: true,
	})
	if err != nil {
		_ = c.cli.ContainerRemove(ctx, containerID, container.RemoveOptions{Force: true})
		return RunResult{}, fmt.Errorf("failed to attach to container: %w", err)
	}
	defer attachResp.Close()

	var stdout, stderr bytes.Buffer
	outWriter := io.Writer(&stdout)
	errWriter := io.Writer(&stderr)
	if opts.Stdout != nil {
		outWriter = io.MultiWriter(opts.Stdout, &stdout)
	}
	if opts.Stderr != nil {
		errWriter = io.MultiWriter(opts.Stderr, &stderr)
	}

	copied := make(chan struct{})
	go func() {
		defer close(copied)
		_, _ = stdcopy.StdCopy(outWriter, errWriter, attachResp.Reader)
	}()

	// Waiting on the next exit is registered before start for the same reason.
	statusCh, errCh := c.cli.ContainerWait(ctx, containerID, container.WaitConditionNextExit)

	log.Debug("starting container")
	if err := c.cli.ContainerStart(ctx, containerID, container.StartOptions{}); err != nil {
		_ = c.cli.ContainerRemove(ctx, containerID, container.RemoveOptions{Force: true})
		return RunResult{}, fmt.Errorf("failed to start container: %w", err)
	}

	var exitCode int
	select {
	case err := <-errCh:
		if err != nil {
			return RunResult{}, fmt.Errorf("error waiting for container: %w", err)
		}
	case status := <-statusCh:
		if status.Error != nil && status.Error.Message != "" {
			return RunResult{}, fmt.Errorf("container wait failed: %s", status.Error.Message)
		}
		exitCode = int(status.StatusCode)
	}

	select {
	case <-copied:
	case <-ctx.Done():
		return RunResult{}, ctx.Err()
	}

	log.With("exit_code", exitCode).Debug("container finished")

	return RunResult{
		ExitCode: exitCode,
		Stdout:   stdout.String(),
		Stderr:   stderr.String(),
	}, nil
}
