package executor

import (
	"context"
	"fmt"
	"io"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/sablier-labs/v2-core/internal/infra/docker"
)

const containerProjectDir = "/project"

type dockerClient interface {
	EnsureImage(ctx context.Context, imageName string) error
	Run(ctx context.Context, opts docker.RunOptions) (docker.RunResult, error)
}

// DockerRunner runs forge inside a foundry image with the project bind-mounted.
// The working directory inside the container mirrors workDir relative to projectDir.
type DockerRunner struct {
	client     dockerClient
	image      string
	projectDir string
	workDir    string
	Stdout     io.Writer
	Stderr     io.Writer
}

func NewDockerRunner(client dockerClient, image, projectDir, workDir string) *DockerRunner {
	return &DockerRunner{
		client:     client,
		image:      image,
		projectDir: projectDir,
		workDir:    workDir,
		Stdout:     os.Stdout,
		Stderr:     os.Stderr,
	}
}

func (r *DockerRunner) Run(ctx context.Context, inv Invocation) (Outcome, error) {
	absProject, err := filepath.Abs(r.projectDir)
	if err != nil {
		return Outcome{}, fmt.Errorf("failed to get absolute project path: %w", err)
	}

	containerWorkDir, err := r.containerWorkDir(absProject)
	if err != nil {
		return Outcome{}, err
	}

	if err := r.client.EnsureImage(ctx, r.image); err != nil {
		return Outcome{}, fmt.Errorf("failed to ensure image '%s': %w", r.image, err)
	}

	result, err := r.client.Run(ctx, docker.RunOptions{
		Image:      r.image,
		Entrypoint: []string{inv.Binary},
		Cmd:        inv.Args,
		Env:        append([]string{"HOME=/tmp"}, inv.Env...),
		Volumes:    map[string]string{absProject: containerProjectDir},
		WorkDir:    containerWorkDir,
		User:       fmt.Sprintf("%d:%d", os.Getuid(), os.Getgid()),
		Stdout:     r.Stdout,
		Stderr:     r.Stderr,
	})
	if err != nil {
		return Outcome{}, err
	}

	return Outcome{ExitCode: result.ExitCode, Stdout: result.Stdout, Stderr: result.Stderr}, nil
}

func (r *DockerRunner) containerWorkDir(absProject string) (string, error) {
	absWork, err := filepath.Abs(r.workDir)
	if err != nil {
		return "", fmt.Errorf("failed to get absolute working directory: %w", err)
	}

	rel, err := filepath.Rel(absProject, absWork)
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return "", fmt.Errorf("working directory '%s' is outside the project directory '%s'", absWork, absProject)
	}

	return path.Join(containerProjectDir, filepath.ToSlash(rel)), nil
}
