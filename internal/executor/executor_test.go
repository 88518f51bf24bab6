package executor

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/sablier-labs/v2-core/internal/infra/docker"
	"github.com/sablier-labs/v2-core/internal/request"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	baseAdmin    = "0x83A6fA8c04420B3F9C7A4CF1c040b63Fbbc89B66"
	defaultAdmin = "0xb1bEF51ebCA01EB12001a639bDBbFF6eEcA12B9F"
)

func checksum(addr string) string {
	return common.HexToAddress(addr).Hex()
}

func testSettings() Settings {
	return Settings{
		ForgeBinary:         "forge",
		ScriptsDir:          "../script/protocol",
		StandardScript:      "DeployProtocol.s.sol",
		DeterministicScript: "DeployDeterministicProtocol.s.sol",
		ProfileEnv:          "FOUNDRY_PROFILE",
		Profile:             "optimized",
		Admins:              NewAdminBook(map[string]string{"base": baseAdmin}, defaultAdmin),
	}
}

type fakeRunner struct {
	calls   []Invocation
	outcome Outcome
	err     error
}

func (f *fakeRunner) Run(_ context.Context, inv Invocation) (Outcome, error) {
	f.calls = append(f.calls, inv)
	return f.outcome, f.err
}

func TestArgsSimulation(t *testing.T) {
	e := New(testSettings(), &fakeRunner{})

	args := e.Args(request.Request{}, "sepolia")
	assert.Equal(t, []string{"script", "../script/protocol/DeployProtocol.s.sol", "--rpc-url", "sepolia"}, args)
}

func TestArgsBroadcastDeterministicWithGasPrice(t *testing.T) {
	e := New(testSettings(), &fakeRunner{})

	req := request.Request{Variant: request.VariantDeterministic, Broadcast: true, GasPrice: "25000000000"}
	args := e.Args(req, "base")
	assert.Equal(t, []string{
		"script", "../script/protocol/DeployDeterministicProtocol.s.sol",
		"--rpc-url", "base",
		"--broadcast", "--verify",
		"--gas-price", "25000000000",
	}, args)
}

func TestArgsSignWithAdmin(t *testing.T) {
	settings := testSettings()
	settings.SignWithAdmin = true
	e := New(settings, &fakeRunner{})

	assert.Equal(t, []string{"--sig", "run(address)", checksum(baseAdmin)}, e.Args(request.Request{}, "base")[4:])
	assert.Equal(t, []string{"--sig", "run(address)", checksum(defaultAdmin)}, e.Args(request.Request{}, "gnosis")[4:])
}

func TestInvocationCarriesProfile(t *testing.T) {
	e := New(testSettings(), &fakeRunner{})

	inv := e.Invocation(request.Request{}, "base")
	assert.Equal(t, "forge", inv.Binary)
	assert.Equal(t, []string{"FOUNDRY_PROFILE=optimized"}, inv.Env)

	settings := testSettings()
	settings.Profile = ""
	assert.Empty(t, New(settings, &fakeRunner{}).Invocation(request.Request{}, "base").Env)
}

func TestExecuteTagsOutcomeWithChain(t *testing.T) {
	runner := &fakeRunner{outcome: Outcome{ExitCode: 1, Stderr: "boom"}}
	e := New(testSettings(), runner)

	outcome, err := e.Execute(context.Background(), request.Request{}, "base")
	require.NoError(t, err)
	assert.Equal(t, "base", outcome.Chain)
	assert.True(t, outcome.Failed(""))
	require.Len(t, runner.calls, 1)
}

func TestExecuteWrapsRunnerError(t *testing.T) {
	e := New(testSettings(), &fakeRunner{err: errors.New("exec: \"forge\": executable file not found")})

	_, err := e.Execute(context.Background(), request.Request{}, "base")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "chain base")
}

func TestOutcomeFailed(t *testing.T) {
	assert.False(t, Outcome{Stdout: "ok"}.Failed("Error:"))
	assert.True(t, Outcome{Stdout: "Error: script failed"}.Failed("Error:"))
	assert.True(t, Outcome{Stderr: "Error: revert"}.Failed("Error:"))
	assert.False(t, Outcome{Stdout: "Error: ignored"}.Failed(""))
	assert.True(t, Outcome{ExitCode: 2}.Failed("Error:"))
}

func TestAdminBookChecksums(t *testing.T) {
	book := NewAdminBook(map[string]string{"base": "0x83a6fa8c04420b3f9c7a4cf1c040b63fbbc89b66"}, defaultAdmin)
	assert.Equal(t, checksum(baseAdmin), book.For("base"))
	assert.Equal(t, checksum(defaultAdmin), book.For("mainnet"))
	assert.Equal(t, checksum(baseAdmin), book.For("Base"))
}

func writeScript(t *testing.T, dir, body string) string {
	t.Helper()
	path := filepath.Join(dir, "fake-forge.sh")
	require.NoError(t, os.WriteFile(path, []byte("#!/bin/sh\n"+body), 0755))
	return path
}

func TestLocalRunnerCapturesStreamsAndEnv(t *testing.T) {
	dir := t.TempDir()
	script := writeScript(t, dir, `echo "profile=$FOUNDRY_PROFILE args=$*"
echo "warning" >&2
`)

	runner := &LocalRunner{Dir: dir}
	outcome, err := runner.Run(context.Background(), Invocation{
		Binary: script,
		Args:   []string{"script", "Deploy.s.sol"},
		Env:    []string{"FOUNDRY_PROFILE=optimized"},
	})
	require.NoError(t, err)

	assert.Equal(t, 0, outcome.ExitCode)
	assert.Equal(t, "profile=optimized args=script Deploy.s.sol\n", outcome.Stdout)
	assert.Equal(t, "warning\n", outcome.Stderr)
	assert.Empty(t, os.Getenv("FOUNDRY_PROFILE"))
}

func TestLocalRunnerReportsExitCode(t *testing.T) {
	dir := t.TempDir()
	script := writeScript(t, dir, "echo 'Error: script failed' >&2\nexit 3\n")

	outcome, err := (&LocalRunner{Dir: dir}).Run(context.Background(), Invocation{Binary: script})
	require.NoError(t, err)
	assert.Equal(t, 3, outcome.ExitCode)
	assert.Contains(t, outcome.Stderr, "Error: script failed")
}

func TestLocalRunnerMissingBinary(t *testing.T) {
	_, err := (&LocalRunner{}).Run(context.Background(), Invocation{Binary: filepath.Join(t.TempDir(), "nope")})
	require.Error(t, err)
}

type fakeDocker struct {
	ensured []string
	opts    docker.RunOptions
	result  docker.RunResult
}

func (f *fakeDocker) EnsureImage(_ context.Context, imageName string) error {
	f.ensured = append(f.ensured, imageName)
	return nil
}

func (f *fakeDocker) Run(_ context.Context, opts docker.RunOptions) (docker.RunResult, error) {
	f.opts = opts
	return f.result, nil
}

func TestDockerRunnerMapsInvocation(t *testing.T) {
	project := t.TempDir()
	work := filepath.Join(project, "deploy-multi-chain")
	require.NoError(t, os.MkdirAll(work, 0755))

	client := &fakeDocker{result: docker.RunResult{ExitCode: 1, Stdout: "out", Stderr: "err"}}
	runner := NewDockerRunner(client, "ghcr.io/foundry-rs/foundry:latest", project, work)
	runner.Stdout, runner.Stderr = nil, nil

	outcome, err := runner.Run(context.Background(), Invocation{
		Binary: "forge",
		Args:   []string{"script", "../script/protocol/DeployProtocol.s.sol"},
		Env:    []string{"FOUNDRY_PROFILE=optimized"},
	})
	require.NoError(t, err)

	assert.Equal(t, Outcome{ExitCode: 1, Stdout: "out", Stderr: "err"}, outcome)
	assert.Equal(t, []string{"ghcr.io/foundry-rs/foundry:latest"}, client.ensured)
	assert.Equal(t, []string{"forge"}, client.opts.Entrypoint)
	assert.Equal(t, "/project/deploy-multi-chain", client.opts.WorkDir)
	assert.Contains(t, client.opts.Env, "FOUNDRY_PROFILE=optimized")

	absProject, err := filepath.Abs(project)
	require.NoError(t, err)
	assert.Equal(t, map[string]string{absProject: "/project"}, client.opts.Volumes)
}

func TestDockerRunnerRejectsWorkDirOutsideProject(t *testing.T) {
	runner := NewDockerRunner(&fakeDocker{}, "img", t.TempDir(), t.TempDir())

	_, err := runner.Run(context.Background(), Invocation{Binary: "forge"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "outside the project directory")
}
