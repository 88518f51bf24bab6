package executor

import (
	"context"
	"fmt"
	"log/slog"
	"path"
	"strings"

	"github.com/sablier-labs/v2-core/internal/logger"
	"github.com/sablier-labs/v2-core/internal/request"
)

// runSignature is the script entrypoint that takes the admin address.
const runSignature = "run(address)"

type (
	// Invocation is one forge call. Env holds KEY=VALUE pairs for this call only.
	Invocation struct {
		Binary string
		Args   []string
		Env    []string
	}

	// Runner executes an invocation to completion.
	Runner interface {
		Run(ctx context.Context, inv Invocation) (Outcome, error)
	}

	Settings struct {
		ForgeBinary         string
		ScriptsDir          string
		StandardScript      string
		DeterministicScript string
		ProfileEnv          string
		Profile             string
		SignWithAdmin       bool
		Admins              AdminBook
	}

	// Executor invokes the deployment script once per chain.
	Executor struct {
		settings Settings
		runner   Runner
		logger   *slog.Logger
	}
)

func New(settings Settings, runner Runner) *Executor {
	return &Executor{
		settings: settings,
		runner:   runner,
		logger:   logger.Named("deployment_executor"),
	}
}

// Script returns the file name of the script selected by variant.
func (e *Executor) Script(variant request.Variant) string {
	if variant == request.VariantDeterministic {
		return e.settings.DeterministicScript
	}
	return e.settings.StandardScript
}

// Args assembles the forge arguments for deploying req to chain.
func (e *Executor) Args(req request.Request, chain string) []string {
	args := []string{
		"script", path.Join(e.settings.ScriptsDir, e.Script(req.Variant)),
		"--rpc-url", chain,
	}

	if req.Broadcast {
		args = append(args, "--broadcast", "--verify")
	}
	if req.GasPrice != "" {
		args = append(args, "--gas-price", req.GasPrice)
	}
	if e.settings.SignWithAdmin {
		args = append(args, "--sig", runSignature, e.settings.Admins.For(chain))
	}

	return args
}

// Invocation returns the full call, including the build profile environment.
func (e *Executor) Invocation(req request.Request, chain string) Invocation {
	inv := Invocation{
		Binary: e.settings.ForgeBinary,
		Args:   e.Args(req, chain),
	}
	if e.settings.Profile != "" {
		inv.Env = []string{fmt.Sprintf("%s=%s", e.settings.ProfileEnv, e.settings.Profile)}
	}
	return inv
}

// Execute runs the deployment for a single chain and blocks until forge exits.
// Only a failure to run forge at all is returned as an error; a failed
// deployment is described by the outcome.
func (e *Executor) Execute(ctx context.Context, req request.Request, chain string) (Outcome, error) {
	inv := e.Invocation(req, chain)

	e.logger.
		With("chain", chain).
		With("command", strings.TrimSpace(strings.Join(inv.Env, " ")+" "+inv.Binary+" "+strings.Join(inv.Args, " "))).
		Info("running the deployment command")

	outcome, err := e.runner.Run(ctx, inv)
	if err != nil {
		return Outcome{Chain: chain}, fmt.Errorf("failed to run %s for chain %s: %w", inv.Binary, chain, err)
	}
	outcome.Chain = chain

	return outcome, nil
}
