package deploy

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"

	"github.com/Masterminds/semver/v3"
	"github.com/sablier-labs/v2-core/configs"
	"github.com/sablier-labs/v2-core/internal/artifact"
	"github.com/sablier-labs/v2-core/internal/executor"
	"github.com/sablier-labs/v2-core/internal/logger"
	"github.com/sablier-labs/v2-core/internal/parser"
	"github.com/sablier-labs/v2-core/internal/recorder"
	"github.com/sablier-labs/v2-core/internal/request"
)

const (
	deterministicLogName    = "deterministic.md"
	nonDeterministicLogName = "non_deterministic.md"
)

var (
	ErrNoChains    = errors.New("no chains to deploy to")
	ErrChainFailed = errors.New("deployment failed")
	ErrHalted      = errors.New("deployment halted after a failed chain")
)

type (
	deployer interface {
		Script(variant request.Variant) string
		Execute(ctx context.Context, req request.Request, chain string) (executor.Outcome, error)
	}
	deploymentRecorder interface {
		StartLog(path string, broadcast bool) error
		WriteAddresses(dir, chain string, addresses map[string]string, groups recorder.Groups) (string, error)
		WriteSummary(path string, summary recorder.Summary) error
	}
	outputFormatter interface {
		Run(ctx context.Context)
	}
	versionReader func() (*semver.Version, error)

	Options struct {
		FailurePolicy  configs.FailurePolicy
		ErrorMarker    string
		DeploymentsDir string
		Layout         artifact.Layout
		Groups         recorder.Groups
		SummaryFile    string
	}

	// Service runs a deployment request chain by chain.
	Service struct {
		opts      Options
		deployer  deployer
		recorder  deploymentRecorder
		formatter outputFormatter
		version   versionReader
		logger    *slog.Logger
	}
)

func NewService(opts Options, deployer deployer, recorder deploymentRecorder, formatter outputFormatter, version versionReader) *Service {
	return &Service{
		opts:      opts,
		deployer:  deployer,
		recorder:  recorder,
		formatter: formatter,
		version:   version,
		logger:    logger.Named("deploy_service"),
	}
}

// LogPath is the deployment log for the script variant of req.
func (s *Service) LogPath(req request.Request) string {
	name := nonDeterministicLogName
	if req.Deterministic() {
		name = deterministicLogName
	}
	return filepath.Join(s.opts.DeploymentsDir, name)
}

// Run deploys req to each of its chains in order. Chain failures are reported
// and, under the halt policy, stop the run. Errors writing artifacts or records
// are collected and returned together once every chain was processed.
func (s *Service) Run(ctx context.Context, req request.Request) error {
	if len(req.Chains) == 0 {
		return ErrNoChains
	}

	s.logger.
		With("chains", strings.Join(req.Chains, ", ")).
		With("broadcast", req.Broadcast).
		With("variant", req.Variant.String()).
		Info("deploying to the chains")

	var version *semver.Version
	if req.CopyBroadcast {
		v, err := s.version()
		if err != nil {
			return fmt.Errorf("cannot archive broadcast files: %w", err)
		}
		version = v
	}

	if err := s.recorder.StartLog(s.LogPath(req), req.Broadcast); err != nil {
		return fmt.Errorf("failed to start deployment log: %w", err)
	}

	summary := recorder.Summary{Mode: mode(req), Variant: req.Variant.String()}
	if version != nil {
		summary.Version = version.String()
	}

	var (
		chainErrs []error
		ioErrs    []error
		halted    bool
	)
	for _, chain := range req.Chains {
		result := s.deployChain(ctx, req, chain, version)
		summary.Chains = append(summary.Chains, result.entry)
		ioErrs = append(ioErrs, result.ioErrs...)

		if result.deployErr != nil {
			chainErrs = append(chainErrs, result.deployErr)
			if s.opts.FailurePolicy == configs.FailurePolicyHalt {
				s.logger.With("chain", chain).Error("halting the run after a failed chain")
				halted = true
				break
			}
		}
	}

	if s.opts.SummaryFile != "" {
		if err := s.recorder.WriteSummary(s.opts.SummaryFile, summary); err != nil {
			ioErrs = append(ioErrs, err)
		}
	}

	s.formatter.Run(ctx)

	var errs []error
	if halted {
		errs = append(errs, ErrHalted)
	}
	if len(chainErrs) > 0 {
		errs = append(errs, fmt.Errorf("%w: %w", ErrChainFailed, errors.Join(chainErrs...)))
	}
	errs = append(errs, ioErrs...)

	if len(errs) > 0 {
		return errors.Join(errs...)
	}

	s.logger.Info("deployment finished for every chain")
	return nil
}

// chainResult separates a failed deployment from failures of the artifact and
// record steps that follow a successful one.
type chainResult struct {
	entry     recorder.ChainSummary
	deployErr error
	ioErrs    []error
}

func (s *Service) deployChain(ctx context.Context, req request.Request, chain string, version *semver.Version) chainResult {
	log := s.logger.With("chain", chain)
	result := chainResult{entry: recorder.ChainSummary{Chain: chain, Status: recorder.StatusFailed}}
	entry := &result.entry

	outcome, err := s.deployer.Execute(ctx, req, chain)
	if err != nil {
		log.With("err", err.Error()).Error("could not run the deployment command")
		entry.Errors = append(entry.Errors, err.Error())
		result.deployErr = err
		return result
	}

	if outcome.Failed(s.opts.ErrorMarker) {
		err := fmt.Errorf("chain %s: exit code %d", chain, outcome.ExitCode)
		log.
			With("exit_code", outcome.ExitCode).
			With("stderr", strings.TrimSpace(outcome.Stderr)).
			Error("deployment command failed")
		entry.Errors = append(entry.Errors, err.Error())
		result.deployErr = err
		return result
	}

	script := s.deployer.Script(req.Variant)
	facts := parser.Extract(outcome, script, s.labels())
	entry.Status = recorder.StatusSucceeded
	entry.NetworkID = facts.NetworkID
	entry.Addresses = facts.Addresses

	if facts.NetworkID == "" {
		log.Warn("network id not found in the deployment output")
	}

	fail := func(err error) {
		log.With("err", err.Error()).Error("post-processing failed")
		entry.Errors = append(entry.Errors, err.Error())
		result.ioErrs = append(result.ioErrs, fmt.Errorf("chain %s: %w", chain, err))
	}

	if req.CopyBroadcast {
		move := s.opts.Layout.Plan(script, chain, facts.NetworkID, req.Broadcast, version)
		if err := artifact.Apply(move); err != nil {
			fail(err)
		} else {
			entry.BroadcastFile = move.Destination
			log.With("source", move.Source, "destination", move.Destination).Info("broadcast file archived")
		}
	}

	if len(facts.Addresses) > 0 {
		path, err := s.recorder.WriteAddresses(s.opts.DeploymentsDir, chain, facts.Addresses, s.opts.Groups)
		if err != nil {
			fail(err)
		} else {
			entry.AddressesFile = path
		}
	}

	log.With("network_id", facts.NetworkID, "addresses", len(facts.Addresses)).Info("chain deployed")

	return result
}

func (s *Service) labels() []string {
	labels := make([]string, 0, len(s.opts.Groups.Core)+len(s.opts.Groups.Periphery))
	labels = append(labels, s.opts.Groups.Core...)
	return append(labels, s.opts.Groups.Periphery...)
}

func mode(req request.Request) string {
	if req.Broadcast {
		return "broadcast"
	}
	return "simulation"
}
