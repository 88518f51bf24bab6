package deploy

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/Masterminds/semver/v3"
	"github.com/sablier-labs/v2-core/configs"
	"github.com/sablier-labs/v2-core/internal/artifact"
	"github.com/sablier-labs/v2-core/internal/executor"
	"github.com/sablier-labs/v2-core/internal/formatter"
	"github.com/sablier-labs/v2-core/internal/infra/docker"
	"github.com/sablier-labs/v2-core/internal/infra/filesystem/json"
	"github.com/sablier-labs/v2-core/internal/recorder"
	"github.com/sablier-labs/v2-core/internal/registry"
	"github.com/sablier-labs/v2-core/internal/request"
	"github.com/spf13/cobra"
)

const usage = `Usage:
  deploy-multi-chain deploy [flags] [chain...]

Flags:
  --all              deploy to every chain configured in the foundry config
  --deterministic    use the deterministic deployment script
  --broadcast        broadcast and verify instead of simulating
  --gas-price <v>    forward a gas price to forge
  --cp-bf            archive the broadcast file of each chain
  -h, --help         show this help

Root flags --config <file> and --log-level <level> are accepted anywhere.

Without chains and without --all the configured default chain is used.
`

var CMD = &cobra.Command{
	Use:   "deploy [flags] [chain...]",
	Short: "Deploy the protocol to one or more chains",
	// Tokens are handled by request.Parse so that unknown flags only warn.
	DisableFlagParsing: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		args, err := SplitRootFlags(cmd, args)
		if err != nil {
			return err
		}

		req, warnings, err := request.Parse(args)
		if errors.Is(err, request.ErrHelp) {
			cmd.Print(usage)
			return nil
		}
		if err != nil {
			return err
		}
		warn(warnings)

		cfg := configs.Values.Deploy
		if err := cfg.Validate(); err != nil {
			return err
		}

		reg := registry.Load(cfg.FoundryConfig, cfg.RegistrySections, cfg.RegistryExcluded)
		req, warnings = request.Resolve(req, reg, cfg.DefaultChain)
		warn(warnings)

		workDir, err := os.Getwd()
		if err != nil {
			return fmt.Errorf("failed to get working directory: %w", err)
		}

		runner, closeRunner, err := newRunner(cfg, workDir)
		if err != nil {
			return err
		}
		defer closeRunner()

		service := NewService(
			Options{
				FailurePolicy:  cfg.FailurePolicy,
				ErrorMarker:    cfg.ErrorMarker,
				DeploymentsDir: cfg.DeploymentsDir,
				Layout:         artifact.Layout{BroadcastDir: cfg.BroadcastDir, ArchiveDir: cfg.ArchiveDir},
				Groups:         recorder.Groups{Core: cfg.CoreContracts, Periphery: cfg.PeripheryContracts},
				SummaryFile:    cfg.SummaryFile,
			},
			executor.New(settings(cfg), runner),
			recorder.New(json.NewWriter(), time.Now),
			formatter.New(cfg.Formatter, workDir),
			func() (*semver.Version, error) {
				return artifact.ReadVersion(json.NewReader(), cfg.PackageManifest)
			},
		)

		return service.Run(cmd.Context(), req)
	},
}

// ChainsCMD lists the chain registry, i.e. what --all deploys to.
var ChainsCMD = &cobra.Command{
	Use:   "chains",
	Short: "List the chains configured in the foundry config",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := configs.Values.Deploy
		reg := registry.Load(cfg.FoundryConfig, cfg.RegistrySections, cfg.RegistryExcluded)
		for _, name := range reg.Names() {
			cmd.Println(name)
		}
		return nil
	},
}

// SplitRootFlags applies the root persistent flags found in args to the root
// command and returns the remaining tokens. Cobra hands them over unparsed to
// commands with DisableFlagParsing, wherever they appear on the command line.
func SplitRootFlags(cmd *cobra.Command, args []string) ([]string, error) {
	flags := cmd.Root().PersistentFlags()
	rest := make([]string, 0, len(args))

	for i := 0; i < len(args); i++ {
		arg := args[i]
		if !strings.HasPrefix(arg, "--") {
			rest = append(rest, arg)
			continue
		}

		name, value, inline := strings.Cut(strings.TrimPrefix(arg, "--"), "=")
		if flags.Lookup(name) == nil {
			rest = append(rest, arg)
			continue
		}
		if !inline {
			if i+1 >= len(args) {
				return nil, fmt.Errorf("--%s requires a value: %w", name, request.ErrMissingValue)
			}
			i++
			value = args[i]
		}

		if err := flags.Set(name, value); err != nil {
			return nil, fmt.Errorf("invalid value for --%s: %w", name, err)
		}
	}

	return rest, nil
}

func settings(cfg configs.Deploy) executor.Settings {
	return executor.Settings{
		ForgeBinary:         cfg.ForgeBinary,
		ScriptsDir:          cfg.ScriptsDir,
		StandardScript:      cfg.StandardScript,
		DeterministicScript: cfg.DeterministicScript,
		ProfileEnv:          cfg.ProfileEnv,
		Profile:             cfg.Profile,
		SignWithAdmin:       cfg.SignWithAdmin,
		Admins:              executor.NewAdminBook(cfg.AdminAddresses, cfg.DefaultAdmin),
	}
}

func newRunner(cfg configs.Deploy, workDir string) (executor.Runner, func(), error) {
	if cfg.Runner != configs.RunnerDocker {
		return executor.NewLocalRunner(workDir), func() {}, nil
	}

	client, err := docker.New()
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create docker client: %w", err)
	}
	closeClient := func() {
		if err := client.Close(); err != nil {
			slog.With("err", err.Error()).Warn("failed to close docker client")
		}
	}

	return executor.NewDockerRunner(client, cfg.DockerImage, cfg.ProjectDir, workDir), closeClient, nil
}

func warn(warnings []string) {
	for _, w := range warnings {
		slog.Warn(w)
	}
}
