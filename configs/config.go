package configs

import (
	"errors"
	"fmt"
	"strings"

	"github.com/ethereum/go-ethereum/common"
)

var Values Config

type (
	FailurePolicy string
	RunnerKind    string

	Config struct {
		LogLevel  string `mapstructure:"log-level"`
		LogFormat string `mapstructure:"log-format"`
		Deploy    Deploy `mapstructure:"deploy"`
	}

	Deploy struct {
		FoundryConfig    string   `mapstructure:"foundry-config"`
		RegistrySections []string `mapstructure:"registry-sections"`
		RegistryExcluded []string `mapstructure:"registry-excluded"`
		DefaultChain     string   `mapstructure:"default-chain"`

		ScriptsDir          string `mapstructure:"scripts-dir"`
		StandardScript      string `mapstructure:"standard-script"`
		DeterministicScript string `mapstructure:"deterministic-script"`

		ForgeBinary string `mapstructure:"forge-binary"`
		ProfileEnv  string `mapstructure:"profile-env"`
		Profile     string `mapstructure:"profile"`

		SignWithAdmin  bool              `mapstructure:"sign-with-admin"`
		AdminAddresses map[string]string `mapstructure:"admin-addresses"`
		DefaultAdmin   string            `mapstructure:"default-admin"`

		FailurePolicy FailurePolicy `mapstructure:"failure-policy"`
		ErrorMarker   string        `mapstructure:"error-marker"`

		Runner      RunnerKind `mapstructure:"runner"`
		DockerImage string     `mapstructure:"docker-image"`
		ProjectDir  string     `mapstructure:"project-dir"`

		BroadcastDir    string `mapstructure:"broadcast-dir"`
		ArchiveDir      string `mapstructure:"archive-dir"`
		PackageManifest string `mapstructure:"package-manifest"`

		DeploymentsDir     string   `mapstructure:"deployments-dir"`
		CoreContracts      []string `mapstructure:"core-contracts"`
		PeripheryContracts []string `mapstructure:"periphery-contracts"`
		SummaryFile        string   `mapstructure:"summary-file"`

		Formatter []string `mapstructure:"formatter"`
	}
)

const (
	FailurePolicyContinue FailurePolicy = "continue"
	FailurePolicyHalt     FailurePolicy = "halt"

	RunnerLocal  RunnerKind = "local"
	RunnerDocker RunnerKind = "docker"
)

// AddressLabels returns every contract label the output should be searched for.
func (c *Deploy) AddressLabels() []string {
	labels := make([]string, 0, len(c.CoreContracts)+len(c.PeripheryContracts))
	labels = append(labels, c.CoreContracts...)
	return append(labels, c.PeripheryContracts...)
}

func (c *Deploy) Validate() error {
	var errs []error

	if c.FoundryConfig == "" {
		errs = append(errs, errors.New("deploy.foundry-config is required"))
	}
	if len(c.RegistrySections) == 0 {
		errs = append(errs, errors.New("deploy.registry-sections must name at least one section"))
	}
	if c.DefaultChain == "" {
		errs = append(errs, errors.New("deploy.default-chain is required"))
	}
	if c.StandardScript == "" {
		errs = append(errs, errors.New("deploy.standard-script is required"))
	}
	if c.DeterministicScript == "" {
		errs = append(errs, errors.New("deploy.deterministic-script is required"))
	}
	if c.ForgeBinary == "" {
		errs = append(errs, errors.New("deploy.forge-binary is required"))
	}
	if c.Profile != "" && c.ProfileEnv == "" {
		errs = append(errs, errors.New("deploy.profile-env is required when deploy.profile is set"))
	}

	if c.DefaultAdmin != "" && !common.IsHexAddress(c.DefaultAdmin) {
		errs = append(errs, fmt.Errorf("deploy.default-admin '%s' is not a hex address", c.DefaultAdmin))
	}
	for chain, addr := range c.AdminAddresses {
		if !common.IsHexAddress(addr) {
			errs = append(errs, fmt.Errorf("deploy.admin-addresses.%s '%s' is not a hex address", chain, addr))
		}
	}
	if c.SignWithAdmin && c.DefaultAdmin == "" {
		errs = append(errs, errors.New("deploy.default-admin is required when deploy.sign-with-admin is enabled"))
	}

	switch c.FailurePolicy {
	case FailurePolicyContinue, FailurePolicyHalt:
	default:
		errs = append(errs, fmt.Errorf("deploy.failure-policy must be either '%s' or '%s'", FailurePolicyContinue, FailurePolicyHalt))
	}

	switch c.Runner {
	case RunnerLocal:
	case RunnerDocker:
		if c.DockerImage == "" {
			errs = append(errs, errors.New("deploy.docker-image is required for the docker runner"))
		}
		if c.ProjectDir == "" {
			errs = append(errs, errors.New("deploy.project-dir is required for the docker runner"))
		}
	default:
		errs = append(errs, fmt.Errorf("deploy.runner must be either '%s' or '%s'", RunnerLocal, RunnerDocker))
	}

	if c.BroadcastDir == "" || c.ArchiveDir == "" || c.PackageManifest == "" {
		errs = append(errs, errors.New("deploy.broadcast-dir, deploy.archive-dir and deploy.package-manifest are required"))
	}
	if c.DeploymentsDir == "" {
		errs = append(errs, errors.New("deploy.deployments-dir is required"))
	}

	seen := make(map[string]struct{})
	for _, label := range c.AddressLabels() {
		if strings.TrimSpace(label) == "" {
			errs = append(errs, errors.New("contract labels must not be empty"))
			continue
		}
		if _, ok := seen[label]; ok {
			errs = append(errs, fmt.Errorf("contract label '%s' is listed twice", label))
		}
		seen[label] = struct{}{}
	}

	if len(errs) > 0 {
		return fmt.Errorf("deploy configuration validation failed: %w", errors.Join(errs...))
	}

	return nil
}
