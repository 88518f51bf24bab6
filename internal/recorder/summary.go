package recorder

import (
	"fmt"

	"gopkg.in/yaml.v3"
)

type (
	Summary struct {
		Mode    string         `yaml:"mode"`
		Variant string         `yaml:"variant"`
		Version string         `yaml:"version,omitempty"`
		Chains  []ChainSummary `yaml:"chains"`
	}

	ChainSummary struct {
		Chain         string            `yaml:"chain"`
		NetworkID     string            `yaml:"network-id,omitempty"`
		Status        string            `yaml:"status"`
		Addresses     map[string]string `yaml:"addresses,omitempty"`
		AddressesFile string            `yaml:"addresses-file,omitempty"`
		BroadcastFile string            `yaml:"broadcast-file,omitempty"`
		Errors        []string          `yaml:"errors,omitempty"`
	}
)

const (
	StatusSucceeded = "succeeded"
	StatusFailed    = "failed"
)

// WriteSummary renders the run summary as yaml at path, rotating an older one.
func (r *Recorder) WriteSummary(path string, summary Summary) error {
	data, err := yaml.Marshal(summary)
	if err != nil {
		return fmt.Errorf("could not marshal deployment summary: %w", err)
	}

	if _, err := r.Rotate(path); err != nil {
		return err
	}

	if err := r.writer.WriteBytes(path, data); err != nil {
		return fmt.Errorf("could not write deployment summary: %w", err)
	}

	return nil
}
