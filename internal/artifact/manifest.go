package artifact

import (
	"fmt"

	"github.com/Masterminds/semver/v3"
	"github.com/sablier-labs/v2-core/internal/infra/filesystem"
)

// ReadVersion returns the semantic version declared in the package manifest at path.
func ReadVersion(reader filesystem.Reader, path string) (*semver.Version, error) {
	var manifest struct {
		Version string `json:"version"`
	}
	if err := reader.ReadJSON(path, &manifest); err != nil {
		return nil, fmt.Errorf("failed to read package manifest: %w", err)
	}

	if manifest.Version == "" {
		return nil, fmt.Errorf("package manifest '%s' has no version", path)
	}

	version, err := semver.StrictNewVersion(manifest.Version)
	if err != nil {
		return nil, fmt.Errorf("package manifest '%s' version '%s' is not a semantic version: %w", path, manifest.Version, err)
	}

	return version, nil
}
