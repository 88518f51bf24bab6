package artifact

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/Masterminds/semver/v3"
)

const (
	latestRunFile = "run-latest.json"
	dryRunDirName = "dry-run"
	archiveSubDir = "broadcasts"
)

var (
	// ErrSourceMissing is returned when the broadcast file to archive does not exist.
	ErrSourceMissing = errors.New("broadcast file does not exist")
	// ErrNetworkIDUnknown is returned when no network id was recovered from forge output.
	ErrNetworkIDUnknown = errors.New("network id unknown")
)

type (
	// Layout locates the forge broadcast tree and the version-keyed archive.
	Layout struct {
		BroadcastDir string
		ArchiveDir   string
	}

	// Move describes the relocation of one broadcast record.
	Move struct {
		Chain       string
		NetworkID   string
		Source      string
		Destination string
	}
)

// Plan computes where the latest broadcast record for script on networkID lives
// and where it is archived for chain under version.
func (l Layout) Plan(script, chain, networkID string, broadcast bool, version *semver.Version) Move {
	source := filepath.Join(l.BroadcastDir, script, networkID)
	if !broadcast {
		source = filepath.Join(source, dryRunDirName)
	}

	return Move{
		Chain:       chain,
		NetworkID:   networkID,
		Source:      filepath.Join(source, latestRunFile),
		Destination: filepath.Join(l.ArchiveDir, "v"+version.String(), archiveSubDir, chain+".json"),
	}
}

// Apply renames the broadcast record into the archive, creating missing
// destination directories first. Nothing is written when the source is absent.
func Apply(move Move) error {
	if move.NetworkID == "" {
		return fmt.Errorf("cannot locate broadcast file for chain %s: %w", move.Chain, ErrNetworkIDUnknown)
	}

	info, err := os.Stat(move.Source)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("'%s' for chain %s: %w", move.Source, move.Chain, ErrSourceMissing)
		}
		return fmt.Errorf("failed to stat '%s': %w", move.Source, err)
	}
	if info.IsDir() {
		return fmt.Errorf("broadcast source '%s' is a directory", move.Source)
	}

	dir := filepath.Dir(move.Destination)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create archive directory '%s': %w", dir, err)
	}

	if err := os.Rename(move.Source, move.Destination); err != nil {
		return fmt.Errorf("failed to move '%s' to '%s': %w", move.Source, move.Destination, err)
	}

	return nil
}
