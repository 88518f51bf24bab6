package recorder

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/sablier-labs/v2-core/internal/infra/filesystem"
	"github.com/sablier-labs/v2-core/internal/logger"
)

const (
	broadcastedMarker = " # This deployment is broadcasted\n\n"
	simulationMarker  = " # This deployment is a simulation\n\n"

	coreHeading      = "## Core contracts"
	peripheryHeading = "## Periphery contracts"

	addressesFileExt = ".txt"
)

type (
	// Groups splits contract labels into the sections of an address file.
	Groups struct {
		Core      []string
		Periphery []string
	}

	// Recorder keeps the durable deployment log and per-chain address files.
	// Existing files are rotated aside, never overwritten.
	Recorder struct {
		writer filesystem.Writer
		now    func() time.Time
		logger *slog.Logger
	}
)

func New(writer filesystem.Writer, now func() time.Time) *Recorder {
	if now == nil {
		now = time.Now
	}
	return &Recorder{
		writer: writer,
		now:    now,
		logger: logger.Named("deployment_recorder"),
	}
}

// Rotate renames an existing file at path to "<unix>_<name>" next to it and
// returns the new name. When nothing exists at path the parent directory is
// created and "" is returned.
func (r *Recorder) Rotate(path string) (string, error) {
	if _, err := os.Stat(path); err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			return "", fmt.Errorf("failed to stat '%s': %w", path, err)
		}
		dir := filepath.Dir(path)
		if err := os.MkdirAll(dir, 0755); err != nil {
			return "", fmt.Errorf("failed to create directory '%s': %w", dir, err)
		}
		return "", nil
	}

	rotated, err := r.rotatedName(path)
	if err != nil {
		return "", err
	}

	if err := os.Rename(path, rotated); err != nil {
		return "", fmt.Errorf("failed to rotate '%s' to '%s': %w", path, rotated, err)
	}

	r.logger.With("path", path, "rotated", rotated).Info("previous file rotated")

	return rotated, nil
}

// rotatedName picks a free timestamped name so two rotations within the same
// second keep both previous files.
func (r *Recorder) rotatedName(path string) (string, error) {
	dir, name := filepath.Split(path)
	stamp := strconv.FormatInt(r.now().Unix(), 10)

	candidate := filepath.Join(dir, stamp+"_"+name)
	for i := 1; ; i++ {
		_, err := os.Stat(candidate)
		if errors.Is(err, os.ErrNotExist) {
			return candidate, nil
		}
		if err != nil {
			return "", fmt.Errorf("failed to stat '%s': %w", candidate, err)
		}
		candidate = filepath.Join(dir, fmt.Sprintf("%s_%d_%s", stamp, i, name))
	}
}

// StartLog rotates the log at path and writes the provenance line of this run.
func (r *Recorder) StartLog(path string, broadcast bool) error {
	if _, err := r.Rotate(path); err != nil {
		return err
	}

	marker := simulationMarker
	if broadcast {
		marker = broadcastedMarker
	}

	if err := r.writer.AppendBytes(path, []byte(marker)); err != nil {
		return fmt.Errorf("failed to write deployment log: %w", err)
	}

	return nil
}

// AddressesPath is the address file of chain inside dir.
func AddressesPath(dir, chain string) string {
	return filepath.Join(dir, chain+addressesFileExt)
}

// WriteAddresses writes the extracted addresses of chain under the core and
// periphery headings. Labels that were not extracted are left out.
func (r *Recorder) WriteAddresses(dir, chain string, addresses map[string]string, groups Groups) (string, error) {
	path := AddressesPath(dir, chain)

	if _, err := r.Rotate(path); err != nil {
		return "", err
	}

	if err := r.writer.WriteBytes(path, []byte(RenderAddresses(chain, addresses, groups))); err != nil {
		return "", fmt.Errorf("failed to write addresses for chain %s: %w", chain, err)
	}

	r.logger.With("chain", chain, "path", path, "count", len(addresses)).Info("contract addresses recorded")

	return path, nil
}

// RenderAddresses formats an address file.
func RenderAddresses(chain string, addresses map[string]string, groups Groups) string {
	var b strings.Builder
	fmt.Fprintf(&b, "# %s\n", chain)

	section := func(heading string, labels []string) {
		fmt.Fprintf(&b, "\n%s\n\n", heading)
		for _, label := range labels {
			if addr, ok := addresses[label]; ok {
				fmt.Fprintf(&b, "%s = %s\n", label, addr)
			}
		}
	}
	section(coreHeading, groups.Core)
	section(peripheryHeading, groups.Periphery)

	return b.String()
}
