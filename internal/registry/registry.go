package registry

import (
	"fmt"
	"log/slog"
	"maps"
	"os"
	"slices"

	"github.com/pelletier/go-toml/v2"
	"github.com/sablier-labs/v2-core/internal/logger"
)

// Registry is the immutable set of chains known to the foundry configuration.
type Registry struct {
	names []string
	index map[string]struct{}
}

// New builds a registry from names, dropping duplicates and keeping first-seen order.
func New(names ...string) *Registry {
	r := &Registry{index: make(map[string]struct{}, len(names))}
	for _, name := range names {
		r.add(name)
	}
	return r
}

// Load reads the foundry TOML file at path and collects the keys of every
// section in sections. Keys listed in excluded are never part of the registry.
// A file that cannot be read or parsed yields an empty registry; the failure
// is logged and not returned.
func Load(path string, sections, excluded []string) *Registry {
	log := logger.Named("chain_registry").With("path", path)

	data, err := os.ReadFile(path)
	if err != nil {
		log.With("err", err.Error()).Warn("failed to read the foundry config, no chains are known")
		return New()
	}

	registry, err := Parse(data, sections, excluded)
	if err != nil {
		log.With("err", err.Error()).Warn("failed to parse the foundry config, no chains are known")
		return New()
	}

	log.With("chains", registry.Len()).Debug("chain registry loaded")

	return registry
}

// Parse extracts the chain names from raw TOML content.
func Parse(data []byte, sections, excluded []string) (*Registry, error) {
	var document map[string]any
	if err := toml.Unmarshal(data, &document); err != nil {
		return nil, fmt.Errorf("failed to unmarshal TOML: %w", err)
	}

	r := New()
	for _, section := range sections {
		table, ok := document[section].(map[string]any)
		if !ok {
			slog.With("section", section).Debug("section missing or not a table, skipping")
			continue
		}

		for _, name := range slices.Sorted(maps.Keys(table)) {
			if slices.Contains(excluded, name) {
				continue
			}
			r.add(name)
		}
	}

	return r, nil
}

func (r *Registry) add(name string) {
	if _, ok := r.index[name]; ok {
		return
	}
	r.index[name] = struct{}{}
	r.names = append(r.names, name)
}

// Names returns a copy of the chain names in registry order.
func (r *Registry) Names() []string {
	return slices.Clone(r.names)
}

func (r *Registry) Contains(name string) bool {
	_, ok := r.index[name]
	return ok
}

func (r *Registry) Len() int {
	return len(r.names)
}
