package registry

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Snapshot is the on-disk shape the gateway loads its registry view from.
// In production the routing subsystem owns the live registry; the snapshot
// file is how a standalone gateway observes it.
type Snapshot struct {
	Models       []ModelDescriptor      `yaml:"models"`
	Capabilities []CapabilityDescriptor `yaml:"capabilities"`
}

// LoadSnapshot reads a registry snapshot file into an in-memory registry.
func LoadSnapshot(path string) (*InMemoryRegistry, error) {
	// #nosec G304 -- path is operator-provided config path.
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var snap Snapshot
	if err := yaml.Unmarshal(raw, &snap); err != nil {
		return nil, fmt.Errorf("parse registry snapshot: %w", err)
	}

	reg := NewInMemoryRegistry()
	for _, c := range snap.Capabilities {
		if c.CapabilityKey == "" {
			return nil, fmt.Errorf("registry snapshot: capability with empty key")
		}
		reg.UpsertCapability(c)
	}
	for _, m := range snap.Models {
		if m.ModelID == "" {
			return nil, fmt.Errorf("registry snapshot: model with empty id")
		}
		reg.UpsertModel(m)
	}
	return reg, nil
}
