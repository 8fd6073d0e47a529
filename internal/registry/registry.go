package registry

import (
	"errors"
	"fmt"
	"sync"
)

// ErrCapabilityInUse rejects deletion of a capability that still has model
// mappings. Deletes block; they never cascade into the mappings.
var ErrCapabilityInUse = errors.New("capability still mapped to one or more models")

// ErrCapabilityNotFound reports a delete of an unknown capability key.
var ErrCapabilityNotFound = errors.New("capability not found")

// ModelDescriptor is the registry's current view of a routable model.
// DisallowedCapabilities may overlap SupportedCapabilities; disallowed wins.
type ModelDescriptor struct {
	ModelID                string   `json:"model_id" yaml:"model_id"`
	IsActive               bool     `json:"is_active" yaml:"is_active"`
	IsEligible             bool     `json:"is_eligible" yaml:"is_eligible"`
	SupportedCapabilities  []string `json:"supported_capabilities" yaml:"supported_capabilities"`
	DisallowedCapabilities []string `json:"disallowed_capabilities" yaml:"disallowed_capabilities"`
}

// Supports reports whether key is in the model's supported set.
func (m ModelDescriptor) Supports(key string) bool {
	return contains(m.SupportedCapabilities, key)
}

// Disallows reports whether key is in the model's disallowed set.
func (m ModelDescriptor) Disallows(key string) bool {
	return contains(m.DisallowedCapabilities, key)
}

type CapabilityDescriptor struct {
	CapabilityKey string `json:"capability_key" yaml:"capability_key"`
	Active        bool   `json:"active" yaml:"active"`
}

// Reader is the only registry surface the replay core consumes. The registry
// itself is owned by the routing subsystem and mutates independently of the
// ledger.
type Reader interface {
	GetModel(modelID string) (ModelDescriptor, bool)
	GetCapability(capabilityKey string) (CapabilityDescriptor, bool)
}

// InMemoryRegistry is the reference implementation used by the routing
// subsystem and by tests. All mutators take the write lock; readers observe a
// consistent snapshot at call time.
type InMemoryRegistry struct {
	mu           sync.RWMutex
	models       map[string]ModelDescriptor
	capabilities map[string]CapabilityDescriptor
}

func NewInMemoryRegistry() *InMemoryRegistry {
	return &InMemoryRegistry{
		models:       make(map[string]ModelDescriptor),
		capabilities: make(map[string]CapabilityDescriptor),
	}
}

func (r *InMemoryRegistry) GetModel(modelID string) (ModelDescriptor, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	m, ok := r.models[modelID]
	return m, ok
}

func (r *InMemoryRegistry) GetCapability(capabilityKey string) (CapabilityDescriptor, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	c, ok := r.capabilities[capabilityKey]
	return c, ok
}

func (r *InMemoryRegistry) UpsertModel(m ModelDescriptor) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.models[m.ModelID] = m
}

func (r *InMemoryRegistry) UpsertCapability(c CapabilityDescriptor) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.capabilities[c.CapabilityKey] = c
}

// SetModelActive flips the active flag. Retiring a model is represented as
// is_active=false; mapped models are never hard-deleted.
func (r *InMemoryRegistry) SetModelActive(modelID string, active bool) error {
	return r.updateModel(modelID, func(m *ModelDescriptor) { m.IsActive = active })
}

func (r *InMemoryRegistry) SetModelEligible(modelID string, eligible bool) error {
	return r.updateModel(modelID, func(m *ModelDescriptor) { m.IsEligible = eligible })
}

func (r *InMemoryRegistry) updateModel(modelID string, fn func(*ModelDescriptor)) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	m, ok := r.models[modelID]
	if !ok {
		return fmt.Errorf("model %s not found", modelID)
	}
	fn(&m)
	r.models[modelID] = m
	return nil
}

// DeleteModel removes a model descriptor outright. Used when a model was
// registered in error; retirement goes through SetModelActive(false).
func (r *InMemoryRegistry) DeleteModel(modelID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.models, modelID)
}

// DeleteCapability removes a capability descriptor. The delete is rejected
// with ErrCapabilityInUse while any model still references the key in its
// supported or disallowed set.
func (r *InMemoryRegistry) DeleteCapability(capabilityKey string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.capabilities[capabilityKey]; !ok {
		return fmt.Errorf("%w: %s", ErrCapabilityNotFound, capabilityKey)
	}
	for _, m := range r.models {
		if m.Supports(capabilityKey) || m.Disallows(capabilityKey) {
			return fmt.Errorf("%w: %s referenced by model %s", ErrCapabilityInUse, capabilityKey, m.ModelID)
		}
	}
	delete(r.capabilities, capabilityKey)
	return nil
}

func contains(keys []string, key string) bool {
	for _, k := range keys {
		if k == key {
			return true
		}
	}
	return false
}
