package ledger

import (
	"errors"

	"github.com/signalhouse/replaycore/pkg/types"
)

// ErrDuplicateInteraction rejects a second write for an interaction_id that
// is already in the ledger. The first record is never overwritten.
var ErrDuplicateInteraction = errors.New("interaction already recorded")

// ErrMissingInteractionID rejects a decision with no key assigned.
var ErrMissingInteractionID = errors.New("missing interaction_id")

// DecisionFilter narrows a ledger listing. Zero-value fields are ignored;
// Limit <= 0 means the store default.
type DecisionFilter struct {
	InteractionID string
	Channel       string
	CapabilityKey string
	ModelID       string
	Limit         int
}

// Store owns the append-only record types: decisions, parity test results,
// and certifications. The interface deliberately has no update or delete —
// immutability is enforced by the absence of any method that could violate
// it, not by convention. Recording an already-present parity result or
// certification is a no-op (first write wins).
type Store interface {
	RecordDecision(rec types.DecisionRecord) error
	GetDecision(interactionID string) (types.DecisionRecord, bool)
	ListDecisions(filter DecisionFilter) ([]types.DecisionRecord, error)

	RecordParityResult(res types.ParityTestResult) error
	GetParityResult(testID string) (types.ParityTestResult, bool)

	RecordCertification(cert types.ParityCertification) error
	GetCertification(certificationID string) (types.ParityCertification, bool)
}

// Matches reports whether rec passes every set field of the filter.
func (f DecisionFilter) Matches(rec types.DecisionRecord) bool {
	if f.InteractionID != "" && rec.InteractionID != f.InteractionID {
		return false
	}
	if f.Channel != "" && rec.Channel != f.Channel {
		return false
	}
	if f.CapabilityKey != "" && rec.CapabilityKey != f.CapabilityKey {
		return false
	}
	if f.ModelID != "" && rec.ModelID != f.ModelID {
		return false
	}
	return true
}

const defaultListLimit = 500
