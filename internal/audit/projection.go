package audit

import (
	"fmt"

	"github.com/signalhouse/replaycore/internal/ledger"
	"github.com/signalhouse/replaycore/internal/registry"
	"github.com/signalhouse/replaycore/internal/replay"
	"github.com/signalhouse/replaycore/pkg/types"
)

// Status is the audit-level replay status of a ledger entry. Both capability
// deviation reasons collapse into CAPABILITY_CHANGED at this granularity.
type Status string

const (
	StatusReplayable        Status = "REPLAYABLE"
	StatusModelDeleted      Status = "MODEL_DELETED"
	StatusModelInactive     Status = "MODEL_INACTIVE"
	StatusModelIneligible   Status = "MODEL_INELIGIBLE"
	StatusCapabilityChanged Status = "CAPABILITY_CHANGED"
)

// Entry pairs a ledger record with its replay status under current registry
// state.
type Entry struct {
	Decision     types.DecisionRecord `json:"decision"`
	ReplayStatus Status               `json:"replay_status"`
}

// Projection is the read-only join of ledger and registry. It holds no state
// of its own: every call recomputes against live registry state with the
// same deviation logic the resolver uses, so the view can never drift.
type Projection struct {
	Ledger   ledger.Store
	Registry registry.Reader
}

func NewProjection(store ledger.Store, reg registry.Reader) *Projection {
	return &Projection{Ledger: store, Registry: reg}
}

// Status computes the replay status of a single ledger entry.
func (p *Projection) Status(interactionID string) (Entry, error) {
	rec, ok := p.Ledger.GetDecision(interactionID)
	if !ok {
		return Entry{}, fmt.Errorf("%w: %s", replay.ErrDecisionNotFound, interactionID)
	}
	return Entry{Decision: rec, ReplayStatus: statusOf(p.Registry, rec)}, nil
}

// List computes the replay status of every ledger entry matching the filter,
// e.g. "all decisions that would deviate on replay today".
func (p *Projection) List(filter ledger.DecisionFilter) ([]Entry, error) {
	records, err := p.Ledger.ListDecisions(filter)
	if err != nil {
		return nil, err
	}

	out := make([]Entry, 0, len(records))
	for _, rec := range records {
		out = append(out, Entry{Decision: rec, ReplayStatus: statusOf(p.Registry, rec)})
	}
	return out, nil
}

func statusOf(reg registry.Reader, rec types.DecisionRecord) Status {
	reason, deviated := replay.Classify(reg, rec.ModelID, rec.CapabilityKey)
	if !deviated {
		return StatusReplayable
	}
	switch reason {
	case types.DeviationModelDeleted:
		return StatusModelDeleted
	case types.DeviationModelInactive:
		return StatusModelInactive
	case types.DeviationModelIneligible:
		return StatusModelIneligible
	default:
		return StatusCapabilityChanged
	}
}
