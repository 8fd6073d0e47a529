package replay

import (
	"errors"
	"fmt"

	"github.com/signalhouse/replaycore/internal/ledger"
	"github.com/signalhouse/replaycore/internal/registry"
	"github.com/signalhouse/replaycore/pkg/types"
)

// ErrDecisionNotFound reports a resolve for an interaction_id that was never
// recorded. Terminal: there is nothing to reconstruct from.
var ErrDecisionNotFound = errors.New("decision not found")

// Resolver re-evaluates ledger entries against the live registry. Resolve is
// a pure function of ledger + registry state at call time: it has no side
// effects, may run with unbounded concurrency, and its verdict legitimately
// changes between calls when the registry changes in between.
type Resolver struct {
	Ledger   ledger.Store
	Registry registry.Reader
}

func NewResolver(store ledger.Store, reg registry.Reader) *Resolver {
	return &Resolver{Ledger: store, Registry: reg}
}

// Resolve determines whether the decision for interactionID is still exactly
// reproducible. On deviation the verdict names the single highest-priority
// reason and carries no replay model; substitution is the caller's business,
// never the resolver's.
func (r *Resolver) Resolve(interactionID string) (types.ReplayVerdict, error) {
	rec, ok := r.Ledger.GetDecision(interactionID)
	if !ok {
		return types.ReplayVerdict{}, fmt.Errorf("%w: %s", ErrDecisionNotFound, interactionID)
	}

	verdict := types.ReplayVerdict{
		InteractionID:   rec.InteractionID,
		OriginalModelID: rec.ModelID,
		CapabilityKey:   rec.CapabilityKey,
		PersonaID:       rec.PersonaID,
		RoutingScore:    rec.RoutingScore,
		RoutingReason:   rec.RoutingReason,
	}

	if reason, deviated := Classify(r.Registry, rec.ModelID, rec.CapabilityKey); deviated {
		verdict.ReplayDeviation = true
		verdict.DeviationReason = reason
		verdict.Explanation = Explain(reason, rec.ModelID, rec.CapabilityKey)
		return verdict, nil
	}

	// Replay fidelity, not optimality: the same model must be reused.
	replayModel := rec.ModelID
	verdict.ReplayModelID = &replayModel
	return verdict, nil
}

// Classify evaluates deviation causes in strict priority order; the first
// match wins. The ordering is a contract: a model can be inactive AND
// ineligible at once, and callers must always receive the same single reason.
// Adding a cause means inserting it at its priority position here.
func Classify(reg registry.Reader, modelID, capabilityKey string) (types.DeviationReason, bool) {
	model, ok := reg.GetModel(modelID)
	switch {
	case !ok:
		return types.DeviationModelDeleted, true
	case !model.IsActive:
		return types.DeviationModelInactive, true
	case !model.IsEligible:
		return types.DeviationModelIneligible, true
	case !model.Supports(capabilityKey):
		return types.DeviationCapabilityDropped, true
	case model.Disallows(capabilityKey):
		return types.DeviationCapabilityForbidden, true
	default:
		return "", false
	}
}

// Explain renders the human-readable companion to a machine reason code.
func Explain(reason types.DeviationReason, modelID, capabilityKey string) string {
	switch reason {
	case types.DeviationModelDeleted:
		return fmt.Sprintf("model %s is no longer present in the reference registry", modelID)
	case types.DeviationModelInactive:
		return fmt.Sprintf("model %s has been deactivated since the decision was recorded", modelID)
	case types.DeviationModelIneligible:
		return fmt.Sprintf("model %s is no longer eligible for routing", modelID)
	case types.DeviationCapabilityDropped:
		return fmt.Sprintf("model %s no longer supports capability %s", modelID, capabilityKey)
	case types.DeviationCapabilityForbidden:
		return fmt.Sprintf("capability %s is now disallowed for model %s", capabilityKey, modelID)
	default:
		return ""
	}
}
