package types

// DeviationReason classifies why a historical decision can no longer be
// replayed against current registry state. The set is closed and ordered;
// ResolveReplay reports the highest-priority matching reason.
type DeviationReason string

const (
	DeviationModelDeleted        DeviationReason = "MODEL_DELETED"
	DeviationModelInactive       DeviationReason = "MODEL_INACTIVE"
	DeviationModelIneligible     DeviationReason = "MODEL_INELIGIBLE"
	DeviationCapabilityDropped   DeviationReason = "CAPABILITY_NO_LONGER_SUPPORTED"
	DeviationCapabilityForbidden DeviationReason = "CAPABILITY_NOW_DISALLOWED"
)

// ReplayVerdict is the outcome of re-evaluating a ledger entry against the
// live registry. ReplayModelID is nil exactly when ReplayDeviation is true;
// the resolver never substitutes a different model.
type ReplayVerdict struct {
	InteractionID   string          `json:"interaction_id"`
	ReplayDeviation bool            `json:"replay_deviation"`
	DeviationReason DeviationReason `json:"deviation_reason,omitempty"`
	Explanation     string          `json:"explanation,omitempty"`
	OriginalModelID string          `json:"original_model_id"`
	ReplayModelID   *string         `json:"replay_model_id"`

	// Original scoring metadata, passed through unchanged.
	CapabilityKey string  `json:"capability_key"`
	PersonaID     string  `json:"persona_id"`
	RoutingScore  float64 `json:"routing_score"`
	RoutingReason string  `json:"routing_reason"`
}
