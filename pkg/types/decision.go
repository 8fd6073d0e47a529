package types

// DecisionRecord is one entry in the decision ledger. Records are immutable
// once written; interaction_id is assigned by the routing subsystem before
// the first write and never reused.
type DecisionRecord struct {
	InteractionID string  `json:"interaction_id"`
	CapabilityKey string  `json:"capability_key"`
	PersonaID     string  `json:"persona_id"`
	ModelID       string  `json:"model_id"`
	RoutingScore  float64 `json:"routing_score"`
	RoutingReason string  `json:"routing_reason"`
	EnvelopeHash  string  `json:"envelope_hash"`
	Channel       string  `json:"channel"`
	CreatedAt     string  `json:"created_at"`
}
