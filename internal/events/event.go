package events

// Event types emitted by the replay core.
const (
	TypeDecisionRecorded     = "decision.recorded"
	TypeParityCompared       = "parity.compared"
	TypeCertificationCreated = "certification.created"
)

// PlatformEvent is the envelope published to the rest of the platform when
// the core records something. Purely informational; the stores remain the
// source of truth.
type PlatformEvent struct {
	Timestamp string `json:"timestamp"` // RFC3339 UTC
	Type      string `json:"type"`
	Key       string `json:"key"` // interaction_id, test_id, or certification_id
	Outcome   string `json:"outcome,omitempty"`
	LatencyMs int64  `json:"latency_ms,omitempty"`
}
