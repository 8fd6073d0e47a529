package types

import "encoding/json"

type ParityStatus string

const (
	ParityPass ParityStatus = "PASS"
	ParityFail ParityStatus = "FAIL"
)

// FieldDiff is one structural discrepancy between the two execution paths.
// PathA / PathB hold the canonical JSON rendering of the value on each side;
// nil means the field is absent on that side.
type FieldDiff struct {
	FieldPath string  `json:"field_path"`
	PathA     *string `json:"path_a"`
	PathB     *string `json:"path_b"`
}

// ParityTestResult records one comparative test run. Immutable once recorded.
type ParityTestResult struct {
	TestID       string          `json:"test_id"`
	TestCase     string          `json:"test_case"`
	Parity       ParityStatus    `json:"parity"`
	PathAOutcome json.RawMessage `json:"path_a_outcome"`
	PathATrace   json.RawMessage `json:"path_a_trace"`
	PathBOutcome json.RawMessage `json:"path_b_outcome"`
	PathBTrace   json.RawMessage `json:"path_b_trace"`
	Diffs        []FieldDiff     `json:"diffs"`
	LatencyMs    int64           `json:"latency_ms"`
	CreatedAt    string          `json:"created_at"`
}

// ParityCertification is the all-or-nothing verdict over a fixed batch of
// parity tests. Immutable once recorded; re-certifying requires a new
// certification over a fresh batch.
type ParityCertification struct {
	CertificationID string             `json:"certification_id"`
	TotalTests      int                `json:"total_tests"`
	Passed          int                `json:"passed"`
	Failed          int                `json:"failed"`
	Certified       bool               `json:"certified"`
	Summary         string             `json:"summary"`
	Results         []ParityTestResult `json:"results"`
	ReportPath      string             `json:"report_path,omitempty"`
	CreatedAt       string             `json:"created_at"`
}
