package sqlstore

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"

	_ "modernc.org/sqlite"

	"github.com/signalhouse/replaycore/internal/ledger"
	"github.com/signalhouse/replaycore/pkg/types"
)

// Store is the sqlite-backed ledger. Uniqueness of interaction_id is the
// table's primary key, so duplicate detection is enforced by the storage
// layer rather than application locking.
type Store struct {
	db *sql.DB
}

func OpenSQLite(dsn string) (*Store, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, err
	}
	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, err
	}
	if _, err := db.Exec("PRAGMA foreign_keys = ON;"); err != nil {
		_ = db.Close()
		return nil, err
	}
	return New(db), nil
}

func New(db *sql.DB) *Store {
	return &Store{db: db}
}

func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) DB() *sql.DB {
	return s.db
}

func (s *Store) RecordDecision(rec types.DecisionRecord) error {
	if rec.InteractionID == "" {
		return ledger.ErrMissingInteractionID
	}
	res, err := s.db.Exec(
		`INSERT INTO decisions(interaction_id, capability_key, persona_id, model_id, routing_score, routing_reason, envelope_hash, channel, created_at)
VALUES(?,?,?,?,?,?,?,?,?)
ON CONFLICT(interaction_id) DO NOTHING`,
		rec.InteractionID,
		rec.CapabilityKey,
		rec.PersonaID,
		rec.ModelID,
		rec.RoutingScore,
		rec.RoutingReason,
		rec.EnvelopeHash,
		rec.Channel,
		rec.CreatedAt,
	)
	if err != nil {
		return err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return ledger.ErrDuplicateInteraction
	}
	return nil
}

func (s *Store) GetDecision(interactionID string) (types.DecisionRecord, bool) {
	var rec types.DecisionRecord
	row := s.db.QueryRow(`SELECT interaction_id, capability_key, persona_id, model_id, routing_score, routing_reason, envelope_hash, channel, created_at
FROM decisions WHERE interaction_id = ?`, interactionID)
	if err := row.Scan(&rec.InteractionID, &rec.CapabilityKey, &rec.PersonaID, &rec.ModelID, &rec.RoutingScore, &rec.RoutingReason, &rec.EnvelopeHash, &rec.Channel, &rec.CreatedAt); err != nil {
		return types.DecisionRecord{}, false
	}
	return rec, true
}

func (s *Store) ListDecisions(filter ledger.DecisionFilter) ([]types.DecisionRecord, error) {
	where := []string{}
	args := []any{}
	if filter.InteractionID != "" {
		where = append(where, "interaction_id = ?")
		args = append(args, filter.InteractionID)
	}
	if filter.Channel != "" {
		where = append(where, "channel = ?")
		args = append(args, filter.Channel)
	}
	if filter.CapabilityKey != "" {
		where = append(where, "capability_key = ?")
		args = append(args, filter.CapabilityKey)
	}
	if filter.ModelID != "" {
		where = append(where, "model_id = ?")
		args = append(args, filter.ModelID)
	}

	query := `SELECT interaction_id, capability_key, persona_id, model_id, routing_score, routing_reason, envelope_hash, channel, created_at FROM decisions`
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	query += " ORDER BY created_at ASC, interaction_id ASC LIMIT ?"
	limit := filter.Limit
	if limit <= 0 {
		limit = 500
	}
	args = append(args, limit)

	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []types.DecisionRecord{}
	for rows.Next() {
		var rec types.DecisionRecord
		if err := rows.Scan(&rec.InteractionID, &rec.CapabilityKey, &rec.PersonaID, &rec.ModelID, &rec.RoutingScore, &rec.RoutingReason, &rec.EnvelopeHash, &rec.Channel, &rec.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}

func (s *Store) RecordParityResult(res types.ParityTestResult) error {
	if res.TestID == "" {
		return fmt.Errorf("missing test_id")
	}
	diffs, err := json.Marshal(res.Diffs)
	if err != nil {
		return err
	}
	_, err = s.db.Exec(
		`INSERT INTO parity_results(test_id, test_case, parity, path_a_outcome, path_a_trace, path_b_outcome, path_b_trace, diffs_json, latency_ms, created_at)
VALUES(?,?,?,?,?,?,?,?,?,?)
ON CONFLICT(test_id) DO NOTHING`,
		res.TestID,
		res.TestCase,
		string(res.Parity),
		rawText(res.PathAOutcome),
		rawText(res.PathATrace),
		rawText(res.PathBOutcome),
		rawText(res.PathBTrace),
		string(diffs),
		res.LatencyMs,
		res.CreatedAt,
	)
	return err
}

func (s *Store) GetParityResult(testID string) (types.ParityTestResult, bool) {
	var res types.ParityTestResult
	var parity, aOutcome, aTrace, bOutcome, bTrace, diffs string
	row := s.db.QueryRow(`SELECT test_id, test_case, parity, path_a_outcome, path_a_trace, path_b_outcome, path_b_trace, diffs_json, latency_ms, created_at
FROM parity_results WHERE test_id = ?`, testID)
	if err := row.Scan(&res.TestID, &res.TestCase, &parity, &aOutcome, &aTrace, &bOutcome, &bTrace, &diffs, &res.LatencyMs, &res.CreatedAt); err != nil {
		return types.ParityTestResult{}, false
	}
	res.Parity = types.ParityStatus(parity)
	res.PathAOutcome = json.RawMessage(aOutcome)
	res.PathATrace = json.RawMessage(aTrace)
	res.PathBOutcome = json.RawMessage(bOutcome)
	res.PathBTrace = json.RawMessage(bTrace)
	if err := json.Unmarshal([]byte(diffs), &res.Diffs); err != nil {
		return types.ParityTestResult{}, false
	}
	return res, true
}

func (s *Store) RecordCertification(cert types.ParityCertification) error {
	if cert.CertificationID == "" {
		return fmt.Errorf("missing certification_id")
	}
	results, err := json.Marshal(cert.Results)
	if err != nil {
		return err
	}
	_, err = s.db.Exec(
		`INSERT INTO certifications(certification_id, total_tests, passed, failed, certified, summary, results_json, report_path, created_at)
VALUES(?,?,?,?,?,?,?,?,?)
ON CONFLICT(certification_id) DO NOTHING`,
		cert.CertificationID,
		cert.TotalTests,
		cert.Passed,
		cert.Failed,
		boolToInt(cert.Certified),
		cert.Summary,
		string(results),
		cert.ReportPath,
		cert.CreatedAt,
	)
	return err
}

func (s *Store) GetCertification(certificationID string) (types.ParityCertification, bool) {
	var cert types.ParityCertification
	var certifiedInt int
	var results string
	row := s.db.QueryRow(`SELECT certification_id, total_tests, passed, failed, certified, summary, results_json, report_path, created_at
FROM certifications WHERE certification_id = ?`, certificationID)
	if err := row.Scan(&cert.CertificationID, &cert.TotalTests, &cert.Passed, &cert.Failed, &certifiedInt, &cert.Summary, &results, &cert.ReportPath, &cert.CreatedAt); err != nil {
		return types.ParityCertification{}, false
	}
	cert.Certified = certifiedInt != 0
	if err := json.Unmarshal([]byte(results), &cert.Results); err != nil {
		return types.ParityCertification{}, false
	}
	return cert, true
}

func rawText(raw json.RawMessage) string {
	if len(raw) == 0 {
		return "null"
	}
	return string(raw)
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
