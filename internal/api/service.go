package api

import (
	"errors"
	"fmt"
	"time"

	"github.com/signalhouse/replaycore/internal/audit"
	"github.com/signalhouse/replaycore/internal/certify"
	"github.com/signalhouse/replaycore/internal/events"
	"github.com/signalhouse/replaycore/internal/ledger"
	"github.com/signalhouse/replaycore/internal/parity"
	"github.com/signalhouse/replaycore/internal/registry"
	"github.com/signalhouse/replaycore/internal/replay"
	"github.com/signalhouse/replaycore/pkg/types"
)

// ErrParityResultNotFound reports a certification request referencing a
// test_id that was never recorded.
var ErrParityResultNotFound = errors.New("parity result not found")

// ReplayService wires the ledger, registry, resolver, projection, and
// aggregator behind a single surface the gateway and CLI talk to.
type ReplayService struct {
	Store      ledger.Store
	Registry   registry.Reader
	Resolver   *replay.Resolver
	Projection *audit.Projection
	Aggregator *certify.Aggregator
	Emitter    events.Emitter
}

func NewReplayService(store ledger.Store, reg registry.Reader, reportsDir string, emitter events.Emitter) *ReplayService {
	if emitter == nil {
		emitter = events.NewLogEmitter()
	}
	return &ReplayService{
		Store:      store,
		Registry:   reg,
		Resolver:   replay.NewResolver(store, reg),
		Projection: audit.NewProjection(store, reg),
		Aggregator: certify.NewAggregator(store, reportsDir),
		Emitter:    emitter,
	}
}

// RecordDecision appends one routing decision to the ledger. A missing
// created_at is stamped server-side; everything else is recorded verbatim.
func (s *ReplayService) RecordDecision(rec types.DecisionRecord) (types.DecisionRecord, error) {
	if rec.CreatedAt == "" {
		rec.CreatedAt = time.Now().UTC().Format(time.RFC3339)
	}

	if err := s.Store.RecordDecision(rec); err != nil {
		return types.DecisionRecord{}, err
	}

	s.Emitter.Emit(events.PlatformEvent{
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		Type:      events.TypeDecisionRecorded,
		Key:       rec.InteractionID,
		Outcome:   rec.ModelID,
	})
	return rec, nil
}

func (s *ReplayService) GetDecision(interactionID string) (types.DecisionRecord, bool) {
	return s.Store.GetDecision(interactionID)
}

func (s *ReplayService) ResolveReplay(interactionID string) (types.ReplayVerdict, error) {
	return s.Resolver.Resolve(interactionID)
}

// CompareParity runs the structural comparison, persists the result, and
// emits a parity.compared event carrying the PASS/FAIL outcome.
func (s *ReplayService) CompareParity(testCase string, pathA, pathB parity.Trace) (types.ParityTestResult, error) {
	result, err := parity.Compare(testCase, pathA, pathB)
	if err != nil {
		return types.ParityTestResult{}, err
	}
	if err := s.Store.RecordParityResult(result); err != nil {
		return types.ParityTestResult{}, fmt.Errorf("persist parity result: %w", err)
	}

	s.Emitter.Emit(events.PlatformEvent{
		Timestamp: result.CreatedAt,
		Type:      events.TypeParityCompared,
		Key:       result.TestID,
		Outcome:   string(result.Parity),
		LatencyMs: result.LatencyMs,
	})
	return result, nil
}

func (s *ReplayService) GetParityResult(testID string) (types.ParityTestResult, bool) {
	return s.Store.GetParityResult(testID)
}

// Certify aggregates the referenced parity results into a certification.
// Every test_id must resolve to a recorded result; the batch size contract is
// enforced by the aggregator.
func (s *ReplayService) Certify(testIDs []string) (types.ParityCertification, error) {
	results := make([]types.ParityTestResult, 0, len(testIDs))
	for _, id := range testIDs {
		res, ok := s.Store.GetParityResult(id)
		if !ok {
			return types.ParityCertification{}, fmt.Errorf("%w: %s", ErrParityResultNotFound, id)
		}
		results = append(results, res)
	}

	cert, err := s.Aggregator.Certify(results)
	if err != nil {
		return types.ParityCertification{}, err
	}

	outcome := "not_certified"
	if cert.Certified {
		outcome = "certified"
	}
	s.Emitter.Emit(events.PlatformEvent{
		Timestamp: cert.CreatedAt,
		Type:      events.TypeCertificationCreated,
		Key:       cert.CertificationID,
		Outcome:   outcome,
	})
	return cert, nil
}

func (s *ReplayService) GetCertification(certificationID string) (types.ParityCertification, bool) {
	return s.Store.GetCertification(certificationID)
}

func (s *ReplayService) AuditStatus(interactionID string) (audit.Entry, error) {
	return s.Projection.Status(interactionID)
}

func (s *ReplayService) AuditList(filter ledger.DecisionFilter) ([]audit.Entry, error) {
	return s.Projection.List(filter)
}
