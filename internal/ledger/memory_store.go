package ledger

import (
	"sort"
	"sync"

	"github.com/signalhouse/replaycore/pkg/types"
)

// InMemoryStore backs tests and single-process deployments. The mutex makes
// each operation atomic; duplicate detection happens under the same lock as
// the insert, so concurrent writers racing on one interaction_id see exactly
// one success.
type InMemoryStore struct {
	mu sync.Mutex

	decisions      map[string]types.DecisionRecord
	parityResults  map[string]types.ParityTestResult
	certifications map[string]types.ParityCertification
}

func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{
		decisions:      make(map[string]types.DecisionRecord),
		parityResults:  make(map[string]types.ParityTestResult),
		certifications: make(map[string]types.ParityCertification),
	}
}

func (s *InMemoryStore) RecordDecision(rec types.DecisionRecord) error {
	if rec.InteractionID == "" {
		return ErrMissingInteractionID
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.decisions[rec.InteractionID]; exists {
		return ErrDuplicateInteraction
	}
	s.decisions[rec.InteractionID] = rec
	return nil
}

func (s *InMemoryStore) GetDecision(interactionID string) (types.DecisionRecord, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	rec, ok := s.decisions[interactionID]
	return rec, ok
}

func (s *InMemoryStore) ListDecisions(filter DecisionFilter) ([]types.DecisionRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	limit := filter.Limit
	if limit <= 0 {
		limit = defaultListLimit
	}

	out := []types.DecisionRecord{}
	for _, rec := range s.decisions {
		if filter.Matches(rec) {
			out = append(out, rec)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt != out[j].CreatedAt {
			return out[i].CreatedAt < out[j].CreatedAt
		}
		return out[i].InteractionID < out[j].InteractionID
	})
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (s *InMemoryStore) RecordParityResult(res types.ParityTestResult) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.parityResults[res.TestID]; exists {
		return nil
	}
	s.parityResults[res.TestID] = res
	return nil
}

func (s *InMemoryStore) GetParityResult(testID string) (types.ParityTestResult, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	res, ok := s.parityResults[testID]
	return res, ok
}

func (s *InMemoryStore) RecordCertification(cert types.ParityCertification) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.certifications[cert.CertificationID]; exists {
		return nil
	}
	s.certifications[cert.CertificationID] = cert
	return nil
}

func (s *InMemoryStore) GetCertification(certificationID string) (types.ParityCertification, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	cert, ok := s.certifications[certificationID]
	return cert, ok
}
