package certify

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/signalhouse/replaycore/internal/ledger"
	"github.com/signalhouse/replaycore/pkg/types"
)

// BatchSize is the certification protocol constant: every certification
// covers exactly this many parity tests.
const BatchSize = 5

// ErrIncompleteBatch rejects a certification attempt over the wrong number
// of results. No partial certification is ever produced.
var ErrIncompleteBatch = errors.New("certification requires a complete batch")

// Aggregate computes the all-or-nothing verdict over a batch. Pure: no IDs,
// timestamps, or persistence — Aggregator adds those.
func Aggregate(results []types.ParityTestResult) (types.ParityCertification, error) {
	if len(results) != BatchSize {
		return types.ParityCertification{}, fmt.Errorf("%w: got %d results, need %d", ErrIncompleteBatch, len(results), BatchSize)
	}

	passed, failed := 0, 0
	failures := []string{}
	for _, res := range results {
		if res.Parity == types.ParityPass {
			passed++
		} else {
			failed++
			failures = append(failures, res.TestCase)
		}
	}

	cert := types.ParityCertification{
		TotalTests: len(results),
		Passed:     passed,
		Failed:     failed,
		Certified:  failed == 0,
		Results:    results,
	}
	cert.Summary = summarize(cert, failures)
	return cert, nil
}

func summarize(cert types.ParityCertification, failures []string) string {
	if cert.Certified {
		return fmt.Sprintf("%d/%d parity tests passed; certified", cert.Passed, cert.TotalTests)
	}
	return fmt.Sprintf("%d/%d parity tests passed, %d failed (%s); not certified",
		cert.Passed, cert.TotalTests, cert.Failed, strings.Join(failures, ", "))
}

// Aggregator mints, optionally writes a report for, and persists
// certifications. Records are immutable once persisted; a re-certification
// is always a new certification_id over a fresh batch.
type Aggregator struct {
	Store ledger.Store

	// ReportsDir is where batch reports land; empty disables report files.
	ReportsDir string
}

func NewAggregator(store ledger.Store, reportsDir string) *Aggregator {
	return &Aggregator{Store: store, ReportsDir: reportsDir}
}

func (a *Aggregator) Certify(results []types.ParityTestResult) (types.ParityCertification, error) {
	cert, err := Aggregate(results)
	if err != nil {
		return types.ParityCertification{}, err
	}

	cert.CertificationID = uuid.NewString()
	cert.CreatedAt = time.Now().UTC().Format(time.RFC3339)

	if a.ReportsDir != "" {
		path, err := WriteReport(a.ReportsDir, cert)
		if err != nil {
			return types.ParityCertification{}, fmt.Errorf("write report: %w", err)
		}
		cert.ReportPath = path
	}

	if err := a.Store.RecordCertification(cert); err != nil {
		return types.ParityCertification{}, fmt.Errorf("persist certification: %w", err)
	}
	return cert, nil
}
