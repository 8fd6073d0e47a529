package parity

import (
	"encoding/json"
	"testing"

	"github.com/signalhouse/replaycore/pkg/types"
)

func trace(outcome, tr string) Trace {
	return Trace{Outcome: json.RawMessage(outcome), Trace: json.RawMessage(tr)}
}

func TestCompare_IdenticalTraces(t *testing.T) {
	a := trace(`{"model":"m1","score":0.82}`, `{"steps":["score","route"]}`)
	b := trace(`{"score":0.82,"model":"m1"}`, `{"steps":["score","route"]}`)

	res, err := Compare("wiring-01", a, b)
	if err != nil {
		t.Fatalf("compare: %v", err)
	}
	if res.Parity != types.ParityPass {
		t.Fatalf("expected PASS, got %s with diffs %+v", res.Parity, res.Diffs)
	}
	if len(res.Diffs) != 0 {
		t.Fatalf("expected no diffs, got %+v", res.Diffs)
	}
	if res.TestID == "" || res.TestCase != "wiring-01" || res.CreatedAt == "" {
		t.Fatalf("result metadata missing: %+v", res)
	}
}

func TestCompare_SingleFieldDifference(t *testing.T) {
	a := trace(`{"model":"m1","score":0.82}`, `{"steps":2}`)
	b := trace(`{"model":"m2","score":0.82}`, `{"steps":2}`)

	res, err := Compare("wiring-02", a, b)
	if err != nil {
		t.Fatalf("compare: %v", err)
	}
	if res.Parity != types.ParityFail {
		t.Fatalf("expected FAIL, got %s", res.Parity)
	}
	if len(res.Diffs) != 1 {
		t.Fatalf("expected exactly one diff, got %+v", res.Diffs)
	}
	d := res.Diffs[0]
	if d.FieldPath != "outcome.model" {
		t.Fatalf("diff path mismatch: %s", d.FieldPath)
	}
	if d.PathA == nil || *d.PathA != `"m1"` || d.PathB == nil || *d.PathB != `"m2"` {
		t.Fatalf("diff values mismatch: %+v", d)
	}
}

func TestCompare_MissingField(t *testing.T) {
	a := trace(`{"model":"m1","persona":"p1"}`, `{}`)
	b := trace(`{"model":"m1"}`, `{}`)

	res, err := Compare("wiring-03", a, b)
	if err != nil {
		t.Fatalf("compare: %v", err)
	}
	if res.Parity != types.ParityFail || len(res.Diffs) != 1 {
		t.Fatalf("expected one diff, got %+v", res.Diffs)
	}
	d := res.Diffs[0]
	if d.FieldPath != "outcome.persona" {
		t.Fatalf("diff path mismatch: %s", d.FieldPath)
	}
	if d.PathA == nil || *d.PathA != `"p1"` {
		t.Fatalf("path_a value mismatch: %+v", d)
	}
	if d.PathB != nil {
		t.Fatalf("path_b must be absent: %+v", d)
	}
}

func TestCompare_NestedAndArrayDiffs(t *testing.T) {
	a := trace(
		`{"routing":{"model":"m1","persona":"p1"}}`,
		`{"steps":[{"name":"score","ms":3},{"name":"route","ms":1}]}`,
	)
	b := trace(
		`{"routing":{"model":"m1","persona":"p2"}}`,
		`{"steps":[{"name":"score","ms":3}]}`,
	)

	res, err := Compare("wiring-04", a, b)
	if err != nil {
		t.Fatalf("compare: %v", err)
	}
	if res.Parity != types.ParityFail || len(res.Diffs) != 2 {
		t.Fatalf("expected two diffs, got %+v", res.Diffs)
	}
	// Diffs come back ordered by field path.
	if res.Diffs[0].FieldPath != "outcome.routing.persona" {
		t.Fatalf("first diff path mismatch: %s", res.Diffs[0].FieldPath)
	}
	if res.Diffs[1].FieldPath != "trace.steps[1]" {
		t.Fatalf("second diff path mismatch: %s", res.Diffs[1].FieldPath)
	}
	if res.Diffs[1].PathB != nil {
		t.Fatalf("missing array element must be absent on path_b: %+v", res.Diffs[1])
	}
}

func TestCompare_NumberFormsAreEqual(t *testing.T) {
	a := trace(`{"score":0.50}`, `{}`)
	b := trace(`{"score":0.5}`, `{}`)

	res, err := Compare("wiring-05", a, b)
	if err != nil {
		t.Fatalf("compare: %v", err)
	}
	if res.Parity != types.ParityPass {
		t.Fatalf("numeric literal forms must compare equal: %+v", res.Diffs)
	}
}

func TestCompare_TypeMismatchIsOneDiff(t *testing.T) {
	a := trace(`{"meta":{"k":"v"}}`, `{}`)
	b := trace(`{"meta":"v"}`, `{}`)

	res, err := Compare("wiring-06", a, b)
	if err != nil {
		t.Fatalf("compare: %v", err)
	}
	if res.Parity != types.ParityFail || len(res.Diffs) != 1 || res.Diffs[0].FieldPath != "outcome.meta" {
		t.Fatalf("expected single diff at outcome.meta, got %+v", res.Diffs)
	}
}

func TestCompare_AbsentSection(t *testing.T) {
	a := trace(`{"model":"m1"}`, `{"steps":1}`)
	b := Trace{Outcome: json.RawMessage(`{"model":"m1"}`)}

	res, err := Compare("wiring-07", a, b)
	if err != nil {
		t.Fatalf("compare: %v", err)
	}
	if res.Parity != types.ParityFail || len(res.Diffs) != 1 || res.Diffs[0].FieldPath != "trace" {
		t.Fatalf("expected single diff at trace, got %+v", res.Diffs)
	}
}

func TestCompare_InvalidJSON(t *testing.T) {
	a := trace(`{"model":`, `{}`)
	b := trace(`{}`, `{}`)
	if _, err := Compare("wiring-08", a, b); err == nil {
		t.Fatalf("expected decode error")
	}
}
