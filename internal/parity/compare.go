package parity

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sort"
	"strconv"
	"time"

	"github.com/google/uuid"

	"github.com/signalhouse/replaycore/internal/canonical"
	"github.com/signalhouse/replaycore/pkg/types"
)

// Trace is one execution path's output for a test case: the final outcome
// plus the step-level trace payload. Both are opaque JSON supplied by the
// benchmark harness.
type Trace struct {
	Outcome json.RawMessage `json:"outcome"`
	Trace   json.RawMessage `json:"trace"`
}

// Compare performs the structural, field-by-field comparison of two traces.
// Every field present in one path and absent or different in the other
// becomes a FieldDiff; parity is PASS iff there are none. The comparator
// records what differs, never why — interpretation belongs to whoever reads
// the diffs. Latency covers the comparison itself, not the underlying paths.
func Compare(testCase string, pathA, pathB Trace) (types.ParityTestResult, error) {
	started := time.Now()

	diffs := []types.FieldDiff{}
	for _, section := range []struct {
		name string
		a, b json.RawMessage
	}{
		{"outcome", pathA.Outcome, pathB.Outcome},
		{"trace", pathA.Trace, pathB.Trace},
	} {
		av, aok, err := decode(section.a)
		if err != nil {
			return types.ParityTestResult{}, fmt.Errorf("path_a %s: %w", section.name, err)
		}
		bv, bok, err := decode(section.b)
		if err != nil {
			return types.ParityTestResult{}, fmt.Errorf("path_b %s: %w", section.name, err)
		}
		if err := walk(section.name, av, aok, bv, bok, &diffs); err != nil {
			return types.ParityTestResult{}, err
		}
	}

	sort.Slice(diffs, func(i, j int) bool { return diffs[i].FieldPath < diffs[j].FieldPath })

	status := types.ParityPass
	if len(diffs) > 0 {
		status = types.ParityFail
	}

	return types.ParityTestResult{
		TestID:       uuid.NewString(),
		TestCase:     testCase,
		Parity:       status,
		PathAOutcome: pathA.Outcome,
		PathATrace:   pathA.Trace,
		PathBOutcome: pathB.Outcome,
		PathBTrace:   pathB.Trace,
		Diffs:        diffs,
		LatencyMs:    time.Since(started).Milliseconds(),
		CreatedAt:    time.Now().UTC().Format(time.RFC3339),
	}, nil
}

func decode(raw json.RawMessage) (any, bool, error) {
	if len(raw) == 0 {
		return nil, false, nil
	}
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	var v any
	if err := dec.Decode(&v); err != nil {
		return nil, false, err
	}
	return v, true, nil
}

// walk recurses into objects and arrays; anything else is a leaf compared by
// canonical encoding. Objects visit the union of keys in sorted order, so
// diff production is deterministic for a given pair of traces.
func walk(path string, a any, aok bool, b any, bok bool, diffs *[]types.FieldDiff) error {
	if !aok && !bok {
		return nil
	}
	if aok != bok {
		return appendDiff(path, a, aok, b, bok, diffs)
	}

	am, aIsMap := a.(map[string]any)
	bm, bIsMap := b.(map[string]any)
	if aIsMap && bIsMap {
		keys := map[string]struct{}{}
		for k := range am {
			keys[k] = struct{}{}
		}
		for k := range bm {
			keys[k] = struct{}{}
		}
		sorted := make([]string, 0, len(keys))
		for k := range keys {
			sorted = append(sorted, k)
		}
		sort.Strings(sorted)
		for _, k := range sorted {
			av, aHas := am[k]
			bv, bHas := bm[k]
			if err := walk(path+"."+k, av, aHas, bv, bHas, diffs); err != nil {
				return err
			}
		}
		return nil
	}

	as, aIsSlice := a.([]any)
	bs, bIsSlice := b.([]any)
	if aIsSlice && bIsSlice {
		n := len(as)
		if len(bs) > n {
			n = len(bs)
		}
		for i := 0; i < n; i++ {
			var av, bv any
			aHas := i < len(as)
			bHas := i < len(bs)
			if aHas {
				av = as[i]
			}
			if bHas {
				bv = bs[i]
			}
			if err := walk(path+"["+strconv.Itoa(i)+"]", av, aHas, bv, bHas, diffs); err != nil {
				return err
			}
		}
		return nil
	}

	aEnc, err := canonical.Encode(a)
	if err != nil {
		return fmt.Errorf("encode %s: %w", path, err)
	}
	bEnc, err := canonical.Encode(b)
	if err != nil {
		return fmt.Errorf("encode %s: %w", path, err)
	}
	if !bytes.Equal(aEnc, bEnc) {
		aStr := string(aEnc)
		bStr := string(bEnc)
		*diffs = append(*diffs, types.FieldDiff{FieldPath: path, PathA: &aStr, PathB: &bStr})
	}
	return nil
}

func appendDiff(path string, a any, aok bool, b any, bok bool, diffs *[]types.FieldDiff) error {
	var aPtr, bPtr *string
	if aok {
		enc, err := canonical.Encode(a)
		if err != nil {
			return fmt.Errorf("encode %s: %w", path, err)
		}
		s := string(enc)
		aPtr = &s
	}
	if bok {
		enc, err := canonical.Encode(b)
		if err != nil {
			return fmt.Errorf("encode %s: %w", path, err)
		}
		s := string(enc)
		bPtr = &s
	}
	*diffs = append(*diffs, types.FieldDiff{FieldPath: path, PathA: aPtr, PathB: bPtr})
	return nil
}
