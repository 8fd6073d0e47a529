package canonical

import (
	"encoding/json"
	"testing"
)

func TestEncode_SortsKeysAndStripsNulls(t *testing.T) {
	got, err := Encode(map[string]any{
		"b":    1,
		"a":    "x",
		"gone": nil,
	})
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	want := `{"a":"x","b":1}`
	if string(got) != want {
		t.Fatalf("encode mismatch: got %s want %s", got, want)
	}
}

func TestEncode_KeyOrderIndependent(t *testing.T) {
	a, err := Encode(map[string]any{"model_id": "m1", "capability_key": "c1", "score": 0.75})
	if err != nil {
		t.Fatalf("encode a: %v", err)
	}
	b, err := Encode(map[string]any{"score": 0.75, "capability_key": "c1", "model_id": "m1"})
	if err != nil {
		t.Fatalf("encode b: %v", err)
	}
	if string(a) != string(b) {
		t.Fatalf("canonical forms differ: %s vs %s", a, b)
	}
}

func TestEncode_NFCNormalization(t *testing.T) {
	// Precomposed e-acute vs "e" plus combining acute accent.
	a, err := Encode("\u00e9")
	if err != nil {
		t.Fatalf("encode precomposed: %v", err)
	}
	b, err := Encode("e\u0301")
	if err != nil {
		t.Fatalf("encode combining: %v", err)
	}
	if string(a) != string(b) {
		t.Fatalf("NFC mismatch: %s vs %s", a, b)
	}
}

func TestEncode_NumberNormalization(t *testing.T) {
	a, err := Encode(json.RawMessage(`{"score":1.50}`))
	if err != nil {
		t.Fatalf("encode 1.50: %v", err)
	}
	b, err := Encode(json.RawMessage(`{"score":1.5}`))
	if err != nil {
		t.Fatalf("encode 1.5: %v", err)
	}
	if string(a) != string(b) {
		t.Fatalf("number forms differ: %s vs %s", a, b)
	}
	if string(a) != `{"score":1.5}` {
		t.Fatalf("unexpected canonical form: %s", a)
	}
}

func TestEncode_RawMessage(t *testing.T) {
	got, err := Encode(json.RawMessage(`{"z":[1,2],"a":{"y":true,"x":null}}`))
	if err != nil {
		t.Fatalf("encode raw: %v", err)
	}
	want := `{"a":{"y":true},"z":[1,2]}`
	if string(got) != want {
		t.Fatalf("raw mismatch: got %s want %s", got, want)
	}
}

func TestEncode_NonStringMapKey(t *testing.T) {
	if _, err := Encode(map[int]string{1: "x"}); err != ErrNonStringMapKey {
		t.Fatalf("expected ErrNonStringMapKey, got %v", err)
	}
}

func TestEnvelopeHash_Stable(t *testing.T) {
	a, err := EnvelopeHash(map[string]any{"subject": "intro", "channel": "email"})
	if err != nil {
		t.Fatalf("hash a: %v", err)
	}
	b, err := EnvelopeHash(map[string]any{"channel": "email", "subject": "intro"})
	if err != nil {
		t.Fatalf("hash b: %v", err)
	}
	if a != b {
		t.Fatalf("envelope hashes differ: %s vs %s", a, b)
	}
	if len(a) != len("sha256:")+64 {
		t.Fatalf("unexpected hash shape: %s", a)
	}
}
