package smoke

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/signalhouse/replaycore/internal/api"
	"github.com/signalhouse/replaycore/internal/auth"
	"github.com/signalhouse/replaycore/internal/ledger"
	"github.com/signalhouse/replaycore/internal/registry"
)

func TestSmoke(t *testing.T) {
	reg := registry.NewInMemoryRegistry()
	reg.UpsertModel(registry.ModelDescriptor{
		ModelID:               "m1",
		IsActive:              true,
		IsEligible:            true,
		SupportedCapabilities: []string{"email.compose"},
	})

	service := api.NewReplayService(ledger.NewInMemoryStore(), reg, "", nil)
	router := api.NewRouter(&api.Handler{
		Auth:    &auth.TokenAuthenticator{Token: "test-token"},
		Service: service,
	})

	srv := httptest.NewServer(router)
	defer srv.Close()

	// auth gate sanity check
	res, err := http.Get(srv.URL + "/v1/replay/anything")
	if err != nil {
		t.Fatalf("request: %v", err)
	}
	if res.StatusCode != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", res.StatusCode)
	}
	_ = res.Body.Close()

	// health endpoint is open
	res, err = http.Get(srv.URL + "/healthz")
	if err != nil {
		t.Fatalf("health: %v", err)
	}
	if res.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", res.StatusCode)
	}
	_ = res.Body.Close()

	// record + replay round trip with the token
	body := bytes.NewBufferString(`{
		"interaction_id": "smoke-1",
		"capability_key": "email.compose",
		"persona_id": "p1",
		"model_id": "m1",
		"routing_score": 0.5,
		"routing_reason": "smoke",
		"envelope_hash": "sha256:abc",
		"channel": "email"
	}`)
	req, err := http.NewRequest(http.MethodPost, srv.URL+"/v1/decisions", body)
	if err != nil {
		t.Fatalf("new req: %v", err)
	}
	req.Header.Set("Authorization", "Bearer test-token")
	req.Header.Set("Content-Type", "application/json")
	res, err = http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("record: %v", err)
	}
	if res.StatusCode != http.StatusCreated {
		t.Fatalf("record status %d", res.StatusCode)
	}
	_ = res.Body.Close()

	req, err = http.NewRequest(http.MethodGet, srv.URL+"/v1/replay/smoke-1", nil)
	if err != nil {
		t.Fatalf("new req: %v", err)
	}
	req.Header.Set("Authorization", "Bearer test-token")
	res, err = http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if res.StatusCode != http.StatusOK {
		t.Fatalf("resolve status %d", res.StatusCode)
	}
	_ = res.Body.Close()
}
