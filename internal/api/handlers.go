package api

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/santhosh-tekuri/jsonschema/v5"

	"github.com/signalhouse/replaycore/internal/auth"
	"github.com/signalhouse/replaycore/internal/certify"
	"github.com/signalhouse/replaycore/internal/ledger"
	"github.com/signalhouse/replaycore/internal/parity"
	"github.com/signalhouse/replaycore/internal/replay"
	"github.com/signalhouse/replaycore/pkg/types"
)

// Machine-readable error codes carried in the "code" field of error payloads.
const (
	CodeDuplicateInteraction = "DUPLICATE_INTERACTION"
	CodeDecisionNotFound     = "DECISION_NOT_FOUND"
	CodeParityResultNotFound = "PARITY_RESULT_NOT_FOUND"
	CodeIncompleteBatch      = "INCOMPLETE_BATCH"
	CodeValidationFailed     = "VALIDATION_FAILED"
)

type Handler struct {
	Auth    auth.Authenticator
	Service *ReplayService
}

func (h *Handler) Decisions(w http.ResponseWriter, r *http.Request) {
	if !h.ensureAuth(w, r) {
		return
	}
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, CodeValidationFailed, "method not allowed")
		return
	}

	body, err := io.ReadAll(r.Body)
	if err != nil {
		writeError(w, http.StatusBadRequest, CodeValidationFailed, "read body: "+err.Error())
		return
	}

	if err := ValidateDecision(body); err != nil {
		var verr *jsonschema.ValidationError
		if errors.As(err, &verr) {
			writeError(w, http.StatusBadRequest, CodeValidationFailed, verr.Error())
			return
		}
		writeError(w, http.StatusBadRequest, CodeValidationFailed, err.Error())
		return
	}

	var rec types.DecisionRecord
	if err := json.Unmarshal(body, &rec); err != nil {
		writeError(w, http.StatusBadRequest, CodeValidationFailed, "invalid json")
		return
	}

	stored, err := h.Service.RecordDecision(rec)
	if err != nil {
		if errors.Is(err, ledger.ErrDuplicateInteraction) {
			writeError(w, http.StatusConflict, CodeDuplicateInteraction, err.Error())
			return
		}
		writeError(w, http.StatusBadRequest, CodeValidationFailed, err.Error())
		return
	}

	writeJSON(w, http.StatusCreated, stored)
}

func (h *Handler) Decision(w http.ResponseWriter, r *http.Request) {
	if !h.ensureAuth(w, r) {
		return
	}

	interactionID := strings.TrimPrefix(r.URL.Path, "/v1/decisions/")
	if interactionID == "" {
		writeError(w, http.StatusBadRequest, CodeValidationFailed, "missing interaction_id")
		return
	}

	rec, ok := h.Service.GetDecision(interactionID)
	if !ok {
		writeError(w, http.StatusNotFound, CodeDecisionNotFound, "decision not found")
		return
	}
	writeJSON(w, http.StatusOK, rec)
}

func (h *Handler) Replay(w http.ResponseWriter, r *http.Request) {
	if !h.ensureAuth(w, r) {
		return
	}

	interactionID := strings.TrimPrefix(r.URL.Path, "/v1/replay/")
	if interactionID == "" {
		writeError(w, http.StatusBadRequest, CodeValidationFailed, "missing interaction_id")
		return
	}

	verdict, err := h.Service.ResolveReplay(interactionID)
	if err != nil {
		if errors.Is(err, replay.ErrDecisionNotFound) {
			writeError(w, http.StatusNotFound, CodeDecisionNotFound, err.Error())
			return
		}
		writeError(w, http.StatusInternalServerError, CodeValidationFailed, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, verdict)
}

type ParityRequest struct {
	TestCase string       `json:"test_case"`
	PathA    parity.Trace `json:"path_a"`
	PathB    parity.Trace `json:"path_b"`
}

func (h *Handler) Parity(w http.ResponseWriter, r *http.Request) {
	if !h.ensureAuth(w, r) {
		return
	}
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, CodeValidationFailed, "method not allowed")
		return
	}

	var req ParityRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, CodeValidationFailed, "invalid json")
		return
	}
	if req.TestCase == "" {
		writeError(w, http.StatusBadRequest, CodeValidationFailed, "missing test_case")
		return
	}

	result, err := h.Service.CompareParity(req.TestCase, req.PathA, req.PathB)
	if err != nil {
		writeError(w, http.StatusBadRequest, CodeValidationFailed, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func (h *Handler) ParityResult(w http.ResponseWriter, r *http.Request) {
	if !h.ensureAuth(w, r) {
		return
	}

	testID := strings.TrimPrefix(r.URL.Path, "/v1/parity/")
	if testID == "" {
		writeError(w, http.StatusBadRequest, CodeValidationFailed, "missing test_id")
		return
	}

	result, ok := h.Service.GetParityResult(testID)
	if !ok {
		writeError(w, http.StatusNotFound, CodeParityResultNotFound, "parity result not found")
		return
	}
	writeJSON(w, http.StatusOK, result)
}

type CertifyRequest struct {
	TestIDs []string `json:"test_ids"`
}

func (h *Handler) Certifications(w http.ResponseWriter, r *http.Request) {
	if !h.ensureAuth(w, r) {
		return
	}
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, CodeValidationFailed, "method not allowed")
		return
	}

	var req CertifyRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, CodeValidationFailed, "invalid json")
		return
	}

	cert, err := h.Service.Certify(req.TestIDs)
	if err != nil {
		switch {
		case errors.Is(err, certify.ErrIncompleteBatch):
			writeError(w, http.StatusBadRequest, CodeIncompleteBatch, err.Error())
		case errors.Is(err, ErrParityResultNotFound):
			writeError(w, http.StatusNotFound, CodeParityResultNotFound, err.Error())
		default:
			writeError(w, http.StatusInternalServerError, CodeValidationFailed, err.Error())
		}
		return
	}
	writeJSON(w, http.StatusCreated, cert)
}

func (h *Handler) Certification(w http.ResponseWriter, r *http.Request) {
	if !h.ensureAuth(w, r) {
		return
	}

	certificationID := strings.TrimPrefix(r.URL.Path, "/v1/certifications/")
	if certificationID == "" {
		writeError(w, http.StatusBadRequest, CodeValidationFailed, "missing certification_id")
		return
	}

	cert, ok := h.Service.GetCertification(certificationID)
	if !ok {
		writeError(w, http.StatusNotFound, CodeValidationFailed, "certification not found")
		return
	}
	writeJSON(w, http.StatusOK, cert)
}

func (h *Handler) Audit(w http.ResponseWriter, r *http.Request) {
	if !h.ensureAuth(w, r) {
		return
	}

	q := r.URL.Query()
	filter := ledger.DecisionFilter{
		InteractionID: q.Get("interaction_id"),
		Channel:       q.Get("channel"),
		CapabilityKey: q.Get("capability_key"),
		ModelID:       q.Get("model_id"),
	}
	if raw := q.Get("limit"); raw != "" {
		limit, err := strconv.Atoi(raw)
		if err != nil || limit < 0 {
			writeError(w, http.StatusBadRequest, CodeValidationFailed, "invalid limit")
			return
		}
		filter.Limit = limit
	}

	entries, err := h.Service.AuditList(filter)
	if err != nil {
		writeError(w, http.StatusInternalServerError, CodeValidationFailed, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"entries": entries})
}

func (h *Handler) AuditStatus(w http.ResponseWriter, r *http.Request) {
	if !h.ensureAuth(w, r) {
		return
	}

	interactionID := strings.TrimPrefix(r.URL.Path, "/v1/audit/")
	if interactionID == "" {
		writeError(w, http.StatusBadRequest, CodeValidationFailed, "missing interaction_id")
		return
	}

	entry, err := h.Service.AuditStatus(interactionID)
	if err != nil {
		if errors.Is(err, replay.ErrDecisionNotFound) {
			writeError(w, http.StatusNotFound, CodeDecisionNotFound, err.Error())
			return
		}
		writeError(w, http.StatusInternalServerError, CodeValidationFailed, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, entry)
}

func (h *Handler) ensureAuth(w http.ResponseWriter, r *http.Request) bool {
	_, err := h.Auth.Authenticate(r)
	if err != nil {
		writeError(w, http.StatusUnauthorized, "UNAUTHORIZED", err.Error())
		return false
	}
	return true
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	_ = enc.Encode(payload)
}

func writeError(w http.ResponseWriter, status int, code string, message string) {
	writeJSON(w, status, map[string]string{"error": message, "code": code})
}
