package api

import "net/http"

func NewRouter(h *Handler) http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/v1/decisions", h.Decisions)
	mux.HandleFunc("/v1/decisions/", h.Decision)
	mux.HandleFunc("/v1/replay/", h.Replay)
	mux.HandleFunc("/v1/parity", h.Parity)
	mux.HandleFunc("/v1/parity/", h.ParityResult)
	mux.HandleFunc("/v1/certifications", h.Certifications)
	mux.HandleFunc("/v1/certifications/", h.Certification)
	mux.HandleFunc("/v1/audit", h.Audit)
	mux.HandleFunc("/v1/audit/", h.AuditStatus)
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	return mux
}
