package httpserver

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/keycustody/registration-backend/metrics"
	"github.com/keycustody/registration-backend/registration"
)

// Handler maps the JSON API onto the registration orchestrator. Request
// fields translate directly onto the orchestrator's entry contract; the
// pin appears only in the request body and is never logged.
type Handler struct {
	orchestrator *registration.Orchestrator
	log          *slog.Logger
}

// NewHandler creates an HTTP handler around the given orchestrator.
func NewHandler(orchestrator *registration.Orchestrator, log *slog.Logger) *Handler {
	return &Handler{
		orchestrator: orchestrator,
		log:          log,
	}
}

// registerRequest is the body of both register and recover calls.
type registerRequest struct {
	ID    string `json:"id"`
	AppID string `json:"appId,omitempty"`
	Pin   uint32 `json:"pin"`
}

// recoverResponse carries the recovered public key. The private key
// never leaves the process over this API.
type recoverResponse struct {
	PublicKey string `json:"publicKey"`
}

// HandleRegister processes a registration run.
//
// POST /api/v1/register {"id": ..., "appId": ..., "pin": ...}
//
// The response body is always the run's terminal output
// {"success": bool, "error": string}; the status code mirrors it:
// 200 on success, 400 for a missing id, 409 for an existing
// registration, 502 for storage failures.
func (h *Handler) HandleRegister(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}

	result := h.orchestrator.Start(r.Context(), req.ID, req.AppID, req.Pin)
	metrics.RecordRegistration(outcomeFor(result))

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusFor(result))
	json.NewEncoder(w).Encode(result)
}

// HandleRecover recovers the public key registered for an identity.
//
// POST /api/v1/recover {"id": ..., "appId": ..., "pin": ...}
//
// Responds 200 with {"publicKey": ...}, or 404 when the record is
// missing, the pin is wrong, or the envelope is corrupted; the three
// cases are indistinguishable by design.
func (h *Handler) HandleRecover(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}
	if req.ID == "" {
		http.Error(w, "missing required id", http.StatusBadRequest)
		return
	}

	pair, err := h.orchestrator.Recover(r.Context(), req.ID, req.AppID, req.Pin)
	if err != nil {
		h.log.Error("Credential recovery failed", "err", err)
		metrics.RecordRecovery("failed")
		http.Error(w, "failed fetching registration record", http.StatusBadGateway)
		return
	}
	if pair == nil {
		metrics.RecordRecovery("absent")
		http.Error(w, "no credentials found", http.StatusNotFound)
		return
	}

	metrics.RecordRecovery("found")
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(recoverResponse{PublicKey: pair.PublicKey})
}

func statusFor(result registration.Result) int {
	switch {
	case result.Success:
		return http.StatusOK
	case result.Error == registration.MsgMissingID:
		return http.StatusBadRequest
	case result.Error == registration.MsgAlreadyRegistered:
		return http.StatusConflict
	default:
		return http.StatusBadGateway
	}
}

func outcomeFor(result registration.Result) string {
	switch {
	case result.Success:
		return metrics.OutcomeRegistered
	case result.Error == registration.MsgAlreadyRegistered:
		return metrics.OutcomeAlreadyRegistered
	case result.Error == registration.MsgMissingID:
		return metrics.OutcomeRejected
	default:
		return metrics.OutcomeFailed
	}
}
