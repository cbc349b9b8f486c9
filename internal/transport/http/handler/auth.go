package handler

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/sladmit/RPA2/internal/application/auth"
	"github.com/sladmit/RPA2/internal/domain"
)

// AuthHandler handles the login handshake endpoints.
type AuthHandler struct {
	svc auth.Service
}

func NewAuthHandler(svc auth.Service) *AuthHandler {
	return &AuthHandler{svc: svc}
}

func (h *AuthHandler) SendCode(w http.ResponseWriter, r *http.Request) {
	var req auth.StartLoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "validation_failed", "invalid request body")
		return
	}
	res, err := h.svc.StartLogin(r.Context(), req)
	if err != nil {
		h.handshakeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, AuthEnvelope{OK: true, AuthToken: res.AuthToken, Step: "code"})
}

func (h *AuthHandler) VerifyCode(w http.ResponseWriter, r *http.Request) {
	var req auth.SubmitCodeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "validation_failed", "invalid request body")
		return
	}
	outcome, err := h.svc.SubmitCode(r.Context(), req)
	if err != nil {
		h.handshakeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toAuthEnvelope(outcome))
}

func (h *AuthHandler) VerifySecondFactor(w http.ResponseWriter, r *http.Request) {
	var req auth.SubmitSecondFactorRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "validation_failed", "invalid request body")
		return
	}
	outcome, err := h.svc.SubmitSecondFactor(r.Context(), req)
	if err != nil {
		h.handshakeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toAuthEnvelope(outcome))
}

// handshakeError treats an expired or unknown auth token as a bad request.
// The token is request input, not a credential the client holds a session on.
func (h *AuthHandler) handshakeError(w http.ResponseWriter, err error) {
	if errors.Is(err, domain.ErrSessionExpired) {
		writeError(w, http.StatusBadRequest, "session_expired", "auth token is invalid or expired")
		return
	}
	httpError(w, err)
}

func toAuthEnvelope(outcome *auth.LoginOutcome) AuthEnvelope {
	if outcome.SecondFactorRequired {
		return AuthEnvelope{
			OK:                   true,
			SecondFactorRequired: true,
			AuthToken:            outcome.AuthToken,
			Step:                 "2fa",
		}
	}
	return AuthEnvelope{
		OK:             true,
		LoggedIn:       true,
		SessionID:      outcome.SessionID,
		VoteRegistered: outcome.VoteRegistered,
		Votes:          outcome.Votes,
	}
}
