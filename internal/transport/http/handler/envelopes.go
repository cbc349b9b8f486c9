package handler

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/sladmit/RPA2/internal/domain"
)

// MessageEnvelope is the generic response wrapper.
type MessageEnvelope struct {
	Message string `json:"message,omitempty"`
	Error   string `json:"error,omitempty"`
	Reason  string `json:"reason,omitempty"`
}

// AuthEnvelope wraps login handshake responses.
type AuthEnvelope struct {
	OK                   bool   `json:"ok"`
	AuthToken            string `json:"auth_token,omitempty"`
	Step                 string `json:"step,omitempty"`
	SecondFactorRequired bool   `json:"second_factor_required,omitempty"`
	LoggedIn             bool   `json:"logged_in,omitempty"`
	SessionID            string `json:"session_id,omitempty"`
	VoteRegistered       bool   `json:"vote_registered,omitempty"`
	Votes                int64  `json:"votes,omitempty"`
}

// VoteEnvelope wraps vote registration responses. A duplicate vote is a
// successful request with Success=false, not an error status.
type VoteEnvelope struct {
	Success bool   `json:"success"`
	Votes   int64  `json:"votes"`
	Reason  string `json:"reason,omitempty"`
}

// CheckVoteEnvelope wraps check-vote responses.
type CheckVoteEnvelope struct {
	HasVoted bool `json:"has_voted"`
}

// WorkVotesEnvelope wraps per-work count responses.
type WorkVotesEnvelope struct {
	WorkID string `json:"work_id"`
	Votes  int64  `json:"votes"`
}

// LeaderboardEnvelope wraps the leaderboard response.
type LeaderboardEnvelope struct {
	Leaderboard []domain.LeaderboardEntry `json:"leaderboard"`
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, reason, msg string) {
	writeJSON(w, status, MessageEnvelope{Error: msg, Reason: reason})
}

// httpError maps a service error onto the wire contract. An expired session
// is an authentication failure here; auth handlers pre-empt that case because
// an expired handshake token is a plain bad request for them.
func httpError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, domain.ErrInvalidCode):
		writeError(w, http.StatusBadRequest, "invalid_code", err.Error())
	case errors.Is(err, domain.ErrInvalidSecondFactor):
		writeError(w, http.StatusBadRequest, "invalid_password", err.Error())
	case errors.Is(err, domain.ErrValidation):
		writeError(w, http.StatusBadRequest, "validation_failed", err.Error())
	case errors.Is(err, domain.ErrSessionExpired):
		writeError(w, http.StatusUnauthorized, "session_expired", "invalid or expired session")
	case errors.Is(err, domain.ErrProviderTransient):
		writeError(w, http.StatusBadGateway, "provider_unavailable", "login provider is unavailable, try again")
	case errors.Is(err, domain.ErrStoreUnavailable):
		writeError(w, http.StatusInternalServerError, "store_unavailable", "storage is unavailable")
	default:
		writeError(w, http.StatusInternalServerError, "internal_error", "internal error")
	}
}
