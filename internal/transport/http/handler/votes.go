package handler

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/sladmit/RPA2/internal/application/vote"
	"github.com/sladmit/RPA2/internal/domain"
)

// VoteHandler handles the voting ledger endpoints.
type VoteHandler struct {
	svc vote.Service
}

func NewVoteHandler(svc vote.Service) *VoteHandler {
	return &VoteHandler{svc: svc}
}

type voteRequest struct {
	SessionID string `json:"session_id"`
	WorkID    string `json:"work_id"`
}

func (h *VoteHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req voteRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "validation_failed", "invalid request body")
		return
	}
	if req.WorkID == "" {
		writeError(w, http.StatusBadRequest, "validation_failed", "work_id required")
		return
	}
	res, err := h.svc.Register(r.Context(), req.SessionID, req.WorkID)
	if err != nil {
		// A duplicate vote is a normal outcome, reported with 200.
		if errors.Is(err, domain.ErrAlreadyVoted) {
			writeJSON(w, http.StatusOK, VoteEnvelope{Success: false, Votes: res.Votes, Reason: "already_voted"})
			return
		}
		httpError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, VoteEnvelope{Success: true, Votes: res.Votes})
}

func (h *VoteHandler) CheckVote(w http.ResponseWriter, r *http.Request) {
	var req voteRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "validation_failed", "invalid request body")
		return
	}
	if req.WorkID == "" {
		writeError(w, http.StatusBadRequest, "validation_failed", "work_id required")
		return
	}
	voted, err := h.svc.HasVoted(r.Context(), req.SessionID, req.WorkID)
	if err != nil {
		httpError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, CheckVoteEnvelope{HasVoted: voted})
}

func (h *VoteHandler) Count(w http.ResponseWriter, r *http.Request) {
	workID := chi.URLParam(r, "workID")
	votes, err := h.svc.Count(r.Context(), workID)
	if err != nil {
		httpError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, WorkVotesEnvelope{WorkID: workID, Votes: votes})
}

func (h *VoteHandler) Leaderboard(w http.ResponseWriter, r *http.Request) {
	entries, err := h.svc.Leaderboard(r.Context())
	if err != nil {
		httpError(w, err)
		return
	}
	if entries == nil {
		entries = []domain.LeaderboardEntry{}
	}
	writeJSON(w, http.StatusOK, LeaderboardEnvelope{Leaderboard: entries})
}

func (h *VoteHandler) Stats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.svc.Stats(r.Context())
	if err != nil {
		httpError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, stats)
}
