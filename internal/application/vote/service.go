// Package vote owns the voting ledger rules: at most one vote per
// (work, phone) pair within the retention window, counting, and reporting.
package vote

import (
	"context"
	"fmt"

	"github.com/sladmit/RPA2/internal/domain"
)

// SessionStore is the minimal session access the ledger needs.
type SessionStore interface {
	Get(ctx context.Context, sessionID string) (*domain.UserSession, error)
	CountActive(ctx context.Context) (int, error)
}

// VoteStore is the atomic marker/counter storage behind the ledger.
type VoteStore interface {
	RegisterVote(ctx context.Context, workID, phone string) (won bool, count int64, err error)
	HasVoted(ctx context.Context, workID, phone string) (bool, error)
	Count(ctx context.Context, workID string) (int64, error)
	Leaderboard(ctx context.Context) ([]domain.LeaderboardEntry, error)
	Totals(ctx context.Context) (works int, votes int64, err error)
}

// RegisterResult reports a registration attempt. When the phone already
// voted, Register returns it alongside domain.ErrAlreadyVoted with Votes
// still carrying the current count.
type RegisterResult struct {
	Registered bool
	Votes      int64
}

// Service is the voting ledger.
type Service interface {
	Register(ctx context.Context, sessionID, workID string) (*RegisterResult, error)
	RegisterForPhone(ctx context.Context, workID, phone string) (registered bool, votes int64, err error)
	HasVoted(ctx context.Context, sessionID, workID string) (bool, error)
	Count(ctx context.Context, workID string) (int64, error)
	Leaderboard(ctx context.Context) ([]domain.LeaderboardEntry, error)
	Stats(ctx context.Context) (*domain.VoteStats, error)
}

// Deps holds the service dependencies.
type Deps struct {
	Sessions         SessionStore
	Votes            VoteStore
	LeaderboardLimit int
}

type service struct {
	sessions SessionStore
	votes    VoteStore
	limit    int
}

// NewService builds the ledger service.
func NewService(deps Deps) Service {
	limit := deps.LeaderboardLimit
	if limit <= 0 {
		limit = 100
	}
	return &service{sessions: deps.Sessions, votes: deps.Votes, limit: limit}
}

func (s *service) Register(ctx context.Context, sessionID, workID string) (*RegisterResult, error) {
	phone, err := s.resolvePhone(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	registered, votes, err := s.RegisterForPhone(ctx, workID, phone)
	if err != nil {
		return nil, err
	}
	res := &RegisterResult{Registered: registered, Votes: votes}
	if !registered {
		return res, fmt.Errorf("phone already voted for %s: %w", workID, domain.ErrAlreadyVoted)
	}
	return res, nil
}

func (s *service) RegisterForPhone(ctx context.Context, workID, phone string) (bool, int64, error) {
	if workID == "" || phone == "" {
		return false, 0, fmt.Errorf("work id and phone required: %w", domain.ErrValidation)
	}
	return s.votes.RegisterVote(ctx, workID, phone)
}

func (s *service) HasVoted(ctx context.Context, sessionID, workID string) (bool, error) {
	phone, err := s.resolvePhone(ctx, sessionID)
	if err != nil {
		return false, err
	}
	return s.votes.HasVoted(ctx, workID, phone)
}

func (s *service) Count(ctx context.Context, workID string) (int64, error) {
	return s.votes.Count(ctx, workID)
}

func (s *service) Leaderboard(ctx context.Context) ([]domain.LeaderboardEntry, error) {
	entries, err := s.votes.Leaderboard(ctx)
	if err != nil {
		return nil, err
	}
	if len(entries) > s.limit {
		entries = entries[:s.limit]
	}
	return entries, nil
}

func (s *service) Stats(ctx context.Context) (*domain.VoteStats, error) {
	works, votes, err := s.votes.Totals(ctx)
	if err != nil {
		return nil, err
	}
	users, err := s.sessions.CountActive(ctx)
	if err != nil {
		return nil, err
	}
	return &domain.VoteStats{
		TotalWorksVoted: works,
		TotalVotes:      votes,
		TotalUsers:      users,
	}, nil
}

// resolvePhone maps a session id to the durable identity the ledger keys on.
// A session without a phone is treated as expired rather than trusted.
func (s *service) resolvePhone(ctx context.Context, sessionID string) (string, error) {
	if sessionID == "" {
		return "", fmt.Errorf("session required: %w", domain.ErrSessionExpired)
	}
	sess, err := s.sessions.Get(ctx, sessionID)
	if err != nil {
		return "", err
	}
	if sess.Phone == "" {
		return "", fmt.Errorf("session has no phone: %w", domain.ErrSessionExpired)
	}
	return sess.Phone, nil
}
