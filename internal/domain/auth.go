package domain

import "time"

// Handshake steps for a pending login. Transitions are monotonic:
// StepAwaitingCode may advance to StepAwaitingSecondFactor, never back.
const (
	StepAwaitingCode         = "code"
	StepAwaitingSecondFactor = "2fa"
)

// DeviceDescriptor carries free-form device metadata supplied by the client
// and forwarded verbatim to the login provider.
type DeviceDescriptor map[string]string

// ProxyDescriptor describes an optional outbound proxy for provider calls.
type ProxyDescriptor struct {
	Enabled  bool   `json:"enabled"`
	Type     string `json:"type"` // "socks5" | "socks4" | "http"
	Host     string `json:"host"`
	Port     int    `json:"port"`
	Username string `json:"username,omitempty"`
	Password string `json:"password,omitempty"`
}

// PendingAuth is the ephemeral record for one in-flight login handshake,
// keyed by an unguessable token under auth:<token>. It exists only while the
// step is AwaitingCode or AwaitingSecondFactor and expires 30 minutes after
// creation regardless of intermediate activity.
type PendingAuth struct {
	Token         string           `json:"token"`
	Phone         string           `json:"phone"`
	Device        DeviceDescriptor `json:"device_info"`
	Step          string           `json:"step"`
	SessionHandle string           `json:"session_handle"` // opaque provider login state
	CodeHash      string           `json:"code_hash"`      // correlates the sent code to verification
	WorkID        string           `json:"work_id,omitempty"`
	Attempts      int              `json:"attempts"`
	CreatedAt     time.Time        `json:"created_at"`
}

// CodeVerification is the outcome of a verify-code call against the provider:
// either a fully verified identity or a demand for the account's second
// factor, carrying the updated provider handle the next call must use.
type CodeVerification struct {
	Identity             *VerifiedIdentity
	SecondFactorRequired bool
	SessionHandle        string
}

// VerifiedIdentity is what the login provider returns on successful sign-in.
type VerifiedIdentity struct {
	Phone           string `json:"phone"`
	TelegramID      int64  `json:"telegram_id"`
	Username        string `json:"username"`
	FirstName       string `json:"first_name"`
	LastName        string `json:"last_name"`
	SessionArtifact []byte `json:"session_artifact"` // durable provider session blob
}
