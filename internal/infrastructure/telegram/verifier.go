// Package telegram is the boundary client for the external login provider.
// Sign-in itself happens on an MTProto gateway; this client only drives the
// three-step handshake contract (send code, verify code, verify password) and
// threads the opaque session handles between steps.
package telegram

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"golang.org/x/sync/semaphore"

	"github.com/sladmit/RPA2/internal/config"
	"github.com/sladmit/RPA2/internal/domain"
)

// Provider error codes surfaced by the gateway, mirroring Telegram's own.
const (
	codeInvalidPhoneCode = "PHONE_CODE_INVALID"
	codePasswordNeeded   = "SESSION_PASSWORD_NEEDED"
	codePasswordInvalid  = "PASSWORD_HASH_INVALID"
)

// Verifier drives login handshakes against the configured gateway. Outbound
// calls are bounded by a weighted semaphore so a burst of logins cannot open
// an unbounded number of provider connections; each call carries its own
// deadline and a timed-out call leaves the pending handshake untouched.
type Verifier struct {
	baseURL string
	apiID   int
	apiHash string
	proxy   domain.ProxyDescriptor
	httpc   *http.Client
	sem     *semaphore.Weighted
}

// NewVerifier builds the gateway client from configuration.
func NewVerifier(cfg *config.Config) *Verifier {
	return &Verifier{
		baseURL: cfg.TelegramGatewayURL,
		apiID:   cfg.TelegramAPIID,
		apiHash: cfg.TelegramAPIHash,
		proxy:   cfg.Proxy,
		httpc:   &http.Client{Timeout: cfg.ProviderTimeout},
		sem:     semaphore.NewWeighted(cfg.ProviderMaxCalls),
	}
}

type gatewayRequest struct {
	APIID         int                     `json:"api_id"`
	APIHash       string                  `json:"api_hash"`
	Phone         string                  `json:"phone,omitempty"`
	Code          string                  `json:"code,omitempty"`
	Password      string                  `json:"password,omitempty"`
	PhoneCodeHash string                  `json:"phone_code_hash,omitempty"`
	SessionString string                  `json:"session_string,omitempty"`
	DeviceInfo    domain.DeviceDescriptor `json:"device_info,omitempty"`
	Proxy         *domain.ProxyDescriptor `json:"proxy,omitempty"`
}

type gatewayUser struct {
	ID        int64  `json:"id"`
	Phone     string `json:"phone"`
	Username  string `json:"username"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
}

type gatewayResponse struct {
	SessionString     string       `json:"session_string"`
	PhoneCodeHash     string       `json:"phone_code_hash"`
	TwoFactorRequired bool         `json:"two_factor_required"`
	User              *gatewayUser `json:"user"`
	SessionFile       []byte       `json:"session_file"`
	Error             string       `json:"error"`
}

// SendCode asks the provider to send a confirmation code to phone. It returns
// the opaque login handle and the code correlation hash the verify step needs.
func (v *Verifier) SendCode(ctx context.Context, phone string, device domain.DeviceDescriptor) (sessionHandle, codeHash string, err error) {
	resp, err := v.call(ctx, "/sendCode", gatewayRequest{
		APIID:      v.apiID,
		APIHash:    v.apiHash,
		Phone:      phone,
		DeviceInfo: device,
		Proxy:      v.proxyOrNil(),
	})
	if err != nil {
		return "", "", err
	}
	return resp.SessionString, resp.PhoneCodeHash, nil
}

// VerifyCode submits the confirmation code. Three outcomes: a verified
// identity, a second-factor demand with an updated handle, or
// domain.ErrInvalidCode when the provider rejected the code.
func (v *Verifier) VerifyCode(ctx context.Context, sessionHandle string, device domain.DeviceDescriptor, phone, code, codeHash string) (*domain.CodeVerification, error) {
	resp, err := v.call(ctx, "/signIn", gatewayRequest{
		APIID:         v.apiID,
		APIHash:       v.apiHash,
		Phone:         phone,
		Code:          code,
		PhoneCodeHash: codeHash,
		SessionString: sessionHandle,
		DeviceInfo:    device,
		Proxy:         v.proxyOrNil(),
	})
	if err != nil {
		if gwErr, ok := err.(*gatewayError); ok && gwErr.code == codeInvalidPhoneCode {
			return nil, fmt.Errorf("sign in: %w", domain.ErrInvalidCode)
		}
		return nil, err
	}
	if resp.TwoFactorRequired {
		return &domain.CodeVerification{
			SecondFactorRequired: true,
			SessionHandle:        resp.SessionString,
		}, nil
	}
	return &domain.CodeVerification{Identity: identityFrom(resp)}, nil
}

// VerifySecondFactor submits the account password for accounts with a second
// factor enabled.
func (v *Verifier) VerifySecondFactor(ctx context.Context, sessionHandle string, device domain.DeviceDescriptor, secret string) (*domain.VerifiedIdentity, error) {
	resp, err := v.call(ctx, "/checkPassword", gatewayRequest{
		APIID:         v.apiID,
		APIHash:       v.apiHash,
		Password:      secret,
		SessionString: sessionHandle,
		DeviceInfo:    device,
		Proxy:         v.proxyOrNil(),
	})
	if err != nil {
		if gwErr, ok := err.(*gatewayError); ok && gwErr.code == codePasswordInvalid {
			return nil, fmt.Errorf("check password: %w", domain.ErrInvalidSecondFactor)
		}
		return nil, err
	}
	return identityFrom(resp), nil
}

func identityFrom(resp *gatewayResponse) *domain.VerifiedIdentity {
	ident := &domain.VerifiedIdentity{SessionArtifact: resp.SessionFile}
	if resp.User != nil {
		ident.Phone = resp.User.Phone
		ident.TelegramID = resp.User.ID
		ident.Username = resp.User.Username
		ident.FirstName = resp.User.FirstName
		ident.LastName = resp.User.LastName
	}
	return ident
}

func (v *Verifier) proxyOrNil() *domain.ProxyDescriptor {
	if !v.proxy.Enabled || v.proxy.Host == "" {
		return nil
	}
	p := v.proxy
	return &p
}

// gatewayError is a non-transient rejection from the gateway, carrying the
// provider's error code.
type gatewayError struct {
	code   string
	status int
}

func (e *gatewayError) Error() string {
	return fmt.Sprintf("gateway rejected request: %s (http %d)", e.code, e.status)
}

func (v *Verifier) call(ctx context.Context, path string, payload gatewayRequest) (*gatewayResponse, error) {
	if err := v.sem.Acquire(ctx, 1); err != nil {
		return nil, fmt.Errorf("acquire provider slot: %v: %w", err, domain.ErrProviderTransient)
	}
	defer v.sem.Release(1)

	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("marshal gateway request: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, v.baseURL+path, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("build gateway request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	httpResp, err := v.httpc.Do(req)
	if err != nil {
		return nil, fmt.Errorf("call gateway %s: %v: %w", path, err, domain.ErrProviderTransient)
	}
	defer httpResp.Body.Close()

	if httpResp.StatusCode >= http.StatusInternalServerError {
		return nil, fmt.Errorf("gateway %s returned %d: %w", path, httpResp.StatusCode, domain.ErrProviderTransient)
	}

	var resp gatewayResponse
	if err := json.NewDecoder(httpResp.Body).Decode(&resp); err != nil {
		return nil, fmt.Errorf("decode gateway response: %v: %w", err, domain.ErrProviderTransient)
	}
	if httpResp.StatusCode != http.StatusOK || resp.Error != "" {
		return nil, &gatewayError{code: resp.Error, status: httpResp.StatusCode}
	}
	return &resp, nil
}
