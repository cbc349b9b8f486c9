package telegram

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sladmit/RPA2/internal/config"
	"github.com/sladmit/RPA2/internal/domain"
)

func newTestVerifier(t *testing.T, handler http.HandlerFunc) *Verifier {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return NewVerifier(&config.Config{
		TelegramGatewayURL: srv.URL,
		TelegramAPIID:      12345,
		TelegramAPIHash:    "hash",
		ProviderTimeout:    2 * time.Second,
		ProviderMaxCalls:   4,
	})
}

func TestSendCode(t *testing.T) {
	v := newTestVerifier(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/sendCode", r.URL.Path)
		var req gatewayRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, 12345, req.APIID)
		assert.Equal(t, "+15550001111", req.Phone)
		_ = json.NewEncoder(w).Encode(gatewayResponse{SessionString: "sess-1", PhoneCodeHash: "pch-1"})
	})

	handle, hash, err := v.SendCode(context.Background(), "+15550001111", domain.DeviceDescriptor{"d_m": "Desktop"})
	require.NoError(t, err)
	assert.Equal(t, "sess-1", handle)
	assert.Equal(t, "pch-1", hash)
}

func TestVerifyCode_Success(t *testing.T) {
	v := newTestVerifier(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/signIn", r.URL.Path)
		_ = json.NewEncoder(w).Encode(gatewayResponse{
			User:        &gatewayUser{ID: 999, Phone: "+15550001111", Username: "alice"},
			SessionFile: []byte{1, 2, 3},
		})
	})

	cv, err := v.VerifyCode(context.Background(), "sess-1", nil, "+15550001111", "12345", "pch-1")
	require.NoError(t, err)
	require.NotNil(t, cv.Identity)
	assert.False(t, cv.SecondFactorRequired)
	assert.Equal(t, int64(999), cv.Identity.TelegramID)
	assert.Equal(t, []byte{1, 2, 3}, cv.Identity.SessionArtifact)
}

func TestVerifyCode_SecondFactorRequired(t *testing.T) {
	v := newTestVerifier(t, func(w http.ResponseWriter, _ *http.Request) {
		_ = json.NewEncoder(w).Encode(gatewayResponse{TwoFactorRequired: true, SessionString: "sess-2"})
	})

	cv, err := v.VerifyCode(context.Background(), "sess-1", nil, "+15550001111", "12345", "pch-1")
	require.NoError(t, err)
	assert.True(t, cv.SecondFactorRequired)
	assert.Equal(t, "sess-2", cv.SessionHandle)
	assert.Nil(t, cv.Identity)
}

func TestVerifyCode_InvalidCode(t *testing.T) {
	v := newTestVerifier(t, func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_ = json.NewEncoder(w).Encode(gatewayResponse{Error: "PHONE_CODE_INVALID"})
	})

	_, err := v.VerifyCode(context.Background(), "sess-1", nil, "+15550001111", "00000", "pch-1")
	assert.ErrorIs(t, err, domain.ErrInvalidCode)
}

func TestVerifySecondFactor_Invalid(t *testing.T) {
	v := newTestVerifier(t, func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_ = json.NewEncoder(w).Encode(gatewayResponse{Error: "PASSWORD_HASH_INVALID"})
	})

	_, err := v.VerifySecondFactor(context.Background(), "sess-2", nil, "wrong")
	assert.ErrorIs(t, err, domain.ErrInvalidSecondFactor)
}

func TestCall_ServerErrorIsTransient(t *testing.T) {
	v := newTestVerifier(t, func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	})

	_, _, err := v.SendCode(context.Background(), "+15550001111", nil)
	assert.ErrorIs(t, err, domain.ErrProviderTransient)
}

func TestCall_ConnectionFailureIsTransient(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	srv.Close() // nothing listening anymore
	v := NewVerifier(&config.Config{
		TelegramGatewayURL: srv.URL,
		ProviderTimeout:    time.Second,
		ProviderMaxCalls:   1,
	})

	_, _, err := v.SendCode(context.Background(), "+15550001111", nil)
	assert.ErrorIs(t, err, domain.ErrProviderTransient)
}
