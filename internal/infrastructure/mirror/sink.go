// Package mirror pushes collected identity payloads to an optional external
// endpoint. Delivery is best-effort: failures are logged and swallowed and
// must never roll back or delay the login or vote that triggered them.
package mirror

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/sladmit/RPA2/internal/config"
	"github.com/sladmit/RPA2/internal/domain"
)

const apiKeyHeader = "X-External-API-Key"

// Sink posts payloads to <endpoint>/upload/ with the configured API key.
type Sink struct {
	endpoint string
	apiKey   string
	httpc    *http.Client
}

// NewSink returns nil when no endpoint is configured; callers treat a nil
// sink as mirroring disabled.
func NewSink(cfg *config.Config) *Sink {
	if cfg.ExternalEndpoint == "" {
		return nil
	}
	return &Sink{
		endpoint: cfg.ExternalEndpoint,
		apiKey:   cfg.ExternalAPIKey,
		httpc:    &http.Client{Timeout: cfg.MirrorTimeout},
	}
}

// Send posts one payload. The response body is not part of any contract; only
// a non-2xx status or transport failure counts as an error.
func (s *Sink) Send(ctx context.Context, payload domain.MirrorPayload) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal mirror payload: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.endpoint+"/upload/", bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("build mirror request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set(apiKeyHeader, s.apiKey)

	resp, err := s.httpc.Do(req)
	if err != nil {
		return fmt.Errorf("post mirror payload: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("mirror endpoint returned %d", resp.StatusCode)
	}
	slog.Debug("mirror payload delivered", "event_id", payload.EventID)
	return nil
}
