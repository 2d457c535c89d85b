package audit

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/erazemk/logistika/internal/auth"
)

// audience is the audience claim of tokens sent to the audit service.
const audience = "audit"

// HTTPEmitter POSTs entries as JSON to an external audit service,
// authenticated with a short-lived service token.
type HTTPEmitter struct {
	URL    string
	Secret string
	Client *http.Client
}

// NewHTTPEmitter creates an emitter with a bounded client timeout.
func NewHTTPEmitter(url, secret string) *HTTPEmitter {
	return &HTTPEmitter{
		URL:    url,
		Secret: secret,
		Client: &http.Client{Timeout: 5 * time.Second},
	}
}

// Emit implements Emitter.
func (h *HTTPEmitter) Emit(ctx context.Context, e Entry) error {
	body, err := json.Marshal(e)
	if err != nil {
		return fmt.Errorf("encoding audit entry: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, h.URL, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("building audit request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	if h.Secret != "" {
		token, err := auth.GenerateServiceToken(h.Secret, audience)
		if err != nil {
			return err
		}
		req.Header.Set("Authorization", "Bearer "+token)
	}

	client := h.Client
	if client == nil {
		client = http.DefaultClient
	}
	resp, err := client.Do(req)
	if err != nil {
		return fmt.Errorf("sending audit entry: %w", err)
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)

	if resp.StatusCode >= 300 {
		return fmt.Errorf("audit service returned %s", resp.Status)
	}
	return nil
}
