package engine

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/registrar-ops/triage/pkg/lifecycle"
)

const defaultStateTimeout = 5 * time.Second

// HTTPStateConfig configures the account-system state client.
type HTTPStateConfig struct {
	// BaseURL of the account/domain system of record.
	BaseURL string `json:"base_url"`
	// Timeout for the lookup call. Default: 5s.
	Timeout time.Duration `json:"timeout,omitempty"`
}

// HTTPStateLookup reads domain state from the external account system
// over HTTP: GET {base}/v1/domains/{id}/state. Any transport error,
// timeout, or unexpected payload is an error the engine recovers from
// as StateUnknown.
type HTTPStateLookup struct {
	config HTTPStateConfig
	client *http.Client
}

// NewHTTPStateLookup creates the client.
func NewHTTPStateLookup(cfg HTTPStateConfig) *HTTPStateLookup {
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = defaultStateTimeout
	}
	return &HTTPStateLookup{
		config: cfg,
		client: &http.Client{Timeout: timeout},
	}
}

type stateResponse struct {
	State string `json:"state"`
}

// DomainState implements StateLookup.
func (h *HTTPStateLookup) DomainState(ctx context.Context, domainID string) (lifecycle.DomainState, error) {
	endpoint := fmt.Sprintf("%s/v1/domains/%s/state", h.config.BaseURL, url.PathEscape(domainID))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return lifecycle.StateUnknown, fmt.Errorf("state lookup: build request: %w", err)
	}

	resp, err := h.client.Do(req)
	if err != nil {
		return lifecycle.StateUnknown, fmt.Errorf("state lookup: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return lifecycle.StateUnknown, fmt.Errorf("state lookup: status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, 4096))
	if err != nil {
		return lifecycle.StateUnknown, fmt.Errorf("state lookup: read: %w", err)
	}
	var sr stateResponse
	if err := json.Unmarshal(body, &sr); err != nil {
		return lifecycle.StateUnknown, fmt.Errorf("state lookup: decode: %w", err)
	}

	state := lifecycle.Parse(sr.State)
	if state == lifecycle.StateUnknown {
		return lifecycle.StateUnknown, fmt.Errorf("state lookup: unrecognized state %q", sr.State)
	}
	return state, nil
}
