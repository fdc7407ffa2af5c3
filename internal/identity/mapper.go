// internal/identity/mapper.go
//
// HTTP identity-mapping client.
//
// Context
// -------
// The mapping service takes {"email": "<claimed>"} and answers 200 with
// {"email": "<canonical>"}, or a non-success status when it has no match.
// The same endpoint answers "who is the parent of X", so the filteredsales
// plugin reuses this client for hierarchy lookups.
//
// Every call is bounded: the per-call context deadline is Timeout, and the
// underlying http.Client carries the same value as a backstop.  No retries.
//
// Notes
// -----
//   - The response is decoded defensively.  A body that is not JSON, lacks
//     "email", or carries a non-string "email" yields ErrBadResponse.
//   - Oxford commas, two spaces after periods.

package identity

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"
	"time"
)

const (
	// DefaultTimeout bounds a mapping call when none is configured.
	DefaultTimeout = 3 * time.Second

	// maxResponseBytes caps how much of the response body we read.
	maxResponseBytes = 64 << 10
)

// HTTPMapper calls the external identity-mapping service.
type HTTPMapper struct {
	Endpoint string
	Timeout  time.Duration
	Client   *http.Client
}

// NewHTTPMapper returns a mapper for endpoint.  timeout <= 0 uses
// DefaultTimeout.
func NewHTTPMapper(endpoint string, timeout time.Duration) *HTTPMapper {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &HTTPMapper{
		Endpoint: endpoint,
		Timeout:  timeout,
		Client: &http.Client{
			Timeout: timeout,
			Transport: &http.Transport{
				MaxIdleConns:        100,
				MaxIdleConnsPerHost: 10,
				IdleConnTimeout:     90 * time.Second,
			},
		},
	}
}

type mapPayload struct {
	Email string `json:"email"`
}

// Resolve posts email to the endpoint and returns the canonical email.
// All failures are *ExternalLookupError.
func (m *HTTPMapper) Resolve(ctx context.Context, email string) (string, error) {
	fail := func(status int, err error) (string, error) {
		return "", &ExternalLookupError{Email: email, Status: status, Err: err}
	}
	if m.Endpoint == "" {
		return fail(0, errors.New("identity endpoint not configured"))
	}

	ctx, cancel := context.WithTimeout(ctx, m.Timeout)
	defer cancel()

	body, err := json.Marshal(mapPayload{Email: email})
	if err != nil {
		return fail(0, err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, m.Endpoint, bytes.NewReader(body))
	if err != nil {
		return fail(0, err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	client := m.Client
	if client == nil {
		client = http.DefaultClient
	}
	resp, err := client.Do(req)
	if err != nil {
		return fail(0, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, maxResponseBytes))
		return fail(resp.StatusCode, ErrNoMatch)
	}

	var raw map[string]any
	if err := json.NewDecoder(io.LimitReader(resp.Body, maxResponseBytes)).Decode(&raw); err != nil {
		return fail(resp.StatusCode, ErrBadResponse)
	}
	canonical, ok := raw["email"].(string)
	if !ok || strings.TrimSpace(canonical) == "" {
		return fail(resp.StatusCode, ErrBadResponse)
	}
	return strings.TrimSpace(canonical), nil
}
