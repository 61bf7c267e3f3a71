// Package oracle provides the HTTP client used to consult an external
// similarity-proof verifier.
package oracle

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// ErrEndpointRequired rejects construction without a verifier URL.
var ErrEndpointRequired = errors.New("oracle: endpoint required")

const defaultTimeout = 5 * time.Second

// HTTPClient verifies proof identifiers against a remote verifier. The
// verifier answers GET {endpoint}?proof={hash} with {"verified": bool}.
type HTTPClient struct {
	endpoint string
	client   *http.Client
}

// NewHTTPClient builds a client for the given verifier endpoint.
func NewHTTPClient(endpoint string) (*HTTPClient, error) {
	trimmed := strings.TrimSpace(endpoint)
	if trimmed == "" {
		return nil, ErrEndpointRequired
	}
	if _, err := url.ParseRequestURI(trimmed); err != nil {
		return nil, fmt.Errorf("oracle: invalid endpoint: %w", err)
	}
	return &HTTPClient{
		endpoint: trimmed,
		client:   &http.Client{Timeout: defaultTimeout},
	}, nil
}

type verifyResponse struct {
	Verified bool `json:"verified"`
}

// Verify asks the remote verifier for a verdict on the proof hash.
func (c *HTTPClient) Verify(proofHash string) (bool, error) {
	target := c.endpoint + "?proof=" + url.QueryEscape(proofHash)
	resp, err := c.client.Get(target)
	if err != nil {
		return false, fmt.Errorf("oracle: verify request: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return false, fmt.Errorf("oracle: verifier returned status %d", resp.StatusCode)
	}
	var verdict verifyResponse
	if err := json.NewDecoder(resp.Body).Decode(&verdict); err != nil {
		return false, fmt.Errorf("oracle: decode verdict: %w", err)
	}
	return verdict.Verified, nil
}
