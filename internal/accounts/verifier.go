package accounts

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// HTTPVerifier scores challenge tokens against a remote verification
// endpoint that speaks the siteverify form protocol.
type HTTPVerifier struct {
	endpoint string
	secret   string
	client   *http.Client
}

// NewHTTPVerifier returns a verifier for the given siteverify endpoint.
func NewHTTPVerifier(endpoint, secret string) *HTTPVerifier {
	return &HTTPVerifier{
		endpoint: endpoint,
		secret:   secret,
		client:   &http.Client{Timeout: 10 * time.Second},
	}
}

var _ Verifier = (*HTTPVerifier)(nil)

// Verify posts the token and returns the reported score. A response with
// success=false is an error.
func (v *HTTPVerifier) Verify(ctx context.Context, token string) (float64, error) {
	if token == "" {
		return 0, fmt.Errorf("empty challenge token")
	}

	form := url.Values{}
	form.Set("secret", v.secret)
	form.Set("response", token)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, v.endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return 0, err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := v.client.Do(req)
	if err != nil {
		return 0, fmt.Errorf("verify challenge: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return 0, fmt.Errorf("verify challenge: unexpected status %d", resp.StatusCode)
	}

	var body struct {
		Success    bool     `json:"success"`
		Score      float64  `json:"score"`
		ErrorCodes []string `json:"error-codes"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return 0, fmt.Errorf("verify challenge: decode response: %w", err)
	}
	if !body.Success {
		return 0, fmt.Errorf("verify challenge: rejected (%s)", strings.Join(body.ErrorCodes, ", "))
	}
	return body.Score, nil
}
