// Package signals handles AI fraud-signal detection and ingestion.
// Detection calls an external analysis service; its output is untrusted and
// always optional — a claim scores fine with no signals at all.
package signals

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/openclaims/kestrel/internal/domain"
)

// Detector produces candidate signals for a claim.
type Detector interface {
	Detect(ctx context.Context, c *domain.Claim) ([]domain.CandidateSignal, error)
}

// NoopDetector returns no signals. Used when no detector service is
// configured.
type NoopDetector struct{}

func (NoopDetector) Detect(_ context.Context, _ *domain.Claim) ([]domain.CandidateSignal, error) {
	return nil, nil
}

// HTTPDetector posts the claim to an external detector service and decodes
// its candidate signals. Any transport or decode failure is returned to the
// caller, which degrades to an empty signal set; detection never blocks a
// scoring pass beyond the configured timeout.
type HTTPDetector struct {
	endpoint string
	client   *http.Client
}

// NewHTTPDetector creates a detector client for the given endpoint.
func NewHTTPDetector(cfg domain.SignalsConfig) *HTTPDetector {
	timeout := time.Duration(cfg.TimeoutSecs) * time.Second
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &HTTPDetector{
		endpoint: cfg.Endpoint,
		client:   &http.Client{Timeout: timeout},
	}
}

type detectRequest struct {
	Reference           string  `json:"reference"`
	ClaimantName        string  `json:"claimantName"`
	AccidentType        string  `json:"accidentType"`
	AccidentDescription string  `json:"accidentDescription"`
	AccidentLocation    string  `json:"accidentLocation"`
	ClaimAmountGBP      float64 `json:"claimAmountGbp"`
	PreviousClaimCount  int     `json:"previousClaimCount"`
}

type detectResponse struct {
	Signals []domain.CandidateSignal `json:"signals"`
}

func (d *HTTPDetector) Detect(ctx context.Context, c *domain.Claim) ([]domain.CandidateSignal, error) {
	body, err := json.Marshal(detectRequest{
		Reference:           c.Reference,
		ClaimantName:        c.ClaimantName,
		AccidentType:        c.AccidentType,
		AccidentDescription: c.AccidentDescription,
		AccidentLocation:    c.AccidentLocation,
		ClaimAmountGBP:      c.ClaimAmountGBP,
		PreviousClaimCount:  c.PreviousClaimCount,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to encode detect request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, d.endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to build detect request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := d.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("detector request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("detector returned status %d", resp.StatusCode)
	}

	var out detectResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("failed to decode detector response: %w", err)
	}
	return out.Signals, nil
}

// NewDetector builds the detector for the configured mode.
func NewDetector(cfg domain.SignalsConfig) Detector {
	if cfg.Mode == "http" && cfg.Endpoint != "" {
		return NewHTTPDetector(cfg)
	}
	return NoopDetector{}
}
