package domain

import (
	"time"
)

// CandidateSignal is a raw observation from the external AI detector, before
// validation. Treated as untrusted input.
type CandidateSignal struct {
	Type        string  `json:"signalType"`
	Description string  `json:"description"`
	Evidence    string  `json:"evidence"`
	Confidence  float64 `json:"confidence"`
}

// Signal is a validated, persisted AI observation owned by a claim.
// Signals are additive scoring input; a claim scores fine with none.
type Signal struct {
	ID          string    `json:"id"`
	ClaimRef    string    `json:"claimRef"`
	Type        string    `json:"signalType"`
	Description string    `json:"description"`
	Evidence    string    `json:"evidence"`
	Confidence  float64   `json:"confidence"` // [0.0, 1.0]
	DetectedAt  time.Time `json:"detectedAt"`
}
