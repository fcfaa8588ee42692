package domain

import (
	"strings"
	"time"
)

// ClaimStatus is the lifecycle state of a claim.
// Only needs_review -> in_review -> approved|rejected transitions are legal;
// approved and rejected are terminal and lock the claim permanently.
type ClaimStatus string

const (
	StatusNeedsReview ClaimStatus = "needs_review"
	StatusInReview    ClaimStatus = "in_review"
	StatusApproved    ClaimStatus = "approved"
	StatusRejected    ClaimStatus = "rejected"
)

// Terminal reports whether no further transition is permitted from s.
func (s ClaimStatus) Terminal() bool {
	return s == StatusApproved || s == StatusRejected
}

// RiskBand is the coarse tri-level classification derived from the fraud score.
type RiskBand string

const (
	BandLow    RiskBand = "low"
	BandMedium RiskBand = "medium"
	BandHigh   RiskBand = "high"
)

// Accident types accepted at intake.
var AccidentTypes = []string{
	"Collision", "Rear-End", "Side Impact", "Rollover", "Hit and Run",
	"Parking Damage", "Theft", "Vandalism", "Fire", "Flood Damage",
}

// ValidAccidentType reports whether t is one of the accepted accident types.
func ValidAccidentType(t string) bool {
	for _, a := range AccidentTypes {
		if a == t {
			return true
		}
	}
	return false
}

// DecisionOutcome is the terminal state a decision moves a claim into.
type DecisionOutcome string

const (
	OutcomeApprove DecisionOutcome = "approve"
	OutcomeReject  DecisionOutcome = "reject"
)

// Fixed decision reason lists, one per outcome. A decision is rejected unless
// its reason is drawn verbatim from the list for that outcome.
var (
	ApproveReasons = []string{
		"Low risk score with no significant rule triggers",
		"Manual review completed with no concerns",
		"Additional evidence supports the claim",
		"Risk signals assessed as false positive",
	}

	RejectReasons = []string{
		"High risk score confirmed by manual review",
		"Referred to Special Investigations Unit",
		"Insufficient evidence to support the claim",
		"Policy conditions not met",
	}
)

// ValidDecisionReason reports whether reason belongs to the fixed list for the
// given outcome.
func ValidDecisionReason(outcome DecisionOutcome, reason string) bool {
	list := ApproveReasons
	if outcome == OutcomeReject {
		list = RejectReasons
	}
	for _, r := range list {
		if r == reason {
			return true
		}
	}
	return false
}

// DocumentRef is metadata for a supporting document supplied at intake.
// Blob contents live outside this system; only the metadata participates in
// rule evaluation (document timeline checks).
type DocumentRef struct {
	Filename     string     `json:"filename"`
	ContentType  string     `json:"contentType,omitempty"`
	DocumentDate *time.Time `json:"documentDate,omitempty"`
	UploadedBy   string     `json:"uploadedBy,omitempty"`
	UploadedAt   time.Time  `json:"uploadedAt"`
}

// Claim is the central entity: one submitted motor-insurance claim.
// Claims are never deleted (regulatory retention) and, once decided, never
// mutated again except through the audit trail that records the decision.
type Claim struct {
	ID        string `json:"id"`
	Reference string `json:"reference"` // CLM-<year>-<hex>, unique, never reassigned
	OrgID     string `json:"orgId"`

	// Claimant and policy
	ClaimantName        string     `json:"claimantName"`
	PolicyID            string     `json:"policyId"`
	PolicyStartDate     *time.Time `json:"policyStartDate,omitempty"`
	PolicyholderAddress string     `json:"policyholderAddress,omitempty"`

	// Claimant history, denormalised at intake from the policy system
	PreviousClaimCount     int      `json:"previousClaimCount"`
	PreviousClaimsTotalGBP float64  `json:"previousClaimsTotalGbp"`
	PriorThirdParties      []string `json:"priorThirdParties,omitempty"`
	PriorWitnesses         []string `json:"priorWitnesses,omitempty"`

	// Vehicle
	VehicleMake         string  `json:"vehicleMake"`
	VehicleModel        string  `json:"vehicleModel"`
	VehicleYear         int     `json:"vehicleYear"`
	VehicleRegistration string  `json:"vehicleRegistration"`
	VehicleValueGBP     float64 `json:"vehicleEstimatedValueGbp"`

	// Accident
	AccidentDate          time.Time `json:"accidentDate"`
	AccidentType          string    `json:"accidentType"`
	AccidentLocation      string    `json:"accidentLocation"`
	AccidentDescription   string    `json:"accidentDescription"`
	DistanceFromHomeMiles *float64  `json:"distanceFromHomeMiles,omitempty"`

	// Parties
	WitnessName       string `json:"witnessName,omitempty"`
	WitnessContact    string `json:"witnessContact,omitempty"`
	ThirdPartyName    string `json:"thirdPartyName,omitempty"`
	ThirdPartyContact string `json:"thirdPartyContact,omitempty"`

	ClaimAmountGBP float64       `json:"claimAmountGbp"`
	Documents      []DocumentRef `json:"documents,omitempty"`

	// Provenance of AI-extracted fields, recorded verbatim at intake.
	// Untrusted input; never consulted by scoring.
	ExtractedFields map[string]any `json:"extractedFields,omitempty"`

	// Scoring outcome. FraudScore is nil until a scoring pass completes;
	// RiskBand is nil iff FraudScore is nil and is always derived from it.
	FraudScore    *int           `json:"fraudScore"`
	RiskBand      *RiskBand      `json:"riskBand"`
	ScoredAt      *time.Time     `json:"scoredAt,omitempty"`
	Justification map[string]any `json:"justification,omitempty"`

	Status ClaimStatus `json:"status"`

	CreatedBy string    `json:"createdBy"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`

	InReviewBy string     `json:"inReviewBy,omitempty"`
	InReviewAt *time.Time `json:"inReviewAt,omitempty"`

	DecisionReason string     `json:"decisionReason,omitempty"`
	DecisionNotes  string     `json:"decisionNotes,omitempty"`
	DecidedBy      string     `json:"decidedBy,omitempty"`
	DecidedAt      *time.Time `json:"decidedAt,omitempty"`
}

// ClaimSummary is the list-view projection of a claim.
type ClaimSummary struct {
	ID             string      `json:"id"`
	Reference      string      `json:"reference"`
	ClaimantName   string      `json:"claimantName"`
	ClaimAmountGBP float64     `json:"claimAmountGbp"`
	AccidentType   string      `json:"accidentType"`
	Status         ClaimStatus `json:"status"`
	FraudScore     *int        `json:"fraudScore"`
	RiskBand       *RiskBand   `json:"riskBand"`
	CreatedAt      time.Time   `json:"createdAt"`
}

// HasPriorThirdParty reports whether name matches any recorded prior third
// party for the claimant. Comparison is case-insensitive and trims whitespace.
func (c *Claim) HasPriorThirdParty(name string) bool {
	return matchesParty(name, c.PriorThirdParties)
}

// HasPriorWitness reports whether name matches any recorded prior witness.
func (c *Claim) HasPriorWitness(name string) bool {
	return matchesParty(name, c.PriorWitnesses)
}

func matchesParty(name string, prior []string) bool {
	name = strings.TrimSpace(strings.ToLower(name))
	if name == "" {
		return false
	}
	for _, p := range prior {
		if strings.TrimSpace(strings.ToLower(p)) == name {
			return true
		}
	}
	return false
}
