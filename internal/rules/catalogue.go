// Package rules provides the fixed fraud-scoring rule catalogue and its
// evaluator. The catalogue is compiled into the binary and immutable at
// runtime; every rule is a pure predicate over a claim snapshot and its
// AI signal set.
package rules

import (
	"fmt"
	"strings"
	"time"

	"github.com/openclaims/kestrel/internal/domain"
)

const (
	lateNotificationDays = 14
	earlyPolicyDays      = 7
	unusualDistanceMiles = 100.0
	frequentClaimLimit   = 2
	highConfidence       = 0.8
	multiSignalCount     = 3
	minLocationLen       = 10
)

var vagueLocationTerms = []string{
	"somewhere", "unknown", "not sure", "can't remember", "cannot remember",
	"near the", "around the", "no idea",
}

// descriptionKeywords maps each accident type to words a genuine description
// of that accident type would plausibly contain. A non-empty description
// containing none of them is treated as a mismatch.
var descriptionKeywords = map[string][]string{
	"Collision":      {"collision", "collid", "crash", "hit", "impact"},
	"Rear-End":       {"rear", "behind", "back", "shunt"},
	"Side Impact":    {"side", "t-bone", "junction", "pulled out"},
	"Rollover":       {"roll", "overturn", "flip"},
	"Hit and Run":    {"hit and run", "fled", "drove off", "drove away", "left the scene"},
	"Parking Damage": {"park", "car park", "parked"},
	"Theft":          {"stolen", "theft", "taken", "missing", "broke in"},
	"Vandalism":      {"vandal", "scratch", "smash", "slash", "spray"},
	"Fire":           {"fire", "flame", "smoke", "burn"},
	"Flood Damage":   {"flood", "water", "rain", "submerg"},
}

// Catalogue returns the fixed rule set in evaluation order. The ten claim
// rules come first, then the two AI-signal rules.
func Catalogue() []domain.RuleDef {
	return []domain.RuleDef{
		{
			ID:          "late_notification",
			Name:        "Late Notification",
			Description: "Claim submitted more than 14 days after the accident",
			Weight:      20,
			Predicate: func(c *domain.Claim, _ []domain.Signal) (bool, string) {
				if c.AccidentDate.IsZero() || c.CreatedAt.IsZero() {
					return false, ""
				}
				gap := c.CreatedAt.Sub(c.AccidentDate)
				if gap > lateNotificationDays*24*time.Hour {
					days := int(gap.Hours() / 24)
					return true, fmt.Sprintf("claim submitted %d days after the accident", days)
				}
				return false, ""
			},
		},
		{
			ID:          "suspicious_timing",
			Name:        "Suspicious Submission Timing",
			Description: "Claim submitted between 23:00 and 05:00 UTC",
			Weight:      10,
			Predicate: func(c *domain.Claim, _ []domain.Signal) (bool, string) {
				if c.CreatedAt.IsZero() {
					return false, ""
				}
				h := c.CreatedAt.UTC().Hour()
				if h >= 23 || h < 5 {
					return true, fmt.Sprintf("claim submitted at %02d:00 UTC", h)
				}
				return false, ""
			},
		},
		{
			ID:          "early_policy_claim",
			Name:        "Early Policy Claim",
			Description: "Accident within 7 days of the policy start date",
			Weight:      30,
			Predicate: func(c *domain.Claim, _ []domain.Signal) (bool, string) {
				if c.PolicyStartDate == nil || c.AccidentDate.IsZero() {
					return false, ""
				}
				gap := c.AccidentDate.Sub(*c.PolicyStartDate)
				if gap >= 0 && gap <= earlyPolicyDays*24*time.Hour {
					days := int(gap.Hours() / 24)
					return true, fmt.Sprintf("accident %d days after policy inception", days)
				}
				return false, ""
			},
		},
		{
			ID:          "frequent_claimant",
			Name:        "Frequent Claimant",
			Description: "Claimant has more than 2 previous claims",
			Weight:      25,
			Predicate: func(c *domain.Claim, _ []domain.Signal) (bool, string) {
				if c.PreviousClaimCount > frequentClaimLimit {
					return true, fmt.Sprintf("claimant has %d previous claims", c.PreviousClaimCount)
				}
				return false, ""
			},
		},
		{
			ID:          "vague_location",
			Name:        "Vague Accident Location",
			Description: "Accident location is missing, too short, or non-specific",
			Weight:      15,
			Predicate: func(c *domain.Claim, _ []domain.Signal) (bool, string) {
				loc := strings.TrimSpace(strings.ToLower(c.AccidentLocation))
				if loc == "" {
					return true, "no accident location given"
				}
				if len(loc) < minLocationLen {
					return true, fmt.Sprintf("accident location %q is too short to verify", c.AccidentLocation)
				}
				for _, term := range vagueLocationTerms {
					if strings.Contains(loc, term) {
						return true, fmt.Sprintf("accident location contains vague phrase %q", term)
					}
				}
				return false, ""
			},
		},
		{
			ID:          "unusual_location",
			Name:        "Unusual Location",
			Description: "Accident more than 100 miles from the policyholder's address",
			Weight:      20,
			Predicate: func(c *domain.Claim, _ []domain.Signal) (bool, string) {
				if c.DistanceFromHomeMiles == nil {
					return false, ""
				}
				if *c.DistanceFromHomeMiles > unusualDistanceMiles {
					return true, fmt.Sprintf("accident %.0f miles from home address", *c.DistanceFromHomeMiles)
				}
				return false, ""
			},
		},
		{
			ID:          "description_mismatch",
			Name:        "Description Mismatch",
			Description: "Accident description does not match the declared accident type",
			Weight:      30,
			Predicate: func(c *domain.Claim, _ []domain.Signal) (bool, string) {
				desc := strings.ToLower(strings.TrimSpace(c.AccidentDescription))
				keywords, ok := descriptionKeywords[c.AccidentType]
				if desc == "" || !ok {
					return false, ""
				}
				for _, kw := range keywords {
					if strings.Contains(desc, kw) {
						return false, ""
					}
				}
				return true, fmt.Sprintf("description does not mention anything consistent with %q", c.AccidentType)
			},
		},
		{
			ID:          "invalid_document_timeline",
			Name:        "Invalid Document Timeline",
			Description: "A supporting document is dated before the accident",
			Weight:      25,
			Predicate: func(c *domain.Claim, _ []domain.Signal) (bool, string) {
				if c.AccidentDate.IsZero() {
					return false, ""
				}
				for _, doc := range c.Documents {
					if doc.DocumentDate != nil && doc.DocumentDate.Before(c.AccidentDate) {
						return true, fmt.Sprintf("document %q is dated before the accident", doc.Filename)
					}
				}
				return false, ""
			},
		},
		{
			ID:          "repeat_third_party",
			Name:        "Repeat Third Party",
			Description: "Third party appeared in a previous claim by the same claimant",
			Weight:      40,
			Predicate: func(c *domain.Claim, _ []domain.Signal) (bool, string) {
				if c.ThirdPartyName != "" && c.HasPriorThirdParty(c.ThirdPartyName) {
					return true, fmt.Sprintf("third party %q named in a previous claim", c.ThirdPartyName)
				}
				return false, ""
			},
		},
		{
			ID:          "repeat_witness",
			Name:        "Repeat Witness",
			Description: "Witness appeared in a previous claim by the same claimant",
			Weight:      35,
			Predicate: func(c *domain.Claim, _ []domain.Signal) (bool, string) {
				if c.WitnessName != "" && c.HasPriorWitness(c.WitnessName) {
					return true, fmt.Sprintf("witness %q named in a previous claim", c.WitnessName)
				}
				return false, ""
			},
		},
		{
			ID:          "ai_high_confidence",
			Name:        "High-Confidence AI Signal",
			Description: "An AI signal was detected with confidence above 0.8",
			Weight:      15,
			Predicate: func(_ *domain.Claim, signals []domain.Signal) (bool, string) {
				for _, s := range signals {
					if s.Confidence > highConfidence {
						return true, fmt.Sprintf("signal %q detected with confidence %.2f", s.Type, s.Confidence)
					}
				}
				return false, ""
			},
		},
		{
			ID:          "multiple_ai_observations",
			Name:        "Multiple AI Observations",
			Description: "Three or more AI signals were detected on the claim",
			Weight:      12,
			Predicate: func(_ *domain.Claim, signals []domain.Signal) (bool, string) {
				if len(signals) >= multiSignalCount {
					return true, fmt.Sprintf("%d signals detected", len(signals))
				}
				return false, ""
			},
		},
	}
}
