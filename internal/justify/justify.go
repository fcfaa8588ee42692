// Package justify synthesises the structured risk justification attached to a
// scored claim. The output explains the assigned band to an analyst; it is
// derived from the scoring result and is never an input to scoring.
package justify

import (
	"fmt"

	"github.com/openclaims/kestrel/internal/domain"
)

const confidenceNote = "This assessment is generated using deterministic rules and pattern analysis. Final decisions should be made by qualified fraud analysts."

// Build produces the justification document for a scored claim.
// The shape is stable: risk_overview, key_factors, analyst_guidance and
// confidence_note, rendered as a JSON-serialisable map.
func Build(c *domain.Claim, res domain.ScoreResult, signals []domain.Signal, triggers []domain.RuleTrigger) map[string]any {
	var interpretation string
	switch res.Band {
	case domain.BandHigh:
		interpretation = "This claim has been classified as high risk based on multiple indicators that warrant careful review by a fraud analyst."
	case domain.BandMedium:
		interpretation = "This claim shows some indicators that may require additional verification before proceeding."
	default:
		interpretation = "This claim shows no significant risk indicators based on the automated analysis."
	}

	keyFactors := make([]map[string]any, 0, len(triggers)+len(signals))
	for _, trg := range triggers {
		explanation := trg.Description
		if explanation == "" {
			explanation = fmt.Sprintf("Rule triggered with weight +%d", trg.Weight)
		}
		keyFactors = append(keyFactors, map[string]any{
			"type":        "Rule",
			"name":        trg.RuleName,
			"explanation": explanation,
		})
	}
	for _, sig := range signals {
		explanation := sig.Description
		if explanation == "" {
			explanation = "AI-detected pattern in claim data"
		}
		keyFactors = append(keyFactors, map[string]any{
			"type":        "AI Observation",
			"name":        sig.Type,
			"explanation": explanation,
		})
	}
	if len(keyFactors) == 0 {
		keyFactors = append(keyFactors, map[string]any{
			"type":        "Claim Data",
			"name":        "Standard Processing",
			"explanation": "No significant risk indicators were detected in the claim data.",
		})
	}

	var reviewFocus, missingInfo []string
	if res.Score > 60 {
		reviewFocus = append(reviewFocus,
			"Verify all supporting documentation",
			"Cross-reference claimant history")
	} else if res.Score > 30 {
		reviewFocus = append(reviewFocus, "Review incident details for consistency")
	}
	if c.AccidentLocation == "" {
		missingInfo = append(missingInfo, "Accident location is missing or incomplete")
	}
	if len(c.Documents) == 0 {
		missingInfo = append(missingInfo, "No supporting documents have been uploaded")
	}
	if len(reviewFocus) == 0 {
		reviewFocus = []string{"Standard review procedures apply"}
	}
	if len(missingInfo) == 0 {
		missingInfo = []string{"All required information is present"}
	}

	return map[string]any{
		"risk_overview": map[string]any{
			"risk_band":             string(res.Band),
			"fraud_score":           res.Score,
			"system_interpretation": interpretation,
		},
		"key_factors": keyFactors,
		"analyst_guidance": map[string]any{
			"review_focus":                     reviewFocus,
			"missing_or_uncertain_information": missingInfo,
		},
		"confidence_note": confidenceNote,
	}
}
