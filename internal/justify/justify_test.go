package justify

import (
	"testing"

	"github.com/openclaims/kestrel/internal/domain"
)

func TestBuildCleanClaim(t *testing.T) {
	c := &domain.Claim{
		Reference:        "CLM-2025-ABCD1234",
		AccidentLocation: "A40 westbound near Oxford services",
		Documents:        []domain.DocumentRef{{Filename: "photos.zip"}},
	}
	j := Build(c, domain.ScoreResult{Score: 0, Band: domain.BandLow}, nil, nil)

	overview, ok := j["risk_overview"].(map[string]any)
	if !ok {
		t.Fatal("risk_overview missing")
	}
	if overview["risk_band"] != "low" || overview["fraud_score"] != 0 {
		t.Errorf("overview = %+v", overview)
	}

	factors := j["key_factors"].([]map[string]any)
	if len(factors) != 1 || factors[0]["name"] != "Standard Processing" {
		t.Errorf("expected single standard-processing factor, got %+v", factors)
	}

	guidance := j["analyst_guidance"].(map[string]any)
	focus := guidance["review_focus"].([]string)
	if len(focus) != 1 || focus[0] != "Standard review procedures apply" {
		t.Errorf("review_focus = %v", focus)
	}
	missing := guidance["missing_or_uncertain_information"].([]string)
	if len(missing) != 1 || missing[0] != "All required information is present" {
		t.Errorf("missing info = %v", missing)
	}

	if j["confidence_note"] == "" {
		t.Error("confidence_note missing")
	}
}

func TestBuildHighRiskClaim(t *testing.T) {
	c := &domain.Claim{Reference: "CLM-2025-ABCD1234"}
	triggers := []domain.RuleTrigger{
		{RuleName: "Repeat Third Party", Description: "Third party appeared in a previous claim by the same claimant", Weight: 40},
		{RuleName: "Early Policy Claim", Description: "Accident within 7 days of the policy start date", Weight: 30},
	}
	signals := []domain.Signal{
		{Type: "inconsistent_statement", Description: "Statement conflicts with photos"},
	}
	j := Build(c, domain.ScoreResult{Score: 85, Band: domain.BandHigh}, signals, triggers)

	factors := j["key_factors"].([]map[string]any)
	if len(factors) != 3 {
		t.Fatalf("expected 3 key factors, got %d", len(factors))
	}
	if factors[0]["type"] != "Rule" || factors[2]["type"] != "AI Observation" {
		t.Errorf("factor ordering wrong: %+v", factors)
	}

	guidance := j["analyst_guidance"].(map[string]any)
	focus := guidance["review_focus"].([]string)
	if len(focus) != 2 {
		t.Errorf("high-risk claims get full review focus, got %v", focus)
	}
	missing := guidance["missing_or_uncertain_information"].([]string)
	if len(missing) != 2 {
		t.Errorf("expected missing location and documents flagged, got %v", missing)
	}
}

func TestBuildMediumRiskGuidance(t *testing.T) {
	c := &domain.Claim{
		AccidentLocation: "Junction 4, M42 northbound",
		Documents:        []domain.DocumentRef{{Filename: "report.pdf"}},
	}
	j := Build(c, domain.ScoreResult{Score: 40, Band: domain.BandMedium}, nil, []domain.RuleTrigger{
		{RuleName: "Frequent Claimant", Weight: 25},
		{RuleName: "Vague Accident Location", Weight: 15},
	})

	guidance := j["analyst_guidance"].(map[string]any)
	focus := guidance["review_focus"].([]string)
	if len(focus) != 1 || focus[0] != "Review incident details for consistency" {
		t.Errorf("review_focus = %v", focus)
	}
}
