package rules

import (
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/openclaims/kestrel/internal/domain"
)

func baseClaim() *domain.Claim {
	policyStart := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	return &domain.Claim{
		Reference:           "CLM-2025-ABCD1234",
		ClaimantName:        "Jane Doe",
		PolicyID:            "POL-1001",
		PolicyStartDate:     &policyStart,
		AccidentDate:        time.Date(2025, 6, 10, 14, 0, 0, 0, time.UTC),
		AccidentType:        "Rear-End",
		AccidentLocation:    "A40 westbound near Oxford services",
		AccidentDescription: "I was stationary at lights and the car behind hit my rear bumper",
		CreatedAt:           time.Date(2025, 6, 12, 11, 0, 0, 0, time.UTC),
		Status:              domain.StatusNeedsReview,
	}
}

func triggeredIDs(triggers []domain.RuleTrigger) []string {
	ids := make([]string, 0, len(triggers))
	for _, t := range triggers {
		ids = append(ids, t.RuleID)
	}
	return ids
}

func hasRule(triggers []domain.RuleTrigger, ruleID string) bool {
	for _, t := range triggers {
		if t.RuleID == ruleID {
			return true
		}
	}
	return false
}

func TestCleanClaimTriggersNothing(t *testing.T) {
	ev := NewEvaluator(slog.Default())
	triggers := ev.Evaluate(baseClaim(), nil)
	if len(triggers) != 0 {
		t.Fatalf("expected no triggers, got %v", triggeredIDs(triggers))
	}

	res := Score(triggers)
	if res.Score != 0 || res.Band != domain.BandLow {
		t.Errorf("expected score 0 / low, got %d / %s", res.Score, res.Band)
	}
}

func TestIndividualRules(t *testing.T) {
	dist := 250.0
	docDate := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
	earlyPolicy := time.Date(2025, 6, 7, 0, 0, 0, 0, time.UTC)

	tests := []struct {
		name   string
		mutate func(c *domain.Claim)
		ruleID string
		weight int
	}{
		{
			name: "late notification",
			mutate: func(c *domain.Claim) {
				c.CreatedAt = c.AccidentDate.Add(20 * 24 * time.Hour)
			},
			ruleID: "late_notification",
			weight: 20,
		},
		{
			name: "suspicious timing just before midnight",
			mutate: func(c *domain.Claim) {
				c.CreatedAt = time.Date(2025, 6, 12, 23, 30, 0, 0, time.UTC)
			},
			ruleID: "suspicious_timing",
			weight: 10,
		},
		{
			name: "suspicious timing early morning",
			mutate: func(c *domain.Claim) {
				c.CreatedAt = time.Date(2025, 6, 12, 4, 59, 0, 0, time.UTC)
			},
			ruleID: "suspicious_timing",
			weight: 10,
		},
		{
			name: "early policy claim",
			mutate: func(c *domain.Claim) {
				c.PolicyStartDate = &earlyPolicy
			},
			ruleID: "early_policy_claim",
			weight: 30,
		},
		{
			name: "frequent claimant",
			mutate: func(c *domain.Claim) {
				c.PreviousClaimCount = 3
			},
			ruleID: "frequent_claimant",
			weight: 25,
		},
		{
			name: "vague location empty",
			mutate: func(c *domain.Claim) {
				c.AccidentLocation = ""
			},
			ruleID: "vague_location",
			weight: 15,
		},
		{
			name: "vague location non-specific",
			mutate: func(c *domain.Claim) {
				c.AccidentLocation = "somewhere on the M25"
			},
			ruleID: "vague_location",
			weight: 15,
		},
		{
			name: "unusual location",
			mutate: func(c *domain.Claim) {
				c.DistanceFromHomeMiles = &dist
			},
			ruleID: "unusual_location",
			weight: 20,
		},
		{
			name: "description mismatch",
			mutate: func(c *domain.Claim) {
				c.AccidentType = "Theft"
				c.AccidentDescription = "The bumper was dented at the lights"
			},
			ruleID: "description_mismatch",
			weight: 30,
		},
		{
			name: "document dated before accident",
			mutate: func(c *domain.Claim) {
				c.Documents = []domain.DocumentRef{
					{Filename: "repair-quote.pdf", DocumentDate: &docDate},
				}
			},
			ruleID: "invalid_document_timeline",
			weight: 25,
		},
		{
			name: "repeat third party",
			mutate: func(c *domain.Claim) {
				c.ThirdPartyName = "John Smith"
				c.PriorThirdParties = []string{"  john smith "}
			},
			ruleID: "repeat_third_party",
			weight: 40,
		},
		{
			name: "repeat witness",
			mutate: func(c *domain.Claim) {
				c.WitnessName = "Alice Brown"
				c.PriorWitnesses = []string{"ALICE BROWN"}
			},
			ruleID: "repeat_witness",
			weight: 35,
		},
	}

	ev := NewEvaluator(slog.Default())
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := baseClaim()
			tt.mutate(c)

			triggers := ev.Evaluate(c, nil)
			if !hasRule(triggers, tt.ruleID) {
				t.Fatalf("expected %s to trigger, got %v", tt.ruleID, triggeredIDs(triggers))
			}
			for _, trg := range triggers {
				if trg.RuleID != tt.ruleID {
					continue
				}
				if trg.Weight != tt.weight {
					t.Errorf("weight = %d, want %d", trg.Weight, tt.weight)
				}
				if trg.Reason == "" {
					t.Error("trigger has no reason")
				}
				if trg.RuleName == "" || trg.Description == "" {
					t.Error("trigger is missing its catalogue snapshot")
				}
				if trg.ClaimRef != c.Reference {
					t.Errorf("claimRef = %q, want %q", trg.ClaimRef, c.Reference)
				}
			}
		})
	}
}

func TestIndividualRulesNotTriggered(t *testing.T) {
	dist := 50.0

	tests := []struct {
		name   string
		mutate func(c *domain.Claim)
		ruleID string
	}{
		{
			name: "notification exactly 14 days",
			mutate: func(c *domain.Claim) {
				c.CreatedAt = c.AccidentDate.Add(14 * 24 * time.Hour)
			},
			ruleID: "late_notification",
		},
		{
			name: "submission at 05:00 UTC",
			mutate: func(c *domain.Claim) {
				c.CreatedAt = time.Date(2025, 6, 12, 5, 0, 0, 0, time.UTC)
			},
			ruleID: "suspicious_timing",
		},
		{
			name:   "no policy start date",
			mutate: func(c *domain.Claim) { c.PolicyStartDate = nil },
			ruleID: "early_policy_claim",
		},
		{
			name:   "exactly two previous claims",
			mutate: func(c *domain.Claim) { c.PreviousClaimCount = 2 },
			ruleID: "frequent_claimant",
		},
		{
			name:   "distance from home unknown",
			mutate: func(c *domain.Claim) { c.DistanceFromHomeMiles = nil },
			ruleID: "unusual_location",
		},
		{
			name:   "distance under threshold",
			mutate: func(c *domain.Claim) { c.DistanceFromHomeMiles = &dist },
			ruleID: "unusual_location",
		},
		{
			name: "unknown accident type skips mismatch check",
			mutate: func(c *domain.Claim) {
				c.AccidentType = "Meteor Strike"
				c.AccidentDescription = "A rock fell from the sky"
			},
			ruleID: "description_mismatch",
		},
		{
			name: "empty description skips mismatch check",
			mutate: func(c *domain.Claim) {
				c.AccidentDescription = "   "
			},
			ruleID: "description_mismatch",
		},
		{
			name: "third party with no prior history",
			mutate: func(c *domain.Claim) {
				c.ThirdPartyName = "John Smith"
				c.PriorThirdParties = []string{"Someone Else"}
			},
			ruleID: "repeat_third_party",
		},
	}

	ev := NewEvaluator(slog.Default())
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := baseClaim()
			tt.mutate(c)
			if hasRule(ev.Evaluate(c, nil), tt.ruleID) {
				t.Errorf("%s should not have triggered", tt.ruleID)
			}
		})
	}
}

func TestSignalRules(t *testing.T) {
	ev := NewEvaluator(slog.Default())
	c := baseClaim()

	t.Run("high confidence signal", func(t *testing.T) {
		signals := []domain.Signal{
			{Type: "inconsistent_statement", Confidence: 0.92},
		}
		triggers := ev.Evaluate(c, signals)
		if !hasRule(triggers, "ai_high_confidence") {
			t.Error("ai_high_confidence should trigger for confidence 0.92")
		}
		if hasRule(triggers, "multiple_ai_observations") {
			t.Error("multiple_ai_observations should need three signals")
		}
	})

	t.Run("confidence at threshold does not trigger", func(t *testing.T) {
		signals := []domain.Signal{{Type: "x", Confidence: 0.8}}
		if hasRule(ev.Evaluate(c, signals), "ai_high_confidence") {
			t.Error("confidence exactly 0.8 should not trigger")
		}
	})

	t.Run("three low confidence signals", func(t *testing.T) {
		signals := []domain.Signal{
			{Type: "a", Confidence: 0.3},
			{Type: "b", Confidence: 0.4},
			{Type: "c", Confidence: 0.5},
		}
		triggers := ev.Evaluate(c, signals)
		if !hasRule(triggers, "multiple_ai_observations") {
			t.Error("multiple_ai_observations should trigger for three signals")
		}
		if hasRule(triggers, "ai_high_confidence") {
			t.Error("ai_high_confidence should not trigger without a strong signal")
		}
	})
}

func TestEvaluateIsolatesPanickingRule(t *testing.T) {
	ev := NewEvaluator(slog.Default())
	ev.catalogue = append([]domain.RuleDef{
		{
			ID:     "broken",
			Name:   "Broken Rule",
			Weight: 99,
			Predicate: func(c *domain.Claim, _ []domain.Signal) (bool, string) {
				panic("boom")
			},
		},
	}, ev.catalogue...)

	c := baseClaim()
	c.PreviousClaimCount = 3

	triggers := ev.Evaluate(c, nil)
	if hasRule(triggers, "broken") {
		t.Error("panicking rule must count as not triggered")
	}
	if !hasRule(triggers, "frequent_claimant") {
		t.Error("remaining rules must still evaluate after a panic")
	}
}

func TestScoreAggregation(t *testing.T) {
	mk := func(weights ...int) []domain.RuleTrigger {
		out := make([]domain.RuleTrigger, len(weights))
		for i, w := range weights {
			out[i] = domain.RuleTrigger{Weight: w}
		}
		return out
	}

	tests := []struct {
		name      string
		triggers  []domain.RuleTrigger
		wantScore int
		wantBand  domain.RiskBand
	}{
		{"no triggers", nil, 0, domain.BandLow},
		{"frequent claimant plus vague location", mk(25, 15), 40, domain.BandMedium},
		{"sum clamps at one hundred", mk(40, 35, 30, 25, 10), 100, domain.BandHigh},
		{"low band upper edge", mk(29), 29, domain.BandLow},
		{"medium band lower edge", mk(30), 30, domain.BandMedium},
		{"medium band upper edge", mk(60), 60, domain.BandMedium},
		{"high band lower edge", mk(61), 61, domain.BandHigh},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := Score(tt.triggers)
			if res.Score != tt.wantScore {
				t.Errorf("score = %d, want %d", res.Score, tt.wantScore)
			}
			if res.Band != tt.wantBand {
				t.Errorf("band = %s, want %s", res.Band, tt.wantBand)
			}
		})
	}
}

func TestCatalogueIsStable(t *testing.T) {
	cat := Catalogue()
	if len(cat) != 12 {
		t.Fatalf("catalogue has %d rules, want 12", len(cat))
	}
	seen := map[string]bool{}
	for _, r := range cat {
		if r.ID == "" || r.Name == "" || r.Predicate == nil {
			t.Errorf("rule %+v is incomplete", r.ID)
		}
		if r.Weight <= 0 || r.Weight > 100 {
			t.Errorf("rule %s has weight %d outside (0,100]", r.ID, r.Weight)
		}
		if seen[r.ID] {
			t.Errorf("duplicate rule id %s", r.ID)
		}
		seen[r.ID] = true
		if strings.ToLower(r.ID) != r.ID {
			t.Errorf("rule id %s is not lower snake case", r.ID)
		}
	}
}
