package domain

import (
	"time"
)

// RuleDef is one entry in the fixed scoring catalogue: a named, weighted pure
// predicate over a claim snapshot and its signal set. Predicates perform no
// I/O and must tolerate absent fields (absent input means "not triggered",
// never a panic).
type RuleDef struct {
	ID          string
	Name        string
	Description string
	Weight      int
	Predicate   func(c *Claim, signals []Signal) (bool, string)
}

// RuleTrigger records one rule firing against a specific claim. Name,
// description and weight are copied from the catalogue at evaluation time so
// historical triggers stay interpretable if definitions later change.
type RuleTrigger struct {
	ID          string    `json:"id"`
	ClaimRef    string    `json:"claimRef"`
	RuleID      string    `json:"ruleId"`
	RuleName    string    `json:"ruleName"`
	Description string    `json:"description"`
	Weight      int       `json:"weight"`
	Reason      string    `json:"reason"`
	TriggeredAt time.Time `json:"triggeredAt"`
}

// ScoreResult is the output of the scoring aggregator: the clamped score and
// the band deterministically derived from it.
type ScoreResult struct {
	Score int      `json:"score"`
	Band  RiskBand `json:"band"`
}
