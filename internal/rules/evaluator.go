package rules

import (
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/openclaims/kestrel/internal/domain"
)

// Evaluator runs the fixed catalogue against a claim snapshot. Rules execute
// in catalogue order; a panicking predicate is isolated and counts as not
// triggered, so one faulty rule never takes down a scoring pass.
type Evaluator struct {
	catalogue []domain.RuleDef
	logger    *slog.Logger
}

// NewEvaluator creates an evaluator over the built-in catalogue.
func NewEvaluator(logger *slog.Logger) *Evaluator {
	if logger == nil {
		logger = slog.Default()
	}
	return &Evaluator{
		catalogue: Catalogue(),
		logger:    logger,
	}
}

// RulesCount returns the number of catalogue rules.
func (e *Evaluator) RulesCount() int {
	return len(e.catalogue)
}

// Evaluate applies every catalogue rule to the claim and returns the triggers
// in catalogue order. Name, description and weight are snapshotted onto each
// trigger so the record stays self-describing.
func (e *Evaluator) Evaluate(c *domain.Claim, signals []domain.Signal) []domain.RuleTrigger {
	now := time.Now().UTC()
	triggers := make([]domain.RuleTrigger, 0, len(e.catalogue))

	for _, rule := range e.catalogue {
		fired, reason := e.run(rule, c, signals)
		if !fired {
			continue
		}
		triggers = append(triggers, domain.RuleTrigger{
			ID:          uuid.NewString(),
			ClaimRef:    c.Reference,
			RuleID:      rule.ID,
			RuleName:    rule.Name,
			Description: rule.Description,
			Weight:      rule.Weight,
			Reason:      reason,
			TriggeredAt: now,
		})
	}

	return triggers
}

func (e *Evaluator) run(rule domain.RuleDef, c *domain.Claim, signals []domain.Signal) (fired bool, reason string) {
	defer func() {
		if r := recover(); r != nil {
			e.logger.Error("rule predicate panicked",
				"ruleId", rule.ID,
				"claimRef", c.Reference,
				"panic", r)
			fired = false
			reason = ""
		}
	}()
	return rule.Predicate(c, signals)
}
