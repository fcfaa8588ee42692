// Package audit builds the append-only audit entries recorded alongside every
// state change. Entries are constructed here and persisted by the repository
// in the same transaction as the change they describe.
package audit

import (
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/openclaims/kestrel/internal/domain"
)

// SystemActor is recorded on entries produced by the scoring pipeline rather
// than a human analyst.
const SystemActor = "system"

func newEntry(orgID, claimRef, actor, action string) domain.AuditLogEntry {
	return domain.AuditLogEntry{
		ID:        uuid.NewString(),
		ClaimRef:  claimRef,
		OrgID:     orgID,
		Actor:     actor,
		Action:    action,
		Timestamp: time.Now().UTC(),
	}
}

// ClaimCreated records the initial submission of a claim.
func ClaimCreated(orgID, claimRef, actor string) domain.AuditLogEntry {
	return newEntry(orgID, claimRef, actor, domain.ActionClaimCreated)
}

// FieldEdit records one divergence between an AI-extracted value and the
// value actually submitted. Written at creation time for provenance.
func FieldEdit(orgID, claimRef, actor, field, oldValue, newValue string) domain.AuditLogEntry {
	e := newEntry(orgID, claimRef, actor, domain.ActionFieldEdit)
	e.FieldChanged = field
	e.OldValue = oldValue
	e.NewValue = newValue
	return e
}

// ExtractionEdits builds FIELD_EDIT entries for every extracted field whose
// submitted value differs from what the extractor produced. Values are
// compared and recorded as strings.
func ExtractionEdits(orgID, claimRef, actor string, extracted map[string]any, submitted map[string]any) []domain.AuditLogEntry {
	if len(extracted) == 0 {
		return nil
	}
	var entries []domain.AuditLogEntry
	for field, extractedVal := range extracted {
		submittedVal, ok := submitted[field]
		if !ok {
			continue
		}
		oldStr := fmt.Sprintf("%v", extractedVal)
		newStr := fmt.Sprintf("%v", submittedVal)
		if oldStr == newStr {
			continue
		}
		entries = append(entries, FieldEdit(orgID, claimRef, actor, field, oldStr, newStr))
	}
	return entries
}

// ScoreGenerated records the outcome of a scoring pass.
func ScoreGenerated(orgID, claimRef string, res domain.ScoreResult, triggerCount int) domain.AuditLogEntry {
	e := newEntry(orgID, claimRef, SystemActor, domain.ActionScoreGenerated)
	e.FieldChanged = "fraud_score"
	e.NewValue = fmt.Sprintf("%d", res.Score)
	e.Notes = fmt.Sprintf("risk band %s, %d rule(s) triggered", res.Band, triggerCount)
	return e
}

// ReviewStarted records an analyst taking a claim into review.
func ReviewStarted(orgID, claimRef, actor string) domain.AuditLogEntry {
	e := newEntry(orgID, claimRef, actor, domain.ActionReviewStarted)
	e.FieldChanged = "status"
	e.OldValue = string(domain.StatusNeedsReview)
	e.NewValue = string(domain.StatusInReview)
	return e
}

// Decision records an approve or reject outcome. The reason must come from
// the fixed list for the outcome and notes are mandatory; a decision entry
// with either missing is a validation error, enforced here because a decision
// without a recorded rationale must never reach the audit trail.
func Decision(orgID, claimRef, actor string, outcome domain.DecisionOutcome, reason, notes string) (domain.AuditLogEntry, error) {
	if notes == "" {
		return domain.AuditLogEntry{}, domain.NewValidationError("notes", "decision notes are required")
	}
	if !domain.ValidDecisionReason(outcome, reason) {
		return domain.AuditLogEntry{}, domain.NewValidationError("reason", fmt.Sprintf("%q is not a valid %s reason", reason, outcome))
	}

	action := domain.ActionApprove
	newStatus := domain.StatusApproved
	if outcome == domain.OutcomeReject {
		action = domain.ActionReject
		newStatus = domain.StatusRejected
	}

	e := newEntry(orgID, claimRef, actor, action)
	e.FieldChanged = "status"
	e.OldValue = string(domain.StatusInReview)
	e.NewValue = string(newStatus)
	e.ReasonCategory = reason
	e.Notes = notes
	return e, nil
}
