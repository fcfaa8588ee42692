package domain

import (
	"time"
)

// Audit action kinds. Every state-changing operation writes exactly one entry
// with one of these kinds, in the same transaction as the change it records.
const (
	ActionClaimCreated   = "CLAIM_CREATED"
	ActionFieldEdit      = "FIELD_EDIT"
	ActionScoreGenerated = "SCORE_GENERATED"
	ActionReviewStarted  = "REVIEW_STARTED"
	ActionApprove        = "APPROVE"
	ActionReject         = "REJECT"
)

// AuditLogEntry is one append-only record in a claim's audit trail. Seq is
// assigned per claim in insertion order and is never reused; entries are never
// updated or deleted.
type AuditLogEntry struct {
	ID             string    `json:"id"`
	ClaimRef       string    `json:"claimRef"`
	OrgID          string    `json:"orgId"`
	Seq            int       `json:"seq"`
	Actor          string    `json:"actor"`
	Action         string    `json:"action"`
	FieldChanged   string    `json:"fieldChanged,omitempty"`
	OldValue       string    `json:"oldValue,omitempty"`
	NewValue       string    `json:"newValue,omitempty"`
	ReasonCategory string    `json:"reasonCategory,omitempty"`
	Notes          string    `json:"notes,omitempty"`
	Timestamp      time.Time `json:"timestamp"`
}
