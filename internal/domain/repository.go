package domain

import (
	"context"
	"time"
)

// ListFilter narrows a claim list query. Zero value means no filtering.
type ListFilter struct {
	Status ClaimStatus
	Band   RiskBand
	Limit  int
	Offset int
}

// StatusUpdate carries the field changes a lifecycle transition writes
// alongside the new status.
type StatusUpdate struct {
	NewStatus      ClaimStatus
	InReviewBy     string
	InReviewAt     *time.Time
	DecisionReason string
	DecisionNotes  string
	DecidedBy      string
	DecidedAt      *time.Time
}

// Repository persists claims, signals, rule triggers and the audit trail.
// Every method is scoped to one org; no query crosses org boundaries.
//
// ApplyScore and TransitionStatus are atomic: the conditional update, its
// dependent inserts and the audit entry commit in one transaction or not at
// all.
type Repository interface {
	// CreateClaim inserts the claim and its initial audit entries
	// (CLAIM_CREATED plus any extraction-provenance FIELD_EDITs).
	CreateClaim(ctx context.Context, orgID string, c *Claim, entries []AuditLogEntry) error

	// GetClaim fetches one claim by reference. Returns ErrNotFound if the
	// reference does not exist in the org.
	GetClaim(ctx context.Context, orgID, ref string) (*Claim, error)

	// ListClaims returns summaries ordered by fraud score descending with
	// unscored claims last, then by creation time descending.
	ListClaims(ctx context.Context, orgID string, f ListFilter) ([]ClaimSummary, error)

	// ApplyScore persists a scoring pass: conditional on the claim being
	// unscored and not terminal, it writes score/band/justification,
	// replaces signals and triggers, and appends the audit entry. Returns
	// ErrAlreadyScored when a score is already present.
	ApplyScore(ctx context.Context, orgID, ref string, res ScoreResult, justification map[string]any, signals []Signal, triggers []RuleTrigger, entry AuditLogEntry) error

	// TransitionStatus moves a claim from expected to update.NewStatus and
	// appends the audit entry, atomically. Returns a ConflictError when the
	// claim's current status is not expected.
	TransitionStatus(ctx context.Context, orgID, ref string, expected ClaimStatus, update StatusUpdate, entry AuditLogEntry) error

	ListSignals(ctx context.Context, orgID, ref string) ([]Signal, error)
	ListRuleTriggers(ctx context.Context, orgID, ref string) ([]RuleTrigger, error)

	// ListAuditEntries returns a claim's trail in append (seq) order.
	ListAuditEntries(ctx context.Context, orgID, ref string) ([]AuditLogEntry, error)

	GetStats(ctx context.Context, orgID string) (*Stats, error)

	Ping(ctx context.Context) error
	Close() error
}

// RepositoryConfig holds configuration for repository initialization.
type RepositoryConfig struct {
	// Driver is the database driver: "sqlite" or "postgres"
	Driver string

	// SQLite specific
	SQLitePath string

	// PostgreSQL specific
	PostgresHost     string
	PostgresPort     int
	PostgresUser     string
	PostgresPassword string
	PostgresDB       string
	PostgresSSLMode  string

	// Connection pool settings
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
}
