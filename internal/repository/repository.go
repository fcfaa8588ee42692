// Package repository provides data persistence implementations.
package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/openclaims/kestrel/internal/domain"
)

var ErrInvalidInput = errors.New("invalid input")

// SQLRepository implements domain.Repository using database/sql.
// Works with both SQLite and PostgreSQL drivers.
type SQLRepository struct {
	db     *sql.DB
	driver string
}

// New creates a new repository based on configuration.
func New(cfg domain.RepositoryConfig) (domain.Repository, error) {
	var db *sql.DB
	var err error

	switch cfg.Driver {
	case "sqlite":
		db, err = openSQLite(cfg)
	case "postgres":
		db, err = openPostgres(cfg)
	default:
		return nil, fmt.Errorf("unsupported driver: %s", cfg.Driver)
	}

	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// Configure connection pool
	if cfg.MaxOpenConns > 0 {
		db.SetMaxOpenConns(cfg.MaxOpenConns)
	}
	if cfg.MaxIdleConns > 0 {
		db.SetMaxIdleConns(cfg.MaxIdleConns)
	}
	if cfg.ConnMaxLifetime > 0 {
		db.SetConnMaxLifetime(cfg.ConnMaxLifetime)
	}

	repo := &SQLRepository{
		db:     db,
		driver: cfg.Driver,
	}

	// Run migrations
	if err := repo.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	return repo, nil
}

func (r *SQLRepository) migrate() error {
	for _, schema := range AllSchemas() {
		if _, err := r.db.Exec(schema); err != nil {
			return err
		}
	}
	return nil
}

const claimColumns = `id, org_id, reference, claimant_name, policy_id, policy_start_date,
	policyholder_address, previous_claim_count, previous_claims_total_gbp,
	prior_third_parties, prior_witnesses,
	vehicle_make, vehicle_model, vehicle_year, vehicle_registration, vehicle_value_gbp,
	accident_date, accident_type, accident_location, accident_description,
	distance_from_home_miles,
	witness_name, witness_contact, third_party_name, third_party_contact,
	claim_amount_gbp, documents, extracted_fields,
	fraud_score, risk_band, scored_at, justification,
	status, created_by, created_at, updated_at,
	in_review_by, in_review_at,
	decision_reason, decision_notes, decided_by, decided_at`

// CreateClaim inserts a claim and its initial audit entries in one
// transaction.
func (r *SQLRepository) CreateClaim(ctx context.Context, orgID string, c *domain.Claim, entries []domain.AuditLogEntry) error {
	if orgID == "" {
		return fmt.Errorf("%w: orgID is required", ErrInvalidInput)
	}

	priorThirdParties, _ := json.Marshal(c.PriorThirdParties)
	priorWitnesses, _ := json.Marshal(c.PriorWitnesses)
	documents, _ := json.Marshal(c.Documents)
	extractedFields, _ := json.Marshal(c.ExtractedFields)

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	query := `
		INSERT INTO claims (` + claimColumns + `)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?,
		        ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	_, err = tx.ExecContext(ctx, r.rebind(query),
		c.ID, orgID, c.Reference, c.ClaimantName, c.PolicyID, c.PolicyStartDate,
		c.PolicyholderAddress, c.PreviousClaimCount, c.PreviousClaimsTotalGBP,
		string(priorThirdParties), string(priorWitnesses),
		c.VehicleMake, c.VehicleModel, c.VehicleYear, c.VehicleRegistration, c.VehicleValueGBP,
		c.AccidentDate, c.AccidentType, c.AccidentLocation, c.AccidentDescription,
		c.DistanceFromHomeMiles,
		c.WitnessName, c.WitnessContact, c.ThirdPartyName, c.ThirdPartyContact,
		c.ClaimAmountGBP, string(documents), string(extractedFields),
		nil, nil, nil, nil,
		c.Status, c.CreatedBy, c.CreatedAt, c.UpdatedAt,
		nil, nil,
		nil, nil, nil, nil,
	)
	if err != nil {
		if isDuplicate(err) {
			return fmt.Errorf("%w: reference %s already exists", ErrInvalidInput, c.Reference)
		}
		return err
	}

	if err := r.appendEntries(ctx, tx, orgID, c.Reference, entries); err != nil {
		return err
	}

	return tx.Commit()
}

// GetClaim retrieves a claim by reference with org isolation.
func (r *SQLRepository) GetClaim(ctx context.Context, orgID, ref string) (*domain.Claim, error) {
	if orgID == "" {
		return nil, fmt.Errorf("%w: orgID is required", ErrInvalidInput)
	}

	query := `SELECT ` + claimColumns + ` FROM claims WHERE org_id = ? AND reference = ?`

	row := r.db.QueryRowContext(ctx, r.rebind(query), orgID, ref)
	c, err := scanClaim(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrNotFound
	}
	return c, err
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanClaim(row rowScanner) (*domain.Claim, error) {
	var c domain.Claim
	var policyStart, scoredAt, inReviewAt, decidedAt sql.NullTime
	var address, vehicleMake, vehicleModel, vehicleReg sql.NullString
	var accLocation, accDescription sql.NullString
	var witnessName, witnessContact, thirdPartyName, thirdPartyContact sql.NullString
	var riskBand, inReviewBy, decisionReason, decisionNotes, decidedBy sql.NullString
	var priorThirdParties, priorWitnesses, documents, extractedFields, justification sql.NullString
	var vehicleYear, fraudScore sql.NullInt64
	var vehicleValue, distance sql.NullFloat64

	err := row.Scan(
		&c.ID, &c.OrgID, &c.Reference, &c.ClaimantName, &c.PolicyID, &policyStart,
		&address, &c.PreviousClaimCount, &c.PreviousClaimsTotalGBP,
		&priorThirdParties, &priorWitnesses,
		&vehicleMake, &vehicleModel, &vehicleYear, &vehicleReg, &vehicleValue,
		&c.AccidentDate, &c.AccidentType, &accLocation, &accDescription,
		&distance,
		&witnessName, &witnessContact, &thirdPartyName, &thirdPartyContact,
		&c.ClaimAmountGBP, &documents, &extractedFields,
		&fraudScore, &riskBand, &scoredAt, &justification,
		&c.Status, &c.CreatedBy, &c.CreatedAt, &c.UpdatedAt,
		&inReviewBy, &inReviewAt,
		&decisionReason, &decisionNotes, &decidedBy, &decidedAt,
	)
	if err != nil {
		return nil, err
	}

	if policyStart.Valid {
		t := policyStart.Time
		c.PolicyStartDate = &t
	}
	c.PolicyholderAddress = address.String
	c.VehicleMake = vehicleMake.String
	c.VehicleModel = vehicleModel.String
	c.VehicleYear = int(vehicleYear.Int64)
	c.VehicleRegistration = vehicleReg.String
	c.VehicleValueGBP = vehicleValue.Float64
	c.AccidentLocation = accLocation.String
	c.AccidentDescription = accDescription.String
	if distance.Valid {
		d := distance.Float64
		c.DistanceFromHomeMiles = &d
	}
	c.WitnessName = witnessName.String
	c.WitnessContact = witnessContact.String
	c.ThirdPartyName = thirdPartyName.String
	c.ThirdPartyContact = thirdPartyContact.String
	if fraudScore.Valid {
		s := int(fraudScore.Int64)
		c.FraudScore = &s
	}
	if riskBand.Valid && riskBand.String != "" {
		b := domain.RiskBand(riskBand.String)
		c.RiskBand = &b
	}
	if scoredAt.Valid {
		t := scoredAt.Time
		c.ScoredAt = &t
	}
	c.InReviewBy = inReviewBy.String
	if inReviewAt.Valid {
		t := inReviewAt.Time
		c.InReviewAt = &t
	}
	c.DecisionReason = decisionReason.String
	c.DecisionNotes = decisionNotes.String
	c.DecidedBy = decidedBy.String
	if decidedAt.Valid {
		t := decidedAt.Time
		c.DecidedAt = &t
	}

	if priorThirdParties.Valid && priorThirdParties.String != "" {
		json.Unmarshal([]byte(priorThirdParties.String), &c.PriorThirdParties)
	}
	if priorWitnesses.Valid && priorWitnesses.String != "" {
		json.Unmarshal([]byte(priorWitnesses.String), &c.PriorWitnesses)
	}
	if documents.Valid && documents.String != "" {
		json.Unmarshal([]byte(documents.String), &c.Documents)
	}
	if extractedFields.Valid && extractedFields.String != "" {
		json.Unmarshal([]byte(extractedFields.String), &c.ExtractedFields)
	}
	if justification.Valid && justification.String != "" {
		json.Unmarshal([]byte(justification.String), &c.Justification)
	}

	return &c, nil
}

// ListClaims returns claim summaries ordered by fraud score descending with
// unscored claims last, then by creation time descending.
func (r *SQLRepository) ListClaims(ctx context.Context, orgID string, f domain.ListFilter) ([]domain.ClaimSummary, error) {
	if orgID == "" {
		return nil, fmt.Errorf("%w: orgID is required", ErrInvalidInput)
	}

	query := `
		SELECT id, reference, claimant_name, claim_amount_gbp, accident_type,
		       status, fraud_score, risk_band, created_at
		FROM claims
		WHERE org_id = ?
	`
	args := []any{orgID}

	if f.Status != "" {
		query += " AND status = ?"
		args = append(args, string(f.Status))
	}
	if f.Band != "" {
		query += " AND risk_band = ?"
		args = append(args, string(f.Band))
	}

	query += `
		ORDER BY CASE WHEN fraud_score IS NULL THEN 1 ELSE 0 END,
		         fraud_score DESC, created_at DESC
	`

	if f.Limit > 0 {
		query += " LIMIT ?"
		args = append(args, f.Limit)
		if f.Offset > 0 {
			query += " OFFSET ?"
			args = append(args, f.Offset)
		}
	}

	rows, err := r.db.QueryContext(ctx, r.rebind(query), args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var summaries []domain.ClaimSummary
	for rows.Next() {
		var s domain.ClaimSummary
		var fraudScore sql.NullInt64
		var riskBand sql.NullString

		if err := rows.Scan(
			&s.ID, &s.Reference, &s.ClaimantName, &s.ClaimAmountGBP, &s.AccidentType,
			&s.Status, &fraudScore, &riskBand, &s.CreatedAt,
		); err != nil {
			return nil, err
		}
		if fraudScore.Valid {
			sc := int(fraudScore.Int64)
			s.FraudScore = &sc
		}
		if riskBand.Valid && riskBand.String != "" {
			b := domain.RiskBand(riskBand.String)
			s.RiskBand = &b
		}
		summaries = append(summaries, s)
	}

	return summaries, rows.Err()
}

// ApplyScore persists a scoring pass atomically. The conditional update
// guards at-most-once scoring: a second pass over the same claim finds
// fraud_score already set and commits nothing.
func (r *SQLRepository) ApplyScore(ctx context.Context, orgID, ref string, res domain.ScoreResult, justification map[string]any, signals []domain.Signal, triggers []domain.RuleTrigger, entry domain.AuditLogEntry) error {
	if orgID == "" {
		return fmt.Errorf("%w: orgID is required", ErrInvalidInput)
	}

	justificationJSON, _ := json.Marshal(justification)
	now := time.Now().UTC()

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	query := `
		UPDATE claims
		SET fraud_score = ?, risk_band = ?, scored_at = ?, justification = ?, updated_at = ?
		WHERE org_id = ? AND reference = ?
		  AND fraud_score IS NULL
		  AND status NOT IN (?, ?)
	`

	result, err := tx.ExecContext(ctx, r.rebind(query),
		res.Score, string(res.Band), now, string(justificationJSON), now,
		orgID, ref,
		string(domain.StatusApproved), string(domain.StatusRejected),
	)
	if err != nil {
		return err
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return r.classifyScoreConflict(ctx, tx, orgID, ref)
	}

	for i, s := range signals {
		q := `
			INSERT INTO signals (id, org_id, claim_ref, seq, signal_type, description, evidence, confidence, detected_at)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		`
		if _, err := tx.ExecContext(ctx, r.rebind(q),
			s.ID, orgID, ref, i+1, s.Type, s.Description, s.Evidence, s.Confidence, s.DetectedAt,
		); err != nil {
			return err
		}
	}

	for i, t := range triggers {
		q := `
			INSERT INTO rule_triggers (id, org_id, claim_ref, seq, rule_id, rule_name, description, weight, reason, triggered_at)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		`
		if _, err := tx.ExecContext(ctx, r.rebind(q),
			t.ID, orgID, ref, i+1, t.RuleID, t.RuleName, t.Description, t.Weight, t.Reason, t.TriggeredAt,
		); err != nil {
			return err
		}
	}

	if err := r.appendEntries(ctx, tx, orgID, ref, []domain.AuditLogEntry{entry}); err != nil {
		return err
	}

	return tx.Commit()
}

// classifyScoreConflict distinguishes why the conditional score update hit
// zero rows: missing claim, already scored, or already decided.
func (r *SQLRepository) classifyScoreConflict(ctx context.Context, tx *sql.Tx, orgID, ref string) error {
	var status string
	var fraudScore sql.NullInt64

	q := `SELECT status, fraud_score FROM claims WHERE org_id = ? AND reference = ?`
	err := tx.QueryRowContext(ctx, r.rebind(q), orgID, ref).Scan(&status, &fraudScore)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.ErrNotFound
	}
	if err != nil {
		return err
	}
	if fraudScore.Valid {
		return domain.ErrAlreadyScored
	}
	return &domain.ConflictError{Current: domain.ClaimStatus(status), Attempted: "score"}
}

// TransitionStatus moves a claim between lifecycle states atomically. The
// conditional update on the expected prior status is the optimistic
// concurrency check; the loser of a race gets a ConflictError.
func (r *SQLRepository) TransitionStatus(ctx context.Context, orgID, ref string, expected domain.ClaimStatus, update domain.StatusUpdate, entry domain.AuditLogEntry) error {
	if orgID == "" {
		return fmt.Errorf("%w: orgID is required", ErrInvalidInput)
	}

	now := time.Now().UTC()

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	var result sql.Result
	switch update.NewStatus {
	case domain.StatusInReview:
		q := `
			UPDATE claims
			SET status = ?, in_review_by = ?, in_review_at = ?, updated_at = ?
			WHERE org_id = ? AND reference = ? AND status = ?
		`
		result, err = tx.ExecContext(ctx, r.rebind(q),
			string(update.NewStatus), update.InReviewBy, update.InReviewAt, now,
			orgID, ref, string(expected),
		)
	case domain.StatusApproved, domain.StatusRejected:
		q := `
			UPDATE claims
			SET status = ?, decision_reason = ?, decision_notes = ?, decided_by = ?, decided_at = ?, updated_at = ?
			WHERE org_id = ? AND reference = ? AND status = ?
		`
		result, err = tx.ExecContext(ctx, r.rebind(q),
			string(update.NewStatus), update.DecisionReason, update.DecisionNotes,
			update.DecidedBy, update.DecidedAt, now,
			orgID, ref, string(expected),
		)
	default:
		return fmt.Errorf("%w: unsupported transition to %s", ErrInvalidInput, update.NewStatus)
	}
	if err != nil {
		return err
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		var current string
		q := `SELECT status FROM claims WHERE org_id = ? AND reference = ?`
		err := tx.QueryRowContext(ctx, r.rebind(q), orgID, ref).Scan(&current)
		if errors.Is(err, sql.ErrNoRows) {
			return domain.ErrNotFound
		}
		if err != nil {
			return err
		}
		return &domain.ConflictError{
			Current:   domain.ClaimStatus(current),
			Attempted: string(update.NewStatus),
		}
	}

	if err := r.appendEntries(ctx, tx, orgID, ref, []domain.AuditLogEntry{entry}); err != nil {
		return err
	}

	return tx.Commit()
}

// appendEntries inserts audit entries with sequence numbers continuing from
// the claim's current maximum. Must run inside the caller's transaction so
// the entries commit atomically with the state change they record.
func (r *SQLRepository) appendEntries(ctx context.Context, tx *sql.Tx, orgID, ref string, entries []domain.AuditLogEntry) error {
	if len(entries) == 0 {
		return nil
	}

	var maxSeq int
	q := `SELECT COALESCE(MAX(seq), 0) FROM audit_log WHERE org_id = ? AND claim_ref = ?`
	if err := tx.QueryRowContext(ctx, r.rebind(q), orgID, ref).Scan(&maxSeq); err != nil {
		return err
	}

	for i, e := range entries {
		q := `
			INSERT INTO audit_log (id, org_id, claim_ref, seq, actor, action,
			                       field_changed, old_value, new_value,
			                       reason_category, notes, timestamp)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		`
		if _, err := tx.ExecContext(ctx, r.rebind(q),
			e.ID, orgID, ref, maxSeq+i+1, e.Actor, e.Action,
			e.FieldChanged, e.OldValue, e.NewValue,
			e.ReasonCategory, e.Notes, e.Timestamp,
		); err != nil {
			return err
		}
	}
	return nil
}

// ListSignals returns a claim's signals in detection order.
func (r *SQLRepository) ListSignals(ctx context.Context, orgID, ref string) ([]domain.Signal, error) {
	if orgID == "" {
		return nil, fmt.Errorf("%w: orgID is required", ErrInvalidInput)
	}

	query := `
		SELECT id, claim_ref, signal_type, description, evidence, confidence, detected_at
		FROM signals
		WHERE org_id = ? AND claim_ref = ?
		ORDER BY seq
	`

	rows, err := r.db.QueryContext(ctx, r.rebind(query), orgID, ref)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var signals []domain.Signal
	for rows.Next() {
		var s domain.Signal
		if err := rows.Scan(&s.ID, &s.ClaimRef, &s.Type, &s.Description, &s.Evidence, &s.Confidence, &s.DetectedAt); err != nil {
			return nil, err
		}
		signals = append(signals, s)
	}
	return signals, rows.Err()
}

// ListRuleTriggers returns a claim's rule triggers in evaluation order.
func (r *SQLRepository) ListRuleTriggers(ctx context.Context, orgID, ref string) ([]domain.RuleTrigger, error) {
	if orgID == "" {
		return nil, fmt.Errorf("%w: orgID is required", ErrInvalidInput)
	}

	query := `
		SELECT id, claim_ref, rule_id, rule_name, description, weight, reason, triggered_at
		FROM rule_triggers
		WHERE org_id = ? AND claim_ref = ?
		ORDER BY seq
	`

	rows, err := r.db.QueryContext(ctx, r.rebind(query), orgID, ref)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var triggers []domain.RuleTrigger
	for rows.Next() {
		var t domain.RuleTrigger
		var description, reason sql.NullString
		if err := rows.Scan(&t.ID, &t.ClaimRef, &t.RuleID, &t.RuleName, &description, &t.Weight, &reason, &t.TriggeredAt); err != nil {
			return nil, err
		}
		t.Description = description.String
		t.Reason = reason.String
		triggers = append(triggers, t)
	}
	return triggers, rows.Err()
}

// ListAuditEntries returns a claim's audit trail in append order.
func (r *SQLRepository) ListAuditEntries(ctx context.Context, orgID, ref string) ([]domain.AuditLogEntry, error) {
	if orgID == "" {
		return nil, fmt.Errorf("%w: orgID is required", ErrInvalidInput)
	}

	query := `
		SELECT id, org_id, claim_ref, seq, actor, action,
		       field_changed, old_value, new_value, reason_category, notes, timestamp
		FROM audit_log
		WHERE org_id = ? AND claim_ref = ?
		ORDER BY seq
	`

	rows, err := r.db.QueryContext(ctx, r.rebind(query), orgID, ref)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var entries []domain.AuditLogEntry
	for rows.Next() {
		var e domain.AuditLogEntry
		var fieldChanged, oldValue, newValue, reasonCategory, notes sql.NullString
		if err := rows.Scan(
			&e.ID, &e.OrgID, &e.ClaimRef, &e.Seq, &e.Actor, &e.Action,
			&fieldChanged, &oldValue, &newValue, &reasonCategory, &notes, &e.Timestamp,
		); err != nil {
			return nil, err
		}
		e.FieldChanged = fieldChanged.String
		e.OldValue = oldValue.String
		e.NewValue = newValue.String
		e.ReasonCategory = reasonCategory.String
		e.Notes = notes.String
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// GetStats computes the aggregate view for an org directly from persisted
// state.
func (r *SQLRepository) GetStats(ctx context.Context, orgID string) (*domain.Stats, error) {
	if orgID == "" {
		return nil, fmt.Errorf("%w: orgID is required", ErrInvalidInput)
	}

	stats := &domain.Stats{
		ByBand:   map[string]int{},
		ByStatus: map[string]int{},
	}

	now := time.Now().UTC()
	monthStart := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC)
	dayAgo := now.Add(-24 * time.Hour)

	q := `
		SELECT COUNT(*),
		       COALESCE(SUM(claim_amount_gbp), 0),
		       COALESCE(AVG(fraud_score), 0)
		FROM claims WHERE org_id = ?
	`
	if err := r.db.QueryRowContext(ctx, r.rebind(q), orgID).Scan(
		&stats.TotalClaims, &stats.TotalClaimedGBP, &stats.MeanFraudScore,
	); err != nil {
		return nil, err
	}

	q = `SELECT risk_band, COUNT(*) FROM claims WHERE org_id = ? AND risk_band IS NOT NULL GROUP BY risk_band`
	rows, err := r.db.QueryContext(ctx, r.rebind(q), orgID)
	if err != nil {
		return nil, err
	}
	for rows.Next() {
		var band string
		var count int
		if err := rows.Scan(&band, &count); err != nil {
			rows.Close()
			return nil, err
		}
		stats.ByBand[band] = count
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, err
	}

	q = `SELECT status, COUNT(*) FROM claims WHERE org_id = ? GROUP BY status`
	rows, err = r.db.QueryContext(ctx, r.rebind(q), orgID)
	if err != nil {
		return nil, err
	}
	for rows.Next() {
		var status string
		var count int
		if err := rows.Scan(&status, &count); err != nil {
			rows.Close()
			return nil, err
		}
		stats.ByStatus[status] = count
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, err
	}

	q = `SELECT COUNT(*) FROM claims WHERE org_id = ? AND decided_at IS NOT NULL AND decided_at >= ?`
	if err := r.db.QueryRowContext(ctx, r.rebind(q), orgID, monthStart).Scan(&stats.DecisionsThisMonth); err != nil {
		return nil, err
	}

	q = `SELECT COUNT(*) FROM claims WHERE org_id = ? AND created_at >= ?`
	if err := r.db.QueryRowContext(ctx, r.rebind(q), orgID, dayAgo).Scan(&stats.ClaimsLast24h); err != nil {
		return nil, err
	}

	return stats, nil
}

// Ping checks database connectivity.
func (r *SQLRepository) Ping(ctx context.Context) error {
	return r.db.PingContext(ctx)
}

// Close closes the database connection.
func (r *SQLRepository) Close() error {
	return r.db.Close()
}

// rebind converts ? placeholders to $1, $2, etc. for PostgreSQL.
func (r *SQLRepository) rebind(query string) string {
	if r.driver != "postgres" {
		return query
	}

	var result []byte
	n := 1
	for i := 0; i < len(query); i++ {
		if query[i] == '?' {
			result = append(result, '$')
			result = append(result, fmt.Sprintf("%d", n)...)
			n++
		} else {
			result = append(result, query[i])
		}
	}
	return string(result)
}

func isDuplicate(err error) bool {
	if isUniqueViolation(err) {
		return true
	}
	return strings.Contains(err.Error(), "UNIQUE constraint")
}
