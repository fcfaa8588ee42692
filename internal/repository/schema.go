package repository

// Schema definitions for Kestrel's database.
// Compatible with both SQLite and PostgreSQL.

const schemaClaims = `
CREATE TABLE IF NOT EXISTS claims (
    id TEXT PRIMARY KEY,
    org_id TEXT NOT NULL,
    reference TEXT NOT NULL,
    claimant_name TEXT NOT NULL,
    policy_id TEXT NOT NULL,
    policy_start_date TIMESTAMP,
    policyholder_address TEXT,
    previous_claim_count INTEGER NOT NULL DEFAULT 0,
    previous_claims_total_gbp REAL NOT NULL DEFAULT 0,
    prior_third_parties TEXT,
    prior_witnesses TEXT,
    vehicle_make TEXT,
    vehicle_model TEXT,
    vehicle_year INTEGER,
    vehicle_registration TEXT,
    vehicle_value_gbp REAL,
    accident_date TIMESTAMP NOT NULL,
    accident_type TEXT NOT NULL,
    accident_location TEXT,
    accident_description TEXT,
    distance_from_home_miles REAL,
    witness_name TEXT,
    witness_contact TEXT,
    third_party_name TEXT,
    third_party_contact TEXT,
    claim_amount_gbp REAL NOT NULL,
    documents TEXT,
    extracted_fields TEXT,
    fraud_score INTEGER,
    risk_band TEXT,
    scored_at TIMESTAMP,
    justification TEXT,
    status TEXT NOT NULL,
    created_by TEXT NOT NULL,
    created_at TIMESTAMP NOT NULL,
    updated_at TIMESTAMP NOT NULL,
    in_review_by TEXT,
    in_review_at TIMESTAMP,
    decision_reason TEXT,
    decision_notes TEXT,
    decided_by TEXT,
    decided_at TIMESTAMP
);

CREATE UNIQUE INDEX IF NOT EXISTS idx_claims_reference ON claims(reference);
CREATE INDEX IF NOT EXISTS idx_claims_org ON claims(org_id);
CREATE INDEX IF NOT EXISTS idx_claims_status ON claims(org_id, status);
CREATE INDEX IF NOT EXISTS idx_claims_score ON claims(org_id, fraud_score);
CREATE INDEX IF NOT EXISTS idx_claims_created ON claims(org_id, created_at);
`

const schemaSignals = `
CREATE TABLE IF NOT EXISTS signals (
    id TEXT PRIMARY KEY,
    org_id TEXT NOT NULL,
    claim_ref TEXT NOT NULL,
    seq INTEGER NOT NULL,
    signal_type TEXT NOT NULL,
    description TEXT NOT NULL,
    evidence TEXT NOT NULL,
    confidence REAL NOT NULL,
    detected_at TIMESTAMP NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_signals_claim ON signals(org_id, claim_ref, seq);
`

const schemaRuleTriggers = `
CREATE TABLE IF NOT EXISTS rule_triggers (
    id TEXT PRIMARY KEY,
    org_id TEXT NOT NULL,
    claim_ref TEXT NOT NULL,
    seq INTEGER NOT NULL,
    rule_id TEXT NOT NULL,
    rule_name TEXT NOT NULL,
    description TEXT,
    weight INTEGER NOT NULL,
    reason TEXT,
    triggered_at TIMESTAMP NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_rule_triggers_claim ON rule_triggers(org_id, claim_ref, seq);
`

// schemaAuditLog defines the append-only audit trail. There is deliberately
// no UPDATE or DELETE statement against this table anywhere in the codebase.
const schemaAuditLog = `
CREATE TABLE IF NOT EXISTS audit_log (
    id TEXT PRIMARY KEY,
    org_id TEXT NOT NULL,
    claim_ref TEXT NOT NULL,
    seq INTEGER NOT NULL,
    actor TEXT NOT NULL,
    action TEXT NOT NULL,
    field_changed TEXT,
    old_value TEXT,
    new_value TEXT,
    reason_category TEXT,
    notes TEXT,
    timestamp TIMESTAMP NOT NULL,
    UNIQUE (org_id, claim_ref, seq)
);

CREATE INDEX IF NOT EXISTS idx_audit_log_claim ON audit_log(org_id, claim_ref, seq);
`

// AllSchemas returns all schema statements in order.
func AllSchemas() []string {
	return []string{
		schemaClaims,
		schemaSignals,
		schemaRuleTriggers,
		schemaAuditLog,
	}
}
