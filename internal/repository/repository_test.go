package repository

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/openclaims/kestrel/internal/domain"
)

func newTestRepo(t *testing.T) domain.Repository {
	t.Helper()
	repo, err := New(domain.RepositoryConfig{
		Driver:     "sqlite",
		SQLitePath: filepath.Join(t.TempDir(), "test.db"),
	})
	if err != nil {
		t.Fatalf("failed to create repository: %v", err)
	}
	t.Cleanup(func() { repo.Close() })
	return repo
}

func testClaim(ref string) *domain.Claim {
	now := time.Now().UTC()
	return &domain.Claim{
		ID:                  uuid.NewString(),
		Reference:           ref,
		ClaimantName:        "Jane Doe",
		PolicyID:            "POL-1001",
		AccidentDate:        now.Add(-48 * time.Hour),
		AccidentType:        "Rear-End",
		AccidentLocation:    "A40 westbound near Oxford services",
		AccidentDescription: "Hit from behind at traffic lights",
		ClaimAmountGBP:      4200,
		Status:              domain.StatusNeedsReview,
		CreatedBy:           "intake",
		CreatedAt:           now,
		UpdatedAt:           now,
	}
}

func createdEntry(orgID, ref string) domain.AuditLogEntry {
	return domain.AuditLogEntry{
		ID:        uuid.NewString(),
		ClaimRef:  ref,
		OrgID:     orgID,
		Actor:     "intake",
		Action:    domain.ActionClaimCreated,
		Timestamp: time.Now().UTC(),
	}
}

func TestCreateAndGetClaim(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	dist := 120.5
	docDate := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
	c := testClaim("CLM-2025-AAAA0001")
	c.DistanceFromHomeMiles = &dist
	c.PriorThirdParties = []string{"John Smith"}
	c.Documents = []domain.DocumentRef{{Filename: "quote.pdf", DocumentDate: &docDate, UploadedAt: time.Now().UTC()}}
	c.ExtractedFields = map[string]any{"claimant_name": "Jane Do"}

	if err := repo.CreateClaim(ctx, "org-1", c, []domain.AuditLogEntry{createdEntry("org-1", c.Reference)}); err != nil {
		t.Fatalf("CreateClaim: %v", err)
	}

	got, err := repo.GetClaim(ctx, "org-1", c.Reference)
	if err != nil {
		t.Fatalf("GetClaim: %v", err)
	}
	if got.ClaimantName != "Jane Doe" || got.Status != domain.StatusNeedsReview {
		t.Errorf("claim = %+v", got)
	}
	if got.FraudScore != nil || got.RiskBand != nil {
		t.Error("new claim must be unscored")
	}
	if got.DistanceFromHomeMiles == nil || *got.DistanceFromHomeMiles != 120.5 {
		t.Error("distance not round-tripped")
	}
	if len(got.PriorThirdParties) != 1 || got.PriorThirdParties[0] != "John Smith" {
		t.Errorf("priorThirdParties = %v", got.PriorThirdParties)
	}
	if len(got.Documents) != 1 || got.Documents[0].Filename != "quote.pdf" {
		t.Errorf("documents = %v", got.Documents)
	}
	if got.ExtractedFields["claimant_name"] != "Jane Do" {
		t.Errorf("extractedFields = %v", got.ExtractedFields)
	}
}

func TestGetClaimNotFound(t *testing.T) {
	repo := newTestRepo(t)
	if _, err := repo.GetClaim(context.Background(), "org-1", "CLM-2025-MISSING1"); !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestDuplicateReferenceRejected(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	c1 := testClaim("CLM-2025-AAAA0002")
	if err := repo.CreateClaim(ctx, "org-1", c1, nil); err != nil {
		t.Fatalf("CreateClaim: %v", err)
	}

	c2 := testClaim("CLM-2025-AAAA0002")
	if err := repo.CreateClaim(ctx, "org-1", c2, nil); err == nil {
		t.Error("expected error for duplicate reference")
	}
}

func TestOrgIsolation(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	c := testClaim("CLM-2025-AAAA0003")
	if err := repo.CreateClaim(ctx, "org-1", c, []domain.AuditLogEntry{createdEntry("org-1", c.Reference)}); err != nil {
		t.Fatalf("CreateClaim: %v", err)
	}

	if _, err := repo.GetClaim(ctx, "org-2", c.Reference); !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("expected ErrNotFound across orgs, got %v", err)
	}

	list, err := repo.ListClaims(ctx, "org-2", domain.ListFilter{})
	if err != nil {
		t.Fatalf("ListClaims: %v", err)
	}
	if len(list) != 0 {
		t.Errorf("org-2 sees %d claims", len(list))
	}

	entries, err := repo.ListAuditEntries(ctx, "org-2", c.Reference)
	if err != nil {
		t.Fatalf("ListAuditEntries: %v", err)
	}
	if len(entries) != 0 {
		t.Errorf("org-2 sees %d audit entries", len(entries))
	}
}

func TestListClaimsOrdering(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	refs := []string{"CLM-2025-BBBB0001", "CLM-2025-BBBB0002", "CLM-2025-BBBB0003"}
	for _, ref := range refs {
		if err := repo.CreateClaim(ctx, "org-1", testClaim(ref), nil); err != nil {
			t.Fatalf("CreateClaim %s: %v", ref, err)
		}
	}

	// Score the second claim high, the third low; the first stays unscored.
	score := func(ref string, res domain.ScoreResult) {
		t.Helper()
		entry := createdEntry("org-1", ref)
		entry.Action = domain.ActionScoreGenerated
		if err := repo.ApplyScore(ctx, "org-1", ref, res, nil, nil, nil, entry); err != nil {
			t.Fatalf("ApplyScore %s: %v", ref, err)
		}
	}
	score(refs[1], domain.ScoreResult{Score: 80, Band: domain.BandHigh})
	score(refs[2], domain.ScoreResult{Score: 15, Band: domain.BandLow})

	list, err := repo.ListClaims(ctx, "org-1", domain.ListFilter{})
	if err != nil {
		t.Fatalf("ListClaims: %v", err)
	}
	if len(list) != 3 {
		t.Fatalf("got %d claims", len(list))
	}
	if list[0].Reference != refs[1] || list[1].Reference != refs[2] || list[2].Reference != refs[0] {
		t.Errorf("order = %s, %s, %s", list[0].Reference, list[1].Reference, list[2].Reference)
	}

	filtered, err := repo.ListClaims(ctx, "org-1", domain.ListFilter{Band: domain.BandHigh})
	if err != nil {
		t.Fatalf("ListClaims filtered: %v", err)
	}
	if len(filtered) != 1 || filtered[0].Reference != refs[1] {
		t.Errorf("band filter returned %v", filtered)
	}
}

func TestApplyScoreIsAtMostOnce(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	c := testClaim("CLM-2025-CCCC0001")
	if err := repo.CreateClaim(ctx, "org-1", c, nil); err != nil {
		t.Fatalf("CreateClaim: %v", err)
	}

	res := domain.ScoreResult{Score: 40, Band: domain.BandMedium}
	signals := []domain.Signal{{
		ID: uuid.NewString(), ClaimRef: c.Reference, Type: "inconsistent_statement",
		Description: "d", Evidence: "e", Confidence: 0.9, DetectedAt: time.Now().UTC(),
	}}
	triggers := []domain.RuleTrigger{{
		ID: uuid.NewString(), ClaimRef: c.Reference, RuleID: "frequent_claimant",
		RuleName: "Frequent Claimant", Weight: 25, TriggeredAt: time.Now().UTC(),
	}}
	justification := map[string]any{"confidence_note": "deterministic"}

	entry := createdEntry("org-1", c.Reference)
	entry.Action = domain.ActionScoreGenerated

	if err := repo.ApplyScore(ctx, "org-1", c.Reference, res, justification, signals, triggers, entry); err != nil {
		t.Fatalf("ApplyScore: %v", err)
	}

	got, err := repo.GetClaim(ctx, "org-1", c.Reference)
	if err != nil {
		t.Fatalf("GetClaim: %v", err)
	}
	if got.FraudScore == nil || *got.FraudScore != 40 {
		t.Error("score not applied")
	}
	if got.RiskBand == nil || *got.RiskBand != domain.BandMedium {
		t.Error("band not applied")
	}
	if got.Justification["confidence_note"] != "deterministic" {
		t.Errorf("justification = %v", got.Justification)
	}

	// Second scoring pass must be rejected and change nothing.
	entry2 := createdEntry("org-1", c.Reference)
	entry2.Action = domain.ActionScoreGenerated
	err = repo.ApplyScore(ctx, "org-1", c.Reference, domain.ScoreResult{Score: 99, Band: domain.BandHigh}, nil, nil, nil, entry2)
	if !errors.Is(err, domain.ErrAlreadyScored) {
		t.Fatalf("expected ErrAlreadyScored, got %v", err)
	}

	got, _ = repo.GetClaim(ctx, "org-1", c.Reference)
	if *got.FraudScore != 40 {
		t.Error("second pass overwrote the score")
	}

	gotSignals, err := repo.ListSignals(ctx, "org-1", c.Reference)
	if err != nil || len(gotSignals) != 1 {
		t.Errorf("signals = %v, err = %v", gotSignals, err)
	}
	gotTriggers, err := repo.ListRuleTriggers(ctx, "org-1", c.Reference)
	if err != nil || len(gotTriggers) != 1 {
		t.Errorf("triggers = %v, err = %v", gotTriggers, err)
	}
}

func TestApplyScoreMissingClaim(t *testing.T) {
	repo := newTestRepo(t)
	err := repo.ApplyScore(context.Background(), "org-1", "CLM-2025-MISSING1",
		domain.ScoreResult{Score: 10, Band: domain.BandLow}, nil, nil, nil,
		createdEntry("org-1", "CLM-2025-MISSING1"))
	if !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestTransitionStatusConflict(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	c := testClaim("CLM-2025-DDDD0001")
	if err := repo.CreateClaim(ctx, "org-1", c, nil); err != nil {
		t.Fatalf("CreateClaim: %v", err)
	}

	now := time.Now().UTC()
	review := domain.StatusUpdate{
		NewStatus:  domain.StatusInReview,
		InReviewBy: "analyst-7",
		InReviewAt: &now,
	}
	entry := createdEntry("org-1", c.Reference)
	entry.Action = domain.ActionReviewStarted

	if err := repo.TransitionStatus(ctx, "org-1", c.Reference, domain.StatusNeedsReview, review, entry); err != nil {
		t.Fatalf("TransitionStatus: %v", err)
	}

	// Same expected-status transition again: the optimistic check must fail.
	entry2 := createdEntry("org-1", c.Reference)
	entry2.Action = domain.ActionReviewStarted
	err := repo.TransitionStatus(ctx, "org-1", c.Reference, domain.StatusNeedsReview, review, entry2)
	var conflict *domain.ConflictError
	if !errors.As(err, &conflict) {
		t.Fatalf("expected ConflictError, got %v", err)
	}
	if conflict.Current != domain.StatusInReview {
		t.Errorf("conflict.Current = %s", conflict.Current)
	}

	// The failed transition must not have written an audit entry.
	entries, err := repo.ListAuditEntries(ctx, "org-1", c.Reference)
	if err != nil {
		t.Fatalf("ListAuditEntries: %v", err)
	}
	if len(entries) != 1 {
		t.Errorf("audit trail has %d entries, want 1", len(entries))
	}
}

func TestDecisionTransitionPersistsFields(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	c := testClaim("CLM-2025-DDDD0002")
	if err := repo.CreateClaim(ctx, "org-1", c, nil); err != nil {
		t.Fatalf("CreateClaim: %v", err)
	}

	now := time.Now().UTC()
	review := domain.StatusUpdate{NewStatus: domain.StatusInReview, InReviewBy: "analyst-7", InReviewAt: &now}
	if err := repo.TransitionStatus(ctx, "org-1", c.Reference, domain.StatusNeedsReview, review, createdEntry("org-1", c.Reference)); err != nil {
		t.Fatalf("review transition: %v", err)
	}

	decide := domain.StatusUpdate{
		NewStatus:      domain.StatusApproved,
		DecisionReason: "Manual review completed with no concerns",
		DecisionNotes:  "Photos match the description.",
		DecidedBy:      "analyst-7",
		DecidedAt:      &now,
	}
	if err := repo.TransitionStatus(ctx, "org-1", c.Reference, domain.StatusInReview, decide, createdEntry("org-1", c.Reference)); err != nil {
		t.Fatalf("decision transition: %v", err)
	}

	got, err := repo.GetClaim(ctx, "org-1", c.Reference)
	if err != nil {
		t.Fatalf("GetClaim: %v", err)
	}
	if got.Status != domain.StatusApproved {
		t.Errorf("status = %s", got.Status)
	}
	if got.DecisionReason != decide.DecisionReason || got.DecidedBy != "analyst-7" {
		t.Errorf("decision fields = %+v", got)
	}
	if got.InReviewBy != "analyst-7" || got.InReviewAt == nil {
		t.Error("review fields lost on decision")
	}
}

func TestAuditEntriesAppendOrder(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	c := testClaim("CLM-2025-EEEE0001")
	created := createdEntry("org-1", c.Reference)
	edit := createdEntry("org-1", c.Reference)
	edit.Action = domain.ActionFieldEdit
	edit.FieldChanged = "claimant_name"

	if err := repo.CreateClaim(ctx, "org-1", c, []domain.AuditLogEntry{created, edit}); err != nil {
		t.Fatalf("CreateClaim: %v", err)
	}

	scoreEntry := createdEntry("org-1", c.Reference)
	scoreEntry.Action = domain.ActionScoreGenerated
	if err := repo.ApplyScore(ctx, "org-1", c.Reference, domain.ScoreResult{Score: 0, Band: domain.BandLow}, nil, nil, nil, scoreEntry); err != nil {
		t.Fatalf("ApplyScore: %v", err)
	}

	entries, err := repo.ListAuditEntries(ctx, "org-1", c.Reference)
	if err != nil {
		t.Fatalf("ListAuditEntries: %v", err)
	}
	if len(entries) != 3 {
		t.Fatalf("got %d entries", len(entries))
	}
	wantActions := []string{domain.ActionClaimCreated, domain.ActionFieldEdit, domain.ActionScoreGenerated}
	for i, e := range entries {
		if e.Seq != i+1 {
			t.Errorf("entry %d has seq %d", i, e.Seq)
		}
		if e.Action != wantActions[i] {
			t.Errorf("entry %d action = %s, want %s", i, e.Action, wantActions[i])
		}
	}
}

func TestGetStats(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	c1 := testClaim("CLM-2025-FFFF0001")
	c1.ClaimAmountGBP = 1000
	c2 := testClaim("CLM-2025-FFFF0002")
	c2.ClaimAmountGBP = 3000

	for _, c := range []*domain.Claim{c1, c2} {
		if err := repo.CreateClaim(ctx, "org-1", c, nil); err != nil {
			t.Fatalf("CreateClaim: %v", err)
		}
	}

	entry := createdEntry("org-1", c1.Reference)
	entry.Action = domain.ActionScoreGenerated
	if err := repo.ApplyScore(ctx, "org-1", c1.Reference, domain.ScoreResult{Score: 70, Band: domain.BandHigh}, nil, nil, nil, entry); err != nil {
		t.Fatalf("ApplyScore: %v", err)
	}

	stats, err := repo.GetStats(ctx, "org-1")
	if err != nil {
		t.Fatalf("GetStats: %v", err)
	}
	if stats.TotalClaims != 2 {
		t.Errorf("totalClaims = %d", stats.TotalClaims)
	}
	if stats.ByBand["high"] != 1 {
		t.Errorf("byBand = %v", stats.ByBand)
	}
	if stats.ByStatus["needs_review"] != 2 {
		t.Errorf("byStatus = %v", stats.ByStatus)
	}
	if stats.TotalClaimedGBP != 4000 {
		t.Errorf("totalClaimedGbp = %f", stats.TotalClaimedGBP)
	}
	if stats.MeanFraudScore != 70 {
		t.Errorf("meanFraudScore = %f (mean is over scored claims only)", stats.MeanFraudScore)
	}
	if stats.ClaimsLast24h != 2 {
		t.Errorf("claimsLast24h = %d", stats.ClaimsLast24h)
	}
}
