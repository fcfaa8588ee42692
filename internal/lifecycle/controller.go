// Package lifecycle implements the claim state machine: intake, review,
// decision and the scoring pass. All state changes go through the repository's
// conditional transitions so concurrent actors serialise on the database.
package lifecycle

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/openclaims/kestrel/internal/audit"
	"github.com/openclaims/kestrel/internal/domain"
	"github.com/openclaims/kestrel/internal/justify"
	"github.com/openclaims/kestrel/internal/rules"
)

// Controller coordinates claim lifecycle operations.
type Controller struct {
	repo      domain.Repository
	bus       domain.EventBus
	evaluator *rules.Evaluator
	logger    *slog.Logger
}

// NewController creates a lifecycle controller.
func NewController(repo domain.Repository, bus domain.EventBus, evaluator *rules.Evaluator, logger *slog.Logger) *Controller {
	if logger == nil {
		logger = slog.Default()
	}
	return &Controller{
		repo:      repo,
		bus:       bus,
		evaluator: evaluator,
		logger:    logger,
	}
}

// Repo exposes the underlying repository for read paths that bypass the
// lifecycle, such as the async scoring worker and the API query handlers.
func (c *Controller) Repo() domain.Repository {
	return c.repo
}

// CreateClaimInput carries the intake fields for a new claim.
type CreateClaimInput struct {
	ClaimantName        string               `json:"claimantName"`
	PolicyID            string               `json:"policyId"`
	PolicyStartDate     *time.Time           `json:"policyStartDate"`
	PolicyholderAddress string               `json:"policyholderAddress"`
	PreviousClaimCount  int                  `json:"previousClaimCount"`
	PreviousClaimsTotal float64              `json:"previousClaimsTotalGbp"`
	PriorThirdParties   []string             `json:"priorThirdParties"`
	PriorWitnesses      []string             `json:"priorWitnesses"`
	VehicleMake         string               `json:"vehicleMake"`
	VehicleModel        string               `json:"vehicleModel"`
	VehicleYear         int                  `json:"vehicleYear"`
	VehicleRegistration string               `json:"vehicleRegistration"`
	VehicleValueGBP     float64              `json:"vehicleEstimatedValueGbp"`
	AccidentDate        time.Time            `json:"accidentDate"`
	AccidentType        string               `json:"accidentType"`
	AccidentLocation    string               `json:"accidentLocation"`
	AccidentDescription string               `json:"accidentDescription"`
	DistanceFromHome    *float64             `json:"distanceFromHomeMiles"`
	WitnessName         string               `json:"witnessName"`
	WitnessContact      string               `json:"witnessContact"`
	ThirdPartyName      string               `json:"thirdPartyName"`
	ThirdPartyContact   string               `json:"thirdPartyContact"`
	ClaimAmountGBP      float64              `json:"claimAmountGbp"`
	Documents           []domain.DocumentRef `json:"documents"`
	ExtractedFields     map[string]any       `json:"extractedFields"`
}

func (in *CreateClaimInput) validate() error {
	fields := map[string]string{}

	if strings.TrimSpace(in.ClaimantName) == "" {
		fields["claimantName"] = "claimant name is required"
	}
	if strings.TrimSpace(in.PolicyID) == "" {
		fields["policyId"] = "policy id is required"
	}
	if in.AccidentDate.IsZero() {
		fields["accidentDate"] = "accident date is required"
	} else if in.AccidentDate.After(time.Now().UTC()) {
		fields["accidentDate"] = "accident date cannot be in the future"
	}
	if !domain.ValidAccidentType(in.AccidentType) {
		fields["accidentType"] = fmt.Sprintf("%q is not a recognised accident type", in.AccidentType)
	}
	if in.ClaimAmountGBP <= 0 {
		fields["claimAmountGbp"] = "claim amount must be positive"
	}
	if in.PreviousClaimCount < 0 {
		fields["previousClaimCount"] = "previous claim count cannot be negative"
	}

	if len(fields) > 0 {
		return &domain.ValidationError{Fields: fields}
	}
	return nil
}

// submittedFields renders the intake values under the field names the
// extractor uses, for divergence comparison.
func (in *CreateClaimInput) submittedFields() map[string]any {
	return map[string]any{
		"claimant_name":        in.ClaimantName,
		"policy_id":            in.PolicyID,
		"vehicle_make":         in.VehicleMake,
		"vehicle_model":        in.VehicleModel,
		"vehicle_registration": in.VehicleRegistration,
		"accident_type":        in.AccidentType,
		"accident_location":    in.AccidentLocation,
		"claim_amount_gbp":     in.ClaimAmountGBP,
	}
}

// NewReference generates a human-facing claim reference: CLM-<year>-<8 hex>.
func NewReference(now time.Time) string {
	suffix := strings.ToUpper(strings.ReplaceAll(uuid.NewString(), "-", "")[:8])
	return fmt.Sprintf("CLM-%d-%s", now.Year(), suffix)
}

type claimEvent struct {
	Reference string `json:"reference"`
	Status    string `json:"status,omitempty"`
	Score     *int   `json:"score,omitempty"`
	Band      string `json:"band,omitempty"`
}

// Create validates the input, persists the claim with its initial audit
// entries and hands it to the scoring pipeline via the bus. The publish is
// fire-and-forget: a bus failure is logged and the claim stays unscored until
// a later pass picks it up.
func (ctl *Controller) Create(ctx context.Context, orgID, actor string, in *CreateClaimInput) (*domain.Claim, error) {
	if err := in.validate(); err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	c := &domain.Claim{
		ID:                     uuid.NewString(),
		Reference:              NewReference(now),
		OrgID:                  orgID,
		ClaimantName:           strings.TrimSpace(in.ClaimantName),
		PolicyID:               strings.TrimSpace(in.PolicyID),
		PolicyStartDate:        in.PolicyStartDate,
		PolicyholderAddress:    in.PolicyholderAddress,
		PreviousClaimCount:     in.PreviousClaimCount,
		PreviousClaimsTotalGBP: in.PreviousClaimsTotal,
		PriorThirdParties:      in.PriorThirdParties,
		PriorWitnesses:         in.PriorWitnesses,
		VehicleMake:            in.VehicleMake,
		VehicleModel:           in.VehicleModel,
		VehicleYear:            in.VehicleYear,
		VehicleRegistration:    in.VehicleRegistration,
		VehicleValueGBP:        in.VehicleValueGBP,
		AccidentDate:           in.AccidentDate,
		AccidentType:           in.AccidentType,
		AccidentLocation:       in.AccidentLocation,
		AccidentDescription:    in.AccidentDescription,
		DistanceFromHomeMiles:  in.DistanceFromHome,
		WitnessName:            in.WitnessName,
		WitnessContact:         in.WitnessContact,
		ThirdPartyName:         in.ThirdPartyName,
		ThirdPartyContact:      in.ThirdPartyContact,
		ClaimAmountGBP:         in.ClaimAmountGBP,
		Documents:              in.Documents,
		ExtractedFields:        in.ExtractedFields,
		Status:                 domain.StatusNeedsReview,
		CreatedBy:              actor,
		CreatedAt:              now,
		UpdatedAt:              now,
	}

	entries := []domain.AuditLogEntry{audit.ClaimCreated(orgID, c.Reference, actor)}
	entries = append(entries, audit.ExtractionEdits(orgID, c.Reference, actor, in.ExtractedFields, in.submittedFields())...)

	if err := ctl.repo.CreateClaim(ctx, orgID, c, entries); err != nil {
		return nil, fmt.Errorf("failed to create claim: %w", err)
	}

	ctl.publish(ctx, orgID, domain.TopicClaimCreated, claimEvent{Reference: c.Reference})

	ctl.logger.Info("claim created",
		"ref", c.Reference,
		"org", orgID,
		"amount", c.ClaimAmountGBP,
		"accidentType", c.AccidentType)

	return c, nil
}

// MarkInReview moves a claim from needs_review to in_review on behalf of an
// analyst. Repeating the call as the same analyst is a no-op; a different
// analyst gets a conflict. Decided claims are locked.
func (ctl *Controller) MarkInReview(ctx context.Context, orgID, ref, actor string) (*domain.Claim, error) {
	c, err := ctl.repo.GetClaim(ctx, orgID, ref)
	if err != nil {
		return nil, err
	}

	switch {
	case c.Status.Terminal():
		return nil, &domain.ForbiddenError{Reason: "claim is locked after decision"}
	case c.Status == domain.StatusInReview:
		if c.InReviewBy == actor {
			return c, nil
		}
		return nil, &domain.ConflictError{Current: c.Status, Attempted: "review"}
	}

	now := time.Now().UTC()
	update := domain.StatusUpdate{
		NewStatus:  domain.StatusInReview,
		InReviewBy: actor,
		InReviewAt: &now,
	}

	err = ctl.repo.TransitionStatus(ctx, orgID, ref, domain.StatusNeedsReview, update, audit.ReviewStarted(orgID, ref, actor))
	if err != nil {
		return nil, err
	}

	ctl.logger.Info("claim review started", "ref", ref, "org", orgID, "analyst", actor)
	return ctl.repo.GetClaim(ctx, orgID, ref)
}

// Decide moves an in-review claim to its terminal state. The reason must come
// from the fixed list for the outcome and notes are mandatory. The status
// change and its audit entry commit atomically; the loser of a concurrent
// decision race gets a conflict and no audit entry.
func (ctl *Controller) Decide(ctx context.Context, orgID, ref, actor string, outcome domain.DecisionOutcome, reason, notes string) (*domain.Claim, error) {
	entry, err := audit.Decision(orgID, ref, actor, outcome, reason, notes)
	if err != nil {
		return nil, err
	}

	c, err := ctl.repo.GetClaim(ctx, orgID, ref)
	if err != nil {
		return nil, err
	}
	if c.Status.Terminal() {
		return nil, &domain.ForbiddenError{Reason: "claim is locked after decision"}
	}

	newStatus := domain.StatusApproved
	if outcome == domain.OutcomeReject {
		newStatus = domain.StatusRejected
	}

	now := time.Now().UTC()
	update := domain.StatusUpdate{
		NewStatus:      newStatus,
		DecisionReason: reason,
		DecisionNotes:  notes,
		DecidedBy:      actor,
		DecidedAt:      &now,
	}

	if err := ctl.repo.TransitionStatus(ctx, orgID, ref, domain.StatusInReview, update, entry); err != nil {
		return nil, err
	}

	ctl.publish(ctx, orgID, domain.TopicClaimDecided, claimEvent{Reference: ref, Status: string(newStatus)})

	ctl.logger.Info("claim decided",
		"ref", ref,
		"org", orgID,
		"analyst", actor,
		"outcome", string(outcome),
		"reason", reason)

	return ctl.repo.GetClaim(ctx, orgID, ref)
}

// ScoreClaim runs the scoring pass for a claim: evaluate the catalogue over
// the claim and its ingested signals, aggregate, synthesise the
// justification and apply everything in one transaction. An already-scored
// claim is a logged no-op, which makes redelivery of the scoring event safe.
func (ctl *Controller) ScoreClaim(ctx context.Context, orgID, ref string, signals []domain.Signal) (*domain.ScoreResult, error) {
	c, err := ctl.repo.GetClaim(ctx, orgID, ref)
	if err != nil {
		return nil, err
	}
	if c.FraudScore != nil {
		ctl.logger.Info("claim already scored, skipping", "ref", ref, "org", orgID)
		return nil, nil
	}

	triggers := ctl.evaluator.Evaluate(c, signals)
	res := rules.Score(triggers)
	justification := justify.Build(c, res, signals, triggers)
	entry := audit.ScoreGenerated(orgID, ref, res, len(triggers))

	err = ctl.repo.ApplyScore(ctx, orgID, ref, res, justification, signals, triggers, entry)
	if errors.Is(err, domain.ErrAlreadyScored) {
		ctl.logger.Info("claim scored concurrently, skipping", "ref", ref, "org", orgID)
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to apply score: %w", err)
	}

	ctl.logger.Info("claim scored",
		"ref", ref,
		"org", orgID,
		"score", res.Score,
		"band", string(res.Band),
		"triggers", len(triggers),
		"signals", len(signals))

	score := res.Score
	ctl.publish(ctx, orgID, domain.TopicClaimScored, claimEvent{Reference: ref, Score: &score, Band: string(res.Band)})
	if res.Band == domain.BandHigh {
		ctl.publish(ctx, orgID, domain.TopicAlert, claimEvent{Reference: ref, Score: &score, Band: string(res.Band)})
	}

	return &res, nil
}

func (ctl *Controller) publish(ctx context.Context, orgID, topic string, event claimEvent) {
	if ctl.bus == nil {
		return
	}
	payload, err := json.Marshal(event)
	if err != nil {
		ctl.logger.Error("failed to encode event", "topic", topic, "error", err)
		return
	}
	if err := ctl.bus.Publish(ctx, orgID, topic, payload); err != nil {
		ctl.logger.Error("failed to publish event", "topic", topic, "ref", event.Reference, "error", err)
	}
}
