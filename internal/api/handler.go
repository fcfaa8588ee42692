package api

import (
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/openclaims/kestrel/internal/domain"
	"github.com/openclaims/kestrel/internal/lifecycle"
)

// Handler holds dependencies for API handlers.
type Handler struct {
	repo       domain.Repository
	cache      domain.Cache
	controller *lifecycle.Controller
	statsTTL   time.Duration
	version    string
}

// NewHandler creates a new API handler.
func NewHandler(repo domain.Repository, cache domain.Cache, controller *lifecycle.Controller, statsTTL time.Duration, version string) *Handler {
	if statsTTL <= 0 {
		statsTTL = 30 * time.Second
	}
	return &Handler{
		repo:       repo,
		cache:      cache,
		controller: controller,
		statsTTL:   statsTTL,
		version:    version,
	}
}

// CreateClaim handles POST /claims. The claim is stored unscored; scoring
// happens asynchronously off the claim.created event.
func (h *Handler) CreateClaim(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	orgID := GetOrgID(ctx)
	actor := GetAnalystID(ctx)

	var in lifecycle.CreateClaimInput
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{
			"error": "invalid JSON request body",
		})
		return
	}

	claim, err := h.controller.Create(ctx, orgID, actor, &in)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, claim)
}

// ListClaims handles GET /claims. Results are ordered by fraud score
// descending with unscored claims last, then by creation time.
func (h *Handler) ListClaims(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	orgID := GetOrgID(ctx)

	filter, err := parseListFilter(r)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}

	claims, err := h.repo.ListClaims(ctx, orgID, filter)
	if err != nil {
		slog.Error("failed to list claims", "org", orgID, "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{
			"error": "failed to list claims",
		})
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"claims": claims,
		"count":  len(claims),
	})
}

// ExportClaims handles GET /claims/export, a CSV projection of the list view.
func (h *Handler) ExportClaims(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	orgID := GetOrgID(ctx)

	filter, err := parseListFilter(r)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}

	claims, err := h.repo.ListClaims(ctx, orgID, filter)
	if err != nil {
		slog.Error("failed to export claims", "org", orgID, "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{
			"error": "failed to export claims",
		})
		return
	}

	w.Header().Set("Content-Type", "text/csv")
	w.Header().Set("Content-Disposition", `attachment; filename="claims.csv"`)

	cw := csv.NewWriter(w)
	cw.Write([]string{"reference", "claimant_name", "accident_type", "claim_amount_gbp", "status", "fraud_score", "risk_band", "created_at"})
	for _, c := range claims {
		score, band := "", ""
		if c.FraudScore != nil {
			score = strconv.Itoa(*c.FraudScore)
		}
		if c.RiskBand != nil {
			band = string(*c.RiskBand)
		}
		cw.Write([]string{
			c.Reference,
			c.ClaimantName,
			c.AccidentType,
			strconv.FormatFloat(c.ClaimAmountGBP, 'f', 2, 64),
			string(c.Status),
			score,
			band,
			c.CreatedAt.UTC().Format(time.RFC3339),
		})
	}
	cw.Flush()
}

// ClaimDetail is the response for GET /claims/{ref}.
type ClaimDetail struct {
	Claim    *domain.Claim          `json:"claim"`
	Signals  []domain.Signal        `json:"signals"`
	Triggers []domain.RuleTrigger   `json:"ruleTriggers"`
	Audit    []domain.AuditLogEntry `json:"auditTrail"`
}

// GetClaim handles GET /claims/{ref}.
func (h *Handler) GetClaim(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	orgID := GetOrgID(ctx)
	ref := chi.URLParam(r, "ref")

	claim, err := h.repo.GetClaim(ctx, orgID, ref)
	if err != nil {
		writeError(w, err)
		return
	}

	signals, err := h.repo.ListSignals(ctx, orgID, ref)
	if err != nil {
		writeError(w, err)
		return
	}
	triggers, err := h.repo.ListRuleTriggers(ctx, orgID, ref)
	if err != nil {
		writeError(w, err)
		return
	}
	audit, err := h.repo.ListAuditEntries(ctx, orgID, ref)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, ClaimDetail{
		Claim:    claim,
		Signals:  signals,
		Triggers: triggers,
		Audit:    audit,
	})
}

// GetAuditTrail handles GET /claims/{ref}/audit. Entries come back in append
// order.
func (h *Handler) GetAuditTrail(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	orgID := GetOrgID(ctx)
	ref := chi.URLParam(r, "ref")

	// 404 for unknown claims rather than an empty trail
	if _, err := h.repo.GetClaim(ctx, orgID, ref); err != nil {
		writeError(w, err)
		return
	}

	entries, err := h.repo.ListAuditEntries(ctx, orgID, ref)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"reference": ref,
		"entries":   entries,
		"count":     len(entries),
	})
}

// ReviewClaim handles POST /claims/{ref}/review.
func (h *Handler) ReviewClaim(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	orgID := GetOrgID(ctx)
	actor := GetAnalystID(ctx)
	ref := chi.URLParam(r, "ref")

	claim, err := h.controller.MarkInReview(ctx, orgID, ref, actor)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, claim)
}

// DecisionRequest is the body for POST /claims/{ref}/approve and /reject.
type DecisionRequest struct {
	Reason string `json:"reason"`
	Notes  string `json:"notes"`
}

// ApproveClaim handles POST /claims/{ref}/approve.
func (h *Handler) ApproveClaim(w http.ResponseWriter, r *http.Request) {
	h.decide(w, r, domain.OutcomeApprove)
}

// RejectClaim handles POST /claims/{ref}/reject.
func (h *Handler) RejectClaim(w http.ResponseWriter, r *http.Request) {
	h.decide(w, r, domain.OutcomeReject)
}

func (h *Handler) decide(w http.ResponseWriter, r *http.Request, outcome domain.DecisionOutcome) {
	ctx := r.Context()
	orgID := GetOrgID(ctx)
	actor := GetAnalystID(ctx)
	ref := chi.URLParam(r, "ref")

	var req DecisionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{
			"error": "invalid JSON request body",
		})
		return
	}

	claim, err := h.controller.Decide(ctx, orgID, ref, actor, outcome, req.Reason, req.Notes)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, claim)
}

// GetStats handles GET /stats. Snapshots are served from cache with bounded
// staleness; a miss recomputes from the repository and repopulates.
func (h *Handler) GetStats(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	orgID := GetOrgID(ctx)

	if h.cache != nil {
		if stats, err := h.cache.GetStats(ctx, orgID); err == nil && stats != nil {
			writeJSON(w, http.StatusOK, stats)
			return
		}
	}

	stats, err := h.repo.GetStats(ctx, orgID)
	if err != nil {
		slog.Error("failed to compute stats", "org", orgID, "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{
			"error": "failed to compute stats",
		})
		return
	}

	if h.cache != nil {
		if err := h.cache.SetStats(ctx, orgID, stats, h.statsTTL); err != nil {
			slog.Warn("failed to cache stats", "org", orgID, "error", err)
		}
	}

	writeJSON(w, http.StatusOK, stats)
}

// Forbidden endpoints. These routes exist so clients get a policy answer, not
// a routing hole: the claim record is immutable after intake, scoring runs at
// most once, and status only moves through review and decision.

// ForbidFieldEdit handles PATCH /claims/{ref}/fields.
func (h *Handler) ForbidFieldEdit(w http.ResponseWriter, r *http.Request) {
	h.forbid(w, r, "claim fields are immutable after submission")
}

// ForbidRescore handles POST /claims/{ref}/rescore.
func (h *Handler) ForbidRescore(w http.ResponseWriter, r *http.Request) {
	h.forbid(w, r, "claims are scored exactly once; rescoring is not permitted")
}

// ForbidOverride handles POST /claims/{ref}/override.
func (h *Handler) ForbidOverride(w http.ResponseWriter, r *http.Request) {
	h.forbid(w, r, "fraud scores cannot be overridden")
}

// ForbidStatusEdit handles PATCH /claims/{ref}/status.
func (h *Handler) ForbidStatusEdit(w http.ResponseWriter, r *http.Request) {
	h.forbid(w, r, "status changes only through review, approve and reject")
}

func (h *Handler) forbid(w http.ResponseWriter, r *http.Request, reason string) {
	ctx := r.Context()
	orgID := GetOrgID(ctx)
	ref := chi.URLParam(r, "ref")

	// Unknown claims still 404; the policy answer is for claims that exist.
	if _, err := h.repo.GetClaim(ctx, orgID, ref); err != nil {
		writeError(w, err)
		return
	}

	writeError(w, &domain.ForbiddenError{Reason: reason})
}

// Health returns server health status.
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	status := "healthy"

	// Check repository health
	if h.repo != nil {
		if err := h.repo.Ping(r.Context()); err != nil {
			status = "degraded"
		}
	}

	// Check cache health
	if h.cache != nil {
		if err := h.cache.Ping(r.Context()); err != nil {
			status = "degraded"
		}
	}

	writeJSON(w, http.StatusOK, map[string]string{
		"status":  status,
		"version": h.version,
	})
}

// Ready returns whether the server is ready to accept traffic.
func (h *Handler) Ready(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"ready": "true",
	})
}

func parseListFilter(r *http.Request) (domain.ListFilter, error) {
	var f domain.ListFilter
	q := r.URL.Query()

	if s := q.Get("status"); s != "" {
		switch st := domain.ClaimStatus(s); st {
		case domain.StatusNeedsReview, domain.StatusInReview, domain.StatusApproved, domain.StatusRejected:
			f.Status = st
		default:
			return f, fmt.Errorf("unknown status %q", s)
		}
	}

	if b := q.Get("band"); b != "" {
		switch band := domain.RiskBand(b); band {
		case domain.BandLow, domain.BandMedium, domain.BandHigh:
			f.Band = band
		default:
			return f, fmt.Errorf("unknown risk band %q", b)
		}
	}

	if l := q.Get("limit"); l != "" {
		n, err := strconv.Atoi(l)
		if err != nil || n < 0 {
			return f, fmt.Errorf("invalid limit %q", l)
		}
		f.Limit = n
	}

	if o := q.Get("offset"); o != "" {
		n, err := strconv.Atoi(o)
		if err != nil || n < 0 {
			return f, fmt.Errorf("invalid offset %q", o)
		}
		f.Offset = n
	}

	return f, nil
}

// writeError maps domain errors onto HTTP statuses: validation 400, not found
// 404, lifecycle conflicts 409, policy refusals 403, everything else 500.
func writeError(w http.ResponseWriter, err error) {
	var ve *domain.ValidationError
	if errors.As(err, &ve) {
		writeJSON(w, http.StatusBadRequest, map[string]any{
			"error":  "validation failed",
			"fields": ve.Fields,
		})
		return
	}

	if errors.Is(err, domain.ErrNotFound) {
		writeJSON(w, http.StatusNotFound, map[string]string{
			"error": "claim not found",
		})
		return
	}

	var ce *domain.ConflictError
	if errors.As(err, &ce) {
		writeJSON(w, http.StatusConflict, map[string]string{
			"error":  ce.Error(),
			"status": string(ce.Current),
		})
		return
	}

	var fe *domain.ForbiddenError
	if errors.As(err, &fe) {
		writeJSON(w, http.StatusForbidden, map[string]string{
			"error": fe.Reason,
		})
		return
	}

	slog.Error("request failed", "error", err)
	writeJSON(w, http.StatusInternalServerError, map[string]string{
		"error": "internal server error",
	})
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}
