package signals

import (
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/openclaims/kestrel/internal/domain"
)

// Ingestor validates candidate signals and converts the well-formed ones into
// persistent signals. Malformed candidates are dropped with a log line, never
// an error: detector output must not be able to fail a scoring pass.
type Ingestor struct {
	logger *slog.Logger
}

// NewIngestor creates an ingestor.
func NewIngestor(logger *slog.Logger) *Ingestor {
	if logger == nil {
		logger = slog.Default()
	}
	return &Ingestor{logger: logger}
}

// Ingest filters candidates down to valid signals attached to the claim.
// A candidate is valid when type, description and evidence are non-empty and
// confidence is within [0, 1].
func (in *Ingestor) Ingest(claimRef string, candidates []domain.CandidateSignal) []domain.Signal {
	now := time.Now().UTC()
	out := make([]domain.Signal, 0, len(candidates))

	for _, cand := range candidates {
		if reason := validate(cand); reason != "" {
			in.logger.Warn("dropping malformed signal candidate",
				"claimRef", claimRef,
				"signalType", cand.Type,
				"reason", reason)
			continue
		}
		out = append(out, domain.Signal{
			ID:          uuid.NewString(),
			ClaimRef:    claimRef,
			Type:        strings.TrimSpace(cand.Type),
			Description: strings.TrimSpace(cand.Description),
			Evidence:    strings.TrimSpace(cand.Evidence),
			Confidence:  cand.Confidence,
			DetectedAt:  now,
		})
	}
	return out
}

func validate(c domain.CandidateSignal) string {
	if strings.TrimSpace(c.Type) == "" {
		return "empty type"
	}
	if strings.TrimSpace(c.Description) == "" {
		return "empty description"
	}
	if strings.TrimSpace(c.Evidence) == "" {
		return "empty evidence"
	}
	if c.Confidence < 0 || c.Confidence > 1 {
		return "confidence out of range"
	}
	return ""
}
