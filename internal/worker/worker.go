// Package worker consumes claim-created events and runs the scoring pipeline:
// signal detection, ingestion, rule evaluation and score application. The
// consumer is idempotent, so at-least-once delivery from the bus is safe.
package worker

import (
	"context"
	"encoding/json"
	"log/slog"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/openclaims/kestrel/internal/domain"
	"github.com/openclaims/kestrel/internal/lifecycle"
	"github.com/openclaims/kestrel/internal/signals"
)

// Worker processes claims asynchronously from the EventBus.
type Worker struct {
	bus        domain.EventBus
	controller *lifecycle.Controller
	detector   signals.Detector
	ingestor   *signals.Ingestor
	tracer     trace.Tracer
	logger     *slog.Logger

	subscriptions []domain.Subscription
	wg            sync.WaitGroup
	ctx           context.Context
	cancel        context.CancelFunc
}

// Config holds worker configuration.
type Config struct {
	// OrgIDs is the list of orgs to process.
	OrgIDs []string
}

// NewWorker creates a new async scoring worker.
func NewWorker(bus domain.EventBus, controller *lifecycle.Controller, detector signals.Detector, ingestor *signals.Ingestor, logger *slog.Logger) *Worker {
	if logger == nil {
		logger = slog.Default()
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &Worker{
		bus:        bus,
		controller: controller,
		detector:   detector,
		ingestor:   ingestor,
		tracer:     otel.Tracer("kestrel/worker"),
		logger:     logger,
		ctx:        ctx,
		cancel:     cancel,
	}
}

// Start begins consuming claim-created events for the given orgs.
func (w *Worker) Start(cfg Config) error {
	for _, orgID := range cfg.OrgIDs {
		if err := w.startOrgWorker(orgID); err != nil {
			w.logger.Error("failed to start worker for org",
				"org", orgID,
				"error", err,
			)
			continue
		}
	}

	w.logger.Info("scoring workers started", "orgCount", len(cfg.OrgIDs))
	return nil
}

func (w *Worker) startOrgWorker(orgID string) error {
	sub, err := w.bus.Subscribe(w.ctx, orgID, domain.TopicClaimCreated, func(ctx context.Context, msg *domain.Message) error {
		return w.processClaim(ctx, orgID, msg)
	})
	if err != nil {
		return err
	}
	w.subscriptions = append(w.subscriptions, sub)

	w.logger.Info("org worker started",
		"org", orgID,
		"topic", domain.TopicClaimCreated,
	)
	return nil
}

type claimCreatedMessage struct {
	Reference string `json:"reference"`
}

// processClaim runs one scoring pass. Detection failures degrade to an empty
// signal set; an already-scored claim is skipped inside the controller.
func (w *Worker) processClaim(ctx context.Context, orgID string, msg *domain.Message) error {
	start := time.Now()

	var cm claimCreatedMessage
	if err := json.Unmarshal(msg.Payload, &cm); err != nil {
		w.logger.Error("failed to parse claim message",
			"messageId", msg.ID,
			"error", err,
		)
		return err
	}
	if cm.Reference == "" {
		w.logger.Error("claim message has no reference", "messageId", msg.ID)
		return nil
	}

	ctx, span := w.tracer.Start(ctx, "worker.score_claim",
		trace.WithAttributes(
			attribute.String("claim.reference", cm.Reference),
			attribute.String("org.id", orgID),
		))
	defer span.End()

	claim, err := w.controller.Repo().GetClaim(ctx, orgID, cm.Reference)
	if err != nil {
		w.logger.Error("failed to load claim for scoring",
			"ref", cm.Reference,
			"org", orgID,
			"error", err,
		)
		return err
	}

	var ingested []domain.Signal
	candidates, err := w.detector.Detect(ctx, claim)
	if err != nil {
		// Signal detection is best-effort; the claim scores on rules alone.
		w.logger.Warn("signal detection failed, scoring without signals",
			"ref", cm.Reference,
			"org", orgID,
			"error", err,
		)
	} else {
		ingested = w.ingestor.Ingest(cm.Reference, candidates)
	}

	res, err := w.controller.ScoreClaim(ctx, orgID, cm.Reference, ingested)
	if err != nil {
		w.logger.Error("scoring pass failed",
			"ref", cm.Reference,
			"org", orgID,
			"error", err,
		)
		return err
	}
	if res == nil {
		// Redelivery of an already-scored claim.
		return nil
	}

	w.logger.Info("claim processed",
		"ref", cm.Reference,
		"org", orgID,
		"score", res.Score,
		"band", string(res.Band),
		"durationMs", time.Since(start).Milliseconds(),
	)

	return nil
}

// Stop gracefully stops all workers.
func (w *Worker) Stop() error {
	w.cancel()

	for _, sub := range w.subscriptions {
		if err := sub.Unsubscribe(); err != nil {
			w.logger.Error("failed to unsubscribe",
				"topic", sub.Topic(),
				"error", err,
			)
		}
	}
	w.subscriptions = nil

	w.wg.Wait()

	w.logger.Info("scoring workers stopped")
	return nil
}

// Stats returns worker statistics.
type Stats struct {
	SubscriptionCount int      `json:"subscriptionCount"`
	Topics            []string `json:"topics"`
}

// GetStats returns current worker statistics.
func (w *Worker) GetStats() Stats {
	topics := make([]string, len(w.subscriptions))
	for i, sub := range w.subscriptions {
		topics[i] = sub.Topic()
	}
	return Stats{
		SubscriptionCount: len(w.subscriptions),
		Topics:            topics,
	}
}
