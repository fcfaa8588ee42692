package signals

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/openclaims/kestrel/internal/domain"
)

func TestIngestDropsMalformedCandidates(t *testing.T) {
	in := NewIngestor(slog.Default())

	candidates := []domain.CandidateSignal{
		{Type: "inconsistent_statement", Description: "statement conflicts with photos", Evidence: "photo timestamps", Confidence: 0.9},
		{Type: "", Description: "missing type", Evidence: "x", Confidence: 0.5},
		{Type: "no_description", Description: "  ", Evidence: "x", Confidence: 0.5},
		{Type: "no_evidence", Description: "x", Evidence: "", Confidence: 0.5},
		{Type: "bad_confidence", Description: "x", Evidence: "x", Confidence: 1.2},
		{Type: "negative_confidence", Description: "x", Evidence: "x", Confidence: -0.1},
		{Type: "staged_damage", Description: "damage pattern inconsistent", Evidence: "panel gaps", Confidence: 0},
	}

	got := in.Ingest("CLM-2025-ABCD1234", candidates)
	if len(got) != 2 {
		t.Fatalf("expected 2 valid signals, got %d", len(got))
	}
	for _, s := range got {
		if s.ID == "" {
			t.Error("signal has no id")
		}
		if s.ClaimRef != "CLM-2025-ABCD1234" {
			t.Errorf("claimRef = %q", s.ClaimRef)
		}
		if s.DetectedAt.IsZero() {
			t.Error("detectedAt not set")
		}
	}
}

func TestIngestEmptyInput(t *testing.T) {
	in := NewIngestor(slog.Default())
	if got := in.Ingest("CLM-2025-ABCD1234", nil); len(got) != 0 {
		t.Errorf("expected no signals, got %d", len(got))
	}
}

func TestHTTPDetector(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Errorf("method = %s", r.Method)
		}
		var req map[string]any
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Fatalf("bad request body: %v", err)
		}
		if req["reference"] != "CLM-2025-ABCD1234" {
			t.Errorf("reference = %v", req["reference"])
		}
		json.NewEncoder(w).Encode(map[string]any{
			"signals": []map[string]any{
				{"signalType": "inconsistent_statement", "description": "d", "evidence": "e", "confidence": 0.85},
			},
		})
	}))
	defer srv.Close()

	d := NewHTTPDetector(domain.SignalsConfig{Mode: "http", Endpoint: srv.URL, TimeoutSecs: 5})
	got, err := d.Detect(context.Background(), &domain.Claim{Reference: "CLM-2025-ABCD1234"})
	if err != nil {
		t.Fatalf("Detect: %v", err)
	}
	if len(got) != 1 || got[0].Type != "inconsistent_statement" {
		t.Fatalf("unexpected candidates: %+v", got)
	}
}

func TestHTTPDetectorErrorStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	d := NewHTTPDetector(domain.SignalsConfig{Mode: "http", Endpoint: srv.URL, TimeoutSecs: 5})
	if _, err := d.Detect(context.Background(), &domain.Claim{Reference: "CLM-2025-X"}); err == nil {
		t.Error("expected error for 500 response")
	}
}

func TestNewDetectorSelection(t *testing.T) {
	if _, ok := NewDetector(domain.SignalsConfig{Mode: "none"}).(NoopDetector); !ok {
		t.Error("mode none should select NoopDetector")
	}
	if _, ok := NewDetector(domain.SignalsConfig{Mode: "http", Endpoint: "http://localhost:9"}).(*HTTPDetector); !ok {
		t.Error("mode http should select HTTPDetector")
	}
	if _, ok := NewDetector(domain.SignalsConfig{Mode: "http"}).(NoopDetector); !ok {
		t.Error("mode http without endpoint should fall back to NoopDetector")
	}
}
