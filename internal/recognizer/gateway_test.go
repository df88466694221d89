package recognizer

import (
	"context"
	"math/rand"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func alwaysHitSimulator() *Simulator {
	return NewSimulator(testPopulation(), 1.0, 80, 99, rand.New(rand.NewSource(11)))
}

func TestGatewayUsesBackendWhenHealthy(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/recognize" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"recognized": true, "user_id": "CS101", "confidence": 87.6}`))
	}))
	defer srv.Close()

	gw := NewGateway(NewClient(srv.URL, time.Second), alwaysHitSimulator())

	res, source, err := gw.Recognize(context.Background(), "frame")
	if err != nil {
		t.Fatalf("Recognize failed: %v", err)
	}
	if source != SourceBackend {
		t.Errorf("source = %s, want backend", source)
	}
	if !res.Recognized || res.UserID != "CS101" {
		t.Errorf("unexpected result: %+v", res)
	}
	if res.Confidence != 88 {
		t.Errorf("confidence = %d, want rounded 88", res.Confidence)
	}
}

func TestGatewayBackendMissIsNotFallback(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"recognized": false}`))
	}))
	defer srv.Close()

	gw := NewGateway(NewClient(srv.URL, time.Second), alwaysHitSimulator())

	res, source, err := gw.Recognize(context.Background(), "frame")
	if err != nil {
		t.Fatalf("Recognize failed: %v", err)
	}
	if source != SourceBackend {
		t.Errorf("source = %s, want backend (a clean miss is not unavailability)", source)
	}
	if res.Recognized {
		t.Errorf("unexpected recognition: %+v", res)
	}
}

func TestGatewayFallsBackOnServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	}))
	defer srv.Close()

	gw := NewGateway(NewClient(srv.URL, time.Second), alwaysHitSimulator())

	res, source, err := gw.Recognize(context.Background(), "frame")
	if err != nil {
		t.Fatalf("Recognize surfaced backend failure: %v", err)
	}
	if source != SourceSimulator {
		t.Errorf("source = %s, want simulator", source)
	}
	if !res.Recognized {
		t.Error("always-hit simulator should recognize")
	}
	if res.Confidence < 80 || res.Confidence > 99 {
		t.Errorf("confidence %d outside [80,99]", res.Confidence)
	}
}

func TestGatewayFallsBackOnTimeout(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(300 * time.Millisecond)
		_, _ = w.Write([]byte(`{"recognized": false}`))
	}))
	defer srv.Close()

	gw := NewGateway(NewClient(srv.URL, 50*time.Millisecond), alwaysHitSimulator())

	start := time.Now()
	res, source, err := gw.Recognize(context.Background(), "frame")
	if err != nil {
		t.Fatalf("Recognize surfaced timeout: %v", err)
	}
	if source != SourceSimulator {
		t.Errorf("source = %s, want simulator", source)
	}
	if !res.Recognized {
		t.Error("always-hit simulator should recognize")
	}
	// Timeout short-circuits to the fallback rather than retrying.
	if elapsed := time.Since(start); elapsed > 250*time.Millisecond {
		t.Errorf("fallback took %s, timeout did not short-circuit", elapsed)
	}
}

func TestGatewayFallsBackOnUnreachableBackend(t *testing.T) {
	gw := NewGateway(NewClient("http://127.0.0.1:1", 100*time.Millisecond), alwaysHitSimulator())

	res, source, err := gw.Recognize(context.Background(), "frame")
	if err != nil {
		t.Fatalf("Recognize surfaced transport failure: %v", err)
	}
	if source != SourceSimulator || !res.Recognized {
		t.Errorf("expected simulator recognition, got source=%s res=%+v", source, res)
	}
}

func TestClientRejectsEmptyFrame(t *testing.T) {
	client := NewClient("http://localhost:5001", time.Second)
	if _, err := client.Recognize(context.Background(), ""); err == nil {
		t.Error("expected error for empty frame")
	}
}

func TestClientTrainChecksStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/train" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		// Success payload shape is arbitrary; only the status matters.
		_, _ = w.Write([]byte(`{"whatever": 1}`))
	}))
	defer srv.Close()

	client := NewClient(srv.URL, time.Second)
	if err := client.Train(context.Background(), "CS101", []string{"a", "b"}, map[string]any{"name": "Asha"}); err != nil {
		t.Fatalf("Train failed: %v", err)
	}

	bad := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "nope", http.StatusBadGateway)
	}))
	defer bad.Close()

	badClient := NewClient(bad.URL, time.Second)
	if err := badClient.Train(context.Background(), "CS101", []string{"a", "b"}, nil); err == nil {
		t.Error("expected error on non-2xx train response")
	}
}
